package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/http/render"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/service"
	"github.com/iyhunko/gas-app/internal/validation"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

var errMissingParam = errors.New("param is missing or the value is empty")

// Controller handles general HTTP requests.
type Controller struct{}

// New creates a new Controller.
func New() *Controller {
	return &Controller{}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Root sends visitors to the producer list.
func (con *Controller) Root(c *gin.Context) {
	render.Redirect(c, producersPath())
}

// ListRequest represents the pagination query parameters of list endpoints.
type ListRequest struct {
	Limit int32  `form:"limit"`
	Token string `form:"token"`
}

func (r ListRequest) query() (*repository.Query, error) {
	query := repository.NewQuery()
	if err := query.ApplyPagination(r.Limit, r.Token); err != nil {
		return nil, err
	}
	return query, nil
}

func producersPath() string { return "/producers" }

func producerPath(id uuid.UUID) string { return "/producers/" + id.String() }

func productsPath(producerID uuid.UUID) string { return producerPath(producerID) + "/products" }

func productPath(producerID, id uuid.UUID) string { return productsPath(producerID) + "/" + id.String() }

func formatTime(t time.Time) string { return t.Format(timeLayout) }

// pathID parses the named path parameter. Anything that is not a UUID cannot
// resolve, so it is reported as not found.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		render.NotFound(c)
		return uuid.Nil, false
	}
	return id, true
}

// fail maps err to a response. Validation failures are handed to form, which
// re-renders the page; JSON clients get the errors as a 422 payload.
func fail(c *gin.Context, err error, form func(errs validation.Errors)) {
	if errs, ok := validation.AsErrors(err); ok {
		if render.WantsJSON(c) || form == nil {
			c.JSON(http.StatusUnprocessableEntity, errs)
			return
		}
		form(errs)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		render.NotFound(c)
	case errors.Is(err, errMissingParam), errors.Is(err, repository.ErrInvalidPaginationToken):
		render.Error(c, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("err", err))
		render.Error(c, http.StatusInternalServerError, "internal server error")
	}
}

func badRequest(c *gin.Context, err error) {
	render.Error(c, http.StatusBadRequest, err.Error())
}

// formValue accepts a JSON string, number or null, so prices can be sent either way.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or a number: %w", err)
	}
	*v = formValue(n)
	return nil
}

func (v *formValue) ptr() *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// formField returns a pointer to form[key] when it was submitted.
func formField(form map[string]string, key string) *string {
	if v, ok := form[key]; ok {
		return &v
	}
	return nil
}
