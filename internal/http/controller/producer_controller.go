package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/http/render"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/validation"
)

// ProducerService is the producer use-case surface the controller needs.
type ProducerService interface {
	List(ctx context.Context, query repository.Query) ([]*model.Producer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Producer, error)
	Markers(ctx context.Context) ([]model.Marker, error)
	Create(ctx context.Context, changes model.ProducerChanges) (*model.Producer, error)
	Update(ctx context.Context, id uuid.UUID, changes model.ProducerChanges) (*model.Producer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProducerController handles HTTP requests for producer operations.
type ProducerController struct {
	producers ProducerService
}

// NewProducerController creates a new ProducerController with the given producer service.
func NewProducerController(producers ProducerService) *ProducerController {
	return &ProducerController{
		producers: producers,
	}
}

// ProducerParams is the whitelisted producer payload.
type ProducerParams struct {
	Name                 *string `json:"name"`
	Address              *string `json:"address"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
	Password             *string `json:"password"`
	PasswordConfirmation *string `json:"password_confirmation"`
}

// ProducerRequest wraps ProducerParams under the "producer" key.
type ProducerRequest struct {
	Producer *ProducerParams `json:"producer"`
}

// ProducerResponse represents the response body for a producer.
type ProducerResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	URL       string   `json:"url"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ListProducersResponse represents the response body for listing producers.
type ListProducersResponse struct {
	Producers     []ProducerResponse `json:"producers"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// MarkerResponse is a map pin.
type MarkerResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// producerForm holds what the form shows, including rejected input.
type producerForm struct {
	ID      uuid.UUID
	Name    string
	Address string
	Email   string
	Phone   string
	Errors  validation.Errors
}

func producerChanges(c *gin.Context) (model.ProducerChanges, error) {
	if c.ContentType() == gin.MIMEJSON {
		var req ProducerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return model.ProducerChanges{}, err
		}
		if req.Producer == nil {
			return model.ProducerChanges{}, errMissingParam
		}
		p := req.Producer
		return model.ProducerChanges{
			Name:                 p.Name,
			Address:              p.Address,
			Email:                p.Email,
			Phone:                p.Phone,
			Password:             p.Password,
			PasswordConfirmation: p.PasswordConfirmation,
		}, nil
	}

	form, ok := c.GetPostFormMap("producer")
	if !ok {
		return model.ProducerChanges{}, errMissingParam
	}
	return model.ProducerChanges{
		Name:                 formField(form, "name"),
		Address:              formField(form, "address"),
		Email:                formField(form, "email"),
		Phone:                formField(form, "phone"),
		Password:             formField(form, "password"),
		PasswordConfirmation: formField(form, "password_confirmation"),
	}, nil
}

func newProducerForm(p *model.Producer, changes model.ProducerChanges, errs validation.Errors) producerForm {
	draft := model.Producer{}
	if p != nil {
		draft = *p
	}
	changes.Apply(&draft)
	return producerForm{
		ID:      draft.ID,
		Name:    draft.Name,
		Address: draft.Address,
		Email:   draft.Email,
		Phone:   draft.Phone,
		Errors:  errs,
	}
}

// ListProducers handles GET /producers.
func (pc *ProducerController) ListProducers(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	query, err := req.query()
	if err != nil {
		badRequest(c, err)
		return
	}

	producers, err := pc.producers.List(c.Request.Context(), *query)
	if err != nil {
		fail(c, err, nil)
		return
	}

	response := ListProducersResponse{Producers: make([]ProducerResponse, 0, len(producers))}
	for _, producer := range producers {
		response.Producers = append(response.Producers, toProducerResponse(producer))
	}
	if len(producers) == query.Limit {
		last := producers[len(producers)-1]
		response.NextPageToken = repository.NextPageToken(last.CreatedAt, last.ID)
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, response)
		return
	}
	render.Page(c, http.StatusOK, "producers/index", gin.H{"Producers": response.Producers, "NextPageToken": response.NextPageToken})
}

// ShowProducer handles GET /producers/:id.
func (pc *ProducerController) ShowProducer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	producer, err := pc.producers.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, nil)
		return
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, toProducerResponse(producer))
		return
	}
	render.Page(c, http.StatusOK, "producers/show", gin.H{"Producer": toProducerResponse(producer)})
}

// NewProducer handles GET /producers/new.
func (pc *ProducerController) NewProducer(c *gin.Context) {
	render.Page(c, http.StatusOK, "producers/new", gin.H{"Form": producerForm{}})
}

// CreateProducer handles POST /producers.
func (pc *ProducerController) CreateProducer(c *gin.Context) {
	changes, err := producerChanges(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	producer, err := pc.producers.Create(c.Request.Context(), changes)
	if err != nil {
		fail(c, err, func(errs validation.Errors) {
			render.Page(c, http.StatusUnprocessableEntity, "producers/new", gin.H{"Form": newProducerForm(nil, changes, errs)})
		})
		return
	}

	if render.WantsJSON(c) {
		c.Header("Location", producerPath(producer.ID))
		c.JSON(http.StatusCreated, toProducerResponse(producer))
		return
	}
	render.RedirectWithFlash(c, producerPath(producer.ID), render.Notice, "Producer was successfully created.")
}

// EditProducer handles GET /producers/:id/edit.
func (pc *ProducerController) EditProducer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	producer, err := pc.producers.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, nil)
		return
	}
	render.Page(c, http.StatusOK, "producers/edit", gin.H{"Form": newProducerForm(producer, model.ProducerChanges{}, nil)})
}

// UpdateProducer handles PATCH/PUT /producers/:id.
func (pc *ProducerController) UpdateProducer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	changes, err := producerChanges(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	producer, err := pc.producers.Update(c.Request.Context(), id, changes)
	if err != nil {
		fail(c, err, func(errs validation.Errors) {
			current, getErr := pc.producers.Get(c.Request.Context(), id)
			if getErr != nil {
				fail(c, getErr, nil)
				return
			}
			render.Page(c, http.StatusUnprocessableEntity, "producers/edit", gin.H{"Form": newProducerForm(current, changes, errs)})
		})
		return
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, toProducerResponse(producer))
		return
	}
	render.RedirectWithFlash(c, producerPath(producer.ID), render.Notice, "Producer was successfully updated.")
}

// DeleteProducer handles DELETE /producers/:id.
func (pc *ProducerController) DeleteProducer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := pc.producers.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, nil)
		return
	}

	if render.WantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	render.RedirectWithFlash(c, producersPath(), render.Notice, "Producer was successfully destroyed.")
}

// MapProducers handles GET /producers/map and GET /producers/:id/map. Every
// geocoded producer becomes a pin; on the member route the producer must exist.
func (pc *ProducerController) MapProducers(c *gin.Context) {
	if c.Param("id") != "" {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if _, err := pc.producers.Get(c.Request.Context(), id); err != nil {
			fail(c, err, nil)
			return
		}
	}

	markers, err := pc.producers.Markers(c.Request.Context())
	if err != nil {
		fail(c, err, nil)
		return
	}
	pins := make([]MarkerResponse, 0, len(markers))
	for _, m := range markers {
		pins = append(pins, MarkerResponse{Lat: m.Lat, Lng: m.Lng})
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, pins)
		return
	}
	render.Page(c, http.StatusOK, "producers/map", gin.H{"Markers": pins})
}

func toProducerResponse(producer *model.Producer) ProducerResponse {
	return ProducerResponse{
		ID:        producer.ID.String(),
		Name:      producer.Name,
		Address:   producer.Address,
		Email:     producer.Email,
		Phone:     producer.Phone,
		Latitude:  producer.Latitude,
		Longitude: producer.Longitude,
		URL:       producerPath(producer.ID),
		CreatedAt: formatTime(producer.CreatedAt),
		UpdatedAt: formatTime(producer.UpdatedAt),
	}
}
