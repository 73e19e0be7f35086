package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/attachment"
	"github.com/iyhunko/gas-app/internal/http/render"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/validation"
)

// MaxPhotoSize caps uploaded photos.
const MaxPhotoSize = 10 << 20

// Product routes nest under /producers/:id, so the producer keeps the "id" name.
const (
	producerParam = "id"
	productParam  = "product_id"
)

// ProductService is the product use-case surface the controller needs.
type ProductService interface {
	List(ctx context.Context, producerID uuid.UUID, query repository.Query) ([]*model.Product, error)
	Get(ctx context.Context, producerID, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, producerID uuid.UUID, changes model.ProductChanges, upload *attachment.Upload) (*model.Product, error)
	Update(ctx context.Context, producerID, id uuid.UUID, changes model.ProductChanges, upload *attachment.Upload) (*model.Product, error)
	Delete(ctx context.Context, producerID, id uuid.UUID) error
}

// PhotoURLs resolves public photo URLs.
type PhotoURLs interface {
	URL(product *model.Product, style string) string
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	producers ProducerService
	products  ProductService
	photos    PhotoURLs
}

// NewProductController creates a new ProductController.
func NewProductController(producers ProducerService, products ProductService, photos PhotoURLs) *ProductController {
	return &ProductController{
		producers: producers,
		products:  products,
		photos:    photos,
	}
}

// PhotoParams is an inline photo upload; Data is base64 in JSON.
type PhotoParams struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// ProductParams is the whitelisted product payload.
type ProductParams struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Price       *formValue   `json:"price"`
	Unit        *string      `json:"unit"`
	Photo       *PhotoParams `json:"photo"`
}

// ProductRequest wraps ProductParams under the "product" key.
type ProductRequest struct {
	Product *ProductParams `json:"product"`
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID          string            `json:"id"`
	ProducerID  string            `json:"producer_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       string            `json:"price"`
	Unit        string            `json:"unit"`
	PriceTag    string            `json:"price_tag"`
	Photo       map[string]string `json:"photo"`
	URL         string            `json:"url"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products      []ProductResponse `json:"products"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type productForm struct {
	ProducerID  uuid.UUID
	ID          uuid.UUID
	Name        string
	Description string
	Price       string
	Unit        string
	Units       []string
	Errors      validation.Errors
}

func productChanges(c *gin.Context) (model.ProductChanges, *attachment.Upload, error) {
	if c.ContentType() == gin.MIMEJSON {
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return model.ProductChanges{}, nil, err
		}
		if req.Product == nil {
			return model.ProductChanges{}, nil, errMissingParam
		}
		p := req.Product
		changes := model.ProductChanges{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.ptr(),
			Unit:        p.Unit,
		}
		var upload *attachment.Upload
		if p.Photo != nil && len(p.Photo.Data) > 0 {
			upload = &attachment.Upload{Filename: p.Photo.Filename, Data: p.Photo.Data}
		}
		return changes, upload, nil
	}

	form, ok := c.GetPostFormMap("product")
	upload, err := formPhoto(c)
	if err != nil {
		return model.ProductChanges{}, nil, err
	}
	if !ok && upload == nil {
		return model.ProductChanges{}, nil, errMissingParam
	}
	return model.ProductChanges{
		Name:        formField(form, "name"),
		Description: formField(form, "description"),
		Price:       formField(form, "price"),
		Unit:        formField(form, "unit"),
	}, upload, nil
}

func formPhoto(c *gin.Context) (*attachment.Upload, error) {
	header, err := c.FormFile("product[photo]")
	if err != nil {
		return nil, nil
	}
	if header.Size > MaxPhotoSize {
		return nil, validation.Errors{{Field: attachment.PhotoField, Message: fmt.Sprintf("is too big (maximum is %d MB)", MaxPhotoSize>>20)}}
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &attachment.Upload{Filename: header.Filename, Data: data}, nil
}

func newProductForm(producerID uuid.UUID, p *model.Product, changes model.ProductChanges, errs validation.Errors) productForm {
	form := productForm{ProducerID: producerID, Units: model.Units, Errors: errs}
	if p != nil {
		form.ID = p.ID
		form.Name = p.Name
		form.Description = p.Description
		form.Unit = p.Unit
		if p.Price.Valid {
			form.Price = p.Price.Decimal.StringFixed(2)
		}
	}
	if changes.Name != nil {
		form.Name = *changes.Name
	}
	if changes.Description != nil {
		form.Description = *changes.Description
	}
	if changes.Price != nil {
		form.Price = *changes.Price
	}
	if changes.Unit != nil {
		form.Unit = *changes.Unit
	}
	return form
}

// ListProducts handles GET /producers/:id/products.
func (pc *ProductController) ListProducts(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
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

	products, err := pc.products.List(c.Request.Context(), producerID, *query)
	if err != nil {
		fail(c, err, nil)
		return
	}

	response := ListProductsResponse{Products: make([]ProductResponse, 0, len(products))}
	for _, product := range products {
		response.Products = append(response.Products, pc.toProductResponse(product))
	}
	if len(products) == query.Limit {
		last := products[len(products)-1]
		response.NextPageToken = repository.NextPageToken(last.CreatedAt, last.ID)
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, response)
		return
	}
	producer, err := pc.producers.Get(c.Request.Context(), producerID)
	if err != nil {
		fail(c, err, nil)
		return
	}
	render.Page(c, http.StatusOK, "products/index", gin.H{
		"Producer":      toProducerResponse(producer),
		"Products":      response.Products,
		"NextPageToken": response.NextPageToken,
	})
}

// ShowProduct handles GET /producers/:id/products/:product_id.
func (pc *ProductController) ShowProduct(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
	id, ok := pathID(c, productParam)
	if !ok {
		return
	}
	product, err := pc.products.Get(c.Request.Context(), producerID, id)
	if err != nil {
		fail(c, err, nil)
		return
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, pc.toProductResponse(product))
		return
	}
	render.Page(c, http.StatusOK, "products/show", gin.H{"Product": pc.toProductResponse(product)})
}

// NewProduct handles GET /producers/:id/products/new.
func (pc *ProductController) NewProduct(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
	if _, err := pc.producers.Get(c.Request.Context(), producerID); err != nil {
		fail(c, err, nil)
		return
	}
	render.Page(c, http.StatusOK, "products/new", gin.H{"Form": newProductForm(producerID, nil, model.ProductChanges{}, nil)})
}

// CreateProduct handles POST /producers/:id/products.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
	changes, upload, err := productChanges(c)
	if err != nil {
		pc.rejectParams(c, err, func(errs validation.Errors) {
			render.Page(c, http.StatusUnprocessableEntity, "products/new", gin.H{"Form": newProductForm(producerID, nil, changes, errs)})
		})
		return
	}

	product, err := pc.products.Create(c.Request.Context(), producerID, changes, upload)
	if err != nil {
		fail(c, err, func(errs validation.Errors) {
			render.Page(c, http.StatusUnprocessableEntity, "products/new", gin.H{"Form": newProductForm(producerID, nil, changes, errs)})
		})
		return
	}

	if render.WantsJSON(c) {
		c.Header("Location", productPath(producerID, product.ID))
		c.JSON(http.StatusCreated, pc.toProductResponse(product))
		return
	}
	render.RedirectWithFlash(c, productsPath(producerID), render.Notice, "Product was successfully created.")
}

// EditProduct handles GET /producers/:id/products/:product_id/edit.
func (pc *ProductController) EditProduct(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
	id, ok := pathID(c, productParam)
	if !ok {
		return
	}
	product, err := pc.products.Get(c.Request.Context(), producerID, id)
	if err != nil {
		fail(c, err, nil)
		return
	}
	render.Page(c, http.StatusOK, "products/edit", gin.H{"Form": newProductForm(producerID, product, model.ProductChanges{}, nil)})
}

// UpdateProduct handles PATCH/PUT /producers/:id/products/:product_id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
	id, ok := pathID(c, productParam)
	if !ok {
		return
	}
	editForm := func(changes model.ProductChanges) func(errs validation.Errors) {
		return func(errs validation.Errors) {
			current, err := pc.products.Get(c.Request.Context(), producerID, id)
			if err != nil {
				fail(c, err, nil)
				return
			}
			render.Page(c, http.StatusUnprocessableEntity, "products/edit", gin.H{"Form": newProductForm(producerID, current, changes, errs)})
		}
	}

	changes, upload, err := productChanges(c)
	if err != nil {
		pc.rejectParams(c, err, editForm(changes))
		return
	}

	product, err := pc.products.Update(c.Request.Context(), producerID, id, changes, upload)
	if err != nil {
		fail(c, err, editForm(changes))
		return
	}

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, pc.toProductResponse(product))
		return
	}
	render.RedirectWithFlash(c, productsPath(producerID), render.Notice, "Product was successfully updated.")
}

// DeleteProduct handles DELETE /producers/:id/products/:product_id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	producerID, ok := pathID(c, producerParam)
	if !ok {
		return
	}
	id, ok := pathID(c, productParam)
	if !ok {
		return
	}
	if err := pc.products.Delete(c.Request.Context(), producerID, id); err != nil {
		fail(c, err, nil)
		return
	}

	if render.WantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	render.RedirectWithFlash(c, productsPath(producerID), render.Notice, "Product was successfully destroyed.")
}

// rejectParams handles unreadable input: an oversized photo is a field error,
// anything else is a bad request.
func (pc *ProductController) rejectParams(c *gin.Context, err error, form func(errs validation.Errors)) {
	if _, ok := validation.AsErrors(err); ok {
		fail(c, err, form)
		return
	}
	badRequest(c, err)
}

func (pc *ProductController) toProductResponse(product *model.Product) ProductResponse {
	response := ProductResponse{
		ID:          product.ID.String(),
		ProducerID:  product.ProducerID.String(),
		Name:        product.Name,
		Description: product.Description,
		Unit:        product.Unit,
		PriceTag:    product.PriceTag(),
		Photo:       map[string]string{},
		URL:         productPath(product.ProducerID, product.ID),
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
	if product.Price.Valid {
		response.Price = product.Price.Decimal.StringFixed(2)
	}
	for _, style := range []string{attachment.Original, attachment.Medium.Name, attachment.Thumb.Name} {
		response.Photo[style] = pc.photos.URL(product, style)
	}
	return response
}
