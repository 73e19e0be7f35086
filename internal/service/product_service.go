package service

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/attachment"
	"github.com/iyhunko/gas-app/internal/metrics"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/validation"
)

// ProductService manages the products of a producer.
type ProductService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	photos PhotoAttacher
}

// NewProductService creates a ProductService.
func NewProductService(repos repository.Repositories, tx repository.Transactor, photos PhotoAttacher) *ProductService {
	return &ProductService{
		repos:  repos,
		tx:     tx,
		photos: photos,
	}
}

func (s *ProductService) producerExists(ctx context.Context, producerID uuid.UUID) error {
	if _, err := s.repos.Producers.FindByID(ctx, producerID); err != nil {
		return notFound(err, "producer", producerID)
	}
	return nil
}

// List returns a page of the producer's products.
func (s *ProductService) List(ctx context.Context, producerID uuid.UUID, query repository.Query) ([]*model.Product, error) {
	if err := s.producerExists(ctx, producerID); err != nil {
		return nil, err
	}

	scoped := query
	scoped.Values = maps.Clone(query.Values)
	if scoped.Values == nil {
		scoped.Values = map[repository.QueryField]string{}
	}
	scoped.Values[repository.ProducerIDField] = producerID.String()

	resources, err := s.repos.Products.List(ctx, scoped)
	if err != nil {
		return nil, err
	}
	products := make([]*model.Product, 0, len(resources))
	for _, r := range resources {
		p, ok := r.(*model.Product)
		if !ok {
			return nil, repository.ErrInvalidType
		}
		products = append(products, p)
	}
	return products, nil
}

// Get returns the product with id. A product owned by another producer is reported as not found.
func (s *ProductService) Get(ctx context.Context, producerID, id uuid.UUID) (*model.Product, error) {
	if err := s.producerExists(ctx, producerID); err != nil {
		return nil, err
	}
	resource, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	product, ok := resource.(*model.Product)
	if !ok {
		return nil, repository.ErrInvalidType
	}
	if product.ProducerID != producerID {
		return nil, notFound(repository.ErrNotFound, "product", id)
	}
	return product, nil
}

// Create builds a product for the producer from changes and an optional photo upload.
func (s *ProductService) Create(ctx context.Context, producerID uuid.UUID, changes model.ProductChanges, upload *attachment.Upload) (*model.Product, error) {
	if err := s.producerExists(ctx, producerID); err != nil {
		return nil, err
	}

	product := &model.Product{ProducerID: producerID}
	changes.Apply(product)

	photo, err := validateProduct(product, upload)
	if err != nil {
		return nil, err
	}

	product.InitMeta()
	if err := s.save(ctx, product, model.Photo{}, photo, true); err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	slog.Info("product created",
		slog.String("product_id", product.ID.String()),
		slog.String("producer_id", producerID.String()),
	)
	return product, nil
}

// Update assigns changes to the product and replaces its photo when upload is given.
func (s *ProductService) Update(ctx context.Context, producerID, id uuid.UUID, changes model.ProductChanges, upload *attachment.Upload) (*model.Product, error) {
	product, err := s.Get(ctx, producerID, id)
	if err != nil {
		return nil, err
	}
	previous := product.Photo
	changes.Apply(product)

	photo, err := validateProduct(product, upload)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, product, previous, photo, false); err != nil {
		return nil, err
	}

	// same file name means the renditions were overwritten in place
	if photo != nil && previous.FileName != "" && previous.FileName != photo.FileName {
		detachPhoto(ctx, s.photos, product.ID, previous)
	}
	metrics.ProductsUpdated.Inc()
	return product, nil
}

// validateProduct runs the product rules and prepares the upload. Both sets of
// failures are reported together.
func validateProduct(product *model.Product, upload *attachment.Upload) (*attachment.Prepared, error) {
	errs := validation.Run(product.Rules()...)

	var photo *attachment.Prepared
	if upload != nil {
		prepared, err := attachment.Prepare(*upload)
		if photoErrs, ok := validation.AsErrors(err); ok {
			errs.Merge(photoErrs)
		} else if err != nil {
			return nil, err
		}
		photo = prepared
	}

	if errs.Any() {
		return nil, errs
	}
	return photo, nil
}

// save persists product with the prepared photo. previous is the photo the
// product had before; on failure only renditions under a new file name are removed.
func (s *ProductService) save(ctx context.Context, product *model.Product, previous model.Photo, photo *attachment.Prepared, isNew bool) error {
	if photo != nil {
		now := time.Now()
		product.Photo = model.Photo{
			FileName:    photo.FileName,
			ContentType: photo.ContentType,
			FileSize:    photo.Size,
			UpdatedAt:   &now,
		}
	}

	action := actionUpdated
	if isNew {
		action = actionCreated
	}
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if photo != nil {
			if err := s.photos.Attach(ctx, product.ID, photo); err != nil {
				return err
			}
		}
		var err error
		if isNew {
			_, err = repos.Products.Create(ctx, product)
		} else {
			_, err = repos.Products.Update(ctx, product)
		}
		if err != nil {
			return err
		}
		return enqueue(ctx, repos.Events, productMessage(action, product))
	})
	if err != nil {
		if photo != nil && product.Photo.FileName != previous.FileName {
			detachPhoto(ctx, s.photos, product.ID, product.Photo)
		}
		return notFound(err, "product", product.ID)
	}
	return nil
}

// Delete removes the product and then its photo files.
func (s *ProductService) Delete(ctx context.Context, producerID, id uuid.UUID) error {
	product, err := s.Get(ctx, producerID, id)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Products.DeleteByID(ctx, product); err != nil {
			return err
		}
		return enqueue(ctx, repos.Events, productMessage(actionDeleted, product))
	})
	if err != nil {
		return notFound(err, "product", id)
	}

	detachPhoto(ctx, s.photos, product.ID, product.Photo)
	metrics.ProductsDeleted.Inc()
	slog.Info("product deleted", slog.String("product_id", id.String()))
	return nil
}
