package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/geocode"
	"github.com/iyhunko/gas-app/internal/metrics"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/validation"
)

// ProducerService manages producer accounts.
type ProducerService struct {
	repos    repository.Repositories
	tx       repository.Transactor
	hasher   PasswordHasher
	geocoder geocode.Geocoder
	photos   PhotoAttacher
}

// NewProducerService creates a ProducerService. repos serve reads outside a transaction.
func NewProducerService(repos repository.Repositories, tx repository.Transactor, hasher PasswordHasher, geocoder geocode.Geocoder, photos PhotoAttacher) *ProducerService {
	if geocoder == nil {
		geocoder = geocode.Nop{}
	}
	return &ProducerService{
		repos:    repos,
		tx:       tx,
		hasher:   hasher,
		geocoder: geocoder,
		photos:   photos,
	}
}

// List returns a page of producers.
func (s *ProducerService) List(ctx context.Context, query repository.Query) ([]*model.Producer, error) {
	resources, err := s.repos.Producers.List(ctx, query)
	if err != nil {
		return nil, err
	}
	producers := make([]*model.Producer, 0, len(resources))
	for _, r := range resources {
		p, ok := r.(*model.Producer)
		if !ok {
			return nil, repository.ErrInvalidType
		}
		producers = append(producers, p)
	}
	return producers, nil
}

// Get returns the producer with id.
func (s *ProducerService) Get(ctx context.Context, id uuid.UUID) (*model.Producer, error) {
	resource, err := s.repos.Producers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "producer", id)
	}
	producer, ok := resource.(*model.Producer)
	if !ok {
		return nil, repository.ErrInvalidType
	}
	return producer, nil
}

// Markers returns a map pin for every geocoded producer.
func (s *ProducerService) Markers(ctx context.Context) ([]model.Marker, error) {
	return s.repos.Producers.ListMarkers(ctx)
}

// Create registers a producer. Rule violations come back as validation.Errors.
func (s *ProducerService) Create(ctx context.Context, changes model.ProducerChanges) (*model.Producer, error) {
	producer := &model.Producer{}
	addressChanged := changes.Apply(producer)

	if err := s.save(ctx, producer, addressChanged, true); err != nil {
		return nil, err
	}

	metrics.ProducersCreated.Inc()
	slog.Info("producer created", slog.String("producer_id", producer.ID.String()))
	return producer, nil
}

// Update assigns changes to the producer with id and saves it.
func (s *ProducerService) Update(ctx context.Context, id uuid.UUID, changes model.ProducerChanges) (*model.Producer, error) {
	producer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	addressChanged := changes.Apply(producer)

	if err := s.save(ctx, producer, addressChanged, false); err != nil {
		return nil, err
	}

	metrics.ProducersUpdated.Inc()
	return producer, nil
}

func (s *ProducerService) save(ctx context.Context, producer *model.Producer, addressChanged, isNew bool) error {
	errs := validation.Run(producer.Rules()...)
	if err := s.checkEmailTaken(ctx, producer, &errs); err != nil {
		return err
	}
	if errs.Any() {
		return errs
	}

	if producer.Password != "" {
		hash, salt, err := s.hasher.Hash(producer.Password)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return validation.Errors{{Field: "password", Message: "is too long (maximum is " + strconv.Itoa(auth.MaxPasswordLength) + " characters)"}}
		}
		if err != nil {
			return err
		}
		producer.CryptedPassword, producer.Salt = hash, salt
	}

	if addressChanged {
		if coords := geocode.Lookup(ctx, s.geocoder, producer.Address); coords != nil {
			producer.SetCoordinates(coords.Lat, coords.Lng)
		}
	}

	action := actionUpdated
	if isNew {
		action = actionCreated
	}
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		var err error
		if isNew {
			_, err = repos.Producers.Create(ctx, producer)
		} else {
			_, err = repos.Producers.Update(ctx, producer)
		}
		if err != nil {
			return err
		}
		return enqueue(ctx, repos.Events, producerMessage(action, producer))
	})

	var uniqueErr *repository.UniqueConstraintError
	if errors.As(err, &uniqueErr) {
		return validation.Errors{{Field: "email", Message: validation.MsgTaken}}
	}
	if err != nil {
		return notFound(err, "producer", producer.ID)
	}
	return nil
}

func (s *ProducerService) checkEmailTaken(ctx context.Context, producer *model.Producer, errs *validation.Errors) error {
	if producer.Email == "" {
		return nil
	}
	existing, err := s.repos.Producers.FindByEmail(ctx, producer.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing.ID != producer.ID {
		errs.Add("email", validation.MsgTaken)
	}
	return nil
}

// Delete removes the producer with id together with its products. Photos of
// the removed products are deleted after commit; storage failures are only logged.
func (s *ProducerService) Delete(ctx context.Context, id uuid.UUID) error {
	producer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var products []*model.Product
	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		var err error
		products, err = repos.Products.DeleteByProducerID(ctx, producer.ID)
		if err != nil {
			return err
		}
		if err := repos.Producers.DeleteByID(ctx, producer); err != nil {
			return err
		}
		for _, product := range products {
			if err := enqueue(ctx, repos.Events, productMessage(actionDeleted, product)); err != nil {
				return err
			}
		}
		return enqueue(ctx, repos.Events, producerMessage(actionDeleted, producer))
	})
	if err != nil {
		return notFound(err, "producer", id)
	}

	metrics.ProducersDeleted.Inc()
	metrics.ProductsDeleted.Add(float64(len(products)))
	for _, product := range products {
		detachPhoto(ctx, s.photos, product.ID, product.Photo)
	}
	slog.Info("producer deleted", slog.String("producer_id", id.String()), slog.Int("products", len(products)))
	return nil
}

func detachPhoto(ctx context.Context, photos PhotoAttacher, productID uuid.UUID, photo model.Photo) {
	if photos == nil || photo.FileName == "" {
		return
	}
	if err := photos.Detach(ctx, productID, photo); err != nil {
		slog.Warn("failed to delete product photo", slog.String("product_id", productID.String()), slog.Any("err", err))
	}
}
