package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/attachment"
	"github.com/iyhunko/gas-app/internal/geocode"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockProducerRepository is a mock implementation of repository.ProducerRepository
type MockProducerRepository struct {
	mock.Mock
}

func (m *MockProducerRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockProducerRepository) Update(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockProducerRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Resource), args.Error(1)
}

func (m *MockProducerRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *MockProducerRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockProducerRepository) FindByEmail(ctx context.Context, email string) (*model.Producer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Producer), args.Error(1)
}

func (m *MockProducerRepository) ListMarkers(ctx context.Context) ([]model.Marker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Marker), args.Error(1)
}

// MockProductRepository is a mock implementation of repository.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Resource), args.Error(1)
}

func (m *MockProductRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockProductRepository) DeleteByProducerID(ctx context.Context, producerID uuid.UUID) ([]*model.Product, error) {
	args := m.Called(ctx, producerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Resource), args.Error(1)
}

func (m *MockEventRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *MockEventRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockEventRepository) ClaimPending(ctx context.Context, limit int, worker string) ([]*model.Event, error) {
	args := m.Called(ctx, limit, worker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

// inlineTx runs the unit of work directly against the given repositories.
type inlineTx struct {
	repos repository.Repositories
	calls int
}

func (tx *inlineTx) WithinTransaction(_ context.Context, fn func(repos repository.Repositories) error) error {
	tx.calls++
	return fn(tx.repos)
}

type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, string, error) {
	args := m.Called(password)
	return args.String(0), args.String(1), args.Error(2)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Coordinates, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Coordinates), args.Error(1)
}

type MockPhotos struct {
	mock.Mock
}

func (m *MockPhotos) Attach(ctx context.Context, productID uuid.UUID, photo *attachment.Prepared) error {
	return m.Called(ctx, productID, photo).Error(0)
}

func (m *MockPhotos) Detach(ctx context.Context, productID uuid.UUID, photo model.Photo) error {
	return m.Called(ctx, productID, photo).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishRaw(ctx context.Context, eventType string, body []byte) error {
	return m.Called(ctx, eventType, body).Error(0)
}

type mocks struct {
	producers *MockProducerRepository
	products  *MockProductRepository
	events    *MockEventRepository
	tx        *inlineTx
}

func newMocks() *mocks {
	m := &mocks{
		producers: new(MockProducerRepository),
		products:  new(MockProductRepository),
		events:    new(MockEventRepository),
	}
	m.tx = &inlineTx{repos: m.repos()}
	return m
}

func (m *mocks) repos() repository.Repositories {
	return repository.Repositories{Producers: m.producers, Products: m.products, Events: m.events}
}

func (m *mocks) assertExpectations(t mock.TestingT) {
	m.producers.AssertExpectations(t)
	m.products.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func strPtr(s string) *string { return &s }
