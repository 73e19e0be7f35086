package controller_test

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/attachment"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/http/views"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducerService struct {
	mock.Mock
}

func (m *MockProducerService) List(ctx context.Context, query repository.Query) ([]*model.Producer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Producer), args.Error(1)
}

func (m *MockProducerService) Get(ctx context.Context, id uuid.UUID) (*model.Producer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Producer), args.Error(1)
}

func (m *MockProducerService) Markers(ctx context.Context) ([]model.Marker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Marker), args.Error(1)
}

func (m *MockProducerService) Create(ctx context.Context, changes model.ProducerChanges) (*model.Producer, error) {
	args := m.Called(ctx, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Producer), args.Error(1)
}

func (m *MockProducerService) Update(ctx context.Context, id uuid.UUID, changes model.ProducerChanges) (*model.Producer, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Producer), args.Error(1)
}

func (m *MockProducerService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, producerID uuid.UUID, query repository.Query) ([]*model.Product, error) {
	args := m.Called(ctx, producerID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, producerID, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, producerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, producerID uuid.UUID, changes model.ProductChanges, upload *attachment.Upload) (*model.Product, error) {
	args := m.Called(ctx, producerID, changes, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, producerID, id uuid.UUID, changes model.ProductChanges, upload *attachment.Upload) (*model.Product, error) {
	args := m.Called(ctx, producerID, id, changes, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, producerID, id uuid.UUID) error {
	return m.Called(ctx, producerID, id).Error(0)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Begin(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessions) End(ctx context.Context, token string) {
	m.Called(ctx, token)
}

type stubPhotos struct{}

func (stubPhotos) URL(product *model.Product, style string) string {
	if !product.HasPhoto() {
		return attachment.DefaultURL(style)
	}
	return "/system/" + attachment.Key(product.ID, style, product.Photo.FileName)
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	templates, err := views.Templates()
	require.NoError(t, err)
	engine.SetHTMLTemplate(templates)
	return engine
}

func strPtr(s string) *string { return &s }
