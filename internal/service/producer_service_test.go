package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/geocode"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/service"
	"github.com/iyhunko/gas-app/internal/sqs"
	"github.com/iyhunko/gas-app/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func aliceChanges() model.ProducerChanges {
	return model.ProducerChanges{
		Name:    strPtr("Alice"),
		Address: strPtr("1 Main St"),
		Email:   strPtr("a@x.com"),
	}
}

func expectProducerCreate(m *mocks) {
	m.producers.On("Create", mock.Anything, mock.AnythingOfType("*model.Producer")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Producer).InitMeta()
		}).
		Return(&model.Producer{}, nil)
}

func TestProducerService_Create(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	geocoder := new(MockGeocoder)
	hasher := new(MockHasher)

	// given
	m.producers.On("FindByEmail", ctx, "a@x.com").Return(nil, repository.ErrNotFound)
	geocoder.On("Geocode", ctx, "1 Main St").Return(&geocode.Coordinates{Lat: 50.45, Lng: 30.52}, nil)
	expectProducerCreate(m)
	var event *model.Event
	m.events.On("Create", ctx, mock.AnythingOfType("*model.Event")).
		Run(func(args mock.Arguments) { event = args.Get(1).(*model.Event) }).
		Return(&model.Event{}, nil)

	svc := service.NewProducerService(m.repos(), m.tx, hasher, geocoder, nil)

	// when
	producer, err := svc.Create(ctx, aliceChanges())

	// then
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, producer.ID)
	require.True(t, producer.Geocoded())
	assert.Equal(t, 50.45, *producer.Latitude)
	assert.Equal(t, 30.52, *producer.Longitude)
	assert.Empty(t, producer.CryptedPassword)
	assert.Equal(t, 1, m.tx.calls)

	require.NotNil(t, event)
	assert.Equal(t, model.EventProducerCreated, event.EventType)
	var msg sqs.Message
	require.NoError(t, json.Unmarshal(event.EventData, &msg))
	assert.Equal(t, producer.ID.String(), msg.ResourceID)
	assert.Equal(t, "Alice", msg.Name)

	hasher.AssertNotCalled(t, "Hash", mock.Anything)
	geocoder.AssertExpectations(t)
	m.assertExpectations(t)
}

func TestProducerService_CreateHashesPassword(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	hasher := new(MockHasher)

	// given
	changes := aliceChanges()
	changes.Password = strPtr("secret")
	changes.PasswordConfirmation = strPtr("secret")
	m.producers.On("FindByEmail", ctx, "a@x.com").Return(nil, repository.ErrNotFound)
	hasher.On("Hash", "secret").Return("crypted", "salt", nil)
	expectProducerCreate(m)
	m.events.On("Create", ctx, mock.AnythingOfType("*model.Event")).Return(&model.Event{}, nil)

	svc := service.NewProducerService(m.repos(), m.tx, hasher, nil, nil)

	// when
	producer, err := svc.Create(ctx, changes)

	// then
	require.NoError(t, err)
	assert.Equal(t, "crypted", producer.CryptedPassword)
	assert.Equal(t, "salt", producer.Salt)
	hasher.AssertExpectations(t)
}

func TestProducerService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		changes   func() model.ProducerChanges
		existing  *model.Producer
		field     string
		message   string
		hashError error
	}{
		{
			name: "blank name",
			changes: func() model.ProducerChanges {
				c := aliceChanges()
				c.Name = strPtr("")
				return c
			},
			field:   "name",
			message: validation.MsgBlank,
		},
		{
			name: "blank address",
			changes: func() model.ProducerChanges {
				c := aliceChanges()
				c.Address = nil
				return c
			},
			field:   "address",
			message: validation.MsgBlank,
		},
		{
			name: "confirmation mismatch",
			changes: func() model.ProducerChanges {
				c := aliceChanges()
				c.Password = strPtr("secret")
				c.PasswordConfirmation = strPtr("other")
				return c
			},
			field:   "password",
			message: validation.MsgConfirmation,
		},
		{
			name:     "email taken",
			changes:  aliceChanges,
			existing: &model.Producer{ID: uuid.New(), Email: "a@x.com"},
			field:    "email",
			message:  validation.MsgTaken,
		},
		{
			name: "password too long",
			changes: func() model.ProducerChanges {
				c := aliceChanges()
				c.Password = strPtr("x")
				c.PasswordConfirmation = strPtr("x")
				return c
			},
			hashError: auth.ErrPasswordTooLong,
			field:     "password",
			message:   "is too long (maximum is 52 characters)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			hasher := new(MockHasher)

			// given
			if tt.existing != nil {
				m.producers.On("FindByEmail", ctx, "a@x.com").Return(tt.existing, nil)
			} else {
				m.producers.On("FindByEmail", ctx, "a@x.com").Return(nil, repository.ErrNotFound)
			}
			if tt.hashError != nil {
				hasher.On("Hash", mock.Anything).Return("", "", tt.hashError)
			}
			svc := service.NewProducerService(m.repos(), m.tx, hasher, nil, nil)

			// when
			_, err := svc.Create(ctx, tt.changes())

			// then
			errs, ok := validation.AsErrors(err)
			require.True(t, ok, "expected validation errors, got %v", err)
			assert.Contains(t, errs.On(tt.field), tt.message)
			assert.Zero(t, m.tx.calls)
			m.producers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProducerService_CreateUniqueViolation(t *testing.T) {
	ctx := context.Background()
	m := newMocks()

	// given
	m.producers.On("FindByEmail", ctx, "a@x.com").Return(nil, repository.ErrNotFound)
	m.producers.On("Create", ctx, mock.AnythingOfType("*model.Producer")).
		Return(nil, &repository.UniqueConstraintError{Constraint: "producers_email_key"})

	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), nil, nil)

	// when
	_, err := svc.Create(ctx, aliceChanges())

	// then
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{validation.MsgTaken}, errs.On("email"))
	m.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProducerService_UpdateKeepsCoordinatesWhenAddressUnchanged(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	geocoder := new(MockGeocoder)

	// given
	existing := &model.Producer{ID: uuid.New(), Name: "Alice", Address: "1 Main St", Email: "a@x.com"}
	existing.SetCoordinates(1, 2)
	m.producers.On("FindByID", ctx, existing.ID).Return(existing, nil)
	m.producers.On("FindByEmail", ctx, "a@x.com").Return(existing, nil)
	m.producers.On("Update", ctx, existing).Return(existing, nil)
	m.events.On("Create", ctx, mock.MatchedBy(func(e *model.Event) bool {
		return e.EventType == model.EventProducerUpdated
	})).Return(&model.Event{}, nil)

	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), geocoder, nil)

	// when
	updated, err := svc.Update(ctx, existing.ID, model.ProducerChanges{Name: strPtr("Alice B"), Address: strPtr("1 Main St")})

	// then
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, 1.0, *updated.Latitude)
	geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestProducerService_UpdateGeocodeMissLeavesCoordinates(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	geocoder := new(MockGeocoder)

	// given
	existing := &model.Producer{ID: uuid.New(), Name: "Alice", Address: "1 Main St", Email: "a@x.com"}
	existing.SetCoordinates(1, 2)
	m.producers.On("FindByID", ctx, existing.ID).Return(existing, nil)
	m.producers.On("FindByEmail", ctx, "a@x.com").Return(nil, repository.ErrNotFound)
	geocoder.On("Geocode", ctx, "Nowhere").Return(nil, errors.New("timeout"))
	m.producers.On("Update", ctx, existing).Return(existing, nil)
	m.events.On("Create", ctx, mock.AnythingOfType("*model.Event")).Return(&model.Event{}, nil)

	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), geocoder, nil)

	// when
	updated, err := svc.Update(ctx, existing.ID, model.ProducerChanges{Address: strPtr("Nowhere")})

	// then
	require.NoError(t, err)
	assert.Equal(t, "Nowhere", updated.Address)
	assert.Equal(t, 1.0, *updated.Latitude)
	assert.Equal(t, 2.0, *updated.Longitude)
	geocoder.AssertExpectations(t)
}

func TestProducerService_GetNotFound(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	id := uuid.New()

	// given
	m.producers.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound)
	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), nil, nil)

	// when
	_, err := svc.Get(ctx, id)

	// then
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestProducerService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	photos := new(MockPhotos)

	// given
	producer := &model.Producer{ID: uuid.New(), Name: "Alice"}
	withPhoto := &model.Product{ID: uuid.New(), ProducerID: producer.ID, Name: "Milk", Photo: model.Photo{FileName: "milk.png"}}
	withoutPhoto := &model.Product{ID: uuid.New(), ProducerID: producer.ID, Name: "Cheese"}

	m.producers.On("FindByID", ctx, producer.ID).Return(producer, nil)
	m.products.On("DeleteByProducerID", ctx, producer.ID).Return([]*model.Product{withPhoto, withoutPhoto}, nil)
	m.producers.On("DeleteByID", ctx, producer).Return(nil)
	var types []string
	m.events.On("Create", ctx, mock.AnythingOfType("*model.Event")).
		Run(func(args mock.Arguments) { types = append(types, args.Get(1).(*model.Event).EventType) }).
		Return(&model.Event{}, nil)
	photos.On("Detach", ctx, withPhoto.ID, withPhoto.Photo).Return(errors.New("storage down"))

	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), nil, photos)

	// when
	err := svc.Delete(ctx, producer.ID)

	// then
	require.NoError(t, err)
	assert.Equal(t, []string{model.EventProductDeleted, model.EventProductDeleted, model.EventProducerDeleted}, types)
	photos.AssertExpectations(t)
	photos.AssertNumberOfCalls(t, "Detach", 1)
	m.assertExpectations(t)
}

func TestProducerService_DeleteRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	m := newMocks()
	photos := new(MockPhotos)

	// given
	producer := &model.Producer{ID: uuid.New()}
	m.producers.On("FindByID", ctx, producer.ID).Return(producer, nil)
	m.products.On("DeleteByProducerID", ctx, producer.ID).
		Return([]*model.Product{{ID: uuid.New(), Photo: model.Photo{FileName: "a.png"}}}, nil)
	m.producers.On("DeleteByID", ctx, producer).Return(errors.New("db down"))

	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), nil, photos)

	// when
	err := svc.Delete(ctx, producer.ID)

	// then
	require.Error(t, err)
	photos.AssertNotCalled(t, "Detach", mock.Anything, mock.Anything, mock.Anything)
}

func TestProducerService_Markers(t *testing.T) {
	ctx := context.Background()
	m := newMocks()

	// given
	markers := []model.Marker{{ProducerID: uuid.New(), Name: "Alice", Lat: 1, Lng: 2}}
	m.producers.On("ListMarkers", ctx).Return(markers, nil)
	svc := service.NewProducerService(m.repos(), m.tx, new(MockHasher), nil, nil)

	// when
	got, err := svc.Markers(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, markers, got)
}

func TestProducerService_UpdateWithoutChangesIsIdempotent(t *testing.T) {
	tests := []struct {
		name    string
		changes model.ProducerChanges
	}{
		{name: "empty changes", changes: model.ProducerChanges{}},
		{name: "identical values", changes: model.ProducerChanges{
			Name:    strPtr("Alice"),
			Address: strPtr("1 Main St"),
			Email:   strPtr("a@x.com"),
			Phone:   strPtr("555-0100"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newMocks()
			hasher := new(MockHasher)
			geocoder := new(MockGeocoder)

			// given
			existing := &model.Producer{
				ID: uuid.New(), Name: "Alice", Address: "1 Main St", Email: "a@x.com", Phone: "555-0100",
				CryptedPassword: "crypted", Salt: "salt",
			}
			existing.SetCoordinates(1, 2)
			before := *existing
			m.producers.On("FindByID", ctx, existing.ID).Return(existing, nil)
			m.producers.On("FindByEmail", ctx, "a@x.com").Return(existing, nil)
			m.producers.On("Update", ctx, existing).Return(existing, nil)
			m.events.On("Create", ctx, mock.AnythingOfType("*model.Event")).Return(&model.Event{}, nil)

			svc := service.NewProducerService(m.repos(), m.tx, hasher, geocoder, nil)

			// when
			updated, err := svc.Update(ctx, existing.ID, tt.changes)

			// then
			require.NoError(t, err)
			assert.Equal(t, before, *updated)
			hasher.AssertNotCalled(t, "Hash", mock.Anything)
			geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
			m.assertExpectations(t)
		})
	}
}
