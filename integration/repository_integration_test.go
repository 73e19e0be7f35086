package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	reposql "github.com/iyhunko/gas-app/internal/repository/sql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createProducer(t *testing.T, ctx context.Context, repos repository.Repositories, email string) *model.Producer {
	t.Helper()

	result, err := repos.Producers.Create(ctx, &model.Producer{
		Name:            "Gas Works",
		Address:         "1 Main Rd, Cape Town",
		Email:           email,
		CryptedPassword: "hash",
		Salt:            "salt",
	})
	require.NoError(t, err)
	return result.(*model.Producer)
}

func createProduct(t *testing.T, ctx context.Context, repos repository.Repositories, producerID uuid.UUID, name, price string) *model.Product {
	t.Helper()

	product := &model.Product{ProducerID: producerID, Name: name, Description: "Bottled", Unit: model.UnitKg}
	product.SetPrice(price)
	result, err := repos.Products.Create(ctx, product)
	require.NoError(t, err)
	return result.(*model.Product)
}

func TestProducerRepository_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	repos := reposql.NewTransactionalRepository(testDB.DB).Repositories()

	t.Run("find by email", func(t *testing.T) {
		testDB.TruncateTables(t)
		created := createProducer(t, ctx, repos, "gas@example.com")

		found, err := repos.Producers.FindByEmail(ctx, "gas@example.com")

		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "hash", found.CryptedPassword)
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		testDB.TruncateTables(t)

		_, err := repos.Producers.FindByEmail(ctx, "nobody@example.com")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate email violates unique constraint", func(t *testing.T) {
		testDB.TruncateTables(t)
		createProducer(t, ctx, repos, "dup@example.com")

		_, err := repos.Producers.Create(ctx, &model.Producer{Name: "Other", Address: "2 Side St", Email: "dup@example.com"})

		var uniqueErr *repository.UniqueConstraintError
		require.ErrorAs(t, err, &uniqueErr)
	})

	t.Run("markers only include geocoded producers", func(t *testing.T) {
		testDB.TruncateTables(t)
		located := createProducer(t, ctx, repos, "located@example.com")
		createProducer(t, ctx, repos, "nowhere@example.com")

		located.SetCoordinates(-33.92, 18.42)
		_, err := repos.Producers.Update(ctx, located)
		require.NoError(t, err)

		markers, err := repos.Producers.ListMarkers(ctx)

		require.NoError(t, err)
		require.Len(t, markers, 1)
		assert.Equal(t, located.ID, markers[0].ProducerID)
		assert.InDelta(t, -33.92, markers[0].Lat, 1e-9)
		assert.InDelta(t, 18.42, markers[0].Lng, 1e-9)
	})
}

func TestProductRepository_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	repos := reposql.NewTransactionalRepository(testDB.DB).Repositories()

	t.Run("price keeps its decimal value", func(t *testing.T) {
		testDB.TruncateTables(t)
		producer := createProducer(t, ctx, repos, "price@example.com")
		created := createProduct(t, ctx, repos, producer.ID, "LPG 9kg", "1234.50")

		found, err := repos.Products.FindByID(ctx, created.ID)

		require.NoError(t, err)
		product := found.(*model.Product)
		assert.True(t, product.Price.Decimal.Equal(decimal.RequireFromString("1234.5")))
		assert.Equal(t, "R1 234.50 / kg", product.PriceTag())
	})

	t.Run("list is scoped to one producer", func(t *testing.T) {
		testDB.TruncateTables(t)
		first := createProducer(t, ctx, repos, "first@example.com")
		second := createProducer(t, ctx, repos, "second@example.com")
		createProduct(t, ctx, repos, first.ID, "Propane", "10")
		createProduct(t, ctx, repos, second.ID, "Butane", "20")

		query := repository.NewQuery().With(repository.ProducerIDField, first.ID.String())
		query.Limit = repository.DefaultPaginationLimit
		result, err := repos.Products.List(ctx, *query)

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, "Propane", result[0].(*model.Product).Name)
	})

	t.Run("delete by producer returns the removed products", func(t *testing.T) {
		testDB.TruncateTables(t)
		producer := createProducer(t, ctx, repos, "cascade@example.com")
		created := createProduct(t, ctx, repos, producer.ID, "Propane", "10")

		deleted, err := repos.Products.DeleteByProducerID(ctx, producer.ID)

		require.NoError(t, err)
		require.Len(t, deleted, 1)
		assert.Equal(t, created.ID, deleted[0].ID)
		_, err = repos.Products.FindByID(ctx, created.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestTransactionalRepository_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	txRepo := reposql.NewTransactionalRepository(testDB.DB)
	repos := txRepo.Repositories()

	t.Run("commit persists every write", func(t *testing.T) {
		testDB.TruncateTables(t)

		var producerID uuid.UUID
		err := txRepo.WithinTransaction(ctx, func(tx repository.Repositories) error {
			producer := createProducer(t, ctx, tx, "tx@example.com")
			producerID = producer.ID
			_, err := tx.Events.Create(ctx, &model.Event{
				EventType: model.EventProducerCreated,
				EventData: []byte(`{"id":"` + producer.ID.String() + `"}`),
			})
			return err
		})

		require.NoError(t, err)
		_, err = repos.Producers.FindByID(ctx, producerID)
		require.NoError(t, err)
		events, err := repos.Events.ClaimPending(ctx, 10, "worker-1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, model.EventProducerCreated, events[0].EventType)
	})

	t.Run("error rolls back every write", func(t *testing.T) {
		testDB.TruncateTables(t)

		var producerID uuid.UUID
		err := txRepo.WithinTransaction(ctx, func(tx repository.Repositories) error {
			producerID = createProducer(t, ctx, tx, "rollback@example.com").ID
			return errors.New("intentional error to trigger rollback")
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "intentional error")
		_, err = repos.Producers.FindByID(ctx, producerID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestEventRepository_ClaimPending_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	events := reposql.NewEventRepository(testDB.DB)

	t.Run("claimed events are locked for other workers", func(t *testing.T) {
		testDB.TruncateTables(t)
		_, err := events.Create(ctx, &model.Event{EventType: model.EventProductCreated, EventData: []byte(`{}`)})
		require.NoError(t, err)

		first, err := events.ClaimPending(ctx, 10, "worker-1")
		require.NoError(t, err)
		second, err := events.ClaimPending(ctx, 10, "worker-2")
		require.NoError(t, err)

		require.Len(t, first, 1)
		assert.Equal(t, "worker-1", first[0].LockedBy)
		assert.Empty(t, second)
	})

	t.Run("future events wait for their run time", func(t *testing.T) {
		testDB.TruncateTables(t)
		event := &model.Event{EventType: model.EventProductUpdated, EventData: []byte(`{}`)}
		_, err := events.Create(ctx, event)
		require.NoError(t, err)

		event.RunAt = time.Now().Add(time.Hour)
		event.Attempts = 1
		_, err = events.Update(ctx, event)
		require.NoError(t, err)

		claimed, err := events.ClaimPending(ctx, 10, "worker-1")
		require.NoError(t, err)
		assert.Empty(t, claimed)
	})
}
