package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumnNames = []string{
	"id", "producer_id", "name", "description", "price", "unit",
	"photo_file_name", "photo_content_type", "photo_file_size", "photo_updated_at", "created_at", "updated_at",
}

func TestProductRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		producerID := uuid.New()
		product := &model.Product{
			ProducerID:  producerID,
			Name:        "LPG",
			Description: "Bottled LPG refill",
			Unit:        model.UnitKg,
		}
		product.SetPrice("12.50")

		mock.ExpectPrepare("INSERT INTO products").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), producerID, "LPG", "Bottled LPG refill", "12.5", "kg",
				"", "", int64(0), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		result, err := repo.Create(ctx, product)
		require.NoError(t, err)

		createdProduct := result.(*model.Product)
		assert.NotEqual(t, uuid.Nil, createdProduct.ID)
		assert.Equal(t, product.Name, createdProduct.Name)
		assert.False(t, createdProduct.CreatedAt.IsZero())
		assert.False(t, createdProduct.UpdatedAt.IsZero())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful find", func(t *testing.T) {
		id := uuid.New()
		producerID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(productColumnNames).
			AddRow(id.String(), producerID.String(), "Milk", "Fresh farm milk", "18.00", "liter",
				"milk.png", "image/png", int64(2048), now, now, now)

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(rows)

		result, err := repo.FindByID(ctx, id)
		require.NoError(t, err)

		foundProduct := result.(*model.Product)
		assert.Equal(t, id, foundProduct.ID)
		assert.Equal(t, producerID, foundProduct.ProducerID)
		assert.True(t, foundProduct.Price.Decimal.Equal(decimal.RequireFromString("18")))
		assert.Equal(t, "image/png", foundProduct.Photo.ContentType)
		assert.True(t, foundProduct.HasPhoto())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(productColumnNames))

		result, err := repo.FindByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Contains(t, err.Error(), "product not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("list scoped by producer", func(t *testing.T) {
		producerID := uuid.New()
		query := repository.NewQuery().With(repository.ProducerIDField, producerID.String())
		query.Limit = 10

		now := time.Now()
		rows := sqlmock.NewRows(productColumnNames).
			AddRow(uuid.NewString(), producerID.String(), "Product 1", "Description 1", "99.99", "kg", "", "", int64(0), nil, now, now).
			AddRow(uuid.NewString(), producerID.String(), "Product 2", "Description 2", "149.99", "liter", "", "", int64(0), nil, now, now)

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 AND producer_id = \\$1 ORDER BY created_at DESC, id DESC LIMIT \\$2").
			ExpectQuery().
			WithArgs(producerID, 10).
			WillReturnRows(rows)

		result, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Nil(t, result[0].(*model.Product).Photo.UpdatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list with pagination", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 10
		lastCreatedAt := time.Now().Add(-1 * time.Hour)
		lastID := uuid.New()
		query.Paginator = &repository.Paginator{
			LastID:        lastID,
			LastCreatedAt: lastCreatedAt,
		}

		now := time.Now()
		rows := sqlmock.NewRows(productColumnNames).
			AddRow(uuid.NewString(), uuid.NewString(), "Product 1", "Description 1", "99.99", "kg", "", "", int64(0), nil, now, now)

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE 1=1 AND \\(created_at, id\\) < \\(\\$1, \\$2\\) ORDER BY created_at DESC, id DESC LIMIT").
			ExpectQuery().
			WithArgs(lastCreatedAt, lastID, 10).
			WillReturnRows(rows)

		result, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, result, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid producer id", func(t *testing.T) {
		query := repository.NewQuery().With(repository.ProducerIDField, "not-a-uuid")

		_, err := repo.List(ctx, *query)
		assert.ErrorContains(t, err, "invalid producer id")
	})
}

func TestProductRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("update is scoped by producer", func(t *testing.T) {
		product := &model.Product{ID: uuid.New(), ProducerID: uuid.New(), Name: "Cheese", Description: "Aged gouda", Unit: "kg"}
		product.SetPrice("210")

		mock.ExpectPrepare("UPDATE products SET (.+) WHERE id = \\$10 AND producer_id = \\$11").
			ExpectExec().
			WithArgs("Cheese", "Aged gouda", "210", "kg", "", "", int64(0), nil, sqlmock.AnyArg(), product.ID, product.ProducerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := repo.Update(ctx, product)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product of another producer", func(t *testing.T) {
		product := &model.Product{ID: uuid.New(), ProducerID: uuid.New()}

		mock.ExpectPrepare("UPDATE products SET").
			ExpectExec().
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.Update(ctx, product)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DeleteByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		id := uuid.New()
		product := &model.Product{ID: id}

		mock.ExpectPrepare("DELETE FROM products WHERE id").
			ExpectExec().
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteByID(ctx, product)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()
		product := &model.Product{ID: id}

		mock.ExpectPrepare("DELETE FROM products WHERE id").
			ExpectExec().
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteByID(ctx, product)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DeleteByProducerID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)

	producerID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(productColumnNames).
		AddRow(uuid.NewString(), producerID.String(), "Eggs", "Free range eggs", "45.00", "kg", "eggs.jpg", "image/jpeg", int64(512), now, now, now)

	mock.ExpectPrepare("DELETE FROM products WHERE producer_id = \\$1 RETURNING").
		ExpectQuery().
		WithArgs(producerID).
		WillReturnRows(rows)

	deleted, err := repo.DeleteByProducerID(context.Background(), producerID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "eggs.jpg", deleted[0].Photo.FileName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
