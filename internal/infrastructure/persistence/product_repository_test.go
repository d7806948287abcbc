package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_FindOrCreateByExternalRef(t *testing.T) {
	t.Run("creates then finds the same product", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteTestDB(t))
		ctx := context.Background()

		first, err := catalog.NewProductFromExternal("ext-7", "Mug", decimal.RequireFromString("9.99"))
		require.NoError(t, err)

		got, created, err := repo.FindOrCreateByExternalRef(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, first.ID, got.ID)

		second, err := catalog.NewProductFromExternal("ext-7", "Mug v2", decimal.RequireFromString("12.00"))
		require.NoError(t, err)

		again, created, err := repo.FindOrCreateByExternalRef(ctx, second)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "Mug", again.Title)
		assert.True(t, again.Price.Equal(decimal.RequireFromString("9.99")))

		count, err := repo.Count(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent callers share one row", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteTestDB(t))
		ctx := context.Background()

		const callers = 8
		ids := make([]uuid.UUID, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := catalog.NewProductFromExternal("ext-42", "Lamp", decimal.NewFromInt(30))
				if err != nil {
					errs[i] = err
					return
				}
				got, _, err := repo.FindOrCreateByExternalRef(ctx, p)
				if err != nil {
					errs[i] = err
					return
				}
				ids[i] = got.ID
			}(i)
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		count, err := repo.Count(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("requires an external reference", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteTestDB(t))
		p, err := catalog.NewProduct("Plain", decimal.NewFromInt(1))
		require.NoError(t, err)

		_, _, err = repo.FindOrCreateByExternalRef(context.Background(), p)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestGormProductRepository_FindOrCreateByExternalRef_SQL(t *testing.T) {
	t.Run("inserts with on conflict do nothing", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		p, err := catalog.NewProductFromExternal("ext-1", "Phone", decimal.NewFromInt(500))
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "products" .* ON CONFLICT \("external_ref"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		got, created, err := repo.FindOrCreateByExternalRef(context.Background(), p)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, p.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("re-selects when the insert was skipped", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		p, err := catalog.NewProductFromExternal("ext-1", "Phone", decimal.NewFromInt(500))
		require.NoError(t, err)

		existingID := uuid.New()
		now := time.Now()
		mock.ExpectExec(`INSERT INTO "products" .* ON CONFLICT \("external_ref"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE external_ref = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "external_ref", "title", "price", "rating", "created_at", "updated_at"}).
				AddRow(existingID, "ext-1", "Phone", "499.00", nil, now, now))

		got, created, err := repo.FindOrCreateByExternalRef(context.Background(), p)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existingID, got.ID)
		assert.Equal(t, "499", got.Price.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps driver failures as persistence errors", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		p, err := catalog.NewProductFromExternal("ext-1", "Phone", decimal.NewFromInt(500))
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "products"`).WillReturnError(errors.New("connection reset"))

		_, _, err = repo.FindOrCreateByExternalRef(context.Background(), p)
		assert.ErrorIs(t, err, shared.ErrPersistence)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestGormProductRepository_FindByExternalRef(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()
	seeded := seedProduct(t, repo, "ext-3", "Kettle", "25.50")

	got, err := repo.FindByExternalRef(ctx, " ext-3 ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	require.NotNil(t, got.ExternalRef)
	assert.Equal(t, "ext-3", *got.ExternalRef)

	_, err = repo.FindByExternalRef(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = repo.FindByExternalRef(ctx, "  ")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()
	a := seedProduct(t, repo, "", "A", "1.00")
	b := seedProduct(t, repo, "", "B", "2.00")

	got, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormProductRepository_FindAll(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()
	seedProduct(t, repo, "", "Blue Mug", "5.00")
	seedProduct(t, repo, "", "Red Mug", "6.00")
	seedProduct(t, repo, "", "Teapot", "20.00")

	t.Run("filters by title", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "mug"
		got, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("sorts and pages", func(t *testing.T) {
		filter := shared.Filter{Page: 1, PageSize: 2, OrderBy: "price", OrderDir: "asc"}
		got, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Blue Mug", got[0].Title)
		assert.Equal(t, "Red Mug", got[1].Title)

		filter.Page = 2
		got, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Teapot", got[0].Title)
	})
}

func TestGormProductRepository_Save(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()

	t.Run("updates an existing product", func(t *testing.T) {
		p := seedProduct(t, repo, "", "Old", "1.00")
		rating := 4.5
		require.NoError(t, p.Update("New", decimal.RequireFromString("2.50"), &rating))
		require.NoError(t, repo.Save(ctx, p))

		got, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("2.50")))
		require.NotNil(t, got.Rating)
		assert.InDelta(t, 4.5, *got.Rating, 0.001)
	})

	t.Run("rejects a duplicate external reference", func(t *testing.T) {
		seedProduct(t, repo, "ext-dup", "First", "1.00")
		dup, err := catalog.NewProductFromExternal("ext-dup", "Second", decimal.NewFromInt(2))
		require.NoError(t, err)

		err = repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := newSQLiteTestDB(t)
	repo := NewGormProductRepository(db)
	orders := NewGormOrderRepository(db)
	ctx := context.Background()

	t.Run("deletes an unreferenced product", func(t *testing.T) {
		p := seedProduct(t, repo, "", "Loose", "1.00")
		require.NoError(t, repo.Delete(ctx, p.ID))

		_, err := repo.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})

	t.Run("refuses to delete a product an order references", func(t *testing.T) {
		p := seedProduct(t, repo, "", "Ordered", "1.00")
		o := order.NewOrder()
		require.NoError(t, orders.CreateWithLines(ctx, o, []order.ProductQuantity{{ProductID: p.ID, Quantity: 1}}))

		err := repo.Delete(ctx, p.ID)
		assert.ErrorIs(t, err, catalog.ErrProductInUse)

		_, err = repo.FindByID(ctx, p.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown product", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})
}
