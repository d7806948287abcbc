package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db       *gorm.DB
	orders   *GormOrderRepository
	products *GormProductRepository
}

func newOrderFixture(t *testing.T) orderFixture {
	db := newSQLiteTestDB(t)
	return orderFixture{
		db:       db,
		orders:   NewGormOrderRepository(db),
		products: NewGormProductRepository(db),
	}
}

func (f orderFixture) countRows(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}

func TestGormOrderRepository_CreateWithLines(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	mug := seedProduct(t, f.products, "ext-7", "Mug", "9.99")
	pen := seedProduct(t, f.products, "", "Pen", "1.50")

	o := order.NewOrder()
	err := f.orders.CreateWithLines(ctx, o, []order.ProductQuantity{
		{ProductID: mug.ID, Quantity: 2},
		{ProductID: pen.ID, Quantity: 4},
	})
	require.NoError(t, err)

	got, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)

	byProduct := map[uuid.UUID]order.Line{}
	for _, l := range got.Lines {
		byProduct[l.ProductID] = l
	}
	require.NotNil(t, byProduct[mug.ID].Product)
	assert.Equal(t, "Mug", byProduct[mug.ID].Product.Title)
	assert.Equal(t, 2, byProduct[mug.ID].Quantity)
	assert.Equal(t, 4, byProduct[pen.ID].Quantity)
	assert.Equal(t, "25.98", got.Total().StringFixed(2))
}

func TestGormOrderRepository_CreateWithLines_Atomic(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	mug := seedProduct(t, f.products, "", "Mug", "9.99")

	o := order.NewOrder()
	err := f.orders.CreateWithLines(ctx, o, []order.ProductQuantity{
		{ProductID: mug.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrPersistence)

	assert.Equal(t, int64(0), f.countRows(t, "orders"))
	assert.Equal(t, int64(0), f.countRows(t, "order_products"))
}

func TestGormOrderRepository_CreateWithLines_Validation(t *testing.T) {
	f := newOrderFixture(t)
	id := uuid.New()

	tests := []struct {
		name  string
		lines []order.ProductQuantity
	}{
		{"zero quantity", []order.ProductQuantity{{ProductID: id, Quantity: 0}}},
		{"missing product", []order.ProductQuantity{{Quantity: 1}}},
		{"duplicate product", []order.ProductQuantity{{ProductID: id, Quantity: 1}, {ProductID: id, Quantity: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.orders.CreateWithLines(context.Background(), order.NewOrder(), tt.lines)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
	assert.Equal(t, int64(0), f.countRows(t, "orders"))
}

func TestGormOrderRepository_CreateWithLines_RollbackSQL(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "orders"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "order_products"`).WillReturnError(errors.New("insert or update on table \"order_products\" violates foreign key constraint"))
	mock.ExpectRollback()

	err := repo.CreateWithLines(context.Background(), order.NewOrder(), []order.ProductQuantity{
		{ProductID: uuid.New(), Quantity: 1},
	})
	assert.ErrorIs(t, err, shared.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOrderRepository_ReplaceLines(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (orderFixture, *order.Order, *catalog.Product, *catalog.Product) {
		f := newOrderFixture(t)
		mug := seedProduct(t, f.products, "", "Mug", "9.99")
		pen := seedProduct(t, f.products, "", "Pen", "1.50")
		o := order.NewOrder()
		require.NoError(t, f.orders.CreateWithLines(ctx, o, []order.ProductQuantity{{ProductID: mug.ID, Quantity: 1}}))
		return f, o, mug, pen
	}

	t.Run("replaces the full set of lines", func(t *testing.T) {
		f, o, mug, pen := setup(t)

		err := f.orders.ReplaceLines(ctx, o.ID, []order.ProductQuantity{{ProductID: pen.ID, Quantity: 3}})
		require.NoError(t, err)

		got, err := f.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, pen.ID, got.Lines[0].ProductID)
		assert.Equal(t, 3, got.Lines[0].Quantity)
		assert.NotEqual(t, mug.ID, got.Lines[0].ProductID)
	})

	t.Run("empty set leaves the header without products", func(t *testing.T) {
		f, o, _, _ := setup(t)

		require.NoError(t, f.orders.ReplaceLines(ctx, o.ID, nil))

		got, err := f.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Lines)
		assert.Equal(t, int64(1), f.countRows(t, "orders"))
	})

	t.Run("unknown order", func(t *testing.T) {
		f, _, _, pen := setup(t)

		err := f.orders.ReplaceLines(ctx, uuid.New(), []order.ProductQuantity{{ProductID: pen.ID, Quantity: 1}})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("unknown product keeps the old lines", func(t *testing.T) {
		f, o, mug, _ := setup(t)
		missing := uuid.New()

		err := f.orders.ReplaceLines(ctx, o.ID, []order.ProductQuantity{{ProductID: missing, Quantity: 1}})
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, map[string]any{"missing": []string{missing.String()}}, de.Details)

		got, err := f.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, mug.ID, got.Lines[0].ProductID)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		f, o, mug, _ := setup(t)

		err := f.orders.ReplaceLines(ctx, o.ID, []order.ProductQuantity{
			{ProductID: mug.ID, Quantity: 1},
			{ProductID: mug.ID, Quantity: 2},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestGormOrderRepository_FindAll(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	mug := seedProduct(t, f.products, "", "Mug", "9.99")

	older := order.NewOrder()
	older.CreatedAt = time.Now().Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	newer := order.NewOrder()

	require.NoError(t, f.orders.CreateWithLines(ctx, older, []order.ProductQuantity{{ProductID: mug.ID, Quantity: 1}}))
	require.NoError(t, f.orders.CreateWithLines(ctx, newer, []order.ProductQuantity{{ProductID: mug.ID, Quantity: 2}}))

	got, err := f.orders.FindAll(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	require.Len(t, got[0].Lines, 1)
	require.NotNil(t, got[0].Lines[0].Product)

	count, err := f.orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormOrderRepository_Delete(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	mug := seedProduct(t, f.products, "", "Mug", "9.99")

	o := order.NewOrder()
	require.NoError(t, f.orders.CreateWithLines(ctx, o, []order.ProductQuantity{{ProductID: mug.ID, Quantity: 1}}))

	require.NoError(t, f.orders.Delete(ctx, o.ID))
	assert.Equal(t, int64(0), f.countRows(t, "orders"))
	assert.Equal(t, int64(0), f.countRows(t, "order_products"))

	_, err := f.orders.FindByID(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	err = f.orders.Delete(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	// the product is free again once no order references it
	require.NoError(t, f.products.Delete(ctx, mug.ID))
}
