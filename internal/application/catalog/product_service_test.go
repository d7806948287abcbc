package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByExternalRef(ctx context.Context, ref string) (*catalog.Product, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindOrCreateByExternalRef(ctx context.Context, candidate *catalog.Product) (*catalog.Product, bool, error) {
	args := m.Called(ctx, candidate)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*catalog.Product), args.Bool(1), args.Error(2)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr[T any](v T) *T {
	return &v
}

func TestProductService_Create_Success(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	resp, err := svc.Create(context.Background(), CreateProductRequest{
		Title:       "  Mug ",
		Price:       price("9.999"),
		Rating:      ptr(4.5),
		ExternalRef: ptr("ext-7"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "Mug", resp.Title)
	assert.Equal(t, "10.00", resp.Price.StringFixed(2))
	assert.Equal(t, 4.5, *resp.Rating)
	assert.Equal(t, "ext-7", *resp.ExternalRef)
	repo.AssertExpectations(t)
}

func TestProductService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateProductRequest
		want string
	}{
		{"missing price", CreateProductRequest{Title: "Mug"}, "price is required"},
		{"negative price", CreateProductRequest{Title: "Mug", Price: price("-1")}, "cannot be negative"},
		{"blank title", CreateProductRequest{Title: "   ", Price: price("1")}, "title cannot be empty"},
		{"rating above 5", CreateProductRequest{Title: "Mug", Price: price("1"), Rating: ptr(5.5)}, "between 0 and 5"},
		{"rating below 0", CreateProductRequest{Title: "Mug", Price: price("1"), Rating: ptr(-0.1)}, "between 0 and 5"},
		{"blank external ref", CreateProductRequest{Title: "Mug", Price: price("1"), ExternalRef: ptr(" ")}, "External reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			svc := NewProductService(repo)

			_, err := svc.Create(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_Create_DuplicateExternalRef(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	repo.On("Save", mock.Anything, mock.Anything).
		Return(shared.NewDomainError(shared.CodeConflict, "Product with this external reference already exists"))

	_, err := svc.Create(context.Background(), CreateProductRequest{Title: "Mug", Price: price("1"), ExternalRef: ptr("ext-7")})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestProductService_GetByID(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	p, _ := catalog.NewProduct("Plate", decimal.RequireFromString("4.50"))
	missing := uuid.New()
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("FindByID", mock.Anything, missing).Return(nil, catalog.ErrProductNotFound)

	resp, err := svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plate", resp.Title)
	assert.Nil(t, resp.ExternalRef)

	_, err = svc.GetByID(context.Background(), missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductService_List(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	a, _ := catalog.NewProduct("A", decimal.NewFromInt(1))
	b, _ := catalog.NewProduct("B", decimal.NewFromInt(2))

	expected := shared.Filter{Page: 1, PageSize: 20, OrderBy: "created_at", OrderDir: "desc", Search: "mug"}
	repo.On("FindAll", mock.Anything, expected).Return([]catalog.Product{*a, *b}, nil)
	repo.On("Count", mock.Anything, expected).Return(int64(2), nil)

	items, total, err := svc.List(context.Background(), ProductListFilter{Search: "mug"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Title)
}

func TestProductService_Update(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	p, _ := catalog.NewProductFromExternal("ext-1", "Plate", decimal.RequireFromString("4.50"))
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("Save", mock.Anything, p).Return(nil)

	resp, err := svc.Update(context.Background(), p.ID, UpdateProductRequest{Price: price("5.25"), Rating: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, "Plate", resp.Title)
	assert.Equal(t, "5.25", resp.Price.StringFixed(2))
	assert.Equal(t, 3.0, *resp.Rating)
	assert.Equal(t, "ext-1", *resp.ExternalRef)

	_, err = svc.Update(context.Background(), p.ID, UpdateProductRequest{Rating: ptr(7.0)})
	assert.ErrorIs(t, err, shared.ErrValidation)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestProductService_Delete(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(catalog.ErrProductInUse)

	err := svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrConflict)
}
