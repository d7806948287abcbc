package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, shared.NewPersistenceError("failed to load product", err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the products with the given IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError("failed to load products", err)
	}
	return toDomainProducts(rows), nil
}

// FindByExternalRef finds the product mapped to an external catalog id
func (r *GormProductRepository) FindByExternalRef(ctx context.Context, ref string) (*catalog.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, shared.NewValidationError("External reference cannot be empty")
	}
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "external_ref = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, shared.NewPersistenceError("failed to load product", err)
	}
	return model.ToDomain(), nil
}

// FindOrCreateByExternalRef inserts candidate unless a product with the same
// external reference already exists. Concurrent inserts of one reference are
// resolved by the unique index: the losers insert nothing and read the winner's row.
func (r *GormProductRepository) FindOrCreateByExternalRef(ctx context.Context, candidate *catalog.Product) (*catalog.Product, bool, error) {
	if candidate == nil || !candidate.HasExternalRef() {
		return nil, false, shared.NewValidationError("External reference is required")
	}

	model := models.ProductModelFromDomain(candidate)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_ref"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, false, shared.NewPersistenceError("failed to create product", result.Error)
	}
	if result.RowsAffected == 1 {
		return model.ToDomain(), true, nil
	}

	existing, err := r.FindByExternalRef(ctx, *candidate.ExternalRef)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindAll finds all products with filtering
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	filter = filter.Normalize()
	var rows []models.ProductModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter)

	query = query.Order(productSortColumns.orderBy(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError("failed to list products", err)
	}
	return toDomainProducts(rows), nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.NewPersistenceError("failed to count products", err)
	}
	return count, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError(shared.CodeConflict, "Product with this external reference already exists")
		}
		return shared.NewPersistenceError("failed to save product", err)
	}
	return nil
}

// Delete deletes a product. The order_products foreign key keeps referenced products in place.
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return catalog.ErrProductInUse
		}
		return shared.NewPersistenceError("failed to delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	return query
}

func toDomainProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
