package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lineBatchSize bounds the rows per INSERT statement when writing line items
const lineBatchSize = 100

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateWithLines inserts the order header and its line items in one transaction
func (r *GormOrderRepository) CreateWithLines(ctx context.Context, o *order.Order, lines []order.ProductQuantity) error {
	if err := order.ValidateLines(lines); err != nil {
		return err
	}

	header := models.OrderModelFromDomain(o)
	rows := models.OrderProductModelsFromDomain(o.ID, lines, o.CreatedAt)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(header).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).CreateInBatches(rows, lineBatchSize).Error
	})
	if err != nil {
		return shared.NewPersistenceError("failed to create order", err)
	}
	return nil
}

// ReplaceLines swaps every line item of the order for lines in one transaction
func (r *GormOrderRepository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []order.ProductQuantity) error {
	if err := order.ValidateLines(lines); err != nil {
		return err
	}

	now := shared.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return order.ErrOrderNotFound
		}

		if len(lines) > 0 {
			if err := assertProductsExist(tx, order.ProductIDs(lines)); err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderProductModel{}).Error; err != nil {
			return err
		}
		if len(lines) > 0 {
			rows := models.OrderProductModelsFromDomain(orderID, lines, now)
			if err := tx.Omit(clause.Associations).CreateInBatches(rows, lineBatchSize).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.OrderModel{}).Where("id = ?", orderID).Update("updated_at", now).Error
	})
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			return err
		}
		return shared.NewPersistenceError("failed to replace order products", err)
	}
	return nil
}

func assertProductsExist(tx *gorm.DB, ids []uuid.UUID) error {
	var found []uuid.UUID
	if err := tx.Model(&models.ProductModel{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}

	present := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	missing := make([]string, 0, len(ids)-len(found))
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	return catalog.ErrProductNotFound.WithDetails(map[string]any{"missing": missing})
}

// FindByID finds an order with its lines and product detail
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.withLines(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, shared.NewPersistenceError("failed to load order", err)
	}
	return model.ToDomain(), nil
}

// FindAll finds a page of orders with their lines
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	filter = filter.Normalize()

	var rows []models.OrderModel
	err := r.withLines(r.db.WithContext(ctx)).
		Order(orderSortColumns.orderBy(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, shared.NewPersistenceError("failed to list orders", err)
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts all orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Count(&count).Error; err != nil {
		return 0, shared.NewPersistenceError("failed to count orders", err)
	}
	return count, nil
}

// Delete deletes an order and its line items in one transaction
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Delete lines first so the result does not depend on ON DELETE CASCADE being enforced
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderProductModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return order.ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return order.ErrOrderNotFound
		}
		return shared.NewPersistenceError("failed to delete order", err)
	}
	return nil
}

func (r *GormOrderRepository) withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_products.created_at ASC, order_products.product_id ASC")
		}).
		Preload("Lines.Product")
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
