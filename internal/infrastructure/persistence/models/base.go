package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/shared"
)

// Record holds the key and audit columns of the products and orders tables.
type Record struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func recordOf(e shared.BaseEntity) Record {
	return Record{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (r Record) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// All lists the models AutoMigrate creates. Referenced tables come first.
func All() []any {
	return []any{&ProductModel{}, &OrderModel{}, &OrderProductModel{}}
}
