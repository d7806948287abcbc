package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/order"
)

// OrderModel is the persistence model for an order header.
type OrderModel struct {
	Record
	Lines []OrderProductModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
// Lines are included when they were preloaded.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseEntity: m.Record.entity(),
		Lines:      make([]order.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		o.Lines = append(o.Lines, m.Lines[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain creates a header model from a domain Order. Lines are written separately.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.Record = recordOf(o.BaseEntity)
	return m
}

// OrderProductModel is one line item of an order. (order_id, product_id) is its identity.
type OrderProductModel struct {
	OrderID   uuid.UUID     `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID     `gorm:"type:uuid;primaryKey;index"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int           `gorm:"not null;check:chk_order_products_quantity,quantity >= 1"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderProductModel) TableName() string {
	return "order_products"
}

// ToDomain converts the persistence model to a domain order line
func (m *OrderProductModel) ToDomain() order.Line {
	l := order.Line{
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
	}
	if m.Product != nil {
		l.Product = m.Product.ToDomain()
	}
	return l
}

// OrderProductModelsFromDomain builds the line rows of an order
func OrderProductModelsFromDomain(orderID uuid.UUID, lines []order.ProductQuantity, now time.Time) []OrderProductModel {
	rows := make([]OrderProductModel, len(lines))
	for i, l := range lines {
		rows[i] = OrderProductModel{
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return rows
}
