package models

import (
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the registry Product entity.
type ProductModel struct {
	Record
	ExternalRef *string         `gorm:"type:varchar(100);uniqueIndex:idx_products_external_ref"`
	Title       string          `gorm:"type:varchar(200);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Rating      *float64        `gorm:"type:decimal(3,2)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.Record.entity(),
		ExternalRef: m.ExternalRef,
		Title:       m.Title,
		Price:       m.Price,
		Rating:      m.Rating,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.Record = recordOf(p.BaseEntity)
	m.ExternalRef = p.ExternalRef
	m.Title = p.Title
	m.Price = p.Price
	m.Rating = p.Rating
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
