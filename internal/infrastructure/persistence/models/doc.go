// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: the shared key and timestamp columns and the AutoMigrate model list
// - product.go: product registry
// - order.go: order headers and their order_products line items
package models
