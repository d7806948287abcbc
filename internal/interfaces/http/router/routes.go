package router

import (
	"github.com/shopcart/backend/internal/interfaces/http/handler"
)

// Handlers are the endpoint handlers of the shop API
type Handlers struct {
	Order   *handler.OrderHandler
	Cart    *handler.CartHandler
	Catalog *handler.CatalogHandler
	Product *handler.ProductHandler
	Auth    *handler.AuthHandler
	Health  *handler.HealthHandler
}

// RegisterShopRoutes mounts every endpoint. Only the health check is public.
func RegisterShopRoutes(r *Router, h Handlers) {
	r.RegisterPublic(NewDomainGroup("health", "").
		GET("/health", h.Health.Health))

	r.Register(NewDomainGroup("orders", "/order").
		POST("", h.Order.Create).
		GET("", h.Order.List).
		GET("/:id", h.Order.GetByID).
		PUT("/:id", h.Order.Update).
		DELETE("/:id", h.Order.Delete))

	r.Register(NewDomainGroup("cart", "/cart").
		GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PUT("/items/:productId", h.Cart.SetQuantity).
		DELETE("/items/:productId", h.Cart.RemoveItem).
		POST("/checkout", h.Cart.Checkout))

	r.Register(NewDomainGroup("catalog", "/catalog").
		GET("/products", h.Catalog.ListProducts).
		GET("/products/:id", h.Catalog.GetProduct).
		GET("/categories", h.Catalog.ListCategories))

	r.Register(NewDomainGroup("products", "/product").
		POST("", h.Product.Create).
		GET("", h.Product.List).
		GET("/:id", h.Product.GetByID).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete))

	r.Register(NewDomainGroup("auth", "/auth").
		GET("/check", h.Auth.Check))
}
