package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopcart/backend/internal/application/catalog"
)

// CatalogHandler serves browsing of the external product catalog
type CatalogHandler struct {
	BaseHandler
	browseService *catalogapp.BrowseService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(browseService *catalogapp.BrowseService) *CatalogHandler {
	return &CatalogHandler{browseService: browseService}
}

// ListProducts lists catalog products, optionally of one category
// @Router /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	listings, err := h.browseService.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Products retrieved successfully", listings)
}

// GetProduct returns one catalog product
// @Router /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	listing, err := h.browseService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Product retrieved successfully", listing)
}

// ListCategories lists the catalog categories
// @Router /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.browseService.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Categories retrieved successfully", categories)
}
