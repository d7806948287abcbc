package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/shopcart/backend/internal/application/cart"
	orderapp "github.com/shopcart/backend/internal/application/order"
)

// CartHandler exposes the caller's shopping cart
type CartHandler struct {
	BaseHandler
	cartService *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get returns the caller's cart
// @Router /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	resp, err := h.cartService.View(c.Request.Context(), getUserID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Cart retrieved successfully", resp)
}

// AddItem adds one unit of a catalog product
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.cartService.AddProduct(c.Request.Context(), getUserID(c), req.ProductID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Product added to cart", resp)
}

// SetQuantity sets the quantity of a cart line; 0 removes it
// @Router /cart/items/{productId} [put]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req cartapp.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.cartService.SetQuantity(c.Request.Context(), getUserID(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Cart updated successfully", resp)
}

// RemoveItem drops a line from the cart
// @Router /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	resp, err := h.cartService.Remove(c.Request.Context(), getUserID(c), c.Param("productId"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Product removed from cart", resp)
}

// Clear empties the cart
// @Router /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	resp, err := h.cartService.Clear(c.Request.Context(), getUserID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, "Cart cleared", resp)
}

// Checkout places an order for the cart and empties it
// @Router /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	placed, err := h.cartService.Checkout(c.Request.Context(), getUserID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, "Order created successfully", orderapp.ToPlacedOrderResponse(placed))
}
