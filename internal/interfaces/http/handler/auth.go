package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
)

// AuthHandler reports on the caller's credentials. Sign-in happens at the
// identity provider that issues the tokens; this service only validates them.
type AuthHandler struct {
	BaseHandler
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// AuthCheckResponse describes the authenticated identity
type AuthCheckResponse struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt"`
	ExpiresIn     int64     `json:"expiresIn"`
}

// Check godoc
// @Summary      Check the bearer token
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=AuthCheckResponse}
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/check [get]
func (h *AuthHandler) Check(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, "Token is valid", AuthCheckResponse{
		Authenticated: true,
		UserID:        claims.UserID,
		Username:      claims.Username,
		ExpiresAt:     claims.Expiry(),
		ExpiresIn:     int64(claims.TTL().Seconds()),
	})
}
