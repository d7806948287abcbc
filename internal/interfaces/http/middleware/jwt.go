package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopcart/backend/internal/infrastructure/auth"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// gin.Context keys set after a successful authentication
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTUsernameKey = "jwt_username"
)

const bearerScheme = "Bearer "

var (
	errNoCredentials = errors.New("missing authorization header")
	errNotBearer     = errors.New("authorization scheme is not bearer")
	errEmptyBearer   = errors.New("empty bearer token")
)

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths are matched exactly against the request path.
	SkipPaths []string
	// OnError replaces the default 401 envelope. The chain is aborted either way.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/api/v1/health"},
	}
}

func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig authenticates the bearer token and exposes the
// caller through GetJWTClaims and GetJWTUserID. The user id also goes on the
// request context so log lines and SQL traces carry it.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		claims, err := authenticate(cfg.JWTService, c.GetHeader("Authorization"))
		if err != nil {
			log.Warn("request not authenticated",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			if cfg.OnError != nil {
				cfg.OnError(c, err)
				c.Abort()
				return
			}
			code, msg := authFailure(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(code, msg, c.GetString(logger.RequestIDKey)))
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTUsernameKey, claims.Username)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func authenticate(svc *auth.JWTService, header string) (*auth.Claims, error) {
	if header == "" {
		return nil, errNoCredentials
	}
	raw, ok := strings.CutPrefix(header, bearerScheme)
	if !ok {
		return nil, errNotBearer
	}
	if raw = strings.TrimSpace(raw); raw == "" {
		return nil, errEmptyBearer
	}
	return svc.Verify(raw)
}

// authFailure picks the envelope code and message for a rejected request.
func authFailure(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeInvalidToken, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return dto.ErrCodeInvalidToken, "Invalid token type"
	}
	return dto.ErrCodeInvalidToken, "Invalid token"
}

// GetJWTClaims returns the authenticated claims, or nil outside the auth chain.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

func GetJWTUsername(c *gin.Context) string {
	return c.GetString(JWTUsernameKey)
}
