// Package auth validates the bearer tokens that authenticate API callers.
//
// Users sign in with an external identity service which shares the HS256
// secret and issuer configured under jwt.*. This package only verifies those
// tokens; Issue exists for operational tooling and tests.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/infrastructure/config"
)

// TokenType distinguishes access tokens from anything else the identity
// service might sign with the same key.
type TokenType string

const TokenTypeAccess TokenType = "access"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("token carries no user")
)

// Claims is the token payload. An empty UserID is filled from sub.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	TokenType TokenType `json:"token_type,omitempty"`
}

// Expiry is the exp claim, or the zero time when the token never expires.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TTL is how long the token stays valid, never negative.
func (c *Claims) TTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	parser   *jwt.Parser
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		lifetime: cfg.AccessTokenExpiration,
		parser:   jwt.NewParser(opts...),
	}
}

// Lifetime is the validity window given to issued tokens.
func (s *JWTService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs an access token for userID and returns it with its expiry.
func (s *JWTService) Issue(userID, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.lifetime)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:    userID,
		Username:  username,
		TokenType: TokenTypeAccess,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// parseErrors maps library failures onto the errors callers switch on.
// Anything not listed becomes ErrInvalidToken.
var parseErrors = []struct {
	cause, as error
}{
	{jwt.ErrTokenExpired, ErrExpiredToken},
	{jwt.ErrTokenNotValidYet, ErrTokenNotYetValid},
}

// Verify checks signature, algorithm, issuer and time claims of raw and
// returns the resolved claims.
func (s *JWTService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		for _, m := range parseErrors {
			if errors.Is(err, m.cause) {
				return nil, m.as
			}
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidClaims
	}

	// A missing type is accepted; only another declared type is refused.
	if claims.TokenType != "" && claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
