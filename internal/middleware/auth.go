// Package middleware filters requests before they reach the handlers: JWT
// authentication for the admin surface and API-credential checks for the
// operator-facing transaction API.
package middleware

import (
	"context"
	"strings"

	"gamepay/internal/models"
	"gamepay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ClaimsKey is the locals key the authenticated principal is stored under.
const ClaimsKey = "claims"

// OperatorKey is the locals key the authenticated operator is stored under.
const OperatorKey = "operator"

// AuthMiddleware validates JWTs on the administrative surface.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Handler extracts and validates the bearer token, storing the claims in the
// request locals.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &models.UserClaims{},
		func(*jwt.Token) (interface{}, error) { return m.secret, nil })
	if err != nil || !token.Valid {
		return utils.Unauthorized(c, "invalid token")
	}
	claims, ok := token.Claims.(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	c.Locals(ClaimsKey, claims)
	return c.Next()
}

// RequireRole allows only principals holding one of the given roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
		if !ok {
			return utils.Unauthorized(c, "not authenticated")
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "insufficient role")
	}
}

// OperatorResolver resolves an operator by its API token.
type OperatorResolver interface {
	OperatorByToken(ctx context.Context, token string) (*models.Operator, error)
}

// OperatorAuth authenticates operator-facing API calls: API token resolves
// the operator, the secret is checked against its bcrypt hash, and the
// source address must be whitelisted when the operator carries a whitelist.
type OperatorAuth struct {
	operators OperatorResolver
}

func NewOperatorAuth(operators OperatorResolver) *OperatorAuth {
	return &OperatorAuth{operators: operators}
}

func (m *OperatorAuth) Handler(c *fiber.Ctx) error {
	token := c.Get("X-API-Token")
	secret := c.Get("X-API-Secret")
	if token == "" || secret == "" {
		return utils.Unauthorized(c, "missing api credentials")
	}

	op, err := m.operators.OperatorByToken(c.Context(), token)
	if err != nil {
		return utils.Unauthorized(c, "unknown api token")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.APISecretHash), []byte(secret)); err != nil {
		return utils.Unauthorized(c, "invalid api secret")
	}
	if len(op.IPWhitelist) > 0 {
		src := c.Get("X-Forwarded-For")
		if src == "" {
			src = c.IP()
		}
		if !utils.IPWhitelisted(src, op.IPWhitelist) {
			return utils.Forbidden(c, "source address not allowed")
		}
	}

	c.Locals(OperatorKey, op)
	return c.Next()
}
