package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go-publicworks-backend/config"
	"go-publicworks-backend/internal/delivery/http/response"
	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/auth"
	"go-publicworks-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates staff tokens. HS256 tokens are verified against
// the local secret, RS256 against the SSO provider's JWKS. Identity and role
// come from the token claims; provisioned employee rows are not consulted on
// every request, the issuing side owns role assignment.
func AuthMiddleware(jwksProvider *auth.Provider, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		// 1. Try to get token from Header
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			// 2. Try to get token from Cookie
			cookie, err := c.Cookie("auth_token")
			if err == nil && cookie != "" {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
				// HS256 - locally issued staff token
				if cfg.JWTSecret == "" {
					return nil, fmt.Errorf("HS256 token received but JWT_SECRET is not configured")
				}
				return []byte(cfg.JWTSecret), nil
			}

			if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
				// RS256 - SSO provider, verify via JWKS
				if jwksProvider == nil {
					return nil, fmt.Errorf("RS256 token received but JWKS_URL is not configured")
				}
				return jwksProvider.KeyFunc(token)
			}

			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		})

		if err != nil || !token.Valid {
			logger.Log.Warn("Token validation failed", "error", err)
			response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Invalid claims", nil)
			c.Abort()
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		if role == "" {
			role = "staff"
		}

		c.Set(string(domain.KeyEmployeeID), employeeIDFromClaims(claims))
		c.Set(string(domain.KeyUserEmail), email)
		c.Set(string(domain.KeyUserRole), role)

		c.Next()
	}
}

// employeeIDFromClaims resolves the acting employee's numeric id from either
// an explicit employee_id claim or a numeric subject. Zero means unknown;
// audit columns are left NULL in that case.
func employeeIDFromClaims(claims jwt.MapClaims) int64 {
	if v, ok := claims["employee_id"].(float64); ok {
		return int64(v)
	}
	if sub, ok := claims["sub"].(string); ok {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// RequireRole guards routes that only certain staff roles may hit.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(string(domain.KeyUserRole))
		if !allowed[role] {
			response.Error(c, http.StatusForbidden, "Insufficient permissions", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorID extracts the acting employee id set by AuthMiddleware. Returns nil
// when the token carried no resolvable id.
func ActorID(c *gin.Context) *int64 {
	v, ok := c.Get(string(domain.KeyEmployeeID))
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok || id == 0 {
		return nil
	}
	return &id
}
