package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"go-publicworks-backend/internal/delivery/http/response"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFTokenCookieName is the name of the cookie that stores the CSRF token
	CSRFTokenCookieName = "csrf_token"
	// CSRFTokenHeaderName is the name of the header that must contain the CSRF token
	CSRFTokenHeaderName = "X-CSRF-Token"
	// CSRFTokenLength is the length of the generated token in bytes (32 bytes = 64 hex chars)
	CSRFTokenLength = 32
	// CSRFTokenExpiry is how long the token is valid
	CSRFTokenExpiry = 24 * time.Hour
)

// generateCSRFToken creates a cryptographically secure random token
func generateCSRFToken() (string, error) {
	bytes := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CSRFMiddleware implements the Double-Submit Cookie pattern.
//
// The portal frontend reads the csrf_token cookie and echoes it in the
// X-CSRF-Token header on every mutating request. Attackers on another origin
// cannot read the cookie, so they cannot forge the header.
func CSRFMiddleware() gin.HandlerFunc {
	// Health has no session and is probed by load balancers
	csrfExemptPaths := map[string]bool{
		"/v1/health": true,
	}

	return func(c *gin.Context) {
		if csrfExemptPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		csrfCookie, err := c.Cookie(CSRFTokenCookieName)
		if err != nil || csrfCookie == "" {
			newToken, err := generateCSRFToken()
			if err != nil {
				response.Error(c, http.StatusInternalServerError, "Failed to generate security token", nil)
				c.Abort()
				return
			}

			// SameSite=Lax: sent on top-level navigations, not on
			// cross-site subrequests. HttpOnly=false so JS can read it.
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(
				CSRFTokenCookieName,
				newToken,
				int(CSRFTokenExpiry.Seconds()),
				"/",
				"", // current domain
				true,
				false,
			)
			csrfCookie = newToken
		}

		method := c.Request.Method
		if method == "GET" || method == "HEAD" || method == "OPTIONS" {
			c.Next()
			return
		}

		headerToken := c.GetHeader(CSRFTokenHeaderName)

		if headerToken == "" {
			response.Error(c, http.StatusForbidden, "Missing CSRF token", nil)
			c.Abort()
			return
		}

		if headerToken != csrfCookie {
			response.Error(c, http.StatusForbidden, "Invalid CSRF token", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
