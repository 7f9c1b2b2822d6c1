package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/security"
)

// claimsKey is the gin context key the auth middleware stores decoded token
// claims under.
const claimsKey = "auth_claims"

type contextKey struct{ name string }

var clientIPKey = contextKey{"client_ip"}

// SetClaims stores the decoded token claims on the gin context. Called by the
// auth middleware only.
func SetClaims(c *gin.Context, claims *security.TokenClaims) {
	c.Set(claimsKey, claims)
}

// Claims returns the decoded token claims and true if the auth middleware ran
// for this request; otherwise nil, false.
func Claims(c *gin.Context) (*security.TokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.TokenClaims)
	return claims, ok
}

// Identity returns the authenticated user id and true if the auth middleware
// ran for this request; otherwise 0, false.
func Identity(c *gin.Context) (int64, bool) {
	claims, ok := Claims(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// ClientIP returns middleware that copies gin's resolved client IP into the
// request context, so code below the HTTP layer (e.g. the audit recorder) can
// read it without depending on gin.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), clientIPKey, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ClientIPFromContext returns the client IP stored by the ClientIP middleware,
// or "" if absent.
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
