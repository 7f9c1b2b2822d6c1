package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/blocklist"
	"storefront-api/internal/security"
	"storefront-api/internal/server/respond"
)

const bearerPrefix = "bearer "

// Level is the authentication requirement a route declares. Routes with no
// Authenticate middleware at all are public.
type Level int

const (
	// LevelAccess requires a valid, non-revoked access token.
	LevelAccess Level = iota
	// LevelFresh requires a valid, non-revoked access token issued directly
	// from a password login (fresh=true). Refresh-derived tokens are rejected.
	LevelFresh
	// LevelRefresh requires a valid, non-revoked refresh token.
	LevelRefresh
	// LevelAny accepts a valid, non-revoked token of either type.
	LevelAny
)

// Authenticate returns middleware that gates a route at the given level:
// it extracts the bearer token, verifies it, consults the revocation
// registry, checks type and freshness, and attaches the decoded claims to the
// request. Each rejection carries a distinct 401 code so clients can tell
// a missing token from a malformed, expired, revoked, or non-fresh one.
func Authenticate(tokens *security.TokenProvider, registry blocklist.Registry, level Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearer(c.GetHeader("Authorization"))
		if raw == "" {
			respond.AbortError(c, http.StatusUnauthorized, "missing_token", "Request does not contain a valid token.")
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				respond.AbortError(c, http.StatusUnauthorized, "token_expired", "The token has expired.")
			case errors.Is(err, security.ErrTokenMalformed):
				respond.AbortError(c, http.StatusUnauthorized, "token_malformed", "The token is malformed.")
			default:
				respond.AbortError(c, http.StatusUnauthorized, "invalid_signature", "Signature verification failed.")
			}
			return
		}

		revoked, err := registry.IsRevoked(c.Request.Context(), claims.JTI)
		if err != nil {
			respond.AbortError(c, http.StatusInternalServerError, "internal_error", "Could not check token revocation.")
			return
		}
		if revoked {
			respond.AbortError(c, http.StatusUnauthorized, "token_revoked", "The token has been revoked.")
			return
		}

		switch level {
		case LevelAccess:
			if claims.Type != security.TokenTypeAccess {
				respond.AbortError(c, http.StatusUnauthorized, "access_token_required", "Only access tokens are allowed.")
				return
			}
		case LevelFresh:
			if claims.Type != security.TokenTypeAccess {
				respond.AbortError(c, http.StatusUnauthorized, "access_token_required", "Only access tokens are allowed.")
				return
			}
			if !claims.Fresh {
				respond.AbortError(c, http.StatusUnauthorized, "fresh_token_required", "Fresh token required.")
				return
			}
		case LevelRefresh:
			if claims.Type != security.TokenTypeRefresh {
				respond.AbortError(c, http.StatusUnauthorized, "refresh_token_required", "Only refresh tokens are allowed.")
				return
			}
		case LevelAny:
			// any valid, non-revoked token
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// extractBearer returns the Bearer token from the Authorization header value,
// or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
