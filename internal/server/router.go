// Package server assembles the HTTP surface: middleware stack, route table,
// and the auth level each route requires.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authhandler "storefront-api/internal/auth/handler"
	"storefront-api/internal/blocklist"
	itemhandler "storefront-api/internal/item/handler"
	"storefront-api/internal/security"
	"storefront-api/internal/server/middleware"
	storehandler "storefront-api/internal/store/handler"
	taghandler "storefront-api/internal/tag/handler"
)

// Handlers groups the per-feature HTTP handlers the router mounts.
type Handlers struct {
	Auth  *authhandler.Handler
	Store *storehandler.Handler
	Item  *itemhandler.Handler
	Tag   *taghandler.Handler
}

// NewRouter builds the gin engine with the shared middleware stack and the
// full route table. Auth requirements are declared per route: reads and
// creates are public, destructive writes need a fresh token, refresh takes a
// refresh token, and logout accepts any valid token.
func NewRouter(
	log zerolog.Logger,
	tokens *security.TokenProvider,
	registry blocklist.Registry,
	h Handlers,
) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLog(log),
		middleware.Trace(),
		middleware.ClientIP(),
	)

	fresh := middleware.Authenticate(tokens, registry, middleware.LevelFresh)
	refresh := middleware.Authenticate(tokens, registry, middleware.LevelRefresh)
	any := middleware.Authenticate(tokens, registry, middleware.LevelAny)

	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)
	r.POST("/refresh", refresh, h.Auth.Refresh)
	r.POST("/logout", any, h.Auth.Logout)

	// Test-only user lookup and removal, mirroring the rest of the surface.
	r.GET("/user/:id", h.Auth.GetUser)
	r.DELETE("/user/:id", h.Auth.DeleteUser)

	r.GET("/store", h.Store.List)
	r.POST("/store", h.Store.Create)
	r.GET("/store/:id", h.Store.Get)
	r.DELETE("/store/:id", fresh, h.Store.Delete)

	r.GET("/store/:id/tag", h.Tag.ListByStore)
	r.POST("/store/:id/tag", h.Tag.CreateInStore)

	r.GET("/item", h.Item.List)
	r.POST("/item", h.Item.Create)
	r.GET("/item/:id", h.Item.Get)
	r.PUT("/item/:id", fresh, h.Item.Update)
	r.DELETE("/item/:id", fresh, h.Item.Delete)

	r.GET("/tag/:id", h.Tag.Get)
	r.DELETE("/tag/:id", h.Tag.Delete)

	r.POST("/item/:id/tag/:tag_id", h.Tag.LinkItem)
	r.DELETE("/item/:id/tag/:tag_id", h.Tag.UnlinkItem)

	return r
}
