package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/auth/service"
	"storefront-api/internal/server/middleware"
	"storefront-api/internal/server/respond"
)

// Handler exposes the auth service over HTTP.
type Handler struct {
	auth *service.AuthService
}

func NewHandler(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Register creates a new user account. Registration never issues tokens; the
// client logs in separately.
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	_, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			respond.Error(c, http.StatusConflict, "username_taken", "A user with that username already exists.")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not create user")
		return
	}
	respond.Message(c, http.StatusCreated, "User created successfully.")
}

// Login verifies credentials and returns a fresh access token plus a refresh
// token. Failures do not reveal whether the username exists.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not log in")
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh exchanges the presented refresh token for a non-fresh access token.
// The refresh token is consumed; presenting it again fails.
func (h *Handler) Refresh(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "missing_token", "refresh token required")
		return
	}
	accessToken, err := h.auth.Refresh(c.Request.Context(), claims)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotRefreshToken):
			respond.Error(c, http.StatusUnauthorized, "refresh_token_required", "a refresh token is required")
		case errors.Is(err, service.ErrTokenRevoked):
			respond.Error(c, http.StatusUnauthorized, "token_revoked", "the token has been revoked")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "could not refresh token")
		}
		return
	}
	c.JSON(http.StatusOK, refreshResponse{AccessToken: accessToken})
}

// Logout revokes the presented token. Any valid token type is accepted, and
// only that token is revoked.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "missing_token", "token required")
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not log out")
		return
	}
	respond.Message(c, http.StatusOK, "Successfully logged out")
}

// GetUser returns a user by id. Meant for testing; not linked from the
// authenticated API surface.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid user id")
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "User not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not fetch user")
		return
	}
	c.JSON(http.StatusOK, userView{ID: user.ID, Username: user.Username})
}

// DeleteUser removes a user by id. Meant for testing; issued tokens are not
// revoked here.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid user id")
		return
	}
	if err := h.auth.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "User not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not delete user")
		return
	}
	respond.Message(c, http.StatusOK, "User deleted.")
}
