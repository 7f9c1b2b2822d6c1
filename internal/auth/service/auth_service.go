package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-api/internal/audit"
	auditdomain "storefront-api/internal/audit/domain"
	"storefront-api/internal/blocklist"
	"storefront-api/internal/security"
	userdomain "storefront-api/internal/user/domain"
	userrepo "storefront-api/internal/user/repository"
)

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrNotRefreshToken    = errors.New("not a refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Delete(ctx context.Context, id int64) error
}

// TokenPair holds the outcome of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry
}

// AuthService implements registration, login, refresh, and logout over the
// credential store, the token provider, and the revocation registry.
type AuthService struct {
	users    UserRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	registry blocklist.Registry
	auditor  audit.Recorder
}

// NewAuthService returns an AuthService with the given dependencies.
// auditor may be nil to disable audit recording.
func NewAuthService(
	users UserRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	registry blocklist.Registry,
	auditor audit.Recorder,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		registry: registry,
		auditor:  auditor,
	}
}

// Register creates a user with the given username and password. It does not
// log the user in; no token is issued. Returns ErrUsernameTaken if the
// username exists; a failed registration leaves no partial state behind.
func (s *AuthService) Register(ctx context.Context, username, password string) (*userdomain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user := &userdomain.User{
		Username:     username,
		PasswordHash: hashed,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The pre-check races concurrent registrations; the unique index is
		// the authority.
		if errors.Is(err, userrepo.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.record(ctx, user.ID, auditdomain.ActionRegister, "")
	return user, nil
}

// Login verifies the username and password and, on success, issues one fresh
// access token and one refresh token bound to the user's identity. Prior
// tokens for the user are untouched; concurrent sessions are allowed. An
// absent user and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.record(ctx, 0, auditdomain.ActionLoginFailure, "username="+username)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.record(ctx, user.ID, auditdomain.ActionLoginFailure, "")
		return nil, ErrInvalidCredentials
	}
	accessToken, _, accessExp, err := s.tokens.Issue(user.ID, security.TokenTypeAccess, true)
	if err != nil {
		return nil, err
	}
	refreshToken, _, _, err := s.tokens.Issue(user.ID, security.TokenTypeRefresh, false)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, auditdomain.ActionLogin, "")
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}

// Refresh exchanges a verified refresh token (its decoded claims) for a new
// access token with fresh=false, and revokes the refresh token's jti so it
// cannot be used again. The refresh-derived access token must never satisfy
// fresh-only operations.
func (s *AuthService) Refresh(ctx context.Context, claims *security.TokenClaims) (string, error) {
	if claims.Type != security.TokenTypeRefresh {
		return "", ErrNotRefreshToken
	}
	revoked, err := s.registry.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", ErrTokenRevoked
	}
	// Single-use: consume the refresh token before its own expiry elapses.
	if err := s.registry.Revoke(ctx, claims.JTI); err != nil {
		return "", err
	}
	accessToken, _, _, err := s.tokens.Issue(claims.UserID, security.TokenTypeAccess, false)
	if err != nil {
		return "", err
	}
	s.record(ctx, claims.UserID, auditdomain.ActionRefresh, "")
	return accessToken, nil
}

// Logout revokes the presented token's jti unconditionally. Sibling tokens
// issued by the same login keep their own jti and stay valid; there is no
// cascade.
func (s *AuthService) Logout(ctx context.Context, claims *security.TokenClaims) error {
	if err := s.registry.Revoke(ctx, claims.JTI); err != nil {
		return err
	}
	s.record(ctx, claims.UserID, auditdomain.ActionLogout, "type="+string(claims.Type))
	return nil
}

// GetUser returns the user for id. Returns ErrUserNotFound on a miss.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*userdomain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteUser removes the user record. Returns ErrUserNotFound on a miss.
// Tokens already issued to the user are not revoked; they fail naturally once
// handlers look the identity up.
func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.users.Delete(ctx, id)
}

func (s *AuthService) record(ctx context.Context, userID int64, action, metadata string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, userID, action, metadata)
}
