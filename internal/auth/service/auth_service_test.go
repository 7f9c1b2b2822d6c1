package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-api/internal/blocklist"
	"storefront-api/internal/security"
	userdomain "storefront-api/internal/user/domain"
	userrepo "storefront-api/internal/user/repository"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*userdomain.User
	byName map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:   make(map[int64]*userdomain.User),
		byName: make(map[string]*userdomain.User),
	}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[username], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return userrepo.ErrDuplicateUsername
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.byID[u.ID] = &cp
	r.byName[u.Username] = &cp
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byName, u.Username)
		delete(r.byID, id)
	}
	return nil
}

func newTestService() (*AuthService, *memUserRepo, *security.TokenProvider, *blocklist.Memory) {
	users := newMemUserRepo()
	hasher := security.NewHasher(4) // min cost keeps tests fast
	tokens := security.NewTokenProvider([]byte("test-secret"), "storefront-test", 15*time.Minute, 168*time.Hour)
	registry := blocklist.NewMemory()
	svc := NewAuthService(users, hasher, tokens, registry, nil)
	return svc, users, tokens, registry
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens, _ := newTestService()

	user, err := svc.Register(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Register should assign a user id")
	}
	if user.PasswordHash == "pw123" {
		t.Fatal("password must not be stored in plaintext")
	}

	pair, err := svc.Login(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login should return both tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must be distinct")
	}

	access, err := tokens.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	refresh, err := tokens.Verify(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Verify refresh: %v", err)
	}
	if access.UserID != user.ID || refresh.UserID != user.ID {
		t.Errorf("token identities = %d/%d, want %d", access.UserID, refresh.UserID, user.ID)
	}
	if !access.Fresh {
		t.Error("login-issued access token must be fresh")
	}
	if access.Type != security.TokenTypeAccess || refresh.Type != security.TokenTypeRefresh {
		t.Errorf("token types = %q/%q", access.Type, refresh.Type)
	}
	if access.JTI == refresh.JTI {
		t.Error("sibling tokens must not share a jti")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newTestService()

	first, err := svc.Register(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err = svc.Register(ctx, "alice", "other-password")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("second Register: want ErrUsernameTaken, got %v", err)
	}

	// The first record is unchanged.
	stored, _ := users.GetByUsername(ctx, "alice")
	if stored == nil || stored.ID != first.ID || stored.PasswordHash != first.PasswordHash {
		t.Error("first registration should be untouched by the conflict")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	if _, err := svc.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "pw123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: want ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens, _ := newTestService()

	if _, err := svc.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	refreshClaims, err := tokens.Verify(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	accessToken, err := svc.Refresh(ctx, refreshClaims)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	derived, err := tokens.Verify(accessToken)
	if err != nil {
		t.Fatalf("Verify derived: %v", err)
	}
	if derived.Fresh {
		t.Error("refresh-derived access token must not be fresh")
	}
	if derived.Type != security.TokenTypeAccess {
		t.Errorf("derived type = %q, want access", derived.Type)
	}

	// Second use of the same refresh token fails: its jti is now revoked.
	if _, err := svc.Refresh(ctx, refreshClaims); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("second Refresh: want ErrTokenRevoked, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens, _ := newTestService()

	if _, err := svc.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	accessClaims, err := tokens.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := svc.Refresh(ctx, accessClaims); !errors.Is(err, ErrNotRefreshToken) {
		t.Errorf("Refresh with access token: want ErrNotRefreshToken, got %v", err)
	}
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens, registry := newTestService()

	if _, err := svc.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	accessClaims, _ := tokens.Verify(pair.AccessToken)
	refreshClaims, _ := tokens.Verify(pair.RefreshToken)

	if err := svc.Logout(ctx, accessClaims); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	revoked, _ := registry.IsRevoked(ctx, accessClaims.JTI)
	if !revoked {
		t.Error("access token jti should be revoked after logout")
	}
	// The sibling refresh token is independently revocable and still valid.
	revoked, _ = registry.IsRevoked(ctx, refreshClaims.JTI)
	if revoked {
		t.Error("sibling refresh token must not be revoked by logout of the access token")
	}

	// The still-valid refresh token can mint a new (non-fresh) access token.
	accessToken, err := svc.Refresh(ctx, refreshClaims)
	if err != nil {
		t.Fatalf("Refresh after logout of sibling: %v", err)
	}
	derived, err := tokens.Verify(accessToken)
	if err != nil {
		t.Fatalf("Verify derived: %v", err)
	}
	if derived.Fresh {
		t.Error("derived token must not be fresh")
	}
}

func TestGetAndDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	created, err := svc.Register(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := svc.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}

	if err := svc.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := svc.GetUser(ctx, created.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser after delete: want ErrUserNotFound, got %v", err)
	}
	if err := svc.DeleteUser(ctx, created.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("DeleteUser again: want ErrUserNotFound, got %v", err)
	}
}
