package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authhandler "storefront-api/internal/auth/handler"
	authservice "storefront-api/internal/auth/service"
	"storefront-api/internal/blocklist"
	itemdomain "storefront-api/internal/item/domain"
	itemhandler "storefront-api/internal/item/handler"
	"storefront-api/internal/security"
	storedomain "storefront-api/internal/store/domain"
	storehandler "storefront-api/internal/store/handler"
	storerepo "storefront-api/internal/store/repository"
	tagdomain "storefront-api/internal/tag/domain"
	taghandler "storefront-api/internal/tag/handler"
	tagrepo "storefront-api/internal/tag/repository"
	userdomain "storefront-api/internal/user/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*userdomain.User
	byName map[string]*userdomain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*userdomain.User{}, byName: map[string]*userdomain.User{}}
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byName[username], nil
}

func (m *memUsers) Create(_ context.Context, u *userdomain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	m.byID[u.ID] = u
	m.byName[u.Username] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		delete(m.byName, u.Username)
		delete(m.byID, id)
	}
	return nil
}

type memStores struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*storedomain.Store
}

func newMemStores() *memStores {
	return &memStores{byID: map[int64]*storedomain.Store{}}
}

func (m *memStores) List(_ context.Context) ([]*storedomain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*storedomain.Store, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStores) GetByID(_ context.Context, id int64) (*storedomain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memStores) Create(_ context.Context, s *storedomain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Name == s.Name {
			return storerepo.ErrDuplicateName
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.byID[s.ID] = s
	return nil
}

func (m *memStores) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memItems struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*itemdomain.Item
}

func newMemItems() *memItems {
	return &memItems{byID: map[int64]*itemdomain.Item{}}
}

func (m *memItems) List(_ context.Context) ([]*itemdomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*itemdomain.Item, 0, len(m.byID))
	for _, i := range m.byID {
		out = append(out, i)
	}
	return out, nil
}

func (m *memItems) GetByID(_ context.Context, id int64) (*itemdomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memItems) ListByStore(_ context.Context, storeID int64) ([]*itemdomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*itemdomain.Item
	for _, i := range m.byID {
		if i.StoreID == storeID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memItems) ListByTag(_ context.Context, _ int64) ([]*itemdomain.Item, error) {
	return nil, nil
}

func (m *memItems) Create(_ context.Context, i *itemdomain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	i.ID = m.nextID
	m.byID[i.ID] = i
	return nil
}

func (m *memItems) Update(_ context.Context, i *itemdomain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[i.ID]; ok {
		m.byID[i.ID] = i
	}
	return nil
}

func (m *memItems) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type tagLink struct{ itemID, tagID int64 }

type memTags struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*tagdomain.Tag
	links  map[tagLink]bool
}

func newMemTags() *memTags {
	return &memTags{byID: map[int64]*tagdomain.Tag{}, links: map[tagLink]bool{}}
}

func (m *memTags) GetByID(_ context.Context, id int64) (*tagdomain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memTags) ListByStore(_ context.Context, storeID int64) ([]*tagdomain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tagdomain.Tag
	for _, t := range m.byID {
		if t.StoreID == storeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTags) ListByItem(_ context.Context, itemID int64) ([]*tagdomain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tagdomain.Tag
	for link := range m.links {
		if link.itemID == itemID {
			out = append(out, m.byID[link.tagID])
		}
	}
	return out, nil
}

func (m *memTags) Create(_ context.Context, t *tagdomain.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.StoreID == t.StoreID && existing.Name == t.Name {
			return tagrepo.ErrDuplicateName
		}
	}
	m.nextID++
	t.ID = m.nextID
	m.byID[t.ID] = t
	return nil
}

func (m *memTags) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for link := range m.links {
		if link.tagID == id {
			return tagrepo.ErrTagInUse
		}
	}
	delete(m.byID, id)
	return nil
}

func (m *memTags) LinkItem(_ context.Context, itemID, tagID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[tagLink{itemID, tagID}] = true
	return nil
}

func (m *memTags) UnlinkItem(_ context.Context, itemID, tagID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, tagLink{itemID, tagID})
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	tokens := security.NewTokenProvider([]byte("test-secret"), "test-issuer", time.Minute, time.Hour)
	registry := blocklist.NewMemory()
	hasher := security.NewHasher(4)

	users := newMemUsers()
	stores := newMemStores()
	items := newMemItems()
	tags := newMemTags()

	auth := authservice.NewAuthService(users, hasher, tokens, registry, nil)

	return NewRouter(zerolog.Nop(), tokens, registry, Handlers{
		Auth:  authhandler.NewHandler(auth),
		Store: storehandler.NewHandler(stores, items, tags),
		Item:  itemhandler.NewHandler(items, stores, tags),
		Tag:   taghandler.NewHandler(tags, items, stores),
	})
}

func do(t *testing.T, r *gin.Engine, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal %s %s response: %v", method, path, err)
		}
	}
	return w.Code, out
}

func TestAuthFlow_LogoutRevokesOnlyPresentedToken(t *testing.T) {
	r := newTestRouter(t)
	creds := map[string]string{"username": "alice", "password": "pw123"}

	code, body := do(t, r, http.MethodPost, "/register", "", creds)
	if code != http.StatusCreated {
		t.Fatalf("register: status = %d, want 201 (body %v)", code, body)
	}
	if body["message"] != "User created successfully." {
		t.Errorf("register message = %v", body["message"])
	}

	code, body = do(t, r, http.MethodPost, "/register", "", creds)
	if code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want 409 (body %v)", code, body)
	}

	code, body = do(t, r, http.MethodPost, "/login", "", creds)
	if code != http.StatusOK {
		t.Fatalf("login: status = %d, want 200 (body %v)", code, body)
	}
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("login returned empty tokens: %v", body)
	}

	// The fresh access token passes a fresh-gated route.
	code, _ = do(t, r, http.MethodDelete, "/store/999", access, nil)
	if code != http.StatusNotFound {
		t.Fatalf("fresh-gated route with fresh token: status = %d, want 404", code)
	}

	// Logging out the access token revokes only that token.
	code, body = do(t, r, http.MethodPost, "/logout", access, nil)
	if code != http.StatusOK {
		t.Fatalf("logout: status = %d, want 200 (body %v)", code, body)
	}
	if body["message"] != "Successfully logged out" {
		t.Errorf("logout message = %v", body["message"])
	}

	code, body = do(t, r, http.MethodDelete, "/store/999", access, nil)
	if code != http.StatusUnauthorized || body["code"] != "token_revoked" {
		t.Fatalf("revoked access: status = %d code = %v, want 401 token_revoked", code, body["code"])
	}

	// The sibling refresh token still works.
	code, body = do(t, r, http.MethodPost, "/refresh", refresh, nil)
	if code != http.StatusOK {
		t.Fatalf("refresh: status = %d, want 200 (body %v)", code, body)
	}
	newAccess, _ := body["access_token"].(string)
	if newAccess == "" {
		t.Fatal("refresh returned empty access token")
	}

	// The refresh-derived access token is not fresh.
	code, body = do(t, r, http.MethodDelete, "/store/999", newAccess, nil)
	if code != http.StatusUnauthorized || body["code"] != "fresh_token_required" {
		t.Fatalf("refresh-derived access at fresh route: status = %d code = %v, want 401 fresh_token_required",
			code, body["code"])
	}

	// Refresh tokens are single use.
	code, body = do(t, r, http.MethodPost, "/refresh", refresh, nil)
	if code != http.StatusUnauthorized || body["code"] != "token_revoked" {
		t.Fatalf("reused refresh: status = %d code = %v, want 401 token_revoked", code, body["code"])
	}
}

func TestAuthFlow_RefreshRequiresRefreshToken(t *testing.T) {
	r := newTestRouter(t)
	creds := map[string]string{"username": "bob", "password": "secret"}

	if code, _ := do(t, r, http.MethodPost, "/register", "", creds); code != http.StatusCreated {
		t.Fatalf("register failed: %d", code)
	}
	_, body := do(t, r, http.MethodPost, "/login", "", creds)
	access, _ := body["access_token"].(string)

	code, body := do(t, r, http.MethodPost, "/refresh", access, nil)
	if code != http.StatusUnauthorized || body["code"] != "refresh_token_required" {
		t.Fatalf("access at refresh route: status = %d code = %v, want 401 refresh_token_required",
			code, body["code"])
	}
}

func TestAuthFlow_InvalidCredentials(t *testing.T) {
	r := newTestRouter(t)

	if code, _ := do(t, r, http.MethodPost, "/register", "",
		map[string]string{"username": "carol", "password": "right"}); code != http.StatusCreated {
		t.Fatal("register failed")
	}

	testCases := []struct {
		name  string
		creds map[string]string
	}{
		{"wrong password", map[string]string{"username": "carol", "password": "wrong"}},
		{"unknown user", map[string]string{"username": "nobody", "password": "right"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, r, http.MethodPost, "/login", "", tc.creds)
			if code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", code)
			}
			if body["message"] != "Invalid credentials." {
				t.Errorf("message = %v, want Invalid credentials.", body["message"])
			}
		})
	}
}

func TestUserEndpoints(t *testing.T) {
	r := newTestRouter(t)

	if code, _ := do(t, r, http.MethodPost, "/register", "",
		map[string]string{"username": "dave", "password": "pw"}); code != http.StatusCreated {
		t.Fatal("register failed")
	}

	code, body := do(t, r, http.MethodGet, "/user/1", "", nil)
	if code != http.StatusOK {
		t.Fatalf("get user: status = %d (body %v)", code, body)
	}
	if body["username"] != "dave" {
		t.Errorf("username = %v, want dave", body["username"])
	}

	code, body = do(t, r, http.MethodDelete, "/user/1", "", nil)
	if code != http.StatusOK || body["message"] != "User deleted." {
		t.Fatalf("delete user: status = %d body = %v", code, body)
	}

	code, _ = do(t, r, http.MethodGet, "/user/1", "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("get deleted user: status = %d, want 404", code)
	}
}
