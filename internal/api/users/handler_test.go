package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashen-heron/trackd/internal/api/middleware"
	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// Mock repositories

type mockUserRepository struct {
	users []*models.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	for i, u := range m.users {
		if u.ID == user.ID {
			m.users[i] = user
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	return m.users, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type mockTokenRepository struct {
	revokedFor []string
}

func (m *mockTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return nil
}
func (m *mockTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	return nil, nil
}
func (m *mockTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}
func (m *mockTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	m.revokedFor = append(m.revokedFor, userID)
	return nil
}
func (m *mockTokenRepository) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type mockStorage struct {
	userRepo  *mockUserRepository
	tokenRepo *mockTokenRepository
}

func (m *mockStorage) Open() error                         { return nil }
func (m *mockStorage) Close() error                        { return nil }
func (m *mockStorage) Migrate() error                      { return nil }
func (m *mockStorage) Users() storage.UserRepository       { return m.userRepo }
func (m *mockStorage) Projects() storage.ProjectRepository { return nil }
func (m *mockStorage) Tickets() storage.TicketRepository   { return nil }
func (m *mockStorage) Tokens() storage.TokenRepository     { return m.tokenRepo }

func newMockStorage() (*mockStorage, *mockUserRepository, *mockTokenRepository) {
	userRepo := &mockUserRepository{}
	tokenRepo := &mockTokenRepository{}
	return &mockStorage{userRepo: userRepo, tokenRepo: tokenRepo}, userRepo, tokenRepo
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), userID, "tester"))
}

func withUserID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedUser(repo *mockUserRepository, id, username, email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := models.NewUser(username, email)
	u.ID = id
	u.PasswordHash = string(hash)
	repo.users = append(repo.users, u)
	return u
}

func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestCreate(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	h := NewHandler(store)

	body := `{"username":"alice","email":"alice@example.com","password":"Str0ng!Passw0rd"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/users/", strings.NewReader(body)), "admin-1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp UserResponse
	decodeData(t, rec.Body.Bytes(), &resp)
	if resp.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.Username)
	}
	if len(userRepo.users) != 1 {
		t.Fatalf("stored users = %d, want 1", len(userRepo.users))
	}
	if userRepo.users[0].PasswordHash == "Str0ng!Passw0rd" {
		t.Error("password stored in plain text")
	}
}

func TestCreate_WeakPasswordRejected(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	h := NewHandler(store)

	body := `{"username":"alice","email":"alice@example.com","password":"short"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/users/", strings.NewReader(body)), "admin-1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(userRepo.users) != 0 {
		t.Error("user should not have been created")
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "pw")
	h := NewHandler(store)

	body := `{"username":"alice","email":"other@example.com","password":"Str0ng!Passw0rd"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/users/", strings.NewReader(body)), "admin-1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestUpdate_EmailConflict(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "pw")
	seedUser(userRepo, "u2", "bob", "bob@example.com", "pw")
	h := NewHandler(store)

	body := `{"email":"bob@example.com"}`
	req := authed(httptest.NewRequest(http.MethodPut, "/api/v1/users/u1", strings.NewReader(body)), "admin-1")
	req = withUserID(req, "u1")
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestDelete_RejectsSelf(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "pw")
	h := NewHandler(store)

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/users/u1", nil), "u1")
	req = withUserID(req, "u1")
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(userRepo.users) != 1 {
		t.Error("user should not have been deleted")
	}
}

func TestDelete_OtherUser(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "pw")
	seedUser(userRepo, "u2", "bob", "bob@example.com", "pw")
	h := NewHandler(store)

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/users/u2", nil), "u1")
	req = withUserID(req, "u2")
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(userRepo.users) != 1 {
		t.Fatalf("stored users = %d, want 1", len(userRepo.users))
	}
}

func TestGetCurrentUser(t *testing.T) {
	store, userRepo, _ := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "pw")
	h := NewHandler(store)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), "u1")
	rec := httptest.NewRecorder()

	h.GetCurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp UserResponse
	decodeData(t, rec.Body.Bytes(), &resp)
	if resp.ID != "u1" || resp.Username != "alice" {
		t.Errorf("got user %s/%s, want u1/alice", resp.ID, resp.Username)
	}
}

func TestChangePassword_RevokesTokens(t *testing.T) {
	store, userRepo, tokenRepo := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "OldPassw0rd!!")
	h := NewHandler(store)

	body := `{"current_password":"OldPassw0rd!!","new_password":"NewPassw0rd!!1"}`
	req := authed(httptest.NewRequest(http.MethodPut, "/api/v1/users/me/password", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	if len(tokenRepo.revokedFor) != 1 || tokenRepo.revokedFor[0] != "u1" {
		t.Errorf("revoked for %v, want [u1]", tokenRepo.revokedFor)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	store, userRepo, tokenRepo := newMockStorage()
	seedUser(userRepo, "u1", "alice", "alice@example.com", "OldPassw0rd!!")
	h := NewHandler(store)

	body := `{"current_password":"wrong","new_password":"NewPassw0rd!!1"}`
	req := authed(httptest.NewRequest(http.MethodPut, "/api/v1/users/me/password", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(tokenRepo.revokedFor) != 0 {
		t.Error("tokens should not have been revoked")
	}
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "Bob_99", "a-b-c"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{"", "ab", "9lives", "has space", strings.Repeat("x", 33)}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", u)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("alice@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}

	invalid := []string{"", "not-an-email", "Alice <alice@example.com>", "@example.com"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", e)
		}
	}
}
