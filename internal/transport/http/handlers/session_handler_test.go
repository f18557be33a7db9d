package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/domain"
	"github.com/picshelf/picshelf/internal/repository"
	"github.com/picshelf/picshelf/internal/service"
	"github.com/picshelf/picshelf/internal/token"
	"github.com/picshelf/picshelf/internal/transport/http/middleware"
	"github.com/picshelf/picshelf/pkg/client"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[user.Username]; exists {
		return repository.ErrDuplicateUsername
	}
	cp := *user
	f.users[user.Username] = &cp
	return nil
}

func (f *fakeUserRepo) GetByUsernameWithHash(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.SafeUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return u.Safe(), nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SafeUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u.Safe(), nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeRevocationList struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevocationList() *fakeRevocationList {
	return &fakeRevocationList{revoked: make(map[string]bool)}
}

func (f *fakeRevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

type fakeImageRepo struct {
	mu     sync.Mutex
	images []domain.Image
}

func (f *fakeImageRepo) Create(ctx context.Context, image *domain.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, *image)
	return nil
}

func (f *fakeImageRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Image
	for _, img := range f.images {
		if img.UserID == ownerID {
			out = append(out, img)
		}
	}
	return out, nil
}

type fakeImageStorage struct{}

func (fakeImageStorage) PresignPut(ctx context.Context) (string, string, error) {
	key := "images/test/" + uuid.NewString()
	return key, "https://blobs.test/put/" + key, nil
}

func (fakeImageStorage) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://blobs.test/get/" + key, nil
}

type testEnv struct {
	server   *httptest.Server
	userRepo *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := newFakeUserRepo()
	revoked := newFakeRevocationList()
	issuer := token.NewIssuer("test-secret", time.Hour)

	authService := service.NewAuthService(userRepo, revoked, issuer, logger)
	imageService := service.NewImageService(&fakeImageRepo{}, fakeImageStorage{})

	sessionHandler := NewSessionHandler(authService, logger)
	imageHandler := NewImageHandler(imageService, logger)

	mux := NewRouter(sessionHandler, imageHandler, middleware.Auth(issuer, revoked))
	srv := httptest.NewServer(middleware.CSRF(mux))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, userRepo: userRepo}
}

// --- tests ---

// TestSessionLifecycle walks the whole flow a browser client performs:
// bootstrap restore, signup, login, restore with the carried cookie,
// logout, and a final restore that comes back empty.
func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := client.New(env.server.URL)
	require.NoError(t, err)

	// Cold start: restore resolves to anonymous and leaves the CSRF
	// cookie behind for the mutations below.
	user, err := c.Restore(ctx)
	require.NoError(t, err)
	require.Nil(t, user)

	signedUp, err := c.Signup(ctx, "alice123", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alice123", signedUp.Username)

	loggedIn, err := c.Login(ctx, "alice123", "secret1")
	require.NoError(t, err)
	require.Equal(t, signedUp.ID, loggedIn.ID)

	restored, err := c.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	require.Equal(t, signedUp.ID, restored.ID)

	require.NoError(t, c.Logout(ctx))

	gone, err := c.Restore(ctx)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestSignup_ResponseNeverContainsHash(t *testing.T) {
	env := newTestEnv(t)

	body := signupRaw(t, env, "alice123", "secret1", true)
	require.Contains(t, body, `"alice123"`)
	require.NotContains(t, strings.ToLower(body), "hash")
	require.NotContains(t, body, "secret1")
}

func TestSignup_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env, "/api/users", map[string]string{
		"username": "a@b.com",
		"password": "123",
	}, true)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Errors, 2, "one message per violated rule")
	require.Equal(t, 0, env.userRepo.count(), "no record on validation failure")
}

func TestSignup_Duplicate(t *testing.T) {
	env := newTestEnv(t)

	signupRaw(t, env, "alice123", "secret1", true)

	resp := postJSON(t, env, "/api/users", map[string]string{
		"username": "alice123",
		"password": "different",
	}, true)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, env.userRepo.count())
}

func TestLogin_GenericFailureShape(t *testing.T) {
	env := newTestEnv(t)
	signupRaw(t, env, "alice123", "secret1", true)

	wrongPass := postJSON(t, env, "/api/session", map[string]string{
		"username": "alice123", "password": "wrong",
	}, true)
	noUser := postJSON(t, env, "/api/session", map[string]string{
		"username": "nobody99", "password": "secret1",
	}, true)

	wrongPassBody, _ := io.ReadAll(wrongPass.Body)
	noUserBody, _ := io.ReadAll(noUser.Body)
	wrongPass.Body.Close()
	noUser.Body.Close()

	require.Equal(t, http.StatusUnauthorized, wrongPass.StatusCode)
	require.Equal(t, http.StatusUnauthorized, noUser.StatusCode)
	require.Equal(t, string(wrongPassBody), string(noUserBody),
		"unknown user and wrong password must be indistinguishable")
}

func TestSignup_RejectedWithoutCSRF(t *testing.T) {
	env := newTestEnv(t)

	// No prior GET: no CSRF cookie, no header.
	resp := postJSON(t, env, "/api/users", map[string]string{
		"username": "alice123", "password": "secret1",
	}, false)
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, 0, env.userRepo.count(), "no side effects on CSRF rejection")
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t)

	c, err := client.New(env.server.URL)
	require.NoError(t, err)

	// Fetch the CSRF cookie, then log out twice with no session at all.
	_, err = c.Restore(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Logout(context.Background()))
	require.NoError(t, c.Logout(context.Background()))
}

func TestImages_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := client.New(env.server.URL)
	require.NoError(t, err)
	_, err = c.Restore(ctx)
	require.NoError(t, err)

	user, err := c.Signup(ctx, "alice123", "secret1")
	require.NoError(t, err)

	img, uploadURL, err := c.RequestUpload(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, uploadURL)
	require.Equal(t, user.ID, img.UserID)

	images, err := c.FetchImages(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.NotEmpty(t, images[0].URL)

	// Another user's images are off limits.
	_, err = c.FetchImages(ctx, uuid.New())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestImages_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/images/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// --- raw HTTP helpers ---

// postJSON sends a state-changing request, optionally performing the
// cookie/header dance the CSRF guard expects.
func postJSON(t *testing.T, env *testEnv, path string, body map[string]string, withCSRF bool) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	if withCSRF {
		tok := fetchCSRFToken(t, env)
		req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: tok})
		req.Header.Set(middleware.CSRFHeaderName, tok)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func fetchCSRFToken(t *testing.T, env *testEnv) string {
	t.Helper()

	resp, err := http.Get(env.server.URL + "/api/session")
	require.NoError(t, err)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == middleware.CSRFCookieName {
			return c.Value
		}
	}
	t.Fatal("no CSRF cookie issued")
	return ""
}

func signupRaw(t *testing.T, env *testEnv, username, password string, withCSRF bool) string {
	t.Helper()

	resp := postJSON(t, env, "/api/users", map[string]string{
		"username": username,
		"password": password,
	}, withCSRF)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "signup failed: %s", body)
	return string(body)
}
