package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rbac-admin/common"
	"rbac-admin/database"
	"rbac-admin/domain"
	authrepo "rbac-admin/modules/auth/repository"
	userrepo "rbac-admin/modules/user/repository"
	"rbac-admin/pkg/cache"
	"rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type jwtConfig struct{}

func (jwtConfig) AccessTokenExpiresIn() time.Duration  { return 15 * time.Minute }
func (jwtConfig) AccessTokenSecret() string            { return "test-secret" }
func (jwtConfig) RefreshTokenExpiresIn() time.Duration { return time.Hour }
func (jwtConfig) TokenIssuer() string                  { return "rbac-admin" }

type fakeAccess struct {
	granted map[uint][]string
}

func (f *fakeAccess) PermissionsOf(_ context.Context, userID uint) ([]string, error) {
	return f.granted[userID], nil
}

func (f *fakeAccess) Can(ctx context.Context, user *domain.User, permissions ...string) (bool, error) {
	granted, _ := f.PermissionsOf(ctx, user.ID)
	return domain.HasAnyPermission(granted, permissions...), nil
}

func (f *fakeAccess) Invalidate(context.Context) error    { return nil }
func (f *fakeAccess) Forget(context.Context, uint) error { return nil }

type fixture struct {
	mw       Middlewares
	jwt      *common.JWTProvider
	users    *userrepo.UserRepository
	sessions *authrepo.UserSessionRepository
	access   *fakeAccess
}

func setup(t *testing.T, limits RateLimits) *fixture {
	t.Helper()
	logger := log.NewNopLogger()
	db, err := database.OpenInMemory(logger)
	require.NoError(t, err)

	f := &fixture{
		jwt:      common.NewJWTProvider(jwtConfig{}),
		users:    userrepo.NewUserRepository(db),
		sessions: authrepo.NewUserSessionRepository(db),
		access:   &fakeAccess{granted: map[uint][]string{}},
	}
	f.mw = NewMiddlewares(Dependencies{
		Cache:       cache.NewMemoryCache(&cache.Config{MaxSize: 100, DefaultTTL: time.Hour}, common.NewLoggerAdapter(logger)),
		Logger:      logger,
		JwtProvider: f.jwt,
		SessionRepo: f.sessions,
		UserRepo:    f.users,
		Access:      f.access,
		CORS:        CORSConfig{AllowOrigins: []string{"https://admin.example.com"}},
		Secure:      SecureConfig{},
		RateLimits:  limits,
	})
	return f
}

// login stores a user with an active session and returns its access token.
func (f *fixture) login(t *testing.T, email string) (*domain.User, *domain.UserSession, string) {
	t.Helper()
	ctx := context.Background()
	user := &domain.User{Name: "Jane", Email: email, Password: "x"}
	require.NoError(t, f.users.Create(ctx, user))

	session := &domain.UserSession{ID: email + "-session", UserID: user.ID, Active: true}
	require.NoError(t, f.sessions.Create(ctx, session))

	token, err := f.jwt.Generate(domain.TokenTypeAccess, user.ID, session.ID)
	require.NoError(t, err)
	return user, session, token
}

func serve(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	body := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func protectedRouter(f *fixture, permissions ...string) *gin.Engine {
	r := gin.New()
	r.GET("/me", f.mw.Authenticator(), f.mw.RequirePermissions(permissions...), func(c *gin.Context) {
		common.ResponseOK(c, common.GetUserFromCtx(c).Email, "ok")
	})
	return r
}

func TestAuthenticator(t *testing.T) {
	f := setup(t, RateLimits{})
	r := protectedRouter(f)
	_, session, token := f.login(t, "jane@example.com")

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	w, body = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/me", nil), "garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	w, body = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@example.com", body["data"])

	session.Active = false
	require.NoError(t, f.sessions.Update(context.Background(), session))
	w, body = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", body["code"])
}

func TestAuthenticatorRejectsTrashedUser(t *testing.T) {
	f := setup(t, RateLimits{})
	r := protectedRouter(f)
	user, _, token := f.login(t, "gone@example.com")

	_, err := f.users.SoftDelete(context.Background(), []uint{user.ID})
	require.NoError(t, err)

	w, body := serve(r, bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestRequirePermissions(t *testing.T) {
	f := setup(t, RateLimits{})
	r := protectedRouter(f, domain.PermissionManageUsers, domain.PermissionManageRoles)
	user, _, token := f.login(t, "jane@example.com")

	w, body := serve(r, bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])
	assert.Equal(t, "This action is unauthorized.", body["description"])

	f.access.granted[user.ID] = []string{"Manage Roles"}
	w, _ = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	f := setup(t, RateLimits{LoginMaxRequests: 2, LoginWindow: time.Hour})
	r := gin.New()
	r.POST("/login", f.mw.LoginRateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		w, _ := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	w, body := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", body["code"])
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w, _ = serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	f := setup(t, RateLimits{})
	r := gin.New()
	r.Use(f.mw.RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, common.GetRequestIDFromCtx(c), log.RequestIDFromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(common.RequestIDHeader, "abc-123")
	w, _ := serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(common.RequestIDHeader))

	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(common.RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	f := setup(t, RateLimits{})
	r := gin.New()
	r.Use(f.mw.RequestID(), f.mw.Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
}

func TestCORSAndSecureHeaders(t *testing.T) {
	f := setup(t, RateLimits{})
	r := gin.New()
	r.Use(f.mw.CORS(), f.mw.SecureHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w, _ := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w, _ = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
