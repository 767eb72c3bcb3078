package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/nonce"
)

const secret = "s3cret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ----------------------------------------------------
// auth
// ----------------------------------------------------

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(secret))
	r.GET("/who", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   *UserID(c),
			"role": c.GetString(ContextUserRole),
		})
	})
	r.GET("/manage", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid := sign(t, jwt.MapClaims{"sub": 4, "role": models.RoleViewer, "exp": time.Now().Add(time.Hour).Unix()})
	expired := sign(t, jwt.MapClaims{"sub": 4, "role": models.RoleViewer, "exp": time.Now().Add(-time.Hour).Unix()})
	noRole := sign(t, jwt.MapClaims{"sub": 4, "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"missing role", "Bearer " + noRole, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	r := authRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthMiddleware_SetsIdentity(t *testing.T) {
	token := sign(t, jwt.MapClaims{"sub": 4, "role": models.RoleViewer, "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(authRouter(), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":4,"role":"viewer"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter()

	for role, status := range map[string]int{
		models.RoleAdmin:  http.StatusOK,
		models.RoleViewer: http.StatusForbidden,
	} {
		token := sign(t, jwt.MapClaims{"sub": 1, "role": role, "exp": time.Now().Add(time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodGet, "/manage", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := serve(r, req)
		assert.Equal(t, status, w.Code, role)
	}
}

// ----------------------------------------------------
// nonce
// ----------------------------------------------------

type stubNonces struct {
	err      error
	consumed []string
}

func (s *stubNonces) Issue(context.Context, string) (string, error) { return "", nil }
func (s *stubNonces) Verify(context.Context, string, string) error  { return s.err }

func (s *stubNonces) Consume(_ context.Context, action, token string) error {
	s.consumed = append(s.consumed, action+":"+token)
	return s.err
}

func nonceRouter(store nonce.Store) *gin.Engine {
	r := gin.New()
	r.POST("/book", RequireNonce(store, nonce.ActionBookingCreate, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestRequireNonce(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"accepted", nil, http.StatusCreated},
		{"invalid", nonce.ErrInvalidNonce, http.StatusUnauthorized},
		{"store down", errors.New("dial tcp: refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubNonces{err: tt.err}
			req := httptest.NewRequest(http.MethodPost, "/book", nil)
			req.Header.Set(NonceHeader, "tok")

			w := serve(nonceRouter(store), req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, []string{"booking_create:tok"}, store.consumed)
		})
	}
}

// ----------------------------------------------------
// rate limit
// ----------------------------------------------------

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimitMiddleware(3, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestLimiterStore_EvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	store := newLimiterStore(2)
	store.now = func() time.Time { return now }

	idle := store.get("10.0.0.1")
	require.True(t, idle.Allow())
	require.True(t, idle.Allow())
	require.False(t, idle.Allow())

	// active client keeps touching its bucket
	for i := 0; i < 12; i++ {
		now = now.Add(time.Minute)
		store.get("10.0.0.2")
	}

	store.mu.Lock()
	assert.NotContains(t, store.limiters, "10.0.0.1")
	assert.Contains(t, store.limiters, "10.0.0.2")
	store.mu.Unlock()

	// a returning client starts with a fresh bucket
	assert.NotSame(t, idle, store.get("10.0.0.1"))
}

func TestLimiterStore_SweepsAtMostOncePerGap(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	store := newLimiterStore(60)
	store.now = func() time.Time { return now }

	store.get("10.0.0.1")
	first := store.lastSweep

	now = now.Add(10 * time.Second)
	store.get("10.0.0.2")
	assert.Equal(t, first, store.lastSweep)

	now = now.Add(time.Minute)
	store.get("10.0.0.2")
	assert.Equal(t, now, store.lastSweep)
}

// ----------------------------------------------------
// logging / recovery
// ----------------------------------------------------

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		assert.NotNil(t, Logger(c, nil))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := serve(r, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(nil))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://widget.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://widget.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), NonceHeader)
}

func TestCORS_AllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://rdv.widget.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://rdv.widget.test")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://rdv.widget.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
