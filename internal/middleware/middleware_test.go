package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	if rl != nil {
		r.Use(RateLimitMiddleware(rl, zap.NewNop()))
	}
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"principal_id": GetPrincipalID(c).String(),
			"name":         GetProfile(c).Name,
		})
	}
	r.GET("/me", handler)
	r.POST("/me", handler)
	return r
}

func bearer(t *testing.T, id uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(id, auth.Profile{Name: "Ada"}, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter(nil)
	id := uuid.New()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: bearer(t, id), status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"principal_id":"`+id.String()+`","name":"Ada"}`, w.Body.String())
			}
		})
	}
}

func TestRateLimitMiddlewareThrottlesMutations(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	defer rl.Stop()
	r := newAuthRouter(rl)
	header := bearer(t, uuid.New())

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost).Code)
	assert.Equal(t, http.StatusOK, do(http.MethodPost).Code)
	w := do(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Reads are never throttled.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(http.MethodGet).Code)
	}

	// Buckets are per principal.
	other := bearer(t, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/me", nil)
	req.Header.Set("Authorization", other)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPrincipalIDOutsideAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetPrincipalID(c))
	assert.Equal(t, auth.Profile{}, GetProfile(c))
}
