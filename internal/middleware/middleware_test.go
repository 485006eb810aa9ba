package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pitchstat-backend/internal/auth"
	"pitchstat-backend/internal/observability"
	"pitchstat-backend/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// withPrincipal wires the development bypass so the handler under test sees an
// authenticated identity.
func withPrincipal(t *testing.T, userID string, next http.Handler) http.Handler {
	t.Helper()

	extractor, err := auth.NewExtractor(userID, "test", zap.NewNop())
	require.NoError(t, err)
	return extractor.Middleware(next)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	collector := observability.NewCollector("test")

	t.Run("admitted requests carry quota headers", func(t *testing.T) {
		store := ratelimit.NewStore(ratelimit.WithLimit(2))
		handler := withPrincipal(t, "user-1", RateLimit(store, collector, zap.NewNop())(okHandler()))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

		reset, err := time.Parse(time.RFC3339, w.Header().Get("X-RateLimit-Reset"))
		require.NoError(t, err)
		assert.True(t, reset.After(time.Now()))
	})

	t.Run("requests over the ceiling get a 429", func(t *testing.T) {
		store := ratelimit.NewStore(ratelimit.WithLimit(1))
		handler := withPrincipal(t, "user-1", RateLimit(store, collector, zap.NewNop())(okHandler()))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "Too many requests")
	})

	t.Run("separate identities do not share a window", func(t *testing.T) {
		store := ratelimit.NewStore(ratelimit.WithLimit(1))
		limited := RateLimit(store, collector, zap.NewNop())(okHandler())

		first := withPrincipal(t, "user-a", limited)
		second := withPrincipal(t, "user-b", limited)

		w := httptest.NewRecorder()
		first.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		second.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("requests without a principal pass through", func(t *testing.T) {
		store := ratelimit.NewStore(ratelimit.WithLimit(1))
		handler := RateLimit(store, collector, zap.NewNop())(okHandler())

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates a provided id", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "req-42")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
