package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pitchstat-backend/internal/archive"
	"pitchstat-backend/internal/auth"
	"pitchstat-backend/internal/contract"
	"pitchstat-backend/internal/observability"
	"pitchstat-backend/internal/repository/mocks"
	"pitchstat-backend/internal/service/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const schemaPath = "../../contracts/session_summary.schema.json"

func newTestServer(t *testing.T) (http.Handler, *mocks.MockRepository) {
	t.Helper()

	repo := mocks.NewMockRepository()
	svc := session.NewService(
		repo,
		archive.NewProcessor(zap.NewNop()),
		contract.NewValidator(schemaPath),
		observability.NewCollector("test"),
		zap.NewNop(),
	)
	handler := NewSessionHandler(svc, zap.NewNop())

	extractor, err := auth.NewExtractor("user-1", "test", zap.NewNop())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(extractor.Middleware)
	handler.Routes(r)
	return r, repo
}

func uploadJSON(t *testing.T, sessionID string, pitchCount int) []byte {
	t.Helper()

	pitches := make([]any, 0, pitchCount)
	for i := 0; i < pitchCount; i++ {
		pitches = append(pitches, map[string]any{"pitch_id": fmt.Sprintf("p%d", i+1)})
	}
	body, err := json.Marshal(map[string]any{
		"session_id": sessionID,
		"pitches":    pitches,
	})
	require.NoError(t, err)
	return body
}

func doRequest(t *testing.T, server http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)
	return w
}

func TestUpload(t *testing.T) {
	t.Run("valid upload returns 201", func(t *testing.T) {
		server, _ := newTestServer(t)

		w := doRequest(t, server, http.MethodPost, "/sessions", uploadJSON(t, "sess-1", 2))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "sess-1", resp["sessionId"])
		assert.Equal(t, 2.0, resp["pitchCount"])
	})

	t.Run("unparseable body returns 400", func(t *testing.T) {
		server, _ := newTestServer(t)

		w := doRequest(t, server, http.MethodPost, "/sessions", []byte("not json"))
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["error"])
	})

	t.Run("contract violation returns 400 with details", func(t *testing.T) {
		server, _ := newTestServer(t)

		w := doRequest(t, server, http.MethodPost, "/sessions", []byte(`{"session_id":"s1"}`))
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "schema validation failed", resp["error"])
		assert.NotEmpty(t, resp["details"])
	})
}

func TestList(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(t, server, http.MethodPost, "/sessions", uploadJSON(t, "sess-1", 1))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, server, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []map[string]any `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "sess-1", resp.Sessions[0]["sessionId"])
}

func TestDetail(t *testing.T) {
	t.Run("existing session", func(t *testing.T) {
		server, _ := newTestServer(t)

		w := doRequest(t, server, http.MethodPost, "/sessions", uploadJSON(t, "sess-1", 3))
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, server, http.MethodGet, "/sessions/sess-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Session map[string]any   `json:"session"`
			Pitches []map[string]any `json:"pitches"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "sess-1", resp.Session["sessionId"])
		assert.Len(t, resp.Pitches, 3)
	})

	t.Run("unknown session returns 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		w := doRequest(t, server, http.MethodGet, "/sessions/missing", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Session not found")
	})
}

func TestUnauthorized(t *testing.T) {
	repo := mocks.NewMockRepository()
	svc := session.NewService(
		repo,
		archive.NewProcessor(zap.NewNop()),
		contract.NewValidator(schemaPath),
		observability.NewCollector("test"),
		zap.NewNop(),
	)
	handler := NewSessionHandler(svc, zap.NewNop())

	extractor, err := auth.NewExtractor("", "test", zap.NewNop())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(extractor.Middleware)
	handler.Routes(r)

	w := doRequest(t, r, http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
