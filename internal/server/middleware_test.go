package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_Assigned(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil, nil)
	id := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "generated ids are UUIDs")
}

func TestRequestID_CallerProvidedIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil, map[string]string{
		"X-Request-Id": "firmware-retry-7",
	})
	assert.Equal(t, "firmware-retry-7", w.Header().Get("X-Request-Id"))
}

func TestRecovery_PanicBecomesInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &Server{log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	engine := gin.New()
	engine.Use(srv.requestID(), srv.recovery())
	engine.GET("/boom", func(*gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Error interno", body["detail"])
}
