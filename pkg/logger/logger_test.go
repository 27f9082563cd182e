package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", JSON: true, Output: &buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown", "key", "value")
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "value", record["key"])
}

func TestFromContext(t *testing.T) {
	fallback := NewNop()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := NewNop().WithRequestID("abc")
	ctx := NewContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}

func TestMiddlewareSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(New(Config{Level: "debug", JSON: true, Output: &buf})))
	r.POST("/ping", func(c *gin.Context) {
		_, ok := c.Get("logger")
		assert.True(t, ok)
		FromContext(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), "inside handler")
}
