package health

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-sentiment/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, c *Checker) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", c.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestCheckerHealthy(t *testing.T) {
	c := NewChecker(logger.NewNop(), time.Minute, "test")
	c.RegisterDatabaseCheck(func(context.Context) error { return nil })
	c.RunChecks(context.Background())

	code, body := serve(t, c)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body["components"], "database")
}

func TestCheckerCriticalDown(t *testing.T) {
	c := NewChecker(logger.NewNop(), time.Minute, "")
	c.RegisterDatabaseCheck(func(context.Context) error { return stderrors.New("closed") })

	var reported []bool
	c.OnChange(func(healthy bool) { reported = append(reported, healthy) })
	c.RunChecks(context.Background())

	assert.False(t, c.IsSystemHealthy())
	assert.Equal(t, []bool{false}, reported)

	code, body := serve(t, c)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "closed", c.GetStatus()["database"].Error)
}

func TestCheckerAPIDegraded(t *testing.T) {
	c := NewChecker(logger.NewNop(), time.Minute, "")
	c.RegisterAPICheck("sentiment", "http://127.0.0.1:1", &http.Client{Timeout: 200 * time.Millisecond})
	c.RunChecks(context.Background())

	assert.True(t, c.IsSystemHealthy())
	assert.Equal(t, "degraded", c.OverallStatus())
	assert.Equal(t, StatusDegraded, c.GetStatus()["api-sentiment"].Status)
}

func TestCheckerAPIReachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewChecker(logger.NewNop(), time.Minute, "")
	c.RegisterAPICheck("sentiment", srv.URL, srv.Client())
	c.RunChecks(context.Background())

	assert.Equal(t, StatusUp, c.GetStatus()["api-sentiment"].Status)
}

func TestProcessCheck(t *testing.T) {
	c := NewChecker(logger.NewNop(), time.Minute, "")
	c.RegisterProcessCheck(0)
	c.RunChecks(context.Background())

	proc := c.GetStatus()["process"]
	require.NotNil(t, proc)
	assert.Equal(t, StatusUp, proc.Status)
	assert.Contains(t, proc.Description, "memory")
}
