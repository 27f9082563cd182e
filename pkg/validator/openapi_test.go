package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-sentiment/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../api/openapi.yaml"

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidator(schemaPath)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.Version())

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(v.Middleware())
	r.POST("/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/unlisted", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestOpenAPIValidatorAcceptsDocumentedRequest(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(`{"authorId":"a","text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestOpenAPIValidatorRejectsWrongType(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(`{"authorId":"a","text":42}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeValidation)
}

func TestOpenAPIValidatorSkipsUnknownPaths(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unlisted", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenAPIValidatorMissingFile(t *testing.T) {
	_, err := NewOpenAPIValidator("does-not-exist.yaml")
	assert.Error(t, err)
}
