package validator

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"chat-sentiment/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests against an OpenAPI document
// It is immutable after construction and safe for concurrent use.
type OpenAPIValidator struct {
	swagger *openapi3.T
	router  routers.Router
}

// NewOpenAPIValidator creates a new OpenAPI validator
func NewOpenAPIValidator(schemaPath string) (*OpenAPIValidator, error) {
	swagger, router, err := load(schemaPath)
	if err != nil {
		return nil, err
	}

	return &OpenAPIValidator{
		swagger: swagger,
		router:  router,
	}, nil
}

func load(path string) (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OpenAPI schema from %s: %w", path, err)
	}

	if err := swagger.Validate(loader.Context); err != nil {
		return nil, nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	router, err := gorillamux.NewRouter(swagger)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}
	return swagger, router, nil
}

// Version reports the info.version of the loaded document.
func (v *OpenAPIValidator) Version() string {
	return v.swagger.Info.Version
}

// Middleware rejects requests that do not match the document with a
// VALIDATION_ERROR. Paths the document does not describe pass through.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				_ = c.Error(errors.NewPayloadTooLargeError(tooLarge.Limit))
			} else {
				_ = c.Error(errors.NewValidationError(fmt.Sprintf("Invalid request: %v", err)))
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
