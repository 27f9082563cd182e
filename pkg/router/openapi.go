package router

import (
	"os"
	"path/filepath"

	"chat-sentiment/backend/pkg/validator"
)

// AddOpenAPIValidation validates API requests against the schema and serves the schema file.
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.Error("Failed to initialize OpenAPI validator", "error", err)
		return
	}

	r.api.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath, "version", v.Version())

	schemaFile := filepath.Base(schemaPath)
	r.Engine.StaticFile("/api/docs/"+schemaFile, schemaPath)
	r.Logger.Info("OpenAPI schema available at", "url", "/api/docs/"+schemaFile)
}
