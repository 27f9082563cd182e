package router

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	handler := r.Container.Health.Handler()

	// Both paths are served for older deployment probes.
	r.Engine.GET("/health", handler)
	r.Engine.GET("/api/health", handler)
}
