// Package middleware provides the HTTP middleware shared by the continuity API.
//
//   - recovery.go: panic recovery
//   - logging.go: structured request logging
//   - body_limit.go: request body size limit
//   - request_id.go: request ID propagation
//
// Every middleware has the shape func(http.Handler) http.Handler, which is
// also mux.MiddlewareFunc, so they chain with router.Use:
//
//	r := mux.NewRouter()
//	r.Use(middleware.PanicRecovery(logger), middleware.RequestID())
package middleware
