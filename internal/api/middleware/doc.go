// Package middleware provides the gin middleware for the HTTP API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with credentialed origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - Auth: Session cookie authentication against the session table
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	api := router.Group("/api", auth.RequireUser())
package middleware
