// Package logging builds the service's zap logger.
//
// Two modes are supported:
//   - Production: JSON lines for log shippers
//   - Development: colored console output
//
// Components take a *zap.Logger through their constructors; the wrapper
// here only owns construction and flushing.
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
