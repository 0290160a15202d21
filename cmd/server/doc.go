// Package main is the entry point for the TalentScout backend server.
//
// The server hosts the recruiter agent API and the realtime WebSocket
// endpoint the web app subscribes to for streamed agent output.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
