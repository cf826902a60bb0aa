// Package httpserver provides the HTTP server exposing the engine's
// observability endpoints with address validation and graceful shutdown.
package httpserver
