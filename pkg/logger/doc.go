// Package logger provides structured logging with configurable log levels.
// It wraps go.uber.org/zap and selects a JSON or console encoder based on
// the runtime environment.
package logger
