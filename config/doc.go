// Package config handles loading and parsing of configuration from YAML
// files and environment variables. It defines the application
// configuration structure including node identity, healthcheck timing,
// bootstrap store settings, and the status server address.
package config
