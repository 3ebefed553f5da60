// Package logger builds the service's zap loggers.
package logger

import "go.uber.org/zap"

// New creates a zap logger appropriate for the given environment:
// JSON production logging everywhere except development, which gets the
// human-readable console encoder.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNamed creates an environment-appropriate logger named after the service.
func NewNamed(env, service string) (*zap.Logger, error) {
	log, err := New(env)
	if err != nil {
		return nil, err
	}
	return log.Named(service), nil
}
