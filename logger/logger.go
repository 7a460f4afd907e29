// Package logger provides structured logging for Portico.
//
// This package wraps Uber's zap logger to provide high-performance,
// structured logging with configurable log levels. The logger is returned
// to the caller and passed by dependency injection so tests can substitute
// their own instance; there is no package-level global.
//
// # Usage
//
//	log, err := logger.New("debug")
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("tenant resolved",
//	    zap.String("subdomain", sub),
//	    zap.String("tenant_id", rec.ID),
//	)
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger at the given level.
// An unparseable level falls back to info.
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
