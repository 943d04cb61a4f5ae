// Package logger monta o *zap.Logger da aplicação a partir da configuração.
package logger

import (
	"go.uber.org/zap"

	"github.com/mandacaru/erp-api/internal/config"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zc.Level = level

	if cfg.LogFormat == "console" {
		zc.Encoding = "console"
	} else {
		zc.Encoding = "json"
	}

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return log.With(
		zap.String("service", "mandacaru-erp-api"),
		zap.String("env", cfg.Environment),
	), nil
}
