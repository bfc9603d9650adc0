package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создает zap логгер в зависимости от окружения.
// "local" и "dev" используют человекочитаемый вывод, все остальное - production JSON.
func New(env string) *zap.Logger {
	var cfg zap.Config

	switch env {
	case "local", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		// Логгер обязан существовать - без него сервис не стартует
		panic("failed to build zap logger: " + err.Error())
	}

	return log
}
