package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

func init() {
	if err := Init(os.Getenv("ENVIRONMENT")); err != nil {
		sugar = zap.NewNop().Sugar()
	}
}

// Init rebuilds the process logger for the given environment. Production
// emits JSON at info level; anything else uses the console development
// config with debug enabled.
func Init(environment string) error {
	var cfg zap.Config
	switch strings.ToLower(environment) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	sugar = zapLogger.Sugar()
	return nil
}

func Sync() {
	_ = sugar.Sync()
}

func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	sugar.Fatalf(format, v...)
}

// With returns a structured child logger for call sites that want key/value
// fields instead of printf formatting.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return sugar.With(keysAndValues...)
}

// Helper for moderation audit logs
func LogModerationDecision(pendingID, outcome, reason string) {
	sugar.Infow("moderation decision", "pending_id", pendingID, "outcome", outcome, "reason", reason)
}
