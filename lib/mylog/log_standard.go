package mylog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/MarcGrol/ordermailer/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

var (
	baseLoggerOnce sync.Once
	baseLogger     *zap.Logger
)

func getBaseLogger() *zap.Logger {
	baseLoggerOnce.Do(func() {
		config := zap.NewDevelopmentConfig()
		config.OutputPaths = []string{"stderr"}
		config.DisableStacktrace = true
		logger, err := config.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating zap logger, falling back to nop: %s\n", err)
			logger = zap.NewNop()
		}
		baseLogger = logger
	})
	return baseLogger
}

type standardLogger struct {
	componentName string
	sugar         *zap.SugaredLogger
}

func newStandardLogger(componentName string) Logger {
	return standardLogger{
		componentName: componentName,
		sugar:         getBaseLogger().Named(componentName).Sugar(),
	}
}

func (l standardLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...interface{}) {
	s := l.sugar.With("aggregate", traceLabel, "requestId", mycontext.RequestIDFromContext(ctx))
	switch severity {
	case SeverityDebug:
		s.Debugf(format, a...)
	case SeverityWarn:
		s.Warnf(format, a...)
	case SeverityError:
		s.Errorf(format, a...)
	default:
		s.Infof(format, a...)
	}
}

// Sync flushes buffered entries, call before the process exits.
func Sync() {
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
}
