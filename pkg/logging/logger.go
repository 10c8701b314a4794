package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/TuanStark/english-learning-ai-assistant/pkg/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// serviceHook stamps every entry with the owning service name.
type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}

// NewLogger creates a new configured logger instance. Output is JSON by
// default; set LOG_FORMAT=text for human readable local output.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	if os.Getenv("LOG_FORMAT") == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService creates a logger that tags all entries with a
// service field.
func NewLoggerWithService(serviceName string) *logrus.Logger {
	logger := NewLogger()
	logger.AddHook(serviceHook{service: serviceName})
	return logger
}
