package internal

import (
	"fmt"
	"os"
	"time"

	"payfast/entity"
	"payfast/services"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogWriter persists log records, usually to the database.
type LogWriter interface {
	WriteLogMessage(data services.Data) error
}

// Logger implements services.LogHandler on top of zap. Info and above are
// also written to the log sink when one is set.
type Logger struct {
	category string
	debug    bool
	sink     LogWriter
	log      *zap.Logger
}

func NewLogger(category string, debug bool, sink LogWriter) *Logger {
	return NewZapLogger(newZap(debug), category, debug, sink)
}

// NewZapLogger wraps an existing zap logger, tests pass zaptest loggers here.
func NewZapLogger(base *zap.Logger, category string, debug bool, sink LogWriter) *Logger {
	return &Logger{
		category: category,
		debug:    debug,
		sink:     sink,
		log:      base.With(zap.String("component", category)),
	}
}

func newZap(debug bool) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	if debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create zap logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func (l *Logger) Debug(text string) {
	if !l.debug {
		return
	}
	l.log.Debug(text)
}

func (l *Logger) Info(text string) {
	l.log.Info(text)
	l.write("info", text, nil)
}

func (l *Logger) Warn(text string) {
	l.log.Warn(text)
	l.write("warn", text, nil)
}

func (l *Logger) Error(text string, err error) {
	l.log.Error(text, zap.Error(err))
	l.write("error", text, err)
}

// Zap exposes the underlying logger for libraries that log through zap.
func (l *Logger) Zap() *zap.Logger {
	return l.log
}

func (l *Logger) Sync() {
	_ = l.log.Sync()
}

func (l *Logger) write(level, text string, err error) {
	if l.sink == nil {
		return
	}
	message := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Text:     text,
	}
	if err != nil {
		message.Error = err.Error()
	}
	if e := l.sink.WriteLogMessage(message); e != nil {
		l.log.Warn("write log message", zap.Error(e))
	}
}
