package internal

import (
	"context"
	"fmt"
	"time"
	"webpay/entity"
	"webpay/services"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logWriteTimeout = 5 * time.Second

// Logger implements services.LogHandler on top of zap. When a database is set,
// info and above are also stored in the payment_log collection.
type Logger struct {
	category string
	zap      *zap.Logger
	database services.Database
}

func NewLogger(category string, debug bool, database services.Database) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return newLogger(logger, category, database)
}

func newLogger(logger *zap.Logger, category string, database services.Database) *Logger {
	return &Logger{
		category: category,
		zap:      logger.With(zap.String("category", category)),
		database: database,
	}
}

func (l *Logger) Debug(text string) {
	l.zap.Debug(text)
}

func (l *Logger) Info(text string) {
	l.zap.Info(text)
	l.store(zapcore.InfoLevel, text, nil)
}

func (l *Logger) Warn(text string) {
	l.zap.Warn(text)
	l.store(zapcore.WarnLevel, text, nil)
}

func (l *Logger) Error(text string, err error) {
	l.zap.Error(text, zap.Error(err))
	l.store(zapcore.ErrorLevel, text, err)
}

// Sync flushes buffered zap output.
func (l *Logger) Sync() {
	_ = l.zap.Sync()
}

func (l *Logger) store(level zapcore.Level, text string, err error) {
	if l.database == nil {
		return
	}
	message := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level.String(),
		Category: l.category,
		Text:     text,
	}
	if err != nil {
		message.Error = err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()
	if e := l.database.WriteLogMessage(ctx, message); e != nil {
		l.zap.Warn("write log message", zap.Error(e))
	}
}

// secret masks tokens and credentials before they reach a log line.
func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
