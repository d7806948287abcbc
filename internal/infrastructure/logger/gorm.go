package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormLogger routes GORM output through zap. Statements are tagged with the
// request ID carried on the context so SQL can be matched to the HTTP call.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

type GormLoggerOption func(*GormLogger)

// WithSlowThreshold overrides the duration after which a statement is logged
// as slow. Zero disables slow-query warnings.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = d }
}

func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{log: base.Named("gorm"), level: level, slow: defaultSlowQuery}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	l.printf(gormlogger.Info, l.log.Sugar().Infof, msg, data)
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	l.printf(gormlogger.Warn, l.log.Sugar().Warnf, msg, data)
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	l.printf(gormlogger.Error, l.log.Sugar().Errorf, msg, data)
}

func (l *GormLogger) printf(min gormlogger.LogLevel, out func(string, ...any), msg string, data []any) {
	if l.level >= min {
		out(msg, data...)
	}
}

// Trace logs one executed statement. Missing rows are a normal lookup outcome
// for the product and order repositories and are never logged.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	took := time.Since(begin)
	statement, rows := fc()
	fields := []zap.Field{
		zap.String("sql", statement),
		zap.Int64("rows", rows),
		zap.Duration("took", took),
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	if err != nil {
		if l.level >= gormlogger.Error {
			l.log.Error("query failed", append(fields, zap.Error(err))...)
		}
		return
	}
	if l.slow > 0 && took > l.slow && l.level >= gormlogger.Warn {
		l.log.Warn("slow query", append(fields, zap.Duration("threshold", l.slow))...)
		return
	}
	if l.level >= gormlogger.Info {
		l.log.Debug("query", fields...)
	}
}

// MapGormLogLevel derives the GORM level from log.level. Statements are only
// traced when the service runs at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}
