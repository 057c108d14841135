package remotedb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// gormLogger forwards GORM logs to slog.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
}

func newGormLogger(l *slog.Logger) logger.Interface {
	level := logger.Warn
	if l.Enabled(context.Background(), slog.LevelDebug) {
		level = logger.Info
	}

	return &gormLogger{log: l, level: level}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{log: l.log, level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) &&
		l.level >= logger.Error:
		sql, rows := fc()
		l.log.ErrorContext(ctx, "gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	case elapsed > slowQuery && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.WarnContext(ctx, "slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.DebugContext(ctx, "gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}
