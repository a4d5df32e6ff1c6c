package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/plinth-io/plinth/pkg/log"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// sqlLogger routes gorm's log output onto the shared zap logger. It is only
// installed when SQL output is enabled, so it carries a single knob: the
// slow-query threshold. record-not-found errors are expected control flow
// for the repositories and never logged as failures.
type sqlLogger struct {
	slowThreshold time.Duration
	level         logger.LogLevel
}

var (
	sqlZap     *zap.SugaredLogger
	sqlZapOnce sync.Once
)

func sqlLog() *zap.SugaredLogger {
	sqlZapOnce.Do(func() {
		sqlZap = log.GetLogger().Desugar().WithOptions(zap.AddCallerSkip(2)).Sugar()
	})
	return sqlZap
}

func NewSQLLogger(slowThreshold time.Duration) logger.Interface {
	return &sqlLogger{slowThreshold: slowThreshold, level: logger.Info}
}

func (l *sqlLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *sqlLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		sqlLog().Infof(msg, data...)
	}
}

func (l *sqlLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		sqlLog().Warnf(msg, data...)
	}
}

func (l *sqlLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		sqlLog().Errorf(msg, data...)
	}
}

func (l *sqlLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, logger.ErrRecordNotFound):
		sqlLog().Errorw("sql failed", "sql", sql, "rows", rows, "elapsed", elapsed.Seconds(), "error", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		sqlLog().Warnw("slow sql", "sql", sql, "rows", rows, "elapsed", elapsed.Seconds())
	case l.level >= logger.Info:
		sqlLog().Debugw("sql", "sql", sql, "rows", rows, "elapsed", elapsed.Seconds())
	}
}
