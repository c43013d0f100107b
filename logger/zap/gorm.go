package zap

import (
	"context"
	"time"

	"github.com/forbearing/jvspatial/logger"
	"go.uber.org/zap"
	gorml "gorm.io/gorm/logger"
)

// slowQueryThreshold marks a sqlstore query as slow; unlike the
// teacher's config.App.Database.SlowQueryThreshold this isn't
// user-configurable, since storage/sqlstore is one interchangeable
// backend among three rather than the module's sole persistence layer.
const slowQueryThreshold = 200 * time.Millisecond

// GormLogger implements gorm logger.Interface, backing storage/sqlstore.
type GormLogger struct{ l logger.Logger }

var _ gorml.Interface = (*GormLogger)(nil)

func (g *GormLogger) LogMode(gorml.LogLevel) gorml.Interface           { return g }
func (g *GormLogger) Info(_ context.Context, str string, args ...any)  { g.l.Infow(str, args) }
func (g *GormLogger) Warn(_ context.Context, str string, args ...any)  { g.l.Warnw(str, args) }
func (g *GormLogger) Error(_ context.Context, str string, args ...any) { g.l.Errorw(str, args) }
func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil:
		g.l.Errorz("", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > slowQueryThreshold:
		g.l.Warnz("slow SQL detected", zap.String("sql", sql), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows))
	default:
		g.l.Infoz("sql executed", zap.String("sql", sql), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows))
	}
}
