package database

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	log.Debug().Str("component", "gorm").Msgf(format, args...)
}

// NewLogger routes gorm's SQL log through zerolog. SQL statements are only
// traced at debug level; slow queries and errors are always reported.
func NewLogger(level string) gormlogger.Interface {
	lvl := gormlogger.Warn
	if strings.EqualFold(level, "debug") || strings.EqualFold(level, "trace") {
		lvl = gormlogger.Info
	}
	return gormlogger.New(zerologWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
