package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestZapLoggerTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newLogger(zap.New(core))
	fc := func() (string, int64) { return `SELECT 1`, 1 }

	// Not-found is an expected outcome, not an error.
	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("Query failed").Len())

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Equal(t, 1, logs.FilterMessage("Slow query").Len())

	l.LogMode(gormlogger.Info).Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 1, logs.FilterMessage("Query").Len())

	l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("hidden"))
	assert.Equal(t, 1, logs.FilterMessage("Query failed").Len())
}
