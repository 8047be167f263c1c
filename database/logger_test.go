package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func bufferedLogger(slow time.Duration) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(slow)
	l.log = zerolog.New(&buf).Level(zerolog.DebugLevel)
	return l, &buf
}

func TestLoggerTrace(t *testing.T) {
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("errors are logged", func(t *testing.T) {
		l, buf := bufferedLogger(time.Second)
		l.Trace(ctx, time.Now(), query, errors.New("boom"))
		assert.Contains(t, buf.String(), `"message":"Query failed"`)
		assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		l, buf := bufferedLogger(time.Second)
		l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("slow queries warn", func(t *testing.T) {
		l, buf := bufferedLogger(time.Millisecond)
		l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), `"message":"Slow query"`)
	})

	t.Run("fast queries only at info mode", func(t *testing.T) {
		l, buf := bufferedLogger(time.Second)
		l.Trace(ctx, time.Now(), query, nil)
		assert.Empty(t, buf.String())

		l.LogMode(logger.Info).Trace(ctx, time.Now(), query, nil)
		assert.Contains(t, buf.String(), `"message":"Query"`)
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		l, buf := bufferedLogger(time.Millisecond)
		l.LogMode(logger.Silent).Trace(ctx, time.Now().Add(-time.Second), query, errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}
