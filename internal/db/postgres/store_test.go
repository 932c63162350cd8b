package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	logpkg "github.com/kailas-cloud/chronik/internal/logger"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host:     "db.internal",
		Port:     5432,
		User:     "chronik",
		Password: `p@ss word's\x`,
		DBName:   "chronik",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		`host=db.internal port=5432 user=chronik password='p@ss word\'s\\x' dbname=chronik sslmode=disable`,
		cfg.DSN())
}

func TestConfig_DSN_SkipsEmpty(t *testing.T) {
	cfg := Config{Host: "localhost", DBName: "chronik"}
	assert.Equal(t, "host=localhost dbname=chronik", cfg.DSN())
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(Config{DBName: "chronik"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host")

	_, err = NewStore(Config{Host: "localhost"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbname")
}

func TestParseGormLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"error":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
		"":       gormlogger.Warn,
		"bogus":  gormlogger.Warn,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseGormLevel(in), "level %q", in)
	}
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func trace(ctx context.Context, l gormlogger.Interface, elapsed time.Duration, err error) {
	l.Trace(ctx, time.Now().Add(-elapsed), func() (string, int64) {
		return "SELECT 1", 1
	}, err)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("error", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		trace(ctx, newGormLogger(base, "warn", time.Second), 0, errors.New("boom"))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
		assert.Equal(t, "database query error", logs.All()[0].Message)
	})

	t.Run("cancelled query is debug", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		trace(ctx, newGormLogger(base, "warn", time.Second), 0, context.DeadlineExceeded)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	})

	t.Run("slow", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		trace(ctx, newGormLogger(base, "warn", 10*time.Millisecond), time.Second, nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "slow SQL query", logs.All()[0].Message)
	})

	t.Run("fast query quiet at warn", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		trace(ctx, newGormLogger(base, "warn", time.Second), 0, nil)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("fast query logged at info", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		trace(ctx, newGormLogger(base, "info", time.Second), 0, nil)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("silent", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		trace(ctx, newGormLogger(base, "silent", time.Second), time.Second, errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("LogMode overrides", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		l := newGormLogger(base, "info", time.Second).LogMode(gormlogger.Silent)
		trace(ctx, l, 0, errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})
}

func TestGormLogger_PrefersRequestLogger(t *testing.T) {
	base, baseLogs := observed(zapcore.DebugLevel)
	req, reqLogs := observed(zapcore.DebugLevel)
	ctx := logpkg.ContextWithLogger(context.Background(), req)

	trace(ctx, newGormLogger(base, "warn", time.Second), 0, errors.New("boom"))

	assert.Equal(t, 0, baseLogs.Len())
	assert.Equal(t, 1, reqLogs.Len())
}
