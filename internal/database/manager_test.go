package database

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewManager_NothingConfigured(t *testing.T) {
	m, err := NewManager(&Config{}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, m.DB)
	assert.Nil(t, m.Redis)
	assert.ErrorIs(t, m.PingDatabase(context.Background()), ErrNotConfigured)
	assert.ErrorIs(t, m.PingRedis(context.Background()), ErrNotConfigured)
	assert.ErrorIs(t, m.Migrate(), ErrNotConfigured)
	assert.NoError(t, m.Close())
}

func TestNewManager_BadRedisURL(t *testing.T) {
	_, err := NewManager(&Config{RedisURL: "not-a-url"}, quietLogger())
	assert.Error(t, err)
}
