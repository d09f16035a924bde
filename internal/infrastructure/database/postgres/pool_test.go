package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

func TestPoolConfig(t *testing.T) {
	t.Run("overlays limits", func(t *testing.T) {
		cfg := testDBConfig()
		cfg.MaxConns = 40
		cfg.MinConns = 4
		cfg.ConnMaxLifetime = time.Hour
		cfg.ConnMaxIdleTime = 10 * time.Minute

		pc, err := poolConfig(cfg)
		require.NoError(t, err)
		assert.Equal(t, "db.test", pc.ConnConfig.Host)
		assert.Equal(t, "ratings", pc.ConnConfig.Database)
		assert.EqualValues(t, 40, pc.MaxConns)
		assert.EqualValues(t, 4, pc.MinConns)
		assert.Equal(t, time.Hour, pc.MaxConnLifetime)
		assert.Equal(t, 10*time.Minute, pc.MaxConnIdleTime)
	})

	t.Run("zero values keep pgx defaults", func(t *testing.T) {
		pc, err := poolConfig(testDBConfig())
		require.NoError(t, err)
		assert.Positive(t, pc.MaxConns)
		assert.Zero(t, pc.MinConns)
	})

	t.Run("min above max is ignored", func(t *testing.T) {
		cfg := testDBConfig()
		cfg.MaxConns = 2
		cfg.MinConns = 5
		pc, err := poolConfig(cfg)
		require.NoError(t, err)
		assert.Zero(t, pc.MinConns)
	})

	t.Run("bad port", func(t *testing.T) {
		_, err := poolConfig(config.DatabaseConfig{Host: "db.test", Port: -1, DBName: "x"})
		assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	})
}

//Personal.AI order the ending
