package database

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sql.Open does not dial, so pool configuration and stats are observable
// without a running server.
func newIdleDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("postgres", "host=localhost dbname=stagedoor sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{sqlDB}
}

func TestGetPoolStats(t *testing.T) {
	db := newIdleDB(t)
	db.SetMaxOpenConns(50)

	stats := db.GetPoolStats()
	assert.Equal(t, 50, stats.MaxOpenConns)
	assert.Zero(t, stats.InUse)
	assert.Zero(t, stats.OpenConns)
}
