package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDatabaseReusesConnection(t *testing.T) {
	ctx := context.Background()
	cfg := DatabaseConfig{UseLocalDB: true, SQLitePath: filepath.Join(t.TempDir(), "pool.db"), AutoMigrate: true}
	t.Cleanup(func() {
		poolMutex.Lock()
		if globalPool != nil {
			_ = globalPool.instance.Close()
			globalPool = nil
		}
		poolMutex.Unlock()
	})

	first, err := GetDatabase(ctx, cfg)
	require.NoError(t, err)
	second, err := GetDatabase(ctx, cfg)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "connected", GetConnectionStats()["status"])

	_, err = first.ListTags(ctx)
	require.NoError(t, err)
}

func TestNewDatabaseRequiresDSN(t *testing.T) {
	_, err := NewDatabase(context.Background(), DatabaseConfig{})
	assert.Error(t, err)
}

func TestSchemaDialects(t *testing.T) {
	pg := Schema(dialectPostgres)
	lite := Schema(dialectSQLite)
	assert.Contains(t, pg[0], "TIMESTAMPTZ")
	assert.NotContains(t, lite[0], "TIMESTAMPTZ")
	assert.NotContains(t, lite[0], "{{")
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_OFF"))
}
