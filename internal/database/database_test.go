package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"explorewithme-backend/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	db, err := Open(config.Database{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "ewm.db")})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, "sqlite", db.Dialector.Name())
	assert.NoError(t, sqlDB.Ping())
}

func TestOpenRejectsIncompleteConfig(t *testing.T) {
	_, err := Open(config.Database{Driver: "postgres", Host: "localhost"})
	assert.Error(t, err)

	_, err = Open(config.Database{Driver: "mysql"})
	assert.Error(t, err)
}
