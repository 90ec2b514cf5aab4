package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"), false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Port, c.Port)
	assert.False(t, c.IsProd())
	ttl, err := c.TTL()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, ttl)
}

func TestLoadConfigLayers(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "jwt_secret": "from-file", "database": {"name": "from_file"}}`)
	t.Setenv("GREENMAG_JWT_SECRET", "from-env")
	t.Setenv("GREENMAG_DB_HOST", "db.internal")
	t.Setenv("GREENMAG_TOKEN_TTL", "2h")

	c, err := loadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "from-env", c.JWTSecret)
	assert.Equal(t, "from_file", c.Database.Name)
	assert.Equal(t, "db.internal", c.Database.Host)
	assert.Equal(t, 5432, c.Database.Port)
	ttl, err := c.TTL()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)
	assert.Contains(t, c.Database.ConnectionInfo(), "host=db.internal")
}

func TestLoadConfigProduction(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"), true)
	assert.Error(t, err, "production requires a config file")

	path := writeConfig(t, `{"pepper": "p"}`)
	_, err = loadConfig(path, true)
	assert.Error(t, err, "production refuses the default jwt secret")

	path = writeConfig(t, `{"pepper": "p", "jwt_secret": "s3cret"}`)
	c, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.True(t, c.IsProd())
}

func TestLoadConfigInvalidTTL(t *testing.T) {
	path := writeConfig(t, `{"token_ttl": "forever"}`)
	_, err := loadConfig(path, false)
	assert.Error(t, err)
}
