package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MASTER_DB", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXP_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "master", cfg.Mongo.MasterDB)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3600, cfg.JWT.ExpireSeconds)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")
	t.Setenv("MASTER_DB", "directory")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXP_SECONDS", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "directory", cfg.Mongo.MasterDB)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 120, cfg.JWT.ExpireSeconds)
}
