package shared

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const devConfig = `{
	// Comments are allowed
	"log_level": "Debug",
	"service_port": 8080,
	"db_file": "bridge.db",
	"post_publics_cap": 50,
	"silos": [
		"twitter", // trailing comma next
	],
}`

func TestConfigFromJSONC(t *testing.T) {
	var cfg Config
	require.NoError(t, deserializeJSONC([]byte(devConfig), &cfg))
	cfg.ApplyDefaults()

	assert.Equal(t, "Debug", cfg.LogLevel)
	assert.Equal(t, uint(8080), cfg.ServicePort)
	assert.Equal(t, "bridge.db", cfg.DbFile)
	assert.Equal(t, 50, cfg.PostPublicsCap)
	assert.Equal(t, defaultResolvedObjectIdsCap, cfg.ResolvedObjectIdsCap)
	assert.Equal(t, defaultResponseHistoryCap, cfg.ResponseHistoryCap)
	assert.Equal(t, defaultMaxParallelTasks, cfg.MaxParallelTasks)
	assert.Equal(t, []string{"twitter"}, cfg.Silos)
}

func TestConfigBadJSONC(t *testing.T) {
	var cfg Config
	assert.Error(t, deserializeJSONC([]byte(`{"log_level": `), &cfg))
}
