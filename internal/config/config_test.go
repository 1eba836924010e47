package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "metrics-sink", cfg.ServiceName)
	assert.NotEmpty(t, cfg.InstanceID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.False(t, cfg.StrictTimestamps)
	assert.False(t, cfg.ShipEnabled())
	assert.Equal(t, "raw", cfg.ShipPrefix)
	assert.Equal(t, 5*time.Second, cfg.S3Timeout)
	assert.Equal(t, 1, cfg.S3AppRetries)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"SERVICE_NAME":      "sink-a",
		"LOG_LEVEL":         "debug",
		"LOG_PRETTY":        "true",
		"LOG_SAMPLE_N":      "10",
		"STRICT_TIMESTAMPS": "1",
		"SHIP_BUCKET":       "warehouse",
		"SHIP_PREFIX":       "/metrics/raw/",
		"AWS_REGION":        "eu-west-1",
		"S3_TIMEOUT":        "750ms",
		"S3_APP_RETRIES":    "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sink-a", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, uint32(10), cfg.LogSampleN)
	assert.True(t, cfg.StrictTimestamps)
	assert.True(t, cfg.ShipEnabled())
	assert.Equal(t, "metrics/raw", cfg.ShipPrefix)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, 750*time.Millisecond, cfg.S3Timeout)
	assert.Equal(t, 3, cfg.S3AppRetries)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad bool", map[string]string{"LOG_PRETTY": "yes please"}},
		{"bad int", map[string]string{"LOG_SAMPLE_N": "ten"}},
		{"negative int", map[string]string{"S3_APP_RETRIES": "-1"}},
		{"bad duration", map[string]string{"S3_TIMEOUT": "5 seconds"}},
		{"ship without region", map[string]string{"SHIP_BUCKET": "warehouse"}},
		{"ship with zero retries", map[string]string{
			"SHIP_BUCKET": "warehouse", "AWS_REGION": "us-east-1", "S3_APP_RETRIES": "0",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
