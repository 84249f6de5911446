package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepInterval(t *testing.T) {
	tests := map[string]struct {
		ttl  time.Duration
		want time.Duration
	}{
		"half of ttl":      {ttl: 30 * time.Minute, want: 15 * time.Minute},
		"one nanosecond":   {ttl: time.Nanosecond, want: minSweepInterval},
		"half below floor": {ttl: time.Second, want: minSweepInterval},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, sweepInterval(tt.ttl))
		})
	}
}

func TestLoadConfig_SessionTTL(t *testing.T) {
	t.Setenv("RATE_SESSION_TTL", "1ns")
	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Nanosecond, config.SessionTTL)
	assert.Equal(t, minSweepInterval, sweepInterval(config.SessionTTL))

	t.Setenv("RATE_SESSION_TTL", "0s")
	_, err = loadConfig()
	assert.Error(t, err)
}
