package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv(lookupMap(nil))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := FromEnv(lookupMap(map[string]string{
			AddrEnv:            ":9090",
			WinnersEnv:         "5",
			VerboseEnv:         "true",
			APIBaseEnv:         "http://localhost:1234",
			RequestIntervalEnv: "250ms",
			HTTPTimeoutEnv:     "10s",
			MaxPagesEnv:        "20",
		}))
		require.NoError(t, err)
		assert.Equal(t, Config{
			Addr:            ":9090",
			Winners:         5,
			Verbose:         true,
			APIBase:         "http://localhost:1234",
			RequestInterval: 250 * time.Millisecond,
			HTTPTimeout:     10 * time.Second,
			MaxPages:        20,
		}, cfg)
	})

	invalid := map[string]map[string]string{
		"winners":  {WinnersEnv: "three"},
		"negative": {WinnersEnv: "-1"},
		"pages":    {MaxPagesEnv: "x"},
		"verbose":  {VerboseEnv: "loud"},
		"interval": {RequestIntervalEnv: "soon"},
		"timeout":  {HTTPTimeoutEnv: "-1s"},
	}
	for name, env := range invalid {
		t.Run("invalid "+name, func(t *testing.T) {
			_, err := FromEnv(lookupMap(env))
			assert.Error(t, err)
		})
	}
}
