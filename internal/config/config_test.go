package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "/tmp/chat.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, 50, cfg.HistoryLimit)
	require.Equal(t, 256, cfg.SendQueueSize)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingDatabaseURLIsFatal(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "/tmp/chat.db")
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("MESSAGE_RATE_PER_SEC", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr())
	require.Equal(t, 10, cfg.HistoryLimit)
	require.Equal(t, 2.5, cfg.MessageRatePerSec)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                 "80 80",
		"HISTORY_LIMIT":        "-1",
		"SEND_QUEUE_SIZE":      "0",
		"MESSAGE_RATE_PER_SEC": "0",
		"MESSAGE_BURST":        "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "/tmp/chat.db")
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestAddrBarePort(t *testing.T) {
	cfg := &Config{Port: "9000"}
	require.Equal(t, ":9000", cfg.Addr())

	cfg.Port = ":9000"
	require.Equal(t, ":9000", cfg.Addr())
}
