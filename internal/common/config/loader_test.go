package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "bank-client", cfg.App.Name)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultPublicPaths, cfg.API.PublicPaths)
	assert.Equal(t, "/queue/notifications/", cfg.Channel.TopicPrefix)
	assert.Equal(t, 5000, cfg.Channel.ReconnectDelay)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, DefaultBankCode, cfg.QR.BankCode)
	assert.Equal(t, 6, cfg.Transfer.CaptchaLength)
	assert.NoError(t, validateConfig(cfg))
}

func TestDefault_PublicPathsAreCopied(t *testing.T) {
	cfg := Default()
	cfg.API.PublicPaths[0] = "/changed"

	assert.Equal(t, "/auth/signin", DefaultPublicPaths[0])
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "api scheme", mutate: func(c *Config) { c.API.BaseURL = "ftp://bank" }, wantErr: "api.base_url"},
		{name: "broker scheme", mutate: func(c *Config) { c.Channel.BrokerURL = "https://bank/ws" }, wantErr: "channel.broker_url"},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -1 }, wantErr: "timeouts"},
		{name: "redis without address", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: "storage.redis.address"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "storage.driver"},
		{name: "short captcha", mutate: func(c *Config) { c.Transfer.CaptchaLength = 3 }, wantErr: "captcha_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := validateConfig(cfg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_BANK_URL", "http://localhost:8080")
	path := writeConfig(t, `
app:
  name: teller
api:
  base_url: ${TEST_BANK_URL}
  timeout: 2500
channel:
  broker_url: ws://localhost:8080/ws/websocket
  reconnect_delay: 1000
storage:
  driver: redis
  key_prefix: "t:"
  redis:
    address: localhost:6379
transfer:
  captcha_length: 8
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "teller", cfg.App.Name)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 2500, cfg.API.Timeout)
	assert.Equal(t, "ws://localhost:8080/ws/websocket", cfg.Channel.BrokerURL)
	assert.Equal(t, time.Second, GetDuration(cfg.Channel.ReconnectDelay))
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.GetAddress())
	assert.Equal(t, 8, cfg.Transfer.CaptchaLength)
	assert.Equal(t, "VND", cfg.Transfer.DefaultCurrency, "defaults fill the rest")
}

func TestLoadFromFile_RedisAddressFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "cache:6379")
	path := writeConfig(t, "storage:\n  driver: redis\n")

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Address)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "storage:\n  driver: sqlite\n")
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestChannelConfig_TopicFor(t *testing.T) {
	c := ChannelConfig{TopicPrefix: "/queue/notifications/"}

	assert.Equal(t, "/queue/notifications/1000200030", c.TopicFor("1000200030"))
}
