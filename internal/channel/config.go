package channel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"banking-client/internal/common/config"
)

type Config struct {
	BrokerURL        string        `mapstructure:"broker_url"`
	TopicPrefix      string        `mapstructure:"topic_prefix"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	HeartBeat        string        `mapstructure:"heart_beat"`
}

func DefaultConfig() *Config {
	return &Config{
		BrokerURL:        config.DefaultBrokerURL,
		TopicPrefix:      "/queue/notifications/",
		ReconnectDelay:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		HeartBeat:        "10000,10000",
	}
}

// FromConfig converts the loaded channel section.
func FromConfig(cfg config.ChannelConfig) *Config {
	c := DefaultConfig()
	if cfg.BrokerURL != "" {
		c.BrokerURL = cfg.BrokerURL
	}
	if cfg.TopicPrefix != "" {
		c.TopicPrefix = cfg.TopicPrefix
	}
	if cfg.ReconnectDelay > 0 {
		c.ReconnectDelay = config.GetDuration(cfg.ReconnectDelay)
	}
	if cfg.HandshakeTimeout > 0 {
		c.HandshakeTimeout = config.GetDuration(cfg.HandshakeTimeout)
	}
	if cfg.HeartBeat != "" {
		c.HeartBeat = cfg.HeartBeat
	}
	return c
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BrokerURL, "ws://") && !strings.HasPrefix(c.BrokerURL, "wss://") {
		return fmt.Errorf("broker_url must be a ws(s) URL")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("topic_prefix is required")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect_delay must be positive")
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake_timeout must be positive")
	}
	if _, _, err := parseHeartBeat(c.HeartBeat); err != nil {
		return err
	}
	return nil
}

// Topic is the destination for one account's notifications.
func (c *Config) Topic(accountNumber string) string {
	return c.TopicPrefix + accountNumber
}

// parseHeartBeat reads a STOMP "cx,cy" heart-beat value in milliseconds.
func parseHeartBeat(v string) (time.Duration, time.Duration, error) {
	if v == "" {
		return 0, 0, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("heart_beat must look like \"10000,10000\", got %q", v)
	}
	var out [2]time.Duration
	for i, p := range parts {
		ms, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || ms < 0 {
			return 0, 0, fmt.Errorf("invalid heart_beat value %q", v)
		}
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out[0], out[1], nil
}
