// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Channel  ChannelConfig  `mapstructure:"channel"`
	Sound    SoundConfig    `mapstructure:"sound"`
	Storage  StorageConfig  `mapstructure:"storage"`
	QR       QRConfig       `mapstructure:"qr"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	Timeout     int      `mapstructure:"timeout"` // milliseconds
	PublicPaths []string `mapstructure:"public_paths"`
	SignInPath  string   `mapstructure:"signin_path"`
}

// ChannelConfig configures the STOMP push channel.
type ChannelConfig struct {
	BrokerURL        string `mapstructure:"broker_url"`
	TopicPrefix      string `mapstructure:"topic_prefix"`
	ReconnectDelay   int    `mapstructure:"reconnect_delay"`   // milliseconds
	HandshakeTimeout int    `mapstructure:"handshake_timeout"` // milliseconds
	HeartBeat        string `mapstructure:"heart_beat"`
}

// SoundConfig selects the audio cue played for streamed notifications.
// With Command empty the terminal bell is used.
type SoundConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

type StorageConfig struct {
	Driver    string      `mapstructure:"driver"` // memory | redis
	KeyPrefix string      `mapstructure:"key_prefix"`
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GetAddress returns the redis address or an empty string.
func (r RedisConfig) GetAddress() string {
	return r.Address
}

type QRConfig struct {
	BankCode    string `mapstructure:"bank_code"`
	ScanTimeout int    `mapstructure:"scan_timeout"` // milliseconds
}

type TransferConfig struct {
	CaptchaLength   int    `mapstructure:"captcha_length"`
	CaptchaAlphabet string `mapstructure:"captcha_alphabet"`
	TransactionType string `mapstructure:"transaction_type"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// TopicFor returns the per-account destination the channel subscribes to.
func (c ChannelConfig) TopicFor(accountNumber string) string {
	return fmt.Sprintf("%s%s", c.TopicPrefix, accountNumber)
}
