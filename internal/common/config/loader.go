// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL   = "https://banking.duchuysaidepchieu.id.vn"
	DefaultBrokerURL = "wss://banking.duchuysaidepchieu.id.vn/ws/websocket"
	DefaultBankCode  = "HUY_BANK_CORE"
)

// DefaultPublicPaths are the auth endpoint fragments that never carry a bearer token.
var DefaultPublicPaths = []string{"/auth/signin", "/auth/login", "/auth/signup", "/auth/register"}

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("BANK_API_BASE_URL"); val != "" && cfg.API.BaseURL == DefaultBaseURL {
		cfg.API.BaseURL = val
	}
	if val := os.Getenv("BANK_BROKER_URL"); val != "" && cfg.Channel.BrokerURL == DefaultBrokerURL {
		cfg.Channel.BrokerURL = val
	}
	if cfg.Storage.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Storage.Redis.Address = val
		}
	}
	if cfg.Storage.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Storage.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bank-client"
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10000
	}
	if len(cfg.API.PublicPaths) == 0 {
		cfg.API.PublicPaths = append([]string(nil), DefaultPublicPaths...)
	}
	if cfg.API.SignInPath == "" {
		cfg.API.SignInPath = "/auth/signin"
	}

	if cfg.Channel.BrokerURL == "" {
		cfg.Channel.BrokerURL = DefaultBrokerURL
	}
	if cfg.Channel.TopicPrefix == "" {
		cfg.Channel.TopicPrefix = "/queue/notifications/"
	}
	if cfg.Channel.ReconnectDelay == 0 {
		cfg.Channel.ReconnectDelay = 5000
	}
	if cfg.Channel.HandshakeTimeout == 0 {
		cfg.Channel.HandshakeTimeout = 10000
	}
	if cfg.Channel.HeartBeat == "" {
		cfg.Channel.HeartBeat = "10000,10000"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "bank-client:"
	}

	if cfg.QR.BankCode == "" {
		cfg.QR.BankCode = DefaultBankCode
	}
	if cfg.QR.ScanTimeout == 0 {
		cfg.QR.ScanTimeout = 5000
	}

	if cfg.Transfer.CaptchaLength == 0 {
		cfg.Transfer.CaptchaLength = 6
	}
	if cfg.Transfer.CaptchaAlphabet == "" {
		cfg.Transfer.CaptchaAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	}
	if cfg.Transfer.TransactionType == "" {
		cfg.Transfer.TransactionType = "TRANSFER"
	}
	if cfg.Transfer.DefaultCurrency == "" {
		cfg.Transfer.DefaultCurrency = "VND"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "bank-client.log"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL")
	}
	if !strings.HasPrefix(cfg.Channel.BrokerURL, "ws://") && !strings.HasPrefix(cfg.Channel.BrokerURL, "wss://") {
		return fmt.Errorf("channel.broker_url must be a ws(s) URL")
	}
	if cfg.API.Timeout < 0 || cfg.Channel.ReconnectDelay < 0 || cfg.QR.ScanTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	switch cfg.Storage.Driver {
	case "memory":
	case "redis":
		if cfg.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address is required when storage.driver is redis")
		}
	default:
		return fmt.Errorf("storage.driver must be memory or redis, got %q", cfg.Storage.Driver)
	}

	if cfg.Transfer.CaptchaLength < 4 {
		return fmt.Errorf("transfer.captcha_length must be at least 4")
	}
	return nil
}

// Default returns a configuration with every default applied, without reading files.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
