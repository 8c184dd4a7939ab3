package scanqr

import (
	"fmt"
	"time"

	"banking-client/internal/common/config"
)

type Config struct {
	BankCode string        `mapstructure:"bank_code"`
	Timeout  time.Duration `mapstructure:"scan_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		BankCode: config.DefaultBankCode,
		Timeout:  5 * time.Second,
	}
}

// FromConfig converts the loaded qr section.
func FromConfig(cfg config.QRConfig) *Config {
	c := DefaultConfig()
	if cfg.BankCode != "" {
		c.BankCode = cfg.BankCode
	}
	if cfg.ScanTimeout > 0 {
		c.Timeout = config.GetDuration(cfg.ScanTimeout)
	}
	return c
}

func (c *Config) Validate() error {
	if c.BankCode == "" {
		return fmt.Errorf("bank_code is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("scan_timeout must be positive")
	}
	return nil
}
