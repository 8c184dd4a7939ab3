package sendtransfer

import (
	"fmt"
	"strings"

	"banking-client/internal/common/config"
	"banking-client/internal/models"
)

type Config struct {
	CaptchaLength   int    `mapstructure:"captcha_length"`
	CaptchaAlphabet string `mapstructure:"captcha_alphabet"`
	TransactionType string `mapstructure:"transaction_type"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

func DefaultConfig() *Config {
	return &Config{
		CaptchaLength:   6,
		CaptchaAlphabet: "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		TransactionType: models.TransactionTypeTransfer,
		DefaultCurrency: "VND",
	}
}

// FromConfig converts the loaded transfer section.
func FromConfig(cfg config.TransferConfig) *Config {
	c := DefaultConfig()
	if cfg.CaptchaLength > 0 {
		c.CaptchaLength = cfg.CaptchaLength
	}
	if cfg.CaptchaAlphabet != "" {
		c.CaptchaAlphabet = cfg.CaptchaAlphabet
	}
	if cfg.TransactionType != "" {
		c.TransactionType = cfg.TransactionType
	}
	if cfg.DefaultCurrency != "" {
		c.DefaultCurrency = cfg.DefaultCurrency
	}
	return c
}

func (c *Config) Validate() error {
	if c.CaptchaLength < 4 {
		return fmt.Errorf("captcha_length must be at least 4")
	}
	if c.CaptchaAlphabet == "" || strings.ToUpper(c.CaptchaAlphabet) != c.CaptchaAlphabet {
		return fmt.Errorf("captcha_alphabet must be non-empty and upper case")
	}
	if c.TransactionType == "" {
		return fmt.Errorf("transaction_type is required")
	}
	if c.DefaultCurrency == "" {
		return fmt.Errorf("default_currency is required")
	}
	return nil
}
