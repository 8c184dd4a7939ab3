package createaccount

import (
	"fmt"

	"banking-client/internal/models"
)

type Config struct {
	DefaultAccountType models.AccountType `mapstructure:"default_account_type"`
	DefaultCurrency    string             `mapstructure:"default_currency"`
}

func DefaultConfig() *Config {
	return &Config{
		DefaultAccountType: models.AccountTypeSavings,
		DefaultCurrency:    "VND",
	}
}

func (c *Config) Validate() error {
	if c.DefaultAccountType == "" {
		return fmt.Errorf("default_account_type is required")
	}
	if c.DefaultCurrency == "" {
		return fmt.Errorf("default_currency is required")
	}
	return nil
}
