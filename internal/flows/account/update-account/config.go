package updateaccount

import (
	"fmt"

	"banking-client/internal/router"
)

type Config struct {
	// ReturnView is navigated to after a successful update.
	ReturnView router.View `mapstructure:"return_view"`
}

func DefaultConfig() *Config {
	return &Config{ReturnView: router.Settings}
}

func (c *Config) Validate() error {
	if c.ReturnView == "" {
		return fmt.Errorf("return_view is required")
	}
	return nil
}
