package signin

import "fmt"

type Config struct {
	// ClearOnEntry wipes the local store when the sign-in view is entered.
	ClearOnEntry      bool `mapstructure:"clear_on_entry"`
	UsernameMaxLength int  `mapstructure:"username_max_length"`
}

func DefaultConfig() *Config {
	return &Config{
		ClearOnEntry:      true,
		UsernameMaxLength: 50,
	}
}

func (c *Config) Validate() error {
	if c.UsernameMaxLength <= 0 {
		return fmt.Errorf("username_max_length must be positive")
	}
	return nil
}
