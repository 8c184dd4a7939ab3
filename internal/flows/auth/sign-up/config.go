package signup

import "fmt"

type Config struct {
	MinPasswordLength int      `mapstructure:"min_password_length"`
	Roles             []string `mapstructure:"roles"`
}

func DefaultConfig() *Config {
	return &Config{
		MinPasswordLength: 6,
		Roles:             []string{"user"},
	}
}

func (c *Config) Validate() error {
	if c.MinPasswordLength <= 0 {
		return fmt.Errorf("min_password_length must be positive")
	}
	if len(c.Roles) == 0 {
		return fmt.Errorf("at least one role is required")
	}
	return nil
}
