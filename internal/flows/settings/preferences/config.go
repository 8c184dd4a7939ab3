package preferences

import "fmt"

type Config struct {
	DefaultTheme    string `mapstructure:"default_theme"`
	DefaultLanguage string `mapstructure:"default_language"`
	// MaxAvatarBytes bounds the image file read by SetAvatar.
	MaxAvatarBytes int64 `mapstructure:"max_avatar_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		DefaultTheme:    ThemeLight,
		DefaultLanguage: LanguageVietnamese,
		MaxAvatarBytes:  2 << 20,
	}
}

func (c *Config) Validate() error {
	if !contains(Themes, c.DefaultTheme) {
		return fmt.Errorf("default_theme must be one of %v", Themes)
	}
	if !contains(Languages, c.DefaultLanguage) {
		return fmt.Errorf("default_language must be one of %v", Languages)
	}
	if c.MaxAvatarBytes <= 0 {
		return fmt.Errorf("max_avatar_bytes must be positive")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
