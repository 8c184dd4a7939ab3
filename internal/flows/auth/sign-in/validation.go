package signin

import "banking-client/internal/common/validation"

func GetInputSchema(cfg *Config) validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"username", "password"},
		Properties: map[string]validation.Property{
			"username": {
				Type:        "string",
				Description: "Login name",
				Label:       "Username",
				MaxLength:   validation.IntPtr(cfg.UsernameMaxLength),
			},
			"password": {
				Type:        "string",
				Description: "Account password",
				Label:       "Password",
			},
		},
		AdditionalProperties: false,
	}
}
