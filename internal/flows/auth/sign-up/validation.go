package signup

import "banking-client/internal/common/validation"

func GetInputSchema(cfg *Config) validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"username", "email", "password", "confirmPassword"},
		Properties: map[string]validation.Property{
			"username": {
				Type:      "string",
				Label:     "Username",
				MaxLength: validation.IntPtr(50),
			},
			"email": {
				Type:   "string",
				Label:  "Email",
				Format: "email",
			},
			"password": {
				Type:      "string",
				Label:     "Password",
				MinLength: validation.IntPtr(cfg.MinPasswordLength),
			},
			"confirmPassword": {
				Type:  "string",
				Label: "Password confirmation",
			},
		},
		AdditionalProperties: false,
	}
}
