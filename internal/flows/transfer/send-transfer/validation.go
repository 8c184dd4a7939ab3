package sendtransfer

import "banking-client/internal/common/validation"

func GetInputSchema(cfg *Config) validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"destinationAccountNumber", "amount", "captcha"},
		Properties: map[string]validation.Property{
			"destinationAccountNumber": {
				Type:      "string",
				Label:     "Destination account",
				MaxLength: validation.IntPtr(34),
			},
			"amount": {
				Type:    "number",
				Label:   "Amount",
				Minimum: validation.FloatPtr(0),
			},
			"description": {
				Type:      "string",
				Label:     "Description",
				MaxLength: validation.IntPtr(255),
			},
			"captcha": {
				Type:      "string",
				Label:     "Captcha",
				MaxLength: validation.IntPtr(cfg.CaptchaLength),
			},
		},
		AdditionalProperties: false,
	}
}
