package createaccount

import (
	"banking-client/internal/common/validation"
	"banking-client/internal/models"
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"accountName", "accountType", "currency"},
		Properties: map[string]validation.Property{
			"accountName": {
				Type:        "string",
				Description: "Account holder name",
				Label:       "Account name",
				MaxLength:   validation.IntPtr(100),
			},
			"accountType": {
				Type:  "string",
				Label: "Account type",
				Enum:  models.AccountTypes,
			},
			"currency": {
				Type:  "string",
				Label: "Currency",
				Enum:  models.Currencies,
			},
			"initialDeposit": {
				Type:    "number",
				Label:   "Initial deposit",
				Minimum: validation.FloatPtr(0),
			},
		},
		AdditionalProperties: false,
	}
}
