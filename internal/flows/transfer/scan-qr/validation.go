package scanqr

import "banking-client/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"imagePath"},
		Properties: map[string]validation.Property{
			"imagePath": {
				Type:        "string",
				Description: "Path of the image holding the QR code",
				Label:       "Image",
			},
			"ownAccountNumber": {
				Type:        "string",
				Description: "Account of the signed-in user",
			},
		},
		AdditionalProperties: false,
	}
}
