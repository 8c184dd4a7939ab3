package preferences

import "banking-client/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"theme": {
				Type:  "string",
				Label: "Theme",
				Enum:  Themes,
			},
			"language": {
				Type:  "string",
				Label: "Language",
				Enum:  Languages,
			},
			"notificationSound": {
				Type:  "boolean",
				Label: "Notification sound",
			},
		},
		AdditionalProperties: false,
	}
}
