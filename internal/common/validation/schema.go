package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// JSONSchema describes the shape of a flow input.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Pattern     *string   `json:"pattern,omitempty"`
	Format      string    `json:"format,omitempty"` // "email"
	MinLength   *int      `json:"minLength,omitempty"`
	MaxLength   *int      `json:"maxLength,omitempty"`
	Items       *Property `json:"items,omitempty"`

	// Label is used in user-facing messages instead of the field key.
	Label string `json:"-"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates input against the schema. Empty strings count as
// missing for required fields.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errs := []ValidationError{}

	for _, field := range schema.Required {
		v, exists := input[field]
		if !exists || v == nil || v == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s is required", labelOf(field, schema.Properties[field])),
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	fields := make([]string, 0, len(input))
	for field := range input {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := input[field]
		prop, exists := schema.Properties[field]
		if !exists {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{Field: field, Message: "field not allowed in schema", Code: "EXTRA_FIELD"})
			}
			continue
		}
		if value == nil || value == "" {
			continue
		}
		errs = append(errs, validateField(field, value, prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateStruct converts v to a map through its json tags and validates it.
func ValidateStruct(v interface{}, schema JSONSchema) (*ValidationResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("input is not an object: %w", err)
	}
	return ValidateInput(m, schema), nil
}

func labelOf(field string, prop Property) string {
	if prop.Label != "" {
		return prop.Label
	}
	return field
}

func validateField(field string, value interface{}, prop Property) []ValidationError {
	if err := validateType(value, prop.Type); err != nil {
		return []ValidationError{{Field: field, Message: err.Error(), Code: "INVALID_TYPE"}}
	}

	label := labelOf(field, prop)
	var errs []ValidationError
	add := func(code, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	switch v := value.(type) {
	case string:
		if prop.MinLength != nil && len(v) < *prop.MinLength {
			add("MIN_LENGTH_VIOLATION", "%s must be at least %d characters", label, *prop.MinLength)
		}
		if prop.MaxLength != nil && len(v) > *prop.MaxLength {
			add("MAX_LENGTH_VIOLATION", "%s must be at most %d characters", label, *prop.MaxLength)
		}
		if prop.Pattern != nil {
			if matched, err := regexp.MatchString(*prop.Pattern, v); err != nil || !matched {
				add("PATTERN_MISMATCH", "%s has an invalid format", label)
			}
		}
		if prop.Format == "email" && !ValidateEmail(v) {
			add("INVALID_EMAIL", "%s is not a valid email address", label)
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, v) {
			add("INVALID_ENUM_VALUE", "%s must be one of %s", label, strings.Join(prop.Enum, ", "))
		}
	case float64:
		if prop.Minimum != nil && v < *prop.Minimum {
			add("MINIMUM_VIOLATION", "%s must be at least %v", label, *prop.Minimum)
		}
		if prop.Maximum != nil && v > *prop.Maximum {
			add("MAXIMUM_VIOLATION", "%s must be at most %v", label, *prop.Maximum)
		}
	case []interface{}:
		if prop.Items != nil {
			for i, item := range v {
				errs = append(errs, validateField(fmt.Sprintf("%s[%d]", field, i), item, *prop.Items)...)
			}
		}
	}
	return errs
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		switch value.(type) {
		case float64, int, int32, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = err.Message
	}
	return messages
}

// FirstError returns the first message, or "".
func (vr *ValidationResult) FirstError() string {
	if len(vr.Errors) == 0 {
		return ""
	}
	return vr.Errors[0].Message
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IntPtr(i int) *int {
	return &i
}

func FloatPtr(f float64) *float64 {
	return &f
}

func StrPtr(s string) *string {
	return &s
}
