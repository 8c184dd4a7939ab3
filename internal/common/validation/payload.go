package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// PayloadSchema checks external JSON (REST bodies, streamed events, QR
// contents) before it is decoded into models.
type PayloadSchema struct {
	name   string
	schema *gojsonschema.Schema
}

// CompilePayloadSchema compiles a JSON Schema document.
func CompilePayloadSchema(name, schemaJSON string) (*PayloadSchema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &PayloadSchema{name: name, schema: s}, nil
}

func MustCompilePayloadSchema(name, schemaJSON string) *PayloadSchema {
	s, err := CompilePayloadSchema(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

func (p *PayloadSchema) Name() string { return p.name }

// Validate reports whether data is JSON matching the schema.
func (p *PayloadSchema) Validate(data []byte) error {
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%s payload is not valid JSON: %w", p.name, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%s payload validation failed: %s", p.name, strings.Join(errs, "; "))
	}
	return nil
}

const (
	idOrText     = `{"type": ["integer", "string"]}`
	optionalText = `{"type": ["string", "null"]}`
	money        = `{"type": ["number", "string", "null"]}`
	dateTime     = `{"type": ["string", "number", "array", "null"]}`
)

const notification = `{
	"type": "object",
	"minProperties": 1,
	"properties": {
		"id": ` + idOrText + `,
		"description": ` + optionalText + `,
		"transactionReference": ` + optionalText + `,
		"accountNumber": ` + optionalText + `,
		"amount": ` + money + `,
		"balance": ` + money + `,
		"isRead": {"type": ["boolean", "null"]},
		"transactionDate": ` + dateTime + `
	}
}`

// NotificationEventSchema covers one streamed notification.
var NotificationEventSchema = MustCompilePayloadSchema("notification", notification)

// NotificationListSchema covers the notification list endpoint; every
// entry is held to the streamed notification shape.
var NotificationListSchema = MustCompilePayloadSchema("notification list", `{
	"type": ["array", "null"],
	"items": `+notification+`
}`)

var SignInResponseSchema = MustCompilePayloadSchema("sign-in response", `{
	"type": "object",
	"required": ["id", "jwtToken"],
	"properties": {
		"id": `+idOrText+`,
		"jwtToken": {"type": "string", "minLength": 1},
		"username": {"type": "string"},
		"roles": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`)

var AccountSchema = MustCompilePayloadSchema("account", `{
	"type": "object",
	"required": ["accountNumber"],
	"properties": {
		"accountNumber": {"type": "string", "minLength": 1},
		"accountName": {"type": ["string", "null"]},
		"balance": {"type": ["number", "string", "null"]},
		"currency": {"type": ["string", "null"]},
		"qrCode": {"type": ["string", "null"]}
	}
}`)

var TransactionReceiptSchema = MustCompilePayloadSchema("transaction receipt", `{
	"type": "object",
	"required": ["transactionReference"],
	"properties": {
		"transactionReference": {"type": "string", "minLength": 1},
		"sourceAccountNumber": `+optionalText+`,
		"destinationAccountNumber": `+optionalText+`,
		"destinationAccountName": `+optionalText+`,
		"amount": `+money+`,
		"currency": `+optionalText+`,
		"description": `+optionalText+`,
		"transactionType": `+optionalText+`,
		"status": `+optionalText+`,
		"transactionDate": `+dateTime+`
	}
}`)

var TransactionHistorySchema = MustCompilePayloadSchema("transaction history", `{
	"type": ["array", "null"],
	"items": {
		"type": "object",
		"properties": {
			"id": {"type": ["integer", "string", "null"]},
			"transactionReference": `+optionalText+`,
			"sourceAccountNumber": `+optionalText+`,
			"destinationAccountNumber": `+optionalText+`,
			"amount": `+money+`,
			"currency": `+optionalText+`,
			"transactionType": `+optionalText+`,
			"description": `+optionalText+`,
			"status": `+optionalText+`,
			"transactionDate": `+dateTime+`
		}
	}
}`)

// QRPayloadSchema only checks the shape; bank code and account number
// rules are applied by the scanner so each gets its own error.
var QRPayloadSchema = MustCompilePayloadSchema("QR", `{
	"type": "object",
	"properties": {
		"bankCode": {"type": "string"},
		"accountNumber": {"type": "string"}
	}
}`)
