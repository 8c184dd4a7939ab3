package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadSchemas(t *testing.T) {
	tests := []struct {
		name    string
		schema  *PayloadSchema
		payload string
		wantErr bool
	}{
		{name: "notification", schema: NotificationEventSchema, payload: `{"id":2,"amount":100000,"balance":600000,"isRead":false}`},
		{name: "notification with string id and date array", schema: NotificationEventSchema, payload: `{"id":"n-2","transactionDate":[2024,5,1,9,0,0]}`},
		{name: "empty notification", schema: NotificationEventSchema, payload: `{}`, wantErr: true},
		{name: "notification not json", schema: NotificationEventSchema, payload: `ping`, wantErr: true},
		{name: "notification bad flag", schema: NotificationEventSchema, payload: `{"id":1,"isRead":"no"}`, wantErr: true},
		{name: "notification list", schema: NotificationListSchema, payload: `[{"id":1}]`},
		{name: "null notification list", schema: NotificationListSchema, payload: `null`},
		{name: "notification list with mistyped entry", schema: NotificationListSchema, payload: `[{"id":1},{"id":2,"isRead":"no"}]`, wantErr: true},
		{name: "notification list with empty entry", schema: NotificationListSchema, payload: `[{}]`, wantErr: true},
		{name: "receipt", schema: TransactionReceiptSchema, payload: `{"transactionReference":"TX0001","amount":1000,"status":"SUCCESS","transactionDate":null}`},
		{name: "receipt without reference", schema: TransactionReceiptSchema, payload: `{"amount":1000}`, wantErr: true},
		{name: "receipt amount wrong type", schema: TransactionReceiptSchema, payload: `{"transactionReference":"TX0001","amount":true}`, wantErr: true},
		{name: "history", schema: TransactionHistorySchema, payload: `[{"id":9,"transactionReference":"TX0009","amount":"5000"}]`},
		{name: "empty history", schema: TransactionHistorySchema, payload: `[]`},
		{name: "history not a list", schema: TransactionHistorySchema, payload: `{"content":[]}`, wantErr: true},
		{name: "history entry wrong type", schema: TransactionHistorySchema, payload: `["TX0009"]`, wantErr: true},
		{name: "sign-in", schema: SignInResponseSchema, payload: `{"id":1,"username":"huy","jwtToken":"a.b.c","roles":["ROLE_USER"]}`},
		{name: "sign-in without token", schema: SignInResponseSchema, payload: `{"id":1,"jwtToken":""}`, wantErr: true},
		{name: "account", schema: AccountSchema, payload: `{"accountNumber":"1000200030","balance":"500000.00"}`},
		{name: "account without number", schema: AccountSchema, payload: `{"accountName":"X"}`, wantErr: true},
		{name: "qr", schema: QRPayloadSchema, payload: `{"bankCode":"HUY_BANK_CORE","accountNumber":"2000300040"}`},
		{name: "qr wrong type", schema: QRPayloadSchema, payload: `{"accountNumber":2000300040}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompilePayloadSchema(t *testing.T) {
	s, err := CompilePayloadSchema("receipt", `{"type":"object"}`)
	assert.NoError(t, err)
	assert.Equal(t, "receipt", s.Name())

	_, err = CompilePayloadSchema("broken", `{"type":`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompilePayloadSchema("broken", `{"type": 5}`) })
}
