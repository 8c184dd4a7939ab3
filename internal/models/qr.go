package models

// QRPayload is the JSON text encoded in an account QR code.
type QRPayload struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}
