package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const TransactionTypeTransfer = "TRANSFER"

type TransactionRequest struct {
	SourceAccountNumber      string          `json:"sourceAccountNumber"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	TransactionType          string          `json:"transactionType"`
	Currency                 string          `json:"currency"`
	Description              string          `json:"description"`
}

// TransactionReceipt is returned after a transaction is created.
type TransactionReceipt struct {
	TransactionReference     string          `json:"transactionReference"`
	SourceAccountNumber      string          `json:"sourceAccountNumber"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	DestinationAccountName   string          `json:"destinationAccountName,omitempty"`
	Amount                   decimal.Decimal `json:"amount"`
	Currency                 string          `json:"currency,omitempty"`
	Description              string          `json:"description"`
	TransactionType          string          `json:"transactionType,omitempty"`
	Status                   string          `json:"status,omitempty"`
	TransactionDate          Timestamp       `json:"transactionDate"`
}

// Recipient returns the destination name when known, else its number.
func (r TransactionReceipt) Recipient() string {
	if r.DestinationAccountName != "" {
		return r.DestinationAccountName
	}
	return r.DestinationAccountNumber
}

// Transaction is one entry of the account history.
type Transaction struct {
	ID                       ID              `json:"id,omitempty"`
	TransactionReference     string          `json:"transactionReference"`
	SourceAccountNumber      string          `json:"sourceAccountNumber"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	Currency                 string          `json:"currency,omitempty"`
	TransactionType          string          `json:"transactionType"`
	Description              string          `json:"description"`
	Status                   string          `json:"status,omitempty"`
	TransactionDate          Timestamp       `json:"transactionDate"`
}

// RecipientName is the destination-name lookup result. The endpoint
// answers either {"accountName": "..."} or a bare JSON string.
type RecipientName string

func (r *RecipientName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var body struct {
			AccountName string `json:"accountName"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		*r = RecipientName(body.AccountName)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = RecipientName(s)
	return nil
}

// ParseRecipientName accepts a JSON body or a plain-text name.
func ParseRecipientName(body []byte) string {
	body = bytes.TrimSpace(body)
	var r RecipientName
	if json.Valid(body) {
		if err := json.Unmarshal(body, &r); err == nil {
			return string(r)
		}
	}
	return string(body)
}
