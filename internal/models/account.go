package models

import "github.com/shopspring/decimal"

func init() {
	// the API expects JSON numbers for money fields
	decimal.MarshalJSONWithoutQuotes = true
}

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeCredit   AccountType = "CREDIT"
)

// AccountTypes lists the account types offered at account creation.
var AccountTypes = []string{string(AccountTypeSavings), string(AccountTypeChecking), string(AccountTypeCredit)}

// Currencies lists the currencies offered at account creation.
var Currencies = []string{"VND", "USD"}

// Account is the user's bank account. QRCode is a base64 PNG or a data URI.
type Account struct {
	ID            ID              `json:"id,omitempty"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   AccountType     `json:"accountType,omitempty"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	QRCode        string          `json:"qrCode,omitempty"`
}

// CurrencyOr returns the account currency, or fallback when unset.
func (a *Account) CurrencyOr(fallback string) string {
	if a == nil || a.Currency == "" {
		return fallback
	}
	return a.Currency
}

// AccountRequest is the body of both account creation and update.
type AccountRequest struct {
	UserID         ID              `json:"userId"`
	AccountName    string          `json:"accountName"`
	AccountType    AccountType     `json:"accountType"`
	Currency       string          `json:"currency"`
	InitialDeposit decimal.Decimal `json:"initialDeposit"`
}
