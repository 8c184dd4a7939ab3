// internal/models/notification.go
package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Notification is a transaction event. Balance, when present, is the
// account balance after the transaction.
type Notification struct {
	ID                   ID               `json:"id"`
	Description          string           `json:"description"`
	TransactionReference string           `json:"transactionReference"`
	AccountNumber        string           `json:"accountNumber,omitempty"`
	Amount               decimal.Decimal  `json:"amount"`
	TransactionDate      Timestamp        `json:"transactionDate"`
	IsRead               bool             `json:"isRead"`
	Balance              *decimal.Decimal `json:"balance,omitempty"`
}

// IsDebit reports whether the amount is negative.
func (n Notification) IsDebit() bool {
	return n.Amount.IsNegative()
}

// SortByDateDesc orders notifications newest first. Ties keep their order.
func SortByDateDesc(list []Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TransactionDate.After(list[j].TransactionDate.Time)
	})
}

// CountUnread returns the number of entries with IsRead false.
func CountUnread(list []Notification) int {
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count
}
