package sendtransfer

import (
	"context"

	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"

	"github.com/shopspring/decimal"
)

type Input struct {
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	Description              string          `json:"description"`
	Captcha                  string          `json:"captcha"`
}

type Output struct {
	Receipt *models.TransactionReceipt `json:"receipt"`
}

// Form is what the transfer view shows between steps.
type Form struct {
	SourceAccountNumber      string
	Balance                  decimal.Decimal
	Currency                 string
	DestinationAccountNumber string
	RecipientName            string
	// Checked is true once the destination name was resolved.
	Checked bool
	Captcha string
}

type API interface {
	GetAccount(ctx context.Context, userID models.ID) (*models.Account, error)
	GetDestinationAccountName(ctx context.Context, userID models.ID, accountNumber string) (string, error)
	CreateTransaction(ctx context.Context, userID models.ID, req models.TransactionRequest) (*models.TransactionReceipt, error)
	GetTransactionHistory(ctx context.Context, userID models.ID, accountNumber string) ([]models.Transaction, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	API           API
	Session       *session.Manager
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Observability *observability.Observability
}
