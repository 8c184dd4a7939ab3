package createaccount

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
	// UserID comes from the navigation state; empty falls back to the session.
	UserID         models.ID          `json:"-"`
	AccountName    string             `json:"accountName"`
	AccountType    models.AccountType `json:"accountType"`
	Currency       string             `json:"currency"`
	InitialDeposit decimal.Decimal    `json:"initialDeposit"`
}

type Output struct {
	Account *models.Account `json:"account"`
}

type API interface {
	CreateAccount(ctx context.Context, req models.AccountRequest) (*models.Account, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	API           API
	Session       *session.Manager
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Observability *observability.Observability
}
