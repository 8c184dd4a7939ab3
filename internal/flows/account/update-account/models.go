package updateaccount

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

// Input is the editable account form. Load fills it from the current account.
type Input struct {
	AccountName    string             `json:"accountName"`
	AccountType    models.AccountType `json:"accountType"`
	Currency       string             `json:"currency"`
	InitialDeposit decimal.Decimal    `json:"initialDeposit"`
}

type Output struct {
	Account *models.Account `json:"account"`
}

type API interface {
	GetAccount(ctx context.Context, userID models.ID) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID models.ID, req models.AccountRequest) (*models.Account, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	API           API
	Session       *session.Manager
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Observability *observability.Observability
}
