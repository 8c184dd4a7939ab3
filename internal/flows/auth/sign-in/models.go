package signin

import (
	"context"

	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

type Input struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Output struct {
	UserID  models.ID       `json:"userId"`
	User    models.User     `json:"user"`
	Account *models.Account `json:"account,omitempty"`
	// Next is the view navigated to after sign-in.
	Next router.View `json:"next"`
}

// API is the part of the REST client used by sign-in.
type API interface {
	SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error)
	GetAccount(ctx context.Context, userID models.ID) (*models.Account, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	API           API
	Session       *session.Manager
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Observability *observability.Observability
}
