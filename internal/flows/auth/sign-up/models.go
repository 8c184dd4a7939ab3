package signup

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
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type Output struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type API interface {
	SignUp(ctx context.Context, req models.SignUpRequest) error
}

type ServiceDependencies struct {
	Logger        logger.Logger
	API           API
	Session       *session.Manager
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Observability *observability.Observability
}
