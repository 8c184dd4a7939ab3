// Package updateaccount edits the signed-in user's account details.
package updateaccount

import (
	"context"
	"fmt"
	"strings"

	"banking-client/internal/common/errors"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/common/validation"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	api       API
	session   *session.Manager
	navigator router.Navigator
	notifier  notice.Notifier
	errors    *errors.ErrorHandler
	obs       *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if deps.API == nil || deps.Session == nil || deps.Navigator == nil {
		return nil, fmt.Errorf("api, session and navigator are required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid update-account config: %w", err)
	}
	log := logger.OrDefault(deps.Logger)
	notifier := notice.OrDiscard(deps.Notifier)
	return &Service{
		config:    config,
		logger:    log,
		api:       deps.API,
		session:   deps.Session,
		navigator: deps.Navigator,
		notifier:  notifier,
		errors:    errors.NewErrorHandler(log, notifier),
		obs:       deps.Observability,
	}, nil
}

func (s *Service) userID(ctx context.Context) (models.ID, error) {
	user := s.session.User(ctx)
	if user == nil || user.ID.IsZero() {
		s.navigator.Navigate(ctx, router.Login, router.State{})
		return "", errors.NewSessionExpiredError("no cached user")
	}
	return user.ID, nil
}

// Load returns the form prefilled from the current account.
func (s *Service) Load(ctx context.Context) (*Input, error) {
	id, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	acct, err := s.api.GetAccount(ctx, id)
	if err != nil {
		s.errors.Handle("update_account.load", err)
		return nil, err
	}
	return &Input{
		AccountName:    acct.AccountName,
		AccountType:    acct.AccountType,
		Currency:       acct.CurrencyOr("VND"),
		InitialDeposit: acct.Balance,
	}, nil
}

// Execute sends the edited form and refreshes the cached display name.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "update_account")
	defer func() { done(err) }()

	id, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if input == nil {
		input = &Input{}
	}
	input.AccountName = strings.TrimSpace(input.AccountName)

	result, vErr := validation.ValidateStruct(input, GetInputSchema())
	if vErr != nil {
		return nil, errors.NewValidationError("Invalid account form", vErr.Error())
	}
	if !result.Valid {
		err := errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
		s.errors.Handle("update_account.validate", err)
		return nil, err
	}

	acct, err := s.api.UpdateAccount(ctx, id, models.AccountRequest{
		UserID:         id,
		AccountName:    input.AccountName,
		AccountType:    input.AccountType,
		Currency:       input.Currency,
		InitialDeposit: input.InitialDeposit,
	})
	if err != nil {
		s.errors.Handle("update_account", err)
		return nil, err
	}

	if user := s.session.User(ctx); user != nil {
		user.AccountName = acct.AccountName
		if err := s.session.SetUser(ctx, *user); err != nil {
			s.logger.Warn("Cached profile not updated", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("Account updated", map[string]interface{}{"accountNumber": acct.AccountNumber})
	s.notifier.Notify(notice.Success("Account updated successfully!"))
	s.navigator.Navigate(ctx, s.config.ReturnView, router.State{})
	return &Output{Account: acct}, nil
}
