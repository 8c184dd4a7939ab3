// Package createaccount opens the first bank account of a signed-up user.
package createaccount

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

const successMessage = "Account activated successfully!"

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
		return nil, fmt.Errorf("invalid create-account config: %w", err)
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

// ResolveUserID picks the user id from the navigation state, then from the
// cached profile. Without either the user is sent back to sign in.
func (s *Service) ResolveUserID(ctx context.Context, state router.State) (models.ID, error) {
	if !state.UserID.IsZero() {
		return state.UserID, nil
	}
	if user := s.session.User(ctx); user != nil && !user.ID.IsZero() {
		return user.ID, nil
	}
	err := errors.NewValidationError("User information not found, please sign in again", "")
	s.errors.Handle("create_account.user", err)
	s.navigator.Navigate(ctx, router.Login, router.State{})
	return "", err
}

// Execute creates the account. The returned account carries its QR code.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "create_account")
	defer func() { done(err) }()

	if input == nil {
		input = &Input{}
	}
	userID, err := s.ResolveUserID(ctx, router.State{UserID: input.UserID})
	if err != nil {
		return nil, err
	}

	req := models.AccountRequest{
		UserID:         userID,
		AccountName:    strings.TrimSpace(input.AccountName),
		AccountType:    input.AccountType,
		Currency:       input.Currency,
		InitialDeposit: input.InitialDeposit,
	}
	if req.AccountType == "" {
		req.AccountType = s.config.DefaultAccountType
	}
	if req.Currency == "" {
		req.Currency = s.config.DefaultCurrency
	}

	if err := validate(req); err != nil {
		s.errors.Handle("create_account.validate", err)
		return nil, err
	}

	account, err := s.api.CreateAccount(ctx, req)
	if err != nil {
		s.errors.Handle("create_account", err)
		return nil, err
	}

	if user := s.session.User(ctx); user != nil && user.ID == userID {
		user.AccountName = account.AccountName
		if err := s.session.SetUser(ctx, *user); err != nil {
			s.logger.Warn("Cached profile not updated", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("Account created", map[string]interface{}{
		"userId":        userID.String(),
		"accountNumber": account.AccountNumber,
		"accountType":   string(account.AccountType),
	})
	s.notifier.Notify(notice.Success(successMessage))
	return &Output{Account: account}, nil
}

func validate(req models.AccountRequest) error {
	form := Input{
		AccountName:    req.AccountName,
		AccountType:    req.AccountType,
		Currency:       req.Currency,
		InitialDeposit: req.InitialDeposit,
	}
	result, err := validation.ValidateStruct(form, GetInputSchema())
	if err != nil {
		return errors.NewValidationError("Invalid account form", err.Error())
	}
	if !result.Valid {
		return errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

// Cancel abandons activation: the user is signed out and sent to sign in.
func (s *Service) Cancel(ctx context.Context) {
	if err := s.session.Logout(ctx); err != nil {
		s.logger.Warn("Logout on cancel failed", map[string]interface{}{"error": err.Error()})
	}
	s.navigator.Navigate(ctx, router.Login, router.State{})
}
