// Package signup registers a new user.
package signup

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

const successMessage = "Registration successful!"

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
	if deps.API == nil || deps.Navigator == nil {
		return nil, fmt.Errorf("api and navigator are required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sign-up config: %w", err)
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

// Execute validates the form and registers the user. The input is left as
// entered so a failed attempt can be corrected and resubmitted.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "sign_up")
	defer func() { done(err) }()

	if err := s.validate(input); err != nil {
		s.errors.Handle("sign_up.validate", err)
		return nil, err
	}

	req := models.SignUpRequest{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
		Role:     append([]string(nil), s.config.Roles...),
	}
	if err := s.api.SignUp(ctx, req); err != nil {
		mapped := mapServerError(err)
		s.errors.Handle("sign_up", mapped)
		return nil, mapped
	}

	s.logger.Info("User registered", map[string]interface{}{"username": req.Username})
	s.notifier.Notify(notice.Success(successMessage))
	s.navigator.Navigate(ctx, router.Login, router.State{})
	return &Output{Username: req.Username, Message: successMessage}, nil
}

func (s *Service) validate(input *Input) error {
	if input == nil {
		return errors.NewValidationError("Username is required", "")
	}
	result, err := validation.ValidateStruct(input, GetInputSchema(s.config))
	if err != nil {
		return errors.NewValidationError("Invalid registration form", err.Error())
	}
	if !result.Valid {
		return errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
	}
	if input.Password != input.ConfirmPassword {
		return errors.NewValidationError("Password confirmation does not match", "")
	}
	return nil
}

// mapServerError recognizes the duplicate-user messages the API answers with.
func mapServerError(err error) error {
	stdErr, ok := errors.AsStandard(err)
	if !ok || stdErr.Code != errors.ErrCodeAPIError {
		return err
	}
	switch {
	case strings.Contains(stdErr.Message, "Username"):
		return errors.NewDuplicateUsernameError().WithMetadata("status", stdErr.Status())
	case strings.Contains(stdErr.Message, "Email"):
		return errors.NewDuplicateEmailError().WithMetadata("status", stdErr.Status())
	}
	return err
}

// Back leaves the registration view. Any stored session is dropped first.
func (s *Service) Back(ctx context.Context) {
	if s.session != nil {
		if err := s.session.Logout(ctx); err != nil {
			s.logger.Warn("Logout on leaving registration failed", map[string]interface{}{"error": err.Error()})
		}
	}
	s.navigator.Navigate(ctx, router.Login, router.State{})
}
