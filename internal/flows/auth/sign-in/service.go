// Package signin exchanges credentials for a session and routes the user to
// the dashboard or to account creation.
package signin

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
		return nil, fmt.Errorf("invalid sign-in config: %w", err)
	}
	log := logger.OrDefault(deps.Logger)
	return &Service{
		config:    config,
		logger:    log,
		api:       deps.API,
		session:   deps.Session,
		navigator: deps.Navigator,
		errors:    errors.NewErrorHandler(log, notice.OrDiscard(deps.Notifier)),
		obs:       deps.Observability,
	}, nil
}

// Enter is called when the sign-in view is shown. It wipes whatever an
// earlier session left in the local store.
func (s *Service) Enter(ctx context.Context) {
	if !s.config.ClearOnEntry {
		return
	}
	if err := s.session.Clear(ctx, session.ReasonSignIn); err != nil {
		s.logger.Warn("Local store not cleared on sign-in entry", map[string]interface{}{"error": err.Error()})
	}
}

// Execute signs in, stores the session and looks up the user's account.
// With an account the user goes to the dashboard; without one to account
// creation, carrying the user id. Failures stay on the sign-in view.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "sign_in")
	defer func() { done(err) }()

	out, err = s.execute(ctx, input)
	if err != nil {
		s.errors.Handle("sign_in", err)
		return nil, err
	}
	return out, nil
}

func (s *Service) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewValidationError("Username is required", "")
	}
	input.Username = strings.TrimSpace(input.Username)

	result, vErr := validation.ValidateStruct(input, GetInputSchema(s.config))
	if vErr != nil {
		return nil, errors.NewValidationError("Invalid sign-in request", vErr.Error())
	}
	if !result.Valid {
		return nil, errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
	}

	s.logger.Info("Signing in", map[string]interface{}{"username": input.Username})

	resp, err := s.api.SignIn(ctx, models.SignInRequest{Username: input.Username, Password: input.Password})
	if err != nil {
		return nil, err
	}

	sess, err := s.session.Start(ctx, *resp, "")
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	user := *sess.User

	account, err := s.api.GetAccount(ctx, resp.ID)
	if err != nil {
		// no account yet, or the lookup failed: both continue to account creation
		s.logger.Info("No account for user, continuing to account creation", map[string]interface{}{
			"userId": resp.ID.String(),
			"error":  err.Error(),
		})
		s.navigator.Navigate(ctx, router.CreateAccount, router.State{UserID: resp.ID})
		return &Output{UserID: resp.ID, User: user, Next: router.CreateAccount}, nil
	}

	user.AccountName = account.AccountName
	if err := s.session.SetUser(ctx, user); err != nil {
		return nil, errors.NewInternalError(err)
	}

	s.logger.Info("Signed in", map[string]interface{}{
		"userId":        resp.ID.String(),
		"accountNumber": account.AccountNumber,
	})
	s.navigator.Navigate(ctx, router.Dashboard, router.State{})
	return &Output{UserID: resp.ID, User: user, Account: account, Next: router.Dashboard}, nil
}
