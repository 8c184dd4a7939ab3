// Package sendtransfer moves money from the signed-in user's account to
// another account of the same bank.
package sendtransfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"banking-client/internal/common/errors"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/common/validation"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

const successMessage = "Transfer successful!"

type Service struct {
	config    *Config
	logger    logger.Logger
	api       API
	session   *session.Manager
	navigator router.Navigator
	notifier  notice.Notifier
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	captcha   *CaptchaStore

	mu     sync.Mutex
	userID models.ID
	form   Form
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if deps.API == nil || deps.Session == nil || deps.Navigator == nil {
		return nil, fmt.Errorf("api, session and navigator are required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
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
		captcha:   NewCaptchaStore(config.CaptchaLength, config.CaptchaAlphabet),
	}, nil
}

// ==========================
// Form lifecycle
// ==========================

// Open loads the source account and a fresh captcha. A scanned account in
// state is applied as the destination.
func (s *Service) Open(ctx context.Context, state router.State) (*Form, error) {
	user := s.session.User(ctx)
	if user == nil || user.ID.IsZero() {
		s.navigator.Navigate(ctx, router.Login, router.State{})
		return nil, errors.NewSessionExpiredError("no cached user")
	}

	acct, err := s.api.GetAccount(ctx, user.ID)
	if err != nil {
		s.logger.Warn("Transfer source account not loaded", map[string]interface{}{"error": err.Error()})
		s.navigator.Navigate(ctx, router.Dashboard, router.State{})
		return nil, err
	}

	s.mu.Lock()
	s.userID = user.ID
	s.form = Form{
		SourceAccountNumber: acct.AccountNumber,
		Balance:             acct.Balance,
		Currency:            acct.CurrencyOr(s.config.DefaultCurrency),
	}
	s.mu.Unlock()
	s.captcha.Generate()

	if state.ScannedAccount != "" {
		if err := s.ApplyScanned(ctx, state.ScannedAccount); err != nil {
			return nil, err
		}
	}
	form := s.Form()
	return &form, nil
}

// Form returns a copy of the current form with the captcha on display.
func (s *Service) Form() Form {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()
	form.Captcha = s.captcha.Current()
	return form
}

// RefreshCaptcha replaces the captcha on request.
func (s *Service) RefreshCaptcha() string {
	return s.captcha.Generate()
}

// ApplyScanned uses a scanned account as the destination. The user's own
// account is rejected and sends the user back to the dashboard. A failed
// name lookup is logged and leaves the destination unchecked.
func (s *Service) ApplyScanned(ctx context.Context, accountNumber string) error {
	s.mu.Lock()
	source, userID := s.form.SourceAccountNumber, s.userID
	s.mu.Unlock()

	if accountNumber == source {
		err := errors.NewSelfTransferError()
		s.errors.Handle("transfer.scanned", err)
		s.navigator.Navigate(ctx, router.Dashboard, router.State{})
		return err
	}

	s.mu.Lock()
	s.form.DestinationAccountNumber = accountNumber
	s.form.RecipientName = ""
	s.form.Checked = false
	s.mu.Unlock()

	name, err := s.api.GetDestinationAccountName(ctx, userID, accountNumber)
	if err != nil {
		s.logger.Warn("Scanned account lookup failed", map[string]interface{}{
			"accountNumber": accountNumber,
			"error":         err.Error(),
		})
		return nil
	}
	s.setRecipient(accountNumber, name)
	return nil
}

// CheckDestination resolves the account holder's name.
func (s *Service) CheckDestination(ctx context.Context, accountNumber string) (string, error) {
	name, err := s.lookup(ctx, accountNumber)
	if err != nil {
		s.errors.Handle("transfer.check_destination", err)
		return "", err
	}
	return name, nil
}

func (s *Service) lookup(ctx context.Context, accountNumber string) (string, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	s.mu.Lock()
	source, userID := s.form.SourceAccountNumber, s.userID
	s.mu.Unlock()

	if accountNumber == "" {
		return "", errors.NewValidationError("Please enter an account number", "")
	}
	if accountNumber == source {
		return "", errors.NewSelfTransferError()
	}

	name, err := s.api.GetDestinationAccountName(ctx, userID, accountNumber)
	if err != nil {
		s.ResetDestination()
		if errors.HasCode(err, errors.ErrCodeSessionExpired) {
			return "", err
		}
		s.logger.Info("Destination lookup failed", map[string]interface{}{
			"accountNumber": accountNumber,
			"error":         err.Error(),
		})
		return "", errors.NewAccountNotFoundError(accountNumber)
	}
	s.setRecipient(accountNumber, name)
	return name, nil
}

func (s *Service) setRecipient(accountNumber, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.DestinationAccountNumber = accountNumber
	s.form.RecipientName = name
	s.form.Checked = true
}

// ResetDestination clears the destination and its resolved name.
func (s *Service) ResetDestination() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.DestinationAccountNumber = ""
	s.form.RecipientName = ""
	s.form.Checked = false
}

// ==========================
// Submit
// ==========================

// Execute checks the captcha and the balance and submits the transfer. The
// captcha is replaced after any failure.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "send_transfer")
	defer func() { done(err) }()

	out, err = s.execute(ctx, input)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeCaptchaMismatch) {
			s.captcha.Generate()
		}
		s.errors.Handle("send_transfer", err)
		return nil, err
	}
	return out, nil
}

func (s *Service) execute(ctx context.Context, input *Input) (*Output, error) {
	s.mu.Lock()
	form, userID := s.form, s.userID
	s.mu.Unlock()

	if form.SourceAccountNumber == "" {
		return nil, errors.NewValidationError("Transfer form is not loaded", "")
	}
	if input == nil {
		return nil, errors.NewValidationError("Destination account is required", "")
	}
	input.DestinationAccountNumber = strings.TrimSpace(input.DestinationAccountNumber)

	result, vErr := validation.ValidateStruct(input, GetInputSchema(s.config))
	if vErr != nil {
		return nil, errors.NewValidationError("Invalid transfer", vErr.Error())
	}
	if !result.Valid {
		return nil, errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
	}

	if !s.captcha.Verify(input.Captcha) {
		return nil, errors.NewCaptchaMismatchError()
	}
	if !input.Amount.IsPositive() {
		return nil, errors.NewValidationError("Amount must be greater than 0", "")
	}
	if input.Amount.GreaterThan(form.Balance) {
		return nil, errors.NewInsufficientBalanceError(fmt.Sprintf("amount %s exceeds balance %s", input.Amount, form.Balance))
	}

	recipient := form.RecipientName
	if !form.Checked || form.DestinationAccountNumber != input.DestinationAccountNumber {
		name, err := s.lookup(ctx, input.DestinationAccountNumber)
		if err != nil {
			return nil, err
		}
		recipient = name
	}

	req := models.TransactionRequest{
		SourceAccountNumber:      form.SourceAccountNumber,
		DestinationAccountNumber: input.DestinationAccountNumber,
		Amount:                   input.Amount,
		TransactionType:          s.config.TransactionType,
		Currency:                 form.Currency,
		Description:              strings.TrimSpace(input.Description),
	}
	receipt, err := s.api.CreateTransaction(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if receipt.DestinationAccountName == "" {
		receipt.DestinationAccountName = recipient
	}

	s.mu.Lock()
	s.form.Balance = s.form.Balance.Sub(input.Amount)
	s.mu.Unlock()
	s.captcha.Generate()

	s.logger.Info("Transfer submitted", map[string]interface{}{
		"reference":   receipt.TransactionReference,
		"source":      req.SourceAccountNumber,
		"destination": req.DestinationAccountNumber,
		"amount":      req.Amount.String(),
		"currency":    req.Currency,
	})
	s.notifier.Notify(notice.Success(successMessage))
	return &Output{Receipt: receipt}, nil
}

// ==========================
// History and receipts
// ==========================

// History lists the transactions of the source account.
func (s *Service) History(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	source, userID := s.form.SourceAccountNumber, s.userID
	s.mu.Unlock()
	if source == "" {
		return nil, errors.NewValidationError("Transfer form is not loaded", "")
	}

	list, err := s.api.GetTransactionHistory(ctx, userID, source)
	if err != nil {
		s.errors.Handle("transfer.history", err)
		return nil, err
	}
	return list, nil
}

// SaveReceipt writes a text receipt to dir as Bill_<reference>.txt.
func (s *Service) SaveReceipt(dir string, r *models.TransactionReceipt) (string, error) {
	if r == nil || r.TransactionReference == "" {
		return "", errors.NewValidationError("No receipt to save", "")
	}
	path := filepath.Join(dir, fmt.Sprintf("Bill_%s.txt", r.TransactionReference))
	if err := os.WriteFile(path, []byte(FormatReceipt(r)), 0o644); err != nil {
		s.errors.Handle("transfer.save_receipt", err)
		return "", err
	}
	s.logger.Info("Receipt saved", map[string]interface{}{"path": path})
	return path, nil
}

// FormatReceipt renders r as plain text.
func FormatReceipt(r *models.TransactionReceipt) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-13s %s\n", label+":", value)
		}
	}
	b.WriteString("TRANSFER RECEIPT\n")
	b.WriteString(strings.Repeat("=", 32) + "\n")
	line("Reference", r.TransactionReference)
	if !r.TransactionDate.Time.IsZero() {
		line("Date", r.TransactionDate.Time.Format("2006-01-02 15:04:05"))
	}
	line("From", r.SourceAccountNumber)
	to := r.DestinationAccountNumber
	if r.DestinationAccountName != "" {
		to = fmt.Sprintf("%s (%s)", to, r.DestinationAccountName)
	}
	line("To", to)
	line("Amount", strings.TrimSpace(r.Amount.String()+" "+r.Currency))
	line("Description", r.Description)
	line("Status", r.Status)
	return b.String()
}
