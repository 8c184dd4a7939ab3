package dashboard

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"banking-client/internal/common/errors"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

// Channel is the push subscription the view opens after loading.
type Channel interface {
	Open(accountNumber, token string) error
	Close()
	Account() string
}

// Scanner resolves a destination account from a QR image.
type Scanner interface {
	Scan(ctx context.Context, imagePath, ownAccountNumber string) (string, error)
}

type ViewOptions struct {
	Session       *session.Manager
	Store         *Store
	Channel       Channel
	Scanner       Scanner
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Logger        logger.Logger
	Observability *observability.Observability
}

// View drives the dashboard lifecycle: load, subscribe, and the actions
// offered on the screen.
type View struct {
	session   *session.Manager
	store     *Store
	channel   Channel
	scanner   Scanner
	navigator router.Navigator
	notifier  notice.Notifier
	errors    *errors.ErrorHandler
	logger    logger.Logger
	obs       *observability.Observability
}

func NewView(opts ViewOptions) (*View, error) {
	if opts.Session == nil || opts.Store == nil || opts.Channel == nil || opts.Navigator == nil {
		return nil, fmt.Errorf("session, store, channel and navigator are required")
	}
	log := logger.OrDefault(opts.Logger)
	notifier := notice.OrDiscard(opts.Notifier)
	return &View{
		session:   opts.Session,
		store:     opts.Store,
		channel:   opts.Channel,
		scanner:   opts.Scanner,
		navigator: opts.Navigator,
		notifier:  notifier,
		errors:    errors.NewErrorHandler(log, notifier),
		logger:    log,
		obs:       opts.Observability,
	}, nil
}

// Mount loads the account and notifications, then opens the push channel.
// Without a cached user it navigates to the entry view.
func (v *View) Mount(ctx context.Context) (err error) {
	done := v.obs.Track(ctx, "dashboard_mount")
	defer func() { done(err) }()

	user := v.session.User(ctx)
	if user == nil || user.ID.IsZero() {
		v.logger.Info("Dashboard opened without a signed-in user", nil)
		v.navigator.Navigate(ctx, router.Login, router.State{})
		return errors.NewSessionExpiredError("no cached user")
	}

	if err := v.store.LoadInitial(ctx, user.ID); err != nil {
		v.errors.Handle("dashboard.load", err)
		return err
	}

	acct := v.store.Snapshot().Account
	if err := v.channel.Open(acct.AccountNumber, v.session.Token(ctx)); err != nil {
		v.logger.Warn("Push channel not opened", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// Unmount closes the push channel.
func (v *View) Unmount() {
	v.channel.Close()
}

// Refresh re-fetches the account and follows an account-number change.
func (v *View) Refresh(ctx context.Context) error {
	user := v.session.User(ctx)
	if user == nil {
		v.navigator.Navigate(ctx, router.Login, router.State{})
		return errors.NewSessionExpiredError("no cached user")
	}
	acct, err := v.store.Refresh(ctx, user.ID)
	if err != nil {
		v.errors.Handle("dashboard.refresh", err)
		return err
	}
	if acct.AccountNumber != v.channel.Account() {
		if err := v.channel.Open(acct.AccountNumber, v.session.Token(ctx)); err != nil {
			v.logger.Warn("Push channel not reopened", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (v *View) State() State {
	return v.store.Snapshot()
}

func (v *View) MarkRead(ctx context.Context, id models.ID) {
	v.store.MarkRead(ctx, id)
}

// ScanQR reads a destination from an image and opens the transfer view
// with it. A rejected code shows an error and stays on the dashboard.
func (v *View) ScanQR(ctx context.Context, imagePath string) (string, error) {
	if v.scanner == nil {
		v.Feature("QR scan")
		return "", fmt.Errorf("no QR scanner configured")
	}
	own := ""
	if acct := v.store.Snapshot().Account; acct != nil {
		own = acct.AccountNumber
	}
	accountNumber, err := v.scanner.Scan(ctx, imagePath, own)
	if err != nil {
		v.errors.Handle("dashboard.scan_qr", err)
		return "", err
	}
	v.navigator.Navigate(ctx, router.Transfer, router.State{ScannedAccount: accountNumber})
	return accountNumber, nil
}

// DownloadQR writes the account QR image to dir as MyQRCode_<account>.png.
func (v *View) DownloadQR(dir string) (string, error) {
	acct := v.store.Snapshot().Account
	if acct == nil || acct.QRCode == "" {
		err := errors.NewValidationError("No QR code available for this account", "")
		v.errors.Handle("dashboard.download_qr", err)
		return "", err
	}

	data, err := DecodeQRImage(acct.QRCode)
	if err != nil {
		stdErr := errors.NewMalformedPayloadError("QR image", err.Error())
		v.errors.Handle("dashboard.download_qr", stdErr)
		return "", stdErr
	}

	path := filepath.Join(dir, fmt.Sprintf("MyQRCode_%s.png", acct.AccountNumber))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		v.errors.Handle("dashboard.download_qr", err)
		return "", err
	}
	v.logger.Info("QR code saved", map[string]interface{}{"path": path})
	return path, nil
}

// DecodeQRImage accepts raw base64 or a data URI.
func DecodeQRImage(qr string) ([]byte, error) {
	qr = strings.TrimSpace(qr)
	if strings.HasPrefix(qr, "data:") {
		i := strings.Index(qr, ",")
		if i < 0 {
			return nil, fmt.Errorf("data URI has no payload")
		}
		qr = qr[i+1:]
	}
	return base64.StdEncoding.DecodeString(qr)
}

// Feature announces a service that is not available yet.
func (v *View) Feature(name string) {
	v.notifier.Notify(notice.Info(name))
}
