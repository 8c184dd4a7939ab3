package dashboard

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"banking-client/internal/api"
	"banking-client/internal/common/errors"
	"banking-client/internal/common/kvstore"
	"banking-client/internal/common/logger"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
	"banking-client/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type openCall struct {
	account string
	token   string
}

type fakeChannel struct {
	mu      sync.Mutex
	opens   []openCall
	closes  int
	account string
}

func (c *fakeChannel) Open(accountNumber, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opens = append(c.opens, openCall{account: accountNumber, token: token})
	c.account = accountNumber
	return nil
}

func (c *fakeChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.account = ""
}

func (c *fakeChannel) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, imagePath, own string) (string, error) {
	args := m.Called(imagePath, own)
	return args.String(0), args.Error(1)
}

type viewFixture struct {
	bank      *testutil.FakeBank
	session   *session.Manager
	store     *Store
	channel   *fakeChannel
	navigator *router.Recorder
	notices   *notice.Recorder
	scanner   *MockScanner
	view      *View
}

func newViewFixture(t *testing.T, signedIn bool) *viewFixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)
	f := &viewFixture{
		bank:      testutil.NewFakeBank(t, testutil.ValidToken()),
		channel:   &fakeChannel{},
		navigator: &router.Recorder{},
		notices:   notice.NewRecorder(),
		scanner:   &MockScanner{},
	}
	f.bank.SetAccount(&models.Account{
		AccountNumber: "1000200030",
		AccountName:   "NGUYEN DUC HUY",
		Currency:      "VND",
		Balance:       testutil.Money("500000"),
		QRCode:        base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})
	f.bank.SetNotifications([]models.Notification{
		{ID: "1", Description: "salary", Amount: testutil.Money("500000")},
	})

	f.session = session.NewManager(kvstore.NewMemoryStore(), session.Options{Logger: log})
	client, err := api.NewClient(api.Options{
		BaseURL:   f.bank.URL(),
		Session:   f.session,
		Navigator: f.navigator,
		Logger:    log,
	})
	require.NoError(t, err)

	if signedIn {
		resp, err := client.SignIn(ctx, models.SignInRequest{Username: "huy", Password: "secret1"})
		require.NoError(t, err)
		_, err = f.session.Start(ctx, *resp, "NGUYEN DUC HUY")
		require.NoError(t, err)
	}

	f.store = NewStore(client, StoreOptions{Logger: log})
	f.view, err = NewView(ViewOptions{
		Session:   f.session,
		Store:     f.store,
		Channel:   f.channel,
		Scanner:   f.scanner,
		Navigator: f.navigator,
		Notifier:  f.notices,
		Logger:    log,
	})
	require.NoError(t, err)
	return f
}

// ==========================
// Lifecycle Tests
// ==========================

func TestNewView_Validation(t *testing.T) {
	_, err := NewView(ViewOptions{})
	assert.Error(t, err)
}

func TestView_MountWithoutUserGoesToLogin(t *testing.T) {
	f := newViewFixture(t, false)

	err := f.view.Mount(context.Background())

	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionExpired))
	assert.Equal(t, 1, f.navigator.Count(router.Login))
	assert.Empty(t, f.channel.opens)
	assert.Equal(t, 0, f.bank.CountRequests("GET", "/api/v1/account"))
}

func TestView_MountLoadsAndOpensChannel(t *testing.T) {
	f := newViewFixture(t, true)

	require.NoError(t, f.view.Mount(context.Background()))

	state := f.view.State()
	assert.True(t, state.Loaded)
	assert.Equal(t, "1000200030", state.Account.AccountNumber)
	assert.Len(t, state.Notifications, 1)
	require.Len(t, f.channel.opens, 1)
	assert.Equal(t, openCall{account: "1000200030", token: testutil.ValidToken()}, f.channel.opens[0])

	f.view.Unmount()
	assert.Equal(t, 1, f.channel.closes)
}

func TestView_MountLoadFailureShowsNotice(t *testing.T) {
	f := newViewFixture(t, true)
	f.bank.Override("GET /api/v1/notification/1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteMessage(w, http.StatusInternalServerError, "database down")
	})

	err := f.view.Mount(context.Background())

	require.Error(t, err)
	assert.Empty(t, f.channel.opens)
	assert.False(t, f.view.State().Loaded)
	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Error: database down", last.Message)
}

func TestView_RefreshReopensOnAccountChange(t *testing.T) {
	f := newViewFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.view.Mount(ctx))

	require.NoError(t, f.view.Refresh(ctx))
	assert.Len(t, f.channel.opens, 1, "same account keeps the subscription")

	acct := f.bank.Account()
	acct.AccountNumber = "9000800070"
	f.bank.SetAccount(acct)

	require.NoError(t, f.view.Refresh(ctx))
	require.Len(t, f.channel.opens, 2)
	assert.Equal(t, "9000800070", f.channel.opens[1].account)
}

func TestView_MarkRead(t *testing.T) {
	f := newViewFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.view.Mount(ctx))

	f.view.MarkRead(ctx, "1")

	assert.Equal(t, 1, f.bank.MarkReadCalls("1"))
	assert.Equal(t, 0, f.view.State().UnreadCount)
}

// ==========================
// QR Tests
// ==========================

func TestView_ScanQRNavigatesToTransfer(t *testing.T) {
	f := newViewFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.view.Mount(ctx))
	f.scanner.On("Scan", "qr.png", "1000200030").Return("2000300040", nil)

	acct, err := f.view.ScanQR(ctx, "qr.png")

	require.NoError(t, err)
	assert.Equal(t, "2000300040", acct)
	last, ok := f.navigator.Last()
	require.True(t, ok)
	assert.Equal(t, router.Transfer, last.View)
	assert.Equal(t, "2000300040", last.State.ScannedAccount)
	f.scanner.AssertExpectations(t)
}

func TestView_ScanQRRejectedStaysOnDashboard(t *testing.T) {
	f := newViewFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.view.Mount(ctx))
	f.scanner.On("Scan", "qr.png", "1000200030").Return("", errors.NewSelfTransferError())

	_, err := f.view.ScanQR(ctx, "qr.png")

	require.Error(t, err)
	assert.Equal(t, 0, f.navigator.Count(router.Transfer))
	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, notice.KindError, last.Kind)
	assert.Equal(t, "Cannot transfer to self", last.Message)
}

func TestView_DownloadQR(t *testing.T) {
	tests := []struct {
		name   string
		qrCode string
	}{
		{name: "raw base64", qrCode: base64.StdEncoding.EncodeToString([]byte("png-bytes"))},
		{name: "data uri", qrCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newViewFixture(t, true)
			acct := f.bank.Account()
			acct.QRCode = tt.qrCode
			f.bank.SetAccount(acct)
			require.NoError(t, f.view.Mount(context.Background()))

			dir := t.TempDir()
			path, err := f.view.DownloadQR(dir)

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "MyQRCode_1000200030.png"), path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []byte("png-bytes"), data)
		})
	}
}

func TestView_DownloadQRErrors(t *testing.T) {
	f := newViewFixture(t, true)

	_, err := f.view.DownloadQR(t.TempDir())
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed), "nothing loaded yet")

	acct := f.bank.Account()
	acct.QRCode = "%%% not base64"
	f.bank.SetAccount(acct)
	require.NoError(t, f.view.Mount(context.Background()))

	_, err = f.view.DownloadQR(t.TempDir())
	assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedPayload))
}

func TestView_Feature(t *testing.T) {
	f := newViewFixture(t, false)

	f.view.Feature("Top up")

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, notice.Info("Top up"), last)
}
