package signin

import (
	"context"
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
	"github.com/stretchr/testify/require"
)

type fixture struct {
	bank      *testutil.FakeBank
	store     *kvstore.MemoryStore
	session   *session.Manager
	navigator *router.Recorder
	notices   *notice.Recorder
	svc       *Service
}

func newFixture(t *testing.T, baseURL string) *fixture {
	t.Helper()
	log := logger.NewTestLogger(t)
	f := &fixture{
		bank:      testutil.NewFakeBank(t, testutil.ValidToken()),
		store:     kvstore.NewMemoryStore(),
		navigator: &router.Recorder{},
		notices:   notice.NewRecorder(),
	}
	if baseURL == "" {
		baseURL = f.bank.URL()
	}
	f.session = session.NewManager(f.store, session.Options{Logger: log})
	client, err := api.NewClient(api.Options{BaseURL: baseURL, Session: f.session, Navigator: f.navigator, Logger: log})
	require.NoError(t, err)

	f.svc, err = NewService(ServiceDependencies{
		Logger:    log,
		API:       client,
		Session:   f.session,
		Navigator: f.navigator,
		Notifier:  f.notices,
	}, DefaultConfig())
	require.NoError(t, err)
	return f
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.ClearOnEntry)
	assert.NoError(t, cfg.Validate())

	cfg.UsernameMaxLength = 0
	assert.Error(t, cfg.Validate())
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(ServiceDependencies{}, nil)
	assert.Error(t, err)
}

func TestService_SignInWithAccount(t *testing.T) {
	f := newFixture(t, "")
	f.bank.SetAccount(&models.Account{AccountNumber: "1000200030", AccountName: "NGUYEN DUC HUY", Currency: "VND"})
	ctx := context.Background()

	out, err := f.svc.Execute(ctx, &Input{Username: " huy ", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, router.Dashboard, out.Next)
	assert.Equal(t, "1000200030", out.Account.AccountNumber)
	assert.Equal(t, testutil.ValidToken(), f.session.Token(ctx))

	user := f.session.User(ctx)
	require.NotNil(t, user)
	assert.Equal(t, models.ID("1"), user.ID)
	assert.Equal(t, "NGUYEN DUC HUY", user.AccountName)

	last, ok := f.navigator.Last()
	require.True(t, ok)
	assert.Equal(t, router.Dashboard, last.View)
	assert.Empty(t, f.notices.All())
}

func TestService_SignInWithoutAccountGoesToCreateAccount(t *testing.T) {
	f := newFixture(t, "")
	f.bank.SetAccount(nil)
	ctx := context.Background()

	out, err := f.svc.Execute(ctx, &Input{Username: "huy", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, router.CreateAccount, out.Next)
	assert.Nil(t, out.Account)

	last, ok := f.navigator.Last()
	require.True(t, ok)
	assert.Equal(t, router.CreateAccount, last.View)
	assert.Equal(t, models.ID("1"), last.State.UserID)

	user := f.session.User(ctx)
	require.NotNil(t, user)
	assert.Empty(t, user.AccountName)
	assert.NotEmpty(t, f.session.Token(ctx), "the token stays for account creation")
}

func TestService_BadCredentials(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, &Input{Username: "huy", Password: "wrong-password"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBadCredentials))
	assert.Empty(t, f.navigator.Calls)
	assert.Empty(t, f.session.Token(ctx))

	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, notice.Error("Wrong username or password"), last)
}

func TestService_InputValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   *Input
		wantMsg string
	}{
		{name: "nil input", input: nil, wantMsg: "Username is required"},
		{name: "missing username", input: &Input{Password: "secret1"}, wantMsg: "Username is required"},
		{name: "blank username", input: &Input{Username: "   ", Password: "secret1"}, wantMsg: "Username is required"},
		{name: "missing password", input: &Input{Username: "huy"}, wantMsg: "Password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")

			_, err := f.svc.Execute(context.Background(), tt.input)

			require.Error(t, err)
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
			assert.Empty(t, f.bank.Requests(), "nothing is sent for invalid input")
		})
	}
}

func TestService_ServerUnreachable(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1")

	_, err := f.svc.Execute(context.Background(), &Input{Username: "huy", Password: "secret1"})

	require.Error(t, err)
	last, ok := f.notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Could not reach the server, please try again", last.Message)
}

func TestService_EnterClearsLocalStore(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, kvstore.KeyToken, "stale"))
	require.NoError(t, f.store.Set(ctx, kvstore.KeyTheme, "dark"))

	f.svc.Enter(ctx)

	assert.Equal(t, 0, f.store.Len())
}
