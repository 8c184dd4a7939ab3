package updateaccount

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

func newService(t *testing.T, signedIn bool) (*Service, *testutil.FakeBank, *session.Manager, *router.Recorder, *notice.Recorder) {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)
	bank := testutil.NewFakeBank(t, testutil.ValidToken())
	bank.SetAccount(&models.Account{
		AccountNumber: "1000200030",
		AccountName:   "NGUYEN DUC HUY",
		AccountType:   models.AccountTypeSavings,
		Currency:      "VND",
		Balance:       testutil.Money("500000"),
	})
	nav := &router.Recorder{}
	notices := notice.NewRecorder()
	sess := session.NewManager(kvstore.NewMemoryStore(), session.Options{Logger: log})
	client, err := api.NewClient(api.Options{BaseURL: bank.URL(), Session: sess, Navigator: nav, Logger: log})
	require.NoError(t, err)

	if signedIn {
		resp, err := client.SignIn(ctx, models.SignInRequest{Username: "huy", Password: "secret1"})
		require.NoError(t, err)
		_, err = sess.Start(ctx, *resp, "NGUYEN DUC HUY")
		require.NoError(t, err)
	}

	svc, err := NewService(ServiceDependencies{Logger: log, API: client, Session: sess, Navigator: nav, Notifier: notices}, nil)
	require.NoError(t, err)
	return svc, bank, sess, nav, notices
}

func TestService_LoadAndUpdate(t *testing.T) {
	svc, bank, sess, nav, notices := newService(t, true)
	ctx := context.Background()

	form, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NGUYEN DUC HUY", form.AccountName)
	assert.True(t, form.InitialDeposit.Equal(testutil.Money("500000")))

	form.AccountName = "NGUYEN VAN HUY"
	form.AccountType = models.AccountTypeChecking
	out, err := svc.Execute(ctx, form)

	require.NoError(t, err)
	assert.Equal(t, "NGUYEN VAN HUY", out.Account.AccountName)
	assert.Equal(t, models.AccountTypeChecking, bank.Account().AccountType)
	assert.Equal(t, "NGUYEN VAN HUY", sess.User(ctx).AccountName)
	assert.Equal(t, []notice.Notice{notice.Success("Account updated successfully!")}, notices.All())
	assert.Equal(t, 1, nav.Count(router.Settings))

	reqs := bank.AccountRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, models.ID("1"), reqs[0].UserID)
}

func TestService_Validation(t *testing.T) {
	svc, bank, _, _, notices := newService(t, true)

	_, err := svc.Execute(context.Background(), &Input{AccountName: "  ", AccountType: models.AccountTypeSavings, Currency: "VND"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.Empty(t, bank.AccountRequests())
	last, ok := notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Account name is required", last.Message)
}

func TestService_RequiresUser(t *testing.T) {
	svc, _, _, nav, _ := newService(t, false)

	_, err := svc.Execute(context.Background(), &Input{AccountName: "A", AccountType: models.AccountTypeSavings, Currency: "VND"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionExpired))
	assert.Equal(t, 1, nav.Count(router.Login))
}
