// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banking-client/internal/api"
	"banking-client/internal/channel"
	"banking-client/internal/common/config"
	"banking-client/internal/common/kvstore"
	"banking-client/internal/common/logger"
	"banking-client/internal/dashboard"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
	"banking-client/internal/testutil"

	signin "banking-client/internal/flows/auth/sign-in"
	preferences "banking-client/internal/flows/settings/preferences"
	sendtransfer "banking-client/internal/flows/transfer/send-transfer"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

// viewLog records every view the router settles on.
type viewLog struct {
	mu    sync.Mutex
	views []router.View
}

func (l *viewLog) add(v router.View, _ router.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.views = append(l.views, v)
}

func (l *viewLog) last() router.View {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.views) == 0 {
		return ""
	}
	return l.views[len(l.views)-1]
}

// client is the whole client assembled the way the terminal binary does it,
// against a fake bank, a fake broker and a miniredis-backed store.
type client struct {
	session  *session.Manager
	router   *router.Router
	views    *viewLog
	notices  *notice.Recorder
	store    *dashboard.Store
	channel  *channel.Channel
	view     *dashboard.View
	signIn   *signin.Service
	transfer *sendtransfer.Service
	prefs    *preferences.Service
}

func newClient(t *testing.T, redisAddr string, bank *testutil.FakeBank, broker *testutil.FakeBroker) *client {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	kv, err := kvstore.Open(ctx, config.StorageConfig{
		Driver:    "redis",
		KeyPrefix: "e2e:",
		Redis:     config.RedisConfig{Address: redisAddr},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.(*kvstore.RedisStore).Close() })

	c := &client{views: &viewLog{}, notices: notice.NewRecorder()}
	c.session = session.NewManager(kv, session.Options{Logger: log})
	c.router = router.New(router.Options{Gate: c.session, OnNavigate: c.views.add, Logger: log})

	restClient, err := api.NewClient(api.Options{
		BaseURL:   bank.URL(),
		Session:   c.session,
		Navigator: c.router,
		Notifier:  c.notices,
		Logger:    log,
	})
	require.NoError(t, err)

	c.store = dashboard.NewStore(restClient, dashboard.StoreOptions{Logger: log})

	chCfg := channel.DefaultConfig()
	chCfg.BrokerURL = broker.URL()
	chCfg.ReconnectDelay = 50 * time.Millisecond
	chCfg.HeartBeat = "0,0"
	c.channel, err = channel.New(channel.Options{Config: chCfg, Sink: c.store, Logger: log})
	require.NoError(t, err)
	t.Cleanup(c.channel.Close)

	c.view, err = dashboard.NewView(dashboard.ViewOptions{
		Session:   c.session,
		Store:     c.store,
		Channel:   c.channel,
		Navigator: c.router,
		Notifier:  c.notices,
		Logger:    log,
	})
	require.NoError(t, err)

	c.signIn, err = signin.NewService(signin.ServiceDependencies{
		Logger: log, API: restClient, Session: c.session, Navigator: c.router, Notifier: c.notices,
	}, nil)
	require.NoError(t, err)
	c.transfer, err = sendtransfer.NewService(sendtransfer.ServiceDependencies{
		Logger: log, API: restClient, Session: c.session, Navigator: c.router, Notifier: c.notices,
	}, nil)
	require.NoError(t, err)
	c.prefs, err = preferences.NewService(preferences.ServiceDependencies{
		Logger: log, Session: c.session, Navigator: c.router, Notifier: c.notices,
	}, nil)
	require.NoError(t, err)

	c.session.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventCleared {
			c.channel.Close()
			c.store.Reset()
		}
	})
	return c
}

func newBank(t *testing.T) *testutil.FakeBank {
	bank := testutil.NewFakeBank(t, testutil.ValidToken())
	bank.SetAccount(&models.Account{
		AccountNumber: "1000200030",
		AccountName:   "NGUYEN DUC HUY",
		AccountType:   models.AccountTypeSavings,
		Currency:      "VND",
		Balance:       testutil.Money("500000"),
	})
	bank.SetNotifications([]models.Notification{
		{ID: "1", Description: "Opening deposit", Amount: testutil.Money("500000"), TransactionDate: models.NewTimestamp(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))},
	})
	bank.SetRecipient("2000300040", "TRAN THI B")
	return bank
}

// ==========================
// Scenarios
// ==========================

func TestE2E_SignInStreamTransferAndExpire(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	bank := newBank(t)
	broker := testutil.NewFakeBroker(t)
	t.Cleanup(broker.Close)
	c := newClient(t, redis.Addr(), bank, broker)

	// Sign in lands on the dashboard.
	out, err := c.signIn.Execute(ctx, &signin.Input{Username: "huy", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, router.Dashboard, out.Next)
	assert.Equal(t, router.Dashboard, c.views.last())

	// Mount loads the account and subscribes with the session token.
	require.NoError(t, c.view.Mount(ctx))
	sub := broker.WaitSubscribed(t, waitFor)
	assert.Equal(t, "/queue/notifications/1000200030", sub.Destination)
	require.Eventually(t, func() bool { return len(broker.Connects()) == 1 }, waitFor, tick)
	assert.Equal(t, "Bearer "+c.session.Token(ctx), broker.Connects()[0])

	state := c.view.State()
	require.NotNil(t, state.Account)
	assert.Equal(t, 1, state.UnreadCount)

	// A streamed credit patches the balance and is listed first.
	require.Eventually(t, func() bool {
		return broker.Send(sub.Destination, `{"id":2,"description":"Received from B","amount":100000,"balance":600000}`) == 1
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		s := c.view.State()
		return len(s.Notifications) == 2 && s.Account.Balance.Equal(testutil.Money("600000"))
	}, waitFor, tick)
	assert.Equal(t, models.ID("2"), c.view.State().Notifications[0].ID)
	assert.Equal(t, 2, c.view.State().UnreadCount)

	// Mark read reaches the server once.
	c.view.MarkRead(ctx, "2")
	c.view.MarkRead(ctx, "2")
	assert.Equal(t, 1, bank.MarkReadCalls("2"))
	assert.Equal(t, 1, c.view.State().UnreadCount)

	// Transfer with the captcha on display.
	form, err := c.transfer.Open(ctx, router.State{})
	require.NoError(t, err)
	receiptOut, err := c.transfer.Execute(ctx, &sendtransfer.Input{
		DestinationAccountNumber: "2000300040",
		Amount:                   testutil.Money("50000"),
		Description:              "lunch",
		Captcha:                  form.Captcha,
	})
	require.NoError(t, err)
	assert.Equal(t, "TX0001", receiptOut.Receipt.TransactionReference)
	assert.Equal(t, "TRAN THI B", receiptOut.Receipt.Recipient())

	// The server starts rejecting the token: the session is cleared once and
	// the client returns to the entry view with the channel closed.
	bank.Override("GET /api/v1/account/1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteMessage(w, http.StatusUnauthorized, "Token expired")
	})
	err = c.view.Refresh(ctx)
	require.Error(t, err)
	assert.Empty(t, c.session.Token(ctx))
	assert.Equal(t, router.Login, c.views.last())
	assert.Equal(t, channel.StateClosed, c.channel.State())
	assert.False(t, c.view.State().Loaded)
	require.Eventually(t, func() bool { return broker.LiveConnections() == 0 }, waitFor, tick)
}

func TestE2E_ForbiddenShowsOneNotice(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	bank := newBank(t)
	broker := testutil.NewFakeBroker(t)
	t.Cleanup(broker.Close)
	c := newClient(t, redis.Addr(), bank, broker)
	denied := notice.Error("You do not have permission to perform this action")

	_, err := c.signIn.Execute(ctx, &signin.Input{Username: "huy", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, c.view.Mount(ctx))
	c.notices.Reset()

	bank.Override("PUT /api/v1/notification/mark-read/1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteMessage(w, http.StatusForbidden, "Access is denied")
	})
	c.view.MarkRead(ctx, "1")

	assert.Equal(t, []notice.Notice{denied}, c.notices.All())
	assert.Equal(t, 1, c.view.State().UnreadCount, "state is unchanged")

	// A flow that reports its own errors does not repeat the notice.
	c.notices.Reset()
	bank.Override("POST /api/v1/transaction/1", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteMessage(w, http.StatusForbidden, "Access is denied")
	})
	form, err := c.transfer.Open(ctx, router.State{})
	require.NoError(t, err)
	_, err = c.transfer.Execute(ctx, &sendtransfer.Input{
		DestinationAccountNumber: "2000300040",
		Amount:                   testutil.Money("50000"),
		Description:              "lunch",
		Captcha:                  form.Captcha,
	})
	require.Error(t, err)

	assert.Equal(t, []notice.Notice{denied}, c.notices.All())
	assert.NotEmpty(t, c.session.Token(ctx), "a 403 keeps the session")
	assert.Equal(t, router.Dashboard, c.views.last())
}

func TestE2E_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	bank := newBank(t)
	broker := testutil.NewFakeBroker(t)
	t.Cleanup(broker.Close)

	first := newClient(t, redis.Addr(), bank, broker)
	_, err := first.signIn.Execute(ctx, &signin.Input{Username: "huy", Password: "secret1"})
	require.NoError(t, err)
	_, err = first.prefs.Execute(ctx, &preferences.Input{Theme: preferences.ThemeDark})
	require.NoError(t, err)

	second := newClient(t, redis.Addr(), bank, broker)

	assert.True(t, second.session.IsSessionValid(ctx))
	assert.Equal(t, router.Dashboard, second.router.Resolve(ctx, router.Login, router.State{}))
	assert.Equal(t, "NGUYEN DUC HUY", second.session.User(ctx).AccountName)
	assert.Equal(t, preferences.ThemeDark, second.prefs.Load(ctx).Theme)

	second.prefs.Logout(ctx)
	assert.False(t, first.session.IsSessionValid(ctx), "both clients share the store")
	assert.Equal(t, preferences.ThemeDark, first.prefs.Load(ctx).Theme)
}

func TestE2E_ExpiredStoredSessionIsDropped(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	bank := newBank(t)
	broker := testutil.NewFakeBroker(t)
	t.Cleanup(broker.Close)
	c := newClient(t, redis.Addr(), bank, broker)

	_, err := c.session.Start(ctx, models.SignInResponse{ID: "1", Username: "huy", JWTToken: testutil.ExpiredToken()}, "")
	require.NoError(t, err)

	assert.Equal(t, router.Login, c.router.Resolve(ctx, router.Login, router.State{}))
	assert.Empty(t, c.session.Token(ctx))
	assert.False(t, redis.Exists("e2e:jwtToken"))
}
