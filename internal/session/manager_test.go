package session

import (
	"context"
	"testing"
	"time"

	"banking-client/internal/common/kvstore"
	"banking-client/internal/common/logger"
	"banking-client/internal/models"
	"banking-client/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Token Tests
// ==========================

func TestDecodeExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	got, err := DecodeExpiry(testutil.Token(exp))
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	_, err = DecodeExpiry(testutil.TokenWithoutExpiry())
	assert.ErrorIs(t, err, ErrNoExpiry)

	_, err = DecodeExpiry("not-a-token")
	assert.Error(t, err)
}

func TestCleanToken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain token", raw: "aaa.bbb.ccc", want: "aaa.bbb.ccc"},
		{name: "cookie form", raw: "jwt=aaa.bbb.ccc; Path=/api; Max-Age=86400; HttpOnly", want: "aaa.bbb.ccc"},
		{name: "value contains equals", raw: "jwt=aaa.bbb=; Path=/", want: "aaa.bbb="},
		{name: "semicolon without name", raw: "aaa.bbb.ccc; Path=/", want: "aaa.bbb.ccc; Path=/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanToken(tt.raw))
		})
	}
}

// ==========================
// Gate Tests
// ==========================

func newManager(t *testing.T) (*Manager, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	return NewManager(store, Options{Logger: logger.NewTestLogger(t)}), store
}

func TestManager_IsSessionValid(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		want      bool
		wantClear bool
	}{
		{name: "no token", token: "", want: false},
		{name: "unexpired token", token: testutil.ValidToken(), want: true},
		{name: "expired token", token: testutil.ExpiredToken(), want: false, wantClear: true},
		{name: "malformed token", token: "garbage", want: false, wantClear: true},
		{name: "token without expiry", token: testutil.TokenWithoutExpiry(), want: false, wantClear: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, store := newManager(t)
			if tt.token != "" {
				require.NoError(t, store.Set(ctx, kvstore.KeyToken, tt.token))
				require.NoError(t, store.Set(ctx, kvstore.KeyUser, `{"id": 1}`))
			}
			require.NoError(t, store.Set(ctx, kvstore.KeyTheme, "dark"))

			var events []Event
			m.Subscribe(func(ev Event) { events = append(events, ev) })

			assert.Equal(t, tt.want, m.IsSessionValid(ctx))

			if tt.wantClear {
				_, err := store.Get(ctx, kvstore.KeyToken)
				assert.ErrorIs(t, err, kvstore.ErrNotFound)
				_, err = store.Get(ctx, kvstore.KeyUser)
				assert.ErrorIs(t, err, kvstore.ErrNotFound)
				require.Len(t, events, 1)
				assert.Equal(t, EventCleared, events[0].Kind)
			} else {
				assert.Empty(t, events)
			}

			theme, err := store.Get(ctx, kvstore.KeyTheme)
			require.NoError(t, err)
			assert.Equal(t, "dark", theme)
		})
	}
}

func TestManager_IsSessionValid_UsesClock(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	exp := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	now := exp.Add(-time.Second)
	m := NewManager(store, Options{Logger: logger.NewTestLogger(t), Now: func() time.Time { return now }})

	require.NoError(t, store.Set(ctx, kvstore.KeyToken, testutil.Token(exp)))
	assert.True(t, m.IsSessionValid(ctx))

	now = exp
	assert.False(t, m.IsSessionValid(ctx))
}

// ==========================
// Lifecycle Tests
// ==========================

func TestManager_StartAndClear(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	token := testutil.ValidToken()

	var kinds []EventKind
	unsubscribe := m.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	sess, err := m.Start(ctx, models.SignInResponse{
		ID:       "12",
		JWTToken: "bank_jwt=" + token + "; Path=/; HttpOnly",
		Roles:    []string{"ROLE_USER"},
		Username: "huy",
	}, "NGUYEN DUC HUY")
	require.NoError(t, err)

	assert.Equal(t, token, sess.Token)
	assert.False(t, sess.ExpiresAt.IsZero())
	assert.Equal(t, token, m.Token(ctx))

	user := m.User(ctx)
	require.NotNil(t, user)
	assert.Equal(t, models.ID("12"), user.ID)
	assert.Equal(t, "NGUYEN DUC HUY", user.DisplayName())

	current := m.Current(ctx)
	require.NotNil(t, current)
	assert.True(t, current.Valid(time.Now()))

	require.NoError(t, store.Set(ctx, kvstore.KeyLanguage, "en"))
	require.NoError(t, m.Clear(ctx, ReasonUnauthorized))
	assert.Equal(t, 0, store.Len())
	assert.Nil(t, m.Current(ctx))

	unsubscribe()
	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, []EventKind{EventStarted, EventCleared}, kinds)
}

func TestManager_LogoutKeepsPreferences(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	_, err := m.Start(ctx, models.SignInResponse{ID: "1", JWTToken: testutil.ValidToken(), Username: "a"}, "")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, kvstore.KeyTheme, "dark"))

	require.NoError(t, m.Logout(ctx))

	assert.Empty(t, m.Token(ctx))
	assert.Nil(t, m.User(ctx))
	assert.Equal(t, "dark", kvstore.GetOr(ctx, store, kvstore.KeyTheme, ""))
}

func TestManager_StartRejectsEmptyToken(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Start(context.Background(), models.SignInResponse{ID: "1"}, "")
	assert.Error(t, err)
}
