// Package session owns the locally stored credential and user profile.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"banking-client/internal/common/kvstore"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/metrics"
	"banking-client/internal/models"
)

// Clear reasons.
const (
	ReasonExpired      = "expired"
	ReasonMalformed    = "malformed"
	ReasonUnauthorized = "unauthorized"
	ReasonLogout       = "logout"
	ReasonSignIn       = "sign_in"
)

type EventKind int

const (
	EventStarted EventKind = iota
	EventCleared
)

// Event is sent to subscribers when the session starts or is cleared.
type Event struct {
	Kind   EventKind
	Reason string
}

type Options struct {
	Logger logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager is the single owner of session state. It is safe for concurrent use.
type Manager struct {
	store  kvstore.Store
	logger logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

func NewManager(store kvstore.Store, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:     store,
		logger:    logger.OrDefault(opts.Logger),
		now:       now,
		listeners: make(map[int]func(Event)),
	}
}

// Store returns the backing store.
func (m *Manager) Store() kvstore.Store {
	return m.store
}

// Start stores the token and profile from a sign-in response.
func (m *Manager) Start(ctx context.Context, resp models.SignInResponse, accountName string) (*models.Session, error) {
	token := CleanToken(resp.JWTToken)
	if token == "" {
		return nil, fmt.Errorf("sign-in response has no token")
	}
	if err := m.store.Set(ctx, kvstore.KeyToken, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	user := models.User{ID: resp.ID, Username: resp.Username, Roles: resp.Roles, AccountName: accountName}
	if err := kvstore.SetJSON(ctx, m.store, kvstore.KeyUser, user); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}

	sess := &models.Session{Token: token, User: &user}
	if exp, err := DecodeExpiry(token); err == nil {
		sess.ExpiresAt = exp
	} else {
		m.logger.Warn("Signed-in token has no readable expiry", map[string]interface{}{"error": err.Error()})
	}

	m.logger.Info("Session started", map[string]interface{}{
		"userId":   user.ID.String(),
		"username": user.Username,
	})
	m.emit(Event{Kind: EventStarted, Reason: ReasonSignIn})
	return sess, nil
}

// SetUser replaces the cached profile.
func (m *Manager) SetUser(ctx context.Context, user models.User) error {
	return kvstore.SetJSON(ctx, m.store, kvstore.KeyUser, user)
}

// Token returns the stored token, or "".
func (m *Manager) Token(ctx context.Context) string {
	token, err := m.store.Get(ctx, kvstore.KeyToken)
	if err != nil {
		return ""
	}
	return token
}

// User returns the cached profile, or nil when there is none.
func (m *Manager) User(ctx context.Context) *models.User {
	var user models.User
	if err := kvstore.GetJSON(ctx, m.store, kvstore.KeyUser, &user); err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			m.logger.Warn("Cached user profile is unreadable", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}
	return &user
}

// Current returns the stored session without judging its validity.
func (m *Manager) Current(ctx context.Context) *models.Session {
	token := m.Token(ctx)
	if token == "" {
		return nil
	}
	sess := &models.Session{Token: token, User: m.User(ctx)}
	if exp, err := DecodeExpiry(token); err == nil {
		sess.ExpiresAt = exp
	}
	return sess
}

// IsSessionValid reports whether an unexpired token is stored. An expired or
// unreadable token is removed along with the profile. It never fails.
func (m *Manager) IsSessionValid(ctx context.Context) bool {
	token := m.Token(ctx)
	if token == "" {
		return false
	}

	exp, err := DecodeExpiry(token)
	if err != nil {
		m.invalidate(ctx, ReasonMalformed)
		return false
	}
	if !exp.After(m.now()) {
		m.invalidate(ctx, ReasonExpired)
		return false
	}
	return true
}

func (m *Manager) invalidate(ctx context.Context, reason string) {
	if err := m.store.Del(ctx, kvstore.KeyToken, kvstore.KeyUser); err != nil {
		m.logger.Warn("Failed to remove stale session", map[string]interface{}{"error": err.Error()})
	}
	metrics.SessionExpirations.WithLabelValues(reason).Inc()
	m.logger.Info("Stored session discarded", map[string]interface{}{"reason": reason})
	m.emit(Event{Kind: EventCleared, Reason: reason})
}

// Clear wipes the whole local store.
func (m *Manager) Clear(ctx context.Context, reason string) error {
	err := m.store.Clear(ctx)
	if err != nil {
		m.logger.Error("Failed to clear local store", map[string]interface{}{"error": err.Error()})
	}
	if reason == ReasonUnauthorized {
		metrics.SessionExpirations.WithLabelValues(reason).Inc()
	}
	m.emit(Event{Kind: EventCleared, Reason: reason})
	return err
}

// Logout removes the token and profile; preferences stay.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Del(ctx, kvstore.KeyToken, kvstore.KeyUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.logger.Info("Logged out", nil)
	m.emit(Event{Kind: EventCleared, Reason: ReasonLogout})
	return nil
}

// Subscribe registers fn for session events and returns a func that removes it.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
