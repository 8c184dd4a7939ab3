// Package dashboard holds the account and notification state shown after sign-in.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"banking-client/internal/common/logger"
	"banking-client/internal/models"

	"golang.org/x/sync/errgroup"
)

// API is the subset of the REST client the store needs.
type API interface {
	GetAccount(ctx context.Context, userID models.ID) (*models.Account, error)
	GetNotifications(ctx context.Context, userID models.ID) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id models.ID) error
}

// State is an immutable copy of the store.
type State struct {
	Loaded        bool
	Account       *models.Account
	Notifications []models.Notification
	UnreadCount   int
}

type Listener func(State)

type StoreOptions struct {
	Logger logger.Logger
}

// Store is the single owner of dashboard state. Every balance write is
// stamped with a sequence number: REST results are stamped when the request
// is issued and streamed events when they arrive, and an older stamp never
// overwrites a newer balance.
type Store struct {
	api    API
	logger logger.Logger
	seq    atomic.Uint64

	mu            sync.Mutex
	loaded        bool
	account       *models.Account
	notifications []models.Notification
	balanceSeq    uint64
	inFlight      map[models.ID]struct{}
	listeners     map[int]Listener
	nextListener  int
	version       uint64

	// publishMu orders deliveries; published is the newest version delivered.
	publishMu sync.Mutex
	published uint64
}

// change is a snapshot taken right after a mutation, numbered in mutation order.
type change struct {
	state   State
	version uint64
}

func NewStore(api API, opts StoreOptions) *Store {
	return &Store{
		api:       api,
		logger:    logger.OrDefault(opts.Logger),
		inFlight:  make(map[models.ID]struct{}),
		listeners: make(map[int]Listener),
	}
}

// LoadInitial fetches the account and the notification list concurrently.
// Both must succeed; on any failure the store is left untouched.
func (s *Store) LoadInitial(ctx context.Context, userID models.ID) error {
	issued := s.seq.Add(1)

	var (
		account *models.Account
		list    []models.Notification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.api.GetAccount(gctx, userID)
		account = a
		return err
	})
	g.Go(func() error {
		l, err := s.api.GetNotifications(gctx, userID)
		list = l
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Dashboard load failed", map[string]interface{}{
			"userId": userID.String(),
			"error":  err.Error(),
		})
		return err
	}
	if account == nil {
		return fmt.Errorf("account response was empty")
	}

	list = append([]models.Notification(nil), list...)
	models.SortByDateDesc(list)
	acct := *account

	s.mu.Lock()
	if !s.loaded && len(s.notifications) > 0 {
		list = mergeEarly(s.notifications, list)
	}
	if s.account != nil && s.balanceSeq > issued {
		acct.Balance = s.account.Balance
	} else {
		s.balanceSeq = issued
	}
	s.account = &acct
	s.notifications = list
	s.loaded = true
	c := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("Dashboard loaded", map[string]interface{}{
		"accountNumber": acct.AccountNumber,
		"notifications": len(list),
		"unread":        c.state.UnreadCount,
	})
	s.publish(c)
	return nil
}

// mergeEarly keeps events streamed before the list arrived, newest first.
func mergeEarly(early, list []models.Notification) []models.Notification {
	seen := make(map[models.ID]struct{}, len(list))
	for _, n := range list {
		seen[n.ID] = struct{}{}
	}
	out := make([]models.Notification, 0, len(early)+len(list))
	for _, n := range early {
		if _, ok := seen[n.ID]; !ok || n.ID.IsZero() {
			out = append(out, n)
		}
	}
	return append(out, list...)
}

// Refresh re-fetches the account. A balance streamed after the request was
// issued is kept.
func (s *Store) Refresh(ctx context.Context, userID models.ID) (*models.Account, error) {
	issued := s.seq.Add(1)
	account, err := s.api.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	acct := *account

	s.mu.Lock()
	if s.account != nil && s.balanceSeq > issued {
		acct.Balance = s.account.Balance
	} else {
		s.balanceSeq = issued
	}
	s.account = &acct
	c := s.changeLocked()
	s.mu.Unlock()

	s.publish(c)
	out := acct
	return &out, nil
}

// ApplyEvent prepends a streamed notification and, when it carries a
// balance, patches the account balance. Other account fields are untouched.
func (s *Store) ApplyEvent(n models.Notification) {
	s.mu.Lock()
	list := make([]models.Notification, 0, len(s.notifications)+1)
	list = append(list, n)
	s.notifications = append(list, s.notifications...)

	if n.Balance != nil && s.account != nil {
		acct := *s.account
		acct.Balance = *n.Balance
		s.account = &acct
		s.balanceSeq = s.seq.Add(1)
	}
	c := s.changeLocked()
	s.mu.Unlock()

	s.publish(c)
}

// MarkRead acknowledges one notification. Already-read entries and calls
// for an id that is already being acknowledged send nothing. A failed
// acknowledgement is logged and leaves the state unchanged.
func (s *Store) MarkRead(ctx context.Context, id models.ID) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 || s.notifications[idx].IsRead {
		s.mu.Unlock()
		return
	}
	if _, busy := s.inFlight[id]; busy {
		s.mu.Unlock()
		return
	}
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()

	err := s.api.MarkNotificationRead(ctx, id)

	s.mu.Lock()
	delete(s.inFlight, id)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Mark read failed", map[string]interface{}{
			"id":    id.String(),
			"error": err.Error(),
		})
		return
	}
	if idx = s.indexLocked(id); idx >= 0 {
		list := append([]models.Notification(nil), s.notifications...)
		list[idx].IsRead = true
		s.notifications = list
	}
	c := s.changeLocked()
	s.mu.Unlock()

	s.publish(c)
}

func (s *Store) indexLocked(id models.ID) int {
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) changeLocked() change {
	s.version++
	return change{state: s.snapshotLocked(), version: s.version}
}

func (s *Store) snapshotLocked() State {
	state := State{
		Loaded:        s.loaded,
		Notifications: append([]models.Notification(nil), s.notifications...),
		UnreadCount:   models.CountUnread(s.notifications),
	}
	if s.account != nil {
		acct := *s.account
		state.Account = &acct
	}
	return state
}

// UnreadCount is derived from the list on every call.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CountUnread(s.notifications)
}

// Reset drops all state, e.g. on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.loaded = false
	s.account = nil
	s.notifications = nil
	s.balanceSeq = 0
	c := s.changeLocked()
	s.mu.Unlock()

	s.publish(c)
}

// Subscribe registers fn for state changes and returns a func that removes it.
// Deliveries are serialized; fn must not mutate the store.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// publish delivers c to the listeners unless a newer change was already
// delivered, so listeners never step back to an older state.
func (s *Store) publish(c change) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if c.version <= s.published {
		return
	}
	s.published = c.version

	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c.state)
	}
}
