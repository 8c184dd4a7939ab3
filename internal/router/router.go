// Package router maps client views and applies the guest-only session gate.
package router

import (
	"context"
	"sync"

	"banking-client/internal/common/logger"
	"banking-client/internal/models"
)

// View identifies a screen of the client by its path.
type View string

const (
	Login         View = "/"
	Register      View = "/register"
	CreateAccount View = "/create-account"
	Dashboard     View = "/dashboard"
	Transfer      View = "/transfer"
	Settings      View = "/settings"
	UpdateAccount View = "/update-account"
)

// IsGuestOnly reports whether view is only shown to signed-out users.
// Other views are reachable without a client-side check; the server
// enforces authorization for them.
func IsGuestOnly(view View) bool {
	switch view {
	case Login, Register, CreateAccount:
		return true
	}
	return false
}

// State is carried along with a navigation.
type State struct {
	ScannedAccount string
	UserID         models.ID
}

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(ctx context.Context, view View, state State)
}

// Gate reports whether a usable session is stored.
type Gate interface {
	IsSessionValid(ctx context.Context) bool
}

// Options configures a Router.
type Options struct {
	Gate       Gate
	OnNavigate func(view View, state State)
	Logger     logger.Logger
}

// Router keeps the current view and applies the guest-only gate.
type Router struct {
	gate       Gate
	onNavigate func(View, State)
	logger     logger.Logger

	mu      sync.Mutex
	current View
	state   State
}

func New(opts Options) *Router {
	return &Router{
		gate:       opts.Gate,
		onNavigate: opts.OnNavigate,
		logger:     logger.OrDefault(opts.Logger),
		current:    Login,
	}
}

// Resolve returns the view that is actually shown for a request to view.
// A guest-only view resolves to Dashboard while the session is valid. The
// sign-in handoff to CreateAccount, which carries the user id, is let through.
func (r *Router) Resolve(ctx context.Context, view View, state State) View {
	if !IsGuestOnly(view) || r.gate == nil {
		return view
	}
	if view == CreateAccount && !state.UserID.IsZero() {
		return view
	}
	if r.gate.IsSessionValid(ctx) {
		return Dashboard
	}
	return view
}

func (r *Router) Navigate(ctx context.Context, view View, state State) {
	resolved := r.Resolve(ctx, view, state)
	if resolved != view {
		r.logger.Debug("Guest-only view redirected", map[string]interface{}{
			"requested": string(view),
			"resolved":  string(resolved),
		})
		state = State{}
	}

	r.mu.Lock()
	r.current = resolved
	r.state = state
	cb := r.onNavigate
	r.mu.Unlock()

	if cb != nil {
		cb(resolved, state)
	}
}

// Current returns the view last navigated to and its state.
func (r *Router) Current() (View, State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.state
}

// Recorder is a Navigator that records every call.
type Recorder struct {
	mu    sync.Mutex
	Calls []Call
}

type Call struct {
	View  View
	State State
}

func (n *Recorder) Navigate(_ context.Context, view View, state State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, Call{View: view, State: state})
}

// Count returns how many times view was navigated to.
func (n *Recorder) Count(view View) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, c := range n.Calls {
		if c.View == view {
			count++
		}
	}
	return count
}

// Last returns the most recent call.
func (n *Recorder) Last() (Call, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Calls) == 0 {
		return Call{}, false
	}
	return n.Calls[len(n.Calls)-1], true
}
