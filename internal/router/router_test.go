package router

import (
	"context"
	"testing"

	"banking-client/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

type fakeGate struct {
	valid bool
	calls int
}

func (g *fakeGate) IsSessionValid(context.Context) bool {
	g.calls++
	return g.valid
}

func TestRouter_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		view  View
		state State
		want  View
	}{
		{name: "login while signed out", valid: false, view: Login, want: Login},
		{name: "login while signed in", valid: true, view: Login, want: Dashboard},
		{name: "register while signed in", valid: true, view: Register, want: Dashboard},
		{name: "create account while signed in", valid: true, view: CreateAccount, want: Dashboard},
		{name: "create account handoff", valid: true, view: CreateAccount, state: State{UserID: "9"}, want: CreateAccount},
		{name: "dashboard while signed out", valid: false, view: Dashboard, want: Dashboard},
		{name: "transfer while signed out", valid: false, view: Transfer, want: Transfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{Gate: &fakeGate{valid: tt.valid}, Logger: logger.NewTestLogger(t)})
			assert.Equal(t, tt.want, r.Resolve(context.Background(), tt.view, tt.state))
		})
	}
}

func TestRouter_AuthenticatedViewsSkipGate(t *testing.T) {
	gate := &fakeGate{valid: false}
	r := New(Options{Gate: gate, Logger: logger.NewTestLogger(t)})

	r.Navigate(context.Background(), Settings, State{})

	assert.Equal(t, 0, gate.calls)
	view, _ := r.Current()
	assert.Equal(t, Settings, view)
}

func TestRouter_NavigateCallsBack(t *testing.T) {
	var got []View
	r := New(Options{
		Gate:       &fakeGate{valid: true},
		Logger:     logger.NewTestLogger(t),
		OnNavigate: func(v View, _ State) { got = append(got, v) },
	})

	r.Navigate(context.Background(), Transfer, State{ScannedAccount: "0123"})
	r.Navigate(context.Background(), Login, State{})

	assert.Equal(t, []View{Transfer, Dashboard}, got)
	view, state := r.Current()
	assert.Equal(t, Dashboard, view)
	assert.Empty(t, state.ScannedAccount)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Navigate(context.Background(), Login, State{})
	rec.Navigate(context.Background(), Dashboard, State{})
	rec.Navigate(context.Background(), Login, State{})

	assert.Equal(t, 2, rec.Count(Login))
	last, ok := rec.Last()
	assert.True(t, ok)
	assert.Equal(t, Login, last.View)
}
