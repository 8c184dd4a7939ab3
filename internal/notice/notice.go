// Package notice is the single user-facing message model shared by every flow.
package notice

import (
	"fmt"
	"sync"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

const (
	TitleInfo    = "System notice"
	TitleError   = "Something went wrong"
	TitleSuccess = "Success"
)

// Notice is a modal-style message: one kind, one title, one body.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (n Notice) String() string {
	return fmt.Sprintf("[%s] %s: %s", n.Kind, n.Title, n.Message)
}

// Info announces a placeholder feature.
func Info(feature string) Notice {
	return Notice{Kind: KindInfo, Title: TitleInfo, Message: fmt.Sprintf("Feature %s is under development", feature)}
}

func Error(message string) Notice {
	return Notice{Kind: KindError, Title: TitleError, Message: message}
}

func Success(message string) Notice {
	return Notice{Kind: KindSuccess, Title: TitleSuccess, Message: message}
}

// Notifier presents notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a plain function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// All returns a copy of the recorded notices.
func (r *Recorder) All() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// OrDiscard returns n, or Discard when n is nil.
func OrDiscard(n Notifier) Notifier {
	if n == nil {
		return Discard
	}
	return n
}
