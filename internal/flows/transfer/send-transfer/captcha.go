package sendtransfer

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// CaptchaStore holds the challenge shown on the transfer form. There is one
// live challenge at a time; a wrong answer replaces it.
type CaptchaStore struct {
	mu       sync.Mutex
	alphabet string
	length   int
	current  *CaptchaData
	intn     func(n int) int
}

type CaptchaData struct {
	Value     string
	CreatedAt time.Time
	Attempts  int
}

func NewCaptchaStore(length int, alphabet string) *CaptchaStore {
	cs := &CaptchaStore{alphabet: alphabet, length: length, intn: rand.IntN}
	cs.Generate()
	return cs
}

// Generate replaces the challenge and returns the new code.
func (cs *CaptchaStore) Generate() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.generateLocked()
}

func (cs *CaptchaStore) generateLocked() string {
	var b strings.Builder
	b.Grow(cs.length)
	for i := 0; i < cs.length; i++ {
		b.WriteByte(cs.alphabet[cs.intn(len(cs.alphabet))])
	}
	cs.current = &CaptchaData{Value: b.String(), CreatedAt: time.Now()}
	return cs.current.Value
}

// Current returns the code on display.
func (cs *CaptchaStore) Current() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.current.Value
}

// Verify compares value case-insensitively. A mismatch regenerates the
// challenge before returning false.
func (cs *CaptchaStore) Verify(value string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	inputValue := strings.ToUpper(strings.TrimSpace(value))
	storedValue := strings.ToUpper(cs.current.Value)
	if inputValue == "" || inputValue != storedValue {
		cs.current.Attempts++
		cs.generateLocked()
		return false
	}
	return true
}
