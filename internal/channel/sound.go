package channel

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"banking-client/internal/common/config"
)

// Sounder plays the notification cue. Play restarts the cue from the
// beginning if it is already playing.
type Sounder interface {
	Play(ctx context.Context) error
	Stop()
}

// NewSounder picks the cue from cfg: a player command, the terminal bell, or nothing.
func NewSounder(cfg config.SoundConfig) Sounder {
	if !cfg.Enabled {
		return Nop{}
	}
	if cfg.Command != "" {
		return &CommandPlayer{Command: cfg.Command, Args: cfg.Args}
	}
	return &Bell{Out: os.Stdout}
}

type Nop struct{}

func (Nop) Play(context.Context) error { return nil }
func (Nop) Stop()                      {}

// Gated plays Inner only while Enabled reports true.
type Gated struct {
	Inner   Sounder
	Enabled func(ctx context.Context) bool
}

func (g Gated) Play(ctx context.Context) error {
	if g.Enabled != nil && !g.Enabled(ctx) {
		return nil
	}
	return g.Inner.Play(ctx)
}

func (g Gated) Stop() { g.Inner.Stop() }

// Bell writes the BEL character.
type Bell struct {
	Out io.Writer
	mu  sync.Mutex
}

func (b *Bell) Play(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.Out.Write([]byte{'\a'})
	return err
}

func (b *Bell) Stop() {}

// CommandPlayer runs an external player, e.g. "paplay notify.wav".
type CommandPlayer struct {
	Command string
	Args    []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (p *CommandPlayer) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Command, err)
	}
	p.cmd = cmd
	go func() {
		_ = cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
	}()
	return nil
}

// Stop kills a cue that is still playing.
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
}

// Playing reports whether a cue process is running.
func (p *CommandPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

func (p *CommandPlayer) killLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
}
