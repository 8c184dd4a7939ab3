// Package channel keeps the STOMP push subscription for the signed-in account.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"banking-client/internal/common/logger"
	"banking-client/internal/common/metrics"
	"banking-client/internal/models"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sink receives every notification decoded from the stream.
type Sink interface {
	ApplyEvent(n models.Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(models.Notification)

func (f SinkFunc) ApplyEvent(n models.Notification) { f(n) }

type Options struct {
	Config  *Config
	Dialer  Dialer
	Sink    Sink
	Sounder Sounder
	Logger  logger.Logger
	// OnStateChange is called after every state transition.
	OnStateChange func(State)
}

// Channel owns at most one live subscription. Open and Close may be called
// from any goroutine.
type Channel struct {
	config        *Config
	dialer        Dialer
	sink          Sink
	sounder       Sounder
	logger        logger.Logger
	onStateChange func(State)

	// opMu serializes Open and Close.
	opMu sync.Mutex

	mu      sync.Mutex
	state   State
	account string
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(opts Options) (*Channel, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid channel config: %w", err)
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = WebSocketDialer{HandshakeTimeout: cfg.HandshakeTimeout}
	}
	sounder := opts.Sounder
	if sounder == nil {
		sounder = Nop{}
	}

	return &Channel{
		config:        cfg,
		dialer:        dialer,
		sink:          opts.Sink,
		sounder:       sounder,
		logger:        logger.OrDefault(opts.Logger),
		onStateChange: opts.OnStateChange,
		state:         StateIdle,
	}, nil
}

// Open subscribes to the account's notifications, presenting token once
// at connect. Opening the account that is already open does nothing; a
// different account replaces the current subscription.
func (c *Channel) Open(accountNumber, token string) error {
	if accountNumber == "" {
		return fmt.Errorf("account number is required")
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	active := c.cancel != nil
	same := c.account == accountNumber
	c.mu.Unlock()

	if active && same {
		return nil
	}
	if active {
		c.logger.Info("Push channel switching account", map[string]interface{}{
			"from": c.Account(),
			"to":   accountNumber,
		})
		c.stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.account = accountNumber
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.setState(StateConnecting)
	go c.run(ctx, accountNumber, token, done)
	return nil
}

// Close ends the subscription and stops any cue in progress. When it
// returns no reconnect is pending and the sink receives nothing more.
func (c *Channel) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stop()

	c.mu.Lock()
	wasClosed := c.state == StateClosed
	c.account = ""
	c.mu.Unlock()

	if !wasClosed {
		c.setState(StateClosed)
		c.logger.Info("Push channel closed", nil)
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Account returns the subscribed account number, or "" when not open.
func (c *Channel) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// stop cancels the running subscription and waits for it to exit.
func (c *Channel) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	c.sounder.Stop()
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	cb := c.onStateChange
	c.mu.Unlock()

	if !changed {
		return
	}
	metrics.ChannelState.Set(float64(s))
	if cb != nil {
		cb(s)
	}
}

// setActiveState only applies while ctx is live, so a finished
// subscription never overwrites Closed.
func (c *Channel) setActiveState(ctx context.Context, s State) {
	if ctx.Err() != nil {
		return
	}
	c.setState(s)
}

// ==========================
// Subscription loop
// ==========================

func (c *Channel) run(ctx context.Context, accountNumber, token string, done chan struct{}) {
	defer close(done)

	topic := c.config.Topic(accountNumber)
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.setActiveState(ctx, StateReconnecting)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.config.ReconnectDelay):
			}
			metrics.ChannelReconnects.Inc()
			c.setActiveState(ctx, StateConnecting)
		}

		err := c.session(ctx, topic, token)
		if ctx.Err() != nil {
			return
		}

		fields := map[string]interface{}{
			"account":    accountNumber,
			"retryAfter": c.config.ReconnectDelay.String(),
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		if errors.Is(err, ErrBrokerError) {
			c.logger.Error("Push channel protocol error", fields)
		} else {
			c.logger.Warn("Push channel disconnected", fields)
		}
	}
}

// session runs one connection until it fails or ctx is cancelled.
func (c *Channel) session(ctx context.Context, topic, token string) error {
	conn, err := c.dialer.Dial(ctx, c.config.BrokerURL, nil)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	stopWatch := context.AfterFunc(ctx, func() {
		if data, err := EncodeFrame(frame.New(frame.DISCONNECT)); err == nil {
			_ = conn.WriteMessage(data)
		}
		_ = conn.Close()
	})
	defer func() {
		stopWatch()
		_ = conn.Close()
	}()

	stopReads := make(chan struct{})
	defer close(stopReads)
	messages := readPump(conn, stopReads)

	if err := writeFrame(conn, connectFrame(c.config.BrokerURL, token, c.config.HeartBeat)); err != nil {
		return err
	}
	serverHeartBeat, err := awaitConnected(ctx, messages, c.config.HandshakeTimeout)
	if err != nil {
		return err
	}
	if err := writeFrame(conn, subscribeFrame(uuid.NewString(), topic)); err != nil {
		return err
	}

	if interval := sendInterval(c.config.HeartBeat, serverHeartBeat); interval > 0 {
		hbCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go heartBeat(hbCtx, conn, interval)
	}

	// Any message, heart-beats included, proves the broker is alive.
	var readTimeout time.Duration
	if interval := receiveInterval(c.config.HeartBeat, serverHeartBeat); interval > 0 {
		readTimeout = 2 * interval
	}

	c.setActiveState(ctx, StateConnected)
	c.logger.Info("Push channel subscribed", map[string]interface{}{"topic": topic})

	for {
		data, err := nextMessage(ctx, messages, readTimeout)
		if err != nil {
			return err
		}
		frames, err := DecodeFrames(data)
		if err != nil {
			metrics.ChannelMessages.WithLabelValues(metrics.ResultMalformed).Inc()
			c.logger.Warn("Unreadable STOMP frame", map[string]interface{}{"error": err.Error()})
		}
		for _, f := range frames {
			switch f.Command {
			case frame.MESSAGE:
				c.handleMessage(ctx, f.Body)
			case frame.ERROR:
				return brokerError(f)
			}
		}
	}
}

func heartBeat(ctx context.Context, conn Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage([]byte{'\n'}); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one notification. A bad message is counted and
// logged and never ends the subscription.
func (c *Channel) handleMessage(ctx context.Context, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ChannelMessages.WithLabelValues(metrics.ResultMalformed).Inc()
			c.logger.Error("Notification handler panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
		}
	}()

	n, err := DecodeNotification(body)
	if err != nil {
		metrics.ChannelMessages.WithLabelValues(metrics.ResultMalformed).Inc()
		c.logger.Warn("Malformed notification dropped", map[string]interface{}{
			"error": err.Error(),
			"body":  truncate(string(body), 256),
		})
		return
	}

	c.sink.ApplyEvent(n)
	metrics.ChannelMessages.WithLabelValues(metrics.ResultOK).Inc()
	c.logger.Debug("Notification received", map[string]interface{}{
		"id":        n.ID.String(),
		"reference": n.TransactionReference,
	})

	if err := c.sounder.Play(ctx); err != nil {
		c.logger.Warn("Notification sound failed", map[string]interface{}{"error": err.Error()})
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
