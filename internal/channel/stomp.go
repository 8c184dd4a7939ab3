package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"banking-client/internal/common/validation"
	"banking-client/internal/models"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// Subprotocols offered during the websocket handshake.
var Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// Conn is one websocket connection carrying STOMP frames as text messages.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens Conns to the broker.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
}

func (d WebSocketDialer) Dial(ctx context.Context, rawURL string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
		Subprotocols:     Subprotocols,
	}
	ws, _, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	return NewWebSocketConn(ws), nil
}

// NewWebSocketConn wraps ws; writes are serialized.
func NewWebSocketConn(ws *websocket.Conn) Conn {
	return &wsConn{ws: ws}
}

type wsConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// ==========================
// Frame codec
// ==========================

// ErrBrokerError is returned when the broker answers with an ERROR frame.
var ErrBrokerError = errors.New("broker sent ERROR frame")

// EncodeFrame serializes f. A nil frame encodes a heart-beat.
func EncodeFrame(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrames reads every frame in one websocket message. Heart-beats are skipped.
func DecodeFrames(data []byte) ([]*frame.Frame, error) {
	reader := frame.NewReader(bytes.NewReader(data))
	var frames []*frame.Frame
	for {
		f, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
}

func writeFrame(conn Conn, f *frame.Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", frameName(f), err)
	}
	return conn.WriteMessage(data)
}

func frameName(f *frame.Frame) string {
	if f == nil {
		return "heart-beat"
	}
	return f.Command
}

func connectFrame(brokerURL, token, heartBeat string) *frame.Frame {
	host := "/"
	if u, err := url.Parse(brokerURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	headers := []string{
		"accept-version", "1.2,1.1,1.0",
		"host", host,
	}
	if heartBeat != "" {
		headers = append(headers, "heart-beat", heartBeat)
	}
	if token != "" {
		headers = append(headers, "Authorization", "Bearer "+token)
	}
	return frame.New(frame.CONNECT, headers...)
}

func subscribeFrame(id, destination string) *frame.Frame {
	return frame.New(frame.SUBSCRIBE,
		"id", id,
		"destination", destination,
		"ack", "auto",
	)
}

// ErrBrokerSilent is returned when nothing arrives from the broker within
// the expected window, either while waiting for CONNECTED or, once
// subscribed, within twice the negotiated heart-beat interval.
var ErrBrokerSilent = errors.New("broker went silent")

type readResult struct {
	data []byte
	err  error
}

// readPump reads conn on its own goroutine so that every read can be
// bounded by a timer. It exits after the first read error or once stop is
// closed.
func readPump(conn Conn, stop <-chan struct{}) <-chan readResult {
	out := make(chan readResult)
	go func() {
		for {
			data, err := conn.ReadMessage()
			select {
			case out <- readResult{data: data, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// nextMessage waits for the next websocket message. A zero timeout waits
// until ctx is done.
func nextMessage(ctx context.Context, in <-chan readResult, timeout time.Duration) ([]byte, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case r := <-in:
		return r.data, r.err
	case <-expired:
		return nil, fmt.Errorf("%w: nothing received for %s", ErrBrokerSilent, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// awaitConnected reads until CONNECTED and returns its heart-beat header.
func awaitConnected(ctx context.Context, in <-chan readResult, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("waiting for CONNECTED: %w", ErrBrokerSilent)
		}
		data, err := nextMessage(ctx, in, remaining)
		if err != nil {
			return "", fmt.Errorf("waiting for CONNECTED: %w", err)
		}
		frames, err := DecodeFrames(data)
		if err != nil {
			return "", fmt.Errorf("waiting for CONNECTED: %w", err)
		}
		for _, f := range frames {
			switch f.Command {
			case frame.CONNECTED:
				return f.Header.Get("heart-beat"), nil
			case frame.ERROR:
				return "", brokerError(f)
			}
		}
	}
}

func brokerError(f *frame.Frame) error {
	msg := f.Header.Get("message")
	if msg == "" {
		msg = string(bytes.TrimSpace(f.Body))
	}
	return fmt.Errorf("%w: %s", ErrBrokerError, msg)
}

// sendInterval negotiates how often the client must send heart-beats.
func sendInterval(clientHeartBeat, serverHeartBeat string) time.Duration {
	cx, _, err := parseHeartBeat(clientHeartBeat)
	if err != nil || cx == 0 {
		return 0
	}
	_, sy, err := parseHeartBeat(serverHeartBeat)
	if err != nil || sy == 0 {
		return 0
	}
	return max(cx, sy)
}

// receiveInterval negotiates how often the broker promises to send
// something. Zero means the broker is not expected to send heart-beats.
func receiveInterval(clientHeartBeat, serverHeartBeat string) time.Duration {
	_, cy, err := parseHeartBeat(clientHeartBeat)
	if err != nil || cy == 0 {
		return 0
	}
	sx, _, err := parseHeartBeat(serverHeartBeat)
	if err != nil || sx == 0 {
		return 0
	}
	return max(cy, sx)
}

// DecodeNotification validates and decodes one MESSAGE body.
func DecodeNotification(body []byte) (models.Notification, error) {
	var n models.Notification
	if err := validation.NotificationEventSchema.Validate(body); err != nil {
		return n, err
	}
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	return n, nil
}
