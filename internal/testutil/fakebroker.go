package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// Subscription is one SUBSCRIBE seen by FakeBroker.
type Subscription struct {
	ID            string
	Destination   string
	Authorization string
}

// FakeBroker is a STOMP-over-websocket broker for channel tests.
type FakeBroker struct {
	Server *httptest.Server

	mu         sync.Mutex
	conns      map[*brokerConn]struct{}
	connects   []string
	rejectNext string
	subscribed chan Subscription
}

type brokerConn struct {
	ws            *websocket.Conn
	writeMu       sync.Mutex
	authorization string
	subID         string
	destination   string
}

func (c *brokerConn) write(f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, buf.Bytes())
}

func (c *brokerConn) writeRaw(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func NewFakeBroker(t testing.TB) *FakeBroker {
	b := &FakeBroker{
		conns:      map[*brokerConn]struct{}{},
		subscribed: make(chan Subscription, 32),
	}
	upgrader := websocket.Upgrader{
		Subprotocols: []string{"v12.stomp", "v11.stomp", "v10.stomp"},
		CheckOrigin:  func(*http.Request) bool { return true },
	}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.serve(&brokerConn{ws: ws})
	}))
	t.Cleanup(b.Close)
	return b
}

// URL is the ws:// address of the broker.
func (b *FakeBroker) URL() string {
	return "ws" + strings.TrimPrefix(b.Server.URL, "http")
}

func (b *FakeBroker) serve(c *brokerConn) {
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
		_ = c.ws.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		reader := frame.NewReader(bytes.NewReader(data))
		for {
			f, err := reader.Read()
			if err != nil {
				break
			}
			if f == nil {
				continue
			}
			if !b.handle(c, f) {
				return
			}
		}
	}
}

// handle answers one client frame and reports whether to keep the connection.
func (b *FakeBroker) handle(c *brokerConn, f *frame.Frame) bool {
	switch f.Command {
	case frame.CONNECT:
		c.authorization = f.Header.Get("Authorization")
		b.mu.Lock()
		b.connects = append(b.connects, c.authorization)
		reject := b.rejectNext
		b.rejectNext = ""
		b.mu.Unlock()
		if reject != "" {
			_ = c.write(frame.New(frame.ERROR, "message", reject))
			return false
		}
		return c.write(frame.New(frame.CONNECTED, "version", "1.2", "heart-beat", "0,0")) == nil

	case frame.SUBSCRIBE:
		b.mu.Lock()
		c.subID = f.Header.Get("id")
		c.destination = f.Header.Get("destination")
		b.mu.Unlock()
		b.subscribed <- Subscription{ID: c.subID, Destination: c.destination, Authorization: c.authorization}
		return true

	case frame.DISCONNECT:
		return false
	}
	return true
}

// WaitSubscribed returns the next subscription, failing the test after timeout.
func (b *FakeBroker) WaitSubscribed(t testing.TB, timeout time.Duration) Subscription {
	t.Helper()
	select {
	case s := <-b.subscribed:
		return s
	case <-time.After(timeout):
		t.Fatalf("no subscription within %s", timeout)
		return Subscription{}
	}
}

// NoSubscription asserts that nothing subscribes within d.
func (b *FakeBroker) NoSubscription(t testing.TB, d time.Duration) {
	t.Helper()
	select {
	case s := <-b.subscribed:
		t.Fatalf("unexpected subscription to %s", s.Destination)
	case <-time.After(d):
	}
}

// Send delivers body as a MESSAGE to every subscriber of destination.
func (b *FakeBroker) Send(destination, body string) int {
	sent := 0
	for _, c := range b.live() {
		b.mu.Lock()
		subID, dest := c.subID, c.destination
		b.mu.Unlock()
		if dest != destination {
			continue
		}
		f := frame.New(frame.MESSAGE,
			"subscription", subID,
			"destination", dest,
			"message-id", "m-"+time.Now().Format("150405.000000"),
			"content-type", "application/json",
		)
		f.Body = []byte(body)
		if c.write(f) == nil {
			sent++
		}
	}
	return sent
}

// SendRaw writes data unchanged to every connection.
func (b *FakeBroker) SendRaw(data []byte) {
	for _, c := range b.live() {
		_ = c.writeRaw(data)
	}
}

// SendError sends an ERROR frame to every connection.
func (b *FakeBroker) SendError(message string) {
	for _, c := range b.live() {
		_ = c.write(frame.New(frame.ERROR, "message", message))
	}
}

// RejectNextConnect answers the next CONNECT with an ERROR frame.
func (b *FakeBroker) RejectNextConnect(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectNext = message
}

// DropAll closes every connection without a DISCONNECT.
func (b *FakeBroker) DropAll() {
	for _, c := range b.live() {
		_ = c.ws.Close()
	}
}

// Connects returns the Authorization header of every CONNECT so far.
func (b *FakeBroker) Connects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.connects...)
}

// LiveConnections counts open connections.
func (b *FakeBroker) LiveConnections() int {
	return len(b.live())
}

func (b *FakeBroker) live() []*brokerConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*brokerConn, 0, len(b.conns))
	for c := range b.conns {
		out = append(out, c)
	}
	return out
}

func (b *FakeBroker) Close() {
	b.DropAll()
	b.Server.Close()
}
