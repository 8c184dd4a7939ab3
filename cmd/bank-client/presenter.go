package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"banking-client/internal/models"
	"banking-client/internal/notice"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// presenter writes notices, streamed notifications and prompts to the
// terminal. Writes from the channel goroutine are serialized with the
// command loop.
type presenter struct {
	mu    sync.Mutex
	out   io.Writer
	in    *bufio.Scanner
	color bool
}

func newPresenter(in io.Reader, out io.Writer, color bool) *presenter {
	return &presenter{out: out, in: bufio.NewScanner(in), color: color}
}

func (p *presenter) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func (p *presenter) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// Notify implements notice.Notifier.
func (p *presenter) Notify(n notice.Notice) {
	var prefix string
	switch n.Kind {
	case notice.KindSuccess:
		prefix = p.paint(colorGreen, "[ok]")
	case notice.KindError:
		prefix = p.paint(colorRed, "[error]")
	default:
		prefix = p.paint(colorYellow, "[info]")
	}
	p.printf("%s %s\n", prefix, n.Message)
}

// Event prints a notification that arrived on the push channel.
func (p *presenter) Event(n models.Notification) {
	line := fmt.Sprintf("%s %s", n.Amount.String(), n.Description)
	if n.Balance != nil {
		line = fmt.Sprintf("%s (balance %s)", line, n.Balance.String())
	}
	p.printf("%s %s\n", p.paint(colorCyan, "[new]"), line)
}

func (p *presenter) prompt(label string) (string, bool) {
	p.printf("%s: ", label)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// promptDefault shows def and returns it for an empty answer.
func (p *presenter) promptDefault(label, def string) (string, bool) {
	if def == "" {
		return p.prompt(label)
	}
	v, ok := p.prompt(fmt.Sprintf("%s [%s]", label, def))
	if ok && v == "" {
		v = def
	}
	return v, ok
}

func (p *presenter) readLine() (string, bool) {
	p.printf("> ")
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func (p *presenter) account(a *models.Account, unread int) {
	if a == nil {
		p.printf("No account loaded\n")
		return
	}
	p.printf("%s  %s  %s\n", a.AccountNumber, a.AccountName, a.AccountType)
	p.printf("Balance: %s %s   Unread: %d\n", a.Balance.String(), a.Currency, unread)
}

func (p *presenter) notifications(list []models.Notification) {
	if len(list) == 0 {
		p.printf("No notifications\n")
		return
	}
	for _, n := range list {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		p.printf("%s %-6s %s  %12s  %s\n", mark, n.ID, n.TransactionDate.Format("2006-01-02 15:04"), n.Amount.String(), n.Description)
	}
}

func (p *presenter) history(list []models.Transaction) {
	if len(list) == 0 {
		p.printf("No transactions\n")
		return
	}
	for _, t := range list {
		p.printf("%-10s %s  %s -> %s  %s %s  %s\n",
			t.TransactionReference,
			t.TransactionDate.Format("2006-01-02 15:04"),
			t.SourceAccountNumber,
			t.DestinationAccountNumber,
			t.Amount.String(),
			t.Currency,
			t.Description,
		)
	}
}
