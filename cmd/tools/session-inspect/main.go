// cmd/tools/session-inspect/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"banking-client/internal/common/config"
	"banking-client/internal/common/kvstore"
	"banking-client/internal/session"
)

func main() {
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)

	showConfig := showCmd.String("config", "", "Path to config file")
	asJSON := showCmd.Bool("json", false, "Print the session as JSON")

	clearConfig := clearCmd.String("config", "", "Path to config file")
	force := clearCmd.Bool("force", false, "Clear without asking")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "show":
		showCmd.Parse(os.Args[2:])
		store, err := openStore(ctx, *showConfig)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer closeStore(store)
		if err := show(ctx, os.Stdout, store, time.Now(), *asJSON); err != nil {
			fmt.Printf("Error reading session: %v\n", err)
			os.Exit(1)
		}

	case "clear":
		clearCmd.Parse(os.Args[2:])
		if !*force {
			fmt.Println("Error: clear wipes the session and preferences; pass -force to confirm.")
			clearCmd.Usage()
			os.Exit(1)
		}
		store, err := openStore(ctx, *clearConfig)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer closeStore(store)
		if err := store.Clear(ctx); err != nil {
			fmt.Printf("Error clearing store: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Local store cleared.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func openStore(ctx context.Context, path string) (kvstore.Store, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == "memory" {
		fmt.Println("Warning: storage.driver is memory, there is no shared session to inspect.")
	}
	return kvstore.Open(ctx, cfg.Storage)
}

func closeStore(store kvstore.Store) {
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}

// report is what show prints.
type report struct {
	SignedIn  bool       `json:"signedIn"`
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	ExpiresIn string     `json:"expiresIn,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	Username  string     `json:"username,omitempty"`
	Account   string     `json:"accountName,omitempty"`
	Theme     string     `json:"theme,omitempty"`
	Language  string     `json:"language,omitempty"`
	Sound     string     `json:"notificationSound,omitempty"`
	HasAvatar bool       `json:"hasAvatar"`
	Error     string     `json:"tokenError,omitempty"`
}

func inspect(ctx context.Context, store kvstore.Store, now time.Time) report {
	// A read-only manager: Current never clears the store.
	m := session.NewManager(store, session.Options{Now: func() time.Time { return now }})

	r := report{
		Theme:     kvstore.GetOr(ctx, store, kvstore.KeyTheme, ""),
		Language:  kvstore.GetOr(ctx, store, kvstore.KeyLanguage, ""),
		Sound:     kvstore.GetOr(ctx, store, kvstore.KeyNotificationSound, ""),
		HasAvatar: kvstore.GetOr(ctx, store, kvstore.KeyAvatar, "") != "",
	}

	sess := m.Current(ctx)
	if sess == nil {
		return r
	}
	r.SignedIn = true
	if sess.User != nil {
		r.UserID = sess.User.ID.String()
		r.Username = sess.User.Username
		r.Account = sess.User.AccountName
	}
	if _, err := session.DecodeExpiry(sess.Token); err != nil {
		r.Error = err.Error()
		return r
	}
	exp := sess.ExpiresAt
	r.ExpiresAt = &exp
	r.Valid = sess.Valid(now)
	if r.Valid {
		r.ExpiresIn = exp.Sub(now).Round(time.Second).String()
	}
	return r
}

func show(ctx context.Context, w io.Writer, store kvstore.Store, now time.Time, asJSON bool) error {
	r := inspect(ctx, store, now)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	if !r.SignedIn {
		fmt.Fprintln(w, "No session stored.")
	} else {
		fmt.Fprintf(w, "User:        %s (id %s)\n", r.Username, r.UserID)
		if r.Account != "" {
			fmt.Fprintf(w, "Account:     %s\n", r.Account)
		}
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "Token:       unreadable (%s)\n", r.Error)
		case r.Valid:
			fmt.Fprintf(w, "Token:       valid, expires %s (in %s)\n", r.ExpiresAt.Format(time.RFC3339), r.ExpiresIn)
		default:
			fmt.Fprintf(w, "Token:       expired at %s\n", r.ExpiresAt.Format(time.RFC3339))
		}
	}
	fmt.Fprintf(w, "Theme:       %s\n", orDash(r.Theme))
	fmt.Fprintf(w, "Language:    %s\n", orDash(r.Language))
	fmt.Fprintf(w, "Sound:       %s\n", orDash(r.Sound))
	fmt.Fprintf(w, "Avatar:      %t\n", r.HasAvatar)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func help() {
	fmt.Println("Usage:")
	fmt.Println("  session-inspect show [-config path] [-json]")
	fmt.Println("  session-inspect clear -force [-config path]")
}
