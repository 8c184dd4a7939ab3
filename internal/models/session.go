package models

import "time"

// User is the profile cached under the "user" key after sign-in.
type User struct {
	ID          ID       `json:"id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles,omitempty"`
	AccountName string   `json:"accountName,omitempty"`
}

// DisplayName is the account holder's name when known, else the username.
func (u User) DisplayName() string {
	if u.AccountName != "" {
		return u.AccountName
	}
	return u.Username
}

// Session is the authenticated session held on the client.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user,omitempty"`
}

// Valid reports whether the session has a token that has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.After(now)
}
