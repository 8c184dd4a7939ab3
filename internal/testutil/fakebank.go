package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"banking-client/internal/models"

	"github.com/shopspring/decimal"
)

// RecordedRequest is one request seen by FakeBank.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          string
}

// FakeBank is an in-process stand-in for the banking REST API.
type FakeBank struct {
	Server *httptest.Server

	mu            sync.Mutex
	userID        string
	username      string
	password      string
	token         string
	account       *models.Account
	notifications []models.Notification
	recipients    map[string]string
	overrides     map[string]http.HandlerFunc
	requests      []RecordedRequest
	transactions  []models.TransactionRequest
	history       []models.Transaction
	markRead      map[string]int
	signUps       []models.SignUpRequest
	accountReqs   []models.AccountRequest
}

// NewFakeBank starts a server that accepts username/password and returns token.
func NewFakeBank(t testing.TB, token string) *FakeBank {
	fb := &FakeBank{
		userID:     "1",
		username:   "huy",
		password:   "secret1",
		token:      token,
		recipients: map[string]string{},
		overrides:  map[string]http.HandlerFunc{},
		markRead:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signin", fb.handleSignIn)
	mux.HandleFunc("POST /api/v1/auth/signup", fb.handleSignUp)
	mux.HandleFunc("POST /api/v1/account", fb.handleCreateAccount)
	mux.HandleFunc("GET /api/v1/account/{userId}", fb.handleGetAccount)
	mux.HandleFunc("PUT /api/v1/account/{userId}", fb.handleUpdateAccount)
	mux.HandleFunc("POST /api/v1/transaction/{userId}", fb.handleTransaction)
	mux.HandleFunc("GET /api/v1/transaction/{userId}/reference/account/{acct}", fb.handleHistory)
	mux.HandleFunc("GET /api/v1/transaction/{userId}/destination-account/name/{acct}", fb.handleRecipient)
	mux.HandleFunc("GET /api/v1/notification/{userId}", fb.handleNotifications)
	mux.HandleFunc("PUT /api/v1/notification/mark-read/{id}", fb.handleMarkRead)

	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readAll(r)
		}
		fb.mu.Lock()
		fb.requests = append(fb.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		override := fb.overrides[r.Method+" "+r.URL.Path]
		fb.mu.Unlock()

		r.Body = nopBody(body)
		if override != nil {
			override(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fb.Server.Close)
	return fb
}

func (fb *FakeBank) URL() string { return fb.Server.URL }

// UserID is the id returned by sign-in.
func (fb *FakeBank) UserID() string { return fb.userID }

// SetAccount sets the account returned for the user; nil means 404.
func (fb *FakeBank) SetAccount(a *models.Account) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if a == nil {
		fb.account = nil
		return
	}
	cp := *a
	fb.account = &cp
}

// Account returns a copy of the current account.
func (fb *FakeBank) Account() *models.Account {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.account == nil {
		return nil
	}
	cp := *fb.account
	return &cp
}

func (fb *FakeBank) SetNotifications(list []models.Notification) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.notifications = append([]models.Notification(nil), list...)
}

func (fb *FakeBank) SetRecipient(accountNumber, name string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.recipients[accountNumber] = name
}

func (fb *FakeBank) SetHistory(list []models.Transaction) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.history = list
}

// Override replaces the handler for an exact "METHOD /path".
func (fb *FakeBank) Override(methodPath string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.overrides[methodPath] = h
}

// Requests returns every request received so far.
func (fb *FakeBank) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]RecordedRequest(nil), fb.requests...)
}

// CountRequests counts requests whose path starts with prefix.
func (fb *FakeBank) CountRequests(method, prefix string) int {
	n := 0
	for _, r := range fb.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

func (fb *FakeBank) MarkReadCalls(id string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.markRead[id]
}

func (fb *FakeBank) Transactions() []models.TransactionRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]models.TransactionRequest(nil), fb.transactions...)
}

func (fb *FakeBank) SignUps() []models.SignUpRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]models.SignUpRequest(nil), fb.signUps...)
}

func (fb *FakeBank) AccountRequests() []models.AccountRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]models.AccountRequest(nil), fb.accountReqs...)
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg} with status.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

func (fb *FakeBank) authorized(w http.ResponseWriter, r *http.Request) bool {
	fb.mu.Lock()
	token := fb.token
	fb.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer "+token {
		WriteMessage(w, http.StatusUnauthorized, "Full authentication is required")
		return false
	}
	return true
}

func (fb *FakeBank) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "bad body")
		return
	}
	fb.mu.Lock()
	ok := req.Username == fb.username && req.Password == fb.password
	resp := map[string]interface{}{"id": json.Number(fb.userID), "jwtToken": fb.token, "roles": []string{"ROLE_USER"}, "username": fb.username}
	fb.mu.Unlock()
	if !ok {
		WriteMessage(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (fb *FakeBank) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	fb.mu.Lock()
	fb.signUps = append(fb.signUps, req)
	taken := req.Username == fb.username
	fb.mu.Unlock()
	if taken {
		WriteMessage(w, http.StatusBadRequest, "Error: Username is already taken!")
		return
	}
	WriteMessage(w, http.StatusOK, "User registered successfully!")
}

func (fb *FakeBank) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	var req models.AccountRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	acct := &models.Account{
		AccountNumber: "1000200030",
		AccountName:   req.AccountName,
		AccountType:   req.AccountType,
		Currency:      req.Currency,
		Balance:       req.InitialDeposit,
		QRCode:        "iVBORw0KGgo=",
	}
	fb.mu.Lock()
	fb.accountReqs = append(fb.accountReqs, req)
	fb.account = acct
	fb.mu.Unlock()
	WriteJSON(w, http.StatusOK, acct)
}

func (fb *FakeBank) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	acct := fb.Account()
	if acct == nil {
		WriteMessage(w, http.StatusNotFound, "Account not found")
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func nopBody(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

func (fb *FakeBank) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	var req models.AccountRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	fb.mu.Lock()
	fb.accountReqs = append(fb.accountReqs, req)
	if fb.account != nil {
		fb.account.AccountName = req.AccountName
		fb.account.AccountType = req.AccountType
		fb.account.Currency = req.Currency
	}
	fb.mu.Unlock()
	acct := fb.Account()
	WriteJSON(w, http.StatusOK, acct)
}

func (fb *FakeBank) handleTransaction(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "bad body")
		return
	}
	fb.mu.Lock()
	fb.transactions = append(fb.transactions, req)
	ref := fmt.Sprintf("TX%04d", len(fb.transactions))
	name := fb.recipients[req.DestinationAccountNumber]
	if fb.account != nil {
		fb.account.Balance = fb.account.Balance.Sub(req.Amount)
	}
	fb.mu.Unlock()

	WriteJSON(w, http.StatusOK, models.TransactionReceipt{
		TransactionReference:     ref,
		SourceAccountNumber:      req.SourceAccountNumber,
		DestinationAccountNumber: req.DestinationAccountNumber,
		DestinationAccountName:   name,
		Amount:                   req.Amount,
		Currency:                 req.Currency,
		Description:              req.Description,
		TransactionType:          req.TransactionType,
		Status:                   "SUCCESS",
	})
}

func (fb *FakeBank) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	fb.mu.Lock()
	list := fb.history
	fb.mu.Unlock()
	if list == nil {
		list = []models.Transaction{}
	}
	WriteJSON(w, http.StatusOK, list)
}

func (fb *FakeBank) handleRecipient(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	fb.mu.Lock()
	name, ok := fb.recipients[r.PathValue("acct")]
	fb.mu.Unlock()
	if !ok {
		WriteMessage(w, http.StatusNotFound, "Account not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"accountName": name})
}

func (fb *FakeBank) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	fb.mu.Lock()
	list := append([]models.Notification(nil), fb.notifications...)
	fb.mu.Unlock()
	if list == nil {
		list = []models.Notification{}
	}
	WriteJSON(w, http.StatusOK, list)
}

func (fb *FakeBank) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(w, r) {
		return
	}
	id := r.PathValue("id")
	fb.mu.Lock()
	fb.markRead[id]++
	for i := range fb.notifications {
		if fb.notifications[i].ID.String() == id {
			fb.notifications[i].IsRead = true
		}
	}
	fb.mu.Unlock()
	WriteMessage(w, http.StatusOK, "ok")
}

// Money is a shorthand for decimal.RequireFromString.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MoneyPtr returns a pointer to Money(s).
func MoneyPtr(s string) *decimal.Decimal {
	d := Money(s)
	return &d
}
