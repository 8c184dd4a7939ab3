package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"banking-client/internal/common/validation"
	"banking-client/internal/models"
)

const apiPrefix = "/api/v1"

// Banking is the set of REST operations the client uses. *Client implements it.
type Banking interface {
	SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error)
	SignUp(ctx context.Context, req models.SignUpRequest) error
	CreateAccount(ctx context.Context, req models.AccountRequest) (*models.Account, error)
	GetAccount(ctx context.Context, userID models.ID) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID models.ID, req models.AccountRequest) (*models.Account, error)
	CreateTransaction(ctx context.Context, userID models.ID, req models.TransactionRequest) (*models.TransactionReceipt, error)
	GetTransactionHistory(ctx context.Context, userID models.ID, accountNumber string) ([]models.Transaction, error)
	GetDestinationAccountName(ctx context.Context, userID models.ID, accountNumber string) (string, error)
	GetNotifications(ctx context.Context, userID models.ID) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id models.ID) error
}

var _ Banking = (*Client)(nil)

func seg(v string) string {
	return url.PathEscape(v)
}

func (c *Client) SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error) {
	var out models.SignInResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     apiPrefix + "/auth/signin",
		endpoint: "auth.signin",
		body:     req,
		schema:   validation.SignInResponseSchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignUp(ctx context.Context, req models.SignUpRequest) error {
	if len(req.Role) == 0 {
		req.Role = []string{"user"}
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     apiPrefix + "/auth/signup",
		endpoint: "auth.signup",
		body:     req,
	}, nil)
}

func (c *Client) CreateAccount(ctx context.Context, req models.AccountRequest) (*models.Account, error) {
	var out models.Account
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     apiPrefix + "/account",
		endpoint: "account.create",
		body:     req,
		schema:   validation.AccountSchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAccount(ctx context.Context, userID models.ID) (*models.Account, error) {
	var out models.Account
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/account/%s", apiPrefix, seg(userID.String())),
		endpoint: "account.get",
		schema:   validation.AccountSchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAccount(ctx context.Context, userID models.ID, req models.AccountRequest) (*models.Account, error) {
	var out models.Account
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/account/%s", apiPrefix, seg(userID.String())),
		endpoint: "account.update",
		body:     req,
		schema:   validation.AccountSchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, userID models.ID, req models.TransactionRequest) (*models.TransactionReceipt, error) {
	var out models.TransactionReceipt
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     fmt.Sprintf("%s/transaction/%s", apiPrefix, seg(userID.String())),
		endpoint: "transaction.create",
		body:     req,
		schema:   validation.TransactionReceiptSchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTransactionHistory(ctx context.Context, userID models.ID, accountNumber string) ([]models.Transaction, error) {
	var out []models.Transaction
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/transaction/%s/reference/account/%s", apiPrefix, seg(userID.String()), seg(accountNumber)),
		endpoint: "transaction.history",
		schema:   validation.TransactionHistorySchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDestinationAccountName(ctx context.Context, userID models.ID, accountNumber string) (string, error) {
	var raw []byte
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/transaction/%s/destination-account/name/%s", apiPrefix, seg(userID.String()), seg(accountNumber)),
		endpoint: "transaction.destination_name",
	}, &raw)
	if err != nil {
		return "", err
	}
	return models.ParseRecipientName(raw), nil
}

func (c *Client) GetNotifications(ctx context.Context, userID models.ID) ([]models.Notification, error) {
	var out []models.Notification
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/notification/%s", apiPrefix, seg(userID.String())),
		endpoint: "notification.list",
		schema:   validation.NotificationListSchema,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id models.ID) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/notification/mark-read/%s", apiPrefix, seg(id.String())),
		endpoint: "notification.mark_read",
	}, nil)
}
