package signup

import (
	"context"
	"testing"

	"banking-client/internal/common/errors"
	"banking-client/internal/common/logger"
	"banking-client/internal/models"
	"banking-client/internal/notice"
	"banking-client/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock API
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) SignUp(ctx context.Context, req models.SignUpRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func newService(t *testing.T, api API) (*Service, *router.Recorder, *notice.Recorder) {
	t.Helper()
	nav := &router.Recorder{}
	notices := notice.NewRecorder()
	svc, err := NewService(ServiceDependencies{
		Logger:    logger.NewTestLogger(t),
		API:       api,
		Navigator: nav,
		Notifier:  notices,
	}, DefaultConfig())
	require.NoError(t, err)
	return svc, nav, notices
}

func validInput() *Input {
	return &Input{Username: "lan", Email: "lan@example.com", Password: "secret1", ConfirmPassword: "secret1"}
}

// ==========================
// Config Tests
// ==========================

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 6, cfg.MinPasswordLength)
	assert.Equal(t, []string{"user"}, cfg.Roles)
	assert.NoError(t, cfg.Validate())

	cfg.Roles = nil
	assert.Error(t, cfg.Validate())
}

// ==========================
// Service Tests
// ==========================

func TestService_Success(t *testing.T) {
	api := &MockAPI{}
	api.On("SignUp", models.SignUpRequest{
		Username: "lan",
		Email:    "lan@example.com",
		Password: "secret1",
		Role:     []string{"user"},
	}).Return(nil)
	svc, nav, notices := newService(t, api)

	out, err := svc.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.Equal(t, "lan", out.Username)
	assert.Equal(t, []notice.Notice{notice.Success("Registration successful!")}, notices.All())
	last, ok := nav.Last()
	require.True(t, ok)
	assert.Equal(t, router.Login, last.View)
	api.AssertExpectations(t)
}

func TestService_FormValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *Input)
		wantMsg string
	}{
		{name: "short password", mutate: func(in *Input) { in.Password, in.ConfirmPassword = "abc", "abc" }, wantMsg: "Password must be at least 6 characters"},
		{name: "confirmation mismatch", mutate: func(in *Input) { in.ConfirmPassword = "secret2" }, wantMsg: "Password confirmation does not match"},
		{name: "bad email", mutate: func(in *Input) { in.Email = "lan-at-example" }, wantMsg: "Email is not a valid email address"},
		{name: "missing username", mutate: func(in *Input) { in.Username = "" }, wantMsg: "Username is required"},
		{name: "missing confirmation", mutate: func(in *Input) { in.ConfirmPassword = "" }, wantMsg: "Password confirmation is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{}
			svc, nav, notices := newService(t, api)
			input := validInput()
			tt.mutate(input)
			before := *input

			_, err := svc.Execute(context.Background(), input)

			require.Error(t, err)
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
			assert.Equal(t, before, *input, "form state is preserved")
			assert.Empty(t, nav.Calls)
			assert.Len(t, notices.All(), 1)
			api.AssertNotCalled(t, "SignUp", mock.Anything)
		})
	}
}

func TestService_ServerErrors(t *testing.T) {
	tests := []struct {
		name     string
		apiErr   error
		wantCode errors.ErrorCode
		wantMsg  string
	}{
		{name: "duplicate username", apiErr: errors.NewAPIError(400, "Error: Username is already taken!"), wantCode: errors.ErrCodeDuplicateUsername, wantMsg: "Username is already taken"},
		{name: "duplicate email", apiErr: errors.NewAPIError(400, "Error: Email is already in use!"), wantCode: errors.ErrCodeDuplicateEmail, wantMsg: "Email is already registered"},
		{name: "other message", apiErr: errors.NewAPIError(500, "database unavailable"), wantCode: errors.ErrCodeAPIError, wantMsg: "Error: database unavailable"},
		{name: "transport", apiErr: errors.NewTransportFailureError(assert.AnError), wantCode: errors.ErrCodeTransportFailure, wantMsg: "Could not reach the server, please try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{}
			api.On("SignUp", mock.Anything).Return(tt.apiErr)
			svc, nav, notices := newService(t, api)

			_, err := svc.Execute(context.Background(), validInput())

			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			last, ok := notices.Last()
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, last.Message)
			assert.Empty(t, nav.Calls)
		})
	}
}

func TestService_Back(t *testing.T) {
	svc, nav, _ := newService(t, &MockAPI{})

	svc.Back(context.Background())

	assert.Equal(t, 1, nav.Count(router.Login))
}
