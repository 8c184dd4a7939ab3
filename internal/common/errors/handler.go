// internal/common/errors/handler.go
package errors

import (
	"banking-client/internal/notice"
)

// ErrorHandler turns flow errors into notices with standardized logging.
type ErrorHandler struct {
	logger   Logger
	notifier notice.Notifier
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger, notifier notice.Notifier) *ErrorHandler {
	return &ErrorHandler{logger: logger, notifier: notice.OrDiscard(notifier)}
}

// Handle logs err and shows the resulting notice, if any. It returns the
// normalized error.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := Normalize(err)
	h.logError(operation, stdErr)

	if n, ok := ToNotice(stdErr); ok {
		h.notifier.Notify(n)
	}
	return stdErr
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// ToNotice converts an error into the notice shown to the user. Session
// expiry has no notice; the redirect to the entry view is the feedback.
// Permission denials are announced by the api client when the 403 arrives,
// whichever call site sees the error afterwards.
func ToNotice(stdErr *StandardError) (notice.Notice, bool) {
	switch GetErrorCategory(stdErr.Code) {
	case CategorySession, CategoryPermission:
		return notice.Notice{}, false
	case CategoryTransport:
		if stdErr.Code == ErrCodeQRTimeout {
			return notice.Error(stdErr.Message), true
		}
		return notice.Error("Could not reach the server, please try again"), true
	}
	if stdErr.Code == ErrCodeAPIError {
		return notice.Error("Error: " + stdErr.Message), true
	}
	return notice.Error(stdErr.Message), true
}

func (h *ErrorHandler) logError(operation string, stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	h.logger.Error("Operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        stdErr.Status(),
	})
}
