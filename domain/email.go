package domain

import (
	"context"
	"net/http"
)

var ErrEmailSendFailed = &DetailedError{
	IDField:         "EMAIL_SEND_FAILED",
	StatusDescField: http.StatusText(http.StatusInternalServerError),
	ErrorField:      "Failed to send email",
	StatusCodeField: http.StatusInternalServerError,
}

type EmailCode string

const (
	EmailCodeAccountCreated EmailCode = "account_created"
)

// AccountNotifier tells a user about changes an administrator made to their account.
type AccountNotifier interface {
	AccountCreated(ctx context.Context, user *User, plainPassword string) error
}
