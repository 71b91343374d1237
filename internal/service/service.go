// Package service implements the JSON route handlers. Each resource gets its
// own service struct over the storage layer; handlers decode, authorize
// against the authenticated user in the request context, call storage and the
// ledger, and encode the response.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/saks786/expense-tracker/internal/auth"
	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/ledger"
	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/storage"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// Authorization and validation sentinels shared by the handlers.
var (
	errNotOwner       = errors.New("resource belongs to another user")
	errNotMember      = errors.New("not a member of this group")
	errNotAdmin       = errors.New("admin role required")
	errNotFriends     = errors.New("users are not friends")
	errAlreadyExists  = errors.New("already exists")
	errSelfReference  = errors.New("cannot reference yourself")
	errNotInvited     = errors.New("no pending invitation")
	errAlreadyPaid    = errors.New("already paid")
	errAmountMismatch = errors.New("amount does not match what is owed")
)

// respondError maps a service error onto the status-code discipline used by
// every handler: validation 400, auth 401, ownership 403, missing 404,
// conflicts 409, everything else 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidExpense),
		errors.Is(err, ledger.ErrShareMismatch),
		errors.Is(err, errSelfReference),
		errors.Is(err, errAmountMismatch),
		errors.Is(err, auth.ErrWeakPassword):
		httpx.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInactiveAccount):
		httpx.Error(w, http.StatusUnauthorized, err)
	case errors.Is(err, errNotOwner),
		errors.Is(err, errNotMember),
		errors.Is(err, errNotAdmin),
		errors.Is(err, errNotFriends),
		errors.Is(err, errNotInvited):
		httpx.Error(w, http.StatusForbidden, err)
	case errors.Is(err, storage.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err)
	case errors.Is(err, errAlreadyExists),
		errors.Is(err, errAlreadyPaid),
		errors.Is(err, auth.ErrUserExists):
		httpx.Error(w, http.StatusConflict, err)
	default:
		slog.Error("Request failed", "error", err)
		httpx.ErrorMsg(w, http.StatusInternalServerError, "internal server error")
	}
}

// sendMailAsync delivers a notification without blocking the request path.
// Failures are logged and otherwise ignored.
func sendMailAsync(mailer notifier.Mailer, to, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := mailer.Send(ctx, to, subject, body); err != nil {
			slog.Error("Notification mail failed", "to", to, "error", err)
		}
	}()
}
