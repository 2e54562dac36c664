package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/auth"
	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/middleware"
	"github.com/mmynk/tripfund/internal/storage"
)

var (
	errInvalidRequest = errors.New("invalid request")
	errForbidden      = errors.New("permission denied")
	errTripFull       = errors.New("trip is full")
)

// toConnectError maps domain and storage errors to Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, calculator.ErrInvalidSplitInput),
		errors.Is(err, calculator.ErrInvalidSchedule),
		errors.Is(err, calculator.ErrInvalidBudget),
		errors.Is(err, calculator.ErrInvalidAmount),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, calculator.ErrInsufficientFunds),
		errors.Is(err, errTripFull):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, errForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// requireUser returns the authenticated caller's ID.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
