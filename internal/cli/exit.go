package cli

import (
	"errors"

	"github.com/lydakis/sitectl/internal/api"
	"github.com/lydakis/sitectl/internal/contact"
	"github.com/lydakis/sitectl/internal/transport"
)

// Exit codes returned by Run.
const (
	ExitOK        = 0
	ExitRemoteErr = 1
	ExitUsageErr  = 2
	ExitInternal  = 3
)

// exitCodeFor maps an operation error to an exit code: rejected requests
// are remote errors, malformed invocations are usage errors.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		statusErr   *transport.StatusError
		uploadErr   *transport.UploadError
		rejectedErr *contact.RejectedError
		fieldErr    *contact.FieldError
		unknownErr  *api.UnknownOperationError
	)
	switch {
	case errors.As(err, &statusErr), errors.As(err, &uploadErr), errors.As(err, &rejectedErr):
		return ExitRemoteErr
	case errors.As(err, &fieldErr), errors.As(err, &unknownErr), errors.Is(err, api.ErrEmptyToolID), errors.Is(err, api.ErrInvalidArguments):
		return ExitUsageErr
	default:
		return ExitInternal
	}
}
