package server

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/util"
	"github.com/wolfeidau/tokenboard/internal/workflow"
)

var errInternal = errors.New("internal error")

// connectError maps engine errors to connect codes. Business rule
// rejections keep their message; anything unexpected is logged and hidden.
func connectError(err error) error {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr
	}

	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, workflow.ErrInsufficientBalance),
		errors.Is(err, workflow.ErrIllegalTransition):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, workflow.ErrPermissionDenied):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, store.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return connect.NewError(connect.CodeAborted, errors.New("write conflict, retry the request"))
	case errors.Is(err, util.ErrOverflow):
		return connect.NewError(connect.CodeOutOfRange, err)
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidEntry):
		log.Error().Err(err).Msg("Ledger rejected an entry built by the engine")
		return connect.NewError(connect.CodeInternal, errInternal)
	}

	log.Error().Err(err).Msg("Unhandled error")
	return connect.NewError(connect.CodeInternal, errInternal)
}
