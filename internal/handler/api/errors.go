package api

import (
	"errors"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
)

// Duplicate state transitions surface as conflicts so the caller can
// refresh instead of retrying.
func isConflictTransition(err error) bool {
	return errors.Is(err, reservation.ErrDecisionAlreadyMade) ||
		errors.Is(err, reservation.ErrAlreadyCancelled) ||
		errors.Is(err, reservation.ErrNotAwaitingDecision) ||
		errors.Is(err, reservation.ErrNotCancellable) ||
		errors.Is(err, reservation.ErrInvalidTransition)
}

// rootMessage unwraps to the innermost cause so validation responses name
// the actual rule instead of the wrap chain.
func rootMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}
