package store

import (
	"collection-service/models"
)

// TransitionResult is the outcome of validating a transition against the
// current request state.
type TransitionResult struct {
	// Status the request moves to when the transition is applied.
	Status models.CollectionStatus
	// NoOp marks an idempotent re-assign by the collector that already
	// holds the request; nothing changes and no listeners fire.
	NoOp bool
}

// ValidateTransition is the pure decision function for the request state
// machine:
//
//	requested  --assign-->   in_progress
//	in_progress --complete-> completed
//	requested | in_progress --cancel--> cancelled
//
// completed and cancelled are terminal. Exactly one collector may hold a
// request; an assign for a request already held by a different collector
// is rejected, while a repeat assign by the same collector is a no-op.
func ValidateTransition(cur models.CollectionRequest, tr models.Transition) (TransitionResult, error) {
	switch tr.Kind {
	case models.TransitionAssign:
		if tr.CollectorID == "" {
			return TransitionResult{}, models.NewValidationError("collector_id", "must not be empty")
		}
		if tr.CollectorName == "" {
			return TransitionResult{}, models.NewValidationError("collector_name", "must not be empty")
		}
		if cur.Status == models.StatusInProgress && cur.CollectorID == tr.CollectorID {
			return TransitionResult{Status: cur.Status, NoOp: true}, nil
		}
		if cur.Status != models.StatusRequested || cur.CollectorID != "" {
			return TransitionResult{}, models.ErrInvalidTransition
		}
		return TransitionResult{Status: models.StatusInProgress}, nil

	case models.TransitionComplete:
		if cur.Status != models.StatusInProgress || cur.CollectorID == "" {
			return TransitionResult{}, models.ErrInvalidTransition
		}
		return TransitionResult{Status: models.StatusCompleted}, nil

	case models.TransitionCancel:
		if cur.Status.Terminal() {
			return TransitionResult{}, models.ErrInvalidTransition
		}
		return TransitionResult{Status: models.StatusCancelled}, nil
	}

	return TransitionResult{}, models.NewValidationError("transition", "unknown transition kind")
}
