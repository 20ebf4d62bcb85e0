// File: services/booking/statemachine.go
package booking

import "bookmytime/models"

// TransitionRequest describes one requested appointment status change. The
// machine is pure: it inspects the request and either allows the move or
// explains why not. It never touches the ledger or any store.
type TransitionRequest struct {
	From  models.AppointmentStatus
	To    models.AppointmentStatus
	Actor models.Role
	// SlotEnded is true once the slot's end time has elapsed; COMPLETED and
	// NO_SHOW are only reachable afterwards.
	SlotEnded bool
}

// Transition validates a status change. A nil return means the change is
// legal for that actor from that state.
func Transition(req TransitionRequest) error {
	if req.From.Terminal() {
		return NewIllegalTransitionError("appointment is %s and cannot change state", req.From)
	}

	switch req.To {
	case models.StatusConfirmed:
		if req.From != models.StatusPending {
			return NewIllegalTransitionError("cannot confirm from %s", req.From)
		}
		if req.Actor != models.RoleProvider && req.Actor != models.RoleAdmin {
			return NewIllegalTransitionError("%s cannot confirm appointments", req.Actor)
		}
		return nil

	case models.StatusCancelled:
		// Client and provider may both cancel from PENDING or CONFIRMED;
		// cancelledBy is recorded by the coordinator for audit.
		if req.From != models.StatusPending && req.From != models.StatusConfirmed {
			return NewIllegalTransitionError("cannot cancel from %s", req.From)
		}
		return nil

	case models.StatusCompleted, models.StatusNoShow:
		if req.From != models.StatusConfirmed {
			return NewIllegalTransitionError("cannot mark %s from %s", req.To, req.From)
		}
		if req.Actor != models.RoleProvider && req.Actor != models.RoleAdmin {
			return NewIllegalTransitionError("%s cannot mark %s", req.Actor, req.To)
		}
		if !req.SlotEnded {
			return NewIllegalTransitionError("cannot mark %s before the slot has ended", req.To)
		}
		return nil
	}

	return NewIllegalTransitionError("unknown target status %s", req.To)
}
