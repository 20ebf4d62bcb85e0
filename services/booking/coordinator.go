// File: services/booking/coordinator.go
package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appointmentRepo "bookmytime/database/repository/appointment"
	providerRepo "bookmytime/database/repository/provider"
	serviceRepo "bookmytime/database/repository/service"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/models"
	"bookmytime/utils"
)

// conflictRetries bounds internal retries on transient status contention
// before Conflict is surfaced to the caller.
const conflictRetries = 3

// ReleaseScheduler defers a capacity release, used when a cancellation grace
// period is configured to damp rapid rebook/cancel cycles.
type ReleaseScheduler interface {
	ScheduleRelease(ctx context.Context, slotID, token string, delay time.Duration) error
}

// DefaultCoordinator is the production Coordinator implementation.
type DefaultCoordinator struct {
	Slots        slotRepo.SlotRepository
	Appointments appointmentRepo.AppointmentRepository
	Providers    providerRepo.ProviderRepository
	Services     serviceRepo.ServiceRepository

	// CancelReleaseGrace > 0 defers capacity release after a cancellation.
	// Zero releases immediately, the default.
	CancelReleaseGrace time.Duration
	// Scheduler performs deferred releases; required when
	// CancelReleaseGrace > 0.
	Scheduler ReleaseScheduler

	// PendingExpiry is how long a PENDING appointment may await confirmation.
	PendingExpiry time.Duration
	// ReconcileAfter is how stale a held reservation must be before the
	// reconciliation sweep treats it as orphaned.
	ReconcileAfter time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

var _ Coordinator = (*DefaultCoordinator)(nil)

func (c *DefaultCoordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CreateAppointment validates the request, reserves capacity, and persists
// the appointment. The reserve/commit pair is an explicit two-step protocol:
// if the commit fails for any reason, the reservation is compensated with a
// release before the error is returned, so the ledger never holds capacity
// with no appointment behind it.
func (c *DefaultCoordinator) CreateAppointment(ctx context.Context, auth models.AuthContext, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if auth.Role != models.RoleClient {
		return nil, NewUnauthorizedError("only clients can book appointments")
	}
	if req.ProviderID == "" || req.ServiceID == "" || req.SlotID == "" {
		return nil, NewValidationError("providerId, serviceId and slotId are required")
	}

	// Idempotent replay: a retried request with the same key returns the
	// appointment created the first time instead of reserving twice.
	if req.IdempotencyKey != "" {
		if prior, err := c.Appointments.GetByIdempotencyKey(ctx, auth.UserID, req.IdempotencyKey); err == nil {
			if !prior.SameParameters(req, auth.UserID) {
				return nil, NewValidationError("idempotency key was already used with different parameters")
			}
			return prior, nil
		} else if !errors.Is(err, appointmentRepo.ErrNotFound) {
			return nil, internalError("idempotency lookup failed", err)
		}
	}

	slot, svc, provider, err := c.validateBookingTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	// Step 1: reserve. The ledger is the only place overbooking can be
	// prevented; everything before this line is advisory.
	token, err := c.Slots.Reserve(ctx, req.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, slotRepo.ErrNotFound):
			return nil, NewNotFoundError("slot %s not found", req.SlotID)
		case errors.Is(err, slotRepo.ErrCapacityExceeded):
			return nil, NewCapacityError("slot %s is fully booked", req.SlotID)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, NewConflictError("slot %s is contended, retry", req.SlotID)
		default:
			return nil, internalError("slot reservation failed", err)
		}
	}

	status := models.StatusPending
	if provider.AutoConfirm {
		status = models.StatusConfirmed
	}

	appt := &models.Appointment{
		ClientID:         auth.UserID,
		ProviderID:       req.ProviderID,
		ServiceID:        req.ServiceID,
		SlotID:           req.SlotID,
		ReservationToken: token,
		IdempotencyKey:   req.IdempotencyKey,
		Status:           status,
		Price:            svc.Price,
		Currency:         svc.Currency,
		ClientNotes:      req.ClientNotes,
	}

	// Step 2: commit, or compensate. The release runs on a detached context
	// so a caller disconnect mid-flight cannot leave the reservation held.
	if err := c.Appointments.Create(ctx, appt); err != nil {
		c.compensateReservation(req.SlotID, token)

		// A concurrent retry with the same key may have won the insert; in
		// that case its appointment is the answer.
		if req.IdempotencyKey != "" {
			if prior, lookupErr := c.Appointments.GetByIdempotencyKey(context.Background(), auth.UserID, req.IdempotencyKey); lookupErr == nil && prior.SameParameters(req, auth.UserID) {
				return prior, nil
			}
		}
		return nil, internalError("failed to persist appointment", err)
	}

	utils.GetLogger().Info("appointment created",
		zap.String("appointmentId", appt.ID),
		zap.String("slotId", slot.ID),
		zap.String("clientId", auth.UserID),
		zap.String("status", string(appt.Status)))
	return appt, nil
}

// validateBookingTarget checks that the slot, service, and provider line up
// before any capacity is touched.
func (c *DefaultCoordinator) validateBookingTarget(ctx context.Context, req models.CreateAppointmentRequest) (*models.AvailabilitySlot, *models.Service, *models.Provider, error) {
	slot, err := c.Slots.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrNotFound) {
			return nil, nil, nil, NewNotFoundError("slot %s not found", req.SlotID)
		}
		return nil, nil, nil, internalError("failed to load slot", err)
	}
	if slot.ProviderID != req.ProviderID {
		return nil, nil, nil, NewValidationError("slot %s does not belong to provider %s", req.SlotID, req.ProviderID)
	}

	svc, err := c.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			return nil, nil, nil, NewNotFoundError("service %s not found", req.ServiceID)
		}
		return nil, nil, nil, internalError("failed to load service", err)
	}
	if svc.ProviderID != req.ProviderID {
		return nil, nil, nil, NewValidationError("service %s does not belong to provider %s", req.ServiceID, req.ProviderID)
	}
	if !svc.Active {
		return nil, nil, nil, NewValidationError("service %s is not active", req.ServiceID)
	}
	if slot.ServiceID != "" && slot.ServiceID != req.ServiceID {
		return nil, nil, nil, NewValidationError("slot %s is reserved for a different service", req.SlotID)
	}
	if svc.DurationMinutes > slot.DurationMinutes() {
		return nil, nil, nil, NewValidationError("service duration %dm does not fit the %dm slot", svc.DurationMinutes, slot.DurationMinutes())
	}

	end, err := slot.EndAt()
	if err != nil {
		return nil, nil, nil, NewValidationError("slot %s has an invalid time window", req.SlotID)
	}
	if end.Before(c.now()) {
		return nil, nil, nil, NewValidationError("slot %s is in the past", req.SlotID)
	}

	provider, err := c.Providers.GetByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, nil, nil, NewNotFoundError("provider %s not found", req.ProviderID)
		}
		return nil, nil, nil, internalError("failed to load provider", err)
	}
	return slot, svc, provider, nil
}

// compensateReservation releases a reservation after a failed commit. Runs on
// a fresh context: compensation is unconditional, not best-effort.
func (c *DefaultCoordinator) compensateReservation(slotID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Slots.Release(ctx, slotID, token); err != nil && !errors.Is(err, slotRepo.ErrAlreadyReleased) {
		// The reconciliation sweep picks this up via the reservations list.
		utils.GetLogger().Error("compensating release failed",
			zap.String("slotId", slotID), zap.String("token", token), zap.Error(err))
	}
}

// ConfirmAppointment moves a PENDING appointment to CONFIRMED.
func (c *DefaultCoordinator) ConfirmAppointment(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error) {
	return c.transition(ctx, auth, appointmentID, models.StatusConfirmed, "")
}

// CancelAppointment validates the transition, commits the new status, and
// then releases the backing reservation. A failed commit leaves both sides
// untouched; a failed release after commit is retried by the reconciliation
// sweep, and the release itself is idempotent per token.
func (c *DefaultCoordinator) CancelAppointment(ctx context.Context, auth models.AuthContext, appointmentID, reason string) (*models.Appointment, error) {
	appt, err := c.transition(ctx, auth, appointmentID, models.StatusCancelled, reason)
	if err != nil {
		return nil, err
	}

	c.releaseAfterCancel(ctx, appt)
	return appt, nil
}

func (c *DefaultCoordinator) releaseAfterCancel(ctx context.Context, appt *models.Appointment) {
	if c.CancelReleaseGrace > 0 && c.Scheduler != nil {
		err := c.Scheduler.ScheduleRelease(ctx, appt.SlotID, appt.ReservationToken, c.CancelReleaseGrace)
		if err == nil {
			return
		}
		utils.GetLogger().Warn("failed to schedule deferred release, releasing immediately",
			zap.String("appointmentId", appt.ID), zap.Error(err))
	}

	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Slots.Release(releaseCtx, appt.SlotID, appt.ReservationToken); err != nil && !errors.Is(err, slotRepo.ErrAlreadyReleased) {
		utils.GetLogger().Error("release after cancel failed, sweep will retry",
			zap.String("appointmentId", appt.ID), zap.String("slotId", appt.SlotID), zap.Error(err))
	}
}

// CompleteAppointment marks a CONFIRMED appointment COMPLETED once the slot
// has ended. Capacity was consumed and is not returned.
func (c *DefaultCoordinator) CompleteAppointment(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error) {
	appt, err := c.transition(ctx, auth, appointmentID, models.StatusCompleted, "")
	if err != nil {
		return nil, err
	}
	if err := c.Providers.IncrementSessions(ctx, appt.ProviderID); err != nil {
		utils.GetLogger().Warn("failed to bump provider session count",
			zap.String("providerId", appt.ProviderID), zap.Error(err))
	}
	return appt, nil
}

// MarkNoShow marks a CONFIRMED appointment NO_SHOW once the slot has ended.
func (c *DefaultCoordinator) MarkNoShow(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error) {
	return c.transition(ctx, auth, appointmentID, models.StatusNoShow, "")
}

// transition runs the shared load → authorize → validate → commit sequence.
// ErrStaleStatus from the guarded commit means another writer moved the
// status between load and commit; the whole sequence is retried a bounded
// number of times before Conflict is surfaced.
func (c *DefaultCoordinator) transition(ctx context.Context, auth models.AuthContext, appointmentID string, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		appt, err := c.Appointments.GetByID(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrNotFound) {
				return nil, NewNotFoundError("appointment %s not found", appointmentID)
			}
			return nil, internalError("failed to load appointment", err)
		}

		if err := c.authorizeActor(auth, appt, to); err != nil {
			return nil, err
		}

		slotEnded, err := c.slotEnded(ctx, appt.SlotID)
		if err != nil {
			return nil, err
		}

		if err := Transition(TransitionRequest{
			From:      appt.Status,
			To:        to,
			Actor:     auth.Role,
			SlotEnded: slotEnded,
		}); err != nil {
			return nil, err
		}

		change := appointmentRepo.StatusChange{From: appt.Status, To: to}
		if to == models.StatusCancelled {
			change.CancellationReason = reason
			change.CancelledBy = auth.UserID
		}

		updated, err := c.Appointments.UpdateStatus(ctx, appointmentID, change)
		if err == nil {
			utils.GetLogger().Info("appointment transitioned",
				zap.String("appointmentId", appointmentID),
				zap.String("from", string(appt.Status)),
				zap.String("to", string(to)),
				zap.String("actor", string(auth.Role)))
			return updated, nil
		}
		if !errors.Is(err, appointmentRepo.ErrStaleStatus) {
			return nil, internalError("failed to commit status change", err)
		}
		lastErr = err
	}
	return nil, &Error{Kind: KindConflict, Message: "appointment status is contended, retry", Cause: lastErr}
}

// authorizeActor enforces ownership once, at the coordinator boundary.
func (c *DefaultCoordinator) authorizeActor(auth models.AuthContext, appt *models.Appointment, to models.AppointmentStatus) error {
	switch auth.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleClient:
		if appt.ClientID != auth.UserID {
			return NewUnauthorizedError("appointment belongs to another client")
		}
		if to != models.StatusCancelled {
			return NewUnauthorizedError("clients can only cancel appointments")
		}
		return nil
	case models.RoleProvider:
		if appt.ProviderID != auth.UserID {
			return NewUnauthorizedError("appointment belongs to another provider")
		}
		return nil
	}
	return NewUnauthorizedError("unknown role %q", auth.Role)
}

func (c *DefaultCoordinator) slotEnded(ctx context.Context, slotID string) (bool, error) {
	slot, err := c.Slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrNotFound) {
			// Slots are only deletable while unbooked, so a missing slot for
			// a live appointment is a data fault, not a user error.
			return false, internalError("slot missing for appointment", err)
		}
		return false, internalError("failed to load slot", err)
	}
	end, err := slot.EndAt()
	if err != nil {
		return false, internalError("slot has an invalid time window", err)
	}
	return end.Before(c.now()), nil
}

// GetAppointment returns one appointment to a party of it (or an admin).
func (c *DefaultCoordinator) GetAppointment(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error) {
	appt, err := c.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			return nil, NewNotFoundError("appointment %s not found", appointmentID)
		}
		return nil, internalError("failed to load appointment", err)
	}
	if auth.Role != models.RoleAdmin && appt.ClientID != auth.UserID && appt.ProviderID != auth.UserID {
		return nil, NewUnauthorizedError("appointment belongs to another user")
	}
	return appt, nil
}

// ListForActor returns the caller's appointments, client or provider view.
func (c *DefaultCoordinator) ListForActor(ctx context.Context, auth models.AuthContext) ([]models.Appointment, error) {
	switch auth.Role {
	case models.RoleClient:
		appts, err := c.Appointments.ListByClient(ctx, auth.UserID)
		if err != nil {
			return nil, internalError("failed to list appointments", err)
		}
		return appts, nil
	case models.RoleProvider:
		appts, err := c.Appointments.ListByProvider(ctx, auth.UserID)
		if err != nil {
			return nil, internalError("failed to list appointments", err)
		}
		return appts, nil
	}
	return nil, NewUnauthorizedError("%s has no personal appointment view", auth.Role)
}
