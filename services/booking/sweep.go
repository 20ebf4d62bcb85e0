// File: services/booking/sweep.go
package booking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appointmentRepo "bookmytime/database/repository/appointment"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/models"
	"bookmytime/utils"
)

// SweepExpiredPending cancels PENDING appointments that outlived the
// configured confirmation window and frees their capacity. Each appointment
// goes through the same guarded commit-then-release path as a user-initiated
// cancellation.
func (c *DefaultCoordinator) SweepExpiredPending(ctx context.Context) (int, error) {
	if c.PendingExpiry <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.PendingExpiry).Unix()

	expired, err := c.Appointments.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, internalError("failed to list expired appointments", err)
	}

	logger := utils.GetLogger()
	swept := 0
	for _, appt := range expired {
		change := appointmentRepo.StatusChange{
			From:               models.StatusPending,
			To:                 models.StatusCancelled,
			CancellationReason: "confirmation window expired",
			CancelledBy:        "system",
		}
		if _, err := c.Appointments.UpdateStatus(ctx, appt.ID, change); err != nil {
			// Lost the race to a confirm or a cancel; nothing to do here.
			if errors.Is(err, appointmentRepo.ErrStaleStatus) {
				continue
			}
			logger.Error("sweep failed to cancel appointment",
				zap.String("appointmentId", appt.ID), zap.Error(err))
			continue
		}

		if err := c.Slots.Release(ctx, appt.SlotID, appt.ReservationToken); err != nil && !errors.Is(err, slotRepo.ErrAlreadyReleased) {
			logger.Error("sweep failed to release capacity",
				zap.String("appointmentId", appt.ID),
				zap.String("slotId", appt.SlotID), zap.Error(err))
			continue
		}
		swept++
	}

	if swept > 0 {
		logger.Info("expired pending appointments swept", zap.Int("count", swept))
	}
	return swept, nil
}

// ReconcileReservations walks slots still holding reservation tokens and
// releases every token no live appointment backs. This is the recovery half
// of the reserve/commit protocol: a crash between reserve and commit leaves
// an unbacked token behind, and a failed release after a committed cancel
// leaves one pinned to a CANCELLED appointment. Release-by-token is
// idempotent, so re-running the sweep is always safe.
func (c *DefaultCoordinator) ReconcileReservations(ctx context.Context) (int, error) {
	staleBefore := c.now()
	if c.ReconcileAfter > 0 {
		staleBefore = staleBefore.Add(-c.ReconcileAfter)
	}

	slots, err := c.Slots.ListWithActiveReservations(ctx, staleBefore)
	if err != nil {
		return 0, internalError("failed to list held reservations", err)
	}

	logger := utils.GetLogger()
	released := 0
	for _, slot := range slots {
		for _, token := range slot.Reservations {
			appt, err := c.Appointments.GetByReservationToken(ctx, token)
			if err == nil {
				if appt.Status != models.StatusCancelled {
					continue // a live appointment owns this token
				}
				// A cancelled appointment whose release failed leaves its
				// token behind. Wait out the deferral window so the sweep
				// never races a scheduled release, then reclaim.
				if c.now().Sub(appt.UpdatedAt) <= c.CancelReleaseGrace {
					continue
				}
			} else if !errors.Is(err, appointmentRepo.ErrNotFound) {
				logger.Error("reconcile lookup failed", zap.String("token", token), zap.Error(err))
				continue
			}

			if err := c.Slots.Release(ctx, slot.ID, token); err != nil && !errors.Is(err, slotRepo.ErrAlreadyReleased) {
				logger.Error("reconcile release failed",
					zap.String("slotId", slot.ID), zap.String("token", token), zap.Error(err))
				continue
			}
			logger.Warn("released orphaned reservation",
				zap.String("slotId", slot.ID), zap.String("token", token))
			released++
		}
	}
	return released, nil
}
