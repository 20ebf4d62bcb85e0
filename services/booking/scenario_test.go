package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmytime/models"
	"bookmytime/services/booking"
)

// TestScenario_ContendedSlotWithCancellation walks one slot through a full
// contention cycle, the end-to-end behavior the engine exists for.
func TestScenario_ContendedSlotWithCancellation(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	// Two clients fill the slot.
	c1Appt, err := f.coordinator.CreateAppointment(ctx, client("c1"), f.bookRequest("c1-key"))
	require.NoError(t, err)
	_, err = f.coordinator.CreateAppointment(ctx, client("c2"), f.bookRequest("c2-key"))
	require.NoError(t, err)

	// A third hits the wall.
	_, err = f.coordinator.CreateAppointment(ctx, client("c3"), f.bookRequest("c3-key"))
	require.Error(t, err)
	require.Equal(t, booking.KindCapacityExceeded, booking.KindOf(err))

	// The provider confirms the first booking.
	confirmed, err := f.coordinator.ConfirmAppointment(ctx, provider(f.providerID), c1Appt.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, confirmed.Status)

	// c1 backs out anyway; the capacity returns.
	cancelled, err := f.coordinator.CancelAppointment(ctx, client("c1"), c1Appt.ID, "schedule conflict")
	require.NoError(t, err)
	assert.Equal(t, "schedule conflict", cancelled.CancellationReason)
	assert.Equal(t, "c1", cancelled.CancelledBy)

	// c3's retry with a fresh key now lands.
	c3Appt, err := f.coordinator.CreateAppointment(ctx, client("c3"), f.bookRequest("c3-retry"))
	require.NoError(t, err)

	// The slot is exactly full again with c2 and c3 holding the units.
	slot := f.slotState(t)
	assert.Equal(t, 2, slot.CurrentBookings)
	assert.Equal(t, 0, slot.CapacityRemaining())

	// Post-session wrap-up: confirm, wait out the slot, complete.
	_, err = f.coordinator.ConfirmAppointment(ctx, provider(f.providerID), c3Appt.ID)
	require.NoError(t, err)
	f.coordinator.Now = func() time.Time {
		return time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC)
	}
	done, err := f.coordinator.CompleteAppointment(ctx, provider(f.providerID), c3Appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	// Completion consumes capacity for good.
	assert.Equal(t, 2, f.slotState(t).CurrentBookings)
}
