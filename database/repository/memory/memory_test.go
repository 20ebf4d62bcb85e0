package memoryRepo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryRepo "bookmytime/database/repository/memory"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/models"
)

func newSlot(t *testing.T, store *memoryRepo.SlotStore, maxBookings int) string {
	t.Helper()
	slot := &models.AvailabilitySlot{
		ProviderID:  "prov-1",
		Date:        "2026-04-01",
		StartTime:   "09:00",
		EndTime:     "10:00",
		Timezone:    "UTC",
		MaxBookings: maxBookings,
	}
	require.NoError(t, store.Create(context.Background(), slot))
	return slot.ID
}

func TestSlotStore_ReserveBoundedByCapacity(t *testing.T) {
	store := memoryRepo.NewSlotStore()
	ctx := context.Background()
	slotID := newSlot(t, store, 3)

	tokens := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		token, err := store.Reserve(ctx, slotID)
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	_, err := store.Reserve(ctx, slotID)
	assert.ErrorIs(t, err, slotRepo.ErrCapacityExceeded)

	slot, err := store.GetByID(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 3, slot.CurrentBookings)
	assert.ElementsMatch(t, tokens, slot.Reservations)
}

func TestSlotStore_ReleaseIdempotentPerToken(t *testing.T) {
	store := memoryRepo.NewSlotStore()
	ctx := context.Background()
	slotID := newSlot(t, store, 1)

	token, err := store.Reserve(ctx, slotID)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, slotID, token))
	// A replayed release must not push the counter below zero.
	assert.ErrorIs(t, store.Release(ctx, slotID, token), slotRepo.ErrAlreadyReleased)

	slot, err := store.GetByID(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.CurrentBookings)
	assert.Empty(t, slot.Reservations)
}

func TestSlotStore_ConcurrentChurnKeepsCounterInBounds(t *testing.T) {
	// Hammer one slot with concurrent reserve/release pairs and check the
	// counter invariant 0 <= currentBookings <= maxBookings afterwards.
	store := memoryRepo.NewSlotStore()
	ctx := context.Background()
	slotID := newSlot(t, store, 5)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := store.Reserve(ctx, slotID)
			if err != nil {
				return
			}
			_ = store.Release(ctx, slotID, token)
		}()
	}
	wg.Wait()

	slot, err := store.GetByID(ctx, slotID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, slot.CurrentBookings, 0)
	assert.LessOrEqual(t, slot.CurrentBookings, slot.MaxBookings)
	assert.Len(t, slot.Reservations, slot.CurrentBookings)
}

func TestSlotStore_DeleteRefusesBookedSlot(t *testing.T) {
	store := memoryRepo.NewSlotStore()
	ctx := context.Background()
	slotID := newSlot(t, store, 1)

	token, err := store.Reserve(ctx, slotID)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete(ctx, "prov-1", slotID), slotRepo.ErrSlotInUse)

	require.NoError(t, store.Release(ctx, slotID, token))
	assert.NoError(t, store.Delete(ctx, "prov-1", slotID))
}

func TestSlotStore_DeletedSlotNeverHandsOutTokens(t *testing.T) {
	// Race a reserve against a delete. If both were to succeed, the token
	// would point at a slot the arena no longer holds.
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		store := memoryRepo.NewSlotStore()
		slotID := newSlot(t, store, 1)

		var wg sync.WaitGroup
		var reserveErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, reserveErr = store.Reserve(ctx, slotID)
		}()
		go func() {
			defer wg.Done()
			deleteErr = store.Delete(ctx, "prov-1", slotID)
		}()
		wg.Wait()

		if reserveErr == nil && deleteErr == nil {
			t.Fatal("reserve issued a token for a deleted slot")
		}
		if deleteErr == nil {
			_, err := store.GetByID(ctx, slotID)
			assert.ErrorIs(t, err, slotRepo.ErrNotFound)
		}
	}
}
