// File: database/repository/slot/slot.go
package slotRepo

import (
	"context"
	"errors"
	"time"

	"bookmytime/database"
	"bookmytime/models"
	"bookmytime/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Ledger outcomes. Reserve and Release are the only operations allowed to
// touch a slot's currentBookings counter.
var (
	ErrNotFound         = errors.New("slot not found")
	ErrCapacityExceeded = errors.New("slot capacity exceeded")
	ErrAlreadyReleased  = errors.New("reservation already released")
	ErrSlotInUse        = errors.New("slot has active bookings")
)

// SlotRepository is the single source of truth for slot capacity.
type SlotRepository interface {
	Create(ctx context.Context, slot *models.AvailabilitySlot) error
	CreateMany(ctx context.Context, slots []models.AvailabilitySlot) ([]string, error)
	GetByID(ctx context.Context, slotID string) (*models.AvailabilitySlot, error)
	ListByProviderRange(ctx context.Context, providerID, startDate, endDate string) ([]models.AvailabilitySlot, error)
	// Delete removes a slot, refusing while any capacity is consumed.
	Delete(ctx context.Context, providerID, slotID string) error
	// ListWithActiveReservations returns slots still holding reservation
	// tokens whose last update precedes the cutoff; the reconciliation sweep
	// uses this to find reservations left behind by a crash.
	ListWithActiveReservations(ctx context.Context, updatedBefore time.Time) ([]models.AvailabilitySlot, error)

	// Reserve atomically claims one unit of capacity and returns the
	// reservation token proving the claim. Exactly one of N concurrent
	// callers wins the last unit.
	Reserve(ctx context.Context, slotID string) (string, error)
	// Release returns one unit of capacity. Idempotent per token: a second
	// release of the same token reports ErrAlreadyReleased without touching
	// the counter.
	Release(ctx context.Context, slotID, token string) error
}

type mongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo() SlotRepository {
	repo := &mongoSlotRepo{
		coll: database.DB().Collection("slots"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure slot indexes", zap.Error(err))
	}
	return repo
}
