// File: database/repository/slot/ledger.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"bookmytime/utils"

	"go.uber.org/zap"
)

// Reserve claims one unit of capacity with a single conditional update. The
// document-level atomicity of UpdateOne makes the check-and-increment
// linearizable per slot; operations on distinct slots never contend.
func (r *mongoSlotRepo) Reserve(ctx context.Context, slotID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	token := uuid.New().String()

	filter := bson.M{
		"id":    slotID,
		"$expr": bson.M{"$lt": bson.A{"$currentBookings", "$maxBookings"}},
	}
	update := bson.M{
		"$inc":  bson.M{"currentBookings": 1, "version": 1},
		"$push": bson.M{"reservations": token},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return "", fmt.Errorf("failed to reserve slot capacity: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing slot from a full one.
		count, cerr := r.coll.CountDocuments(ctx, bson.M{"id": slotID})
		if cerr != nil {
			return "", fmt.Errorf("failed to check slot existence: %w", cerr)
		}
		if count == 0 {
			return "", ErrNotFound
		}
		return "", ErrCapacityExceeded
	}

	utils.GetLogger().Debug("slot capacity reserved",
		zap.String("slotId", slotID), zap.String("token", token))
	return token, nil
}

// Release returns one unit of capacity. Filtering on the token makes the
// decrement idempotent: once the token is pulled, a replay matches nothing
// and the counter is never decremented twice.
func (r *mongoSlotRepo) Release(ctx context.Context, slotID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": slotID, "reservations": token}
	update := bson.M{
		"$inc":  bson.M{"currentBookings": -1, "version": 1},
		"$pull": bson.M{"reservations": token},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release slot capacity: %w", err)
	}
	if res.MatchedCount == 0 {
		count, cerr := r.coll.CountDocuments(ctx, bson.M{"id": slotID})
		if cerr != nil {
			return fmt.Errorf("failed to check slot existence: %w", cerr)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyReleased
	}

	utils.GetLogger().Debug("slot capacity released",
		zap.String("slotId", slotID), zap.String("token", token))
	return nil
}
