// File: database/repository/provider/provider.go
package providerRepo

import (
	"context"
	"errors"

	"bookmytime/database"
	"bookmytime/models"
	"bookmytime/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("provider not found")

// ProviderRepository persists provider profiles and serves the discovery
// read side. Rating aggregates are only updated through ApplyReviewRating.
type ProviderRepository interface {
	Create(ctx context.Context, provider *models.Provider) error
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Provider, int64, error)
	// ApplyReviewRating folds one review rating into the provider's
	// denormalized aggregate in a single atomic update.
	ApplyReviewRating(ctx context.Context, providerID string, rating int) error
	IncrementSessions(ctx context.Context, providerID string) error
}

type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo constructs a new MongoDB ProviderRepository.
func NewMongoProviderRepo() ProviderRepository {
	repo := &MongoProviderRepo{
		coll: database.DB().Collection("providers"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure provider indexes", zap.Error(err))
	}
	return repo
}
