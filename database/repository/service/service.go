// File: database/repository/service/service.go
package serviceRepo

import (
	"context"
	"errors"

	"bookmytime/database"
	"bookmytime/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("service not found")

// ServiceRepository persists a provider's service catalogue.
type ServiceRepository interface {
	Create(ctx context.Context, svc *models.Service) error
	GetByID(ctx context.Context, id string) (*models.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Service, error)
	SetActive(ctx context.Context, providerID, serviceID string, active bool) error
}

type mongoServiceRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceRepo constructs a new MongoDB ServiceRepository.
func NewMongoServiceRepo() ServiceRepository {
	return &mongoServiceRepo{
		coll: database.DB().Collection("services"),
	}
}
