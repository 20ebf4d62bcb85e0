// File: database/repository/appointment/appointment.go
package appointmentRepo

import (
	"context"
	"errors"

	"bookmytime/database"
	"bookmytime/models"
	"bookmytime/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrStaleStatus means the guarded status update matched nothing: the
	// appointment moved since it was loaded.
	ErrStaleStatus = errors.New("appointment status changed concurrently")
)

// StatusChange is the payload of a guarded status transition.
type StatusChange struct {
	From               models.AppointmentStatus
	To                 models.AppointmentStatus
	CancellationReason string
	CancelledBy        string
}

// AppointmentRepository persists appointments. Status writes go through
// UpdateStatus, which is guarded on the expected current status so that the
// coordinator's load-validate-commit sequence cannot apply a stale decision.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByIdempotencyKey(ctx context.Context, clientID, key string) (*models.Appointment, error)
	GetByReservationToken(ctx context.Context, token string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, change StatusChange) (*models.Appointment, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Appointment, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Appointment, error)
	// ListPendingBefore returns PENDING appointments created before the
	// cutoff; the sweep cancels them and frees their capacity.
	ListPendingBefore(ctx context.Context, cutoff int64) ([]models.Appointment, error)
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	repo := &mongoAppointmentRepo{
		coll: database.DB().Collection("appointments"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure appointment indexes", zap.Error(err))
	}
	return repo
}
