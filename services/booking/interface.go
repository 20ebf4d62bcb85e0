// File: services/booking/interface.go
package booking

import (
	"context"

	"bookmytime/models"
)

// Coordinator is the orchestration boundary of the booking engine. Every
// externally visible booking operation is one of its calls, executed as a
// single logical transaction spanning the slot ledger and the appointment
// store.
type Coordinator interface {
	CreateAppointment(ctx context.Context, auth models.AuthContext, req models.CreateAppointmentRequest) (*models.Appointment, error)
	ConfirmAppointment(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, auth models.AuthContext, appointmentID, reason string) (*models.Appointment, error)
	CompleteAppointment(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error)
	MarkNoShow(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error)
	GetAppointment(ctx context.Context, auth models.AuthContext, appointmentID string) (*models.Appointment, error)
	ListForActor(ctx context.Context, auth models.AuthContext) ([]models.Appointment, error)

	// SweepExpiredPending cancels PENDING appointments older than the
	// configured expiry and frees their capacity. Run from the background
	// worker as an admin actor.
	SweepExpiredPending(ctx context.Context) (int, error)
	// ReconcileReservations releases reservation tokens that no appointment
	// backs, the crash-recovery half of the two-step reserve/commit protocol.
	ReconcileReservations(ctx context.Context) (int, error)
}
