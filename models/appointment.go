package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
)

// Terminal reports whether no further transition may leave the status.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Appointment is a confirmed claim on slot capacity. Its status field is
// written only by the booking coordinator; ReservationToken ties it to the
// ledger reservation that backs it.
type Appointment struct {
	ID                 string            `bson:"id" json:"id"`
	ClientID           string            `bson:"clientId" json:"clientId"`
	ProviderID         string            `bson:"providerId" json:"providerId"`
	ServiceID          string            `bson:"serviceId" json:"serviceId"`
	SlotID             string            `bson:"slotId" json:"slotId"`
	ReservationToken   string            `bson:"reservationToken" json:"-"`
	IdempotencyKey     string            `bson:"idempotencyKey" json:"-"`
	Status             AppointmentStatus `bson:"status" json:"status"`
	Price              float64           `bson:"price" json:"price"`
	Currency           string            `bson:"currency" json:"currency"`
	ClientNotes        string            `bson:"clientNotes,omitempty" json:"clientNotes,omitempty"`
	CancellationReason string            `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CancelledBy        string            `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CreatedAt          time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// CreateAppointmentRequest is the coordinator's booking input.
type CreateAppointmentRequest struct {
	ProviderID     string `json:"providerId" binding:"required"`
	ServiceID      string `json:"serviceId" binding:"required"`
	SlotID         string `json:"slotId" binding:"required"`
	ClientNotes    string `json:"clientNotes,omitempty"`
	IdempotencyKey string `json:"-"`
}

// SameParameters reports whether a stored appointment was created from an
// identical request, which is what makes an idempotent replay legal.
func (a *Appointment) SameParameters(req CreateAppointmentRequest, clientID string) bool {
	return a.ClientID == clientID &&
		a.ProviderID == req.ProviderID &&
		a.ServiceID == req.ServiceID &&
		a.SlotID == req.SlotID
}
