package models

import "time"

// Review is left by one party of a completed appointment about the other.
// At most one review per (appointmentId, reviewerId).
type Review struct {
	ID            string    `bson:"id" json:"id"`
	AppointmentID string    `bson:"appointmentId" json:"appointmentId"`
	ReviewerID    string    `bson:"reviewerId" json:"reviewerId"`
	RevieweeID    string    `bson:"revieweeId" json:"revieweeId"`
	Rating        int       `bson:"rating" json:"rating"` // 1..5
	Title         string    `bson:"title,omitempty" json:"title,omitempty"`
	Comment       string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrReviewRating
	}
	return nil
}
