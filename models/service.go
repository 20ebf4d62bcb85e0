package models

import "time"

// Service is a bookable offering owned by a provider.
type Service struct {
	ID              string    `bson:"id" json:"id"`
	ProviderID      string    `bson:"providerId" json:"providerId"`
	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	Category        string    `bson:"category" json:"category"`
	Subcategory     string    `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Price           float64   `bson:"price" json:"price"`
	Currency        string    `bson:"currency" json:"currency"`
	Active          bool      `bson:"active" json:"isActive"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (s *Service) Validate() error {
	if s.DurationMinutes <= 0 {
		return ErrDurationRange
	}
	return nil
}
