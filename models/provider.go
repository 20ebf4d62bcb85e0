package models

import "time"

// Provider represents a service provider profile with its rating aggregate.
// The rating fields are only ever updated through the review service.
type Provider struct {
	ID              string    `bson:"id" json:"id"`
	Email           string    `bson:"email" json:"email"`
	DisplayName     string    `bson:"displayName" json:"displayName"`
	Headline        string    `bson:"headline,omitempty" json:"headline,omitempty"`
	Bio             string    `bson:"bio,omitempty" json:"bio,omitempty"`
	HourlyRate      float64   `bson:"hourlyRate" json:"hourlyRate"`
	Currency        string    `bson:"currency" json:"currency"`
	YearsExperience int       `bson:"yearsExperience,omitempty" json:"yearsExperience,omitempty"`
	Verified        bool      `bson:"verified" json:"isVerified"`
	Rating          float64   `bson:"rating" json:"rating"`           // average, 0..5
	RatingSum       int       `bson:"ratingSum" json:"-"`             // denormalized sum backing Rating
	TotalReviews    int       `bson:"totalReviews" json:"totalReviews"`
	TotalSessions   int       `bson:"totalSessions" json:"totalSessions"`
	Specialties     []string  `bson:"specialties,omitempty" json:"specialties,omitempty"`
	Languages       []string  `bson:"languages,omitempty" json:"languages,omitempty"`
	Timezone        string    `bson:"timezone" json:"timezone"`
	// AutoConfirm makes new appointments start CONFIRMED instead of PENDING.
	AutoConfirm bool      `bson:"autoConfirm" json:"autoConfirm"`
	Active      bool      `bson:"active" json:"isActive"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the provider profile invariants.
func (p *Provider) Validate() error {
	if p.HourlyRate < 0 {
		return ErrNegativeRate
	}
	if p.Rating < 0 || p.Rating > 5 {
		return ErrRatingRange
	}
	return nil
}
