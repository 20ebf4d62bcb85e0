// File: services/review/review.go
package review

import (
	"context"
	"errors"

	appointmentRepo "bookmytime/database/repository/appointment"
	providerRepo "bookmytime/database/repository/provider"
	reviewRepo "bookmytime/database/repository/review"
	"bookmytime/models"
	"bookmytime/services/booking"
	"bookmytime/utils"

	"go.uber.org/zap"
)

// ReviewInput is the caller-supplied part of a review.
type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ReviewService creates reviews for completed appointments and keeps the
// provider rating aggregate in step.
type ReviewService interface {
	CreateReview(ctx context.Context, auth models.AuthContext, appointmentID string, input ReviewInput) (*models.Review, error)
	ListForProvider(ctx context.Context, providerID string) ([]models.Review, error)
}

// DefaultReviewService is the production ReviewService implementation.
type DefaultReviewService struct {
	Reviews      reviewRepo.ReviewRepository
	Appointments appointmentRepo.AppointmentRepository
	Providers    providerRepo.ProviderRepository
}

var _ ReviewService = (*DefaultReviewService)(nil)

// CreateReview lets either party of a COMPLETED appointment review the
// other, at most once each.
func (s *DefaultReviewService) CreateReview(ctx context.Context, auth models.AuthContext, appointmentID string, input ReviewInput) (*models.Review, error) {
	appt, err := s.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			return nil, booking.NewNotFoundError("appointment %s not found", appointmentID)
		}
		return nil, err
	}
	if appt.Status != models.StatusCompleted {
		return nil, booking.NewValidationError("only completed appointments can be reviewed")
	}

	var revieweeID string
	switch auth.UserID {
	case appt.ClientID:
		revieweeID = appt.ProviderID
	case appt.ProviderID:
		revieweeID = appt.ClientID
	default:
		return nil, booking.NewUnauthorizedError("only appointment participants can leave a review")
	}

	review := &models.Review{
		AppointmentID: appointmentID,
		ReviewerID:    auth.UserID,
		RevieweeID:    revieweeID,
		Rating:        input.Rating,
		Title:         input.Title,
		Comment:       input.Comment,
	}
	if err := review.Validate(); err != nil {
		return nil, booking.NewValidationError("%v", err)
	}

	if err := s.Reviews.Create(ctx, review); err != nil {
		if errors.Is(err, reviewRepo.ErrDuplicate) {
			return nil, booking.NewConflictError("appointment %s is already reviewed by this user", appointmentID)
		}
		return nil, err
	}

	// Fold client-authored ratings into the provider's aggregate. The
	// review row is the source of truth; a failed fold is logged and the
	// aggregate drifts until the next successful one.
	if revieweeID == appt.ProviderID {
		if err := s.Providers.ApplyReviewRating(ctx, revieweeID, review.Rating); err != nil {
			utils.GetLogger().Error("failed to update provider rating aggregate",
				zap.String("providerId", revieweeID), zap.Error(err))
		}
	}
	return review, nil
}

func (s *DefaultReviewService) ListForProvider(ctx context.Context, providerID string) ([]models.Review, error) {
	if _, err := s.Providers.GetByID(ctx, providerID); err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, booking.NewNotFoundError("provider %s not found", providerID)
		}
		return nil, err
	}
	return s.Reviews.ListByReviewee(ctx, providerID)
}
