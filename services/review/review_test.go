package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryRepo "bookmytime/database/repository/memory"
	"bookmytime/models"
	"bookmytime/services/booking"
	"bookmytime/services/review"
)

type reviewFixture struct {
	svc          *review.DefaultReviewService
	appointments *memoryRepo.AppointmentStore
	providers    *memoryRepo.ProviderStore
	apptID       string
	providerID   string
}

func newReviewFixture(t *testing.T, status models.AppointmentStatus) *reviewFixture {
	t.Helper()
	f := &reviewFixture{
		appointments: memoryRepo.NewAppointmentStore(),
		providers:    memoryRepo.NewProviderStore(),
	}
	f.svc = &review.DefaultReviewService{
		Reviews:      memoryRepo.NewReviewStore(),
		Appointments: f.appointments,
		Providers:    f.providers,
	}

	ctx := context.Background()
	prov := &models.Provider{DisplayName: "Dana Kim", Active: true}
	require.NoError(t, f.providers.Create(ctx, prov))
	f.providerID = prov.ID

	appt := &models.Appointment{
		ClientID:   "client-1",
		ProviderID: prov.ID,
		ServiceID:  "svc-1",
		SlotID:     "slot-1",
		Status:     status,
	}
	require.NoError(t, f.appointments.Create(ctx, appt))
	f.apptID = appt.ID
	return f
}

func TestCreateReview_OnlyCompletedAppointments(t *testing.T) {
	for _, status := range []models.AppointmentStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusNoShow,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newReviewFixture(t, status)
			_, err := f.svc.CreateReview(context.Background(),
				models.AuthContext{UserID: "client-1", Role: models.RoleClient},
				f.apptID, review.ReviewInput{Rating: 5})
			require.Error(t, err)
			assert.Equal(t, booking.KindValidation, booking.KindOf(err))
		})
	}
}

func TestCreateReview_ParticipantsOnly(t *testing.T) {
	f := newReviewFixture(t, models.StatusCompleted)
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx,
		models.AuthContext{UserID: "stranger", Role: models.RoleClient},
		f.apptID, review.ReviewInput{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, booking.KindUnauthorized, booking.KindOf(err))
}

func TestCreateReview_ClientReviewUpdatesProviderRating(t *testing.T) {
	f := newReviewFixture(t, models.StatusCompleted)
	ctx := context.Background()

	created, err := f.svc.CreateReview(ctx,
		models.AuthContext{UserID: "client-1", Role: models.RoleClient},
		f.apptID, review.ReviewInput{Rating: 4, Comment: "solid session"})
	require.NoError(t, err)
	assert.Equal(t, f.providerID, created.RevieweeID)

	prov, err := f.providers.GetByID(ctx, f.providerID)
	require.NoError(t, err)
	assert.Equal(t, 1, prov.TotalReviews)
	assert.InDelta(t, 4.0, prov.Rating, 0.001)
}

func TestCreateReview_ProviderReviewsClientWithoutAggregate(t *testing.T) {
	f := newReviewFixture(t, models.StatusCompleted)
	ctx := context.Background()

	created, err := f.svc.CreateReview(ctx,
		models.AuthContext{UserID: f.providerID, Role: models.RoleProvider},
		f.apptID, review.ReviewInput{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "client-1", created.RevieweeID)

	// Reviews about clients never touch the provider aggregate.
	prov, err := f.providers.GetByID(ctx, f.providerID)
	require.NoError(t, err)
	assert.Zero(t, prov.TotalReviews)
}

func TestCreateReview_DuplicateRejected(t *testing.T) {
	f := newReviewFixture(t, models.StatusCompleted)
	ctx := context.Background()
	auth := models.AuthContext{UserID: "client-1", Role: models.RoleClient}

	_, err := f.svc.CreateReview(ctx, auth, f.apptID, review.ReviewInput{Rating: 5})
	require.NoError(t, err)

	_, err = f.svc.CreateReview(ctx, auth, f.apptID, review.ReviewInput{Rating: 1})
	require.Error(t, err)
	assert.Equal(t, booking.KindConflict, booking.KindOf(err))

	// Each party gets their own single review.
	_, err = f.svc.CreateReview(ctx,
		models.AuthContext{UserID: f.providerID, Role: models.RoleProvider},
		f.apptID, review.ReviewInput{Rating: 5})
	assert.NoError(t, err)
}

func TestCreateReview_RatingBounds(t *testing.T) {
	f := newReviewFixture(t, models.StatusCompleted)
	auth := models.AuthContext{UserID: "client-1", Role: models.RoleClient}

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.CreateReview(context.Background(), auth, f.apptID, review.ReviewInput{Rating: rating})
		require.Error(t, err)
		assert.Equal(t, booking.KindValidation, booking.KindOf(err))
	}
}

func TestListForProvider_AveragesAcrossReviews(t *testing.T) {
	f := newReviewFixture(t, models.StatusCompleted)
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx,
		models.AuthContext{UserID: "client-1", Role: models.RoleClient},
		f.apptID, review.ReviewInput{Rating: 5})
	require.NoError(t, err)

	second := &models.Appointment{
		ClientID: "client-2", ProviderID: f.providerID,
		ServiceID: "svc-1", SlotID: "slot-2", Status: models.StatusCompleted,
	}
	require.NoError(t, f.appointments.Create(ctx, second))
	_, err = f.svc.CreateReview(ctx,
		models.AuthContext{UserID: "client-2", Role: models.RoleClient},
		second.ID, review.ReviewInput{Rating: 2})
	require.NoError(t, err)

	reviews, err := f.svc.ListForProvider(ctx, f.providerID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	prov, err := f.providers.GetByID(ctx, f.providerID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, prov.Rating, 0.001)
}
