package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryRepo "bookmytime/database/repository/memory"
	"bookmytime/handlers"
	"bookmytime/models"
	"bookmytime/routes"
	"bookmytime/services/booking"
	"bookmytime/services/discovery"
	"bookmytime/services/provider"
	"bookmytime/services/review"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type apiFixture struct {
	router     *gin.Engine
	providerID string
	serviceID  string
	slotID     string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slots := memoryRepo.NewSlotStore()
	appointments := memoryRepo.NewAppointmentStore()
	providers := memoryRepo.NewProviderStore()
	services := memoryRepo.NewServiceStore()
	reviews := memoryRepo.NewReviewStore()
	providers.LinkServices(services)

	now := func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }

	handlers.BookingService = &booking.DefaultCoordinator{
		Slots:         slots,
		Appointments:  appointments,
		Providers:     providers,
		Services:      services,
		PendingExpiry: 24 * time.Hour,
		Now:           now,
	}
	handlers.DiscoveryService = &discovery.DefaultDiscoveryService{
		Providers: providers,
		Slots:     slots,
		Now:       now,
	}
	handlers.ProviderService = &provider.DefaultProviderService{
		Repo:     providers,
		Services: services,
		Slots:    slots,
	}
	handlers.ReviewService = &review.DefaultReviewService{
		Reviews:      reviews,
		Appointments: appointments,
		Providers:    providers,
	}

	router := gin.New()
	routes.RegisterRoutes(router)

	f := &apiFixture{router: router}

	prov := &models.Provider{DisplayName: "Dana Kim", Timezone: "UTC", Active: true, HourlyRate: 80}
	require.NoError(t, providers.Create(context.Background(), prov))
	f.providerID = prov.ID

	svc := &models.Service{
		ProviderID: prov.ID, Title: "Consultation", Category: "coaching",
		DurationMinutes: 60, Price: 80, Currency: "USD", Active: true,
	}
	require.NoError(t, services.Create(context.Background(), svc))
	f.serviceID = svc.ID

	slot := &models.AvailabilitySlot{
		ProviderID: prov.ID, Date: "2026-03-11", StartTime: "09:00", EndTime: "10:00",
		Timezone: "UTC", MaxBookings: 1,
	}
	require.NoError(t, slots.Create(context.Background(), slot))
	f.slotID = slot.ID
	return f
}

func bearerToken(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("bookmytime-dev"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// =============================================================================
// AUTH SURFACE
// =============================================================================

func TestAPI_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/appointments", "", gin.H{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/appointments/me", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_RoleGates(t *testing.T) {
	f := newAPIFixture(t)

	// A provider cannot create appointments.
	w := f.do(t, http.MethodPost, "/api/appointments",
		bearerToken(t, f.providerID, models.RoleProvider), gin.H{}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A client cannot publish availability.
	w = f.do(t, http.MethodPost, "/api/providers/"+f.providerID+"/availability",
		bearerToken(t, "c1", models.RoleClient), gin.H{}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// =============================================================================
// BOOKING FLOW OVER HTTP
// =============================================================================

func TestAPI_BookingLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	clientAuth := bearerToken(t, "c1", models.RoleClient)
	providerAuth := bearerToken(t, f.providerID, models.RoleProvider)

	createBody := gin.H{
		"providerId": f.providerID,
		"serviceId":  f.serviceID,
		"slotId":     f.slotID,
	}

	// Create with an idempotency key.
	w := f.do(t, http.MethodPost, "/api/appointments", clientAuth, createBody,
		map[string]string{"Idempotency-Key": "book-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appt := decode[models.Appointment](t, w)
	assert.Equal(t, models.StatusPending, appt.Status)

	// Identical retry replays the same appointment.
	w = f.do(t, http.MethodPost, "/api/appointments", clientAuth, createBody,
		map[string]string{"Idempotency-Key": "book-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, appt.ID, decode[models.Appointment](t, w).ID)

	// The slot is full for everyone else.
	w = f.do(t, http.MethodPost, "/api/appointments",
		bearerToken(t, "c2", models.RoleClient), createBody, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Provider confirms, then the client cancels.
	w = f.do(t, http.MethodPost, "/api/appointments/"+appt.ID+"/confirm", providerAuth, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/appointments/"+appt.ID+"/cancel", clientAuth,
		gin.H{"reason": "schedule conflict"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode[models.Appointment](t, w)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "schedule conflict", cancelled.CancellationReason)

	// A second cancel is a conflict, not a repeat.
	w = f.do(t, http.MethodPost, "/api/appointments/"+appt.ID+"/cancel", clientAuth, nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The freed capacity shows up in the public availability read.
	w = f.do(t, http.MethodGet,
		"/api/providers/"+f.providerID+"/availability?startDate=2026-03-10&endDate=2026-03-14", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[map[string][]models.AvailabilitySlot](t, w)
	assert.Len(t, listing["slots"], 1)
}

func TestAPI_SearchProviders(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/search/providers?query=dana&sortBy=rating", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.Page[models.Provider]](t, w)
	require.Len(t, page.Content, 1)
	assert.Equal(t, f.providerID, page.Content[0].ID)

	w = f.do(t, http.MethodGet, "/api/search/providers?query=nobody", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Page[models.Provider]](t, w).Content)

	// The fixture provider is not verified, so the verified filter hides it.
	w = f.do(t, http.MethodGet, "/api/search/providers?verifiedOnly=true", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Page[models.Provider]](t, w).Content)
}

func TestAPI_ProviderManagesAvailability(t *testing.T) {
	f := newAPIFixture(t)
	providerAuth := bearerToken(t, f.providerID, models.RoleProvider)

	w := f.do(t, http.MethodPost, "/api/providers/"+f.providerID+"/availability", providerAuth,
		gin.H{"slots": []gin.H{{
			"date": "2026-03-12", "startTime": "09:00", "endTime": "12:00",
			"timezone": "UTC", "maxBookings": 4,
		}}}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string][]models.AvailabilitySlot](t, w)
	require.Len(t, created["slots"], 1)

	w = f.do(t, http.MethodDelete,
		"/api/providers/"+f.providerID+"/availability/"+created["slots"][0].ID, providerAuth, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
