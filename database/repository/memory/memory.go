// Package memoryRepo provides in-memory repository implementations used by
// the engine tests and the standalone development mode. Each repository
// honors the same contract as its MongoDB counterpart, including the slot
// ledger's per-slot serialization: every slot record carries its own mutex,
// so operations on distinct slots never contend.
package memoryRepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appointmentRepo "bookmytime/database/repository/appointment"
	providerRepo "bookmytime/database/repository/provider"
	reviewRepo "bookmytime/database/repository/review"
	serviceRepo "bookmytime/database/repository/service"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/models"
)

// =============================================================================
// SLOT LEDGER
// =============================================================================

type slotRecord struct {
	mu      sync.Mutex
	deleted bool // set under mu before the record leaves the arena
	slot    models.AvailabilitySlot
}

// SlotStore is the in-memory slot ledger: an arena of slot records addressed
// by id, each with its own lock.
type SlotStore struct {
	mu    sync.RWMutex // guards the arena map only
	slots map[string]*slotRecord
}

func NewSlotStore() *SlotStore {
	return &SlotStore{slots: make(map[string]*slotRecord)}
}

var _ slotRepo.SlotRepository = (*SlotStore)(nil)

func (s *SlotStore) record(slotID string) (*slotRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.slots[slotID]
	return rec, ok
}

func (s *SlotStore) Create(_ context.Context, slot *models.AvailabilitySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.ID] = &slotRecord{slot: *slot}
	return nil
}

func (s *SlotStore) CreateMany(ctx context.Context, slots []models.AvailabilitySlot) ([]string, error) {
	ids := make([]string, len(slots))
	for i := range slots {
		if err := s.Create(ctx, &slots[i]); err != nil {
			return nil, err
		}
		ids[i] = slots[i].ID
	}
	return ids, nil
}

func (s *SlotStore) GetByID(_ context.Context, slotID string) (*models.AvailabilitySlot, error) {
	rec, ok := s.record(slotID)
	if !ok {
		return nil, slotRepo.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, slotRepo.ErrNotFound
	}
	snapshot := rec.slot
	return &snapshot, nil
}

func (s *SlotStore) ListByProviderRange(_ context.Context, providerID, startDate, endDate string) ([]models.AvailabilitySlot, error) {
	s.mu.RLock()
	records := make([]*slotRecord, 0, len(s.slots))
	for _, rec := range s.slots {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	var out []models.AvailabilitySlot
	for _, rec := range records {
		rec.mu.Lock()
		slot := rec.slot
		rec.mu.Unlock()
		if slot.ProviderID != providerID {
			continue
		}
		if startDate != "" && slot.Date < startDate {
			continue
		}
		if endDate != "" && slot.Date > endDate {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *SlotStore) Delete(_ context.Context, providerID, slotID string) error {
	rec, ok := s.record(slotID)
	if !ok {
		return slotRepo.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted || rec.slot.ProviderID != providerID {
		return slotRepo.ErrNotFound
	}
	if rec.slot.CurrentBookings > 0 {
		return slotRepo.ErrSlotInUse
	}
	// A racing Reserve may already hold this record pointer and be waiting on
	// rec.mu; the tombstone makes it refuse the slot instead of resurrecting it.
	rec.deleted = true
	s.mu.Lock()
	delete(s.slots, slotID)
	s.mu.Unlock()
	return nil
}

func (s *SlotStore) ListWithActiveReservations(_ context.Context, updatedBefore time.Time) ([]models.AvailabilitySlot, error) {
	s.mu.RLock()
	records := make([]*slotRecord, 0, len(s.slots))
	for _, rec := range s.slots {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	var out []models.AvailabilitySlot
	for _, rec := range records {
		rec.mu.Lock()
		slot := rec.slot
		rec.mu.Unlock()
		if len(slot.Reservations) > 0 && slot.UpdatedAt.Before(updatedBefore) {
			out = append(out, slot)
		}
	}
	return out, nil
}

// Reserve claims one unit of capacity under the slot's own lock. The lock is
// the per-slot serialization point: exactly one of N concurrent callers wins
// the last unit, and slots never block one another.
func (s *SlotStore) Reserve(_ context.Context, slotID string) (string, error) {
	rec, ok := s.record(slotID)
	if !ok {
		return "", slotRepo.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return "", slotRepo.ErrNotFound
	}
	if rec.slot.CurrentBookings >= rec.slot.MaxBookings {
		return "", slotRepo.ErrCapacityExceeded
	}
	token := uuid.New().String()
	rec.slot.CurrentBookings++
	rec.slot.Version++
	rec.slot.Reservations = append(rec.slot.Reservations, token)
	rec.slot.UpdatedAt = time.Now()
	return token, nil
}

// Release is idempotent per token: once the token is gone, a replay reports
// ErrAlreadyReleased and leaves the counter alone.
func (s *SlotStore) Release(_ context.Context, slotID, token string) error {
	rec, ok := s.record(slotID)
	if !ok {
		return slotRepo.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return slotRepo.ErrNotFound
	}
	for i, t := range rec.slot.Reservations {
		if t == token {
			rec.slot.Reservations = append(rec.slot.Reservations[:i], rec.slot.Reservations[i+1:]...)
			rec.slot.CurrentBookings--
			rec.slot.Version++
			rec.slot.UpdatedAt = time.Now()
			return nil
		}
	}
	return slotRepo.ErrAlreadyReleased
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

// AppointmentStore is the in-memory appointment repository.
type AppointmentStore struct {
	mu        sync.RWMutex
	byID      map[string]*models.Appointment
	byIdemKey map[string]string // clientID+"\x00"+key -> appointment id
}

func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{
		byID:      make(map[string]*models.Appointment),
		byIdemKey: make(map[string]string),
	}
}

var _ appointmentRepo.AppointmentRepository = (*AppointmentStore)(nil)

func idemKey(clientID, key string) string {
	return clientID + "\x00" + key
}

func (s *AppointmentStore) Create(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	s.byID[appt.ID] = &stored
	if appt.IdempotencyKey != "" {
		s.byIdemKey[idemKey(appt.ClientID, appt.IdempotencyKey)] = appt.ID
	}
	return nil
}

func (s *AppointmentStore) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.byID[id]
	if !ok {
		return nil, appointmentRepo.ErrNotFound
	}
	snapshot := *appt
	return &snapshot, nil
}

func (s *AppointmentStore) GetByIdempotencyKey(_ context.Context, clientID, key string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdemKey[idemKey(clientID, key)]
	if !ok {
		return nil, appointmentRepo.ErrNotFound
	}
	snapshot := *s.byID[id]
	return &snapshot, nil
}

func (s *AppointmentStore) GetByReservationToken(_ context.Context, token string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, appt := range s.byID {
		if appt.ReservationToken == token {
			snapshot := *appt
			return &snapshot, nil
		}
	}
	return nil, appointmentRepo.ErrNotFound
}

func (s *AppointmentStore) UpdateStatus(_ context.Context, id string, change appointmentRepo.StatusChange) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return nil, appointmentRepo.ErrNotFound
	}
	if appt.Status != change.From {
		return nil, appointmentRepo.ErrStaleStatus
	}
	appt.Status = change.To
	if change.CancellationReason != "" {
		appt.CancellationReason = change.CancellationReason
	}
	if change.CancelledBy != "" {
		appt.CancelledBy = change.CancelledBy
	}
	appt.UpdatedAt = time.Now()
	snapshot := *appt
	return &snapshot, nil
}

func (s *AppointmentStore) ListByClient(_ context.Context, clientID string) ([]models.Appointment, error) {
	return s.list(func(a *models.Appointment) bool { return a.ClientID == clientID })
}

func (s *AppointmentStore) ListByProvider(_ context.Context, providerID string) ([]models.Appointment, error) {
	return s.list(func(a *models.Appointment) bool { return a.ProviderID == providerID })
}

func (s *AppointmentStore) ListPendingBefore(_ context.Context, cutoff int64) ([]models.Appointment, error) {
	limit := time.Unix(cutoff, 0)
	return s.list(func(a *models.Appointment) bool {
		return a.Status == models.StatusPending && a.CreatedAt.Before(limit)
	})
}

func (s *AppointmentStore) list(match func(*models.Appointment) bool) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, appt := range s.byID {
		if match(appt) {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// PROVIDERS
// =============================================================================

// ProviderStore is the in-memory provider repository.
type ProviderStore struct {
	mu        sync.RWMutex
	providers map[string]*models.Provider
	services  *ServiceStore
}

func NewProviderStore() *ProviderStore {
	return &ProviderStore{providers: make(map[string]*models.Provider)}
}

// LinkServices attaches the service catalogue so Search can filter by
// category, the same join the persistent search runs against the services
// collection.
func (s *ProviderStore) LinkServices(services *ServiceStore) {
	s.services = services
}

var _ providerRepo.ProviderRepository = (*ProviderStore)(nil)

func (s *ProviderStore) Create(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	now := time.Now()
	provider.CreatedAt = now
	provider.UpdatedAt = now
	stored := *provider
	s.providers[provider.ID] = &stored
	return nil
}

func (s *ProviderStore) GetByID(_ context.Context, id string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[id]
	if !ok {
		return nil, providerRepo.ErrNotFound
	}
	snapshot := *provider
	return &snapshot, nil
}

func (s *ProviderStore) Update(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[provider.ID]; !ok {
		return providerRepo.ErrNotFound
	}
	provider.UpdatedAt = time.Now()
	stored := *provider
	s.providers[provider.ID] = &stored
	return nil
}

func (s *ProviderStore) ApplyReviewRating(_ context.Context, providerID string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return providerRepo.ErrNotFound
	}
	provider.RatingSum += rating
	provider.TotalReviews++
	provider.Rating = float64(provider.RatingSum) / float64(provider.TotalReviews)
	provider.UpdatedAt = time.Now()
	return nil
}

func (s *ProviderStore) IncrementSessions(_ context.Context, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return providerRepo.ErrNotFound
	}
	provider.TotalSessions++
	provider.UpdatedAt = time.Now()
	return nil
}

// Search applies the discovery filters over the arena. Mirrors the Mongo
// aggregation's semantics closely enough for tests and standalone mode.
func (s *ProviderStore) Search(_ context.Context, filters models.SearchFilters) ([]models.Provider, int64, error) {
	filters.Normalize()

	s.mu.RLock()
	var matched []models.Provider
	for _, p := range s.providers {
		if !p.Active {
			continue
		}
		if filters.Query != "" && !matchesQuery(p, filters.Query) {
			continue
		}
		if filters.Category != "" && !s.offersCategory(p.ID, filters.Category) {
			continue
		}
		if filters.MinRating > 0 && p.Rating < filters.MinRating {
			continue
		}
		if filters.VerifiedOnly && !p.Verified {
			continue
		}
		if filters.MinPrice > 0 && p.HourlyRate < filters.MinPrice {
			continue
		}
		if filters.MaxPrice > 0 && p.HourlyRate > filters.MaxPrice {
			continue
		}
		if len(filters.Languages) > 0 && !overlaps(p.Languages, filters.Languages) {
			continue
		}
		if len(filters.Specialties) > 0 && !overlaps(p.Specialties, filters.Specialties) {
			continue
		}
		matched = append(matched, *p)
	}
	s.mu.RUnlock()

	sortProviders(matched, filters.SortBy)

	total := int64(len(matched))
	start := filters.Page * filters.Size
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filters.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// offersCategory reports whether the provider has an active service whose
// category matches, case-insensitively.
func (s *ProviderStore) offersCategory(providerID, category string) bool {
	if s.services == nil {
		return false
	}
	s.services.mu.RLock()
	defer s.services.mu.RUnlock()
	c := strings.ToLower(category)
	for _, svc := range s.services.services {
		if svc.ProviderID == providerID && svc.Active &&
			strings.Contains(strings.ToLower(svc.Category), c) {
			return true
		}
	}
	return false
}

func matchesQuery(p *models.Provider, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.DisplayName), q) ||
		strings.Contains(strings.ToLower(p.Headline), q) ||
		strings.Contains(strings.ToLower(p.Bio), q) {
		return true
	}
	for _, sp := range p.Specialties {
		if strings.Contains(strings.ToLower(sp), q) {
			return true
		}
	}
	return false
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func sortProviders(providers []models.Provider, sortBy models.SearchSort) {
	sort.SliceStable(providers, func(i, j int) bool {
		a, b := providers[i], providers[j]
		switch sortBy {
		case models.SortByPrice:
			return a.HourlyRate < b.HourlyRate
		case models.SortByReviews:
			return a.TotalReviews > b.TotalReviews
		case models.SortByNewest:
			return a.CreatedAt.After(b.CreatedAt)
		default:
			return a.Rating > b.Rating
		}
	})
}

// =============================================================================
// SERVICES
// =============================================================================

// ServiceStore is the in-memory service catalogue repository.
type ServiceStore struct {
	mu       sync.RWMutex
	services map[string]*models.Service
}

func NewServiceStore() *ServiceStore {
	return &ServiceStore{services: make(map[string]*models.Service)}
}

var _ serviceRepo.ServiceRepository = (*ServiceStore)(nil)

func (s *ServiceStore) Create(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	stored := *svc
	s.services[svc.ID] = &stored
	return nil
}

func (s *ServiceStore) GetByID(_ context.Context, id string) (*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, serviceRepo.ErrNotFound
	}
	snapshot := *svc
	return &snapshot, nil
}

func (s *ServiceStore) ListByProvider(_ context.Context, providerID string) ([]models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Service
	for _, svc := range s.services {
		if svc.ProviderID == providerID {
			out = append(out, *svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *ServiceStore) SetActive(_ context.Context, providerID, serviceID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[serviceID]
	if !ok || svc.ProviderID != providerID {
		return serviceRepo.ErrNotFound
	}
	svc.Active = active
	svc.UpdatedAt = time.Now()
	return nil
}

// =============================================================================
// REVIEWS
// =============================================================================

// ReviewStore is the in-memory review repository.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*models.Review
	byPair  map[string]bool // appointmentID+"\x00"+reviewerID
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		reviews: make(map[string]*models.Review),
		byPair:  make(map[string]bool),
	}
}

var _ reviewRepo.ReviewRepository = (*ReviewStore)(nil)

func (s *ReviewStore) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := review.AppointmentID + "\x00" + review.ReviewerID
	if s.byPair[pair] {
		return reviewRepo.ErrDuplicate
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()
	stored := *review
	s.reviews[review.ID] = &stored
	s.byPair[pair] = true
	return nil
}

func (s *ReviewStore) ListByReviewee(_ context.Context, revieweeID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Review
	for _, review := range s.reviews {
		if review.RevieweeID == revieweeID {
			out = append(out, *review)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
