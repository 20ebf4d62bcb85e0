// File: services/provider/provider.go
package provider

import (
	"context"
	"errors"

	providerRepo "bookmytime/database/repository/provider"
	serviceRepo "bookmytime/database/repository/service"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/models"
	"bookmytime/services/booking"
)

// ProviderService manages provider profiles, their service catalogue, and
// their availability slots. Slots are created ahead of time by the provider
// and retired only while no capacity is consumed.
type ProviderService interface {
	GetProfile(ctx context.Context, providerID string) (*models.Provider, error)
	CreateService(ctx context.Context, auth models.AuthContext, providerID string, svc *models.Service) (*models.Service, error)
	ListServices(ctx context.Context, providerID string) ([]models.Service, error)
	CreateSlots(ctx context.Context, auth models.AuthContext, providerID string, slots []models.AvailabilitySlot) ([]models.AvailabilitySlot, error)
	RetireSlot(ctx context.Context, auth models.AuthContext, providerID, slotID string) error
}

// DefaultProviderService is the production ProviderService implementation.
type DefaultProviderService struct {
	Repo     providerRepo.ProviderRepository
	Services serviceRepo.ServiceRepository
	Slots    slotRepo.SlotRepository
}

var _ ProviderService = (*DefaultProviderService)(nil)

// ownedBy allows the provider itself or an admin; everyone else is refused.
func ownedBy(auth models.AuthContext, providerID string) error {
	if auth.Role == models.RoleAdmin {
		return nil
	}
	if auth.Role == models.RoleProvider && auth.UserID == providerID {
		return nil
	}
	return booking.NewUnauthorizedError("provider %s is not managed by this account", providerID)
}

func (s *DefaultProviderService) GetProfile(ctx context.Context, providerID string) (*models.Provider, error) {
	prov, err := s.Repo.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, booking.NewNotFoundError("provider %s not found", providerID)
		}
		return nil, err
	}
	return prov, nil
}

func (s *DefaultProviderService) CreateService(ctx context.Context, auth models.AuthContext, providerID string, svc *models.Service) (*models.Service, error) {
	if err := ownedBy(auth, providerID); err != nil {
		return nil, err
	}
	if _, err := s.GetProfile(ctx, providerID); err != nil {
		return nil, err
	}

	svc.ProviderID = providerID
	if err := svc.Validate(); err != nil {
		return nil, booking.NewValidationError("%v", err)
	}
	if err := s.Services.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *DefaultProviderService) ListServices(ctx context.Context, providerID string) ([]models.Service, error) {
	if _, err := s.GetProfile(ctx, providerID); err != nil {
		return nil, err
	}
	return s.Services.ListByProvider(ctx, providerID)
}

// CreateSlots validates and bulk-creates availability slots. Each slot is
// reset to an empty ledger state regardless of what the caller sent:
// currentBookings is owned by the ledger alone.
func (s *DefaultProviderService) CreateSlots(ctx context.Context, auth models.AuthContext, providerID string, slots []models.AvailabilitySlot) ([]models.AvailabilitySlot, error) {
	if err := ownedBy(auth, providerID); err != nil {
		return nil, err
	}
	if _, err := s.GetProfile(ctx, providerID); err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, booking.NewValidationError("at least one slot is required")
	}

	for i := range slots {
		slot := &slots[i]
		slot.ID = ""
		slot.ProviderID = providerID
		slot.CurrentBookings = 0
		slot.Reservations = nil
		slot.Version = 0

		if err := slot.Validate(); err != nil {
			return nil, booking.NewValidationError("slot %d: %v", i+1, err)
		}
		if slot.ServiceID != "" {
			svc, err := s.Services.GetByID(ctx, slot.ServiceID)
			if err != nil || svc.ProviderID != providerID {
				return nil, booking.NewValidationError("slot %d: service %s does not belong to provider", i+1, slot.ServiceID)
			}
		}
	}

	if _, err := s.Slots.CreateMany(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// RetireSlot deletes a slot that has no consumed capacity.
func (s *DefaultProviderService) RetireSlot(ctx context.Context, auth models.AuthContext, providerID, slotID string) error {
	if err := ownedBy(auth, providerID); err != nil {
		return err
	}

	err := s.Slots.Delete(ctx, providerID, slotID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, slotRepo.ErrNotFound):
		return booking.NewNotFoundError("slot %s not found", slotID)
	case errors.Is(err, slotRepo.ErrSlotInUse):
		return booking.NewConflictError("slot %s has active bookings and cannot be retired", slotID)
	default:
		return err
	}
}
