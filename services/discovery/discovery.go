// File: services/discovery/discovery.go
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	providerRepo "bookmytime/database/repository/provider"
	slotRepo "bookmytime/database/repository/slot"
	"bookmytime/models"
	"bookmytime/services/booking"
	"bookmytime/utils"
)

// Service is the read-only discovery facade. It never mutates capacity and
// may serve slightly stale data: the authoritative capacity check happens
// only inside the booking coordinator.
type Service interface {
	SearchProviders(ctx context.Context, filters models.SearchFilters) (models.Page[models.Provider], error)
	ProviderAvailability(ctx context.Context, providerID, startDate, endDate string) ([]models.AvailabilitySlot, error)
}

// DefaultDiscoveryService implements Service over the provider and slot
// repositories with a Redis projection cache in front of availability reads.
type DefaultDiscoveryService struct {
	Providers providerRepo.ProviderRepository
	Slots     slotRepo.SlotRepository

	// Cache is optional; nil disables the availability projection cache.
	Cache    *redis.Client
	CacheTTL time.Duration

	Now func() time.Time
}

var _ Service = (*DefaultDiscoveryService)(nil)

const availabilityCachePrefix = "availability:"

func (s *DefaultDiscoveryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultDiscoveryService) SearchProviders(ctx context.Context, filters models.SearchFilters) (models.Page[models.Provider], error) {
	filters.Normalize()

	content, total, err := s.Providers.Search(ctx, filters)
	if err != nil {
		return models.Page[models.Provider]{}, fmt.Errorf("provider search failed: %w", err)
	}
	return models.NewPage(content, total, filters.Page, filters.Size), nil
}

// ProviderAvailability lists a provider's open slots in a date range. Cached
// with a short TTL; the projection may lag the ledger.
func (s *DefaultDiscoveryService) ProviderAvailability(ctx context.Context, providerID, startDate, endDate string) ([]models.AvailabilitySlot, error) {
	if _, err := s.Providers.GetByID(ctx, providerID); err != nil {
		return nil, booking.NewNotFoundError("provider %s not found", providerID)
	}

	cacheKey := availabilityCachePrefix + providerID + ":" + startDate + ":" + endDate
	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var slots []models.AvailabilitySlot
			if err := json.Unmarshal([]byte(cached), &slots); err == nil {
				return slots, nil
			}
		} else if err != redis.Nil {
			utils.GetLogger().Warn("availability cache read failed", zap.Error(err))
		}
	}

	all, err := s.Slots.ListByProviderRange(ctx, providerID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	now := s.now()
	open := make([]models.AvailabilitySlot, 0, len(all))
	for _, slot := range all {
		if slot.CapacityRemaining() <= 0 {
			continue
		}
		if end, err := slot.EndAt(); err != nil || end.Before(now) {
			continue
		}
		open = append(open, slot)
	}

	if s.Cache != nil {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		if data, err := json.Marshal(open); err == nil {
			if err := s.Cache.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
				utils.GetLogger().Warn("availability cache write failed", zap.Error(err))
			}
		}
	}
	return open, nil
}
