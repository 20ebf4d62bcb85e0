package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryRepo "bookmytime/database/repository/memory"
	"bookmytime/models"
	"bookmytime/services/booking"
	"bookmytime/services/discovery"
)

func seedProvider(t *testing.T, store *memoryRepo.ProviderStore, p models.Provider) string {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &p))
	return p.ID
}

func newSearchFixture(t *testing.T) (*discovery.DefaultDiscoveryService, *memoryRepo.ProviderStore, *memoryRepo.SlotStore) {
	providers := memoryRepo.NewProviderStore()
	slots := memoryRepo.NewSlotStore()
	svc := &discovery.DefaultDiscoveryService{
		Providers: providers,
		Slots:     slots,
		Now:       func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) },
	}
	return svc, providers, slots
}

func TestSearchProviders_FiltersAndSorts(t *testing.T) {
	svc, providers, _ := newSearchFixture(t)
	ctx := context.Background()

	seedProvider(t, providers, models.Provider{
		DisplayName: "Alice Ng", Headline: "Tax advisor", HourlyRate: 120,
		Rating: 4.8, Verified: true, Active: true,
		Specialties: []string{"tax", "accounting"}, Languages: []string{"en"},
	})
	seedProvider(t, providers, models.Provider{
		DisplayName: "Bob Tran", Headline: "Career coach", HourlyRate: 60,
		Rating: 4.2, Active: true,
		Specialties: []string{"coaching"}, Languages: []string{"en", "vi"},
	})
	seedProvider(t, providers, models.Provider{
		DisplayName: "Inactive Carol", HourlyRate: 50, Rating: 5, Active: false,
	})

	t.Run("inactive providers are never listed", func(t *testing.T) {
		page, err := svc.SearchProviders(ctx, models.SearchFilters{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.TotalElements)
	})

	t.Run("text query matches headline", func(t *testing.T) {
		page, err := svc.SearchProviders(ctx, models.SearchFilters{Query: "tax"})
		require.NoError(t, err)
		require.Len(t, page.Content, 1)
		assert.Equal(t, "Alice Ng", page.Content[0].DisplayName)
	})

	t.Run("verified and price filters compose", func(t *testing.T) {
		page, err := svc.SearchProviders(ctx, models.SearchFilters{VerifiedOnly: true, MinPrice: 100})
		require.NoError(t, err)
		require.Len(t, page.Content, 1)
		assert.Equal(t, "Alice Ng", page.Content[0].DisplayName)
	})

	t.Run("default sort is rating descending", func(t *testing.T) {
		page, err := svc.SearchProviders(ctx, models.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, page.Content, 2)
		assert.Equal(t, "Alice Ng", page.Content[0].DisplayName)
	})

	t.Run("price sort ascending", func(t *testing.T) {
		page, err := svc.SearchProviders(ctx, models.SearchFilters{SortBy: models.SortByPrice})
		require.NoError(t, err)
		require.Len(t, page.Content, 2)
		assert.Equal(t, "Bob Tran", page.Content[0].DisplayName)
	})

	t.Run("category filter joins the service catalogue", func(t *testing.T) {
		services := memoryRepo.NewServiceStore()
		providers.LinkServices(services)

		var alice string
		for _, p := range []string{"Alice Ng", "Bob Tran"} {
			page, err := svc.SearchProviders(ctx, models.SearchFilters{Query: p})
			require.NoError(t, err)
			require.Len(t, page.Content, 1)
			if p == "Alice Ng" {
				alice = page.Content[0].ID
			}
		}
		taxPrep := &models.Service{
			ProviderID: alice, Title: "Tax return prep", Category: "Tax Advisory",
			DurationMinutes: 60, Price: 120, Currency: "USD", Active: true,
		}
		require.NoError(t, services.Create(ctx, taxPrep))

		page, err := svc.SearchProviders(ctx, models.SearchFilters{Category: "tax"})
		require.NoError(t, err)
		require.Len(t, page.Content, 1)
		assert.Equal(t, "Alice Ng", page.Content[0].DisplayName)

		// An inactive service stops matching.
		require.NoError(t, services.SetActive(ctx, alice, taxPrep.ID, false))
		page, err = svc.SearchProviders(ctx, models.SearchFilters{Category: "tax"})
		require.NoError(t, err)
		assert.Empty(t, page.Content)
	})

	t.Run("pagination clamps and pages", func(t *testing.T) {
		page, err := svc.SearchProviders(ctx, models.SearchFilters{Size: 1, Page: 1})
		require.NoError(t, err)
		assert.Len(t, page.Content, 1)
		assert.EqualValues(t, 2, page.TotalElements)
		assert.Equal(t, 2, page.TotalPages)
	})
}

func TestProviderAvailability_OpenSlotsOnly(t *testing.T) {
	svc, providers, slots := newSearchFixture(t)
	ctx := context.Background()

	providerID := seedProvider(t, providers, models.Provider{
		DisplayName: "Dana Kim", Active: true,
	})

	mkSlot := func(date, start, end string, maxBookings int) *models.AvailabilitySlot {
		slot := &models.AvailabilitySlot{
			ProviderID: providerID, Date: date, StartTime: start, EndTime: end,
			Timezone: "UTC", MaxBookings: maxBookings,
		}
		require.NoError(t, slots.Create(ctx, slot))
		return slot
	}

	open := mkSlot("2026-03-11", "09:00", "10:00", 2)
	full := mkSlot("2026-03-11", "10:00", "11:00", 1)
	_, err := slots.Reserve(ctx, full.ID)
	require.NoError(t, err)
	mkSlot("2026-03-09", "09:00", "10:00", 2) // already ended
	mkSlot("2026-03-20", "09:00", "10:00", 2) // outside range

	got, err := svc.ProviderAvailability(ctx, providerID, "2026-03-10", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)

	_, err = svc.ProviderAvailability(ctx, "missing", "", "")
	require.Error(t, err)
	assert.Equal(t, booking.KindNotFound, booking.KindOf(err))
}
