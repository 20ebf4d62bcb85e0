package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bookmytime/models"
	discovery "bookmytime/services/discovery"
)

// DiscoveryService is wired in main before the router starts serving.
var DiscoveryService discovery.Service

// SearchProviders runs the public provider search with filters taken from
// query parameters.
func SearchProviders(c *gin.Context) {
	filters := models.SearchFilters{
		Query:        c.Query("query"),
		Category:     c.Query("category"),
		MinPrice:     queryFloat(c, "minPrice"),
		MaxPrice:     queryFloat(c, "maxPrice"),
		MinRating:    queryFloat(c, "minRating"),
		VerifiedOnly: c.Query("verifiedOnly") == "true",
		Languages:    queryList(c, "languages"),
		Specialties:  queryList(c, "specialties"),
		SortBy:       models.SearchSort(c.Query("sortBy")),
		Page:         queryInt(c, "page"),
		Size:         queryInt(c, "size"),
	}

	page, err := DiscoveryService.SearchProviders(c.Request.Context(), filters)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProviderAvailability returns the provider's open slots in a date range.
func GetProviderAvailability(c *gin.Context) {
	slots, err := DiscoveryService.ProviderAvailability(
		c.Request.Context(), c.Param("id"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func queryFloat(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func queryList(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
