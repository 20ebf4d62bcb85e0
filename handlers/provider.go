package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookmytime/middleware"
	"bookmytime/models"
	provider "bookmytime/services/provider"
)

// ProviderService is wired in main before the router starts serving.
var ProviderService provider.ProviderService

// GetProviderProfile returns a provider's public profile.
func GetProviderProfile(c *gin.Context) {
	prov, err := ProviderService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, prov)
}

// CreateService adds a bookable service to the caller's own catalog.
func CreateService(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	created, err := ProviderService.CreateService(c.Request.Context(), auth, c.Param("id"), &svc)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListProviderServices returns the provider's service catalog.
func ListProviderServices(c *gin.Context) {
	services, err := ProviderService.ListServices(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// CreateAvailability publishes one or more availability slots for the
// caller's own profile.
func CreateAvailability(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input struct {
		Slots []models.AvailabilitySlot `json:"slots" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	created, err := ProviderService.CreateSlots(c.Request.Context(), auth, c.Param("id"), input.Slots)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slots": created})
}

// RetireAvailability removes an unbooked slot from the provider's calendar.
func RetireAvailability(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := ProviderService.RetireSlot(c.Request.Context(), auth, c.Param("id"), c.Param("slotId")); err != nil {
		respondEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
