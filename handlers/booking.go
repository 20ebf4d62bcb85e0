package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookmytime/middleware"
	"bookmytime/models"
	"bookmytime/services/booking"
)

// BookingService is wired in main before the router starts serving.
var BookingService booking.Coordinator

// CreateAppointment books a slot for the authenticated client. The
// Idempotency-Key header makes retries safe; a missing key gets a
// server-generated one, which makes that request non-replayable.
func CreateAppointment(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	appt, err := BookingService.CreateAppointment(c.Request.Context(), auth, req)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// ConfirmAppointment moves a pending appointment to CONFIRMED.
func ConfirmAppointment(c *gin.Context) {
	transitionHandler(c, BookingService.ConfirmAppointment)
}

// CompleteAppointment marks a confirmed appointment as delivered. Only
// legal once the slot has ended.
func CompleteAppointment(c *gin.Context) {
	transitionHandler(c, BookingService.CompleteAppointment)
}

// MarkNoShow records that the client did not attend.
func MarkNoShow(c *gin.Context) {
	transitionHandler(c, BookingService.MarkNoShow)
}

// CancelAppointment cancels a pending or confirmed appointment and frees
// its slot capacity.
func CancelAppointment(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	// The body is optional; an empty reason is allowed.
	_ = c.ShouldBindJSON(&input)

	appt, err := BookingService.CancelAppointment(c.Request.Context(), auth, c.Param("id"), input.Reason)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// GetAppointment returns a single appointment visible to the caller.
func GetAppointment(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	appt, err := BookingService.GetAppointment(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// ListMyAppointments returns the caller's appointments, newest first.
func ListMyAppointments(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	appts, err := BookingService.ListForActor(c.Request.Context(), auth)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func transitionHandler(c *gin.Context, op func(ctx context.Context, auth models.AuthContext, id string) (*models.Appointment, error)) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	appt, err := op(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
