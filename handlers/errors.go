package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookmytime/services/booking"
	"bookmytime/utils"
)

// respondEngineError translates an engine error into an HTTP response.
// Conflict-class failures all map to 409 so clients can retry uniformly.
func respondEngineError(c *gin.Context, err error) {
	switch booking.KindOf(err) {
	case booking.KindValidation:
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
	case booking.KindNotFound:
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case booking.KindUnauthorized:
		utils.JSONError(c, http.StatusForbidden, "Forbidden", err.Error())
	case booking.KindCapacityExceeded, booking.KindIllegalTransition, booking.KindConflict:
		utils.JSONError(c, http.StatusConflict, "Conflict", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred. Please try again later.")
	}
}
