package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookmytime/middleware"
	review "bookmytime/services/review"
)

// ReviewService is wired in main before the router starts serving.
var ReviewService review.ReviewService

// CreateReview records a review for a completed appointment.
func CreateReview(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input review.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	created, err := ReviewService.CreateReview(c.Request.Context(), auth, c.Param("id"), input)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListProviderReviews returns the reviews left about a provider.
func ListProviderReviews(c *gin.Context) {
	reviews, err := ReviewService.ListForProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
