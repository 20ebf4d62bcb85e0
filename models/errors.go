package models

import "errors"

// Invariant violations reported by entity validation.
var (
	ErrNegativeRate  = errors.New("hourly rate must not be negative")
	ErrRatingRange   = errors.New("rating must be between 0 and 5")
	ErrDurationRange = errors.New("duration must be greater than zero")
	ErrSlotWindow    = errors.New("slot start time must be before end time")
	ErrSlotTimezone  = errors.New("slot timezone is not a valid IANA zone")
	ErrSlotDate      = errors.New("slot date must be formatted as YYYY-MM-DD")
	ErrSlotCapacity  = errors.New("slot capacity must be at least 1")
	ErrReviewRating  = errors.New("review rating must be between 1 and 5")
)
