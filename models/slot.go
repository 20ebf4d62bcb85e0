package models

import "time"

// AvailabilitySlot is a provider-defined, capacity-bounded window of bookable
// time. CurrentBookings and Reservations are owned exclusively by the slot
// ledger; Version backs the ledger's optimistic concurrency control.
type AvailabilitySlot struct {
	ID              string    `bson:"id" json:"id"`
	ProviderID      string    `bson:"providerId" json:"providerId"`
	ServiceID       string    `bson:"serviceId,omitempty" json:"serviceId,omitempty"`
	Date            string    `bson:"date" json:"date"`           // YYYY-MM-DD
	StartTime       string    `bson:"startTime" json:"startTime"` // HH:MM
	EndTime         string    `bson:"endTime" json:"endTime"`     // HH:MM
	Timezone        string    `bson:"timezone" json:"timezone"`
	MaxBookings     int       `bson:"maxBookings" json:"maxBookings"`
	CurrentBookings int       `bson:"currentBookings" json:"currentBookings"`
	Reservations    []string  `bson:"reservations,omitempty" json:"-"`
	Version         int       `bson:"version" json:"-"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"
)

// Validate checks the slot's shape invariants. Start/end ordering is evaluated
// within the slot's own timezone.
func (s *AvailabilitySlot) Validate() error {
	if s.MaxBookings < 1 {
		return ErrSlotCapacity
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return ErrSlotTimezone
	}
	if _, err := time.ParseInLocation(slotDateLayout, s.Date, loc); err != nil {
		return ErrSlotDate
	}
	start, err := time.ParseInLocation(slotTimeLayout, s.StartTime, loc)
	if err != nil {
		return ErrSlotWindow
	}
	end, err := time.ParseInLocation(slotTimeLayout, s.EndTime, loc)
	if err != nil {
		return ErrSlotWindow
	}
	if !start.Before(end) {
		return ErrSlotWindow
	}
	return nil
}

// CapacityRemaining is the number of appointments the slot can still accept.
func (s *AvailabilitySlot) CapacityRemaining() int {
	return s.MaxBookings - s.CurrentBookings
}

// StartAt resolves the slot's opening instant in its own timezone.
func (s *AvailabilitySlot) StartAt() (time.Time, error) {
	return s.resolve(s.StartTime)
}

// EndAt resolves the slot's closing instant in its own timezone.
func (s *AvailabilitySlot) EndAt() (time.Time, error) {
	return s.resolve(s.EndTime)
}

func (s *AvailabilitySlot) resolve(hhmm string) (time.Time, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Time{}, ErrSlotTimezone
	}
	t, err := time.ParseInLocation(slotDateLayout+" "+slotTimeLayout, s.Date+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, ErrSlotWindow
	}
	return t, nil
}

// DurationMinutes is the length of the slot window.
func (s *AvailabilitySlot) DurationMinutes() int {
	start, err := s.StartAt()
	if err != nil {
		return 0
	}
	end, err := s.EndAt()
	if err != nil {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
