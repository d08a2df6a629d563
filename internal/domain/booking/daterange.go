package booking

import (
	"errors"
	"time"

	"rentalpricing/internal/domain/shared/daterange"
)

var ErrCheckInInPast = errors.New("booking: check-in date is in the past")

// ValidateCheckIn rejects stays starting before the calendar day of asOf.
func ValidateCheckIn(stay daterange.DateRange, asOf time.Time) error {
	if daterange.Day(stay.CheckIn).Before(daterange.Day(asOf)) {
		return ErrCheckInInPast
	}
	return nil
}
