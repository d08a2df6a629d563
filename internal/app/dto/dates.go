package dto

import (
	"time"

	"rentalpricing/internal/domain/shared/daterange"
)

// ParseStay reads YYYY-MM-DD check-in/check-out strings.
func ParseStay(checkIn, checkOut string) (daterange.DateRange, error) {
	return daterange.Parse(checkIn, checkOut)
}

func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(daterange.DayLayout)
}
