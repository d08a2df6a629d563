package availability

import (
	"errors"
	"sort"
	"time"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/daterange"
)

// MaxCalendarDays bounds a single ListAvailability call.
const MaxCalendarDays = 366

var (
	ErrPropertyUnavailable = errors.New("availability: property is not available for the requested dates")
	ErrInvalidRange        = errors.New("availability: range end must not precede range start")
	ErrRangeTooLong        = errors.New("availability: range exceeds maximum calendar length")
)

// Occupancy is a confirmed stay holding a property's dates.
type Occupancy struct {
	BookingID booking.BookingID
	Range     daterange.DateRange
}

// DayAvailability is one calendar day of a property.
type DayAvailability struct {
	Date      time.Time
	Available bool
	BookingID booking.BookingID
}

// Calendar is the set of confirmed stays of one property, ordered by check-in.
type Calendar struct {
	PropertyID property.PropertyID
	Occupied   []Occupancy
}

// NewCalendar keeps only confirmed bookings of the given property; pending and
// cancelled bookings never hold dates.
func NewCalendar(id property.PropertyID, bookings []*booking.Booking) *Calendar {
	cal := &Calendar{PropertyID: id}
	for _, b := range bookings {
		if b == nil || b.PropertyID != id || !b.IsConfirmed() {
			continue
		}
		cal.Occupied = append(cal.Occupied, Occupancy{BookingID: b.ID, Range: b.Stay})
	}
	sort.Slice(cal.Occupied, func(i, j int) bool {
		return cal.Occupied[i].Range.CheckIn.Before(cal.Occupied[j].Range.CheckIn)
	})
	return cal
}

// Overlaps is the half-open interval test; it is symmetric in its arguments.
func Overlaps(a, b daterange.DateRange) bool {
	return a.Overlaps(b)
}

func (c *Calendar) CanReserve(stay daterange.DateRange) bool {
	return len(c.Conflicts(stay)) == 0
}

// Conflicts lists the confirmed stays overlapping the candidate.
func (c *Calendar) Conflicts(stay daterange.DateRange) []Occupancy {
	var out []Occupancy
	for _, occ := range c.Occupied {
		if Overlaps(occ.Range, stay) {
			out = append(out, occ)
		}
	}
	return out
}

// Day reports the availability of a single calendar day.
func (c *Calendar) Day(t time.Time) DayAvailability {
	d := daterange.Day(t)
	for _, occ := range c.Occupied {
		if occ.Range.ContainsDate(d) {
			return DayAvailability{Date: d, Available: false, BookingID: occ.BookingID}
		}
	}
	return DayAvailability{Date: d, Available: true}
}

// Days lists every day of the inclusive range [from, to].
func (c *Calendar) Days(from, to time.Time) ([]DayAvailability, error) {
	from, to = daterange.Day(from), daterange.Day(to)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, ErrInvalidRange
	}
	count := daterange.DaysBetween(from, to) + 1
	if count > MaxCalendarDays {
		return nil, ErrRangeTooLong
	}
	out := make([]DayAvailability, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, c.Day(daterange.AddDays(from, i)))
	}
	return out, nil
}

// IsAvailable reports whether no confirmed booking of the property overlaps stay.
func IsAvailable(id property.PropertyID, stay daterange.DateRange, bookings []*booking.Booking) bool {
	return NewCalendar(id, bookings).CanReserve(stay)
}

// ListAvailability returns one entry per day in [rangeStart, rangeEnd].
func ListAvailability(id property.PropertyID, rangeStart, rangeEnd time.Time, bookings []*booking.Booking) ([]DayAvailability, error) {
	return NewCalendar(id, bookings).Days(rangeStart, rangeEnd)
}
