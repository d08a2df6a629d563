package dto

import "rentalpricing/internal/domain/availability"

type CalendarDay struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	BookingID string `json:"booking_id,omitempty"`
}

type Calendar struct {
	PropertyID string        `json:"property_id"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Days       []CalendarDay `json:"days"`
}

type Availability struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Available  bool   `json:"available"`
}

func MapCalendar(propertyID string, days []availability.DayAvailability) Calendar {
	out := Calendar{PropertyID: propertyID, Days: make([]CalendarDay, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, CalendarDay{Date: FormatDay(d.Date), Available: d.Available, BookingID: string(d.BookingID)})
	}
	if len(days) > 0 {
		out.From = FormatDay(days[0].Date)
		out.To = FormatDay(days[len(days)-1].Date)
	}
	return out
}
