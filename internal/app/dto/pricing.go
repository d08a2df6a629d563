package dto

import "rentalpricing/internal/domain/pricing"

type PricePeriod struct {
	Index           int      `json:"index"`
	Kind            string   `json:"kind"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	Days            int      `json:"days"`
	BaseAmount      MoneyDTO `json:"base_amount"`
	DiscountPercent int      `json:"discount_percent"`
	Amount          MoneyDTO `json:"amount"`
}

type Quote struct {
	PropertyID      string        `json:"property_id"`
	CheckIn         string        `json:"check_in"`
	CheckOut        string        `json:"check_out"`
	Nights          int           `json:"nights"`
	Periods         []PricePeriod `json:"periods"`
	Accommodation   MoneyDTO      `json:"accommodation_total"`
	SecurityDeposit MoneyDTO      `json:"security_deposit"`
	GrandTotal      MoneyDTO      `json:"grand_total"`
}

func MapPeriods(periods []pricing.PricePeriod) []PricePeriod {
	out := make([]PricePeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, PricePeriod{
			Index:           p.SequenceIndex,
			Kind:            string(p.Kind),
			Start:           FormatDay(p.Start),
			End:             FormatDay(p.End),
			Days:            p.Days(),
			BaseAmount:      MapMoney(p.BaseAmount),
			DiscountPercent: p.DiscountPercent,
			Amount:          MapMoney(p.Amount),
		})
	}
	return out
}

func MapQuote(propertyID string, q pricing.Quote) Quote {
	stay := q.Stay()
	return Quote{
		PropertyID:      propertyID,
		CheckIn:         FormatDay(stay.CheckIn),
		CheckOut:        FormatDay(stay.CheckOut),
		Nights:          stay.Nights(),
		Periods:         MapPeriods(q.Periods),
		Accommodation:   MapMoney(q.Accommodation),
		SecurityDeposit: MapMoney(q.SecurityDeposit),
		GrandTotal:      MapMoney(q.GrandTotal),
	}
}
