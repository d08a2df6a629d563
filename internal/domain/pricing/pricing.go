package pricing

import (
	"errors"
	"time"

	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/money"
)

var (
	ErrInvalidStay    = errors.New("pricing: check-out must be after check-in")
	ErrInvalidRate    = errors.New("pricing: rates must be positive and share one currency")
	ErrNoPeriods      = errors.New("pricing: at least one period is required")
	ErrBrokenSequence = errors.New("pricing: periods must be ordered by sequence index from 0")
)

// PeriodKind is the rate tier a period is billed at.
type PeriodKind string

const (
	KindMonthly PeriodKind = "monthly"
	KindWeekly  PeriodKind = "weekly"
	KindDaily   PeriodKind = "daily"
)

const (
	daysPerWeek      = 7
	depositFloorDays = 7
)

// RateSchedule is a property's tiered tariff. Weekly and Monthly are optional.
type RateSchedule struct {
	Nightly money.Money
	Weekly  *money.Money
	Monthly *money.Money
}

// Validate enforces nightly > 0 and, when present, weekly/monthly > 0 in the
// nightly currency.
func (s RateSchedule) Validate() error {
	if !s.Nightly.IsPositive() || s.Nightly.Currency == "" {
		return ErrInvalidRate
	}
	for _, tier := range []*money.Money{s.Weekly, s.Monthly} {
		if tier == nil {
			continue
		}
		if !tier.IsPositive() || !tier.SameCurrency(s.Nightly) {
			return ErrInvalidRate
		}
	}
	return nil
}

func (s RateSchedule) Currency() string {
	return s.Nightly.Currency
}

// PricePeriod is one billable slice of a stay.
type PricePeriod struct {
	Kind            PeriodKind
	Start           time.Time
	End             time.Time
	Units           int
	BaseAmount      money.Money
	DiscountPercent int
	Amount          money.Money
	SequenceIndex   int
}

func (p PricePeriod) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: p.Start, CheckOut: p.End}
}

// Days is the number of nights the period covers.
func (p PricePeriod) Days() int {
	return daterange.DaysBetween(p.Start, p.End)
}

// Quote is the discounted schedule of a stay plus its totals.
type Quote struct {
	Periods         []PricePeriod
	Accommodation   money.Money
	SecurityDeposit money.Money
	GrandTotal      money.Money
}

// Stay returns the range covered by the quote's periods.
func (q Quote) Stay() daterange.DateRange {
	if len(q.Periods) == 0 {
		return daterange.DateRange{}
	}
	return daterange.DateRange{CheckIn: q.Periods[0].Start, CheckOut: q.Periods[len(q.Periods)-1].End}
}

// QuoteStay decomposes the stay and applies the progressive discount.
func QuoteStay(schedule RateSchedule, stay daterange.DateRange) (Quote, error) {
	periods, err := Decompose(schedule, stay)
	if err != nil {
		return Quote{}, err
	}
	return ApplyDiscounts(periods)
}

// CopyPeriods returns a detached copy of the slice.
func CopyPeriods(periods []PricePeriod) []PricePeriod {
	return append([]PricePeriod(nil), periods...)
}
