package pricing

import (
	"time"

	"rentalpricing/internal/domain/shared/daterange"
)

// Decompose splits a stay into monthly, weekly and daily periods, greedily and
// left to right from check-in. Monthly beats weekly beats daily whenever more
// than one fits; the daily tail absorbs every remaining night.
func Decompose(schedule RateSchedule, stay daterange.DateRange) ([]PricePeriod, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	stay, err := daterange.New(stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, ErrInvalidStay
	}

	periods := make([]PricePeriod, 0, 4)
	emit := func(kind PeriodKind, start, end time.Time, units int) {
		base := schedule.Nightly.Multiply(int64(units))
		switch kind {
		case KindMonthly:
			base = *schedule.Monthly
		case KindWeekly:
			base = *schedule.Weekly
		}
		periods = append(periods, PricePeriod{
			Kind:          kind,
			Start:         start,
			End:           end,
			Units:         units,
			BaseAmount:    base,
			Amount:        base,
			SequenceIndex: len(periods),
		})
	}

	cursor := stay.CheckIn
	// A month measured from a later cursor never ends earlier, so once one
	// no longer fits the monthly tier is done.
	monthly := schedule.Monthly != nil
	for cursor.Before(stay.CheckOut) {
		if monthly {
			end := daterange.AddMonths(cursor, 1)
			if !end.After(stay.CheckOut) {
				emit(KindMonthly, cursor, end, 1)
				cursor = end
				continue
			}
			monthly = false
		}
		if schedule.Weekly != nil {
			end := daterange.AddDays(cursor, daysPerWeek)
			if !end.After(stay.CheckOut) {
				emit(KindWeekly, cursor, end, 1)
				cursor = end
				continue
			}
		}
		emit(KindDaily, cursor, stay.CheckOut, daterange.DaysBetween(cursor, stay.CheckOut))
		cursor = stay.CheckOut
	}
	return periods, nil
}
