package pricing

import "rentalpricing/internal/domain/shared/money"

const (
	discountStepPercent = 10
	maxDiscountPercent  = 50
)

// DiscountPercent is the pay-ahead discount for the period at index i:
// 0% for the first period, +10% per period, capped at 50%.
func DiscountPercent(index int) int {
	if index <= 0 {
		return 0
	}
	pct := index * discountStepPercent
	if pct > maxDiscountPercent {
		return maxDiscountPercent
	}
	return pct
}

// ApplyDiscounts prices every period by its position in the sequence and
// computes accommodation, deposit and grand totals. The input is not mutated.
func ApplyDiscounts(periods []PricePeriod) (Quote, error) {
	if len(periods) == 0 {
		return Quote{}, ErrNoPeriods
	}
	currency := periods[0].BaseAmount.Currency
	out := make([]PricePeriod, len(periods))
	accommodation := money.Zero(currency)
	for i, p := range periods {
		if p.SequenceIndex != i {
			return Quote{}, ErrBrokenSequence
		}
		pct := DiscountPercent(p.SequenceIndex)
		amount, err := p.BaseAmount.Discount(pct)
		if err != nil {
			return Quote{}, err
		}
		p.DiscountPercent = pct
		p.Amount = amount
		if accommodation, err = accommodation.Add(amount); err != nil {
			return Quote{}, err
		}
		out[i] = p
	}

	deposit, err := SecurityDeposit(out)
	if err != nil {
		return Quote{}, err
	}
	grand, err := accommodation.Add(deposit)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Periods:         out,
		Accommodation:   accommodation,
		SecurityDeposit: deposit,
		GrandTotal:      grand,
	}, nil
}

// SecurityDeposit is the undiscounted rate of the largest tier used by the
// stay: the monthly rate, else the weekly rate, else seven nights.
func SecurityDeposit(periods []PricePeriod) (money.Money, error) {
	if len(periods) == 0 {
		return money.Money{}, ErrNoPeriods
	}
	var weekly, daily *PricePeriod
	for i := range periods {
		switch periods[i].Kind {
		case KindMonthly:
			return periods[i].BaseAmount, nil
		case KindWeekly:
			if weekly == nil {
				weekly = &periods[i]
			}
		case KindDaily:
			daily = &periods[i]
		}
	}
	if weekly != nil {
		return weekly.BaseAmount, nil
	}
	if daily == nil || daily.Units <= 0 {
		return money.Money{}, ErrInvalidRate
	}
	nightly := money.Money{Amount: daily.BaseAmount.Amount / int64(daily.Units), Currency: daily.BaseAmount.Currency}
	return nightly.Multiply(depositFloorDays), nil
}
