package pricing

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/money"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func usd(amount int64) money.Money {
	return money.Must(amount, "USD")
}

func usdPtr(amount int64) *money.Money {
	m := usd(amount)
	return &m
}

func fullSchedule() RateSchedule {
	return RateSchedule{Nightly: usd(10000), Weekly: usdPtr(60000), Monthly: usdPtr(200000)}
}

func stayOf(start time.Time, nights int) daterange.DateRange {
	return daterange.DateRange{CheckIn: start, CheckOut: start.AddDate(0, 0, nights)}
}

func kinds(periods []PricePeriod) []PeriodKind {
	out := make([]PeriodKind, len(periods))
	for i, p := range periods {
		out[i] = p.Kind
	}
	return out
}

func TestDecomposeConcreteScenario(t *testing.T) {
	quote, err := QuoteStay(fullSchedule(), stayOf(day(time.January, 1), 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		kind     PeriodKind
		start    time.Time
		end      time.Time
		base     int64
		discount int
		amount   int64
	}{
		{KindMonthly, day(time.January, 1), day(time.February, 1), 200000, 0, 200000},
		{KindWeekly, day(time.February, 1), day(time.February, 8), 60000, 10, 54000},
		{KindDaily, day(time.February, 8), day(time.February, 10), 20000, 20, 16000},
	}
	if len(quote.Periods) != len(want) {
		t.Fatalf("expected %d periods, got %d", len(want), len(quote.Periods))
	}
	for i, w := range want {
		p := quote.Periods[i]
		if p.Kind != w.kind || !p.Start.Equal(w.start) || !p.End.Equal(w.end) {
			t.Fatalf("period %d: got %s %s, want %s %s", i, p.Kind, p.Range(), w.kind, daterange.DateRange{CheckIn: w.start, CheckOut: w.end})
		}
		if p.BaseAmount.Amount != w.base || p.DiscountPercent != w.discount || p.Amount.Amount != w.amount {
			t.Fatalf("period %d: got base=%d pct=%d amount=%d", i, p.BaseAmount.Amount, p.DiscountPercent, p.Amount.Amount)
		}
		if p.SequenceIndex != i {
			t.Fatalf("period %d has sequence index %d", i, p.SequenceIndex)
		}
	}
	if quote.Periods[2].Units != 2 {
		t.Fatalf("daily period should count 2 nights, got %d", quote.Periods[2].Units)
	}
	if quote.Accommodation.Amount != 270000 {
		t.Fatalf("accommodation = %d, want 270000", quote.Accommodation.Amount)
	}
	if quote.SecurityDeposit.Amount != 200000 {
		t.Fatalf("deposit = %d, want 200000", quote.SecurityDeposit.Amount)
	}
	if quote.GrandTotal.Amount != 470000 {
		t.Fatalf("grand total = %d, want 470000", quote.GrandTotal.Amount)
	}
}

func TestDecomposeTierPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		nights int
		want   []PeriodKind
	}{
		{"one week", 7, []PeriodKind{KindWeekly}},
		{"thirty days in january", 30, []PeriodKind{KindWeekly, KindWeekly, KindWeekly, KindWeekly, KindDaily}},
		{"thirty five days", 35, []PeriodKind{KindMonthly, KindDaily}},
		{"forty five days", 45, []PeriodKind{KindMonthly, KindWeekly, KindWeekly}},
		{"sixty five days", 65, []PeriodKind{KindMonthly, KindMonthly, KindDaily}},
		{"short stay", 3, []PeriodKind{KindDaily}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			periods, err := Decompose(fullSchedule(), stayOf(day(time.January, 1), tc.nights))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := kinds(periods); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecomposeCoversStayContiguously(t *testing.T) {
	schedules := map[string]RateSchedule{
		"full":         fullSchedule(),
		"nightly only": {Nightly: usd(10000)},
		"weekly only":  {Nightly: usd(10000), Weekly: usdPtr(60000)},
		"monthly only": {Nightly: usd(10000), Monthly: usdPtr(200000)},
	}
	starts := []time.Time{day(time.January, 1), day(time.January, 31), day(time.February, 14), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)}
	for name, schedule := range schedules {
		for _, start := range starts {
			for nights := 1; nights <= 120; nights++ {
				stay := stayOf(start, nights)
				periods, err := Decompose(schedule, stay)
				if err != nil {
					t.Fatalf("%s %s: unexpected error: %v", name, stay, err)
				}
				cursor := stay.CheckIn
				total := 0
				for i, p := range periods {
					if !p.Start.Equal(cursor) || !p.End.After(p.Start) || p.SequenceIndex != i {
						t.Fatalf("%s %s: period %d breaks contiguity: %s", name, stay, i, p.Range())
					}
					if p.Kind == KindDaily && i != len(periods)-1 {
						t.Fatalf("%s %s: daily period must be last", name, stay)
					}
					cursor = p.End
					total += p.Days()
				}
				if !cursor.Equal(stay.CheckOut) || total != nights {
					t.Fatalf("%s %s: coverage ends at %s after %d nights", name, stay, cursor.Format(daterange.DayLayout), total)
				}
			}
		}
	}
}

func TestDecomposeNightlyOnlyYieldsSingleDailyPeriod(t *testing.T) {
	periods, err := Decompose(RateSchedule{Nightly: usd(12500)}, stayOf(day(time.March, 3), 90))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 || periods[0].Kind != KindDaily || periods[0].Units != 90 {
		t.Fatalf("unexpected periods %+v", periods)
	}
	if periods[0].BaseAmount.Amount != 12500*90 {
		t.Fatalf("unexpected base %d", periods[0].BaseAmount.Amount)
	}
}

func TestDecomposeMonthEndClamping(t *testing.T) {
	schedule := RateSchedule{Nightly: usd(10000), Monthly: usdPtr(200000)}
	periods, err := Decompose(schedule, daterange.DateRange{CheckIn: day(time.January, 31), CheckOut: day(time.March, 30)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := kinds(periods); len(got) != 3 || got[0] != KindMonthly || got[1] != KindMonthly || got[2] != KindDaily {
		t.Fatalf("expected monthly, monthly, daily, got %v", got)
	}
	// Each month is measured from its own start: Jan 31 clamps to Feb 28,
	// and Feb 28 plus one month is Mar 28.
	if !periods[0].End.Equal(day(time.February, 28)) || !periods[1].End.Equal(day(time.March, 28)) {
		t.Fatalf("unexpected month boundaries %s %s", periods[0].Range(), periods[1].Range())
	}
	if periods[1].BaseAmount.Amount != 200000 || periods[2].Units != 2 || periods[2].BaseAmount.Amount != 20000 {
		t.Fatalf("unexpected tail %+v", periods[1:])
	}
}

func TestDecomposeIsIdempotent(t *testing.T) {
	stay := stayOf(day(time.January, 5), 77)
	first, err := Decompose(fullSchedule(), stay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Decompose(fullSchedule(), stay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decompose is not deterministic")
	}
}

func TestDecomposeRejectsInvalidInput(t *testing.T) {
	if _, err := Decompose(fullSchedule(), daterange.DateRange{CheckIn: day(time.May, 2), CheckOut: day(time.May, 2)}); !errors.Is(err, ErrInvalidStay) {
		t.Fatalf("expected ErrInvalidStay, got %v", err)
	}
	if _, err := Decompose(fullSchedule(), daterange.DateRange{CheckIn: day(time.May, 9), CheckOut: day(time.May, 2)}); !errors.Is(err, ErrInvalidStay) {
		t.Fatalf("expected ErrInvalidStay for reversed dates, got %v", err)
	}
	bad := []RateSchedule{
		{Nightly: usd(0)},
		{Nightly: usd(-100)},
		{Nightly: usd(100), Weekly: usdPtr(0)},
		{Nightly: usd(100), Monthly: &money.Money{Amount: 1000, Currency: "EUR"}},
	}
	for i, schedule := range bad {
		if _, err := Decompose(schedule, stayOf(day(time.May, 1), 3)); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("schedule %d: expected ErrInvalidRate, got %v", i, err)
		}
	}
}

func TestDiscountPercentIsCapped(t *testing.T) {
	want := []int{0, 10, 20, 30, 40, 50, 50, 50}
	for i, w := range want {
		if got := DiscountPercent(i); got != w {
			t.Fatalf("DiscountPercent(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestApplyDiscountsSevenPeriods(t *testing.T) {
	schedule := RateSchedule{Nightly: usd(10000), Weekly: usdPtr(60000)}
	periods, err := Decompose(schedule, stayOf(day(time.January, 1), 49))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	quote, err := ApplyDiscounts(periods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quote.Periods) != 7 {
		t.Fatalf("expected 7 weekly periods, got %d", len(quote.Periods))
	}
	for _, i := range []int{5, 6} {
		if quote.Periods[i].DiscountPercent != 50 || quote.Periods[i].Amount.Amount != 30000 {
			t.Fatalf("period %d: pct=%d amount=%d", i, quote.Periods[i].DiscountPercent, quote.Periods[i].Amount.Amount)
		}
	}
	if quote.SecurityDeposit.Amount != 60000 {
		t.Fatalf("weekly stay deposit = %d, want 60000", quote.SecurityDeposit.Amount)
	}
	if periods[5].DiscountPercent != 0 || periods[5].Amount.Amount != 60000 {
		t.Fatalf("input periods were mutated")
	}
}

func TestApplyDiscountsDependsOnPositionOnly(t *testing.T) {
	short, err := QuoteStay(RateSchedule{Nightly: usd(10000), Weekly: usdPtr(60000)}, stayOf(day(time.June, 1), 16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := QuoteStay(fullSchedule(), stayOf(day(time.June, 1), 63))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, q := range []Quote{short, long} {
		if len(q.Periods) != 3 {
			t.Fatalf("expected 3 periods, got %v", kinds(q.Periods))
		}
		for i, p := range q.Periods {
			if p.DiscountPercent != i*10 {
				t.Fatalf("period %d %s discounted %d%%", i, p.Kind, p.DiscountPercent)
			}
		}
	}
}

func TestSecurityDepositNightlyFloor(t *testing.T) {
	quote, err := QuoteStay(fullSchedule(), stayOf(day(time.April, 1), 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.SecurityDeposit.Amount != 70000 {
		t.Fatalf("deposit = %d, want 70000", quote.SecurityDeposit.Amount)
	}
	if quote.GrandTotal.Amount != 40000+70000 {
		t.Fatalf("grand total = %d", quote.GrandTotal.Amount)
	}
}

func TestApplyDiscountsRejectsBrokenSequence(t *testing.T) {
	if _, err := ApplyDiscounts(nil); !errors.Is(err, ErrNoPeriods) {
		t.Fatalf("expected ErrNoPeriods, got %v", err)
	}
	periods, err := Decompose(fullSchedule(), stayOf(day(time.January, 1), 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	periods[0], periods[1] = periods[1], periods[0]
	if _, err := ApplyDiscounts(periods); !errors.Is(err, ErrBrokenSequence) {
		t.Fatalf("expected ErrBrokenSequence, got %v", err)
	}
}
