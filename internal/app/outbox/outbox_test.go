package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/shared/events"
	"rentalpricing/internal/domain/shared/money"
)

type sliceOutbox struct{ records []EventRecord }

func (s *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func TestRecordDomainEventsEncodesLedgerEntry(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	ev := payments.PaymentConfirmed{
		PaymentID:   "pay-1",
		BookingID:   "b-1",
		FromPeriod:  1,
		ToPeriod:    3,
		Amount:      money.Must(70000, "USD"),
		ConfirmedBy: "cashier",
		At:          at,
	}
	box := &sliceOutbox{}
	enc := JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}
	if err := RecordDomainEvents(context.Background(), box, enc, []events.DomainEvent{ev}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(box.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(box.records))
	}
	rec := box.records[0]
	if rec.ID != "evt-1" || rec.Name != "payment.confirmed" || rec.Aggregate != "b-1" || !rec.OccurredAt.Equal(at) {
		t.Fatalf("unexpected record %+v", rec)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Payload, &body); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if body["payment_id"] != "pay-1" || body["to_period"] != float64(3) {
		t.Fatalf("unexpected payload %s", rec.Payload)
	}
}

func TestRecordDomainEventsNoop(t *testing.T) {
	if err := RecordDomainEvents(context.Background(), nil, nil, nil); err != nil {
		t.Fatalf("nil outbox should be a no-op: %v", err)
	}
}
