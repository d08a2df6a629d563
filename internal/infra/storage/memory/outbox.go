package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "rentalpricing/internal/app/outbox"
	infraoutbox "rentalpricing/internal/infra/outbox"
)

// Outbox keeps committed records for the publisher worker.
type Outbox struct {
	mu       sync.Mutex
	messages []*infraoutbox.Message
	now      func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: func() time.Time { return time.Now().UTC() }}
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range records {
		o.messages = append(o.messages, &infraoutbox.Message{
			ID:          rec.ID,
			Name:        rec.Name,
			Payload:     rec.Payload,
			OccurredAt:  rec.OccurredAt,
			Aggregate:   rec.Aggregate,
			Headers:     rec.Headers,
			State:       infraoutbox.StateNew,
			NextAttempt: now,
		})
	}
}

// Messages returns a snapshot of every stored record.
func (o *Outbox) Messages() []infraoutbox.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.Message, 0, len(o.messages))
	for _, m := range o.messages {
		out = append(out, *m)
	}
	return out
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, m := range o.messages {
		if (m.State == infraoutbox.StateNew || m.State == infraoutbox.StateFailed) && !m.NextAttempt.After(now) {
			m.State = infraoutbox.StateClaimed
			m.ClaimedBy = workerID
			m.ClaimedAt = now
			claimed := *m
			return &claimed, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m := o.find(id); m != nil {
		m.State = infraoutbox.StateSent
		m.SentAt = o.now()
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m := o.find(id); m != nil {
		m.State = infraoutbox.StateFailed
		m.NextAttempt = next
		m.LastError = errMsg
		m.Attempts++
	}
	return nil
}

func (o *Outbox) find(id string) *infraoutbox.Message {
	for _, m := range o.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// unitOutbox stages records in the unit; they reach the Outbox on commit.
type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.u.mu.Lock()
	defer o.u.mu.Unlock()
	if err := o.u.writable(); err != nil {
		return err
	}
	o.u.records = append(o.u.records, record)
	return nil
}

var (
	_ infraoutbox.Queue = (*Outbox)(nil)
	_ appoutbox.Outbox  = unitOutbox{}
)
