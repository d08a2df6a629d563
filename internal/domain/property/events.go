package property

import "time"

type PropertyCreated struct {
	PropertyID PropertyID
	HostID     HostID
	At         time.Time
}

func (e PropertyCreated) EventName() string     { return "property.created" }
func (e PropertyCreated) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyCreated) OccurredAt() time.Time { return e.At }

type RatesChanged struct {
	PropertyID PropertyID
	Nightly    int64
	Currency   string
	At         time.Time
}

func (e RatesChanged) EventName() string     { return "property.rates_changed" }
func (e RatesChanged) AggregateID() string   { return string(e.PropertyID) }
func (e RatesChanged) OccurredAt() time.Time { return e.At }
