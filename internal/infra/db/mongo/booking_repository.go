package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/daterange"
	"rentalpricing/internal/domain/shared/money"
)

type BookingRepository struct {
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewBookingRepository(ctx context.Context, db *mongo.Database) (*BookingRepository, error) {
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "stay.check_in", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &BookingRepository{col: col, locks: db.Collection("property_locks")}, nil
}

func (r *BookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isTxnConflict(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByProperty(ctx context.Context, id property.PropertyID, window daterange.DateRange) ([]*booking.Booking, error) {
	filter := bson.M{
		"property_id":    string(id),
		"stay.check_in":  bson.M{"$lt": timeToTimestamp(window.CheckOut)},
		"stay.check_out": bson.M{"$gt": timeToTimestamp(window.CheckIn)},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "stay.check_in", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*booking.Booking, 0)
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

// LockProperty writes the property's lock document inside the current
// transaction. A second transaction touching the same document hits a write
// conflict, reported as booking.ErrPropertyLocked.
func (r *BookingRepository) LockProperty(ctx context.Context, id property.PropertyID) error {
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"locked_at": time.Now().UTC()},
	}
	_, err := r.locks.UpdateOne(ctx, bson.M{"_id": string(id)}, update, options.Update().SetUpsert(true))
	return lockError(id, err)
}

func lockError(id property.PropertyID, err error) error {
	if err == nil {
		return nil
	}
	if isTxnConflict(err) || mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: property %s", booking.ErrPropertyLocked, id)
	}
	return err
}

type bookingDocument struct {
	ID              string           `bson:"_id"`
	PropertyID      string           `bson:"property_id"`
	GuestID         string           `bson:"guest_id"`
	Stay            rangeDocument    `bson:"stay"`
	Schedule        []periodDocument `bson:"schedule"`
	Total           money.Money      `bson:"total"`
	SecurityDeposit money.Money      `bson:"security_deposit"`
	GrandTotal      money.Money      `bson:"grand_total"`
	Status          string           `bson:"status"`
	CancelReason    string           `bson:"cancel_reason,omitempty"`
	CreatedAt       int64            `bson:"created_at"`
	UpdatedAt       int64            `bson:"updated_at"`
	ConfirmedAt     int64            `bson:"confirmed_at,omitempty"`
	CancelledAt     int64            `bson:"cancelled_at,omitempty"`
	Version         int64            `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type periodDocument struct {
	Kind            string      `bson:"kind"`
	Start           int64       `bson:"start"`
	End             int64       `bson:"end"`
	Units           int         `bson:"units"`
	BaseAmount      money.Money `bson:"base_amount"`
	DiscountPercent int         `bson:"discount_percent"`
	Amount          money.Money `bson:"amount"`
	SequenceIndex   int         `bson:"sequence_index"`
}

func newBookingDocument(b *booking.Booking) bookingDocument {
	schedule := make([]periodDocument, 0, len(b.Schedule))
	for _, p := range b.Schedule {
		schedule = append(schedule, periodDocument{
			Kind:            string(p.Kind),
			Start:           timeToTimestamp(p.Start),
			End:             timeToTimestamp(p.End),
			Units:           p.Units,
			BaseAmount:      p.BaseAmount,
			DiscountPercent: p.DiscountPercent,
			Amount:          p.Amount,
			SequenceIndex:   p.SequenceIndex,
		})
	}
	return bookingDocument{
		ID:              string(b.ID),
		PropertyID:      string(b.PropertyID),
		GuestID:         b.GuestID,
		Stay:            rangeDocument{CheckIn: timeToTimestamp(b.Stay.CheckIn), CheckOut: timeToTimestamp(b.Stay.CheckOut)},
		Schedule:        schedule,
		Total:           b.Total,
		SecurityDeposit: b.SecurityDeposit,
		GrandTotal:      b.GrandTotal,
		Status:          string(b.Status),
		CancelReason:    b.CancelReason,
		CreatedAt:       timeToTimestamp(b.CreatedAt),
		UpdatedAt:       timeToTimestamp(b.UpdatedAt),
		ConfirmedAt:     timeToTimestamp(b.ConfirmedAt),
		CancelledAt:     timeToTimestamp(b.CancelledAt),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *booking.Booking {
	schedule := make([]pricing.PricePeriod, 0, len(d.Schedule))
	for _, p := range d.Schedule {
		schedule = append(schedule, pricing.PricePeriod{
			Kind:            pricing.PeriodKind(p.Kind),
			Start:           timestampToTime(p.Start),
			End:             timestampToTime(p.End),
			Units:           p.Units,
			BaseAmount:      p.BaseAmount,
			DiscountPercent: p.DiscountPercent,
			Amount:          p.Amount,
			SequenceIndex:   p.SequenceIndex,
		})
	}
	return &booking.Booking{
		ID:              booking.BookingID(d.ID),
		PropertyID:      property.PropertyID(d.PropertyID),
		GuestID:         d.GuestID,
		Stay:            daterange.DateRange{CheckIn: timestampToTime(d.Stay.CheckIn), CheckOut: timestampToTime(d.Stay.CheckOut)},
		Schedule:        schedule,
		Total:           d.Total,
		SecurityDeposit: d.SecurityDeposit,
		GrandTotal:      d.GrandTotal,
		Status:          booking.Status(d.Status),
		CancelReason:    d.CancelReason,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		ConfirmedAt:     timestampToTime(d.ConfirmedAt),
		CancelledAt:     timestampToTime(d.CancelledAt),
		Version:         d.Version,
	}
}

var _ booking.Repository = (*BookingRepository)(nil)
