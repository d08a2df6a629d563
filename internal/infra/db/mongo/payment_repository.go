package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentalpricing/internal/domain/booking"
	"rentalpricing/internal/domain/payments"
	"rentalpricing/internal/domain/shared/money"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(ctx context.Context, db *mongo.Database) (*PaymentRepository, error) {
	col := db.Collection("agg_payment")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "period_index", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &PaymentRepository{col: col}, nil
}

func (r *PaymentRepository) ByID(ctx context.Context, id payments.PaymentID) (*payments.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, payments.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, id booking.BookingID) ([]*payments.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "period_index", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"booking_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []paymentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*payments.Payment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *payments.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

type paymentDocument struct {
	ID          string      `bson:"_id"`
	BookingID   string      `bson:"booking_id"`
	PeriodIndex int         `bson:"period_index"`
	PeriodCount int         `bson:"period_count"`
	Amount      money.Money `bson:"amount"`
	Status      string      `bson:"status"`
	CreatedAt   int64       `bson:"created_at"`
	ConfirmedAt int64       `bson:"confirmed_at,omitempty"`
	ConfirmedBy string      `bson:"confirmed_by,omitempty"`
	RefundedAt  int64       `bson:"refunded_at,omitempty"`
	Version     int64       `bson:"version"`
}

func newPaymentDocument(p *payments.Payment) paymentDocument {
	return paymentDocument{
		ID:          string(p.ID),
		BookingID:   string(p.BookingID),
		PeriodIndex: p.PeriodIndex,
		PeriodCount: p.PeriodCount,
		Amount:      p.Amount,
		Status:      string(p.Status),
		CreatedAt:   timeToTimestamp(p.CreatedAt),
		ConfirmedAt: timeToTimestamp(p.ConfirmedAt),
		ConfirmedBy: p.ConfirmedBy,
		RefundedAt:  timeToTimestamp(p.RefundedAt),
		Version:     p.Version,
	}
}

func (d paymentDocument) toAggregate() *payments.Payment {
	return &payments.Payment{
		ID:          payments.PaymentID(d.ID),
		BookingID:   booking.BookingID(d.BookingID),
		PeriodIndex: d.PeriodIndex,
		PeriodCount: d.PeriodCount,
		Amount:      d.Amount,
		Status:      payments.Status(d.Status),
		CreatedAt:   timestampToTime(d.CreatedAt),
		ConfirmedAt: timestampToTime(d.ConfirmedAt),
		ConfirmedBy: d.ConfirmedBy,
		RefundedAt:  timestampToTime(d.RefundedAt),
		Version:     d.Version,
	}
}

var _ payments.Repository = (*PaymentRepository)(nil)
