package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentalpricing/internal/domain/pricing"
	"rentalpricing/internal/domain/property"
	"rentalpricing/internal/domain/shared/money"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id property.PropertyID) (*property.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, property.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with an optimistic version check.
func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	doc := newPropertyDocument(p)
	doc.Version = p.Version + 1
	filter := bson.M{"_id": doc.ID, "version": p.Version}
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

type propertyDocument struct {
	ID        string       `bson:"_id"`
	HostID    string       `bson:"host_id"`
	Title     string       `bson:"title"`
	Address   string       `bson:"address"`
	Nightly   money.Money  `bson:"nightly"`
	Weekly    *money.Money `bson:"weekly,omitempty"`
	Monthly   *money.Money `bson:"monthly,omitempty"`
	CreatedAt int64        `bson:"created_at"`
	UpdatedAt int64        `bson:"updated_at"`
	Version   int64        `bson:"version"`
}

func newPropertyDocument(p *property.Property) propertyDocument {
	return propertyDocument{
		ID:        string(p.ID),
		HostID:    string(p.Host),
		Title:     p.Title,
		Address:   p.Address,
		Nightly:   p.Rates.Nightly,
		Weekly:    p.Rates.Weekly,
		Monthly:   p.Rates.Monthly,
		CreatedAt: timeToTimestamp(p.CreatedAt),
		UpdatedAt: timeToTimestamp(p.UpdatedAt),
		Version:   p.Version,
	}
}

func (d propertyDocument) toAggregate() *property.Property {
	return &property.Property{
		ID:        property.PropertyID(d.ID),
		Host:      property.HostID(d.HostID),
		Title:     d.Title,
		Address:   d.Address,
		Rates:     pricing.RateSchedule{Nightly: d.Nightly, Weekly: d.Weekly, Monthly: d.Monthly},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

var _ property.Repository = (*PropertyRepository)(nil)
