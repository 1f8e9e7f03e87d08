package mongostore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// entryDocument is the stored shape of an entry. Dates are kept as
// YYYY-MM-DD strings so range filters compare lexically and no timezone is
// ever attached.
type entryDocument struct {
	ID         string               `bson:"_id"`
	AgentID    string               `bson:"agentId"`
	Date       string               `bson:"date"`
	Status     string               `bson:"status"`
	ExtraHours primitive.Decimal128 `bson:"extraHours"`
	ClientID   *string              `bson:"clientId,omitempty"`
	UpdatedBy  *string              `bson:"updatedBy,omitempty"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func (d entryDocument) toEntry() (domain.Entry, error) {
	date, err := domain.ParseDate(d.Date)
	if err != nil {
		return domain.Entry{}, err
	}
	return domain.Entry{
		ID:         d.ID,
		AgentID:    d.AgentID,
		Date:       date,
		Status:     domain.Status(d.Status),
		ExtraHours: fromDecimal128(d.ExtraHours),
		ClientID:   d.ClientID,
		UpdatedBy:  d.UpdatedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

// EntryStore is the MongoDB attendance store
type EntryStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewEntryStore creates an entry store on db
func NewEntryStore(db *mongo.Database) *EntryStore {
	return &EntryStore{
		coll: db.Collection(entriesCollection),
		now:  time.Now,
	}
}

// FindEntries returns the entries in [filter.From, filter.To), ordered by
// agent and date
func (s *EntryStore) FindEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.Entry, error) {
	query := bson.M{
		"date": bson.M{
			"$gte": domain.FormatDate(filter.From),
			"$lt":  domain.FormatDate(filter.To),
		},
	}
	if len(filter.AgentIDs) > 0 {
		query["agentId"] = bson.M{"$in": filter.AgentIDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "agentId", Value: 1}, {Key: "date", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, storeError(err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(err)
	}

	entries := make([]domain.Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.toEntry()
		if err != nil {
			return nil, storeError(err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpsertEntry inserts or replaces the (agent, date) entry. A nil ExtraHours
// keeps the stored value, or 0 on insert.
func (s *EntryStore) UpsertEntry(ctx context.Context, u domain.EntryUpsert) (*domain.Entry, error) {
	now := s.now().UTC()

	set := bson.M{
		"status":    string(u.Status),
		"clientId":  u.ClientID,
		"updatedBy": u.UpdatedBy,
		"updatedAt": now,
	}
	setOnInsert := bson.M{
		"_id":       uuid.New().String(),
		"createdAt": now,
	}

	if u.ExtraHours != nil {
		extra, err := toDecimal128(*u.ExtraHours)
		if err != nil {
			return nil, err
		}
		set["extraHours"] = extra
	} else {
		zero, _ := toDecimal128(decimal.Zero)
		setOnInsert["extraHours"] = zero
	}

	filter := bson.M{"agentId": u.AgentID, "date": domain.FormatDate(u.Date)}
	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc entryDocument
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert inserted the key first; this one now updates it
		err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, storeError(err)
	}

	entry, err := doc.toEntry()
	if err != nil {
		return nil, storeError(err)
	}
	return &entry, nil
}

// SumExtraHours totals the agent's extra hours in [from, to), leaving out
// exclude
func (s *EntryStore) SumExtraHours(ctx context.Context, agentID string, from, to, exclude time.Time) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "agentId", Value: agentID},
			{Key: "date", Value: bson.D{
				{Key: "$gte", Value: domain.FormatDate(from)},
				{Key: "$lt", Value: domain.FormatDate(to)},
				{Key: "$ne", Value: domain.FormatDate(exclude)},
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$extraHours"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, storeError(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return decimal.Zero, storeError(err)
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return fromDecimal128(rows[0].Total), nil
}
