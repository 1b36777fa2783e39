package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/fsmkit/pkg/record"
)

// Store keeps one document per record in a collection:
//
//	{_id: "<kind>/<id>", kind, record_id, attributes: {...}, updated_at}
type Store struct {
	coll *mongo.Collection
}

var _ record.Store = (*Store)(nil)

func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

type document struct {
	Key        string    `bson:"_id"`
	Kind       string    `bson:"kind"`
	RecordID   string    `bson:"record_id"`
	Attributes bson.M    `bson:"attributes"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func key(kind, id string) string {
	return kind + "/" + id
}

func (s *Store) Save(ctx context.Context, kind, id string, attrs map[string]any) error {
	doc := document{
		Key:        key(kind, id),
		Kind:       kind,
		RecordID:   id,
		Attributes: bson.M(attrs),
		UpdatedAt:  time.Now().UTC(),
	}
	if doc.Attributes == nil {
		doc.Attributes = bson.M{}
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save record %s: %w", doc.Key, err)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, kind, id string, fields map[string]any) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	for name, v := range fields {
		set["attributes."+name] = v
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": key(kind, id)}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update record %s: %w", key(kind, id), err)
	}
	if res.MatchedCount == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (s *Store) Load(ctx context.Context, kind, id string) (map[string]any, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": key(kind, id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", key(kind, id), err)
	}
	attrs := make(map[string]any, len(doc.Attributes))
	for k, v := range doc.Attributes {
		attrs[k] = v
	}
	return attrs, nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": key(kind, id)})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", key(kind, id), err)
	}
	if res.DeletedCount == 0 {
		return record.ErrNotFound
	}
	return nil
}
