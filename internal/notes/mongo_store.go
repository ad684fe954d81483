package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollectionID = "default"

// mongoDocument is the single document holding the whole collection.
type mongoDocument struct {
	ID     string `bson:"_id"`
	Notes  []Note `bson:"notes"`
	NextID int    `bson:"next_id"`
}

// MongoStore keeps the collection as one document in the notes collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("notes")}
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.coll.Database().Client().Disconnect(ctx)
}

// Load returns an empty collection when the document was never written.
func (s *MongoStore) Load(ctx context.Context) (*Collection, error) {
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoCollectionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NewCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find notes document: %w", err)
	}

	c := &Collection{Notes: doc.Notes, NextID: doc.NextID}
	c.normalize()
	return c, nil
}

func (s *MongoStore) Save(ctx context.Context, c *Collection) error {
	doc := mongoDocument{
		ID:     mongoCollectionID,
		Notes:  c.Notes,
		NextID: c.NextID,
	}
	if doc.Notes == nil {
		doc.Notes = []Note{}
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": mongoCollectionID}, doc, opts)
	if err != nil {
		return fmt.Errorf("replace notes document: %w", err)
	}
	return nil
}
