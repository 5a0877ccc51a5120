// Package mongo implements the document store gateway on MongoDB.
//
// Records are stored as {_id, content, metadata}. The upsert key gets a
// unique index, created on first write to a collection after any
// pre-existing duplicates have been given fresh keys. Full-text search
// uses a text index and ranks by textScore.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rag4u/ingest/internal/adapters/driven/storage"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

const closeTimeout = 5 * time.Second

// Server error codes the store reacts to.
const (
	codeIndexNotFound = 27
	codeDuplicateKey  = 11000
)

// Store is a MongoDB-backed document store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	mu      sync.Mutex
	indexed map[string]bool
}

// NewStore connects to uri and verifies the server is reachable.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", domain.ErrInvalidInput)
	}
	if database == "" {
		return nil, fmt.Errorf("%w: mongo database name is required", domain.ErrInvalidInput)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return newStore(client, database), nil
}

func newStore(client *mongo.Client, database string) *Store {
	return &Store{
		client:  client,
		db:      client.Database(database),
		indexed: make(map[string]bool),
	}
}

// classify marks connectivity failures so callers can abort the run.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func hasCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}

// ensureKeyIndex repairs duplicate keys and creates the unique index,
// once per collection and key field.
func (s *Store) ensureKeyIndex(ctx context.Context, coll *mongo.Collection, keyField string) error {
	id := coll.Name() + "\x00" + keyField

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed[id] {
		return nil
	}

	if err := s.repairDuplicates(ctx, coll, keyField); err != nil {
		return err
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: keyField, Value: 1}},
		Options: options.Index().SetName(keyField + "_1").SetUnique(true),
	})
	if err != nil {
		return classify("creating key index", err)
	}
	s.indexed[id] = true
	return nil
}

// repairDuplicates gives every record sharing a key a fresh uuid key.
func (s *Store) repairDuplicates(ctx context.Context, coll *mongo.Collection, keyField string) error {
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + keyField},
			{Key: "ids", Value: bson.D{{Key: "$push", Value: "$_id"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$gt", Value: 1}}}}}},
	})
	if err != nil {
		return classify("finding duplicate keys", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var dup struct {
			Key   any   `bson:"_id"`
			IDs   []any `bson:"ids"`
			Count int   `bson:"count"`
		}
		if err := cursor.Decode(&dup); err != nil {
			return fmt.Errorf("decoding duplicate group: %w", err)
		}
		logger.Warn("Duplicate key %v in %s with %d occurrences", dup.Key, coll.Name(), dup.Count)
		for _, docID := range dup.IDs {
			key := storage.NewKey()
			logger.Info("Updating record %v in %s with new key %s", docID, coll.Name(), key)
			_, err := coll.UpdateByID(ctx, docID, bson.D{{Key: "$set", Value: bson.D{{Key: keyField, Value: key}}}})
			if err != nil {
				return classify("repairing duplicate key", err)
			}
		}
	}
	return classify("finding duplicate keys", cursor.Err())
}

// Upsert replaces the record whose keyField equals keyValue, or inserts it.
// A duplicate-key race between two concurrent inserts is retried once.
func (s *Store) Upsert(ctx context.Context, collection, keyField, keyValue string, rec domain.Record) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}
	if keyValue == "" {
		keyValue = storage.NewKey()
	}
	rec = storage.Clone(rec)
	if err := storage.SetField(&rec, keyField, keyValue); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	coll := s.db.Collection(collection)
	if err := s.ensureKeyIndex(ctx, coll, keyField); err != nil {
		return err
	}

	filter := bson.D{{Key: keyField, Value: keyValue}}
	doc := bson.D{
		{Key: "content", Value: rec.Content},
		{Key: "metadata", Value: rec.Metadata},
	}
	opts := options.Replace().SetUpsert(true)

	_, err := coll.ReplaceOne(ctx, filter, doc, opts)
	if hasCode(err, codeDuplicateKey) {
		_, err = coll.ReplaceOne(ctx, filter, doc, opts)
	}
	return classify("upserting record "+keyValue, err)
}

// Query returns records matching every equality condition in filter,
// in insertion order.
func (s *Store) Query(ctx context.Context, collection string, filter map[string]any, limit int) ([]domain.Record, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	f, ok := translateFilter(filter)
	if !ok {
		return nil, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.db.Collection(collection).Find(ctx, f, opts)
	if err != nil {
		return nil, classify("querying "+collection, err)
	}
	defer cursor.Close(ctx)

	var records []domain.Record
	for cursor.Next(ctx) {
		var doc recordDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, doc.toRecord())
	}
	return records, classify("querying "+collection, cursor.Err())
}

// translateFilter converts an equality filter to bson. A malformed _id
// can match nothing, reported as ok == false.
func translateFilter(filter map[string]any) (bson.M, bool) {
	out := bson.M{}
	for k, v := range filter {
		if k == storage.FieldID {
			if s, isString := v.(string); isString {
				oid, err := primitive.ObjectIDFromHex(s)
				if err != nil {
					return nil, false
				}
				v = oid
			}
		}
		out[k] = v
	}
	return out, true
}

// EnsureTextIndex creates a text index over field. Creating an
// identical index again is a no-op on the server.
func (s *Store) EnsureTextIndex(ctx context.Context, collection, field string) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: "text"}},
		Options: options.Index().SetName(field + "_text"),
	})
	return classify("creating text index", err)
}

// FullTextSearch runs a $text query sorted by textScore.
func (s *Store) FullTextSearch(ctx context.Context, collection, query string, limit int) ([]domain.ScoredRecord, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if len(storage.Terms(query)) == 0 {
		return nil, nil
	}

	score := bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}}
	opts := options.Find().SetProjection(score).SetSort(score)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx,
		bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}}, opts)
	if hasCode(err, codeIndexNotFound) {
		return nil, fmt.Errorf("%w: no text index on %s", domain.ErrNotFound, collection)
	}
	if err != nil {
		return nil, classify("searching "+collection, err)
	}
	defer cursor.Close(ctx)

	var results []domain.ScoredRecord
	for cursor.Next(ctx) {
		var doc scoredDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		results = append(results, domain.ScoredRecord{Record: doc.toRecord(), Score: doc.Score})
	}
	return results, classify("searching "+collection, cursor.Err())
}

// Drop removes a collection and its indexes.
func (s *Store) Drop(ctx context.Context, collection string) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}
	if err := s.db.Collection(collection).Drop(ctx); err != nil {
		return classify("dropping "+collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.indexed {
		if len(id) > len(collection) && id[:len(collection)+1] == collection+"\x00" {
			delete(s.indexed, id)
		}
	}
	return nil
}

// Collections lists the collections in the database.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	return names, classify("listing collections", err)
}

// Close releases the underlying MongoDB client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type recordDocument struct {
	ID       any    `bson:"_id"`
	Content  string `bson:"content"`
	Metadata bson.M `bson:"metadata"`
}

// scoredDocument is a search hit. The codec skips unexported embedded
// structs, so the record fields are repeated here.
type scoredDocument struct {
	ID       any     `bson:"_id"`
	Content  string  `bson:"content"`
	Metadata bson.M  `bson:"metadata"`
	Score    float64 `bson:"score"`
}

func (doc scoredDocument) toRecord() domain.Record {
	return recordDocument{ID: doc.ID, Content: doc.Content, Metadata: doc.Metadata}.toRecord()
}

func (doc recordDocument) toRecord() domain.Record {
	rec := domain.Record{Content: doc.Content}
	switch id := doc.ID.(type) {
	case primitive.ObjectID:
		rec.ID = id.Hex()
	case nil:
	default:
		rec.ID = fmt.Sprint(id)
	}
	if doc.Metadata != nil {
		rec.Metadata = plain(doc.Metadata).(map[string]any)
	}
	return rec
}

// plain converts decoded bson containers into ordinary maps and slices.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = plain(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = plain(x)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = plain(x)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}
