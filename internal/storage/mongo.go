package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"visualeditor/internal/domain"
	"visualeditor/internal/errs"
)

// MongoStore implements both domain.DocumentStore and domain.SnapshotStore
// on two collections, "documents" and "snapshots".
type MongoStore struct {
	client    *mongo.Client
	documents *mongo.Collection
	snapshots *mongo.Collection
	limit     int
}

var (
	_ domain.DocumentStore = (*MongoStore)(nil)
	_ domain.SnapshotStore = (*MongoStore)(nil)
)

type mongoDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	ValueJSON string    `bson:"value_json"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type mongoSnapshot struct {
	ID         string    `bson:"_id"`
	DocumentID string    `bson:"document_id"`
	Seq        int64     `bson:"seq"`
	Label      string    `bson:"label"`
	ValueJSON  string    `bson:"value_json"`
	CreatedAt  time.Time `bson:"created_at"`
}

// OpenMongo connects to uri and uses database dbName. The journal keeps at
// most limit entries per document.
func OpenMongo(ctx context.Context, uri, dbName string, limit int) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:    client,
		documents: db.Collection("documents"),
		snapshots: db.Collection("snapshots"),
		limit:     limit,
	}
	_, err = s.snapshots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "seq", Value: 1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create snapshot index: %w", err)
	}
	return s, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateDocument(ctx context.Context, d *domain.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := s.documents.InsertOne(ctx, mongoDocument{
		ID: d.ID, Name: d.Name, ValueJSON: d.ValueJSON, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *MongoStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var md mongoDocument
	err := s.documents.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&md)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.New(errs.ErrCodeNotFound, "document %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	d := fromMongoDocument(md)
	return &d, nil
}

func (s *MongoStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "value_json", Value: 0}})
	cur, err := s.documents.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var mds []mongoDocument
	if err := cur.All(ctx, &mds); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	docs := make([]domain.Document, len(mds))
	for i, md := range mds {
		docs[i] = fromMongoDocument(md)
	}
	return docs, nil
}

func (s *MongoStore) UpdateDocument(ctx context.Context, d *domain.Document) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.documents.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: d.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: d.Name},
			{Key: "value_json", Value: d.ValueJSON},
			{Key: "updated_at", Value: d.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return errs.New(errs.ErrCodeNotFound, "document %q not found", d.ID)
	}
	return nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.ClearSnapshots(ctx, id); err != nil {
		return err
	}
	res, err := s.documents.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.New(errs.ErrCodeNotFound, "document %q not found", id)
	}
	return nil
}

func (s *MongoStore) PushSnapshot(ctx context.Context, documentID, label, valueJSON string) (*domain.Snapshot, error) {
	var last mongoSnapshot
	err := s.snapshots.FindOne(ctx,
		bson.D{{Key: "document_id", Value: documentID}},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("read journal head: %w", err)
	}

	ms := mongoSnapshot{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Seq:        last.Seq + 1,
		Label:      label,
		ValueJSON:  valueJSON,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.snapshots.InsertOne(ctx, ms); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	if s.limit > 0 {
		_, err := s.snapshots.DeleteMany(ctx, bson.D{
			{Key: "document_id", Value: documentID},
			{Key: "seq", Value: bson.D{{Key: "$lte", Value: ms.Seq - int64(s.limit)}}},
		})
		if err != nil {
			return nil, fmt.Errorf("prune snapshots: %w", err)
		}
	}
	snap := fromMongoSnapshot(ms)
	return &snap, nil
}

func (s *MongoStore) ListSnapshots(ctx context.Context, documentID string) ([]domain.Snapshot, error) {
	cur, err := s.snapshots.Find(ctx,
		bson.D{{Key: "document_id", Value: documentID}},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var mss []mongoSnapshot
	if err := cur.All(ctx, &mss); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	snaps := make([]domain.Snapshot, len(mss))
	for i, ms := range mss {
		snaps[i] = fromMongoSnapshot(ms)
	}
	return snaps, nil
}

func (s *MongoStore) ClearSnapshots(ctx context.Context, documentID string) error {
	if _, err := s.snapshots.DeleteMany(ctx, bson.D{{Key: "document_id", Value: documentID}}); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}

func fromMongoDocument(md mongoDocument) domain.Document {
	return domain.Document{
		ID:        md.ID,
		Name:      md.Name,
		ValueJSON: md.ValueJSON,
		CreatedAt: md.CreatedAt,
		UpdatedAt: md.UpdatedAt,
	}
}

func fromMongoSnapshot(ms mongoSnapshot) domain.Snapshot {
	return domain.Snapshot{
		ID:         ms.ID,
		DocumentID: ms.DocumentID,
		Seq:        ms.Seq,
		Label:      ms.Label,
		ValueJSON:  ms.ValueJSON,
		CreatedAt:  ms.CreatedAt,
	}
}
