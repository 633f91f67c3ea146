package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	memoriesCollection = "memories"
	usersCollection    = "users"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect builds a client for uri. The driver dials lazily, so an unreachable
// server surfaces on the first query rather than here.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) memories() *mongo.Collection { return s.db.Collection(memoriesCollection) }
func (s *Store) users() *mongo.Collection    { return s.db.Collection(usersCollection) }

// EnsureIndexes creates the unique username index and the createdAt sort index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users index: %w", err)
	}
	_, err = s.memories().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating memories index: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Documents
// ─────────────────────────────────────────

type imageDoc struct {
	Data        string `bson:"data"`
	ContentType string `bson:"contentType"`
	Key         string `bson:"key,omitempty"`
}

type memoryDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Message   string             `bson:"message"`
	Images    []imageDoc         `bson:"images"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
}

func toMemoryDoc(m *models.Memory) (memoryDoc, error) {
	doc := memoryDoc{
		Name:      m.Name,
		Message:   m.Message,
		Images:    make([]imageDoc, 0, len(m.Images)),
		CreatedAt: m.CreatedAt,
	}
	if m.ID != "" {
		oid, err := primitive.ObjectIDFromHex(m.ID)
		if err != nil {
			return memoryDoc{}, fmt.Errorf("memory id %q: %w", m.ID, err)
		}
		doc.ID = oid
	}
	for _, img := range m.Images {
		doc.Images = append(doc.Images, imageDoc{Data: img.Data, ContentType: img.ContentType, Key: img.Key})
	}
	return doc, nil
}

func fromMemoryDoc(doc memoryDoc) models.Memory {
	m := models.Memory{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		Message:   doc.Message,
		Images:    make([]models.Image, 0, len(doc.Images)),
		CreatedAt: doc.CreatedAt,
	}
	for i, img := range doc.Images {
		m.Images = append(m.Images, models.Image{
			MemoryID:    m.ID,
			Position:    i,
			Key:         img.Key,
			Data:        img.Data,
			ContentType: img.ContentType,
		})
	}
	return m
}

// ─────────────────────────────────────────
// MemoryStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateMemory(ctx context.Context, m *models.Memory) error {
	doc, err := toMemoryDoc(m)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := s.memories().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("inserting memory: %w", err)
	}

	m.ID = doc.ID.Hex()
	for i := range m.Images {
		m.Images[i].MemoryID = m.ID
		m.Images[i].Position = i
	}
	return nil
}

func (s *Store) ListMemories(ctx context.Context) ([]models.Memory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.memories().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding memories: %w", err)
	}

	var docs []memoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding memories: %w", err)
	}

	out := make([]models.Memory, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromMemoryDoc(doc))
	}
	return out, nil
}

// ─────────────────────────────────────────
// UserStore implementation
// ─────────────────────────────────────────

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc userDoc
	err := s.users().FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &models.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.Password,
	}, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	doc := userDoc{
		ID:       primitive.NewObjectID(),
		Username: u.Username,
		Password: u.PasswordHash,
	}
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
