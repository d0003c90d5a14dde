package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

// Collection names follow the mobile backend's existing database.
const (
	usersCollection   = "users"
	tasksCollection   = "tasks"
	journalCollection = "journalentries"

	connectTimeout = 10 * time.Second
)

// Store reads the mobile backend's MongoDB documents.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ domain.RecordStore = (*Store)(nil)

func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// _id is not decoded: the caller already holds the id it queried by, and it
// may be an ObjectID or a plain string.
type userDoc struct {
	Username    string `bson:"username"`
	CurrentMood string `bson:"currentMood"`
}

type taskDoc struct {
	ID          any       `bson:"_id"`
	User        any       `bson:"user"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	IsCompleted bool      `bson:"isCompleted"`
	Priority    string    `bson:"priority"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type journalDoc struct {
	ID        any       `bson:"_id"`
	User      any       `bson:"user"`
	Mood      string    `bson:"mood"`
	Journal   string    `bson:"journal"`
	CreatedAt time.Time `bson:"createdAt"`
}

// docID renders a stored _id, ObjectID or otherwise, as a string id.
func docID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// ownerValue matches the owner reference as stored: an ObjectID when the id
// is 24 hex characters, the plain string otherwise.
func ownerValue(owner domain.UserID) any {
	if oid, err := primitive.ObjectIDFromHex(string(owner)); err == nil {
		return oid
	}
	return string(owner)
}

func ownerFilter(owner domain.UserID) bson.M {
	return bson.M{"user": ownerValue(owner)}
}

// The mobile backend stores Turkish labels; map them onto the canonical set.
// Anything else is passed through and left to the consumers to ignore.
var legacyPriorities = map[string]domain.Priority{
	"düşük":  domain.PriorityLow,
	"orta":   domain.PriorityMedium,
	"yüksek": domain.PriorityHigh,
}

var legacyMoods = map[string]domain.Mood{
	"berbat": domain.MoodAwful,
	"uzgun":  domain.MoodSad,
	"üzgün":  domain.MoodSad,
	"normal": domain.MoodNeutral,
	"mutlu":  domain.MoodHappy,
	"harika": domain.MoodGreat,
}

func canonicalPriority(label string) string {
	if p, ok := legacyPriorities[strings.ToLower(strings.TrimSpace(label))]; ok {
		return string(p)
	}
	return label
}

func canonicalMood(label string) string {
	if m, ok := legacyMoods[strings.ToLower(strings.TrimSpace(label))]; ok {
		return string(m)
	}
	return label
}

func (d taskDoc) toDomain(owner domain.UserID) domain.TaskRecord {
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = d.CreatedAt
	}
	return domain.TaskRecord{
		ID:          domain.TaskID(docID(d.ID)),
		OwnerID:     owner,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.IsCompleted,
		Priority:    canonicalPriority(d.Priority),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updated,
	}
}

func (d journalDoc) toDomain(owner domain.UserID) domain.JournalRecord {
	return domain.JournalRecord{
		ID:        domain.JournalEntryID(docID(d.ID)),
		OwnerID:   owner,
		Mood:      canonicalMood(d.Mood),
		Body:      d.Journal,
		CreatedAt: d.CreatedAt,
	}
}

func (s *Store) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var doc userDoc
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": ownerValue(id)},
			options.FindOne().SetProjection(bson.M{"username": 1, "currentMood": 1})).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("mongo GetUser: %w", err)
	}

	return &domain.User{
		ID:          id,
		DisplayName: doc.Username,
		CurrentMood: canonicalMood(doc.CurrentMood),
	}, nil
}

func taskFilter(owner domain.UserID, q domain.TaskQuery) bson.M {
	filter := ownerFilter(owner)
	if q.PendingOnly {
		filter["isCompleted"] = false
	}
	if !q.CreatedSince.IsZero() {
		filter["createdAt"] = bson.M{"$gte": q.CreatedSince}
	}
	return filter
}

func journalFilter(owner domain.UserID, q domain.JournalQuery) bson.M {
	filter := ownerFilter(owner)
	if !q.CreatedSince.IsZero() {
		filter["createdAt"] = bson.M{"$gte": q.CreatedSince}
	}
	return filter
}

func newestFirst(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func (s *Store) ListTasks(ctx context.Context, owner domain.UserID, q domain.TaskQuery) ([]domain.TaskRecord, error) {
	cursor, err := s.db.Collection(tasksCollection).Find(ctx, taskFilter(owner, q), newestFirst(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("mongo ListTasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo ListTasks decode: %w", err)
	}

	out := make([]domain.TaskRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain(owner))
	}
	return out, nil
}

func (s *Store) ListJournalEntries(ctx context.Context, owner domain.UserID, q domain.JournalQuery) ([]domain.JournalRecord, error) {
	cursor, err := s.db.Collection(journalCollection).Find(ctx, journalFilter(owner, q), newestFirst(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("mongo ListJournalEntries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []journalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo ListJournalEntries decode: %w", err)
	}

	out := make([]domain.JournalRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain(owner))
	}
	return out, nil
}
