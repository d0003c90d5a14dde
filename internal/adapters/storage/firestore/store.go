package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

const (
	usersCollection   = "users"
	tasksCollection   = "tasks"
	journalCollection = "journal_entries"
)

// Store is the Firestore-backed record store. It only reads.
type Store struct {
	client *firestore.Client
}

var _ domain.RecordStore = (*Store)(nil)

// NewStore creates a Firestore store for projectID using application
// default credentials.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type userDoc struct {
	DisplayName string `firestore:"display_name"`
	CurrentMood string `firestore:"current_mood"`
}

type taskDoc struct {
	OwnerID     string    `firestore:"owner_id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Completed   bool      `firestore:"completed"`
	Priority    string    `firestore:"priority"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

type journalDoc struct {
	OwnerID   string    `firestore:"owner_id"`
	Mood      string    `firestore:"mood"`
	Body      string    `firestore:"body"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d userDoc) toDomain(id string) *domain.User {
	return &domain.User{
		ID:          domain.UserID(id),
		DisplayName: d.DisplayName,
		CurrentMood: d.CurrentMood,
	}
}

func (d taskDoc) toDomain(id string) domain.TaskRecord {
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = d.CreatedAt
	}
	return domain.TaskRecord{
		ID:          domain.TaskID(id),
		OwnerID:     domain.UserID(d.OwnerID),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Priority:    d.Priority,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updated,
	}
}

func (d journalDoc) toDomain(id string) domain.JournalRecord {
	return domain.JournalRecord{
		ID:        domain.JournalEntryID(id),
		OwnerID:   domain.UserID(d.OwnerID),
		Mood:      d.Mood,
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
	}
}

// ─────────────────────────────────────────
// UserStore implementation
// ─────────────────────────────────────────

func (s *Store) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetUser: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetUser decode: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// ─────────────────────────────────────────
// TaskStore implementation
// ─────────────────────────────────────────

func (s *Store) ListTasks(ctx context.Context, owner domain.UserID, q domain.TaskQuery) ([]domain.TaskRecord, error) {
	query := s.client.Collection(tasksCollection).Where("owner_id", "==", string(owner))
	if q.PendingOnly {
		query = query.Where("completed", "==", false)
	}
	if !q.CreatedSince.IsZero() {
		query = query.Where("created_at", ">=", q.CreatedSince)
	}
	query = query.OrderBy("created_at", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []domain.TaskRecord
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListTasks: %w", err)
		}

		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode taskDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) ListJournalEntries(ctx context.Context, owner domain.UserID, q domain.JournalQuery) ([]domain.JournalRecord, error) {
	query := s.client.Collection(journalCollection).Where("owner_id", "==", string(owner))
	if !q.CreatedSince.IsZero() {
		query = query.Where("created_at", ">=", q.CreatedSince)
	}
	query = query.OrderBy("created_at", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []domain.JournalRecord
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListJournalEntries: %w", err)
		}

		var doc journalDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode journalDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}
