package domain

// TaskRecord is owned by the record store. The insights pipeline only reads it.
type TaskRecord struct {
	ID          TaskID
	OwnerID     UserID
	Title       string
	Description string
	Completed   bool

	// Priority is kept as the raw stored label; use ParsePriority to interpret it.
	Priority string

	CreatedAt Timestamp
	UpdatedAt Timestamp
}

// JournalRecord is a mood check-in with an optional free-text body.
type JournalRecord struct {
	ID      JournalEntryID
	OwnerID UserID

	// Mood is the raw stored label; use ParseMood to interpret it.
	Mood string
	Body string

	CreatedAt Timestamp
}
