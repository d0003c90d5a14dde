package firestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

func TestTaskDocToDomain(t *testing.T) {
	created := time.Date(2025, 11, 18, 9, 0, 0, 0, time.UTC)

	got := taskDoc{
		OwnerID:   "u1",
		Title:     "Report",
		Priority:  "high",
		Completed: true,
		CreatedAt: created,
	}.toDomain("t1")

	assert.Equal(t, domain.TaskRecord{
		ID:        "t1",
		OwnerID:   "u1",
		Title:     "Report",
		Priority:  "high",
		Completed: true,
		CreatedAt: created,
		UpdatedAt: created,
	}, got)
}

func TestJournalAndUserDocToDomain(t *testing.T) {
	created := time.Date(2025, 11, 18, 9, 0, 0, 0, time.UTC)

	j := journalDoc{OwnerID: "u1", Mood: "sad", Body: "long day", CreatedAt: created}.toDomain("j1")
	assert.Equal(t, domain.JournalEntryID("j1"), j.ID)
	assert.Equal(t, "long day", j.Body)

	u := userDoc{DisplayName: "ada", CurrentMood: "happy"}.toDomain("u1")
	assert.Equal(t, &domain.User{ID: "u1", DisplayName: "ada", CurrentMood: "happy"}, u)
}
