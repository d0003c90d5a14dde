package domain

import (
	"strings"
	"time"
)

type UserID string
type TaskID string
type JournalEntryID string

type Timestamp = time.Time

// Priority is the importance label stored on a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes a stored label. Labels outside the known set
// (legacy or free-form values) report ok=false.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

// Mood is the 5-point scale used by journal entries and the user profile.
type Mood string

const (
	MoodAwful   Mood = "awful"
	MoodSad     Mood = "sad"
	MoodNeutral Mood = "neutral"
	MoodHappy   Mood = "happy"
	MoodGreat   Mood = "great"
)

// Moods lists the scale from worst to best.
var Moods = []Mood{MoodAwful, MoodSad, MoodNeutral, MoodHappy, MoodGreat}

func ParseMood(s string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Moods {
		if m == known {
			return known, true
		}
	}
	return "", false
}

// User is the owner profile as far as the insights pipeline needs it.
type User struct {
	ID          UserID
	DisplayName string
	CurrentMood string
}
