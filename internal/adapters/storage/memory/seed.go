package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

// DemoUserID owns every record created by Seed.
const DemoUserID domain.UserID = "demo-user"

type scenario struct {
	mood     domain.Mood
	moods    []domain.Mood
	tasks    []demoTask
	journals []string
}

type demoTask struct {
	title       string
	description string
	priority    domain.Priority
	completed   bool
}

var scenarios = map[string]scenario{
	"stressed_work": {
		mood:  domain.MoodSad,
		moods: []domain.Mood{domain.MoodSad, domain.MoodAwful, domain.MoodNeutral},
		tasks: []demoTask{
			{"Quarterly report", "Numbers still missing from finance, due Friday", domain.PriorityHigh, false},
			{"Client presentation", "Slides not started, meeting tomorrow at 10", domain.PriorityHigh, false},
			{"Salary review meeting", "Talk to my manager about the raise", domain.PriorityMedium, false},
			{"Answer backlog emails", "", domain.PriorityLow, true},
			{"Team retro notes", "", domain.PriorityLow, true},
		},
		journals: []string{
			"The presentation went badly, I feel the project will not ship on time.",
			"Argued with my manager today, motivation is gone.",
			"Stressed about tomorrow's meeting, the deck is not ready.",
		},
	},
	"stressed_school": {
		mood:  domain.MoodAwful,
		moods: []domain.Mood{domain.MoodAwful, domain.MoodSad, domain.MoodSad},
		tasks: []demoTask{
			{"Math final", "The integrals chapter is really hard", domain.PriorityHigh, false},
			{"Thesis draft", "Chapter 3 deadline next week", domain.PriorityHigh, false},
			{"Doctor appointment", "Check-up at 15:00", domain.PriorityMedium, false},
			{"Library books", "", domain.PriorityLow, true},
		},
		journals: []string{
			"Finals week is exhausting, three more exams to go.",
			"Failed the math midterm, feeling really down.",
			"Scared I will not finish the thesis in time.",
		},
	},
	"productive": {
		mood:  domain.MoodGreat,
		moods: []domain.Mood{domain.MoodGreat, domain.MoodHappy, domain.MoodHappy},
		tasks: []demoTask{
			{"Morning run", "5k around the park", domain.PriorityMedium, true},
			{"Grocery shopping", "Vegetables and coffee", domain.PriorityLow, true},
			{"Finish side project", "Deploy the landing page", domain.PriorityHigh, true},
			{"Read a chapter", "", domain.PriorityLow, false},
			{"Plan next week", "", domain.PriorityMedium, false},
		},
		journals: []string{
			"Great day, got a lot done.",
			"Found a good routine, full of energy.",
			"Finished a hard task, proud of myself.",
		},
	},
}

// Scenarios returns the names accepted by Seed.
func Scenarios() []string {
	return []string{"stressed_work", "stressed_school", "productive"}
}

// Seed fills the store with demo data for DemoUserID spread over the
// days before now. It replaces nothing; call it on a fresh store.
func Seed(s *Store, name string, now time.Time) error {
	sc, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown seed scenario %q", name)
	}

	s.PutUser(domain.User{
		ID:          DemoUserID,
		DisplayName: "demo",
		CurrentMood: string(sc.mood),
	})

	for i, t := range sc.tasks {
		created := now.Add(-time.Duration(i*7) * time.Hour)
		updated := created
		if t.completed {
			updated = created.Add(2 * time.Hour)
			if updated.After(now) {
				updated = now
			}
		}
		s.AddTask(domain.TaskRecord{
			ID:          domain.TaskID(uuid.NewString()),
			OwnerID:     DemoUserID,
			Title:       t.title,
			Description: t.description,
			Completed:   t.completed,
			Priority:    string(t.priority),
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
	}

	for i, body := range sc.journals {
		s.AddJournalEntry(domain.JournalRecord{
			ID:        domain.JournalEntryID(uuid.NewString()),
			OwnerID:   DemoUserID,
			Mood:      string(sc.moods[i%len(sc.moods)]),
			Body:      body,
			CreatedAt: now.Add(-time.Duration(i*10+1) * time.Hour),
		})
	}
	return nil
}
