package domain

import (
	"math"
	"time"
)

// StatsSummary is the fixed-shape analytics document served to chart clients.
// Build it with NewStatsSummary so every bucket exists before any counting.
type StatsSummary struct {
	TaskSummary       TaskSummary       `json:"taskSummary"`
	PriorityBreakdown PriorityBreakdown `json:"priorityBreakdown"`
	MoodHistory       MoodHistory       `json:"moodHistory"`
	WeeklyActivity    []WeekdayActivity `json:"weeklyActivity"`
}

type TaskSummary struct {
	Total                int `json:"total"`
	Completed            int `json:"completed"`
	Pending              int `json:"pending"`
	CompletionPercentage int `json:"completionPercentage"`
}

type PriorityBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type MoodHistory struct {
	Great   int `json:"great"`
	Happy   int `json:"happy"`
	Neutral int `json:"neutral"`
	Sad     int `json:"sad"`
	Awful   int `json:"awful"`
}

type WeekdayActivity struct {
	Day       string `json:"day"`
	Completed int    `json:"completed"`
}

// weekdayOrder is the display order of weeklyActivity, Monday first.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayLabel returns the short label used for a weeklyActivity bucket.
func WeekdayLabel(d time.Weekday) string {
	return d.String()[:3]
}

// NewStatsSummary returns the canonical empty summary: all counters zero and
// one weeklyActivity bucket per weekday.
func NewStatsSummary() StatsSummary {
	activity := make([]WeekdayActivity, 0, len(weekdayOrder))
	for _, d := range weekdayOrder {
		activity = append(activity, WeekdayActivity{Day: WeekdayLabel(d)})
	}
	return StatsSummary{WeeklyActivity: activity}
}

// SetTaskTotals fills the task summary and derives pending and percentage
// from total and completed.
func (s *StatsSummary) SetTaskTotals(total, completed int) {
	if total < 0 {
		total = 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}

	s.TaskSummary = TaskSummary{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
	if total > 0 {
		s.TaskSummary.CompletionPercentage = int(math.Round(100 * float64(completed) / float64(total)))
	}
}

// AddPriority counts one task; unknown labels are ignored.
func (s *StatsSummary) AddPriority(label string) bool {
	p, ok := ParsePriority(label)
	if !ok {
		return false
	}
	switch p {
	case PriorityHigh:
		s.PriorityBreakdown.High++
	case PriorityMedium:
		s.PriorityBreakdown.Medium++
	case PriorityLow:
		s.PriorityBreakdown.Low++
	}
	return true
}

// AddMood counts one journal entry; unknown labels are ignored.
func (s *StatsSummary) AddMood(label string) bool {
	m, ok := ParseMood(label)
	if !ok {
		return false
	}
	switch m {
	case MoodGreat:
		s.MoodHistory.Great++
	case MoodHappy:
		s.MoodHistory.Happy++
	case MoodNeutral:
		s.MoodHistory.Neutral++
	case MoodSad:
		s.MoodHistory.Sad++
	case MoodAwful:
		s.MoodHistory.Awful++
	}
	return true
}

// AddCompletion counts a completed task on the given weekday. A weekday with
// no bucket is dropped and reported as false.
func (s *StatsSummary) AddCompletion(d time.Weekday) bool {
	label := WeekdayLabel(d)
	for i := range s.WeeklyActivity {
		if s.WeeklyActivity[i].Day == label {
			s.WeeklyActivity[i].Completed++
			return true
		}
	}
	return false
}
