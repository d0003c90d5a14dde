package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

// MockGateway answers from the snapshot alone, for local mode and demos.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) RequestAdvice(ctx context.Context, snap domain.ContextSnapshot) ([]domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.Suggestion
	add := func(title, rec string, c domain.Category) {
		out = append(out, domain.Suggestion{
			ID:             fmt.Sprintf("mock-%d", len(out)+1),
			Title:          title,
			Recommendation: rec,
			Category:       c,
		})
	}

	mood, _ := domain.ParseMood(snap.CurrentMood)
	low := mood == domain.MoodSad || mood == domain.MoodAwful

	var urgent *domain.SnapshotTask
	for i := range snap.PendingTasks {
		if p, ok := domain.ParsePriority(snap.PendingTasks[i].Priority); ok && p == domain.PriorityHigh {
			urgent = &snap.PendingTasks[i]
			break
		}
	}

	switch {
	case low && urgent != nil:
		add("Take a short break",
			fmt.Sprintf("%q seems to weigh on you. Step away for 15 minutes before you go back to it.", urgent.Title),
			domain.CategoryWellness)
	case low:
		add("Go for a walk", "A 20 minute walk outside usually lifts the mood a little.", domain.CategoryActivity)
	case urgent != nil:
		add("Start with the hard one",
			fmt.Sprintf("Block 45 minutes for %q while your energy is high.", urgent.Title),
			domain.CategoryProductivity)
	}

	if len(snap.PendingTasks) > 0 {
		add("Plan the rest", fmt.Sprintf("You have %d open tasks. Pick the next two and park the others.", len(snap.PendingTasks)),
			domain.CategoryProductivity)
	}
	add("Unwind tonight", "Put on an album you like and keep your phone in another room.", domain.CategoryMedia)

	return out, nil
}
