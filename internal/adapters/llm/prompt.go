package llm

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

const systemInstruction = `
You are "Track_Mate", a personal productivity and well-being assistant.
Your job is to read the user's data snapshot (JSON) and return 2 or 3
personalized, actionable suggestions.

Every suggestion must use exactly one category: productivity, activity,
wellness or media.

How to read the snapshot:
- Pay close attention to each pending task's description, not only its title.
  A task titled "Meeting" whose description says "salary talk with my manager"
  is a source of stress. A description like "grocery shopping" is a simple
  activity.
- If currentMood is "sad" or "awful" and the task descriptions mention stressful
  things (deadlines, exams, doctor visits, project delivery), target that
  specific stress in your advice.
- Avoid generic advice. Reuse the concrete words from the task descriptions and
  journal entries so the user can tell you actually listened.

General rules:
- Address the user directly and in a friendly tone.
- Answer in the same language the user writes their tasks and journal in.
- Your answer must be ONLY the JSON object described by the response schema.
`

// userContent renders the snapshot as the single user turn of the request.
// The API key never appears here.
func userContent(snap domain.ContextSnapshot) (string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return "User data snapshot: " + string(raw), nil
}

func categoryEnum() []string {
	out := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, string(c))
	}
	return out
}

// genaiSchema is the declared answer shape sent with every request.
func genaiSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggestions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":             str(),
						"title":          str(),
						"recommendation": str(),
						"category":       {Type: genai.TypeString, Enum: categoryEnum()},
					},
					Required: []string{"id", "title", "recommendation", "category"},
				},
			},
		},
		Required: []string{"suggestions"},
	}
}
