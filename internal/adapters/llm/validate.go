package llm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

type envelope struct {
	Suggestions []suggestionDoc `json:"suggestions" validate:"required,min=1,dive"`
}

type suggestionDoc struct {
	ID             string `json:"id" validate:"required"`
	Title          string `json:"title" validate:"required"`
	Recommendation string `json:"recommendation" validate:"required"`
	Category       string `json:"category" validate:"required,oneof=productivity activity wellness media"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseSuggestions decodes and validates the model's JSON answer. It returns
// either the full list or a validation error carrying raw; never a partial list.
func ParseSuggestions(raw string) ([]domain.Suggestion, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, domain.NewValidationError("empty response", raw)
	}

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("decoding suggestions: %v", err), raw)
	}

	for i := range env.Suggestions {
		s := &env.Suggestions[i]
		s.ID = strings.TrimSpace(s.ID)
		s.Title = strings.TrimSpace(s.Title)
		s.Recommendation = strings.TrimSpace(s.Recommendation)
		s.Category = strings.ToLower(strings.TrimSpace(s.Category))
	}

	if err := validate.Struct(env); err != nil {
		return nil, domain.NewValidationError(describe(err), raw)
	}

	out := make([]domain.Suggestion, 0, len(env.Suggestions))
	for _, s := range env.Suggestions {
		out = append(out, domain.Suggestion{
			ID:             s.ID,
			Title:          s.Title,
			Recommendation: s.Recommendation,
			Category:       domain.Category(s.Category),
		})
	}
	return out, nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "envelope.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
