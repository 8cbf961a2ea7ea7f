package receipt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/expenseflow/expense-approval/internal/domain/entity"
)

// parseDraft decodes the model's JSON reply into a Draft. Replies wrapped
// in markdown code fences are unwrapped first.
func parseDraft(content string) (*Draft, error) {
	content = stripCodeFence(content)

	var draft Draft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse extraction result: %w", err)
	}

	draft.Currency = strings.ToUpper(strings.TrimSpace(draft.Currency))
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Category = normalizeCategory(draft.Category)
	return &draft, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalizeCategory maps the model's answer onto a suggested category.
// Unrecognized answers fall back to "Other" so the draft is always usable.
func normalizeCategory(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Other"
	}
	for _, c := range entity.SuggestedCategories {
		if strings.EqualFold(c, raw) {
			return c
		}
	}
	lower := strings.ToLower(raw)
	for _, c := range entity.SuggestedCategories {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	return "Other"
}
