package analysis

import (
	"github.com/myrjola/casefile/internal/models"
	"strings"
)

var (
	criticalPhrases = []string{
		"immediate", "urgent", "mandatory", "within 24 hours", "critical", "failure to comply", "required by law",
	}
	highPhrases = []string{"important", "high priority", "significant", "essential", "within 72 hours"}
)

// InferPriority ranks a compliance alert by the phrases in its title and description. Critical phrases win over
// high ones and everything else is medium.
func InferPriority(title, description string) models.AlertPriority {
	text := strings.ToLower(title + " " + description)
	switch {
	case containsAny(text, criticalPhrases):
		return models.AlertPriorityCritical
	case containsAny(text, highPhrases):
		return models.AlertPriorityHigh
	default:
		return models.AlertPriorityMedium
	}
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
