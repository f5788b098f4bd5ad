package services

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/equipmentchecklist/internal/models"
)

// MissingAnswer is the value recorded for a question the operator left unanswered.
const MissingAnswer = "N/A"

// ValidateIdentity checks that the four identity fields were captured by the initial
// form step. Empty values are accepted; only absent ones are rejected.
func ValidateIdentity(p models.IdentityPayload) (models.IdentityFields, error) {
	var missing []string
	take := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return *v
	}

	id := models.IdentityFields{
		AssetTag:       take("assetTag", p.AssetTag),
		OwnerName:      take("ownerName", p.OwnerName),
		Role:           take("role", p.Role),
		TechnicianName: take("technicianName", p.TechnicianName),
	}
	if len(missing) > 0 {
		return models.IdentityFields{}, fmt.Errorf("%w: missing %s", ErrIncompleteSession, strings.Join(missing, ", "))
	}
	return id, nil
}

// CollectAnswers builds the dense answer set 1..N for def. Questions without an
// answer get MissingAnswer and indices outside the checklist are dropped.
func CollectAnswers(def models.ChecklistDefinition, raw map[int]string) models.AnswerSet {
	answers := make(models.AnswerSet, len(def.Questions))
	for i := 1; i <= len(def.Questions); i++ {
		if v, ok := raw[i]; ok {
			answers[i] = v
			continue
		}
		answers[i] = MissingAnswer
	}
	return answers
}
