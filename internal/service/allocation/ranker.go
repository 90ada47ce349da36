// Package allocation holds the pure ranking and capacity-split logic of the
// admissions engine. Nothing in this package touches storage; callers feed it
// candidates and persist the outcome themselves.
package allocation

import (
	"sort"

	"github.com/gradapply/admission-service/internal/models"
)

// Rank orders candidates for one program: total score descending, then
// education score descending, then choice priority ascending (a first-choice
// candidate outranks a third-choice one at equal scores). Remaining ties fall
// back to choice creation time and finally choice id, which makes the order a
// strict total order and re-runs reproducible.
func Rank(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.Slice(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j])
	})

	return ranked
}

func Less(a, b models.Candidate) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.EducationScore != b.EducationScore {
		return a.EducationScore > b.EducationScore
	}
	if a.ChoicePriority != b.ChoicePriority {
		return a.ChoicePriority < b.ChoicePriority
	}
	if !a.ChoiceCreatedAt.Equal(b.ChoiceCreatedAt) {
		return a.ChoiceCreatedAt.Before(b.ChoiceCreatedAt)
	}
	return a.ChoiceID < b.ChoiceID
}
