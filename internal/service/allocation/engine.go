package allocation

import (
	"github.com/gradapply/admission-service/internal/models"
)

// Split partitions ranked candidates at the program capacity. The first
// capacity candidates are accepted in rank order, the rest wait. capacity 0
// accepts nobody. The input must already be ranked; Split never reorders.
func Split(ranked []models.Candidate, capacity int) models.AllocationResult {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > len(ranked) {
		capacity = len(ranked)
	}

	result := models.AllocationResult{
		Accepted: make([]models.Candidate, capacity),
		Waiting:  make([]models.Candidate, len(ranked)-capacity),
	}
	copy(result.Accepted, ranked[:capacity])
	copy(result.Waiting, ranked[capacity:])

	return result
}

// RankOf returns the 1-based rank of the accepted candidate at index i.
func RankOf(i int) int {
	return i + 1
}
