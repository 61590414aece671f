package ranking

import (
	"fmt"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/models"
)

// Merge joins assignments with their candidates by id, in assignment order.
// An assignment whose id matches no candidate fails the whole merge.
func Merge(candidates []models.Candidate, assignments []models.RankAssignment) ([]models.RankedCandidate, error) {
	byID := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	ranked := make([]models.RankedCandidate, 0, len(assignments))
	for _, a := range assignments {
		c, ok := byID[a.CollegeID]
		if !ok {
			return nil, apperrors.New(apperrors.KindReferentialIntegrity,
				fmt.Errorf("rank %d references unknown college id %q", a.Rank, a.CollegeID))
		}
		ranked = append(ranked, models.RankedCandidate{
			Candidate:  c,
			Rank:       a.Rank,
			CostRating: a.CostRating,
			FitScore:   a.FitScore,
			Analysis:   a.Analysis,
		})
	}
	return ranked, nil
}
