package catalog

import (
	"strings"

	"github.com/collegematch/collegematch-engine/pkg/jsonutil"
	"github.com/collegematch/collegematch-engine/pkg/models"
)

type scorecardResponse struct {
	Metadata struct {
		Total   int `json:"total"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
	} `json:"metadata"`
	Results []scorecardRecord `json:"results"`
}

type scorecardRecord struct {
	ID                jsonutil.ID `json:"id"`
	Name              *string     `json:"school.name"`
	City              *string     `json:"school.city"`
	State             *string     `json:"school.state"`
	URL               *string     `json:"school.school_url"`
	TuitionInState    *float64    `json:"latest.cost.tuition.in_state"`
	TuitionOutOfState *float64    `json:"latest.cost.tuition.out_of_state"`
	AdmissionRate     *float64    `json:"latest.admissions.admission_rate.overall"`
	AvgSAT            *float64    `json:"latest.admissions.sat_scores.average.overall"`
	AvgACT            *float64    `json:"latest.admissions.act_scores.midpoint.cumulative"`
	StudentSize       *float64    `json:"latest.student.size"`
}

// normalize converts raw records into candidates, preserving upstream order.
// Records without an id, a name or an in-state tuition are dropped.
func normalize(records []scorecardRecord) (candidates []models.Candidate, dropped int) {
	candidates = make([]models.Candidate, 0, len(records))
	for _, r := range records {
		name := deref(r.Name)
		if r.ID == "" || name == "" || r.TuitionInState == nil {
			dropped++
			continue
		}

		c := models.Candidate{
			ID:                r.ID.String(),
			Name:              name,
			City:              deref(r.City),
			State:             deref(r.State),
			TuitionInState:    *r.TuitionInState,
			TuitionOutOfState: r.TuitionOutOfState,
			AdmissionRate:     r.AdmissionRate,
			AvgSAT:            r.AvgSAT,
			AvgACT:            r.AvgACT,
			URL:               deref(r.URL),
		}
		if r.StudentSize != nil {
			size := int(*r.StudentSize)
			c.StudentSize = &size
		}
		candidates = append(candidates, c)
	}
	return candidates, dropped
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
