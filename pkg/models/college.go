package models

// Candidate is a normalized institution record returned by the catalog.
// Optional upstream values stay nil rather than zero.
type Candidate struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	TuitionInState    float64  `json:"tuition_in_state"`
	TuitionOutOfState *float64 `json:"tuition_out_of_state,omitempty"`
	AdmissionRate     *float64 `json:"admission_rate,omitempty"`
	AvgSAT            *float64 `json:"avg_sat,omitempty"`
	AvgACT            *float64 `json:"avg_act,omitempty"`
	StudentSize       *int     `json:"student_size,omitempty"`
	URL               string   `json:"url,omitempty"`
}

// CostRating is the affordability bucket relative to the stated budget.
type CostRating string

const (
	CostRatingExcellent CostRating = "Excellent" // under 50% of budget
	CostRatingGood      CostRating = "Good"      // 50-75% of budget
	CostRatingFair      CostRating = "Fair"      // 75-100% of budget
)

// Valid reports whether r is one of the known ratings.
func (r CostRating) Valid() bool {
	switch r {
	case CostRatingExcellent, CostRatingGood, CostRatingFair:
		return true
	}
	return false
}

// RankAssignment is the ranker's verdict for one candidate.
type RankAssignment struct {
	CollegeID  string     `json:"id"`
	Rank       int        `json:"rank"`
	CostRating CostRating `json:"cost_rating"`
	FitScore   float64    `json:"fit_score"`
	Analysis   string     `json:"analysis"`
}

// RankedCandidate is a Candidate joined with its RankAssignment.
type RankedCandidate struct {
	Candidate
	Rank       int        `json:"rank"`
	CostRating CostRating `json:"cost_rating"`
	FitScore   float64    `json:"fit_score"`
	Analysis   string     `json:"analysis"`
}
