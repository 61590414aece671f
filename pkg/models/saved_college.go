package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedCollege is a user's bookmark of a candidate, snapshotted at save time.
// Unique per (user_id, college_id).
type SavedCollege struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	CollegeID         string    `json:"college_id"`
	Name              string    `json:"name"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	TuitionInState    float64   `json:"tuition_in_state"`
	TuitionOutOfState *float64  `json:"tuition_out_of_state,omitempty"`
	AdmissionRate     *float64  `json:"admission_rate,omitempty"`
	AvgSAT            *float64  `json:"avg_sat,omitempty"`
	AvgACT            *float64  `json:"avg_act,omitempty"`
	StudentSize       *int      `json:"student_size,omitempty"`
	URL               string    `json:"url,omitempty"`
	SavedAt           time.Time `json:"saved_at"`
}

// NewSavedCollege snapshots a candidate for the given user.
func NewSavedCollege(userID string, c Candidate) *SavedCollege {
	return &SavedCollege{
		UserID:            userID,
		CollegeID:         c.ID,
		Name:              c.Name,
		City:              c.City,
		State:             c.State,
		TuitionInState:    c.TuitionInState,
		TuitionOutOfState: c.TuitionOutOfState,
		AdmissionRate:     c.AdmissionRate,
		AvgSAT:            c.AvgSAT,
		AvgACT:            c.AvgACT,
		StudentSize:       c.StudentSize,
		URL:               c.URL,
	}
}
