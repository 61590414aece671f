package models

import (
	"time"

	"github.com/google/uuid"
)

// Ranking status values for a search result
const (
	RankingStatusRanked   = "ranked"   // ranker succeeded, RankedCandidates populated
	RankingStatusSkipped  = "skipped"  // no ranking provider configured
	RankingStatusDegraded = "degraded" // ranker failed, unranked result kept by policy
)

// SearchFilters are the catalog filters a search ran with.
type SearchFilters struct {
	Budget          float64  `json:"budget"`
	EffectiveBudget float64  `json:"effective_budget,omitempty"`
	States          []string `json:"states"`
	Major           string   `json:"major"`
}

// SearchResult is the immutable outcome of one search invocation.
// Stored in search_results.
type SearchResult struct {
	ID               uuid.UUID         `json:"id"`
	UserID           string            `json:"user_id"`
	ProfileID        uuid.UUID         `json:"profile_id"`
	Candidates       []Candidate       `json:"colleges"`
	Analysis         *string           `json:"analysis,omitempty"`
	RankedCandidates []RankedCandidate `json:"ranked_colleges,omitempty"`
	Filters          SearchFilters     `json:"search_filters"`
	RankingStatus    string            `json:"ranking_status"`
	RankingError     string            `json:"ranking_error,omitempty"` // error kind when degraded
	CreatedAt        time.Time         `json:"created_at"`
}

// SearchSummary is the lightweight projection used by history listings.
type SearchSummary struct {
	ID            uuid.UUID     `json:"id"`
	ProfileID     uuid.UUID     `json:"profile_id"`
	ResultCount   int           `json:"result_count"`
	RankingStatus string        `json:"ranking_status"`
	Filters       SearchFilters `json:"search_filters"`
	CreatedAt     time.Time     `json:"created_at"`
}
