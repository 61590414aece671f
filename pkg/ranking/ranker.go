package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/jsonutil"
	"github.com/collegematch/collegematch-engine/pkg/llm"
	"github.com/collegematch/collegematch-engine/pkg/logging"
	"github.com/collegematch/collegematch-engine/pkg/metrics"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/prompts"
)

// Ranking is the validated output of one ranking call.
type Ranking struct {
	Analysis    string                  // raw model reply, kept as the analysis transcript
	Assignments []models.RankAssignment // sorted by rank ascending
}

// Ranker orders candidates for a profile.
type Ranker interface {
	Rank(ctx context.Context, profile *models.Profile, candidates []models.Candidate) (*Ranking, error)
}

// LLMRanker ranks candidates with a generative model.
type LLMRanker struct {
	gen    llm.Generator
	logger *zap.Logger
}

var _ Ranker = (*LLMRanker)(nil)

// NewLLMRanker creates a ranker over gen.
func NewLLMRanker(gen llm.Generator, logger *zap.Logger) *LLMRanker {
	return &LLMRanker{
		gen:    gen,
		logger: logger.Named("ranker"),
	}
}

type rawAssignment struct {
	ID         jsonutil.ID       `json:"id"`
	Rank       int               `json:"rank"`
	CostRating models.CostRating `json:"cost_rating"`
	FitScore   float64           `json:"fit_score"`
	Analysis   string            `json:"analysis"`
}

// Rank asks the model for a ranking and validates it against candidates.
// The whole result is rejected on any violation; nothing is coerced.
// Failures are *apperrors.Error with a ranking kind, except context expiry
// which is returned as-is.
func (r *LLMRanker) Rank(ctx context.Context, profile *models.Profile, candidates []models.Candidate) (*Ranking, error) {
	if len(candidates) == 0 {
		return &Ranking{}, nil
	}

	prompt, err := prompts.BuildCollegeRankingPrompt(profile, candidates)
	if err != nil {
		return nil, apperrors.New(apperrors.KindRankingUnknown, err)
	}

	start := time.Now()
	resp, err := r.gen.Generate(ctx, prompt)
	metrics.SearchDuration.WithLabelValues("rank").Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("rank colleges: %w", ctx.Err())
		}
		kind := kindForProviderError(err)
		metrics.RankingCalls.WithLabelValues(string(kind)).Inc()
		r.logger.Error("Ranking provider call failed",
			zap.String("kind", string(kind)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, apperrors.New(kind, err)
	}

	assignments, err := parseAssignments(resp.Text, candidates)
	if err != nil {
		kind := apperrors.KindOf(err)
		metrics.RankingCalls.WithLabelValues(string(kind)).Inc()
		r.logger.Warn("Ranking output rejected",
			zap.String("kind", string(kind)),
			zap.Error(err),
			zap.String("reply", logging.TruncateString(resp.Text, logging.MaxBodyLogLength)))
		return nil, err
	}

	metrics.RankingCalls.WithLabelValues("ok").Inc()
	r.logger.Info("Ranked colleges",
		zap.String("model", r.gen.Model()),
		zap.Int("candidates", len(candidates)),
		zap.Int("output_tokens", resp.OutputTokens))

	return &Ranking{Analysis: resp.Text, Assignments: assignments}, nil
}

// parseAssignments runs extraction, schema validation, referential checks and
// the permutation check, in that order.
func parseAssignments(text string, candidates []models.Candidate) ([]models.RankAssignment, error) {
	raw, err := llm.ExtractJSONArray(text)
	if err != nil {
		return nil, apperrors.New(apperrors.KindRankingMalformedResponse, err)
	}

	if err := validateAssignments(raw); err != nil {
		return nil, apperrors.New(apperrors.KindRankingMalformedResponse, err)
	}

	var parsed []rawAssignment
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, apperrors.New(apperrors.KindRankingMalformedResponse, fmt.Errorf("decode assignments: %w", err))
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	assignments := make([]models.RankAssignment, len(parsed))
	for i, p := range parsed {
		id := p.ID.String()
		if _, ok := known[id]; !ok {
			return nil, apperrors.New(apperrors.KindReferentialIntegrity,
				fmt.Errorf("assignment %d references unknown college id %q", i, id))
		}
		assignments[i] = models.RankAssignment{
			CollegeID:  id,
			Rank:       p.Rank,
			CostRating: p.CostRating,
			FitScore:   p.FitScore,
			Analysis:   p.Analysis,
		}
	}

	if err := checkPermutation(assignments, len(candidates)); err != nil {
		return nil, apperrors.New(apperrors.KindRankingMalformedResponse, err)
	}

	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Rank < assignments[j].Rank })
	return assignments, nil
}

// checkPermutation requires exactly one assignment per candidate with ranks 1..n.
func checkPermutation(assignments []models.RankAssignment, n int) error {
	if len(assignments) != n {
		return fmt.Errorf("expected %d assignments, got %d", n, len(assignments))
	}

	seenRank := make([]bool, n+1)
	seenID := make(map[string]struct{}, n)
	for _, a := range assignments {
		if a.Rank < 1 || a.Rank > n {
			return fmt.Errorf("rank %d out of range 1..%d", a.Rank, n)
		}
		if seenRank[a.Rank] {
			return fmt.Errorf("rank %d assigned more than once", a.Rank)
		}
		seenRank[a.Rank] = true

		if _, dup := seenID[a.CollegeID]; dup {
			return fmt.Errorf("college %q ranked more than once", a.CollegeID)
		}
		seenID[a.CollegeID] = struct{}{}
	}
	return nil
}

// kindForProviderError maps a provider failure onto the ranking error kinds.
func kindForProviderError(err error) apperrors.Kind {
	var llmErr *llm.Error
	if !errors.As(err, &llmErr) {
		return apperrors.KindRankingUnknown
	}
	switch llmErr.Type {
	case llm.ErrorTypeRateLimited:
		return apperrors.KindRankingRateLimited
	case llm.ErrorTypeAuth:
		return apperrors.KindRankingAuthFailed
	case llm.ErrorTypeBadRequest:
		return apperrors.KindRankingBadRequest
	case llm.ErrorTypeUnavailable:
		return apperrors.KindRankingUnavailable
	default:
		return apperrors.KindRankingUnknown
	}
}
