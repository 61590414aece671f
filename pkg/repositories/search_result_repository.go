package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/database"
	"github.com/collegematch/collegematch-engine/pkg/models"
)

// SearchResultRepository defines the interface for search result data access.
// Results are append-only: there is no update or delete.
type SearchResultRepository interface {
	// Create inserts the whole result in a single statement.
	Create(ctx context.Context, result *models.SearchResult) error
	// GetByID returns the result if it belongs to userID, else apperrors.ErrNotFound.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error)
	// Latest returns the user's most recent result or apperrors.ErrNotFound.
	Latest(ctx context.Context, userID string) (*models.SearchResult, error)
	// List returns up to limit summaries, newest first.
	List(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error)
}

type searchResultRepository struct {
	db *database.DB
}

var _ SearchResultRepository = (*searchResultRepository)(nil)

// NewSearchResultRepository creates a new search result repository.
func NewSearchResultRepository(db *database.DB) SearchResultRepository {
	return &searchResultRepository{db: db}
}

const searchResultColumns = `id, user_id, profile_id, colleges, analysis, ranked_colleges,
	search_filters, ranking_status, ranking_error, created_at`

func (r *searchResultRepository) Create(ctx context.Context, result *models.SearchResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	result.CreatedAt = time.Now().UTC()

	candidates := result.Candidates
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	collegesJSON, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to marshal colleges: %w", err)
	}

	var rankedJSON []byte
	if result.RankedCandidates != nil {
		rankedJSON, err = json.Marshal(result.RankedCandidates)
		if err != nil {
			return fmt.Errorf("failed to marshal ranked colleges: %w", err)
		}
	}

	filtersJSON, err := json.Marshal(result.Filters)
	if err != nil {
		return fmt.Errorf("failed to marshal search filters: %w", err)
	}

	var rankingError *string
	if result.RankingError != "" {
		rankingError = &result.RankingError
	}

	query := `
		INSERT INTO search_results (` + searchResultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		result.ID,
		result.UserID,
		result.ProfileID,
		collegesJSON,
		result.Analysis,
		rankedJSON,
		filtersJSON,
		result.RankingStatus,
		rankingError,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create search result: %w", err)
	}
	return nil
}

func (r *searchResultRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error) {
	query := `SELECT ` + searchResultColumns + ` FROM search_results WHERE id = $1 AND user_id = $2`

	result, err := scanSearchResult(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get search result: %w", err)
	}
	return result, nil
}

func (r *searchResultRepository) Latest(ctx context.Context, userID string) (*models.SearchResult, error) {
	query := `
		SELECT ` + searchResultColumns + `
		FROM search_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	result, err := scanSearchResult(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest search result: %w", err)
	}
	return result, nil
}

func (r *searchResultRepository) List(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error) {
	query := `
		SELECT id, profile_id, jsonb_array_length(colleges), ranking_status, search_filters, created_at
		FROM search_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search results: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.SearchSummary, 0)
	for rows.Next() {
		var s models.SearchSummary
		var filtersJSON []byte
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.ResultCount, &s.RankingStatus, &filtersJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search summary: %w", err)
		}
		if err := json.Unmarshal(filtersJSON, &s.Filters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal search filters: %w", err)
		}
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return summaries, nil
}

func scanSearchResult(row pgx.Row) (*models.SearchResult, error) {
	var (
		result       models.SearchResult
		collegesJSON []byte
		rankedJSON   []byte
		filtersJSON  []byte
		rankingError *string
	)
	err := row.Scan(
		&result.ID,
		&result.UserID,
		&result.ProfileID,
		&collegesJSON,
		&result.Analysis,
		&rankedJSON,
		&filtersJSON,
		&result.RankingStatus,
		&rankingError,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(collegesJSON, &result.Candidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal colleges: %w", err)
	}
	if rankedJSON != nil {
		if err := json.Unmarshal(rankedJSON, &result.RankedCandidates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ranked colleges: %w", err)
		}
	}
	if err := json.Unmarshal(filtersJSON, &result.Filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search filters: %w", err)
	}
	if rankingError != nil {
		result.RankingError = *rankingError
	}
	return &result, nil
}
