package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/database"
	"github.com/collegematch/collegematch-engine/pkg/models"
)

// SavedCollegeRepository defines the interface for saved college data access.
type SavedCollegeRepository interface {
	// Save stores the bookmark. Saving an already saved college is a no-op
	// that returns the existing record; created reports which case happened.
	Save(ctx context.Context, college *models.SavedCollege) (saved *models.SavedCollege, created bool, err error)
	// Delete removes the bookmark or returns apperrors.ErrNotFound.
	Delete(ctx context.Context, userID, collegeID string) error
	// List returns the user's bookmarks, most recently saved first.
	List(ctx context.Context, userID string) ([]*models.SavedCollege, error)
	// Exists reports whether the user has saved the college.
	Exists(ctx context.Context, userID, collegeID string) (bool, error)
}

type savedCollegeRepository struct {
	db *database.DB
}

var _ SavedCollegeRepository = (*savedCollegeRepository)(nil)

// NewSavedCollegeRepository creates a new saved college repository.
func NewSavedCollegeRepository(db *database.DB) SavedCollegeRepository {
	return &savedCollegeRepository{db: db}
}

const savedCollegeColumns = `id, user_id, college_id, name, city, state, tuition_in_state,
	tuition_out_of_state, admission_rate, avg_sat, avg_act, student_size, url, saved_at`

func (r *savedCollegeRepository) Save(ctx context.Context, college *models.SavedCollege) (*models.SavedCollege, bool, error) {
	if college.ID == uuid.Nil {
		college.ID = uuid.New()
	}
	college.SavedAt = time.Now().UTC()

	insert := `
		INSERT INTO saved_colleges (` + savedCollegeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, college_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, insert,
		college.ID,
		college.UserID,
		college.CollegeID,
		college.Name,
		college.City,
		college.State,
		college.TuitionInState,
		college.TuitionOutOfState,
		college.AdmissionRate,
		college.AvgSAT,
		college.AvgACT,
		college.StudentSize,
		college.URL,
		college.SavedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save college: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return college, true, nil
	}

	query := `SELECT ` + savedCollegeColumns + ` FROM saved_colleges WHERE user_id = $1 AND college_id = $2`
	existing, err := scanSavedCollege(r.db.QueryRow(ctx, query, college.UserID, college.CollegeID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing saved college: %w", err)
	}
	return existing, false, nil
}

func (r *savedCollegeRepository) Delete(ctx context.Context, userID, collegeID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM saved_colleges WHERE user_id = $1 AND college_id = $2`,
		userID, collegeID)
	if err != nil {
		return fmt.Errorf("failed to delete saved college: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *savedCollegeRepository) List(ctx context.Context, userID string) ([]*models.SavedCollege, error) {
	query := `
		SELECT ` + savedCollegeColumns + `
		FROM saved_colleges
		WHERE user_id = $1
		ORDER BY saved_at DESC, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved colleges: %w", err)
	}
	defer rows.Close()

	colleges := make([]*models.SavedCollege, 0)
	for rows.Next() {
		c, err := scanSavedCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved college: %w", err)
		}
		colleges = append(colleges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved colleges: %w", err)
	}
	return colleges, nil
}

func (r *savedCollegeRepository) Exists(ctx context.Context, userID, collegeID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM saved_colleges
			WHERE user_id = $1 AND college_id = $2
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, collegeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check saved college: %w", err)
	}
	return exists, nil
}

func scanSavedCollege(row pgx.Row) (*models.SavedCollege, error) {
	var c models.SavedCollege
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CollegeID,
		&c.Name,
		&c.City,
		&c.State,
		&c.TuitionInState,
		&c.TuitionOutOfState,
		&c.AdmissionRate,
		&c.AvgSAT,
		&c.AvgACT,
		&c.StudentSize,
		&c.URL,
		&c.SavedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
