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

// ProfileRepository defines the interface for student profile data access.
type ProfileRepository interface {
	// Upsert stores the user's profile, replacing any existing one in place.
	// The stored id and created_at of an existing profile are preserved.
	Upsert(ctx context.Context, profile *models.Profile) error
	// GetByUser returns the user's active profile or apperrors.ErrNotFound.
	GetByUser(ctx context.Context, userID string) (*models.Profile, error)
	// GetByID returns the profile with the given id if it belongs to userID.
	// A profile owned by someone else is reported as apperrors.ErrNotFound.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Profile, error)
}

type profileRepository struct {
	db *database.DB
}

var _ ProfileRepository = (*profileRepository)(nil)

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, user_id, budget, income, major, gpa, sat, act,
	location_preferences, extracurriculars, created_at, updated_at`

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	extracurriculars := profile.Extracurriculars
	if extracurriculars == nil {
		extracurriculars = []string{}
	}

	query := `
		INSERT INTO student_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (user_id) DO UPDATE
		SET budget = EXCLUDED.budget,
		    income = EXCLUDED.income,
		    major = EXCLUDED.major,
		    gpa = EXCLUDED.gpa,
		    sat = EXCLUDED.sat,
		    act = EXCLUDED.act,
		    location_preferences = EXCLUDED.location_preferences,
		    extracurriculars = EXCLUDED.extracurriculars,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Budget,
		profile.Income,
		profile.Major,
		profile.GPA,
		profile.TestScores.SAT,
		profile.TestScores.ACT,
		profile.LocationPreferences,
		extracurriculars,
		now,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	profile.Extracurriculars = extracurriculars
	return nil
}

func (r *profileRepository) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM student_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM student_profiles WHERE id = $1 AND user_id = $2`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Budget,
		&p.Income,
		&p.Major,
		&p.GPA,
		&p.TestScores.SAT,
		&p.TestScores.ACT,
		&p.LocationPreferences,
		&p.Extracurriculars,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
