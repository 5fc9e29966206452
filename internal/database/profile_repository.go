package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/esplearn/pkg/models"
)

// ProfileRepository handles learner profiles and the level-change audit log.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new repository instance.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ ProfileStore = (*ProfileRepository)(nil)

// GetOrCreate returns the learner's profile, creating a default one for
// learners seen for the first time.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, learnerID string) (*models.LearnerProfile, error) {
	var profile models.LearnerProfile
	err := r.db.GetContext(ctx, &profile,
		"SELECT * FROM learner_profiles WHERE learner_id = $1", learnerID)
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get learner profile: %w", err)
	}

	now := time.Now().UTC()
	profile = models.LearnerProfile{
		LearnerID: learnerID,
		Level:     models.DefaultLevel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO learner_profiles (
			learner_id, proficiency_level, total_points, level_points, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, profile.LearnerID, profile.Level, profile.TotalPoints, profile.LevelPoints,
		profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create learner profile: %w", err)
	}
	return &profile, nil
}

// Update persists the profile's level and point counters.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.LearnerProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE learner_profiles SET
			proficiency_level = $1,
			total_points = $2,
			level_points = $3,
			updated_at = $4
		WHERE learner_id = $5
	`, profile.Level, profile.TotalPoints, profile.LevelPoints, profile.UpdatedAt, profile.LearnerID)
	if err != nil {
		return fmt.Errorf("failed to update learner profile: %w", err)
	}
	return nil
}

// TrackLevelChange appends one audit entry for a level transition.
func (r *ProfileRepository) TrackLevelChange(ctx context.Context, change *models.LevelChange) error {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO level_changes (
			learner_id, old_level, new_level, change_type, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`, change.LearnerID, change.OldLevel, change.NewLevel, change.ChangeType, change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to track level change: %w", err)
	}
	return nil
}
