package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/esplearn/pkg/models"
)

// ReviewHistoryRepository handles the append-only review log.
type ReviewHistoryRepository struct {
	db *DB
}

// NewReviewHistoryRepository creates a new repository instance.
func NewReviewHistoryRepository(db *DB) *ReviewHistoryRepository {
	return &ReviewHistoryRepository{db: db}
}

var _ ReviewHistoryStore = (*ReviewHistoryRepository)(nil)

// Append inserts one review record. Records are never updated or deleted.
func (r *ReviewHistoryRepository) Append(ctx context.Context, rec *models.ReviewRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO review_history (
			learner_id, word_id, quality, interval_days, mastery_tier, reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.LearnerID, rec.WordID, rec.Quality, rec.IntervalDays, rec.MasteryTier, rec.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to append review record: %w", err)
	}
	return nil
}

// Window aggregates review performance since the given time. Reviews with
// quality >= passQuality count as successes; the average score scales the
// mean quality onto 0-100.
func (r *ReviewHistoryRepository) Window(ctx context.Context, learnerID string, since time.Time, passQuality int) (models.PerformanceWindow, error) {
	var row struct {
		Total      int      `db:"total"`
		Successful int      `db:"successful"`
		AvgQuality *float64 `db:"avg_quality"`
	}
	// Placeholders are numbered in order of first occurrence: sqlite
	// assigns $N indices by position, so the argument order must match
	// the textual order for both drivers to bind the same way.
	err := r.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN quality >= $1 THEN 1 ELSE 0 END), 0) AS successful,
			AVG(quality) AS avg_quality
		FROM review_history
		WHERE learner_id = $2 AND reviewed_at >= $3
	`, passQuality, learnerID, since)
	if err != nil {
		return models.PerformanceWindow{}, fmt.Errorf("failed to aggregate review window: %w", err)
	}

	win := models.PerformanceWindow{
		TotalReviews:      row.Total,
		SuccessfulReviews: row.Successful,
	}
	if row.Total > 0 {
		rate := float64(row.Successful) / float64(row.Total)
		win.SuccessRate = rate
		win.CompletionRate = rate
		if row.AvgQuality != nil {
			win.AverageScore = *row.AvgQuality * 20 // 0-5 quality onto 0-100
		}
	}
	return win, nil
}

// ReviewTimes returns review timestamps, most recent first.
func (r *ReviewHistoryRepository) ReviewTimes(ctx context.Context, learnerID string, limit int) ([]time.Time, error) {
	var times []time.Time
	err := r.db.SelectContext(ctx, &times, `
		SELECT reviewed_at FROM review_history
		WHERE learner_id = $1
		ORDER BY reviewed_at DESC
		LIMIT $2
	`, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get review times: %w", err)
	}
	return times, nil
}

// ActiveLearners returns learners with at least one review since the given
// time.
func (r *ReviewHistoryRepository) ActiveLearners(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT learner_id FROM review_history
		WHERE reviewed_at >= $1
		ORDER BY learner_id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active learners: %w", err)
	}
	return ids, nil
}
