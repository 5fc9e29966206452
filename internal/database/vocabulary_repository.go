package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/esplearn/pkg/models"
)

// VocabularyRepository handles database operations for vocabulary items.
type VocabularyRepository struct {
	db *DB
}

// NewVocabularyRepository creates a new repository instance.
func NewVocabularyRepository(db *DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

var _ VocabularyStore = (*VocabularyRepository)(nil)

// GetByLearnerAndLemma returns one learner's item for a lemma.
func (r *VocabularyRepository) GetByLearnerAndLemma(ctx context.Context, learnerID, lemma string) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	err := r.db.GetContext(ctx, &item,
		"SELECT * FROM vocabulary WHERE learner_id = $1 AND lemma = $2", learnerID, lemma)
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary item: %w", err)
	}
	return &item, nil
}

// GetDue returns items due at asOf, oldest-due first with id as the
// tie-break so paging stays stable.
func (r *VocabularyRepository) GetDue(ctx context.Context, learnerID string, asOf time.Time, limit int) ([]models.VocabularyItem, error) {
	var items []models.VocabularyItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM vocabulary
		WHERE learner_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC, id ASC
		LIMIT $3
	`, learnerID, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	return items, nil
}

// Create inserts a new vocabulary item and fills in its id.
func (r *VocabularyRepository) Create(ctx context.Context, item *models.VocabularyItem) error {
	if r.db.driver == "postgres" {
		return r.db.QueryRowContext(ctx, `
			INSERT INTO vocabulary (
				learner_id, lemma, translation, context, source_type, source_ref,
				ease_factor, interval_days, repetitions, mastery_tier,
				next_review_at, last_reviewed_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id
		`,
			item.LearnerID, item.Lemma, item.Translation, item.Context,
			item.SourceType, item.SourceRef, item.EaseFactor, item.IntervalDays,
			item.Repetitions, item.MasteryTier, item.NextReviewAt,
			item.LastReviewedAt, item.CreatedAt, item.UpdatedAt,
		).Scan(&item.ID)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO vocabulary (
			learner_id, lemma, translation, context, source_type, source_ref,
			ease_factor, interval_days, repetitions, mastery_tier,
			next_review_at, last_reviewed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		item.LearnerID, item.Lemma, item.Translation, item.Context,
		item.SourceType, item.SourceRef, item.EaseFactor, item.IntervalDays,
		item.Repetitions, item.MasteryTier, item.NextReviewAt,
		item.LastReviewedAt, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	item.ID = id
	return nil
}

// Update replaces the mutable fields of an existing item.
func (r *VocabularyRepository) Update(ctx context.Context, item *models.VocabularyItem) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE vocabulary SET
			translation = $1,
			context = $2,
			source_type = $3,
			source_ref = $4,
			ease_factor = $5,
			interval_days = $6,
			repetitions = $7,
			mastery_tier = $8,
			next_review_at = $9,
			last_reviewed_at = $10,
			updated_at = $11
		WHERE id = $12
	`,
		item.Translation, item.Context, item.SourceType, item.SourceRef,
		item.EaseFactor, item.IntervalDays, item.Repetitions, item.MasteryTier,
		item.NextReviewAt, item.LastReviewedAt, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vocabulary item: %w", err)
	}
	return nil
}

// Delete hard-deletes an item. Returns sql.ErrNoRows when nothing matched.
func (r *VocabularyRepository) Delete(ctx context.Context, learnerID, lemma string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM vocabulary WHERE learner_id = $1 AND lemma = $2", learnerID, lemma)
	if err != nil {
		return fmt.Errorf("failed to delete vocabulary item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("vocabulary item %q: %w", lemma, sql.ErrNoRows)
	}
	return nil
}

// TierCounts returns the number of items per mastery tier.
func (r *VocabularyRepository) TierCounts(ctx context.Context, learnerID string) (map[models.MasteryTier]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mastery_tier, COUNT(*) FROM vocabulary
		WHERE learner_id = $1
		GROUP BY mastery_tier
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiers: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MasteryTier]int)
	for rows.Next() {
		var tier models.MasteryTier
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tier count: %w", err)
		}
		counts[tier] = n
	}
	return counts, rows.Err()
}

// CountDue returns how many items are due at asOf.
func (r *VocabularyRepository) CountDue(ctx context.Context, learnerID string, asOf time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM vocabulary WHERE learner_id = $1 AND next_review_at <= $2",
		learnerID, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", err)
	}
	return n, nil
}

// CountReviewedSince returns how many items were last reviewed at or after
// the given time.
func (r *VocabularyRepository) CountReviewedSince(ctx context.Context, learnerID string, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM vocabulary WHERE learner_id = $1 AND last_reviewed_at >= $2",
		learnerID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviewed items: %w", err)
	}
	return n, nil
}

// NextReviewTimes returns every item's next review timestamp.
func (r *VocabularyRepository) NextReviewTimes(ctx context.Context, learnerID string) ([]time.Time, error) {
	var times []time.Time
	err := r.db.SelectContext(ctx, &times,
		"SELECT next_review_at FROM vocabulary WHERE learner_id = $1", learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review times: %w", err)
	}
	return times, nil
}
