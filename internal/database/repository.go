package database

import (
	"context"
	"time"

	"github.com/example/esplearn/pkg/models"
)

// VocabularyStore is the persistence contract for vocabulary items.
// Not-found conditions surface as sql.ErrNoRows (wrapped).
type VocabularyStore interface {
	GetByLearnerAndLemma(ctx context.Context, learnerID, lemma string) (*models.VocabularyItem, error)
	// GetDue returns items with next_review_at <= asOf, oldest-due first,
	// ties broken by id, capped at limit.
	GetDue(ctx context.Context, learnerID string, asOf time.Time, limit int) ([]models.VocabularyItem, error)
	Create(ctx context.Context, item *models.VocabularyItem) error
	Update(ctx context.Context, item *models.VocabularyItem) error
	// Delete hard-deletes the item; sql.ErrNoRows if it doesn't exist.
	Delete(ctx context.Context, learnerID, lemma string) error
	TierCounts(ctx context.Context, learnerID string) (map[models.MasteryTier]int, error)
	CountDue(ctx context.Context, learnerID string, asOf time.Time) (int, error)
	CountReviewedSince(ctx context.Context, learnerID string, since time.Time) (int, error)
	// NextReviewTimes returns every item's next_review_at, for forecasting.
	NextReviewTimes(ctx context.Context, learnerID string) ([]time.Time, error)
}

// ReviewHistoryStore is the append-only review log. Records are never
// updated or deleted.
type ReviewHistoryStore interface {
	Append(ctx context.Context, rec *models.ReviewRecord) error
	// Window aggregates reviews since the given time; passQuality is the
	// minimum quality counted as a success.
	Window(ctx context.Context, learnerID string, since time.Time, passQuality int) (models.PerformanceWindow, error)
	// ReviewTimes returns review timestamps, most recent first.
	ReviewTimes(ctx context.Context, learnerID string, limit int) ([]time.Time, error)
	// ActiveLearners returns the learners with at least one review since
	// the given time.
	ActiveLearners(ctx context.Context, since time.Time) ([]string, error)
}

// ProfileStore is the persistence contract for learner profiles and the
// level-change audit log.
type ProfileStore interface {
	// GetOrCreate returns the profile, creating a default one (A2, zero
	// points) for learners seen for the first time.
	GetOrCreate(ctx context.Context, learnerID string) (*models.LearnerProfile, error)
	Update(ctx context.Context, profile *models.LearnerProfile) error
	TrackLevelChange(ctx context.Context, change *models.LevelChange) error
}
