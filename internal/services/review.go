// Package services provides the caller-facing operations of the learning
// core, wiring the scheduling and level algorithms to their persistence
// collaborators.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/example/esplearn/internal/database"
	"github.com/example/esplearn/internal/srs"
	"github.com/example/esplearn/pkg/models"
)

// DefaultDueLimit caps a due-words query when the caller doesn't specify
// a limit.
const DefaultDueLimit = 20

// ReviewService provides the vocabulary review operations.
type ReviewService struct {
	vocab     database.VocabularyStore
	history   database.ReviewHistoryStore
	scheduler *srs.Scheduler
	now       func() time.Time
}

// NewReviewService creates a review service over the given stores.
func NewReviewService(vocab database.VocabularyStore, history database.ReviewHistoryStore) *ReviewService {
	return &ReviewService{
		vocab:     vocab,
		history:   history,
		scheduler: srs.NewScheduler(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SaveWordRequest carries the fields for saving a word to a learner's
// vocabulary.
type SaveWordRequest struct {
	Lemma       string `json:"lemma"`
	Translation string `json:"translation"`
	Context     string `json:"context"`
	SourceType  string `json:"source_type"`
	SourceRef   string `json:"source_ref"`
}

// SaveWord adds a word to the learner's vocabulary. Saving an existing
// lemma is idempotent: the existing item is returned and created is false.
// New items start at the new tier, due immediately.
func (s *ReviewService) SaveWord(ctx context.Context, learnerID string, req SaveWordRequest) (*models.VocabularyItem, bool, error) {
	lemma := NormalizeLemma(req.Lemma)
	if lemma == "" {
		return nil, false, ErrEmptyLemma
	}

	existing, err := s.vocab.GetByLearnerAndLemma(ctx, learnerID, lemma)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	now := s.now()
	item := &models.VocabularyItem{
		LearnerID:    learnerID,
		Lemma:        lemma,
		Translation:  strings.TrimSpace(req.Translation),
		Context:      strings.TrimSpace(req.Context),
		SourceType:   req.SourceType,
		SourceRef:    req.SourceRef,
		EaseFactor:   s.scheduler.DefaultEaseFactor,
		IntervalDays: 0,
		Repetitions:  0,
		MasteryTier:  models.TierNew,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.vocab.Create(ctx, item); err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// ReviewWord applies a quality signal to the learner's item and persists
// the new schedule. Either the full update succeeds or the item's prior
// schedule is preserved unchanged.
func (s *ReviewService) ReviewWord(ctx context.Context, learnerID, lemma string, quality srs.Quality) (*models.VocabularyItem, error) {
	item, err := s.getOwned(ctx, learnerID, lemma)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upd, err := s.scheduler.Schedule(item, quality, now)
	if err != nil {
		return nil, err
	}

	item.EaseFactor = upd.EaseFactor
	item.IntervalDays = upd.IntervalDays
	item.Repetitions = upd.Repetitions
	item.MasteryTier = upd.MasteryTier
	item.NextReviewAt = upd.NextReviewAt
	item.LastReviewedAt = upd.LastReviewedAt
	item.UpdatedAt = now

	if err := s.vocab.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist review: %w", err)
	}

	// History is best-effort analytics input; a failed append must not
	// fail a review that already persisted.
	rec := &models.ReviewRecord{
		LearnerID:    learnerID,
		WordID:       item.ID,
		Quality:      int(quality),
		IntervalDays: upd.IntervalDays,
		MasteryTier:  upd.MasteryTier,
		ReviewedAt:   now,
	}
	if err := s.history.Append(ctx, rec); err != nil {
		log.Printf("failed to append review history for %s/%s: %v", learnerID, lemma, err)
	}

	return item, nil
}

// GetDueWords returns the learner's due items, oldest-due first.
func (s *ReviewService) GetDueWords(ctx context.Context, learnerID string, limit int) ([]models.VocabularyItem, error) {
	if limit <= 0 {
		limit = DefaultDueLimit
	}
	return s.vocab.GetDue(ctx, learnerID, s.now(), limit)
}

// ResetWord forces an item back to the learning tier so the learner can
// re-drill it. The ease factor and review history are untouched.
func (s *ReviewService) ResetWord(ctx context.Context, learnerID, lemma string) (*models.VocabularyItem, error) {
	item, err := s.getOwned(ctx, learnerID, lemma)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upd := s.scheduler.Reset(item, now)
	item.EaseFactor = upd.EaseFactor
	item.IntervalDays = upd.IntervalDays
	item.Repetitions = upd.Repetitions
	item.MasteryTier = upd.MasteryTier
	item.NextReviewAt = upd.NextReviewAt
	item.UpdatedAt = now

	if err := s.vocab.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist reset: %w", err)
	}
	return item, nil
}

// DeleteWord hard-deletes an item from the learner's vocabulary.
func (s *ReviewService) DeleteWord(ctx context.Context, learnerID, lemma string) error {
	lemma = NormalizeLemma(lemma)
	if lemma == "" {
		return ErrEmptyLemma
	}
	err := s.vocab.Delete(ctx, learnerID, lemma)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// MasteryStats summarizes the learner's vocabulary by tier.
func (s *ReviewService) MasteryStats(ctx context.Context, learnerID string) (*models.MasteryStats, error) {
	counts, err := s.vocab.TierCounts(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &models.MasteryStats{
		New:      counts[models.TierNew],
		Learning: counts[models.TierLearning],
		Young:    counts[models.TierYoung],
		Mature:   counts[models.TierMature],
		Mastered: counts[models.TierMastered],
	}
	stats.Total = stats.New + stats.Learning + stats.Young + stats.Mature + stats.Mastered

	if stats.DueToday, err = s.vocab.CountDue(ctx, learnerID, now); err != nil {
		return nil, err
	}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.ReviewedToday, err = s.vocab.CountReviewedSince(ctx, learnerID, startOfDay); err != nil {
		return nil, err
	}
	return stats, nil
}

// Forecast buckets the learner's upcoming reviews into today, tomorrow,
// this week and later.
func (s *ReviewService) Forecast(ctx context.Context, learnerID string) (*models.ReviewForecast, error) {
	times, err := s.vocab.NextReviewTimes(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := startOfDay.Add(24 * time.Hour)
	dayAfter := tomorrow.Add(24 * time.Hour)
	weekEnd := startOfDay.Add(7 * 24 * time.Hour)

	forecast := &models.ReviewForecast{}
	for _, t := range times {
		switch {
		case t.Before(tomorrow):
			forecast.Today++
		case t.Before(dayAfter):
			forecast.Tomorrow++
		case t.Before(weekEnd):
			forecast.ThisWeek++
		default:
			forecast.Later++
		}
	}
	return forecast, nil
}

// Streak computes the learner's current and longest consecutive-day review
// streaks from the history.
func (s *ReviewService) Streak(ctx context.Context, learnerID string) (*models.Streak, error) {
	times, err := s.history.ReviewTimes(ctx, learnerID, 365)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return &models.Streak{}, nil
	}

	// Collapse to distinct days, most recent first.
	seen := make(map[string]bool)
	var days []time.Time
	for _, t := range times {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		key := day.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := &models.Streak{}
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
		} else {
			if run > streak.Longest {
				streak.Longest = run
			}
			run = 1
		}
	}
	if run > streak.Longest {
		streak.Longest = run
	}

	// The current streak counts only if the most recent review day is
	// today or yesterday.
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if gap := today.Sub(days[0]); gap <= 24*time.Hour {
		current := 1
		for i := 1; i < len(days); i++ {
			if days[i-1].Sub(days[i]) == 24*time.Hour {
				current++
			} else {
				break
			}
		}
		streak.Current = current
	}
	return streak, nil
}

// ActiveLearners returns learners with review activity since the given time.
func (s *ReviewService) ActiveLearners(ctx context.Context, since time.Time) ([]string, error) {
	return s.history.ActiveLearners(ctx, since)
}

// getOwned looks up a learner's item, mapping missing rows (including items
// owned by other learners) to ErrNotFound.
func (s *ReviewService) getOwned(ctx context.Context, learnerID, lemma string) (*models.VocabularyItem, error) {
	lemma = NormalizeLemma(lemma)
	if lemma == "" {
		return nil, ErrEmptyLemma
	}
	item, err := s.vocab.GetByLearnerAndLemma(ctx, learnerID, lemma)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// NormalizeLemma lowercases and trims a lemma to its canonical form.
func NormalizeLemma(lemma string) string {
	return strings.ToLower(strings.TrimSpace(lemma))
}
