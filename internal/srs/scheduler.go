// Package srs implements the SM-2 spaced-repetition scheduler that decides
// when a vocabulary item is next reviewed and how its ease factor and
// mastery tier evolve.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/example/esplearn/pkg/models"
)

// Scheduler computes review schedules with a day-granularity SM-2 variant.
// All methods are pure: given a consistent snapshot of one item they compute
// a consistent update; isolation of the read-modify-write cycle is the
// caller's responsibility.
type Scheduler struct {
	// PassThreshold: qualities at or above this count as a success.
	PassThreshold Quality
	// MaxIntervalDays caps interval growth. Excess is clamped, not an error.
	MaxIntervalDays float64
	// MinEaseFactor is the hard floor for the ease factor.
	MinEaseFactor float64
	// DefaultEaseFactor is assigned to new items.
	DefaultEaseFactor float64
	// LapsePenalty is subtracted from the ease factor on a lapse.
	LapsePenalty float64
	// EasyBonus multiplies the computed interval for easy recalls
	// (quality >= QualityCorrectHesitation) past the fixed early steps.
	EasyBonus float64
}

// NewScheduler returns a scheduler with the standard parameters.
func NewScheduler() *Scheduler {
	return &Scheduler{
		PassThreshold:     QualityCorrectDifficult,
		MaxIntervalDays:   365,
		MinEaseFactor:     1.3,
		DefaultEaseFactor: 2.5,
		LapsePenalty:      0.2,
		EasyBonus:         1.3,
	}
}

// Update is the full replacement of an item's SRS fields produced by one
// review.
type Update struct {
	EaseFactor     float64
	IntervalDays   float64
	Repetitions    int
	MasteryTier    models.MasteryTier
	NextReviewAt   time.Time
	LastReviewedAt *time.Time
}

// Schedule computes the next review for item given a quality signal.
// The item is not mutated. The computation depends only on the item
// snapshot, the quality and now.
func (s *Scheduler) Schedule(item *models.VocabularyItem, quality Quality, now time.Time) (Update, error) {
	if !quality.IsValid() {
		return Update{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}

	ease := item.EaseFactor
	if ease == 0 {
		ease = s.DefaultEaseFactor
	}
	interval := item.IntervalDays
	reps := item.Repetitions

	if quality >= s.PassThreshold {
		reps++
		switch reps {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			// Interval grows by the pre-review ease factor.
			interval = math.Round(interval * ease)
			if quality >= QualityCorrectHesitation {
				interval = math.Round(interval * s.EasyBonus)
			}
		}
		q := float64(quality)
		ease += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	} else {
		// Lapse: restart the interval ladder and penalize the ease factor.
		reps = 0
		interval = 1
		ease -= s.LapsePenalty
	}

	ease, interval = s.clamp(ease, interval)

	reviewed := now
	return Update{
		EaseFactor:     ease,
		IntervalDays:   interval,
		Repetitions:    reps,
		MasteryTier:    s.DeriveTier(reps, ease, interval),
		NextReviewAt:   now.Add(daysToDuration(interval)),
		LastReviewedAt: &reviewed,
	}, nil
}

// Reset forces an item back to the learning tier for deliberate re-drilling.
// The ease factor is left unchanged and the review history is untouched.
func (s *Scheduler) Reset(item *models.VocabularyItem, now time.Time) Update {
	ease := item.EaseFactor
	if ease == 0 {
		ease = s.DefaultEaseFactor
	}
	return Update{
		EaseFactor:     ease,
		IntervalDays:   1,
		Repetitions:    0,
		MasteryTier:    models.TierLearning,
		NextReviewAt:   now.Add(daysToDuration(1)),
		LastReviewedAt: item.LastReviewedAt,
	}
}

// DeriveTier classifies mastery from the updated SRS fields. The tier is a
// pure function of these fields and is recomputed on every write path.
// TierNew is never returned: once reviewed, an item is at least learning.
func (s *Scheduler) DeriveTier(repetitions int, ease, intervalDays float64) models.MasteryTier {
	switch {
	case repetitions >= 5 && ease >= s.DefaultEaseFactor:
		return models.TierMastered
	case repetitions >= 3:
		return models.TierMature
	case repetitions >= 2:
		return models.TierYoung
	default:
		return models.TierLearning
	}
}

// clamp guards the algorithm invariants before anything is persisted.
// Values outside the bounds would compound across future reviews.
func (s *Scheduler) clamp(ease, interval float64) (float64, float64) {
	if ease < s.MinEaseFactor {
		ease = s.MinEaseFactor
	}
	if interval < 0 {
		interval = 0
	}
	if interval > s.MaxIntervalDays {
		interval = s.MaxIntervalDays
	}
	return ease, interval
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
