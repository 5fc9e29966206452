package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/example/esplearn/pkg/models"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newItem() *models.VocabularyItem {
	return &models.VocabularyItem{
		LearnerID:   "learner-1",
		Lemma:       "perro",
		EaseFactor:  2.5,
		MasteryTier: models.TierNew,
	}
}

func TestSchedule_FirstReview(t *testing.T) {
	s := NewScheduler()

	upd, err := s.Schedule(newItem(), QualityCorrectDifficult, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if upd.Repetitions != 1 {
		t.Errorf("Repetitions = %d, want 1", upd.Repetitions)
	}
	if upd.IntervalDays != 1 {
		t.Errorf("IntervalDays = %v, want 1", upd.IntervalDays)
	}
	if want := testNow.Add(24 * time.Hour); !upd.NextReviewAt.Equal(want) {
		t.Errorf("NextReviewAt = %v, want %v", upd.NextReviewAt, want)
	}
	if upd.MasteryTier != models.TierLearning {
		t.Errorf("MasteryTier = %v, want learning", upd.MasteryTier)
	}
	if upd.LastReviewedAt == nil || !upd.LastReviewedAt.Equal(testNow) {
		t.Errorf("LastReviewedAt = %v, want %v", upd.LastReviewedAt, testNow)
	}
}

func TestSchedule_SecondReview(t *testing.T) {
	s := NewScheduler()
	item := newItem()
	item.Repetitions = 1
	item.IntervalDays = 1

	upd, err := s.Schedule(item, QualityCorrectDifficult, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if upd.Repetitions != 2 {
		t.Errorf("Repetitions = %d, want 2", upd.Repetitions)
	}
	if upd.IntervalDays != 6 {
		t.Errorf("IntervalDays = %v, want 6", upd.IntervalDays)
	}
	if upd.MasteryTier != models.TierYoung {
		t.Errorf("MasteryTier = %v, want young", upd.MasteryTier)
	}
}

func TestSchedule_Lapse(t *testing.T) {
	s := NewScheduler()
	item := newItem()
	item.Repetitions = 2
	item.IntervalDays = 6
	item.EaseFactor = 2.5
	item.MasteryTier = models.TierYoung

	upd, err := s.Schedule(item, QualityBlackout, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if upd.Repetitions != 0 {
		t.Errorf("Repetitions = %d, want 0", upd.Repetitions)
	}
	if upd.IntervalDays != 1 {
		t.Errorf("IntervalDays = %v, want 1", upd.IntervalDays)
	}
	if got, want := upd.EaseFactor, 2.3; !floatEq(got, want) {
		t.Errorf("EaseFactor = %v, want %v", got, want)
	}
	if upd.MasteryTier != models.TierLearning {
		t.Errorf("MasteryTier = %v, want learning", upd.MasteryTier)
	}
}

// A lapse demotes any tier straight back to learning, even mastered.
func TestSchedule_LapseDemotesMastered(t *testing.T) {
	s := NewScheduler()
	item := newItem()
	item.Repetitions = 8
	item.IntervalDays = 120
	item.EaseFactor = 2.7
	item.MasteryTier = models.TierMastered

	upd, err := s.Schedule(item, QualityIncorrect, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if upd.MasteryTier != models.TierLearning {
		t.Errorf("MasteryTier = %v, want learning", upd.MasteryTier)
	}
	if upd.Repetitions != 0 {
		t.Errorf("Repetitions = %d, want 0", upd.Repetitions)
	}
}

// The ease factor never drops below 1.3, no matter how many lapses occur.
func TestSchedule_EaseFactorFloor(t *testing.T) {
	s := NewScheduler()
	item := newItem()

	for i := 0; i < 20; i++ {
		upd, err := s.Schedule(item, QualityBlackout, testNow)
		if err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
		if upd.EaseFactor < 1.3 {
			t.Fatalf("review %d: EaseFactor = %v, below floor 1.3", i, upd.EaseFactor)
		}
		applyUpdate(item, upd)
	}

	if !floatEq(item.EaseFactor, 1.3) {
		t.Errorf("EaseFactor after lapse streak = %v, want 1.3", item.EaseFactor)
	}
}

// Always answering "good" grows the interval monotonically until the cap.
func TestSchedule_MonotonicGrowthAndCap(t *testing.T) {
	s := NewScheduler()
	item := newItem()
	now := testNow

	prev := 0.0
	for i := 0; i < 40; i++ {
		upd, err := s.Schedule(item, QualityCorrectDifficult, now)
		if err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
		if upd.IntervalDays < prev {
			t.Fatalf("review %d: interval shrank from %v to %v on a success streak", i, prev, upd.IntervalDays)
		}
		if upd.IntervalDays > s.MaxIntervalDays {
			t.Fatalf("review %d: interval %v exceeds cap %v", i, upd.IntervalDays, s.MaxIntervalDays)
		}
		prev = upd.IntervalDays
		applyUpdate(item, upd)
		now = upd.NextReviewAt
	}

	if item.IntervalDays != s.MaxIntervalDays {
		t.Errorf("interval after long streak = %v, want cap %v", item.IntervalDays, s.MaxIntervalDays)
	}
}

func TestSchedule_EasyBonus(t *testing.T) {
	s := NewScheduler()
	item := newItem()
	item.Repetitions = 2
	item.IntervalDays = 6
	item.EaseFactor = 2.5

	upd, err := s.Schedule(item, QualityPerfect, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	// round(6 * 2.5) = 15, then round(15 * 1.3) = 20.
	if upd.IntervalDays != 20 {
		t.Errorf("IntervalDays = %v, want 20", upd.IntervalDays)
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	s := NewScheduler()
	item := newItem()
	item.Repetitions = 3
	item.IntervalDays = 15
	item.EaseFactor = 2.2

	a, err := s.Schedule(item, QualityCorrectHesitation, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	b, err := s.Schedule(item, QualityCorrectHesitation, testNow)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if a.EaseFactor != b.EaseFactor || a.IntervalDays != b.IntervalDays ||
		a.Repetitions != b.Repetitions || !a.NextReviewAt.Equal(b.NextReviewAt) {
		t.Errorf("Schedule() not deterministic: %+v vs %+v", a, b)
	}
}

func TestSchedule_InvalidQuality(t *testing.T) {
	s := NewScheduler()

	for _, q := range []Quality{-1, 6, 42} {
		_, err := s.Schedule(newItem(), q, testNow)
		if !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("Schedule(quality=%d) error = %v, want ErrInvalidQuality", q, err)
		}
	}
}

func TestReset(t *testing.T) {
	s := NewScheduler()
	reviewed := testNow.Add(-72 * time.Hour)
	item := newItem()
	item.Repetitions = 6
	item.IntervalDays = 90
	item.EaseFactor = 2.8
	item.MasteryTier = models.TierMastered
	item.LastReviewedAt = &reviewed

	upd := s.Reset(item, testNow)

	if upd.Repetitions != 0 {
		t.Errorf("Repetitions = %d, want 0", upd.Repetitions)
	}
	if upd.IntervalDays != 1 {
		t.Errorf("IntervalDays = %v, want 1", upd.IntervalDays)
	}
	if upd.EaseFactor != 2.8 {
		t.Errorf("EaseFactor = %v, want unchanged 2.8", upd.EaseFactor)
	}
	if upd.MasteryTier != models.TierLearning {
		t.Errorf("MasteryTier = %v, want learning", upd.MasteryTier)
	}
	if upd.LastReviewedAt == nil || !upd.LastReviewedAt.Equal(reviewed) {
		t.Errorf("LastReviewedAt changed: %v, want %v", upd.LastReviewedAt, reviewed)
	}
}

func TestDeriveTier(t *testing.T) {
	s := NewScheduler()

	tests := []struct {
		name     string
		reps     int
		ease     float64
		interval float64
		want     models.MasteryTier
	}{
		{"after lapse", 0, 1.3, 1, models.TierLearning},
		{"first success", 1, 2.36, 1, models.TierLearning},
		{"second success", 2, 2.36, 6, models.TierYoung},
		{"third success", 3, 2.4, 15, models.TierMature},
		{"five reps low ease", 5, 2.1, 40, models.TierMature},
		{"five reps high ease", 5, 2.5, 40, models.TierMastered},
		{"long streak", 9, 2.8, 365, models.TierMastered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.DeriveTier(tt.reps, tt.ease, tt.interval); got != tt.want {
				t.Errorf("DeriveTier(%d, %v, %v) = %v, want %v", tt.reps, tt.ease, tt.interval, got, tt.want)
			}
		})
	}
}

func applyUpdate(item *models.VocabularyItem, upd Update) {
	item.EaseFactor = upd.EaseFactor
	item.IntervalDays = upd.IntervalDays
	item.Repetitions = upd.Repetitions
	item.MasteryTier = upd.MasteryTier
	item.NextReviewAt = upd.NextReviewAt
	item.LastReviewedAt = upd.LastReviewedAt
}

func floatEq(a, b float64) bool {
	const eps = 1e-9
	return a-b < eps && b-a < eps
}
