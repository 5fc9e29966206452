package models

import (
	"fmt"
	"time"
)

// MasteryTier classifies how well a learner knows a vocabulary item.
// The tier is derived from the SRS fields on every review and is never
// set directly by calling code.
type MasteryTier int

const (
	// TierNew means the item was saved but never reviewed.
	TierNew MasteryTier = iota
	// TierLearning means the item is in the initial learning phase,
	// or was demoted there by a lapse.
	TierLearning
	// TierYoung means the item survived its first short intervals.
	TierYoung
	// TierMature means the item is in the long-interval review cycle.
	TierMature
	// TierMastered means the item is reliably recalled. Not immutable:
	// a lapse demotes it back to TierLearning.
	TierMastered
)

var tierNames = [...]string{
	TierNew:      "new",
	TierLearning: "learning",
	TierYoung:    "young",
	TierMature:   "mature",
	TierMastered: "mastered",
}

// String returns the lowercase tier name used in the API and database.
func (t MasteryTier) String() string {
	if t.IsValid() {
		return tierNames[t]
	}
	return fmt.Sprintf("MasteryTier(%d)", int(t))
}

// IsValid reports whether t is one of the defined tiers.
func (t MasteryTier) IsValid() bool {
	return t >= TierNew && t <= TierMastered
}

// MarshalText implements encoding.TextMarshaler.
func (t MasteryTier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid mastery tier: %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MasteryTier) UnmarshalText(text []byte) error {
	for i, name := range tierNames {
		if name == string(text) {
			*t = MasteryTier(i)
			return nil
		}
	}
	return fmt.Errorf("invalid mastery tier: %q", text)
}

// VocabularyItem is one learner's relationship to one Spanish lexical item.
type VocabularyItem struct {
	ID             int64       `json:"id" db:"id"`
	LearnerID      string      `json:"learner_id" db:"learner_id"`
	Lemma          string      `json:"lemma" db:"lemma"` // normalized dictionary form, unique per learner
	Translation    string      `json:"translation" db:"translation"`
	Context        string      `json:"context" db:"context"`
	SourceType     string      `json:"source_type" db:"source_type"` // e.g. "article", "import"
	SourceRef      string      `json:"source_ref" db:"source_ref"`
	EaseFactor     float64     `json:"ease_factor" db:"ease_factor"`     // SM-2 EF, floor 1.3
	IntervalDays   float64     `json:"interval_days" db:"interval_days"` // gap until next review
	Repetitions    int         `json:"repetitions" db:"repetitions"`     // consecutive successes since last lapse
	MasteryTier    MasteryTier `json:"mastery_tier" db:"mastery_tier"`
	NextReviewAt   time.Time   `json:"next_review_at" db:"next_review_at"`
	LastReviewedAt *time.Time  `json:"last_reviewed_at" db:"last_reviewed_at"` // nil until first review
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// Due reports whether the item is due for review at the given time.
func (v *VocabularyItem) Due(asOf time.Time) bool {
	return !v.NextReviewAt.After(asOf)
}
