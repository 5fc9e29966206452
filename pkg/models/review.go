package models

import "time"

// ReviewRecord is one immutable entry in a learner's review history.
// Records are append-only; they feed performance windows and streaks.
type ReviewRecord struct {
	ID           int64       `json:"id" db:"id"`
	LearnerID    string      `json:"learner_id" db:"learner_id"`
	WordID       int64       `json:"word_id" db:"word_id"`
	Quality      int         `json:"quality" db:"quality"`             // 0-5 recall quality
	IntervalDays float64     `json:"interval_days" db:"interval_days"` // interval produced by this review
	MasteryTier  MasteryTier `json:"mastery_tier" db:"mastery_tier"`   // tier produced by this review
	ReviewedAt   time.Time   `json:"reviewed_at" db:"reviewed_at"`
}

// MasteryStats summarizes a learner's vocabulary by tier.
type MasteryStats struct {
	Total         int `json:"total"`
	New           int `json:"new"`
	Learning      int `json:"learning"`
	Young         int `json:"young"`
	Mature        int `json:"mature"`
	Mastered      int `json:"mastered"`
	DueToday      int `json:"due_today"`
	ReviewedToday int `json:"reviewed_today"`
}

// ReviewForecast buckets upcoming reviews by date.
type ReviewForecast struct {
	Today    int `json:"today"`
	Tomorrow int `json:"tomorrow"`
	ThisWeek int `json:"this_week"`
	Later    int `json:"later"`
}

// Streak holds the learner's consecutive-day review streaks.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}
