package models

import (
	"fmt"
	"time"
)

// Level is a CEFR proficiency level. The six levels are totally ordered;
// transitions move one level at a time.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// DefaultLevel is assigned to learners without an assessed level.
const DefaultLevel = LevelA2

// Levels lists the proficiency levels in ascending order.
var Levels = [...]Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Index returns the ordinal position of l, or -1 for an unknown level.
func (l Level) Index() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

// IsValid reports whether l is one of the six CEFR levels.
func (l Level) IsValid() bool {
	return l.Index() >= 0
}

// Next returns the level one step up, or false at the top.
func (l Level) Next() (Level, bool) {
	i := l.Index()
	if i < 0 || i == len(Levels)-1 {
		return l, false
	}
	return Levels[i+1], true
}

// Prev returns the level one step down, or false at the bottom.
func (l Level) Prev() (Level, bool) {
	i := l.Index()
	if i <= 0 {
		return l, false
	}
	return Levels[i-1], true
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v := Level(text)
	if !v.IsValid() {
		return fmt.Errorf("invalid proficiency level: %q", text)
	}
	*l = v
	return nil
}

// LearnerProfile tracks one learner's proficiency and points.
type LearnerProfile struct {
	LearnerID   string    `json:"learner_id" db:"learner_id"`
	Level       Level     `json:"proficiency_level" db:"proficiency_level"`
	TotalPoints int       `json:"total_points" db:"total_points"` // lifetime, never decreases
	LevelPoints int       `json:"level_points" db:"level_points"` // progress toward the next level
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// LevelChange is one audit entry for a proficiency transition.
type LevelChange struct {
	ID         int64     `json:"id" db:"id"`
	LearnerID  string    `json:"learner_id" db:"learner_id"`
	OldLevel   Level     `json:"old_level" db:"old_level"`
	NewLevel   Level     `json:"new_level" db:"new_level"`
	ChangeType string    `json:"change_type" db:"change_type"` // "upgrade" or "downgrade"
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
