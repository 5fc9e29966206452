package models

// Recommendation is the outcome of a level assessment.
type Recommendation string

const (
	RecommendUpgrade   Recommendation = "upgrade"
	RecommendDowngrade Recommendation = "downgrade"
	RecommendMaintain  Recommendation = "maintain"
	// RecommendPractice means no level change, but the learner needs
	// more repetition at the current level.
	RecommendPractice Recommendation = "practice"
)

// PerformanceWindow aggregates a learner's review performance over a
// trailing window.
type PerformanceWindow struct {
	SuccessRate       float64 `json:"success_rate"`
	CompletionRate    float64 `json:"completion_rate"`
	AverageScore      float64 `json:"average_score"` // 0-100
	TotalReviews      int     `json:"total_reviews"`
	SuccessfulReviews int     `json:"successful_reviews"`
}

// Assessment is the result of evaluating a learner's proficiency.
type Assessment struct {
	CurrentLevel    Level          `json:"current_level"`
	SuccessRate     float64        `json:"success_rate"`
	CompletionRate  float64        `json:"completion_rate"`
	AverageScore    float64        `json:"average_score"`
	TotalPoints     int            `json:"total_points"`
	LevelPoints     int            `json:"level_points"`
	MasteryProgress float64        `json:"mastery_progress"` // levelPoints / threshold, capped at 1.0
	Recommendation  Recommendation `json:"recommendation"`
	ShouldUpgrade   bool           `json:"should_upgrade"`
	ShouldDowngrade bool           `json:"should_downgrade"`
}

// TransitionResult reports the outcome of an upgrade or downgrade attempt.
// A boundary no-op (already at max/min) is Applied=false with a message,
// not an error.
type TransitionResult struct {
	Applied  bool   `json:"applied"`
	OldLevel Level  `json:"old_level"`
	NewLevel Level  `json:"new_level"`
	Message  string `json:"message,omitempty"`
}

// DifficultyMix is the three-way content-difficulty split for a level:
// most content at the learner's level, some one step easier, a little
// one step harder. Clamped at the ordinal boundaries.
type DifficultyMix struct {
	Primary Level `json:"primary"` // 70%
	Easier  Level `json:"easier"`  // 20%
	Harder  Level `json:"harder"`  // 10%
}

// Analytics is the 30-day learning summary for a learner.
type Analytics struct {
	CurrentLevel      Level          `json:"current_level"`
	TotalPoints       int            `json:"total_points"`
	LevelPoints       int            `json:"level_points"`
	MasteryProgress   float64        `json:"mastery_progress"`
	SuccessRate       float64        `json:"success_rate"`
	CompletionRate    float64        `json:"completion_rate"`
	AverageScore      float64        `json:"average_score"`
	Recommendation    Recommendation `json:"recommendation"`
	NextLevel         *Level         `json:"next_level"` // nil at the top level
	PointsToNextLevel int            `json:"points_to_next_level"`
}
