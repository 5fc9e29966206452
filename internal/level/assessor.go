// Package level implements the proficiency state machine: CEFR level
// assessment from recent performance, one-step upgrades and downgrades,
// mastery points and the content-difficulty mix.
package level

import (
	"math"

	"github.com/example/esplearn/pkg/models"
)

// Assessor evaluates learner performance and applies level transitions.
// All methods operate on in-memory snapshots; persistence is the caller's
// concern.
type Assessor struct {
	// UpgradeThreshold: success rate required to recommend an upgrade.
	UpgradeThreshold float64
	// DowngradeThreshold: below this success rate a downgrade is recommended.
	DowngradeThreshold float64
	// MaintainThreshold: at or above this the learner holds the level.
	MaintainThreshold float64
	// MasteryGate: mastery progress required alongside the success rate
	// before an upgrade is recommended.
	MasteryGate float64
	// SoftLanding: fraction of the new level's threshold granted after a
	// downgrade, so the learner doesn't restart from zero.
	SoftLanding float64
}

// NewAssessor returns an assessor with the standard thresholds.
func NewAssessor() *Assessor {
	return &Assessor{
		UpgradeThreshold:   0.85,
		DowngradeThreshold: 0.50,
		MaintainThreshold:  0.70,
		MasteryGate:        0.90,
		SoftLanding:        0.5,
	}
}

// masteryPoints is the level-points threshold to master each level.
var masteryPoints = map[models.Level]int{
	models.LevelA1: 500,
	models.LevelA2: 750,
	models.LevelB1: 1000,
	models.LevelB2: 1500,
	models.LevelC1: 2000,
	models.LevelC2: 3000,
}

// MasteryThreshold returns the points needed to master the given level.
func (a *Assessor) MasteryThreshold(l models.Level) int {
	if pts, ok := masteryPoints[l]; ok {
		return pts
	}
	return masteryPoints[models.DefaultLevel]
}

// MasteryProgress returns levelPoints / threshold for the profile's level,
// capped at 1.0.
func (a *Assessor) MasteryProgress(p *models.LearnerProfile) float64 {
	return math.Min(float64(p.LevelPoints)/float64(a.MasteryThreshold(p.Level)), 1.0)
}

// NeutralPerformance is the assessment input used when no review data
// exists in the window, avoiding early-lifecycle downgrades.
func NeutralPerformance() models.PerformanceWindow {
	return models.PerformanceWindow{
		SuccessRate:    0.7,
		CompletionRate: 0.7,
		AverageScore:   70,
	}
}

// Assess evaluates the profile against recent performance. The decision
// rules run in priority order: upgrade, downgrade, maintain, practice.
func (a *Assessor) Assess(p *models.LearnerProfile, perf models.PerformanceWindow) models.Assessment {
	progress := a.MasteryProgress(p)

	assessment := models.Assessment{
		CurrentLevel:    p.Level,
		SuccessRate:     perf.SuccessRate,
		CompletionRate:  perf.CompletionRate,
		AverageScore:    perf.AverageScore,
		TotalPoints:     p.TotalPoints,
		LevelPoints:     p.LevelPoints,
		MasteryProgress: progress,
	}

	switch {
	case perf.SuccessRate >= a.UpgradeThreshold && progress >= a.MasteryGate:
		assessment.Recommendation = models.RecommendUpgrade
		assessment.ShouldUpgrade = true
	case perf.SuccessRate < a.DowngradeThreshold:
		assessment.Recommendation = models.RecommendDowngrade
		assessment.ShouldDowngrade = true
	case perf.SuccessRate >= a.MaintainThreshold:
		assessment.Recommendation = models.RecommendMaintain
	default:
		assessment.Recommendation = models.RecommendPractice
	}

	return assessment
}

// Upgrade advances the profile one level and resets its level points.
// At the top level it is a no-op with an explicit message.
func (a *Assessor) Upgrade(p *models.LearnerProfile) models.TransitionResult {
	next, ok := p.Level.Next()
	if !ok {
		return models.TransitionResult{
			Applied:  false,
			OldLevel: p.Level,
			NewLevel: p.Level,
			Message:  "Already at max level",
		}
	}

	old := p.Level
	p.Level = next
	p.LevelPoints = 0

	return models.TransitionResult{Applied: true, OldLevel: old, NewLevel: next}
}

// Downgrade retreats the profile one level, landing at the soft-landing
// fraction of the new level's threshold. At the bottom level it is a no-op
// with an explicit message.
func (a *Assessor) Downgrade(p *models.LearnerProfile) models.TransitionResult {
	prev, ok := p.Level.Prev()
	if !ok {
		return models.TransitionResult{
			Applied:  false,
			OldLevel: p.Level,
			NewLevel: p.Level,
			Message:  "Already at min level",
		}
	}

	old := p.Level
	p.Level = prev
	p.LevelPoints = int(float64(a.MasteryThreshold(prev)) * a.SoftLanding)

	return models.TransitionResult{Applied: true, OldLevel: old, NewLevel: prev}
}

// ApplyPoints adds points to both the lifetime and level counters.
func (a *Assessor) ApplyPoints(p *models.LearnerProfile, points int) {
	p.TotalPoints += points
	p.LevelPoints += points
}

// ReadyToLevel reports whether the profile's level points have reached the
// mastery threshold for its current level.
func (a *Assessor) ReadyToLevel(p *models.LearnerProfile) bool {
	return p.LevelPoints >= a.MasteryThreshold(p.Level)
}

// DifficultyMix returns the content-difficulty split for a level,
// clamped at the ordinal boundaries.
func (a *Assessor) DifficultyMix(l models.Level) models.DifficultyMix {
	if !l.IsValid() {
		l = models.DefaultLevel
	}
	mix := models.DifficultyMix{Primary: l, Easier: l, Harder: l}
	if prev, ok := l.Prev(); ok {
		mix.Easier = prev
	}
	if next, ok := l.Next(); ok {
		mix.Harder = next
	}
	return mix
}

// PointsToNext returns how many points remain before the profile reaches
// its current level's mastery threshold. Never negative.
func (a *Assessor) PointsToNext(p *models.LearnerProfile) int {
	remaining := a.MasteryThreshold(p.Level) - p.LevelPoints
	if remaining < 0 {
		return 0
	}
	return remaining
}
