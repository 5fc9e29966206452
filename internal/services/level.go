package services

import (
	"context"
	"time"

	"github.com/example/esplearn/internal/database"
	"github.com/example/esplearn/internal/level"
	"github.com/example/esplearn/internal/srs"
	"github.com/example/esplearn/pkg/models"
)

const (
	// AssessmentWindowDays is the trailing window for tactical assessment.
	AssessmentWindowDays = 7
	// AnalyticsWindowDays is the wider window used for analytics.
	AnalyticsWindowDays = 30
)

// LevelService provides the proficiency-level operations.
type LevelService struct {
	profiles database.ProfileStore
	history  database.ReviewHistoryStore
	assessor *level.Assessor
	now      func() time.Time
}

// NewLevelService creates a level service over the given stores.
func NewLevelService(profiles database.ProfileStore, history database.ReviewHistoryStore) *LevelService {
	return &LevelService{
		profiles: profiles,
		history:  history,
		assessor: level.NewAssessor(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AssessLevel evaluates the learner's current proficiency against their
// recent performance.
func (s *LevelService) AssessLevel(ctx context.Context, learnerID string) (*models.Assessment, error) {
	profile, err := s.profiles.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	perf, err := s.performance(ctx, learnerID, AssessmentWindowDays)
	if err != nil {
		return nil, err
	}
	assessment := s.assessor.Assess(profile, perf)
	return &assessment, nil
}

// UpgradeLevel advances the learner one level. At the top level it returns
// an explicit no-op result with no field changes.
func (s *LevelService) UpgradeLevel(ctx context.Context, learnerID string) (*models.TransitionResult, error) {
	profile, err := s.profiles.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	res := s.assessor.Upgrade(profile)
	if !res.Applied {
		return &res, nil
	}
	if err := s.applyTransition(ctx, profile, res, "upgrade"); err != nil {
		return nil, err
	}
	return &res, nil
}

// DowngradeLevel retreats the learner one level with a soft landing. At the
// bottom level it returns an explicit no-op result.
func (s *LevelService) DowngradeLevel(ctx context.Context, learnerID string) (*models.TransitionResult, error) {
	profile, err := s.profiles.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	res := s.assessor.Downgrade(profile)
	if !res.Applied {
		return &res, nil
	}
	if err := s.applyTransition(ctx, profile, res, "downgrade"); err != nil {
		return nil, err
	}
	return &res, nil
}

// PointsResult reports the outcome of a point award, including any
// automatic level-up it triggered.
type PointsResult struct {
	TotalPoints int          `json:"total_points"`
	LevelPoints int          `json:"level_points"`
	Level       models.Level `json:"level"`
	LeveledUp   bool         `json:"leveled_up"`
}

// AwardPoints adds points to both counters. Reaching the level's mastery
// threshold re-runs the assessment and applies an upgrade if recommended.
// The side effect is idempotent: after an upgrade the level points reset to
// zero, so a repeat of the same award cannot double-upgrade.
func (s *LevelService) AwardPoints(ctx context.Context, learnerID string, points int, activityType string) (*PointsResult, error) {
	if points <= 0 {
		return nil, ErrInvalidPoints
	}

	profile, err := s.profiles.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	s.assessor.ApplyPoints(profile, points)
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	result := &PointsResult{
		TotalPoints: profile.TotalPoints,
		LevelPoints: profile.LevelPoints,
		Level:       profile.Level,
	}

	if !s.assessor.ReadyToLevel(profile) {
		return result, nil
	}

	perf, err := s.performance(ctx, learnerID, AssessmentWindowDays)
	if err != nil {
		return nil, err
	}
	if !s.assessor.Assess(profile, perf).ShouldUpgrade {
		return result, nil
	}

	res := s.assessor.Upgrade(profile)
	if res.Applied {
		if err := s.applyTransition(ctx, profile, res, "upgrade"); err != nil {
			return nil, err
		}
		result.LevelPoints = profile.LevelPoints
		result.Level = profile.Level
		result.LeveledUp = true
	}
	return result, nil
}

// DifficultyMix returns the content-difficulty split for the learner's
// current level.
func (s *LevelService) DifficultyMix(ctx context.Context, learnerID string) (*models.DifficultyMix, error) {
	profile, err := s.profiles.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	mix := s.assessor.DifficultyMix(profile.Level)
	return &mix, nil
}

// Analytics returns the learner's 30-day learning summary.
func (s *LevelService) Analytics(ctx context.Context, learnerID string) (*models.Analytics, error) {
	profile, err := s.profiles.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	perf, err := s.performance(ctx, learnerID, AnalyticsWindowDays)
	if err != nil {
		return nil, err
	}
	assessment := s.assessor.Assess(profile, perf)

	analytics := &models.Analytics{
		CurrentLevel:      profile.Level,
		TotalPoints:       profile.TotalPoints,
		LevelPoints:       profile.LevelPoints,
		MasteryProgress:   assessment.MasteryProgress,
		SuccessRate:       perf.SuccessRate,
		CompletionRate:    perf.CompletionRate,
		AverageScore:      perf.AverageScore,
		Recommendation:    assessment.Recommendation,
		PointsToNextLevel: s.assessor.PointsToNext(profile),
	}
	if next, ok := profile.Level.Next(); ok {
		analytics.NextLevel = &next
	}
	return analytics, nil
}

// SweepResult summarizes one periodic assessment sweep.
type SweepResult struct {
	Assessed   int
	Upgraded   int
	Downgraded int
}

// RunAssessmentSweep assesses every learner active in the assessment window
// and applies the recommended transitions. Used by the periodic scheduler.
func (s *LevelService) RunAssessmentSweep(ctx context.Context) (*SweepResult, error) {
	since := s.now().AddDate(0, 0, -AssessmentWindowDays)
	learners, err := s.history.ActiveLearners(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, learnerID := range learners {
		assessment, err := s.AssessLevel(ctx, learnerID)
		if err != nil {
			return result, err
		}
		result.Assessed++

		switch {
		case assessment.ShouldUpgrade:
			res, err := s.UpgradeLevel(ctx, learnerID)
			if err != nil {
				return result, err
			}
			if res.Applied {
				result.Upgraded++
			}
		case assessment.ShouldDowngrade:
			res, err := s.DowngradeLevel(ctx, learnerID)
			if err != nil {
				return result, err
			}
			if res.Applied {
				result.Downgraded++
			}
		}
	}
	return result, nil
}

// applyTransition persists a level transition and records it in the audit
// trail.
func (s *LevelService) applyTransition(ctx context.Context, profile *models.LearnerProfile, res models.TransitionResult, changeType string) error {
	if err := s.profiles.Update(ctx, profile); err != nil {
		return err
	}
	return s.profiles.TrackLevelChange(ctx, &models.LevelChange{
		LearnerID:  profile.LearnerID,
		OldLevel:   res.OldLevel,
		NewLevel:   res.NewLevel,
		ChangeType: changeType,
		CreatedAt:  s.now(),
	})
}

// performance aggregates the learner's trailing review window, falling back
// to the neutral default when there is no data.
func (s *LevelService) performance(ctx context.Context, learnerID string, days int) (models.PerformanceWindow, error) {
	since := s.now().AddDate(0, 0, -days)
	win, err := s.history.Window(ctx, learnerID, since, int(srs.QualityCorrectDifficult))
	if err != nil {
		return models.PerformanceWindow{}, err
	}
	if win.TotalReviews == 0 {
		return level.NeutralPerformance(), nil
	}
	return win, nil
}
