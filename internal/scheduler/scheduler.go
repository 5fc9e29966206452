// Package scheduler runs the periodic background jobs: the daily level
// assessment sweep and the hourly due-word digest.
package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/esplearn/internal/services"
)

// Default quiet-hours window for the due-word digest.
const (
	DefaultDigestStartHour = 8
	DefaultDigestEndHour   = 22

	jobTimeout = 5 * time.Minute
)

// Notifier delivers the due-word digest to a learner.
type Notifier interface {
	SendDigest(learnerID string, dueCount int) error
}

// Scheduler manages scheduled tasks for the application.
type Scheduler struct {
	scheduler *gocron.Scheduler
	reviews   *services.ReviewService
	levels    *services.LevelService
	notifier  Notifier
	now       func() time.Time
}

// New creates a new scheduler instance.
func New(reviews *services.ReviewService, levels *services.LevelService, notifier Notifier) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		reviews:   reviews,
		levels:    levels,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins running all scheduled tasks.
func (s *Scheduler) Start() {
	// Hourly digest of due words for recently active learners.
	s.scheduler.Every(1).Hour().Do(s.sendDueDigests)

	// Nightly assessment sweep, off-peak.
	s.scheduler.Every(1).Day().At("03:00").Do(s.runAssessmentSweep)

	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// runAssessmentSweep reassesses active learners and applies recommended
// level transitions.
func (s *Scheduler) runAssessmentSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.levels.RunAssessmentSweep(ctx)
	if err != nil {
		log.Printf("assessment sweep failed: %v", err)
		return
	}
	log.Printf("assessment sweep: assessed=%d upgraded=%d downgraded=%d",
		result.Assessed, result.Upgraded, result.Downgraded)
}

// sendDueDigests notifies recently active learners who have words waiting,
// but only inside the configured digest hours.
func (s *Scheduler) sendDueDigests() {
	currentHour := s.now().Hour()
	startHour, endHour := digestHours()
	if currentHour < startHour || currentHour > endHour {
		log.Printf("hour %d outside digest hours (%d-%d), skipping digests",
			currentHour, startHour, endHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	since := s.now().AddDate(0, 0, -7)
	learners, err := s.reviews.ActiveLearners(ctx, since)
	if err != nil {
		log.Printf("error listing active learners: %v", err)
		return
	}

	for _, id := range learners {
		stats, err := s.reviews.MasteryStats(ctx, id)
		if err != nil {
			log.Printf("error getting stats for learner %s: %v", id, err)
			continue
		}
		if stats.DueToday == 0 {
			continue
		}
		if err := s.notifier.SendDigest(id, stats.DueToday); err != nil {
			log.Printf("error sending digest to learner %s: %v", id, err)
		}
	}
}

// RunManualSweep forces an immediate assessment sweep.
func (s *Scheduler) RunManualSweep(ctx context.Context) (*services.SweepResult, error) {
	return s.levels.RunAssessmentSweep(ctx)
}

// digestHours reads the digest window from the environment, falling back
// to the defaults on missing or out-of-range values.
func digestHours() (int, int) {
	startHour := DefaultDigestStartHour
	endHour := DefaultDigestEndHour

	if v := os.Getenv("DIGEST_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if v := os.Getenv("DIGEST_END_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}
	return startHour, endHour
}
