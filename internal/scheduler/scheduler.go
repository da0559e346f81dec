package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/mrwolf/moodcast/internal/config"
	"github.com/mrwolf/moodcast/internal/db"
	"github.com/mrwolf/moodcast/internal/report"
	"github.com/mrwolf/moodcast/internal/tracking"
)

const weeklyJobType = "weekly-snapshot"

// HealthChecker probes an upstream dependency
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	db        *db.DB
	tracker   *tracking.Service
	reports   *report.Store
	upstream  HealthChecker
	cron      string
}

// Config holds scheduler configuration
type Config struct {
	Timezone     string
	SnapshotCron string
	Clock        clockwork.Clock
}

// New creates a new scheduler
func New(database *db.DB, tracker *tracking.Service, reports *report.Store, upstream HealthChecker, cfg Config) (*Scheduler, error) {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		tz = time.UTC
	}

	opts := []gocron.SchedulerOption{gocron.WithLocation(tz)}
	if cfg.Clock != nil {
		opts = append(opts, gocron.WithClock(cfg.Clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		db:        database,
		tracker:   tracker,
		reports:   reports,
		upstream:  upstream,
		cron:      cfg.SnapshotCron,
	}, nil
}

// Start starts the scheduler and registers all jobs
func (s *Scheduler) Start() error {
	// Weekly snapshot, default Monday 00:30
	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cron, false),
		gocron.NewTask(s.runWeekly),
		gocron.WithName(weeklyJobType),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("registering weekly job %q: %w", s.cron, err)
	}

	// Health check the log store every 5 minutes
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(s.healthCheck),
		gocron.WithName("health-check"),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	log.Printf("Scheduler started (weekly snapshot: %s)", s.cron)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runWeekly() {
	log.Println("Running weekly snapshot...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	results := s.RunNow(ctx)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	log.Printf("Weekly snapshot finished: %d users, %d failed", len(results), failed)
}

// RunNow captures this week's snapshot, resolves last week's actuals, and
// writes the report for every tracked user. A failing user does not stop
// the others.
func (s *Scheduler) RunNow(ctx context.Context) []tracking.RunResult {
	users := s.tracker.Users()
	results := make([]tracking.RunResult, 0, len(users))
	for _, user := range users {
		result, err := s.runUser(ctx, user)
		if err != nil {
			log.Printf("Error running weekly snapshot for %s: %v", user.Name, err)
			results = append(results, tracking.RunResult{User: user.Name, Error: err.Error()})
			continue
		}
		results = append(results, *result)
	}
	return results
}

func (s *Scheduler) runUser(ctx context.Context, user config.TrackedUser) (result *tracking.RunResult, err error) {
	runID, logErr := s.db.LogRunStart(user.Name, weeklyJobType)
	if logErr != nil {
		log.Printf("Error recording run start for %s: %v", user.Name, logErr)
	}
	defer func() {
		if logErr != nil {
			return
		}
		if ferr := s.db.LogRunFinish(runID, err); ferr != nil {
			log.Printf("Error recording run finish for %s: %v", user.Name, ferr)
		}
	}()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result, err = s.tracker.RunUser(ctx, user)
	if err != nil {
		return nil, err
	}

	path, err := s.reports.Write(result.Snapshot, s.tracker.Now())
	if err != nil {
		return nil, err
	}
	log.Printf("Generated weekly report for %s: %s", user.Name, path)
	return result, nil
}

func (s *Scheduler) healthCheck() {
	if s.upstream == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.upstream.HealthCheck(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Health check timed out - log store unreachable")
			return
		}
		log.Printf("Health check failed - log store unreachable: %v", err)
	}
}
