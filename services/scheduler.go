// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartEngineScheduler wires the two periodic jobs: the hourly challenge
// sweep (progress refresh + lifecycle transitions) and the weekly skill
// sweep. The skill job runs daily; the 6.5-day guard inside the sweep keeps
// per-user evaluations weekly regardless of the trigger cadence. The jobs
// stop when ctx is cancelled.
func StartEngineScheduler(ctx context.Context, challenges *ChallengeService, skills *SkillService) gocron.Scheduler {
	sched, _ := gocron.NewScheduler()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if _, err := challenges.RefreshChallengeStatuses(); err != nil {
				log.Printf("[Scheduler] challenge sweep failed: %v", err)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			if _, err := skills.EvaluateAllUsers(); err != nil {
				log.Printf("[Scheduler] skill sweep failed: %v", err)
			}
		}),
	)

	sched.Start()

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown failed: %v", err)
		} else {
			log.Println("[Scheduler] engine jobs stopped")
		}
	}()

	log.Println("[Scheduler] engine jobs registered (challenges hourly, skill daily)")
	return sched
}
