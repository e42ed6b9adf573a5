package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloomify-scheduler/config"
	recurringRepo "bloomify-scheduler/database/repository/recurring"
	"bloomify-scheduler/models"
	"bloomify-scheduler/services/booking"
	"bloomify-scheduler/services/notification"
	"bloomify-scheduler/services/recurrence"
	"bloomify-scheduler/services/tasks"
	"bloomify-scheduler/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RuleReader is the read side of the recurring rule service the worker needs.
type RuleReader interface {
	GetRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error)
	ListActiveRules(ctx context.Context) ([]models.RecurringServiceRule, error)
}

// OccurrenceWorker turns recurring rules into bookings. The scan task enqueues
// each active rule's next occurrence once it is within Lookahead; the due task
// commits the occurrence when it fires.
type OccurrenceWorker struct {
	Rules           RuleReader
	Coordinator     booking.BookingCoordinator
	NotificationSvc notification.NotificationService
	Queue           tasks.Enqueuer
	Clock           utils.Clock
	Lookahead       time.Duration
	Logger          *zap.Logger
}

// Register wires the worker's handlers into mux.
func (w *OccurrenceWorker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeOccurrenceScan, w.HandleScan)
	mux.HandleFunc(tasks.TypeOccurrenceDue, w.HandleDue)
}

// HandleScan enqueues the next occurrence of every active rule that falls
// inside the lookahead window. Already scheduled occurrences are left alone.
func (w *OccurrenceWorker) HandleScan(ctx context.Context, _ *asynq.Task) error {
	now := w.Clock.Now()
	rules, err := w.Rules.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("occurrence scan: %w", err)
	}

	horizon := now.Add(w.Lookahead)
	enqueued := 0
	var errs []error
	for _, rule := range rules {
		next, ok := recurrence.NextOccurrence(rule, now)
		if !ok || next.After(horizon) {
			continue
		}
		added, err := tasks.EnqueueOccurrence(ctx, w.Queue, models.OccurrencePayload{
			RuleID:     rule.ID,
			ProviderID: rule.ProviderID,
			OccursAt:   next,
		})
		if err != nil {
			w.Logger.Error("Failed to enqueue occurrence", zap.String("ruleID", rule.ID), zap.Time("occursAt", next), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if added {
			enqueued++
			w.Logger.Debug("Occurrence enqueued", zap.String("ruleID", rule.ID), zap.Time("occursAt", next))
		}
	}

	w.Logger.Info("Occurrence scan finished",
		zap.Int("activeRules", len(rules)),
		zap.Int("enqueued", enqueued),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

// HandleDue commits one occurrence and notifies the outcome.
func (w *OccurrenceWorker) HandleDue(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseOccurrencePayload(task)
	if err != nil {
		w.Logger.Error("Dropping occurrence task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	rule, err := w.Rules.GetRule(ctx, p.RuleID)
	if errors.Is(err, recurringRepo.ErrRuleNotFound) {
		w.Logger.Warn("Occurrence task for unknown rule", zap.String("ruleID", p.RuleID))
		return fmt.Errorf("rule %s: %w", p.RuleID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	b, err := w.Coordinator.CommitOccurrence(ctx, *rule, p.OccursAt)
	if err != nil {
		return err
	}

	switch {
	case b.Confirmed():
		err = w.NotificationSvc.NotifyOccurrenceDue(ctx, rule.ID, p.OccursAt, b)
	case b.Reason == models.RejectionRuleNotActive || b.Reason == models.RejectionNotAnOccurrence:
		// The rule changed after the task was scheduled.
		w.Logger.Info("Stale occurrence skipped",
			zap.String("ruleID", rule.ID),
			zap.Time("occursAt", p.OccursAt),
			zap.String("reason", string(b.Reason)),
		)
		return nil
	default:
		err = w.NotificationSvc.NotifyOccurrenceConflict(ctx, rule.ID, p.OccursAt, b.Reason)
	}
	if err != nil {
		w.Logger.Warn("Occurrence notification failed", zap.String("ruleID", rule.ID), zap.Error(err))
	}
	return nil
}

// QueueRedisOpt returns the Redis connection used for the occurrence queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitOccurrenceWorker starts the asynq server running w and the scheduler
// firing the periodic scan. The returned func stops both.
func InitOccurrenceWorker(w *OccurrenceWorker) (func(), error) {
	redisOpts := QueueRedisOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: w.Logger.Sugar(),
		},
	)
	mux := asynq.NewServeMux()
	w.Register(mux)

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Logger: w.Logger.Sugar()})
	if _, err := scheduler.Register(config.AppConfig.OccurrenceScanCron, tasks.NewOccurrenceScanTask(), asynq.MaxRetry(0)); err != nil {
		return nil, fmt.Errorf("failed to register occurrence scan %q: %w", config.AppConfig.OccurrenceScanCron, err)
	}

	// Start the worker with retry logic
	const maxAttempts = 5
	for attempts := 1; ; attempts++ {
		err := srv.Start(mux)
		if err == nil {
			break
		}
		w.Logger.Warn("Occurrence worker failed to start",
			zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
		if attempts == maxAttempts {
			return nil, fmt.Errorf("occurrence worker did not start: %w", err)
		}
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("occurrence scheduler did not start: %w", err)
	}

	w.Logger.Info("Occurrence worker started",
		zap.String("scanCron", config.AppConfig.OccurrenceScanCron),
		zap.Duration("lookahead", w.Lookahead),
	)
	return func() {
		scheduler.Shutdown()
		srv.Shutdown()
	}, nil
}
