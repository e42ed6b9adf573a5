package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bloomify-scheduler/models"

	"github.com/hibiken/asynq"
)

const (
	TypeOccurrenceDue  = "occurrence:due"
	TypeOccurrenceScan = "occurrence:scan"

	occurrenceMaxRetry  = 5
	occurrenceRetention = 24 * time.Hour
)

// Enqueuer is the part of *asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// OccurrenceTaskID names the due task of one occurrence. Enqueueing the same
// occurrence twice collides on this ID.
func OccurrenceTaskID(ruleID string, occursAt time.Time) string {
	return ruleID + "@" + occursAt.UTC().Format(time.RFC3339)
}

func NewOccurrenceDueTask(payload models.OccurrencePayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeOccurrenceDue, b)
	opts := []asynq.Option{
		asynq.ProcessAt(payload.OccursAt),
		asynq.TaskID(OccurrenceTaskID(payload.RuleID, payload.OccursAt)),
		asynq.MaxRetry(occurrenceMaxRetry),
		asynq.Retention(occurrenceRetention),
	}
	return task, opts, nil
}

func ParseOccurrencePayload(task *asynq.Task) (models.OccurrencePayload, error) {
	var p models.OccurrencePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeOccurrenceDue, err)
	}
	if p.RuleID == "" || p.OccursAt.IsZero() {
		return p, fmt.Errorf("invalid %s payload: ruleId and occursAt are required", TypeOccurrenceDue)
	}
	return p, nil
}

func NewOccurrenceScanTask() *asynq.Task {
	return asynq.NewTask(TypeOccurrenceScan, nil)
}

// EnqueueOccurrence schedules the due task of an occurrence. It reports
// enqueued == false when the task was already scheduled.
func EnqueueOccurrence(ctx context.Context, client Enqueuer, payload models.OccurrencePayload) (bool, error) {
	task, opts, err := NewOccurrenceDueTask(payload)
	if err != nil {
		return false, err
	}
	if _, err := client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return false, nil
		}
		return false, fmt.Errorf("failed to enqueue occurrence %s: %w", OccurrenceTaskID(payload.RuleID, payload.OccursAt), err)
	}
	return true, nil
}
