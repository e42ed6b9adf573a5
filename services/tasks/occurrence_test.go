package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloomify-scheduler/models"
	"bloomify-scheduler/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	tasks []*asynq.Task
	ids   map[string]bool
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.ids == nil {
		q.ids = make(map[string]bool)
	}
	for _, opt := range opts {
		if opt.Type() == asynq.TaskIDOpt {
			id := opt.Value().(string)
			if q.ids[id] {
				return nil, asynq.ErrTaskIDConflict
			}
			q.ids[id] = true
		}
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func payload() models.OccurrencePayload {
	return models.OccurrencePayload{
		RuleID:     "rule-1",
		ProviderID: "prov-1",
		OccursAt:   time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewOccurrenceDueTask(t *testing.T) {
	task, opts, err := tasks.NewOccurrenceDueTask(payload())
	require.NoError(t, err)
	assert.Equal(t, tasks.TypeOccurrenceDue, task.Type())

	byType := make(map[asynq.OptionType]any)
	for _, opt := range opts {
		byType[opt.Type()] = opt.Value()
	}
	assert.Equal(t, "rule-1@2025-03-11T09:00:00Z", byType[asynq.TaskIDOpt])
	assert.Equal(t, payload().OccursAt, byType[asynq.ProcessAtOpt])
	assert.Equal(t, 5, byType[asynq.MaxRetryOpt])

	parsed, err := tasks.ParseOccurrencePayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload().RuleID, parsed.RuleID)
	assert.True(t, payload().OccursAt.Equal(parsed.OccursAt))
}

func TestParseOccurrencePayloadRejectsGarbage(t *testing.T) {
	_, err := tasks.ParseOccurrencePayload(asynq.NewTask(tasks.TypeOccurrenceDue, []byte("{")))
	assert.Error(t, err)

	_, err = tasks.ParseOccurrencePayload(asynq.NewTask(tasks.TypeOccurrenceDue, []byte(`{"ruleId":"rule-1"}`)))
	assert.ErrorContains(t, err, "required")
}

func TestEnqueueOccurrence(t *testing.T) {
	q := &fakeQueue{}

	added, err := tasks.EnqueueOccurrence(t.Context(), q, payload())
	require.NoError(t, err)
	assert.True(t, added)

	added, err = tasks.EnqueueOccurrence(t.Context(), q, payload())
	require.NoError(t, err, "an already scheduled occurrence is not an error")
	assert.False(t, added)
	assert.Len(t, q.tasks, 1)

	q.err = errors.New("redis down")
	_, err = tasks.EnqueueOccurrence(t.Context(), q, payload())
	assert.ErrorContains(t, err, "redis down")
}
