package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	recurringRepo "bloomify-scheduler/database/repository/recurring"
	"bloomify-scheduler/models"
	"bloomify-scheduler/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTransitionAttempts bounds the optimistic retry loop of lifecycle updates.
const maxTransitionAttempts = 3

// RecurringService manages recurring rules and their derived occurrences.
type RecurringService interface {
	CreateRule(ctx context.Context, req models.CreateRecurringRuleRequest) (*models.RecurringServiceRule, error)
	GetRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error)
	PauseRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error)
	ResumeRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error)
	CancelRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error)
	ListActiveRules(ctx context.Context) ([]models.RecurringServiceRule, error)
	UpcomingOccurrences(ctx context.Context, ruleID string, from, to time.Time, limit int) ([]time.Time, error)
}

// DefaultRecurringService implements RecurringService.
type DefaultRecurringService struct {
	Repo            recurringRepo.RecurringRuleRepository
	Clock           utils.Clock
	Logger          *zap.Logger
	DefaultTimezone string
}

type transition func(models.RecurringServiceRule, time.Time) (models.RecurringServiceRule, bool, error)

func (s *DefaultRecurringService) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *DefaultRecurringService) logger() *zap.Logger {
	if s.Logger == nil {
		return utils.GetLogger()
	}
	return s.Logger
}

func (s *DefaultRecurringService) CreateRule(ctx context.Context, req models.CreateRecurringRuleRequest) (*models.RecurringServiceRule, error) {
	rule, err := NewRule(req, uuid.New().String(), s.now(), s.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	first, _ := NextOccurrence(*rule, rule.CreatedAt)
	s.logger().Info("Recurring rule created",
		zap.String("ruleID", rule.ID),
		zap.String("providerID", rule.ProviderID),
		zap.String("frequency", string(rule.Frequency)),
		zap.Time("firstOccurrence", first),
	)
	return rule, nil
}

func (s *DefaultRecurringService) GetRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return s.Repo.GetByID(ctx, ruleID)
}

func (s *DefaultRecurringService) PauseRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return s.apply(ctx, ruleID, "pause", Pause)
}

func (s *DefaultRecurringService) ResumeRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return s.apply(ctx, ruleID, "resume", Resume)
}

func (s *DefaultRecurringService) CancelRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return s.apply(ctx, ruleID, "cancel", Cancel)
}

// apply loads the rule, computes the transition and writes it back guarded by
// the version read. A concurrent writer causes a reload and another attempt.
func (s *DefaultRecurringService) apply(ctx context.Context, ruleID, action string, fn transition) (*models.RecurringServiceRule, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.Repo.GetByID(ctx, ruleID)
		if err != nil {
			return nil, err
		}
		next, changed, err := fn(*current, s.now())
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}

		err = s.Repo.Update(ctx, &next, current.Version)
		if err == nil {
			s.logger().Info("Recurring rule updated",
				zap.String("ruleID", ruleID),
				zap.String("action", action),
				zap.String("state", string(next.State)),
				zap.Int("version", next.Version),
			)
			return &next, nil
		}
		if !errors.Is(err, recurringRepo.ErrVersionConflict) || attempt >= maxTransitionAttempts {
			return nil, fmt.Errorf("failed to %s rule %s: %w", action, ruleID, err)
		}
		s.logger().Debug("Recurring rule version conflict, retrying",
			zap.String("ruleID", ruleID), zap.Int("attempt", attempt))
	}
}

// ListActiveRules returns the active rules that can still produce an occurrence.
func (s *DefaultRecurringService) ListActiveRules(ctx context.Context) ([]models.RecurringServiceRule, error) {
	// End dates are inclusive by calendar day, so keep rules that ended up to a day ago.
	return s.Repo.ListActive(ctx, s.now().AddDate(0, 0, -1))
}

// UpcomingOccurrences lists up to limit occurrences of a rule in [from, to).
func (s *DefaultRecurringService) UpcomingOccurrences(ctx context.Context, ruleID string, from, to time.Time, limit int) ([]time.Time, error) {
	if to.Before(from) {
		return nil, &InvalidRuleError{Field: "range", Reason: "must not end before it starts"}
	}
	rule, err := s.Repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	out := make([]time.Time, 0)
	for t := range OccurrencesBetween(*rule, from, to) {
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
