// Package badge evaluates achievement rules against a user's grading history.
package badge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
)

// Engine awards badges whose rules the user's history satisfies
type Engine struct {
	store storage.Store
	rules []domain.BadgeRule
	now   func() time.Time
}

// NewEngine creates a badge engine. A nil rules slice means the default table.
func NewEngine(store storage.Store, rules []domain.BadgeRule) *Engine {
	if rules == nil {
		rules = domain.DefaultBadgeRules()
	}
	return &Engine{
		store: store,
		rules: rules,
		now:   time.Now,
	}
}

// Rules returns the rule table the engine evaluates
func (e *Engine) Rules() []domain.BadgeRule {
	return e.rules
}

// History loads everything the rules are evaluated against
func (e *Engine) History(ctx context.Context, userID uuid.UUID) (domain.UserHistory, error) {
	var h domain.UserHistory
	var err error

	if h.Submissions, err = e.store.Submissions.ListByUser(ctx, userID); err != nil {
		return h, fmt.Errorf("load submissions: %w", err)
	}
	if h.Hints, err = e.store.Hints.ListByUser(ctx, userID); err != nil {
		return h, fmt.Errorf("load hints: %w", err)
	}
	if h.LatestSnapshots, err = e.store.Snapshots.LatestPerProblem(ctx, userID); err != nil {
		return h, fmt.Errorf("load snapshots: %w", err)
	}
	if h.Mastery, err = e.store.Mastery.ListByUser(ctx, userID); err != nil {
		return h, fmt.Errorf("load mastery: %w", err)
	}
	return h, nil
}

// Evaluate checks every rule and returns the ids of badges awarded by this call.
// A badge the user already holds is never returned again. A failed award is
// logged and skipped so one bad row does not block the other rules.
func (e *Engine) Evaluate(ctx context.Context, userID uuid.UUID) ([]string, error) {
	history, err := e.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.Award(ctx, userID, domain.ComputeBadgeStats(history)), nil
}

// Award records every satisfied rule and returns the newly created badge ids
func (e *Engine) Award(ctx context.Context, userID uuid.UUID, stats domain.BadgeStats) []string {
	at := e.now()
	var awarded []string

	for _, rule := range e.rules {
		if !stats.Satisfies(rule) {
			continue
		}
		created, err := e.store.Badges.GetOrCreate(ctx, userID, rule.BadgeID(), at)
		if err != nil {
			slog.Warn("failed to award badge",
				"user_id", userID,
				"badge_id", rule.BadgeID(),
				"error", err)
			continue
		}
		if created {
			slog.Info("badge awarded", "user_id", userID, "badge_id", rule.BadgeID())
			awarded = append(awarded, rule.BadgeID())
		}
	}
	return awarded
}

// Earned describes a badge the user holds
type Earned struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// Earned lists the user's badges with their rule descriptions
func (e *Engine) Earned(ctx context.Context, userID uuid.UUID) ([]Earned, error) {
	badges, err := e.store.Badges.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}

	desc := make(map[string]string, len(e.rules))
	for _, r := range e.rules {
		desc[r.BadgeID()] = r.Description()
	}

	out := make([]Earned, 0, len(badges))
	for _, b := range badges {
		out = append(out, Earned{ID: b.BadgeID, Description: desc[b.BadgeID], AwardedAt: b.AwardedAt})
	}
	return out, nil
}
