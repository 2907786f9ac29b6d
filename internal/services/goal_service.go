package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"moneybook/internal/core"
	"moneybook/internal/store"
)

type GoalInput struct {
	Name          string
	TargetAmount  core.Money
	CurrentAmount core.Money
	Deadline      core.Date
	Description   string
}

type GoalService struct {
	store store.GoalStore
}

func NewGoalService(s store.GoalStore) *GoalService {
	return &GoalService{store: s}
}

func (in GoalInput) apply(g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(in.Name)
	g.TargetAmount = in.TargetAmount
	g.CurrentAmount = in.CurrentAmount
	g.Deadline = in.Deadline
	g.Description = strings.TrimSpace(in.Description)
	g = g.Settle()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *GoalService) Create(ctx context.Context, userID int64, in GoalInput) (core.Goal, error) {
	g, err := in.apply(core.Goal{UserID: userID})
	if err != nil {
		return core.Goal{}, err
	}
	saved, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created", "goal_id", saved.ID, "user_id", userID)
	return saved, nil
}

// Get returns the goal when it belongs to userID.
func (s *GoalService) Get(ctx context.Context, userID, id int64) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if g.UserID != userID {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, ErrForbidden)
	}
	return g, nil
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Update replaces the editable fields and re-derives the status.
func (s *GoalService) Update(ctx context.Context, userID, id int64, in GoalInput) (core.Goal, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	g, err := in.apply(existing)
	if err != nil {
		return core.Goal{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if existing.Status != updated.Status && updated.Status == core.GoalCompleted {
		slog.InfoContext(ctx, "Goal completed", "goal_id", id, "user_id", userID)
	}
	return updated, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
