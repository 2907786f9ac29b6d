package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

type (
	GoalStatus string

	// Goal is a savings target. Deadline is optional.
	Goal struct {
		ID            int64
		UserID        int64
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      Date
		Description   string
		Status        GoalStatus
		CreatedAt     time.Time
	}
)

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !g.Deadline.IsZero() {
		if err := g.Deadline.Validate(); err != nil {
			return err
		}
	}
	if utf8.RuneCountInString(g.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	switch g.Status {
	case GoalActive, GoalCompleted, "":
	default:
		return ErrInvalidGoalStatus
	}
	return nil
}

// Progress is current/target as a percentage with one decimal, capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		return 100
	}
	p, _ := decimal.NewFromInt(g.CurrentAmount.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(g.TargetAmount.Cents)).
		Round(1).
		Float64()
	return p
}

// Remaining is what is left to save, never negative.
func (g Goal) Remaining() Money {
	if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		return Money{}
	}
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// Settle derives the status from the amounts: a reached target completes
// the goal, anything else keeps it active.
func (g Goal) Settle() Goal {
	if g.TargetAmount.Cents > 0 && g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		g.Status = GoalCompleted
	} else {
		g.Status = GoalActive
	}
	return g
}
