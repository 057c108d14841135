// Package score turns a finished session into points.
package score

import (
	"math"

	"github.com/ayoisaiah/studytime/internal/mode"
)

const (
	pointsPerMinute = 10

	pausePenalty    = 0.05
	maxPausePenalty = 0.5

	completionBonus = 0.2

	cycleBonus    = 0.05
	maxCycleBonus = 0.25

	streakBonus    = 0.02
	maxStreakBonus = 0.2
)

// Input describes a finished session.
type Input struct {
	// PlannedSeconds is nil for untimed sessions.
	PlannedSeconds *int
	Mode           mode.Kind
	ElapsedSeconds int
	Pauses         int
	// PriorCyclesToday is the number of work/break cycles completed earlier
	// on the same day.
	PriorCyclesToday int
	StreakDays       int
	CompletedFully   bool
}

// Breakdown is the score and the multipliers that produced it.
type Breakdown struct {
	Base            int     `json:"base"`
	PausePenalty    float64 `json:"pause_penalty"`
	CompletionBonus float64 `json:"completion_bonus"`
	CycleBonus      float64 `json:"cycle_bonus"`
	StreakBonus     float64 `json:"streak_bonus"`
	Total           int     `json:"total"`
}

// Compute scores a session. The result is never negative.
func Compute(in Input) Breakdown {
	var b Breakdown

	if in.ElapsedSeconds <= 0 {
		return b
	}

	b.Base = int(math.Round(float64(in.ElapsedSeconds) / 60 * pointsPerMinute))
	b.PausePenalty = math.Min(float64(in.Pauses)*pausePenalty, maxPausePenalty)

	// Only sessions with a target can be completed.
	if in.CompletedFully && in.PlannedSeconds != nil {
		b.CompletionBonus = completionBonus
	}

	if in.Mode == mode.KindWorkBreak {
		b.CycleBonus = math.Min(float64(in.PriorCyclesToday)*cycleBonus, maxCycleBonus)
	}

	b.StreakBonus = math.Min(float64(in.StreakDays)*streakBonus, maxStreakBonus)

	multiplier := 1 - b.PausePenalty + b.CompletionBonus + b.CycleBonus + b.StreakBonus

	b.Total = max(0, int(math.Round(float64(b.Base)*multiplier)))

	return b
}
