// Package workout implements the per-workout state machine: the ordered step
// list derived from a program shape, the current-step cursor, rest interval
// lifecycle, and final result computation.
package workout

import (
	"fmt"

	"github.com/hundredday/companion/internal/program"
)

// StepKind discriminates the step union.
type StepKind int

const (
	StepWarmUp StepKind = iota
	StepExercise
	StepCoolDown
)

// Step is one unit of the workout timeline. Identity is structural: the same
// logical step compares equal across list recomputation, so it is safe to use
// as a lookup key. For exercise steps the identity is (execution kind, global
// 1-based ordinal); warm-up and cool-down are singletons.
type Step struct {
	Kind StepKind

	// ExerciseKind and Ordinal are meaningful only for StepExercise.
	ExerciseKind program.ExecutionType
	Ordinal      int
}

// WarmUpStep returns the warm-up boundary step.
func WarmUpStep() Step { return Step{Kind: StepWarmUp} }

// CoolDownStep returns the cool-down boundary step.
func CoolDownStep() Step { return Step{Kind: StepCoolDown} }

// ExerciseStep returns the exercise step with the given kind and ordinal.
func ExerciseStep(kind program.ExecutionType, ordinal int) Step {
	return Step{Kind: StepExercise, ExerciseKind: kind, Ordinal: ordinal}
}

// IsBoundary reports whether the step is warm-up or cool-down.
func (s Step) IsBoundary() bool { return s.Kind != StepExercise }

func (s Step) String() string {
	switch s.Kind {
	case StepWarmUp:
		return "warm-up"
	case StepCoolDown:
		return "cool-down"
	default:
		return fmt.Sprintf("%s #%d", s.ExerciseKind, s.Ordinal)
	}
}

// StepStatus is the lifecycle of one step within a session.
type StepStatus int

const (
	StatusInactive StepStatus = iota
	StatusActive
	StatusCompleted
)

func (s StepStatus) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	}
	return "unknown"
}

// StepState pairs a step with its current status.
type StepState struct {
	Step   Step
	Status StepStatus
}

// buildSteps derives the ordered step list from the effective program shape.
// The list always starts with warm-up and ends with cool-down.
//
// Circuit: plannedCount exercise steps (none when plannedCount is absent or
// non-positive). Sets: setsPerExercise consecutive steps per exercise with a
// global ordinal running across exercises; turbo-with-sets degenerates to one
// set per exercise regardless of plannedCount.
func buildSteps(effective program.ExecutionType, exerciseCount int, plannedCount *int, turboWithSets bool) []Step {
	planned := 0
	if plannedCount != nil {
		planned = *plannedCount
	}

	steps := []Step{WarmUpStep()}
	switch effective {
	case program.ExecutionSets:
		setsPerExercise := planned
		if turboWithSets {
			setsPerExercise = 1
		}
		ordinal := 0
		for i := 0; i < exerciseCount; i++ {
			for s := 0; s < setsPerExercise; s++ {
				ordinal++
				steps = append(steps, ExerciseStep(program.ExecutionSets, ordinal))
			}
		}
	default: // circuit
		for i := 1; i <= planned; i++ {
			steps = append(steps, ExerciseStep(program.ExecutionCircuit, i))
		}
	}
	return append(steps, CoolDownStep())
}
