package workout

import (
	"log"
	"sync"
	"time"

	"github.com/hundredday/companion/internal/events"
	"github.com/hundredday/companion/internal/program"
)

// Config carries everything needed to start a session. Clock is optional and
// defaults to time.Now; tests inject their own.
type Config struct {
	Day           int
	ExecutionType program.ExecutionType // nominal type, turbo allowed
	TurboRule     program.TurboRule
	Exercises     []program.ExerciseRef
	PlannedCount  *int
	RestSeconds   int
	Clock         func() time.Time
	Logger        *log.Logger
}

// restInterval is the ephemeral open period between completing one exercise
// step and activating the next. The generation guards against a stale timer
// callback resolving a newer interval.
type restInterval struct {
	startedAt  time.Time
	generation uint64
}

// Session is the state machine for one workout. Methods never return errors:
// invalid calls are precondition-guarded no-ops. All mutation is serialized
// behind one mutex; notifications fire outside it.
type Session struct {
	logger *log.Logger
	now    func() time.Time

	mu            sync.Mutex
	day           int
	nominalType   program.ExecutionType
	effectiveType program.ExecutionType
	exercises     []program.ExerciseRef
	restDuration  time.Duration

	steps    []Step
	statuses []StepStatus
	cursor   int

	startedAt time.Time
	hasStart  bool

	rest            *restInterval
	restGen         uint64
	restTimer       *time.Timer
	accumulatedRest time.Duration

	restSignal *events.ChannelEvent[bool]
}

// NewSession builds the step list from the program shape, activates the first
// step and records the start timestamp.
func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		panic("Session: logger cannot be nil")
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	effective := program.EffectiveType(cfg.TurboRule, cfg.Day, cfg.ExecutionType)
	turboWithSets := program.IsTurboWithSets(cfg.TurboRule, cfg.Day, cfg.ExecutionType)
	exercises := program.CopyExercises(cfg.Exercises)
	program.SortByOrder(exercises)

	steps := buildSteps(effective, len(exercises), cfg.PlannedCount, turboWithSets)
	statuses := make([]StepStatus, len(steps))
	statuses[0] = StatusActive

	s := &Session{
		logger:        cfg.Logger,
		now:           now,
		day:           cfg.Day,
		nominalType:   cfg.ExecutionType,
		effectiveType: effective,
		exercises:     exercises,
		restDuration:  time.Duration(cfg.RestSeconds) * time.Second,
		steps:         steps,
		statuses:      statuses,
		startedAt:     now(),
		hasStart:      true,
		restSignal:    events.NewChannelEvent[bool](true),
	}
	s.logger.Printf("Session: day %d started as %s (%d steps, rest %v)",
		cfg.Day, effective, len(steps), s.restDuration)
	return s
}

// Day returns the program day this session runs.
func (s *Session) Day() int { return s.day }

// EffectiveType returns the concrete shape the session runs in.
func (s *Session) EffectiveType() program.ExecutionType { return s.effectiveType }

// ListenToRestSignal registers a channel receiving true when the rest timer
// should be shown and false when it resolves. Returns the deregistration
// function.
func (s *Session) ListenToRestSignal(ch chan<- bool) func() {
	return s.restSignal.Listen(ch)
}

// Steps returns a copy of the step list with current statuses.
func (s *Session) Steps() []StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StepState, len(s.steps))
	for i, step := range s.steps {
		out[i] = StepState{Step: step, Status: s.statuses[i]}
	}
	return out
}

// StateOf looks a step up by structural identity.
func (s *Session) StateOf(step Step) (StepStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.steps {
		if candidate == step {
			return s.statuses[i], true
		}
	}
	return StatusInactive, false
}

// CurrentStep returns the step at the cursor, false once all steps are done.
func (s *Session) CurrentStep() (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.steps) {
		return Step{}, false
	}
	return s.steps[s.cursor], true
}

// RestPending reports whether a rest interval is currently open.
func (s *Session) RestPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rest != nil
}

// IsCompleted reports whether every step is completed. Monotone within a
// session: once true it never reverts.
func (s *Session) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCompletedLocked()
}

func (s *Session) isCompletedLocked() bool {
	for _, status := range s.statuses {
		if status != StatusCompleted {
			return false
		}
	}
	return true
}

// CompleteCurrentStep marks the step at the cursor completed and advances.
// Completing warm-up, or a step directly before cool-down, activates the next
// step immediately; completing any other step with a successor opens a rest
// interval and the next step stays inactive until the rest resolves.
// A no-op once every step is completed.
func (s *Session) CompleteCurrentStep() {
	s.mu.Lock()
	if s.cursor >= len(s.steps) {
		s.mu.Unlock()
		return
	}

	// A force-completed step cancels whatever rest was outstanding.
	s.cancelRestLocked()

	completed := s.steps[s.cursor]
	s.statuses[s.cursor] = StatusCompleted
	s.cursor++

	showRest := false
	if s.cursor < len(s.steps) {
		next := s.steps[s.cursor]
		if completed.Kind == StepWarmUp || next.Kind == StepCoolDown {
			s.statuses[s.cursor] = StatusActive
		} else {
			s.openRestLocked()
			showRest = true
		}
	}
	done := s.isCompletedLocked()
	s.mu.Unlock()

	s.logger.Printf("Session: completed %s", completed)
	if showRest {
		s.restSignal.Notify(true)
	}
	if done {
		s.logger.Printf("Session: all steps completed")
	}
}

// openRestLocked replaces any outstanding interval with a fresh one and
// schedules its expiry timer. Must be called with mu held.
func (s *Session) openRestLocked() {
	s.cancelRestLocked()
	s.restGen++
	s.rest = &restInterval{startedAt: s.now(), generation: s.restGen}
	if s.restDuration > 0 {
		gen := s.restGen
		s.restTimer = time.AfterFunc(s.restDuration, func() { s.restTimerFired(gen) })
	}
	s.logger.Printf("Session: rest interval opened (%v)", s.restDuration)
}

// cancelRestLocked stops the timer and closes the interval without resolving
// it. Must be called with mu held.
func (s *Session) cancelRestLocked() {
	if s.restTimer != nil {
		s.restTimer.Stop()
		s.restTimer = nil
	}
	s.rest = nil
}

// restTimerFired is the scheduled expiry callback. The generation check keeps
// a stale callback from resolving a newer interval.
func (s *Session) restTimerFired(generation uint64) {
	s.mu.Lock()
	if s.rest == nil || s.rest.generation != generation {
		s.mu.Unlock()
		return
	}
	s.resolveRestLocked()
	s.mu.Unlock()

	s.restSignal.Notify(false)
}

// HandleRestTimerFinish resolves the open rest interval: actual elapsed rest
// is accumulated from the wall clock and the step at the cursor activates.
// Idempotent: a duplicate finish signal with no interval open is a no-op.
func (s *Session) HandleRestTimerFinish() {
	s.mu.Lock()
	if s.rest == nil {
		s.mu.Unlock()
		return
	}
	s.resolveRestLocked()
	s.mu.Unlock()

	s.restSignal.Notify(false)
}

// HandleAppResume recovers from a suspend gap. Ticks stop while the process
// is suspended, so expiry is detected from stored timestamps: if the open
// interval's wall-clock age has reached the configured rest duration, it is
// force-resolved exactly like a timer finish.
func (s *Session) HandleAppResume() {
	s.mu.Lock()
	if s.rest == nil || s.now().Sub(s.rest.startedAt) < s.restDuration {
		s.mu.Unlock()
		return
	}
	s.logger.Printf("Session: rest expired during suspend, resolving")
	s.resolveRestLocked()
	s.mu.Unlock()

	s.restSignal.Notify(false)
}

// resolveRestLocked accumulates the actual elapsed rest, closes the interval
// and activates the step at the cursor. Must be called with mu held.
func (s *Session) resolveRestLocked() {
	elapsed := s.now().Sub(s.rest.startedAt)
	if elapsed > 0 {
		s.accumulatedRest += elapsed
	}
	s.cancelRestLocked()
	if s.cursor < len(s.steps) {
		s.statuses[s.cursor] = StatusActive
	}
	s.logger.Printf("Session: rest resolved after %v (total %v)", elapsed, s.accumulatedRest)
}

// Result computes the terminal outcome. Without interrupt it requires the
// session to be fully completed and returns nil otherwise; nil means "not
// ready", not an error. CompletedUnits counts completed exercise steps when
// interrupting, all exercise steps when finishing normally. A pending rest
// interval is cancelled either way.
func (s *Session) Result(interrupt bool) *program.WorkoutResult {
	s.mu.Lock()
	hadRest := s.rest != nil
	s.cancelRestLocked()

	if !interrupt && !s.isCompletedLocked() {
		s.mu.Unlock()
		if hadRest {
			s.restSignal.Notify(false)
		}
		return nil
	}

	completedUnits := 0
	for i, step := range s.steps {
		if step.Kind != StepExercise {
			continue
		}
		if !interrupt || s.statuses[i] == StatusCompleted {
			completedUnits++
		}
	}

	result := &program.WorkoutResult{CompletedUnits: completedUnits}
	if s.hasStart {
		seconds := int((s.now().Sub(s.startedAt) + s.accumulatedRest).Seconds())
		result.DurationSeconds = &seconds
	}
	s.mu.Unlock()

	if hadRest {
		s.restSignal.Notify(false)
	}
	s.logger.Printf("Session: result computed (interrupt=%t, units=%d)", interrupt, completedUnits)
	return result
}
