package workout

import (
	"github.com/hundredday/companion/internal/program"
)

// Session-local exercise edits. The session works on its own copy of the
// exercise list; nothing here propagates to the source list. An explicit
// save (pushing the result with Exercises()) is the only way out.

// Exercises returns a copy of the session's current exercise list.
func (s *Session) Exercises() []program.ExerciseRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return program.CopyExercises(s.exercises)
}

// SetExerciseRepCount updates the rep count of the exercise with the given
// session-local id. A count of zero or less removes the entry. Ordering is
// recomputed after any removal. Returns false if the id is unknown.
func (s *Session) SetExerciseRepCount(id string, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.exercises {
		if s.exercises[i].ID != id {
			continue
		}
		if count <= 0 {
			s.exercises = append(s.exercises[:i], s.exercises[i+1:]...)
			program.NormalizeOrder(s.exercises)
			s.logger.Printf("Session: exercise %s removed at zero count", id)
		} else {
			v := count
			s.exercises[i].RepCount = &v
		}
		return true
	}
	return false
}

// MoveExercise moves the exercise with the given id to a new position and
// recomputes ordering. Out-of-range targets are clamped. Returns false if the
// id is unknown.
func (s *Session) MoveExercise(id string, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := -1
	for i := range s.exercises {
		if s.exercises[i].ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return false
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(s.exercises) {
		toIndex = len(s.exercises) - 1
	}
	ex := s.exercises[from]
	s.exercises = append(s.exercises[:from], s.exercises[from+1:]...)
	s.exercises = append(s.exercises[:toIndex], append([]program.ExerciseRef{ex}, s.exercises[toIndex:]...)...)
	program.NormalizeOrder(s.exercises)
	return true
}
