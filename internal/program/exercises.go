package program

import (
	"sort"

	"github.com/google/uuid"
)

// NewStandardExercise builds an ExerciseRef backed by a standard exercise type.
func NewStandardExercise(standardTypeID int, repCount *int, order int) ExerciseRef {
	return ExerciseRef{
		ID:             uuid.NewString(),
		RepCount:       repCount,
		StandardTypeID: &standardTypeID,
		Order:          order,
	}
}

// NewCustomExercise builds an ExerciseRef backed by a user-defined exercise type.
func NewCustomExercise(customTypeID string, repCount *int, order int) ExerciseRef {
	return ExerciseRef{
		ID:           uuid.NewString(),
		RepCount:     repCount,
		CustomTypeID: &customTypeID,
		Order:        order,
	}
}

// CopyExercises returns a deep copy of the list. Sessions copy the supplied
// exercises so that session-local edits never reach the caller's slice.
func CopyExercises(exercises []ExerciseRef) []ExerciseRef {
	out := make([]ExerciseRef, len(exercises))
	for i, ex := range exercises {
		out[i] = ex
		if ex.RepCount != nil {
			v := *ex.RepCount
			out[i].RepCount = &v
		}
		if ex.StandardTypeID != nil {
			v := *ex.StandardTypeID
			out[i].StandardTypeID = &v
		}
		if ex.CustomTypeID != nil {
			v := *ex.CustomTypeID
			out[i].CustomTypeID = &v
		}
	}
	return out
}

// SortByOrder sorts the list by its Order field, in place.
func SortByOrder(exercises []ExerciseRef) {
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].Order < exercises[j].Order
	})
}

// NormalizeOrder rewrites Order to the current slice positions. Called after
// any mutation of the list so that ordering stays dense and significant.
func NormalizeOrder(exercises []ExerciseRef) {
	for i := range exercises {
		exercises[i].Order = i
	}
}
