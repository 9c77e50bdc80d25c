package program

// ExecutionType describes the shape a training day is executed in.
type ExecutionType int

// Define the constants related to the type
const (
	ExecutionCircuit ExecutionType = 1 // fixed number of circuits, all exercises per circuit
	ExecutionSets    ExecutionType = 2 // per-exercise sets, one exercise at a time
	ExecutionTurbo   ExecutionType = 3 // resolves to circuit or sets depending on the day
)

// IsValid reports whether the value is one of the known execution types.
func (t ExecutionType) IsValid() bool {
	switch t {
	case ExecutionCircuit, ExecutionSets, ExecutionTurbo:
		return true
	}
	return false
}

func (t ExecutionType) String() string {
	switch t {
	case ExecutionCircuit:
		return "circuit"
	case ExecutionSets:
		return "sets"
	case ExecutionTurbo:
		return "turbo"
	}
	return "unknown"
}

// ActivityType is the activity a user selected for a program day.
type ActivityType int

const (
	ActivityTraining   ActivityType = 1
	ActivityRest       ActivityType = 2
	ActivityStretching ActivityType = 3
)

// IsValid reports whether the value is one of the known activity types.
func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityTraining, ActivityRest, ActivityStretching:
		return true
	}
	return false
}

func (a ActivityType) String() string {
	switch a {
	case ActivityTraining:
		return "training"
	case ActivityRest:
		return "rest"
	case ActivityStretching:
		return "stretching"
	}
	return "unknown"
}

// ExerciseRef is one exercise entry of a program day. The ID is session-local;
// display metadata lives behind StandardTypeID/CustomTypeID lookups in the
// persistence layer, which this package never touches.
// At most one of StandardTypeID/CustomTypeID is set.
type ExerciseRef struct {
	ID             string
	RepCount       *int
	StandardTypeID *int
	CustomTypeID   *string
	Order          int
}

// WorkoutProgram is a server-provided program definition for one day.
// Immutable once received.
type WorkoutProgram struct {
	Day           int
	ExecutionType ExecutionType
	Exercises     []ExerciseRef
	PlannedCount  *int
}

// WorkoutResult is the terminal outcome of one workout session.
// DurationSeconds is nil only if the session start time was never recorded.
type WorkoutResult struct {
	CompletedUnits  int
	DurationSeconds *int
}

// Provider resolves the program definition for a day.
// Implemented by the program-content layer, outside this module.
type Provider interface {
	ProgramForDay(day int) (WorkoutProgram, error)
}
