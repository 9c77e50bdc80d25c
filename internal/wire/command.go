package wire

import (
	"github.com/hundredday/companion/internal/program"
)

// Payload is the key-value shape the platform message channel carries.
// Values survive a platform re-encode, so numeric fields may come back as
// int, int64 or float64 and decoders must tolerate all of them.
type Payload = map[string]any

// Command tag values. The tag is the first thing a receiver inspects;
// a payload without a known tag is dropped.
const (
	keyCommand = "command"

	TagSetActivity        = "SET_ACTIVITY"
	TagSaveWorkout        = "SAVE_WORKOUT"
	TagGetCurrentActivity = "GET_CURRENT_ACTIVITY"
	TagGetWorkoutData     = "GET_WORKOUT_DATA"
	TagDeleteActivity     = "DELETE_ACTIVITY"

	TagCurrentActivity = "CURRENT_ACTIVITY"
	TagSendWorkoutData = "SEND_WORKOUT_DATA"
	TagAuthStatus      = "AUTH_STATUS"
	TagCurrentDay      = "CURRENT_DAY"
)

// Field keys shared by the command vocabulary.
const (
	keyDay             = "day"
	keyActivityType    = "activityTypeCode"
	keyExecutionType   = "executionTypeCode"
	keyCount           = "count"
	keyDuration        = "duration"
	keyComment         = "comment"
	keyExercises       = "exercises"
	keyPlannedCount    = "plannedCount"
	keyExecutionCount  = "executionCount"
	keyIsAuthorized    = "isAuthorized"
	keyCurrentDay      = "currentDay"
	keyCurrentActivity = "currentActivityCode"
	keyStandardTypeID  = "standardTypeId"
	keyCustomTypeID    = "customTypeId"
	keySortOrder       = "sortOrder"
)

// Command is one named operation exchanged between the paired devices.
// The set is closed: every variant lives in this package and decode sites
// switch over it exhaustively.
type Command interface {
	// Tag returns the wire tag identifying the variant.
	Tag() string

	isCommand()
}

// Exercise is the wire form of one exercise entry. It deliberately carries no
// session-local ID; receivers mint their own when converting to the domain type.
type Exercise struct {
	Count          *int
	StandardTypeID *int
	CustomTypeID   *string
	SortOrder      *int
}

// --- device -> host ---

// SetActivity records the activity the user picked for a day.
type SetActivity struct {
	Day      int
	Activity program.ActivityType
}

// SaveWorkout pushes a finished (or interrupted) workout result to the host.
type SaveWorkout struct {
	Day           int
	Result        program.WorkoutResult
	ExecutionType program.ExecutionType
	Exercises     []Exercise
	Comment       *string
}

// GetCurrentActivity asks the host which activity is set for a day.
type GetCurrentActivity struct {
	Day int
}

// GetWorkoutData asks the host for the workout payload of a day.
type GetWorkoutData struct {
	Day int
}

// DeleteActivity asks the host to clear the recorded activity for a day.
type DeleteActivity struct {
	Day int
}

// --- host -> device ---

// CurrentActivity is the reply to GetCurrentActivity. A nil Activity means
// "not yet set".
type CurrentActivity struct {
	Activity *program.ActivityType
}

// SendWorkoutData carries a day's workout definition to the device, either as
// the reply to GetWorkoutData or as an unsolicited push.
type SendWorkoutData struct {
	Day            int
	ExecutionType  program.ExecutionType
	Exercises      []Exercise
	PlannedCount   *int
	ExecutionCount *int
	Comment        *string
}

// AuthStatus is the host's authorization/day snapshot broadcast.
type AuthStatus struct {
	IsAuthorized    bool
	CurrentDay      *int
	CurrentActivity *program.ActivityType
}

// CurrentDay announces the host's current program day.
type CurrentDay struct {
	Day int
}

func (SetActivity) Tag() string        { return TagSetActivity }
func (SaveWorkout) Tag() string        { return TagSaveWorkout }
func (GetCurrentActivity) Tag() string { return TagGetCurrentActivity }
func (GetWorkoutData) Tag() string     { return TagGetWorkoutData }
func (DeleteActivity) Tag() string     { return TagDeleteActivity }
func (CurrentActivity) Tag() string    { return TagCurrentActivity }
func (SendWorkoutData) Tag() string    { return TagSendWorkoutData }
func (AuthStatus) Tag() string         { return TagAuthStatus }
func (CurrentDay) Tag() string         { return TagCurrentDay }

func (SetActivity) isCommand()        {}
func (SaveWorkout) isCommand()        {}
func (GetCurrentActivity) isCommand() {}
func (GetWorkoutData) isCommand()     {}
func (DeleteActivity) isCommand()     {}
func (CurrentActivity) isCommand()    {}
func (SendWorkoutData) isCommand()    {}
func (AuthStatus) isCommand()         {}
func (CurrentDay) isCommand()         {}
