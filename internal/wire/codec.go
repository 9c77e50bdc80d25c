package wire

import (
	"fmt"

	"github.com/hundredday/companion/internal/program"
)

// Encode serializes a command into the platform payload shape. Encoding is
// pure; the only failure mode is a command carrying an out-of-vocabulary code,
// which indicates a programming error on the sending side.
func Encode(cmd Command) (Payload, error) {
	switch c := cmd.(type) {
	case SetActivity:
		if !c.Activity.IsValid() {
			return nil, fmt.Errorf("encode %s: invalid activity type %d", c.Tag(), c.Activity)
		}
		return Payload{
			keyCommand:      c.Tag(),
			keyDay:          c.Day,
			keyActivityType: int(c.Activity),
		}, nil

	case SaveWorkout:
		if !c.ExecutionType.IsValid() {
			return nil, fmt.Errorf("encode %s: invalid execution type %d", c.Tag(), c.ExecutionType)
		}
		p := Payload{
			keyCommand:       c.Tag(),
			keyDay:           c.Day,
			keyCount:         c.Result.CompletedUnits,
			keyExecutionType: int(c.ExecutionType),
			keyExercises:     encodeExercises(c.Exercises),
		}
		putOptInt(p, keyDuration, c.Result.DurationSeconds)
		putOptString(p, keyComment, c.Comment)
		return p, nil

	case GetCurrentActivity:
		return Payload{keyCommand: c.Tag(), keyDay: c.Day}, nil

	case GetWorkoutData:
		return Payload{keyCommand: c.Tag(), keyDay: c.Day}, nil

	case DeleteActivity:
		return Payload{keyCommand: c.Tag(), keyDay: c.Day}, nil

	case CurrentActivity:
		p := Payload{keyCommand: c.Tag()}
		if c.Activity != nil {
			if !c.Activity.IsValid() {
				return nil, fmt.Errorf("encode %s: invalid activity type %d", c.Tag(), *c.Activity)
			}
			p[keyActivityType] = int(*c.Activity)
		}
		return p, nil

	case SendWorkoutData:
		if !c.ExecutionType.IsValid() {
			return nil, fmt.Errorf("encode %s: invalid execution type %d", c.Tag(), c.ExecutionType)
		}
		p := Payload{
			keyCommand:       c.Tag(),
			keyDay:           c.Day,
			keyExecutionType: int(c.ExecutionType),
			keyExercises:     encodeExercises(c.Exercises),
		}
		putOptInt(p, keyPlannedCount, c.PlannedCount)
		putOptInt(p, keyExecutionCount, c.ExecutionCount)
		putOptString(p, keyComment, c.Comment)
		return p, nil

	case AuthStatus:
		p := Payload{
			keyCommand:      c.Tag(),
			keyIsAuthorized: c.IsAuthorized,
		}
		putOptInt(p, keyCurrentDay, c.CurrentDay)
		if c.CurrentActivity != nil {
			if !c.CurrentActivity.IsValid() {
				return nil, fmt.Errorf("encode %s: invalid activity type %d", c.Tag(), *c.CurrentActivity)
			}
			p[keyCurrentActivity] = int(*c.CurrentActivity)
		}
		return p, nil

	case CurrentDay:
		return Payload{keyCommand: c.Tag(), keyCurrentDay: c.Day}, nil
	}

	return nil, fmt.Errorf("encode: unknown command type %T", cmd)
}

// Decode parses a payload back into a command. Decoding is total: any
// structurally invalid payload, unknown tag or missing required field yields
// nil, never a panic. Callers log and drop nil results.
func Decode(p Payload) Command {
	if p == nil {
		return nil
	}
	tag, ok := asString(p[keyCommand])
	if !ok {
		return nil
	}

	switch tag {
	case TagSetActivity:
		day, ok := asInt(p[keyDay])
		if !ok {
			return nil
		}
		act, ok := asActivityType(p[keyActivityType])
		if !ok {
			return nil
		}
		return SetActivity{Day: day, Activity: act}

	case TagSaveWorkout:
		day, ok := asInt(p[keyDay])
		if !ok {
			return nil
		}
		count, ok := asInt(p[keyCount])
		if !ok {
			return nil
		}
		execType, ok := asExecutionType(p[keyExecutionType])
		if !ok {
			return nil
		}
		exercises, ok := decodeExercises(p[keyExercises])
		if !ok {
			return nil
		}
		c := SaveWorkout{
			Day:           day,
			Result:        program.WorkoutResult{CompletedUnits: count},
			ExecutionType: execType,
			Exercises:     exercises,
		}
		c.Result.DurationSeconds = optInt(p, keyDuration)
		c.Comment = optString(p, keyComment)
		return c

	case TagGetCurrentActivity:
		day, ok := asInt(p[keyDay])
		if !ok {
			return nil
		}
		return GetCurrentActivity{Day: day}

	case TagGetWorkoutData:
		day, ok := asInt(p[keyDay])
		if !ok {
			return nil
		}
		return GetWorkoutData{Day: day}

	case TagDeleteActivity:
		day, ok := asInt(p[keyDay])
		if !ok {
			return nil
		}
		return DeleteActivity{Day: day}

	case TagCurrentActivity:
		c := CurrentActivity{}
		if _, present := p[keyActivityType]; present {
			act, ok := asActivityType(p[keyActivityType])
			if !ok {
				return nil
			}
			c.Activity = &act
		}
		return c

	case TagSendWorkoutData:
		day, ok := asInt(p[keyDay])
		if !ok {
			return nil
		}
		execType, ok := asExecutionType(p[keyExecutionType])
		if !ok {
			return nil
		}
		exercises, ok := decodeExercises(p[keyExercises])
		if !ok {
			return nil
		}
		c := SendWorkoutData{
			Day:           day,
			ExecutionType: execType,
			Exercises:     exercises,
		}
		c.PlannedCount = optInt(p, keyPlannedCount)
		c.ExecutionCount = optInt(p, keyExecutionCount)
		c.Comment = optString(p, keyComment)
		return c

	case TagAuthStatus:
		authorized, ok := asBool(p[keyIsAuthorized])
		if !ok {
			return nil
		}
		c := AuthStatus{IsAuthorized: authorized}
		c.CurrentDay = optInt(p, keyCurrentDay)
		if _, present := p[keyCurrentActivity]; present {
			act, ok := asActivityType(p[keyCurrentActivity])
			if !ok {
				return nil
			}
			c.CurrentActivity = &act
		}
		return c

	case TagCurrentDay:
		day, ok := asInt(p[keyCurrentDay])
		if !ok {
			return nil
		}
		return CurrentDay{Day: day}
	}

	return nil
}

// Tag extracts the command tag from a payload without decoding the rest.
// Returns "" if the payload carries no recognizable tag.
func Tag(p Payload) string {
	tag, _ := asString(p[keyCommand])
	return tag
}

// --- wire exercise encoding ---

func encodeExercises(exercises []Exercise) []any {
	out := make([]any, 0, len(exercises))
	for _, ex := range exercises {
		entry := Payload{}
		putOptInt(entry, keyCount, ex.Count)
		putOptInt(entry, keyStandardTypeID, ex.StandardTypeID)
		putOptString(entry, keyCustomTypeID, ex.CustomTypeID)
		putOptInt(entry, keySortOrder, ex.SortOrder)
		out = append(out, entry)
	}
	return out
}

func decodeExercises(v any) ([]Exercise, bool) {
	if v == nil {
		return []Exercise{}, true
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Exercise, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		ex := Exercise{
			Count:          optInt(entry, keyCount),
			StandardTypeID: optInt(entry, keyStandardTypeID),
			CustomTypeID:   optString(entry, keyCustomTypeID),
			SortOrder:      optInt(entry, keySortOrder),
		}
		out = append(out, ex)
	}
	return out, true
}

// --- domain conversions ---

// ToExerciseRefs converts wire entries into domain refs with freshly minted
// session-local ids. Entries are ordered by SortOrder when present, otherwise
// by wire position, and Order is recomputed densely.
func ToExerciseRefs(exercises []Exercise) []program.ExerciseRef {
	refs := make([]program.ExerciseRef, 0, len(exercises))
	for i, ex := range exercises {
		order := i
		if ex.SortOrder != nil {
			order = *ex.SortOrder
		}
		var ref program.ExerciseRef
		switch {
		case ex.StandardTypeID != nil:
			ref = program.NewStandardExercise(*ex.StandardTypeID, ex.Count, order)
		case ex.CustomTypeID != nil:
			ref = program.NewCustomExercise(*ex.CustomTypeID, ex.Count, order)
		default:
			ref = program.ExerciseRef{RepCount: ex.Count, Order: order}
		}
		refs = append(refs, ref)
	}
	program.SortByOrder(refs)
	program.NormalizeOrder(refs)
	return refs
}

// FromExerciseRefs converts domain refs into their wire form, dropping the
// session-local id.
func FromExerciseRefs(refs []program.ExerciseRef) []Exercise {
	out := make([]Exercise, 0, len(refs))
	for _, ref := range refs {
		order := ref.Order
		out = append(out, Exercise{
			Count:          ref.RepCount,
			StandardTypeID: ref.StandardTypeID,
			CustomTypeID:   ref.CustomTypeID,
			SortOrder:      &order,
		})
	}
	return out
}

// --- value coercion ---

// asInt accepts every numeric shape the platform channel may hand back.
// Floats are accepted only when integral.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		if n == float32(int(n)) {
			return int(n), true
		}
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asActivityType(v any) (program.ActivityType, bool) {
	n, ok := asInt(v)
	if !ok {
		return 0, false
	}
	act := program.ActivityType(n)
	if !act.IsValid() {
		return 0, false
	}
	return act, true
}

func asExecutionType(v any) (program.ExecutionType, bool) {
	n, ok := asInt(v)
	if !ok {
		return 0, false
	}
	execType := program.ExecutionType(n)
	if !execType.IsValid() {
		return 0, false
	}
	return execType, true
}

func optInt(p map[string]any, key string) *int {
	if v, ok := asInt(p[key]); ok {
		return &v
	}
	return nil
}

func optString(p map[string]any, key string) *string {
	if v, ok := asString(p[key]); ok {
		return &v
	}
	return nil
}

func putOptInt(p Payload, key string, v *int) {
	if v != nil {
		p[key] = *v
	}
}

func putOptString(p Payload, key string, v *string) {
	if v != nil {
		p[key] = *v
	}
}
