package gateway

import (
	"github.com/hundredday/companion/internal/program"
)

// RemoteState is the last fully-processed status of the paired device. It is
// owned exclusively by the Gateway and exists for deduplication: authorization
// is re-emitted only when it differs from the snapshot, while day and activity
// are re-emitted whenever present, because downstream loads depend on them
// even when the value is numerically unchanged.
type RemoteState struct {
	IsAuthorized    bool
	CurrentDay      *int
	CurrentActivity *program.ActivityType
}

// clone returns a copy safe to hand out of the gateway.
func (s RemoteState) clone() RemoteState {
	out := RemoteState{IsAuthorized: s.IsAuthorized}
	if s.CurrentDay != nil {
		v := *s.CurrentDay
		out.CurrentDay = &v
	}
	if s.CurrentActivity != nil {
		v := *s.CurrentActivity
		out.CurrentActivity = &v
	}
	return out
}

// stateChanges describes what an inbound update asks the gateway to emit.
// Computing the diff first and emitting afterwards keeps notification free of
// hidden re-entrancy into the snapshot.
type stateChanges struct {
	authChanged bool
	auth        bool

	dayPresent bool
	day        int

	activityPresent bool
	activity        program.ActivityType
}

// merge applies an update to the snapshot in place and reports what to emit.
// Authorization follows the dedup rule; day/activity are emitted whenever the
// update carries them. The snapshot itself is always updated.
func (s *RemoteState) merge(authorized *bool, day *int, activity *program.ActivityType) stateChanges {
	var ch stateChanges
	if authorized != nil {
		if *authorized != s.IsAuthorized {
			ch.authChanged = true
			ch.auth = *authorized
		}
		s.IsAuthorized = *authorized
	}
	if day != nil {
		ch.dayPresent = true
		ch.day = *day
		v := *day
		s.CurrentDay = &v
	}
	if activity != nil {
		ch.activityPresent = true
		ch.activity = *activity
		v := *activity
		s.CurrentActivity = &v
	}
	return ch
}
