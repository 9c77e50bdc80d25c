package main

import (
	"log"
	"sync"

	"github.com/hundredday/companion/internal/peer"
	"github.com/hundredday/companion/internal/program"
	"github.com/hundredday/companion/internal/wire"
)

// hostSim plays the phone side of the protocol for the simulation: it answers
// the device's requests from an in-memory day table and broadcasts an
// authorization context on start.
type hostSim struct {
	link   peer.Link
	logger *log.Logger

	mu         sync.Mutex
	activities map[int]program.ActivityType
	results    map[int]program.WorkoutResult
}

func newHostSim(link peer.Link, logger *log.Logger) *hostSim {
	return &hostSim{
		link:       link,
		logger:     logger,
		activities: make(map[int]program.ActivityType),
		results:    make(map[int]program.WorkoutResult),
	}
}

// turboRule returns the simulation's day rule: every seventh day runs turbo
// as sets. The real rule ships with the program content, not with this binary.
func (h *hostSim) turboRule() program.TurboRule {
	return program.TurboRuleFunc(func(day int) program.ExecutionType {
		if day%7 == 0 {
			return program.ExecutionSets
		}
		return program.ExecutionCircuit
	})
}

func (h *hostSim) start() {
	h.link.SetRequestHandler(h.handleRequest)
	h.link.SetMessageHandler(func(p peer.Payload) {
		h.logger.Printf("hostSim: one-way message (tag %q)", wire.Tag(p))
	})

	day := 1
	authCtx, err := wire.Encode(wire.AuthStatus{IsAuthorized: true, CurrentDay: &day})
	if err != nil {
		h.logger.Printf("hostSim: encode auth context: %v", err)
		return
	}
	if err := h.link.PublishContext(authCtx); err != nil {
		h.logger.Printf("hostSim: publish context: %v", err)
	}
}

func (h *hostSim) handleRequest(p peer.Payload) peer.Payload {
	cmd := wire.Decode(p)
	if cmd == nil {
		h.logger.Printf("hostSim: dropping unrecognized request (tag %q)", wire.Tag(p))
		return peer.Payload{}
	}

	switch c := cmd.(type) {
	case wire.SetActivity:
		h.mu.Lock()
		h.activities[c.Day] = c.Activity
		h.mu.Unlock()
		h.logger.Printf("hostSim: day %d activity set to %s", c.Day, c.Activity)
		return peer.Payload{}

	case wire.GetCurrentActivity:
		h.mu.Lock()
		activity, ok := h.activities[c.Day]
		h.mu.Unlock()
		reply := wire.CurrentActivity{}
		if ok {
			reply.Activity = &activity
		}
		return h.encodeReply(reply)

	case wire.GetWorkoutData:
		return h.encodeReply(h.workoutDataForDay(c.Day))

	case wire.SaveWorkout:
		h.mu.Lock()
		h.results[c.Day] = c.Result
		h.mu.Unlock()
		h.logger.Printf("hostSim: day %d result saved (%d units)", c.Day, c.Result.CompletedUnits)
		return peer.Payload{}

	case wire.DeleteActivity:
		h.mu.Lock()
		delete(h.activities, c.Day)
		h.mu.Unlock()
		return peer.Payload{}
	}

	h.logger.Printf("hostSim: unhandled request %s", cmd.Tag())
	return peer.Payload{}
}

// workoutDataForDay fabricates a plausible program day: four circuits over
// four bodyweight exercises, turbo on every seventh day.
func (h *hostSim) workoutDataForDay(day int) wire.SendWorkoutData {
	execType := program.ExecutionCircuit
	if day%7 == 0 {
		execType = program.ExecutionTurbo
	}
	planned := 4
	exercises := make([]wire.Exercise, 0, 4)
	for i, standardType := range []int{1, 2, 3, 4} {
		count := 10 + 2*i
		order := i
		st := standardType
		exercises = append(exercises, wire.Exercise{
			Count:          &count,
			StandardTypeID: &st,
			SortOrder:      &order,
		})
	}
	return wire.SendWorkoutData{
		Day:           day,
		ExecutionType: execType,
		Exercises:     exercises,
		PlannedCount:  &planned,
	}
}

func (h *hostSim) encodeReply(cmd wire.Command) peer.Payload {
	p, err := wire.Encode(cmd)
	if err != nil {
		h.logger.Printf("hostSim: encode reply %s: %v", cmd.Tag(), err)
		return peer.Payload{}
	}
	return p
}
