// Package gateway is the protocol engine between this device and its paired
// peer. It owns the RemoteState snapshot, applies the deduplication rule to
// inbound status updates, and exposes the typed request/response operations
// the rest of the app uses instead of raw payloads.
package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/hundredday/companion/internal/events"
	"github.com/hundredday/companion/internal/peer"
	"github.com/hundredday/companion/internal/program"
	"github.com/hundredday/companion/internal/safego"
	"github.com/hundredday/companion/internal/wire"
)

// ProgramBundle is a decoded workout-program payload: the reply to a program
// request, or an unsolicited push from the peer.
type ProgramBundle struct {
	Day            int
	ExecutionType  program.ExecutionType
	Exercises      []program.ExerciseRef
	PlannedCount   *int
	ExecutionCount *int
	Comment        *string
}

// Gateway deduplicates inbound peer state and exposes typed operations over
// the link. All snapshot mutation happens on one serial goroutine; the link's
// callbacks only enqueue work onto it.
type Gateway struct {
	link   peer.Link
	logger *log.Logger

	mu       sync.RWMutex
	snapshot RemoteState

	authEvent     *events.CallbackEvent[bool]
	dayEvent      *events.CallbackEvent[int]
	activityEvent *events.CallbackEvent[program.ActivityType]
	programEvent  *events.CallbackEvent[ProgramBundle]

	inbox     chan func()
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a Gateway over the link. Call Start before use and Close on
// shutdown.
func New(link peer.Link, logger *log.Logger) *Gateway {
	if link == nil {
		panic("Gateway: link cannot be nil")
	}
	if logger == nil {
		panic("Gateway: logger cannot be nil")
	}
	return &Gateway{
		link:          link,
		logger:        logger,
		authEvent:     events.NewCallbackEvent[bool](true),
		dayEvent:      events.NewCallbackEvent[int](true),
		activityEvent: events.NewCallbackEvent[program.ActivityType](true),
		programEvent:  events.NewCallbackEvent[ProgramBundle](false),
		inbox:         make(chan func(), 64),
		done:          make(chan struct{}),
	}
}

// Start registers the inbound handlers and catches up from the peer's last
// broadcast context, if one is cached. Safe to call once.
func (g *Gateway) Start() {
	g.startOnce.Do(func() {
		g.wg.Add(1)
		safego.Go(g.logger, g.run)

		// Cached context first, so live updates merge on top of it.
		if ctx, ok := g.link.LatestContext(); ok {
			g.enqueue(func() { g.handleInbound(ctx, "cached context") })
		}
		g.link.SetMessageHandler(func(p peer.Payload) {
			g.enqueue(func() { g.handleInbound(p, "message") })
		})
		g.link.SetContextHandler(func(p peer.Payload) {
			g.enqueue(func() { g.handleInbound(p, "context") })
		})
		g.logger.Printf("Gateway: started")
	})
}

// Close stops the processing goroutine. Safe to call multiple times.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
		g.wg.Wait()
		g.logger.Printf("Gateway: closed")
	})
}

// Reset clears the RemoteState snapshot. Called on logout; no notifications
// are emitted for the cleared fields.
func (g *Gateway) Reset() {
	g.mu.Lock()
	g.snapshot = RemoteState{}
	g.mu.Unlock()
	g.logger.Printf("Gateway: remote state reset")
}

// RemoteSnapshot returns a copy of the current RemoteState.
func (g *Gateway) RemoteSnapshot() RemoteState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot.clone()
}

// --- observable events (consumed by the UI layer) ---

// OnAuthorizationChanged registers a callback for deduplicated authorization
// changes. Returns the deregistration function.
func (g *Gateway) OnAuthorizationChanged(fn func(bool)) func() {
	return g.authEvent.Listen(fn)
}

// OnCurrentDay registers a callback for current-day updates. Re-fired every
// time the peer reports a day, even if unchanged.
func (g *Gateway) OnCurrentDay(fn func(int)) func() {
	return g.dayEvent.Listen(fn)
}

// OnCurrentActivity registers a callback for current-activity updates.
// Re-fired every time the peer reports an activity, even if unchanged.
func (g *Gateway) OnCurrentActivity(fn func(program.ActivityType)) func() {
	return g.activityEvent.Listen(fn)
}

// OnProgramPush registers a callback for unsolicited workout-program pushes.
func (g *Gateway) OnProgramPush(fn func(ProgramBundle)) func() {
	return g.programEvent.Listen(fn)
}

// --- typed operations ---

// SendActivitySelection tells the peer which activity the user picked for the
// day. Resolves on ack or transport error.
func (g *Gateway) SendActivitySelection(ctx context.Context, day int, activity program.ActivityType) error {
	_, err := g.roundTrip(ctx, wire.SetActivity{Day: day, Activity: activity})
	return err
}

// RequestCurrentActivity asks the peer which activity is set for the day.
// A reply under the wrong tag or without a decodable activity code means the
// activity is simply not set yet; only transport failure is an error.
func (g *Gateway) RequestCurrentActivity(ctx context.Context, day int) (*program.ActivityType, error) {
	reply, err := g.roundTrip(ctx, wire.GetCurrentActivity{Day: day})
	if err != nil {
		return nil, err
	}
	if cur, ok := wire.Decode(reply).(wire.CurrentActivity); ok {
		return cur.Activity, nil
	}
	g.logger.Printf("Gateway: current-activity reply not usable (tag %q), treating as unset", wire.Tag(reply))
	return nil, nil
}

// RequestWorkoutProgram fetches the workout definition for the day. The reply
// must carry the program tag (ErrInvalidResponse otherwise); a correctly
// tagged reply whose fields fail decode is ErrMalformedPayload, so callers can
// tell "wrong command" from "right command, broken data".
func (g *Gateway) RequestWorkoutProgram(ctx context.Context, day int) (*ProgramBundle, error) {
	reply, err := g.roundTrip(ctx, wire.GetWorkoutData{Day: day})
	if err != nil {
		return nil, err
	}
	if tag := wire.Tag(reply); tag != wire.TagSendWorkoutData {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrInvalidResponse, tag, wire.TagSendWorkoutData)
	}
	data, ok := wire.Decode(reply).(wire.SendWorkoutData)
	if !ok {
		return nil, ErrMalformedPayload
	}
	bundle := bundleFromWire(data)
	return &bundle, nil
}

// PushWorkoutResult sends a finished or interrupted workout result to the peer.
func (g *Gateway) PushWorkoutResult(ctx context.Context, day int, result program.WorkoutResult, executionType program.ExecutionType, exercises []program.ExerciseRef, comment *string) error {
	_, err := g.roundTrip(ctx, wire.SaveWorkout{
		Day:           day,
		Result:        result,
		ExecutionType: executionType,
		Exercises:     wire.FromExerciseRefs(exercises),
		Comment:       comment,
	})
	return err
}

// RequestDeleteActivity asks the peer to clear the recorded activity for the day.
func (g *Gateway) RequestDeleteActivity(ctx context.Context, day int) error {
	_, err := g.roundTrip(ctx, wire.DeleteActivity{Day: day})
	return err
}

// roundTrip encodes a command, sends it, and waits for exactly one of
// {reply, transport error, caller cancellation}. No internal timeout, no
// retry. A reply arriving after cancellation is never applied: once the
// select resumes on ctx.Done, the buffered reply is abandoned unread.
func (g *Gateway) roundTrip(ctx context.Context, cmd wire.Command) (peer.Payload, error) {
	if !g.link.IsReachable() {
		g.logger.Printf("Gateway: %s not sent: %v", cmd.Tag(), ErrPeerUnavailable)
		return nil, ErrPeerUnavailable
	}

	payload, err := wire.Encode(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	replyCh := make(chan peer.Payload, 1)
	errCh := make(chan error, 1)
	g.link.Send(payload,
		func(reply peer.Payload) {
			select {
			case replyCh <- reply:
			default:
			}
		},
		func(sendErr error) {
			select {
			case errCh <- sendErr:
			default:
			}
		},
	)

	select {
	case <-ctx.Done():
		g.logger.Printf("Gateway: %s abandoned: %v", cmd.Tag(), ctx.Err())
		return nil, ctx.Err()
	case sendErr := <-errCh:
		g.logger.Printf("Gateway: %s transport failure: %v", cmd.Tag(), sendErr)
		return nil, fmt.Errorf("%w: %v", ErrTransport, sendErr)
	case reply := <-replyCh:
		return reply, nil
	}
}

// --- inbound processing (serial goroutine) ---

func (g *Gateway) run() {
	defer g.wg.Done()
	for {
		select {
		case <-g.done:
			return
		case fn := <-g.inbox:
			fn()
		}
	}
}

func (g *Gateway) enqueue(fn func()) {
	select {
	case <-g.done:
	case g.inbox <- fn:
	}
}

// handleInbound decodes one payload and applies it. Runs on the serial
// goroutine only. Undecodable payloads are logged and dropped, never
// retried and never fatal.
func (g *Gateway) handleInbound(p peer.Payload, source string) {
	cmd := wire.Decode(p)
	if cmd == nil {
		g.logger.Printf("Gateway: dropping unrecognized %s payload (tag %q)", source, wire.Tag(p))
		return
	}

	switch c := cmd.(type) {
	case wire.AuthStatus:
		g.applyUpdate(&c.IsAuthorized, c.CurrentDay, c.CurrentActivity)
	case wire.CurrentDay:
		g.applyUpdate(nil, &c.Day, nil)
	case wire.SendWorkoutData:
		g.logger.Printf("Gateway: workout program push for day %d", c.Day)
		g.programEvent.Notify(bundleFromWire(c))
	default:
		g.logger.Printf("Gateway: ignoring inbound %s command %s", source, cmd.Tag())
	}
}

// applyUpdate runs the merge rule against the snapshot and emits the
// resulting notifications outside the lock.
func (g *Gateway) applyUpdate(authorized *bool, day *int, activity *program.ActivityType) {
	g.mu.Lock()
	changes := g.snapshot.merge(authorized, day, activity)
	g.mu.Unlock()

	if changes.authChanged {
		g.logger.Printf("Gateway: authorization changed -> %t", changes.auth)
		g.authEvent.Notify(changes.auth)
	}
	if changes.dayPresent {
		g.dayEvent.Notify(changes.day)
	}
	if changes.activityPresent {
		g.activityEvent.Notify(changes.activity)
	}
}

func bundleFromWire(data wire.SendWorkoutData) ProgramBundle {
	return ProgramBundle{
		Day:            data.Day,
		ExecutionType:  data.ExecutionType,
		Exercises:      wire.ToExerciseRefs(data.Exercises),
		PlannedCount:   data.PlannedCount,
		ExecutionCount: data.ExecutionCount,
		Comment:        data.Comment,
	}
}
