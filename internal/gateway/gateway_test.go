package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hundredday/companion/internal/logging"
	"github.com/hundredday/companion/internal/peer"
	"github.com/hundredday/companion/internal/program"
	"github.com/hundredday/companion/internal/wire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeLink is a fully scripted peer.Link. Replies and failures are delivered
// synchronously, which is fine for the gateway's buffered reply channels.
type fakeLink struct {
	mu         sync.Mutex
	reachable  bool
	failWith   error        // reject every send with this error
	silent     bool         // swallow sends without ever replying
	replyWith  peer.Payload // reply for the next sends
	sent       []peer.Payload
	msgHandler func(peer.Payload)
	ctxHandler func(peer.Payload)
	latestCtx  peer.Payload
}

func newFakeLink() *fakeLink {
	return &fakeLink{reachable: true}
}

func (f *fakeLink) IsReachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

func (f *fakeLink) Send(p peer.Payload, onReply func(peer.Payload), onError func(error)) {
	f.mu.Lock()
	f.sent = append(f.sent, p)
	failWith, silent, reply := f.failWith, f.silent, f.replyWith
	f.mu.Unlock()

	if failWith != nil {
		if onError != nil {
			onError(failWith)
		}
		return
	}
	if silent || onReply == nil {
		return
	}
	onReply(reply)
}

func (f *fakeLink) PublishContext(p peer.Payload) error { return nil }

func (f *fakeLink) LatestContext() (peer.Payload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestCtx == nil {
		return nil, false
	}
	return f.latestCtx, true
}

func (f *fakeLink) SetMessageHandler(fn func(peer.Payload)) {
	f.mu.Lock()
	f.msgHandler = fn
	f.mu.Unlock()
}

func (f *fakeLink) SetRequestHandler(fn func(peer.Payload) peer.Payload) {}

func (f *fakeLink) SetContextHandler(fn func(peer.Payload)) {
	f.mu.Lock()
	f.ctxHandler = fn
	f.mu.Unlock()
}

func (f *fakeLink) inject(t *testing.T, cmd wire.Command) {
	t.Helper()
	payload, err := wire.Encode(cmd)
	require.NoError(t, err)
	f.injectPayload(t, payload)
}

func (f *fakeLink) injectPayload(t *testing.T, payload peer.Payload) {
	t.Helper()
	f.mu.Lock()
	fn := f.msgHandler
	f.mu.Unlock()
	require.NotNil(t, fn, "gateway not started")
	fn(payload)
}

func (f *fakeLink) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeLink) scriptReply(t *testing.T, cmd wire.Command) {
	t.Helper()
	payload, err := wire.Encode(cmd)
	require.NoError(t, err)
	f.mu.Lock()
	f.replyWith = payload
	f.mu.Unlock()
}

func newTestGateway(t *testing.T, link *fakeLink) *Gateway {
	t.Helper()
	g := New(link, logging.Discard())
	g.Start()
	t.Cleanup(g.Close)
	return g
}

func intPtr(v int) *int { return &v }

func actPtr(v program.ActivityType) *program.ActivityType { return &v }

func TestOperations_PeerUnavailableShortCircuit(t *testing.T) {
	link := newFakeLink()
	link.reachable = false
	g := newTestGateway(t, link)
	ctx := context.Background()

	err := g.SendActivitySelection(ctx, 1, program.ActivityTraining)
	assert.ErrorIs(t, err, ErrPeerUnavailable)

	_, err = g.RequestCurrentActivity(ctx, 1)
	assert.ErrorIs(t, err, ErrPeerUnavailable)

	_, err = g.RequestWorkoutProgram(ctx, 1)
	assert.ErrorIs(t, err, ErrPeerUnavailable)

	err = g.PushWorkoutResult(ctx, 1, program.WorkoutResult{}, program.ExecutionCircuit, nil, nil)
	assert.ErrorIs(t, err, ErrPeerUnavailable)

	err = g.RequestDeleteActivity(ctx, 1)
	assert.ErrorIs(t, err, ErrPeerUnavailable)

	// The link's send was never invoked.
	assert.Equal(t, 0, link.sentCount())
}

func TestOperations_TransportFailure(t *testing.T) {
	link := newFakeLink()
	boom := errors.New("radio silence")
	link.failWith = boom
	g := newTestGateway(t, link)

	err := g.SendActivitySelection(context.Background(), 4, program.ActivityRest)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, link.sentCount())
}

func TestSendActivitySelection_AckResolves(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	err := g.SendActivitySelection(context.Background(), 4, program.ActivityTraining)
	require.NoError(t, err)

	require.Equal(t, 1, link.sentCount())
	assert.Equal(t, wire.TagSetActivity, wire.Tag(link.sent[0]))
}

func TestRequestCurrentActivity(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)
	ctx := context.Background()

	link.scriptReply(t, wire.CurrentActivity{Activity: actPtr(program.ActivityStretching)})
	activity, err := g.RequestCurrentActivity(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, activity)
	assert.Equal(t, program.ActivityStretching, *activity)

	// Activity not set on the peer yet.
	link.scriptReply(t, wire.CurrentActivity{})
	activity, err = g.RequestCurrentActivity(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, activity)

	// Wrong tag is "no data", not an error.
	link.scriptReply(t, wire.CurrentDay{Day: 9})
	activity, err = g.RequestCurrentActivity(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, activity)

	// Undecodable reply likewise.
	link.mu.Lock()
	link.replyWith = peer.Payload{"command": wire.TagCurrentActivity, "activityTypeCode": "lots"}
	link.mu.Unlock()
	activity, err = g.RequestCurrentActivity(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, activity)
}

func TestRequestWorkoutProgram(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)
	ctx := context.Background()

	link.scriptReply(t, wire.SendWorkoutData{
		Day:           6,
		ExecutionType: program.ExecutionCircuit,
		Exercises: []wire.Exercise{
			{Count: intPtr(10), StandardTypeID: intPtr(1), SortOrder: intPtr(0)},
			{Count: intPtr(12), StandardTypeID: intPtr(2), SortOrder: intPtr(1)},
		},
		PlannedCount: intPtr(4),
	})
	bundle, err := g.RequestWorkoutProgram(ctx, 6)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, 6, bundle.Day)
	assert.Equal(t, program.ExecutionCircuit, bundle.ExecutionType)
	assert.Equal(t, 4, *bundle.PlannedCount)
	require.Len(t, bundle.Exercises, 2)
	assert.NotEmpty(t, bundle.Exercises[0].ID, "wire entries get session-local ids")
}

func TestRequestWorkoutProgram_WrongTag(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	link.scriptReply(t, wire.CurrentDay{Day: 6})
	_, err := g.RequestWorkoutProgram(context.Background(), 6)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRequestWorkoutProgram_MalformedPayload(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	// Right tag, fields that fail structural decode. Distinct from the
	// wrong-tag case so callers can tell the two failure modes apart.
	link.mu.Lock()
	link.replyWith = peer.Payload{"command": wire.TagSendWorkoutData, "day": "six"}
	link.mu.Unlock()

	_, err := g.RequestWorkoutProgram(context.Background(), 6)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.NotErrorIs(t, err, ErrInvalidResponse)
}

func TestRoundTrip_CallerCancellation(t *testing.T) {
	link := newFakeLink()
	link.silent = true // the reply never comes
	g := newTestGateway(t, link)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.RequestDeleteActivity(ctx, 3) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled operation did not return")
	}
}

func TestInbound_AuthorizationDeduplicated(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	var mu sync.Mutex
	var authFires []bool
	var dayFires []int
	defer g.OnAuthorizationChanged(func(v bool) {
		mu.Lock()
		authFires = append(authFires, v)
		mu.Unlock()
	})()
	defer g.OnCurrentDay(func(d int) {
		mu.Lock()
		dayFires = append(dayFires, d)
		mu.Unlock()
	})()

	update := wire.AuthStatus{IsAuthorized: true, CurrentDay: intPtr(3)}
	link.inject(t, update)
	link.inject(t, update) // redelivery of the same status

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(dayFires) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	// Authorization changed once; the day is re-applied on every delivery
	// because downstream loads depend on it even when unchanged.
	assert.Equal(t, []bool{true}, authFires)
	assert.Equal(t, []int{3, 3}, dayFires)
	mu.Unlock()

	// A real flip fires again.
	link.inject(t, wire.AuthStatus{IsAuthorized: false})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(authFires) == 2
	}, 2*time.Second, 5*time.Millisecond)

	snap := g.RemoteSnapshot()
	assert.False(t, snap.IsAuthorized)
	require.NotNil(t, snap.CurrentDay)
	assert.Equal(t, 3, *snap.CurrentDay)
}

func TestInbound_CurrentDayAlwaysReapplied(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	fires := make(chan int, 4)
	defer g.OnCurrentDay(func(d int) { fires <- d })()

	link.inject(t, wire.CurrentDay{Day: 11})
	link.inject(t, wire.CurrentDay{Day: 11})

	assert.Equal(t, 11, <-fires)
	assert.Equal(t, 11, <-fires)
}

func TestInbound_UnsolicitedProgramPush(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	bundles := make(chan ProgramBundle, 1)
	defer g.OnProgramPush(func(b ProgramBundle) { bundles <- b })()

	link.inject(t, wire.SendWorkoutData{
		Day:           14,
		ExecutionType: program.ExecutionSets,
		PlannedCount:  intPtr(3),
	})

	select {
	case b := <-bundles:
		assert.Equal(t, 14, b.Day)
		assert.Equal(t, program.ExecutionSets, b.ExecutionType)
	case <-time.After(2 * time.Second):
		t.Fatal("program push not forwarded")
	}

	// A broken push is logged and dropped, never crashes and never fires.
	link.injectPayload(t, peer.Payload{"command": wire.TagSendWorkoutData, "day": "nope"})
	link.inject(t, wire.CurrentDay{Day: 1}) // fence: processed after the bad push
	require.Eventually(t, func() bool {
		snap := g.RemoteSnapshot()
		return snap.CurrentDay != nil && *snap.CurrentDay == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, bundles)
}

func TestStart_AppliesCachedContext(t *testing.T) {
	link := newFakeLink()
	cached, err := wire.Encode(wire.AuthStatus{IsAuthorized: true, CurrentDay: intPtr(21)})
	require.NoError(t, err)
	link.latestCtx = cached

	g := newTestGateway(t, link)

	require.Eventually(t, func() bool {
		snap := g.RemoteSnapshot()
		return snap.IsAuthorized && snap.CurrentDay != nil && *snap.CurrentDay == 21
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReset_ClearsSnapshot(t *testing.T) {
	link := newFakeLink()
	g := newTestGateway(t, link)

	link.inject(t, wire.AuthStatus{IsAuthorized: true, CurrentDay: intPtr(8)})
	require.Eventually(t, func() bool {
		return g.RemoteSnapshot().IsAuthorized
	}, 2*time.Second, 5*time.Millisecond)

	g.Reset()
	snap := g.RemoteSnapshot()
	assert.False(t, snap.IsAuthorized)
	assert.Nil(t, snap.CurrentDay)
	assert.Nil(t, snap.CurrentActivity)
}
