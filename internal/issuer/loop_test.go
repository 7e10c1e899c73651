package issuer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

// fakeBus is an in-memory transport for driving the loop directly.
type fakeBus struct {
	published []protocol.Command
	pubErr    error
	acks      []protocol.Acknowledgement
	awaitErr  error
}

func (b *fakeBus) PublishCommand(cmd protocol.Command) error {
	if b.pubErr != nil {
		return b.pubErr
	}
	b.published = append(b.published, cmd)
	return nil
}

func (b *fakeBus) DrainAcks() []protocol.Acknowledgement {
	acks := b.acks
	b.acks = nil
	return acks
}

func (b *fakeBus) AwaitResponder(ctx context.Context) error {
	return b.awaitErr
}

// ackFor queues the responder's acknowledgement for a published command.
func (b *fakeBus) ackFor(cmd protocol.Command) {
	b.acks = append(b.acks, protocol.NewAcknowledgement(cmd))
}

// recordingSink captures terminal outcomes.
type recordingSink struct {
	matched  []Match
	timedOut []protocol.Command
}

func (s *recordingSink) Matched(_ context.Context, _ protocol.Command, m Match) {
	s.matched = append(s.matched, m)
}

func (s *recordingSink) TimedOut(_ context.Context, cmd protocol.Command) {
	s.timedOut = append(s.timedOut, cmd)
}

// discardLogger satisfies Logger without output.
type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}

func newTestLoop(bus *fakeBus, sink *recordingSink) *Loop {
	return NewLoop(Options{
		Bus:          bus,
		Logger:       discardLogger{},
		AckDeadline:  5 * time.Second,
		PollInterval: 100 * time.Millisecond,
		Sink:         sink,
	})
}

// Happy path: command emitted, acknowledgement drained next tick,
// outcome reported exactly once with the original command attached.
func TestTickResolvesAcknowledgement(t *testing.T) {
	bus := &fakeBus{}
	sink := &recordingSink{}
	loop := newTestLoop(bus, sink)

	id := loop.Emit(protocol.ChannelRed, true)
	if id != 1 {
		t.Fatalf("Emit() id = %d, want 1", id)
	}

	bus.ackFor(bus.published[0])
	loop.tick(context.Background())

	if len(sink.matched) != 1 {
		t.Fatalf("matched outcomes = %d, want 1", len(sink.matched))
	}
	if sink.matched[0].ID != id {
		t.Errorf("matched ID = %d, want %d", sink.matched[0].ID, id)
	}
	if len(sink.timedOut) != 0 {
		t.Errorf("timed out outcomes = %d, want 0", len(sink.timedOut))
	}
	if loop.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", loop.PendingCount())
	}
}

// Unresponsive responder: the deadline passes with no acknowledgement
// and the sweep reports a timeout carrying the original command.
func TestTickSweepsTimedOutCommand(t *testing.T) {
	bus := &fakeBus{}
	sink := &recordingSink{}
	loop := newTestLoop(bus, sink)

	clock := newFakeClock()
	loop.pending.SetClock(clock.Now)

	loop.Emit(protocol.ChannelGreen, true)
	clock.Advance(6 * time.Second)
	loop.tick(context.Background())

	if len(sink.timedOut) != 1 {
		t.Fatalf("timed out outcomes = %d, want 1", len(sink.timedOut))
	}
	got := sink.timedOut[0]
	if got.Channel != protocol.ChannelGreen || !got.On {
		t.Errorf("timed out command = %+v, want green on", got)
	}
	if len(sink.matched) != 0 {
		t.Errorf("matched outcomes = %d, want 0", len(sink.matched))
	}
}

// A late acknowledgement arriving after the sweep is discarded without
// a second outcome for the same ID.
func TestLateAcknowledgementDiscarded(t *testing.T) {
	bus := &fakeBus{}
	sink := &recordingSink{}
	loop := newTestLoop(bus, sink)

	clock := newFakeClock()
	loop.pending.SetClock(clock.Now)

	loop.Emit(protocol.ChannelBlue, true)
	cmd := bus.published[0]

	clock.Advance(6 * time.Second)
	loop.tick(context.Background())

	bus.ackFor(cmd)
	loop.tick(context.Background())

	if len(sink.timedOut) != 1 {
		t.Errorf("timed out outcomes = %d, want 1", len(sink.timedOut))
	}
	if len(sink.matched) != 0 {
		t.Errorf("matched outcomes = %d after late ack, want 0", len(sink.matched))
	}
}

// A foreign acknowledgement (ID never emitted here) is discarded.
func TestForeignAcknowledgementDiscarded(t *testing.T) {
	bus := &fakeBus{}
	sink := &recordingSink{}
	loop := newTestLoop(bus, sink)

	bus.acks = append(bus.acks, protocol.Acknowledgement{ID: 777, Success: true})
	loop.tick(context.Background())

	if len(sink.matched)+len(sink.timedOut) != 0 {
		t.Error("foreign acknowledgement produced an outcome")
	}
}

// Publish failure is contained: no pending entry, no outcome, loop
// carries on.
func TestEmitPublishFailureContained(t *testing.T) {
	bus := &fakeBus{pubErr: errors.New("broker gone")}
	sink := &recordingSink{}
	loop := newTestLoop(bus, sink)

	if id := loop.Emit(protocol.ChannelRed, true); id != 0 {
		t.Errorf("Emit() id = %d on publish failure, want 0", id)
	}
	if loop.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", loop.PendingCount())
	}

	loop.tick(context.Background())
	if len(sink.matched)+len(sink.timedOut) != 0 {
		t.Error("failed publish produced an outcome")
	}
}

// Interleaved traffic: acknowledgements arriving out of order all match.
func TestOutOfOrderAcknowledgements(t *testing.T) {
	bus := &fakeBus{}
	sink := &recordingSink{}
	loop := newTestLoop(bus, sink)

	for _, channel := range protocol.Channels {
		loop.Emit(channel, true)
	}

	// Acknowledge in reverse order of emission.
	for i := len(bus.published) - 1; i >= 0; i-- {
		bus.ackFor(bus.published[i])
	}
	loop.tick(context.Background())

	if len(sink.matched) != 3 {
		t.Fatalf("matched outcomes = %d, want 3", len(sink.matched))
	}
	if loop.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", loop.PendingCount())
	}
}

// Run emits the initial burst (all channels on) once the responder is
// present, then stops cleanly when the context ends.
func TestRunInitialBurstAndShutdown(t *testing.T) {
	bus := &fakeBus{}
	loop := NewLoop(Options{
		Bus:          bus,
		Logger:       discardLogger{},
		AckDeadline:  5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(bus.published) != len(protocol.Channels) {
		t.Fatalf("published %d commands, want %d", len(bus.published), len(protocol.Channels))
	}
	for i, cmd := range bus.published {
		if cmd.Channel != protocol.Channels[i] || !cmd.On {
			t.Errorf("burst[%d] = %+v, want %v on", i, cmd, protocol.Channels[i])
		}
	}
}

// Run returns nil when shutdown is requested while still waiting for a
// responder.
func TestRunAbortedDuringAwait(t *testing.T) {
	bus := &fakeBus{awaitErr: context.Canceled}
	loop := newTestLoop(bus, &recordingSink{})

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(bus.published) != 0 {
		t.Error("commands published before responder was present")
	}
}
