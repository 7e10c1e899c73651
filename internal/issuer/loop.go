package issuer

import (
	"context"
	"time"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

// Bus is the transport surface the issuer loop depends on.
// Satisfied by *transport.IssuerBus; tests substitute a fake.
type Bus interface {
	CommandPublisher
	DrainAcks() []protocol.Acknowledgement
	AwaitResponder(ctx context.Context) error
}

// Logger is the logging surface the loop requires.
// Satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// OutcomeSink observes terminal command outcomes. Implementations
// (history log, metrics writer) run inline on the loop goroutine and
// must not block; persistent failures should be swallowed and logged by
// the sink itself. An outcome observer can never affect correlation.
type OutcomeSink interface {
	// Matched is called once when a pending command is acknowledged.
	Matched(ctx context.Context, cmd protocol.Command, m Match)

	// TimedOut is called once when a pending command passes the deadline.
	TimedOut(ctx context.Context, cmd protocol.Command)
}

// Options configures an issuer Loop.
type Options struct {
	// Bus is the transport (required).
	Bus Bus

	// Logger receives loop activity (required).
	Logger Logger

	// AckDeadline is how long a command may stay pending before the
	// sweep evicts it.
	AckDeadline time.Duration

	// PollInterval is the loop tick: acknowledgements are drained and
	// the sweep runs once per tick. A command can therefore outlive its
	// deadline by at most one interval before being reported.
	PollInterval time.Duration

	// BurstGap is the pause between the initial all-on commands.
	BurstGap time.Duration

	// Sink observes terminal outcomes. Optional.
	Sink OutcomeSink
}

// Loop is the issuer's control loop: a single goroutine that emits
// commands, drains and resolves acknowledgements, and sweeps timeouts.
//
// All correlation state (allocator, pending table, in-flight commands)
// is owned by this goroutine; Run is the only method that touches it
// after construction.
type Loop struct {
	bus     Bus
	log     Logger
	emitter *Emitter
	pending *PendingTable
	sink    OutcomeSink

	pollInterval time.Duration
	burstGap     time.Duration
}

// NewLoop creates an issuer loop from options.
func NewLoop(opts Options) *Loop {
	pending := NewPendingTable(opts.AckDeadline)
	return &Loop{
		bus:          opts.Bus,
		log:          opts.Logger,
		emitter:      NewEmitter(pending, opts.Bus),
		pending:      pending,
		sink:         opts.Sink,
		pollInterval: opts.PollInterval,
		burstGap:     opts.BurstGap,
	}
}

// Run blocks until ctx is done, then returns nil.
//
// Startup first waits for a responder to be present, so no command is
// emitted into the void. Then the initial burst switches all three
// channels on, spaced by the burst gap, and the steady-state tick loop
// begins. Transport faults during a tick are logged and contained within
// that tick; they never terminate the loop.
//
// On shutdown, remaining pending entries are discarded without a final
// report.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("waiting for responder")
	if err := l.bus.AwaitResponder(ctx); err != nil {
		// Shutdown was requested before a responder appeared.
		return nil
	}
	l.log.Info("responder present")

	l.initialBurst(ctx)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("issuer loop stopping", "pending_discarded", l.pending.Len())
			return nil
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// initialBurst switches every channel on, pausing burstGap between
// commands. Aborts early if ctx ends mid-burst.
func (l *Loop) initialBurst(ctx context.Context) {
	for i, channel := range protocol.Channels {
		if i > 0 && l.burstGap > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.burstGap):
			}
		}
		l.Emit(channel, true)
	}
}

// Emit publishes one command and registers it pending. Publish failures
// are logged and contained; the command is simply not pending.
//
// Returns the allocated request ID, or 0 if the publish failed.
func (l *Loop) Emit(channel protocol.Channel, on bool) uint64 {
	id, err := l.emitter.Emit(channel, on)
	if err != nil {
		l.log.Warn("command publish failed", "channel", channel.String(), "on", on, "error", err)
		return 0
	}
	l.log.Info("command sent", "id", id, "channel", channel.String(), "on", on)
	return id
}

// tick runs one loop iteration: drain and resolve all available
// acknowledgements, then sweep for timeouts. Sequential within the loop
// goroutine, so each ID sees exactly one terminal outcome.
func (l *Loop) tick(ctx context.Context) {
	for _, ack := range l.bus.DrainAcks() {
		match, ok := l.pending.Resolve(ack)
		if !ok {
			// Late, duplicate, or foreign: a defined non-error outcome.
			l.log.Debug("unmatched acknowledgement discarded", "id", ack.ID)
			continue
		}
		cmd, _ := l.emitter.Release(match.ID)
		l.log.Info("command acknowledged",
			"id", match.ID,
			"channel", match.Ack.Channel.String(),
			"on", match.Ack.On,
			"success", match.Ack.Success,
			"latency_ms", match.Latency.Milliseconds(),
		)
		if l.sink != nil {
			l.sink.Matched(ctx, cmd, match)
		}
	}

	for _, id := range l.pending.Sweep() {
		cmd, _ := l.emitter.Release(id)
		l.log.Warn("command timed out",
			"id", id,
			"channel", cmd.Channel.String(),
			"on", cmd.On,
		)
		if l.sink != nil {
			l.sink.TimedOut(ctx, cmd)
		}
	}
}

// PendingCount reports the number of in-flight commands. For logging and
// tests; only meaningful when the loop is not concurrently running.
func (l *Loop) PendingCount() int {
	return l.pending.Len()
}
