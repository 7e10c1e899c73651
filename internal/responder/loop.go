package responder

import (
	"context"
	"time"

	"github.com/lumenctl/lumen-core/internal/protocol"
)

// Bus is the transport surface the responder loop depends on.
// Satisfied by *transport.ResponderBus; tests substitute a fake.
type Bus interface {
	DrainCommands() []protocol.Command
	PublishAck(ack protocol.Acknowledgement) error
}

// Logger is the logging surface the loop requires.
// Satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Options configures a responder Loop.
type Options struct {
	// Bus is the transport (required).
	Bus Bus

	// Logger receives loop activity (required).
	Logger Logger

	// PollInterval is the loop tick for draining commands.
	PollInterval time.Duration

	// DisplayInterval is how often the LED panel state is logged.
	DisplayInterval time.Duration
}

// Loop is the responder's control loop: a single goroutine that drains
// commands, applies them in arrival order, publishes acknowledgements,
// and periodically logs the simulated panel state.
type Loop struct {
	bus     Bus
	log     Logger
	states  *StateStore
	handler *Handler

	pollInterval    time.Duration
	displayInterval time.Duration
}

// NewLoop creates a responder loop from options.
func NewLoop(opts Options) *Loop {
	states := NewStateStore()
	return &Loop{
		bus:             opts.Bus,
		log:             opts.Logger,
		states:          states,
		handler:         NewHandler(states),
		pollInterval:    opts.PollInterval,
		displayInterval: opts.DisplayInterval,
	}
}

// Run blocks until ctx is done, then returns nil.
//
// Each tick drains every available command and handles it: mutate state,
// then publish the acknowledgement. A failed acknowledgement publish is
// logged and contained: the state change stands, and the issuer will
// see the command time out. Periodically the current panel state is
// logged, whether or not any command arrived.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("responder loop started")

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	display := time.NewTicker(l.displayInterval)
	defer display.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("responder loop stopping")
			return nil
		case <-display.C:
			l.displayStates()
		case <-ticker.C:
			l.tick()
		}
	}
}

// tick drains and handles all available commands, in arrival order.
func (l *Loop) tick() {
	for _, cmd := range l.bus.DrainCommands() {
		l.log.Info("command received", "id", cmd.ID, "channel", cmd.Channel.String(), "on", cmd.On)

		ack := l.handler.Handle(cmd)

		if err := l.bus.PublishAck(ack); err != nil {
			// State already changed; the issuer will see a timeout.
			l.log.Warn("acknowledgement publish failed", "id", cmd.ID, "error", err)
			continue
		}
		l.log.Debug("acknowledgement sent", "id", ack.ID)
	}
}

// displayStates logs the simulated LED panel, one attribute per channel.
func (l *Loop) displayStates() {
	snapshot := l.states.Snapshot()
	l.log.Info("led states",
		"red", onOff(snapshot[protocol.ChannelRed.Index()]),
		"green", onOff(snapshot[protocol.ChannelGreen.Index()]),
		"blue", onOff(snapshot[protocol.ChannelBlue.Index()]),
	)
}

// States exposes the state store for collaborators (e.g., tests).
func (l *Loop) States() *StateStore {
	return l.states
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
