package breathing

import (
	"context"
	"errors"
	"time"
)

// ErrRunnerClosed is returned when a command is sent to a runner that has exited.
var ErrRunnerClosed = errors.New("breathing runner closed")

// Observer receives a snapshot after every transition. It is called from
// the runner goroutine, so it must not call back into the runner.
type Observer func(Status, Event)

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdSelect
	cmdStatus
)

type command struct {
	kind     commandKind
	exercise string
	reply    chan reply
}

type reply struct {
	status Status
	err    error
}

// Runner drives one Session from a single goroutine. Commands and clock
// ticks are handled by the same select loop, so transitions never overlap;
// stopping a session drops its ticker along with any tick already pending.
type Runner struct {
	session  *Session
	catalog  *Catalog
	clock    Clock
	interval time.Duration
	observer Observer
	cmds     chan command
	done     chan struct{}
}

// NewRunner creates a runner for session. A nil clock uses the real clock.
func NewRunner(session *Session, catalog *Catalog, clock Clock, observer Observer) *Runner {
	if clock == nil {
		clock = RealClock()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Runner{
		session:  session,
		catalog:  catalog,
		clock:    clock,
		interval: TickInterval,
		observer: observer,
		cmds:     make(chan command),
		done:     make(chan struct{}),
	}
}

// Run processes commands and ticks until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	var ticker Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
		tickC = nil
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-r.cmds:
			var err error
			ev := EventIgnored
			switch cmd.kind {
			case cmdStart:
				if err = r.session.Start(); err == nil {
					ev = EventStarted
					stopTicker()
					ticker = r.clock.NewTicker(r.interval)
					tickC = ticker.C()
				}
			case cmdStop:
				stopTicker()
				ev = r.session.Stop()
			case cmdSelect:
				if err = r.session.ChangeExercise(r.catalog.Get(cmd.exercise)); err == nil {
					ev = EventExerciseChanged
				}
			case cmdStatus:
			}
			status := r.session.Status()
			if ev != EventIgnored {
				r.notify(status, ev)
			}
			cmd.reply <- reply{status: status, err: err}

		case <-tickC:
			ev := r.session.Tick()
			if ev == EventCompleted {
				stopTicker()
			}
			if ev != EventIgnored {
				r.notify(r.session.Status(), ev)
			}
		}
	}
}

func (r *Runner) notify(status Status, ev Event) {
	if r.observer != nil {
		r.observer(status, ev)
	}
}

func (r *Runner) send(ctx context.Context, cmd command) (Status, error) {
	cmd.reply = make(chan reply, 1)
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return Status{}, ErrRunnerClosed
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case rep := <-cmd.reply:
		return rep.status, rep.err
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Start begins the selected exercise.
func (r *Runner) Start(ctx context.Context) (Status, error) {
	return r.send(ctx, command{kind: cmdStart})
}

// Stop ends the running exercise, if any.
func (r *Runner) Stop(ctx context.Context) (Status, error) {
	return r.send(ctx, command{kind: cmdStop})
}

// Select switches to the exercise with the given id; unknown ids select
// the catalog default. Fails with ErrSessionActive while running.
func (r *Runner) Select(ctx context.Context, id string) (Status, error) {
	return r.send(ctx, command{kind: cmdSelect, exercise: id})
}

// Status returns the current snapshot.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	return r.send(ctx, command{kind: cmdStatus})
}
