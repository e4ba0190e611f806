package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// Loop runs a Machine on a single goroutine. Keystroke, Cancel and Navigate
// may be called from any goroutine; their events are handled in order. Events
// sent before Run starts are dropped, like any event before the index loads.
type Loop struct {
	machine *Machine
	load    LoadFunc
	events  chan Event
	started chan struct{}
	done    chan struct{}
	start   sync.Once
	once    sync.Once
}

// NewLoop returns a loop that loads its index with load once Run starts.
func NewLoop(load LoadFunc, opts ...Option) *Loop {
	l := &Loop{
		machine: NewMachine(opts...),
		load:    load,
		events:  make(chan Event, 16),
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	l.machine.dispatch = l.post
	return l
}

// Run starts the index load and handles events until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	l.start.Do(func() { close(l.started) })

	go l.loadIndex(ctx)

	for {
		select {
		case <-ctx.Done():
			l.machine.Stop()
			return
		case ev := <-l.events:
			l.machine.Handle(ctx, ev)
		}
	}
}

func (l *Loop) loadIndex(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.post(Event{Kind: EventIndexFailed, Err: errors.Newf("index load panicked: %v", r)})
		}
	}()

	searcher, err := l.load(ctx)
	if err != nil {
		l.post(Event{Kind: EventIndexFailed, Err: err})
		return
	}
	l.post(Event{Kind: EventIndexLoaded, Searcher: searcher})
}

// post enqueues ev unless the loop has stopped.
func (l *Loop) post(ev Event) {
	select {
	case l.events <- ev:
	case <-l.done:
	}
}

// send posts a user event, dropping it when Run has not started.
func (l *Loop) send(ev Event) {
	select {
	case <-l.started:
		l.post(ev)
	default:
		l.machine.cfg.logger.Debug("dropping event before run", "event", ev.Kind)
	}
}

// Keystroke reports the current value of the text field.
func (l *Loop) Keystroke(value string) {
	l.send(Event{Kind: EventKeystroke, Value: value})
}

// Cancel clears the query immediately.
func (l *Loop) Cancel() {
	l.send(Event{Kind: EventCancel})
}

// Navigate reports that history moved to location.
func (l *Loop) Navigate(location string) {
	l.send(Event{Kind: EventNavigate, Location: location})
}
