package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/letmevibethatforyou/searchbox"
)

// EventKind enumerates the inputs a Machine reacts to.
type EventKind int

const (
	// EventIndexLoaded carries the ready Searcher.
	EventIndexLoaded EventKind = iota
	// EventIndexFailed carries the load error.
	EventIndexFailed
	// EventKeystroke carries the current input value.
	EventKeystroke
	// EventDebounceFired carries the sequence number of the timer that fired.
	EventDebounceFired
	// EventCancel clears the query.
	EventCancel
	// EventNavigate carries the location navigated to.
	EventNavigate
)

func (k EventKind) String() string {
	switch k {
	case EventIndexLoaded:
		return "index_loaded"
	case EventIndexFailed:
		return "index_failed"
	case EventKeystroke:
		return "keystroke"
	case EventDebounceFired:
		return "debounce_fired"
	case EventCancel:
		return "cancel"
	case EventNavigate:
		return "navigate"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one input to a Machine. Only the fields of its Kind are set.
type Event struct {
	Kind     EventKind
	Value    string
	Location string
	Seq      uint64
	Searcher searchbox.Searcher
	Err      error
}

// Machine is the query interaction state machine. Handle and the accessors
// are safe for concurrent use. The Renderer and Input are called with the
// machine locked and must not call back into it.
type Machine struct {
	mu sync.Mutex

	cfg         *config
	transitions map[EventKind]func(context.Context, Event)
	// dispatch delivers debounce events back into the machine.
	dispatch func(Event)

	searcher searchbox.Searcher
	ready    bool
	failed   bool

	state   State
	query   QueryState
	pending string
	timer   Timer
	seq     uint64
	display Display
}

// NewMachine returns an Idle machine waiting for EventIndexLoaded. Debounce
// events are handled on the scheduler's callback, serialized with Handle.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{cfg: newConfig(opts...)}
	m.transitions = map[EventKind]func(context.Context, Event){
		EventIndexLoaded:   m.onIndexLoaded,
		EventIndexFailed:   m.onIndexFailed,
		EventKeystroke:     m.onKeystroke,
		EventDebounceFired: m.onDebounceFired,
		EventCancel:        m.onCancel,
		EventNavigate:      m.onNavigate,
	}
	m.dispatch = func(ev Event) { m.Handle(context.Background(), ev) }
	return m
}

// State returns the current lifecycle stage.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Query returns the committed query.
func (m *Machine) Query() QueryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// Display returns the last rendered display.
func (m *Machine) Display() Display {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.display
}

// Ready reports whether the index has loaded.
func (m *Machine) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Stop cancels a pending debounce without evaluating it.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimer()
}

// Handle runs the transition for ev to completion.
func (m *Machine) Handle(ctx context.Context, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transition, ok := m.transitions[ev.Kind]
	if !ok {
		m.cfg.logger.WarnContext(ctx, "unknown session event", "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case EventKeystroke, EventCancel, EventNavigate, EventDebounceFired:
		if !m.ready {
			m.cfg.logger.DebugContext(ctx, "dropping event before index load", "event", ev.Kind)
			return
		}
	}
	transition(ctx, ev)
}

func (m *Machine) onIndexLoaded(ctx context.Context, ev Event) {
	if m.ready || m.failed {
		return
	}
	if ev.Searcher == nil {
		m.onIndexFailed(ctx, Event{Kind: EventIndexFailed, Err: searchbox.ErrIndexNotLoaded})
		return
	}
	m.searcher = ev.Searcher
	m.ready = true
	m.cfg.logger.DebugContext(ctx, "search index ready")

	if m.cfg.history == nil {
		return
	}
	location := m.cfg.history.Location()
	if isTracking(location, m.cfg.trackingPrefix) {
		return
	}
	if q := QueryFromLocation(location); q != nil && *q != "" {
		m.commit(ctx, q, false)
	}
}

func (m *Machine) onIndexFailed(ctx context.Context, ev Event) {
	if m.ready {
		return
	}
	m.failed = true
	m.cfg.logger.ErrorContext(ctx, "failed to load search index", "error", ev.Err)
}

func (m *Machine) onKeystroke(ctx context.Context, ev Event) {
	m.stopTimer()
	m.pending = ev.Value
	m.state = Pending

	seq := m.seq
	m.timer = m.cfg.scheduler.AfterFunc(m.cfg.debounce, func() {
		m.dispatch(Event{Kind: EventDebounceFired, Seq: seq})
	})
}

func (m *Machine) onDebounceFired(ctx context.Context, ev Event) {
	if ev.Seq != m.seq || m.state != Pending {
		return
	}
	m.timer = nil
	m.seq++
	q := m.pending
	m.commit(ctx, &q, true)
}

func (m *Machine) onCancel(ctx context.Context, ev Event) {
	m.stopTimer()
	m.commit(ctx, nil, true)
}

func (m *Machine) onNavigate(ctx context.Context, ev Event) {
	if isTracking(ev.Location, m.cfg.trackingPrefix) {
		m.cfg.logger.DebugContext(ctx, "ignoring tracking navigation", "location", ev.Location)
		return
	}
	m.stopTimer()
	m.commit(ctx, QueryFromLocation(ev.Location), false)
}

// stopTimer cancels the pending debounce. Bumping seq also invalidates a
// callback that already fired but whose event has not been handled yet.
func (m *Machine) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.seq++
}

// commit makes q the current query and evaluates it. History gets a new
// entry only when push is set and the location actually changes.
func (m *Machine) commit(ctx context.Context, q *string, push bool) {
	m.query = QueryState{Query: q}
	value := m.query.Value()

	if h := m.cfg.history; h != nil && push {
		current := h.Location()
		if next := LocationWithQuery(current, q); next != current {
			h.Push(next)
		}
	}

	if in := m.cfg.input; in != nil {
		in.SetValue(value)
		in.SetActive(value != "")
		if q == nil {
			in.Blur()
		}
	}

	m.state = Evaluating
	d := m.cfg.evaluate(ctx, m.searcher, value)
	if d.Kind == DisplayHidden {
		m.state = Idle
	} else {
		m.state = Displayed
	}
	m.render(d)
}

func (m *Machine) render(d Display) {
	m.display = d
	if m.cfg.renderer != nil {
		m.cfg.renderer.Render(d)
	}
}
