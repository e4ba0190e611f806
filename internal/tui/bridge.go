package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/session"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

type (
	valueMsg   string
	activeMsg  bool
	blurMsg    struct{}
	displayMsg session.Display
	indexMsg   struct{ err error }
)

// Bridge forwards session callbacks to the UI as messages. It implements
// session.Input and session.Renderer. Messages are queued so the session
// goroutine never waits on the UI, and are delivered in order by Run.
type Bridge struct {
	mu     sync.Mutex
	queue  []tea.Msg
	notify chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{notify: make(chan struct{}, 1)}
}

func (b *Bridge) push(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Run delivers queued messages to to until ctx is done.
func (b *Bridge) Run(ctx context.Context, to Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.notify:
		}

		b.mu.Lock()
		msgs := b.queue
		b.queue = nil
		b.mu.Unlock()

		for _, msg := range msgs {
			to.Send(msg)
		}
	}
}

func (b *Bridge) SetValue(value string) { b.push(valueMsg(value)) }

func (b *Bridge) SetActive(active bool) { b.push(activeMsg(active)) }

func (b *Bridge) Blur() { b.push(blurMsg{}) }

func (b *Bridge) Render(d session.Display) { b.push(displayMsg(d)) }

// Load wraps load so the UI learns when the index is ready or has failed.
func (b *Bridge) Load(load session.LoadFunc) session.LoadFunc {
	return func(ctx context.Context) (searchbox.Searcher, error) {
		s, err := load(ctx)
		if err == nil && s == nil {
			err = searchbox.ErrIndexNotLoaded
		}
		b.push(indexMsg{err: err})
		return s, err
	}
}
