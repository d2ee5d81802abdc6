package tui

import (
	"sync"

	"github.com/Veraticus/autobudget/internal/header"
	tea "github.com/charmbracelet/bubbletea"
)

// headerFeed forwards header provider updates into the bubbletea event loop.
// Only the newest state is kept, so a slow screen never blocks the provider.
type headerFeed struct {
	ch          chan header.State
	done        chan struct{}
	unsubscribe func()
	once        sync.Once
}

func newHeaderFeed(p *header.Provider) *headerFeed {
	f := &headerFeed{
		ch:   make(chan header.State, 1),
		done: make(chan struct{}),
	}
	f.unsubscribe = p.Subscribe(f.push)
	return f
}

func (f *headerFeed) push(s header.State) {
	for {
		select {
		case f.ch <- s:
			return
		case <-f.done:
			return
		default:
		}
		// drop the stale pending state and retry
		select {
		case <-f.ch:
		default:
		}
	}
}

// wait returns a command delivering the next header update.
func (f *headerFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.ch:
			return headerMsg{state: s}
		case <-f.done:
			return nil
		}
	}
}

func (f *headerFeed) close() {
	f.once.Do(func() {
		f.unsubscribe()
		close(f.done)
	})
}
