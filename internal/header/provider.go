// Package header broadcasts the current page title and action hint to
// whatever renders the screen header.
package header

import (
	"slices"
	"sync"
	"time"
)

// State is what the header displays.
type State struct {
	Title  string
	Action string
}

// Listener receives every header change.
type Listener func(State)

type subscription struct {
	fn Listener
	id int
}

// Provider owns the header state. Screens set it; the frame renders it.
// Listeners are notified in subscription order.
type Provider struct {
	subs   []subscription
	state  State
	nextID int
	mu     sync.Mutex
}

// NewProvider creates a provider with an initial title.
func NewProvider(title string) *Provider {
	return &Provider{state: State{Title: title}}
}

// State returns the current header.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Title returns the current title.
func (p *Provider) Title() string {
	return p.State().Title
}

// SetTitle changes the title and notifies listeners.
func (p *Provider) SetTitle(title string) {
	p.update(func(s *State) { s.Title = title })
}

// SetAction changes the action hint and notifies listeners. An empty string
// hides it.
func (p *Provider) SetAction(action string) {
	p.update(func(s *State) { s.Action = action })
}

// Subscribe registers fn for future changes and returns a func that removes it.
func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.subs = slices.DeleteFunc(p.subs, func(s subscription) bool { return s.id == id })
		})
	}
}

// Schedule sets the title after delay. The returned cancel func must be
// called when the caller goes away; after it returns the title will not change.
func (p *Provider) Schedule(title string, delay time.Duration) (cancel func()) {
	var (
		mu       sync.Mutex
		canceled bool
	)
	timer := time.AfterFunc(delay, func() {
		mu.Lock()
		defer mu.Unlock()
		if canceled {
			return
		}
		p.SetTitle(title)
	})

	return func() {
		mu.Lock()
		defer mu.Unlock()
		canceled = true
		timer.Stop()
	}
}

func (p *Provider) update(change func(*State)) {
	p.mu.Lock()
	change(&p.state)
	state := p.state
	subs := slices.Clone(p.subs)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(state)
	}
}
