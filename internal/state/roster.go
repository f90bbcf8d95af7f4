package state

import (
	"errors"
	"sync"

	"tekken-tracker/internal/domain"
)

var ErrUnknownPlayer = errors.New("unknown player")

// Roster owns every tracked PlayerState. Writers go through Update; readers get deep copies.
type Roster struct {
	mu      sync.RWMutex
	order   []string
	players map[string]*domain.PlayerState
}

// NewRoster creates an empty state for each name, keeping the given order.
func NewRoster(names []string) *Roster {
	r := &Roster{
		order:   make([]string, 0, len(names)),
		players: make(map[string]*domain.PlayerState, len(names)),
	}
	for _, name := range names {
		if _, dup := r.players[name]; dup {
			continue
		}
		r.order = append(r.order, name)
		r.players[name] = domain.NewPlayerState(name)
	}
	return r
}

func (r *Roster) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Update runs fn with the live player states, in configured order, under the write lock.
func (r *Roster) Update(fn func(players []*domain.PlayerState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.ordered())
}

// Snapshot returns deep copies of every player, in configured order.
func (r *Roster) Snapshot() []*domain.PlayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.PlayerState, len(r.order))
	for i, name := range r.order {
		out[i] = r.players[name].Clone()
	}
	return out
}

func (r *Roster) Get(name string) (*domain.PlayerState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[name]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p.Clone(), nil
}

func (r *Roster) ordered() []*domain.PlayerState {
	out := make([]*domain.PlayerState, len(r.order))
	for i, name := range r.order {
		out[i] = r.players[name]
	}
	return out
}

// replace swaps in a restored state for a configured player. Unknown names are reported false.
func (r *Roster) replace(p *domain.PlayerState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[p.Name]; !ok {
		return false
	}
	r.players[p.Name] = p
	return true
}
