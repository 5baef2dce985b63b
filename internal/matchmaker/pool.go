package matchmaker

import (
	"fmt"
	"sync"

	"moba-mmr/internal/domain"
)

// Pool is the set of players waiting for a match, in arrival order.
type Pool struct {
	mu      sync.Mutex
	players []*domain.Player
	ids     map[string]struct{}
}

func NewPool() *Pool {
	return &Pool{ids: map[string]struct{}{}}
}

// Add queues players atomically: either all are added or none.
func (p *Pool) Add(players ...*domain.Player) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[string]struct{}, len(players))
	for _, pl := range players {
		if pl == nil || pl.ID == "" {
			return &domain.ValidationError{Field: "player", Reason: "missing id"}
		}
		_, queued := p.ids[pl.ID]
		_, dup := seen[pl.ID]
		if queued || dup {
			return fmt.Errorf("player %s already queued: %w", pl.ID, domain.ErrValidation)
		}
		seen[pl.ID] = struct{}{}
	}
	for _, pl := range players {
		p.ids[pl.ID] = struct{}{}
		p.players = append(p.players, pl)
	}
	return nil
}

func (p *Pool) removeLocked(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := p.ids[id]; ok {
			drop[id] = struct{}{}
			delete(p.ids, id)
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := p.players[:0]
	for _, pl := range p.players {
		if _, ok := drop[pl.ID]; !ok {
			kept = append(kept, pl)
		}
	}
	clear(p.players[len(kept):])
	p.players = kept
	return len(drop)
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.players)
}

func (p *Pool) Contains(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.ids[id]
	return ok
}

// Players returns a snapshot in arrival order.
func (p *Pool) Players() []*domain.Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.Player(nil), p.players...)
}
