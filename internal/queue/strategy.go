package queue

import (
	"fmt"
	"sync"

	"github.com/matchforge/gamesync/internal/core"
)

// Strategy is the matchmaking contract the session coordinator drives: add
// a lobby to its mode's queue, remove it, or attempt a match for it.
// Adapted from internal/registry.Game's factory interface — same
// discover-by-key shape, applied to matchmaking rules instead of
// playable games.
type Strategy interface {
	Add(region core.Region, l core.Lobby)
	Remove(region core.Region, lobbyID core.LobbyID)
	UpdateThreshold(region core.Region, lobbyID core.LobbyID, threshold int)
	TryMatch(region core.Region, lobbyID core.LobbyID) (a, b core.Lobby, ok bool)
}

type casualStrategy struct{ q *Casual }

func (s casualStrategy) Add(region core.Region, l core.Lobby) { s.q.Add(region, l) }
func (s casualStrategy) Remove(region core.Region, lobbyID core.LobbyID) {
	s.q.Remove(region, lobbyID)
}

// UpdateThreshold is a no-op: the casual queue is plain FIFO and has no
// rating window to refresh.
func (s casualStrategy) UpdateThreshold(core.Region, core.LobbyID, int) {}

func (s casualStrategy) TryMatch(region core.Region, lobbyID core.LobbyID) (core.Lobby, core.Lobby, bool) {
	return s.q.TryMatch(region, lobbyID)
}

type competitiveStrategy struct{ q *Competitive }

func (s competitiveStrategy) Add(region core.Region, l core.Lobby) { s.q.Add(region, l) }
func (s competitiveStrategy) Remove(region core.Region, lobbyID core.LobbyID) {
	s.q.Remove(region, lobbyID)
}
func (s competitiveStrategy) UpdateThreshold(region core.Region, lobbyID core.LobbyID, threshold int) {
	s.q.UpdateThreshold(region, lobbyID, threshold)
}
func (s competitiveStrategy) TryMatch(region core.Region, lobbyID core.LobbyID) (core.Lobby, core.Lobby, bool) {
	return s.q.TryMatch(region, lobbyID)
}

// Engine owns one Strategy per core.Mode and dispatches to the right one by
// a lobby's mode, the way internal/registry.Create dispatched to a game
// factory by ID.
type Engine struct {
	mu         sync.RWMutex
	strategies map[core.Mode]Strategy
}

// NewEngine builds an Engine with the two built-in strategies registered.
func NewEngine() *Engine {
	e := &Engine{strategies: make(map[core.Mode]Strategy)}
	e.register(core.ModeCasual, casualStrategy{q: NewCasual()})
	e.register(core.ModeCompetitive, competitiveStrategy{q: NewCompetitive()})
	return e
}

func (e *Engine) register(mode core.Mode, s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[mode] = s
}

func (e *Engine) strategy(mode core.Mode) (Strategy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[mode]
	if !ok {
		return nil, fmt.Errorf("queue: no strategy registered for mode %q", mode)
	}
	return s, nil
}

// Enqueue adds l to the queue matching its own mode.
func (e *Engine) Enqueue(l core.Lobby) error {
	s, err := e.strategy(l.Params.Mode)
	if err != nil {
		return err
	}
	s.Add(l.Params.Region, l)
	return nil
}

// Dequeue removes a lobby from its mode's queue. A no-op if it was never
// queued or has already been matched.
func (e *Engine) Dequeue(l core.Lobby) error {
	s, err := e.strategy(l.Params.Mode)
	if err != nil {
		return err
	}
	s.Remove(l.Params.Region, l.LobbyID)
	return nil
}

// UpdateThreshold refreshes l's stored queue_threshold in its mode's queue
// (spec.md invariant 7: refreshed on every CheckMatch from the lobby's
// leader). A no-op for modes, like Casual, with no per-lobby window.
func (e *Engine) UpdateThreshold(l core.Lobby, threshold int) error {
	s, err := e.strategy(l.Params.Mode)
	if err != nil {
		return err
	}
	s.UpdateThreshold(l.Params.Region, l.LobbyID, threshold)
	return nil
}

// TryMatch attempts to pair l with a waiting opponent in its mode's queue.
// Each side's mutual-consent window is read from its own stored
// queue_threshold; call UpdateThreshold first if the caller's threshold
// just changed.
func (e *Engine) TryMatch(l core.Lobby) (a, b core.Lobby, ok bool, err error) {
	s, err := e.strategy(l.Params.Mode)
	if err != nil {
		return core.Lobby{}, core.Lobby{}, false, err
	}
	a, b, ok = s.TryMatch(l.Params.Region, l.LobbyID)
	return a, b, ok, nil
}
