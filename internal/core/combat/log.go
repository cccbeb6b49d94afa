package combat

import (
	"sync"
	"time"

	"github.com/outpost-rts/outpost/internal/core/game"
)

// EventKind classifies combat log entries.
type EventKind int

const (
	EventAttack EventKind = iota
	EventKill
)

// Event is one combat log entry.
type Event struct {
	Kind       EventKind
	Time       time.Time
	AttackerID game.EntityID
	TargetID   game.EntityID
	Attacker   game.PlayerID
	Target     game.PlayerID
	Damage     float64
	Critical   bool
}

// Log is a bounded ring buffer of combat events plus per-player kill/loss
// tallies. Oldest entries are overwritten once capacity is reached.
type Log struct {
	mu     sync.RWMutex
	events []Event
	head   int
	size   int

	kills  map[game.PlayerID]int
	losses map[game.PlayerID]int
}

// NewLog creates a ring buffer of the given capacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 100
	}
	return &Log{
		events: make([]Event, capacity),
		kills:  make(map[game.PlayerID]int),
		losses: make(map[game.PlayerID]int),
	}
}

// Append records an event, evicting the oldest when full.
func (l *Log) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[l.head] = e
	l.head = (l.head + 1) % len(l.events)
	if l.size < len(l.events) {
		l.size++
	}
	if e.Kind == EventKill {
		l.kills[e.Attacker]++
		l.losses[e.Target]++
	}
}

// Events returns entries oldest-first.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0, l.size)
	start := l.head - l.size
	if start < 0 {
		start += len(l.events)
	}
	for i := 0; i < l.size; i++ {
		out = append(out, l.events[(start+i)%len(l.events)])
	}
	return out
}

// Len returns the number of buffered events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Kills returns how many kills the player has scored.
func (l *Log) Kills(p game.PlayerID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.kills[p]
}

// Losses returns how many entities the player has lost.
func (l *Log) Losses(p game.PlayerID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.losses[p]
}
