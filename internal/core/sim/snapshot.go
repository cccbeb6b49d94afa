package sim

import (
	"sort"

	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// Snapshot is a read-only copy of the world taken at a tick boundary. It is
// safe to hold across ticks and to serialize off the sim goroutine.
type Snapshot struct {
	Tick      uint64             `json:"tick"`
	Units     []UnitSnapshot     `json:"units"`
	Buildings []BuildingSnapshot `json:"buildings"`
	Resources []ResourceSnapshot `json:"resources"`
	Players   []PlayerSnapshot   `json:"players"`
}

type UnitSnapshot struct {
	ID     game.EntityID `json:"id"`
	Type   string        `json:"type"`
	Owner  game.PlayerID `json:"owner"`
	Pos    geom.Vec2     `json:"pos"`
	Health float64       `json:"health"`
	Shield float64       `json:"shield"`
	State  string        `json:"state"`
	Cargo  int           `json:"cargo,omitempty"`
}

type BuildingSnapshot struct {
	ID       game.EntityID `json:"id"`
	Type     string        `json:"type"`
	Owner    game.PlayerID `json:"owner"`
	Pos      geom.Vec2     `json:"pos"`
	Health   float64       `json:"health"`
	Progress float64       `json:"progress"`
	Queue    int           `json:"queue"`
}

type ResourceSnapshot struct {
	ID     game.EntityID     `json:"id"`
	Kind   game.ResourceKind `json:"kind"`
	Pos    geom.Vec2         `json:"pos"`
	Amount int               `json:"amount"`
}

type PlayerSnapshot struct {
	Player     game.PlayerID `json:"player"`
	Minerals   int           `json:"minerals"`
	Gas        int           `json:"gas"`
	SupplyUsed int           `json:"supply_used"`
	SupplyCap  int           `json:"supply_cap"`
	Units      int           `json:"units"`
	Buildings  int           `json:"buildings"`
}

// Snapshot returns the latest published snapshot, or nil before the first
// tick completes.
func (e *Engine) Snapshot() *Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.latest
}

// buildSnapshot runs on the tick goroutine with the world quiescent.
func (e *Engine) buildSnapshot() *Snapshot {
	snap := &Snapshot{Tick: e.tick}

	for _, u := range e.store.Units() {
		snap.Units = append(snap.Units, UnitSnapshot{
			ID:     u.ID,
			Type:   u.Type,
			Owner:  u.Owner,
			Pos:    u.Pos,
			Health: u.Health,
			Shield: u.Shield,
			State:  u.State.String(),
			Cargo:  u.Cargo,
		})
	}
	for _, b := range e.store.Buildings() {
		snap.Buildings = append(snap.Buildings, BuildingSnapshot{
			ID:       b.ID,
			Type:     b.Type,
			Owner:    b.Owner,
			Pos:      b.Pos,
			Health:   b.Health,
			Progress: b.Progress,
			Queue:    len(b.Queue),
		})
	}
	for _, r := range e.store.Resources() {
		snap.Resources = append(snap.Resources, ResourceSnapshot{
			ID:     r.ID,
			Kind:   r.Kind,
			Pos:    r.Pos,
			Amount: r.Amount,
		})
	}
	for p := range e.factions {
		used, cap := e.ledger.Supply(p)
		snap.Players = append(snap.Players, PlayerSnapshot{
			Player:     p,
			Minerals:   e.ledger.Minerals(p),
			Gas:        e.ledger.Gas(p),
			SupplyUsed: used,
			SupplyCap:  cap,
			Units:      len(e.store.UnitsOwnedBy(p)),
			Buildings:  len(e.store.BuildingsOwnedBy(p)),
		})
	}
	// Map iteration order is random; keep player rows stable for consumers.
	sort.Slice(snap.Players, func(i, j int) bool {
		return snap.Players[i].Player < snap.Players[j].Player
	})
	return snap
}
