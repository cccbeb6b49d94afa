package fog

import (
	"sync"
	"time"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// Visibility is the per-cell fog state. Cells only ever move forward:
// Hidden -> Explored -> (Explored <-> Visible).
type Visibility uint8

const (
	Hidden Visibility = iota
	Explored
	Visible
)

func (v Visibility) String() string {
	switch v {
	case Explored:
		return "explored"
	case Visible:
		return "visible"
	default:
		return "hidden"
	}
}

// playerGrid holds one player's view of the map.
type playerGrid struct {
	state    []Visibility
	lastSeen []time.Duration
}

// Grid is the per-player fog-of-war visibility grid. Recomputation is
// throttled; queries are safe from any goroutine.
type Grid struct {
	mu  sync.RWMutex
	cfg config.FogConfig
	lg  log.Log

	cellSize float64
	w, h     int

	players map[game.PlayerID]*playerGrid

	// revealed marks cloaked entities currently detected, per observer.
	revealed map[game.PlayerID]map[game.EntityID]bool

	elapsed        time.Duration
	sinceRecompute time.Duration
	everComputed   bool
}

// NewGrid covers a mapWidth x mapHeight world. Players must be registered
// with Track before their visibility is computed.
func NewGrid(mapWidth, mapHeight float64, cfg config.FogConfig, lg log.Log) *Grid {
	if lg == nil {
		lg = log.Provide()
	}
	w := int(mapWidth/cfg.CellSize) + 1
	h := int(mapHeight/cfg.CellSize) + 1
	return &Grid{
		cfg:      cfg,
		lg:       lg.With(log.String("system", "fog")),
		cellSize: cfg.CellSize,
		w:        w,
		h:        h,
		players:  make(map[game.PlayerID]*playerGrid),
		revealed: make(map[game.PlayerID]map[game.EntityID]bool),
	}
}

// Track registers a player for visibility computation.
func (g *Grid) Track(p game.PlayerID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[p]; ok {
		return
	}
	n := g.w * g.h
	pg := &playerGrid{
		state:    make([]Visibility, n),
		lastSeen: make([]time.Duration, n),
	}
	for i := range pg.lastSeen {
		pg.lastSeen[i] = -1
	}
	g.players[p] = pg
}

// Advance accumulates simulation time and recomputes visibility when the
// throttle interval has elapsed.
func (g *Grid) Advance(dt time.Duration, store *game.EntityStore) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.elapsed += dt
	g.sinceRecompute += dt
	if g.everComputed && g.sinceRecompute < g.cfg.RecomputeInterval {
		return
	}
	g.sinceRecompute = 0
	g.everComputed = true
	g.recompute(store)
}

// recompute unions sight disks per player, then resolves cloak detection.
func (g *Grid) recompute(store *game.EntityStore) {
	units := store.Units()
	buildings := store.Buildings()

	for player, pg := range g.players {
		// First pass: sight disks of living units and buildings.
		for _, u := range units {
			if u.Owner == player && u.IsAlive() {
				g.markDisk(pg, u.Pos, u.SightRange)
			}
		}
		for _, b := range buildings {
			if b.Owner == player && b.Alive {
				g.markDisk(pg, b.Pos, b.SightRange)
			}
		}
		// Cells no longer covered drop to Explored only after the grace
		// period, preventing visibility flicker.
		for i, st := range pg.state {
			if st == Visible && g.elapsed-pg.lastSeen[i] > g.cfg.GracePeriod {
				pg.state[i] = Explored
			}
		}

		// Second pass: cloaked enemies are revealed only by detectors in
		// range. Detection capability comes from the stat tables, not a
		// generic flag.
		rev := make(map[game.EntityID]bool)
		for _, enemy := range units {
			if enemy.Owner == player || !enemy.IsAlive() || !enemy.Cloaked {
				continue
			}
			if g.detects(player, enemy.Pos, units, buildings) {
				rev[enemy.ID] = true
			}
		}
		g.revealed[player] = rev
	}
}

func (g *Grid) detects(player game.PlayerID, pos geom.Vec2, units []*game.Unit, buildings []*game.Building) bool {
	for _, u := range units {
		if u.Owner == player && u.IsAlive() && u.Detector() &&
			geom.Distance(u.Pos, pos) <= u.DetectorRange {
			return true
		}
	}
	for _, b := range buildings {
		if b.Owner == player && b.Alive && b.Detector() &&
			geom.Distance(b.Pos, pos) <= b.DetectorRange {
			return true
		}
	}
	return false
}

func (g *Grid) markDisk(pg *playerGrid, center geom.Vec2, radius float64) {
	if radius <= 0 {
		return
	}
	minX := int((center.X - radius) / g.cellSize)
	maxX := int((center.X + radius) / g.cellSize)
	minY := int((center.Y - radius) / g.cellSize)
	maxY := int((center.Y + radius) / g.cellSize)
	rr := radius * radius
	for y := minY; y <= maxY; y++ {
		if y < 0 || y >= g.h {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < 0 || x >= g.w {
				continue
			}
			cx := (float64(x) + 0.5) * g.cellSize
			cy := (float64(y) + 0.5) * g.cellSize
			dx := cx - center.X
			dy := cy - center.Y
			if dx*dx+dy*dy > rr {
				continue
			}
			i := y*g.w + x
			pg.state[i] = Visible
			pg.lastSeen[i] = g.elapsed
		}
	}
}

func (g *Grid) cellIndex(p geom.Vec2) (int, bool) {
	x := int(p.X / g.cellSize)
	y := int(p.Y / g.cellSize)
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return 0, false
	}
	return y*g.w + x, true
}

// StateAt returns the raw visibility state of the cell containing p for a
// player. Unknown players see everything Hidden.
func (g *Grid) StateAt(player game.PlayerID, p geom.Vec2) Visibility {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pg, ok := g.players[player]
	if !ok {
		return Hidden
	}
	i, ok := g.cellIndex(p)
	if !ok {
		return Hidden
	}
	return pg.state[i]
}

// IsVisible reports whether the point is currently visible to the player.
func (g *Grid) IsVisible(player game.PlayerID, p geom.Vec2) bool {
	return g.StateAt(player, p) == Visible
}

// IsExplored reports whether the point has ever been seen by the player.
func (g *Grid) IsExplored(player game.PlayerID, p geom.Vec2) bool {
	return g.StateAt(player, p) >= Explored
}

// IsUnitVisibleTo applies the entity rules: owners always see their own
// living units; cloaked enemies require a detector in range; everything else
// falls back to the point query.
func (g *Grid) IsUnitVisibleTo(player game.PlayerID, u *game.Unit) bool {
	if u == nil || !u.IsAlive() {
		return false
	}
	if u.Owner == player {
		return true
	}
	if u.Cloaked {
		g.mu.RLock()
		revealed := g.revealed[player][u.ID]
		g.mu.RUnlock()
		if !revealed {
			return false
		}
	}
	return g.IsVisible(player, u.Pos)
}

// IsBuildingVisibleTo applies the same rules for buildings, which cannot
// cloak.
func (g *Grid) IsBuildingVisibleTo(player game.PlayerID, b *game.Building) bool {
	if b == nil || !b.Alive {
		return false
	}
	if b.Owner == player {
		return true
	}
	return g.IsVisible(player, b.Pos)
}
