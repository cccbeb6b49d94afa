package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/outpost-rts/outpost/internal/core/ai"
	"github.com/outpost-rts/outpost/internal/core/behavior"
	"github.com/outpost-rts/outpost/internal/core/combat"
	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/economy"
	"github.com/outpost-rts/outpost/internal/core/events/bus"
	"github.com/outpost-rts/outpost/internal/core/fog"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/internal/core/path"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// EventTick is published on the bus after every completed tick.
const EventTick = "sim.tick"

// Engine owns every subsystem and advances them on a fixed timestep. All
// mutation happens on the tick goroutine; outside callers interact through
// the command API and read through snapshots.
type Engine struct {
	cfg      *config.Config
	store    *game.EntityStore
	finder   *path.Finder
	fogGrid  *fog.Grid
	resolver *combat.Resolver
	ledger   *economy.Ledger
	updater  *behavior.Updater
	events   bus.EventBus
	lg       log.Log

	factions  map[game.PlayerID]*game.Faction
	directors []*ai.Director

	mu          sync.Mutex
	tick        uint64
	accumulator time.Duration
	alpha       float64

	cmdMu   sync.Mutex
	pending []command

	pauseMu  sync.Mutex
	pauseCnd *sync.Cond
	paused   bool
	stopping bool

	snapMu sync.RWMutex
	latest *Snapshot
}

// NewEngine assembles an engine from a validated config. Players are added
// separately with AddPlayer before the first tick.
func NewEngine(cfg *config.Config, events bus.EventBus, lg log.Log) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sim: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid config: %w", err)
	}
	if lg == nil {
		lg = log.Provide()
	}
	if events == nil {
		events = bus.New()
	}

	store := game.NewEntityStore(cfg.MapWidth, cfg.MapHeight, events)
	finder := path.NewFinder(cfg.MapWidth, cfg.MapHeight, cfg.Path, lg)
	fogGrid := fog.NewGrid(cfg.MapWidth, cfg.MapHeight, cfg.Fog, lg)
	resolver := combat.NewResolver(cfg.Combat, lg)
	ledger := economy.NewLedger(cfg.Economy, lg)
	factions := make(map[game.PlayerID]*game.Faction)

	e := &Engine{
		cfg:      cfg,
		store:    store,
		finder:   finder,
		fogGrid:  fogGrid,
		resolver: resolver,
		ledger:   ledger,
		updater:  behavior.NewUpdater(store, finder, resolver, ledger, factions, lg),
		events:   events,
		lg:       lg.With(log.String("system", "sim")),
		factions: factions,
	}
	e.pauseCnd = sync.NewCond(&e.pauseMu)
	return e, nil
}

// Store exposes the entity store. Callers outside the tick goroutine must
// treat it as read-only.
func (e *Engine) Store() *game.EntityStore { return e.store }

// Finder exposes the shared pathfinder, mainly so setup code can place
// static obstacles before the match starts.
func (e *Engine) Finder() *path.Finder { return e.finder }

// Fog exposes the fog of war grid for visibility queries.
func (e *Engine) Fog() *fog.Grid { return e.fogGrid }

// Ledger exposes per-player resource accounts.
func (e *Engine) Ledger() *economy.Ledger { return e.ledger }

// Events exposes the engine's event bus.
func (e *Engine) Events() bus.EventBus { return e.events }

// Tick returns how many fixed steps have completed.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Alpha returns the interpolation factor in [0,1): the fraction of a tick
// accumulated since the last completed step. Render threads blend the
// previous and current snapshot with it.
func (e *Engine) Alpha() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alpha
}

// AddPlayer registers a player, seeds their starting forces at basePos, and,
// when aiControlled, attaches a director with the given difficulty profile.
func (e *Engine) AddPlayer(id game.PlayerID, factionTag, difficulty string, basePos geom.Vec2, aiControlled bool) error {
	if id == game.NeutralPlayer {
		return fmt.Errorf("sim: player id %d is reserved for neutral entities", id)
	}
	if _, exists := e.factions[id]; exists {
		return fmt.Errorf("sim: player %d already registered", id)
	}
	faction, err := game.NewFaction(e.cfg, factionTag)
	if err != nil {
		return fmt.Errorf("sim: add player %d: %w", id, err)
	}
	e.factions[id] = faction
	e.ledger.Register(id)
	e.fogGrid.Track(id)
	if _, err := faction.SpawnStartingForces(e.store, id, basePos); err != nil {
		return fmt.Errorf("sim: spawn starting forces for player %d: %w", id, err)
	}
	if aiControlled {
		d := ai.NewDirector(id, faction, e.cfg.AI, e.cfg.Profile(difficulty),
			e.store, e.ledger, e.Commander(id),
			rand.New(rand.NewSource(time.Now().UnixNano()+int64(id))), e.lg)
		e.directors = append(e.directors, d)
	}
	return nil
}

// SpawnResourceField drops a ring of mineral nodes around center.
func (e *Engine) SpawnResourceField(center geom.Vec2, nodes, amount, yield int) {
	for i := 0; i < nodes; i++ {
		angle := float64(i) / float64(nodes) * 2 * math.Pi
		pos := geom.Vec2{
			X: center.X + 80*math.Cos(angle),
			Y: center.Y + 80*math.Sin(angle),
		}
		e.store.InsertResource(game.NewResourceNode(game.ResourceMinerals, amount, yield, pos))
	}
}

// Step advances the simulation by an elapsed wall-clock duration, running as
// many fixed ticks as the accumulator covers. The remainder becomes the
// interpolation factor.
func (e *Engine) Step(elapsed time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accumulator += elapsed
	for e.accumulator >= e.cfg.Tick {
		e.runTick()
		e.accumulator -= e.cfg.Tick
	}
	e.alpha = float64(e.accumulator) / float64(e.cfg.Tick)
}

// StepTicks advances exactly n fixed ticks, ignoring wall-clock time.
func (e *Engine) StepTicks(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < n; i++ {
		e.runTick()
	}
}

// runTick executes one fixed step. Order matters: commands land first, units
// act, the AI reacts, fog and economy settle, and removal of dead entities
// happens last so every system saw the same population this tick.
func (e *Engine) runTick() {
	dt := e.cfg.Tick.Seconds()

	e.applyPending()
	for _, u := range e.store.Units() {
		e.updater.Update(u, dt)
	}
	for _, d := range e.directors {
		d.Advance(e.cfg.Tick)
	}
	e.fogGrid.Advance(e.cfg.Tick, e.store)
	e.ledger.SettleProduction(e.store, e.factions, dt)
	e.finder.Advance(e.cfg.Tick)
	e.ledger.ReleaseDeadSupply(e.store, e.factions)
	e.store.RemoveDead()

	e.tick++
	snap := e.buildSnapshot()
	e.snapMu.Lock()
	e.latest = snap
	e.snapMu.Unlock()
	_ = e.events.Publish(bus.NewEvent(EventTick, "sim", e.tick))
}

// Pause stops tick advancement. Run blocks on a condition variable until
// Resume; no ticks elapse and no simulated time passes while paused.
func (e *Engine) Pause() {
	e.pauseMu.Lock()
	e.paused = true
	e.pauseMu.Unlock()
}

// Resume releases a paused engine.
func (e *Engine) Resume() {
	e.pauseMu.Lock()
	e.paused = false
	e.pauseMu.Unlock()
	e.pauseCnd.Broadcast()
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	return e.paused
}

// waitWhilePaused blocks until the engine is resumed or stopping. It reports
// whether it actually waited.
func (e *Engine) waitWhilePaused() bool {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	waited := false
	for e.paused && !e.stopping {
		waited = true
		e.pauseCnd.Wait()
	}
	return waited
}

// Run drives the engine in real time until ctx is cancelled. Pausing parks
// the loop on the condition variable; resuming restarts the clock so the
// paused span is not replayed.
func (e *Engine) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		e.pauseMu.Lock()
		e.stopping = true
		e.pauseMu.Unlock()
		e.pauseCnd.Broadcast()
	})
	defer stop()

	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if e.waitWhilePaused() {
				last = time.Now()
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			now := time.Now()
			e.Step(now.Sub(last))
			last = now
		}
	}
}
