package ai

import (
	"math/rand"
	"time"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/economy"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// State is the director's strategic state.
type State int

const (
	StateIdle State = iota
	StateEconomy
	StateExpand
	StateArmy
	StateAttack
	StateDefend
	StateRetreat
)

var stateNames = [...]string{
	StateIdle:    "idle",
	StateEconomy: "economy",
	StateArmy:    "army",
	StateExpand:  "expand",
	StateAttack:  "attack",
	StateDefend:  "defend",
	StateRetreat: "retreat",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Commander is the command surface the director drives. It is the same API
// human input goes through, so AI orders and player orders are
// indistinguishable to the simulation.
type Commander interface {
	IssueMove(units []game.EntityID, target geom.Vec2)
	IssueAttack(units []game.EntityID, target game.EntityID)
	IssueGather(units []game.EntityID, resource game.EntityID)
}

// threatRange is how close an enemy must come to the base before the
// director considers it under threat.
const threatRange = 600.0

// sustainedContact is how long the army must keep sight of enemy units
// before the director commits to an attack below the army cap.
const sustainedContact = 5 * time.Second

// Director runs one AI player's finite-state machine. It is evaluated on a
// throttled cadence scaled by difficulty, not every tick.
type Director struct {
	player  game.PlayerID
	faction *game.Faction
	profile config.AIProfile

	store     *game.EntityStore
	ledger    *economy.Ledger
	commander Commander
	rng       *rand.Rand
	lg        log.Log

	interval    time.Duration
	sinceUpdate time.Duration

	state        State
	stateTimer   time.Duration
	contactTimer time.Duration

	basePos geom.Vec2
}

// NewDirector builds a director for one player. The RNG drives the
// difficulty-scaled random event check; pass a seeded one for deterministic
// tests.
func NewDirector(
	player game.PlayerID,
	faction *game.Faction,
	cfg config.AIConfig,
	profile config.AIProfile,
	store *game.EntityStore,
	ledger *economy.Ledger,
	commander Commander,
	rng *rand.Rand,
	lg log.Log,
) *Director {
	if lg == nil {
		lg = log.Provide()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	interval := time.Duration(float64(cfg.UpdateInterval) * profile.ReactionScale)
	if interval <= 0 {
		interval = cfg.UpdateInterval
	}
	return &Director{
		player:    player,
		faction:   faction,
		profile:   profile,
		store:     store,
		ledger:    ledger,
		commander: commander,
		rng:       rng,
		lg: lg.With(
			log.String("system", "ai"),
			log.Int("player", int(player))),
		interval: interval,
		state:    StateIdle,
	}
}

// State returns the current FSM state.
func (d *Director) State() State { return d.state }

// Advance accumulates time and evaluates the FSM when the cadence elapses.
func (d *Director) Advance(dt time.Duration) {
	d.sinceUpdate += dt
	d.stateTimer += dt
	if d.sinceUpdate < d.interval {
		return
	}
	d.sinceUpdate = 0
	d.evaluate()
}

func (d *Director) evaluate() {
	base := d.homeBase()
	if base != nil {
		d.basePos = base.Pos
	}

	// Difficulty-scaled random event: occasionally force a transition to
	// simulate non-optimal play.
	if d.rng.Float64() < d.profile.EventChance {
		d.forceRandomTransition()
	}

	switch d.state {
	case StateIdle:
		d.transition(StateEconomy)
	case StateEconomy:
		d.runEconomy()
	case StateExpand:
		d.runExpand()
	case StateArmy:
		d.runArmy()
	case StateAttack:
		d.runAttack()
	case StateDefend:
		d.runDefend()
	case StateRetreat:
		d.runRetreat()
	}
}

func (d *Director) transition(next State) {
	if d.state == next {
		return
	}
	d.lg.Debug("director transition",
		log.String("from", d.state.String()),
		log.String("to", next.String()))
	d.state = next
	d.stateTimer = 0
	d.contactTimer = 0
}

func (d *Director) forceRandomTransition() {
	candidates := []State{StateEconomy, StateArmy, StateAttack, StateDefend, StateRetreat}
	d.transition(candidates[d.rng.Intn(len(candidates))])
}

func (d *Director) runEconomy() {
	d.putIdleWorkersToWork()

	workers := d.workers()
	if len(workers) < d.profile.WorkerCap {
		d.queueUnit(d.faction.Def.WorkerType)
	}

	if d.ledger.Minerals(d.player) > d.profile.ExpandThreshold {
		d.transition(StateExpand)
		return
	}
	// Move to army building once the worker line is established and there
	// is money left over for combat units.
	armyDef, err := d.faction.UnitDef(d.faction.Def.ArmyType)
	if err == nil && len(workers) >= d.profile.WorkerCap/2 &&
		d.ledger.Minerals(d.player) >= 2*armyDef.MineralCost {
		d.transition(StateArmy)
	}

	if d.underThreat() {
		d.transition(StateDefend)
	}
}

// runExpand places one expansion base near an unclaimed resource cluster and
// sends a worker to build it, then goes straight back to Economy.
func (d *Director) runExpand() {
	defer d.transition(StateEconomy)

	def, err := d.faction.BuildingDef(d.faction.Def.StartingBase)
	if err != nil {
		return
	}
	node := d.expansionSite()
	if node == nil {
		return
	}
	if !d.ledger.CanAfford(d.player, def.MineralCost, def.GasCost, 0) {
		return
	}
	if !d.ledger.Spend(d.player, def.MineralCost, def.GasCost) {
		return
	}
	site := geom.Vec2{X: node.Pos.X + 120, Y: node.Pos.Y + 120}
	b, err := d.faction.SpawnBuilding(d.store, d.faction.Def.StartingBase, d.player, site)
	if err != nil {
		d.lg.Warn("expansion failed", log.Error(err))
		return
	}
	if worker := d.idleWorker(); worker != nil {
		worker.TargetBuilding = b.ID
		worker.State = game.TaskBuilding
	}
	d.lg.Info("expansion started", log.Uint64("building", uint64(b.ID)))
}

func (d *Director) runArmy() {
	d.putIdleWorkersToWork()

	army := d.combatUnits()
	queued := d.queuedArmy()
	if len(army)+queued < d.profile.ArmyCap {
		d.queueUnit(d.faction.Def.ArmyType)
	}

	if d.underThreat() {
		d.transition(StateDefend)
		return
	}

	// Contact with the enemy is tracked across evaluations: a standing army
	// that keeps sight of enemy units long enough attacks early instead of
	// waiting out the cap.
	if d.armySeesEnemy(army) {
		d.contactTimer += d.interval
	} else {
		d.contactTimer = 0
	}

	if len(army) >= d.profile.ArmyCap ||
		(len(army) > 0 && d.contactTimer >= sustainedContact) {
		d.transition(StateAttack)
	}
}

func (d *Director) armySeesEnemy(army []*game.Unit) bool {
	for _, u := range army {
		if d.store.NearestEnemy(u) != nil {
			return true
		}
	}
	return false
}

func (d *Director) runAttack() {
	army := d.combatUnits()
	if d.lowHealthFraction(army) > 0.5 {
		d.transition(StateRetreat)
		return
	}
	if target := d.store.NearestEnemyBuilding(d.player, d.basePos); target != nil {
		d.commander.IssueAttack(unitIDs(army), target.ID)
	}
	if d.stateTimer >= d.profile.AttackDuration {
		d.transition(StateEconomy)
	}
}

func (d *Director) runDefend() {
	army := d.combatUnits()
	threat := d.nearestThreat()
	if threat != nil {
		d.commander.IssueAttack(unitIDs(army), threat.ID)
		d.stateTimer = 0
		return
	}
	if d.stateTimer >= d.profile.DefendDuration {
		d.transition(StateArmy)
	}
}

// runRetreat sends wounded combat units home, then resumes the economy.
func (d *Director) runRetreat() {
	var wounded []game.EntityID
	for _, u := range d.combatUnits() {
		if u.Health < u.MaxHealth*d.profile.RetreatHealthFrac {
			wounded = append(wounded, u.ID)
		}
	}
	if len(wounded) > 0 {
		d.commander.IssueMove(wounded, d.basePos)
	}
	d.transition(StateEconomy)
}

// putIdleWorkersToWork sends idle workers at the nearest mineral field.
func (d *Director) putIdleWorkersToWork() {
	for _, u := range d.workers() {
		if u.State != game.TaskIdle {
			continue
		}
		node := d.store.NearestResource(u.Pos, game.ResourceMinerals)
		if node == nil {
			return
		}
		d.commander.IssueGather([]game.EntityID{u.ID}, node.ID)
	}
}

func (d *Director) queueUnit(unitType string) {
	for _, b := range d.store.BuildingsOwnedBy(d.player) {
		if d.ledger.QueueUnit(d.faction, b, unitType) {
			return
		}
	}
}

func (d *Director) homeBase() *game.Building {
	for _, b := range d.store.BuildingsOwnedBy(d.player) {
		if b.Base && b.Completed() {
			return b
		}
	}
	return nil
}

func (d *Director) workers() []*game.Unit {
	var out []*game.Unit
	for _, u := range d.store.UnitsOwnedBy(d.player) {
		if u.Worker() {
			out = append(out, u)
		}
	}
	return out
}

func (d *Director) idleWorker() *game.Unit {
	for _, u := range d.workers() {
		if u.State == game.TaskIdle || u.State == game.TaskGathering {
			return u
		}
	}
	return nil
}

func (d *Director) combatUnits() []*game.Unit {
	var out []*game.Unit
	for _, u := range d.store.UnitsOwnedBy(d.player) {
		if !u.Worker() && u.CanAttack() {
			out = append(out, u)
		}
	}
	return out
}

func (d *Director) queuedArmy() int {
	n := 0
	for _, b := range d.store.BuildingsOwnedBy(d.player) {
		for _, item := range b.Queue {
			if item.UnitType == d.faction.Def.ArmyType {
				n++
			}
		}
	}
	return n
}

func (d *Director) underThreat() bool {
	return d.nearestThreat() != nil
}

func (d *Director) nearestThreat() *game.Unit {
	var best *game.Unit
	var bestD float64
	for _, u := range d.store.UnitsInRadius(d.basePos, threatRange) {
		if u.Owner == d.player || u.Owner == game.NeutralPlayer || !u.CanAttack() {
			continue
		}
		dd := geom.DistanceSq(d.basePos, u.Pos)
		if best == nil || dd < bestD {
			best = u
			bestD = dd
		}
	}
	return best
}

// expansionSite picks the nearest mineral node without a friendly base close
// to it.
func (d *Director) expansionSite() *game.ResourceNode {
	bases := d.store.BuildingsOwnedBy(d.player)
	var best *game.ResourceNode
	var bestD float64
	for _, node := range d.store.Resources() {
		if node.Depleted() || node.Kind != game.ResourceMinerals {
			continue
		}
		claimed := false
		for _, b := range bases {
			if b.Base && geom.Distance(b.Pos, node.Pos) < 400 {
				claimed = true
				break
			}
		}
		if claimed {
			continue
		}
		dd := geom.DistanceSq(d.basePos, node.Pos)
		if best == nil || dd < bestD {
			best = node
			bestD = dd
		}
	}
	return best
}

func (d *Director) lowHealthFraction(units []*game.Unit) float64 {
	if len(units) == 0 {
		return 0
	}
	low := 0
	for _, u := range units {
		if u.Health < u.MaxHealth*d.profile.RetreatHealthFrac {
			low++
		}
	}
	return float64(low) / float64(len(units))
}

func unitIDs(units []*game.Unit) []game.EntityID {
	out := make([]game.EntityID, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}
