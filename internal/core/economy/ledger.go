package economy

import (
	"sync"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
)

// account is one player's resource counters.
type account struct {
	minerals   int
	gas        int
	supplyUsed int
	supplyCap  int
}

// Ledger tracks per-player minerals, gas and supply, and settles building
// production queues at the end of each tick.
type Ledger struct {
	mu       sync.RWMutex
	cfg      config.EconomyConfig
	lg       log.Log
	accounts map[game.PlayerID]*account
}

// NewLedger creates an empty ledger.
func NewLedger(cfg config.EconomyConfig, lg log.Log) *Ledger {
	if lg == nil {
		lg = log.Provide()
	}
	return &Ledger{
		cfg:      cfg,
		lg:       lg.With(log.String("system", "economy")),
		accounts: make(map[game.PlayerID]*account),
	}
}

// Register opens an account seeded with the configured starting resources.
// Registering twice is a no-op.
func (l *Ledger) Register(p game.PlayerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[p]; ok {
		return
	}
	l.accounts[p] = &account{
		minerals: l.cfg.StartingMinerals,
		gas:      l.cfg.StartingGas,
	}
}

// Minerals returns the player's mineral balance.
func (l *Ledger) Minerals(p game.PlayerID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.accounts[p]; ok {
		return a.minerals
	}
	return 0
}

// Gas returns the player's gas balance.
func (l *Ledger) Gas(p game.PlayerID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.accounts[p]; ok {
		return a.gas
	}
	return 0
}

// Supply returns used and capped supply for the player.
func (l *Ledger) Supply(p game.PlayerID) (used, cap int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.accounts[p]; ok {
		return a.supplyUsed, a.supplyCap
	}
	return 0, 0
}

// CanAfford checks minerals, gas and supply headroom in one shot.
func (l *Ledger) CanAfford(p game.PlayerID, minerals, gas, supply int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.accounts[p]
	if !ok {
		return false
	}
	return a.minerals >= minerals && a.gas >= gas &&
		(supply == 0 || a.supplyUsed+supply <= a.supplyCap)
}

// Spend deducts the cost if affordable and reports whether it was charged.
// Balances never go negative.
func (l *Ledger) Spend(p game.PlayerID, minerals, gas int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[p]
	if !ok || a.minerals < minerals || a.gas < gas {
		return false
	}
	a.minerals -= minerals
	a.gas -= gas
	return true
}

// Deposit credits harvested resources. Negative amounts are ignored.
func (l *Ledger) Deposit(p game.PlayerID, kind game.ResourceKind, amount int) {
	if amount <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[p]
	if !ok {
		return
	}
	switch kind {
	case game.ResourceGas:
		a.gas += amount
	default:
		a.minerals += amount
	}
}

// QueueUnit charges the unit's cost and appends it to the building's
// production queue. It refuses when the building is incomplete, cannot
// produce the type, or the player lacks resources or supply.
func (l *Ledger) QueueUnit(f *game.Faction, b *game.Building, unitType string) bool {
	if b == nil || !b.Alive || !b.Completed() || !b.CanProduce(unitType) {
		return false
	}
	def, err := f.UnitDef(unitType)
	if err != nil {
		return false
	}
	if !l.CanAfford(b.Owner, def.MineralCost, def.GasCost, def.SupplyCost) {
		return false
	}
	if !l.Spend(b.Owner, def.MineralCost, def.GasCost) {
		return false
	}
	l.mu.Lock()
	if a, ok := l.accounts[b.Owner]; ok {
		a.supplyUsed += def.SupplyCost
	}
	l.mu.Unlock()
	b.Enqueue(unitType, def.BuildTime)
	return true
}

// releaseSupply returns supply when a unit dies.
func (l *Ledger) releaseSupply(p game.PlayerID, supply int) {
	if supply <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.accounts[p]; ok {
		a.supplyUsed -= supply
		if a.supplyUsed < 0 {
			a.supplyUsed = 0
		}
	}
}

// SettleProduction advances every completed building's queue by dt seconds
// and spawns finished units at the rally point. Buildings still under
// construction produce nothing. Supply caps are refreshed from the standing
// buildings first.
func (l *Ledger) SettleProduction(store *game.EntityStore, factions map[game.PlayerID]*game.Faction, dt float64) {
	l.refreshSupplyCaps(store)

	for _, b := range store.Buildings() {
		if !b.Alive || !b.Completed() || len(b.Queue) == 0 {
			continue
		}
		f, ok := factions[b.Owner]
		if !ok {
			continue
		}
		head := &b.Queue[0]
		head.Remaining -= dt
		if head.Remaining > 0 {
			continue
		}
		unitType := head.UnitType
		b.Queue = b.Queue[1:]
		u, err := f.SpawnUnit(store, unitType, b.Owner, b.RallyPoint)
		if err != nil {
			l.lg.Warn("production spawn failed",
				log.String("unit_type", unitType), log.Error(err))
			continue
		}
		l.lg.Debug("unit produced",
			log.Uint64("id", uint64(u.ID)),
			log.String("type", unitType),
			log.Int("player", int(b.Owner)))
	}
}

// ReleaseDeadSupply returns the supply of units that died this tick. Called
// before the store sweeps them out.
func (l *Ledger) ReleaseDeadSupply(store *game.EntityStore, factions map[game.PlayerID]*game.Faction) {
	for _, u := range store.Units() {
		if u.Alive {
			continue
		}
		f, ok := factions[u.Owner]
		if !ok {
			continue
		}
		if def, err := f.UnitDef(u.Type); err == nil {
			l.releaseSupply(u.Owner, def.SupplyCost)
		}
	}
}

func (l *Ledger) refreshSupplyCaps(store *game.EntityStore) {
	caps := make(map[game.PlayerID]int)
	for _, b := range store.Buildings() {
		if b.Alive && b.Completed() {
			caps[b.Owner] += b.SupplyProvided
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for p, a := range l.accounts {
		c := caps[p]
		if c > l.cfg.SupplyCap {
			c = l.cfg.SupplyCap
		}
		a.supplyCap = c
	}
}
