package combat

import (
	"math/rand"
	"time"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// Resolver computes and applies damage. It holds no entity references; the
// caller passes attacker and target in per call.
type Resolver struct {
	cfg config.CombatConfig
	rng *rand.Rand
	lg  log.Log

	combatLog *Log
}

// NewResolver builds a resolver with its own RNG seed. Tests use
// NewResolverWithRNG for deterministic crits.
func NewResolver(cfg config.CombatConfig, lg log.Log) *Resolver {
	return NewResolverWithRNG(cfg, lg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewResolverWithRNG builds a resolver using the supplied RNG.
func NewResolverWithRNG(cfg config.CombatConfig, lg log.Log, rng *rand.Rand) *Resolver {
	if lg == nil {
		lg = log.Provide()
	}
	return &Resolver{
		cfg:       cfg,
		rng:       rng,
		lg:        lg.With(log.String("system", "combat")),
		combatLog: NewLog(cfg.LogCapacity),
	}
}

// CombatLog exposes the bounded event log for statistics consumers.
func (r *Resolver) CombatLog() *Log { return r.combatLog }

// Attack resolves one swing from attacker against target. It is a silent
// no-op when the attacker cannot attack, the cooldown has not elapsed, the
// target is dead, or the target is out of range. No-op over error is
// deliberate: the UI and AI race against simulation state every tick.
func (r *Resolver) Attack(attacker *game.Unit, target game.Combatant) {
	if attacker == nil || target == nil {
		return
	}
	if !attacker.IsAlive() || !attacker.CanAttack() || attacker.Cooldown > 0 {
		return
	}
	if !target.IsAlive() {
		return
	}
	if attacker.DistanceTo(target.Position(), target.CollisionRadius()) > attacker.AttackRange {
		return
	}

	attacker.Cooldown = 1 / attacker.AttackSpeed
	r.dealDamage(attacker, target, attacker.Damage)
}

// AreaAttack damages every enemy candidate within radius of center with a
// distance-linear falloff: full damage at the center, half at the edge. One
// cooldown is consumed for the whole call regardless of target count.
func (r *Resolver) AreaAttack(attacker *game.Unit, center geom.Vec2, radius float64, candidates []game.Combatant) {
	if attacker == nil || radius <= 0 {
		return
	}
	if !attacker.IsAlive() || !attacker.CanAttack() || attacker.Cooldown > 0 {
		return
	}
	attacker.Cooldown = 1 / attacker.AttackSpeed

	for _, target := range candidates {
		if target == nil || !target.IsAlive() || target.OwnerID() == attacker.Owner {
			continue
		}
		d := geom.Distance(center, target.Position())
		if d > radius {
			continue
		}
		falloff := 1 - 0.5*(d/radius)
		r.dealDamage(attacker, target, attacker.Damage*falloff)
	}
}

// dealDamage runs the pipeline: type multiplier, armor subtraction floored
// at 1, critical roll doubling post-armor damage, then shield-first apply.
func (r *Resolver) dealDamage(attacker *game.Unit, target game.Combatant, base float64) {
	damage := base * Multiplier(attacker.Class, target.CombatClass())
	damage -= target.ArmorValue()
	if damage < 1 {
		damage = 1
	}
	crit := r.rng.Float64() < r.cfg.CritChance
	if crit {
		damage *= 2
	}

	killed := target.ApplyDamage(damage)

	now := time.Now()
	r.combatLog.Append(Event{
		Kind:       EventAttack,
		Time:       now,
		AttackerID: attacker.ID,
		TargetID:   target.EntityID(),
		Attacker:   attacker.Owner,
		Target:     target.OwnerID(),
		Damage:     damage,
		Critical:   crit,
	})
	if killed {
		r.combatLog.Append(Event{
			Kind:       EventKill,
			Time:       now,
			AttackerID: attacker.ID,
			TargetID:   target.EntityID(),
			Attacker:   attacker.Owner,
			Target:     target.OwnerID(),
			Damage:     damage,
			Critical:   crit,
		})
		r.lg.Debug("kill",
			log.Uint64("attacker", uint64(attacker.ID)),
			log.Uint64("target", uint64(target.EntityID())))
	}
}
