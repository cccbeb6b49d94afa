package game

import (
	"sort"
	"sync"

	"github.com/outpost-rts/outpost/internal/core/events/bus"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// EntityStore exclusively owns all entity instances. Every other component
// receives entities by reference for the duration of one tick and must not
// retain handles across ticks.
//
// Spatial queries are O(n) linear scans over the relevant collection, which
// is fine at a few hundred entities. Concurrent readers (the snapshot path)
// get consistent copies under the read lock.
type EntityStore struct {
	mu     sync.RWMutex
	nextID EntityID

	units     map[EntityID]*Unit
	buildings map[EntityID]*Building
	resources map[EntityID]*ResourceNode

	bounds geom.Vec2
	events bus.EventBus
}

// NewEntityStore creates an empty store for a map of the given dimensions.
// The event bus is optional; pass nil to disable lifecycle events.
func NewEntityStore(mapWidth, mapHeight float64, events bus.EventBus) *EntityStore {
	return &EntityStore{
		units:     make(map[EntityID]*Unit),
		buildings: make(map[EntityID]*Building),
		resources: make(map[EntityID]*ResourceNode),
		bounds:    geom.Vec2{X: mapWidth, Y: mapHeight},
		events:    events,
	}
}

// Bounds returns the map dimensions.
func (s *EntityStore) Bounds() geom.Vec2 {
	return s.bounds
}

// ClampToBounds keeps a position inside the map.
func (s *EntityStore) ClampToBounds(p geom.Vec2) geom.Vec2 {
	return geom.Vec2{
		X: geom.Clamp(p.X, 0, s.bounds.X),
		Y: geom.Clamp(p.Y, 0, s.bounds.Y),
	}
}

// InsertUnit assigns an ID and takes ownership of the unit.
func (s *EntityStore) InsertUnit(u *Unit) EntityID {
	s.mu.Lock()
	s.nextID++
	u.ID = s.nextID
	u.Pos = s.ClampToBounds(u.Pos)
	s.units[u.ID] = u
	s.mu.Unlock()
	s.publish(EventUnitSpawned, u.ID)
	return u.ID
}

// InsertBuilding assigns an ID and takes ownership of the building.
func (s *EntityStore) InsertBuilding(b *Building) EntityID {
	s.mu.Lock()
	s.nextID++
	b.ID = s.nextID
	b.Pos = s.ClampToBounds(b.Pos)
	s.buildings[b.ID] = b
	s.mu.Unlock()
	s.publish(EventBuildingSpawned, b.ID)
	return b.ID
}

// InsertResource assigns an ID and takes ownership of the node.
func (s *EntityStore) InsertResource(r *ResourceNode) EntityID {
	s.mu.Lock()
	s.nextID++
	r.ID = s.nextID
	r.Pos = s.ClampToBounds(r.Pos)
	s.resources[r.ID] = r
	s.mu.Unlock()
	return r.ID
}

// Unit resolves a unit by ID. Returns nil when the ID is unknown; callers
// holding weak references must handle nil every tick.
func (s *EntityStore) Unit(id EntityID) *Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units[id]
}

// Building resolves a building by ID, or nil.
func (s *EntityStore) Building(id EntityID) *Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildings[id]
}

// Resource resolves a resource node by ID, or nil.
func (s *EntityStore) Resource(id EntityID) *ResourceNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resources[id]
}

// Combatant resolves an attackable entity (unit or building) by ID, or nil.
func (s *EntityStore) Combatant(id EntityID) Combatant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.units[id]; ok {
		return u
	}
	if b, ok := s.buildings[id]; ok {
		return b
	}
	return nil
}

// Remove deletes an entity of any kind immediately. Most callers should let
// RemoveDead handle it at end of tick instead.
func (s *EntityStore) Remove(id EntityID) {
	s.mu.Lock()
	_, wasUnit := s.units[id]
	_, wasBuilding := s.buildings[id]
	delete(s.units, id)
	delete(s.buildings, id)
	delete(s.resources, id)
	s.mu.Unlock()
	if wasUnit {
		s.publish(EventUnitDestroyed, id)
	}
	if wasBuilding {
		s.publish(EventBuildingDestroyed, id)
	}
}

// Units returns all units sorted by ID. Tick stages iterate this for
// deterministic processing order.
func (s *EntityStore) Units() []*Unit {
	s.mu.RLock()
	out := make([]*Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Buildings returns all buildings sorted by ID.
func (s *EntityStore) Buildings() []*Building {
	s.mu.RLock()
	out := make([]*Building, 0, len(s.buildings))
	for _, b := range s.buildings {
		out = append(out, b)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resources returns all resource nodes sorted by ID.
func (s *EntityStore) Resources() []*ResourceNode {
	s.mu.RLock()
	out := make([]*ResourceNode, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UnitsOwnedBy returns the living units of one player, sorted by ID.
func (s *EntityStore) UnitsOwnedBy(player PlayerID) []*Unit {
	s.mu.RLock()
	out := make([]*Unit, 0, 16)
	for _, u := range s.units {
		if u.Owner == player && u.IsAlive() {
			out = append(out, u)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BuildingsOwnedBy returns the living buildings of one player, sorted by ID.
func (s *EntityStore) BuildingsOwnedBy(player PlayerID) []*Building {
	s.mu.RLock()
	out := make([]*Building, 0, 4)
	for _, b := range s.buildings {
		if b.Owner == player && b.Alive {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UnitsInRadius returns living units within r of center.
func (s *EntityStore) UnitsInRadius(center geom.Vec2, r float64) []*Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Unit, 0, 8)
	rr := r * r
	for _, u := range s.units {
		if u.IsAlive() && geom.DistanceSq(center, u.Pos) <= rr {
			out = append(out, u)
		}
	}
	return out
}

// ResourcesInRadius returns non-depleted nodes within r of center.
func (s *EntityStore) ResourcesInRadius(center geom.Vec2, r float64) []*ResourceNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ResourceNode, 0, 4)
	rr := r * r
	for _, res := range s.resources {
		if !res.Depleted() && geom.DistanceSq(center, res.Pos) <= rr {
			out = append(out, res)
		}
	}
	return out
}

// NearestEnemy returns the closest living enemy unit within the unit's sight
// range, or nil.
func (s *EntityStore) NearestEnemy(u *Unit) *Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Unit
	limit := u.SightRange * u.SightRange
	bestD := limit
	for _, other := range s.units {
		if !other.IsAlive() || other.Owner == u.Owner || other.Owner == NeutralPlayer {
			continue
		}
		d := geom.DistanceSq(u.Pos, other.Pos)
		if d > limit {
			continue
		}
		if best == nil || d < bestD {
			best = other
			bestD = d
		}
	}
	return best
}

// NearestEnemyBuilding returns the closest living enemy building anywhere on
// the map, or nil. The AI uses it to aim attack waves.
func (s *EntityStore) NearestEnemyBuilding(player PlayerID, from geom.Vec2) *Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Building
	var bestD float64
	for _, b := range s.buildings {
		if !b.Alive || b.Owner == player || b.Owner == NeutralPlayer {
			continue
		}
		d := geom.DistanceSq(from, b.Pos)
		if best == nil || d < bestD {
			best = b
			bestD = d
		}
	}
	return best
}

// NearestFriendlyBase returns the closest completed base building of the
// unit's owner, or nil.
func (s *EntityStore) NearestFriendlyBase(u *Unit) *Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Building
	var bestD float64
	for _, b := range s.buildings {
		if !b.Alive || !b.Base || !b.Completed() || b.Owner != u.Owner {
			continue
		}
		d := geom.DistanceSq(u.Pos, b.Pos)
		if best == nil || d < bestD {
			best = b
			bestD = d
		}
	}
	return best
}

// NearestResource returns the closest non-depleted node of the given kind, or nil.
func (s *EntityStore) NearestResource(from geom.Vec2, kind ResourceKind) *ResourceNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *ResourceNode
	var bestD float64
	for _, r := range s.resources {
		if r.Depleted() || r.Kind != kind {
			continue
		}
		d := geom.DistanceSq(from, r.Pos)
		if best == nil || d < bestD {
			best = r
			bestD = d
		}
	}
	return best
}

// RemoveDead sweeps out entities whose alive flag dropped during this tick.
// Removal is deferred to end of tick so in-progress iteration stays valid.
func (s *EntityStore) RemoveDead() {
	s.mu.Lock()
	var deadUnits, deadBuildings, deadResources []EntityID
	for id, u := range s.units {
		if !u.Alive {
			deadUnits = append(deadUnits, id)
			delete(s.units, id)
		}
	}
	for id, b := range s.buildings {
		if !b.Alive {
			deadBuildings = append(deadBuildings, id)
			delete(s.buildings, id)
		}
	}
	for id, r := range s.resources {
		if !r.Alive {
			deadResources = append(deadResources, id)
			delete(s.resources, id)
		}
	}
	s.mu.Unlock()

	for _, id := range deadUnits {
		s.publish(EventUnitDestroyed, id)
	}
	for _, id := range deadBuildings {
		s.publish(EventBuildingDestroyed, id)
	}
	for _, id := range deadResources {
		s.publish(EventResourceDepleted, id)
	}
}

// Counts returns the number of units, buildings and resources.
func (s *EntityStore) Counts() (units, buildings, resources int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units), len(s.buildings), len(s.resources)
}

func (s *EntityStore) publish(eventType string, id EntityID) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(bus.NewEvent(eventType, "store", id))
}
