package game

import "github.com/outpost-rts/outpost/pkg/geom"

// ResourceKind names the harvestable resource types.
type ResourceKind string

const (
	ResourceMinerals ResourceKind = "minerals"
	ResourceGas      ResourceKind = "gas"
)

// ResourceNode is a neutral harvestable entity. Depletion is terminal: when
// Amount reaches zero the node dies and the store removes it.
type ResourceNode struct {
	Entity
	Kind      ResourceKind
	Amount    int
	MaxAmount int
	// Yield is the amount removed per completed harvest action.
	Yield int
}

// NewResourceNode creates a full node owned by the neutral player.
func NewResourceNode(kind ResourceKind, amount, yield int, pos geom.Vec2) *ResourceNode {
	return &ResourceNode{
		Entity: Entity{
			Pos:    pos,
			Owner:  NeutralPlayer,
			Radius: 15,
			Alive:  true,
		},
		Kind:      kind,
		Amount:    amount,
		MaxAmount: amount,
		Yield:     yield,
	}
}

// Depleted reports whether the node has nothing left.
func (r *ResourceNode) Depleted() bool { return r.Amount <= 0 }

// Extract removes up to want from the node, clamped to what remains, never
// negative. Hitting zero kills the node.
func (r *ResourceNode) Extract(want int) int {
	if want <= 0 || r.Amount <= 0 {
		return 0
	}
	if want > r.Amount {
		want = r.Amount
	}
	r.Amount -= want
	if r.Amount == 0 {
		r.Alive = false
	}
	return want
}
