package path

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// cache memoizes completed searches by (start cell, end cell). Entries are
// only ever dropped wholesale; per-entry invalidation is not worth the
// bookkeeping at this scale.
type cache struct {
	paths map[uint64][]geom.Vec2
}

func newCache() *cache {
	return &cache{paths: make(map[uint64][]geom.Vec2)}
}

func cacheKey(start, end Cell) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(start.X))
	binary.LittleEndian.PutUint32(buf[4:], uint32(start.Y))
	binary.LittleEndian.PutUint32(buf[8:], uint32(end.X))
	binary.LittleEndian.PutUint32(buf[12:], uint32(end.Y))
	return xxhash.Sum64(buf[:])
}

// Get returns a copy of the memoized path so callers can reslice freely.
func (c *cache) Get(start, end Cell) ([]geom.Vec2, bool) {
	p, ok := c.paths[cacheKey(start, end)]
	if !ok {
		return nil, false
	}
	out := make([]geom.Vec2, len(p))
	copy(out, p)
	return out, true
}

func (c *cache) Put(start, end Cell, waypoints []geom.Vec2) {
	stored := make([]geom.Vec2, len(waypoints))
	copy(stored, waypoints)
	c.paths[cacheKey(start, end)] = stored
}

func (c *cache) Len() int {
	return len(c.paths)
}

func (c *cache) Clear() {
	c.paths = make(map[uint64][]geom.Vec2)
}
