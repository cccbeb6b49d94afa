package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// FormatError reports a record that could not be parsed. The whole record
// fails; no fields are partially populated. Callers decide whether to abort
// the load or skip the record.
type FormatError struct {
	Kind   string
	Record string
	Field  int
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("persist: malformed %s record at field %d: %v", e.Kind, e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

const (
	unitFields     = 9
	buildingFields = 10
	resourceFields = 6
)

// EncodeUnit renders one unit as a pipe-delimited record:
// id|type|x|y|ownerId|health|maxHealth|stateOrdinal|isSelected.
func EncodeUnit(u *game.Unit) string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(u.ID), 10),
		u.Type,
		formatFloat(u.Pos.X),
		formatFloat(u.Pos.Y),
		strconv.Itoa(int(u.Owner)),
		formatFloat(u.Health),
		formatFloat(u.MaxHealth),
		strconv.Itoa(int(u.State)),
		strconv.FormatBool(u.Selected),
	}, "|")
}

// DecodeUnit parses a unit record. The split is strict positional: exactly
// nine fields, each well formed, or the record fails as a whole.
func DecodeUnit(record string) (*game.Unit, error) {
	fields, err := split("unit", record, unitFields)
	if err != nil {
		return nil, err
	}
	p := parser{kind: "unit", record: record, fields: fields}
	u := &game.Unit{
		Entity: game.Entity{
			ID:    game.EntityID(p.uint64(0)),
			Owner: game.PlayerID(p.int(4)),
			Alive: true,
		},
		Type: p.string(1),
	}
	u.Pos = geom.Vec2{X: p.float(2), Y: p.float(3)}
	u.Health = p.float(5)
	u.MaxHealth = p.float(6)
	u.State = game.TaskState(p.int(7))
	u.Selected = p.bool(8)
	if p.err != nil {
		return nil, p.err
	}
	if u.State < game.TaskIdle || u.State > game.TaskDead {
		return nil, &FormatError{Kind: "unit", Record: record, Field: 7,
			Err: fmt.Errorf("state ordinal %d out of range", int(u.State))}
	}
	if u.State == game.TaskDead || u.Health <= 0 {
		u.Alive = false
	}
	return u, nil
}

// EncodeBuilding renders one building:
// id|type|x|y|ownerId|health|maxHealth|underConstruction|constructionProgress|queueLength.
func EncodeBuilding(b *game.Building) string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(b.ID), 10),
		b.Type,
		formatFloat(b.Pos.X),
		formatFloat(b.Pos.Y),
		strconv.Itoa(int(b.Owner)),
		formatFloat(b.Health),
		formatFloat(b.MaxHealth),
		strconv.FormatBool(!b.Completed()),
		formatFloat(b.Progress),
		strconv.Itoa(len(b.Queue)),
	}, "|")
}

// DecodeBuilding parses a building record. The queue length field is
// validated but the queue contents are not part of the record; callers
// re-enqueue production separately.
func DecodeBuilding(record string) (*game.Building, error) {
	fields, err := split("building", record, buildingFields)
	if err != nil {
		return nil, err
	}
	p := parser{kind: "building", record: record, fields: fields}
	b := &game.Building{
		Entity: game.Entity{
			ID:    game.EntityID(p.uint64(0)),
			Owner: game.PlayerID(p.int(4)),
			Alive: true,
		},
		Type: p.string(1),
	}
	b.Pos = geom.Vec2{X: p.float(2), Y: p.float(3)}
	b.Health = p.float(5)
	b.MaxHealth = p.float(6)
	underConstruction := p.bool(7)
	b.Progress = p.float(8)
	queueLen := p.int(9)
	if p.err != nil {
		return nil, p.err
	}
	if queueLen < 0 {
		return nil, &FormatError{Kind: "building", Record: record, Field: 9,
			Err: fmt.Errorf("negative queue length %d", queueLen)}
	}
	if !underConstruction && b.Progress < 100 {
		b.Progress = 100
	}
	if b.Health <= 0 {
		b.Alive = false
	}
	return b, nil
}

// EncodeResource renders one resource node:
// id|resourceTypeName|x|y|amount|maxAmount.
func EncodeResource(r *game.ResourceNode) string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(r.ID), 10),
		string(r.Kind),
		formatFloat(r.Pos.X),
		formatFloat(r.Pos.Y),
		strconv.Itoa(r.Amount),
		strconv.Itoa(r.MaxAmount),
	}, "|")
}

// DecodeResource parses a resource record.
func DecodeResource(record string) (*game.ResourceNode, error) {
	fields, err := split("resource", record, resourceFields)
	if err != nil {
		return nil, err
	}
	p := parser{kind: "resource", record: record, fields: fields}
	r := &game.ResourceNode{
		Entity: game.Entity{
			ID:     game.EntityID(p.uint64(0)),
			Owner:  game.NeutralPlayer,
			Radius: 15,
			Alive:  true,
		},
		Kind: game.ResourceKind(p.string(1)),
	}
	r.Pos = geom.Vec2{X: p.float(2), Y: p.float(3)}
	r.Amount = p.int(4)
	r.MaxAmount = p.int(5)
	if p.err != nil {
		return nil, p.err
	}
	if r.Amount <= 0 {
		r.Alive = false
	}
	return r, nil
}

func split(kind, record string, want int) ([]string, error) {
	fields := strings.Split(record, "|")
	if len(fields) != want {
		return nil, &FormatError{Kind: kind, Record: record, Field: len(fields),
			Err: fmt.Errorf("expected %d fields, got %d", want, len(fields))}
	}
	return fields, nil
}

// parser reads positional fields, remembering the first failure so decode
// bodies stay linear.
type parser struct {
	kind   string
	record string
	fields []string
	err    error
}

func (p *parser) fail(i int, err error) {
	if p.err == nil {
		p.err = &FormatError{Kind: p.kind, Record: p.record, Field: i, Err: err}
	}
}

func (p *parser) string(i int) string {
	if p.fields[i] == "" {
		p.fail(i, fmt.Errorf("empty field"))
	}
	return p.fields[i]
}

func (p *parser) uint64(i int) uint64 {
	v, err := strconv.ParseUint(p.fields[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *parser) int(i int) int {
	v, err := strconv.Atoi(p.fields[i])
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *parser) float(i int) float64 {
	v, err := strconv.ParseFloat(p.fields[i], 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *parser) bool(i int) bool {
	v, err := strconv.ParseBool(p.fields[i])
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
