package persist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/outpost-rts/outpost/internal/core/game"
)

// Section headers in a saved world stream.
const (
	sectionUnits     = "[units]"
	sectionBuildings = "[buildings]"
	sectionResources = "[resources]"
)

// World is the decoded contents of a save stream.
type World struct {
	Units     []*game.Unit
	Buildings []*game.Building
	Resources []*game.ResourceNode

	skipped int
}

// WriteWorld streams the store's entities as sectioned pipe-delimited
// records, one per line.
func WriteWorld(w io.Writer, store *game.EntityStore) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, sectionUnits)
	for _, u := range store.Units() {
		fmt.Fprintln(bw, EncodeUnit(u))
	}
	fmt.Fprintln(bw, sectionBuildings)
	for _, b := range store.Buildings() {
		fmt.Fprintln(bw, EncodeBuilding(b))
	}
	fmt.Fprintln(bw, sectionResources)
	for _, r := range store.Resources() {
		fmt.Fprintln(bw, EncodeResource(r))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("persist: write world: %w", err)
	}
	return nil
}

// ReadWorld parses a save stream. A malformed record fails the load with a
// *FormatError; use ReadWorldSkipping to drop bad records instead.
func ReadWorld(r io.Reader) (*World, error) {
	return readWorld(r, false)
}

// ReadWorldSkipping parses a save stream, skipping malformed records and
// returning how many were dropped.
func ReadWorldSkipping(r io.Reader) (*World, int, error) {
	w, err := readWorld(r, true)
	if err != nil {
		return nil, 0, err
	}
	return w, w.skipped, nil
}

func readWorld(r io.Reader, skipBad bool) (*World, error) {
	world := &World{}
	section := ""
	skipped := 0

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch line {
		case sectionUnits, sectionBuildings, sectionResources:
			section = line
			continue
		}
		var err error
		switch section {
		case sectionUnits:
			var u *game.Unit
			if u, err = DecodeUnit(line); err == nil {
				world.Units = append(world.Units, u)
			}
		case sectionBuildings:
			var b *game.Building
			if b, err = DecodeBuilding(line); err == nil {
				world.Buildings = append(world.Buildings, b)
			}
		case sectionResources:
			var res *game.ResourceNode
			if res, err = DecodeResource(line); err == nil {
				world.Resources = append(world.Resources, res)
			}
		default:
			err = fmt.Errorf("persist: record outside any section: %q", line)
		}
		if err != nil {
			if !skipBad {
				return nil, err
			}
			skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("persist: read world: %w", err)
	}
	world.skipped = skipped
	return world, nil
}
