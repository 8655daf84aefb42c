// Package world is an in-memory block store that plays the host world for the
// crop engine. It is not safe for concurrent use.
package world

import (
	"sort"

	"github.com/willf/bitset"

	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/registry"
)

type World struct {
	Table *registry.Table
	// SkyDarken is subtracted from sky light, 0 at noon and up to 11 at night.
	SkyDarken int

	chunks  map[ChunkCoord]*Chunk
	drops   map[string]int
	updates []crop.Pos
}

var _ crop.World = (*World)(nil)

func New(table *registry.Table) *World {
	return &World{
		Table:  table,
		chunks: make(map[ChunkCoord]*Chunk),
		drops:  make(map[string]int),
	}
}

// AddChunk inserts or replaces a chunk and rebuilds its ticking index.
func (w *World) AddChunk(c *Chunk) {
	if c.ticking == nil {
		c.ticking = bitset.New(SectionsPerChunk)
	}
	w.reindex(c)
	w.chunks[c.Coord()] = c
}

func (w *World) Chunk(coord ChunkCoord) *Chunk {
	return w.chunks[coord]
}

// Coords lists the loaded chunks ordered by Z then X.
func (w *World) Coords() []ChunkCoord {
	keys := make([]ChunkCoord, 0, len(w.chunks))
	for coord := range w.chunks {
		keys = append(keys, coord)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Z != keys[j].Z {
			return keys[i].Z < keys[j].Z
		}
		return keys[i].X < keys[j].X
	})
	return keys
}

func (w *World) Len() int {
	return len(w.chunks)
}

func (w *World) reindex(c *Chunk) {
	c.ticking.ClearAll()
	for y, s := range c.Sections {
		if s == nil {
			continue
		}
		for i := 0; i < SectionVolume; i++ {
			if w.Table.ByID(s.block(i)).Crop() {
				c.ticking.Set(uint(y))
				break
			}
		}
	}
}

func chunkOf(pos crop.Pos) ChunkCoord {
	return ChunkCoord{X: pos.X >> 4, Z: pos.Z >> 4}
}

func (w *World) locate(pos crop.Pos) (*Chunk, *Section, int) {
	if pos.Y < 0 || pos.Y >= Height {
		return nil, nil, 0
	}
	c := w.chunks[chunkOf(pos)]
	if c == nil {
		return nil, nil, 0
	}
	return c, c.Sections[pos.Y>>4], sectionIndex(pos.X, pos.Y, pos.Z)
}

func (w *World) BlockAt(pos crop.Pos) crop.State {
	_, s, i := w.locate(pos)
	if s == nil {
		return crop.State{}
	}
	return crop.State{Block: s.block(i), Data: nibble(s.Data, i)}
}

// SetBlock writes state at pos. Writes into unloaded chunks or outside the
// build height are dropped.
func (w *World) SetBlock(pos crop.Pos, state crop.State, flags crop.Flags) {
	c, s, i := w.locate(pos)
	if c == nil {
		return
	}
	if s == nil {
		if state.Block == 0 {
			return
		}
		s = NewSection(pos.Y>>4, 15)
		c.Sections[pos.Y>>4] = s
	}
	s.setBlock(i, state.Block)
	setNibble(s.Data, i, state.Data)

	typ := w.Table.ByID(state.Block)
	if typ.Crop() {
		c.ticking.Set(uint(pos.Y >> 4))
	}
	c.updateHeight(pos.X, pos.Z, pos.Y, typ.Solid)

	if flags&crop.NotifyNeighbors != 0 {
		w.updates = append(w.updates,
			pos.Down(), pos.Up(), pos.North(), pos.South(), pos.West(), pos.East())
	}
}

// DestroyBlock replaces the block with air. Drops are tallied by item name.
func (w *World) DestroyBlock(pos crop.Pos, drop bool) {
	state := w.BlockAt(pos)
	if state.Block == 0 {
		return
	}
	if drop {
		typ := w.Table.ByID(state.Block)
		if typ.Drops != "" {
			w.drops[typ.Drops]++
		}
		if typ.MatureDrops != "" && typ.Crop() && int(state.Data) >= typ.MaxAge {
			w.drops[typ.MatureDrops]++
		}
	}
	w.SetBlock(pos, crop.State{}, crop.DefaultFlags)
}

// DrainUpdates hands out the neighbour notifications queued since the last call.
func (w *World) DrainUpdates() []crop.Pos {
	out := w.updates
	w.updates = nil
	return out
}

func (w *World) Drops() map[string]int {
	out := make(map[string]int, len(w.drops))
	for k, v := range w.drops {
		out[k] = v
	}
	return out
}

func (w *World) Light(pos crop.Pos) int {
	if pos.Y >= Height {
		return clampLight(15 - w.SkyDarken)
	}
	c, s, i := w.locate(pos)
	if c == nil {
		return 0
	}
	if s == nil {
		return clampLight(15 - w.SkyDarken)
	}
	block := int(nibble(s.BlockLight, i))
	sky := int(nibble(s.SkyLight, i)) - w.SkyDarken
	if sky > block {
		return clampLight(sky)
	}
	return block
}

func clampLight(l int) int {
	if l < 0 {
		return 0
	}
	if l > 15 {
		return 15
	}
	return l
}

func (w *World) IsAreaLoaded(pos crop.Pos, radius int) bool {
	if pos.Y < 0 || pos.Y >= Height {
		return false
	}
	for cx := (pos.X - radius) >> 4; cx <= (pos.X+radius)>>4; cx++ {
		for cz := (pos.Z - radius) >> 4; cz <= (pos.Z+radius)>>4; cz++ {
			if _, ok := w.chunks[ChunkCoord{X: cx, Z: cz}]; !ok {
				return false
			}
		}
	}
	return true
}

func (w *World) typeAt(pos crop.Pos) *registry.BlockType {
	return w.Table.ByID(w.BlockAt(pos).Block)
}

func (w *World) CanSustainPlant(pos crop.Pos, plant uint16) bool {
	return w.typeAt(pos).Sustain(w.Table.ByID(plant).Plant)
}

func (w *World) IsFertile(pos crop.Pos) bool {
	state := w.BlockAt(pos)
	return w.Table.ByID(state.Block).FertileWhenMoist && state.Data > 0
}

func (w *World) IsFarmland(pos crop.Pos) bool {
	return w.typeAt(pos).Farmland
}

func (w *World) IsReplaceable(pos crop.Pos) bool {
	if pos.Y < 0 || pos.Y >= Height {
		return false
	}
	return w.typeAt(pos).Replaceable
}
