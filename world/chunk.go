package world

import (
	"github.com/willf/bitset"
)

type ChunkCoord struct {
	X int
	Z int
}

// Chunk is a 16x256x16 column. Missing sections are all air.
type Chunk struct {
	X         int
	Z         int
	Sections  [SectionsPerChunk]*Section
	HeightMap []int32
	Biomes    []byte

	// ticking marks the sections that held a crop at some point since the last reindex.
	ticking *bitset.BitSet
}

func NewChunk(x, z int) *Chunk {
	return &Chunk{
		X:         x,
		Z:         z,
		HeightMap: make([]int32, 256),
		Biomes:    make([]byte, 256),
		ticking:   bitset.New(SectionsPerChunk),
	}
}

func (c *Chunk) Coord() ChunkCoord {
	return ChunkCoord{X: c.X, Z: c.Z}
}

// TickingSections returns the section indices that may hold crops, bottom up.
func (c *Chunk) TickingSections() []int {
	var out []int
	for i, ok := c.ticking.NextSet(0); ok; i, ok = c.ticking.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

func (c *Chunk) updateHeight(x, z, y int, solid bool) {
	i := (z&15)<<4 | x&15
	if solid && int32(y+1) > c.HeightMap[i] {
		c.HeightMap[i] = int32(y + 1)
	}
}
