package world

import "github.com/astei/druidcraft/crop"

// Relight recomputes both light channels from scratch. Sky light is full down
// to the first solid block of each column; block light falls off by one per
// step of Manhattan distance from each emitter. Occlusion is ignored.
func (w *World) Relight() {
	type emitter struct {
		pos   crop.Pos
		level int
	}
	var emitters []emitter

	for _, coord := range w.Coords() {
		c := w.chunks[coord]
		for _, s := range c.Sections {
			if s == nil {
				continue
			}
			for i := range s.BlockLight {
				s.BlockLight[i] = 0
			}
		}
		for lx := 0; lx < 16; lx++ {
			for lz := 0; lz < 16; lz++ {
				sky := byte(15)
				for y := Height - 1; y >= 0; y-- {
					s := c.Sections[y>>4]
					if s == nil {
						continue
					}
					i := sectionIndex(lx, y, lz)
					typ := w.Table.ByID(s.block(i))
					if typ.Solid {
						sky = 0
					}
					setNibble(s.SkyLight, i, sky)
					if typ.Light > 0 {
						emitters = append(emitters, emitter{
							pos:   crop.Pos{X: c.X<<4 | lx, Y: y, Z: c.Z<<4 | lz},
							level: typ.Light,
						})
					}
				}
			}
		}
	}

	for _, e := range emitters {
		r := e.level - 1
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				for dz := -r; dz <= r; dz++ {
					d := abs(dx) + abs(dy) + abs(dz)
					if d > r {
						continue
					}
					w.raiseBlockLight(e.pos.Add(dx, dy, dz), byte(e.level-d))
				}
			}
		}
	}
}

func (w *World) raiseBlockLight(pos crop.Pos, level byte) {
	_, s, i := w.locate(pos)
	if s == nil {
		return
	}
	if nibble(s.BlockLight, i) < level {
		setNibble(s.BlockLight, i, level)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
