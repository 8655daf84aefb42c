package world

import (
	"fmt"

	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/registry"
)

// FarmOptions describe a flat test farm: bedrock, dirt, then a farmland layer
// crossed by water channels, with a crop planted on every other row.
type FarmOptions struct {
	ChunksX int
	ChunksZ int
	// Ground is the y of the farmland layer; plants sit at Ground+1.
	Ground int
	// WaterEvery places a water channel on every n-th x column; 0 disables water.
	WaterEvery int
	// Farmland within HydrationRange of a channel gets moisture 7.
	HydrationRange int
	// TorchEvery puts a torch on every n-th cell of each channel; 0 disables torches.
	TorchEvery int
	Plant      string
	RowSpacing int
}

func DefaultFarmOptions() FarmOptions {
	return FarmOptions{
		ChunksX:        2,
		ChunksZ:        2,
		Ground:         3,
		WaterEvery:     9,
		HydrationRange: 4,
		TorchEvery:     8,
		Plant:          "druidcraft:hemp_crop",
		RowSpacing:     2,
	}
}

func GenerateFarm(table *registry.Table, opts FarmOptions) (*World, error) {
	if opts.ChunksX < 1 || opts.ChunksZ < 1 {
		return nil, fmt.Errorf("farm: need at least one chunk, got %dx%d", opts.ChunksX, opts.ChunksZ)
	}
	if opts.Ground < 1 || opts.Ground+2 >= Height {
		return nil, fmt.Errorf("farm: ground level %d out of range", opts.Ground)
	}
	if opts.RowSpacing < 1 {
		opts.RowSpacing = 1
	}

	ids := make(map[string]uint16)
	for _, name := range []string{"minecraft:bedrock", "minecraft:dirt", "minecraft:farmland", "minecraft:water", "minecraft:torch", opts.Plant} {
		b, err := table.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("farm: %w", err)
		}
		ids[name] = b.ID
	}

	w := New(table)
	for cx := 0; cx < opts.ChunksX; cx++ {
		for cz := 0; cz < opts.ChunksZ; cz++ {
			w.AddChunk(NewChunk(cx, cz))
		}
	}

	set := func(x, y, z int, name string, data uint8) {
		w.SetBlock(crop.Pos{X: x, Y: y, Z: z}, crop.State{Block: ids[name], Data: data}, 0)
	}
	isWater := func(x int) bool {
		return opts.WaterEvery > 0 && x%opts.WaterEvery == opts.WaterEvery/2
	}
	hydrated := func(x int) bool {
		if opts.WaterEvery <= 0 {
			return false
		}
		for d := -opts.HydrationRange; d <= opts.HydrationRange; d++ {
			if x+d >= 0 && isWater(x+d) {
				return true
			}
		}
		return false
	}

	sizeX, sizeZ := opts.ChunksX*16, opts.ChunksZ*16
	for x := 0; x < sizeX; x++ {
		for z := 0; z < sizeZ; z++ {
			set(x, 0, z, "minecraft:bedrock", 0)
			for y := 1; y < opts.Ground; y++ {
				set(x, y, z, "minecraft:dirt", 0)
			}

			switch {
			case isWater(x) && opts.TorchEvery > 0 && z%opts.TorchEvery == 0:
				set(x, opts.Ground, z, "minecraft:dirt", 0)
				set(x, opts.Ground+1, z, "minecraft:torch", 0)
			case isWater(x):
				set(x, opts.Ground, z, "minecraft:water", 0)
			default:
				var moisture uint8
				if hydrated(x) {
					moisture = 7
				}
				set(x, opts.Ground, z, "minecraft:farmland", moisture)
				if z%opts.RowSpacing == 0 {
					set(x, opts.Ground+1, z, opts.Plant, 0)
				}
			}
		}
	}

	w.Relight()
	return w, nil
}
