package crop

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("crop: invalid parameters")

// Params are the tunables of a growable plant.
type Params struct {
	MaxAge   int
	MinLight int
	// BaseChance is the growth score before the soil neighbourhood is sampled.
	BaseChance float64
	// Each accelerant use adds a uniform draw from [AccelerantMin, AccelerantMax].
	AccelerantMin int
	AccelerantMax int
}

func DefaultParams() Params {
	return Params{
		MaxAge:        3,
		MinLight:      9,
		BaseChance:    1.1,
		AccelerantMin: 1,
		AccelerantMax: 1,
	}
}

func (p Params) Validate() error {
	switch {
	case p.MaxAge < 1 || p.MaxAge > 15:
		return fmt.Errorf("%w: max age %d outside [1, 15]", ErrInvalidParams, p.MaxAge)
	case p.MinLight < 0 || p.MinLight > 15:
		return fmt.Errorf("%w: min light %d outside [0, 15]", ErrInvalidParams, p.MinLight)
	case p.BaseChance <= 0:
		return fmt.Errorf("%w: base chance must be positive", ErrInvalidParams)
	case p.AccelerantMin < 1 || p.AccelerantMax < p.AccelerantMin:
		return fmt.Errorf("%w: accelerant range [%d, %d]", ErrInvalidParams, p.AccelerantMin, p.AccelerantMax)
	}
	return nil
}

// Crop is a plant that ages on farmland and, once mature, grows a fresh stem
// into the cell above it. SingleBlock crops never stack.
type Crop struct {
	Block       uint16
	Seeds       string
	Params      Params
	SingleBlock bool
}

func New(block uint16, seeds string, params Params) (*Crop, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Crop{Block: block, Seeds: seeds, Params: params}, nil
}

// Age reads the age out of state, clamped to [0, MaxAge].
func (c *Crop) Age(state State) int {
	age := int(state.Data)
	if age > c.Params.MaxAge {
		return c.Params.MaxAge
	}
	return age
}

func (c *Crop) WithAge(age int) State {
	if age < 0 {
		age = 0
	} else if age > c.Params.MaxAge {
		age = c.Params.MaxAge
	}
	return State{Block: c.Block, Data: uint8(age)}
}

func (c *Crop) IsMaxAge(state State) bool {
	return c.Age(state) >= c.Params.MaxAge
}

func (c *Crop) is(w World, pos Pos) bool {
	return w.BlockAt(pos).Block == c.Block
}

// ValidGround reports whether the block below pos can hold the plant: farmland,
// or a mature stem of the same plant.
func (c *Crop) ValidGround(w World, pos Pos) bool {
	below := pos.Down()
	if w.IsFarmland(below) {
		return true
	}
	if c.SingleBlock {
		return false
	}
	state := w.BlockAt(below)
	return state.Block == c.Block && c.IsMaxAge(state)
}

// GrowthChance scores the soil around the plant. The result is always at least
// BaseChance/2.
func (c *Crop) GrowthChance(w World, pos Pos) float64 {
	chance := c.Params.BaseChance
	soil := pos.Down()
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			at := soil.Add(dx, 0, dz)
			var score float64
			if w.CanSustainPlant(at, c.Block) {
				score = 1
				if w.IsFertile(at) {
					score = 3
				}
			}
			if dx != 0 || dz != 0 {
				score /= 4
			}
			chance += score
		}
	}

	west, east := pos.West(), pos.East()
	alongX := c.is(w, west) || c.is(w, east)
	alongZ := c.is(w, pos.North()) || c.is(w, pos.South())
	if alongX && alongZ {
		chance /= 2
	} else if c.is(w, west.North()) || c.is(w, east.North()) || c.is(w, east.South()) || c.is(w, west.South()) {
		chance /= 2
	}
	return chance
}

// rollGrowth draws once against 1 / floor(25/chance + 1).
func (c *Crop) rollGrowth(w World, pos Pos, r Rand) bool {
	chance := c.GrowthChance(w, pos)
	return r.Intn(int(25/chance)+1) == 0
}
