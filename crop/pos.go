package crop

import "fmt"

// Pos is a block position in world coordinates. North is -Z, west is -X.
type Pos struct {
	X int
	Y int
	Z int
}

func (p Pos) Add(dx, dy, dz int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p Pos) Up() Pos    { return p.Add(0, 1, 0) }
func (p Pos) Down() Pos  { return p.Add(0, -1, 0) }
func (p Pos) North() Pos { return p.Add(0, 0, -1) }
func (p Pos) South() Pos { return p.Add(0, 0, 1) }
func (p Pos) West() Pos  { return p.Add(-1, 0, 0) }
func (p Pos) East() Pos  { return p.Add(1, 0, 0) }

func (p Pos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// State is a block id plus its 4-bit data value. For plants the data value is
// the age, for farmland it is the moisture.
type State struct {
	Block uint16
	Data  uint8
}

// Flags are passed through to World.SetBlock untouched.
type Flags uint8

const (
	NotifyNeighbors Flags = 1 << iota
	SendToClients

	DefaultFlags = NotifyNeighbors | SendToClients
)
