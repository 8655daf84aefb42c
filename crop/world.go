package crop

// World is the slice of the host world a crop needs. Implementations must not
// be called concurrently; the host dispatches ticks from a single goroutine.
type World interface {
	BlockAt(pos Pos) State
	SetBlock(pos Pos, state State, flags Flags)
	// DestroyBlock replaces the block with air, spawning its drops when drop is set.
	DestroyBlock(pos Pos, drop bool)

	// Light returns the effective light level at pos in [0, 15].
	Light(pos Pos) int
	IsAreaLoaded(pos Pos, radius int) bool

	CanSustainPlant(pos Pos, plant uint16) bool
	IsFertile(pos Pos) bool
	IsFarmland(pos Pos) bool
	IsReplaceable(pos Pos) bool
}

// Rand is satisfied by *math/rand.Rand.
type Rand interface {
	Intn(n int) int
}
