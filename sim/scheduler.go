// Package sim drives crop ticks over a world. It owns the random source and
// the tick counter; the crop engine itself holds no state between calls.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/willf/bitset"

	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/world"
)

var ErrNotACrop = errors.New("sim: block is not a crop")

// Event is one state change made by a crop.
type Event struct {
	Tick    int64
	Pos     crop.Pos
	Block   string
	Outcome crop.Outcome
	Age     int
}

// Journal receives the events of each step.
type Journal interface {
	Record(tick int64, events []Event) error
}

type Options struct {
	Seed int64
	// RandomTickSpeed is the number of random cells picked per ticking section
	// per step. Ignored in sweep mode.
	RandomTickSpeed int
	// Sweep ticks every crop once per step instead of sampling.
	Sweep  bool
	Params crop.Params
}

type Scheduler struct {
	world   *world.World
	crops   map[uint16]*crop.Crop
	rng     *rand.Rand
	opts    Options
	journal Journal

	tick    int64
	total   Stats
	emitted map[world.ChunkCoord]*bitset.BitSet
	events  []Event
}

// New builds a crop behaviour for every ageing block in the world's table.
// Each crop takes its max age from the table; the rest of Params is shared.
func New(w *world.World, opts Options) (*Scheduler, error) {
	s := &Scheduler{
		world: w,
		crops: make(map[uint16]*crop.Crop),
		rng:   rand.New(rand.NewSource(opts.Seed)),
		opts:  opts,
	}
	for _, b := range w.Table.Crops() {
		params := opts.Params
		params.MaxAge = b.MaxAge
		c, err := crop.New(b.ID, w.Table.SeedsFor(b.Name), params)
		if err != nil {
			return nil, fmt.Errorf("crop %s: %w", b.Name, err)
		}
		c.SingleBlock = !b.Stacks
		s.crops[b.ID] = c
	}
	return s, nil
}

func (s *Scheduler) SetJournal(j Journal) {
	s.journal = j
}

func (s *Scheduler) Tick() int64 {
	return s.tick
}

// SetTick resumes the counter, e.g. after loading a snapshot.
func (s *Scheduler) SetTick(t int64) {
	s.tick = t
}

func (s *Scheduler) Total() Stats {
	return s.total
}

func (s *Scheduler) Crop(block uint16) (*crop.Crop, bool) {
	c, ok := s.crops[block]
	return c, ok
}

// Run performs n steps, stopping early when ctx is done.
func (s *Scheduler) Run(ctx context.Context, n int) (Stats, error) {
	var sum Stats
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		st, err := s.Step()
		sum.add(st)
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// Step advances the world by one tick.
func (s *Scheduler) Step() (Stats, error) {
	s.tick++
	s.emitted = make(map[world.ChunkCoord]*bitset.BitSet)
	s.events = s.events[:0]

	var st Stats
	for _, coord := range s.world.Coords() {
		c := s.world.Chunk(coord)
		for _, sy := range c.TickingSections() {
			if s.opts.Sweep {
				s.sweepSection(c, sy, &st)
			} else {
				s.sampleSection(c, sy, &st)
			}
		}
	}
	s.flushUpdates(&st)
	st.Ticks = 1
	s.total.add(st)

	if s.journal != nil && len(s.events) > 0 {
		if err := s.journal.Record(s.tick, s.events); err != nil {
			return st, fmt.Errorf("journal tick %d: %w", s.tick, err)
		}
	}
	return st, nil
}

func (s *Scheduler) sampleSection(c *world.Chunk, sy int, st *Stats) {
	for i := 0; i < s.opts.RandomTickSpeed; i++ {
		cell := s.rng.Intn(world.SectionVolume)
		pos := crop.Pos{
			X: c.X<<4 | cell&15,
			Y: sy<<4 | cell>>8,
			Z: c.Z<<4 | (cell>>4)&15,
		}
		s.tickAt(pos, st)
	}
}

func (s *Scheduler) sweepSection(c *world.Chunk, sy int, st *Stats) {
	// Collect first so stems emitted during the sweep are not visited.
	var targets []crop.Pos
	for y := sy << 4; y < (sy+1)<<4; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				pos := crop.Pos{X: c.X<<4 | x, Y: y, Z: c.Z<<4 | z}
				if _, ok := s.crops[s.world.BlockAt(pos).Block]; ok {
					targets = append(targets, pos)
				}
			}
		}
	}
	for _, pos := range targets {
		s.tickAt(pos, st)
	}
}

func (s *Scheduler) tickAt(pos crop.Pos, st *Stats) {
	state := s.world.BlockAt(pos)
	c, ok := s.crops[state.Block]
	if !ok || s.emittedThisTick(pos) {
		return
	}
	st.Evaluated++
	out := c.Tick(s.world, pos, state, s.rng)
	s.record(c, pos, out, st)
}

// Accelerate applies one accelerant use at pos outside the tick cycle.
func (s *Scheduler) Accelerate(pos crop.Pos) (crop.Outcome, error) {
	state := s.world.BlockAt(pos)
	c, ok := s.crops[state.Block]
	if !ok {
		return crop.Unchanged, fmt.Errorf("%w: %s at %v", ErrNotACrop, s.world.Table.ByID(state.Block).Name, pos)
	}
	if !c.CanAccelerate(s.world, pos, state) {
		return crop.Unchanged, nil
	}
	var st Stats
	s.events = s.events[:0]
	out := c.Accelerate(s.world, pos, state, s.rng)
	s.record(c, pos, out, &st)
	s.flushUpdates(&st)
	s.total.add(st)
	if s.journal != nil && len(s.events) > 0 {
		if err := s.journal.Record(s.tick, s.events); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *Scheduler) record(c *crop.Crop, pos crop.Pos, out crop.Outcome, st *Stats) {
	st.count(out)
	if !out.Changed() {
		return
	}
	ev := Event{
		Tick:    s.tick,
		Pos:     pos,
		Block:   s.world.Table.ByID(c.Block).Name,
		Outcome: out,
	}
	switch out {
	case crop.Grew:
		ev.Age = c.Age(s.world.BlockAt(pos))
	case crop.Emitted:
		ev.Pos = pos.Up()
		s.markEmitted(ev.Pos)
	}
	s.events = append(s.events, ev)
}

// flushUpdates delivers queued neighbour notifications to crops, which may in
// turn queue more.
func (s *Scheduler) flushUpdates(st *Stats) {
	for {
		updates := s.world.DrainUpdates()
		if len(updates) == 0 {
			return
		}
		for _, pos := range updates {
			state := s.world.BlockAt(pos)
			c, ok := s.crops[state.Block]
			if !ok {
				continue
			}
			if !c.NeighborChanged(s.world, pos) {
				st.Broken++
				s.events = append(s.events, Event{
					Tick:    s.tick,
					Pos:     pos,
					Block:   s.world.Table.ByID(c.Block).Name,
					Outcome: crop.Destroyed,
				})
			}
		}
	}
}

func (s *Scheduler) markEmitted(pos crop.Pos) {
	if s.emitted == nil {
		return
	}
	coord := world.ChunkCoord{X: pos.X >> 4, Z: pos.Z >> 4}
	set, ok := s.emitted[coord]
	if !ok {
		set = bitset.New(16 * 16 * world.Height)
		s.emitted[coord] = set
	}
	set.Set(cellIndex(pos))
}

func (s *Scheduler) emittedThisTick(pos crop.Pos) bool {
	set, ok := s.emitted[world.ChunkCoord{X: pos.X >> 4, Z: pos.Z >> 4}]
	return ok && set.Test(cellIndex(pos))
}

func cellIndex(pos crop.Pos) uint {
	return uint(pos.Y<<8 | (pos.Z&15)<<4 | pos.X&15)
}
