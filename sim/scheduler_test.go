package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/registry"
	"github.com/astei/druidcraft/world"
)

func newTable(t *testing.T) *registry.Table {
	t.Helper()
	table, err := registry.Default()
	if err != nil {
		t.Fatalf("registry.Default: %v", err)
	}
	return table
}

func blockID(t *testing.T, table *registry.Table, name string) uint16 {
	t.Helper()
	b, err := table.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return b.ID
}

func defaultOptions(seed int64) Options {
	return Options{Seed: seed, RandomTickSpeed: 3, Params: crop.DefaultParams()}
}

// plot is a single chunk with a moist farmland floor at y=3.
func plot(t *testing.T, table *registry.Table) *world.World {
	t.Helper()
	w := world.New(table)
	w.AddChunk(world.NewChunk(0, 0))
	farmland := blockID(t, table, "farmland")
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			w.SetBlock(crop.Pos{X: x, Y: 3, Z: z}, crop.State{Block: farmland, Data: 7}, 0)
		}
	}
	return w
}

type memJournal struct {
	events []Event
	ticks  []int64
}

func (j *memJournal) Record(tick int64, events []Event) error {
	j.ticks = append(j.ticks, tick)
	j.events = append(j.events, events...)
	return nil
}

func TestSweepGrowsFarmToTwoBlocks(t *testing.T) {
	table := newTable(t)
	opts := world.DefaultFarmOptions()
	w, err := world.GenerateFarm(table, opts)
	if err != nil {
		t.Fatal(err)
	}
	o := defaultOptions(7)
	o.Sweep = true
	s, err := New(w, o)
	if err != nil {
		t.Fatal(err)
	}

	total, err := s.Run(context.Background(), 400)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total.Ticks != 400 || s.Tick() != 400 {
		t.Fatalf("ran %d ticks, counter %d", total.Ticks, s.Tick())
	}
	if total.Grew == 0 || total.Emitted == 0 {
		t.Fatalf("nothing happened: %v", total)
	}
	if total.Destroyed != 0 || total.Broken != 0 {
		t.Fatalf("healthy farm lost plants: %v", total)
	}

	hemp := blockID(t, table, opts.Plant)
	c, _ := s.Crop(hemp)
	// Border plants never tick: their neighbourhood reaches unloaded chunks.
	for x := 1; x < opts.ChunksX*16-1; x++ {
		for z := 1; z < opts.ChunksZ*16-1; z++ {
			base := crop.Pos{X: x, Y: opts.Ground + 1, Z: z}
			if w.BlockAt(base).Block != hemp {
				continue
			}
			if !c.IsMaxAge(w.BlockAt(base)) {
				t.Fatalf("base at %v still age %d after 400 sweeps", base, c.Age(w.BlockAt(base)))
			}
			stem := base.Up()
			if w.BlockAt(stem).Block != hemp {
				t.Fatalf("no stem above %v", base)
			}
			if got := w.BlockAt(stem.Up()).Block; got == hemp {
				t.Fatalf("third block grown at %v", stem.Up())
			}
		}
	}
}

func TestSameSeedSameWorld(t *testing.T) {
	table := newTable(t)
	run := func() []crop.State {
		w, err := world.GenerateFarm(table, world.DefaultFarmOptions())
		if err != nil {
			t.Fatal(err)
		}
		s, err := New(w, defaultOptions(99))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Run(context.Background(), 300); err != nil {
			t.Fatal(err)
		}
		var out []crop.State
		for x := 0; x < 32; x++ {
			for z := 0; z < 32; z++ {
				for y := 4; y <= 6; y++ {
					out = append(out, w.BlockAt(crop.Pos{X: x, Y: y, Z: z}))
				}
			}
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Fatalf("same seed diverged (-first +second):\n%s", diff)
	}
}

func TestEmittedStemIsNotTickedSameStep(t *testing.T) {
	table := newTable(t)
	w := plot(t, table)
	hemp := blockID(t, table, "hemp_crop")
	base := crop.Pos{X: 8, Y: 4, Z: 8}
	w.SetBlock(base, crop.State{Block: hemp, Data: 3}, 0)

	o := defaultOptions(1)
	o.RandomTickSpeed = 200000
	s, err := New(w, o)
	if err != nil {
		t.Fatal(err)
	}
	st, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if st.Emitted != 1 {
		t.Fatalf("stats %v, want exactly one emission", st)
	}
	if got := w.BlockAt(base.Up()); got != (crop.State{Block: hemp}) {
		t.Fatalf("stem = %+v, want fresh age 0", got)
	}
}

func TestNeighbourUpdateBreaksUnsupportedStem(t *testing.T) {
	table := newTable(t)
	w := plot(t, table)
	hemp := blockID(t, table, "hemp_crop")
	base := crop.Pos{X: 2, Y: 4, Z: 2}
	w.SetBlock(base, crop.State{Block: hemp, Data: 3}, 0)
	w.SetBlock(base.Up(), crop.State{Block: hemp, Data: 1}, 0)

	o := defaultOptions(1)
	o.RandomTickSpeed = 0
	s, err := New(w, o)
	if err != nil {
		t.Fatal(err)
	}
	j := &memJournal{}
	s.SetJournal(j)

	w.DestroyBlock(base, false)
	st, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if st.Broken != 1 {
		t.Fatalf("stats %v, want one broken stem", st)
	}
	if w.BlockAt(base.Up()).Block != 0 {
		t.Fatalf("stem survived losing its base")
	}
	if len(w.Drops()) != 0 {
		t.Fatalf("broken stem dropped %v", w.Drops())
	}
	want := []Event{{Tick: 1, Pos: base.Up(), Block: "druidcraft:hemp_crop", Outcome: crop.Destroyed}}
	if diff := cmp.Diff(want, j.events); diff != "" {
		t.Fatalf("journal (-want +got):\n%s", diff)
	}
}

func TestAccelerate(t *testing.T) {
	table := newTable(t)
	w := plot(t, table)
	hemp := blockID(t, table, "hemp_crop")
	pos := crop.Pos{X: 5, Y: 4, Z: 5}
	w.SetBlock(pos, crop.State{Block: hemp, Data: 2}, 0)

	s, err := New(w, defaultOptions(3))
	if err != nil {
		t.Fatal(err)
	}
	j := &memJournal{}
	s.SetJournal(j)

	if _, err := s.Accelerate(pos.East()); !errors.Is(err, ErrNotACrop) {
		t.Fatalf("accelerate air: err = %v", err)
	}

	steps := []struct {
		want crop.Outcome
		age  uint8
	}{
		{crop.Grew, 3},
		{crop.Emitted, 3},
		{crop.Unchanged, 3},
	}
	for i, step := range steps {
		got, err := s.Accelerate(pos)
		if err != nil {
			t.Fatalf("use %d: %v", i, err)
		}
		if got != step.want {
			t.Fatalf("use %d: outcome %v, want %v", i, got, step.want)
		}
		if age := w.BlockAt(pos).Data; age != step.age {
			t.Fatalf("use %d: age %d, want %d", i, age, step.age)
		}
	}

	want := []Event{
		{Pos: pos, Block: "druidcraft:hemp_crop", Outcome: crop.Grew, Age: 3},
		{Pos: pos.Up(), Block: "druidcraft:hemp_crop", Outcome: crop.Emitted},
	}
	if diff := cmp.Diff(want, j.events); diff != "" {
		t.Fatalf("journal (-want +got):\n%s", diff)
	}
}

func TestWheatDoesNotStack(t *testing.T) {
	table := newTable(t)
	w := plot(t, table)
	wheat := blockID(t, table, "wheat")
	pos := crop.Pos{X: 5, Y: 4, Z: 5}
	w.SetBlock(pos, crop.State{Block: wheat, Data: 7}, 0)

	o := defaultOptions(3)
	o.Sweep = true
	s, err := New(w, o)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	if got := w.BlockAt(pos.Up()).Block; got != 0 {
		t.Fatalf("wheat grew a stem: %d", got)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	table := newTable(t)
	s, err := New(plot(t, table), defaultOptions(1))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := s.Run(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if st.Ticks != 0 {
		t.Fatalf("ran %d ticks after cancel", st.Ticks)
	}
}
