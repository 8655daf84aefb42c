package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/astei/druidcraft/config"
	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/history"
	"github.com/astei/druidcraft/registry"
	"github.com/astei/druidcraft/sim"
	"github.com/astei/druidcraft/world"
)

var errUsage = errors.New("wrong number of arguments")

type env struct {
	cfg   config.Config
	table *registry.Table
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	path := cfg.Registry
	if p := c.String("registry"); p != "" {
		path = p
	}
	var table *registry.Table
	if path == "" {
		table, err = registry.Default()
	} else {
		var raw []byte
		raw, err = os.ReadFile(path)
		if err == nil {
			table, err = registry.Load(raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("block table: %w", err)
	}
	return &env{cfg: cfg, table: table}, nil
}

func (e *env) options() sim.Options {
	return sim.Options{
		Seed:            e.cfg.Seed,
		RandomTickSpeed: e.cfg.RandomTickSpeed,
		Sweep:           e.cfg.Sweep,
		Params:          e.cfg.Params(),
	}
}

func readSnapshot(path string, table *registry.Table) (*world.World, world.Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, world.Meta{}, err
	}
	defer f.Close()
	return world.ReadSnapshot(f, table)
}

func writeSnapshot(path string, w *world.World, meta world.Meta) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := w.WriteSnapshot(f, meta); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// resumeSeed derives the random stream for a run continuing from a snapshot,
// so resuming at a different tick does not replay the same draws.
func resumeSeed(meta world.Meta) int64 {
	return meta.Seed ^ meta.Tick
}

func simulate(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	if c.IsSet("ticks") {
		e.cfg.Ticks = c.Int("ticks")
	}
	if c.IsSet("seed") {
		e.cfg.Seed = c.Int64("seed")
	}
	if c.Bool("sweep") {
		e.cfg.Sweep = true
	}
	if c.IsSet("history") {
		e.cfg.History = c.String("history")
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	var (
		w      *world.World
		source string
		start  int64
	)
	opts := e.options()
	switch {
	case c.IsSet("world") && c.IsSet("snapshot"):
		return errors.New("--world and --snapshot are exclusive")
	case c.IsSet("world"):
		source = c.String("world")
		w, err = world.OpenAnvil(source, e.table)
		if err == nil {
			w.SkyDarken = e.cfg.SkyDarken
		}
	case c.IsSet("snapshot"):
		source = c.String("snapshot")
		var meta world.Meta
		w, meta, err = readSnapshot(source, e.table)
		start = meta.Tick
		e.cfg.Seed = meta.Seed
		opts.Seed = resumeSeed(meta)
	default:
		source = "farm"
		w, err = world.GenerateFarm(e.table, e.cfg.FarmOptions())
		if err == nil {
			w.SkyDarken = e.cfg.SkyDarken
		}
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}
	log.Printf("loaded %d chunks from %s", w.Len(), source)

	s, err := sim.New(w, opts)
	if err != nil {
		return err
	}
	s.SetTick(start)

	var run *history.Run
	if e.cfg.History != "" {
		store, err := history.Open(e.cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		run, err = store.BeginRun(e.cfg.Seed, source)
		if err != nil {
			return err
		}
		s.SetJournal(run)
		log.Printf("journaling run %s to %s", run.ID, e.cfg.History)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	stats, runErr := s.Run(ctx, e.cfg.Ticks)
	log.Printf("simulated %v", stats)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	meta := world.Meta{Tick: s.Tick(), Seed: e.cfg.Seed}
	if run != nil {
		meta.RunID = run.ID
		if err := run.Finish(s.Tick()); err != nil {
			return err
		}
	}
	out := c.String("out")
	if err := writeSnapshot(out, w, meta); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Printf("wrote tick %d to %s", s.Tick(), out)
	return nil
}

func bonemeal(c *cli.Context) error {
	if c.NArg() != 4 {
		return fmt.Errorf("%w: need SNAPSHOT X Y Z", errUsage)
	}
	var coords [3]int
	for i := range coords {
		v, err := strconv.Atoi(c.Args().Get(i + 1))
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", c.Args().Get(i+1), err)
		}
		coords[i] = v
	}
	pos := crop.Pos{X: coords[0], Y: coords[1], Z: coords[2]}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	item, err := e.table.Item(c.String("item"))
	if err != nil {
		return err
	}
	if !item.Accelerant {
		return fmt.Errorf("%s is not an accelerant", item.Name)
	}

	path := c.Args().Get(0)
	w, meta, err := readSnapshot(path, e.table)
	if err != nil {
		return err
	}
	opts := e.options()
	opts.Seed = resumeSeed(meta)
	s, err := sim.New(w, opts)
	if err != nil {
		return err
	}
	s.SetTick(meta.Tick)

	for i := 0; i < c.Int("times"); i++ {
		out, err := s.Accelerate(pos)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s on %v: %v\n", item.Name, pos, out)
	}

	out := c.String("out")
	if out == "" {
		out = path
	}
	return writeSnapshot(out, w, meta)
}

func inspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: need SNAPSHOT", errUsage)
	}
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	w, meta, err := readSnapshot(c.Args().Get(0), e.table)
	if err != nil {
		return err
	}
	s, err := sim.New(w, e.options())
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintf(out, "tick %d, seed %d, %d chunks, sky darken %d\n", meta.Tick, meta.Seed, w.Len(), w.SkyDarken)
	if meta.RunID != "" {
		fmt.Fprintf(out, "run %s\n", meta.RunID)
	}

	ages := make(map[uint16][]int)
	for _, b := range e.table.Crops() {
		ages[b.ID] = make([]int, b.MaxAge+1)
	}
	for _, coord := range w.Coords() {
		ch := w.Chunk(coord)
		for _, sy := range ch.TickingSections() {
			for i := 0; i < world.SectionVolume; i++ {
				pos := crop.Pos{X: ch.X<<4 | i&15, Y: sy<<4 | i>>8, Z: ch.Z<<4 | (i>>4)&15}
				state := w.BlockAt(pos)
				hist, ok := ages[state.Block]
				if !ok {
					continue
				}
				age := int(state.Data)
				if age >= len(hist) {
					age = len(hist) - 1
				}
				hist[age]++
			}
		}
	}
	for _, b := range e.table.Crops() {
		total := 0
		for _, n := range ages[b.ID] {
			total += n
		}
		if total == 0 {
			continue
		}
		fmt.Fprintf(out, "%s: %d plants, by age %v\n", b.Name, total, ages[b.ID])
		if cr, ok := s.Crop(b.ID); ok {
			describeCrop(out, cr)
		}
	}

	drops := w.Drops()
	items := make([]string, 0, len(drops))
	for item := range drops {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		fmt.Fprintf(out, "dropped %s x%d\n", item, drops[item])
	}
	return nil
}

// describeCrop prints the seed item and the outline of every age stage.
func describeCrop(out io.Writer, c *crop.Crop) {
	if c.Seeds != "" {
		fmt.Fprintf(out, "  planted from %s\n", c.Seeds)
	}
	for age := 0; age <= c.Params.MaxAge; age++ {
		box := c.Shape(c.WithAge(age))
		fmt.Fprintf(out, "  age %d: %.2f..%.2f x %.2f..%.2f, height %.2f\n",
			age, box.Min.X(), box.Max.X(), box.Min.Z(), box.Max.Z(), box.Height())
	}
}

func blocks(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	for _, b := range e.table.Blocks {
		kind := ""
		switch {
		case b.Crop():
			kind = fmt.Sprintf("crop %s, max age %d", b.Plant, b.MaxAge)
		case b.Farmland:
			kind = "farmland"
		case b.Solid:
			kind = "solid"
		case b.Replaceable:
			kind = "replaceable"
		}
		fmt.Fprintf(c.App.Writer, "%5d %-32s %s\n", b.ID, b.Name, kind)
	}
	return nil
}

func runHistory(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return fmt.Errorf("%w: need DB [RUN]", errUsage)
	}
	store, err := history.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer store.Close()

	if c.NArg() == 1 {
		ids, err := store.Runs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(c.App.Writer, id)
		}
		return nil
	}

	sum, err := store.Summary(c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "run %s: seed %d from %s, started %s, ended at tick %d (finished %t)\n",
		sum.ID, sum.Seed, sum.Source, sum.StartedAt, sum.EndTick, sum.Finished)
	names := make([]string, 0, len(sum.Outcomes))
	for name := range sum.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.App.Writer, "  %-10s %d\n", name, sum.Outcomes[name])
	}
	return nil
}
