package history

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/sim"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestRecordAndSummarise(t *testing.T) {
	s, path := openStore(t)

	run, err := s.BeginRun(42, "farm")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Fatalf("run id %q: %v", run.ID, err)
	}

	pos := crop.Pos{X: 1, Y: 4, Z: 2}
	if err := run.Record(1, []sim.Event{
		{Tick: 1, Pos: pos, Block: "druidcraft:hemp_crop", Outcome: crop.Grew, Age: 1},
		{Tick: 1, Pos: pos.East(), Block: "druidcraft:hemp_crop", Outcome: crop.Grew, Age: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := run.Record(2, []sim.Event{
		{Tick: 2, Pos: pos.Up(), Block: "druidcraft:hemp_crop", Outcome: crop.Emitted},
	}); err != nil {
		t.Fatal(err)
	}
	if err := run.Finish(2); err != nil {
		t.Fatal(err)
	}

	sum, err := s.Summary(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := Summary{
		ID:        run.ID,
		Seed:      42,
		Source:    "farm",
		StartedAt: sum.StartedAt,
		EndTick:   2,
		Finished:  true,
		Outcomes:  map[string]int{"grew": 2, "emitted": 1},
	}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Fatalf("summary (-want +got):\n%s", diff)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var x, y, z, age int
	row := db.QueryRow(`SELECT x, y, z, age FROM events WHERE run_id = ? AND outcome = 'emitted'`, run.ID)
	if err := row.Scan(&x, &y, &z, &age); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if x != 1 || y != 5 || z != 2 || age != 0 {
		t.Fatalf("row mismatch: %d %d %d age %d", x, y, z, age)
	}
}

func TestRunsAreListed(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	a, err := s.BeginRun(1, "farm")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.BeginRun(2, "world/")
	if err != nil {
		t.Fatal(err)
	}
	ids, err := s.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{b.ID, a.ID}, ids); diff != "" {
		t.Fatalf("runs (-want +got):\n%s", diff)
	}
}

func TestSummaryUnknownRun(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()
	if _, err := s.Summary("missing"); !errors.Is(err, ErrUnknownRun) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("opened an empty path")
	}
}
