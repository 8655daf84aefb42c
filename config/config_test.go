package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadEmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "druidcraft.yaml")
	raw := []byte(`
seed: 42
sweep: true
history: runs.db
crop:
  min_light: 7
  accelerant_max: 3
farm:
  chunks_x: 4
  plant: minecraft:wheat
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Seed = 42
	want.Sweep = true
	want.History = "runs.db"
	want.Crop.MinLight = 7
	want.Crop.AccelerantMax = 3
	want.Farm.ChunksX = 4
	want.Farm.Plant = "minecraft:wheat"
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	p := c.Params()
	if p.MinLight != 7 || p.AccelerantMin != 1 || p.AccelerantMax != 3 {
		t.Fatalf("params %+v", p)
	}
	if f := c.FarmOptions(); f.ChunksX != 4 || f.ChunksZ != 2 {
		t.Fatalf("farm options %+v", f)
	}
}

func TestParseRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"unknown key":        "tick_speed: 3\n",
		"negative ticks":     "ticks: -1\n",
		"sky darken":         "sky_darken: 16\n",
		"light":              "crop:\n  min_light: 20\n",
		"accelerant range":   "crop:\n  accelerant_min: 3\n  accelerant_max: 2\n",
		"zero base chance":   "crop:\n  base_chance: 0\n",
		"negative tick rate": "random_tick_speed: -3\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Fatalf("accepted %q", raw)
			}
		})
	}
}

func TestValidateWrapsErrInvalid(t *testing.T) {
	c := Default()
	c.Crop.BaseChance = -1
	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}
