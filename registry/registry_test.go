package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	hemp, err := table.Lookup("hemp_crop")
	if err != nil {
		t.Fatalf("Lookup(hemp_crop): %v", err)
	}
	if hemp.ID != 1000 || hemp.MaxAge != 3 || hemp.Plant != "crop" {
		t.Fatalf("unexpected hemp descriptor: %+v", hemp)
	}
	if got := table.SeedsFor(hemp.Name); got != "druidcraft:hemp_seeds" {
		t.Fatalf("SeedsFor(hemp) = %q", got)
	}

	farmland := table.ByID(60)
	if !farmland.Farmland || !farmland.Sustain(hemp.Plant) || !farmland.FertileWhenMoist {
		t.Fatalf("farmland descriptor: %+v", farmland)
	}
	if table.ByID(3).Sustain(hemp.Plant) {
		t.Fatalf("dirt should not sustain crops")
	}

	var crops []string
	for _, b := range table.Crops() {
		crops = append(crops, b.Name)
	}
	if diff := cmp.Diff([]string{"minecraft:wheat", "druidcraft:hemp_crop"}, crops); diff != "" {
		t.Fatalf("Crops (-want +got):\n%s", diff)
	}
}

func TestLookupAndUnknownIDs(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.Lookup("minecraft:nonsense"); !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("err = %v, want ErrUnknownBlock", err)
	}
	if b, err := table.Lookup("farmland"); err != nil || b.ID != 60 {
		t.Fatalf("Lookup(farmland) = %+v, %v", b, err)
	}
	if got := table.ByID(4000); got.Name != "minecraft:air" {
		t.Fatalf("unknown id resolved to %s", got.Name)
	}
	if table.Known(4000) {
		t.Fatalf("4000 reported as known")
	}
	if _, err := table.Item("druidcraft:nothing"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("err = %v, want ErrUnknownItem", err)
	}
	meal, err := table.Item("minecraft:bone_meal")
	if err != nil || !meal.Accelerant {
		t.Fatalf("bone meal = %+v, %v", meal, err)
	}
}

func TestLoadRejectsBadTables(t *testing.T) {
	tests := map[string]string{
		"schema violation": `
blocks:
  - id: 0
    name: minecraft:air
    replaceable: true
    colour: green
`,
		"id out of range": `
blocks:
  - id: 5000
    name: minecraft:air
`,
		"duplicate id": `
blocks:
  - id: 0
    name: minecraft:air
    replaceable: true
  - id: 0
    name: minecraft:void_air
    replaceable: true
`,
		"missing air": `
blocks:
  - id: 1
    name: minecraft:stone
`,
		"seeds for unknown block": `
blocks:
  - id: 0
    name: minecraft:air
    replaceable: true
items:
  - name: druidcraft:hemp_seeds
    places: druidcraft:hemp_crop
`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load([]byte(raw)); !errors.Is(err, ErrInvalidTable) {
				t.Fatalf("err = %v, want ErrInvalidTable", err)
			}
		})
	}
}
