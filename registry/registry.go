// Package registry holds the static block and item table. It is loaded once at
// startup and never mutated afterwards.
package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// MaxID is the largest id a section can store (8 bit Blocks plus the Add nibble).
const MaxID = 4095

var (
	ErrUnknownBlock = errors.New("registry: unknown block")
	ErrUnknownItem  = errors.New("registry: unknown item")
	ErrInvalidTable = errors.New("registry: invalid table")
)

//go:embed blocks.yaml
var defaultTable []byte

//go:embed schema.json
var tableSchema string

// BlockType describes one block id. FertileWhenMoist marks soil whose data
// value is a moisture level; Stacks marks crops that grow upwards once mature.
type BlockType struct {
	ID               uint16   `yaml:"id"`
	Name             string   `yaml:"name"`
	Solid            bool     `yaml:"solid"`
	Replaceable      bool     `yaml:"replaceable"`
	Farmland         bool     `yaml:"farmland"`
	FertileWhenMoist bool     `yaml:"fertile_when_moist"`
	Sustains         []string `yaml:"sustains"`
	Plant            string   `yaml:"plant"`
	MaxAge           int      `yaml:"max_age"`
	Stacks           bool     `yaml:"stacks"`
	Light            int      `yaml:"light"`
	Drops            string   `yaml:"drops"`
	MatureDrops      string   `yaml:"mature_drops"`
}

// Sustain reports whether this block can hold plants of the given kind.
func (b *BlockType) Sustain(plant string) bool {
	if plant == "" {
		return false
	}
	for _, kind := range b.Sustains {
		if kind == plant {
			return true
		}
	}
	return false
}

func (b *BlockType) Crop() bool {
	return b.Plant != "" && b.MaxAge > 0
}

type ItemType struct {
	Name       string `yaml:"name"`
	Places     string `yaml:"places"`
	Accelerant bool   `yaml:"accelerant"`
}

type Table struct {
	Blocks []*BlockType
	Items  []*ItemType

	byID       [MaxID + 1]*BlockType
	byName     map[string]*BlockType
	itemByName map[string]*ItemType
}

type tableFile struct {
	Blocks []*BlockType `yaml:"blocks"`
	Items  []*ItemType  `yaml:"items"`
}

// Default returns the table shipped with the binary.
func Default() (*Table, error) {
	return Load(defaultTable)
}

// Load validates raw YAML against the table schema and indexes it.
func Load(raw []byte) (*Table, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	t := &Table{
		Blocks:     file.Blocks,
		Items:      file.Items,
		byName:     make(map[string]*BlockType, len(file.Blocks)),
		itemByName: make(map[string]*ItemType, len(file.Items)),
	}
	for _, b := range file.Blocks {
		if t.byID[b.ID] != nil {
			return nil, fmt.Errorf("%w: duplicate id %d (%s, %s)", ErrInvalidTable, b.ID, t.byID[b.ID].Name, b.Name)
		}
		if _, dup := t.byName[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate block %s", ErrInvalidTable, b.Name)
		}
		t.byID[b.ID] = b
		t.byName[b.Name] = b
	}
	if air := t.byID[0]; air == nil || !air.Replaceable {
		return nil, fmt.Errorf("%w: id 0 must be a replaceable air block", ErrInvalidTable)
	}
	for _, it := range file.Items {
		if _, dup := t.itemByName[it.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", ErrInvalidTable, it.Name)
		}
		if it.Places != "" {
			if _, ok := t.byName[it.Places]; !ok {
				return nil, fmt.Errorf("%w: item %s places unknown block %s", ErrInvalidTable, it.Name, it.Places)
			}
		}
		t.itemByName[it.Name] = it
	}
	sort.Slice(t.Blocks, func(i, j int) bool { return t.Blocks[i].ID < t.Blocks[j].ID })
	return t, nil
}

func validate(raw []byte) error {
	schema, err := jsonschema.CompileString("schema.json", tableSchema)
	if err != nil {
		return err
	}

	// The validator wants JSON values, so route the YAML document through encoding/json.
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	var value interface{}
	if err := json.Unmarshal(asJSON, &value); err != nil {
		return err
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return nil
}

// ByID never fails: unknown ids resolve to air.
func (t *Table) ByID(id uint16) *BlockType {
	if int(id) <= MaxID {
		if b := t.byID[id]; b != nil {
			return b
		}
	}
	return t.byID[0]
}

func (t *Table) Known(id uint16) bool {
	return int(id) <= MaxID && t.byID[id] != nil
}

// Lookup accepts both namespaced and bare names; bare names try druidcraft first.
func (t *Table) Lookup(name string) (*BlockType, error) {
	if strings.Contains(name, ":") {
		if b, ok := t.byName[name]; ok {
			return b, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
	}
	for _, ns := range []string{"druidcraft:", "minecraft:"} {
		if b, ok := t.byName[ns+name]; ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
}

func (t *Table) Item(name string) (*ItemType, error) {
	if it, ok := t.itemByName[name]; ok {
		return it, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownItem, name)
}

// Crops lists every block type that ages.
func (t *Table) Crops() []*BlockType {
	var out []*BlockType
	for _, b := range t.Blocks {
		if b.Crop() {
			out = append(out, b)
		}
	}
	return out
}

// SeedsFor finds the item that places the given block.
func (t *Table) SeedsFor(block string) string {
	for _, it := range t.Items {
		if it.Places == block {
			return it.Name
		}
	}
	return ""
}
