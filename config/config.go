// Package config loads simulation settings from YAML. Missing keys keep their
// defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/astei/druidcraft/crop"
	"github.com/astei/druidcraft/world"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Seed            int64 `yaml:"seed"`
	Ticks           int   `yaml:"ticks"`
	RandomTickSpeed int   `yaml:"random_tick_speed"`
	Sweep           bool  `yaml:"sweep"`
	SkyDarken       int   `yaml:"sky_darken"`

	// Registry points at a block table replacing the built-in one.
	Registry string `yaml:"registry"`
	// History is the SQLite file runs are journaled to. Empty disables it.
	History string `yaml:"history"`

	Crop CropConfig `yaml:"crop"`
	Farm FarmConfig `yaml:"farm"`
}

// CropConfig holds the growth knobs shared by every crop. Max age comes from
// the block table.
type CropConfig struct {
	MinLight      int     `yaml:"min_light"`
	BaseChance    float64 `yaml:"base_chance"`
	AccelerantMin int     `yaml:"accelerant_min"`
	AccelerantMax int     `yaml:"accelerant_max"`
}

type FarmConfig struct {
	ChunksX        int    `yaml:"chunks_x"`
	ChunksZ        int    `yaml:"chunks_z"`
	Ground         int    `yaml:"ground"`
	WaterEvery     int    `yaml:"water_every"`
	HydrationRange int    `yaml:"hydration_range"`
	TorchEvery     int    `yaml:"torch_every"`
	Plant          string `yaml:"plant"`
	RowSpacing     int    `yaml:"row_spacing"`
}

func Default() Config {
	p := crop.DefaultParams()
	f := world.DefaultFarmOptions()
	return Config{
		Seed:            1,
		Ticks:           1200,
		RandomTickSpeed: 3,
		Crop: CropConfig{
			MinLight:      p.MinLight,
			BaseChance:    p.BaseChance,
			AccelerantMin: p.AccelerantMin,
			AccelerantMax: p.AccelerantMax,
		},
		Farm: FarmConfig{
			ChunksX:        f.ChunksX,
			ChunksZ:        f.ChunksZ,
			Ground:         f.Ground,
			WaterEvery:     f.WaterEvery,
			HydrationRange: f.HydrationRange,
			TorchEvery:     f.TorchEvery,
			Plant:          f.Plant,
			RowSpacing:     f.RowSpacing,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes raw YAML over the defaults. Unknown keys are rejected.
func Parse(raw []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Ticks < 0 {
		return fmt.Errorf("%w: ticks %d", ErrInvalid, c.Ticks)
	}
	if c.RandomTickSpeed < 0 {
		return fmt.Errorf("%w: random_tick_speed %d", ErrInvalid, c.RandomTickSpeed)
	}
	if c.SkyDarken < 0 || c.SkyDarken > 15 {
		return fmt.Errorf("%w: sky_darken %d not in 0..15", ErrInvalid, c.SkyDarken)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: crop: %v", ErrInvalid, err)
	}
	return nil
}

// Params converts the crop section. MaxAge is a placeholder the scheduler
// replaces per block.
func (c Config) Params() crop.Params {
	return crop.Params{
		MaxAge:        crop.DefaultParams().MaxAge,
		MinLight:      c.Crop.MinLight,
		BaseChance:    c.Crop.BaseChance,
		AccelerantMin: c.Crop.AccelerantMin,
		AccelerantMax: c.Crop.AccelerantMax,
	}
}

func (c Config) FarmOptions() world.FarmOptions {
	return world.FarmOptions{
		ChunksX:        c.Farm.ChunksX,
		ChunksZ:        c.Farm.ChunksZ,
		Ground:         c.Farm.Ground,
		WaterEvery:     c.Farm.WaterEvery,
		HydrationRange: c.Farm.HydrationRange,
		TorchEvery:     c.Farm.TorchEvery,
		Plant:          c.Farm.Plant,
		RowSpacing:     c.Farm.RowSpacing,
	}
}
