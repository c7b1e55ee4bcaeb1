// Package config loads the YAML configuration shared by the command-line
// programs. Every field has a default, so a missing file or an empty
// document reproduces the built-in examples.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/transform"
)

// Config is the root of the configuration file.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Device    DeviceConfig    `yaml:"device"`
	RoundTrip RoundTripConfig `yaml:"roundtrip"`
	Rot       RotConfig       `yaml:"rot"`
	Report    ReportConfig    `yaml:"report"`
}

// LogConfig selects the log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DeviceConfig selects the backend and sizes the device context.
type DeviceConfig struct {
	Backend     string `yaml:"backend"`
	Index       int    `yaml:"index"`
	Workers     int    `yaml:"workers"`
	MemoryLimit int64  `yaml:"memory_limit"`
}

// RoundTripConfig drives the R2C/C2R example.
type RoundTripConfig struct {
	NX       int        `yaml:"nx"`
	NY       int        `yaml:"ny"`
	Batch    int        `yaml:"batch"`
	Engine   string     `yaml:"engine"`
	BlockDim int        `yaml:"block_dim"`
	Mask     MaskConfig `yaml:"mask"`

	// Normalize overrides the post-inverse scale factor; unset means
	// 1/(nx*ny).
	Normalize *float64 `yaml:"normalize"`

	Tolerance float64 `yaml:"tolerance"`
}

// MaskConfig is the band mask applied to the spectrum.
type MaskConfig struct {
	RThresh int     `yaml:"r_thresh"`
	Scale   float64 `yaml:"scale"`
}

// RotConfig drives the sparse rotation example.
type RotConfig struct {
	Size      int       `yaml:"size"`
	Indices   []int32   `yaml:"indices"`
	Values    []float64 `yaml:"values"`
	Y         []float64 `yaml:"y"`
	C         float64   `yaml:"c"`
	S         float64   `yaml:"s"`
	Base      string    `yaml:"base"`
	ExpectedX []float64 `yaml:"expected_x"`
	ExpectedY []float64 `yaml:"expected_y"`
	Tolerance float64   `yaml:"tolerance"`
}

// ReportConfig selects the report format.
type ReportConfig struct {
	Format string `yaml:"format"`
}

// Default returns the configuration of the built-in examples.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "pretty"},
		Device: DeviceConfig{
			Backend: device.Host,
		},
		RoundTrip: RoundTripConfig{
			NX:        5,
			NY:        5,
			Batch:     1,
			Engine:    transform.Default,
			BlockDim:  16,
			Mask:      MaskConfig{RThresh: 1, Scale: 0.7},
			Tolerance: 1e-4,
		},
		Rot: RotConfig{
			Size:      8,
			Indices:   []int32{0, 3, 4, 7},
			Values:    []float64{1, 2, 3, 4},
			Y:         []float64{1, 2, 3, 4, 5, 6, 7, 8},
			C:         0.5,
			S:         0.866025,
			Base:      "zero",
			ExpectedX: []float64{1.366025, 4.464100, 5.830125, 8.928200},
			ExpectedY: []float64{-0.366025, 2.0, 3.0, 0.267950, -0.098075, 6.0, 7.0, 0.535900},
			Tolerance: 0.001,
		},
		Report: ReportConfig{Format: "text"},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := dropStaleExpectations(data, &cfg.Rot); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// rotInputs are the rot keys that change the computed result.
var rotInputs = []string{"size", "indices", "values", "y", "c", "s", "base"}

// dropStaleExpectations clears the default expected arrays when the
// document redefines the rotation without restating them, so the result
// is checked against the host reference instead.
func dropStaleExpectations(data []byte, rot *RotConfig) error {
	var doc struct {
		Rot map[string]yaml.Node `yaml:"rot"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	if doc.Rot == nil {
		return nil
	}
	if _, ok := doc.Rot["expected_x"]; ok {
		return nil
	}
	if _, ok := doc.Rot["expected_y"]; ok {
		return nil
	}
	for _, key := range rotInputs {
		if _, ok := doc.Rot[key]; ok {
			rot.ExpectedX, rot.ExpectedY = nil, nil
			return nil
		}
	}
	return nil
}

// NormalizeScale is the factor applied after the inverse transform.
func (r RoundTripConfig) NormalizeScale() float64 {
	if r.Normalize != nil {
		return *r.Normalize
	}
	return 1 / float64(r.NX*r.NY)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := device.Normalize(c.Device.Backend); err != nil {
		return fmt.Errorf("config: device.backend: %w", err)
	}
	if c.Device.Index < 0 || c.Device.Workers < 0 || c.Device.MemoryLimit < 0 {
		return errors.New("config: device.index, device.workers and device.memory_limit must be >= 0")
	}
	if err := c.RoundTrip.validate(); err != nil {
		return err
	}
	if err := c.Rot.validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Report.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: report.format must be text or json, got %q", c.Report.Format)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "pretty", "json", "text":
	default:
		return fmt.Errorf("config: log.format must be pretty, json or text, got %q", c.Log.Format)
	}
	return nil
}

func (r RoundTripConfig) validate() error {
	if r.NX < 1 || r.NY < 1 || r.Batch < 1 {
		return fmt.Errorf("config: roundtrip.nx, ny and batch must be > 0, got %d, %d, %d", r.NX, r.NY, r.Batch)
	}
	if _, err := transform.Lookup(r.Engine); err != nil {
		return fmt.Errorf("config: roundtrip.engine: %w", err)
	}
	if r.BlockDim < 1 || r.BlockDim*r.BlockDim > device.MaxThreadsPerBlock {
		return fmt.Errorf("config: roundtrip.block_dim %d out of range [1, 32]", r.BlockDim)
	}
	if !(r.Tolerance > 0) {
		return fmt.Errorf("config: roundtrip.tolerance must be > 0, got %v", r.Tolerance)
	}
	return nil
}

func (r RotConfig) validate() error {
	switch {
	case r.Size < 1:
		return fmt.Errorf("config: rot.size must be > 0, got %d", r.Size)
	case len(r.Indices) != len(r.Values):
		return fmt.Errorf("config: rot.indices and rot.values differ in length: %d vs %d", len(r.Indices), len(r.Values))
	case len(r.Indices) > r.Size:
		return fmt.Errorf("config: rot has %d entries for size %d", len(r.Indices), r.Size)
	case len(r.Y) != r.Size:
		return fmt.Errorf("config: rot.y has %d values, want %d", len(r.Y), r.Size)
	case len(r.ExpectedX) != 0 && len(r.ExpectedX) != len(r.Values):
		return fmt.Errorf("config: rot.expected_x has %d values, want %d", len(r.ExpectedX), len(r.Values))
	case len(r.ExpectedY) != 0 && len(r.ExpectedY) != r.Size:
		return fmt.Errorf("config: rot.expected_y has %d values, want %d", len(r.ExpectedY), r.Size)
	case !(r.Tolerance > 0):
		return fmt.Errorf("config: rot.tolerance must be > 0, got %v", r.Tolerance)
	}
	switch strings.ToLower(r.Base) {
	case "", "zero", "one":
	default:
		return fmt.Errorf("config: rot.base must be zero or one, got %q", r.Base)
	}
	return nil
}
