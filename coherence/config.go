package coherence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lsfkit/signspace/model"
)

// Bounds is the axis-aligned extent of the usable signing space.
type Bounds struct {
	Min model.SpatialVector `yaml:"min" json:"min"`
	Max model.SpatialVector `yaml:"max" json:"max"`
}

// Contains reports whether pos lies inside the bounds, boundary included.
func (b Bounds) Contains(pos model.SpatialVector) bool {
	return pos.X >= b.Min.X && pos.X <= b.Max.X &&
		pos.Y >= b.Min.Y && pos.Y <= b.Max.Y &&
		pos.Z >= b.Min.Z && pos.Z <= b.Max.Z
}

// Config carries the tolerances and penalties of the coherence rules.
//
// Sign-space placement is a stylistic continuum, so most rules are tuned to
// warn rather than reject; the zero-tolerance hard errors are structural.
type Config struct {
	// OverlapTolerance is the bounding-volume intersection depth tolerated
	// before an overlap issue is reported.
	OverlapTolerance float64 `yaml:"overlap_tolerance"`

	// MaxAnchorDistance is how far a recipient-role reference may sit from
	// the agent reference it is implicitly linked to.
	MaxAnchorDistance float64 `yaml:"max_anchor_distance"`

	// SeparationPadding is the extra gap left between bounding volumes when
	// proposing corrected positions.
	SeparationPadding float64 `yaml:"separation_padding"`

	// PenaltyError and PenaltyWarning weight the coherence score.
	PenaltyError   float64 `yaml:"penalty_error"`
	PenaltyWarning float64 `yaml:"penalty_warning"`

	// Bounds, when set, makes out-of-bounds positions a warning.
	Bounds *Bounds `yaml:"bounds,omitempty"`
}

// DefaultConfig returns the tolerances used when no config file is given.
//
// The signing space is roughly an arm's reach: positions in meters, centered
// on the signer's chest.
func DefaultConfig() Config {
	return Config{
		OverlapTolerance:  0.02,
		MaxAnchorDistance: 0.8,
		SeparationPadding: 0.01,
		PenaltyError:      0.25,
		PenaltyWarning:    0.05,
		Bounds: &Bounds{
			Min: model.SpatialVector{X: -1, Y: -0.5, Z: -0.25},
			Max: model.SpatialVector{X: 1, Y: 1, Z: 1},
		},
	}
}

// Validate checks the config values themselves.
func (c Config) Validate() error {
	if c.OverlapTolerance < 0 {
		return fmt.Errorf("overlap_tolerance must not be negative, got %g", c.OverlapTolerance)
	}
	if c.MaxAnchorDistance <= 0 {
		return fmt.Errorf("max_anchor_distance must be positive, got %g", c.MaxAnchorDistance)
	}
	if c.SeparationPadding < 0 {
		return fmt.Errorf("separation_padding must not be negative, got %g", c.SeparationPadding)
	}
	if c.PenaltyError < 0 || c.PenaltyWarning < 0 {
		return fmt.Errorf("penalties must not be negative, got error=%g warning=%g", c.PenaltyError, c.PenaltyWarning)
	}
	if c.Bounds != nil {
		b := c.Bounds
		if b.Min.X >= b.Max.X || b.Min.Y >= b.Max.Y || b.Min.Z >= b.Max.Z {
			return fmt.Errorf("bounds min must be strictly below max on every axis")
		}
	}
	return nil
}

// ParseConfig unmarshals YAML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse coherence config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid coherence config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read coherence config: %w", err)
	}
	return ParseConfig(data)
}
