// Package config holds the runtime's configuration surface:
// diffusion constants, decay profiles, criticality gains, tick bounds, and
// the feature-flag kill switches. Config is a yaml-backed struct tree with
// a Default() constructor, reloadable at runtime through Store.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DiffusionConfig holds the stride-based diffusion engine's tunables.
type DiffusionConfig struct {
	AlphaTick         float64 `yaml:"alpha_tick"`
	BetaPerSourceCap  float64 `yaml:"beta_per_source_cap"`
	TopK              int     `yaml:"top_k"`
	SoftmaxTemp       float64 `yaml:"softmax_temperature"`
}

// DecayProfile holds per-type decay factors.
type DecayProfile struct {
	LambdaE float64 `yaml:"lambda_e"`
	LambdaW float64 `yaml:"lambda_w"`
}

// DecayConfig holds the decay engine's configuration, keyed by node type.
type DecayConfig struct {
	Profiles        map[string]DecayProfile `yaml:"profiles"`
	WeightCadence   int                      `yaml:"weight_decay_cadence_ticks"`
}

// ProfileFor returns the profile for nodeType; the "Default" entry (or, if
// that is missing too, a built-in profile) is used for any type without an
// explicit entry.
func (c DecayConfig) ProfileFor(nodeType string) DecayProfile {
	if p, ok := c.Profiles[nodeType]; ok {
		return p
	}
	if p, ok := c.Profiles["Default"]; ok {
		return p
	}
	return DecayProfile{LambdaE: 0.95, LambdaW: 0.999}
}

// CriticalityConfig holds the ρ-controller's configuration.
type CriticalityConfig struct {
	Target       float64 `yaml:"target"`
	KP           float64 `yaml:"k_p"`
	KAlpha       float64 `yaml:"k_alpha"`
	SampleCadence int    `yaml:"sample_cadence_ticks"`
	PowerIterations int  `yaml:"power_iterations"`
	DeltaMin     float64 `yaml:"delta_min"`
	DeltaMax     float64 `yaml:"delta_max"`
	Hysteresis   float64 `yaml:"hysteresis"`
}

// SchedulerConfig holds the tick scheduler's configuration.
type SchedulerConfig struct {
	MinDt      time.Duration `yaml:"min_dt"`
	MaxDt      time.Duration `yaml:"max_dt"`
	EMAHorizon int           `yaml:"ema_horizon"`
}

// StrengthenConfig holds the link-strengthening engine's configuration.
type StrengthenConfig struct {
	Eta       float64 `yaml:"eta"`
	SoftCeiling float64 `yaml:"soft_ceiling"`
}

// StimulusConfig holds the injector's configuration.
type StimulusConfig struct {
	MaxBudget       float64 `yaml:"max_budget"`
	AffectivePriming float64 `yaml:"affective_priming_cap"`
}

// Flags holds the default-off feature kill switches.
type Flags struct {
	AffectivePriming   bool `yaml:"affective_priming"`
	Stickiness         bool `yaml:"stickiness"`
	Consolidation      bool `yaml:"consolidation"`
	DecayResistance    bool `yaml:"decay_resistance"`
	CoherenceMetric    bool `yaml:"coherence_metric"`
	CriticalityModes   bool `yaml:"criticality_modes"`
	TaskAdaptiveTargets bool `yaml:"task_adaptive_targets"`
}

// LoggingConfig holds clog verbosity settings. It is parsed from the config
// file, but no component reads it: verbosity is whatever the caller passes to
// clog.Init (the CLI passes its --verbose flag).
type LoggingConfig struct {
	Development bool `yaml:"development"`
	Debug       bool `yaml:"debug"`
}

// Config is the full runtime configuration tree.
type Config struct {
	StorePath    string            `yaml:"store_path"`
	Diffusion    DiffusionConfig   `yaml:"diffusion"`
	Decay        DecayConfig       `yaml:"decay"`
	Criticality  CriticalityConfig `yaml:"criticality"`
	Scheduler    SchedulerConfig   `yaml:"scheduler"`
	Strengthen   StrengthenConfig  `yaml:"strengthen"`
	Stimulus     StimulusConfig    `yaml:"stimulus"`
	Flags        Flags             `yaml:"flags"`
	Logging      LoggingConfig     `yaml:"logging"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		StorePath: "data/graphmind.db",
		Diffusion: DiffusionConfig{
			AlphaTick:        0.02,
			BetaPerSourceCap: 0.10,
			TopK:             1,
			SoftmaxTemp:      1.0,
		},
		Decay: DecayConfig{
			Profiles: map[string]DecayProfile{
				"Memory":  {LambdaE: 0.9, LambdaW: 0.999},
				"Task":    {LambdaE: 0.85, LambdaW: 0.998},
				"Default": {LambdaE: 0.95, LambdaW: 0.999},
			},
			WeightCadence: 50,
		},
		Criticality: CriticalityConfig{
			Target:          1.0,
			KP:              0.2,
			KAlpha:          0.05,
			SampleCadence:   10,
			PowerIterations: 10,
			DeltaMin:        0.01,
			DeltaMax:        0.5,
			Hysteresis:      0.02,
		},
		Scheduler: SchedulerConfig{
			MinDt:      100 * time.Millisecond,
			MaxDt:      3600 * time.Second,
			EMAHorizon: 5,
		},
		Strengthen: StrengthenConfig{
			Eta:         0.05,
			SoftCeiling: 2.0,
		},
		Stimulus: StimulusConfig{
			MaxBudget:        10.0,
			AffectivePriming: 0.2,
		},
		Flags:   Flags{},
		Logging: LoggingConfig{Development: false, Debug: false},
	}
}

// Load reads a yaml configuration file, falling back to defaults for any
// field it does not mention.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as yaml.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Store is a hot-reloadable holder for a *Config, guarded by an RWMutex so
// readers on the tick loop never block on a reload.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore wraps an initial configuration for hot-reload.
func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// Get returns the currently active configuration snapshot.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set atomically replaces the active configuration (used by ConfigureDecay /
// ConfigureCriticality and the fsnotify-driven hot reload).
func (s *Store) Set(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}
