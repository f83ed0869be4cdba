package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrameDt          = 0.016
	DefaultFixedDt          = 0.02
	DefaultGravity          = -9.81
	DefaultRestitution      = 0.3
	DefaultFriction         = 2.0
	DefaultMaxStepsPerFrame = 8
	DefaultTriggerRadius    = 0.15
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	FrameDt    float64          `yaml:"frame_dt"`
	Pointer    grab.Throw       `yaml:"pointer"`
	Controller ControllerConfig `yaml:"controller"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Log        LogConfig        `yaml:"log"`
}

type ControllerConfig struct {
	grab.Throw      `yaml:",inline"`
	grab.Pulse      `yaml:",inline"`
	InteractableTag string  `yaml:"interactable_tag"`
	Trigger         string  `yaml:"trigger"`
	Grip            string  `yaml:"grip"`
	Animation       string  `yaml:"animation"`
	TriggerRadius   float64 `yaml:"trigger_radius"`
}

type PhysicsConfig struct {
	FixedDt          float64 `yaml:"fixed_dt"`
	Gravity          float64 `yaml:"gravity"`
	Restitution      float64 `yaml:"restitution"`
	Friction         float64 `yaml:"friction"`
	Ground           bool    `yaml:"ground"`
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	ctl := grab.DefaultControllerConfig()
	return &Config{
		FrameDt: DefaultFrameDt,
		Pointer: grab.PointerThrow,
		Controller: ControllerConfig{
			Throw:           ctl.Throw,
			Pulse:           grab.DefaultPulse,
			InteractableTag: grab.DefaultTag,
			Trigger:         ctl.Trigger,
			Grip:            ctl.Grip,
			Animation:       ctl.Animation,
			TriggerRadius:   DefaultTriggerRadius,
		},
		Physics: PhysicsConfig{
			FixedDt:          DefaultFixedDt,
			Gravity:          DefaultGravity,
			Restitution:      DefaultRestitution,
			Friction:         DefaultFriction,
			Ground:           true,
			MaxStepsPerFrame: DefaultMaxStepsPerFrame,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.FrameDt <= 0:
		return fmt.Errorf("%w: frame_dt must be positive, got %f", ErrInvalid, c.FrameDt)
	case c.Physics.FixedDt <= 0:
		return fmt.Errorf("%w: fixed_dt must be positive, got %f", ErrInvalid, c.Physics.FixedDt)
	case c.Physics.MaxStepsPerFrame < 1:
		return fmt.Errorf("%w: max_steps_per_frame must be at least 1", ErrInvalid)
	case c.Pointer.MaxSpeed < 0 || c.Controller.MaxSpeed < 0:
		return fmt.Errorf("%w: max_throw_speed must not be negative", ErrInvalid)
	case c.Controller.TriggerRadius <= 0:
		return fmt.Errorf("%w: trigger_radius must be positive", ErrInvalid)
	case c.Controller.Trigger == "" || c.Controller.Grip == "":
		return fmt.Errorf("%w: controller trigger and grip must be named", ErrInvalid)
	}
	return nil
}

// GrabController returns the controller driver settings.
func (c *Config) GrabController() grab.ControllerConfig {
	return grab.ControllerConfig{
		Throw:     c.Controller.Throw,
		Trigger:   c.Controller.Trigger,
		Grip:      c.Controller.Grip,
		Animation: c.Controller.Animation,
	}
}

func (c *Config) PhysicsSettings() physics.Settings {
	return physics.Settings{
		Gravity:     c.Physics.Gravity,
		Restitution: c.Physics.Restitution,
		Friction:    c.Physics.Friction,
		Ground:      c.Physics.Ground,
	}
}
