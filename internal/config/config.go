package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Scene     SceneConfig     `toml:"scene"`
	Window    WindowConfig    `toml:"window"`
	Physics   PhysicsConfig   `toml:"physics"`
	Ship      ShipConfig      `toml:"ship"`
	Pinball   PinballConfig   `toml:"pinball"`
	Wind      WindConfig      `toml:"wind"`
	Audio     AudioConfig     `toml:"audio"`
	Database  DatabaseConfig  `toml:"database"`
	Inspector InspectorConfig `toml:"inspector"`
	Logging   LoggingConfig   `toml:"logging"`
}

type SceneConfig struct {
	Path       string `toml:"path"`        // YAML scene description
	ScriptsDir string `toml:"scripts_dir"` // Lua tuning hooks; empty disables scripting
	ReplayPath string `toml:"replay_path"` // recorded input; used when headless
}

type WindowConfig struct {
	Title    string        `toml:"title"`
	Width    int           `toml:"width"`
	Height   int           `toml:"height"`
	Headless bool          `toml:"headless"`  // run the frame loop on a ticker without a window
	TickRate time.Duration `toml:"tick_rate"` // frame interval when headless
	MaxTicks int           `toml:"max_ticks"` // stop after this many headless frames; 0 runs until signalled
}

type PhysicsConfig struct {
	Gravity          [3]float32    `toml:"gravity"`
	FixedStep        time.Duration `toml:"fixed_step"`
	MaxSubSteps      int           `toml:"max_substeps"`
	SolverIterations int           `toml:"solver_iterations"`
}

type ShipConfig struct {
	Thrust          float32       `toml:"thrust"`
	ReverseImpulse  float32       `toml:"reverse_impulse"`
	Torque          float32       `toml:"torque"`
	MaxSpeed        float32       `toml:"max_speed"`
	MaxAngularSpeed float32       `toml:"max_angular_speed"`
	WindFloor       float32       `toml:"wind_floor"`        // minimum thrust scalar against the wind
	ComboBrakeRatio float32       `toml:"combo_brake_ratio"` // share of max speed above which thrust+turn brakes
	BrakeDivisor    float32       `toml:"brake_divisor"`
	HaltSpeed       float32       `toml:"halt_speed"`
	HaltAngular     float32       `toml:"halt_angular"`
	Reload          time.Duration `toml:"reload"`
	Range           float32       `toml:"range"`
	Health          float32       `toml:"health"`
	DamagePerShot   float32       `toml:"damage_per_shot"`
}

type PinballConfig struct {
	Lives           int        `toml:"lives"`
	FlipperSpeed    float32    `toml:"flipper_speed"`
	FlipperMaxAngle float32    `toml:"flipper_max_angle"`
	PlungerRate     float32    `toml:"plunger_rate"`
	PlungerMax      float32    `toml:"plunger_max"`
	LaunchDirection [3]float32 `toml:"launch_direction"`
	DrainZ          float32    `toml:"drain_z"`
	BumperPoints    int        `toml:"bumper_points"`
	BumperKick      float32    `toml:"bumper_kick"`
}

type WindConfig struct {
	Direction [3]float32 `toml:"direction"`
	VeerRate  float32    `toml:"veer_rate"` // rad/s about +Y
	Script    bool       `toml:"script"`    // take the direction from the wind_direction Lua hook
}

type AudioConfig struct {
	Enabled   bool              `toml:"enabled"`
	QueueSize int               `toml:"queue_size"`
	Cues      map[string]string `toml:"cues"` // cue name → WAV path
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the match ledger
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type InspectorConfig struct {
	BindAddress  string        `toml:"bind_address"` // empty disables the inspector
	PushInterval time.Duration `toml:"push_interval"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration, used when no file is given.
func Default() *Config { return defaults() }

func (c *Config) validate() error {
	switch {
	case c.Physics.FixedStep <= 0:
		return fmt.Errorf("physics.fixed_step must be positive, got %s", c.Physics.FixedStep)
	case c.Physics.MaxSubSteps < 0:
		return fmt.Errorf("physics.max_substeps must not be negative, got %d", c.Physics.MaxSubSteps)
	case c.Ship.BrakeDivisor <= 1:
		return fmt.Errorf("ship.brake_divisor must exceed 1, got %v", c.Ship.BrakeDivisor)
	case c.Window.Headless && c.Window.TickRate <= 0:
		return fmt.Errorf("window.tick_rate must be positive when headless, got %s", c.Window.TickRate)
	case c.Audio.Enabled && c.Audio.QueueSize <= 0:
		return fmt.Errorf("audio.queue_size must be positive, got %d", c.Audio.QueueSize)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Scene: SceneConfig{
			Path:       "data/scenes/orbital.yaml",
			ScriptsDir: "scripts",
		},
		Window: WindowConfig{
			Title:    "orrery",
			Width:    1280,
			Height:   720,
			TickRate: time.Second / 60,
		},
		Physics: PhysicsConfig{
			Gravity:          [3]float32{0, -9.81, 0},
			FixedStep:        time.Second / 60,
			MaxSubSteps:      10,
			SolverIterations: 10,
		},
		Ship: ShipConfig{
			Thrust:          40,
			ReverseImpulse:  8,
			Torque:          6,
			MaxSpeed:        12,
			MaxAngularSpeed: 1.5,
			WindFloor:       0.3,
			ComboBrakeRatio: 0.57,
			BrakeDivisor:    10,
			HaltSpeed:       0.1,
			HaltAngular:     0.05,
			Reload:          2 * time.Second,
			Range:           30,
			Health:          100,
			DamagePerShot:   50,
		},
		Pinball: PinballConfig{
			Lives:           3,
			FlipperSpeed:    18,
			FlipperMaxAngle: 0.9,
			PlungerRate:     6,
			PlungerMax:      9,
			LaunchDirection: [3]float32{0, 0, -1},
			DrainZ:          9,
			BumperPoints:    100,
			BumperKick:      1.5,
		},
		Wind: WindConfig{
			Direction: [3]float32{0, 0, -1},
		},
		Audio: AudioConfig{
			Enabled:   true,
			QueueSize: 16,
			Cues: map[string]string{
				"cannon":    "assets/audio/cannon.wav",
				"hit":       "assets/audio/hit.wav",
				"sink":      "assets/audio/sink.wav",
				"bumper":    "assets/audio/bumper.wav",
				"drain":     "assets/audio/drain.wav",
				"game_over": "assets/audio/game_over.wav",
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Inspector: InspectorConfig{
			PushInterval: 250 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
