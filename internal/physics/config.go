package physics

import (
	"fmt"
	"os"

	"cogentcore.org/core/math32"
	"gopkg.in/yaml.v3"
)

// MaxTags bounds the world tag list so the collision-enable matrix stays a
// fixed-size array.
const MaxTags = 32

// Config holds every tuning constant of a world. The sleep thresholds are
// deliberately configuration rather than hard-coded: they change how a
// simulation feels far more than any solver detail.
type Config struct {
	// Gravity is the global acceleration applied to dynamic colliders.
	Gravity [3]float32 `yaml:"gravity"`

	// Tags is the fixed, ordered tag list. Colliders may carry at most one
	// tag and the collision-enable matrix is indexed by it.
	Tags []string `yaml:"tags"`

	// StepCount is the number of solver iterations per update.
	StepCount int `yaml:"step_count"`

	// Tightness scales how aggressively penetration and joint error are
	// corrected (0..1).
	Tightness float32 `yaml:"tightness"`

	// ResponseTime is the time constant, in seconds, over which constraint
	// error is resolved. Smaller is stiffer.
	ResponseTime float32 `yaml:"response_time"`

	// AllowSleep enables the sleep system world-wide.
	AllowSleep bool `yaml:"allow_sleep"`

	// LinearDamping and AngularDamping apply to every collider on top of
	// per-collider damping.
	LinearDamping  float32 `yaml:"linear_damping"`
	AngularDamping float32 `yaml:"angular_damping"`

	// VelocitySteadyEpsilon is the speed below which global damping snaps
	// velocity to zero.
	VelocitySteadyEpsilon float32 `yaml:"velocity_steady_epsilon"`

	// Sleep thresholds: a collider slower than both velocity limits for
	// SleepDuration seconds is eligible to sleep with its island.
	SleepLinearVelocity  float32 `yaml:"sleep_linear_velocity"`
	SleepAngularVelocity float32 `yaml:"sleep_angular_velocity"`
	SleepDuration        float32 `yaml:"sleep_duration"`

	// MaxStep clamps a single update's dt so a stalled frame cannot
	// explode the integration.
	MaxStep float32 `yaml:"max_step"`

	// RestitutionThreshold is the separating speed below which contacts
	// lose their bounce.
	RestitutionThreshold float32 `yaml:"restitution_threshold"`

	// PenetrationSlop is how much overlap the solver tolerates before
	// pushing back.
	PenetrationSlop float32 `yaml:"penetration_slop"`

	// BroadphaseCellSize sizes the spatial hash cells; zero picks the
	// default.
	BroadphaseCellSize float32 `yaml:"broadphase_cell_size"`
}

// DefaultConfig returns the documented defaults: standard gravity, twenty
// solver iterations and the sleep tuning carried over from the engine this
// core grew out of.
func DefaultConfig() Config {
	return Config{
		Gravity:               [3]float32{0, -9.81, 0},
		StepCount:             20,
		Tightness:             0.2,
		ResponseTime:          1.0 / 60.0,
		AllowSleep:            true,
		VelocitySteadyEpsilon: 1e-4,
		SleepLinearVelocity:   0.3,
		SleepAngularVelocity:  0.5,
		SleepDuration:         0.3,
		MaxStep:               1.0 / 20.0,
		RestitutionThreshold:  1.0,
		PenetrationSlop:       0.005,
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load physics config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse physics config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StepCount <= 0 {
		return fmt.Errorf("%w: step count must be positive", ErrInvalidArgument)
	}
	if len(c.Tags) > MaxTags {
		return fmt.Errorf("%w: at most %d tags", ErrInvalidArgument, MaxTags)
	}
	seen := map[string]bool{}
	for _, t := range c.Tags {
		if t == "" || seen[t] {
			return fmt.Errorf("%w: empty or duplicate tag %q", ErrInvalidArgument, t)
		}
		seen[t] = true
	}
	if c.Tightness < 0 || c.Tightness > 1 {
		return fmt.Errorf("%w: tightness must be in [0, 1]", ErrInvalidArgument)
	}
	if c.ResponseTime <= 0 {
		return fmt.Errorf("%w: response time must be positive", ErrInvalidArgument)
	}
	return nil
}

func (c *Config) gravity() math32.Vector3 {
	return math32.Vec3(c.Gravity[0], c.Gravity[1], c.Gravity[2])
}
