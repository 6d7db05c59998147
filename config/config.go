// Package config provides configuration loading and access for the
// combat environment.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all environment tuning parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Map         MapConfig         `yaml:"map"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Round       RoundConfig       `yaml:"round"`
	Drone       DroneConfig       `yaml:"drone"`
	Shield      ShieldConfig      `yaml:"shield"`
	Burst       BurstConfig       `yaml:"burst"`
	Pickup      PickupConfig      `yaml:"pickup"`
	SuddenDeath SuddenDeathConfig `yaml:"sudden_death"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Weapons     []WeaponConfig    `yaml:"weapons"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the render client.
type ScreenConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	TargetFPS int     `yaml:"target_fps"`
	Scale     float64 `yaml:"scale"` // Pixels per world unit
}

// MapConfig selects the arena layout.
type MapConfig struct {
	Name string `yaml:"name"` // Built-in layout name; empty picks one at random
}

// PhysicsConfig holds engine stepping parameters.
type PhysicsConfig struct {
	DT                 float64 `yaml:"dt"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
	CellSize           float64 `yaml:"cell_size"` // Grid cell edge, also wall thickness
}

// RoundConfig holds round length and participant counts.
type RoundConfig struct {
	NumDrones    int  `yaml:"num_drones"`
	NumTeams     int  `yaml:"num_teams"` // 0 = free for all
	MaxSteps     int  `yaml:"max_steps"` // Steps before sudden death begins
	TrainingMode bool `yaml:"training_mode"`
}

// DroneConfig holds drone movement and energy parameters.
type DroneConfig struct {
	Radius        float64 `yaml:"radius"`
	Density       float64 `yaml:"density"`
	Damping       float64 `yaml:"damping"`
	MoveMagnitude float64 `yaml:"move_magnitude"`
	MoveAimCoef   float64 `yaml:"move_aim_coef"` // Lateral velocity carried into projectiles
	MaxSpeed      float64 `yaml:"max_speed"`     // Normalizer for hit strength

	MaxEnergy          float64 `yaml:"max_energy"`
	EnergyRefillRate   float64 `yaml:"energy_refill_rate"`   // Per second, while not braking
	EnergyRefillWait   float64 `yaml:"energy_refill_wait"`   // Seconds before refill after spending energy
	EnergyEmptyWait    float64 `yaml:"energy_empty_wait"`    // Longer wait after draining the tank dry
	WeaponDiscardCost  float64 `yaml:"weapon_discard_cost"`  // Energy spent to discard a weapon
	DepletedMoveFactor float64 `yaml:"depleted_move_factor"` // Move force scale while waiting on refill

	BrakeDamping   float64 `yaml:"brake_damping"`
	BrakeDrainRate float64 `yaml:"brake_drain_rate"` // Energy per second while braking

	HeatDecayInterval float64 `yaml:"heat_decay_interval"` // Seconds per point of heat shed
}

// ShieldConfig holds the spawn shield parameters.
type ShieldConfig struct {
	Radius   float64 `yaml:"radius"`
	Health   int     `yaml:"health"`   // Projectile hits absorbed
	Duration float64 `yaml:"duration"` // Seconds before expiry
}

// BurstConfig holds burst emission parameters.
type BurstConfig struct {
	BaseCost   float64 `yaml:"base_cost"`   // Energy taken when charging starts
	ChargeRate float64 `yaml:"charge_rate"` // Energy per second while held
	MinRadius  float64 `yaml:"min_radius"`
	MaxRadius  float64 `yaml:"max_radius"`
	MinImpulse float64 `yaml:"min_impulse"`
	MaxImpulse float64 `yaml:"max_impulse"`
	Cooldown   float64 `yaml:"cooldown"`
}

// PickupConfig holds weapon pickup parameters.
type PickupConfig struct {
	Count         int     `yaml:"count"`          // Pickups kept in the arena
	RespawnWait   float64 `yaml:"respawn_wait"`   // Seconds a consumed pickup stays gone
	PickupSpacing float64 `yaml:"pickup_spacing"` // Min distance to other pickups when placing
	DroneSpacing  float64 `yaml:"drone_spacing"`  // Min distance to drones when placing
}

// SuddenDeathConfig holds arena shrink parameters.
type SuddenDeathConfig struct {
	WallInterval float64 `yaml:"wall_interval"` // Seconds between wall rings
}

// TelemetryConfig holds episode stats output parameters.
type TelemetryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
}

// WeaponConfig describes one weapon type. The loaded slice becomes the
// immutable weapon registry; nothing mutates it after startup.
type WeaponConfig struct {
	Name           string  `yaml:"name"`
	SpawnWeight    float64 `yaml:"spawn_weight"` // Pickup selection weight; 0 = never offered
	Ammo           int     `yaml:"ammo"`         // -1 = infinite
	NumProjectiles int     `yaml:"num_projectiles"`
	Cooldown       float64 `yaml:"cooldown"`
	Charge         float64 `yaml:"charge"` // Seconds of held trigger required; 0 fires immediately
	Recoil         float64 `yaml:"recoil"`
	AimNoise       float64 `yaml:"aim_noise"` // Radians of jitter per point of heat

	FireSpeed   float64 `yaml:"fire_speed"`
	Radius      float64 `yaml:"radius"`
	Density     float64 `yaml:"density"`
	Bullet      bool    `yaml:"bullet"` // Continuous collision for very fast projectiles
	MaxDistance float64 `yaml:"max_distance"`
	MaxBounces  int     `yaml:"max_bounces"` // Contacts before destruction; 0 = unlimited

	// Most projectiles are spent on a direct drone hit; ones that
	// bounce off drones keep flying instead.
	DestroyedOnDroneHit bool `yaml:"destroyed_on_drone_hit"`

	// Accelerators change speed per bounce instead of restoring it.
	BounceSpeedCoef float64 `yaml:"bounce_speed_coef"`
	MaxSpeed        float64 `yaml:"max_speed"` // Speed cap for bounce acceleration

	// Mine behavior: the projectile welds to whatever it first hits and
	// arms a proximity sensor.
	SetsMine        bool    `yaml:"sets_mine"`
	ProximityRadius float64 `yaml:"proximity_radius"`
	SafeDistance    float64 `yaml:"safe_distance"` // Flak: no detonation this close to the shooter

	// Explosion on detonation; Impulse < 0 pulls inward.
	ExplosionRadius  float64 `yaml:"explosion_radius"`
	ExplosionFalloff float64 `yaml:"explosion_falloff"`
	ExplosionImpulse float64 `yaml:"explosion_impulse"`

	EnergyRefill float64 `yaml:"energy_refill"` // Shooter energy per unit hit strength
}

// Explodes reports whether projectiles of this weapon detonate rather
// than simply vanish.
func (w *WeaponConfig) Explodes() bool {
	return w.ExplosionRadius > 0 || w.ExplosionFalloff > 0
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WeaponIndex   map[string]int // name -> index into Weapons
	DefaultWeapon int            // Index of the infinite-ammo fallback weapon
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config and
// validates the weapon table.
func (c *Config) computeDerived() error {
	if len(c.Weapons) == 0 {
		return fmt.Errorf("config: no weapons defined")
	}

	c.Derived.WeaponIndex = make(map[string]int, len(c.Weapons))
	c.Derived.DefaultWeapon = -1
	for i := range c.Weapons {
		w := &c.Weapons[i]
		if w.Name == "" {
			return fmt.Errorf("config: weapon %d has no name", i)
		}
		if _, dup := c.Derived.WeaponIndex[w.Name]; dup {
			return fmt.Errorf("config: duplicate weapon %q", w.Name)
		}
		c.Derived.WeaponIndex[w.Name] = i
		if w.Ammo < 0 {
			if c.Derived.DefaultWeapon >= 0 {
				return fmt.Errorf("config: more than one infinite-ammo weapon")
			}
			c.Derived.DefaultWeapon = i
		}
		if w.NumProjectiles <= 0 {
			w.NumProjectiles = 1
		}
	}
	if c.Derived.DefaultWeapon < 0 {
		return fmt.Errorf("config: no infinite-ammo default weapon")
	}
	if w := &c.Weapons[c.Derived.DefaultWeapon]; w.SpawnWeight != 0 {
		return fmt.Errorf("config: default weapon %q must have zero spawn weight", w.Name)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
