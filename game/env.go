// Package game implements the arena combat environment: drones,
// weapons, projectiles, explosions, pickups and the sudden-death arena
// shrink, all driven by a fixed-timestep rigid-body world.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/PufferAI/impulse-wars/config"
	"github.com/PufferAI/impulse-wars/physics"
)

// Action is one drone's input for a step. Move and Aim are direction
// intents; magnitudes above 1 are clamped. Shoot held on a charge
// weapon accumulates charge and fires on release. Burst held charges a
// burst and releases it when let go.
type Action struct {
	Move    physics.Vec2
	Aim     physics.Vec2
	Shoot   bool
	Brake   bool
	Burst   bool
	Discard bool
}

// StepInfo reports the round state after a step.
type StepInfo struct {
	Step        int
	RoundOver   bool
	Winner      int // drone index, -1 when no single winner
	WinningTeam int // -1 when no team won
	SuddenDeath bool
}

// ExplosionRecord is a detonation that happened this step, kept for
// rendering and telemetry.
type ExplosionRecord struct {
	Pos       physics.Vec2
	Radius    float64
	Falloff   float64
	Implosion bool
}

// TrailPoint is one position sample recorded for rendering. Trails are
// only collected while a render client has recording enabled.
type TrailPoint struct {
	Pos  physics.Vec2
	Kind EntityKind
}

// Env is one arena combat environment. It is not safe for concurrent
// use; all mutation happens on the caller's goroutine inside Step.
type Env struct {
	cfg *config.Config
	rng *rand.Rand
	log *slog.Logger

	world *ecs.World
	phys  *physics.World

	wallMap   *ecs.Map1[Wall]
	droneMap  *ecs.Map1[Drone]
	projMap   *ecs.Map1[Projectile]
	pickupMap *ecs.Map1[Pickup]
	shieldMap *ecs.Map1[Shield]

	weapons *WeaponRegistry

	grid      *Grid
	wallIndex *wallIndex
	mapName   string
	bounds    physics.Vec2

	drones        []ecs.Entity
	projectiles   []ecs.Entity
	pickups       []ecs.Entity
	floatingWalls []ecs.Entity
	staticWalls   []ecs.Entity

	weaponSpawnCounts []int
	spawnQuadrant     int

	step        int
	roundOver   bool
	winner      int
	winningTeam int

	suddenDeath   bool
	shrinkCounter int
	shrinkTimer   float64

	// Projectiles queued to detonate after event handling. Detonations
	// can queue more (mine chains); the slice drains until empty.
	explodingProjectiles []ecs.Entity

	explosions []ExplosionRecord

	recording bool
	trails    []TrailPoint
}

// NewEnv builds an environment and performs the initial reset.
func NewEnv(cfg *config.Config, seed int64, log *slog.Logger) (*Env, error) {
	if cfg.Round.NumDrones < 1 {
		return nil, fmt.Errorf("game: need at least one drone, got %d", cfg.Round.NumDrones)
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Env{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		log:     log,
		weapons: newWeaponRegistry(cfg),
	}
	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset tears down the previous round and builds a fresh arena. The
// map comes from config, or is drawn from the built-in set when the
// config names none.
func (e *Env) Reset() error {
	world := ecs.NewWorld()
	e.world = world
	e.wallMap = ecs.NewMap1[Wall](world)
	e.droneMap = ecs.NewMap1[Drone](world)
	e.projMap = ecs.NewMap1[Projectile](world)
	e.pickupMap = ecs.NewMap1[Pickup](world)
	e.shieldMap = ecs.NewMap1[Shield](world)

	e.phys = physics.NewWorld()

	e.drones = nil
	e.projectiles = nil
	e.pickups = nil
	e.floatingWalls = nil
	e.staticWalls = nil
	e.explodingProjectiles = nil
	e.explosions = nil
	e.trails = nil
	e.weaponSpawnCounts = make([]int, e.weapons.Len())

	e.step = 0
	e.roundOver = false
	e.winner = -1
	e.winningTeam = -1
	e.suddenDeath = false
	e.shrinkCounter = 0
	e.shrinkTimer = 0

	layout, err := layoutByName(e.cfg.Map.Name, e.rng)
	if err != nil {
		return err
	}
	parsed, err := layout.parse()
	if err != nil {
		return err
	}
	e.mapName = parsed.name
	e.grid = newGrid(parsed.cols, parsed.rows, e.cfg.Physics.CellSize)
	e.bounds = e.grid.Size()

	half := e.cfg.Physics.CellSize / 2
	for _, tile := range parsed.walls {
		pos := e.grid.CellCenter(e.grid.CellIndex(tile.Col, tile.Row))
		e.createWall(pos, physics.V(half, half), tile.Type, tile.Floating, false)
	}
	e.rebuildWallIndex()

	if err := e.spawnDrones(parsed.spawns); err != nil {
		return err
	}
	e.spawnInitialPickups()
	e.losStep()

	e.log.Debug("arena reset",
		"map", e.mapName,
		"drones", len(e.drones),
		"pickups", len(e.pickups),
		"floatingWalls", len(e.floatingWalls),
	)
	return nil
}

// spawnDrones places one drone per index. Outside training mode each
// drone gets its own arena quadrant, rotated every round so no index
// owns a corner. Training mode scatters them anywhere open.
func (e *Env) spawnDrones(spawns []gridPos) error {
	n := e.cfg.Round.NumDrones
	e.spawnQuadrant = e.rng.Intn(4)
	for i := 0; i < n; i++ {
		var pos physics.Vec2
		var quadrant int
		found := false

		if e.cfg.Round.TrainingMode {
			quadrant = -1
			pos, found = e.findOpenPos(openPosConstraints{
				quadrant:     -1,
				droneSpacing: e.cfg.Pickup.DroneSpacing,
			})
		} else {
			quadrant = (e.spawnQuadrant + i) % 4
			// Prefer an authored spawn cell in the quadrant.
			for _, s := range spawns {
				idx := e.grid.CellIndex(s.Col, s.Row)
				if e.grid.Quadrant(idx) != quadrant {
					continue
				}
				if _, occupied := e.grid.Occupant(idx); occupied {
					continue
				}
				center := e.grid.CellCenter(idx)
				if e.clearOfDrones(center, e.cfg.Pickup.DroneSpacing) {
					pos, found = center, true
					break
				}
			}
			if !found {
				pos, found = e.findOpenPos(openPosConstraints{
					quadrant:     quadrant,
					droneSpacing: e.cfg.Pickup.DroneSpacing,
				})
			}
		}
		if !found {
			return fmt.Errorf("game: no open spawn position for drone %d", i)
		}

		// num_teams 0 is free for all: every drone is its own team.
		team := i
		if e.cfg.Round.NumTeams >= 1 {
			team = i % e.cfg.Round.NumTeams
		}
		e.createDrone(i, team, quadrant, pos)
	}
	return nil
}

func (e *Env) spawnInitialPickups() {
	for i := 0; i < e.cfg.Pickup.Count; i++ {
		pos, ok := e.findOpenPos(openPosConstraints{
			quadrant:      -1,
			pickupSpacing: e.cfg.Pickup.PickupSpacing,
			droneSpacing:  e.cfg.Pickup.DroneSpacing,
		})
		if !ok {
			e.log.Warn("no room for pickup", "placed", i, "want", e.cfg.Pickup.Count)
			return
		}
		e.createPickup(pos)
	}
}

// Step advances the environment one tick. actions is indexed by drone;
// missing entries mean no input. After the round ends Step keeps
// returning the final result without simulating.
func (e *Env) Step(actions []Action) StepInfo {
	if e.roundOver {
		return e.info()
	}
	e.explosions = e.explosions[:0]
	e.trails = e.trails[:0]

	for i, ent := range e.drones {
		d := e.droneMap.Get(ent)
		d.StepInfo = DroneStepInfo{}
		if d.Dead {
			continue
		}
		var a Action
		if i < len(actions) {
			a = actions[i]
		}
		e.applyAction(ent, a)
	}

	e.phys.Step(e.cfg.Physics.DT, e.cfg.Physics.VelocityIterations, e.cfg.Physics.PositionIterations)

	events := e.phys.DrainEvents()
	e.refreshBodies()
	e.handleContactBegins(events.ContactBegins)
	e.handleContactEnds(events.ContactEnds)
	e.handleSensorBegins(events.SensorBegins)
	e.handleSensorEnds(events.SensorEnds)

	e.projectilesStep()
	e.detonateQueued()
	e.dronesStep()
	e.pickupsStep()
	e.suddenDeathStep()
	e.losStep()

	e.step++
	if e.step >= e.cfg.Round.MaxSteps && !e.suddenDeath {
		e.suddenDeath = true
		e.log.Info("sudden death", "step", e.step)
	}
	e.checkRoundOver()
	return e.info()
}

func (e *Env) info() StepInfo {
	return StepInfo{
		Step:        e.step,
		RoundOver:   e.roundOver,
		Winner:      e.winner,
		WinningTeam: e.winningTeam,
		SuddenDeath: e.suddenDeath,
	}
}

// refreshBodies re-caches positions and velocities after a physics
// step and enforces arena bounds. Anything that escapes the arena is
// removed: drones die, everything else is destroyed.
func (e *Env) refreshBodies() {
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead {
			continue
		}
		d.LastPos = d.Pos
		d.Pos = d.Body.Position()
		d.LastVelocity = d.Body.LinearVelocity()
		d.Stats.DistanceTraveled += d.Pos.Distance(d.LastPos)
		if e.recording {
			e.trails = append(e.trails, TrailPoint{Pos: d.Pos, Kind: KindDrone})
		}
		if e.outOfBounds(d.Pos) {
			e.log.Warn("drone escaped arena", "drone", d.Index, "pos", d.Pos)
			e.killDrone(ent)
		}
	}
	for _, ent := range append([]ecs.Entity(nil), e.projectiles...) {
		p := e.projMap.Get(ent)
		p.LastPos = p.Pos
		p.Pos = p.Body.Position()
		p.Velocity = p.Body.LinearVelocity()
		p.Speed = p.Velocity.Length()
		if e.recording {
			e.trails = append(e.trails, TrailPoint{Pos: p.Pos, Kind: KindProjectile})
		}
		if e.outOfBounds(p.Pos) {
			e.destroyProjectile(ent, false)
		}
	}
	for _, ent := range append([]ecs.Entity(nil), e.floatingWalls...) {
		w := e.wallMap.Get(ent)
		w.Pos = w.Body.Position()
		if e.outOfBounds(w.Pos) {
			e.destroyWall(ent)
		}
	}
	// Shields track their drone exactly.
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead || d.Shield == zeroEntity {
			continue
		}
		s := e.shieldMap.Get(d.Shield)
		s.Body.SetTransform(d.Pos, 0)
	}
}

func (e *Env) outOfBounds(p physics.Vec2) bool {
	return p.X < 0 || p.Y < 0 || p.X > e.bounds.X || p.Y > e.bounds.Y
}

// checkRoundOver ends the round when at most one drone (or one team)
// is left standing. A mutual kill on the same step ends the round with
// no winner.
func (e *Env) checkRoundOver() {
	if len(e.drones) < 2 {
		return
	}
	alive := 0
	lastIdx := -1
	aliveTeam := -1
	sameTeam := true
	for _, ent := range e.drones {
		d := e.droneMap.Get(ent)
		if d.Dead {
			continue
		}
		alive++
		lastIdx = d.Index
		if aliveTeam == -1 {
			aliveTeam = d.Team
		} else if d.Team != aliveTeam {
			sameTeam = false
		}
	}
	switch {
	case alive == 0:
		e.roundOver = true
		e.winner = -1
		e.winningTeam = -1
	case alive == 1:
		e.roundOver = true
		e.winner = lastIdx
		e.winningTeam = aliveTeam
	case e.cfg.Round.NumTeams > 1 && sameTeam:
		e.roundOver = true
		e.winner = -1
		e.winningTeam = aliveTeam
	}
	if e.roundOver {
		e.log.Info("round over",
			"step", e.step,
			"winner", e.winner,
			"winningTeam", e.winningTeam,
			"suddenDeath", e.suddenDeath,
		)
	}
}

// Accessors used by the render client and telemetry.

func (e *Env) MapName() string          { return e.mapName }
func (e *Env) Bounds() physics.Vec2     { return e.bounds }
func (e *Env) StepCount() int           { return e.step }
func (e *Env) InSuddenDeath() bool      { return e.suddenDeath }
func (e *Env) NumDrones() int           { return len(e.drones) }
func (e *Env) Weapons() *WeaponRegistry { return e.weapons }

// SetRecording toggles trail-point collection for a render client.
func (e *Env) SetRecording(on bool) { e.recording = on }

// DroneState returns a copy of one drone's state.
func (e *Env) DroneState(idx int) Drone {
	d := *e.droneMap.Get(e.drones[idx])
	d.Stats.ShotDistances = append([]float64(nil), d.Stats.ShotDistances...)
	return d
}

// Explosions returns the detonations from the last step. The slice is
// reused; callers copy what they keep.
func (e *Env) Explosions() []ExplosionRecord {
	return e.explosions
}
