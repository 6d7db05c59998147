// Interactive client: pilot drone 0 against scripted opponents.
//
// Controls: WASD to thrust, mouse to aim, left click to shoot (hold to
// charge sniper-class weapons), right click to charge and release a
// burst, space to brake, Q to discard the current weapon.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/PufferAI/impulse-wars/config"
	"github.com/PufferAI/impulse-wars/game"
	"github.com/PufferAI/impulse-wars/physics"
)

const hudHeight = 70

type explosionFX struct {
	rec game.ExplosionRecord
	ttl float32
}

type trailFX struct {
	p   game.TrailPoint
	ttl float32
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	env, err := game.NewEnv(cfg, rngSeed, logger)
	if err != nil {
		logger.Error("failed to create environment", "error", err)
		os.Exit(1)
	}
	env.SetRecording(true)

	bots := make([]*game.Bot, cfg.Round.NumDrones)
	for i := 1; i < len(bots); i++ {
		bots[i] = game.NewBot(i, rngSeed+int64(i))
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Impulse Wars")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	scale := float32(cfg.Screen.Scale)
	paused := false
	var accumulator float32
	var fx []explosionFX
	var trails []trailFX
	actions := make([]game.Action, cfg.Round.NumDrones)

	for !rl.WindowShouldClose() {
		snap := env.Snapshot()

		if !paused && !snap.RoundOver {
			accumulator += rl.GetFrameTime()
			for accumulator >= float32(cfg.Physics.DT) {
				accumulator -= float32(cfg.Physics.DT)

				actions[0] = playerAction(snap, scale)
				for i := 1; i < len(bots); i++ {
					actions[i] = bots[i].Act(env, snap)
				}
				env.Step(actions)

				snap = env.Snapshot()
				for _, rec := range snap.Explosions {
					fx = append(fx, explosionFX{rec: rec, ttl: 0.4})
				}
				for _, p := range snap.Trails {
					trails = append(trails, trailFX{p: p, ttl: 0.5})
				}
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(24, 26, 33, 255))
		trails = drawTrails(trails, scale, rl.GetFrameTime())
		drawArena(snap, scale)
		fx = drawExplosions(fx, scale, rl.GetFrameTime())
		drawHUD(snap, cfg)

		if gui.Button(rl.Rectangle{X: 10, Y: 10, Width: 90, Height: 26}, pauseLabel(paused)) {
			paused = !paused
		}
		if gui.Button(rl.Rectangle{X: 110, Y: 10, Width: 90, Height: 26}, "Restart") {
			if err := env.Reset(); err != nil {
				logger.Error("failed to reset environment", "error", err)
				os.Exit(1)
			}
			fx = fx[:0]
			trails = trails[:0]
		}
		rl.EndDrawing()
	}
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

// playerAction reads keyboard and mouse into drone 0's action.
func playerAction(snap game.Snapshot, scale float32) game.Action {
	var a game.Action
	if rl.IsKeyDown(rl.KeyW) {
		a.Move.Y -= 1
	}
	if rl.IsKeyDown(rl.KeyS) {
		a.Move.Y += 1
	}
	if rl.IsKeyDown(rl.KeyA) {
		a.Move.X -= 1
	}
	if rl.IsKeyDown(rl.KeyD) {
		a.Move.X += 1
	}

	if len(snap.Drones) > 0 {
		me := snap.Drones[0]
		mouse := rl.GetMousePosition()
		world := physics.V(float64(mouse.X/scale), float64((mouse.Y-hudHeight)/scale))
		a.Aim = world.Sub(me.Pos)
	}

	a.Shoot = rl.IsMouseButtonDown(rl.MouseLeftButton)
	a.Burst = rl.IsMouseButtonDown(rl.MouseRightButton)
	a.Brake = rl.IsKeyDown(rl.KeySpace)
	a.Discard = rl.IsKeyPressed(rl.KeyQ)
	return a
}

func toScreen(p physics.Vec2, scale float32) rl.Vector2 {
	return rl.Vector2{X: float32(p.X) * scale, Y: float32(p.Y)*scale + hudHeight}
}

func wallColor(t game.WallType, floating bool) rl.Color {
	var c rl.Color
	switch t {
	case game.BouncyWall:
		c = rl.NewColor(86, 154, 222, 255)
	case game.DeathWall:
		c = rl.NewColor(214, 73, 51, 255)
	default:
		c = rl.NewColor(110, 113, 122, 255)
	}
	if floating {
		c = rl.NewColor(c.R, c.G, c.B, 200)
	}
	return c
}

var teamColors = []rl.Color{
	rl.NewColor(91, 206, 250, 255),
	rl.NewColor(245, 169, 184, 255),
	rl.NewColor(152, 251, 152, 255),
	rl.NewColor(255, 215, 0, 255),
}

func drawArena(snap game.Snapshot, scale float32) {
	for _, w := range snap.Walls {
		size := rl.Vector2{X: float32(w.HalfExt.X*2) * scale, Y: float32(w.HalfExt.Y*2) * scale}
		center := toScreen(w.Pos, scale)
		rec := rl.Rectangle{
			X:      center.X,
			Y:      center.Y,
			Width:  size.X,
			Height: size.Y,
		}
		origin := rl.Vector2{X: size.X / 2, Y: size.Y / 2}
		rl.DrawRectanglePro(rec, origin, float32(w.Angle*180/math.Pi), wallColor(w.Type, w.Floating))
	}

	for _, p := range snap.Pickups {
		c := rl.NewColor(240, 200, 80, 255)
		if !p.Active {
			c = rl.NewColor(240, 200, 80, 70)
		}
		center := toScreen(p.Pos, scale)
		rl.DrawCircleLines(int32(center.X), int32(center.Y), 0.6*scale, c)
	}

	for _, p := range snap.Projectiles {
		c := rl.NewColor(250, 250, 250, 255)
		if p.IsMine {
			c = rl.NewColor(255, 120, 40, 255)
		}
		rl.DrawCircleV(toScreen(p.Pos, scale), float32(p.Radius)*scale, c)
	}

	for _, d := range snap.Drones {
		if d.Dead {
			continue
		}
		c := teamColors[d.Team%len(teamColors)]
		center := toScreen(d.Pos, scale)
		rl.DrawCircleV(center, 0.5*scale, c)
		tip := toScreen(physics.MulAdd(d.Pos, 0.9, d.Aim), scale)
		rl.DrawLineEx(center, tip, 2, rl.White)
		if d.Shielded {
			rl.DrawCircleLines(int32(center.X), int32(center.Y), 0.9*scale, rl.SkyBlue)
		}
	}
}

func drawTrails(trails []trailFX, scale float32, dt float32) []trailFX {
	kept := trails[:0]
	for _, tr := range trails {
		tr.ttl -= dt
		if tr.ttl <= 0 {
			continue
		}
		alpha := uint8(90 * tr.ttl / 0.5)
		c := rl.NewColor(200, 200, 210, alpha)
		if tr.p.Kind == game.KindDrone {
			c = rl.NewColor(120, 170, 230, alpha)
		}
		center := toScreen(tr.p.Pos, scale)
		rl.DrawCircleV(center, 0.1*scale, c)
		kept = append(kept, tr)
	}
	return kept
}

func drawExplosions(fx []explosionFX, scale float32, dt float32) []explosionFX {
	kept := fx[:0]
	for _, f := range fx {
		f.ttl -= dt
		if f.ttl <= 0 {
			continue
		}
		alpha := uint8(255 * f.ttl / 0.4)
		c := rl.NewColor(255, 160, 60, alpha)
		if f.rec.Implosion {
			c = rl.NewColor(150, 90, 255, alpha)
		}
		center := toScreen(f.rec.Pos, scale)
		rl.DrawCircleLines(int32(center.X), int32(center.Y), float32(f.rec.Radius)*scale, c)
		kept = append(kept, f)
	}
	return kept
}

func drawHUD(snap game.Snapshot, cfg *config.Config) {
	rl.DrawRectangle(0, 0, int32(cfg.Screen.Width), hudHeight, rl.NewColor(15, 16, 20, 255))
	if len(snap.Drones) == 0 {
		return
	}
	me := snap.Drones[0]

	energyFrac := float32(me.Energy / cfg.Drone.MaxEnergy)
	rl.DrawRectangle(220, 14, int32(160*energyFrac), 18, rl.NewColor(80, 220, 120, 255))
	rl.DrawRectangleLines(220, 14, 160, 18, rl.Gray)
	rl.DrawText("energy", 220, 36, 14, rl.Gray)

	ammo := "inf"
	if me.Ammo >= 0 {
		ammo = fmt.Sprintf("%d", me.Ammo)
	}
	rl.DrawText(fmt.Sprintf("%s [%s]", me.Weapon, ammo), 400, 14, 20, rl.White)
	rl.DrawText(fmt.Sprintf("heat %d", me.Heat), 400, 38, 14, rl.Gray)

	status := fmt.Sprintf("step %d  map %s", snap.Step, snap.MapName)
	if snap.SuddenDeath {
		status += "  SUDDEN DEATH"
	}
	if snap.RoundOver {
		if snap.Winner >= 0 {
			status += fmt.Sprintf("  winner: drone %d", snap.Winner)
		} else {
			status += "  draw"
		}
	}
	rl.DrawText(status, 600, 14, 18, rl.RayWhite)
}
