package game

import (
	"math"
	"math/rand"

	"github.com/PufferAI/impulse-wars/physics"
)

// Bot is a scripted baseline policy: grab a weapon, hunt the nearest
// visible enemy, burst when crowded. It exists so headless runs and the
// render client have opponents without a learned policy.
type Bot struct {
	Index int
	rng   *rand.Rand

	wanderDir   physics.Vec2
	wanderSteps int
}

func NewBot(index int, seed int64) *Bot {
	return &Bot{
		Index:     index,
		rng:       rand.New(rand.NewSource(seed)),
		wanderDir: physics.V(1, 0),
	}
}

// Act decides this step's action from the latest snapshot.
func (b *Bot) Act(e *Env, snap Snapshot) Action {
	if b.Index >= len(snap.Drones) {
		return Action{}
	}
	me := snap.Drones[b.Index]
	if me.Dead {
		return Action{}
	}

	var a Action

	// Find the closest living enemy.
	enemyIdx := -1
	enemyDist := 0.0
	for _, d := range snap.Drones {
		if d.Index == b.Index || d.Dead || d.Team == me.Team {
			continue
		}
		dist := d.Pos.Distance(me.Pos)
		if enemyIdx < 0 || dist < enemyDist {
			enemyIdx, enemyDist = d.Index, dist
		}
	}

	if enemyIdx >= 0 {
		enemy := snap.Drones[enemyIdx]
		a.Aim = enemy.Pos.Sub(me.Pos).Normalize()
		if e.Visible(b.Index, enemyIdx) {
			a.Shoot = true
			if enemyDist < 4 && me.Energy > e.cfg.Burst.BaseCost*2 {
				a.Burst = true
			}
		}
	}

	// With only the default weapon, head for the nearest live pickup.
	if me.Weapon == e.weapons.Info(e.weapons.Default()).Name {
		if target, ok := nearestActivePickup(snap, me.Pos); ok {
			a.Move = target.Sub(me.Pos).Normalize()
			return a
		}
	}

	if enemyIdx >= 0 {
		to := snap.Drones[enemyIdx].Pos.Sub(me.Pos)
		// Keep mid range: close in when far, strafe when near.
		if enemyDist > 8 {
			a.Move = to.Normalize()
		} else {
			a.Move = to.LeftPerp().Normalize()
		}
		return a
	}

	// Nobody visible: wander.
	b.wanderSteps--
	if b.wanderSteps <= 0 {
		b.wanderSteps = 20 + b.rng.Intn(20)
		angle := b.rng.Float64() * 2 * math.Pi
		b.wanderDir = physics.V(1, 0).Rotate(angle)
	}
	a.Move = b.wanderDir
	return a
}

func nearestActivePickup(snap Snapshot, from physics.Vec2) (physics.Vec2, bool) {
	best := physics.Vec2{}
	bestDist := 0.0
	found := false
	for _, p := range snap.Pickups {
		if !p.Active {
			continue
		}
		dist := p.Pos.Distance(from)
		if !found || dist < bestDist {
			best, bestDist, found = p.Pos, dist, true
		}
	}
	return best, found
}
