package game

import (
	"testing"

	"github.com/PufferAI/impulse-wars/physics"
)

func TestBot_AimsAtVisibleEnemy(t *testing.T) {
	e := newTestEnv(t, 90)
	moveDrone(e, 0, physics.V(5, 13))
	moveDrone(e, 1, physics.V(15, 13))

	bot := NewBot(0, 1)
	a := bot.Act(e, e.Snapshot())

	if !a.Shoot {
		t.Error("bot did not shoot at a visible enemy")
	}
	if a.Aim.X <= 0 {
		t.Errorf("aim = %v, want toward +X", a.Aim)
	}
	if a.Burst {
		t.Error("bot burst at long range")
	}
}

func TestBot_BurstsWhenCrowded(t *testing.T) {
	e := newTestEnv(t, 91)
	moveDrone(e, 0, physics.V(5, 13))
	moveDrone(e, 1, physics.V(7, 13))

	bot := NewBot(0, 1)
	a := bot.Act(e, e.Snapshot())
	if !a.Burst {
		t.Error("bot did not burst with an enemy in its face")
	}
}

func TestBot_SeeksPickupOnDefaultWeapon(t *testing.T) {
	e := newTestEnv(t, 92)
	moveDrone(e, 0, physics.V(5, 13))
	e.killDrone(e.drones[1])

	bot := NewBot(0, 1)
	snap := e.Snapshot()
	a := bot.Act(e, snap)

	target, ok := nearestActivePickup(snap, physics.V(5, 13))
	if !ok {
		t.Fatal("no active pickups on a fresh arena")
	}
	want := target.Sub(physics.V(5, 13)).Normalize()
	if a.Move.Dot(want) < 0.99 {
		t.Errorf("move = %v, want toward pickup %v", a.Move, target)
	}
}

func TestBot_DeadBotIdles(t *testing.T) {
	e := newTestEnv(t, 93)
	e.killDrone(e.drones[0])

	bot := NewBot(0, 1)
	a := bot.Act(e, e.Snapshot())
	if a != (Action{}) {
		t.Errorf("dead bot acted: %+v", a)
	}
}

func TestBot_WandersWithNoTargets(t *testing.T) {
	e := newTestEnv(t, 94)
	e.killDrone(e.drones[1])
	// Arm the bot so it skips pickup seeking.
	e.setDroneWeapon(e.drones[0], e.cfg.Derived.WeaponIndex["machinegun"])

	bot := NewBot(0, 1)
	a := bot.Act(e, e.Snapshot())
	if a.Move.IsZero() {
		t.Error("bot with no targets did not wander")
	}
	if a.Shoot {
		t.Error("bot shot with no enemy")
	}
}
