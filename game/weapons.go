package game

import (
	"math/rand"

	"github.com/PufferAI/impulse-wars/config"
)

// WeaponRegistry is the immutable weapon table for one environment.
// It is built once from config; per-shot state (ammo, cooldown, heat)
// lives on the drone, never here.
type WeaponRegistry struct {
	weapons       []config.WeaponConfig
	defaultWeapon int
}

func newWeaponRegistry(cfg *config.Config) *WeaponRegistry {
	weapons := make([]config.WeaponConfig, len(cfg.Weapons))
	copy(weapons, cfg.Weapons)
	return &WeaponRegistry{
		weapons:       weapons,
		defaultWeapon: cfg.Derived.DefaultWeapon,
	}
}

// Info returns the weapon description for an index. The pointer aliases
// registry memory; callers must not write through it.
func (r *WeaponRegistry) Info(weapon int) *config.WeaponConfig {
	return &r.weapons[weapon]
}

// Default returns the index of the infinite-ammo fallback weapon.
func (r *WeaponRegistry) Default() int {
	return r.defaultWeapon
}

// Len returns the number of weapon types.
func (r *WeaponRegistry) Len() int {
	return len(r.weapons)
}

// PickRandom selects a weapon for a pickup. Selection is weighted by
// spawn weight and discounted by how many pickups of that type already
// spawned this round, so the arena trends toward variety. The default
// weapon has zero weight and is never offered.
func (r *WeaponRegistry) PickRandom(rng *rand.Rand, spawned []int) int {
	total := 0.0
	for i := range r.weapons {
		total += r.effectiveWeight(i, spawned)
	}
	if total <= 0 {
		return r.defaultWeapon
	}
	roll := rng.Float64() * total
	for i := range r.weapons {
		roll -= r.effectiveWeight(i, spawned)
		if roll < 0 {
			return i
		}
	}
	// Float accumulation can leave roll barely positive; take the last
	// weighted weapon.
	for i := len(r.weapons) - 1; i >= 0; i-- {
		if r.weapons[i].SpawnWeight > 0 {
			return i
		}
	}
	return r.defaultWeapon
}

func (r *WeaponRegistry) effectiveWeight(weapon int, spawned []int) float64 {
	w := r.weapons[weapon].SpawnWeight
	if w <= 0 {
		return 0
	}
	return w / float64((spawned[weapon]+1)*2)
}
