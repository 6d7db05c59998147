// Package telemetry collects per-episode combat stats and writes them
// as CSV for offline analysis.
package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/PufferAI/impulse-wars/game"
)

// EpisodeRecord is one CSV row: a single drone's results for one
// episode.
type EpisodeRecord struct {
	Episode     int    `csv:"episode"`
	Map         string `csv:"map"`
	Steps       int    `csv:"steps"`
	SuddenDeath bool   `csv:"sudden_death"`
	Winner      int    `csv:"winner"`

	Drone            int     `csv:"drone"`
	Team             int     `csv:"team"`
	Kills            int     `csv:"kills"`
	Deaths           int     `csv:"deaths"`
	Shots            int     `csv:"shots"`
	Hits             int     `csv:"hits"`
	Accuracy         float64 `csv:"accuracy"`
	Bursts           int     `csv:"bursts"`
	PickupsCollected int     `csv:"pickups"`
	DistanceTraveled float64 `csv:"distance"`
	DamageDealt      float64 `csv:"damage_dealt"`
	DamageTaken      float64 `csv:"damage_taken"`
	EnergyEmptied    int     `csv:"energy_emptied"`
}

// EpisodeRecords flattens a final snapshot into one row per drone.
func EpisodeRecords(episode int, snap game.Snapshot) []EpisodeRecord {
	records := make([]EpisodeRecord, 0, len(snap.Drones))
	for _, d := range snap.Drones {
		accuracy := 0.0
		if d.Stats.Shots > 0 {
			accuracy = float64(d.Stats.Hits) / float64(d.Stats.Shots)
		}
		records = append(records, EpisodeRecord{
			Episode:          episode,
			Map:              snap.MapName,
			Steps:            snap.Step,
			SuddenDeath:      snap.SuddenDeath,
			Winner:           snap.Winner,
			Drone:            d.Index,
			Team:             d.Team,
			Kills:            d.Stats.Kills,
			Deaths:           d.Stats.Deaths,
			Shots:            d.Stats.Shots,
			Hits:             d.Stats.Hits,
			Accuracy:         accuracy,
			Bursts:           d.Stats.Bursts,
			PickupsCollected: d.Stats.PickupsCollected,
			DistanceTraveled: d.Stats.DistanceTraveled,
			DamageDealt:      d.Stats.OwnWeaponDamage,
			DamageTaken:      d.Stats.DamageTaken,
			EnergyEmptied:    d.Stats.EnergyEmptied,
		})
	}
	return records
}

// Summary aggregates across episodes.
type Summary struct {
	Episodes        int     `csv:"episodes"`
	MeanSteps       float64 `csv:"mean_steps"`
	StdSteps        float64 `csv:"std_steps"`
	MeanDamage      float64 `csv:"mean_damage"`
	StdDamage       float64 `csv:"std_damage"`
	MeanAccuracy    float64 `csv:"mean_accuracy"`
	SuddenDeathRate float64 `csv:"sudden_death_rate"`
	DrawRate        float64 `csv:"draw_rate"`
}

// Aggregator accumulates episode outcomes for a run summary.
type Aggregator struct {
	steps        []float64
	damage       []float64
	accuracy     []float64
	suddenDeaths int
	draws        int
}

// Add records one finished episode.
func (a *Aggregator) Add(snap game.Snapshot) {
	a.steps = append(a.steps, float64(snap.Step))
	for _, d := range snap.Drones {
		a.damage = append(a.damage, d.Stats.OwnWeaponDamage)
		if d.Stats.Shots > 0 {
			a.accuracy = append(a.accuracy, float64(d.Stats.Hits)/float64(d.Stats.Shots))
		}
	}
	if snap.SuddenDeath {
		a.suddenDeaths++
	}
	if snap.Winner < 0 {
		a.draws++
	}
}

// Summary computes the aggregate over everything added so far.
func (a *Aggregator) Summary() Summary {
	n := len(a.steps)
	s := Summary{Episodes: n}
	if n == 0 {
		return s
	}
	s.MeanSteps = stat.Mean(a.steps, nil)
	s.StdSteps = stat.StdDev(a.steps, nil)
	s.MeanDamage = stat.Mean(a.damage, nil)
	s.StdDamage = stat.StdDev(a.damage, nil)
	if len(a.accuracy) > 0 {
		s.MeanAccuracy = stat.Mean(a.accuracy, nil)
	}
	s.SuddenDeathRate = float64(a.suddenDeaths) / float64(n)
	s.DrawRate = float64(a.draws) / float64(n)
	return s
}
