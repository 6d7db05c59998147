package game

import (
	"math/rand"
	"testing"
)

func TestBuiltinMaps_Parse(t *testing.T) {
	for _, m := range builtinMaps {
		p, err := m.parse()
		if err != nil {
			t.Errorf("map %q: %v", m.Name, err)
			continue
		}
		if p.cols < 4 || p.rows < 4 {
			t.Errorf("map %q too small: %dx%d", m.Name, p.cols, p.rows)
		}
		if len(p.spawns) < 2 {
			t.Errorf("map %q has %d spawns, want >= 2", m.Name, len(p.spawns))
		}
		if len(p.walls) == 0 {
			t.Errorf("map %q has no walls", m.Name)
		}
	}
}

// Every perimeter cell must be a non-floating wall so nothing drifts
// out of the arena.
func TestBuiltinMaps_SolidPerimeter(t *testing.T) {
	for _, m := range builtinMaps {
		p, err := m.parse()
		if err != nil {
			t.Fatalf("map %q: %v", m.Name, err)
		}
		perimeter := map[gridPos]bool{}
		for _, w := range p.walls {
			if !w.Floating {
				perimeter[gridPos{Col: w.Col, Row: w.Row}] = true
			}
		}
		for col := 0; col < p.cols; col++ {
			if !perimeter[gridPos{Col: col, Row: 0}] || !perimeter[gridPos{Col: col, Row: p.rows - 1}] {
				t.Errorf("map %q: open perimeter at column %d", m.Name, col)
			}
		}
		for row := 0; row < p.rows; row++ {
			if !perimeter[gridPos{Col: 0, Row: row}] || !perimeter[gridPos{Col: p.cols - 1, Row: row}] {
				t.Errorf("map %q: open perimeter at row %d", m.Name, row)
			}
		}
	}
}

func TestBuiltinMaps_SpawnsCoverQuadrants(t *testing.T) {
	for _, m := range builtinMaps {
		p, err := m.parse()
		if err != nil {
			t.Fatalf("map %q: %v", m.Name, err)
		}
		g := newGrid(p.cols, p.rows, 2.0)
		quadrants := map[int]bool{}
		for _, s := range p.spawns {
			quadrants[g.Quadrant(g.CellIndex(s.Col, s.Row))] = true
		}
		for q := 0; q < 4; q++ {
			if !quadrants[q] {
				t.Errorf("map %q: no spawn in quadrant %d", m.Name, q)
			}
		}
	}
}

func TestParse_RejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name string
		rows []string
	}{
		{"ragged rows", []string{"OOO", "OO"}},
		{"unknown tile", []string{"OOO", "OXO", "OOO"}},
		{"no spawns", []string{"OOO", "O.O", "OOO"}},
		{"empty", nil},
	}
	for _, tc := range tests {
		m := MapLayout{Name: tc.name, rows: tc.rows}
		if _, err := m.parse(); err == nil {
			t.Errorf("%s: expected parse error", tc.name)
		}
	}
}

func TestLayoutByName(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	m, err := layoutByName("prototype", rng)
	if err != nil || m.Name != "prototype" {
		t.Errorf("layoutByName(prototype) = %v, %v", m, err)
	}
	if _, err := layoutByName("no such map", rng); err == nil {
		t.Error("expected error for unknown map name")
	}
	// Empty name draws one of the built-ins.
	m, err = layoutByName("", rng)
	if err != nil || m == nil {
		t.Fatalf("layoutByName(\"\") = %v, %v", m, err)
	}
}

func TestMapNames(t *testing.T) {
	names := MapNames()
	if len(names) != len(builtinMaps) {
		t.Fatalf("MapNames has %d entries, want %d", len(names), len(builtinMaps))
	}
	for i, m := range builtinMaps {
		if names[i] != m.Name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], m.Name)
		}
	}
}
