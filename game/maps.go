package game

import (
	"fmt"
	"math/rand"
)

// Built-in arena layouts. Legend:
//
//	O  standard wall      o  floating standard wall
//	B  bouncy wall        b  floating bouncy wall
//	D  death wall         d  floating death wall
//	S  drone spawn cell
//	.  empty
//
// Row 0 is the top of the map; rows must all be the same width and the
// perimeter must be solid wall so nothing escapes the arena at rest.
type MapLayout struct {
	Name string
	rows []string
}

var builtinMaps = []MapLayout{
	{
		Name: "prototype",
		rows: []string{
			"OOOOOOOOOOOOOOOOOOOO",
			"O..................O",
			"O.S.............S..O",
			"O.....O....O.......O",
			"O.....O....O...o...O",
			"O.....O....O.......O",
			"O..................O",
			"O...o.....b........O",
			"O..................O",
			"O......BBBBBB......O",
			"O......BBBBBB......O",
			"O..................O",
			"O........o.....o...O",
			"O..................O",
			"O.....O....O.......O",
			"O.....O....O.......O",
			"O.....O....O.......O",
			"O..S............S..O",
			"O..................O",
			"OOOOOOOOOOOOOOOOOOOO",
		},
	},
	{
		Name: "foundry",
		rows: []string{
			"OOOOOOOOOOOOOOOOOOOO",
			"ODDDD..........DDDDO",
			"OD................DO",
			"OD.S............S.DO",
			"O..................O",
			"O....BB......BB....O",
			"O....BB......BB....O",
			"O..................O",
			"O........oo........O",
			"O....d........d....O",
			"O........oo........O",
			"O..................O",
			"O....BB......BB....O",
			"O....BB......BB....O",
			"O..................O",
			"OD.S............S.DO",
			"OD................DO",
			"ODDDD..........DDDDO",
			"OOOOOOOOOOOOOOOOOOOO",
		},
	},
	{
		Name: "crossfire",
		rows: []string{
			"OOOOOOOOOOOOOOOOOOOO",
			"O..................O",
			"O.S.......b.....S..O",
			"O..................O",
			"O........OOO.......O",
			"O........OOO.......O",
			"O...o.....B........O",
			"O.........B........O",
			"O...OOBB.DDD.BBOO..O",
			"O.........B........O",
			"O.........B.....o..O",
			"O........OOO.......O",
			"O........OOO.......O",
			"O..................O",
			"O.S.......b.....S..O",
			"O..................O",
			"OOOOOOOOOOOOOOOOOOOO",
		},
	},
}

// mapTile is a single wall cell from a layout.
type mapTile struct {
	Col, Row int
	Type     WallType
	Floating bool
}

// parsedMap is a layout resolved into tiles and spawn cells.
type parsedMap struct {
	name       string
	cols, rows int
	walls      []mapTile
	spawns     []gridPos
}

type gridPos struct {
	Col, Row int
}

// MapNames lists the built-in layouts.
func MapNames() []string {
	names := make([]string, len(builtinMaps))
	for i, m := range builtinMaps {
		names[i] = m.Name
	}
	return names
}

func layoutByName(name string, rng *rand.Rand) (*MapLayout, error) {
	if name == "" {
		return &builtinMaps[rng.Intn(len(builtinMaps))], nil
	}
	for i := range builtinMaps {
		if builtinMaps[i].Name == name {
			return &builtinMaps[i], nil
		}
	}
	return nil, fmt.Errorf("unknown map %q", name)
}

func (m *MapLayout) parse() (*parsedMap, error) {
	if len(m.rows) == 0 {
		return nil, fmt.Errorf("map %q is empty", m.Name)
	}
	p := &parsedMap{
		name: m.Name,
		cols: len(m.rows[0]),
		rows: len(m.rows),
	}
	for row, line := range m.rows {
		if len(line) != p.cols {
			return nil, fmt.Errorf("map %q row %d is %d cells wide, want %d", m.Name, row, len(line), p.cols)
		}
		for col, ch := range line {
			switch ch {
			case '.':
			case 'S':
				p.spawns = append(p.spawns, gridPos{Col: col, Row: row})
			case 'O':
				p.walls = append(p.walls, mapTile{Col: col, Row: row, Type: StandardWall})
			case 'B':
				p.walls = append(p.walls, mapTile{Col: col, Row: row, Type: BouncyWall})
			case 'D':
				p.walls = append(p.walls, mapTile{Col: col, Row: row, Type: DeathWall})
			case 'o':
				p.walls = append(p.walls, mapTile{Col: col, Row: row, Type: StandardWall, Floating: true})
			case 'b':
				p.walls = append(p.walls, mapTile{Col: col, Row: row, Type: BouncyWall, Floating: true})
			case 'd':
				p.walls = append(p.walls, mapTile{Col: col, Row: row, Type: DeathWall, Floating: true})
			default:
				return nil, fmt.Errorf("map %q row %d col %d: unknown tile %q", m.Name, row, col, string(ch))
			}
		}
	}
	if len(p.spawns) == 0 {
		return nil, fmt.Errorf("map %q has no spawn cells", m.Name)
	}
	return p, nil
}
