package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlacement(t *testing.T) {
	board := NewBoard()
	board.At(Position{Row: 2, Col: 3}).Tile = &PlacedTile{TileID: "commercial_1", OwnerID: 1}

	cases := []struct {
		name string
		pos  Position
		ok   bool
	}{
		{"open cell", Position{Row: 1, Col: 1}, true},
		{"out of bounds", Position{Row: 5, Col: 0}, false},
		{"negative row", Position{Row: -1, Col: 2}, false},
		{"mountain corner", Position{Row: 0, Col: 0}, false},
		{"occupied cell", Position{Row: 2, Col: 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePlacement(board, tc.pos)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, KindPreconditionFailed, KindOf(err))
		})
	}

	// Water is buildable terrain; only mountains block construction.
	assert.NoError(t, ValidatePlacement(board, Position{Row: 2, Col: 2}))
}

func mustTile(t *testing.T, id string) TileDefinition {
	t.Helper()
	def, err := NewTileCatalog().Get(id)
	require.NoError(t, err)
	return def
}

func TestFengshuiFullBonus(t *testing.T) {
	// Mountain directly north and water directly south: the classic
	// baesan-imsu site earns the full bonus and activates the flag.
	board := NewBoard()
	board.At(Position{Row: 2, Col: 0}).Terrain = TerrainWater

	def := mustTile(t, "palace_1") // fengshui bonus 4
	score, active := ScorePlacement(board, Position{Row: 1, Col: 0}, def)

	assert.Equal(t, 4, score.Fengshui)
	assert.True(t, active)
	assert.Equal(t, def.BasePoints+4, score.Total)
}

func TestFengshuiHalfBonusMountainOnly(t *testing.T) {
	board := NewBoard()

	def := mustTile(t, "palace_1")
	score, active := ScorePlacement(board, Position{Row: 1, Col: 0}, def)

	assert.Equal(t, 2, score.Fengshui, "mountain north without water earns half")
	assert.False(t, active)
}

func TestFengshuiHalfBonusNearWater(t *testing.T) {
	board := NewBoard()
	def := mustTile(t, "palace_1")

	// Orthogonally next to the center water.
	score, active := ScorePlacement(board, Position{Row: 1, Col: 2}, def)
	assert.Equal(t, 2, score.Fengshui)
	assert.False(t, active)

	// Diagonal water still counts as near.
	score, active = ScorePlacement(board, Position{Row: 1, Col: 1}, def)
	assert.Equal(t, 2, score.Fengshui)
	assert.False(t, active)
}

func TestFengshuiNoBonus(t *testing.T) {
	board := NewBoard()
	def := mustTile(t, "palace_1")

	score, active := ScorePlacement(board, Position{Row: 3, Col: 0}, def)
	assert.Equal(t, 0, score.Fengshui)
	assert.False(t, active)
}

func TestAdjacencyBonus(t *testing.T) {
	board := NewBoard()
	board.At(Position{Row: 2, Col: 4}).Tile = &PlacedTile{TileID: "palace_1", OwnerID: 1}

	// government_1 earns +2 per adjacent palace; (3,4) is out of
	// fengshui range so the breakdown isolates adjacency.
	def := mustTile(t, "government_1")
	score, _ := ScorePlacement(board, Position{Row: 3, Col: 4}, def)

	assert.Equal(t, 4, score.Base)
	assert.Equal(t, 0, score.Fengshui)
	assert.Equal(t, 2, score.Adjacency)
	assert.Equal(t, 6, score.Total)
}

func TestAdjacencyBonusSumsNeighbors(t *testing.T) {
	board := NewBoard()
	board.At(Position{Row: 2, Col: 4}).Tile = &PlacedTile{TileID: "palace_1", OwnerID: 1}
	board.At(Position{Row: 3, Col: 3}).Tile = &PlacedTile{TileID: "palace_2", OwnerID: 2}

	def := mustTile(t, "government_1")
	score, _ := ScorePlacement(board, Position{Row: 3, Col: 4}, def)

	assert.Equal(t, 4, score.Adjacency, "each adjacent palace pays regardless of owner")
}

func TestAdjacencyIgnoresUnlistedCategories(t *testing.T) {
	board := NewBoard()
	board.At(Position{Row: 3, Col: 3}).Tile = &PlacedTile{TileID: "religious_1", OwnerID: 1}

	def := mustTile(t, "government_1") // bonus map only lists palaces
	score, _ := ScorePlacement(board, Position{Row: 3, Col: 4}, def)

	assert.Equal(t, 0, score.Adjacency)
}

func TestScorePlacementCombined(t *testing.T) {
	board := NewBoard()
	board.At(Position{Row: 2, Col: 0}).Terrain = TerrainWater
	board.At(Position{Row: 1, Col: 1}).Tile = &PlacedTile{TileID: "government_1", OwnerID: 2}

	def := mustTile(t, "palace_1")
	score, active := ScorePlacement(board, Position{Row: 1, Col: 0}, def)

	assert.Equal(t, 8, score.Base)
	assert.Equal(t, 4, score.Fengshui)
	assert.Equal(t, 2, score.Adjacency)
	assert.Equal(t, 14, score.Total)
	assert.True(t, active)
}
