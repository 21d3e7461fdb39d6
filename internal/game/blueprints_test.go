package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueprintCatalogComposition(t *testing.T) {
	catalog := NewBlueprintCatalog()
	require.Equal(t, 24, catalog.Len())

	counts := make(map[BlueprintCategory]int)
	seen := make(map[string]bool)
	for _, card := range catalog.All() {
		assert.False(t, seen[card.BlueprintID], "duplicate blueprint id %s", card.BlueprintID)
		seen[card.BlueprintID] = true
		assert.Positive(t, card.BonusPoints, "card %s", card.BlueprintID)
		counts[card.Category]++
	}
	assert.Equal(t, 6, counts[BlueprintPalaceProximity])
	assert.Equal(t, 6, counts[BlueprintCategoryCollection])
	assert.Equal(t, 6, counts[BlueprintPattern])
	assert.Equal(t, 6, counts[BlueprintSpecial])
}

func TestBlueprintCatalogGet(t *testing.T) {
	catalog := NewBlueprintCatalog()

	card, err := catalog.Get("palace_neighbor_1")
	require.NoError(t, err)
	assert.Equal(t, CondPalaceAdjacent, card.Condition.Kind)
	assert.Equal(t, 2, card.Condition.MinCount)
	assert.Equal(t, 4, card.BonusPoints)

	_, err = catalog.Get("palace_neighbor_99")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestBlueprintDeal(t *testing.T) {
	catalog := NewBlueprintCatalog()

	hands, err := catalog.Deal(rand.New(rand.NewSource(5)), 4, 3)
	require.NoError(t, err)
	require.Len(t, hands, 4)

	seen := make(map[string]bool)
	for _, hand := range hands {
		require.Len(t, hand, 3)
		for _, id := range hand {
			_, err := catalog.Get(id)
			require.NoError(t, err)
			assert.False(t, seen[id], "card %s dealt twice", id)
			seen[id] = true
		}
	}

	again, err := catalog.Deal(rand.New(rand.NewSource(5)), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, hands, again, "the same seed deals the same hands")

	_, err = catalog.Deal(rand.New(rand.NewSource(5)), 4, 7)
	require.Error(t, err, "28 cards cannot come out of a 24-card catalog")
	assert.Equal(t, KindInternal, KindOf(err))
}

// ownerBoard builds a board with the given tiles owned by userID 7.
func ownerBoard(tiles map[Position]string) Board {
	board := NewBoard()
	for pos, id := range tiles {
		board.At(pos).Tile = &PlacedTile{TileID: id, OwnerID: 7}
	}
	return board
}

func evaluate(t *testing.T, board Board, player *PlayerState, cardID string) int {
	t.Helper()
	card, err := NewBlueprintCatalog().Get(cardID)
	require.NoError(t, err)
	return EvaluateBlueprint(card, board, player)
}

func TestEvaluatePalaceAdjacent(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	board := ownerBoard(map[Position]string{
		{Row: 1, Col: 1}: "residential_1",
		{Row: 2, Col: 1}: "commercial_1",
	})
	board.At(Position{Row: 1, Col: 2}).Tile = &PlacedTile{TileID: "palace_1", OwnerID: 9}
	// Both owned tiles touch nothing yet; move next to the palace.
	board.At(Position{Row: 0, Col: 2}).Tile = &PlacedTile{TileID: "government_1", OwnerID: 7}

	// Owned neighbors of the palace at (1,2): (0,2) and (1,1).
	assert.Equal(t, 4, evaluate(t, board, player, "palace_neighbor_1"), "two adjacent tiles meet min 2")
	assert.Equal(t, 0, evaluate(t, board, player, "palace_neighbor_2"), "three adjacent tiles needed")

	// A third owned neighbor satisfies the bigger card.
	board.At(Position{Row: 2, Col: 2}).Tile = &PlacedTile{TileID: "religious_1", OwnerID: 7}
	assert.Equal(t, 6, evaluate(t, board, player, "palace_neighbor_2"))
}

func TestEvaluatePalaceSurround(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	board := NewBoard()
	board.At(Position{Row: 2, Col: 1}).Tile = &PlacedTile{TileID: "palace_1", OwnerID: 9}
	for _, pos := range []Position{{Row: 1, Col: 1}, {Row: 3, Col: 1}, {Row: 2, Col: 0}} {
		board.At(pos).Tile = &PlacedTile{TileID: "residential_1", OwnerID: 7}
	}
	assert.Equal(t, 0, evaluate(t, board, player, "palace_neighbor_3"), "three of four directions is not enough")

	board.At(Position{Row: 2, Col: 2}).Tile = &PlacedTile{TileID: "commercial_1", OwnerID: 7}
	assert.Equal(t, 10, evaluate(t, board, player, "palace_neighbor_3"))
}

func TestEvaluateCategoryCollection(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	board := ownerBoard(map[Position]string{
		{Row: 1, Col: 0}: "commercial_1",
		{Row: 1, Col: 1}: "commercial_2",
		{Row: 1, Col: 2}: "commercial_3",
	})
	assert.Equal(t, 0, evaluate(t, board, player, "collection_commercial"))

	board.At(Position{Row: 1, Col: 3}).Tile = &PlacedTile{TileID: "commercial_4", OwnerID: 7}
	assert.Equal(t, 6, evaluate(t, board, player, "collection_commercial"))

	// Another player's commercial tiles never count.
	other := ownerBoard(nil)
	for i, id := range []string{"commercial_1", "commercial_2", "commercial_3", "commercial_4"} {
		other.At(Position{Row: 1, Col: i}).Tile = &PlacedTile{TileID: id, OwnerID: 9}
	}
	assert.Equal(t, 0, evaluate(t, other, player, "collection_commercial"))
}

func TestEvaluateDiverseCategories(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	board := ownerBoard(map[Position]string{
		{Row: 1, Col: 0}: "commercial_1",
		{Row: 1, Col: 1}: "residential_1",
		{Row: 1, Col: 2}: "government_1",
		{Row: 1, Col: 3}: "religious_1",
	})
	assert.Equal(t, 0, evaluate(t, board, player, "collection_diverse"))

	board.At(Position{Row: 2, Col: 0}).Tile = &PlacedTile{TileID: "gate_1", OwnerID: 7}
	assert.Equal(t, 7, evaluate(t, board, player, "collection_diverse"))
}

func TestEvaluatePatternRowAndColumn(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	row := ownerBoard(map[Position]string{
		{Row: 3, Col: 0}: "residential_1",
		{Row: 3, Col: 1}: "residential_2",
		{Row: 3, Col: 3}: "residential_3",
		{Row: 3, Col: 4}: "residential_4",
	})
	assert.Equal(t, 5, evaluate(t, row, player, "pattern_row"), "four in a row need not be consecutive")
	assert.Equal(t, 0, evaluate(t, row, player, "pattern_column"))

	column := ownerBoard(map[Position]string{
		{Row: 0, Col: 2}: "residential_1",
		{Row: 1, Col: 2}: "residential_2",
		{Row: 2, Col: 2}: "residential_3",
		{Row: 3, Col: 2}: "residential_4",
	})
	assert.Equal(t, 5, evaluate(t, column, player, "pattern_column"))
}

func TestEvaluatePatternDiagonal(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	board := ownerBoard(map[Position]string{
		{Row: 1, Col: 1}: "residential_1",
		{Row: 2, Col: 2}: "residential_2",
		{Row: 3, Col: 3}: "residential_3",
	})
	assert.Equal(t, 4, evaluate(t, board, player, "pattern_diagonal"))

	broken := ownerBoard(map[Position]string{
		{Row: 1, Col: 1}: "residential_1",
		{Row: 3, Col: 3}: "residential_2",
		{Row: 4, Col: 3}: "residential_3",
	})
	assert.Equal(t, 0, evaluate(t, broken, player, "pattern_diagonal"), "the run must be consecutive")

	antidiagonal := ownerBoard(map[Position]string{
		{Row: 1, Col: 3}: "residential_1",
		{Row: 2, Col: 2}: "residential_2",
		{Row: 3, Col: 1}: "residential_3",
	})
	assert.Equal(t, 4, evaluate(t, antidiagonal, player, "pattern_diagonal"))
}

func TestEvaluatePatternCluster(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)

	board := ownerBoard(map[Position]string{
		{Row: 1, Col: 1}: "residential_1",
		{Row: 1, Col: 2}: "residential_2",
		{Row: 2, Col: 1}: "residential_3",
	})
	assert.Equal(t, 0, evaluate(t, board, player, "pattern_cluster"))

	board.At(Position{Row: 2, Col: 2}).Tile = &PlacedTile{TileID: "residential_4", OwnerID: 7}
	assert.Equal(t, 6, evaluate(t, board, player, "pattern_cluster"))
}

func TestEvaluateSpecialCards(t *testing.T) {
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)
	board := NewBoard()

	t.Run("resource efficiency", func(t *testing.T) {
		player := NewPlayer(1, 7, "jihun", "blue", 0, true)
		player.Resources = Resources{Wood: 2, Stone: 1}
		assert.Equal(t, 4, evaluate(t, board, player, "special_efficiency"))

		player.Resources = Resources{Wood: 2, Stone: 2}
		assert.Equal(t, 0, evaluate(t, board, player, "special_efficiency"))
	})

	t.Run("all workers placed", func(t *testing.T) {
		player := NewPlayer(1, 7, "jihun", "blue", 0, true)
		assert.Equal(t, 0, evaluate(t, board, player, "special_workers"))

		for i := 0; i < 3; i++ {
			player.Workers, _ = player.Workers.Place(WorkerApprentice)
		}
		for i := 0; i < 2; i++ {
			player.Workers, _ = player.Workers.Place(WorkerOfficial)
		}
		assert.Equal(t, 5, evaluate(t, board, player, "special_workers"))
	})

	t.Run("fengshui count", func(t *testing.T) {
		board := NewBoard()
		for i, pos := range []Position{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}} {
			board.At(pos).Tile = &PlacedTile{
				TileID:         []string{"residential_1", "residential_2", "residential_3"}[i],
				OwnerID:        7,
				FengshuiActive: true,
			}
		}
		assert.Equal(t, 6, evaluate(t, board, player, "special_fengshui"))

		board.At(Position{Row: 1, Col: 2}).Tile.FengshuiActive = false
		assert.Equal(t, 0, evaluate(t, board, player, "special_fengshui"))
	})

	t.Run("all connected", func(t *testing.T) {
		connected := ownerBoard(map[Position]string{
			{Row: 1, Col: 1}: "residential_1",
			{Row: 1, Col: 2}: "residential_2",
			{Row: 2, Col: 1}: "residential_3",
		})
		assert.Equal(t, 8, evaluate(t, connected, player, "special_adjacent"))

		split := ownerBoard(map[Position]string{
			{Row: 1, Col: 1}: "residential_1",
			{Row: 3, Col: 3}: "residential_2",
		})
		assert.Equal(t, 0, evaluate(t, split, player, "special_adjacent"))
	})

	t.Run("balanced categories", func(t *testing.T) {
		board := ownerBoard(map[Position]string{
			{Row: 1, Col: 0}: "government_1",
			{Row: 1, Col: 1}: "government_2",
			{Row: 1, Col: 2}: "commercial_1",
			{Row: 1, Col: 3}: "commercial_2",
			{Row: 2, Col: 0}: "residential_1",
			{Row: 2, Col: 1}: "residential_2",
		})
		assert.Equal(t, 6, evaluate(t, board, player, "special_balance"))

		board.At(Position{Row: 2, Col: 1}).Tile = nil
		assert.Equal(t, 0, evaluate(t, board, player, "special_balance"))
	})
}

func TestBlueprintScoreBreakdown(t *testing.T) {
	catalog := NewBlueprintCatalog()
	player := NewPlayer(1, 7, "jihun", "blue", 0, true)
	player.SelectedBlueprints = []string{"collection_commercial", "special_efficiency"}
	player.Resources = Resources{Wood: 1}

	board := ownerBoard(map[Position]string{
		{Row: 1, Col: 0}: "commercial_1",
	})

	total, breakdown := catalog.Score(board, player)
	assert.Equal(t, 4, total, "only the efficiency card pays")
	assert.Equal(t, 0, breakdown["collection_commercial"])
	assert.Equal(t, 4, breakdown["special_efficiency"])
}
