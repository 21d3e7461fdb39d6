package game

// PlacementScore is the point breakdown for placing one tile.
type PlacementScore struct {
	Base      int `json:"base"`
	Fengshui  int `json:"fengshui"`
	Adjacency int `json:"adjacency"`
	Total     int `json:"total"`
}

// ValidatePlacement checks that a tile may be built at pos: in bounds,
// not on a mountain, cell empty.
func ValidatePlacement(board Board, pos Position) error {
	if !board.InBounds(pos) {
		return Errorf(KindPreconditionFailed, "position out of bounds")
	}
	cell := board.At(pos)
	if cell.Terrain == TerrainMountain {
		return Errorf(KindPreconditionFailed, "cannot build on mountain")
	}
	if cell.Tile != nil {
		return Errorf(KindPreconditionFailed, "cell already has a tile")
	}
	return nil
}

// ScorePlacement computes the points earned by placing def at pos and
// reports whether the full fengshui condition holds, which activates
// the tile's fengshui flag.
func ScorePlacement(board Board, pos Position, def TileDefinition) (PlacementScore, bool) {
	fengshui, active := fengshuiBonus(board, pos, def.FengshuiBonus)
	score := PlacementScore{
		Base:      def.BasePoints,
		Fengshui:  fengshui,
		Adjacency: adjacencyBonus(board, pos, def.AdjacencyBonus),
	}
	score.Total = score.Base + score.Fengshui + score.Adjacency
	return score, active
}

// fengshuiBonus applies the baesan-imsu rule: a mountain directly north
// plus water directly south, or water anywhere in the surrounding 3x3,
// earns the full bonus. Just one of mountain-north or nearby-water
// earns half and does not activate the flag.
func fengshuiBonus(board Board, pos Position, bonus int) (int, bool) {
	mountainNorth := false
	if north := (Position{Row: pos.Row - 1, Col: pos.Col}); board.InBounds(north) {
		mountainNorth = board.At(north).Terrain == TerrainMountain
	}

	waterSouth := false
	if south := (Position{Row: pos.Row + 1, Col: pos.Col}); board.InBounds(south) {
		waterSouth = board.At(south).Terrain == TerrainWater
	}

	nearWater := false
	for dr := -1; dr <= 1 && !nearWater; dr++ {
		for dc := -1; dc <= 1; dc++ {
			n := Position{Row: pos.Row + dr, Col: pos.Col + dc}
			if board.InBounds(n) && board.At(n).Terrain == TerrainWater {
				nearWater = true
				break
			}
		}
	}

	switch {
	case mountainNorth && (waterSouth || nearWater):
		return bonus, true
	case mountainNorth || nearWater:
		return bonus / 2, false
	}
	return 0, false
}

// adjacencyBonus sums the per-neighbor bonus for every orthogonally
// adjacent placed tile whose category appears in the bonus map.
func adjacencyBonus(board Board, pos Position, bonuses map[TileCategory]int) int {
	if len(bonuses) == 0 {
		return 0
	}
	total := 0
	for _, n := range board.Neighbors(pos) {
		tile := board.At(n).Tile
		if tile == nil {
			continue
		}
		if b, ok := bonuses[categoryOfTile(tile.TileID)]; ok {
			total += b
		}
	}
	return total
}
