package game

// BoardSize is the fixed edge length of the building grid.
const BoardSize = 5

// Terrain marks what a cell is made of. Assigned at board creation and
// never changes.
type Terrain string

const (
	TerrainNormal   Terrain = "normal"
	TerrainMountain Terrain = "mountain"
	TerrainWater    Terrain = "water"
)

// Position addresses one cell of the board.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PlacedWorker records one worker standing on a tile slot. The owner is
// the same canonical id that appears in turn_order.
type PlacedWorker struct {
	PlayerUserID int64      `json:"player_user_id"`
	Kind         WorkerKind `json:"worker_kind"`
	SlotIndex    int        `json:"slot_index"`
}

// PlacedTile is a tile realized on the board, as opposed to a catalog
// definition or a pool entry.
type PlacedTile struct {
	TileID         string         `json:"tile_id"`
	OwnerID        int64          `json:"owner_id"`
	PlacedWorkers  []PlacedWorker `json:"placed_workers"`
	FengshuiActive bool           `json:"fengshui_active"`
}

// Cell is one square of the grid.
type Cell struct {
	Position Position    `json:"position"`
	Terrain  Terrain     `json:"terrain"`
	Tile     *PlacedTile `json:"tile"`
}

// Board is the shared building grid, serialized as rows of cells.
type Board [][]Cell

// terrainFor assigns the fixed layout: mountains in the four corners,
// water in the center.
func terrainFor(row, col int) Terrain {
	if (row == 0 || row == BoardSize-1) && (col == 0 || col == BoardSize-1) {
		return TerrainMountain
	}
	if row == BoardSize/2 && col == BoardSize/2 {
		return TerrainWater
	}
	return TerrainNormal
}

// NewBoard creates an empty board with the fixed terrain layout.
func NewBoard() Board {
	board := make(Board, BoardSize)
	for row := 0; row < BoardSize; row++ {
		board[row] = make([]Cell, BoardSize)
		for col := 0; col < BoardSize; col++ {
			board[row][col] = Cell{
				Position: Position{Row: row, Col: col},
				Terrain:  terrainFor(row, col),
			}
		}
	}
	return board
}

// InBounds reports whether the position addresses a cell.
func (b Board) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < len(b) && pos.Col >= 0 && pos.Col < len(b[pos.Row])
}

// At returns the addressed cell, or nil when out of bounds.
func (b Board) At(pos Position) *Cell {
	if !b.InBounds(pos) {
		return nil
	}
	return &b[pos.Row][pos.Col]
}

// Neighbors returns the in-bounds orthogonal neighbors of a position.
func (b Board) Neighbors(pos Position) []Position {
	var neighbors []Position
	for _, d := range [4]Position{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}} {
		next := Position{Row: pos.Row + d.Row, Col: pos.Col + d.Col}
		if b.InBounds(next) {
			neighbors = append(neighbors, next)
		}
	}
	return neighbors
}

// OwnedTile pairs a placed tile with its board position.
type OwnedTile struct {
	Position Position
	Tile     *PlacedTile
}

// OwnedBy returns the player's placed tiles in row-major order.
func (b Board) OwnedBy(ownerID int64) []OwnedTile {
	var owned []OwnedTile
	for row := range b {
		for col := range b[row] {
			cell := &b[row][col]
			if cell.Tile != nil && cell.Tile.OwnerID == ownerID {
				owned = append(owned, OwnedTile{Position: cell.Position, Tile: cell.Tile})
			}
		}
	}
	return owned
}

// PlacedWorkersOf counts the workers ownerID has on the board. At game
// end each of them is worth one point.
func (b Board) PlacedWorkersOf(ownerID int64) int {
	count := 0
	for row := range b {
		for col := range b[row] {
			tile := b[row][col].Tile
			if tile == nil {
				continue
			}
			for _, w := range tile.PlacedWorkers {
				if w.PlayerUserID == ownerID {
					count++
				}
			}
		}
	}
	return count
}

// PlacedTileCount counts all tiles on the board.
func (b Board) PlacedTileCount() int {
	count := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col].Tile != nil {
				count++
			}
		}
	}
	return count
}

// Clone deep-copies the board so snapshots stay immutable.
func (b Board) Clone() Board {
	clone := make(Board, len(b))
	for row := range b {
		clone[row] = make([]Cell, len(b[row]))
		copy(clone[row], b[row])
		for col := range b[row] {
			if tile := b[row][col].Tile; tile != nil {
				copied := *tile
				copied.PlacedWorkers = append([]PlacedWorker(nil), tile.PlacedWorkers...)
				clone[row][col].Tile = &copied
			}
		}
	}
	return clone
}

// Validate checks the structural invariants: dimensions, position and
// terrain agreement, and no tile on a mountain.
func (b Board) Validate() error {
	if len(b) != BoardSize {
		return Errorf(KindInternal, "board has %d rows, want %d", len(b), BoardSize)
	}
	for row := range b {
		if len(b[row]) != BoardSize {
			return Errorf(KindInternal, "board row %d has %d cells, want %d", row, len(b[row]), BoardSize)
		}
		for col := range b[row] {
			cell := b[row][col]
			if cell.Position.Row != row || cell.Position.Col != col {
				return Errorf(KindInternal, "cell (%d,%d) carries position (%d,%d)",
					row, col, cell.Position.Row, cell.Position.Col)
			}
			if cell.Terrain != terrainFor(row, col) {
				return Errorf(KindInternal, "cell (%d,%d) has terrain %s, want %s",
					row, col, cell.Terrain, terrainFor(row, col))
			}
			if cell.Terrain == TerrainMountain && cell.Tile != nil {
				return Errorf(KindInternal, "mountain cell (%d,%d) holds a tile", row, col)
			}
		}
	}
	return nil
}
