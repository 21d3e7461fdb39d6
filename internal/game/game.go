package game

import (
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Game length and seat bounds.
const (
	DefaultTotalRounds = 4
	MinPlayers         = 2
	MaxPlayers         = 4

	blueprintsPerPlayer = 3
)

// ActionKind identifies a player move.
type ActionKind string

const (
	ActionSelectBlueprint ActionKind = "select_blueprint"
	ActionPlaceTile       ActionKind = "place_tile"
	ActionPlaceWorker     ActionKind = "place_worker"
	ActionEndTurn         ActionKind = "end_turn"
)

// Action is one submitted move before validation.
type Action struct {
	Kind    ActionKind      `json:"action_kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewAction builds an action from a typed payload.
func NewAction(kind ActionKind, payload interface{}) (Action, error) {
	if payload == nil {
		return Action{Kind: kind}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, Errorf(KindInternal, "encode %s payload: %v", kind, err)
	}
	return Action{Kind: kind, Payload: raw}, nil
}

// Payload shapes, one per action kind.
type SelectBlueprintPayload struct {
	BlueprintID string `json:"blueprint_id"`
}

type PlaceTilePayload struct {
	TileID   string   `json:"tile_id"`
	Position Position `json:"position"`
}

type PlaceWorkerPayload struct {
	WorkerKind     string   `json:"worker_kind"`
	TargetPosition Position `json:"target_position"`
	SlotIndex      int      `json:"slot_index"`
}

// Result shapes, one per action kind.
type SelectBlueprintResult struct {
	SelectedBlueprint   string   `json:"selected_blueprint"`
	RemainingBlueprints []string `json:"remaining_blueprints"`
}

type PlaceTileResult struct {
	TileID         string         `json:"tile_id"`
	Position       Position       `json:"position"`
	ScoreBreakdown PlacementScore `json:"score_breakdown"`
	NewScore       int            `json:"new_score"`
}

type PlaceWorkerResult struct {
	WorkerKind WorkerKind `json:"worker_kind"`
	Position   Position   `json:"position"`
	SlotIndex  int        `json:"slot_index"`
}

type EndTurnResult struct {
	NextPlayerID int64  `json:"next_player_id"`
	CurrentRound int    `json:"current_round"`
	GameStatus   Status `json:"game_status"`
}

// ActionRecord is one append-only log entry. The ID is assigned by the
// store on append.
type ActionRecord struct {
	ID          int64           `json:"id"`
	GameID      string          `json:"game_id"`
	ActorUserID int64           `json:"actor_user_id"`
	Kind        ActionKind      `json:"action_kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ActionTemplate is one fully-specified legal move, ready to submit.
type ActionTemplate struct {
	Kind    ActionKind  `json:"action_kind"`
	Payload interface{} `json:"payload,omitempty"`
}

// Rules bundles the immutable catalogs consulted by every action. Built
// once at startup; tests may install custom catalogs.
type Rules struct {
	Tiles      *TileCatalog
	Blueprints *BlueprintCatalog
}

// DefaultRules loads the standard tile and blueprint catalogs.
func DefaultRules() *Rules {
	return &Rules{
		Tiles:      NewTileCatalog(),
		Blueprints: NewBlueprintCatalog(),
	}
}

// Seat describes one participant before a game is built.
type Seat struct {
	UserID       int64
	Username     string
	Color        string
	IsHost       bool
	IsAI         bool
	AIDifficulty AIDifficulty
}

// Game is the aggregate root. All mutation goes through Apply under the
// engine's per-game lock; the struct itself carries no synchronization.
type Game struct {
	ID                string         `json:"id"`
	RoomID            string         `json:"room_id,omitempty"`
	Status            Status         `json:"status"`
	CurrentRound      int            `json:"current_round"`
	TotalRounds       int            `json:"total_rounds"`
	CurrentTurnUserID int64          `json:"current_turn_user_id"`
	TurnOrder         []int64        `json:"turn_order"`
	Board             Board          `json:"board"`
	Players           []*PlayerState `json:"players"`
	AvailableTiles    []string       `json:"available_tiles"`
	DiscardedTiles    []string       `json:"discarded_tiles"`
	LastAction        *ActionRecord  `json:"last_action,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewGame builds a fresh in-progress game: initial board, shuffled tile
// pool, three dealt blueprints per seat, first seat to move.
func NewGame(rules *Rules, rng *rand.Rand, roomID string, seats []Seat) (*Game, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return nil, Errorf(KindPreconditionFailed, "need %d-%d players, got %d", MinPlayers, MaxPlayers, len(seats))
	}

	seen := make(map[int64]bool, len(seats))
	colors := make(map[string]bool, len(seats))
	for _, seat := range seats {
		if seat.UserID == 0 {
			return nil, Errorf(KindPreconditionFailed, "seat %q has no user id", seat.Username)
		}
		if seen[seat.UserID] {
			return nil, Errorf(KindPreconditionFailed, "duplicate user id %d", seat.UserID)
		}
		if colors[seat.Color] {
			return nil, Errorf(KindPreconditionFailed, "duplicate color %q", seat.Color)
		}
		seen[seat.UserID] = true
		colors[seat.Color] = true
	}

	hands, err := rules.Blueprints.Deal(rng, len(seats), blueprintsPerPlayer)
	if err != nil {
		return nil, err
	}

	players := make([]*PlayerState, 0, len(seats))
	turnOrder := make([]int64, 0, len(seats))
	for i, seat := range seats {
		var p *PlayerState
		if seat.IsAI {
			p = NewAIPlayer(int64(i+1), seat.UserID, seat.Username, seat.Color, i, seat.AIDifficulty)
		} else {
			p = NewPlayer(int64(i+1), seat.UserID, seat.Username, seat.Color, i, seat.IsHost)
		}
		p.DealtBlueprints = append([]string(nil), hands[i]...)
		players = append(players, p)
		turnOrder = append(turnOrder, seat.UserID)
	}

	now := time.Now().UTC()
	return &Game{
		ID:                uuid.New().String(),
		RoomID:            roomID,
		Status:            StatusInProgress,
		CurrentRound:      1,
		TotalRounds:       DefaultTotalRounds,
		CurrentTurnUserID: turnOrder[0],
		TurnOrder:         turnOrder,
		Board:             NewBoard(),
		Players:           players,
		AvailableTiles:    rules.Tiles.ShuffledPool(rng),
		DiscardedTiles:    []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Player finds a seat by its canonical user id.
func (g *Game) Player(userID int64) *PlayerState {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// IsParticipant reports whether the user holds a seat.
func (g *Game) IsParticipant(userID int64) bool {
	return g.Player(userID) != nil
}

// CurrentPlayer returns the seat holding the turn.
func (g *Game) CurrentPlayer() *PlayerState {
	return g.Player(g.CurrentTurnUserID)
}

// VisibleTiles returns the top of the supply: the only tiles legal to
// buy this turn.
func (g *Game) VisibleTiles() []string {
	if len(g.AvailableTiles) > 3 {
		return g.AvailableTiles[:3]
	}
	return g.AvailableTiles
}

// Apply validates one action against the current state and mutates the
// aggregate. Validation failures leave an inconsistent aggregate only
// in memory; callers must reload rather than persist after an error.
func (g *Game) Apply(rules *Rules, actorID int64, action Action) (interface{}, error) {
	if g.Status != StatusInProgress {
		return nil, Errorf(KindIllegalState, "game is not in progress")
	}

	actor := g.Player(actorID)
	if actor == nil {
		return nil, Errorf(KindNotAParticipant, "user %d is not in this game", actorID)
	}

	switch action.Kind {
	case ActionSelectBlueprint:
		var payload SelectBlueprintPayload
		if err := decodePayload(action.Payload, &payload); err != nil {
			return nil, err
		}
		if payload.BlueprintID == "" {
			return nil, Errorf(KindMalformed, "blueprint_id is required")
		}
		return g.applySelectBlueprint(rules, actor, payload)

	case ActionPlaceTile:
		var payload PlaceTilePayload
		if err := decodePayload(action.Payload, &payload); err != nil {
			return nil, err
		}
		if payload.TileID == "" {
			return nil, Errorf(KindMalformed, "tile_id is required")
		}
		return g.applyPlaceTile(rules, actor, payload)

	case ActionPlaceWorker:
		var payload PlaceWorkerPayload
		if err := decodePayload(action.Payload, &payload); err != nil {
			return nil, err
		}
		return g.applyPlaceWorker(rules, actor, payload)

	case ActionEndTurn:
		return g.applyEndTurn(rules, actor)
	}

	return nil, Errorf(KindMalformed, "unknown action kind %q", action.Kind)
}

func decodePayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return Errorf(KindMalformed, "invalid payload: %v", err)
	}
	return nil
}

// applySelectBlueprint commits the actor to one dealt objective. This
// is the only action open to players out of turn.
func (g *Game) applySelectBlueprint(rules *Rules, actor *PlayerState, payload SelectBlueprintPayload) (interface{}, error) {
	if _, err := rules.Blueprints.Get(payload.BlueprintID); err != nil {
		return nil, err
	}
	if err := actor.SelectBlueprint(payload.BlueprintID); err != nil {
		return nil, err
	}
	return SelectBlueprintResult{
		SelectedBlueprint:   payload.BlueprintID,
		RemainingBlueprints: append([]string(nil), actor.DealtBlueprints...),
	}, nil
}

func (g *Game) applyPlaceTile(rules *Rules, actor *PlayerState, payload PlaceTilePayload) (interface{}, error) {
	if g.CurrentTurnUserID != actor.UserID {
		return nil, Errorf(KindNotYourTurn, "not your turn")
	}

	def, err := rules.Tiles.Get(payload.TileID)
	if err != nil {
		return nil, err
	}

	visible := false
	for _, id := range g.VisibleTiles() {
		if id == payload.TileID {
			visible = true
			break
		}
	}
	if !visible {
		return nil, Errorf(KindPreconditionFailed, "tile %q not available for selection", payload.TileID)
	}

	if !actor.Resources.CanAfford(def.Cost) {
		return nil, Errorf(KindPreconditionFailed, "cannot afford tile %q", payload.TileID)
	}
	if err := ValidatePlacement(g.Board, payload.Position); err != nil {
		return nil, err
	}

	score, fengshuiActive := ScorePlacement(g.Board, payload.Position, def)

	paid, err := actor.Resources.Pay(def.Cost)
	if err != nil {
		return nil, err
	}
	actor.Resources = paid

	g.Board.At(payload.Position).Tile = &PlacedTile{
		TileID:         payload.TileID,
		OwnerID:        actor.UserID,
		PlacedWorkers:  []PlacedWorker{},
		FengshuiActive: fengshuiActive,
	}
	g.removeAvailableTile(payload.TileID)

	actor.Score += score.Total
	actor.PlacedTiles = append(actor.PlacedTiles, payload.TileID)

	return PlaceTileResult{
		TileID:         payload.TileID,
		Position:       payload.Position,
		ScoreBreakdown: score,
		NewScore:       actor.Score,
	}, nil
}

func (g *Game) removeAvailableTile(tileID string) {
	for i, id := range g.AvailableTiles {
		if id == tileID {
			g.AvailableTiles = append(g.AvailableTiles[:i], g.AvailableTiles[i+1:]...)
			return
		}
	}
}

func (g *Game) applyPlaceWorker(rules *Rules, actor *PlayerState, payload PlaceWorkerPayload) (interface{}, error) {
	if g.CurrentTurnUserID != actor.UserID {
		return nil, Errorf(KindNotYourTurn, "not your turn")
	}

	kind, err := ParseWorkerKind(payload.WorkerKind)
	if err != nil {
		return nil, err
	}
	if !actor.Workers.CanPlace(kind) {
		return nil, Errorf(KindPreconditionFailed, "no %s workers available", kind)
	}

	pos := payload.TargetPosition
	if !g.Board.InBounds(pos) {
		return nil, Errorf(KindPreconditionFailed, "position out of bounds")
	}
	cell := g.Board.At(pos)
	if cell.Terrain == TerrainMountain {
		return nil, Errorf(KindPreconditionFailed, "cannot place worker on mountain")
	}
	if cell.Tile == nil {
		return nil, Errorf(KindPreconditionFailed, "no tile at this position")
	}

	def, err := rules.Tiles.Get(cell.Tile.TileID)
	if err != nil {
		return nil, Errorf(KindInternal, "board tile %q missing from catalog", cell.Tile.TileID)
	}
	if !CanPlaceOnTile(cell.Tile.PlacedWorkers, kind, payload.SlotIndex, def.WorkerSlots) {
		return nil, Errorf(KindPreconditionFailed, "slot not available")
	}

	pool, err := actor.Workers.Place(kind)
	if err != nil {
		return nil, err
	}
	actor.Workers = pool
	cell.Tile.PlacedWorkers = append(cell.Tile.PlacedWorkers, PlacedWorker{
		PlayerUserID: actor.UserID,
		Kind:         kind,
		SlotIndex:    payload.SlotIndex,
	})

	return PlaceWorkerResult{
		WorkerKind: kind,
		Position:   pos,
		SlotIndex:  payload.SlotIndex,
	}, nil
}

// applyEndTurn collects the actor's worker production, then advances
// the turn pointer. Workers stay on the board between turns.
func (g *Game) applyEndTurn(rules *Rules, actor *PlayerState) (interface{}, error) {
	if g.CurrentTurnUserID != actor.UserID {
		return nil, Errorf(KindNotYourTurn, "not your turn")
	}

	g.collectProduction(rules, actor)
	g.advanceTurn(rules)

	return EndTurnResult{
		NextPlayerID: g.CurrentTurnUserID,
		CurrentRound: g.CurrentRound,
		GameStatus:   g.Status,
	}, nil
}

// collectProduction harvests one unit per apprentice and two per
// official the actor has standing on producing tiles, clamped at the
// per-kind caps. Palaces and gates yield nothing.
func (g *Game) collectProduction(rules *Rules, actor *PlayerState) {
	for row := range g.Board {
		for col := range g.Board[row] {
			tile := g.Board[row][col].Tile
			if tile == nil {
				continue
			}
			def, err := rules.Tiles.Get(tile.TileID)
			if err != nil {
				continue
			}
			resource, produces := ProducedResource(def.Category)
			if !produces {
				continue
			}
			for _, w := range tile.PlacedWorkers {
				if w.PlayerUserID != actor.UserID {
					continue
				}
				amount := 1
				if w.Kind == WorkerOfficial {
					amount = 2
				}
				actor.Resources = actor.Resources.Add(resource, amount)
			}
		}
	}
}

// RecallAllWorkers returns every worker on the board to its owner's
// pool. The default flow never calls this; rules variants with an
// end-of-round recall do.
func (g *Game) RecallAllWorkers() {
	for row := range g.Board {
		for col := range g.Board[row] {
			if tile := g.Board[row][col].Tile; tile != nil {
				tile.PlacedWorkers = []PlacedWorker{}
			}
		}
	}
	for _, p := range g.Players {
		p.Workers = p.Workers.RecallAll()
	}
}

// advanceTurn moves the pointer to the next seat. A wrap past the last
// seat starts a new round; running past the final round or exhausting
// the tile supply finalizes instead of advancing.
func (g *Game) advanceTurn(rules *Rules) {
	current := 0
	for i, id := range g.TurnOrder {
		if id == g.CurrentTurnUserID {
			current = i
			break
		}
	}
	next := (current + 1) % len(g.TurnOrder)

	if next == 0 {
		g.CurrentRound++
		if g.CurrentRound > g.TotalRounds {
			g.finalize(rules)
			return
		}
	}
	if len(g.AvailableTiles) == 0 {
		g.finalize(rules)
		return
	}

	g.CurrentTurnUserID = g.TurnOrder[next]
}

// finalize fixes every player's final score and ends the game. Rank is
// by total, ties by base score, then by earlier turn order.
func (g *Game) finalize(rules *Rules) {
	g.Status = StatusFinished

	scores := make([]*FinalScore, 0, len(g.Players))
	for _, p := range g.Players {
		blueprintTotal, breakdown := rules.Blueprints.Score(g.Board, p)
		workerScore := g.Board.PlacedWorkersOf(p.UserID)
		penalty := p.Resources.Penalty()

		scores = append(scores, &FinalScore{
			PlayerID:           p.ID,
			UserID:             p.UserID,
			Username:           p.Username,
			BaseScore:          p.Score,
			BlueprintScore:     blueprintTotal,
			BlueprintBreakdown: breakdown,
			WorkerScore:        workerScore,
			ResourcePenalty:    penalty,
			TotalScore:         p.Score + blueprintTotal + workerScore - penalty,
		})
	}

	turnOrderOf := func(userID int64) int {
		if p := g.Player(userID); p != nil {
			return p.TurnOrder
		}
		return len(g.Players)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		if scores[i].BaseScore != scores[j].BaseScore {
			return scores[i].BaseScore > scores[j].BaseScore
		}
		return turnOrderOf(scores[i].UserID) < turnOrderOf(scores[j].UserID)
	})

	for i, fs := range scores {
		fs.Rank = i + 1
		if p := g.Player(fs.UserID); p != nil {
			p.FinalScore = fs
		}
	}
}

// FinalScores returns the persisted breakdowns ordered by rank, or nil
// while the game is still running.
func (g *Game) FinalScores() []FinalScore {
	if g.Status != StatusFinished {
		return nil
	}
	scores := make([]FinalScore, 0, len(g.Players))
	for _, p := range g.Players {
		if p.FinalScore != nil {
			scores = append(scores, *p.FinalScore)
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Rank < scores[j].Rank })
	return scores
}

// Winner returns the rank-1 breakdown once the game is finished.
func (g *Game) Winner() *FinalScore {
	scores := g.FinalScores()
	if len(scores) == 0 {
		return nil
	}
	return &scores[0]
}

// ValidActions enumerates every legal move for the actor. The read is
// turn-gated: players who do not hold the turn get an empty list.
func (g *Game) ValidActions(rules *Rules, actorID int64) []ActionTemplate {
	actor := g.Player(actorID)
	if actor == nil || g.Status != StatusInProgress || g.CurrentTurnUserID != actorID {
		return []ActionTemplate{}
	}

	var actions []ActionTemplate

	if !actor.HasSelectedBlueprint() {
		for _, id := range actor.DealtBlueprints {
			actions = append(actions, ActionTemplate{
				Kind:    ActionSelectBlueprint,
				Payload: SelectBlueprintPayload{BlueprintID: id},
			})
		}
	}

	for _, tileID := range g.VisibleTiles() {
		def, err := rules.Tiles.Get(tileID)
		if err != nil || !actor.Resources.CanAfford(def.Cost) {
			continue
		}
		for row := 0; row < BoardSize; row++ {
			for col := 0; col < BoardSize; col++ {
				pos := Position{Row: row, Col: col}
				cell := g.Board.At(pos)
				if cell.Terrain == TerrainMountain || cell.Tile != nil {
					continue
				}
				actions = append(actions, ActionTemplate{
					Kind:    ActionPlaceTile,
					Payload: PlaceTilePayload{TileID: tileID, Position: pos},
				})
			}
		}
	}

	for _, kind := range []WorkerKind{WorkerApprentice, WorkerOfficial} {
		if !actor.Workers.CanPlace(kind) {
			continue
		}
		for _, slot := range g.openWorkerSlots(rules, kind) {
			actions = append(actions, ActionTemplate{
				Kind: ActionPlaceWorker,
				Payload: PlaceWorkerPayload{
					WorkerKind:     string(kind),
					TargetPosition: slot.Position,
					SlotIndex:      slot.SlotIndex,
				},
			})
		}
	}

	actions = append(actions, ActionTemplate{Kind: ActionEndTurn})
	return actions
}

// WorkerSlot is one open seat for a worker on a placed tile.
type WorkerSlot struct {
	Position  Position `json:"position"`
	SlotIndex int      `json:"slot_index"`
}

// openWorkerSlots lists every free slot for the kind in row-major,
// slot-ascending order.
func (g *Game) openWorkerSlots(rules *Rules, kind WorkerKind) []WorkerSlot {
	var slots []WorkerSlot
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell := g.Board[row][col]
			if cell.Terrain == TerrainMountain || cell.Tile == nil {
				continue
			}
			def, err := rules.Tiles.Get(cell.Tile.TileID)
			if err != nil {
				continue
			}
			capacity := def.WorkerSlots
			if kind == WorkerOfficial {
				capacity = officialSlots
			}
			for slot := 0; slot < capacity; slot++ {
				if CanPlaceOnTile(cell.Tile.PlacedWorkers, kind, slot, def.WorkerSlots) {
					slots = append(slots, WorkerSlot{
						Position:  Position{Row: row, Col: col},
						SlotIndex: slot,
					})
				}
			}
		}
	}
	return slots
}

// Snapshot is the externally visible view of a game. Only the top
// three of the tile supply are shown; the discard pile and the rest of
// the supply stay hidden.
type Snapshot struct {
	ID                string         `json:"id"`
	Status            Status         `json:"status"`
	CurrentRound      int            `json:"current_round"`
	TotalRounds       int            `json:"total_rounds"`
	CurrentTurnUserID int64          `json:"current_turn_user_id"`
	TurnOrder         []int64        `json:"turn_order"`
	Board             Board          `json:"board"`
	Players           []*PlayerState `json:"players"`
	AvailableTiles    []string       `json:"available_tiles"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Snapshot renders the externally visible state. The copy is deep so
// the caller may hold it past the engine's lock.
func (g *Game) Snapshot() *Snapshot {
	players := make([]*PlayerState, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p.Clone())
	}
	return &Snapshot{
		ID:                g.ID,
		Status:            g.Status,
		CurrentRound:      g.CurrentRound,
		TotalRounds:       g.TotalRounds,
		CurrentTurnUserID: g.CurrentTurnUserID,
		TurnOrder:         append([]int64(nil), g.TurnOrder...),
		Board:             g.Board.Clone(),
		Players:           players,
		AvailableTiles:    append([]string(nil), g.VisibleTiles()...),
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

// Clone deep-copies the aggregate.
func (g *Game) Clone() *Game {
	clone := *g
	clone.TurnOrder = append([]int64(nil), g.TurnOrder...)
	clone.Board = g.Board.Clone()
	clone.Players = make([]*PlayerState, 0, len(g.Players))
	for _, p := range g.Players {
		clone.Players = append(clone.Players, p.Clone())
	}
	clone.AvailableTiles = append([]string(nil), g.AvailableTiles...)
	clone.DiscardedTiles = append([]string(nil), g.DiscardedTiles...)
	if g.LastAction != nil {
		rec := *g.LastAction
		rec.Payload = append(json.RawMessage(nil), g.LastAction.Payload...)
		clone.LastAction = &rec
	}
	return &clone
}

// Validate checks the aggregate invariants: board structure, worker
// accounting, tile conservation, seat uniqueness.
func (g *Game) Validate(rules *Rules) error {
	switch g.Status {
	case StatusWaiting, StatusInProgress, StatusFinished:
	default:
		return Errorf(KindInternal, "unknown status %q", g.Status)
	}

	if err := g.Board.Validate(); err != nil {
		return err
	}

	if g.Status == StatusInProgress {
		if !g.IsParticipant(g.CurrentTurnUserID) {
			return Errorf(KindInternal, "current turn user %d is not seated", g.CurrentTurnUserID)
		}
	}

	if len(g.TurnOrder) != len(g.Players) {
		return Errorf(KindInternal, "turn order has %d entries for %d players", len(g.TurnOrder), len(g.Players))
	}

	inOrder := make(map[int64]bool, len(g.TurnOrder))
	for _, id := range g.TurnOrder {
		inOrder[id] = true
	}

	colors := make(map[string]bool, len(g.Players))
	for _, p := range g.Players {
		if err := p.Validate(); err != nil {
			return err
		}
		if !inOrder[p.UserID] {
			return Errorf(KindInternal, "player %d missing from turn order", p.UserID)
		}
		if colors[p.Color] {
			return Errorf(KindInternal, "color %q used twice", p.Color)
		}
		colors[p.Color] = true
		if placed := g.Board.PlacedWorkersOf(p.UserID); placed != p.Workers.PlacedCount() {
			return Errorf(KindInternal, "player %d has %d workers on board but pool says %d",
				p.UserID, placed, p.Workers.PlacedCount())
		}
	}

	for row := range g.Board {
		for col := range g.Board[row] {
			tile := g.Board[row][col].Tile
			if tile == nil {
				continue
			}
			if !inOrder[tile.OwnerID] {
				return Errorf(KindInternal, "tile at (%d,%d) owned by non-participant %d", row, col, tile.OwnerID)
			}
			for _, w := range tile.PlacedWorkers {
				if !inOrder[w.PlayerUserID] {
					return Errorf(KindInternal, "worker at (%d,%d) owned by non-participant %d", row, col, w.PlayerUserID)
				}
			}
		}
	}

	seen := make(map[string]bool, len(g.AvailableTiles))
	for _, id := range g.AvailableTiles {
		seen[id] = true
	}
	for _, id := range g.DiscardedTiles {
		if seen[id] {
			return Errorf(KindInternal, "tile %q is both available and discarded", id)
		}
	}
	if total := g.Board.PlacedTileCount() + len(g.AvailableTiles) + len(g.DiscardedTiles); total != rules.Tiles.Len() {
		return Errorf(KindInternal, "tile conservation broken: %d accounted, want %d", total, rules.Tiles.Len())
	}

	return nil
}
