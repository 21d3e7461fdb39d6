package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// Store persists game aggregates and their action log.
type Store interface {
	CreateGame(ctx context.Context, g *Game) error
	LoadGame(ctx context.Context, id string) (*Game, error)
	LoadGameByRoom(ctx context.Context, roomID string) (*Game, error)
	// SaveGame writes the aggregate and appends the causing action in
	// one atomic step. rec may be nil for administrative saves.
	SaveGame(ctx context.Context, g *Game, rec *ActionRecord) error
}

// Broadcaster delivers events to the observer sessions of one game.
// An excludeUserID of zero excludes nobody: real users have positive
// ids and AI seats negative ones.
type Broadcaster interface {
	Broadcast(gameID string, msg *protocol.Message, excludeUserID int64)
	Send(gameID string, userID int64, msg *protocol.Message) bool
}

// Decider picks one legal action for an AI seat.
type Decider interface {
	Decide(g *Game, player *PlayerState, rules *Rules) (Action, error)
}

// Options tunes the engine. Zero values select the defaults.
type Options struct {
	TotalRounds      int
	AutoPlayMaxTurns int
	AIThinkDelay     time.Duration
	Seed             int64
}

const defaultAutoPlayMaxTurns = 50

// Engine runs every game as a serial actor: per game, one action at a
// time through load, validate, mutate, persist, broadcast. Distinct
// games proceed in parallel.
type Engine struct {
	rules       *Rules
	store       Store
	broadcaster Broadcaster
	decider     Decider
	logger      *logger.ColoredLogger
	opts        Options

	mu    sync.Mutex
	rng   *rand.Rand
	locks map[string]chan struct{}
}

// NewEngine wires the engine to its collaborators.
func NewEngine(rules *Rules, store Store, broadcaster Broadcaster, decider Decider, opts Options) *Engine {
	if opts.TotalRounds <= 0 {
		opts.TotalRounds = DefaultTotalRounds
	}
	if opts.AutoPlayMaxTurns <= 0 {
		opts.AutoPlayMaxTurns = defaultAutoPlayMaxTurns
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		rules:       rules,
		store:       store,
		broadcaster: broadcaster,
		decider:     decider,
		logger:      logger.GameLogger,
		opts:        opts,
		rng:         rand.New(rand.NewSource(seed)),
		locks:       make(map[string]chan struct{}),
	}
}

// Rules exposes the engine's catalogs to handlers.
func (e *Engine) Rules() *Rules {
	return e.rules
}

// lockGame serializes all work on one game. The context deadline
// bounds the wait; expiry before acquisition rejects with TimedOut and
// no state has been touched. Once acquired, the critical section runs
// to completion regardless of the caller.
func (e *Engine) lockGame(ctx context.Context, gameID string) (func(), error) {
	e.mu.Lock()
	lock, ok := e.locks[gameID]
	if !ok {
		lock = make(chan struct{}, 1)
		e.locks[gameID] = lock
	}
	e.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, Errorf(KindTimedOut, "timed out waiting for game %s", gameID)
	}
}

// Create builds and persists a new game from assembled seats, then
// announces it to any observers already in the room.
func (e *Engine) Create(ctx context.Context, roomID string, seats []Seat) (*Game, error) {
	e.mu.Lock()
	g, err := NewGame(e.rules, e.rng, roomID, seats)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g.TotalRounds = e.opts.TotalRounds

	if err := e.store.CreateGame(ctx, g); err != nil {
		return nil, err
	}
	e.logger.Info("Game %s created: %d players, %d rounds", g.ID, len(g.Players), g.TotalRounds)

	snapshot := g.Snapshot()
	e.broadcaster.Broadcast(g.ID, protocol.NewMessage(protocol.KindGameStarted, protocol.GameStartedData{
		GameID:    g.ID,
		GameState: snapshot,
	}), 0)
	e.broadcaster.Send(g.ID, g.CurrentTurnUserID, protocol.NewMessage(protocol.KindYourTurn, protocol.YourTurnData{
		Message: "Game started! It's your turn!",
	}))

	return g, nil
}

// Solo seat layout: the human hosts seat 0 in blue; AI opponents take
// negative user ids and the remaining colors.
var (
	soloAIColors = []string{"red", "green", "yellow"}
	soloAINames  = []string{"AI - 자원 수집가", "AI - 풍수 대가", "AI - 초보 도전자"}
)

// CreateSolo builds a solo game: one human host plus 1-3 AI opponents,
// all sharing the requested difficulty.
func (e *Engine) CreateSolo(ctx context.Context, userID int64, username string, numAI int, difficulty AIDifficulty) (*Game, error) {
	if userID <= 0 {
		return nil, Errorf(KindPreconditionFailed, "solo games need an authenticated human host")
	}
	if numAI < 1 || numAI > MaxPlayers-1 {
		return nil, Errorf(KindPreconditionFailed, "num_ai_opponents must be 1-%d, got %d", MaxPlayers-1, numAI)
	}

	seats := make([]Seat, 0, numAI+1)
	seats = append(seats, Seat{
		UserID:   userID,
		Username: username,
		Color:    "blue",
		IsHost:   true,
	})
	for i := 0; i < numAI; i++ {
		seats = append(seats, Seat{
			UserID:       int64(-(i + 1)),
			Username:     soloAINames[i],
			Color:        soloAIColors[i],
			IsAI:         true,
			AIDifficulty: difficulty,
		})
	}
	return e.Create(ctx, "", seats)
}

// Get loads the externally visible state of a game.
func (e *Engine) Get(ctx context.Context, gameID string) (*Snapshot, error) {
	g, err := e.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.Snapshot(), nil
}

// GetByRoom resolves the game attached to a room.
func (e *Engine) GetByRoom(ctx context.Context, roomID string) (*Snapshot, error) {
	g, err := e.store.LoadGameByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return g.Snapshot(), nil
}

// Submit runs one action through the serial pipeline for its game.
// The returned snapshot reflects the committed state. The caller's
// deadline only gates lock acquisition: once the mutation is in
// flight it runs to completion even if the caller goes away, so the
// committed state and the broadcast never diverge.
func (e *Engine) Submit(ctx context.Context, gameID string, actorID int64, action Action) (interface{}, *Snapshot, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	return e.submitLocked(context.WithoutCancel(ctx), gameID, actorID, action)
}

// submitLocked is Submit without the lock acquisition. Callers must
// hold the game's lock.
func (e *Engine) submitLocked(ctx context.Context, gameID string, actorID int64, action Action) (interface{}, *Snapshot, error) {
	g, err := e.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	prevRound := g.CurrentRound
	prevTurn := g.CurrentTurnUserID

	result, err := g.Apply(e.rules, actorID, action)
	if err != nil {
		e.logger.Debug("Game %s: %s by %d rejected: %v", gameID, action.Kind, actorID, err)
		return nil, nil, err
	}

	rec := &ActionRecord{
		GameID:      gameID,
		ActorUserID: actorID,
		Kind:        action.Kind,
		Payload:     action.Payload,
		Timestamp:   time.Now().UTC(),
	}
	g.LastAction = rec
	g.UpdatedAt = rec.Timestamp

	if err := e.store.SaveGame(ctx, g, rec); err != nil {
		return nil, nil, Errorf(KindInternal, "persist game %s: %v", gameID, err)
	}
	e.logger.Info("Game %s: %s by %d committed (round %d)", gameID, action.Kind, actorID, g.CurrentRound)

	snapshot := g.Snapshot()
	e.publish(g, snapshot, actorID, action.Kind, result, prevRound, prevTurn)
	return result, snapshot, nil
}

// publish fans a committed action out to the room. Order matters: the
// action echo first, then the fresh state, then boundary notices.
// Persistence has already succeeded by the time this runs.
func (e *Engine) publish(g *Game, snapshot *Snapshot, actorID int64, kind ActionKind, result interface{}, prevRound int, prevTurn int64) {
	actorName := ""
	if p := g.Player(actorID); p != nil {
		actorName = p.Username
	}

	e.broadcaster.Broadcast(g.ID, protocol.NewMessage(protocol.KindPlayerAction, protocol.PlayerActionData{
		UserID:     actorID,
		Username:   actorName,
		ActionKind: string(kind),
		Result:     result,
	}), actorID)

	e.broadcaster.Broadcast(g.ID, protocol.NewMessage(protocol.KindGameStateUpdate, protocol.GameStateData{
		GameState: snapshot,
	}), 0)

	if g.CurrentRound != prevRound {
		e.broadcaster.Broadcast(g.ID, protocol.NewMessage(protocol.KindRoundChanged, protocol.RoundChangedData{
			PreviousRound: prevRound,
			CurrentRound:  g.CurrentRound,
			TotalRounds:   g.TotalRounds,
		}), 0)
	}

	if g.CurrentTurnUserID != prevTurn {
		currentName := ""
		if p := g.CurrentPlayer(); p != nil {
			currentName = p.Username
		}
		e.broadcaster.Broadcast(g.ID, protocol.NewMessage(protocol.KindTurnChanged, protocol.TurnChangedData{
			PreviousUserID:    prevTurn,
			CurrentUserID:     g.CurrentTurnUserID,
			CurrentPlayerName: currentName,
		}), 0)
		e.broadcaster.Send(g.ID, g.CurrentTurnUserID, protocol.NewMessage(protocol.KindYourTurn, protocol.YourTurnData{
			Message:      "It's your turn!",
			CurrentRound: g.CurrentRound,
		}))
		e.broadcaster.Send(g.ID, g.CurrentTurnUserID, protocol.NewMessage(protocol.KindValidActionsUpdate, protocol.ValidActionsData{
			Actions: g.ValidActions(e.rules, g.CurrentTurnUserID),
		}))
	}

	if g.Status == StatusFinished {
		if winner := g.Winner(); winner != nil {
			e.logger.Info("Game %s finished: winner %s (%d points)", g.ID, winner.Username, winner.TotalScore)
			e.broadcaster.Broadcast(g.ID, protocol.NewMessage(protocol.KindGameEnded, protocol.GameEndedData{
				GameID:     g.ID,
				WinnerID:   winner.UserID,
				WinnerName: winner.Username,
				Rankings:   g.FinalScores(),
			}), 0)
		}
	}
}

// ValidActionsFor enumerates the actor's legal moves. Non-participants
// are rejected; participants who do not hold the turn get an empty
// list.
func (e *Engine) ValidActionsFor(ctx context.Context, gameID string, userID int64) ([]ActionTemplate, error) {
	g, err := e.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !g.IsParticipant(userID) {
		return nil, Errorf(KindNotAParticipant, "user %d is not in this game", userID)
	}
	return g.ValidActions(e.rules, userID), nil
}

// GameResult is the final standings of a finished game.
type GameResult struct {
	GameID      string       `json:"game_id"`
	WinnerID    int64        `json:"winner_id"`
	Rankings    []FinalScore `json:"rankings"`
	TotalRounds int          `json:"total_rounds"`
}

// Result returns the persisted final standings.
func (e *Engine) Result(ctx context.Context, gameID string) (*GameResult, error) {
	g, err := e.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusFinished {
		return nil, Errorf(KindPreconditionFailed, "game is not finished")
	}
	winner := g.Winner()
	if winner == nil {
		return nil, Errorf(KindInternal, "finished game %s has no recorded scores", gameID)
	}
	return &GameResult{
		GameID:      g.ID,
		WinnerID:    winner.UserID,
		Rankings:    g.FinalScores(),
		TotalRounds: g.TotalRounds,
	}, nil
}

// AITurnResult reports one executed AI decision.
type AITurnResult struct {
	ActionKind   ActionKind  `json:"action_kind"`
	ActionResult interface{} `json:"action_result"`
	NextPlayerID int64       `json:"next_player_id"`
	IsAITurn     bool        `json:"is_ai_turn"`
	GameStatus   Status      `json:"game_status"`
}

// RunAITurn executes exactly one decision for the current AI seat.
func (e *Engine) RunAITurn(ctx context.Context, gameID string) (*AITurnResult, error) {
	unlock, err := e.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	g, err := e.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusInProgress {
		return nil, Errorf(KindPreconditionFailed, "game is not in progress")
	}
	current := g.CurrentPlayer()
	if current == nil || !current.IsAI {
		return nil, Errorf(KindPreconditionFailed, "it's not an AI player's turn")
	}

	action, err := e.decider.Decide(g, current, e.rules)
	if err != nil {
		return nil, Errorf(KindInternal, "AI decision for %s: %v", current.Username, err)
	}
	e.logger.Debug("Game %s: AI %s (%s) chose %s", gameID, current.Username, current.AIDifficulty, action.Kind)

	result, snapshot, err := e.submitLocked(ctx, gameID, current.UserID, action)
	if err != nil {
		return nil, err
	}

	return &AITurnResult{
		ActionKind:   action.Kind,
		ActionResult: result,
		NextPlayerID: snapshot.CurrentTurnUserID,
		IsAITurn:     snapshot.Status == StatusInProgress && currentSeatIsAI(snapshot),
		GameStatus:   snapshot.Status,
	}, nil
}

// AutoPlayStep is one entry in an auto-play trace.
type AutoPlayStep struct {
	Player     string          `json:"player"`
	ActionKind ActionKind      `json:"action_kind"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// AutoPlayResult reports a completed auto-play run.
type AutoPlayResult struct {
	TurnsExecuted   int            `json:"turns_executed"`
	Actions         []AutoPlayStep `json:"actions"`
	CurrentPlayerID int64          `json:"current_player_id"`
	IsYourTurn      bool           `json:"is_your_turn"`
	GameStatus      Status         `json:"game_status"`
	GameState       *Snapshot      `json:"game_state"`
}

// AutoPlay runs consecutive AI decisions until the turn reaches a
// human, the game finishes, or maxTurns commits have run. The think
// delay between decisions sits outside the game lock so observers are
// never starved.
func (e *Engine) AutoPlay(ctx context.Context, gameID string, callerID int64, maxTurns int) (*AutoPlayResult, error) {
	if maxTurns <= 0 || maxTurns > e.opts.AutoPlayMaxTurns {
		maxTurns = e.opts.AutoPlayMaxTurns
	}

	steps := make([]AutoPlayStep, 0, maxTurns)
	var snapshot *Snapshot

	for turn := 0; turn < maxTurns; turn++ {
		unlock, err := e.lockGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		turnCtx := context.WithoutCancel(ctx)

		g, err := e.store.LoadGame(turnCtx, gameID)
		if err != nil {
			unlock()
			return nil, err
		}
		current := g.CurrentPlayer()
		if g.Status != StatusInProgress || current == nil || !current.IsAI {
			snapshot = g.Snapshot()
			unlock()
			break
		}

		action, err := e.decider.Decide(g, current, e.rules)
		if err != nil {
			unlock()
			return nil, Errorf(KindInternal, "AI decision for %s: %v", current.Username, err)
		}

		_, snap, err := e.submitLocked(turnCtx, gameID, current.UserID, action)
		unlock()
		if err != nil {
			return nil, err
		}
		snapshot = snap
		steps = append(steps, AutoPlayStep{
			Player:     current.Username,
			ActionKind: action.Kind,
			Params:     action.Payload,
		})

		if snap.Status != StatusInProgress || !currentSeatIsAI(snap) {
			break
		}
		if e.opts.AIThinkDelay > 0 {
			select {
			case <-time.After(e.opts.AIThinkDelay):
			case <-ctx.Done():
				return nil, Errorf(KindTimedOut, "auto-play interrupted for game %s", gameID)
			}
		}
	}

	e.logger.Info("Game %s: auto-play ran %d AI turns", gameID, len(steps))

	return &AutoPlayResult{
		TurnsExecuted:   len(steps),
		Actions:         steps,
		CurrentPlayerID: snapshot.CurrentTurnUserID,
		IsYourTurn:      snapshot.Status == StatusInProgress && snapshot.CurrentTurnUserID == callerID,
		GameStatus:      snapshot.Status,
		GameState:       snapshot,
	}, nil
}

// currentSeatIsAI reports whether the snapshot's turn holder is an AI.
func currentSeatIsAI(snap *Snapshot) bool {
	for _, p := range snap.Players {
		if p.UserID == snap.CurrentTurnUserID {
			return p.IsAI
		}
	}
	return false
}
