package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanyang/pkg/protocol"
)

// publishedEvent is one captured broadcaster call, in call order.
type publishedEvent struct {
	GameID    string
	Kind      protocol.Kind
	Exclude   int64 // broadcast calls
	ToUserID  int64 // send calls
	Broadcast bool
}

// recordingBroadcaster captures the publish stream for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *recordingBroadcaster) Broadcast(gameID string, msg *protocol.Message, excludeUserID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{GameID: gameID, Kind: msg.Type, Exclude: excludeUserID, Broadcast: true})
}

func (b *recordingBroadcaster) Send(gameID string, userID int64, msg *protocol.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{GameID: gameID, Kind: msg.Type, ToUserID: userID})
	return true
}

func (b *recordingBroadcaster) kinds() []protocol.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]protocol.Kind, 0, len(b.events))
	for _, e := range b.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// scriptedDecider runs a fixed decision function for every AI seat.
type scriptedDecider struct {
	decide func(g *Game, player *PlayerState, rules *Rules) (Action, error)
}

func (d *scriptedDecider) Decide(g *Game, player *PlayerState, rules *Rules) (Action, error) {
	if d.decide == nil {
		return Action{Kind: ActionEndTurn}, nil
	}
	return d.decide(g, player, rules)
}

func newTestEngine(opts Options) (*Engine, *MemStore, *recordingBroadcaster) {
	if opts.Seed == 0 {
		opts.Seed = 99
	}
	store := NewMemStore()
	rec := &recordingBroadcaster{}
	engine := NewEngine(DefaultRules(), store, rec, &scriptedDecider{}, opts)
	return engine, store, rec
}

func TestEngineCreatePublishesStart(t *testing.T) {
	engine, _, rec := newTestEngine(Options{})
	ctx := context.Background()

	g, err := engine.Create(ctx, "room-7", testSeats(2))
	require.NoError(t, err)

	snapshot, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, snapshot.Status)

	byRoom, err := engine.GetByRoom(ctx, "room-7")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byRoom.ID)

	require.Len(t, rec.events, 2)
	assert.Equal(t, protocol.KindGameStarted, rec.events[0].Kind)
	assert.True(t, rec.events[0].Broadcast)
	assert.Equal(t, protocol.KindYourTurn, rec.events[1].Kind)
	assert.Equal(t, int64(101), rec.events[1].ToUserID, "only the opening seat hears your_turn")
}

func TestEngineCreateSolo(t *testing.T) {
	engine, _, _ := newTestEngine(Options{})
	ctx := context.Background()

	g, err := engine.CreateSolo(ctx, 42, "jihun", 2, DifficultyHard)
	require.NoError(t, err)
	require.Len(t, g.Players, 3)

	host := g.Players[0]
	assert.Equal(t, int64(42), host.UserID)
	assert.True(t, host.IsHost)
	assert.False(t, host.IsAI)
	assert.Equal(t, "blue", host.Color)

	for i, p := range g.Players[1:] {
		assert.Equal(t, int64(-(i+1)), p.UserID, "AI seats carry negative ids")
		assert.True(t, p.IsAI)
		assert.Equal(t, DifficultyHard, p.AIDifficulty)
		assert.NotEmpty(t, p.Username)
	}

	_, err = engine.CreateSolo(ctx, 0, "ghost", 1, DifficultyEasy)
	assert.Equal(t, KindPreconditionFailed, KindOf(err))

	_, err = engine.CreateSolo(ctx, 42, "jihun", 0, DifficultyEasy)
	assert.Equal(t, KindPreconditionFailed, KindOf(err))

	_, err = engine.CreateSolo(ctx, 42, "jihun", 4, DifficultyEasy)
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestEngineSubmitPipeline(t *testing.T) {
	engine, store, rec := newTestEngine(Options{})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", testSeats(2))
	require.NoError(t, err)
	rec.reset()

	result, snapshot, err := engine.Submit(ctx, g.ID, 101, Action{Kind: ActionEndTurn})
	require.NoError(t, err)

	ended, ok := result.(EndTurnResult)
	require.True(t, ok)
	assert.Equal(t, int64(102), ended.NextPlayerID)
	assert.Equal(t, int64(102), snapshot.CurrentTurnUserID)

	// The commit is durable before anyone hears about it.
	reloaded, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(102), reloaded.CurrentTurnUserID)

	actions := store.Actions(g.ID)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionEndTurn, actions[0].Kind)
	assert.Equal(t, int64(101), actions[0].ActorUserID)

	assert.Equal(t, []protocol.Kind{
		protocol.KindPlayerAction,
		protocol.KindGameStateUpdate,
		protocol.KindTurnChanged,
		protocol.KindYourTurn,
		protocol.KindValidActionsUpdate,
	}, rec.kinds())

	assert.Equal(t, int64(101), rec.events[0].Exclude, "the actor gets action_result, not the echo")
	assert.Zero(t, rec.events[1].Exclude)
	assert.Equal(t, int64(102), rec.events[3].ToUserID)
	assert.Equal(t, int64(102), rec.events[4].ToUserID)
}

func TestEngineSubmitRejectionPublishesNothing(t *testing.T) {
	engine, store, rec := newTestEngine(Options{})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", testSeats(2))
	require.NoError(t, err)
	rec.reset()

	_, _, err = engine.Submit(ctx, g.ID, 102, Action{Kind: ActionEndTurn})
	require.Error(t, err)
	assert.Equal(t, KindNotYourTurn, KindOf(err))

	assert.Empty(t, rec.events, "rejected actions stay invisible to the room")
	assert.Empty(t, store.Actions(g.ID))

	reloaded, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(101), reloaded.CurrentTurnUserID)
}

func TestEngineSubmitUnknownGame(t *testing.T) {
	engine, _, _ := newTestEngine(Options{})

	_, _, err := engine.Submit(context.Background(), "missing", 101, Action{Kind: ActionEndTurn})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestEngineSubmitTimesOutWaitingForLock(t *testing.T) {
	engine, _, _ := newTestEngine(Options{})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", testSeats(2))
	require.NoError(t, err)

	unlock, err := engine.lockGame(ctx, g.ID)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, _, err = engine.Submit(waitCtx, g.ID, 101, Action{Kind: ActionEndTurn})
	require.Error(t, err)
	assert.Equal(t, KindTimedOut, KindOf(err))

	// Nothing was touched while the lock was held elsewhere.
	reloaded, err := engine.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(101), reloaded.CurrentTurnUserID)

	unlock()
	_, _, err = engine.Submit(ctx, g.ID, 101, Action{Kind: ActionEndTurn})
	require.NoError(t, err)
}

func TestEngineValidActionsFor(t *testing.T) {
	engine, _, _ := newTestEngine(Options{})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", testSeats(2))
	require.NoError(t, err)

	actions, err := engine.ValidActionsFor(ctx, g.ID, 101)
	require.NoError(t, err)
	assert.NotEmpty(t, actions)

	actions, err = engine.ValidActionsFor(ctx, g.ID, 102)
	require.NoError(t, err)
	assert.Empty(t, actions, "participants off turn get an empty list, not an error")

	_, err = engine.ValidActionsFor(ctx, g.ID, 999)
	require.Error(t, err)
	assert.Equal(t, KindNotAParticipant, KindOf(err))
}

func TestEngineResult(t *testing.T) {
	engine, _, _ := newTestEngine(Options{TotalRounds: 1})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", testSeats(2))
	require.NoError(t, err)

	_, err = engine.Result(ctx, g.ID)
	require.Error(t, err)
	assert.Equal(t, KindPreconditionFailed, KindOf(err), "no standings before the game ends")

	_, _, err = engine.Submit(ctx, g.ID, 101, Action{Kind: ActionEndTurn})
	require.NoError(t, err)
	_, snapshot, err := engine.Submit(ctx, g.ID, 102, Action{Kind: ActionEndTurn})
	require.NoError(t, err)
	require.Equal(t, StatusFinished, snapshot.Status)

	result, err := engine.Result(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, result.GameID)
	assert.Equal(t, 1, result.TotalRounds)
	require.Len(t, result.Rankings, 2)
	assert.Equal(t, result.Rankings[0].UserID, result.WinnerID)
	assert.Equal(t, 1, result.Rankings[0].Rank)
}

func TestEngineGameEndedPublishOrder(t *testing.T) {
	engine, _, rec := newTestEngine(Options{TotalRounds: 1})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", testSeats(2))
	require.NoError(t, err)

	_, _, err = engine.Submit(ctx, g.ID, 101, Action{Kind: ActionEndTurn})
	require.NoError(t, err)
	rec.reset()

	_, _, err = engine.Submit(ctx, g.ID, 102, Action{Kind: ActionEndTurn})
	require.NoError(t, err)

	// The final commit crosses a round boundary but the turn stays
	// with the last actor, so no turn events fire.
	assert.Equal(t, []protocol.Kind{
		protocol.KindPlayerAction,
		protocol.KindGameStateUpdate,
		protocol.KindRoundChanged,
		protocol.KindGameEnded,
	}, rec.kinds())
}

func aiSeats(n int, difficulty AIDifficulty) []Seat {
	colors := []string{"blue", "red", "green", "yellow"}
	names := []string{"sejong", "yulgok", "toegye", "chungmugong"}
	seats := make([]Seat, 0, n)
	for i := 0; i < n; i++ {
		seats = append(seats, Seat{
			UserID:       int64(-(i + 1)),
			Username:     names[i],
			Color:        colors[i],
			IsAI:         true,
			AIDifficulty: difficulty,
		})
	}
	return seats
}

func TestEngineRunAITurn(t *testing.T) {
	engine, _, _ := newTestEngine(Options{})
	ctx := context.Background()

	seats := aiSeats(1, DifficultyEasy)
	seats = append(seats, Seat{UserID: 101, Username: "jihun", Color: "red"})
	g, err := engine.Create(ctx, "", seats)
	require.NoError(t, err)

	result, err := engine.RunAITurn(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionEndTurn, result.ActionKind)
	assert.Equal(t, int64(101), result.NextPlayerID)
	assert.False(t, result.IsAITurn)
	assert.Equal(t, StatusInProgress, result.GameStatus)

	// Now a human holds the turn.
	_, err = engine.RunAITurn(ctx, g.ID)
	require.Error(t, err)
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestEngineRunAITurnRequiresRunningGame(t *testing.T) {
	engine, _, _ := newTestEngine(Options{TotalRounds: 1})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", aiSeats(2, DifficultyEasy))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = engine.RunAITurn(ctx, g.ID)
		require.NoError(t, err)
	}

	_, err = engine.RunAITurn(ctx, g.ID)
	require.Error(t, err)
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestEngineAutoPlayRunsToCompletion(t *testing.T) {
	engine, _, rec := newTestEngine(Options{TotalRounds: 2, AutoPlayMaxTurns: 100})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", aiSeats(2, DifficultyMedium))
	require.NoError(t, err)
	rec.reset()

	result, err := engine.AutoPlay(ctx, g.ID, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TurnsExecuted, "two seats times two rounds")
	assert.Len(t, result.Actions, 4)
	assert.Equal(t, StatusFinished, result.GameStatus)
	assert.False(t, result.IsYourTurn)
	require.NotNil(t, result.GameState)

	kinds := rec.kinds()
	assert.Equal(t, protocol.KindGameEnded, kinds[len(kinds)-1])
}

func TestEngineAutoPlayStopsAtHumanTurn(t *testing.T) {
	engine, _, _ := newTestEngine(Options{AutoPlayMaxTurns: 100})
	ctx := context.Background()

	seats := aiSeats(1, DifficultyEasy)
	seats = append(seats, Seat{UserID: 101, Username: "jihun", Color: "red"})
	g, err := engine.Create(ctx, "", seats)
	require.NoError(t, err)

	result, err := engine.AutoPlay(ctx, g.ID, 101, 100)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TurnsExecuted)
	assert.Equal(t, int64(101), result.CurrentPlayerID)
	assert.True(t, result.IsYourTurn)
	assert.Equal(t, StatusInProgress, result.GameStatus)
}

func TestEngineAutoPlayClampsMaxTurns(t *testing.T) {
	engine, _, _ := newTestEngine(Options{TotalRounds: 4, AutoPlayMaxTurns: 3})
	ctx := context.Background()

	g, err := engine.Create(ctx, "", aiSeats(2, DifficultyEasy))
	require.NoError(t, err)

	result, err := engine.AutoPlay(ctx, g.ID, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TurnsExecuted, "the configured ceiling bounds the request")
	assert.Equal(t, StatusInProgress, result.GameStatus)
}

func TestEngineSeedReproducesSetup(t *testing.T) {
	ctx := context.Background()

	first, _, _ := newTestEngine(Options{Seed: 1234})
	second, _, _ := newTestEngine(Options{Seed: 1234})

	a, err := first.Create(ctx, "", testSeats(3))
	require.NoError(t, err)
	b, err := second.Create(ctx, "", testSeats(3))
	require.NoError(t, err)

	assert.Equal(t, a.AvailableTiles, b.AvailableTiles)
	for i := range a.Players {
		assert.Equal(t, a.Players[i].DealtBlueprints, b.Players[i].DealtBlueprints)
	}
}
