package repositories_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanyang/internal/database"
	"hanyang/internal/database/repositories"
	"hanyang/internal/game"
)

func newRepo(t *testing.T) *repositories.GameRepository {
	t.Helper()
	db, err := database.NewConnection(&database.Config{
		Path:           filepath.Join(t.TempDir(), "hanyang-test.db"),
		MaxOpenConns:   2,
		MaxIdleConns:   2,
		MigrateOnStart: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repositories.NewGameRepository(db.DB)
}

func buildGame(t *testing.T, roomID string) *game.Game {
	t.Helper()
	seats := []game.Seat{
		{UserID: 101, Username: "jihun", Color: "blue", IsHost: true},
		{UserID: 102, Username: "mina", Color: "red"},
		{UserID: -1, Username: "AI - 초보 도전자", Color: "yellow", IsAI: true, AIDifficulty: game.DifficultyEasy},
	}
	g, err := game.NewGame(game.DefaultRules(), rand.New(rand.NewSource(5)), roomID, seats)
	require.NoError(t, err)
	return g
}

func TestCreateAndLoadGame(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "room-1")

	require.NoError(t, repo.CreateGame(ctx, g))

	loaded, err := repo.LoadGame(ctx, g.ID)
	require.NoError(t, err)

	assert.Equal(t, g.ID, loaded.ID)
	assert.Equal(t, "room-1", loaded.RoomID)
	assert.Equal(t, game.StatusInProgress, loaded.Status)
	assert.Equal(t, g.CurrentRound, loaded.CurrentRound)
	assert.Equal(t, g.TotalRounds, loaded.TotalRounds)
	assert.Equal(t, g.CurrentTurnUserID, loaded.CurrentTurnUserID)
	assert.Equal(t, g.TurnOrder, loaded.TurnOrder)
	assert.Equal(t, g.Players, loaded.Players, "player state must survive the JSON columns intact")
	assert.Equal(t, g.Board, loaded.Board)
	assert.Equal(t, g.AvailableTiles, loaded.AvailableTiles)
	assert.Equal(t, g.DiscardedTiles, loaded.DiscardedTiles)
	assert.WithinDuration(t, g.CreatedAt, loaded.CreatedAt, time.Second)
	assert.WithinDuration(t, g.UpdatedAt, loaded.UpdatedAt, time.Second)

	assert.NoError(t, loaded.Validate(game.DefaultRules()))
}

func TestLoadGameNotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.LoadGame(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, game.KindNotFound, game.KindOf(err))
}

func TestCreateGameDuplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "")

	require.NoError(t, repo.CreateGame(ctx, g))
	err := repo.CreateGame(ctx, g)
	require.Error(t, err)
	assert.Equal(t, game.KindConflict, game.KindOf(err))
}

func TestSaveGameAppendsAction(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "")
	require.NoError(t, repo.CreateGame(ctx, g))

	g.CurrentTurnUserID = 102
	g.UpdatedAt = time.Now().UTC()
	first := &game.ActionRecord{
		GameID:      g.ID,
		ActorUserID: 101,
		Kind:        game.ActionEndTurn,
		Payload:     json.RawMessage(`{}`),
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, repo.SaveGame(ctx, g, first))
	assert.Positive(t, first.ID, "the log assigns the action id on append")

	g.CurrentTurnUserID = -1
	second := &game.ActionRecord{
		GameID:      g.ID,
		ActorUserID: 102,
		Kind:        game.ActionEndTurn,
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, repo.SaveGame(ctx, g, second))
	assert.Greater(t, second.ID, first.ID)

	loaded, err := repo.LoadGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), loaded.CurrentTurnUserID)

	records, err := repo.ListActions(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, int64(101), records[0].ActorUserID)
	assert.Equal(t, game.ActionEndTurn, records[0].Kind)
	assert.Equal(t, json.RawMessage(`{}`), records[0].Payload)
	assert.WithinDuration(t, first.Timestamp, records[0].Timestamp, time.Second)

	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, int64(102), records[1].ActorUserID)
	assert.Nil(t, records[1].Payload, "an empty payload must not come back as empty JSON")
}

func TestSaveGameWithoutAction(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "")
	require.NoError(t, repo.CreateGame(ctx, g))

	g.Status = game.StatusFinished
	require.NoError(t, repo.SaveGame(ctx, g, nil))

	loaded, err := repo.LoadGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, loaded.Status)

	records, err := repo.ListActions(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, records, "administrative saves append nothing")
}

func TestSaveGameUnknownGame(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "")

	err := repo.SaveGame(ctx, g, nil)
	require.Error(t, err)
	assert.Equal(t, game.KindNotFound, game.KindOf(err))

	// An action appended in the same transaction must roll back with it.
	rec := &game.ActionRecord{
		GameID:      g.ID,
		ActorUserID: 101,
		Kind:        game.ActionEndTurn,
		Timestamp:   time.Now().UTC(),
	}
	require.Error(t, repo.SaveGame(ctx, g, rec))

	records, err := repo.ListActions(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadGameByRoomPicksLatest(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	older := buildGame(t, "room-9")
	older.CreatedAt = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateGame(ctx, older))

	newer := buildGame(t, "room-9")
	newer.CreatedAt = time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateGame(ctx, newer))

	loaded, err := repo.LoadGameByRoom(ctx, "room-9")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, loaded.ID)

	_, err = repo.LoadGameByRoom(ctx, "empty-room")
	require.Error(t, err)
	assert.Equal(t, game.KindNotFound, game.KindOf(err))
}

func TestCountGamesByStatus(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	running := buildGame(t, "")
	require.NoError(t, repo.CreateGame(ctx, running))

	done := buildGame(t, "")
	require.NoError(t, repo.CreateGame(ctx, done))
	done.Status = game.StatusFinished
	require.NoError(t, repo.SaveGame(ctx, done, nil))

	counts, err := repo.CountGamesByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[string(game.StatusInProgress)])
	assert.Equal(t, 1, counts[string(game.StatusFinished)])
}

func TestActionLogKeepsAISeatIDs(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "")
	require.NoError(t, repo.CreateGame(ctx, g))

	rec := &game.ActionRecord{
		GameID:      g.ID,
		ActorUserID: -1,
		Kind:        game.ActionPlaceTile,
		Payload:     json.RawMessage(`{"tile_id":"gate_1","position":{"row":1,"col":1}}`),
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, repo.SaveGame(ctx, g, rec))

	records, err := repo.ListActions(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(-1), records[0].ActorUserID)
	assert.JSONEq(t, string(rec.Payload), string(records[0].Payload))
}

func TestLastActionRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	g := buildGame(t, "")
	require.NoError(t, repo.CreateGame(ctx, g))

	rec := &game.ActionRecord{
		GameID:      g.ID,
		ActorUserID: 101,
		Kind:        game.ActionEndTurn,
		Timestamp:   time.Now().UTC(),
	}
	g.LastAction = rec
	require.NoError(t, repo.SaveGame(ctx, g, rec))

	loaded, err := repo.LoadGame(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastAction)
	assert.Equal(t, rec.ID, loaded.LastAction.ID, "last_action must carry the log id assigned on append")
	assert.Equal(t, game.ActionEndTurn, loaded.LastAction.Kind)
	assert.Equal(t, int64(101), loaded.LastAction.ActorUserID)
}
