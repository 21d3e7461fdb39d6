package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hanyang/internal/game"
	"hanyang/pkg/logger"
)

// GameRepository persists game aggregates and their action log in SQLite.
// It implements game.Store.
type GameRepository struct {
	db     *sql.DB
	logger *logger.ColoredLogger
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{
		db:     db,
		logger: logger.CreateAILogger("GameRepo", logger.ColorCyan),
	}
}

const gameColumns = `id, room_id, status, current_round, total_rounds, current_turn_user_id,
		   turn_order, board, players, available_tiles, discarded_tiles, last_action,
		   created_at, updated_at`

// CreateGame inserts a new game. A duplicate id reports a conflict.
func (r *GameRepository) CreateGame(ctx context.Context, g *game.Game) error {
	blobs, err := marshalGame(g)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		g.ID,
		nullString(g.RoomID),
		string(g.Status),
		g.CurrentRound,
		g.TotalRounds,
		g.CurrentTurnUserID,
		blobs.turnOrder,
		blobs.board,
		blobs.players,
		blobs.availableTiles,
		blobs.discardedTiles,
		blobs.lastAction,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		if exists, checkErr := r.gameExists(ctx, g.ID); checkErr == nil && exists {
			return game.Errorf(game.KindConflict, "game %s already exists", g.ID)
		}
		return fmt.Errorf("failed to create game %s: %w", g.ID, err)
	}

	r.logger.Debug("Created game: %s (%d players)", g.ID, len(g.Players))
	return nil
}

// LoadGame retrieves a game by id.
func (r *GameRepository) LoadGame(ctx context.Context, id string) (*game.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = ?`
	g, err := r.scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, game.Errorf(game.KindNotFound, "game %s not found", id)
		}
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	return g, nil
}

// LoadGameByRoom resolves the most recent game attached to a room.
func (r *GameRepository) LoadGameByRoom(ctx context.Context, roomID string) (*game.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE room_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	g, err := r.scanGame(r.db.QueryRowContext(ctx, query, roomID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, game.Errorf(game.KindNotFound, "no game for room %s", roomID)
		}
		return nil, fmt.Errorf("failed to load game for room %s: %w", roomID, err)
	}
	return g, nil
}

// SaveGame writes the aggregate and appends the causing action in one
// transaction. The action gets its log id before the aggregate is
// marshaled, so the stored last_action carries it.
func (r *GameRepository) SaveGame(ctx context.Context, g *game.Game, rec *game.ActionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if rec != nil {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO game_actions (game_id, actor_user_id, kind, payload, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			rec.GameID, rec.ActorUserID, string(rec.Kind), string(rec.Payload), rec.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to append action for game %s: %w", g.ID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read action id: %w", err)
		}
		rec.ID = id
	}

	blobs, err := marshalGame(g)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE games SET
			room_id = ?, status = ?, current_round = ?, total_rounds = ?,
			current_turn_user_id = ?, turn_order = ?, board = ?, players = ?,
			available_tiles = ?, discarded_tiles = ?, last_action = ?, updated_at = ?
		WHERE id = ?`,
		nullString(g.RoomID),
		string(g.Status),
		g.CurrentRound,
		g.TotalRounds,
		g.CurrentTurnUserID,
		blobs.turnOrder,
		blobs.board,
		blobs.players,
		blobs.availableTiles,
		blobs.discardedTiles,
		blobs.lastAction,
		g.UpdatedAt,
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", g.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return game.Errorf(game.KindNotFound, "game %s not found", g.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game %s: %w", g.ID, err)
	}

	return nil
}

// ListActions returns a game's action log in commit order.
func (r *GameRepository) ListActions(ctx context.Context, gameID string) ([]*game.ActionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, game_id, actor_user_id, kind, payload, timestamp
		FROM game_actions WHERE game_id = ? ORDER BY id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions for game %s: %w", gameID, err)
	}
	defer rows.Close()

	var records []*game.ActionRecord
	for rows.Next() {
		var rec game.ActionRecord
		var kind string
		var payload sql.NullString
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.ActorUserID, &kind, &payload, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan action record: %w", err)
		}
		rec.Kind = game.ActionKind(kind)
		if payload.Valid && payload.String != "" {
			rec.Payload = json.RawMessage(payload.String)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// CountGamesByStatus aggregates games per lifecycle status.
func (r *GameRepository) CountGamesByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM games GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

type gameBlobs struct {
	turnOrder      string
	board          string
	players        string
	availableTiles string
	discardedTiles string
	lastAction     sql.NullString
}

func marshalGame(g *game.Game) (*gameBlobs, error) {
	turnOrder, err := json.Marshal(g.TurnOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn order: %w", err)
	}
	board, err := json.Marshal(g.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}
	players, err := json.Marshal(g.Players)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal players: %w", err)
	}
	available, err := json.Marshal(g.AvailableTiles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal available tiles: %w", err)
	}
	discarded, err := json.Marshal(g.DiscardedTiles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal discarded tiles: %w", err)
	}

	blobs := &gameBlobs{
		turnOrder:      string(turnOrder),
		board:          string(board),
		players:        string(players),
		availableTiles: string(available),
		discardedTiles: string(discarded),
	}

	if g.LastAction != nil {
		lastAction, err := json.Marshal(g.LastAction)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal last action: %w", err)
		}
		blobs.lastAction = sql.NullString{String: string(lastAction), Valid: true}
	}

	return blobs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *GameRepository) scanGame(row rowScanner) (*game.Game, error) {
	var (
		g          game.Game
		roomID     sql.NullString
		status     string
		turnOrder  string
		board      string
		players    string
		available  string
		discarded  string
		lastAction sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(
		&g.ID,
		&roomID,
		&status,
		&g.CurrentRound,
		&g.TotalRounds,
		&g.CurrentTurnUserID,
		&turnOrder,
		&board,
		&players,
		&available,
		&discarded,
		&lastAction,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.RoomID = roomID.String
	g.Status = game.Status(status)
	g.CreatedAt = createdAt
	g.UpdatedAt = updatedAt

	if err := json.Unmarshal([]byte(turnOrder), &g.TurnOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turn order: %w", err)
	}
	if err := json.Unmarshal([]byte(board), &g.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	if err := json.Unmarshal([]byte(players), &g.Players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	if err := json.Unmarshal([]byte(available), &g.AvailableTiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal available tiles: %w", err)
	}
	if err := json.Unmarshal([]byte(discarded), &g.DiscardedTiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal discarded tiles: %w", err)
	}
	if lastAction.Valid && lastAction.String != "" {
		g.LastAction = &game.ActionRecord{}
		if err := json.Unmarshal([]byte(lastAction.String), g.LastAction); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last action: %w", err)
		}
	}

	return &g, nil
}

func (r *GameRepository) gameExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
