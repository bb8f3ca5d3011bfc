// Package persistence provides a SQLite turn journal: one row per completed
// turn and per fired event, queryable while the game is live.
package persistence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/nation-sim/internal/engine"
)

// MemoryDSN is a process-lifetime database shared by every connection in
// the pool.
const MemoryDSN = "file:nationsim?mode=memory&cache=shared"

// DB wraps a SQLite connection for the turn journal.
type DB struct {
	conn *sqlx.DB
}

// GameRow is the stored description of a game.
type GameRow struct {
	ID            string  `db:"id" json:"game_id"`
	Seed          int64   `db:"seed" json:"seed"`
	Difficulty    string  `db:"difficulty" json:"difficulty"`
	MaxTurns      int     `db:"max_turns" json:"max_turns"`
	StepsPerTurn  int     `db:"steps_per_turn" json:"steps_per_turn"`
	NumAgents     int     `db:"num_agents" json:"num_agents"`
	InitialWealth float64 `db:"initial_wealth" json:"initial_wealth"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}

// TurnStat is one journaled turn.
type TurnStat struct {
	GameID           string  `db:"game_id" json:"game_id"`
	Turn             int     `db:"turn" json:"turn"`
	Gini             float64 `db:"gini" json:"gini"`
	MeanWealth       float64 `db:"mean_wealth" json:"mean_wealth"`
	MeanHappiness    float64 `db:"mean_happiness" json:"mean_happiness"`
	MeanProductivity float64 `db:"mean_productivity" json:"mean_productivity"`
	TaxRevenue       float64 `db:"tax_revenue" json:"tax_revenue"`
	UBIAmount        float64 `db:"ubi_amount" json:"ubi_amount"`
	TotalIncome      float64 `db:"total_income" json:"total_income"`
	Population       int     `db:"population" json:"population"`
	AgentsInPoverty  int     `db:"agents_in_poverty" json:"agents_in_poverty"`
	AgentsBankrupt   int     `db:"agents_bankrupt" json:"agents_bankrupt"`
	Composite        int     `db:"composite" json:"composite"`
	Grade            string  `db:"grade" json:"grade"`
}

// TurnEvent is one journaled event occurrence.
type TurnEvent struct {
	GameID   string `db:"game_id" json:"game_id"`
	Turn     int    `db:"turn" json:"turn"`
	EventID  string `db:"event_id" json:"event_id"`
	Category string `db:"category" json:"category"`
}

// Open opens or creates a SQLite database. dsn is a file path or a SQLite
// URI; in-memory databases are pinned to a single connection so they live
// as long as the DB.
func Open(dsn string) (*DB, error) {
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !memory {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		difficulty TEXT NOT NULL,
		max_turns INTEGER NOT NULL,
		steps_per_turn INTEGER NOT NULL,
		num_agents INTEGER NOT NULL,
		initial_wealth REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turn_stats (
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		gini REAL NOT NULL,
		mean_wealth REAL NOT NULL,
		mean_happiness REAL NOT NULL,
		mean_productivity REAL NOT NULL,
		tax_revenue REAL NOT NULL,
		ubi_amount REAL NOT NULL,
		total_income REAL NOT NULL,
		population INTEGER NOT NULL,
		agents_in_poverty INTEGER NOT NULL,
		agents_bankrupt INTEGER NOT NULL,
		composite INTEGER NOT NULL,
		grade TEXT NOT NULL,
		PRIMARY KEY (game_id, turn)
	);

	CREATE TABLE IF NOT EXISTS turn_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turn_events_game ON turn_events(game_id, turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordGame stores a game's description. Recording the same game twice
// replaces the earlier row.
func (db *DB) RecordGame(s engine.Summary) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO games
		(id, seed, difficulty, max_turns, steps_per_turn, num_agents, initial_wealth, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.GameID, s.Seed, string(s.Difficulty), s.MaxTurns, s.StepsPerTurn,
		s.NumAgents, s.InitialWealth, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record game %s: %w", s.GameID, err)
	}
	return nil
}

// RecordTurn stores one turn and its events in a single transaction.
// Recording the same turn again replaces its stats and events.
func (db *DB) RecordTurn(r engine.TurnResult) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := r.State
	_, err = tx.Exec(`INSERT OR REPLACE INTO turn_stats
		(game_id, turn, gini, mean_wealth, mean_happiness, mean_productivity,
		 tax_revenue, ubi_amount, total_income, population, agents_in_poverty,
		 agents_bankrupt, composite, grade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.Turn, st.Gini, st.MeanWealth, st.MeanHappiness, st.MeanProductivity,
		st.TaxRevenue, st.UBIAmount, st.TotalIncome, st.Population, st.AgentsInPoverty,
		st.AgentsBankrupt, r.Scores.Composite, r.Scores.Grade,
	)
	if err != nil {
		return fmt.Errorf("record turn %d: %w", r.Turn, err)
	}

	if _, err := tx.Exec(`DELETE FROM turn_events WHERE game_id = ? AND turn = ?`, r.GameID, r.Turn); err != nil {
		return fmt.Errorf("clear events for turn %d: %w", r.Turn, err)
	}

	if len(r.Events) > 0 {
		stmt, err := tx.Preparex(`INSERT INTO turn_events (game_id, turn, event_id, category)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range r.Events {
			if _, err := stmt.Exec(r.GameID, r.Turn, e.ID, string(e.Category)); err != nil {
				return fmt.Errorf("record event %s: %w", e.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Game returns the stored description of a game.
func (db *DB) Game(id string) (GameRow, error) {
	var g GameRow
	err := db.conn.Get(&g, `SELECT id, seed, difficulty, max_turns, steps_per_turn,
		num_agents, initial_wealth, created_at FROM games WHERE id = ?`, id)
	return g, err
}

// LoadTurnStats returns journaled turns in [from, to] in turn order. A
// non-positive to means no upper bound; a non-positive limit means no limit.
func (db *DB) LoadTurnStats(gameID string, from, to, limit int) ([]TurnStat, error) {
	if to <= 0 {
		to = int(^uint32(0) >> 1)
	}
	if limit <= 0 {
		limit = -1
	}
	var rows []TurnStat
	err := db.conn.Select(&rows, `SELECT game_id, turn, gini, mean_wealth, mean_happiness,
		mean_productivity, tax_revenue, ubi_amount, total_income, population,
		agents_in_poverty, agents_bankrupt, composite, grade
		FROM turn_stats WHERE game_id = ? AND turn >= ? AND turn <= ?
		ORDER BY turn ASC LIMIT ?`,
		gameID, from, to, limit,
	)
	return rows, err
}

// LoadTurnEvents returns the most recent events for a game, newest first.
func (db *DB) LoadTurnEvents(gameID string, limit int) ([]TurnEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []TurnEvent
	err := db.conn.Select(&rows, `SELECT game_id, turn, event_id, category
		FROM turn_events WHERE game_id = ? ORDER BY id DESC LIMIT ?`,
		gameID, limit,
	)
	return rows, err
}

// EventCounts returns how many times each event fired in a game.
func (db *DB) EventCounts(gameID string) (map[string]int, error) {
	var rows []struct {
		EventID string `db:"event_id"`
		N       int    `db:"n"`
	}
	err := db.conn.Select(&rows, `SELECT event_id, COUNT(*) AS n FROM turn_events
		WHERE game_id = ? GROUP BY event_id`, gameID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.EventID] = r.N
	}
	return out, nil
}

// DeleteGame removes a game and all of its journaled turns.
func (db *DB) DeleteGame(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM turn_events WHERE game_id = ?",
		"DELETE FROM turn_stats WHERE game_id = ?",
		"DELETE FROM games WHERE id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete game %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("journal purged", "game_id", id)
	return nil
}
