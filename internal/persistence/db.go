// Package persistence provides SQLite-based storage of simulation runs,
// fleet snapshots and adaptation decisions.
package persistence

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/fleet-adapt/internal/engine"
	"github.com/talgya/fleet-adapt/internal/fleet"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
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
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		algorithm TEXT NOT NULL,
		fishers INTEGER NOT NULL,
		started TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fishers (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		home_x INTEGER NOT NULL,
		home_y INTEGER NOT NULL,
		spot_x INTEGER NOT NULL,
		spot_y INTEGER NOT NULL,
		catchability REAL NOT NULL,
		cash REAL NOT NULL,
		last_profit REAL,
		trips INTEGER NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		fisher_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		verdict TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		profit REAL,
		peer_id INTEGER NOT NULL,
		severed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_run_tick ON decisions(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_decisions_fisher ON decisions(run_id, fisher_id);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one row of the runs table.
type Run struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	Algorithm string `db:"algorithm" json:"algorithm"`
	Fishers   int    `db:"fishers" json:"fishers"`
	Started   string `db:"started" json:"started"`
}

// Decision is one stored adaptation step.
type Decision struct {
	RunID    string   `db:"run_id" json:"run_id"`
	Tick     uint64   `db:"tick" json:"tick"`
	FisherID uint64   `db:"fisher_id" json:"fisher_id"`
	Action   string   `db:"action" json:"action"`
	Verdict  string   `db:"verdict" json:"verdict,omitempty"`
	X        int      `db:"x" json:"x"`
	Y        int      `db:"y" json:"y"`
	Profit   *float64 `db:"profit" json:"profit"` // null before the first haul
	PeerID   uint64   `db:"peer_id" json:"peer_id,omitempty"`
	Severed  bool     `db:"severed" json:"severed,omitempty"`
}

// StartRun registers a new run and returns its identifier.
func (db *DB) StartRun(seed int64, algorithm string, fishers int) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Algorithm: algorithm,
		Fishers:   fishers,
		Started:   time.Now().UTC().Format(time.RFC3339),
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO runs (id, seed, algorithm, fishers, started) VALUES (:id, :seed, :algorithm, :fishers, :started)",
		run,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, seed, algorithm, fishers, started FROM runs ORDER BY started DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// SaveFishers writes the fleet snapshot of a run (full replace).
func (db *DB) SaveFishers(runID string, fishers []*fleet.Fisher) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM fishers WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO fishers
		(run_id, id, name, home_x, home_y, spot_x, spot_y, catchability, cash, last_profit, trips)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range fishers {
		_, err := stmt.Exec(
			runID, f.ID, f.Name, f.Home.X, f.Home.Y, f.Spot.X, f.Spot.Y,
			f.Catchability, f.Cash, nullable(f.LastProfit), f.Trips,
		)
		if err != nil {
			return fmt.Errorf("insert fisher %d: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// SaveDecisions appends decisions to a run.
func (db *DB) SaveDecisions(runID string, decisions []engine.DecisionEvent) error {
	if len(decisions) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO decisions
		(run_id, tick, fisher_id, action, verdict, x, y, profit, peer_id, severed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range decisions {
		_, err := stmt.Exec(
			runID, d.Tick, d.Fisher, d.Action, d.Verdict,
			d.Spot.X, d.Spot.Y, nullable(d.Profit), d.Peer, d.Severed,
		)
		if err != nil {
			return fmt.Errorf("insert decision tick %d fisher %d: %w", d.Tick, d.Fisher, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends events to a run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair against a run.
func (db *DB) SaveMeta(runID, key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", runID, key)
	return value, err
}

// SaveRunState stores the fleet, the pending decisions and the clock.
func (db *DB) SaveRunState(runID string, sim *engine.Simulation) error {
	decisions := sim.DrainDecisions()
	slog.Info("saving run state", "run", runID, "fishers", len(sim.Fishers), "decisions", len(decisions))

	if err := db.SaveDecisions(runID, decisions); err != nil {
		sim.RequeueDecisions(decisions)
		return fmt.Errorf("save decisions: %w", err)
	}
	fishers, events, tick := sim.Snapshot()
	if err := db.SaveFishers(runID, fishers); err != nil {
		return fmt.Errorf("save fishers: %w", err)
	}
	if err := db.SaveEvents(runID, events); err != nil {
		sim.RequeueEvents(events)
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta(runID, "last_tick", fmt.Sprintf("%d", tick)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// RecentDecisions returns the newest decisions of a run.
func (db *DB) RecentDecisions(runID string, limit int) ([]Decision, error) {
	var out []Decision
	err := db.conn.Select(&out, `SELECT run_id, tick, fisher_id, action, verdict, x, y, profit, peer_id, severed
		FROM decisions WHERE run_id = ? ORDER BY id DESC LIMIT ?`, runID, limit)
	return out, err
}

// FisherHistory returns one fisher's decisions in tick order.
func (db *DB) FisherHistory(runID string, fisherID uint64, limit int) ([]Decision, error) {
	var out []Decision
	err := db.conn.Select(&out, `SELECT run_id, tick, fisher_id, action, verdict, x, y, profit, peer_id, severed
		FROM decisions WHERE run_id = ? AND fisher_id = ? ORDER BY tick ASC, id ASC LIMIT ?`, runID, fisherID, limit)
	return out, err
}

// RecentEvents returns the most recent N events of a run.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

func nullable(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
