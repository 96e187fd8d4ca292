package telemetry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/colony/config"
)

// RunRecord is one simulation run in the history store.
type RunRecord struct {
	ID         string `db:"id"`
	Seed       int64  `db:"seed"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	EndTick    int32  `db:"end_tick"`
	ConfigYAML string `db:"config_yaml"`
}

// Store persists run history to SQLite: one row per run and one per
// telemetry window.
type Store struct {
	conn  *sqlx.DB
	runID string
}

// OpenStore opens or creates a run-history database at path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT '',
		end_tick INTEGER NOT NULL DEFAULT 0,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		window_start INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		farmers INTEGER NOT NULL,
		drones INTEGER NOT NULL,
		farmer_fund INTEGER NOT NULL,
		drone_fund INTEGER NOT NULL,
		busy_agents INTEGER NOT NULL,
		sales INTEGER NOT NULL,
		farmer_spawns INTEGER NOT NULL,
		drone_spawns INTEGER NOT NULL,
		rocks_mined INTEGER NOT NULL,
		tiles_tilled INTEGER NOT NULL,
		seeds_planted INTEGER NOT NULL,
		harvests INTEGER NOT NULL,
		abandoned_cargo INTEGER NOT NULL,
		planning_misses INTEGER NOT NULL,
		rock_redirects INTEGER NOT NULL,
		claim_conflicts INTEGER NOT NULL,
		invariant_violations INTEGER NOT NULL,
		rock_cells INTEGER NOT NULL,
		tilled_cells INTEGER NOT NULL,
		plant_cells INTEGER NOT NULL,
		live_plants INTEGER NOT NULL,
		mature_plants INTEGER NOT NULL,
		carried_plants INTEGER NOT NULL,
		growth_mean REAL NOT NULL,
		growth_std REAL NOT NULL,
		growth_p50 REAL NOT NULL,
		growth_p90 REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_windows_run ON windows(run_id, window_end);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// BeginRun records a new run and makes it the target of RecordWindow.
func (s *Store) BeginRun(seed int64, cfg *config.Config) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	run := RunRecord{
		ID:         uuid.New().String(),
		Seed:       seed,
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
		ConfigYAML: string(cfgYAML),
	}
	if _, err := s.conn.NamedExec(`INSERT INTO runs (id, seed, started_at, config_yaml)
		VALUES (:id, :seed, :started_at, :config_yaml)`, run); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	s.runID = run.ID
	return run.ID, nil
}

// RunID returns the current run, or "" before BeginRun.
func (s *Store) RunID() string {
	return s.runID
}

// RecordWindow stores one telemetry window under the current run.
func (s *Store) RecordWindow(stats WindowStats) error {
	if s.runID == "" {
		return fmt.Errorf("record window: no run started")
	}
	stats.RunID = s.runID

	_, err := s.conn.NamedExec(`INSERT INTO windows (
		run_id, window_start, window_end, sim_time,
		farmers, drones, farmer_fund, drone_fund, busy_agents,
		sales, farmer_spawns, drone_spawns, rocks_mined, tiles_tilled, seeds_planted, harvests,
		abandoned_cargo, planning_misses, rock_redirects, claim_conflicts, invariant_violations,
		rock_cells, tilled_cells, plant_cells, live_plants, mature_plants, carried_plants,
		growth_mean, growth_std, growth_p50, growth_p90
	) VALUES (
		:run_id, :window_start, :window_end, :sim_time,
		:farmers, :drones, :farmer_fund, :drone_fund, :busy_agents,
		:sales, :farmer_spawns, :drone_spawns, :rocks_mined, :tiles_tilled, :seeds_planted, :harvests,
		:abandoned_cargo, :planning_misses, :rock_redirects, :claim_conflicts, :invariant_violations,
		:rock_cells, :tilled_cells, :plant_cells, :live_plants, :mature_plants, :carried_plants,
		:growth_mean, :growth_std, :growth_p50, :growth_p90
	)`, stats)
	if err != nil {
		return fmt.Errorf("insert window: %w", err)
	}
	return nil
}

// FinishRun stamps the current run with its final tick.
func (s *Store) FinishRun(tick int32) error {
	if s.runID == "" {
		return nil
	}
	_, err := s.conn.Exec("UPDATE runs SET finished_at = ?, end_tick = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), tick, s.runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Runs returns every recorded run, oldest first.
func (s *Store) Runs() ([]RunRecord, error) {
	var runs []RunRecord
	err := s.conn.Select(&runs, "SELECT id, seed, started_at, finished_at, end_tick, config_yaml FROM runs ORDER BY started_at, id")
	return runs, err
}

// Windows returns the telemetry windows of a run in tick order.
func (s *Store) Windows(runID string) ([]WindowStats, error) {
	var windows []WindowStats
	err := s.conn.Select(&windows, `SELECT
		run_id, window_start, window_end, sim_time,
		farmers, drones, farmer_fund, drone_fund, busy_agents,
		sales, farmer_spawns, drone_spawns, rocks_mined, tiles_tilled, seeds_planted, harvests,
		abandoned_cargo, planning_misses, rock_redirects, claim_conflicts, invariant_violations,
		rock_cells, tilled_cells, plant_cells, live_plants, mature_plants, carried_plants,
		growth_mean, growth_std, growth_p50, growth_p90
		FROM windows WHERE run_id = ? ORDER BY window_end`, runID)
	return windows, err
}
