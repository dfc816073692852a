// Package storage provides SQLite-based persistence for weather snapshots
// and simulation runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-weather/internal/fx"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Snapshot is a saved weather state for one scene.
type Snapshot struct {
	ID        int64
	Name      string
	SceneID   string
	Preset    string
	Tick      uint64
	Instances []fx.InstanceState
	CreatedAt time.Time
}

// NewSnapshot builds an unsaved snapshot of a scene's weather, named after
// the scene and the current time.
func NewSnapshot(sceneID, preset string, tick uint64, states []fx.InstanceState) Snapshot {
	return Snapshot{
		Name:      fmt.Sprintf("%s %s", sceneID, time.Now().Format("Jan 02 15:04:05")),
		SceneID:   sceneID,
		Preset:    preset,
		Tick:      tick,
		Instances: states,
	}
}

// RunStats records the counters of a finished simulation run.
type RunStats struct {
	ID        int64
	Preset    string
	Ticks     uint64
	Spawned   uint64
	Expired   uint64
	Dropped   uint64
	PeakLive  int
	Capacity  int
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			scene_id TEXT NOT NULL,
			preset TEXT NOT NULL DEFAULT '',
			tick INTEGER NOT NULL DEFAULT 0,
			instances TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_scene ON snapshots(scene_id);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			preset TEXT NOT NULL,
			ticks INTEGER NOT NULL,
			spawned INTEGER NOT NULL,
			expired INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			peak_live INTEGER NOT NULL,
			capacity INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_preset ON runs(preset);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot stores a snapshot and returns its ID.
// Instances are kept as a YAML document so they stay readable in the database.
func (s *Store) SaveSnapshot(snap Snapshot) (int64, error) {
	doc, err := yaml.Marshal(snap.Instances)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot encode instances: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO snapshots (name, scene_id, preset, tick, instances)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.Name, snap.SceneID, snap.Preset, int64(snap.Tick), string(doc),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// LoadSnapshot returns the snapshot with the given ID, or ErrNotFound.
func (s *Store) LoadSnapshot(id int64) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, name, scene_id, preset, tick, instances, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestSnapshot returns the newest snapshot for a scene, or ErrNotFound.
func (s *Store) LatestSnapshot(sceneID string) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, name, scene_id, preset, tick, instances, created_at
		 FROM snapshots WHERE scene_id = ?
		 ORDER BY id DESC LIMIT 1`,
		sceneID,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns snapshots newest first. An empty sceneID lists all
// scenes.
func (s *Store) ListSnapshots(sceneID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, name, scene_id, preset, tick, instances, created_at
		 FROM snapshots
		 WHERE ? = '' OR scene_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sceneID, sceneID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return snaps, nil
}

// DeleteSnapshot removes a snapshot. Deleting a missing ID returns ErrNotFound.
func (s *Store) DeleteSnapshot(id int64) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: cannot delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var tick int64
	var doc string
	var createdAt any

	if err := row.Scan(&snap.ID, &snap.Name, &snap.SceneID, &snap.Preset, &tick, &doc, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("storage: cannot scan row: %w", err)
	}
	snap.Tick = uint64(tick)
	snap.CreatedAt = parseTime(createdAt)

	if err := yaml.Unmarshal([]byte(doc), &snap.Instances); err != nil {
		return nil, fmt.Errorf("storage: snapshot %d has corrupt instances: %w", snap.ID, err)
	}
	return &snap, nil
}

// SaveRun records simulation counters and returns the row ID.
func (s *Store) SaveRun(run RunStats) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (preset, ticks, spawned, expired, dropped, peak_live, capacity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Preset, int64(run.Ticks), int64(run.Spawned), int64(run.Expired), int64(run.Dropped), run.PeakLive, run.Capacity,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRuns returns the latest runs, optionally filtered by preset.
func (s *Store) RecentRuns(preset string, limit int) ([]RunStats, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, preset, ticks, spawned, expired, dropped, peak_live, capacity, created_at
		 FROM runs
		 WHERE ? = '' OR preset = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		preset, preset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunStats
	for rows.Next() {
		var r RunStats
		var ticks, spawned, expired, dropped int64
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Preset, &ticks, &spawned, &expired, &dropped, &r.PeakLive, &r.Capacity, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Ticks = uint64(ticks)
		r.Spawned = uint64(spawned)
		r.Expired = uint64(expired)
		r.Dropped = uint64(dropped)
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
