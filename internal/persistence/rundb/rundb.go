// Package rundb keeps a SQLite index of simulation runs: one row per
// run and one row per recorded step. All writes flow through a single
// writer goroutine so the simulation loop never blocks on the database.
package rundb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fgamador/evo2/internal/sim/world"
)

type DB struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqBegin reqKind = iota + 1
	reqTick
	reqFinish
)

type req struct {
	kind reqKind

	run    runRow
	tick   tickRow
	finish finishRow
}

type runRow struct {
	RunID     string
	Scenario  string
	Seed      int64
	StartedAt string
}

type tickRow struct {
	RunID string
	Stats world.TickStats
}

type finishRow struct {
	RunID      string
	FinishedAt string
	Steps      uint64
	FinalCells int
	TotalBorn  int
	TotalDied  int
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	d := &DB{
		db: db,
		// Room for long runs: tick rows queue here while the writer
		// batches commits.
		ch: make(chan req, 65536),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			steps INTEGER NOT NULL DEFAULT 0,
			final_cells INTEGER NOT NULL DEFAULT 0,
			total_born INTEGER NOT NULL DEFAULT 0,
			total_died INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			born INTEGER NOT NULL,
			died INTEGER NOT NULL,
			cells INTEGER NOT NULL,
			mean_health REAL NOT NULL,
			mean_energy REAL NOT NULL,
			food REAL NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains pending writes, stops the writer and closes the
// database.
func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
		err = d.db.Close()
	})
	return err
}

// BeginRun records a new run and returns a handle for its tick stream.
// The run id must be unique; callers generate it (uuid).
func (d *DB) BeginRun(runID, scenario string, seed int64) *RunHandle {
	d.enqueue(req{kind: reqBegin, run: runRow{
		RunID:     runID,
		Scenario:  scenario,
		Seed:      seed,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
	return &RunHandle{db: d, runID: runID}
}

func (d *DB) enqueue(r req) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- r:
	default:
		// Drop if the indexer falls behind; the runlog remains the
		// source of truth.
	}
}

// RunHandle streams one run's per-step rows into the index. It
// implements world.StatsLogger.
type RunHandle struct {
	db    *DB
	runID string
}

func (h *RunHandle) RunID() string { return h.runID }

func (h *RunHandle) WriteTick(s world.TickStats) error {
	h.db.enqueue(req{kind: reqTick, tick: tickRow{RunID: h.runID, Stats: s}})
	return nil
}

// Finish stamps the run's summary row.
func (h *RunHandle) Finish(steps uint64, finalCells, totalBorn, totalDied int) {
	h.db.enqueue(req{kind: reqFinish, finish: finishRow{
		RunID:      h.runID,
		FinishedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Steps:      steps,
		FinalCells: finalCells,
		TotalBorn:  totalBorn,
		TotalDied:  totalDied,
	}})
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID      string
	Scenario   string
	Seed       int64
	StartedAt  string
	FinishedAt string
	Steps      uint64
	FinalCells int
	TotalBorn  int
	TotalDied  int
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`SELECT run_id, scenario, seed, started_at, COALESCE(finished_at, ''),
		steps, final_cells, total_born, total_died
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Scenario, &r.Seed, &r.StartedAt, &r.FinishedAt,
			&r.Steps, &r.FinalCells, &r.TotalBorn, &r.TotalDied); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TickRows returns one run's recorded steps in tick order.
func (d *DB) TickRows(runID string) ([]world.TickStats, error) {
	rows, err := d.db.Query(`SELECT tick, born, died, cells, mean_health, mean_energy, food
		FROM ticks WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.TickStats
	for rows.Next() {
		var s world.TickStats
		if err := rows.Scan(&s.Tick, &s.Born, &s.Died, &s.Cells, &s.MeanHealth, &s.MeanEnergy, &s.Food); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) loop() {
	insertRun, _ := d.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,scenario,seed,started_at) VALUES(?,?,?,?)`)
	insertTick, _ := d.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,born,died,cells,mean_health,mean_energy,food) VALUES(?,?,?,?,?,?,?,?)`)
	updateRun, _ := d.db.Prepare(`UPDATE runs SET finished_at=?, steps=?, final_cells=?, total_born=?, total_died=? WHERE run_id=?`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if updateRun != nil {
			_ = updateRun.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 1000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := d.db.Begin()
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	// The ticker bounds how long a small batch can sit uncommitted
	// when no further requests arrive.
	flush := time.NewTicker(commitMaxWait / 4)
	defer flush.Stop()

	for {
		var r req
		select {
		case rr, ok := <-d.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		case <-flush.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqBegin:
			if insertRun == nil {
				break
			}
			if _, err := tx.Stmt(insertRun).Exec(r.run.RunID, r.run.Scenario, r.run.Seed, r.run.StartedAt); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqTick:
			if insertTick == nil {
				break
			}
			s := r.tick.Stats
			if _, err := tx.Stmt(insertTick).Exec(
				r.tick.RunID,
				int64(s.Tick),
				s.Born,
				s.Died,
				s.Cells,
				s.MeanHealth,
				s.MeanEnergy,
				s.Food,
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqFinish:
			if updateRun == nil {
				break
			}
			f := r.finish
			if _, err := tx.Stmt(updateRun).Exec(
				f.FinishedAt,
				int64(f.Steps),
				f.FinalCells,
				f.TotalBorn,
				f.TotalDied,
				f.RunID,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
