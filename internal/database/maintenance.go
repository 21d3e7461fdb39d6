package database

import (
	"sync"
	"time"

	"hanyang/pkg/logger"
)

// Maintainer runs periodic housekeeping on the live database: WAL
// checkpointing keeps the log from growing unbounded under the
// append-heavy action log, ANALYZE keeps the query planner current.
type Maintainer struct {
	db       *DB
	interval time.Duration
	logger   *logger.ColoredLogger

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool

	statsMu  sync.Mutex
	lastRun  time.Time
	runCount int64
}

// NewMaintainer creates a maintainer with the given run interval.
func NewMaintainer(db *DB, interval time.Duration) *Maintainer {
	return &Maintainer{
		db:       db,
		interval: interval,
		logger:   logger.DBLogger,
	}
}

// Start launches the maintenance loop.
func (m *Maintainer) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.stopChan = make(chan struct{})
	m.running = true
	go m.run(m.stopChan)
	m.logger.Info("Database maintenance started (every %v)", m.interval)
}

// Stop halts the maintenance loop.
func (m *Maintainer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	close(m.stopChan)
	m.running = false
	m.logger.Info("Database maintenance stopped")
}

func (m *Maintainer) run(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunOnce()
		case <-stop:
			return
		}
	}
}

// RunOnce performs one maintenance pass.
func (m *Maintainer) RunOnce() {
	start := time.Now()

	operations := []string{
		"PRAGMA wal_checkpoint(TRUNCATE)",
		"PRAGMA optimize",
		"ANALYZE",
	}

	for _, op := range operations {
		if _, err := m.db.Exec(op); err != nil {
			m.logger.Warn("Maintenance operation %q failed: %v", op, err)
		} else {
			m.logger.Debug("Executed: %s", op)
		}
	}

	m.statsMu.Lock()
	m.lastRun = start
	m.runCount++
	m.statsMu.Unlock()

	m.logger.Debug("Maintenance pass completed in %v", time.Since(start))
}

// MaintenanceStats reports the loop's activity.
type MaintenanceStats struct {
	LastRun  time.Time `json:"last_run"`
	RunCount int64     `json:"run_count"`
}

// Stats returns a snapshot of maintenance activity.
func (m *Maintainer) Stats() MaintenanceStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return MaintenanceStats{LastRun: m.lastRun, RunCount: m.runCount}
}
