package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"hanyang/pkg/logger"
)

// DB wraps the sql connection with migration and maintenance helpers.
type DB struct {
	*sql.DB
	logger   *logger.ColoredLogger
	migrator *Migrator
}

// Config holds database configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// DefaultConfig returns a default database configuration
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Path:            filepath.Join(dataDir, "hanyang.db"),
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		MigrateOnStart:  true,
	}
}

// NewConnection opens the SQLite database and optionally migrates it.
func NewConnection(config *Config) (*DB, error) {
	log := logger.DBLogger

	dir := filepath.Dir(config.Path)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL keeps readers unblocked during action commits; the busy timeout
	// covers short write contention between the engine and maintenance.
	sqlDB, err := sql.Open("sqlite3", "file:"+config.Path+"?_foreign_keys=on&_journal_mode=WAL&_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		logger: log,
	}
	db.migrator = NewMigrator(sqlDB)

	if config.MigrateOnStart {
		if err := db.migrator.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	log.Info("Connected to SQLite database: %s", config.Path)
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		db.logger.Info("Closing database connection")
		return db.DB.Close()
	}
	return nil
}

// GetMigrator returns the database migrator
func (db *DB) GetMigrator() *Migrator {
	return db.migrator
}

// Health checks database health
func (db *DB) Health() error {
	return db.Ping()
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Backup writes a consistent copy of the database to backupPath using
// VACUUM INTO.
func (db *DB) Backup(backupPath string) error {
	dir := filepath.Dir(backupPath)
	if err := ensureDir(dir); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}

	db.logger.Info("Database backed up to: %s", backupPath)
	return nil
}

// GetDatabaseSize returns page-level size information.
func (db *DB) GetDatabaseSize() (map[string]int64, error) {
	sizes := make(map[string]int64)
	var pageCount, pageSize int64

	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}

	sizes["total_size"] = pageCount * pageSize
	sizes["page_count"] = pageCount
	sizes["page_size"] = pageSize

	return sizes, nil
}

// GetTableSizes returns the row count of each table in the database
func (db *DB) GetTableSizes() (map[string]int, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sizes := make(map[string]int)
	for _, tableName := range tables {
		var rowCount int
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)
		if err := db.QueryRow(countQuery).Scan(&rowCount); err != nil {
			db.logger.Warn("Failed to get row count for %s: %v", tableName, err)
			rowCount = 0
		}
		sizes[tableName] = rowCount
	}

	return sizes, nil
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
