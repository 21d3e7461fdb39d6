package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(&Config{
		Path:           filepath.Join(t.TempDir(), "hanyang-test.db"),
		MaxOpenConns:   2,
		MaxIdleConns:   2,
		MigrateOnStart: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewConnectionAppliesMigrations(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Health())

	version, err := db.GetMigrator().GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	sizes, err := db.GetTableSizes()
	require.NoError(t, err)
	assert.Contains(t, sizes, "games")
	assert.Contains(t, sizes, "game_actions")
	assert.Zero(t, sizes["games"])
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.GetMigrator().Migrate())

	version, err := db.GetMigrator().GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestMigrationStatus(t *testing.T) {
	db := openTestDB(t)

	status, err := db.GetMigrator().GetMigrationStatus()
	require.NoError(t, err)
	require.NotEmpty(t, status)

	assert.Equal(t, 1, status[0].Version)
	assert.Equal(t, "initial_schema", status[0].Name)
	assert.True(t, status[0].Applied)
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`CREATE TABLE scratch (n INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO scratch (n) VALUES (1)`)
		return err
	}))

	boom := errors.New("boom")
	err = db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO scratch (n) VALUES (2)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM scratch`).Scan(&count))
	assert.Equal(t, 1, count, "the failed transaction must leave no rows")
}

func TestBackupProducesWorkingCopy(t *testing.T) {
	dir := t.TempDir()
	db, err := NewConnection(&Config{
		Path:           filepath.Join(dir, "live.db"),
		MaxOpenConns:   2,
		MaxIdleConns:   2,
		MigrateOnStart: true,
	})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE scratch (n INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO scratch (n) VALUES (7)`)
	require.NoError(t, err)

	backupPath := filepath.Join(dir, "copies", "live-backup.db")
	require.NoError(t, db.Backup(backupPath))

	restored, err := NewConnection(&Config{
		Path:           backupPath,
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		MigrateOnStart: false,
	})
	require.NoError(t, err)
	defer restored.Close()

	var n int
	require.NoError(t, restored.QueryRow(`SELECT n FROM scratch`).Scan(&n))
	assert.Equal(t, 7, n)
}

func TestBackupManagerCreateListDelete(t *testing.T) {
	db := openTestDB(t)
	cfg := &BackupConfig{
		BackupDir:  filepath.Join(t.TempDir(), "backups"),
		MaxBackups: 5,
	}
	bm := NewBackupManager(db, cfg)

	info, err := bm.CreateBackup()
	require.NoError(t, err)
	assert.Positive(t, info.Size)
	assert.Contains(t, info.Filename, backupPrefix)

	backups, err := bm.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, info.Filename, backups[0].Filename)

	require.NoError(t, bm.DeleteBackup(info.Filename))
	backups, err = bm.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)

	assert.Error(t, bm.DeleteBackup("hanyang_never_existed.db"))
}

func TestBackupManagerPrunesOldBackups(t *testing.T) {
	db := openTestDB(t)
	dir := filepath.Join(t.TempDir(), "backups")
	bm := NewBackupManager(db, &BackupConfig{BackupDir: dir, MaxBackups: 2})

	// Seed two stale backups with distinct mtimes below the fresh one.
	now := time.Now()
	for i, name := range []string{"hanyang_20250101_000001.db", "hanyang_20250102_000001.db"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))
		mtime := now.Add(time.Duration(i-2) * time.Hour)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	info, err := bm.CreateBackup()
	require.NoError(t, err)

	backups, err := bm.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2, "retention keeps the newest two")
	assert.Equal(t, info.Filename, backups[0].Filename)
	assert.Equal(t, "hanyang_20250102_000001.db", backups[1].Filename)
}

func TestBackupManagerIgnoresForeignFiles(t *testing.T) {
	db := openTestDB(t)
	dir := filepath.Join(t.TempDir(), "backups")
	bm := NewBackupManager(db, &BackupConfig{BackupDir: dir, MaxBackups: 5})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	backups, err := bm.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestMaintainerRunOnce(t *testing.T) {
	db := openTestDB(t)
	m := NewMaintainer(db, time.Hour)

	m.RunOnce()

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.RunCount)
	assert.WithinDuration(t, time.Now(), stats.LastRun, 5*time.Second)
}

func TestGetDatabaseSize(t *testing.T) {
	db := openTestDB(t)

	sizes, err := db.GetDatabaseSize()
	require.NoError(t, err)
	assert.Positive(t, sizes["page_count"])
	assert.Positive(t, sizes["page_size"])
	assert.Equal(t, sizes["page_count"]*sizes["page_size"], sizes["total_size"])
}
