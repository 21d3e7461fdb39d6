package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"hanyang/pkg/logger"
)

const backupPrefix = "hanyang_"

// BackupConfig holds backup configuration
type BackupConfig struct {
	BackupDir  string
	MaxBackups int

	AutoBackup     bool
	BackupInterval time.Duration
}

// DefaultBackupConfig returns default backup configuration
func DefaultBackupConfig(dataDir string) *BackupConfig {
	return &BackupConfig{
		BackupDir:      filepath.Join(dataDir, "backups"),
		MaxBackups:     7,
		AutoBackup:     true,
		BackupInterval: 6 * time.Hour,
	}
}

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupManager creates consistent snapshots of the live database and
// prunes old ones. Backups use VACUUM INTO, so they are taken without
// stopping writers.
type BackupManager struct {
	db     *DB
	config *BackupConfig
	logger *logger.ColoredLogger

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewBackupManager creates a new backup manager
func NewBackupManager(db *DB, config *BackupConfig) *BackupManager {
	bm := &BackupManager{
		db:     db,
		config: config,
		logger: logger.NewColoredLogger("BACKUP", logger.ColorBrightPurple),
	}

	if err := os.MkdirAll(config.BackupDir, 0755); err != nil {
		bm.logger.Error("Failed to create backup directory: %v", err)
	}

	return bm
}

// Start begins automatic backup scheduling
func (bm *BackupManager) Start() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if !bm.config.AutoBackup || bm.running {
		return
	}
	bm.stopChan = make(chan struct{})
	bm.running = true
	go bm.run(bm.stopChan)
	bm.logger.Info("Backup scheduler started (every %v)", bm.config.BackupInterval)
}

// Stop stops automatic backup scheduling
func (bm *BackupManager) Stop() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if !bm.running {
		return
	}
	close(bm.stopChan)
	bm.running = false
	bm.logger.Info("Backup scheduler stopped")
}

func (bm *BackupManager) run(stop chan struct{}) {
	ticker := time.NewTicker(bm.config.BackupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := bm.CreateBackup(); err != nil {
				bm.logger.Error("Scheduled backup failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}

// CreateBackup writes a timestamped backup and prunes backups beyond the
// retention limit.
func (bm *BackupManager) CreateBackup() (*BackupInfo, error) {
	start := time.Now()
	filename := fmt.Sprintf("%s%s.db", backupPrefix, start.Format("20060102_150405"))
	backupPath := filepath.Join(bm.config.BackupDir, filename)

	bm.logger.Info("Creating backup: %s", filename)

	if err := bm.db.Backup(backupPath); err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}

	info := &BackupInfo{
		Filename:  filename,
		Size:      fileInfo.Size(),
		CreatedAt: start,
	}

	bm.logger.Info("Backup completed: %s (%d bytes, %v)", filename, info.Size, time.Since(start))

	if err := bm.cleanupOldBackups(); err != nil {
		bm.logger.Warn("Failed to cleanup old backups: %v", err)
	}

	return info, nil
}

// ListBackups returns the available backups, newest first.
func (bm *BackupManager) ListBackups() ([]*BackupInfo, error) {
	files, err := os.ReadDir(bm.config.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []*BackupInfo
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), backupPrefix) {
			continue
		}

		fileInfo, err := file.Info()
		if err != nil {
			continue
		}

		backups = append(backups, &BackupInfo{
			Filename:  file.Name(),
			Size:      fileInfo.Size(),
			CreatedAt: fileInfo.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// DeleteBackup deletes a specific backup
func (bm *BackupManager) DeleteBackup(filename string) error {
	backupPath := filepath.Join(bm.config.BackupDir, filename)

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", filename)
	}

	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	bm.logger.Info("Deleted backup: %s", filename)
	return nil
}

func (bm *BackupManager) cleanupOldBackups() error {
	backups, err := bm.ListBackups()
	if err != nil {
		return err
	}

	if len(backups) <= bm.config.MaxBackups {
		return nil
	}

	for i := bm.config.MaxBackups; i < len(backups); i++ {
		if err := bm.DeleteBackup(backups[i].Filename); err != nil {
			bm.logger.Warn("Failed to delete old backup %s: %v", backups[i].Filename, err)
		}
	}

	return nil
}
