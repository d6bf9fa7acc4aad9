package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"finance-app-go/pkg/logger"
	"gorm.io/gorm"
)

const (
	migrationsDirName = "migrations"
	// migrationLockKey serialises concurrent Migrate calls from the server and the ops CLI.
	migrationLockKey int64 = 0x66696e616e6365
)

// Migrate applies every .sql file in the nearest migrations directory that schema_migrations does
// not list yet. All pending files run in one transaction under an advisory lock, so a failed file
// leaves the schema untouched.
func Migrate(db *gorm.DB, log logger.Logger) error {
	dir, err := findMigrationsDir(migrationsDirName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("db.migrate: migrations directory not found, skipping")
			return nil
		}
		return err
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	applied := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		if err := ensureSchemaMigrations(tx); err != nil {
			return err
		}

		done, err := appliedMigrations(tx)
		if err != nil {
			return err
		}

		for _, name := range pendingMigrations(files, done) {
			contents, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			statement := strings.TrimSpace(string(contents))
			if statement != "" {
				if err := tx.Exec(statement).Error; err != nil {
					return fmt.Errorf("apply migration %s: %w", name, err)
				}
			}
			if err := tx.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error; err != nil {
				return err
			}
			applied++
			log.Info("db.migrate: applied", "file", name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("db.migrate: up to date", "applied", applied, "total", len(files))
	return nil
}

func ensureSchemaMigrations(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`).Error
}

func appliedMigrations(tx *gorm.DB) (map[string]struct{}, error) {
	var names []string
	if err := tx.Raw("SELECT filename FROM schema_migrations").Scan(&names).Error; err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(names))
	for _, name := range names {
		done[name] = struct{}{}
	}
	return done, nil
}

// migrationFiles lists the .sql files of dir in lexical order.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func pendingMigrations(files []string, done map[string]struct{}) []string {
	pending := make([]string, 0, len(files))
	for _, name := range files {
		if _, ok := done[name]; !ok {
			pending = append(pending, name)
		}
	}
	return pending
}

func findMigrationsDir(dirName string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
