// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Backup copies the SQLite database file to a timestamped sibling before
// a bulk import touches it, and returns the backup path. Only meaningful
// for file-backed SQLite; callers on PostgreSQL or :memory: skip it.
func Backup(dbPath string) (string, error) {
	if dbPath == "" || dbPath == ":memory:" {
		return "", errors.New("no file-backed database to back up")
	}

	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database for backup: %w", err)
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.%s.bak", dbPath, time.Now().Format("20060102-150405"))
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync backup: %w", err)
	}

	return backupPath, nil
}
