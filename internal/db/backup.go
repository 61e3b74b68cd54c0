package db

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amanex/amanex/internal/config"
)

// Backup copies the SQLite database file to a timestamped sibling file and
// returns the backup path. It is advisory: the copy is not isolated from
// concurrent writers. Only the sqlite driver supports file backups.
func Backup(cfg config.DatabaseConfig) (string, error) {
	if cfg.Driver != "sqlite" && cfg.Driver != "" {
		return "", fmt.Errorf("db: backup: not supported for driver %q", cfg.Driver)
	}
	return BackupFile(cfg.Path, time.Now().UTC())
}

// BackupFile copies path to path.bak.<timestamp>.
func BackupFile(path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("db: backup: open %s: %w", path, err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s.bak.%s", path, now.Format("20060102-150405"))
	dst, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("db: backup: create %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("db: backup: copy to %s: %w", name, err)
	}
	return name, nil
}
