package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

const (
	// MaxBackups is the number of user-config backups retained.
	MaxBackups = 3

	// BackupSuffix marks a backup file.
	BackupSuffix = ".bak"
)

// BackupUserConfig copies the current per-user config.toml to a
// timestamped backup file, then trims old backups beyond MaxBackups.
// Returns "" if no user config exists yet.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	timestamp := time.Now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, timestamp)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", cqserrors.Wrap(cqserrors.KindIO, "read config for backup", err)
	}
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return "", cqserrors.Wrap(cqserrors.KindIO, "write config backup", err)
	}

	if err := cleanupOldBackups(); err != nil {
		return backupPath, nil // backup itself succeeded; cleanup is best-effort
	}
	return backupPath, nil
}

// ListUserConfigBackups returns all backup files, newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	dir := filepath.Dir(configPath)
	base := filepath.Base(configPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cqserrors.Wrap(cqserrors.KindIO, "list config directory", err)
	}

	prefix := base + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		infoI, errI := os.Stat(backups[i])
		infoJ, errJ := os.Stat(backups[j])
		if errI != nil || errJ != nil {
			return false
		}
		return infoI.ModTime().After(infoJ.ModTime())
	})
	return backups, nil
}

func cleanupOldBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackups {
		return nil
	}
	for _, backup := range backups[MaxBackups:] {
		_ = os.Remove(backup)
	}
	return nil
}

// RestoreUserConfig replaces the current per-user config with backupPath's
// contents, backing up the current config first if one exists.
func RestoreUserConfig(backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "stat backup file", err)
	}

	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "read backup file", err)
	}

	return AtomicWriteFile(GetUserConfigPath(), data, 0o600)
}
