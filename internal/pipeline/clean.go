package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Clean deletes every sentinel, every log file and every generated
// per-genome database directory. Irreversible: the next run starts the
// pipeline from scratch. Input assemblies are never touched.
func Clean(units []string, store *FileStore, layout Layout) (removed int, err error) {
	removed, err = store.Clear()
	if err != nil {
		return removed, fmt.Errorf("failed to remove sentinels: %w", err)
	}

	logs, err := filepath.Glob(filepath.Join(layout.Logs, "*.log"))
	if err != nil {
		return removed, err
	}
	for _, logPath := range logs {
		if err := os.Remove(logPath); err != nil {
			return removed, fmt.Errorf("failed to remove log %s: %w", logPath, err)
		}
		removed++
	}

	for _, unit := range units {
		unitDir := filepath.Dir(layout.DB(unit))
		if _, err := os.Stat(unitDir); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(unitDir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", unitDir, err)
		}
		removed++
	}

	return removed, nil
}
