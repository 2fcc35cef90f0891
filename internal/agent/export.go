package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dexscreener-extractor/internal/domain"
)

// Export renders the rows of the last manual batch as pretty-printed JSON.
func (a *Agent) Export() (name string, data []byte, err error) {
	a.mu.Lock()
	batch := a.lastBatch
	a.mu.Unlock()
	if batch == nil {
		return "", nil, ErrNothingToExport
	}

	data, err = json.MarshalIndent(batch.Rows, "", "  ")
	if err != nil {
		return "", nil, err
	}
	return domain.ExportFileName(batch.CapturedAt), data, nil
}

// SaveExport writes Export's output into dir and returns the file path.
func (a *Agent) SaveExport(dir string) (string, error) {
	name, data, err := a.Export()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
