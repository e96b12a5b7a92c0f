package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"custodyPool/internal/model"
)

// JsonlWriter appends window stats to a JSONL file. A window written twice
// appears twice; consumers keep the last line per key.
type JsonlWriter struct {
	Path string
}

func (w *JsonlWriter) UpsertWindowStats(_ context.Context, stats []model.PoolWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	file, err := os.OpenFile(w.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, st := range stats {
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}
	return nil
}
