package backup

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes auto-snapshots as timestamped JSON files under a
// directory, one file per run.
type FileSink struct {
	dir   string
	clock Clock
}

func NewFileSink(dir string, clock Clock) *FileSink {
	if clock == nil {
		clock = SystemClock
	}
	return &FileSink{dir: dir, clock: clock}
}

func (f *FileSink) Store(raw []byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	name := fmt.Sprintf("snapshot-%s.json", f.clock.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
