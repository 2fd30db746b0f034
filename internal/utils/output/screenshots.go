package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ScreenshotWriter persists PNG screenshots as <Dir>/<name>.png, shortening
// long names the same way as documents.
type ScreenshotWriter struct {
	Dir   string
	saved atomic.Int64
}

// Save writes data. It matches the crawler's screenshot handler signature.
func (w *ScreenshotWriter) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	path := filepath.Join(w.Dir, FileStem(name)+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	w.saved.Add(1)
	return nil
}

// Saved is the number of screenshots written so far.
func (w *ScreenshotWriter) Saved() int {
	return int(w.saved.Load())
}
