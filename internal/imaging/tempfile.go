package imaging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// withTempFile creates a temp file in dir, hands it to fn and removes it afterwards,
// whether fn succeeds, fails or panics.
func withTempFile(dir, pattern string, fn func(f *os.File) error) error {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("remove temp upload", "path", f.Name(), "error", err)
		}
	}()
	return fn(f)
}
