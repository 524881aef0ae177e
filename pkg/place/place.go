// Package place copies or renames recovered files without ever overwriting an
// existing target, and stamps the recovered timestamp on the result.
package place

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/quidome/chk-recover/pkg/plan"
)

var (
	// ErrDestinationExists is returned when the target path is already taken.
	ErrDestinationExists = errors.New("destination file already exists")
)

// Execute performs op according to its mode.
//
// Rename checks for an existing target before renaming; callers running
// several placements concurrently must serialise Execute per target name.
func Execute(op plan.Operation) error {
	switch op.Mode {
	case plan.ModeCopy:
		return Copy(op.SourcePath, op.DestinationPath)
	case plan.ModeRename:
		return Rename(op.SourcePath, op.DestinationPath)
	default:
		return fmt.Errorf("%w: %q", plan.ErrInvalidMode, op.Mode)
	}
}

// Exists reports whether path is taken by any kind of file.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Copy copies src to dst, creating dst's directory. It never overwrites.
func Copy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy content: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		_ = dstFile.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("sync: %w", err)
	}

	if err := dstFile.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}

// Rename moves src to dst unless dst already exists.
func Rename(src, dst string) error {
	exists, err := Exists(dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if exists {
		return ErrDestinationExists
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Stamp sets both access and modification time of path to t.
func Stamp(path string, t time.Time) error {
	if err := os.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("set times: %w", err)
	}
	return nil
}
