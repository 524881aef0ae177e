package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Mode selects how a recovered file is placed.
type Mode string

const (
	// ModeCopy writes a duplicate under a destination directory.
	ModeCopy Mode = "copy"
	// ModeRename renames the file in place.
	ModeRename Mode = "rename"
)

// ErrInvalidMode is returned for an unknown Mode.
var ErrInvalidMode = errors.New("invalid placement mode")

// ErrMissingDestination is returned in copy mode without a destination root.
var ErrMissingDestination = errors.New("copy mode requires a destination directory")

// Operation represents a planned placement from source to destination.
type Operation struct {
	Mode            Mode
	SourcePath      string
	DestinationPath string
}

// Options configures Destination.
type Options struct {
	Mode Mode

	// DestRoot is the copy destination. Ignored in rename mode.
	DestRoot string

	// ByYear places copies under <DestRoot>/YYYY/ using the resolved
	// timestamp.
	ByYear bool
}

// Validate checks that opts describe a usable placement.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeRename:
		return nil
	case ModeCopy:
		if o.DestRoot == "" {
			return ErrMissingDestination
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, o.Mode)
	}
}

// Stem returns filename without its last extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// Destination computes where sourcePath goes once its real extension ext is
// known.
//
// Rename mode keeps the file in its directory: <dir>/<stem><ext>.
// Copy mode uses <DestRoot>/<stem><ext>, or <DestRoot>/YYYY/<stem><ext> with
// ByYear.
func Destination(sourcePath, ext string, createdAt time.Time, opts Options) (Operation, error) {
	if err := opts.Validate(); err != nil {
		return Operation{}, err
	}

	name := Stem(filepath.Base(sourcePath)) + ext

	var dir string
	switch opts.Mode {
	case ModeRename:
		dir = filepath.Dir(sourcePath)
	case ModeCopy:
		dir = opts.DestRoot
		if opts.ByYear && !createdAt.IsZero() {
			dir = filepath.Join(dir, fmt.Sprintf("%04d", createdAt.Year()))
		}
	}

	return Operation{
		Mode:            opts.Mode,
		SourcePath:      sourcePath,
		DestinationPath: filepath.Join(dir, name),
	}, nil
}
