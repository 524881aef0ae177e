// Package extract pulls a normalized metadata record out of a file whose
// format is already known.
//
// There is one strategy per metadata-capable family (still image, HEIF-style
// image, video container), selected by signature.Kind. Extractors never
// substitute the filesystem modification time for a missing embedded
// timestamp; that fallback belongs to the createdat package.
package extract

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/quidome/chk-recover/pkg/signature"
)

// ErrExtractionFailed is returned when a decoder cannot read the file at all.
var ErrExtractionFailed = errors.New("metadata extraction failed")

// Record is the normalized metadata of one file. Zero values mean absent.
type Record struct {
	// CreationTimeRaw is the timestamp exactly as stored in the file.
	CreationTimeRaw string
	// CreationTag names the tag or box CreationTimeRaw was read from.
	CreationTag string

	Width  int
	Height int

	ContainerFormat string
	DurationSeconds float64
}

// HasDimensions reports whether both width and height are known.
func (r Record) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// Extractor dispatches to the strategy for a detected format.
type Extractor struct {
	log zerolog.Logger
}

// New returns an Extractor that reports details to log.
func New(log zerolog.Logger) *Extractor {
	return &Extractor{log: log.With().Str("component", "extract").Logger()}
}

// With returns an Extractor reporting to log, typically one already carrying
// the file being processed.
func (e *Extractor) With(log zerolog.Logger) *Extractor {
	return New(log)
}

// Extract reads metadata for m from r. r is rewound before use.
//
// Formats without a strategy yield an empty record. Decoder failures are
// wrapped in ErrExtractionFailed.
func (e *Extractor) Extract(r io.ReadSeeker, m signature.Match) (Record, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Record{}, err
	}

	switch m.Kind {
	case signature.KindStillImage:
		return e.stillImage(r, m.Format)
	case signature.KindHEIF:
		return e.heif(r)
	case signature.KindVideo:
		return e.video(r, m.Format)
	default:
		return Record{}, nil
	}
}
