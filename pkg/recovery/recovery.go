// Package recovery drives one lost-and-found file from classification to a
// placed, timestamped result.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quidome/chk-recover/pkg/classify"
	"github.com/quidome/chk-recover/pkg/createdat"
	"github.com/quidome/chk-recover/pkg/extract"
	"github.com/quidome/chk-recover/pkg/place"
	"github.com/quidome/chk-recover/pkg/plan"
	"github.com/quidome/chk-recover/pkg/reconcile"
	"github.com/quidome/chk-recover/pkg/signature"
)

var (
	// ErrPlacement wraps I/O failures while copying or renaming.
	ErrPlacement = errors.New("placement failed")
	// ErrTimestampApply wraps failures to set the recovered timestamp.
	ErrTimestampApply = errors.New("timestamp apply failed")
)

// SkipReason explains why a file was not placed. Empty means placed.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipEmpty         SkipReason = "empty"
	SkipUnknownType   SkipReason = "unknown-type"
	SkipAlreadyExists SkipReason = "already-exists"
	SkipFailed        SkipReason = "failed"
)

// Outcome is the result of processing one file.
type Outcome struct {
	Source string
	Target string

	Match     signature.Match
	Record    extract.Record
	Timestamp createdat.Result

	Size       SizeAssessment
	Dimensions DimensionAssessment

	Skip SkipReason
	// Existing compares the source with an already present target. Only set
	// for SkipAlreadyExists.
	Existing reconcile.Verdict
	// StampErr wraps ErrTimestampApply when the target could not be stamped.
	StampErr error
}

// Recovered reports whether the file was placed (or would be, in a dry run).
func (o Outcome) Recovered() bool {
	return o.Skip == SkipNone
}

// Options configures a Recoverer.
type Options struct {
	Plan plan.Options

	// Location interprets zone-less timestamps. Nil means time.Local.
	Location *time.Location

	// DryRun runs every stage except placing and stamping.
	DryRun bool
}

// Recoverer processes files against one registry. Safe for concurrent use.
type Recoverer struct {
	reg  *signature.Registry
	ex   *extract.Extractor
	log  zerolog.Logger
	opts Options

	// stamp applies the recovered time to a placed file.
	stamp func(path string, t time.Time) error

	// mu serialises the existence check and placement of targets.
	mu       sync.Mutex
	reserved map[string]bool
}

// New returns a Recoverer. It fails when opts.Plan is unusable.
func New(reg *signature.Registry, ex *extract.Extractor, log zerolog.Logger, opts Options) (*Recoverer, error) {
	if reg == nil {
		return nil, errors.New("nil signature registry")
	}
	if err := opts.Plan.Validate(); err != nil {
		return nil, err
	}
	if ex == nil {
		ex = extract.New(log)
	}
	return &Recoverer{
		reg:      reg,
		ex:       ex,
		log:      log,
		opts:     opts,
		stamp:    place.Stamp,
		reserved: make(map[string]bool),
	}, nil
}

// RecoverOne classifies, dates and places the file at path.
//
// The returned error is non-nil only with SkipFailed; every other skip is a
// normal outcome.
func (r *Recoverer) RecoverOne(ctx context.Context, path string) (Outcome, error) {
	out := Outcome{Source: path, Size: SizeNotAssessed, Dimensions: DimensionsNotApplicable}
	if err := ctx.Err(); err != nil {
		out.Skip = SkipFailed
		return out, err
	}

	log := r.log.With().Str("file", path).Logger()

	info, err := os.Stat(path)
	if err != nil {
		return r.fail(log, out, fmt.Errorf("stat source: %w", err))
	}
	if info.Size() == 0 {
		out.Skip = SkipEmpty
		log.Info().Str("reason", string(out.Skip)).Msg("skipped")
		return out, nil
	}

	m, ok, rec, err := r.inspect(log, path)
	if err != nil {
		return r.fail(log, out, err)
	}
	if !ok {
		out.Skip = SkipUnknownType
		log.Warn().Str("reason", string(out.Skip)).Msg("skipped")
		return out, nil
	}
	out.Match = m
	out.Record = rec

	ts := createdat.Resolve(rec.CreationTimeRaw, m.Kind, info.ModTime(), createdat.Options{Location: r.opts.Location})
	if ts.Err != nil {
		log.Error().Err(ts.Err).Str("raw", ts.Raw).Msg("timestamp unparseable, using file modification time")
	}
	log.Info().Time("timestamp", ts.Time).Str("source", string(ts.Source)).Msg("resolved")
	out.Timestamp = ts

	if m.Kind == signature.KindVideo {
		out.Size = AssessSize(rec.DurationSeconds, info.Size())
	}
	out.Dimensions = AssessDimensions(rec.Width, rec.Height, m.Kind)
	log.Info().Str("size", string(out.Size)).Str("dimensions", string(out.Dimensions)).Msg("assessed")
	if out.Size == SizeSuspicious {
		log.Warn().Float64("duration", rec.DurationSeconds).Int64("size", info.Size()).Msg("size does not match duration")
	}
	if out.Dimensions == DimensionsLikelyThumbnail {
		log.Warn().Int("width", rec.Width).Int("height", rec.Height).Msg("likely a thumbnail")
	}

	op, err := plan.Destination(path, m.Format.Extension(), ts.Time, r.opts.Plan)
	if err != nil {
		return r.fail(log, out, fmt.Errorf("%w: %w", ErrPlacement, err))
	}
	out.Target = op.DestinationPath

	verdict, exists, err := r.place(op)
	if err != nil {
		return r.fail(log, out, fmt.Errorf("%w: %w", ErrPlacement, err))
	}
	if exists {
		out.Skip = SkipAlreadyExists
		out.Existing = verdict
		log.Warn().Str("reason", string(out.Skip)).Str("target", op.DestinationPath).Str("existing", string(verdict)).Msg("skipped")
		return out, nil
	}

	if r.opts.DryRun {
		log.Info().Str("target", op.DestinationPath).Str("mode", string(op.Mode)).Msg("would place")
		return out, nil
	}
	log.Info().Str("target", op.DestinationPath).Str("mode", string(op.Mode)).Msg("placed")

	if err := r.stamp(op.DestinationPath, ts.Time); err != nil {
		out.StampErr = fmt.Errorf("%w: %w", ErrTimestampApply, err)
		log.Error().Err(out.StampErr).Msg("could not set timestamp")
	}
	return out, nil
}

// inspect classifies the file and extracts its metadata. The file is closed
// before placement so a rename never races an open handle.
func (r *Recoverer) inspect(log zerolog.Logger, path string) (signature.Match, bool, extract.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return signature.Match{}, false, extract.Record{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	m, ok, err := classify.Classify(f, r.reg)
	if err != nil || !ok {
		return m, ok, extract.Record{}, err
	}
	log.Info().Str("format", string(m.Format)).Str("kind", m.Kind.String()).Msg("classified")

	rec, err := r.ex.With(log).Extract(f, m)
	if err != nil {
		log.Error().Err(err).Msg("metadata extraction failed")
		return m, true, extract.Record{}, nil
	}
	log.Debug().
		Str("raw", rec.CreationTimeRaw).
		Str("tag", rec.CreationTag).
		Int("width", rec.Width).
		Int("height", rec.Height).
		Str("container", rec.ContainerFormat).
		Float64("duration", rec.DurationSeconds).
		Msg("extracted")
	return m, true, rec, nil
}

// place performs op unless its target is taken. exists is true when the
// target was already present (or reserved earlier in a dry run).
func (r *Recoverer) place(op plan.Operation) (reconcile.Verdict, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dst := op.DestinationPath
	if dst == op.SourcePath {
		return reconcile.VerdictIdentical, true, nil
	}

	taken, err := place.Exists(dst)
	if err != nil {
		return "", false, err
	}
	if taken {
		return r.compare(op), true, nil
	}
	if r.reserved[dst] {
		return reconcile.VerdictUnknown, true, nil
	}

	if r.opts.DryRun {
		r.reserved[dst] = true
		return "", false, nil
	}

	if err := place.Execute(op); err != nil {
		if errors.Is(err, place.ErrDestinationExists) {
			return r.compare(op), true, nil
		}
		return "", false, err
	}
	return "", false, nil
}

func (r *Recoverer) compare(op plan.Operation) reconcile.Verdict {
	verdict, err := reconcile.Compare(op.SourcePath, op.DestinationPath)
	if err != nil {
		r.log.Warn().Err(err).Str("file", op.SourcePath).Msg("could not compare with existing target")
	}
	return verdict
}

func (r *Recoverer) fail(log zerolog.Logger, out Outcome, err error) (Outcome, error) {
	out.Skip = SkipFailed
	log.Error().Err(err).Str("reason", string(out.Skip)).Msg("skipped")
	return out, err
}
