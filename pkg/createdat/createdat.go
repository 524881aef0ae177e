package createdat

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/quidome/chk-recover/pkg/signature"
)

// Source describes where a resolved timestamp was derived from.
//
// In order of preference:
//  1. from_tag_original: embedded image tag in canonical shape
//  2. from_tag_generic: embedded image tag, leniently parsed
//  3. from_container_date: media container date
//  4. from_filesystem_mtime: the source file's modification time
type Source string

const (
	SourceTagOriginal   Source = "from_tag_original"
	SourceTagGeneric    Source = "from_tag_generic"
	SourceContainerDate Source = "from_container_date"
	SourceMtime         Source = "from_filesystem_mtime"
)

// ErrTimestampUnparseable is carried in Result.Err when a raw timestamp was
// present but no stage could parse it.
var ErrTimestampUnparseable = errors.New("timestamp unparseable")

// Result is a resolved timestamp with its provenance.
type Result struct {
	Time   time.Time
	Source Source

	// Raw is the value the resolver was given.
	Raw string
	// Err is set when Raw was present but unusable; Time then holds the mtime.
	Err error
}

// Options configures Resolve.
type Options struct {
	// Location is used for timestamps that carry no zone. If nil, time.Local
	// is used.
	Location *time.Location
}

// Resolve turns a raw, format-specific timestamp into a single instant.
//
// It never fails: whatever cannot be parsed falls back to mtime.
func Resolve(raw string, kind signature.Kind, mtime time.Time, opts Options) Result {
	if raw == "" {
		return Result{Time: mtime, Source: SourceMtime}
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	if kind.IsImage() {
		cleaned := cleanTag(raw)
		if t, ok := parseStrict(cleaned, loc); ok {
			return Result{Time: t, Source: SourceTagOriginal, Raw: raw}
		}
		if !epochLike(cleaned) {
			if t, ok := parseLenient(cleaned, loc); ok {
				return Result{Time: t, Source: SourceTagGeneric, Raw: raw}
			}
		}
	} else if t, ok := parseLenient(raw, loc); ok {
		return Result{Time: t, Source: SourceContainerDate, Raw: raw}
	}

	return Result{
		Time:   mtime,
		Source: SourceMtime,
		Raw:    raw,
		Err:    fmt.Errorf("%w: %q", ErrTimestampUnparseable, raw),
	}
}

// cleanTag drops everything outside printable ASCII.
func cleanTag(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= 0x20 && c <= 0x7E {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

var (
	reStrict = regexp.MustCompile(`^(\d{4})[:/-](\d{2})[:/-](\d{2})[ T](\d{2}):(\d{2}):(\d{2})$`)
	reLoose  = regexp.MustCompile(`(\d{4})[:/.-](\d{1,2})[:/.-](\d{1,2})(?:[ T_]+(\d{1,2})[:.](\d{1,2})(?:[:.](\d{1,2}))?)?`)
)

// epochLike reports whether s is a bare number that dateparse would read as
// a Unix timestamp. Image tags never store epochs, so such values are damage.
// Compact YYYYMMDD and YYYYMMDDhhmmss forms are still accepted.
func epochLike(s string) bool {
	if s == "" || len(s) == 8 || len(s) == 14 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseStrict(s string, loc *time.Location) (time.Time, bool) {
	m := reStrict.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return dateFromParts(m[1:], loc)
}

// parseLenient accepts anything dateparse understands, then falls back to the
// first date-like run inside s with an optional time of day.
func parseLenient(s string, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	if t, err := dateparse.ParseIn(s, loc); err == nil && t.Year() > 0 {
		return t, true
	}
	if m := reLoose.FindStringSubmatch(s); m != nil {
		return dateFromParts(m[1:], loc)
	}
	return time.Time{}, false
}

// dateFromParts builds a time from year, month, day and optional hour,
// minute, second strings, rejecting out-of-range fields instead of letting
// time.Date normalise them.
func dateFromParts(parts []string, loc *time.Location) (time.Time, bool) {
	var v [6]int
	for i := 0; i < len(v) && i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, false
		}
		v[i] = n
	}

	y, mo, d, h, mi, s := v[0], v[1], v[2], v[3], v[4], v[5]
	if y < 1 || mo < 1 || mo > 12 || d < 1 || h > 23 || mi > 59 || s > 59 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(mo), d, h, mi, s, 0, loc)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}
