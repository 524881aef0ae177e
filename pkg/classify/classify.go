// Package classify detects a file's real format from its leading bytes.
package classify

import (
	"errors"
	"fmt"
	"io"

	"github.com/quidome/chk-recover/pkg/signature"
)

// Classify reads the leading bytes of r and looks them up in reg.
//
// It reads exactly reg.MaxPatternLength() bytes, or fewer for short inputs;
// a short read only limits which patterns can match. An unrecognised prefix is
// reported as ok=false with a nil error. Only read failures return an error.
func Classify(r io.Reader, reg *signature.Registry) (signature.Match, bool, error) {
	buf := make([]byte, reg.MaxPatternLength())
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return signature.Match{}, false, fmt.Errorf("read signature: %w", err)
	}

	m, ok := reg.Lookup(buf[:n])
	return m, ok, nil
}
