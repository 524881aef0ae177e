// Package reconcile compares a recovered file with whatever already occupies
// its target path.
package reconcile

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

const headerBytes = 64 * 1024

// Verdict describes how an existing target relates to the source.
type Verdict string

const (
	VerdictIdentical Verdict = "identical"
	VerdictDifferent Verdict = "different"
	VerdictUnknown   Verdict = "unknown"
)

// Compare reports whether src and dst hold the same content. Comparison
// errors yield VerdictUnknown alongside the error.
func Compare(src, dst string) (Verdict, error) {
	identical, err := Identical(src, dst)
	switch {
	case err != nil:
		return VerdictUnknown, err
	case identical:
		return VerdictIdentical, nil
	default:
		return VerdictDifferent, nil
	}
}

// Identical reports whether two files have byte-identical content.
// Sizes are compared first, then a header hash, then the remainder.
func Identical(path1, path2 string) (bool, error) {
	info1, err := os.Stat(path1)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path1, err)
	}
	info2, err := os.Stat(path2)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path2, err)
	}
	if os.SameFile(info1, info2) {
		return true, nil
	}
	if info1.Size() != info2.Size() {
		return false, nil
	}

	f1, err := os.Open(path1)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path1, err)
	}
	defer f1.Close()
	f2, err := os.Open(path2)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path2, err)
	}
	defer f2.Close()

	h1, err := headerHash(f1, path1)
	if err != nil {
		return false, err
	}
	h2, err := headerHash(f2, path2)
	if err != nil {
		return false, err
	}
	if h1 != h2 {
		return false, nil
	}
	if info1.Size() <= headerBytes {
		return true, nil
	}

	buf1 := make([]byte, 32*1024)
	buf2 := make([]byte, 32*1024)
	for {
		n1, err1 := io.ReadFull(f1, buf1)
		n2, err2 := io.ReadFull(f2, buf2)
		if err1 != nil && err1 != io.EOF && err1 != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("read %s: %w", path1, err1)
		}
		if err2 != nil && err2 != io.EOF && err2 != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("read %s: %w", path2, err2)
		}
		if n1 != n2 || !bytes.Equal(buf1[:n1], buf2[:n2]) {
			return false, nil
		}
		if err1 != nil || err2 != nil {
			return err1 != nil && err2 != nil, nil
		}
	}
}

func headerHash(r io.Reader, path string) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.CopyN(h, r, headerBytes); err != nil && err != io.EOF {
		return [32]byte{}, fmt.Errorf("read header %s: %w", path, err)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
