package scan

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"
	"testing/fstest"
	"time"
)

func TestScan_MaxDepth(t *testing.T) {
	fsys := fstest.MapFS{
		"FOUND.000/FILE0001.CHK":            &fstest.MapFile{Data: []byte("a")},
		"FOUND.000/FILE0002.CHK":            &fstest.MapFile{Data: []byte("b")},
		"FOUND.000/sub/FILE0003.CHK":        &fstest.MapFile{Data: []byte("c")},
		"FOUND.000/sub/nested/FILE0004.CHK": &fstest.MapFile{Data: []byte("d")},
	}

	testCases := []struct {
		name     string
		maxDepth int
		want     []string
	}{
		{
			name:     "depth 0 includes only top-level",
			maxDepth: 0,
			want:     []string{"FILE0001.CHK", "FILE0002.CHK"},
		},
		{
			name:     "depth 1 includes one subdirectory",
			maxDepth: 1,
			want:     []string{"FILE0001.CHK", "FILE0002.CHK", "sub/FILE0003.CHK"},
		},
		{
			name:     "unlimited",
			maxDepth: -1,
			want:     []string{"FILE0001.CHK", "FILE0002.CHK", "sub/FILE0003.CHK", "sub/nested/FILE0004.CHK"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxDepth = tc.maxDepth

			got, err := Scan(fsys, "FOUND.000", opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, tc.want)
			}
		})
	}
}

func TestScan_ExtensionFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"src/FILE0001.CHK": &fstest.MapFile{Data: []byte("a")},
		"src/file0002.chk": &fstest.MapFile{Data: []byte("b")},
		"src/notes.txt":    &fstest.MapFile{Data: []byte("c")},
		"src/noext":        &fstest.MapFile{Data: []byte("d")},
	}

	testCases := []struct {
		name string
		exts []string
		want []string
	}{
		{name: "no filter lists every file", want: []string{"FILE0001.CHK", "file0002.chk", "noext", "notes.txt"}},
		{name: "case-insensitive with dot", exts: []string{".CHK"}, want: []string{"FILE0001.CHK", "file0002.chk"}},
		{name: "without dot", exts: []string{"txt"}, want: []string{"notes.txt"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Extensions = tc.exts

			got, err := Scan(fsys, "src", opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, tc.want)
			}
		})
	}
}

func TestScan_ExcludesOperationLogs(t *testing.T) {
	fsys := fstest.MapFS{
		"src/FILE0001.CHK":                         &fstest.MapFile{Data: []byte("a")},
		"src/recovery_log_20240101_120000.txt":     &fstest.MapFile{Data: []byte("log")},
		"src/sub/recovery_log_20240101_120001.txt": &fstest.MapFile{Data: []byte("log")},
	}

	got, err := Scan(fsys, "src", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"FILE0001.CHK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, want)
	}
}

func TestScanRecords_SizeAndModTime(t *testing.T) {
	mod := time.Date(2012, 11, 4, 5, 42, 2, 0, time.UTC)
	fsys := fstest.MapFS{
		"src/FILE0001.CHK": &fstest.MapFile{Data: []byte("hello"), ModTime: mod},
		"src/EMPTY.CHK":    &fstest.MapFile{ModTime: mod},
	}

	got, err := ScanRecords(fsys, "src", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Record{
		{Path: "EMPTY.CHK", FileSizeBytes: 0, ModTime: mod},
		{Path: "FILE0001.CHK", FileSizeBytes: 5, ModTime: mod},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, want)
	}
}

func TestScan_InvalidMaxDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = -2

	_, err := Scan(fstest.MapFS{}, ".", opts)
	if !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("expected fs.ErrInvalid, got %v", err)
	}
}

func TestScan_InvalidExcludePattern(t *testing.T) {
	opts := DefaultOptions()
	opts.Exclude = []string{"["}

	if _, err := Scan(fstest.MapFS{"a": &fstest.MapFile{}}, ".", opts); err == nil {
		t.Fatalf("expected error for malformed pattern")
	}
}
