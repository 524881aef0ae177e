package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abema/go-mp4"

	"github.com/quidome/chk-recover/pkg/signature"
)

var mp4Match = signature.Match{Format: signature.FormatMP4, Kind: signature.KindVideo}

type mp4Fixture struct {
	brand        [4]byte
	movieCreated time.Time
	mediaCreated time.Time
	width        uint32
	height       uint32
	handler      [4]byte
	timescale    uint32
	duration     uint32
}

func mp4Seconds(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Sub(mp4Epoch) / time.Second)
}

func writeMP4(t *testing.T, fx mp4Fixture) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), "movie.bin"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	w := mp4.NewWriter(f)
	box := func(typ mp4.BoxType, payload mp4.IBox, children ...func()) {
		t.Helper()
		if _, err := w.StartBox(&mp4.BoxInfo{Type: typ}); err != nil {
			t.Fatalf("start %s: %v", typ, err)
		}
		if payload != nil {
			if _, err := mp4.Marshal(w, payload, mp4.Context{}); err != nil {
				t.Fatalf("marshal %s: %v", typ, err)
			}
		}
		for _, child := range children {
			child()
		}
		if _, err := w.EndBox(); err != nil {
			t.Fatalf("end %s: %v", typ, err)
		}
	}

	box(mp4.BoxTypeFtyp(), &mp4.Ftyp{
		MajorBrand:       fx.brand,
		MinorVersion:     0x200,
		CompatibleBrands: []mp4.CompatibleBrandElem{{CompatibleBrand: fx.brand}},
	})
	box(mp4.BoxTypeMoov(), nil,
		func() {
			box(mp4.BoxTypeMvhd(), &mp4.Mvhd{
				CreationTimeV0: mp4Seconds(fx.movieCreated),
				Timescale:      fx.timescale,
				DurationV0:     fx.duration,
				Rate:           0x10000,
				Volume:         0x100,
				NextTrackID:    2,
			})
		},
		func() {
			box(mp4.BoxTypeTrak(), nil,
				func() {
					box(mp4.BoxTypeTkhd(), &mp4.Tkhd{
						TrackID: 1,
						Width:   fx.width << 16,
						Height:  fx.height << 16,
					})
				},
				func() {
					box(mp4.BoxTypeMdia(), nil,
						func() {
							box(mp4.BoxTypeMdhd(), &mp4.Mdhd{
								CreationTimeV0: mp4Seconds(fx.mediaCreated),
								Timescale:      fx.timescale,
								DurationV0:     fx.duration,
							})
						},
						func() {
							box(mp4.BoxTypeHdlr(), &mp4.Hdlr{HandlerType: fx.handler, Name: "VideoHandler"})
						},
					)
				},
			)
		},
	)

	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	return f
}

func TestExtract_Video_ReadsVideoTrack(t *testing.T) {
	created := time.Date(2021, 6, 5, 10, 0, 0, 0, time.UTC)
	f := writeMP4(t, mp4Fixture{
		brand:        [4]byte{'i', 's', 'o', 'm'},
		movieCreated: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		mediaCreated: created,
		width:        1920,
		height:       1080,
		handler:      handlerVideo,
		timescale:    1000,
		duration:     10000,
	})

	rec, err := newTestExtractor().Extract(f, mp4Match)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CreationTimeRaw != "2021-06-05T10:00:00Z" || rec.CreationTag != "mdhd" {
		t.Fatalf("unexpected creation time %q from %q", rec.CreationTimeRaw, rec.CreationTag)
	}
	if rec.Width != 1920 || rec.Height != 1080 {
		t.Fatalf("unexpected dimensions %dx%d", rec.Width, rec.Height)
	}
	if rec.DurationSeconds != 10 {
		t.Fatalf("unexpected duration %v", rec.DurationSeconds)
	}
	if rec.ContainerFormat != "MPEG-4" {
		t.Fatalf("unexpected container format %q", rec.ContainerFormat)
	}
}

func TestExtract_Video_NoVideoTrackFallsBackToMovieHeader(t *testing.T) {
	f := writeMP4(t, mp4Fixture{
		brand:        [4]byte{'q', 't', ' ', ' '},
		movieCreated: time.Date(2018, 3, 4, 5, 6, 7, 0, time.UTC),
		handler:      [4]byte{'s', 'o', 'u', 'n'},
		timescale:    600,
		duration:     1200,
	})

	m := signature.Match{Format: signature.FormatMOV, Kind: signature.KindVideo}
	rec, err := newTestExtractor().Extract(f, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CreationTimeRaw != "2018-03-04T05:06:07Z" || rec.CreationTag != "mvhd" {
		t.Fatalf("unexpected creation time %q from %q", rec.CreationTimeRaw, rec.CreationTag)
	}
	if rec.HasDimensions() {
		t.Fatalf("expected no dimensions without a video track, got %dx%d", rec.Width, rec.Height)
	}
	if rec.ContainerFormat != "QuickTime" {
		t.Fatalf("unexpected container format %q", rec.ContainerFormat)
	}
	if rec.DurationSeconds != 2 {
		t.Fatalf("unexpected duration %v", rec.DurationSeconds)
	}
}

func TestExtract_Video_UnsetCreationTimeIsAbsent(t *testing.T) {
	f := writeMP4(t, mp4Fixture{
		brand:     [4]byte{'m', 'p', '4', '2'},
		width:     640,
		height:    480,
		handler:   handlerVideo,
		timescale: 1000,
		duration:  500,
	})

	rec, err := newTestExtractor().Extract(f, mp4Match)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CreationTimeRaw != "" {
		t.Fatalf("expected no creation time, got %q", rec.CreationTimeRaw)
	}
}

func TestExtract_Video_OtherContainerReportsFormatOnly(t *testing.T) {
	m := signature.Match{Format: signature.FormatAVI, Kind: signature.KindVideo}

	rec, err := newTestExtractor().Extract(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00AVI LIST")), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != (Record{ContainerFormat: "AVI"}) {
		t.Fatalf("unexpected record %+v", rec)
	}
}
