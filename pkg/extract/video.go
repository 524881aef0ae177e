package extract

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abema/go-mp4"

	"github.com/quidome/chk-recover/pkg/signature"
)

// mp4Epoch is the reference point of ISO-BMFF creation times.
var mp4Epoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// maxMP4Seconds keeps creation times inside time.Duration range.
const maxMP4Seconds = 1 << 33

func validMP4Time(secs uint64) bool {
	return secs != 0 && secs < maxMP4Seconds
}

var containerNames = map[signature.Format]string{
	signature.FormatMP4: "MPEG-4",
	signature.FormatM4V: "MPEG-4",
	signature.Format3GP: "3GPP",
	signature.FormatMOV: "QuickTime",
	signature.FormatAVI: "AVI",
	signature.FormatMKV: "Matroska",
	signature.FormatFLV: "Flash Video",
	signature.FormatMPG: "MPEG-PS",
	signature.FormatASF: "ASF",
}

var isoBMFF = map[signature.Format]bool{
	signature.FormatMP4: true,
	signature.FormatM4V: true,
	signature.Format3GP: true,
	signature.FormatMOV: true,
}

var handlerVideo = [4]byte{'v', 'i', 'd', 'e'}

// video reads the track list of an ISO-BMFF container. Other containers only
// report their container format.
func (e *Extractor) video(r io.ReadSeeker, format signature.Format) (Record, error) {
	rec := Record{ContainerFormat: containerNames[format]}
	if !isoBMFF[format] {
		return rec, nil
	}

	ftyps, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeFtyp()})
	if err != nil {
		return Record{}, fmt.Errorf("%w: read ftyp: %v", ErrExtractionFailed, err)
	}
	if len(ftyps) > 0 {
		if ft, ok := ftyps[0].Payload.(*mp4.Ftyp); ok {
			rec.ContainerFormat = brandName(ft.MajorBrand, rec.ContainerFormat)
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Record{}, fmt.Errorf("%w: rewind: %v", ErrExtractionFailed, err)
	}
	mvhds, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return Record{}, fmt.Errorf("%w: read mvhd: %v", ErrExtractionFailed, err)
	}

	var movieCreated uint64
	if len(mvhds) > 0 {
		if mvhd, ok := mvhds[0].Payload.(*mp4.Mvhd); ok {
			if mvhd.GetVersion() == 1 {
				movieCreated = mvhd.CreationTimeV1
				rec.DurationSeconds = seconds(mvhd.DurationV1, mvhd.Timescale)
			} else {
				movieCreated = uint64(mvhd.CreationTimeV0)
				rec.DurationSeconds = seconds(uint64(mvhd.DurationV0), mvhd.Timescale)
			}
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Record{}, fmt.Errorf("%w: rewind: %v", ErrExtractionFailed, err)
	}
	traks, err := mp4.ExtractBox(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak()})
	if err != nil {
		return Record{}, fmt.Errorf("%w: read tracks: %v", ErrExtractionFailed, err)
	}

	for _, trak := range traks {
		t, err := readTrack(r, trak)
		if err != nil {
			e.log.Debug().Err(err).Msg("skipping unreadable track")
			continue
		}
		if t.handler != handlerVideo {
			continue
		}

		rec.Width, rec.Height = t.width, t.height
		switch {
		case validMP4Time(t.mediaCreated):
			rec.CreationTimeRaw, rec.CreationTag = formatMP4Time(t.mediaCreated), "mdhd"
		case validMP4Time(t.trackCreated):
			rec.CreationTimeRaw, rec.CreationTag = formatMP4Time(t.trackCreated), "tkhd"
		}
		break
	}

	if rec.CreationTimeRaw == "" && validMP4Time(movieCreated) {
		rec.CreationTimeRaw, rec.CreationTag = formatMP4Time(movieCreated), "mvhd"
	}
	return rec, nil
}

type track struct {
	handler      [4]byte
	width        int
	height       int
	trackCreated uint64
	mediaCreated uint64
}

func readTrack(r io.ReadSeeker, trak *mp4.BoxInfo) (track, error) {
	boxes, err := mp4.ExtractBoxesWithPayload(r, trak, []mp4.BoxPath{
		{mp4.BoxTypeTkhd()},
		{mp4.BoxTypeMdia(), mp4.BoxTypeHdlr()},
		{mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
	})
	if err != nil {
		return track{}, err
	}

	var t track
	for _, b := range boxes {
		switch p := b.Payload.(type) {
		case *mp4.Tkhd:
			t.width, t.height = int(p.Width>>16), int(p.Height>>16)
			if p.GetVersion() == 1 {
				t.trackCreated = p.CreationTimeV1
			} else {
				t.trackCreated = uint64(p.CreationTimeV0)
			}
		case *mp4.Hdlr:
			t.handler = p.HandlerType
		case *mp4.Mdhd:
			if p.GetVersion() == 1 {
				t.mediaCreated = p.CreationTimeV1
			} else {
				t.mediaCreated = uint64(p.CreationTimeV0)
			}
		}
	}
	return t, nil
}

func seconds(duration uint64, timescale uint32) float64 {
	if timescale == 0 {
		return 0
	}
	return float64(duration) / float64(timescale)
}

// formatMP4Time renders an ISO-BMFF timestamp as RFC 3339 in UTC.
func formatMP4Time(secs uint64) string {
	return mp4Epoch.Add(time.Duration(secs) * time.Second).Format(time.RFC3339)
}

func brandName(brand [4]byte, fallback string) string {
	switch strings.TrimSpace(string(brand[:])) {
	case "qt":
		return "QuickTime"
	case "":
		return fallback
	}
	if strings.HasPrefix(string(brand[:]), "3g") {
		return "3GPP"
	}
	return "MPEG-4"
}
