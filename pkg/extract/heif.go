package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/abema/go-mp4"
	"github.com/rwcarlsen/goexif/exif"
)

// maxHEIFScan bounds how much of a HEIF file is searched for its EXIF item.
const maxHEIFScan = 16 << 20

var (
	exifItemHeader = []byte("Exif\x00\x00")
	tiffLE         = []byte("II*\x00")
	tiffBE         = []byte("MM\x00*")
)

// heif reads the EXIF item of a HEIF container.
//
// The EXIF item payload is a TIFF block, usually introduced by "Exif\0\0".
// Rather than resolving the item location tables, the container is scanned
// for that header and each candidate is handed to goexif until one decodes.
// The top-level boxes are walked first so a truncated or garbled container
// fails instead of yielding an empty record.
func (e *Extractor) heif(r io.ReadSeeker) (Record, error) {
	if err := checkBoxes(r); err != nil {
		return Record{}, fmt.Errorf("%w: heif structure: %v", ErrExtractionFailed, err)
	}

	buf, err := io.ReadAll(io.LimitReader(r, maxHEIFScan))
	if err != nil {
		return Record{}, fmt.Errorf("%w: read heif: %v", ErrExtractionFailed, err)
	}

	x := findExif(buf)
	if x == nil {
		e.log.Debug().Int("scanned", len(buf)).Msg("no EXIF item in HEIF container")
		return Record{ContainerFormat: "HEIF"}, nil
	}

	rec := Record{ContainerFormat: "HEIF"}
	rec.Width, rec.Height = exifDimensions(x)
	if raw, tag, ok := exifTime(x); ok {
		rec.CreationTimeRaw = raw
		rec.CreationTag = string(tag)
	}
	return rec, nil
}

func findExif(buf []byte) *exif.Exif {
	for off := 0; off < len(buf); {
		i := bytes.Index(buf[off:], exifItemHeader)
		if i < 0 {
			return nil
		}
		start := off + i + len(exifItemHeader)
		if isTIFFHeader(buf[start:]) {
			if x, err := decodeExif(exif.Decode(bytes.NewReader(buf[start:]))); err == nil {
				return x
			}
		}
		off = start
	}
	return nil
}

func isTIFFHeader(b []byte) bool {
	return bytes.HasPrefix(b, tiffLE) || bytes.HasPrefix(b, tiffBE)
}

// checkBoxes walks the top-level boxes of r and fails when one is cut short
// or its header is unreadable. r is rewound afterwards.
func checkBoxes(r io.ReadSeeker) error {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	_, err = mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (interface{}, error) {
		if h.BoxInfo.Offset+h.BoxInfo.Size > uint64(end) {
			return nil, fmt.Errorf("box %s at %d needs %d bytes, file has %d",
				h.BoxInfo.Type, h.BoxInfo.Offset, h.BoxInfo.Size, uint64(end)-h.BoxInfo.Offset)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	_, err = r.Seek(0, io.SeekStart)
	return err
}
