package extract

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/quidome/chk-recover/pkg/signature"
)

// decodable lists still formats with a registered image decoder.
var decodable = map[signature.Format]bool{
	signature.FormatJPEG: true,
	signature.FormatPNG:  true,
	signature.FormatGIF:  true,
	signature.FormatBMP:  true,
	signature.FormatTIFF: true,
}

// tagBearing lists still formats that embed EXIF in a layout goexif reads.
var tagBearing = map[signature.Format]bool{
	signature.FormatJPEG: true,
	signature.FormatTIFF: true,
}

func (e *Extractor) stillImage(r io.ReadSeeker, format signature.Format) (Record, error) {
	var rec Record

	if decodable[format] {
		cfg, name, err := image.DecodeConfig(r)
		if err != nil {
			return Record{}, fmt.Errorf("%w: decode %s header: %v", ErrExtractionFailed, format, err)
		}
		rec.Width, rec.Height = cfg.Width, cfg.Height
		rec.ContainerFormat = name
	}

	if !tagBearing[format] {
		return rec, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Record{}, fmt.Errorf("%w: rewind: %v", ErrExtractionFailed, err)
	}

	x, err := decodeExif(exif.Decode(r))
	if err != nil {
		e.log.Debug().Err(err).Str("format", string(format)).Msg("no readable EXIF")
		return rec, nil
	}

	if raw, tag, ok := exifTime(x); ok {
		rec.CreationTimeRaw = raw
		rec.CreationTag = string(tag)
	}
	return rec, nil
}
