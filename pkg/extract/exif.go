package extract

import (
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// timeTags lists EXIF timestamp tags, capture time first.
var timeTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// exifTime returns the raw value of the preferred timestamp tag.
//
// The value is returned unparsed: corrupted tags still reach the resolver,
// which decides how much of the string is usable.
func exifTime(x *exif.Exif) (raw string, tag exif.FieldName, ok bool) {
	for _, name := range timeTags {
		t, err := x.Get(name)
		if err != nil {
			continue
		}

		s, err := t.StringVal()
		if err != nil {
			// Wrong declared type; keep the bytes and let the resolver sort it out.
			s = string(t.Val)
		}
		if strings.Trim(s, "\x00 ") == "" {
			continue
		}
		return s, name, true
	}
	return "", "", false
}

// exifDimensions returns the pixel dimensions recorded in the EXIF sub-IFD.
func exifDimensions(x *exif.Exif) (width, height int) {
	if t, err := x.Get(exif.PixelXDimension); err == nil {
		if v, err := t.Int(0); err == nil {
			width = v
		}
	}
	if t, err := x.Get(exif.PixelYDimension); err == nil {
		if v, err := t.Int(0); err == nil {
			height = v
		}
	}
	return width, height
}

// decodeExif wraps exif.Decode, keeping partially decoded data when the
// library reports a non-critical error.
func decodeExif(x *exif.Exif, err error) (*exif.Exif, error) {
	if err == nil {
		return x, nil
	}
	if x != nil && !exif.IsCriticalError(err) {
		return x, nil
	}
	return nil, err
}
