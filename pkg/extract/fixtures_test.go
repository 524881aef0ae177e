package extract

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"
	"testing"
)

type tiffEntry struct {
	tag   uint16
	ascii string
	long  uint32
}

const (
	tagDateTime         = 0x0132
	tagExifIFDPointer   = 0x8769
	tagDateTimeOriginal = 0x9003
	tagPixelXDimension  = 0xA002
	tagPixelYDimension  = 0xA003
)

// buildTIFF assembles a little-endian TIFF block with an IFD0 and an optional
// EXIF sub-IFD. Entries with an empty ascii value are written as LONGs.
func buildTIFF(ifd0, sub []tiffEntry) []byte {
	if len(sub) > 0 {
		ifd0 = append(ifd0, tiffEntry{tag: tagExifIFDPointer})
	}
	sort.Slice(ifd0, func(i, j int) bool { return ifd0[i].tag < ifd0[j].tag })
	sort.Slice(sub, func(i, j int) bool { return sub[i].tag < sub[j].tag })

	ifdSize := func(n int) int { return 2 + 12*n + 4 }
	ifd0Off := 8
	subOff := ifd0Off + ifdSize(len(ifd0))
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += ifdSize(len(sub))
	}

	var data bytes.Buffer
	le := binary.LittleEndian
	writeIFD := func(out *bytes.Buffer, entries []tiffEntry) {
		_ = binary.Write(out, le, uint16(len(entries)))
		for _, e := range entries {
			_ = binary.Write(out, le, e.tag)
			switch {
			case e.tag == tagExifIFDPointer:
				_ = binary.Write(out, le, uint16(4))
				_ = binary.Write(out, le, uint32(1))
				_ = binary.Write(out, le, uint32(subOff))
			case e.ascii != "":
				val := append([]byte(e.ascii), 0)
				_ = binary.Write(out, le, uint16(2))
				_ = binary.Write(out, le, uint32(len(val)))
				if len(val) <= 4 {
					padded := make([]byte, 4)
					copy(padded, val)
					out.Write(padded)
				} else {
					_ = binary.Write(out, le, uint32(dataOff+data.Len()))
					data.Write(val)
				}
			default:
				_ = binary.Write(out, le, uint16(4))
				_ = binary.Write(out, le, uint32(1))
				_ = binary.Write(out, le, e.long)
			}
		}
		_ = binary.Write(out, le, uint32(0))
	}

	var out bytes.Buffer
	out.WriteString("II*\x00")
	_ = binary.Write(&out, le, uint32(ifd0Off))
	writeIFD(&out, ifd0)
	if len(sub) > 0 {
		writeIFD(&out, sub)
	}
	out.Write(data.Bytes())
	return out.Bytes()
}

// withExif inserts an APP1 EXIF segment right after the JPEG SOI marker.
func withExif(jpg, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	return img
}

// isoBox frames payload as an ISO-BMFF box with a 32-bit size.
func isoBox(typ string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(out, uint32(8+len(payload)))
	copy(out[4:], typ)
	return append(out, payload...)
}

// heifFile is an ftyp box with major brand heic followed by boxes.
func heifFile(boxes ...[]byte) []byte {
	out := isoBox("ftyp", []byte("heic\x00\x00\x00\x00mif1heic"))
	for _, b := range boxes {
		out = append(out, b...)
	}
	return out
}
