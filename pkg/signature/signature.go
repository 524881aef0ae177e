// Package signature holds the byte-signature table used to recognise the real
// format of a file whose extension was lost.
package signature

// Format is the detected file format. Its value is the extension without the
// leading dot.
type Format string

// Extension returns the format as a file extension, e.g. ".jpg".
func (f Format) Extension() string {
	if f == "" {
		return ""
	}
	return "." + string(f)
}

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatICO  Format = "ico"
	FormatTIFF Format = "tif"
	FormatPSD  Format = "psd"
	FormatJP2  Format = "jp2"
	FormatHEIC Format = "heic"
	FormatBPG  Format = "bpg"

	FormatMP4  Format = "mp4"
	FormatMOV  Format = "mov"
	FormatM4V  Format = "m4v"
	Format3GP  Format = "3gp"
	FormatAVI  Format = "avi"
	FormatMKV  Format = "mkv"
	FormatFLV  Format = "flv"
	FormatMPG  Format = "mpg"
	FormatASF  Format = "asf"

	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
	FormatMIDI Format = "mid"

	FormatPDF  Format = "pdf"
	FormatPS   Format = "ps"
	FormatRTF  Format = "rtf"
	FormatDOC  Format = "doc"
	FormatDOCX Format = "docx"
	FormatZIP  Format = "zip"
	FormatRAR  Format = "rar"
	FormatGZ   Format = "gz"
	FormatEXE  Format = "exe"
	FormatELF  Format = "elf"
)

// Kind selects the metadata extraction strategy for a format.
type Kind int

const (
	// KindNone means the format carries no metadata we read.
	KindNone Kind = iota
	// KindStillImage covers decoded raster images, some with embedded EXIF.
	KindStillImage
	// KindHEIF covers HEIF-style images carrying EXIF as a container item.
	KindHEIF
	// KindVideo covers media containers with a track list.
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStillImage:
		return "still-image"
	case KindHEIF:
		return "heif"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// IsImage reports whether k is an embedded-tag-bearing image family.
func (k Kind) IsImage() bool {
	return k == KindStillImage || k == KindHEIF
}

// Rule maps a literal byte prefix to a format.
type Rule struct {
	Pattern []byte
	Format  Format
	Kind    Kind
}

// Match is the result of a successful lookup.
type Match struct {
	Format Format
	Kind   Kind
}
