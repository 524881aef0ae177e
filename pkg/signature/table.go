package signature

// ftyp builds an ISO-BMFF signature: a big-endian box size followed by
// "ftyp" and an optional brand.
func ftyp(size byte, brand string) []byte {
	return append([]byte{0x00, 0x00, 0x00, size, 'f', 't', 'y', 'p'}, brand...)
}

// Default returns the built-in rule table in registration order.
//
// Where the table lists a family twice (a short generic prefix and a longer
// container signature), the longer pattern wins at lookup time regardless of
// the order below.
func Default() []Rule {
	return []Rule{
		{Pattern: []byte{0xFF, 0xD8, 0xFF}, Format: FormatJPEG, Kind: KindStillImage},
		{Pattern: []byte("\x89PNG\r\n\x1A\n"), Format: FormatPNG, Kind: KindStillImage},
		{Pattern: []byte("GIF8"), Format: FormatGIF, Kind: KindStillImage},
		{Pattern: []byte("%PDF"), Format: FormatPDF},
		{Pattern: []byte("PK\x03\x04"), Format: FormatZIP},
		{Pattern: []byte("PK\x03\x04\x14\x00\x06\x00"), Format: FormatDOCX},
		{Pattern: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, Format: FormatDOC},
		{Pattern: []byte("Rar!\x1A\x07"), Format: FormatRAR},
		{Pattern: []byte{0x1F, 0x8B, 0x08}, Format: FormatGZ},
		{Pattern: []byte("BM"), Format: FormatBMP, Kind: KindStillImage},
		{Pattern: []byte{0x00, 0x00, 0x01, 0x00}, Format: FormatICO, Kind: KindStillImage},
		{Pattern: []byte("ID3"), Format: FormatMP3},
		{Pattern: []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' ', 0x0D, 0x0A, 0x87, 0x0A}, Format: FormatJP2},
		{Pattern: []byte("OggS"), Format: FormatOGG},
		{Pattern: []byte("8BPS"), Format: FormatPSD, Kind: KindStillImage},
		{Pattern: []byte("II*\x00"), Format: FormatTIFF, Kind: KindStillImage},
		{Pattern: []byte("MM\x00*"), Format: FormatTIFF, Kind: KindStillImage},
		{Pattern: []byte("WAVE"), Format: FormatWAV},
		{Pattern: []byte("%!PS"), Format: FormatPS},
		{Pattern: []byte(`{\rtf`), Format: FormatRTF},

		{Pattern: ftyp(0x14, "qt  "), Format: FormatMOV, Kind: KindVideo},
		{Pattern: ftyp(0x14, ""), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x18, "mp4"), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x1C, "mp4"), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x1C, "isom"), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x1C, "XAVC"), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x20, "isom"), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x1C, "MSNV"), Format: FormatMP4, Kind: KindVideo},
		{Pattern: ftyp(0x20, "3gp"), Format: Format3GP, Kind: KindVideo},
		{Pattern: ftyp(0x20, "M4V"), Format: FormatM4V, Kind: KindVideo},
		{Pattern: []byte("ftyp"), Format: FormatMOV, Kind: KindVideo},

		{Pattern: ftyp(0x18, "heic"), Format: FormatHEIC, Kind: KindHEIF},
		{Pattern: ftyp(0x1C, "heic"), Format: FormatHEIC, Kind: KindHEIF},
		{Pattern: ftyp(0x20, "heic"), Format: FormatHEIC, Kind: KindHEIF},
		{Pattern: ftyp(0x18, "heix"), Format: FormatHEIC, Kind: KindHEIF},
		{Pattern: ftyp(0x1C, "heix"), Format: FormatHEIC, Kind: KindHEIF},
		{Pattern: ftyp(0x18, "mif1"), Format: FormatHEIC, Kind: KindHEIF},
		{Pattern: ftyp(0x1C, "mif1"), Format: FormatHEIC, Kind: KindHEIF},

		{Pattern: []byte("RIFF"), Format: FormatAVI, Kind: KindVideo},
		{Pattern: []byte{0x1A, 0x45, 0xDF, 0xA3}, Format: FormatMKV, Kind: KindVideo},
		{Pattern: []byte("FLV\x01"), Format: FormatFLV, Kind: KindVideo},
		{Pattern: []byte("OggS"), Format: FormatOGG},
		{Pattern: []byte("fLaC"), Format: FormatFLAC},
		{Pattern: []byte("BM"), Format: FormatBMP, Kind: KindStillImage},
		{Pattern: []byte{0x00, 0x01, 0x00, 0x00}, Format: FormatICO, Kind: KindStillImage},
		{Pattern: []byte("MZ"), Format: FormatEXE},
		{Pattern: []byte{0xFF, 0xFB}, Format: FormatMP3},
		{Pattern: []byte{0x00, 0x00, 0x01, 0xB3}, Format: FormatMPG, Kind: KindVideo},
		{Pattern: []byte{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}, Format: FormatASF, Kind: KindVideo},
		{Pattern: []byte("8BPS"), Format: FormatPSD, Kind: KindStillImage},
		{Pattern: []byte("ID3"), Format: FormatMP3},
		{Pattern: []byte("\x7FELF"), Format: FormatELF},
		{Pattern: []byte{0x1F, 0x8B}, Format: FormatGZ},
		{Pattern: []byte("MThd"), Format: FormatMIDI},
		{Pattern: []byte("BKGB"), Format: FormatBPG},
		{Pattern: []byte("BPG\xFB"), Format: FormatBPG},
	}
}

// DefaultRegistry builds a Registry from Default.
func DefaultRegistry() (*Registry, error) {
	return New(Default()...)
}
