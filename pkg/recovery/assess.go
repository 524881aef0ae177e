package recovery

import (
	"math"

	"github.com/quidome/chk-recover/pkg/signature"
)

// SizeAssessment is the result of the size/duration plausibility check.
type SizeAssessment string

const (
	SizeNotAssessed SizeAssessment = "not_assessed"
	SizePlausible   SizeAssessment = "plausible"
	SizeSuspicious  SizeAssessment = "suspicious"
)

// DimensionAssessment is the result of the pixel dimension check.
type DimensionAssessment string

const (
	DimensionsNotApplicable   DimensionAssessment = "not_applicable"
	DimensionsNormal          DimensionAssessment = "normal"
	DimensionsLikelyThumbnail DimensionAssessment = "likely_thumbnail"
)

const (
	// bytesPerSecond is a flat 1 MB/s estimate. It ignores codec and
	// resolution and only catches gross truncation or concatenation.
	bytesPerSecond = 1_000_000

	minSizeRatio = 0.5
	maxSizeRatio = 2.0

	// thumbnailEdge is the side length below which an image is treated as a
	// preview rather than a photo.
	thumbnailEdge = 100
)

// AssessSize compares actualBytes with what durationSeconds of video would
// take at bytesPerSecond.
func AssessSize(durationSeconds float64, actualBytes int64) SizeAssessment {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return SizeNotAssessed
	}

	expected := durationSeconds * bytesPerSecond
	ratio := float64(actualBytes) / expected
	if ratio < minSizeRatio || ratio > maxSizeRatio {
		return SizeSuspicious
	}
	return SizePlausible
}

// AssessDimensions flags images whose smaller side is below thumbnailEdge.
func AssessDimensions(width, height int, kind signature.Kind) DimensionAssessment {
	if !kind.IsImage() || width <= 0 || height <= 0 {
		return DimensionsNotApplicable
	}
	if width < thumbnailEdge || height < thumbnailEdge {
		return DimensionsLikelyThumbnail
	}
	return DimensionsNormal
}
