package fit

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// CompareFunc scores a rendered candidate against the reference.
// The result is a similarity in [0,100]; 100 means identical.
type CompareFunc func(candidate, reference *image.NRGBA) (float64, error)

// ErrDimensionMismatch matches any *DimensionMismatchError via errors.Is.
var ErrDimensionMismatch = &DimensionMismatchError{}

// DimensionMismatchError is returned when candidate and reference extents
// differ. No score exists in that case and the run must be aborted.
type DimensionMismatchError struct {
	Candidate image.Point
	Reference image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions mismatch: candidate %dx%d, reference %dx%d",
		e.Candidate.X, e.Candidate.Y, e.Reference.X, e.Reference.Y)
}

func (e *DimensionMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionMismatchError)
	return ok
}

func checkDimensions(candidate, reference *image.NRGBA) (width, height int, err error) {
	cs := candidate.Bounds().Size()
	rs := reference.Bounds().Size()
	if cs != rs {
		return 0, 0, &DimensionMismatchError{Candidate: cs, Reference: rs}
	}
	return cs.X, cs.Y, nil
}

// Similarity computes 100 - 100*d where d is the mean absolute difference
// over the red, green and blue channels, each normalized to [0,1].
// Alpha is ignored.
func Similarity(candidate, reference *image.NRGBA) (float64, error) {
	width, height, err := checkDimensions(candidate, reference)
	if err != nil {
		return 0, err
	}
	if width == 0 || height == 0 {
		return 100, nil
	}

	cMin := candidate.Bounds().Min
	rMin := reference.Bounds().Min

	var sum int64
	for y := 0; y < height; y++ {
		ci := candidate.PixOffset(cMin.X, cMin.Y+y)
		ri := reference.PixOffset(rMin.X, rMin.Y+y)
		for x := 0; x < width; x++ {
			sum += absDiff(candidate.Pix[ci+0], reference.Pix[ri+0])
			sum += absDiff(candidate.Pix[ci+1], reference.Pix[ri+1])
			sum += absDiff(candidate.Pix[ci+2], reference.Pix[ri+2])
			ci += 4
			ri += 4
		}
	}

	d := float64(sum) / 255 / float64(width*height*3)
	return 100 - d*100, nil
}

func absDiff(a, b uint8) int64 {
	if a > b {
		return int64(a - b)
	}
	return int64(b - a)
}

// LabSimilarity is a perceptual variant of Similarity. Per-pixel distance is
// the CIE L*a*b* distance, capped at 1, averaged over all pixels.
func LabSimilarity(candidate, reference *image.NRGBA) (float64, error) {
	width, height, err := checkDimensions(candidate, reference)
	if err != nil {
		return 0, err
	}
	if width == 0 || height == 0 {
		return 100, nil
	}

	cMin := candidate.Bounds().Min
	rMin := reference.Bounds().Min

	var sum float64
	for y := 0; y < height; y++ {
		ci := candidate.PixOffset(cMin.X, cMin.Y+y)
		ri := reference.PixOffset(rMin.X, rMin.Y+y)
		for x := 0; x < width; x++ {
			c1 := colorful.Color{
				R: float64(candidate.Pix[ci+0]) / 255,
				G: float64(candidate.Pix[ci+1]) / 255,
				B: float64(candidate.Pix[ci+2]) / 255,
			}
			c2 := colorful.Color{
				R: float64(reference.Pix[ri+0]) / 255,
				G: float64(reference.Pix[ri+1]) / 255,
				B: float64(reference.Pix[ri+2]) / 255,
			}
			sum += min(c1.DistanceLab(c2), 1)
			ci += 4
			ri += 4
		}
	}

	return 100 - 100*sum/float64(width*height), nil
}

// ErrUnknownMetric is returned for a metric name that has no CompareFunc.
var ErrUnknownMetric = errors.New("unknown similarity metric")

// Metrics lists the names accepted by CompareFuncFor.
func Metrics() []string {
	return []string{"abs", "lab"}
}

// CompareFuncFor maps a metric name to its CompareFunc. An empty name
// selects the default absolute-difference metric.
func CompareFuncFor(metric string) (CompareFunc, error) {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "", "abs", "absolute":
		return Similarity, nil
	case "lab", "perceptual":
		return LabSimilarity, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
}
