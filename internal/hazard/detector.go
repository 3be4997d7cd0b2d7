package hazard

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/lane-pilot/internal/config"
)

// ErrInvalidFrame is returned for a nil frame or one with empty bounds.
var ErrInvalidFrame = errors.New("invalid frame")

// ValidateFrame checks that img has pixels to look at.
func ValidateFrame(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidFrame)
	}
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidFrame, b)
	}
	return nil
}

// Region is a pothole that survived the shape filter, with its estimated
// distance.
type Region struct {
	Contour     Contour `json:"contour,omitempty"`
	Bounds      Rect    `json:"bounds"`
	Area        float64 `json:"area"`
	Perimeter   float64 `json:"perimeter"`
	Circularity float64 `json:"circularity"`
	AspectRatio float64 `json:"aspect_ratio"`
	DistanceM   float64 `json:"distance_m"`
}

// Report is the per-frame hazard result.
//
// Detected is true exactly when Count > 0, Count equals len(Regions), and
// NearestM is the smallest DistanceM when detected and nil otherwise.
type Report struct {
	Detected bool     `json:"detected"`
	Count    int      `json:"count"`
	NearestM *float64 `json:"nearest_m"`
	Regions  []Region `json:"regions"`
}

// Nearest returns the nearest distance and whether there is one.
func (r Report) Nearest() (float64, bool) {
	if r.NearestM == nil {
		return 0, false
	}
	return *r.NearestM, true
}

// Detector chains segmentation, shape filtering and distance estimation.
// It holds only immutable configuration and is safe for concurrent use as
// long as its Segmenter is.
type Detector struct {
	segmenter Segmenter
	filter    ShapeFilter
	estimator DistanceEstimator
}

// NewDetector builds a Detector. A nil seg selects the default segmenter
// for this build.
func NewDetector(cfg config.Config, seg Segmenter) *Detector {
	if seg == nil {
		seg = DefaultSegmenter(cfg)
	}
	return &Detector{
		segmenter: seg,
		filter:    NewShapeFilter(cfg),
		estimator: NewDistanceEstimator(cfg),
	}
}

// Detect segments img and evaluates the resulting contours.
func (d *Detector) Detect(img image.Image) (Report, error) {
	if err := ValidateFrame(img); err != nil {
		return Report{}, err
	}
	contours, err := d.segmenter.Segment(img)
	if err != nil {
		return Report{}, fmt.Errorf("segment frame: %w", err)
	}
	return d.Evaluate(contours), nil
}

// Evaluate filters contours and estimates distances. Regions keep contour
// order; regions whose width cannot be estimated are dropped.
func (d *Detector) Evaluate(contours []Contour) Report {
	shapes := make([]Shape, 0, len(contours))
	for _, c := range contours {
		shapes = append(shapes, Describe(c))
	}

	regions := make([]Region, 0)
	nearest := math.Inf(1)
	for _, s := range d.filter.Filter(shapes) {
		dist, ok := d.estimator.Estimate(float64(s.Bounds.W))
		if !ok {
			continue
		}
		circularity, _ := s.Circularity()
		aspect, _ := s.AspectRatio()
		regions = append(regions, Region{
			Contour:     s.Contour,
			Bounds:      s.Bounds,
			Area:        s.Area,
			Perimeter:   s.Perimeter,
			Circularity: circularity,
			AspectRatio: aspect,
			DistanceM:   dist,
		})
		nearest = min(nearest, dist)
	}

	report := Report{
		Detected: len(regions) > 0,
		Count:    len(regions),
		Regions:  regions,
	}
	if report.Detected {
		report.NearestM = &nearest
	}
	return report
}
