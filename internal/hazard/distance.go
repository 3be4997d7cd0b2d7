package hazard

import "github.com/ironsheep/lane-pilot/internal/config"

// DistanceEstimator maps apparent pixel width to meters with a pinhole
// camera model. It ranks proximity; it is not a range finder.
type DistanceEstimator struct {
	FocalLengthPx   float64
	ReferenceWidthM float64
}

// NewDistanceEstimator copies the calibration constants out of cfg.
func NewDistanceEstimator(cfg config.Config) DistanceEstimator {
	return DistanceEstimator{
		FocalLengthPx:   cfg.FocalLengthPx,
		ReferenceWidthM: cfg.ReferenceWidthM,
	}
}

// Estimate returns ReferenceWidthM*FocalLengthPx/widthPx. ok is false for
// widthPx <= 0, where no distance is defined.
func (e DistanceEstimator) Estimate(widthPx float64) (meters float64, ok bool) {
	if widthPx <= 0 {
		return 0, false
	}
	return e.ReferenceWidthM * e.FocalLengthPx / widthPx, true
}
