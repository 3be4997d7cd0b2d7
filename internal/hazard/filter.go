package hazard

import (
	"math"

	"github.com/ironsheep/lane-pilot/internal/config"
)

// Shape is a contour with the measurements the filter needs.
type Shape struct {
	Contour   Contour `json:"contour"`
	Bounds    Rect    `json:"bounds"`
	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
}

// Describe measures a contour.
func Describe(c Contour) Shape {
	return Shape{
		Contour:   c,
		Bounds:    c.Bounds(),
		Area:      c.Area(),
		Perimeter: c.Perimeter(),
	}
}

// AspectRatio returns W/H of the bounding box; ok is false when H is zero.
func (s Shape) AspectRatio() (float64, bool) {
	if s.Bounds.H <= 0 {
		return 0, false
	}
	return float64(s.Bounds.W) / float64(s.Bounds.H), true
}

// Circularity returns 4*pi*area/perimeter^2 (1.0 for a perfect circle);
// ok is false when the perimeter is zero.
func (s Shape) Circularity() (float64, bool) {
	if s.Perimeter <= 0 {
		return 0, false
	}
	return 4 * math.Pi * s.Area / (s.Perimeter * s.Perimeter), true
}

// ShapeFilter rejects candidates that are not plausibly pothole-like.
// Every bound is exclusive.
type ShapeFilter struct {
	MinArea        float64
	MaxArea        float64
	MinAspect      float64
	MaxAspect      float64
	MinCircularity float64
}

// NewShapeFilter copies the shape bounds out of cfg.
func NewShapeFilter(cfg config.Config) ShapeFilter {
	return ShapeFilter{
		MinArea:        cfg.MinArea,
		MaxArea:        cfg.MaxArea,
		MinAspect:      cfg.MinAspect,
		MaxAspect:      cfg.MaxAspect,
		MinCircularity: cfg.MinCircularity,
	}
}

// Accept reports whether s passes the area, aspect ratio and circularity
// bounds. Checks run cheapest first.
func (f ShapeFilter) Accept(s Shape) bool {
	if !(f.MinArea < s.Area && s.Area < f.MaxArea) {
		return false
	}

	aspect, ok := s.AspectRatio()
	if !ok || !(f.MinAspect < aspect && aspect < f.MaxAspect) {
		return false
	}

	circularity, ok := s.Circularity()
	return ok && circularity > f.MinCircularity
}

// Filter returns the accepted shapes in input order. It never returns nil.
func (f ShapeFilter) Filter(shapes []Shape) []Shape {
	accepted := make([]Shape, 0, len(shapes))
	for _, s := range shapes {
		if f.Accept(s) {
			accepted = append(accepted, s)
		}
	}
	return accepted
}
