package hazard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironsheep/lane-pilot/internal/config"
)

// squareShape builds a shape with a side x side bounding box and the given
// area and perimeter.
func squareShape(side int, area, perimeter float64) Shape {
	return Shape{
		Bounds:    Rect{W: side, H: side},
		Area:      area,
		Perimeter: perimeter,
	}
}

// perimeterFor returns the perimeter that gives area the requested circularity.
func perimeterFor(area, circularity float64) float64 {
	return math.Sqrt(4 * math.Pi * area / circularity)
}

func TestShapeFilterAreaBounds(t *testing.T) {
	f := NewShapeFilter(config.Default())

	tests := []struct {
		area float64
		want bool
	}{
		{area: 499, want: false},
		{area: 500, want: false},
		{area: 501, want: true},
		{area: 14999, want: true},
		{area: 15000, want: false},
		{area: 15001, want: false},
	}

	for _, tt := range tests {
		s := squareShape(40, tt.area, perimeterFor(tt.area, 0.8))
		assert.Equal(t, tt.want, f.Accept(s), "area %v", tt.area)
	}
}

func TestShapeFilterAspectBounds(t *testing.T) {
	f := NewShapeFilter(config.Default())

	tests := []struct {
		name string
		w, h int
		want bool
	}{
		{name: "square", w: 40, h: 40, want: true},
		{name: "exactly 2", w: 40, h: 20, want: false},
		{name: "just under 2", w: 39, h: 20, want: true},
		{name: "exactly 0.5", w: 20, h: 40, want: false},
		{name: "just over 0.5", w: 21, h: 40, want: true},
		{name: "zero height", w: 40, h: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Shape{
				Bounds:    Rect{W: tt.w, H: tt.h},
				Area:      1000,
				Perimeter: perimeterFor(1000, 0.8),
			}
			assert.Equal(t, tt.want, f.Accept(s))
		})
	}
}

func TestShapeFilterCircularity(t *testing.T) {
	f := NewShapeFilter(config.Default())

	assert.False(t, f.Accept(squareShape(40, 1000, 0)), "zero perimeter")
	assert.False(t, f.Accept(squareShape(40, 1000, perimeterFor(1000, 0.29))))
	assert.True(t, f.Accept(squareShape(40, 1000, perimeterFor(1000, 0.31))))

	c, ok := squareShape(40, 1000, 0).Circularity()
	assert.False(t, ok)
	assert.Zero(t, c)

	c, ok = squareShape(40, 100*math.Pi, 20*math.Pi).Circularity()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, c, 1e-9, "a circle of radius 10")
}

func TestShapeFilterFilter(t *testing.T) {
	f := NewShapeFilter(config.Default())

	empty := f.Filter(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	small := squareShape(10, 100, 40)
	first := squareShape(40, 1521, 156)
	second := squareShape(80, 6241, 316)

	got := f.Filter([]Shape{first, small, second})
	assert.Equal(t, []Shape{first, second}, got)
}

func TestDescribe(t *testing.T) {
	c := Contour{{0, 0}, {39, 0}, {39, 39}, {0, 39}}
	s := Describe(c)

	assert.Equal(t, Rect{W: 40, H: 40}, s.Bounds)
	assert.InDelta(t, 1521.0, s.Area, 1e-9)
	assert.InDelta(t, 156.0, s.Perimeter, 1e-9)

	aspect, ok := s.AspectRatio()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, aspect, 1e-9)
}
