package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// toRGBA copies img into a new RGBA image with the same bounds.
func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

// fillRect fills r clipped to the image bounds.
func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Over)
}

// strokeRect draws the outline of r with the given thickness, inside r.
func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	t := max(thickness, 1)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), c)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), c)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), c)
	fillRect(img, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// drawLine draws a Bresenham line with square pens of the given thickness.
func drawLine(img *image.RGBA, from, to image.Point, c color.RGBA, thickness int) {
	half := max(thickness, 1) / 2
	pen := func(p image.Point) {
		fillRect(img, image.Rect(p.X-half, p.Y-half, p.X-half+max(thickness, 1), p.Y-half+max(thickness, 1)), c)
	}

	dx := abs(to.X - from.X)
	dy := -abs(to.Y - from.Y)
	sx, sy := 1, 1
	if from.X > to.X {
		sx = -1
	}
	if from.Y > to.Y {
		sy = -1
	}

	err := dx + dy
	p := from
	for {
		pen(p)
		if p == to {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

// drawPolygon draws the closed outline through points.
func drawPolygon(img *image.RGBA, points []image.Point, c color.RGBA, thickness int) {
	switch len(points) {
	case 0:
		return
	case 1:
		drawLine(img, points[0], points[0], c, thickness)
		return
	}
	for i := range points {
		drawLine(img, points[i], points[(i+1)%len(points)], c, thickness)
	}
}

// drawArrow draws a line from 'from' to 'to' with a head at 'to' whose
// length is tipLength times the shaft length.
func drawArrow(img *image.RGBA, from, to image.Point, c color.RGBA, thickness int, tipLength float64) {
	drawLine(img, from, to, c, thickness)

	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	tip := length * tipLength
	angle := math.Atan2(dy, dx)
	for _, side := range []float64{math.Pi / 4, -math.Pi / 4} {
		a := angle + math.Pi + side
		end := image.Pt(
			to.X+int(math.Round(tip*math.Cos(a))),
			to.Y+int(math.Round(tip*math.Sin(a))),
		)
		drawLine(img, to, end, c, thickness)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
