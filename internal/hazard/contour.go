package hazard

import (
	"image"
	"math"
)

// Contour is a closed boundary polygon in frame coordinates.
type Contour []image.Point

// Rect is an axis-aligned bounding rectangle: top-left corner plus size.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rectangle converts r to an image.Rectangle with exclusive max corner.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Area returns the polygon area of the contour (shoelace formula).
func (c Contour) Area() float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum int
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the closed arc length of the contour.
func (c Contour) Perimeter() float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 0; i < n; i++ {
		d := c[(i+1)%n].Sub(c[i])
		length += math.Hypot(float64(d.X), float64(d.Y))
	}
	return length
}

// Bounds returns the bounding rectangle of the contour. W and H count
// pixels inclusively.
func (c Contour) Bounds() Rect {
	if len(c) == 0 {
		return Rect{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

// mask is a binary image addressed from (0,0).
type mask struct {
	width, height int
	pix           []bool
}

func newMask(width, height int) *mask {
	return &mask{width: width, height: height, pix: make([]bool, width*height)}
}

func (m *mask) at(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.pix[y*m.width+x]
}

func (m *mask) set(x, y int, v bool) {
	m.pix[y*m.width+x] = v
}

// maskFromGray marks every non-zero pixel of img as foreground.
func maskFromGray(img *image.Gray) *mask {
	b := img.Bounds()
	m := newMask(b.Dx(), b.Dy())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			m.set(x, y, img.GrayAt(x+b.Min.X, y+b.Min.Y).Y != 0)
		}
	}
	return m
}

// neighbors8 lists the 8-neighborhood clockwise in image coordinates,
// starting east.
var neighbors8 = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

// FindExternalContours returns the outer boundary of every 8-connected
// foreground component of img (non-zero pixels). Components lying inside a
// hole of another component are skipped, and holes contribute no contours.
// Contours come back in raster order of their top-left pixel, offset to
// img's coordinate space.
func FindExternalContours(img *image.Gray) []Contour {
	m := maskFromGray(img)
	origin := img.Bounds().Min
	outside := outerBackground(m)
	visited := newMask(m.width, m.height)

	contours := make([]Contour, 0)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if !m.at(x, y) || visited.at(x, y) {
				continue
			}
			if !fillComponent(m, visited, outside, x, y) {
				continue
			}
			chain := traceBoundary(m, image.Pt(x, y))
			contour := simplify(chain)
			for i := range contour {
				contour[i] = contour[i].Add(origin)
			}
			contours = append(contours, contour)
		}
	}
	return contours
}

// outerBackground flood-fills background reachable from the image border
// with 4-connectivity, the dual of 8-connected foreground.
func outerBackground(m *mask) *mask {
	outside := newMask(m.width, m.height)
	stack := make([]image.Point, 0)

	push := func(x, y int) {
		if x < 0 || y < 0 || x >= m.width || y >= m.height {
			return
		}
		if m.at(x, y) || outside.at(x, y) {
			return
		}
		outside.set(x, y, true)
		stack = append(stack, image.Pt(x, y))
	}

	for x := 0; x < m.width; x++ {
		push(x, 0)
		push(x, m.height-1)
	}
	for y := 0; y < m.height; y++ {
		push(0, y)
		push(m.width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outside
}

// fillComponent marks the 8-connected component containing (startX, startY)
// as visited and reports whether it touches the image edge or the outer
// background, i.e. whether it is a top-level component.
func fillComponent(m, visited, outside *mask, startX, startY int) bool {
	external := false
	stack := []image.Point{{X: startX, Y: startY}}
	visited.set(startX, startY, true)

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= m.width || ny >= m.height || outside.at(nx, ny) {
				external = true
				break
			}
		}

		for _, d := range neighbors8 {
			nx, ny := p.X+d.X, p.Y+d.Y
			if m.at(nx, ny) && !visited.at(nx, ny) {
				visited.set(nx, ny, true)
				stack = append(stack, image.Pt(nx, ny))
			}
		}
	}
	return external
}

// traceBoundary walks the outer boundary of the component whose top-left
// pixel is start, using Moore-neighbor tracing. The west neighbor of start
// is background by construction. The walk stops when it is about to repeat
// its first move.
func traceBoundary(m *mask, start image.Point) []image.Point {
	chain := []image.Point{start}
	p := start
	back := west
	var second image.Point
	maxSteps := 4*m.width*m.height + 8

	for step := 0; step < maxSteps; step++ {
		q, nextBack, ok := nextBoundaryPixel(m, p, back)
		if !ok {
			break // isolated pixel
		}
		if step == 0 {
			second = q
		} else if p == start && q == second {
			chain = chain[:len(chain)-1]
			break
		}
		chain = append(chain, q)
		p, back = q, nextBack
	}
	return chain
}

// nextBoundaryPixel scans the neighbors of p clockwise, starting just after
// the background direction back, and returns the first foreground pixel with
// the direction from it to the last background pixel examined.
func nextBoundaryPixel(m *mask, p image.Point, back int) (image.Point, int, bool) {
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		q := p.Add(neighbors8[d])
		if !m.at(q.X, q.Y) {
			continue
		}
		bg := p.Add(neighbors8[(back+i-1)%8])
		return q, directionOf(bg.Sub(q)), true
	}
	return image.Point{}, 0, false
}

func directionOf(d image.Point) int {
	for i, n := range neighbors8 {
		if n == d {
			return i
		}
	}
	return west
}

// simplify drops points that continue a straight run, keeping only the
// vertices where the chain changes direction.
func simplify(chain []image.Point) Contour {
	n := len(chain)
	if n < 3 {
		return append(Contour(nil), chain...)
	}
	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		prev, cur, next := chain[(i-1+n)%n], chain[i], chain[(i+1)%n]
		if cur.Sub(prev) != next.Sub(cur) {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		return append(Contour(nil), chain...)
	}
	return out
}
