package imaging

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// Caption is drawn in the top-left corner of every annotated frame.
const Caption = "Lane Pilot Pothole Guard"

// Banner is drawn when at least one pothole is detected.
const Banner = "POTHOLE DETECTED!"

// Style is how one detection class is drawn.
type Style struct {
	Name  string
	Color colorful.Color
}

// Palette holds every overlay color.
type Palette struct {
	Classes  map[int]Style
	Other    Style
	Lane     Style
	Contour  colorful.Color
	Region   colorful.Color
	Warning  colorful.Color
	Straight colorful.Color
	Turn     colorful.Color
	Brake    colorful.Color
	Text     colorful.Color
}

// DefaultPalette returns the standard overlay colors.
func DefaultPalette() Palette {
	return Palette{
		Classes: map[int]Style{
			0: {Name: "Person", Color: mustHex("#00ff00")},
			2: {Name: "Car", Color: mustHex("#0000ff")},
		},
		Lane:     Style{Name: "Lane", Color: mustHex("#ffff00")},
		Other:    Style{Name: "Object", Color: mustHex("#00ffff")},
		Contour:  mustHex("#ff0000"),
		Region:   mustHex("#ffa500"),
		Warning:  mustHex("#ff0000"),
		Straight: mustHex("#00ff00"),
		Turn:     mustHex("#00bfff"),
		Brake:    mustHex("#ff0000"),
		Text:     mustHex("#ffffff"),
	}
}

// Annotator draws the engine's decisions over a frame.
type Annotator struct {
	// LaneClass is drawn with the Lane style regardless of Classes.
	LaneClass int

	// Scale multiplies font and stroke sizes. Zero picks a scale from the
	// frame height.
	Scale int

	Palette Palette
}

// NewAnnotator returns an annotator with the default palette.
func NewAnnotator(laneClass int) *Annotator {
	return &Annotator{LaneClass: laneClass, Palette: DefaultPalette()}
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// shade returns c blended toward black by t, as a translucent fill.
func shade(c colorful.Color, t float64, alpha uint8) color.RGBA {
	d := c.BlendLab(colorful.Color{}, t)
	r, g, b := d.Clamped().RGB255()
	// premultiplied
	return color.RGBA{
		R: uint8(uint16(r) * uint16(alpha) / 255),
		G: uint8(uint16(g) * uint16(alpha) / 255),
		B: uint8(uint16(b) * uint16(alpha) / 255),
		A: alpha,
	}
}

func (a *Annotator) scale(bounds image.Rectangle) int {
	if a.Scale > 0 {
		return a.Scale
	}
	return max(bounds.Dy()/240, 1)
}

// StyleFor returns the style used for a box of the given class.
func (a *Annotator) StyleFor(class int) Style {
	if class == a.LaneClass {
		return a.Palette.Lane
	}
	if s, ok := a.Palette.Classes[class]; ok {
		return s
	}
	return a.Palette.Other
}

// CommandLabel returns the indicator text for c.
func CommandLabel(c decision.Command) string {
	switch c {
	case decision.Left:
		return "LEFT"
	case decision.Right:
		return "RIGHT"
	case decision.Brake:
		return "BRAKE!"
	default:
		return "STRAIGHT"
	}
}

// Annotate returns a copy of img with detections, potholes, the steering
// indicator and the caption drawn on it. img is not modified.
func (a *Annotator) Annotate(img image.Image, res pipeline.Result) *image.RGBA {
	out := toRGBA(img)
	bounds := out.Bounds()
	s := a.scale(bounds)

	a.drawBoxes(out, res.Boxes, s)
	if res.Hazard.Detected {
		a.drawPotholes(out, res, s)
		// centered just above the command panel
		size := textSize(Banner, 2*s)
		x := bounds.Min.X + (bounds.Dx()-size.X)/2
		y := bounds.Max.Y - 50*s - size.Y - 2*s - 4
		drawLabel(out, x, y, Banner, rgba(a.Palette.Warning), shade(a.Palette.Warning, 0.9, 160), 2*s)
	}
	a.drawIndicator(out, res.Command, s)
	drawText(out, bounds.Min.X+10, bounds.Min.Y+10, Caption, rgba(a.Palette.Text), 2*s)
	return out
}

func (a *Annotator) drawBoxes(img *image.RGBA, boxes []detection.Box, s int) {
	for _, b := range boxes {
		style := a.StyleFor(b.Class)
		c := rgba(style.Color)
		r := b.Rectangle()
		strokeRect(img, r, c, 2)

		label := fmt.Sprintf("%s %.2f", style.Name, b.Confidence)
		drawText(img, r.Min.X, r.Min.Y-glyphHeight*s-4, label, c, s)
	}
}

func (a *Annotator) drawPotholes(img *image.RGBA, res pipeline.Result, s int) {
	contour := rgba(a.Palette.Contour)
	region := rgba(a.Palette.Region)
	for _, p := range res.Hazard.Regions {
		drawPolygon(img, p.Contour, contour, 2)
		strokeRect(img, p.Bounds.Rectangle(), region, 2)

		label := fmt.Sprintf("%.1fm", p.DistanceM)
		drawText(img, p.Bounds.X, p.Bounds.Y-glyphHeight*s-4, label, region, s)
	}
}

// drawIndicator draws the filled command panel centered near the bottom of
// the frame, with an arrow for every command except brake.
func (a *Annotator) drawIndicator(img *image.RGBA, c decision.Command, s int) {
	bounds := img.Bounds()
	w, h := 150*s/2, 50*s/2
	x := bounds.Min.X + bounds.Dx()/2 - w/2
	y := bounds.Max.Y - 100*s/2
	panel := image.Rect(x, y, x+w, y+h)

	fill := a.Palette.Straight
	switch c {
	case decision.Left, decision.Right:
		fill = a.Palette.Turn
	case decision.Brake:
		fill = a.Palette.Brake
	}
	fillRect(img, panel, rgba(fill))

	white := rgba(a.Palette.Text)
	text := CommandLabel(c)
	drawText(img, x+5*s, y+(h-glyphHeight*s)/2, text, white, s)

	mid := y + h/2
	inset := 15 * s
	switch c {
	case decision.Left:
		drawArrow(img, image.Pt(x+w-inset, mid), image.Pt(x+w/2+inset/2, mid), white, 2, 0.3)
	case decision.Right:
		drawArrow(img, image.Pt(x+w/2+inset/2, mid), image.Pt(x+w-inset, mid), white, 2, 0.3)
	case decision.Straight:
		cx := x + w - inset
		drawArrow(img, image.Pt(cx, y+h-5*s), image.Pt(cx, y+5*s), white, 2, 0.3)
	}
}
