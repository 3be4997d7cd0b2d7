package imaging

import (
	"image"
	"image/color"
	"strings"
)

// glyphs is a 3x5 pixel font covering digits, upper-case letters and the
// punctuation used in overlays. Lower-case input is drawn upper-case.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'A': {"010", "101", "111", "101", "101"},
	'B': {"110", "101", "110", "101", "110"},
	'C': {"011", "100", "100", "100", "011"},
	'D': {"110", "101", "101", "101", "110"},
	'E': {"111", "100", "110", "100", "111"},
	'F': {"111", "100", "110", "100", "100"},
	'G': {"011", "100", "101", "101", "011"},
	'H': {"101", "101", "111", "101", "101"},
	'I': {"111", "010", "010", "010", "111"},
	'J': {"001", "001", "001", "101", "010"},
	'K': {"101", "101", "110", "101", "101"},
	'L': {"100", "100", "100", "100", "111"},
	'M': {"101", "111", "111", "101", "101"},
	'N': {"110", "101", "101", "101", "101"},
	'O': {"010", "101", "101", "101", "010"},
	'P': {"110", "101", "110", "100", "100"},
	'Q': {"010", "101", "101", "110", "011"},
	'R': {"110", "101", "110", "101", "101"},
	'S': {"011", "100", "010", "001", "110"},
	'T': {"111", "010", "010", "010", "010"},
	'U': {"101", "101", "101", "101", "111"},
	'V': {"101", "101", "101", "101", "010"},
	'W': {"101", "101", "111", "111", "101"},
	'X': {"101", "101", "010", "101", "101"},
	'Y': {"101", "101", "010", "010", "010"},
	'Z': {"111", "001", "010", "100", "111"},
	'.': {"000", "000", "000", "000", "010"},
	',': {"000", "000", "000", "010", "010"},
	'!': {"010", "010", "010", "000", "010"},
	':': {"000", "010", "000", "010", "000"},
	'-': {"000", "000", "111", "000", "000"},
	'%': {"101", "001", "010", "100", "101"},
}

const (
	glyphWidth   = 3
	glyphHeight  = 5
	glyphAdvance = 4
)

// textSize returns the pixel size of text drawn at scale.
func textSize(text string, scale int) image.Point {
	n := len([]rune(text))
	if n == 0 {
		return image.Point{}
	}
	return image.Pt((n*glyphAdvance-1)*scale, glyphHeight*scale)
}

// drawText draws text with its top-left corner at (x, y). Each font pixel
// becomes a scale x scale block. Unknown runes leave a gap.
func drawText(img *image.RGBA, x, y int, text string, fg color.RGBA, scale int) {
	scale = max(scale, 1)
	cx := x
	for _, ch := range strings.ToUpper(text) {
		glyph, ok := glyphs[ch]
		if ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						fillRect(img, image.Rect(
							cx+col*scale, y+row*scale,
							cx+(col+1)*scale, y+(row+1)*scale,
						), fg)
					}
				}
			}
		}
		cx += glyphAdvance * scale
	}
}

// drawLabel draws text on a filled background box with a one-scale margin.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA, scale int) {
	scale = max(scale, 1)
	size := textSize(text, scale)
	fillRect(img, image.Rect(x-scale, y-scale, x+size.X+scale, y+size.Y+scale), bg)
	drawText(img, x, y, text, fg, scale)
}
