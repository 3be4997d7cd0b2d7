package hazard

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/lane-pilot/internal/config"
)

// Segmenter turns a frame into raw hazard candidate contours.
type Segmenter interface {
	Segment(img image.Image) ([]Contour, error)
}

// BT.601 luminance weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// MaskSegmenter is the pure-Go segmenter. It isolates locally dark,
// blob-like areas: candidates for road-surface depressions.
type MaskSegmenter struct {
	blurKernel  int
	blockSize   int
	offset      float64
	morphRadius int
}

// NewMaskSegmenter builds a segmenter from the kernel sizes and offset in cfg.
func NewMaskSegmenter(cfg config.Config) *MaskSegmenter {
	return &MaskSegmenter{
		blurKernel:  cfg.BlurKernel,
		blockSize:   cfg.BlockSize,
		offset:      cfg.ThresholdOffset,
		morphRadius: cfg.MorphKernel / 2,
	}
}

// Segment returns the external contours of the cleaned hazard mask.
func (s *MaskSegmenter) Segment(img image.Image) ([]Contour, error) {
	if err := ValidateFrame(img); err != nil {
		return nil, err
	}
	return FindExternalContours(s.Mask(img)), nil
}

// Mask computes the binary hazard mask (255 = candidate) for img.
//
// Steps:
//  1. Luminance with BT.601 weights
//  2. Separable Gaussian blur, blurKernel x blurKernel
//  3. Local mean with a blockSize Gaussian window; a pixel is foreground
//     when it is darker than its local mean by more than offset
//  4. Opening (erode, dilate) then closing (dilate, erode) with a square
//     element of side 2*morphRadius+1, run as separable box passes
func (s *MaskSegmenter) Mask(img image.Image) *image.Gray {
	binary := s.threshold(img)

	opened := dilate(erode(binary, s.morphRadius), s.morphRadius)
	closed := erode(dilate(opened, s.morphRadius), s.morphRadius)

	return redChannel(closed, img.Bounds())
}

// threshold runs steps 1-3 of Mask.
func (s *MaskSegmenter) threshold(img image.Image) *image.Gray {
	gray := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	blurred := gaussianBlur(gray, s.blurKernel)
	localMean := gaussianBlur(blurred, s.blockSize)

	bounds := img.Bounds()
	binary := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		row := y * blurred.Stride
		for x := 0; x < bounds.Dx(); x++ {
			pos := row + x*4
			v := float64(blurred.Pix[pos])
			mean := float64(localMean.Pix[pos])
			if mean-v > s.offset {
				binary.Pix[y*binary.Stride+x] = 255
			}
		}
	}
	return binary
}

// erode shrinks the foreground of a 0/255 mask with a square element of
// side 2*radius+1. A square element is separable, so it runs as a box
// filter along rows then columns, each pass keeping only full windows.
func erode(mask image.Image, radius int) *image.RGBA {
	return morph(mask, radius, true)
}

// dilate grows the foreground of a 0/255 mask with a square element of
// side 2*radius+1; a pixel is set when any pixel in its window is.
func dilate(mask image.Image, radius int) *image.RGBA {
	return morph(mask, radius, false)
}

func morph(mask image.Image, radius int, full bool) *image.RGBA {
	if radius <= 0 {
		return clone.AsRGBA(mask)
	}

	size := 2*radius + 1
	k := convolution.NewKernel(size, 1)
	for i := range k.Matrix {
		k.Matrix[i] = 1 / float64(size)
	}

	// The box mean of a 0/255 mask is 255*m/size for m set pixels. Cutting
	// half a step below full (or above empty) absorbs float truncation.
	cut := uint8(255 * 0.5 / float64(size))
	if full {
		cut = uint8(255 * (float64(size) - 0.5) / float64(size))
	}

	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	rows := binarize(convolution.Convolve(mask, k, opts), cut)
	return binarize(convolution.Convolve(rows, k.Transposed(), opts), cut)
}

// binarize sets every pixel of img to white when its red channel is above
// cut and to black otherwise.
func binarize(img *image.RGBA, cut uint8) *image.RGBA {
	for i := 0; i < len(img.Pix); i += 4 {
		v := uint8(0)
		if img.Pix[i] > cut {
			v = 255
		}
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

// gaussianBlur convolves img with a separable Gaussian of the given odd
// size. Sigma follows the usual size-derived rule
// 0.3*((size-1)*0.5 - 1) + 0.8; borders replicate the edge pixels.
func gaussianBlur(img image.Image, size int) *image.RGBA {
	k := gaussianKernel(size)
	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	horizontal := convolution.Convolve(img, k, opts)
	return convolution.Convolve(horizontal, k.Transposed(), opts)
}

func gaussianKernel(size int) convolution.Matrix {
	sigma := 0.3*((float64(size)-1)*0.5-1) + 0.8
	k := convolution.NewKernel(size, 1)
	half := size / 2
	for i := 0; i < size; i++ {
		x := float64(i - half)
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}
	return k.Normalized()
}

// redChannel copies the R channel of a bild result into a Gray image placed
// at bounds. Both are indexed relative to their own origin.
func redChannel(src *image.RGBA, bounds image.Rectangle) *image.Gray {
	dst := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return dst
}
