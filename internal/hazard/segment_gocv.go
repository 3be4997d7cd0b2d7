//go:build gocv

package hazard

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/lane-pilot/internal/config"
)

// Backend names the segmentation backend compiled into this binary.
const Backend = "opencv"

// DefaultSegmenter returns the OpenCV segmenter.
func DefaultSegmenter(cfg config.Config) Segmenter {
	return NewCVSegmenter(cfg)
}

// CVSegmenter runs the mask pipeline through OpenCV.
type CVSegmenter struct {
	blurKernel  int
	blockSize   int
	offset      float32
	morphKernel int
}

// NewCVSegmenter builds an OpenCV segmenter from cfg.
func NewCVSegmenter(cfg config.Config) *CVSegmenter {
	return &CVSegmenter{
		blurKernel:  cfg.BlurKernel,
		blockSize:   cfg.BlockSize,
		offset:      float32(cfg.ThresholdOffset),
		morphKernel: cfg.MorphKernel,
	}
}

// Segment returns the external contours of the cleaned hazard mask.
func (s *CVSegmenter) Segment(img image.Image) ([]Contour, error) {
	if err := ValidateFrame(img); err != nil {
		return nil, err
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(s.blurKernel, s.blurKernel), 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, s.blockSize, s.offset)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(s.morphKernel, s.morphKernel))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(binary, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	found := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	origin := img.Bounds().Min
	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		points := found.At(i).ToPoints()
		c := make(Contour, len(points))
		for j, p := range points {
			c[j] = p.Add(origin)
		}
		contours = append(contours, c)
	}
	return contours, nil
}
