//go:build !gocv

package hazard

import "github.com/ironsheep/lane-pilot/internal/config"

// Backend names the segmentation backend compiled into this binary.
const Backend = "bild"

// DefaultSegmenter returns the pure-Go segmenter.
func DefaultSegmenter(cfg config.Config) Segmenter {
	return NewMaskSegmenter(cfg)
}
