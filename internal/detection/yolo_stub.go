//go:build !gocv

package detection

import (
	"context"
	"image"
)

// YOLO is unavailable without the gocv build tag.
type YOLO struct{}

// NewYOLO always fails with ErrNoBackend in this build.
func NewYOLO(YOLOConfig) (*YOLO, error) {
	return nil, ErrNoBackend
}

// Detect always fails with ErrNoBackend.
func (*YOLO) Detect(context.Context, int, image.Image) ([]Box, error) {
	return nil, ErrNoBackend
}

// Close is a no-op.
func (*YOLO) Close() error {
	return nil
}
