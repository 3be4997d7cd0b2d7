package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// EncodedImage is an image ready to embed in a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Resize scales img by scale with Lanczos resampling. Scales of 1 or below
// zero return img unchanged.
func Resize(img image.Image, scale float64) image.Image {
	if scale == 1.0 || scale <= 0 {
		return img
	}
	b := img.Bounds()
	w := max(int(float64(b.Dx())*scale), 1)
	h := max(int(float64(b.Dy())*scale), 1)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG returns img, scaled, as base64 PNG.
func EncodePNG(img image.Image, scale float64) (*EncodedImage, error) {
	img = Resize(img, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// FrameWriter is a pipeline.Sink that saves every annotated frame into a
// directory as frame_000000.png, frame_000001.png, ...
type FrameWriter struct {
	dir       string
	ext       string
	scale     float64
	annotator *Annotator
}

// NewFrameWriter creates dir if needed. format is "png" or "jpg". A nil
// annotator writes frames unannotated.
func NewFrameWriter(dir, format string, scale float64, annotator *Annotator) (*FrameWriter, error) {
	ext := "." + format
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return nil, fmt.Errorf("unsupported frame format %q: %w", format, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FrameWriter{dir: dir, ext: ext, scale: scale, annotator: annotator}, nil
}

// PathFor returns the file written for frame index.
func (w *FrameWriter) PathFor(index int) string {
	return filepath.Join(w.dir, fmt.Sprintf("frame_%06d%s", index, w.ext))
}

// Write annotates and saves one frame.
func (w *FrameWriter) Write(_ context.Context, frame pipeline.Frame, res pipeline.Result) error {
	var img image.Image = frame.Image
	if w.annotator != nil {
		img = w.annotator.Annotate(frame.Image, res)
	}
	if err := imaging.Save(Resize(img, w.scale), w.PathFor(frame.Index)); err != nil {
		return fmt.Errorf("failed to save frame %d: %w", frame.Index, err)
	}
	return nil
}

// Close is a no-op.
func (w *FrameWriter) Close() error {
	return nil
}
