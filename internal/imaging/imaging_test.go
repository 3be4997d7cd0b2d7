package imaging

import (
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// createTestImage creates a solid color image.
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writeTestImage saves img as PNG under dir and returns its path.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestImageCacheLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "a.png", createTestImage(20, 10, color.White))

	cache := NewImageCache()
	img1, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img1.Bounds())
	assert.Equal(t, 1, cache.Len())

	img2, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, img1, img2)

	cache.Evict(path)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	_, err = cache.Load(path)
	require.NoError(t, err)
	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestImageCacheConcurrent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "a.png", createTestImage(8, 8, color.Black))
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "frame_002.png", createTestImage(32, 24, color.Black))
	writeTestImage(t, dir, "frame_000.png", createTestImage(32, 24, color.White))
	writeTestImage(t, dir, "frame_001.png", createTestImage(32, 24, color.Gray{Y: 128}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_003.png"), []byte("not a png"), 0o644))

	src, err := NewDirSource(dir, 25)
	require.NoError(t, err)
	defer src.Close()

	info := src.Info()
	assert.Equal(t, 32, info.Width)
	assert.Equal(t, 24, info.Height)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, 4, info.Frames)

	ctx := context.Background()
	var frames []pipeline.Frame
	for {
		f, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
	require.Len(t, frames, 4)

	for i, f := range frames {
		assert.Equal(t, i, f.Index)
	}
	r, _, _, _ := frames[0].Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r, "frame_000 is white")
	assert.Nil(t, frames[3].Image, "undecodable file yields an empty frame")
	assert.ErrorContains(t, frames[3].Err, "frame_003.png")
	for _, f := range frames[:3] {
		assert.NoError(t, f.Err)
	}
}

func TestDirSourceErrors(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing"), 30)
	assert.Error(t, err)

	_, err = NewDirSource(t.TempDir(), 30)
	assert.ErrorContains(t, err, "no image frames")
}

func TestIsFrameFile(t *testing.T) {
	assert.True(t, IsFrameFile("a.PNG"))
	assert.True(t, IsFrameFile("dir/b.jpeg"))
	assert.False(t, IsFrameFile("c.mp4"))
	assert.False(t, IsFrameFile("noext"))
}

func TestTextSize(t *testing.T) {
	assert.Equal(t, image.Point{}, textSize("", 2))
	assert.Equal(t, image.Pt(3, 5), textSize("A", 1))
	assert.Equal(t, image.Pt(14, 10), textSize("AB", 2))
}

func TestDrawTextMarksPixels(t *testing.T) {
	img := createTestImage(20, 10, color.Black)
	fg := color.RGBA{R: 255, A: 255}

	drawText(img, 1, 1, "1", fg, 1)

	// top row of '1' is "010"
	assert.Equal(t, fg, img.RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(1, 1))
}

func TestDrawLineEndpoints(t *testing.T) {
	img := createTestImage(20, 20, color.Black)
	c := color.RGBA{G: 255, A: 255}

	drawLine(img, image.Pt(2, 3), image.Pt(15, 11), c, 1)
	assert.Equal(t, c, img.RGBAAt(2, 3))
	assert.Equal(t, c, img.RGBAAt(15, 11))

	// clipped lines do not panic
	drawLine(img, image.Pt(-10, -10), image.Pt(40, 40), c, 3)
}

func sampleResult(cmd decision.Command, detected bool) pipeline.Result {
	res := pipeline.Result{
		Frame:   0,
		Width:   320,
		Height:  240,
		Command: cmd,
		Boxes: []detection.Box{
			{X1: 20, Y1: 40, X2: 60, Y2: 200, Class: 2, Confidence: 0.91},
			{X1: 200, Y1: 40, X2: 240, Y2: 120, Class: 0, Confidence: 0.5},
		},
		Hazard: hazard.Report{Regions: []hazard.Region{}},
	}
	if detected {
		d := 12.5
		res.Hazard = hazard.Report{
			Detected: true,
			Count:    1,
			NearestM: &d,
			Regions: []hazard.Region{{
				Contour:   hazard.Contour{{140, 150}, {179, 150}, {179, 189}, {140, 189}},
				Bounds:    hazard.Rect{X: 140, Y: 150, W: 40, H: 40},
				DistanceM: d,
			}},
		}
	}
	return res
}

func TestAnnotateDoesNotModifySource(t *testing.T) {
	src := createTestImage(320, 240, color.Gray{Y: 100})
	before := append([]uint8(nil), src.Pix...)

	a := NewAnnotator(2)
	out := a.Annotate(src, sampleResult(decision.Brake, true))

	assert.Equal(t, before, src.Pix)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.NotEqual(t, src.Pix, out.Pix)
}

func TestAnnotateDrawsOverlays(t *testing.T) {
	src := createTestImage(320, 240, color.Gray{Y: 100})
	a := NewAnnotator(2)
	a.Scale = 1

	out := a.Annotate(src, sampleResult(decision.Brake, true))

	// lane box outline (class 2 is the lane class here)
	assert.Equal(t, rgba(a.Palette.Lane.Color), out.RGBAAt(20, 100))
	// person box outline
	assert.Equal(t, rgba(a.Palette.Classes[0].Color), out.RGBAAt(200, 80))
	// pothole bounding box
	assert.Equal(t, rgba(a.Palette.Region), out.RGBAAt(160, 189))
	// brake panel is filled red at its left edge
	panelY := 240 - 50 + 2
	panelX := 160 - 75/2 + 1
	assert.Equal(t, rgba(a.Palette.Brake), out.RGBAAt(panelX, panelY))
}

func TestAnnotateIndicatorColors(t *testing.T) {
	src := createTestImage(320, 240, color.Black)
	a := NewAnnotator(2)
	a.Scale = 1
	panel := image.Pt(160-75/2+1, 240-50+1)

	tests := []struct {
		cmd  decision.Command
		want color.RGBA
	}{
		{decision.Straight, rgba(a.Palette.Straight)},
		{decision.Left, rgba(a.Palette.Turn)},
		{decision.Right, rgba(a.Palette.Turn)},
		{decision.Brake, rgba(a.Palette.Brake)},
	}
	for _, tt := range tests {
		out := a.Annotate(src, sampleResult(tt.cmd, false))
		assert.Equal(t, tt.want, out.RGBAAt(panel.X, panel.Y), tt.cmd.String())
	}
}

func TestStyleFor(t *testing.T) {
	a := NewAnnotator(3)
	assert.Equal(t, "Lane", a.StyleFor(3).Name)
	assert.Equal(t, "Car", a.StyleFor(2).Name)
	assert.Equal(t, "Person", a.StyleFor(0).Name)
	assert.Equal(t, "Object", a.StyleFor(17).Name)
}

func TestCommandLabel(t *testing.T) {
	assert.Equal(t, "LEFT", CommandLabel(decision.Left))
	assert.Equal(t, "RIGHT", CommandLabel(decision.Right))
	assert.Equal(t, "STRAIGHT", CommandLabel(decision.Straight))
	assert.Equal(t, "BRAKE!", CommandLabel(decision.Brake))
}

func TestEncodePNG(t *testing.T) {
	img := createTestImage(40, 20, color.White)

	enc, err := EncodePNG(img, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 20, enc.Width)
	assert.Equal(t, 10, enc.Height)
	assert.Equal(t, "image/png", enc.MimeType)

	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	require.NoError(t, err)
	decoded, err := png.Decode(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), decoded.Bounds())

	same := Resize(img, 1)
	assert.Same(t, img, same.(*image.RGBA))
}

func TestFrameWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewFrameWriter(dir, "png", 1, NewAnnotator(2))
	require.NoError(t, err)

	frame := pipeline.Frame{Index: 7, Image: createTestImage(320, 240, color.Gray{Y: 90})}
	require.NoError(t, w.Write(context.Background(), frame, sampleResult(decision.Left, true)))
	require.NoError(t, w.Close())

	path := w.PathFor(7)
	assert.Equal(t, filepath.Join(dir, "frame_000007.png"), path)
	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())

	_, err = NewFrameWriter(dir, "xyz", 1, nil)
	assert.Error(t, err)
}
