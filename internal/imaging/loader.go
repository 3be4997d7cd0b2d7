package imaging

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/lane-pilot/internal/pipeline"
)

// ImageCache provides thread-safe caching of decoded frames keyed by path.
//
// The tool server analyzes the same still frame several times (detect,
// steer, decide); the cache keeps it decoded between calls. Cached images
// stay in memory until Evict or Clear.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path, decoding it on first use.
// Paths are cached as given, so relative and absolute spellings of one file
// are separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict removes path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear removes every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Open decodes a PNG, JPEG or GIF frame, applying EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// frameExtensions are the still-image formats DirSource reads.
var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// IsFrameFile reports whether path has a still-image extension.
func IsFrameFile(path string) bool {
	return frameExtensions[strings.ToLower(filepath.Ext(path))]
}

// DirSource reads the image files of a directory as consecutive frames,
// sorted by file name.
type DirSource struct {
	paths []string
	next  int
	info  pipeline.StreamInfo
}

// NewDirSource lists dir. The first frame sets the stream size; fps is
// reported as given since stills carry no timing.
func NewDirSource(dir string, fps float64) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsFrameFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image frames in %s", dir)
	}
	sort.Strings(paths)

	s := &DirSource{paths: paths, info: pipeline.StreamInfo{FPS: fps, Frames: len(paths)}}
	if f, err := os.Open(paths[0]); err == nil {
		if cfg, _, err := image.DecodeConfig(f); err == nil {
			s.info.Width, s.info.Height = cfg.Width, cfg.Height
		}
		f.Close()
	}
	return s, nil
}

// Info describes the directory as a stream.
func (s *DirSource) Info() pipeline.StreamInfo {
	return s.info
}

// Paths returns the frame files in playback order.
func (s *DirSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Next decodes the next file. A file that fails to decode yields a frame
// with a nil Image and the decode error in Err so the runner can skip it.
func (s *DirSource) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	if s.next >= len(s.paths) {
		return pipeline.Frame{}, io.EOF
	}
	index := s.next
	s.next++

	img, err := Open(s.paths[index])
	if err != nil {
		return pipeline.Frame{Index: index, Err: fmt.Errorf("%s: %w", filepath.Base(s.paths[index]), err)}, nil
	}
	return pipeline.Frame{Index: index, Image: img}, nil
}

// Close is a no-op; files are closed as they are read.
func (s *DirSource) Close() error {
	return nil
}
