// Package video reads and writes video files through OpenCV.
//
// The real implementation needs cgo and an OpenCV install and is only built
// with the "gocv" tag. Without the tag, Open and Create fail with
// ErrNoBackend and callers fall back to frame directories.
package video

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrNoBackend is returned when the binary was built without OpenCV.
var ErrNoBackend = errors.New("video support requires building with -tags gocv")

// Codec is the FourCC used for written videos.
const Codec = "mp4v"

// DefaultFPS is used when a container reports no frame rate.
const DefaultFPS = 30.0

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".m4v":  true,
	".webm": true,
}

// IsVideoFile reports whether path has a known video container extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

func fpsOrDefault(fps float64) float64 {
	if fps <= 0 {
		return DefaultFPS
	}
	return fps
}
