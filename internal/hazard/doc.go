// Package hazard finds potholes in a single video frame and estimates how far
// away they are.
//
// # Pipeline
//
// Detection runs three stages, each a plain value configured once from
// config.Config:
//
//  1. Segmenter: luminance, 9x9 Gaussian blur, inverted adaptive Gaussian
//     threshold (block 19, offset 2), 5x5 opening then closing, and external
//     contour extraction.
//  2. ShapeFilter: keeps contours whose area, bounding-box aspect ratio and
//     circularity (4*pi*area/perimeter^2) all fall strictly inside the
//     configured bounds.
//  3. DistanceEstimator: pinhole relation
//     distance = reference_width_m * focal_length_px / width_px.
//
// Detector.Detect chains the three and returns a Report. The Report is the
// only output: the detector keeps nothing between calls, so the caller hands
// the same Report to decision fusion and to any renderer.
//
// # Coordinate System
//
// Points and rectangles use image coordinates of the source frame: origin at
// the top-left of img.Bounds(), X rightward, Y downward. Rect.W and Rect.H
// count pixels inclusively, so a single pixel has W = H = 1.
//
// # Contours
//
// Contours are closed polygons through the centers of boundary pixels,
// traced clockwise with 8-connectivity. Straight runs are compressed to their
// end points. Area and perimeter are measured on that polygon, which makes a
// one-pixel-wide line have zero area and is why degenerate shapes are
// filtered before circularity is computed.
//
// # Backends
//
// The default segmenter is pure Go and built on bild. Building with the
// "gocv" tag adds CVSegmenter, which runs the same steps through OpenCV and is
// considerably faster on full-resolution video.
package hazard
