// Package imaging reads still frames from disk and renders the engine's
// decisions onto them.
//
// # Frame Sources
//
// DirSource plays a directory of PNG, JPEG or GIF files as a video, one file
// per frame in file-name order. It implements pipeline.FrameSource without
// cgo, so it works in builds without OpenCV. ImageCache keeps decoded stills
// for the tool server.
//
// # Annotation
//
// Annotator draws, on a copy of the frame:
//   - model boxes, colored by class, with "Name 0.87" labels
//   - pothole contours and bounding boxes with "12.5m" distance labels
//   - the "POTHOLE DETECTED!" banner when any pothole is found
//   - the command panel (LEFT, RIGHT, STRAIGHT or BRAKE!) with its arrow
//   - the caption in the top-left corner
//
// Text uses a built-in 3x5 bitmap font scaled with the frame height.
//
// # Coordinate System
//
// All coordinates are frame pixels: (0,0) at the top-left, X rightward,
// Y downward. Rectangles include their top-left corner and exclude the
// bottom-right.
//
// # Output
//
// FrameWriter is a pipeline.Sink that saves annotated frames as numbered
// image files. EncodePNG returns base64 PNG for JSON responses.
package imaging
