// Package detection adapts external object and lane detectors to the engine.
//
// The engine does not run a neural network of its own. Every frame, a Model
// returns the boxes it found, and the steering heuristic reads the ones whose
// class is the configured lane class. All other classes pass through to the
// annotator untouched.
//
// # Models
//
// Three implementations are provided:
//
//   - Recorded: detections replayed from a JSON-lines file, one line per
//     frame, produced offline by any detector
//   - None: returns no boxes; steering then always resolves to straight
//   - YOLO: a YOLOv8 ONNX network run through OpenCV's DNN module. It is only
//     available when built with the "gocv" tag; without it NewYOLO returns
//     ErrNoBackend.
//
// # Coordinate System
//
// Box corners are in pixels of the source frame: origin at the top-left,
// X rightward, Y downward. (X1, Y1) is the top-left corner and (X2, Y2) the
// bottom-right. Coordinates are floats because detectors regress them.
//
// # Confidence Scores
//
// Confidence is the detector's score in [0, 1]. The engine treats it as
// metadata; lane boxes are only dropped for low confidence when
// MinLaneConfidence is configured above zero.
package detection
