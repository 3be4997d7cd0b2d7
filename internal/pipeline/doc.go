// Package pipeline runs the decision engine over a stream of frames.
//
// # Engine
//
// Engine.Process is the whole per-frame computation: hazard detection, the
// steering heuristic and decision fusion. It is synchronous, holds only an
// immutable config.Config and can be shared by any number of goroutines.
//
// # Runner
//
// Runner reads frames from a FrameSource, queries the detection model,
// processes frames on a bounded worker pool and hands every Result to a
// Sink strictly in frame order. Frames rejected with hazard.ErrInvalidFrame
// are logged and skipped; any other error stops the run.
//
// Sources and sinks own all blocking I/O. Cancelling the context passed to
// Runner.Run stops reading further frames.
package pipeline
