// Package server implements the MCP (Model Context Protocol) server for the
// lane-pilot decision engine.
//
// The server lets an MCP client run single frames through the same engine
// the batch runner uses, or poke at individual stages (hazard detection,
// the steering heuristic, fusion, distance estimation) with explicit inputs.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frame Analysis:
//   - analyze_frame: Full per-frame decision, optionally with an annotated image
//   - detect_hazards: Pothole regions and nearest distance for an image
//
// Stage Helpers:
//   - steering_intent: Lane heuristic over explicit detection boxes
//   - decide: Fuse a nearest distance and an intent into a command
//   - estimate_distance: Pinhole distance for an apparent pixel width
//   - get_config: The tuning the server runs with
//
// # Image Caching
//
// Frames are loaded through imaging.ImageCache, keyed by path, and reused
// across tool calls for the lifetime of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server error")
//	}
package server
