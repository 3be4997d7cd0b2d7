package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/lane-pilot/internal/config"
	"github.com/ironsheep/lane-pilot/internal/decision"
	"github.com/ironsheep/lane-pilot/internal/detection"
	"github.com/ironsheep/lane-pilot/internal/hazard"
	"github.com/ironsheep/lane-pilot/internal/imaging"
	"github.com/ironsheep/lane-pilot/internal/pipeline"
	"github.com/ironsheep/lane-pilot/internal/steering"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "analyze_frame", "decide").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Frame Analysis
	case "analyze_frame":
		return s.handleAnalyzeFrame(args)
	case "detect_hazards":
		return s.handleDetectHazards(args)

	// Stage Helpers
	case "steering_intent":
		return s.handleSteeringIntent(args)
	case "decide":
		return s.handleDecide(args)
	case "estimate_distance":
		return s.handleEstimateDistance(args)
	case "get_config":
		return s.handleGetConfig()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Frame Analysis Handlers ===

type analyzeFrameArgs struct {
	Path     string          `json:"path"`
	Boxes    []detection.Box `json:"boxes"`
	Annotate bool            `json:"annotate"`
	Scale    float64         `json:"scale"`
	Verbose  bool            `json:"verbose"`
}

// AnalyzeFrameResult is the analyze_frame response.
type AnalyzeFrameResult struct {
	pipeline.Result
	Annotated *imaging.EncodedImage `json:"annotated,omitempty"`
}

func (s *Server) handleAnalyzeFrame(args json.RawMessage) (interface{}, error) {
	var a analyzeFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	frame := pipeline.Frame{Image: img}
	res, err := s.engine.Process(frame, a.Boxes)
	if err != nil {
		return nil, err
	}

	out := AnalyzeFrameResult{Result: res}
	if !a.Verbose {
		out.Result = res.Brief()
	}
	if a.Annotate {
		out.Annotated, err = imaging.EncodePNG(s.annotator.Annotate(img, res), a.Scale)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type detectHazardsArgs struct {
	Path            string `json:"path"`
	IncludeContours bool   `json:"include_contours"`
}

func (s *Server) handleDetectHazards(args json.RawMessage) (interface{}, error) {
	var a detectHazardsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Process(pipeline.Frame{Image: img}, nil)
	if err != nil {
		return nil, err
	}
	if a.IncludeContours {
		return res.Hazard, nil
	}
	return res.Brief().Hazard, nil
}

// === Stage Helper Handlers ===

type steeringIntentArgs struct {
	Boxes []detection.Box `json:"boxes"`
	Width int             `json:"width"`
}

// SteeringIntentResult is the steering_intent response.
type SteeringIntentResult struct {
	Intent     steering.Intent `json:"intent"`
	LaneBoxes  int             `json:"lane_boxes"`
	LaneCenter *float64        `json:"lane_center"`
	Center     float64         `json:"frame_center"`
	DeadBand   float64         `json:"dead_band_px"`
}

func (s *Server) handleSteeringIntent(args json.RawMessage) (interface{}, error) {
	var a steeringIntentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", a.Width)
	}

	h := steering.New(s.engine.Config())
	out := SteeringIntentResult{
		Intent:    h.Decide(a.Boxes, a.Width),
		LaneBoxes: len(detection.OfClass(a.Boxes, h.LaneClass, h.MinLaneConfidence)),
		Center:    float64(a.Width) / 2,
		DeadBand:  float64(a.Width) * h.DeadBandFraction,
	}
	if c, ok := h.LaneCenter(a.Boxes); ok {
		out.LaneCenter = &c
	}
	return out, nil
}

type decideArgs struct {
	NearestM       *float64        `json:"nearest_m"`
	Intent         steering.Intent `json:"intent"`
	BrakeDistanceM *float64        `json:"brake_distance_m"`
}

// DecideResult is the decide response.
type DecideResult struct {
	Command        decision.Command `json:"command"`
	BrakeDistanceM float64          `json:"brake_distance_m"`
}

func (s *Server) handleDecide(args json.RawMessage) (interface{}, error) {
	var a decideArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	brake := s.engine.Config().BrakeDistanceM
	if a.BrakeDistanceM != nil {
		brake = *a.BrakeDistanceM
	}

	return DecideResult{
		Command:        decision.Decide(nearestReport(a.NearestM), a.Intent, brake),
		BrakeDistanceM: brake,
	}, nil
}

// nearestReport builds the report of a frame whose only hazard is at
// nearest, or a clear report when nearest is nil.
func nearestReport(nearest *float64) hazard.Report {
	if nearest == nil {
		return hazard.Report{Regions: []hazard.Region{}}
	}
	d := *nearest
	return hazard.Report{
		Detected: true,
		Count:    1,
		Regions:  []hazard.Region{{DistanceM: d}},
		NearestM: &d,
	}
}

type estimateDistanceArgs struct {
	WidthPx float64 `json:"width_px"`
}

// EstimateDistanceResult is the estimate_distance response.
type EstimateDistanceResult struct {
	DistanceM *float64 `json:"distance_m"`
	Estimated bool     `json:"estimated"`
}

func (s *Server) handleEstimateDistance(args json.RawMessage) (interface{}, error) {
	var a estimateDistanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var out EstimateDistanceResult
	if d, ok := hazard.NewDistanceEstimator(s.engine.Config()).Estimate(a.WidthPx); ok {
		out.DistanceM = &d
		out.Estimated = true
	}
	return out, nil
}

// ConfigResult is the get_config response.
type ConfigResult struct {
	Config  config.Config `json:"config"`
	Backend string        `json:"backend"`
}

func (s *Server) handleGetConfig() (interface{}, error) {
	return ConfigResult{Config: s.engine.Config(), Backend: hazard.Backend}, nil
}
