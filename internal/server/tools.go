package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// boxesSchema describes a list of detection boxes.
func boxesSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x1":         map[string]interface{}{"type": "number"},
				"y1":         map[string]interface{}{"type": "number"},
				"x2":         map[string]interface{}{"type": "number"},
				"y2":         map[string]interface{}{"type": "number"},
				"class":      map[string]interface{}{"type": "integer"},
				"label":      map[string]interface{}{"type": "string"},
				"confidence": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x1", "y1", "x2", "y2", "class"},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame Analysis
		{
			Name:        "analyze_frame",
			Description: "Run one frame through the full decision engine: pothole detection, lane steering and fusion. Returns the driving command (straight, left, right, brake) with the hazard report. Optionally returns the annotated frame as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame image",
					},
					"boxes": boxesSchema("Object detections for this frame from an external model. Omit when there are none."),
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the frame with overlays drawn. Default false",
						"default":     false,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the annotated image. Default 1.0",
						"default":     1.0,
					},
					"verbose": map[string]interface{}{
						"type":        "boolean",
						"description": "Include region contours and boxes in the result. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "detect_hazards",
			Description: "Find pothole regions in an image. Returns each region's bounding box, area, circularity, aspect ratio and estimated distance in meters, plus the nearest distance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame image",
					},
					"include_contours": map[string]interface{}{
						"type":        "boolean",
						"description": "Include contour points for each region. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Stage Helpers
		{
			Name:        "steering_intent",
			Description: "Apply the lane heuristic to detection boxes: average the lane boxes' horizontal centers and compare against the frame center with the configured dead band.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"boxes": boxesSchema("Object detections; only the configured lane class is used"),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels",
					},
				},
				"required": []string{"boxes", "width"},
			},
		},
		{
			Name:        "decide",
			Description: "Fuse a nearest pothole distance and a steering intent into the driving command. A pothole nearer than the brake distance overrides steering with brake.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"nearest_m": map[string]interface{}{
						"type":        "number",
						"description": "Nearest pothole distance in meters. Omit when no pothole was found",
					},
					"intent": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"straight", "left", "right"},
						"description": "Steering intent",
					},
					"brake_distance_m": map[string]interface{}{
						"type":        "number",
						"description": "Override the configured brake distance",
					},
				},
				"required": []string{"intent"},
			},
		},
		{
			Name:        "estimate_distance",
			Description: "Estimate distance in meters from an object's apparent width in pixels using the configured pinhole calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width_px": map[string]interface{}{
						"type":        "number",
						"description": "Apparent width in pixels",
					},
				},
				"required": []string{"width_px"},
			},
		},
		{
			Name:        "get_config",
			Description: "Return the tuning values the server was started with and the segmentation backend in use.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
