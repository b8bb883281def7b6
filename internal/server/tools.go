package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func regionProperties(props map[string]interface{}) map[string]interface{} {
	for _, name := range []string{"x", "y", "width", "height"} {
		props[name] = map[string]interface{}{
			"type":        "integer",
			"description": "Region " + name + " in pixels. Omit all four to use the whole image",
		}
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, decoder format and the pixel buffer geometry used by the detector.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Filter Engine
		{
			Name:        "image_preprocess",
			Description: "Run the preprocessing pipeline (grayscale, contrast stretch, filters) and return the result as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"filters": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string", "enum": []string{"laplacian", "edge", "sharpening", "gaussian", "sobel", "linear"}},
						"description": "Filters applied in order after the contrast stretch. Default from configuration (sobel)",
					},
					"black_percent": map[string]interface{}{
						"type":        "number",
						"description": "Percent of darkest pixels clipped by the contrast stretch",
					},
					"white_percent": map[string]interface{}{
						"type":        "number",
						"description": "Percent of brightest pixels clipped by the contrast stretch",
					},
				},
				"required": []string{"path"},
			},
		},

		// HOG Features
		{
			Name:        "image_hog_describe",
			Description: "Compute the HOG descriptor of an image region. The region is converted to grayscale and resized to the detection window before extraction.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": regionProperties(map[string]interface{}{
					"path": pathProperty(),
					"include_features": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the full feature vector, not only its summary. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "image_detect_people",
			Description: "Find people with a multi-scale HOG window scan, a trained classifier and adaptive clustering. Returns one bounding box per person, highest score first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"model": map[string]interface{}{
						"type":        "string",
						"description": "Path to a JSON classifier. Default from configuration",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum window probability (0-1). Default 0.7",
					},
					"step": map[string]interface{}{
						"type":        "integer",
						"description": "Horizontal window stride in pixels. Default 64",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Cluster distance threshold in pixels. Default 64",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_draw_detections",
			Description: "Draw bounding boxes over an image and return it as base64-encoded PNG. Without boxes, people are detected first and their boxes drawn.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"boxes": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":      map[string]interface{}{"type": "integer"},
								"y":      map[string]interface{}{"type": "integer"},
								"width":  map[string]interface{}{"type": "integer"},
								"height": map[string]interface{}{"type": "integer"},
								"label":  map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y", "width", "height"},
						},
						"description": "Boxes to draw",
					},
					"model": map[string]interface{}{
						"type":        "string",
						"description": "Classifier used when boxes are omitted",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 2",
						"default":     2,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (e.g. '#FF0000'). Default is one color per box",
					},
				},
				"required": []string{"path"},
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
