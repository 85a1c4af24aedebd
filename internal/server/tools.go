package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pipelineProperty describes the JSON image graph argument shared by the
// graph tools.
var pipelineProperty = map[string]interface{}{
	"type": "object",
	"description": "Image graph: {\"source\": {\"path\"|\"color\"|\"empty\"}, \"steps\": [{\"op\": ...}]}. " +
		"Ops: filter (filter, params, inputs), transform (matrix [a b c d e f]), orient (orientation 1-8), " +
		"crop/clamp/set_alpha_one (rect [x y w h]), over (image), blur (sigma), clamp_to_extent, " +
		"premultiply, unpremultiply, match_to_working/match_from_working (color_space), " +
		"set_properties (properties), replay (document from graph_serialize).",
}

// rectProperty describes an optional [x, y, w, h] rectangle argument.
var rectProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "number"},
	"minItems":    4,
	"maxItems":    4,
	"description": "Rectangle [x, y, width, height] in graph coordinates. Defaults to the image extent.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Colours and filters
		{
			Name:        "color_parse",
			Description: "Parse a colour given as a name, hex string or component list with optional colour space, and return its canonical form and sRGB values.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Colour string, e.g. \"red\", \"#FF8040\", \"0.2 0.4 0.6 1\" or \"0.5 0.5 0.5 linearSRGB\"",
					},
				},
				"required": []string{"color"},
			},
		},
		{
			Name:        "filter_list",
			Description: "List registered filters, optionally restricted to one category or to filters in all of several categories.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{
						"type":        "string",
						"description": "Category name, e.g. CICategoryColorAdjustment. Empty lists every filter.",
					},
					"categories": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Return filters that belong to every listed category",
					},
				},
			},
		},
		{
			Name:        "filter_describe",
			Description: "Describe a filter: its inputs, parameter schema with types, defaults and ranges, categories and whether it can be serialized.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Registered filter name, e.g. CIGaussianBlur",
					},
				},
				"required": []string{"name"},
			},
		},

		// Sources
		{
			Name:        "image_info",
			Description: "Read an image file header: dimensions, format, colour depth, alpha, size and XMP title/description.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Graph evaluation
		{
			Name:        "graph_render",
			Description: "Build an image graph and render a rectangle of it, optionally with a coordinate grid. Returns the encoded image as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pipeline": pipelineProperty,
					"rect":     rectProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpg", "gif", "tif", "bmp"},
						"description": "Output file format. Default png",
						"default":     "png",
					},
					"grid": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a coordinate grid every N pixels of graph space. 0 disables it",
						"default":     0,
					},
					"grid_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with their graph coordinates",
						"default":     false,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line colour. Default semi-transparent red",
					},
				},
				"required": []string{"pipeline"},
			},
		},
		{
			Name:        "graph_extent",
			Description: "Build an image graph and report its extent, root node kind, colour space and properties without rendering.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pipeline": pipelineProperty,
				},
				"required": []string{"pipeline"},
			},
		},
		{
			Name:        "graph_roi",
			Description: "Report the region of an intermediate stage needed to render a rectangle of the final image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pipeline": pipelineProperty,
					"rect":     rectProperty,
					"stage": map[string]interface{}{
						"type":        "integer",
						"description": "Stage index: 0 is the source, n is the image after step n. Default 0",
						"default":     0,
					},
				},
				"required": []string{"pipeline", "rect"},
			},
		},
		{
			Name:        "graph_serialize",
			Description: "Serialize the adjustment chain at the top of an image graph (transforms, crops and serializable filters) as JSON or XMP.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pipeline": pipelineProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"json", "xmp"},
						"description": "Document format. Default json",
						"default":     "json",
					},
				},
				"required": []string{"pipeline"},
			},
		},

		// Inspection
		{
			Name:        "graph_sample",
			Description: "Render an image graph at the given points and return the colour at each in hex, RGBA, HSL and float form.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pipeline": pipelineProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Pixel coordinates to sample",
					},
				},
				"required": []string{"pipeline", "points"},
			},
		},
		{
			Name:        "graph_palette",
			Description: "Render a rectangle of an image graph and return its most frequent colours, quantized to 16 levels per channel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pipeline": pipelineProperty,
					"rect":     rectProperty,
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colours to return. Default 5",
						"default":     5,
					},
				},
				"required": []string{"pipeline"},
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
