package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	stdcolor "image/color"
	"math"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/inspect"
	"github.com/ironsheep/cigraph/internal/logging"
	"github.com/ironsheep/cigraph/internal/metadata"
	"github.com/ironsheep/cigraph/internal/pipeline"
	"github.com/ironsheep/cigraph/internal/pixel"
	"github.com/ironsheep/cigraph/internal/render"
	"github.com/ironsheep/cigraph/internal/serialize"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "graph_render", "filter_list").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		logging.Logger().Info("tool failed", "tool", params.Name, "err", err)
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Colours and filters
	case "color_parse":
		return s.handleColorParse(args)
	case "filter_list":
		return s.handleFilterList(args)
	case "filter_describe":
		return s.handleFilterDescribe(args)

	// Sources
	case "image_info":
		return s.handleImageInfo(args)

	// Graph evaluation
	case "graph_render":
		return s.handleGraphRender(ctx, args)
	case "graph_extent":
		return s.handleGraphExtent(args)
	case "graph_roi":
		return s.handleGraphROI(args)
	case "graph_serialize":
		return s.handleGraphSerialize(args)

	// Inspection
	case "graph_sample":
		return s.handleGraphSample(ctx, args)
	case "graph_palette":
		return s.handleGraphPalette(ctx, args)

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

// === Colour and Filter Handlers ===

type colorParseArgs struct {
	Color string `json:"color"`
}

type colorParseResult struct {
	Color      string              `json:"color"`
	ColorSpace string              `json:"color_space"`
	Components []float64           `json:"components"`
	SRGB       inspect.ColorResult `json:"srgb"`
}

func (s *Server) handleColorParse(args json.RawMessage) (interface{}, error) {
	var a colorParseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := color.Parse(a.Color)
	if err != nil {
		return nil, err
	}
	srgb, err := c.Converted(colorspace.SRGB())
	if err != nil {
		return nil, err
	}
	comps := c.Components()
	return &colorParseResult{
		Color:      c.String(),
		ColorSpace: c.Space().Name(),
		Components: comps[:],
		SRGB:       inspect.NewColorResult(srgb.Red(), srgb.Green(), srgb.Blue(), srgb.Alpha()),
	}, nil
}

type filterListArgs struct {
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
}

type filterSummary struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Categories   []string `json:"categories"`
	Serializable bool     `json:"serializable"`
}

type filterListResult struct {
	Filters []filterSummary `json:"filters"`
	Count   int             `json:"count"`
}

func (s *Server) handleFilterList(args json.RawMessage) (interface{}, error) {
	var a filterListArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	var names []string
	if len(a.Categories) > 0 {
		names = s.registry.NamesInCategories(a.Categories)
	} else {
		names = s.registry.Names(a.Category)
	}

	out := make([]filterSummary, 0, len(names))
	for _, n := range names {
		d, ok := s.registry.Lookup(n)
		if !ok {
			continue
		}
		out = append(out, filterSummary{
			Name:         n,
			DisplayName:  d.DisplayName,
			Categories:   d.Categories,
			Serializable: d.Serializable,
		})
	}
	return &filterListResult{Filters: out, Count: len(out)}, nil
}

type filterDescribeArgs struct {
	Name string `json:"name"`
}

type paramInfo struct {
	Key         string   `json:"key"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Identity    any      `json:"identity,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	SliderMin   float64  `json:"slider_min,omitempty"`
	SliderMax   float64  `json:"slider_max,omitempty"`
	Policy      string   `json:"range_policy,omitempty"`
	Length      int      `json:"length,omitempty"`
}

type filterDescribeResult struct {
	Name         string      `json:"name"`
	DisplayName  string      `json:"display_name"`
	Description  string      `json:"description"`
	Categories   []string    `json:"categories"`
	Inputs       []string    `json:"inputs"`
	Params       []paramInfo `json:"params"`
	Serializable bool        `json:"serializable"`
}

func (s *Server) handleFilterDescribe(args json.RawMessage) (interface{}, error) {
	var a filterDescribeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	d, ok := s.registry.Lookup(a.Name)
	if !ok {
		return nil, fmt.Errorf("unknown filter: %s", a.Name)
	}

	params := make([]paramInfo, 0, len(d.Params))
	for _, p := range d.Params {
		info := paramInfo{
			Key:         p.Key,
			Type:        p.Type.String(),
			Description: p.Description,
			SliderMin:   p.SliderMin,
			SliderMax:   p.SliderMax,
			Length:      p.Length,
		}
		if p.Default != nil {
			info.Default, _ = filter.EncodeValue(p.Type, p.Default)
		}
		if p.Identity != nil {
			info.Identity, _ = filter.EncodeValue(p.Type, p.Identity)
		}
		if p.Range != nil {
			info.Min = finite(p.Range.Min)
			info.Max = finite(p.Range.Max)
			info.Policy = p.Policy.String()
		}
		params = append(params, info)
	}
	inputs := d.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	return &filterDescribeResult{
		Name:         a.Name,
		DisplayName:  d.DisplayName,
		Description:  d.Description,
		Categories:   d.Categories,
		Inputs:       inputs,
		Params:       params,
		Serializable: d.Serializable,
	}, nil
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// === Source Handlers ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	info := h.Info()
	return &info, nil
}

// === Graph Handlers ===

type graphArgs struct {
	Pipeline json.RawMessage `json:"pipeline"`
	Rect     []float64       `json:"rect"`
}

// stages parses and builds the pipeline argument.
func (s *Server) stages(raw json.RawMessage) ([]*graph.Image, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing pipeline")
	}
	d, err := pipeline.Parse(raw)
	if err != nil {
		return nil, err
	}
	return s.builder.Stages(d)
}

func (s *Server) build(raw json.RawMessage) (*graph.Image, error) {
	st, err := s.stages(raw)
	if err != nil {
		return nil, err
	}
	return st[len(st)-1], nil
}

// rectOrExtent returns the rect argument, or img's extent when it is absent.
func rectOrExtent(v []float64, img *graph.Image) (geom.Rect, error) {
	if v == nil {
		return img.Extent(), nil
	}
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("rect needs [x, y, width, height], got %d values", len(v))
	}
	return geom.XYWH(v[0], v[1], v[2], v[3]), nil
}

func encodeRect(r geom.Rect) any {
	v, _ := filter.EncodeValue(filter.TypeRectangle, r)
	return v
}

func (s *Server) renderFloat(ctx context.Context, img *graph.Image, r geom.Rect) (*pixel.Buffer, error) {
	out, err := s.renderer.Render(ctx, img, r, render.FormatRGBAf, nil)
	if err != nil {
		return nil, err
	}
	return out.(*pixel.Buffer), nil
}

type graphRenderArgs struct {
	graphArgs
	Format     string `json:"format"`
	Grid       int    `json:"grid"`
	GridLabels bool   `json:"grid_labels"`
	GridColor  string `json:"grid_color"`
}

type graphRenderResult struct {
	Rect any `json:"rect"`
	*inspect.EncodedImage
}

func (s *Server) handleGraphRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a graphRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = "png"
	}
	img, err := s.build(a.Pipeline)
	if err != nil {
		return nil, err
	}
	r, err := rectOrExtent(a.Rect, img)
	if err != nil {
		return nil, err
	}
	buf, err := s.renderFloat(ctx, img, r)
	if err != nil {
		return nil, err
	}
	var out image.Image = buf
	if a.Grid > 0 {
		var gc stdcolor.Color
		if a.GridColor != "" {
			c, err := color.Parse(a.GridColor)
			if err != nil {
				return nil, err
			}
			gc = c.Std()
		}
		if out, err = inspect.GridOverlay(buf, a.Grid, a.GridLabels, gc); err != nil {
			return nil, err
		}
	}
	enc, err := inspect.Encode(out, a.Format)
	if err != nil {
		return nil, err
	}
	return &graphRenderResult{Rect: encodeRect(geom.FromImageRect(buf.Rect)), EncodedImage: enc}, nil
}

type graphExtentResult struct {
	Extent     any                 `json:"extent"`
	Kind       string              `json:"kind"`
	Infinite   bool                `json:"infinite"`
	Empty      bool                `json:"empty"`
	ColorSpace string              `json:"color_space"`
	Properties metadata.Properties `json:"properties"`
}

func (s *Server) handleGraphExtent(args json.RawMessage) (interface{}, error) {
	var a graphArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.build(a.Pipeline)
	if err != nil {
		return nil, err
	}
	ext := img.Extent()
	return &graphExtentResult{
		Extent:     encodeRect(ext),
		Kind:       img.Kind().String(),
		Infinite:   ext.IsInfinite(),
		Empty:      ext.IsNull(),
		ColorSpace: img.ColorSpace().Name(),
		Properties: img.Properties(),
	}, nil
}

type graphROIArgs struct {
	graphArgs
	Stage int `json:"stage"`
}

type graphROIResult struct {
	Stage  int    `json:"stage"`
	Kind   string `json:"kind"`
	Rect   any    `json:"rect"`
	Region any    `json:"region"`
}

func (s *Server) handleGraphROI(args json.RawMessage) (interface{}, error) {
	var a graphROIArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Rect == nil {
		return nil, fmt.Errorf("graph_roi needs a rect")
	}
	st, err := s.stages(a.Pipeline)
	if err != nil {
		return nil, err
	}
	if a.Stage < 0 || a.Stage >= len(st) {
		return nil, fmt.Errorf("stage %d out of range 0..%d", a.Stage, len(st)-1)
	}
	root, target := st[len(st)-1], st[a.Stage]
	r, err := rectOrExtent(a.Rect, root)
	if err != nil {
		return nil, err
	}
	return &graphROIResult{
		Stage:  a.Stage,
		Kind:   target.Kind().String(),
		Rect:   encodeRect(r),
		Region: encodeRect(root.RegionOfInterest(target, r)),
	}, nil
}

type graphSerializeArgs struct {
	graphArgs
	Format string `json:"format"`
}

type graphSerializeResult struct {
	Serializable bool                `json:"serializable"`
	Document     *serialize.Document `json:"document,omitempty"`
	XMP          string              `json:"xmp,omitempty"`
}

func (s *Server) handleGraphSerialize(args json.RawMessage) (interface{}, error) {
	var a graphSerializeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.build(a.Pipeline)
	if err != nil {
		return nil, err
	}
	doc, ok := serialize.Serialize(img, s.registry)
	if !ok {
		return &graphSerializeResult{}, nil
	}
	switch a.Format {
	case "", "json":
		return &graphSerializeResult{Serializable: true, Document: &doc}, nil
	case "xmp":
		data, err := serialize.MarshalXMP(doc)
		if err != nil {
			return nil, err
		}
		return &graphSerializeResult{Serializable: true, XMP: string(data)}, nil
	}
	return nil, fmt.Errorf("unknown serialization format: %s", a.Format)
}

// === Inspection Handlers ===

type graphSampleArgs struct {
	Pipeline json.RawMessage `json:"pipeline"`
	Points   []inspect.Point `json:"points"`
}

type graphSampleResult struct {
	Samples []inspect.Sample `json:"samples"`
}

func (s *Server) handleGraphSample(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a graphSampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("graph_sample needs at least one point")
	}
	img, err := s.build(a.Pipeline)
	if err != nil {
		return nil, err
	}

	// Render only the bounding box of the points.
	var bounds image.Rectangle
	for _, p := range a.Points {
		bounds = bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}
	buf, err := s.renderFloat(ctx, img, geom.FromImageRect(bounds))
	if err != nil {
		return nil, err
	}
	samples, err := inspect.SampleColors(buf, a.Points)
	if err != nil {
		return nil, err
	}
	return &graphSampleResult{Samples: samples}, nil
}

type graphPaletteArgs struct {
	graphArgs
	Count int `json:"count"`
}

type graphPaletteResult struct {
	Colors []inspect.ColorFrequency `json:"colors"`
}

func (s *Server) handleGraphPalette(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a graphPaletteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count <= 0 {
		a.Count = 5
	}
	img, err := s.build(a.Pipeline)
	if err != nil {
		return nil, err
	}
	r, err := rectOrExtent(a.Rect, img)
	if err != nil {
		return nil, err
	}
	buf, err := s.renderFloat(ctx, img, r)
	if err != nil {
		return nil, err
	}
	return &graphPaletteResult{Colors: inspect.DominantColors(buf, a.Count)}, nil
}
