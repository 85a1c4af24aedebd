package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and returns the raw response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callToolResult calls a tool that must succeed and decodes its text
// payload into out.
func callToolResult(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s failed: %s: %v", name, resp.Error.Message, resp.Error.Data)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

func pipelineJSON(js string) json.RawMessage { return json.RawMessage(js) }

func TestHandleToolsCall_ColorParse(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		color      string
		wantColor  string
		wantSpace  string
		wantHex    string
		wantAlpha8 uint8
	}{
		{"red", "1 0 0 1", "sRGB", "#FF0000", 255},
		{"#00FF0080", "0 1 0 0.5019607843137255", "sRGB", "#00FF0080", 128},
		{"1 1 1 linearSRGB", "1 1 1 1 linearSRGB", "linearSRGB", "#FFFFFF", 255},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			var got struct {
				Color      string    `json:"color"`
				ColorSpace string    `json:"color_space"`
				Components []float64 `json:"components"`
				SRGB       struct {
					Hex  string `json:"hex"`
					RGBA struct {
						A uint8 `json:"a"`
					} `json:"rgba"`
				} `json:"srgb"`
			}
			callToolResult(t, s, "color_parse", map[string]string{"color": tt.color}, &got)
			if got.Color != tt.wantColor {
				t.Errorf("color = %q, want %q", got.Color, tt.wantColor)
			}
			if got.ColorSpace != tt.wantSpace {
				t.Errorf("color_space = %q, want %q", got.ColorSpace, tt.wantSpace)
			}
			if len(got.Components) != 4 {
				t.Errorf("components = %v", got.Components)
			}
			if got.SRGB.Hex != tt.wantHex || got.SRGB.RGBA.A != tt.wantAlpha8 {
				t.Errorf("srgb = %+v", got.SRGB)
			}
		})
	}
}

func TestHandleToolsCall_FilterList(t *testing.T) {
	s := newTestServer(t)

	var all struct {
		Filters []struct {
			Name string `json:"name"`
		} `json:"filters"`
		Count int `json:"count"`
	}
	callToolResult(t, s, "filter_list", map[string]interface{}{}, &all)
	if all.Count == 0 || all.Count != len(all.Filters) {
		t.Fatalf("count = %d, filters = %d", all.Count, len(all.Filters))
	}

	var blur struct {
		Filters []struct {
			Name       string   `json:"name"`
			Categories []string `json:"categories"`
		} `json:"filters"`
	}
	callToolResult(t, s, "filter_list", map[string]interface{}{"category": "CICategoryBlur"}, &blur)
	if len(blur.Filters) == 0 || len(blur.Filters) >= all.Count {
		t.Fatalf("blur filters = %d of %d", len(blur.Filters), all.Count)
	}
	for _, f := range blur.Filters {
		found := false
		for _, c := range f.Categories {
			found = found || c == "CICategoryBlur"
		}
		if !found {
			t.Errorf("%s listed without CICategoryBlur", f.Name)
		}
	}
}

func TestHandleToolsCall_FilterDescribe(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		Name         string   `json:"name"`
		Inputs       []string `json:"inputs"`
		Serializable bool     `json:"serializable"`
		Params       []struct {
			Key     string   `json:"key"`
			Default float64  `json:"default"`
			Min     *float64 `json:"min"`
			Max     *float64 `json:"max"`
		} `json:"params"`
	}
	callToolResult(t, s, "filter_describe", map[string]string{"name": "CIExposureAdjust"}, &got)

	if diff := cmp.Diff([]string{"inputImage"}, got.Inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	if !got.Serializable {
		t.Error("CIExposureAdjust should be serializable")
	}
	if len(got.Params) != 1 || got.Params[0].Key != "inputEV" {
		t.Fatalf("params = %+v", got.Params)
	}
	p := got.Params[0]
	if p.Min == nil || *p.Min != -10 || p.Max == nil || *p.Max != 10 {
		t.Errorf("range = %v..%v", p.Min, p.Max)
	}

	resp := callTool(t, s, "filter_describe", map[string]string{"name": "CINotAFilter"})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("unknown filter error = %+v", resp.Error)
	}
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 100, 80, color.NRGBA{255, 0, 0, 255})

	var got struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	callToolResult(t, s, "image_info", map[string]string{"path": path}, &got)
	if got.Width != 100 || got.Height != 80 || got.Format != "png" {
		t.Errorf("info = %+v", got)
	}

	resp := callTool(t, s, "image_info", map[string]string{"path": filepath.Join(t.TempDir(), "missing.png")})
	if resp.Error == nil {
		t.Error("missing file should fail")
	}
}

func TestHandleToolsCall_GraphRender(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 6, 4, color.NRGBA{0, 0, 255, 255})

	var got struct {
		Rect        []float64 `json:"rect"`
		Width       int       `json:"width"`
		Height      int       `json:"height"`
		ImageBase64 string    `json:"image_base64"`
		MimeType    string    `json:"mime_type"`
	}
	callToolResult(t, s, "graph_render", map[string]interface{}{
		"pipeline": pipelineJSON(`{"source":{"path":"` + path + `"},"steps":[{"op":"filter","filter":"CIColorInvert"}]}`),
		"rect":     []float64{1, 1, 3, 2},
	}, &got)

	if diff := cmp.Diff([]float64{1, 1, 3, 2}, got.Rect); diff != "" {
		t.Errorf("rect mismatch (-want +got):\n%s", diff)
	}
	if got.Width != 3 || got.Height != 2 || got.MimeType != "image/png" {
		t.Errorf("result = %dx%d %s", got.Width, got.Height, got.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(got.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	r, g, b, a := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("inverted blue = %d,%d,%d,%d, want yellow", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestHandleToolsCall_GraphRenderErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing pipeline", map[string]interface{}{}},
		{"infinite extent", map[string]interface{}{"pipeline": pipelineJSON(`{"source":{"color":"red"}}`)}},
		{"bad rect", map[string]interface{}{"pipeline": pipelineJSON(`{"source":{"color":"red"}}`), "rect": []float64{0, 0, 1}}},
		{"bad format", map[string]interface{}{"pipeline": pipelineJSON(`{"source":{"color":"red"}}`), "rect": []float64{0, 0, 1, 1}, "format": "webp"}},
		{"unknown filter", map[string]interface{}{"pipeline": pipelineJSON(`{"source":{"color":"red"},"steps":[{"op":"filter","filter":"CINope"}]}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "graph_render", tt.args)
			if resp.Error == nil || resp.Error.Code != -32000 {
				t.Errorf("Error = %+v, want tool failure", resp.Error)
			}
		})
	}
}

func TestHandleToolsCall_GraphExtent(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name         string
		pipeline     string
		wantExtent   []float64
		wantKind     string
		wantInfinite bool
		wantEmpty    bool
	}{
		{"crop", `{"source":{"color":"red"},"steps":[{"op":"crop","rect":[1,2,3,4]}]}`, []float64{1, 2, 3, 4}, "crop", false, false},
		{"color", `{"source":{"color":"red"}}`, nil, "source", true, false},
		{"empty", `{"source":{"empty":true}}`, nil, "source", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Extent   json.RawMessage `json:"extent"`
				Kind     string          `json:"kind"`
				Infinite bool            `json:"infinite"`
				Empty    bool            `json:"empty"`
			}
			callToolResult(t, s, "graph_extent", map[string]interface{}{"pipeline": pipelineJSON(tt.pipeline)}, &got)
			if got.Kind != tt.wantKind || got.Infinite != tt.wantInfinite || got.Empty != tt.wantEmpty {
				t.Errorf("got kind=%s infinite=%v empty=%v", got.Kind, got.Infinite, got.Empty)
			}
			if tt.wantExtent != nil {
				var ext []float64
				if err := json.Unmarshal(got.Extent, &ext); err != nil {
					t.Fatalf("extent %s: %v", got.Extent, err)
				}
				if diff := cmp.Diff(tt.wantExtent, ext); diff != "" {
					t.Errorf("extent mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestHandleToolsCall_GraphROI(t *testing.T) {
	s := newTestServer(t)
	pipe := pipelineJSON(`{"source":{"color":"red"},"steps":[{"op":"transform","matrix":[1,0,10,0,1,20]},{"op":"crop","rect":[10,20,5,5]}]}`)

	var got struct {
		Stage  int       `json:"stage"`
		Kind   string    `json:"kind"`
		Region []float64 `json:"region"`
	}
	callToolResult(t, s, "graph_roi", map[string]interface{}{
		"pipeline": pipe,
		"rect":     []float64{10, 20, 2, 2},
		"stage":    0,
	}, &got)
	if got.Kind != "source" {
		t.Errorf("kind = %s", got.Kind)
	}
	if diff := cmp.Diff([]float64{0, 0, 2, 2}, got.Region); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}

	resp := callTool(t, s, "graph_roi", map[string]interface{}{"pipeline": pipe, "rect": []float64{0, 0, 1, 1}, "stage": 3})
	if resp.Error == nil {
		t.Error("out of range stage should fail")
	}
}

func TestHandleToolsCall_GraphSerialize(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 8, 8, color.White)
	pipe := pipelineJSON(`{"source":{"path":"` + path + `"},"steps":[{"op":"filter","filter":"CIExposureAdjust","params":{"inputEV":1}},{"op":"crop","rect":[0,0,4,4]}]}`)

	var doc struct {
		Serializable bool `json:"serializable"`
		Document     struct {
			Extent []float64 `json:"extent"`
			Steps  []struct {
				Filter string `json:"filter"`
			} `json:"steps"`
		} `json:"document"`
	}
	callToolResult(t, s, "graph_serialize", map[string]interface{}{"pipeline": pipe}, &doc)
	if !doc.Serializable {
		t.Fatal("serializable = false")
	}
	if diff := cmp.Diff([]float64{0, 0, 8, 8}, doc.Document.Extent); diff != "" {
		t.Errorf("extent mismatch (-want +got):\n%s", diff)
	}
	var filters []string
	for _, st := range doc.Document.Steps {
		filters = append(filters, st.Filter)
	}
	if diff := cmp.Diff([]string{"CIExposureAdjust", "CICrop"}, filters); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}

	var x struct {
		XMP string `json:"xmp"`
	}
	callToolResult(t, s, "graph_serialize", map[string]interface{}{"pipeline": pipe, "format": "xmp"}, &x)
	if !strings.Contains(x.XMP, "cigraph") {
		t.Errorf("xmp packet missing namespace: %s", x.XMP)
	}

	var none struct {
		Serializable bool `json:"serializable"`
	}
	callToolResult(t, s, "graph_serialize", map[string]interface{}{
		"pipeline": pipelineJSON(`{"source":{"path":"` + path + `"},"steps":[{"op":"blur","sigma":2}]}`),
	}, &none)
	if none.Serializable {
		t.Error("a blur root should not serialize")
	}
}

func TestHandleToolsCall_GraphSample(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		Samples []struct {
			Label string `json:"label"`
			Color struct {
				Hex string `json:"hex"`
			} `json:"color"`
		} `json:"samples"`
	}
	callToolResult(t, s, "graph_sample", map[string]interface{}{
		"pipeline": pipelineJSON(`{"source":{"color":"red"},"steps":[{"op":"crop","rect":[0,0,4,4]}]}`),
		"points": []map[string]interface{}{
			{"x": 1, "y": 1, "label": "inside"},
			{"x": 10, "y": 10, "label": "outside"},
		},
	}, &got)

	if len(got.Samples) != 2 {
		t.Fatalf("got %d samples", len(got.Samples))
	}
	if got.Samples[0].Label != "inside" || got.Samples[0].Color.Hex != "#FF0000" {
		t.Errorf("inside = %+v", got.Samples[0])
	}
	if got.Samples[1].Color.Hex != "#00000000" {
		t.Errorf("outside = %+v, want transparent", got.Samples[1])
	}

	resp := callTool(t, s, "graph_sample", map[string]interface{}{
		"pipeline": pipelineJSON(`{"source":{"color":"red"}}`),
	})
	if resp.Error == nil {
		t.Error("graph_sample without points should fail")
	}
}

func TestHandleToolsCall_GraphPalette(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		Colors []struct {
			Hex        string  `json:"hex"`
			Percentage float64 `json:"percentage"`
		} `json:"colors"`
	}
	callToolResult(t, s, "graph_palette", map[string]interface{}{
		"pipeline": pipelineJSON(`{"source":{"color":"blue"},"steps":[{"op":"crop","rect":[0,0,2,2]},{"op":"over","image":{"source":{"color":"white"},"steps":[{"op":"crop","rect":[0,0,4,2]}]}}]}`),
	}, &got)

	if len(got.Colors) != 2 {
		t.Fatalf("colors = %+v", got.Colors)
	}
	for _, c := range got.Colors {
		if c.Percentage != 50 {
			t.Errorf("%s percentage = %v, want 50", c.Hex, c.Percentage)
		}
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_ocr_full", map[string]interface{}{})
	if resp.Error == nil || !strings.Contains(resp.Error.Data.(string), "unknown tool") {
		t.Errorf("Error = %+v", resp.Error)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("Error = %+v, want -32602", resp.Error)
	}
}

func TestHandleToolsCall_GraphRenderGrid(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		ImageBase64 string `json:"image_base64"`
	}
	callToolResult(t, s, "graph_render", map[string]interface{}{
		"pipeline":   pipelineJSON(`{"source":{"color":"white"},"steps":[{"op":"crop","rect":[0,0,8,8]}]}`),
		"grid":       4,
		"grid_color": "black",
	}, &got)

	data, err := base64.StdEncoding.DecodeString(got.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if r, _, _, _ := img.At(4, 1).RGBA(); r != 0 {
		t.Errorf("grid pixel red = %d, want 0", r)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 255 {
		t.Errorf("background pixel red = %d, want 255", r>>8)
	}

	resp := callTool(t, s, "graph_render", map[string]interface{}{
		"pipeline":   pipelineJSON(`{"source":{"color":"white"},"steps":[{"op":"crop","rect":[0,0,8,8]}]}`),
		"grid":       4,
		"grid_color": "not a colour",
	})
	if resp.Error == nil {
		t.Error("bad grid colour should fail")
	}
}
