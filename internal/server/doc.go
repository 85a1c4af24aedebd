// Package server implements the MCP (Model Context Protocol) server for the
// image graph tools.
//
// This package provides a JSON-RPC 2.0 server that exposes graph building,
// rendering and inspection through the MCP protocol. Graphs are described in
// JSON (see package pipeline) and are rebuilt for every call; decoded source
// files are shared through the source cache.
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
// Colours and filters:
//   - color_parse: Parse a colour string and report its sRGB values
//   - filter_list: List registered filters, optionally by category
//   - filter_describe: Report a filter's inputs and parameter schema
//
// Sources:
//   - image_info: Read an image file header
//
// Graph evaluation:
//   - graph_render: Render a rectangle of a graph as PNG, JPEG, GIF, TIFF or BMP
//   - graph_extent: Report the extent and root of a graph without rendering
//   - graph_roi: Report the region of a stage needed for an output rectangle
//   - graph_serialize: Serialize the top adjustment chain as JSON or XMP
//
// Inspection:
//   - graph_sample: Sample colours at points
//   - graph_palette: Extract the dominant colours of a rectangle
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
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
