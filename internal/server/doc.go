// Package server implements the MCP (Model Context Protocol) server for the
// person detector.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Filter Engine and Features:
//   - image_preprocess: Grayscale, contrast stretch and filter chain
//   - image_hog_describe: HOG descriptor of a region
//
// Detection:
//   - image_detect_people: Multi-scale scan, classification and clustering
//   - image_draw_detections: Render boxes over the image
//
// Detection needs a classifier. It is either fixed with WithScorer or read
// from the JSON model named by the "model" argument or the configuration;
// loaded models are reused for the life of the server.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls. The cache
// persists for the lifetime of the server process.
//
// # Error Handling
//
//   - -32700: the request line is not JSON
//   - -32601: unknown method
//   - -32602: tool arguments could not be decoded or are out of range
//   - -32000: the tool ran and failed
//
// The data field carries the Go error string.
//
// # Usage
//
//	srv := server.New(server.WithConfig(cfg), server.WithLogger(log))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("server stopped")
//	}
package server
