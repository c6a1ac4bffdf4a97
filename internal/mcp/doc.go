// Package mcp implements a Model Context Protocol (MCP) server.
//
// The server exposes Bhujal's query operations as MCP tools over stdio,
// so editors, agent runtimes, and other MCP clients can ask groundwater
// questions and pull raw readings through a standardized protocol.
//
// # Tools
//
//   - ask: run one full question-answering turn. The result is the
//     structured Answer as JSON: explanation text, stage, table,
//     citations, and the insufficient flag.
//   - list_locations: every distinct location in the store, with its
//     state/district/block triple.
//   - get_series: the year-by-year water levels for one named location,
//     optionally bounded by a year range.
//
// These mirror the HTTP endpoints one to one; both surfaces are
// renderers over the same pipeline and store.
//
// # Tool handler pattern
//
// Each tool follows the same shape: an input struct with jsonschema
// tags, schema inference via jsonschema.For, and a typed handler
// registered with mcp.AddTool. Handlers return user-fixable problems
// (blank question, unknown location) as IsError results and reserve Go
// errors for infrastructure failures.
//
// # Wiring
//
// The server runs on any mcp.Transport; the CLI uses stdio:
//
//	srv, err := mcp.NewServer(mcp.Config{
//		Name:     "bhujal",
//		Version:  version,
//		Pipeline: pipe,
//		Store:    st,
//		Logger:   logger,
//	})
//	if err != nil { ... }
//	err = srv.Run(ctx, &sdk.StdioTransport{})
package mcp
