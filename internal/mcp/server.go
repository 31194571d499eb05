// Package mcp exposes the navigation engine over the Model Context
// Protocol with a stdio transport. All logging goes to stderr: stdout
// belongs to the protocol stream.
package mcp

import (
	"context"
	"log"
	"os"

	"github.com/codenav/codenav/internal/config"
	"github.com/codenav/codenav/internal/diagnostics"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/query"
	"github.com/codenav/codenav/internal/version"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wires the query engine and diagnostics aggregator to MCP tools.
type Server struct {
	cfg    *config.Config
	engine *query.Engine
	diag   *diagnostics.Aggregator
	server *mcp.Server
	logger *log.Logger
}

// NewServer creates an MCP server over the given provider
func NewServer(source provider.Provider, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	engine := query.NewEngine(source)
	engine.Locator().WithFuzzyThreshold(cfg.Resolution.FuzzyThreshold)

	s := &Server{
		cfg:    cfg,
		engine: engine,
		diag:   diagnostics.New(source),
		logger: log.New(os.Stderr, "codenav: ", log.LstdFlags),
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "codenav-mcp-server",
		Version: version.Version,
	}, nil)

	s.registerTools()

	return s
}

// Start runs the server over stdio until the context is cancelled or
// the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Printf("starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// hintProperties are the location-hint fields shared by every
// symbol-addressed tool.
func hintProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"name": {
			Type:        "string",
			Description: "Symbol name: simple ('Execute'), qualified ('DerivedController.Execute'), or a partial fragment",
		},
		"file": {
			Type:        "string",
			Description: "File path to narrow resolution: absolute, workspace-relative, a basename, or a glob like '**/Controllers/*.cs'",
		},
		"line": {
			Type:        "integer",
			Description: "1-based line number used as a proximity tiebreaker, or as the anchor when no name is given",
		},
	}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Get help and examples for any codenav tool. Use 'info' for an overview or pass a tool name for specifics. Use 'info version' for server version info.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to get information about (e.g., 'resolve_symbol', 'call_graph', 'version')",
				},
			},
		},
	}, s.handleInfo)

	resolveProps := hintProperties()
	resolveProps["kind"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Restrict to a declaration category: 'any', 'type', 'member', or 'method'",
	}
	s.server.AddTool(&mcp.Tool{
		Name:        "resolve_symbol",
		Description: "Resolve a fuzzy location hint (name and/or file and line) to the single best matching symbol. Exact name match wins; substring and similarity fallback otherwise, with file and line proximity as tiebreakers.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: resolveProps,
		},
	}, s.handleResolveSymbol)

	infoProps := hintProperties()
	infoProps["kind"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Restrict to a declaration category: 'any', 'type', 'member', or 'method'",
	}
	infoProps["include_body"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Attach the declaration source text",
	}
	infoProps["include_call_graph"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Attach a call graph (methods only, skipped otherwise)",
	}
	infoProps["include_inheritance"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Attach an inheritance tree (types only, skipped otherwise)",
	}
	s.server.AddTool(&mcp.Tool{
		Name:        "symbol_info",
		Description: "Resolve a symbol and return its declaration details, optionally enriched with its source body, call graph, and inheritance tree in one round trip.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: infoProps,
		},
	}, s.handleSymbolInfo)

	graphProps := hintProperties()
	graphProps["max_callers"] = &jsonschema.Schema{
		Type:        "integer",
		Description: "Maximum distinct callers per level (default 20)",
	}
	graphProps["max_callees"] = &jsonschema.Schema{
		Type:        "integer",
		Description: "Maximum distinct callees per level (default 20)",
	}
	graphProps["caller_depth"] = &jsonschema.Schema{
		Type:        "integer",
		Description: "Upstream traversal depth (default 1)",
	}
	graphProps["callee_depth"] = &jsonschema.Schema{
		Type:        "integer",
		Description: "Downstream traversal depth (default 1)",
	}
	s.server.AddTool(&mcp.Tool{
		Name:        "call_graph",
		Description: "Build the bounded caller/callee neighborhood of a method, with per-edge call sites, cyclomatic complexity of the root body, and truncation flags when limits cut the graph.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: graphProps,
		},
	}, s.handleCallGraph)

	treeProps := hintProperties()
	treeProps["include_derived"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Also walk downward for subtypes and implementers",
	}
	treeProps["max_derived_depth"] = &jsonschema.Schema{
		Type:        "integer",
		Description: "Depth bound for the downward walk (default 3)",
	}
	s.server.AddTool(&mcp.Tool{
		Name:        "inheritance_tree",
		Description: "Build the inheritance tree of a type: all base types nearest level first, all implemented interfaces including inherited ones, and optionally the depth-bounded set of derived types.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: treeProps,
		},
	}, s.handleInheritanceTree)

	s.server.AddTool(&mcp.Tool{
		Name:        "batch_resolve",
		Description: "Resolve many location hints in one call with a bounded worker pool. Results come back in request order; each item succeeds or fails independently.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"symbols": {
					Type:        "array",
					Description: "Location hints to resolve",
					Items: &jsonschema.Schema{
						Type:       "object",
						Properties: hintProperties(),
					},
				},
				"max_concurrency": {
					Type:        "integer",
					Description: "Worker pool size (default 5)",
				},
				"include_body": {
					Type:        "boolean",
					Description: "Attach declaration source text to each resolved item",
				},
				"include_call_graph": {
					Type:        "boolean",
					Description: "Attach a call graph to each resolved method",
				},
				"include_inheritance": {
					Type:        "boolean",
					Description: "Attach an inheritance tree to each resolved type",
				},
			},
			Required: []string{"symbols"},
		},
	}, s.handleBatchResolve)

	s.server.AddTool(&mcp.Tool{
		Name:        "diagnostics",
		Description: "Collect compiler diagnostics for one file or the whole workspace, filtered by severity, grouped per file and summarized by level.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": {
					Type:        "string",
					Description: "Restrict to one file; omit for the whole workspace",
				},
				"min_severity": {
					Type:        "string",
					Description: "Drop records below this level: 'hidden', 'info', 'warning', or 'error'",
				},
				"severities": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Explicit severity allow-list; overrides min_severity",
				},
				"include_hidden": {
					Type:        "boolean",
					Description: "Admit hidden diagnostics, which are dropped by default",
				},
				"file_pattern": {
					Type:        "string",
					Description: "Glob restricting workspace results to matching files (e.g. 'src/**/*.cs')",
				},
			},
		},
	}, s.handleDiagnostics)
}
