package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/codenav/codenav/internal/callgraph"
	"github.com/codenav/codenav/internal/diagnostics"
	"github.com/codenav/codenav/internal/inheritance"
	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/query"
	"github.com/codenav/codenav/internal/types"
	"github.com/codenav/codenav/internal/version"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HintParams are the shared location-hint fields of symbol-addressed
// tools.
type HintParams struct {
	Name string `json:"name,omitempty"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

func (p HintParams) hint() types.LocationHint {
	return types.LocationHint{
		SymbolName: strings.TrimSpace(p.Name),
		FilePath:   strings.TrimSpace(p.File),
		Line:       p.Line,
	}
}

// ResolveParams are the arguments of the resolve_symbol tool
type ResolveParams struct {
	HintParams
	Kind string `json:"kind,omitempty"`
}

// SymbolInfoParams are the arguments of the symbol_info tool
type SymbolInfoParams struct {
	ResolveParams
	IncludeBody        bool `json:"include_body,omitempty"`
	IncludeCallGraph   bool `json:"include_call_graph,omitempty"`
	IncludeInheritance bool `json:"include_inheritance,omitempty"`
}

// CallGraphParams are the arguments of the call_graph tool
type CallGraphParams struct {
	HintParams
	MaxCallers  int `json:"max_callers,omitempty"`
	MaxCallees  int `json:"max_callees,omitempty"`
	CallerDepth int `json:"caller_depth,omitempty"`
	CalleeDepth int `json:"callee_depth,omitempty"`
}

// InheritanceParams are the arguments of the inheritance_tree tool
type InheritanceParams struct {
	HintParams
	IncludeDerived  bool `json:"include_derived,omitempty"`
	MaxDerivedDepth int  `json:"max_derived_depth,omitempty"`
}

// BatchParams are the arguments of the batch_resolve tool
type BatchParams struct {
	Symbols            []HintParams `json:"symbols"`
	MaxConcurrency     int          `json:"max_concurrency,omitempty"`
	IncludeBody        bool         `json:"include_body,omitempty"`
	IncludeCallGraph   bool         `json:"include_call_graph,omitempty"`
	IncludeInheritance bool         `json:"include_inheritance,omitempty"`
}

// DiagnosticsParams are the arguments of the diagnostics tool
type DiagnosticsParams struct {
	File          string   `json:"file,omitempty"`
	MinSeverity   string   `json:"min_severity,omitempty"`
	Severities    []string `json:"severities,omitempty"`
	IncludeHidden bool     `json:"include_hidden,omitempty"`
	FilePattern   string   `json:"file_pattern,omitempty"`
}

// InfoParams are the arguments of the info tool
type InfoParams struct {
	Tool string `json:"tool,omitempty"`
}

// batchItem is the wire shape of one batch_resolve result
type batchItem struct {
	Index     int                `json:"index"`
	Hint      types.LocationHint `json:"hint"`
	Success   bool               `json:"success"`
	Info      *types.SymbolInfo  `json:"info,omitempty"`
	Error     string             `json:"error,omitempty"`
	ErrorKind string             `json:"error_kind,omitempty"`
}

// toolError builds the failure payload, surfacing the error taxonomy
// kind so clients can branch without parsing messages.
func toolError(operation string, err error) (*mcp.CallToolResult, error) {
	if kind := naverr.KindOf(err); kind != "" {
		errorData := map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_kind": string(kind),
			"operation":  operation,
		}
		response, marshalErr := createJSONResponse(errorData)
		if marshalErr != nil {
			return nil, marshalErr
		}
		response.IsError = true
		return response, nil
	}
	return createErrorResponse(operation, err)
}

func parseKind(name string) (types.KindFilter, error) {
	if strings.TrimSpace(name) == "" {
		return types.KindFilterAny, nil
	}
	return types.ParseKindFilter(name)
}

func (s *Server) handleResolveSymbol(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ResolveParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("resolve_symbol", fmt.Errorf("invalid parameters: %w", err))
	}

	filter, err := parseKind(params.Kind)
	if err != nil {
		return toolError("resolve_symbol", err)
	}

	sym, err := s.engine.Locator().Resolve(ctx, params.hint(), filter)
	if err != nil {
		return toolError("resolve_symbol", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"symbol":  sym,
	})
}

func (s *Server) handleSymbolInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SymbolInfoParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("symbol_info", fmt.Errorf("invalid parameters: %w", err))
	}

	filter, err := parseKind(params.Kind)
	if err != nil {
		return toolError("symbol_info", err)
	}

	info, err := s.engine.SymbolInfo(ctx, params.hint(), query.InfoOptions{
		Kind:               filter,
		IncludeBody:        params.IncludeBody,
		IncludeCallGraph:   params.IncludeCallGraph,
		CallGraph:          s.cfg.CallGraphOptions(),
		IncludeInheritance: params.IncludeInheritance,
		Inheritance:        s.cfg.InheritanceOptions(true),
	})
	if err != nil {
		return toolError("symbol_info", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"info":    info,
	})
}

func (s *Server) handleCallGraph(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CallGraphParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("call_graph", fmt.Errorf("invalid parameters: %w", err))
	}

	sym, err := s.engine.Locator().Resolve(ctx, params.hint(), types.KindFilterMethod)
	if err != nil {
		return toolError("call_graph", err)
	}

	opts := s.cfg.CallGraphOptions()
	if params.MaxCallers > 0 {
		opts.MaxCallers = params.MaxCallers
	}
	if params.MaxCallees > 0 {
		opts.MaxCallees = params.MaxCallees
	}
	if params.CallerDepth > 0 {
		opts.CallerDepth = params.CallerDepth
	}
	if params.CalleeDepth > 0 {
		opts.CalleeDepth = params.CalleeDepth
	}

	graph, err := s.engine.CallGraph(ctx, sym, opts)
	if err != nil {
		return toolError("call_graph", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"graph":   graph,
	})
}

func (s *Server) handleInheritanceTree(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InheritanceParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("inheritance_tree", fmt.Errorf("invalid parameters: %w", err))
	}

	sym, err := s.engine.Locator().Resolve(ctx, params.hint(), types.KindFilterType)
	if err != nil {
		return toolError("inheritance_tree", err)
	}

	opts := s.cfg.InheritanceOptions(params.IncludeDerived)
	if params.MaxDerivedDepth > 0 {
		opts.MaxDerivedDepth = params.MaxDerivedDepth
	}

	tree, err := s.engine.InheritanceTree(ctx, sym, opts)
	if err != nil {
		return toolError("inheritance_tree", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"tree":    tree,
	})
}

func (s *Server) handleBatchResolve(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params BatchParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("batch_resolve", fmt.Errorf("invalid parameters: %w", err))
	}
	if len(params.Symbols) == 0 {
		return toolError("batch_resolve", fmt.Errorf("symbols must not be empty"))
	}

	hints := make([]types.LocationHint, len(params.Symbols))
	for i, p := range params.Symbols {
		hints[i] = p.hint()
	}

	maxConcurrency := params.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = s.cfg.Batch.MaxConcurrency
	}

	results := s.engine.ResolveBatch(ctx, hints, maxConcurrency, query.InfoOptions{
		IncludeBody:        params.IncludeBody,
		IncludeCallGraph:   params.IncludeCallGraph,
		CallGraph:          s.cfg.CallGraphOptions(),
		IncludeInheritance: params.IncludeInheritance,
		Inheritance:        s.cfg.InheritanceOptions(true),
	})

	items := make([]batchItem, len(results))
	succeeded := 0
	for i, res := range results {
		items[i] = batchItem{
			Index:   res.Index,
			Hint:    res.Hint,
			Success: !res.Failed(),
			Info:    res.Info,
		}
		if res.Failed() {
			items[i].Error = res.Err.Error()
			items[i].ErrorKind = string(naverr.KindOf(res.Err))
		} else {
			succeeded++
		}
	}

	return createJSONResponse(map[string]interface{}{
		"success":   true,
		"requested": len(items),
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
		"results":   items,
	})
}

func (s *Server) handleDiagnostics(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params DiagnosticsParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("diagnostics", fmt.Errorf("invalid parameters: %w", err))
	}

	filters := diagnostics.Filters{
		IncludeHidden: params.IncludeHidden || s.cfg.Diagnostics.IncludeHidden,
		FilePattern:   params.FilePattern,
	}

	minSeverity := params.MinSeverity
	if minSeverity == "" {
		minSeverity = s.cfg.Diagnostics.MinSeverity
	}
	if minSeverity != "" {
		level, err := types.ParseSeverity(minSeverity)
		if err != nil {
			return toolError("diagnostics", err)
		}
		filters.MinSeverity = level
	}

	for _, name := range params.Severities {
		level, err := types.ParseSeverity(name)
		if err != nil {
			return toolError("diagnostics", err)
		}
		filters.Severities = append(filters.Severities, level)
	}

	report, err := s.diag.Collect(ctx, types.DiagnosticScope{File: params.File}, filters)
	if err != nil {
		return toolError("diagnostics", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// toolHelp maps each tool to its usage summary for the info tool
var toolHelp = map[string]string{
	"resolve_symbol":   `Resolve a fuzzy hint to one symbol. Examples: {"name": "Execute"} | {"name": "Controller.Execute", "file": "**/Controllers/*.cs"} | {"file": "Sample.cs", "line": 42} (no name: nearest declaration to the line). Restrict with "kind": "type" or "method".`,
	"symbol_info":      `One-round-trip lookup: resolve plus optional enrichment. Flags: include_body, include_call_graph (methods), include_inheritance (types). Enrichment that does not apply to the resolved kind is skipped, not an error.`,
	"call_graph":       `Callers and callees of a method with call sites and complexity. Bounds: max_callers, max_callees (default 20 each), caller_depth, callee_depth (default 1). Truncation flags are set when bounds cut the graph.`,
	"inheritance_tree": `Base types and interfaces of a type. Pass include_derived for subtypes and implementers, bounded by max_derived_depth (default 3); derived_truncated reports whether deeper subtypes exist.`,
	"batch_resolve":    `Resolve many hints at once: {"symbols": [{"name": "A"}, {"name": "B"}], "max_concurrency": 5}. Results preserve request order and fail independently; each carries success, info or error, and error_kind.`,
	"diagnostics":      `Compiler diagnostics with summary counts. Omit "file" for the whole workspace. Filter with min_severity, severities allow-list, include_hidden, or a file_pattern glob for workspace scope.`,
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InfoParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return toolError("info", fmt.Errorf("invalid parameters: %w", err))
	}

	tool := strings.ToLower(strings.TrimSpace(params.Tool))

	switch tool {
	case "version":
		return createJSONResponse(map[string]interface{}{
			"name":           "version",
			"server_name":    "codenav-mcp-server",
			"server_version": version.FullInfo(),
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
			"defaults": map[string]interface{}{
				"max_callers":       callgraph.DefaultMaxCallers,
				"max_callees":       callgraph.DefaultMaxCallees,
				"caller_depth":      callgraph.DefaultDepth,
				"callee_depth":      callgraph.DefaultDepth,
				"max_derived_depth": inheritance.DefaultMaxDerivedDepth,
				"max_concurrency":   s.cfg.Batch.MaxConcurrency,
			},
		})

	case "":
		tools := make(map[string]string, len(toolHelp))
		for name, help := range toolHelp {
			tools[name] = help
		}
		return createJSONResponse(map[string]interface{}{
			"server":  "codenav-mcp-server " + version.Info(),
			"summary": "Code navigation over a semantic model: symbol resolution, call graphs, inheritance trees, batch lookup, diagnostics.",
			"tools":   tools,
		})

	default:
		help, ok := toolHelp[tool]
		if !ok {
			return toolError("info", fmt.Errorf("unknown tool %q", tool))
		}
		return createJSONResponse(map[string]interface{}{
			"name": tool,
			"help": help,
		})
	}
}
