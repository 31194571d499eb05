package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/codenav/codenav/internal/config"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	mem := provider.NewMemory().
		AddFile("src/ServiceBase.cs").
		AddFile("src/OrderService.cs").
		AddSymbol(types.Symbol{
			ID: "t.base", Name: "ServiceBase", FullName: "Acme.ServiceBase",
			Kind:          types.SymbolKindType,
			Accessibility: types.AccessibilityPublic,
			Locations:     []types.Location{{File: "src/ServiceBase.cs", StartLine: 5}},
		}).
		AddSymbol(types.Symbol{
			ID: "t.svc", Name: "OrderService", FullName: "Acme.OrderService",
			Kind:          types.SymbolKindType,
			Accessibility: types.AccessibilityPublic,
			Locations:     []types.Location{{File: "src/OrderService.cs", StartLine: 8}},
		}).
		AddSymbol(types.Symbol{
			ID: "m.submit", Name: "Submit", FullName: "Acme.OrderService.Submit",
			Kind: types.SymbolKindMethod, ContainingType: "Acme.OrderService",
			Accessibility: types.AccessibilityPublic,
			Locations:     []types.Location{{File: "src/OrderService.cs", StartLine: 20}},
		}).
		AddSymbol(types.Symbol{
			ID: "m.audit", Name: "Audit", FullName: "Acme.OrderService.Audit",
			Kind: types.SymbolKindMethod, ContainingType: "Acme.OrderService",
			Accessibility: types.AccessibilityPrivate,
			Locations:     []types.Location{{File: "src/OrderService.cs", StartLine: 40}},
		}).
		SetBases("t.svc", "t.base").
		AddCall("m.submit", "m.audit", types.Location{File: "src/OrderService.cs", StartLine: 24}).
		SetBody("m.submit", "public void Submit()\n{\n    Audit();\n}").
		AddDiagnostic(types.DiagnosticRecord{
			Code: "CS0103", Message: "The name 'order' does not exist",
			Severity: types.SeverityError, File: "src/OrderService.cs", StartLine: 25,
		}).
		AddDiagnostic(types.DiagnosticRecord{
			Code: "CS0219", Message: "Variable assigned but never used",
			Severity: types.SeverityWarning, File: "src/ServiceBase.cs", StartLine: 9,
		}).
		AddDiagnostic(types.DiagnosticRecord{
			Code: "CS8019", Message: "Unnecessary using directive",
			Severity: types.SeverityHidden, File: "src/ServiceBase.cs", StartLine: 1,
		})

	return NewServer(mem, config.Default())
}

type handlerFunc func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// callTool marshals params, invokes the handler and decodes the JSON
// payload of the first text content block.
func callTool(t *testing.T, handler handlerFunc, params interface{}) (map[string]interface{}, *mcp.CallToolResult) {
	t.Helper()

	paramsBytes, err := json.Marshal(params)
	require.NoError(t, err)

	result, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Arguments: paramsBytes,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload, result
}

func TestHandleResolveSymbol(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleResolveSymbol, ResolveParams{
		HintParams: HintParams{Name: "Submit"},
	})

	assert.False(t, result.IsError)
	assert.Equal(t, true, payload["success"])

	sym := payload["symbol"].(map[string]interface{})
	assert.Equal(t, "Submit", sym["name"])
	assert.Equal(t, "method", sym["kind"])
	assert.Equal(t, "Acme.OrderService.Submit", sym["full_name"])
}

func TestHandleResolveSymbolKindMismatch(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleResolveSymbol, ResolveParams{
		HintParams: HintParams{Name: "Submit"},
		Kind:       "type",
	})

	assert.True(t, result.IsError)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "not_found", payload["error_kind"])
	assert.Equal(t, "resolve_symbol", payload["operation"])
}

func TestHandleResolveSymbolRejectsUnknownKind(t *testing.T) {
	s := testServer(t)

	_, result := callTool(t, s.handleResolveSymbol, ResolveParams{
		HintParams: HintParams{Name: "Submit"},
		Kind:       "module",
	})

	assert.True(t, result.IsError)
}

func TestHandleSymbolInfoWithBody(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleSymbolInfo, SymbolInfoParams{
		ResolveParams: ResolveParams{HintParams: HintParams{Name: "Submit"}},
		IncludeBody:   true,
	})

	assert.False(t, result.IsError)
	info := payload["info"].(map[string]interface{})
	sym := info["symbol"].(map[string]interface{})
	assert.Equal(t, "Submit", sym["name"])
	assert.Contains(t, info["body"], "Audit();")
}

func TestHandleCallGraph(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleCallGraph, CallGraphParams{
		HintParams: HintParams{Name: "Submit"},
	})

	assert.False(t, result.IsError)
	graph := payload["graph"].(map[string]interface{})

	root := graph["root"].(map[string]interface{})
	assert.Equal(t, "Submit", root["name"])

	callees := graph["callees"].([]interface{})
	require.Len(t, callees, 1)
	callee := callees[0].(map[string]interface{})["callee"].(map[string]interface{})
	assert.Equal(t, "Audit", callee["name"])
}

func TestHandleCallGraphRequiresMethod(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleCallGraph, CallGraphParams{
		HintParams: HintParams{Name: "OrderService"},
	})

	assert.True(t, result.IsError)
	assert.Equal(t, "not_found", payload["error_kind"])
}

func TestHandleInheritanceTree(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleInheritanceTree, InheritanceParams{
		HintParams:     HintParams{Name: "OrderService"},
		IncludeDerived: true,
	})

	assert.False(t, result.IsError)
	tree := payload["tree"].(map[string]interface{})

	root := tree["root"].(map[string]interface{})
	assert.Equal(t, "OrderService", root["name"])

	bases := tree["base_types"].([]interface{})
	require.Len(t, bases, 1)
	assert.Equal(t, "ServiceBase", bases[0].(map[string]interface{})["name"])
}

func TestHandleBatchResolve(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleBatchResolve, BatchParams{
		Symbols: []HintParams{
			{Name: "Submit"},
			{Name: "DoesNotExist"},
			{Name: "Audit"},
		},
	})

	assert.False(t, result.IsError)
	assert.Equal(t, float64(3), payload["requested"])
	assert.Equal(t, float64(2), payload["succeeded"])
	assert.Equal(t, float64(1), payload["failed"])

	results := payload["results"].([]interface{})
	require.Len(t, results, 3)

	first := results[0].(map[string]interface{})
	assert.Equal(t, float64(0), first["index"])
	assert.Equal(t, true, first["success"])

	miss := results[1].(map[string]interface{})
	assert.Equal(t, float64(1), miss["index"])
	assert.Equal(t, false, miss["success"])
	assert.Equal(t, "not_found", miss["error_kind"])
	assert.NotEmpty(t, miss["error"])

	last := results[2].(map[string]interface{})
	assert.Equal(t, true, last["success"])
}

func TestHandleBatchResolveRejectsEmptyInput(t *testing.T) {
	s := testServer(t)

	_, result := callTool(t, s.handleBatchResolve, BatchParams{})
	assert.True(t, result.IsError)
}

func TestHandleDiagnosticsWorkspace(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleDiagnostics, DiagnosticsParams{})

	assert.False(t, result.IsError)
	report := payload["report"].(map[string]interface{})
	summary := report["summary"].(map[string]interface{})

	assert.Equal(t, float64(1), summary["errors"])
	assert.Equal(t, float64(1), summary["warnings"])
	assert.Equal(t, float64(0), summary["hidden"], "hidden dropped by default")
	assert.Equal(t, float64(2), summary["total"])
}

func TestHandleDiagnosticsMinSeverity(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleDiagnostics, DiagnosticsParams{
		MinSeverity: "error",
	})

	assert.False(t, result.IsError)
	report := payload["report"].(map[string]interface{})
	summary := report["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["total"])
	assert.Equal(t, float64(1), summary["errors"])
}

func TestHandleDiagnosticsRejectsBadSeverity(t *testing.T) {
	s := testServer(t)

	_, result := callTool(t, s.handleDiagnostics, DiagnosticsParams{
		MinSeverity: "fatal",
	})
	assert.True(t, result.IsError)
}

func TestHandleInfo(t *testing.T) {
	s := testServer(t)

	payload, result := callTool(t, s.handleInfo, InfoParams{})
	assert.False(t, result.IsError)
	tools := payload["tools"].(map[string]interface{})
	assert.Contains(t, tools, "resolve_symbol")
	assert.Contains(t, tools, "batch_resolve")

	payload, result = callTool(t, s.handleInfo, InfoParams{Tool: "version"})
	assert.False(t, result.IsError)
	assert.Contains(t, payload["server_version"], "codenav")
	defaults := payload["defaults"].(map[string]interface{})
	assert.Equal(t, float64(20), defaults["max_callers"])

	payload, result = callTool(t, s.handleInfo, InfoParams{Tool: "call_graph"})
	assert.False(t, result.IsError)
	assert.Equal(t, "call_graph", payload["name"])

	_, result = callTool(t, s.handleInfo, InfoParams{Tool: "nonsense"})
	assert.True(t, result.IsError)
}

func TestHandlersRejectMalformedArguments(t *testing.T) {
	s := testServer(t)

	result, err := s.handleResolveSymbol(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Arguments: []byte(`{"name": 42}`),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
