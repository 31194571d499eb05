package query

import (
	"context"
	"testing"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *provider.Memory {
	orderType := types.Symbol{
		ID:       "t.order",
		Name:     "OrderService",
		FullName: "App.OrderService",
		Kind:     types.SymbolKindType,
		Locations: []types.Location{{
			File: "OrderService.cs", StartLine: 10, EndLine: 120,
		}},
	}
	submit := types.Symbol{
		ID:             "m.submit",
		Name:           "Submit",
		FullName:       "App.OrderService.Submit",
		Kind:           types.SymbolKindMethod,
		ContainingType: "App.OrderService",
		Locations: []types.Location{{
			File: "OrderService.cs", StartLine: 40, EndLine: 60,
		}},
	}
	audit := types.Symbol{
		ID:       "m.audit",
		Name:     "Audit",
		FullName: "App.Auditor.Audit",
		Kind:     types.SymbolKindMethod,
		Locations: []types.Location{{
			File: "Auditor.cs", StartLine: 5, EndLine: 15,
		}},
	}
	baseType := types.Symbol{
		ID:       "t.base",
		Name:     "ServiceBase",
		FullName: "App.ServiceBase",
		Kind:     types.SymbolKindType,
		Locations: []types.Location{{
			File: "ServiceBase.cs", StartLine: 3, EndLine: 50,
		}},
	}

	return provider.NewMemory().
		AddSymbol(orderType).
		AddSymbol(submit).
		AddSymbol(audit).
		AddSymbol(baseType).
		SetBases("t.order", "t.base").
		AddCall("m.submit", "m.audit", types.Location{File: "OrderService.cs", StartLine: 45}).
		SetBody("m.submit", "public void Submit() { if (ok) { Audit(); } }")
}

func TestSymbolInfoPlainResolution(t *testing.T) {
	e := NewEngine(fixture())

	info, err := e.SymbolInfo(context.Background(), types.LocationHint{SymbolName: "Submit"}, InfoOptions{})
	require.NoError(t, err)
	assert.Equal(t, "m.submit", info.Symbol.ID)
	assert.Empty(t, info.Body)
	assert.Nil(t, info.CallGraph)
	assert.Nil(t, info.Inheritance)
}

func TestSymbolInfoWithBody(t *testing.T) {
	e := NewEngine(fixture())

	info, err := e.SymbolInfo(context.Background(), types.LocationHint{SymbolName: "Submit"}, InfoOptions{IncludeBody: true})
	require.NoError(t, err)
	assert.Contains(t, info.Body, "Audit()")
}

func TestSymbolInfoCallGraphOnlyForMethods(t *testing.T) {
	e := NewEngine(fixture())
	opts := InfoOptions{IncludeCallGraph: true, IncludeInheritance: true}

	method, err := e.SymbolInfo(context.Background(), types.LocationHint{SymbolName: "Submit"}, opts)
	require.NoError(t, err)
	require.NotNil(t, method.CallGraph)
	assert.Len(t, method.CallGraph.Callees, 1)
	assert.Nil(t, method.Inheritance, "inheritance is skipped for a method, not an error")

	typ, err := e.SymbolInfo(context.Background(), types.LocationHint{SymbolName: "OrderService"}, opts)
	require.NoError(t, err)
	assert.Nil(t, typ.CallGraph, "call graph is skipped for a type, not an error")
	require.NotNil(t, typ.Inheritance)
	require.Len(t, typ.Inheritance.BaseTypes, 1)
	assert.Equal(t, "t.base", typ.Inheritance.BaseTypes[0].ID)
}

func TestSymbolInfoKindFilter(t *testing.T) {
	e := NewEngine(fixture())

	_, err := e.SymbolInfo(context.Background(), types.LocationHint{SymbolName: "Submit"}, InfoOptions{Kind: types.KindFilterType})
	assert.True(t, naverr.IsNotFound(err))
}

func TestResolveBatchAlignsWithHints(t *testing.T) {
	e := NewEngine(fixture())

	hints := []types.LocationHint{
		{SymbolName: "Submit"},
		{SymbolName: "NoSuchThing"},
		{SymbolName: "OrderService"},
	}
	results := e.ResolveBatch(context.Background(), hints, 2, InfoOptions{})
	require.Len(t, results, 3)

	assert.Equal(t, "m.submit", results[0].Info.Symbol.ID)
	assert.True(t, results[1].Failed())
	assert.True(t, naverr.IsNotFound(results[1].Err))
	assert.Equal(t, "t.order", results[2].Info.Symbol.ID)
}
