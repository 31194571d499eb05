// Package query composes the navigation operations into the "complete
// symbol info" surface: resolve a hint, enrich the symbol with its body,
// and optionally attach its call graph and inheritance tree. The batch
// orchestrator runs this same composition per item.
package query

import (
	"context"

	"github.com/codenav/codenav/internal/batch"
	"github.com/codenav/codenav/internal/callgraph"
	"github.com/codenav/codenav/internal/inheritance"
	"github.com/codenav/codenav/internal/locator"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"
)

// InfoOptions selects the enrichments attached to a resolved symbol
type InfoOptions struct {
	// Kind restricts resolution to a declaration category
	Kind types.KindFilter

	// IncludeBody attaches the declaration source text
	IncludeBody bool

	// IncludeCallGraph attaches a call graph when the resolved symbol
	// is a method; it is skipped, not an error, for other kinds.
	IncludeCallGraph bool
	CallGraph        callgraph.Options

	// IncludeInheritance attaches an inheritance tree when the resolved
	// symbol is a type; skipped for other kinds.
	IncludeInheritance bool
	Inheritance        inheritance.Options
}

// Engine owns one provider and the builders over it. It is stateless
// between calls and safe for concurrent use, which is what lets the
// batch pool share a single Engine.
type Engine struct {
	source   provider.Provider
	locator  *locator.Locator
	calls    *callgraph.Builder
	inherits *inheritance.Builder
}

// NewEngine creates a query engine over the provider
func NewEngine(source provider.Provider) *Engine {
	return &Engine{
		source:   source,
		locator:  locator.New(source),
		calls:    callgraph.New(source),
		inherits: inheritance.New(source),
	}
}

// Locator exposes the engine's symbol resolver
func (e *Engine) Locator() *locator.Locator {
	return e.locator
}

// CallGraph builds a call graph for an already-resolved method
func (e *Engine) CallGraph(ctx context.Context, root types.Symbol, opts callgraph.Options) (*types.CallGraph, error) {
	return e.calls.Build(ctx, root, opts)
}

// InheritanceTree builds an inheritance tree for an already-resolved type
func (e *Engine) InheritanceTree(ctx context.Context, root types.Symbol, opts inheritance.Options) (*types.InheritanceTree, error) {
	return e.inherits.Build(ctx, root, opts)
}

// SymbolInfo resolves a hint and attaches the requested enrichments
func (e *Engine) SymbolInfo(ctx context.Context, hint types.LocationHint, opts InfoOptions) (*types.SymbolInfo, error) {
	sym, err := e.locator.Resolve(ctx, hint, opts.Kind)
	if err != nil {
		return nil, err
	}

	info := &types.SymbolInfo{Symbol: sym}

	if opts.IncludeBody {
		body, err := e.source.SourceBody(ctx, sym)
		if err != nil {
			return nil, err
		}
		info.Body = body
	}

	if opts.IncludeCallGraph && sym.Kind == types.SymbolKindMethod {
		graph, err := e.calls.Build(ctx, sym, opts.CallGraph)
		if err != nil {
			return nil, err
		}
		info.CallGraph = graph
	}

	if opts.IncludeInheritance && sym.Kind == types.SymbolKindType {
		tree, err := e.inherits.Build(ctx, sym, opts.Inheritance)
		if err != nil {
			return nil, err
		}
		info.Inheritance = tree
	}

	return info, nil
}

// ResolveBatch fans the hints out over a bounded pool, resolving and
// enriching each independently. The result slice is index-aligned with
// the hints.
func (e *Engine) ResolveBatch(ctx context.Context, hints []types.LocationHint, maxConcurrency int, opts InfoOptions) []types.BatchResult {
	orchestrator := batch.New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		return e.SymbolInfo(ctx, hint, opts)
	}, maxConcurrency)
	return orchestrator.Resolve(ctx, hints)
}
