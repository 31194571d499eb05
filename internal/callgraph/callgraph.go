// Package callgraph assembles the bounded caller/callee neighborhood of
// one method from the provider's reference index and body analysis.
// Graphs are deterministic for unchanged source: every level is sorted
// by declaration location before truncation.
package callgraph

import (
	"context"
	"sort"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"
)

// Default traversal bounds
const (
	DefaultMaxCallers = 20
	DefaultMaxCallees = 20
	DefaultDepth      = 1
)

// Options bounds a call graph build
type Options struct {
	// MaxCallers / MaxCallees limit distinct symbols per level, not
	// call sites.
	MaxCallers int
	MaxCallees int

	// CallerDepth / CalleeDepth are traversal hops from the root.
	// Depth 1 is immediate neighbors only.
	CallerDepth int
	CalleeDepth int
}

// normalized fills in defaults for zero or negative fields
func (o Options) normalized() Options {
	if o.MaxCallers <= 0 {
		o.MaxCallers = DefaultMaxCallers
	}
	if o.MaxCallees <= 0 {
		o.MaxCallees = DefaultMaxCallees
	}
	if o.CallerDepth <= 0 {
		o.CallerDepth = DefaultDepth
	}
	if o.CalleeDepth <= 0 {
		o.CalleeDepth = DefaultDepth
	}
	return o
}

// Builder constructs call graphs over one provider
type Builder struct {
	source provider.Provider
}

// New creates a call graph builder
func New(source provider.Provider) *Builder {
	return &Builder{source: source}
}

// Build assembles the call graph rooted at a method symbol. A root with
// no retrievable body or no reference data yields a degraded graph, not
// an error.
func (b *Builder) Build(ctx context.Context, root types.Symbol, opts Options) (*types.CallGraph, error) {
	if root.Kind != types.SymbolKindMethod {
		return nil, naverr.NewWrongKind(root, types.KindFilterMethod)
	}
	opts = opts.normalized()

	graph := &types.CallGraph{Root: root}

	callerDepth, err := b.walkCallers(ctx, root, opts, graph)
	if err != nil {
		return nil, err
	}
	graph.CallerDepth = callerDepth

	calleeDepth, err := b.walkCallees(ctx, root, opts, graph)
	if err != nil {
		return nil, err
	}
	graph.CalleeDepth = calleeDepth

	graph.Stats.CallerCount = distinctEndpoints(graph.Callers, true)
	graph.Stats.CalleeCount = distinctEndpoints(graph.Callees, false)

	// Complexity is provider capability like CallLister: only the
	// provider sees the parsed body, so only it can count decision
	// points. Without the capability the figure stays zero.
	if measurer, ok := b.source.(provider.ComplexityMeasurer); ok {
		complexity, err := measurer.Complexity(ctx, root)
		if err != nil {
			return nil, err
		}
		graph.Stats.CyclomaticComplexity = complexity
	}

	return graph, nil
}

// walkCallers expands the inbound direction breadth-first up to the
// caller depth, truncating each level at MaxCallers distinct callers.
// The visited set keys on symbol identity so call cycles terminate.
func (b *Builder) walkCallers(ctx context.Context, root types.Symbol, opts Options, graph *types.CallGraph) (int, error) {
	visited := map[string]struct{}{root.Identity(): {}}
	frontier := []types.Symbol{root}
	depthReached := 0

	for depth := 1; depth <= opts.CallerDepth && len(frontier) > 0; depth++ {
		var next []types.Symbol
		for _, target := range frontier {
			if err := ctx.Err(); err != nil {
				return depthReached, err
			}

			edges, truncated, err := b.callersOf(ctx, target, opts.MaxCallers)
			if err != nil {
				return depthReached, err
			}
			if truncated {
				graph.Stats.CallersTruncated = true
			}
			if len(edges) > 0 {
				depthReached = depth
			}

			for _, edge := range edges {
				graph.Callers = append(graph.Callers, edge)
				id := edge.Caller.Identity()
				if _, seen := visited[id]; !seen {
					visited[id] = struct{}{}
					next = append(next, edge.Caller)
				}
			}
		}
		frontier = next
	}
	return depthReached, nil
}

// callersOf groups the reference sites of target by enclosing method and
// returns one edge per distinct caller, sorted by the caller's
// declaration location, truncated at the limit.
func (b *Builder) callersOf(ctx context.Context, target types.Symbol, limit int) ([]types.CallEdge, bool, error) {
	refs, err := b.source.FindReferences(ctx, target)
	if err != nil {
		return nil, false, err
	}

	grouped := make(map[string]*types.CallEdge)
	var order []string
	for _, ref := range refs {
		if ref.Enclosing.IsZero() {
			// Reference outside any method body (attribute, field
			// initializer): not a call edge.
			continue
		}
		id := ref.Enclosing.Identity()
		edge, ok := grouped[id]
		if !ok {
			edge = &types.CallEdge{Caller: ref.Enclosing, Callee: target}
			grouped[id] = edge
			order = append(order, id)
		}
		edge.Sites = appendSite(edge.Sites, ref.Location)
	}

	edges := make([]types.CallEdge, 0, len(order))
	for _, id := range order {
		edges = append(edges, *grouped[id])
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Caller.PrimaryLocation().Before(edges[j].Caller.PrimaryLocation())
	})

	truncated := len(edges) > limit
	if truncated {
		edges = edges[:limit]
	}
	return edges, truncated, nil
}

// walkCallees expands the outbound direction. Callees require body
// analysis, which is optional provider capability: without a CallLister
// the direction stays empty and the graph is merely degraded.
func (b *Builder) walkCallees(ctx context.Context, root types.Symbol, opts Options, graph *types.CallGraph) (int, error) {
	lister, ok := b.source.(provider.CallLister)
	if !ok {
		return 0, nil
	}

	visited := map[string]struct{}{root.Identity(): {}}
	frontier := []types.Symbol{root}
	depthReached := 0

	for depth := 1; depth <= opts.CalleeDepth && len(frontier) > 0; depth++ {
		var next []types.Symbol
		for _, caller := range frontier {
			if err := ctx.Err(); err != nil {
				return depthReached, err
			}

			edges, truncated, err := calleesOf(ctx, lister, caller, opts.MaxCallees)
			if err != nil {
				return depthReached, err
			}
			if truncated {
				graph.Stats.CalleesTruncated = true
			}
			if len(edges) > 0 {
				depthReached = depth
			}

			for _, edge := range edges {
				graph.Callees = append(graph.Callees, edge)
				id := edge.Callee.Identity()
				if _, seen := visited[id]; !seen {
					visited[id] = struct{}{}
					next = append(next, edge.Callee)
				}
			}
		}
		frontier = next
	}
	return depthReached, nil
}

// calleesOf groups outbound invocations by distinct callee, sorted by
// the callee's declaration location, truncated at the limit. A
// self-recursive call produces one edge back to the caller.
func calleesOf(ctx context.Context, lister provider.CallLister, caller types.Symbol, limit int) ([]types.CallEdge, bool, error) {
	calls, err := lister.Calls(ctx, caller)
	if err != nil {
		return nil, false, err
	}

	grouped := make(map[string]*types.CallEdge)
	var order []string
	for _, call := range calls {
		id := call.Callee.Identity()
		edge, ok := grouped[id]
		if !ok {
			edge = &types.CallEdge{Caller: caller, Callee: call.Callee}
			grouped[id] = edge
			order = append(order, id)
		}
		for _, site := range call.Sites {
			edge.Sites = appendSite(edge.Sites, site)
		}
	}

	edges := make([]types.CallEdge, 0, len(order))
	for _, id := range order {
		edges = append(edges, *grouped[id])
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Callee.PrimaryLocation().Before(edges[j].Callee.PrimaryLocation())
	})

	truncated := len(edges) > limit
	if truncated {
		edges = edges[:limit]
	}
	return edges, truncated, nil
}

// appendSite adds a call site unless the same location is present
func appendSite(sites []types.Location, site types.Location) []types.Location {
	for _, existing := range sites {
		if existing == site {
			return sites
		}
	}
	return append(sites, site)
}

// distinctEndpoints counts distinct callers or callees across edges
func distinctEndpoints(edges []types.CallEdge, caller bool) int {
	seen := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		if caller {
			seen[edge.Caller.Identity()] = struct{}{}
		} else {
			seen[edge.Callee.Identity()] = struct{}{}
		}
	}
	return len(seen)
}
