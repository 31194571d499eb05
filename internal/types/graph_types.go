package types

// Graph-shaped query results: call graphs and inheritance trees.
// Both are bounded, deterministic snapshots assembled per call from
// provider data; neither is cached or updated incrementally.

// CallEdge connects a caller to a callee with every deduplicated call
// site inside the caller's body. A self-recursive method produces a
// valid edge whose caller and callee are the same symbol.
type CallEdge struct {
	Caller Symbol     `json:"caller"`
	Callee Symbol     `json:"callee"`
	Sites  []Location `json:"sites,omitempty"`
}

// CallGraphStats carries the derived figures for a call graph
type CallGraphStats struct {
	// CallerCount and CalleeCount are distinct symbols, not call sites
	CallerCount int `json:"caller_count"`
	CalleeCount int `json:"callee_count"`

	// CyclomaticComplexity is 1 + decision points in the root body.
	// Zero when the root body is unavailable.
	CyclomaticComplexity int `json:"cyclomatic_complexity"`

	// CallersTruncated / CalleesTruncated indicate the respective limit
	// cut off additional distinct symbols.
	CallersTruncated bool `json:"callers_truncated,omitempty"`
	CalleesTruncated bool `json:"callees_truncated,omitempty"`
}

// CallGraph is the bounded caller/callee neighborhood of one method
type CallGraph struct {
	Root Symbol `json:"root"`

	// Callers and Callees are sorted by the opposite endpoint's
	// declaration location so repeated builds return identical graphs.
	Callers []CallEdge `json:"callers,omitempty"`
	Callees []CallEdge `json:"callees,omitempty"`

	// CallerDepth / CalleeDepth are the traversal depths actually walked
	CallerDepth int `json:"caller_depth"`
	CalleeDepth int `json:"callee_depth"`

	Stats CallGraphStats `json:"stats"`
}

// DerivedType is one subtype found during the downward BFS together with
// the hop distance from the root type (1 = direct subtype).
type DerivedType struct {
	Symbol Symbol `json:"symbol"`
	Depth  int    `json:"depth"`
}

// InheritanceTree is the ancestry and (optionally) descendant set of one
// type. The upward direction is unbounded because base chains are finite
// and short; the downward direction is depth-bounded because a base type
// may have arbitrarily many transitive subtypes.
type InheritanceTree struct {
	Root Symbol `json:"root"`

	// BaseTypes runs from the immediate bases to the most distant
	// ancestors, level by level; within a level, declaration order.
	BaseTypes []Symbol `json:"base_types,omitempty"`

	// Interfaces is the deduplicated transitive closure of implemented
	// interfaces in a stable order.
	Interfaces []Symbol `json:"interfaces,omitempty"`

	// Derived is populated only when the build requested it
	Derived []DerivedType `json:"derived,omitempty"`

	// DerivedDepthReached is the deepest level that produced a subtype.
	// A value below the requested bound means the hierarchy ended early
	// rather than being truncated.
	DerivedDepthReached int `json:"derived_depth_reached"`

	// DerivedTruncated is set when the depth bound stopped the walk while
	// unvisited subtypes remained.
	DerivedTruncated bool `json:"derived_truncated,omitempty"`
}

// BatchResult is one slot of a batch resolution, index-aligned with the
// input hints. Exactly one of Info and Err is set.
type BatchResult struct {
	Index int          `json:"index"`
	Hint  LocationHint `json:"hint"`
	Info  *SymbolInfo  `json:"info,omitempty"`
	Err   error        `json:"-"`
}

// Failed reports whether the slot carries an error
func (r BatchResult) Failed() bool {
	return r.Err != nil
}

// SymbolInfo is the enriched payload for one resolved symbol: the symbol
// itself plus whatever enrichments the caller asked for.
type SymbolInfo struct {
	Symbol Symbol `json:"symbol"`

	// Body is the declaration source text when the provider can retrieve
	// it; empty for metadata-only symbols.
	Body string `json:"body,omitempty"`

	CallGraph   *CallGraph       `json:"call_graph,omitempty"`
	Inheritance *InheritanceTree `json:"inheritance,omitempty"`
}
