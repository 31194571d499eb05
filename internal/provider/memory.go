package provider

import (
	"context"
	"sort"
	"strings"

	"github.com/codenav/codenav/internal/types"
)

// Memory is a deterministic in-memory Provider. Tests build one with the
// Add/Set mutators, then hand it to the query layer; the CLI can load one
// from a fixture. Mutation must finish before the first read: after that
// every method is a pure lookup and safe for concurrent callers.
type Memory struct {
	files   []string
	symbols []types.Symbol
	byID    map[string]int

	refs       map[string][]types.Reference
	bases      map[string][]string
	ifaces     map[string][]string
	derived    map[string][]string
	calls      map[string][]types.CallEdge
	bodies     map[string]string
	complexity map[string]int
	diags      []types.DiagnosticRecord

	// forcedErr, when set, makes every query fail with it
	forcedErr error
}

// NewMemory creates an empty in-memory provider
func NewMemory() *Memory {
	return &Memory{
		byID:       make(map[string]int),
		refs:       make(map[string][]types.Reference),
		bases:      make(map[string][]string),
		ifaces:     make(map[string][]string),
		derived:    make(map[string][]string),
		calls:      make(map[string][]types.CallEdge),
		bodies:     make(map[string]string),
		complexity: make(map[string]int),
	}
}

// AddFile registers a file path with the model
func (m *Memory) AddFile(path string) *Memory {
	for _, existing := range m.files {
		if existing == path {
			return m
		}
	}
	m.files = append(m.files, path)
	return m
}

// AddSymbol registers a symbol in declaration order. Files referenced by
// the symbol's locations are registered implicitly.
func (m *Memory) AddSymbol(sym types.Symbol) *Memory {
	if _, exists := m.byID[sym.ID]; exists {
		return m
	}
	m.byID[sym.ID] = len(m.symbols)
	m.symbols = append(m.symbols, sym)
	for _, loc := range sym.Locations {
		if loc.File != "" {
			m.AddFile(loc.File)
		}
	}
	return m
}

// AddReference records a usage site of the target symbol
func (m *Memory) AddReference(targetID string, ref types.Reference) *Memory {
	m.refs[targetID] = append(m.refs[targetID], ref)
	return m
}

// SetBases records the immediate base types of a type, and the inverse
// derived edges.
func (m *Memory) SetBases(typeID string, baseIDs ...string) *Memory {
	m.bases[typeID] = baseIDs
	for _, baseID := range baseIDs {
		m.derived[baseID] = append(m.derived[baseID], typeID)
	}
	return m
}

// SetInterfaces records the directly declared interfaces of a type
func (m *Memory) SetInterfaces(typeID string, interfaceIDs ...string) *Memory {
	m.ifaces[typeID] = interfaceIDs
	return m
}

// AddCall records an outbound invocation from caller to callee
func (m *Memory) AddCall(callerID, calleeID string, sites ...types.Location) *Memory {
	caller, callerOK := m.lookup(callerID)
	callee, calleeOK := m.lookup(calleeID)
	if !callerOK || !calleeOK {
		return m
	}
	m.calls[callerID] = append(m.calls[callerID], types.CallEdge{
		Caller: caller,
		Callee: callee,
		Sites:  sites,
	})
	// A call is also a reference to the callee from the caller's body
	for _, site := range sites {
		m.refs[calleeID] = append(m.refs[calleeID], types.Reference{
			Location:  site,
			Enclosing: caller,
		})
	}
	return m
}

// SetBody records the declaration source text of a symbol
func (m *Memory) SetBody(symbolID, body string) *Memory {
	m.bodies[symbolID] = body
	return m
}

// SetComplexity records the cyclomatic complexity of a symbol's body
func (m *Memory) SetComplexity(symbolID string, complexity int) *Memory {
	m.complexity[symbolID] = complexity
	return m
}

// AddDiagnostic records one diagnostic
func (m *Memory) AddDiagnostic(rec types.DiagnosticRecord) *Memory {
	m.diags = append(m.diags, rec)
	if rec.File != "" {
		m.AddFile(rec.File)
	}
	return m
}

// FailWith forces every subsequent query to return err. Used by tests to
// simulate an unavailable or broken semantic model.
func (m *Memory) FailWith(err error) *Memory {
	m.forcedErr = err
	return m
}

func (m *Memory) lookup(id string) (types.Symbol, bool) {
	idx, ok := m.byID[id]
	if !ok {
		return types.Symbol{}, false
	}
	return m.symbols[idx], true
}

func (m *Memory) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.forcedErr
}

// FindSymbolsByName implements Provider
func (m *Memory) FindSymbolsByName(ctx context.Context, name string, filter types.KindFilter) ([]types.Symbol, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	var out []types.Symbol
	for _, sym := range m.symbols {
		if sym.Name == name && filter.Matches(sym.Kind) {
			out = append(out, sym)
		}
	}
	return out, nil
}

// FindSymbolsMatching implements Provider with a case-insensitive
// substring match over simple and qualified names.
func (m *Memory) FindSymbolsMatching(ctx context.Context, pattern string, filter types.KindFilter) ([]types.Symbol, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(pattern)
	var out []types.Symbol
	for _, sym := range m.symbols {
		if !filter.Matches(sym.Kind) {
			continue
		}
		if strings.Contains(strings.ToLower(sym.Name), needle) ||
			strings.Contains(strings.ToLower(sym.FullName), needle) {
			out = append(out, sym)
		}
	}
	return out, nil
}

// DeclarationLocations implements Provider
func (m *Memory) DeclarationLocations(ctx context.Context, sym types.Symbol) ([]types.Location, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	stored, ok := m.lookup(sym.ID)
	if !ok {
		return nil, nil
	}
	return stored.Locations, nil
}

// FindReferences implements Provider
func (m *Memory) FindReferences(ctx context.Context, sym types.Symbol) ([]types.Reference, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	refs := m.refs[sym.ID]
	out := make([]types.Reference, len(refs))
	copy(out, refs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location.Before(out[j].Location)
	})
	return out, nil
}

func (m *Memory) resolveIDs(ids []string) []types.Symbol {
	out := make([]types.Symbol, 0, len(ids))
	for _, id := range ids {
		if sym, ok := m.lookup(id); ok {
			out = append(out, sym)
		}
	}
	return out
}

// BaseTypes implements Provider
func (m *Memory) BaseTypes(ctx context.Context, sym types.Symbol) ([]types.Symbol, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return m.resolveIDs(m.bases[sym.ID]), nil
}

// ImplementedInterfaces implements Provider
func (m *Memory) ImplementedInterfaces(ctx context.Context, sym types.Symbol) ([]types.Symbol, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return m.resolveIDs(m.ifaces[sym.ID]), nil
}

// DerivedTypes implements Provider
func (m *Memory) DerivedTypes(ctx context.Context, sym types.Symbol) ([]types.Symbol, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return m.resolveIDs(m.derived[sym.ID]), nil
}

// Diagnostics implements Provider
func (m *Memory) Diagnostics(ctx context.Context, scope types.DiagnosticScope) ([]types.DiagnosticRecord, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make([]types.DiagnosticRecord, 0, len(m.diags))
	for _, rec := range m.diags {
		if scope.IsWorkspace() || rec.File == scope.File {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SourceBody implements Provider
func (m *Memory) SourceBody(ctx context.Context, sym types.Symbol) (string, error) {
	if err := m.check(ctx); err != nil {
		return "", err
	}
	return m.bodies[sym.ID], nil
}

// Files implements Provider
func (m *Memory) Files(ctx context.Context) ([]string, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make([]string, len(m.files))
	copy(out, m.files)
	return out, nil
}

// SymbolsInFile implements Provider, in declaration order
func (m *Memory) SymbolsInFile(ctx context.Context, path string) ([]types.Symbol, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	var out []types.Symbol
	for _, sym := range m.symbols {
		for _, loc := range sym.Locations {
			if loc.File == path {
				out = append(out, sym)
				break
			}
		}
	}
	return out, nil
}

// Calls implements CallLister
func (m *Memory) Calls(ctx context.Context, sym types.Symbol) ([]types.CallEdge, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	edges := m.calls[sym.ID]
	out := make([]types.CallEdge, len(edges))
	copy(out, edges)
	return out, nil
}

// Complexity implements ComplexityMeasurer
func (m *Memory) Complexity(ctx context.Context, sym types.Symbol) (int, error) {
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	return m.complexity[sym.ID], nil
}

var (
	_ Provider           = (*Memory)(nil)
	_ CallLister         = (*Memory)(nil)
	_ ComplexityMeasurer = (*Memory)(nil)
)
