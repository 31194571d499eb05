// Package provider defines the contract this layer requires from the
// semantic model and ships an in-memory implementation for tests and
// fixture-driven runs. The provider owns parsing, type checking and the
// symbol/reference index; everything above it only reads.
package provider

import (
	"context"

	"github.com/codenav/codenav/internal/types"
)

// Provider is the read-only query surface of the semantic model. All
// methods must tolerate concurrent callers: the batch orchestrator issues
// overlapping reads from its worker pool. Implementations should treat
// every returned Symbol as an immutable snapshot.
type Provider interface {
	// FindSymbolsByName returns symbols whose display name equals name,
	// restricted by the kind filter. Order must be stable across calls
	// for unchanged underlying source.
	FindSymbolsByName(ctx context.Context, name string, filter types.KindFilter) ([]types.Symbol, error)

	// FindSymbolsMatching is the pattern variant: a case-insensitive
	// substring match over display and qualified names, used when an
	// exact lookup yields nothing.
	FindSymbolsMatching(ctx context.Context, pattern string, filter types.KindFilter) ([]types.Symbol, error)

	// DeclarationLocations returns every declaration site of the symbol
	DeclarationLocations(ctx context.Context, sym types.Symbol) ([]types.Location, error)

	// FindReferences returns every usage site of the symbol together
	// with the symbol enclosing each site.
	FindReferences(ctx context.Context, sym types.Symbol) ([]types.Reference, error)

	// BaseTypes returns the immediate base types of a type symbol
	BaseTypes(ctx context.Context, sym types.Symbol) ([]types.Symbol, error)

	// ImplementedInterfaces returns the interfaces directly declared on
	// a type symbol (inherited interfaces come from walking bases).
	ImplementedInterfaces(ctx context.Context, sym types.Symbol) ([]types.Symbol, error)

	// DerivedTypes returns the direct subtypes of a type symbol
	DerivedTypes(ctx context.Context, sym types.Symbol) ([]types.Symbol, error)

	// Diagnostics returns diagnostics for the scope, both structural and
	// semantic, unfiltered.
	Diagnostics(ctx context.Context, scope types.DiagnosticScope) ([]types.DiagnosticRecord, error)

	// SourceBody returns the declaration source text of the symbol, or
	// an empty string when no body is retrievable (metadata-only
	// symbols). Absence of a body is not an error.
	SourceBody(ctx context.Context, sym types.Symbol) (string, error)

	// Files enumerates every file path known to the model
	Files(ctx context.Context) ([]string, error)

	// SymbolsInFile returns the symbols declared in one file, in
	// declaration order.
	SymbolsInFile(ctx context.Context, path string) ([]types.Symbol, error)
}

// CallLister is an optional extension: providers that can resolve the
// outbound invocations of a method body implement it. When absent, call
// graphs degrade to caller-only per the builder's contract.
type CallLister interface {
	// Calls returns the distinct methods invoked from sym's body along
	// with the call-site locations inside sym.
	Calls(ctx context.Context, sym types.Symbol) ([]types.CallEdge, error)
}

// ComplexityMeasurer is an optional extension: providers that analyze
// method bodies report cyclomatic complexity through it. When absent,
// call graphs report zero complexity.
type ComplexityMeasurer interface {
	// Complexity returns 1 + decision points of sym's body, or 0 when
	// sym has no retrievable body.
	Complexity(ctx context.Context, sym types.Symbol) (int, error)
}
