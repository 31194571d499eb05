// Package csharp implements the provider contract over a directory of
// C# source files using tree-sitter. It is a purely syntactic model: no
// type checking, no metadata references. Names are resolved by matching
// declarations found in the workspace, and anything external (framework
// types, NuGet packages) is simply absent rather than an error.
package csharp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// Directories never scanned for source files.
var skipDirs = map[string]bool{
	"bin":  true,
	"obj":  true,
	".git": true,
	".vs":  true,
}

// Workspace is a read-only semantic model built from every .cs file
// under a root directory. All index maps are populated once during Load
// and never mutated afterwards, so concurrent reads need no locking.
type Workspace struct {
	root  string
	files []string

	symbols []types.Symbol
	byID    map[string]int
	byName  map[string][]int // lowercased simple name
	byFile  map[string][]int // relative path, declaration order

	bases      map[string][]string // type ID -> base type IDs
	interfaces map[string][]string // type ID -> interface IDs
	derived    map[string][]string // type ID -> direct subtype IDs
	refs       map[string][]types.Reference
	calls      map[string][]types.CallEdge
	bodies     map[string]string
	complexity map[string]int

	diagnostics []types.DiagnosticRecord
}

var (
	_ provider.Provider           = (*Workspace)(nil)
	_ provider.CallLister         = (*Workspace)(nil)
	_ provider.ComplexityMeasurer = (*Workspace)(nil)
)

// Load scans root for C# files, parses them in parallel and links the
// extracted declarations into a queryable workspace.
func Load(ctx context.Context, root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	paths, err := sourceFiles(abs)
	if err != nil {
		return nil, err
	}

	extracts := make([]*fileExtract, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			content, err := os.ReadFile(filepath.Join(abs, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("reading %s: %w", rel, err)
			}

			parser, err := newParser()
			if err != nil {
				return err
			}
			defer parser.Close()

			tree := parser.Parse(content, nil)
			if tree == nil {
				return fmt.Errorf("parsing %s: no tree produced", rel)
			}
			defer tree.Close()

			extracts[i] = extractFile(rel, content, tree.RootNode())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ws := &Workspace{
		root:       abs,
		files:      paths,
		byID:       make(map[string]int),
		byName:     make(map[string][]int),
		byFile:     make(map[string][]int),
		bases:      make(map[string][]string),
		interfaces: make(map[string][]string),
		derived:    make(map[string][]string),
		refs:       make(map[string][]types.Reference),
		calls:      make(map[string][]types.CallEdge),
		bodies:     make(map[string]string),
		complexity: make(map[string]int),
	}
	ws.link(extracts)

	return ws, nil
}

// sourceFiles returns the sorted relative slash paths of every .cs file
// under root, skipping build output and VCS directories.
func sourceFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".cs") {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// located pairs a raw symbol with its source file for the link pass.
type located struct {
	raw  *rawSymbol
	file *fileExtract
}

// link runs the sequential cross-file resolution pass: identifier
// assignment, name indexes, inheritance edges, call edges, references
// and bodies. File order is the sorted path order, which keeps every
// derived structure deterministic.
func (ws *Workspace) link(extracts []*fileExtract) {
	var all []located

	for _, fe := range extracts {
		ws.diagnostics = append(ws.diagnostics, fe.diagnostics...)
		for _, raw := range fe.symbols {
			raw.symbol.ID = symbolID(fe.path, &raw.symbol)
			all = append(all, located{raw: raw, file: fe})
		}
	}

	for _, item := range all {
		sym := item.raw.symbol
		idx, exists := ws.byID[sym.ID]
		if exists {
			// Partial types and repeated namespace declarations merge
			// their declaration sites under one symbol.
			ws.symbols[idx].Locations = append(ws.symbols[idx].Locations, sym.Locations...)
			ws.byFile[item.file.path] = appendUnique(ws.byFile[item.file.path], idx)
			item.raw.symbol.ID = sym.ID
			continue
		}

		idx = len(ws.symbols)
		ws.symbols = append(ws.symbols, sym)
		ws.byID[sym.ID] = idx
		ws.byName[strings.ToLower(sym.Name)] = append(ws.byName[strings.ToLower(sym.Name)], idx)
		ws.byFile[item.file.path] = append(ws.byFile[item.file.path], idx)
	}

	for _, item := range all {
		if item.raw.bodyEnd > item.raw.bodyStart && int(item.raw.bodyEnd) <= len(item.file.content) {
			ws.bodies[item.raw.symbol.ID] = string(item.file.content[item.raw.bodyStart:item.raw.bodyEnd])
		}
		if item.raw.complexity > 0 {
			ws.complexity[item.raw.symbol.ID] = item.raw.complexity
		}
	}

	ws.linkInheritance(all)

	for _, fe := range extracts {
		ws.linkCalls(fe)
	}

	for id := range ws.refs {
		refs := ws.refs[id]
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].Location.Before(refs[j].Location)
		})
		ws.refs[id] = refs
	}
}

// linkInheritance resolves base_list names against workspace types and
// records the forward and inverse edges. Names that match nothing in
// the workspace (framework types) are dropped.
func (ws *Workspace) linkInheritance(all []located) {
	isInterface := make(map[string]bool)
	for _, item := range all {
		if item.raw.isInterface {
			isInterface[item.raw.symbol.ID] = true
		}
	}

	for _, item := range all {
		if item.raw.symbol.Kind != types.SymbolKindType || len(item.raw.baseNames) == 0 {
			continue
		}

		id := item.raw.symbol.ID
		for _, baseName := range item.raw.baseNames {
			target, ok := ws.uniqueType(baseName, item.file.path)
			if !ok {
				continue
			}

			if isInterface[target.ID] {
				ws.interfaces[id] = appendUniqueID(ws.interfaces[id], target.ID)
			} else {
				ws.bases[id] = appendUniqueID(ws.bases[id], target.ID)
			}
			ws.derived[target.ID] = appendUniqueID(ws.derived[target.ID], id)
		}
	}
}

// linkCalls resolves the raw call sites of one file into call edges and
// reference entries.
func (ws *Workspace) linkCalls(fe *fileExtract) {
	for _, call := range fe.calls {
		if call.caller < 0 || call.caller >= len(fe.symbols) {
			continue
		}
		caller := ws.canonical(fe.symbols[call.caller].symbol.ID)
		if caller.IsZero() {
			continue
		}

		var target types.Symbol
		var ok bool
		if call.creation {
			target, ok = ws.resolveCreation(call.callee, fe.path)
		} else {
			target, ok = ws.resolveInvocation(call, caller, fe.path)
		}
		if !ok {
			continue
		}

		ws.refs[target.ID] = append(ws.refs[target.ID], types.Reference{
			Location:  call.location,
			Enclosing: caller,
		})

		if target.Kind == types.SymbolKindMethod {
			ws.addCallEdge(caller, target, call.location)
		}
	}
}

// resolveCreation maps `new T(...)` to T's constructor when the type
// and a same-named method exist in the workspace, falling back to the
// type symbol itself.
func (ws *Workspace) resolveCreation(typeName, fromFile string) (types.Symbol, bool) {
	typ, ok := ws.uniqueType(typeName, fromFile)
	if !ok {
		return types.Symbol{}, false
	}

	for _, idx := range ws.byName[strings.ToLower(typeName)] {
		sym := ws.symbols[idx]
		if sym.Kind == types.SymbolKindMethod && sym.ContainingType == typ.FullName {
			return sym, true
		}
	}

	return typ, true
}

// resolveInvocation picks the callee for a call site. Preference order:
// a method on the receiver's type when the receiver names a workspace
// type, then a method on the caller's own type, then a method declared
// in the same file, then a workspace-unique method of that name.
// Anything still ambiguous stays unresolved.
func (ws *Workspace) resolveInvocation(call rawCall, caller types.Symbol, fromFile string) (types.Symbol, bool) {
	candidates := ws.methodsNamed(call.callee)
	if len(candidates) == 0 {
		return types.Symbol{}, false
	}

	if call.receiver != "" {
		if typ, ok := ws.uniqueType(lastSegment(call.receiver), fromFile); ok {
			for _, cand := range candidates {
				if cand.ContainingType == typ.FullName {
					return cand, true
				}
			}
		}
	}

	for _, cand := range candidates {
		if cand.ContainingType != "" && cand.ContainingType == caller.ContainingType {
			return cand, true
		}
	}

	var inFile []types.Symbol
	for _, cand := range candidates {
		if sameFileSymbol(cand, fromFile) {
			inFile = append(inFile, cand)
		}
	}
	if len(inFile) == 1 {
		return inFile[0], true
	}

	if len(candidates) == 1 {
		return candidates[0], true
	}

	return types.Symbol{}, false
}

// addCallEdge records a caller->callee site, merging repeated sites of
// the same pair into one edge.
func (ws *Workspace) addCallEdge(caller, callee types.Symbol, site types.Location) {
	edges := ws.calls[caller.ID]
	for i := range edges {
		if edges[i].Callee.ID == callee.ID {
			edges[i].Sites = append(edges[i].Sites, site)
			return
		}
	}
	ws.calls[caller.ID] = append(edges, types.CallEdge{
		Caller: caller,
		Callee: callee,
		Sites:  []types.Location{site},
	})
}

// methodsNamed returns workspace methods with the given simple name.
func (ws *Workspace) methodsNamed(name string) []types.Symbol {
	var out []types.Symbol
	for _, idx := range ws.byName[strings.ToLower(name)] {
		if ws.symbols[idx].Kind == types.SymbolKindMethod {
			out = append(out, ws.symbols[idx])
		}
	}
	return out
}

// uniqueType resolves a simple type name, preferring a declaration in
// fromFile when several workspace types share the name.
func (ws *Workspace) uniqueType(name, fromFile string) (types.Symbol, bool) {
	var matches []types.Symbol
	for _, idx := range ws.byName[strings.ToLower(name)] {
		if ws.symbols[idx].Kind == types.SymbolKindType {
			matches = append(matches, ws.symbols[idx])
		}
	}

	switch len(matches) {
	case 0:
		return types.Symbol{}, false
	case 1:
		return matches[0], true
	}

	for _, m := range matches {
		if sameFileSymbol(m, fromFile) {
			return m, true
		}
	}
	return types.Symbol{}, false
}

func (ws *Workspace) canonical(id string) types.Symbol {
	if idx, ok := ws.byID[id]; ok {
		return ws.symbols[idx]
	}
	return types.Symbol{}
}

func sameFileSymbol(sym types.Symbol, path string) bool {
	for _, loc := range sym.Locations {
		if loc.File == path {
			return true
		}
	}
	return false
}

// symbolID derives a stable identity from the declaration coordinates.
// Types and namespaces hash on their full name alone so the partial
// declarations of one type collapse into a single symbol; members keep
// the file and line in the hash so overloads stay distinct.
func symbolID(path string, sym *types.Symbol) string {
	h := xxhash.New()
	h.WriteString(sym.FullName)
	h.WriteString("|")
	h.WriteString(sym.Kind.String())

	if sym.Kind != types.SymbolKindType && sym.Kind != types.SymbolKindNamespace {
		h.WriteString("|")
		h.WriteString(path)
		if loc := sym.PrimaryLocation(); loc.IsKnown() {
			fmt.Fprintf(h, "|%d", loc.StartLine)
		}
	}

	return fmt.Sprintf("cs:%016x", h.Sum64())
}

func appendUnique(indexes []int, idx int) []int {
	for _, existing := range indexes {
		if existing == idx {
			return indexes
		}
	}
	return append(indexes, idx)
}

func appendUniqueID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// --- provider.Provider ---

func (ws *Workspace) FindSymbolsByName(ctx context.Context, name string, filter types.KindFilter) ([]types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []types.Symbol
	for _, idx := range ws.byName[strings.ToLower(name)] {
		sym := ws.symbols[idx]
		if filter.Matches(sym.Kind) {
			out = append(out, sym)
		}
	}
	return out, nil
}

func (ws *Workspace) FindSymbolsMatching(ctx context.Context, pattern string, filter types.KindFilter) ([]types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(pattern)
	var out []types.Symbol
	for _, sym := range ws.symbols {
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

func (ws *Workspace) DeclarationLocations(ctx context.Context, sym types.Symbol) ([]types.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ws.canonical(sym.ID).Locations, nil
}

func (ws *Workspace) FindReferences(ctx context.Context, sym types.Symbol) ([]types.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ws.refs[sym.ID], nil
}

func (ws *Workspace) BaseTypes(ctx context.Context, sym types.Symbol) ([]types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ws.resolveIDs(ws.bases[sym.ID]), nil
}

func (ws *Workspace) ImplementedInterfaces(ctx context.Context, sym types.Symbol) ([]types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ws.resolveIDs(ws.interfaces[sym.ID]), nil
}

func (ws *Workspace) DerivedTypes(ctx context.Context, sym types.Symbol) ([]types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ws.resolveIDs(ws.derived[sym.ID]), nil
}

func (ws *Workspace) Diagnostics(ctx context.Context, scope types.DiagnosticScope) ([]types.DiagnosticRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if scope.IsWorkspace() {
		out := make([]types.DiagnosticRecord, len(ws.diagnostics))
		copy(out, ws.diagnostics)
		return out, nil
	}

	var out []types.DiagnosticRecord
	for _, rec := range ws.diagnostics {
		if rec.File == scope.File {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (ws *Workspace) SourceBody(ctx context.Context, sym types.Symbol) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ws.bodies[sym.ID], nil
}

func (ws *Workspace) Files(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(ws.files))
	copy(out, ws.files)
	return out, nil
}

func (ws *Workspace) SymbolsInFile(ctx context.Context, path string) ([]types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexes := ws.byFile[filepath.ToSlash(path)]
	out := make([]types.Symbol, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, ws.symbols[idx])
	}
	return out, nil
}

// Calls implements provider.CallLister.
func (ws *Workspace) Calls(ctx context.Context, sym types.Symbol) ([]types.CallEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ws.calls[sym.ID], nil
}

// Complexity implements provider.ComplexityMeasurer.
func (ws *Workspace) Complexity(ctx context.Context, sym types.Symbol) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return ws.complexity[sym.ID], nil
}

func (ws *Workspace) resolveIDs(ids []string) []types.Symbol {
	out := make([]types.Symbol, 0, len(ids))
	for _, id := range ids {
		if idx, ok := ws.byID[id]; ok {
			out = append(out, ws.symbols[idx])
		}
	}
	return out
}
