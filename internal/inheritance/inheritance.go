// Package inheritance builds the ancestry and descendant sets of a type.
// The upward walk is unbounded because base chains are finite and short;
// the downward walk is breadth-first and depth-bounded because a base
// type can have arbitrarily many transitive subtypes.
package inheritance

import (
	"context"
	"sort"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"
)

// DefaultMaxDerivedDepth bounds the downward BFS when the caller does
// not choose a depth.
const DefaultMaxDerivedDepth = 3

// Options controls an inheritance tree build
type Options struct {
	// IncludeDerived enables the downward walk, which scans the whole
	// indexed codebase for subtypes.
	IncludeDerived bool

	// MaxDerivedDepth bounds the downward walk in hops from the root
	MaxDerivedDepth int
}

func (o Options) normalized() Options {
	if o.MaxDerivedDepth <= 0 {
		o.MaxDerivedDepth = DefaultMaxDerivedDepth
	}
	return o
}

// Builder constructs inheritance trees over one provider
type Builder struct {
	source provider.Provider
}

// New creates an inheritance tree builder
func New(source provider.Provider) *Builder {
	return &Builder{source: source}
}

// Build assembles the inheritance tree rooted at a type symbol. The root
// never appears in its own base, interface or derived lists; a visited
// set keeps the walk terminating even if the provider reports cycles.
func (b *Builder) Build(ctx context.Context, root types.Symbol, opts Options) (*types.InheritanceTree, error) {
	if root.Kind != types.SymbolKindType {
		return nil, naverr.NewWrongKind(root, types.KindFilterType)
	}
	opts = opts.normalized()

	tree := &types.InheritanceTree{Root: root}

	if err := b.collectBases(ctx, root, tree); err != nil {
		return nil, err
	}
	if err := b.collectInterfaces(ctx, root, tree); err != nil {
		return nil, err
	}
	if opts.IncludeDerived {
		if err := b.collectDerived(ctx, root, opts.MaxDerivedDepth, tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// collectBases walks the ancestry upward level by level, nearest bases
// first. Single inheritance yields a plain chain, but a provider may
// report several bases per type (mixins, multiple inheritance) and all
// of them are followed. Valid inheritance cannot cycle, but a corrupt
// provider must not hang us.
func (b *Builder) collectBases(ctx context.Context, root types.Symbol, tree *types.InheritanceTree) error {
	visited := map[string]struct{}{root.Identity(): {}}
	frontier := []types.Symbol{root}

	for len(frontier) > 0 {
		var next []types.Symbol
		for _, current := range frontier {
			if err := ctx.Err(); err != nil {
				return err
			}
			bases, err := b.source.BaseTypes(ctx, current)
			if err != nil {
				return err
			}
			for _, base := range bases {
				if _, seen := visited[base.Identity()]; seen {
					continue
				}
				visited[base.Identity()] = struct{}{}
				tree.BaseTypes = append(tree.BaseTypes, base)
				next = append(next, base)
			}
		}
		frontier = next
	}
	return nil
}

// collectInterfaces gathers the transitive closure of implemented
// interfaces: those declared on the root, on every base, and on the
// interfaces themselves. Discovery order is BFS order, which is stable
// for a stable provider.
func (b *Builder) collectInterfaces(ctx context.Context, root types.Symbol, tree *types.InheritanceTree) error {
	seen := map[string]struct{}{root.Identity(): {}}

	sources := append([]types.Symbol{root}, tree.BaseTypes...)
	var queue []types.Symbol
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		declared, err := b.source.ImplementedInterfaces(ctx, src)
		if err != nil {
			return err
		}
		for _, iface := range declared {
			if _, dup := seen[iface.Identity()]; dup {
				continue
			}
			seen[iface.Identity()] = struct{}{}
			tree.Interfaces = append(tree.Interfaces, iface)
			queue = append(queue, iface)
		}
	}

	// Interfaces extend interfaces; the provider reports those through
	// the same call.
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		iface := queue[0]
		queue = queue[1:]

		inherited, err := b.source.ImplementedInterfaces(ctx, iface)
		if err != nil {
			return err
		}
		for _, parent := range inherited {
			if _, dup := seen[parent.Identity()]; dup {
				continue
			}
			seen[parent.Identity()] = struct{}{}
			tree.Interfaces = append(tree.Interfaces, parent)
			queue = append(queue, parent)
		}
	}
	return nil
}

// collectDerived runs the bounded downward BFS. Depth 1 is direct
// subtypes. The reported depth is the deepest level that produced a
// subtype, so callers can tell a shallow hierarchy from a truncated one.
func (b *Builder) collectDerived(ctx context.Context, root types.Symbol, maxDepth int, tree *types.InheritanceTree) error {
	visited := map[string]struct{}{root.Identity(): {}}
	frontier := []types.Symbol{root}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []types.Symbol
		for _, parent := range frontier {
			if err := ctx.Err(); err != nil {
				return err
			}
			subtypes, err := b.source.DerivedTypes(ctx, parent)
			if err != nil {
				return err
			}
			for _, sub := range subtypes {
				if _, seen := visited[sub.Identity()]; seen {
					continue
				}
				visited[sub.Identity()] = struct{}{}
				next = append(next, sub)
			}
		}

		sort.SliceStable(next, func(i, j int) bool {
			return next[i].PrimaryLocation().Before(next[j].PrimaryLocation())
		})
		for _, sub := range next {
			tree.Derived = append(tree.Derived, types.DerivedType{Symbol: sub, Depth: depth})
		}
		if len(next) > 0 {
			tree.DerivedDepthReached = depth
		}
		frontier = next
	}

	// Distinguish "hierarchy ended" from "bound stopped us": only the
	// latter leaves unvisited subtypes below the last level.
	if tree.DerivedDepthReached == maxDepth && len(frontier) > 0 {
		for _, leaf := range frontier {
			if err := ctx.Err(); err != nil {
				return err
			}
			subtypes, err := b.source.DerivedTypes(ctx, leaf)
			if err != nil {
				return err
			}
			for _, sub := range subtypes {
				if _, seen := visited[sub.Identity()]; !seen {
					tree.DerivedTruncated = true
					return nil
				}
			}
		}
	}
	return nil
}
