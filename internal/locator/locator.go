// Package locator resolves loose, human-supplied coordinates (a symbol
// name, an approximate file path, a nearby line) to a single symbol in
// the semantic model. Resolution never guesses silently: a miss returns
// a structured not-found error carrying everything that was tried.
package locator

import (
	"context"
	"sort"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"
)

const (
	// filePenalty dominates any plausible line distance so a candidate
	// declared in the requested file always outranks one that is not.
	filePenalty = 1 << 20

	// DefaultFuzzyThreshold is the minimum name similarity for a
	// pattern-fallback candidate to be considered at all.
	DefaultFuzzyThreshold = 0.45
)

// Locator is the fuzzy symbol resolver. It is stateless between calls
// and safe for concurrent use.
type Locator struct {
	source         provider.Provider
	index          *LocationIndex
	fuzzyThreshold float64
}

// New creates a locator over the provider
func New(source provider.Provider) *Locator {
	return &Locator{
		source:         source,
		index:          NewLocationIndex(source),
		fuzzyThreshold: DefaultFuzzyThreshold,
	}
}

// WithFuzzyThreshold overrides the minimum similarity for fallback hits
func (l *Locator) WithFuzzyThreshold(threshold float64) *Locator {
	if threshold > 0 && threshold <= 1 {
		l.fuzzyThreshold = threshold
	}
	return l
}

// Resolve returns the single best symbol for the hint, or a
// *naverr.NotFoundError when nothing matches.
func (l *Locator) Resolve(ctx context.Context, hint types.LocationHint, filter types.KindFilter) (types.Symbol, error) {
	if !hint.IsResolvable() {
		return types.Symbol{}, naverr.NewInvalidHint(hint, "need a symbol name or a file path")
	}

	candidates, err := l.gather(ctx, hint, filter)
	if err != nil {
		return types.Symbol{}, err
	}
	if len(candidates) == 0 {
		return types.Symbol{}, naverr.NewNotFound(hint, filter)
	}

	if len(candidates) > 1 && hint.FilePath != "" {
		rankByProximity(candidates, hint)
	}

	return candidates[0], nil
}

// gather produces the ordered candidate set: exact name lookup first,
// then the pattern fallback, then file+line when no name was given.
func (l *Locator) gather(ctx context.Context, hint types.LocationHint, filter types.KindFilter) ([]types.Symbol, error) {
	if hint.SymbolName != "" {
		exact, err := l.source.FindSymbolsByName(ctx, hint.SymbolName, filter)
		if err != nil {
			return nil, err
		}
		if len(exact) > 0 {
			return exact, nil
		}
		return l.patternFallback(ctx, hint.SymbolName, filter)
	}
	return l.symbolsNearLine(ctx, hint, filter)
}

// patternFallback tolerates partially-qualified and misspelled names: a
// substring search supplies candidates, name similarity orders them and
// drops the hopeless ones.
func (l *Locator) patternFallback(ctx context.Context, name string, filter types.KindFilter) ([]types.Symbol, error) {
	matches, err := l.source.FindSymbolsMatching(ctx, name, filter)
	if err != nil {
		return nil, err
	}

	type scored struct {
		sym   types.Symbol
		score float64
	}
	kept := make([]scored, 0, len(matches))
	for _, sym := range matches {
		score := nameSimilarity(name, sym.Name)
		if full := nameSimilarity(name, sym.FullName); full > score {
			score = full
		}
		if score >= l.fuzzyThreshold {
			kept = append(kept, scored{sym: sym, score: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	out := make([]types.Symbol, len(kept))
	for i, s := range kept {
		out[i] = s.sym
	}
	return out, nil
}

// symbolsNearLine resolves a hint with no symbol name: every declaration
// in the matched file(s), ordered by distance to the line hint when one
// is given. A declaration containing the line counts as distance zero.
func (l *Locator) symbolsNearLine(ctx context.Context, hint types.LocationHint, filter types.KindFilter) ([]types.Symbol, error) {
	files, err := l.index.Match(ctx, hint.FilePath)
	if err != nil {
		return nil, err
	}

	var candidates []types.Symbol
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		declared, err := l.source.SymbolsInFile(ctx, file)
		if err != nil {
			return nil, err
		}
		for _, sym := range declared {
			if filter.Matches(sym.Kind) {
				candidates = append(candidates, sym)
			}
		}
	}

	if hint.Line > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return lineDistance(candidates[i], hint.Line) < lineDistance(candidates[j], hint.Line)
		})
	}
	return candidates, nil
}

// rankByProximity orders candidates by a large penalty when no
// declaration is in the requested file, plus the distance from the line
// hint. Stable, so provider order breaks ties.
func rankByProximity(candidates []types.Symbol, hint types.LocationHint) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return proximityScore(candidates[i], hint) < proximityScore(candidates[j], hint)
	})
}

// proximityScore is the minimum score over a candidate's declarations
func proximityScore(sym types.Symbol, hint types.LocationHint) int {
	best := -1
	for _, loc := range sym.Locations {
		if !loc.IsKnown() {
			continue
		}
		score := 0
		if !SameFile(loc.File, hint.FilePath) {
			score += filePenalty
		}
		if hint.Line > 0 {
			score += absInt(loc.StartLine - hint.Line)
		}
		if best < 0 || score < best {
			best = score
		}
	}
	if best < 0 {
		// No known location at all: worse than any located candidate
		return 2 * filePenalty
	}
	return best
}

// lineDistance is zero when a declaration contains or starts at the
// line, otherwise the distance from the declaration start.
func lineDistance(sym types.Symbol, line int) int {
	best := -1
	for _, loc := range sym.Locations {
		if !loc.IsKnown() {
			continue
		}
		distance := absInt(loc.StartLine - line)
		if loc.EndLine >= loc.StartLine && line >= loc.StartLine && line <= loc.EndLine {
			distance = 0
		}
		if best < 0 || distance < best {
			best = distance
		}
	}
	if best < 0 {
		return filePenalty
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
