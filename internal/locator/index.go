package locator

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codenav/codenav/internal/provider"
)

// Match ranks for candidate files, lower is better
const (
	matchExact = iota
	matchSuffix
	matchBasename
	matchGlob
)

// fileCandidate is one workspace file that matched the requested path
type fileCandidate struct {
	path string
	rank int
}

// LocationIndex normalizes a caller-supplied path (absolute, relative or
// bare filename) against the file set known to the provider. Matching a
// bare filename against several files is not an error; the locator's
// proximity scoring disambiguates.
type LocationIndex struct {
	source provider.Provider
}

// NewLocationIndex creates an index over the provider's file set
func NewLocationIndex(source provider.Provider) *LocationIndex {
	return &LocationIndex{source: source}
}

// Match returns the workspace files matching the requested path, best
// rank first, stable by path within a rank. An empty request matches
// nothing.
func (li *LocationIndex) Match(ctx context.Context, requested string) ([]string, error) {
	if requested == "" {
		return nil, nil
	}

	files, err := li.source.Files(ctx)
	if err != nil {
		return nil, err
	}

	normalized := filepath.ToSlash(requested)
	var candidates []fileCandidate

	if isGlobPattern(normalized) {
		for _, file := range files {
			slashed := filepath.ToSlash(file)
			ok, globErr := doublestar.Match(normalized, slashed)
			if globErr != nil {
				return nil, globErr
			}
			if !ok {
				// A bare glob like *.cs should also match by basename
				ok, _ = doublestar.Match(normalized, filepath.Base(slashed))
			}
			if ok {
				candidates = append(candidates, fileCandidate{path: file, rank: matchGlob})
			}
		}
	} else {
		requestedBase := strings.ToLower(filepath.Base(normalized))
		for _, file := range files {
			slashed := filepath.ToSlash(file)
			switch {
			case strings.EqualFold(slashed, normalized):
				candidates = append(candidates, fileCandidate{path: file, rank: matchExact})
			case hasPathSuffix(slashed, normalized):
				candidates = append(candidates, fileCandidate{path: file, rank: matchSuffix})
			case strings.ToLower(filepath.Base(slashed)) == requestedBase:
				candidates = append(candidates, fileCandidate{path: file, rank: matchBasename})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].path < candidates[j].path
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.path
	}
	return out, nil
}

// SameFile reports whether a declaration file satisfies a requested path
// for proximity scoring: case-insensitive comparison by basename, which
// tolerates absolute-vs-relative and separator differences.
func SameFile(declared, requested string) bool {
	if declared == "" || requested == "" {
		return false
	}
	return strings.EqualFold(filepath.Base(filepath.ToSlash(declared)),
		filepath.Base(filepath.ToSlash(requested)))
}

// hasPathSuffix reports whether full ends with the path components of
// rel, so "src/Models/User.cs" matches a request for "Models/User.cs".
func hasPathSuffix(full, rel string) bool {
	if len(rel) >= len(full) {
		return false
	}
	if !strings.EqualFold(full[len(full)-len(rel):], rel) {
		return false
	}
	boundary := full[len(full)-len(rel)-1]
	return boundary == '/'
}

func isGlobPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
