// Package diagnostics collects, filters and groups provider diagnostics
// for a single file or the whole workspace. Summary counts fall out of
// one pass over the filtered set and can never disagree with the detail
// list.
package diagnostics

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"
)

// Filters narrows the collected set
type Filters struct {
	// MinSeverity drops records below the level. SeverityHidden (the
	// zero value) keeps everything the hidden rule allows.
	MinSeverity types.Severity

	// Severities, when non-empty, is an explicit allow-list that
	// replaces the minimum-severity rule.
	Severities []types.Severity

	// IncludeHidden admits hidden diagnostics, which are otherwise
	// dropped even by a zero MinSeverity.
	IncludeHidden bool

	// FilePattern, for workspace scope, restricts records to files
	// matching the glob (doublestar syntax).
	FilePattern string
}

func (f Filters) admits(rec types.DiagnosticRecord) bool {
	if rec.Severity == types.SeverityHidden && !f.IncludeHidden && len(f.Severities) == 0 {
		return false
	}
	if len(f.Severities) > 0 {
		for _, allowed := range f.Severities {
			if rec.Severity == allowed {
				return true
			}
		}
		return false
	}
	return rec.Severity >= f.MinSeverity
}

// Aggregator collects diagnostics over one provider
type Aggregator struct {
	source provider.Provider
}

// New creates a diagnostics aggregator
func New(source provider.Provider) *Aggregator {
	return &Aggregator{source: source}
}

// Collect returns the filtered, grouped diagnostics for the scope. For
// a single-file scope, records the provider attributes to a different
// file (generated code, partial classes) are excluded.
func (a *Aggregator) Collect(ctx context.Context, scope types.DiagnosticScope, filters Filters) (*types.DiagnosticReport, error) {
	records, err := a.source.Diagnostics(ctx, scope)
	if err != nil {
		return nil, err
	}

	report := &types.DiagnosticReport{Scope: scope}
	byFile := make(map[string][]types.DiagnosticRecord)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !scope.IsWorkspace() && rec.File != scope.File {
			continue
		}
		if scope.IsWorkspace() && filters.FilePattern != "" {
			ok, globErr := doublestar.Match(filters.FilePattern, filepath.ToSlash(rec.File))
			if globErr != nil {
				return nil, globErr
			}
			if !ok {
				continue
			}
		}
		if !filters.admits(rec) {
			continue
		}

		switch rec.Severity {
		case types.SeverityError:
			report.Summary.Errors++
		case types.SeverityWarning:
			report.Summary.Warnings++
		case types.SeverityInfo:
			report.Summary.Infos++
		case types.SeverityHidden:
			report.Summary.Hidden++
		}
		report.Summary.Total++
		byFile[rec.File] = append(byFile[rec.File], rec)
	}

	report.Summary.FilesAffected = len(byFile)

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		recs := byFile[file]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Location().Before(recs[j].Location())
		})
		report.Files = append(report.Files, types.FileDiagnostics{File: file, Records: recs})
	}
	return report, nil
}
