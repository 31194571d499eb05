package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity orders diagnostic levels from least to most severe so that
// minimum-severity filtering is a simple comparison.
type Severity int

const (
	SeverityHidden Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

var severityNames = map[Severity]string{
	SeverityHidden:  "hidden",
	SeverityInfo:    "info",
	SeverityWarning: "warning",
	SeverityError:   "error",
}

// String returns the lowercase name of the severity
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "hidden"
}

// MarshalJSON serializes the severity as its string name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity from its string name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a string name to a Severity
func ParseSeverity(name string) (Severity, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for severity, severityName := range severityNames {
		if severityName == normalized {
			return severity, nil
		}
	}
	return SeverityHidden, fmt.Errorf("unknown severity: %q", name)
}

// DiagnosticRecord is one compiler or analyzer finding
type DiagnosticRecord struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Category string   `json:"category,omitempty"`

	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`
}

// Location returns the record's position as a Location value
func (d DiagnosticRecord) Location() Location {
	return Location{
		File:        d.File,
		StartLine:   d.StartLine,
		EndLine:     d.EndLine,
		StartColumn: d.StartColumn,
		EndColumn:   d.EndColumn,
	}
}

// DiagnosticScope selects what to collect diagnostics for: a single file
// when File is set, otherwise the whole workspace.
type DiagnosticScope struct {
	File string `json:"file,omitempty"`
}

// IsWorkspace reports whether the scope covers the whole workspace
func (s DiagnosticScope) IsWorkspace() bool {
	return s.File == ""
}

// DiagnosticSummary holds counts derived from a filtered record set in a
// single pass, never stored independently of the detailed list.
type DiagnosticSummary struct {
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
	Infos         int `json:"infos"`
	Hidden        int `json:"hidden"`
	Total         int `json:"total"`
	FilesAffected int `json:"files_affected"`
}

// FileDiagnostics groups the records of one file for presentation
type FileDiagnostics struct {
	File    string             `json:"file"`
	Records []DiagnosticRecord `json:"records"`
}

// DiagnosticReport is the full aggregation result: summary counts plus
// the per-file detail the summary was derived from.
type DiagnosticReport struct {
	Scope   DiagnosticScope   `json:"scope"`
	Summary DiagnosticSummary `json:"summary"`
	Files   []FileDiagnostics `json:"files,omitempty"`
}
