package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SymbolKind identifies the declaration category of a symbol.
// The set is closed: the provider maps everything it knows onto one of
// these values and callers switch on them rather than inspecting
// provider-specific metadata.
type SymbolKind int

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindType
	SymbolKindMethod
	SymbolKindProperty
	SymbolKindField
	SymbolKindEvent
	SymbolKindNamespace
	SymbolKindOther
)

var symbolKindNames = map[SymbolKind]string{
	SymbolKindUnknown:   "unknown",
	SymbolKindType:      "type",
	SymbolKindMethod:    "method",
	SymbolKindProperty:  "property",
	SymbolKindField:     "field",
	SymbolKindEvent:     "event",
	SymbolKindNamespace: "namespace",
	SymbolKindOther:     "other",
}

// String returns the lowercase name of the kind
func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the kind as its string name
func (k SymbolKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a kind from its string name
func (k *SymbolKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSymbolKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseSymbolKind converts a string name to a SymbolKind
func ParseSymbolKind(name string) (SymbolKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range symbolKindNames {
		if kindName == normalized {
			return kind, nil
		}
	}
	return SymbolKindUnknown, fmt.Errorf("unknown symbol kind: %q", name)
}

// IsMember reports whether the kind is a type member (method, property,
// field or event) as opposed to a type or namespace declaration.
func (k SymbolKind) IsMember() bool {
	switch k {
	case SymbolKindMethod, SymbolKindProperty, SymbolKindField, SymbolKindEvent:
		return true
	}
	return false
}

// KindFilter restricts symbol resolution to a declaration category.
// Different operations only make sense for one category: inheritance
// queries need a type, call graphs need a method.
type KindFilter int

const (
	KindFilterAny KindFilter = iota
	KindFilterType
	KindFilterMember
	KindFilterMethod
)

var kindFilterNames = map[KindFilter]string{
	KindFilterAny:    "any",
	KindFilterType:   "type",
	KindFilterMember: "member",
	KindFilterMethod: "method",
}

// String returns the lowercase name of the filter
func (f KindFilter) String() string {
	if name, ok := kindFilterNames[f]; ok {
		return name
	}
	return "any"
}

// ParseKindFilter converts a string name to a KindFilter
func ParseKindFilter(name string) (KindFilter, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return KindFilterAny, nil
	}
	for filter, filterName := range kindFilterNames {
		if filterName == normalized {
			return filter, nil
		}
	}
	return KindFilterAny, fmt.Errorf("unknown kind filter: %q", name)
}

// Matches reports whether a symbol of the given kind passes the filter
func (f KindFilter) Matches(kind SymbolKind) bool {
	switch f {
	case KindFilterAny:
		return true
	case KindFilterType:
		return kind == SymbolKindType
	case KindFilterMember:
		return kind.IsMember()
	case KindFilterMethod:
		return kind == SymbolKindMethod
	}
	return false
}

// Accessibility represents the declared access level of a symbol
type Accessibility int

const (
	AccessibilityUnknown Accessibility = iota
	AccessibilityPublic
	AccessibilityInternal
	AccessibilityProtected
	AccessibilityProtectedInternal
	AccessibilityPrivateProtected
	AccessibilityPrivate
)

var accessibilityNames = map[Accessibility]string{
	AccessibilityUnknown:           "unknown",
	AccessibilityPublic:            "public",
	AccessibilityInternal:          "internal",
	AccessibilityProtected:         "protected",
	AccessibilityProtectedInternal: "protected internal",
	AccessibilityPrivateProtected:  "private protected",
	AccessibilityPrivate:           "private",
}

// String returns the C#-style access modifier spelling
func (a Accessibility) String() string {
	if name, ok := accessibilityNames[a]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the accessibility as its string name
func (a Accessibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Modifiers holds the boolean declaration modifiers consumed by this layer
type Modifiers struct {
	IsStatic   bool `json:"is_static,omitempty"`
	IsVirtual  bool `json:"is_virtual,omitempty"`
	IsOverride bool `json:"is_override,omitempty"`
	IsAbstract bool `json:"is_abstract,omitempty"`
	IsAsync    bool `json:"is_async,omitempty"`
}

// Location is a source range: file path plus 1-based line and column
// coordinates. A location with an empty file or a zero start line carries
// no usable position and must be treated as absent.
type Location struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`
}

// IsKnown reports whether the location carries a usable position
func (l Location) IsKnown() bool {
	return l.File != "" && l.StartLine > 0
}

// String formats the location as file:line:column for diagnostics
func (l Location) String() string {
	if !l.IsKnown() {
		return "<unknown>"
	}
	if l.StartColumn > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartColumn)
	}
	return fmt.Sprintf("%s:%d", l.File, l.StartLine)
}

// Before provides a stable total order over locations for deterministic
// output: by file, then start line, then start column.
func (l Location) Before(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.StartLine != other.StartLine {
		return l.StartLine < other.StartLine
	}
	return l.StartColumn < other.StartColumn
}

// Symbol is a read-only view of one declaration owned by the semantic
// provider. This layer only ranks and relates symbols; it never creates,
// mutates or caches them across calls.
type Symbol struct {
	// ID is a provider-assigned stable identity string. Two Symbol values
	// describe the same declaration iff their IDs are equal.
	ID string `json:"id"`

	Name      string     `json:"name"`
	FullName  string     `json:"full_name,omitempty"`
	Kind      SymbolKind `json:"kind"`
	Namespace string     `json:"namespace,omitempty"`

	// ContainingType is the full name of the enclosing type for members
	ContainingType string `json:"containing_type,omitempty"`

	Accessibility Accessibility `json:"accessibility"`
	Modifiers     Modifiers     `json:"modifiers"`

	// Locations are the declaration sites (partial types may have several)
	Locations []Location `json:"locations,omitempty"`

	Signature     string `json:"signature,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// IsZero reports whether the symbol is the empty value
func (s Symbol) IsZero() bool {
	return s.ID == "" && s.Name == ""
}

// Identity returns the key used for visited sets and deduplication.
// Falls back to name plus primary location when the provider did not
// assign an ID.
func (s Symbol) Identity() string {
	if s.ID != "" {
		return s.ID
	}
	return s.FullName + "@" + s.PrimaryLocation().String()
}

// PrimaryLocation returns the first known declaration location, or the
// zero Location when none is known.
func (s Symbol) PrimaryLocation() Location {
	for _, loc := range s.Locations {
		if loc.IsKnown() {
			return loc
		}
	}
	return Location{}
}

// DisplayName returns the most qualified name available
func (s Symbol) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Name
}

// LocationHint is the caller-supplied fuzzy coordinate for resolution.
// Any combination of fields may be present; at least one of SymbolName
// or FilePath is required for the hint to be resolvable.
type LocationHint struct {
	SymbolName string `json:"symbol_name,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// IsResolvable reports whether the hint carries enough information to
// attempt a resolution.
func (h LocationHint) IsResolvable() bool {
	return h.SymbolName != "" || h.FilePath != ""
}

// String formats the hint for diagnostics
func (h LocationHint) String() string {
	parts := make([]string, 0, 3)
	if h.SymbolName != "" {
		parts = append(parts, "name="+h.SymbolName)
	}
	if h.FilePath != "" {
		parts = append(parts, "file="+h.FilePath)
	}
	if h.Line > 0 {
		parts = append(parts, fmt.Sprintf("line=%d", h.Line))
	}
	if len(parts) == 0 {
		return "<empty hint>"
	}
	return strings.Join(parts, " ")
}

// Reference is one usage site of a symbol together with the symbol whose
// body contains the site, as reported by the provider's reference index.
type Reference struct {
	Location  Location `json:"location"`
	Enclosing Symbol   `json:"enclosing"`
}
