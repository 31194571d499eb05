package csharp

import (
	"strings"

	"github.com/codenav/codenav/internal/types"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// rawSymbol is a symbol as extracted from a single file, before the
// linking pass assigns identifiers and resolves cross-file relations.
type rawSymbol struct {
	symbol      types.Symbol
	baseNames   []string // base_list entries in declaration order
	isInterface bool
	bodyStart   uint
	bodyEnd     uint
	complexity  int // cyclomatic complexity of the member body, 0 without one
}

// rawCall is an unresolved call site found inside a member body.
type rawCall struct {
	callee   string // simple name of the invoked method or created type
	receiver string // receiver expression text, empty for implicit this
	caller   int    // index into fileExtract.symbols, -1 outside members
	location types.Location
	creation bool // object creation rather than method invocation
}

// fileExtract holds everything pulled out of one parsed source file.
type fileExtract struct {
	path        string
	content     []byte
	symbols     []*rawSymbol
	calls       []rawCall
	diagnostics []types.DiagnosticRecord
}

// extractor walks a C# syntax tree for a single file.
type extractor struct {
	path    string
	content []byte
	out     *fileExtract

	namespace string
	typeStack []string // enclosing type names, outermost first
}

// extractFile parses nothing itself; it walks an already-parsed tree and
// returns the raw symbols, call sites and syntax diagnostics of the file.
func extractFile(path string, content []byte, root *sitter.Node) *fileExtract {
	ex := &extractor{
		path:    path,
		content: content,
		out:     &fileExtract{path: path, content: content},
	}

	ex.collectSyntaxErrors(root)
	ex.extractNode(root)

	return ex.out
}

// collectSyntaxErrors records a diagnostic for each error or missing
// node. Descent stops at the first error in a subtree so a single bad
// region produces one record instead of a cascade.
func (ex *extractor) collectSyntaxErrors(root *sitter.Node) {
	walk(root, func(node *sitter.Node) bool {
		if node.IsError() {
			ex.addSyntaxError(node, "syntax error: unexpected "+firstLine(nodeText(node, ex.content)))
			return false
		}
		if node.IsMissing() {
			ex.addSyntaxError(node, "syntax error: missing "+node.Kind())
			return false
		}
		return true
	})
}

func (ex *extractor) addSyntaxError(node *sitter.Node, message string) {
	loc := nodeLocation(node, ex.path)
	ex.out.diagnostics = append(ex.out.diagnostics, types.DiagnosticRecord{
		Code:        "CNV1001",
		Message:     message,
		Severity:    types.SeverityError,
		Category:    "Syntax",
		File:        ex.path,
		StartLine:   loc.StartLine,
		EndLine:     loc.EndLine,
		StartColumn: loc.StartColumn,
		EndColumn:   loc.EndColumn,
	})
}

// extractNode recursively extracts declarations from an AST node.
func (ex *extractor) extractNode(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		ex.extractNamespace(node)
		return

	case "class_declaration":
		ex.extractType(node, false)
		return

	case "interface_declaration":
		ex.extractType(node, true)
		return

	case "struct_declaration", "record_declaration", "record_struct_declaration":
		ex.extractType(node, false)
		return

	case "enum_declaration":
		ex.extractEnum(node)
		return

	case "method_declaration", "constructor_declaration":
		ex.extractMethod(node)
		return

	case "property_declaration":
		ex.extractMember(node, types.SymbolKindProperty)
		return

	case "field_declaration":
		ex.extractField(node, types.SymbolKindField)
		return

	case "event_field_declaration":
		ex.extractField(node, types.SymbolKindEvent)
		return

	case "event_declaration":
		ex.extractMember(node, types.SymbolKindEvent)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		ex.extractNode(node.Child(i))
	}
}

// nameNode returns a declaration's name node. The grammar exposes it as
// the "name" field; the identifier fallback covers node kinds without
// one. Matching the first identifier directly would hit the return type
// of methods like "Validator Create()".
func declName(node *sitter.Node) *sitter.Node {
	if n := node.ChildByFieldName("name"); n != nil {
		return n
	}
	return childByKind(node, "identifier")
}

// extractNamespace records the namespace symbol and descends with the
// namespace prefix applied.
func (ex *extractor) extractNamespace(node *sitter.Node) {
	nameNode := childByKind(node, "qualified_name")
	if nameNode == nil {
		nameNode = childByKind(node, "identifier")
	}
	if nameNode == nil {
		return
	}

	name := nodeText(nameNode, ex.content)

	outer := ex.namespace
	if outer != "" {
		ex.namespace = outer + "." + name
	} else {
		ex.namespace = name
	}

	ex.addSymbol(&rawSymbol{symbol: types.Symbol{
		Name:          lastSegment(name),
		FullName:      ex.namespace,
		Kind:          types.SymbolKindNamespace,
		Accessibility: types.AccessibilityPublic,
		Locations:     []types.Location{nodeLocation(nameNode, ex.path)},
	}})

	body := childByKind(node, "declaration_list")
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			ex.extractNode(body.Child(i))
		}
	} else {
		// File-scoped namespaces have their members as siblings.
		for i := uint(0); i < node.ChildCount(); i++ {
			ex.extractNode(node.Child(i))
		}
	}

	ex.namespace = outer
}

// extractType handles class, interface, struct and record declarations.
func (ex *extractor) extractType(node *sitter.Node, isInterface bool) {
	nameNode := declName(node)
	if nameNode == nil {
		return
	}

	name := nodeText(nameNode, ex.content)
	modifiers := ex.modifiers(node)

	raw := &rawSymbol{
		symbol: types.Symbol{
			Name:           name,
			FullName:       ex.qualify(name),
			Kind:           types.SymbolKindType,
			Namespace:      ex.namespace,
			ContainingType: ex.containingType(),
			Accessibility:  accessibilityOf(modifiers),
			Modifiers: types.Modifiers{
				IsStatic:   hasModifier(modifiers, "static"),
				IsAbstract: hasModifier(modifiers, "abstract"),
			},
			Locations:     []types.Location{nodeLocation(nameNode, ex.path)},
			Documentation: ex.docComment(node),
		},
		baseNames:   ex.baseNames(node),
		isInterface: isInterface,
		bodyStart:   node.StartByte(),
		bodyEnd:     node.EndByte(),
	}
	ex.addSymbol(raw)

	ex.typeStack = append(ex.typeStack, name)
	body := childByKind(node, "declaration_list")
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			ex.extractNode(body.Child(i))
		}
	}
	ex.typeStack = ex.typeStack[:len(ex.typeStack)-1]
}

// extractEnum records an enum as a type symbol without descending into
// its members.
func (ex *extractor) extractEnum(node *sitter.Node) {
	nameNode := declName(node)
	if nameNode == nil {
		return
	}

	name := nodeText(nameNode, ex.content)
	modifiers := ex.modifiers(node)

	ex.addSymbol(&rawSymbol{
		symbol: types.Symbol{
			Name:           name,
			FullName:       ex.qualify(name),
			Kind:           types.SymbolKindType,
			Namespace:      ex.namespace,
			ContainingType: ex.containingType(),
			Accessibility:  accessibilityOf(modifiers),
			Locations:      []types.Location{nodeLocation(nameNode, ex.path)},
			Documentation:  ex.docComment(node),
		},
		bodyStart: node.StartByte(),
		bodyEnd:   node.EndByte(),
	})
}

// extractMethod handles method and constructor declarations, including
// the call sites inside their bodies.
func (ex *extractor) extractMethod(node *sitter.Node) {
	nameNode := declName(node)
	if nameNode == nil {
		return
	}

	name := nodeText(nameNode, ex.content)
	modifiers := ex.modifiers(node)

	raw := &rawSymbol{
		symbol: types.Symbol{
			Name:           name,
			FullName:       ex.qualify(name),
			Kind:           types.SymbolKindMethod,
			Namespace:      ex.namespace,
			ContainingType: ex.containingType(),
			Accessibility:  accessibilityOf(modifiers),
			Modifiers: types.Modifiers{
				IsStatic:   hasModifier(modifiers, "static"),
				IsVirtual:  hasModifier(modifiers, "virtual"),
				IsOverride: hasModifier(modifiers, "override"),
				IsAbstract: hasModifier(modifiers, "abstract"),
				IsAsync:    hasModifier(modifiers, "async"),
			},
			Locations:     []types.Location{nodeLocation(nameNode, ex.path)},
			Signature:     ex.methodSignature(node),
			Documentation: ex.docComment(node),
		},
		bodyStart: node.StartByte(),
		bodyEnd:   node.EndByte(),
	}
	callerIndex := ex.addSymbol(raw)

	body := childByKind(node, "block")
	if body == nil {
		body = childByKind(node, "arrow_expression_clause")
	}
	if body != nil {
		raw.complexity = bodyComplexity(body)
		ex.extractCalls(body, callerIndex)
	}
}

// extractMember handles single-name members such as properties and
// explicit event declarations.
func (ex *extractor) extractMember(node *sitter.Node, kind types.SymbolKind) {
	nameNode := declName(node)
	if nameNode == nil {
		return
	}

	name := nodeText(nameNode, ex.content)
	modifiers := ex.modifiers(node)

	ex.addSymbol(&rawSymbol{
		symbol: types.Symbol{
			Name:           name,
			FullName:       ex.qualify(name),
			Kind:           kind,
			Namespace:      ex.namespace,
			ContainingType: ex.containingType(),
			Accessibility:  accessibilityOf(modifiers),
			Modifiers: types.Modifiers{
				IsStatic:   hasModifier(modifiers, "static"),
				IsVirtual:  hasModifier(modifiers, "virtual"),
				IsOverride: hasModifier(modifiers, "override"),
				IsAbstract: hasModifier(modifiers, "abstract"),
			},
			Locations:     []types.Location{nodeLocation(nameNode, ex.path)},
			Documentation: ex.docComment(node),
		},
		bodyStart: node.StartByte(),
		bodyEnd:   node.EndByte(),
	})
}

// extractField handles field and event-field declarations, which may
// declare several names in one statement.
func (ex *extractor) extractField(node *sitter.Node, kind types.SymbolKind) {
	modifiers := ex.modifiers(node)
	decl := childByKind(node, "variable_declaration")
	if decl == nil {
		return
	}

	for _, declarator := range childrenByKind(decl, "variable_declarator") {
		nameNode := declName(declarator)
		if nameNode == nil {
			continue
		}

		name := nodeText(nameNode, ex.content)
		ex.addSymbol(&rawSymbol{
			symbol: types.Symbol{
				Name:           name,
				FullName:       ex.qualify(name),
				Kind:           kind,
				Namespace:      ex.namespace,
				ContainingType: ex.containingType(),
				Accessibility:  accessibilityOf(modifiers),
				Modifiers: types.Modifiers{
					IsStatic: hasModifier(modifiers, "static"),
				},
				Locations:     []types.Location{nodeLocation(nameNode, ex.path)},
				Documentation: ex.docComment(node),
			},
			bodyStart: node.StartByte(),
			bodyEnd:   node.EndByte(),
		})
	}
}

// extractCalls records invocation and object-creation sites inside a
// member body. Nested local functions and lambdas are attributed to the
// enclosing member.
func (ex *extractor) extractCalls(body *sitter.Node, caller int) {
	walk(body, func(node *sitter.Node) bool {
		switch node.Kind() {
		case "invocation_expression":
			ex.extractInvocation(node, caller)
		case "object_creation_expression", "implicit_object_creation_expression":
			ex.extractCreation(node, caller)
		}
		return true
	})
}

func (ex *extractor) extractInvocation(node *sitter.Node, caller int) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var callee, receiver string
	switch fn.Kind() {
	case "identifier", "generic_name":
		callee = stripGenerics(nodeText(fn, ex.content))
	case "member_access_expression":
		nameNode := fn.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		callee = stripGenerics(nodeText(nameNode, ex.content))
		if expr := fn.ChildByFieldName("expression"); expr != nil {
			receiver = nodeText(expr, ex.content)
		}
	default:
		return
	}

	if callee == "" {
		return
	}

	ex.out.calls = append(ex.out.calls, rawCall{
		callee:   callee,
		receiver: receiver,
		caller:   caller,
		location: nodeLocation(node, ex.path),
	})
}

func (ex *extractor) extractCreation(node *sitter.Node, caller int) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}

	name := stripGenerics(lastSegment(nodeText(typeNode, ex.content)))
	if name == "" {
		return
	}

	ex.out.calls = append(ex.out.calls, rawCall{
		callee:   name,
		caller:   caller,
		location: nodeLocation(node, ex.path),
		creation: true,
	})
}

// addSymbol appends a raw symbol and returns its index.
func (ex *extractor) addSymbol(raw *rawSymbol) int {
	ex.out.symbols = append(ex.out.symbols, raw)
	return len(ex.out.symbols) - 1
}

// qualify builds the dotted full name for a declaration in the current
// namespace and type context.
func (ex *extractor) qualify(name string) string {
	parts := make([]string, 0, len(ex.typeStack)+2)
	if ex.namespace != "" {
		parts = append(parts, ex.namespace)
	}
	parts = append(parts, ex.typeStack...)
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

// containingType returns the dotted name of the immediately enclosing
// type, or empty at namespace level.
func (ex *extractor) containingType() string {
	if len(ex.typeStack) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ex.typeStack)+1)
	if ex.namespace != "" {
		parts = append(parts, ex.namespace)
	}
	parts = append(parts, ex.typeStack...)
	return strings.Join(parts, ".")
}

// modifiers collects the modifier keywords on a declaration.
func (ex *extractor) modifiers(node *sitter.Node) []string {
	var out []string

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		if child.Kind() == "modifier" {
			for j := uint(0); j < child.ChildCount(); j++ {
				if mod := child.Child(j); mod != nil {
					out = append(out, nodeText(mod, ex.content))
				}
			}
		}
	}

	return out
}

// baseNames returns the simple names listed in a type's base_list.
func (ex *extractor) baseNames(node *sitter.Node) []string {
	baseList := childByKind(node, "base_list")
	if baseList == nil {
		return nil
	}

	var names []string
	for i := uint(0); i < baseList.ChildCount(); i++ {
		child := baseList.Child(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "identifier", "qualified_name", "generic_name":
			name := stripGenerics(lastSegment(nodeText(child, ex.content)))
			if name != "" {
				names = append(names, name)
			}
		}
	}

	return names
}

// methodSignature renders name, type parameters, parameters and return
// type of a method declaration.
func (ex *extractor) methodSignature(node *sitter.Node) string {
	var signature strings.Builder

	if nameNode := declName(node); nameNode != nil {
		signature.WriteString(nodeText(nameNode, ex.content))
	}

	if typeParams := childByKind(node, "type_parameter_list"); typeParams != nil {
		signature.WriteString(nodeText(typeParams, ex.content))
	}

	if params := childByKind(node, "parameter_list"); params != nil {
		signature.WriteString(nodeText(params, ex.content))
	} else {
		signature.WriteString("()")
	}

	if returnType := ex.returnType(node); returnType != "" {
		signature.WriteString(" : ")
		signature.WriteString(returnType)
	}

	return signature.String()
}

// returnType extracts the return type of a method declaration.
// Constructors have no return-type field and yield an empty string.
func (ex *extractor) returnType(node *sitter.Node) string {
	typeNode := node.ChildByFieldName("returns")
	if typeNode == nil {
		typeNode = node.ChildByFieldName("type")
	}
	if typeNode == nil {
		return ""
	}
	return nodeText(typeNode, ex.content)
}

// docComment gathers the run of /// comment lines immediately above a
// declaration.
func (ex *extractor) docComment(node *sitter.Node) string {
	var lines []string

	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.Kind() != "comment" {
			break
		}
		text := nodeText(prev, ex.content)
		if !strings.HasPrefix(text, "///") {
			break
		}
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(text, "///")))
	}

	if len(lines) == 0 {
		return ""
	}

	// Siblings were visited bottom-up.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

// accessibilityOf maps modifier keywords to an accessibility level.
// C# members without an access modifier are private.
func accessibilityOf(modifiers []string) types.Accessibility {
	hasProtected := hasModifier(modifiers, "protected")
	hasInternal := hasModifier(modifiers, "internal")
	hasPrivate := hasModifier(modifiers, "private")

	switch {
	case hasModifier(modifiers, "public"):
		return types.AccessibilityPublic
	case hasProtected && hasInternal:
		return types.AccessibilityProtectedInternal
	case hasPrivate && hasProtected:
		return types.AccessibilityPrivateProtected
	case hasProtected:
		return types.AccessibilityProtected
	case hasInternal:
		return types.AccessibilityInternal
	default:
		return types.AccessibilityPrivate
	}
}

func hasModifier(modifiers []string, want string) bool {
	for _, m := range modifiers {
		if m == want {
			return true
		}
	}
	return false
}

// stripGenerics removes a trailing type-argument list from a name.
func stripGenerics(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		return name[:i]
	}
	return name
}

// lastSegment returns the final dotted segment of a qualified name.
func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// firstLine truncates text at its first newline for diagnostics.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 60 {
		text = text[:60]
	}
	return strings.TrimSpace(text)
}
