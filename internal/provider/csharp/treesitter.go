package csharp

import (
	"fmt"

	"github.com/codenav/codenav/internal/types"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
)

// newParser creates a tree-sitter parser configured for C#.
func newParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	language := sitter.NewLanguage(tree_sitter_csharp.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("configuring C# parser: %w", err)
	}
	return parser, nil
}

// nodeText returns the source text covered by node.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}

	start := node.StartByte()
	end := node.EndByte()

	if start > uint(len(content)) || end > uint(len(content)) || start > end {
		return ""
	}

	return string(content[start:end])
}

// nodeLocation converts a node's span to a 1-based source location.
func nodeLocation(node *sitter.Node, file string) types.Location {
	if node == nil {
		return types.Location{}
	}

	start := node.StartPosition()
	end := node.EndPosition()

	return types.Location{
		File:        file,
		StartLine:   int(start.Row) + 1, // tree-sitter rows are 0-based
		EndLine:     int(end.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndColumn:   int(end.Column) + 1,
	}
}

// childByKind finds the first direct child with the given node kind.
func childByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}

	return nil
}

// childrenByKind finds all direct children with the given node kind.
func childrenByKind(node *sitter.Node, kind string) []*sitter.Node {
	if node == nil {
		return nil
	}

	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}

	return out
}

// walk visits node and its descendants in document order. The visitor
// returns false to prune the subtree below the current node.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), visit)
	}
}
