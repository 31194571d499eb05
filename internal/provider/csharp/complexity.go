package csharp

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// branchOperators are the binary operators that add an execution path:
// short-circuit logic and null-coalescing.
var branchOperators = map[string]struct{}{
	"&&": {},
	"||": {},
	"??": {},
}

// bodyComplexity computes the McCabe cyclomatic complexity of a member
// body: 1 plus one per decision point found in the syntax tree. A switch
// is not a decision point itself, its labels and arms are; default
// labels and discard arms carry the fallthrough path and do not count.
func bodyComplexity(body *sitter.Node) int {
	if body == nil {
		return 0
	}

	complexity := 1
	walk(body, func(node *sitter.Node) bool {
		switch node.Kind() {
		case "if_statement", "conditional_expression":
			complexity++

		case "for_statement", "for_each_statement", "foreach_statement",
			"while_statement", "do_statement":
			complexity++

		case "catch_clause":
			complexity++

		case "switch_section":
			complexity += caseLabelCount(node)

		case "switch_expression_arm":
			if pattern := node.Child(0); pattern == nil || pattern.Kind() != "discard" {
				complexity++
			}

		case "binary_expression":
			if op := node.ChildByFieldName("operator"); op != nil {
				if _, ok := branchOperators[op.Kind()]; ok {
					complexity++
				}
			}
		}
		return true
	})
	return complexity
}

// caseLabelCount counts the case labels of one switch section. Stacked
// labels ("case 1: case 2:") each add a path. The label nodes carry the
// keyword in current grammars; the token fallback covers sections that
// expose the keyword directly.
func caseLabelCount(section *sitter.Node) int {
	labels := 0
	tokens := 0
	for i := uint(0); i < section.ChildCount(); i++ {
		child := section.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "case_switch_label", "case_pattern_switch_label":
			labels++
		case "case":
			tokens++
		}
	}
	if labels > 0 {
		return labels
	}
	return tokens
}
