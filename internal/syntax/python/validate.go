package python

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kailas-cloud/codegrade/internal/syntax"
)

// The grammar recovers these without ERROR nodes, but the Python compiler
// rejects them, so they are checked after a clean parse.
const (
	msgExpectedIndent   = "expected an indented block"
	msgUnexpectedIndent = "unexpected indent"
	msgUnindent         = "unindent does not match any outer indentation level"
)

// compoundKinds own an indented suite.
var compoundKinds = map[string]bool{
	"function_definition": true,
	"class_definition":    true,
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"with_statement":      true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"match_statement":     true,
	"case_clause":         true,
}

// python2Statements are statement forms removed in Python 3.
var python2Statements = map[string]string{
	"print_statement": "print",
	"exec_statement":  "exec",
}

// validate returns the first structural error in document order, or nil.
func validate(root *sitter.Node) *syntax.ParseError {
	return check(root)
}

func check(n *sitter.Node) *syntax.ParseError {
	typ := n.Type()

	if kw, ok := python2Statements[typ]; ok {
		return errorAt(n.StartPoint(), fmt.Sprintf("Missing parentheses in call to '%s'", kw))
	}

	switch {
	case typ == "module":
		if perr := checkSuite(n, 0); perr != nil {
			return perr
		}
	case compoundKinds[typ]:
		if perr := checkSuiteOf(n); perr != nil {
			return perr
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if perr := check(n.NamedChild(i)); perr != nil {
			return perr
		}
	}
	return nil
}

// checkSuiteOf verifies the block owned by a compound statement or clause:
// it must hold a statement, and a body on its own line must be indented
// deeper than the header.
func checkSuiteOf(n *sitter.Node) *syntax.ParseError {
	block, colon := suiteBlock(n)
	headerRow := n.StartPoint().Row
	if colon != nil {
		headerRow = colon.StartPoint().Row
	}

	stmts := statements(block)
	if len(stmts) == 0 {
		return &syntax.ParseError{Line: int(headerRow) + 2, Column: 0, Message: msgExpectedIndent}
	}

	first := stmts[0].StartPoint()
	if first.Row == headerRow {
		// Simple statements on the header line: "if x: y = 1".
		return checkSuite(block, int(first.Column))
	}
	if first.Column <= n.StartPoint().Column {
		return errorAt(first, msgExpectedIndent)
	}
	return checkSuite(block, int(first.Column))
}

// checkSuite verifies that every statement starting on a new line in
// container sits at indent. A deeper statement right after a compound one
// is a dedent that matched no enclosing level.
func checkSuite(container *sitter.Node, indent int) *syntax.ParseError {
	stmts := statements(container)
	if len(stmts) == 0 {
		return nil
	}
	if container.Type() == "module" {
		if start := stmts[0].StartPoint(); int(start.Column) != 0 {
			return errorAt(start, msgUnexpectedIndent)
		}
	}

	prev := stmts[0]
	for _, s := range stmts[1:] {
		start := s.StartPoint()
		if start.Row > prev.EndPoint().Row {
			col := int(start.Column)
			switch {
			case col > indent && compoundKinds[prev.Type()]:
				return errorAt(start, msgUnindent)
			case col > indent:
				return errorAt(start, msgUnexpectedIndent)
			case col < indent:
				return errorAt(start, msgUnindent)
			}
		}
		prev = s
	}
	return nil
}

// suiteBlock returns the first block child of n and the header colon
// preceding it. Either may be nil.
func suiteBlock(n *sitter.Node) (block, colon *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case ":":
			colon = c
		case "block":
			return c, colon
		}
	}
	return nil, colon
}

// statements lists the named non-comment children of a module or block.
func statements(container *sitter.Node) []*sitter.Node {
	if container == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(container.NamedChildCount()); i++ {
		c := container.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func errorAt(p sitter.Point, msg string) *syntax.ParseError {
	return &syntax.ParseError{Line: int(p.Row) + 1, Column: int(p.Column), Message: msg}
}
