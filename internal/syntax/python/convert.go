package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kailas-cloud/codegrade/internal/syntax"
)

// Tree-sitter node types mapped one-to-one onto a kind whose children are the
// converted named children.
var directKinds = map[string]syntax.Kind{
	"return_statement":         syntax.Return,
	"delete_statement":         syntax.Delete,
	"raise_statement":          syntax.Raise,
	"assert_statement":         syntax.Assert,
	"pass_statement":           syntax.Pass,
	"break_statement":          syntax.Break,
	"continue_statement":       syntax.Continue,
	"while_statement":          syntax.While,
	"match_statement":          syntax.Match,
	"case_clause":              syntax.MatchCase,
	"except_clause":            syntax.ExceptHandler,
	"except_group_clause":      syntax.ExceptHandler,
	"with_item":                syntax.WithItem,
	"conditional_expression":   syntax.IfExp,
	"named_expression":         syntax.NamedExpr,
	"await":                    syntax.Await,
	"list":                     syntax.List,
	"list_pattern":             syntax.List,
	"set":                      syntax.Set,
	"tuple":                    syntax.Tuple,
	"tuple_pattern":            syntax.Tuple,
	"expression_list":          syntax.Tuple,
	"pattern_list":             syntax.Tuple,
	"dictionary":               syntax.Dict,
	"list_comprehension":       syntax.ListComp,
	"set_comprehension":        syntax.SetComp,
	"dictionary_comprehension": syntax.DictComp,
	"generator_expression":     syntax.GeneratorExp,
	"for_in_clause":            syntax.Comprehension,
	"list_splat":               syntax.Starred,
	"list_splat_pattern":       syntax.Starred,
	"slice":                    syntax.Slice,
	"subscript":                syntax.Subscript,
}

var constantTypes = map[string]bool{
	"integer":  true,
	"float":    true,
	"true":     true,
	"false":    true,
	"none":     true,
	"ellipsis": true,
}

var binaryOps = map[string]syntax.Kind{
	"+":  syntax.Add,
	"-":  syntax.Sub,
	"*":  syntax.Mult,
	"@":  syntax.MatMult,
	"/":  syntax.Div,
	"%":  syntax.Mod,
	"**": syntax.Pow,
	"<<": syntax.LShift,
	">>": syntax.RShift,
	"|":  syntax.BitOr,
	"^":  syntax.BitXor,
	"&":  syntax.BitAnd,
	"//": syntax.FloorDiv,
}

var unaryOps = map[string]syntax.Kind{
	"-": syntax.USub,
	"+": syntax.UAdd,
	"~": syntax.Invert,
}

var compareOps = map[string]syntax.Kind{
	"==":     syntax.Eq,
	"!=":     syntax.NotEq,
	"<>":     syntax.NotEq,
	"<":      syntax.Lt,
	"<=":     syntax.LtE,
	">":      syntax.Gt,
	">=":     syntax.GtE,
	"is":     syntax.Is,
	"is not": syntax.IsNot,
	"in":     syntax.In,
	"not in": syntax.NotIn,
}

// converter lowers the tree-sitter concrete tree into syntax nodes. Wrapper
// nodes with no counterpart in the kind vocabulary (blocks, parentheses,
// clauses) are transparent: their children are spliced into the parent.
type converter struct {
	src []byte
}

func (c *converter) module(root *sitter.Node) *syntax.Node {
	return c.build(syntax.Module, root, c.children(root)...)
}

func (c *converter) build(kind syntax.Kind, n *sitter.Node, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: kind, Span: spanOf(n), Children: children}
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

// children converts every named child of n.
func (c *converter) children(n *sitter.Node) []*syntax.Node {
	var out []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, c.convert(n.NamedChild(i))...)
	}
	return out
}

func (c *converter) field(n *sitter.Node, name string) []*syntax.Node {
	child := n.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return c.convert(child)
}

//nolint:gocyclo // flat dispatch over the grammar
func (c *converter) convert(n *sitter.Node) []*syntax.Node {
	if n == nil {
		return nil
	}
	typ := n.Type()

	if kind, ok := directKinds[typ]; ok {
		return one(c.build(kind, n, c.children(n)...))
	}
	if constantTypes[typ] {
		return one(&syntax.Node{Kind: syntax.Constant, Value: c.text(n), Span: spanOf(n)})
	}

	switch typ {
	case "comment", "line_continuation", "keyword_separator", "positional_separator":
		return nil
	case "identifier":
		return one(&syntax.Node{Kind: syntax.Name, Value: c.text(n), Span: spanOf(n)})
	case "function_definition":
		return one(c.functionDef(n))
	case "decorated_definition":
		return one(c.decorated(n))
	case "class_definition":
		return one(c.classDef(n))
	case "parameters", "lambda_parameters":
		return one(c.arguments(n))
	case "global_statement", "nonlocal_statement":
		return one(c.scopeStatement(n))
	case "expression_statement":
		return c.expressionStatement(n)
	case "assignment":
		return one(c.assignment(n))
	case "augmented_assignment":
		return one(c.augAssignment(n))
	case "if_statement":
		return one(c.ifStatement(n))
	case "for_statement":
		return one(c.forStatement(n))
	case "try_statement":
		return one(c.tryStatement(n))
	case "with_statement":
		kind := syntax.With
		if hasToken(n, "async") {
			kind = syntax.AsyncWith
		}
		return one(c.build(kind, n, c.children(n)...))
	case "import_statement":
		return one(c.importStatement(n))
	case "import_from_statement":
		return one(c.importFrom(n))
	case "future_import_statement":
		return one(c.futureImport(n))
	case "attribute":
		node := c.build(syntax.Attribute, n, c.field(n, "object")...)
		node.Value = c.text(n.ChildByFieldName("attribute"))
		return one(node)
	case "call":
		return one(c.call(n))
	case "argument_list":
		return c.argumentList(n)
	case "keyword_argument":
		node := c.build(syntax.Keyword, n, c.field(n, "value")...)
		node.Name = c.text(n.ChildByFieldName("name"))
		return one(node)
	case "binary_operator":
		return one(c.binaryOperator(n))
	case "unary_operator":
		return one(c.unaryOperator(n))
	case "not_operator":
		op := &syntax.Node{Kind: syntax.Not, Span: spanOf(n)}
		return one(c.build(syntax.UnaryOp, n, append([]*syntax.Node{op}, c.field(n, "argument")...)...))
	case "boolean_operator":
		return one(c.booleanOperator(n))
	case "comparison_operator":
		return one(c.comparison(n))
	case "lambda":
		return one(c.lambda(n))
	case "yield":
		kind := syntax.Yield
		if hasToken(n, "from") {
			kind = syntax.YieldFrom
		}
		return one(c.build(kind, n, c.children(n)...))
	case "string":
		return one(c.stringLiteral(n))
	case "concatenated_string":
		return one(c.concatenatedString(n))
	case "interpolation":
		return one(c.build(syntax.FormattedValue, n, c.children(n)...))
	default:
		// Transparent wrapper: block, parenthesized_expression, pair,
		// else_clause, if_clause, decorator, type, patterns...
		return c.children(n)
	}
}

func (c *converter) functionDef(n *sitter.Node) *syntax.Node {
	kind := syntax.FunctionDef
	if hasToken(n, "async") {
		kind = syntax.AsyncFunctionDef
	}

	var args *syntax.Node
	if params := n.ChildByFieldName("parameters"); params != nil {
		args = c.arguments(params)
	} else {
		args = &syntax.Node{Kind: syntax.Arguments, Span: spanOf(n)}
	}

	children := []*syntax.Node{args}
	children = append(children, c.field(n, "body")...)
	children = append(children, c.field(n, "return_type")...)

	node := c.build(kind, n, children...)
	node.Name = c.text(n.ChildByFieldName("name"))
	return node
}

// decorated folds decorator expressions into the decorated definition, the
// way Python keeps them in decorator_list.
func (c *converter) decorated(n *sitter.Node) *syntax.Node {
	def := n.ChildByFieldName("definition")
	if def == nil {
		return c.build(syntax.Expr, n, c.children(n)...)
	}
	converted := c.convert(def)
	if len(converted) != 1 {
		return c.build(syntax.Expr, n, converted...)
	}
	node := converted[0]

	var decorators []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, c.children(child)...)
		}
	}
	node.Children = append(node.Children, decorators...)
	node.Span = spanOf(n)
	return node
}

func (c *converter) classDef(n *sitter.Node) *syntax.Node {
	var children []*syntax.Node
	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		children = append(children, c.argumentList(bases)...)
	}
	children = append(children, c.field(n, "body")...)

	node := c.build(syntax.ClassDef, n, children...)
	node.Name = c.text(n.ChildByFieldName("name"))
	return node
}

func (c *converter) arguments(n *sitter.Node) *syntax.Node {
	args := c.build(syntax.Arguments, n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
			args.Children = append(args.Children, c.arg(p, nil))
		case "typed_parameter":
			args.Children = append(args.Children, c.arg(p, p.ChildByFieldName("type")))
		case "default_parameter", "typed_default_parameter":
			args.Children = append(args.Children, c.arg(p, p.ChildByFieldName("type")))
			args.Children = append(args.Children, c.field(p, "value")...)
		default:
			args.Children = append(args.Children, c.convert(p)...)
		}
	}
	return args
}

func (c *converter) arg(p *sitter.Node, annotation *sitter.Node) *syntax.Node {
	node := &syntax.Node{Kind: syntax.Arg, Name: paramName(p, c.src), Span: spanOf(p)}
	if annotation != nil {
		node.Children = c.convert(annotation)
	}
	return node
}

// paramName finds the identifier a parameter binds.
func paramName(p *sitter.Node, src []byte) string {
	if p.Type() == "identifier" {
		return p.Content(src)
	}
	if name := p.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	for i := 0; i < int(p.NamedChildCount()); i++ {
		child := p.NamedChild(i)
		switch child.Type() {
		case "identifier":
			return child.Content(src)
		case "list_splat_pattern", "dictionary_splat_pattern":
			return paramName(child, src)
		}
	}
	return ""
}

func (c *converter) scopeStatement(n *sitter.Node) *syntax.Node {
	kind := syntax.Global
	if n.Type() == "nonlocal_statement" {
		kind = syntax.Nonlocal
	}
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		names = append(names, c.text(n.NamedChild(i)))
	}
	node := c.build(kind, n)
	node.Value = strings.Join(names, ",")
	return node
}

func (c *converter) expressionStatement(n *sitter.Node) []*syntax.Node {
	if n.NamedChildCount() == 1 {
		switch n.NamedChild(0).Type() {
		case "assignment", "augmented_assignment":
			return c.convert(n.NamedChild(0))
		}
	}
	values := c.children(n)
	if len(values) > 1 {
		values = one(c.build(syntax.Tuple, n, values...))
	}
	return one(c.build(syntax.Expr, n, values...))
}

// assignment flattens chained targets (a = b = 1) into one Assign.
func (c *converter) assignment(n *sitter.Node) *syntax.Node {
	if annotation := n.ChildByFieldName("type"); annotation != nil {
		children := c.field(n, "left")
		children = append(children, c.convert(annotation)...)
		children = append(children, c.field(n, "right")...)
		return c.build(syntax.AnnAssign, n, children...)
	}

	children := c.field(n, "left")
	right := n.ChildByFieldName("right")
	for right != nil && right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
		children = append(children, c.field(right, "left")...)
		right = right.ChildByFieldName("right")
	}
	children = append(children, c.convert(right)...)
	return c.build(syntax.Assign, n, children...)
}

func (c *converter) augAssignment(n *sitter.Node) *syntax.Node {
	children := c.field(n, "left")
	if op := n.ChildByFieldName("operator"); op != nil {
		if kind, ok := binaryOps[strings.TrimSuffix(op.Type(), "=")]; ok {
			children = append(children, &syntax.Node{Kind: kind, Span: spanOf(op)})
		}
	}
	children = append(children, c.field(n, "right")...)
	return c.build(syntax.AugAssign, n, children...)
}

// ifStatement nests elif clauses as If nodes in the orelse branch of the
// previous test, mirroring Python's own tree.
func (c *converter) ifStatement(n *sitter.Node) *syntax.Node {
	children := c.field(n, "condition")
	children = append(children, c.field(n, "consequence")...)
	root := c.build(syntax.If, n, children...)

	cur := root
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			elifChildren := c.field(child, "condition")
			elifChildren = append(elifChildren, c.field(child, "consequence")...)
			elif := c.build(syntax.If, child, elifChildren...)
			cur.Children = append(cur.Children, elif)
			cur = elif
		case "else_clause":
			cur.Children = append(cur.Children, c.children(child)...)
		}
	}
	return root
}

func (c *converter) forStatement(n *sitter.Node) *syntax.Node {
	kind := syntax.For
	if hasToken(n, "async") {
		kind = syntax.AsyncFor
	}
	children := c.field(n, "left")
	children = append(children, c.field(n, "right")...)
	children = append(children, c.field(n, "body")...)
	children = append(children, c.field(n, "alternative")...)
	return c.build(kind, n, children...)
}

func (c *converter) tryStatement(n *sitter.Node) *syntax.Node {
	return c.build(syntax.Try, n, c.children(n)...)
}

func (c *converter) importStatement(n *sitter.Node) *syntax.Node {
	node := c.build(syntax.Import, n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		node.Children = append(node.Children, c.alias(n.NamedChild(i)))
	}
	return node
}

func (c *converter) importFrom(n *sitter.Node) *syntax.Node {
	node := c.build(syntax.ImportFrom, n)
	module := n.ChildByFieldName("module_name")
	node.Name = c.text(module)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if module != nil && child.StartByte() == module.StartByte() && child.Type() == module.Type() {
			continue
		}
		node.Children = append(node.Children, c.alias(child))
	}
	return node
}

func (c *converter) futureImport(n *sitter.Node) *syntax.Node {
	node := c.build(syntax.ImportFrom, n)
	node.Name = "__future__"
	for i := 0; i < int(n.NamedChildCount()); i++ {
		node.Children = append(node.Children, c.alias(n.NamedChild(i)))
	}
	return node
}

func (c *converter) alias(n *sitter.Node) *syntax.Node {
	node := &syntax.Node{Kind: syntax.Alias, Span: spanOf(n)}
	switch n.Type() {
	case "aliased_import":
		node.Name = c.text(n.ChildByFieldName("name"))
		node.Value = c.text(n.ChildByFieldName("alias"))
	case "wildcard_import":
		node.Name = "*"
	default:
		node.Name = c.text(n)
	}
	return node
}

func (c *converter) call(n *sitter.Node) *syntax.Node {
	children := c.field(n, "function")
	children = append(children, c.field(n, "arguments")...)
	return c.build(syntax.Call, n, children...)
}

// argumentList converts call arguments and class bases; ** splats become
// unnamed keywords as in Python.
func (c *converter) argumentList(n *sitter.Node) []*syntax.Node {
	var out []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "dictionary_splat" {
			out = append(out, c.build(syntax.Keyword, child, c.children(child)...))
			continue
		}
		out = append(out, c.convert(child)...)
	}
	return out
}

func (c *converter) binaryOperator(n *sitter.Node) *syntax.Node {
	children := c.field(n, "left")
	if op := n.ChildByFieldName("operator"); op != nil {
		if kind, ok := binaryOps[op.Type()]; ok {
			children = append(children, &syntax.Node{Kind: kind, Span: spanOf(op)})
		}
	}
	children = append(children, c.field(n, "right")...)
	return c.build(syntax.BinOp, n, children...)
}

func (c *converter) unaryOperator(n *sitter.Node) *syntax.Node {
	var children []*syntax.Node
	if op := n.ChildByFieldName("operator"); op != nil {
		if kind, ok := unaryOps[op.Type()]; ok {
			children = append(children, &syntax.Node{Kind: kind, Span: spanOf(op)})
		}
	}
	children = append(children, c.field(n, "argument")...)
	return c.build(syntax.UnaryOp, n, children...)
}

// booleanOperator flattens left-nested chains of the same operator into one
// BoolOp (a and b and c).
func (c *converter) booleanOperator(n *sitter.Node) *syntax.Node {
	op := n.ChildByFieldName("operator")
	opType := ""
	if op != nil {
		opType = op.Type()
	}
	kind := syntax.And
	if opType == "or" {
		kind = syntax.Or
	}

	var values []*syntax.Node
	var collect func(m *sitter.Node)
	collect = func(m *sitter.Node) {
		left := m.ChildByFieldName("left")
		if left != nil && left.Type() == "boolean_operator" {
			if lop := left.ChildByFieldName("operator"); lop != nil && lop.Type() == opType {
				collect(left)
			} else {
				values = append(values, c.convert(left)...)
			}
		} else {
			values = append(values, c.convert(left)...)
		}
		values = append(values, c.field(m, "right")...)
	}
	collect(n)

	opSpan := spanOf(n)
	if op != nil {
		opSpan = spanOf(op)
	}
	children := append([]*syntax.Node{{Kind: kind, Span: opSpan}}, values...)
	return c.build(syntax.BoolOp, n, children...)
}

func (c *converter) comparison(n *sitter.Node) *syntax.Node {
	node := c.build(syntax.Compare, n)
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child.IsNamed() {
			node.Children = append(node.Children, c.convert(child)...)
			continue
		}

		tok := child.Type()
		// Older grammars emit "not in" / "is not" as two tokens.
		if i+1 < count && !n.Child(i+1).IsNamed() {
			next := n.Child(i + 1).Type()
			if (tok == "not" && next == "in") || (tok == "is" && next == "not") {
				tok = tok + " " + next
				i++
			}
		}
		if kind, ok := compareOps[tok]; ok {
			node.Children = append(node.Children, &syntax.Node{Kind: kind, Span: spanOf(child)})
		}
	}
	return node
}

func (c *converter) lambda(n *sitter.Node) *syntax.Node {
	var args *syntax.Node
	if params := n.ChildByFieldName("parameters"); params != nil {
		args = c.arguments(params)
	} else {
		args = &syntax.Node{Kind: syntax.Arguments, Span: spanOf(n)}
	}
	return c.build(syntax.Lambda, n, append([]*syntax.Node{args}, c.field(n, "body")...)...)
}

// stringLiteral yields a Constant holding the literal's content without
// prefix or quotes, or a JoinedStr for f-strings with interpolations.
func (c *converter) stringLiteral(n *sitter.Node) *syntax.Node {
	var parts []*syntax.Node
	var content strings.Builder
	hasContent := false
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "interpolation":
			parts = append(parts, c.convert(child)...)
		case "string_content":
			hasContent = true
			content.WriteString(c.text(child))
			parts = append(parts, &syntax.Node{Kind: syntax.Constant, Value: c.text(child), Span: spanOf(child)})
		}
	}

	if hasInterpolation(parts) {
		return c.build(syntax.JoinedStr, n, parts...)
	}

	value := content.String()
	if !hasContent {
		value = trimQuotes(c.text(n))
	}
	return &syntax.Node{Kind: syntax.Constant, Value: value, Span: spanOf(n)}
}

func (c *converter) concatenatedString(n *sitter.Node) *syntax.Node {
	var pieces []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		pieces = append(pieces, c.convert(n.NamedChild(i))...)
	}

	for _, p := range pieces {
		if p.Kind == syntax.JoinedStr {
			var flat []*syntax.Node
			for _, q := range pieces {
				if q.Kind == syntax.JoinedStr {
					flat = append(flat, q.Children...)
				} else {
					flat = append(flat, q)
				}
			}
			return c.build(syntax.JoinedStr, n, flat...)
		}
	}

	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.Value)
	}
	return &syntax.Node{Kind: syntax.Constant, Value: b.String(), Span: spanOf(n)}
}

func hasInterpolation(parts []*syntax.Node) bool {
	for _, p := range parts {
		if p.Kind == syntax.FormattedValue {
			return true
		}
	}
	return false
}

// trimQuotes strips a string prefix (r, b, u, f...) and the surrounding quotes.
func trimQuotes(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// hasToken reports whether n has a direct anonymous child token typ.
func hasToken(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && child.Type() == typ {
			return true
		}
	}
	return false
}

func spanOf(n *sitter.Node) syntax.Span {
	start, end := n.StartPoint(), n.EndPoint()
	return syntax.Span{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column),
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column),
	}
}

func one(n *syntax.Node) []*syntax.Node {
	return []*syntax.Node{n}
}
