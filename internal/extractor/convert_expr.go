package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"docsync/internal/document"
	"docsync/internal/syntax"
)

var literalKinds = map[string]syntax.LiteralKind{
	"string":          syntax.LitString,
	"encapsed_string": syntax.LitString,
	"heredoc":         syntax.LitString,
	"nowdoc":          syntax.LitString,
	"integer":         syntax.LitInt,
	"float":           syntax.LitFloat,
	"boolean":         syntax.LitBool,
	"null":            syntax.LitNull,
}

func (c *converter) exprs(nodes []*sitter.Node) []syntax.Expr {
	out := make([]syntax.Expr, 0, len(nodes))
	for _, n := range nodes {
		if e := c.expr(n); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (c *converter) args(n *sitter.Node) []syntax.Expr {
	if n == nil {
		return nil
	}
	var out []syntax.Expr
	for _, arg := range operands(n) {
		if arg.Type() == "variadic_placeholder" {
			continue
		}
		out = append(out, c.expr(arg))
	}
	return out
}

func (c *converter) expr(n *sitter.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	if n.IsMissing() {
		c.recordError(n)
		return &syntax.Invalid{Base: c.base(n)}
	}
	if kind, ok := literalKinds[n.Type()]; ok {
		return &syntax.Literal{Base: c.base(n), Kind: kind, Value: c.text(n)}
	}

	switch n.Type() {
	case "ERROR":
		c.recordError(n)
		return &syntax.Invalid{Base: c.base(n), Text: c.text(n)}

	case "parenthesized_expression", "argument":
		ops := operands(n)
		if len(ops) == 0 {
			return &syntax.Invalid{Base: c.base(n), Text: c.text(n)}
		}
		// Named arguments put the name first, the value last.
		return c.expr(ops[len(ops)-1])

	case "variable_name":
		return &syntax.Variable{Base: c.base(n), Name: c.text(n)}

	case "name", "qualified_name":
		text := strings.TrimPrefix(c.text(n), `\`)
		switch strings.ToLower(text) {
		case "true", "false":
			return &syntax.Literal{Base: c.base(n), Kind: syntax.LitBool, Value: text}
		case "null":
			return &syntax.Literal{Base: c.base(n), Kind: syntax.LitNull, Value: text}
		}
		return &syntax.Name{Base: c.base(n), Value: text}

	case "array_creation_expression":
		return c.arrayLit(n)

	case "assignment_expression", "reference_assignment_expression":
		return &syntax.Assign{
			Base:   c.base(n),
			Target: c.expr(n.ChildByFieldName("left")),
			Op:     "=",
			Value:  c.expr(n.ChildByFieldName("right")),
		}

	case "augmented_assignment_expression":
		return &syntax.Assign{
			Base:   c.base(n),
			Target: c.expr(n.ChildByFieldName("left")),
			Op:     c.operator(n),
			Value:  c.expr(n.ChildByFieldName("right")),
		}

	case "binary_expression":
		return &syntax.Binary{
			Base:  c.base(n),
			Op:    strings.ToLower(c.operator(n)),
			Left:  c.expr(n.ChildByFieldName("left")),
			Right: c.expr(n.ChildByFieldName("right")),
		}

	case "unary_op_expression":
		return &syntax.Unary{Base: c.base(n), Op: c.operator(n), Operand: c.expr(firstOperand(n))}

	case "conditional_expression":
		ternary := &syntax.Ternary{
			Base: c.base(n),
			Cond: c.expr(n.ChildByFieldName("condition")),
			Else: c.expr(n.ChildByFieldName("alternative")),
		}
		if then := n.ChildByFieldName("body"); then != nil {
			ternary.Then = c.expr(then)
		}
		return ternary

	case "cast_expression":
		typ := strings.Trim(c.text(n.ChildByFieldName("type")), "() \t")
		value := n.ChildByFieldName("value")
		if value == nil {
			if ops := operands(n); len(ops) > 0 {
				value = ops[len(ops)-1]
			}
		}
		return &syntax.Cast{Base: c.base(n), Type: strings.ToLower(typ), Operand: c.expr(value)}

	case "object_creation_expression":
		return c.newExpr(n)

	case "function_call_expression":
		call := &syntax.Call{Base: c.base(n), Args: c.args(n.ChildByFieldName("arguments"))}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			fn = firstOperand(n)
		}
		if fn == nil {
			return call
		}
		switch fn.Type() {
		case "name", "qualified_name":
			call.Name = strings.TrimPrefix(c.text(fn), `\`)
		default:
			call.Callee = c.expr(fn)
		}
		return call

	case "member_call_expression", "nullsafe_member_call_expression":
		name := n.ChildByFieldName("name")
		return &syntax.MethodCall{
			Base:      c.base(n),
			Object:    c.expr(n.ChildByFieldName("object")),
			Name:      c.text(name),
			NameRange: c.nameSpan(name, n),
			Args:      c.args(n.ChildByFieldName("arguments")),
			NullSafe:  n.Type() == "nullsafe_member_call_expression",
		}

	case "scoped_call_expression":
		name := n.ChildByFieldName("name")
		return &syntax.StaticCall{
			Base:      c.base(n),
			Scope:     strings.TrimPrefix(c.text(n.ChildByFieldName("scope")), `\`),
			Name:      c.text(name),
			NameRange: c.nameSpan(name, n),
			Args:      c.args(n.ChildByFieldName("arguments")),
		}

	case "member_access_expression", "nullsafe_member_access_expression":
		return &syntax.PropertyFetch{
			Base:   c.base(n),
			Object: c.expr(n.ChildByFieldName("object")),
			Name:   c.text(n.ChildByFieldName("name")),
		}

	case "class_constant_access_expression":
		ops := operands(n)
		if len(ops) < 2 {
			return &syntax.Unknown{Base: c.base(n), Kind: n.Type()}
		}
		return &syntax.ClassConst{
			Base:  c.base(n),
			Scope: strings.TrimPrefix(c.text(ops[0]), `\`),
			Name:  c.text(ops[len(ops)-1]),
		}

	case "anonymous_function_creation_expression", "anonymous_function", "arrow_function":
		return c.closure(n)

	case "yield_expression":
		yield := &syntax.Yield{Base: c.base(n)}
		if value := firstOperand(n); value != nil {
			yield.Value = c.expr(value)
		}
		return yield
	}

	return &syntax.Unknown{Base: c.base(n), Kind: n.Type(), Children: c.exprs(operands(n))}
}

func (c *converter) nameSpan(name, fallback *sitter.Node) document.Span {
	if name == nil {
		return c.span(fallback)
	}
	return c.span(name)
}

func (c *converter) arrayLit(n *sitter.Node) *syntax.ArrayLit {
	lit := &syntax.ArrayLit{Base: c.base(n)}
	for _, init := range operands(n) {
		if init.Type() != "array_element_initializer" {
			continue
		}
		element := &syntax.ArrayElement{Base: c.base(init)}
		ops := operands(init)
		switch {
		case len(ops) == 0:
			continue
		case len(ops) == 1 && ops[0].Type() == "variadic_unpacking":
			element.Spread = true
			element.Value = c.expr(firstOperand(ops[0]))
		case c.hasToken(init, "..."):
			element.Spread = true
			element.Value = c.expr(ops[len(ops)-1])
		case c.hasToken(init, "=>") && len(ops) >= 2:
			element.Key = c.expr(ops[0])
			element.Value = c.expr(ops[len(ops)-1])
		default:
			element.Value = c.expr(ops[0])
		}
		lit.Elements = append(lit.Elements, element)
	}
	return lit
}

func (c *converter) newExpr(n *sitter.Node) *syntax.New {
	expr := &syntax.New{Base: c.base(n)}

	if anon := childOfType(n, "anonymous_class"); anon != nil {
		expr.Anonymous = c.class(anon, syntax.KindAnonymous)
		expr.Args = c.args(childOfType(anon, "arguments"))
		return expr
	}
	if childOfType(n, "declaration_list") != nil {
		expr.Anonymous = c.class(n, syntax.KindAnonymous)
		expr.Args = c.args(childOfType(n, "arguments"))
		return expr
	}

	for _, child := range operands(n) {
		switch child.Type() {
		case "arguments":
			expr.Args = c.args(child)
		case "name", "qualified_name", "relative_scope":
			expr.Class = strings.TrimPrefix(c.text(child), `\`)
		default:
			if expr.Class == "" {
				expr.Class = c.text(child)
			}
		}
	}
	return expr
}

func (c *converter) closure(n *sitter.Node) *syntax.Closure {
	closure := &syntax.Closure{
		Base:       c.base(n),
		Arrow:      n.Type() == "arrow_function",
		Static:     childOfType(n, "static_modifier") != nil || strings.HasPrefix(c.text(n), "static"),
		Params:     c.params(n.ChildByFieldName("parameters")),
		ReturnType: c.typeHint(n.ChildByFieldName("return_type")),
	}
	if closure.Params == nil {
		closure.Params = c.params(childOfType(n, "formal_parameters"))
	}
	if uses := childOfType(n, "anonymous_function_use_clause"); uses != nil {
		for _, v := range namedChildren(uses) {
			if name := c.text(childOrSelf(v, "variable_name")); name != "" {
				closure.Uses = append(closure.Uses, name)
			}
		}
	}

	body := n.ChildByFieldName("body")
	if closure.Arrow {
		if body == nil {
			if ops := operands(n); len(ops) > 0 {
				body = ops[len(ops)-1]
			}
		}
		closure.Result = c.expr(body)
		return closure
	}
	if body == nil {
		body = childOfType(n, "compound_statement")
	}
	closure.Body = c.block(body)
	return closure
}

func childOrSelf(n *sitter.Node, kind string) *sitter.Node {
	if n.Type() == kind {
		return n
	}
	return childOfType(n, kind)
}
