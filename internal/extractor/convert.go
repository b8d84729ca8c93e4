package extractor

import (
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"docsync/internal/document"
	"docsync/internal/syntax"
)

// converter maps a tree-sitter PHP parse tree onto the syntax model. It relies on node text
// rather than grammar-version specific structure wherever the two disagree.
type converter struct {
	src       []byte
	out       *syntax.File
	namespace string
}

func newConverter(src []byte) *converter {
	return &converter{src: src, out: &syntax.File{}}
}

func (c *converter) file(root *sitter.Node) *syntax.File {
	c.out.Range = c.span(root)
	c.out.Body = &syntax.Block{Base: c.base(root), Stmts: c.stmts(root)}
	return c.out
}

func (c *converter) span(n *sitter.Node) document.Span {
	start, err := safecast.Conv[int](n.StartByte())
	if err != nil {
		return document.Span{}
	}
	end, err := safecast.Conv[int](n.EndByte())
	if err != nil {
		return document.Span{Start: start, End: start}
	}
	return document.Span{Start: start, End: end}
}

func (c *converter) base(n *sitter.Node) syntax.Base {
	return syntax.Base{Range: c.span(n)}
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := n.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// operands returns the named children that are not comments.
func operands(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(n) {
		if child.Type() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

func firstOperand(n *sitter.Node) *sitter.Node {
	if ops := operands(n); len(ops) > 0 {
		return ops[0]
	}
	return nil
}

func childOfType(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, child := range namedChildren(n) {
		for _, kind := range kinds {
			if child.Type() == kind {
				return child
			}
		}
	}
	return nil
}

// hasToken reports whether n has an anonymous child with the given text.
func (c *converter) hasToken(n *sitter.Node, token string) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && c.text(child) == token {
			return true
		}
	}
	return false
}

// operator returns the first anonymous child, which is the operator of unary and binary
// expressions.
func (c *converter) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return c.text(op)
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() {
			return c.text(child)
		}
	}
	return ""
}

func (c *converter) recordError(n *sitter.Node) {
	c.out.Errors = append(c.out.Errors, c.span(n))
}

// Statements

var declarationKinds = map[string]syntax.ClassKind{
	"class_declaration":     syntax.KindClass,
	"interface_declaration": syntax.KindInterface,
	"trait_declaration":     syntax.KindTrait,
	"enum_declaration":      syntax.KindEnum,
}

// nestedBodyKinds hold statements without being statements themselves.
var nestedBodyKinds = map[string]bool{
	"else_clause":    true,
	"else_if_clause": true,
	"catch_clause":   true,
	"finally_clause": true,
	"switch_block":   true,
	"colon_block":    true,
}

func isStatement(kind string) bool {
	if strings.HasSuffix(kind, "_statement") {
		return true
	}
	if _, ok := declarationKinds[kind]; ok {
		return true
	}
	switch kind {
	case "comment", "function_definition", "namespace_definition", "ERROR":
		return true
	}
	return false
}

func (c *converter) stmts(n *sitter.Node) []syntax.Stmt {
	var out []syntax.Stmt
	for _, child := range namedChildren(n) {
		switch {
		case isStatement(child.Type()):
			if s := c.stmt(child); s != nil {
				out = append(out, s)
			}
		case nestedBodyKinds[child.Type()]:
			out = append(out, c.stmts(child)...)
		}
	}
	return out
}

func (c *converter) block(n *sitter.Node) *syntax.Block {
	if n == nil {
		return nil
	}
	return &syntax.Block{Base: c.base(n), Stmts: c.stmts(n)}
}

func (c *converter) stmt(n *sitter.Node) syntax.Stmt {
	if n == nil {
		return nil
	}
	if kind, ok := declarationKinds[n.Type()]; ok {
		return &syntax.ClassDecl{Base: c.base(n), Class: c.class(n, kind)}
	}

	switch n.Type() {
	case "comment":
		return &syntax.Comment{Base: c.base(n), Text: c.text(n)}
	case "compound_statement":
		return c.block(n)
	case "return_statement":
		ret := &syntax.Return{Base: c.base(n)}
		if value := firstOperand(n); value != nil {
			ret.Value = c.expr(value)
		}
		return ret
	case "expression_statement":
		value := firstOperand(n)
		if value == nil {
			return nil
		}
		return &syntax.ExprStmt{Base: c.base(n), X: c.expr(value)}
	case "if_statement":
		return c.ifStmt(n)
	case "function_definition":
		fn := c.function(n)
		c.out.Functions = append(c.out.Functions, fn)
		return &syntax.FunctionDecl{Base: c.base(n), Function: fn}
	case "namespace_definition":
		name := c.text(n.ChildByFieldName("name"))
		body := n.ChildByFieldName("body")
		if body == nil {
			c.namespace = name
			return nil
		}
		outer := c.namespace
		c.namespace = name
		defer func() { c.namespace = outer }()
		return &syntax.Compound{Base: c.base(n), Kind: n.Type(), Body: c.stmts(body)}
	case "ERROR":
		c.recordError(n)
	}

	return &syntax.Compound{Base: c.base(n), Kind: n.Type(), Body: c.stmts(n)}
}

func (c *converter) ifStmt(n *sitter.Node) *syntax.If {
	stmt := &syntax.If{Base: c.base(n)}
	if cond := n.ChildByFieldName("condition"); cond != nil {
		stmt.Cond = c.expr(cond)
	}
	stmt.Body = c.stmt(n.ChildByFieldName("body"))

	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "else_if_clause":
			alt := &syntax.If{Base: c.base(child)}
			if cond := child.ChildByFieldName("condition"); cond != nil {
				alt.Cond = c.expr(cond)
			}
			alt.Body = c.stmt(child.ChildByFieldName("body"))
			stmt.Alternatives = append(stmt.Alternatives, alt)
		case "else_clause":
			body := child.ChildByFieldName("body")
			if body == nil {
				body = firstOperand(child)
			}
			if s := c.stmt(body); s != nil {
				stmt.Alternatives = append(stmt.Alternatives, s)
			}
		}
	}
	return stmt
}

// Declarations

func (c *converter) class(n *sitter.Node, kind syntax.ClassKind) *syntax.Class {
	class := &syntax.Class{
		Base:      c.base(n),
		Kind:      kind,
		Namespace: c.namespace,
		Doc:       c.docComment(n),
	}
	c.out.Classes = append(c.out.Classes, class)

	if name := n.ChildByFieldName("name"); name != nil {
		class.Name = c.text(name)
		class.NameRange = c.span(name)
	}

	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "abstract_modifier":
			class.Abstract = true
		case "base_clause":
			names := c.names(child)
			if kind == syntax.KindInterface {
				class.Implements = append(class.Implements, names...)
			} else if len(names) > 0 {
				class.Extends = names[0]
			}
		case "class_interface_clause":
			class.Implements = append(class.Implements, c.names(child)...)
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list", "enum_declaration_list")
	}
	for _, member := range namedChildren(body) {
		switch member.Type() {
		case "method_declaration":
			method := c.method(member)
			class.Methods = append(class.Methods, method)
			if method.Name == "__construct" {
				class.Properties = append(class.Properties, c.promoted(member)...)
			}
		case "property_declaration":
			class.Properties = append(class.Properties, c.properties(member)...)
		}
	}
	return class
}

func (c *converter) names(n *sitter.Node) []string {
	var out []string
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "name", "qualified_name":
			out = append(out, strings.TrimPrefix(c.text(child), `\`))
		}
	}
	return out
}

func (c *converter) method(n *sitter.Node) *syntax.Method {
	method := &syntax.Method{Function: *c.function(n)}
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "visibility_modifier":
			method.Visibility = c.text(child)
		case "static_modifier":
			method.Static = true
		case "abstract_modifier":
			method.Abstract = true
		case "final_modifier":
			method.Final = true
		}
	}
	if method.Visibility == "" {
		method.Visibility = "public"
	}
	return method
}

func (c *converter) function(n *sitter.Node) *syntax.Function {
	fn := &syntax.Function{
		Base:       c.base(n),
		Params:     c.params(n.ChildByFieldName("parameters")),
		ReturnType: c.typeHint(n.ChildByFieldName("return_type")),
		Doc:        c.docComment(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = c.text(name)
		fn.NameRange = c.span(name)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = c.block(body)
	}
	return fn
}

func (c *converter) typeHint(n *sitter.Node) *syntax.TypeHint {
	if n == nil {
		return nil
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.text(n)), ":"))
	if text == "" {
		return nil
	}
	return &syntax.TypeHint{Base: c.base(n), Text: text}
}

func (c *converter) params(n *sitter.Node) []*syntax.Param {
	var out []*syntax.Param
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}
		param := &syntax.Param{
			Base:     c.base(child),
			Type:     c.typeHint(child.ChildByFieldName("type")),
			Variadic: child.Type() == "variadic_parameter",
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			name = childOfType(child, "variable_name")
		}
		param.Name = c.text(name)
		if def := child.ChildByFieldName("default_value"); def != nil {
			param.Default = c.expr(def)
		}
		out = append(out, param)
	}
	return out
}

// promoted returns the constructor parameters that declare properties.
func (c *converter) promoted(n *sitter.Node) []*syntax.Property {
	var out []*syntax.Property
	for _, child := range namedChildren(n.ChildByFieldName("parameters")) {
		if child.Type() != "property_promotion_parameter" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			name = childOfType(child, "variable_name")
		}
		out = append(out, &syntax.Property{
			Base: c.base(child),
			Name: c.text(name),
			Type: c.typeHint(child.ChildByFieldName("type")),
		})
	}
	return out
}

func (c *converter) properties(n *sitter.Node) []*syntax.Property {
	typ := c.typeHint(n.ChildByFieldName("type"))
	doc := c.docComment(n)
	static := childOfType(n, "static_modifier") != nil

	var out []*syntax.Property
	for _, element := range namedChildren(n) {
		if element.Type() != "property_element" {
			continue
		}
		name := childOfType(element, "variable_name")
		if name == nil {
			continue
		}
		out = append(out, &syntax.Property{
			Base:   c.base(element),
			Name:   c.text(name),
			Type:   typ,
			Doc:    doc,
			Static: static,
		})
	}
	return out
}

// docComment returns the "/**" comment directly preceding n, separated only by whitespace.
func (c *converter) docComment(n *sitter.Node) *syntax.Comment {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return nil
	}
	text := c.text(prev)
	if !strings.HasPrefix(text, "/**") {
		return nil
	}
	if prev.EndByte() > n.StartByte() || strings.TrimSpace(string(c.src[prev.EndByte():n.StartByte()])) != "" {
		return nil
	}
	return &syntax.Comment{Base: c.base(prev), Text: text}
}
