package reflection

import (
	"context"
	"strings"

	"docsync/internal/docblock"
	"docsync/internal/syntax"
	"docsync/internal/types"
)

// inferMethod types the returns of a method body. Re-entering a method whose inference is
// still running yields Mixed.
func (s *session) inferMethod(ctx context.Context, m *Method) types.Type {
	key := m.key()
	if t, ok := s.inferred[key]; ok {
		return t
	}
	if s.inProgress[key] {
		log.Debugf("recursion on %s, treating as mixed", key)
		return types.Mixed
	}
	s.inProgress[key] = true
	defer delete(s.inProgress, key)

	f := newFrame(s, m.class)
	f.seedParams(m.node.Params, m.Docblock())
	f.block(ctx, m.node.Body.Stmts)
	t := f.result()

	s.inferred[key] = t
	return t
}

// functionReturnType is the best known return type of a function declared in the document.
func (s *session) functionReturnType(ctx context.Context, fn *syntax.Function) types.Type {
	doc := docblock.Empty()
	if fn.Doc != nil {
		doc = docblock.Parse(fn.Doc.Text, fn.Doc.Span().Start)
	}
	if tag, ok := doc.Return(); ok {
		if t, err := tag.ParsedType(); err == nil {
			return t
		}
	}

	var partial types.Type
	if fn.Body != nil && !syntax.ContainsYield(fn.Body) {
		key := methodKey{uri: s.doc.URI(), method: "function:" + strings.ToLower(fn.Name)}
		t, ok := s.inferred[key]
		if !ok && !s.inProgress[key] {
			s.inProgress[key] = true
			f := newFrame(s, nil)
			f.seedParams(fn.Params, doc)
			f.block(ctx, fn.Body.Stmts)
			t = f.result()
			delete(s.inProgress, key)
			s.inferred[key] = t
		}
		if t != nil && !types.HasMixed(t) {
			return t
		}
		partial = t
	}

	if fn.ReturnType != nil {
		if t, err := types.Parse(fn.ReturnType.Text); err == nil {
			return t
		}
	}
	if partial != nil {
		return partial
	}
	return types.Mixed
}

// closure types the value a closure returns when invoked. args are the types of the values
// it receives, used for parameters without a hint.
func (f *frame) closure(ctx context.Context, c *syntax.Closure, args ...types.Type) types.Type {
	inner := f.child(c)
	inner.seedParams(c.Params, docblock.Empty())
	for i, p := range c.Params {
		if p.Type == nil && i < len(args) && args[i] != nil {
			inner.vars[p.Name] = args[i]
		}
	}

	var t types.Type
	if c.Arrow {
		t = inner.expr(ctx, c.Result)
	} else if c.Body != nil {
		inner.block(ctx, c.Body.Stmts)
		t = inner.result()
	}
	if (t == nil || types.HasMixed(t)) && c.ReturnType != nil {
		if hint, err := types.Parse(c.ReturnType.Text); err == nil {
			return hint
		}
	}
	if t == nil {
		return types.Mixed
	}
	return t
}

// scopeAt builds the frame of the innermost function-like scope around offset, evaluated up
// to the statement holding offset.
func (s *session) scopeAt(ctx context.Context, path []syntax.Node, offset int) *frame {
	var (
		class *syntax.Class
		body  *syntax.Block
		f     = newFrame(s, nil)
	)
	body = s.file.Body

	for _, n := range path {
		switch n := n.(type) {
		case *syntax.Class:
			class = n
		case *syntax.Method:
			var self *Class
			if class != nil {
				self = s.view(s.doc.URI(), class)
			}
			f = newFrame(s, self)
			if self != nil {
				f.seedParams(n.Params, (&Method{class: self, node: n}).Docblock())
			}
			body = n.Body
		case *syntax.Function:
			f = newFrame(s, nil)
			doc := docblock.Empty()
			if n.Doc != nil {
				doc = docblock.Parse(n.Doc.Text, n.Doc.Span().Start)
			}
			f.seedParams(n.Params, doc)
			body = n.Body
		case *syntax.Closure:
			// Run the enclosing body up to the closure so captured variables are typed.
			f.stop = n.Span().Start
			if body != nil {
				f.block(ctx, body.Stmts)
			}
			f = f.child(n)
			f.seedParams(n.Params, docblock.Empty())
			body = n.Body
		}
	}
	if f.namespace == "" {
		f.namespace = namespaceAt(s.file, offset)
	}

	f.stop = offset
	if body != nil {
		f.block(ctx, body.Stmts)
	}
	return f
}

// namespaceAt returns the namespace of the first class declared before offset.
func namespaceAt(file *syntax.File, offset int) string {
	ns := ""
	for _, c := range file.Classes {
		if c.Span().Start > offset {
			break
		}
		ns = c.Namespace
	}
	return ns
}
