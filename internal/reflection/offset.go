package reflection

import (
	"context"

	"docsync/internal/syntax"
	"docsync/internal/types"
)

// Offset is the reflection of a position in a document.
type Offset struct {
	// Node is the innermost syntax node covering the offset.
	Node syntax.Node
	// Path lists the nodes covering the offset, outermost first.
	Path []syntax.Node
	// Type is the inferred type of Node when it is an expression, Mixed otherwise.
	Type types.Type

	class  *Class
	method *Method
}

// Class returns the class enclosing the offset.
func (o *Offset) Class() (*Class, bool) {
	return o.class, o.class != nil
}

// Method returns the method enclosing the offset.
func (o *Offset) Method() (*Method, bool) {
	return o.method, o.method != nil
}

// MethodCall is the reflection of a method call site.
type MethodCall struct {
	// Node is a *syntax.MethodCall or a *syntax.StaticCall.
	Node syntax.Expr
	Name string
	// Receiver is the type of the called object, Mixed when unknown.
	Receiver types.Type

	class  *Class
	method *Method
}

// Class returns the class the method is called on.
func (c *MethodCall) Class() (*Class, bool) {
	return c.class, c.class != nil
}

// Method returns the called method.
func (c *MethodCall) Method() (*Method, bool) {
	return c.method, c.method != nil
}

// ReturnType is the return type of the callee, Mixed when it is unresolved.
func (c *MethodCall) ReturnType(ctx context.Context) types.Type {
	if c.method == nil {
		return types.Mixed
	}
	return c.method.ReturnType(ctx)
}

func (s *session) offset(ctx context.Context, offset int) *Offset {
	path := syntax.PathTo(s.file, offset)
	out := &Offset{Path: path, Type: types.Mixed}
	if len(path) == 0 {
		out.Node = s.file
		return out
	}
	out.Node = path[len(path)-1]
	out.class, out.method = s.enclosing(path)

	if e, ok := out.Node.(syntax.Expr); ok {
		f := s.scopeAt(ctx, path, e.Span().Start)
		out.Type = f.expr(ctx, e)
	}
	return out
}

func (s *session) methodCall(ctx context.Context, offset int) (*MethodCall, bool) {
	path := syntax.PathTo(s.file, offset)

	var node syntax.Expr
	for i := len(path) - 1; i >= 0 && node == nil; i-- {
		switch n := path[i].(type) {
		case *syntax.MethodCall, *syntax.StaticCall:
			node = n.(syntax.Expr)
		}
	}
	if node == nil {
		return nil, false
	}

	f := s.scopeAt(ctx, path, node.Span().Start)
	call := &MethodCall{Node: node, Receiver: types.Mixed}

	switch n := node.(type) {
	case *syntax.MethodCall:
		call.Name = n.Name
		call.class, _ = f.receiver(ctx, n.Object)
	case *syntax.StaticCall:
		call.Name = n.Name
		call.class, _ = f.scope(ctx, n.Scope)
	}
	if call.class != nil {
		call.Receiver = call.class.Type()
		call.method, _ = call.class.Method(ctx, call.Name)
	}
	return call, true
}

// enclosing returns the innermost class and method on path.
func (s *session) enclosing(path []syntax.Node) (*Class, *Method) {
	var (
		class  *Class
		method *Method
	)
	for _, n := range path {
		switch n := n.(type) {
		case *syntax.Class:
			class = s.view(s.doc.URI(), n)
			method = nil
		case *syntax.Method:
			if class == nil {
				continue
			}
			for _, m := range class.Methods() {
				if m.node == n {
					method = m
				}
			}
		}
	}
	return class, method
}
