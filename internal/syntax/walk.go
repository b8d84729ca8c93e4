package syntax

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil && !isNilNode(c) {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *File:
		if n.Body != nil {
			add(n.Body)
		}
	case *Class:
		if n.Doc != nil {
			add(n.Doc)
		}
		for _, p := range n.Properties {
			add(p)
		}
		for _, m := range n.Methods {
			add(m)
		}
	case *Method:
		return Children(&n.Function)
	case *Function:
		if n.Doc != nil {
			add(n.Doc)
		}
		for _, p := range n.Params {
			add(p)
		}
		if n.ReturnType != nil {
			add(n.ReturnType)
		}
		if n.Body != nil {
			add(n.Body)
		}
	case *Param:
		if n.Type != nil {
			add(n.Type)
		}
		if n.Default != nil {
			add(n.Default)
		}
	case *Property:
		if n.Type != nil {
			add(n.Type)
		}
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}
	case *Return:
		if n.Value != nil {
			add(n.Value)
		}
	case *ExprStmt:
		add(n.X)
	case *If:
		add(n.Cond, n.Body)
		for _, alt := range n.Alternatives {
			add(alt)
		}
	case *ClassDecl:
		add(n.Class)
	case *FunctionDecl:
		add(n.Function)
	case *Compound:
		for _, s := range n.Body {
			add(s)
		}
	case *ArrayLit:
		for _, e := range n.Elements {
			add(e)
		}
	case *ArrayElement:
		if n.Key != nil {
			add(n.Key)
		}
		add(n.Value)
	case *New:
		if n.Anonymous != nil {
			add(n.Anonymous)
		}
		addExprs(add, n.Args)
	case *Call:
		if n.Callee != nil {
			add(n.Callee)
		}
		addExprs(add, n.Args)
	case *MethodCall:
		add(n.Object)
		addExprs(add, n.Args)
	case *StaticCall:
		addExprs(add, n.Args)
	case *PropertyFetch:
		add(n.Object)
	case *Closure:
		for _, p := range n.Params {
			add(p)
		}
		if n.ReturnType != nil {
			add(n.ReturnType)
		}
		if n.Body != nil {
			add(n.Body)
		}
		if n.Result != nil {
			add(n.Result)
		}
	case *Assign:
		add(n.Target, n.Value)
	case *Ternary:
		add(n.Cond)
		if n.Then != nil {
			add(n.Then)
		}
		add(n.Else)
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Operand)
	case *Cast:
		add(n.Operand)
	case *Yield:
		if n.Value != nil {
			add(n.Value)
		}
	case *Unknown:
		addExprs(add, n.Children)
	}
	return out
}

func addExprs(add func(...Node), exprs []Expr) {
	for _, e := range exprs {
		if e != nil {
			add(e)
		}
	}
}

// isNilNode catches typed nil pointers stored in an interface.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Class:
		return v == nil
	case *Function:
		return v == nil
	case *Comment:
		return v == nil
	case *TypeHint:
		return v == nil
	}
	return false
}

// Walk visits n and its descendants depth-first. Returning false from fn skips the children
// of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// PathTo returns the chain of nodes covering offset, outermost first.
func PathTo(root Node, offset int) []Node {
	var path []Node
	current := root
	for current != nil && current.Span().Contains(offset) {
		path = append(path, current)
		var next Node
		for _, c := range Children(current) {
			if c.Span().Contains(offset) {
				next = c
				if c.Span().Start <= offset && offset < c.Span().End {
					break
				}
			}
		}
		current = next
	}
	return path
}

// NodeAt returns the innermost node covering offset.
func NodeAt(root Node, offset int) (Node, bool) {
	path := PathTo(root, offset)
	if len(path) == 0 {
		return nil, false
	}
	return path[len(path)-1], true
}

// IsScopeBoundary reports whether n opens a new function scope: nested closures, functions
// and classes are evaluated independently of the enclosing body.
func IsScopeBoundary(n Node) bool {
	switch n.(type) {
	case *Closure, *Function, *Method, *Class, *ClassDecl, *FunctionDecl:
		return true
	}
	return false
}

// ContainsYield reports whether body yields, ignoring nested scopes.
func ContainsYield(body *Block) bool {
	if body == nil {
		return false
	}
	found := false
	Walk(body, func(n Node) bool {
		if found {
			return false
		}
		if _, ok := n.(*Yield); ok {
			found = true
			return false
		}
		return !IsScopeBoundary(n)
	})
	return found
}
