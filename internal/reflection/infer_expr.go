package reflection

import (
	"context"
	"strings"

	"docsync/internal/syntax"
	"docsync/internal/types"
)

// expr infers the type of an expression in the current frame. Anything unresolved is Mixed.
func (f *frame) expr(ctx context.Context, e syntax.Expr) types.Type {
	if e == nil || ctx.Err() != nil {
		return types.Mixed
	}

	switch e := e.(type) {
	case *syntax.Literal:
		return literal(e)

	case *syntax.ArrayLit:
		return f.array(ctx, e)

	case *syntax.New:
		return f.newExpr(ctx, e)

	case *syntax.Variable:
		if e.Name == "$this" && f.self != nil {
			return f.self.Type()
		}
		if t, ok := f.vars[e.Name]; ok {
			return t
		}
		return types.Mixed

	case *syntax.Assign:
		return f.assign(ctx, e)

	case *syntax.Ternary:
		cond := f.expr(ctx, e.Cond)
		if e.Then == nil {
			return types.Union(withoutNull(cond), f.expr(ctx, e.Else))
		}
		return types.Union(f.expr(ctx, e.Then), f.expr(ctx, e.Else))

	case *syntax.Binary:
		return f.binary(ctx, e)

	case *syntax.Unary:
		operand := f.expr(ctx, e.Operand)
		switch e.Op {
		case "!":
			return types.Bool
		case "~":
			return types.Int
		case "-", "+":
			if types.Equal(operand, types.Int) || types.Equal(operand, types.Float) {
				return operand
			}
			return types.Mixed
		}
		return operand

	case *syntax.Cast:
		f.expr(ctx, e.Operand)
		return castType(e.Type)

	case *syntax.ClassConst:
		if strings.EqualFold(e.Name, "class") {
			return types.String
		}
		return types.Mixed

	case *syntax.Closure:
		return types.NewClass("Closure")

	case *syntax.Call:
		return f.call(ctx, e)

	case *syntax.MethodCall:
		t := types.Mixed
		if class, ok := f.receiver(ctx, e.Object); ok {
			t = f.callMethod(ctx, class, e.Name)
		}
		f.args(ctx, e.Args)
		if e.NullSafe && !types.IsMixed(t) {
			return types.Union(t, types.Null)
		}
		return t

	case *syntax.StaticCall:
		f.args(ctx, e.Args)
		if class, ok := f.scope(ctx, e.Scope); ok {
			return f.callMethod(ctx, class, e.Name)
		}
		return types.Mixed

	case *syntax.PropertyFetch:
		if class, ok := f.receiver(ctx, e.Object); ok {
			if t, ok := class.PropertyType(ctx, e.Name); ok {
				return t
			}
		}
		return types.Mixed

	case *syntax.Unknown:
		var children []types.Type
		for _, c := range e.Children {
			children = append(children, f.expr(ctx, c))
		}
		if e.Kind == "clone_expression" && len(children) == 1 {
			return children[0]
		}
		return types.Mixed
	}

	// Names, yields and invalid fragments.
	return types.Mixed
}

func literal(e *syntax.Literal) types.Type {
	switch e.Kind {
	case syntax.LitString:
		return types.String
	case syntax.LitInt:
		return types.Int
	case syntax.LitFloat:
		return types.Float
	case syntax.LitBool:
		return types.Bool
	default:
		return types.Null
	}
}

// array types an array literal. Literals with at least one explicit key are maps, the others
// lists; elements without a key in a map get an int key.
func (f *frame) array(ctx context.Context, e *syntax.ArrayLit) types.Type {
	if len(e.Elements) == 0 {
		return types.NewArray(types.Mixed, types.Mixed)
	}

	var keys, values []types.Type
	keyed := false
	for _, el := range e.Elements {
		value := f.expr(ctx, el.Value)
		if el.Spread {
			key, elem := containerOf(value)
			keys = append(keys, key)
			values = append(values, elem)
			if !types.Equal(key, types.Int) {
				keyed = true
			}
			continue
		}
		values = append(values, value)
		if el.Key == nil {
			keys = append(keys, types.Int)
			continue
		}
		keyed = true
		keys = append(keys, f.expr(ctx, el.Key))
	}

	if !keyed {
		return types.NewList(types.Union(values...))
	}
	return types.NewArray(types.Union(keys...), types.Union(values...))
}

func (f *frame) newExpr(ctx context.Context, e *syntax.New) types.Type {
	f.args(ctx, e.Args)
	if e.Anonymous != nil {
		return types.Object
	}
	switch strings.ToLower(e.Class) {
	case "self", "static":
		if f.self != nil {
			return f.self.Type()
		}
		return types.Object
	case "parent":
		if f.self != nil {
			if parent, ok := f.self.Parent(ctx); ok {
				return parent.Type()
			}
		}
		return types.Object
	case "":
		return types.Mixed
	}
	if strings.HasPrefix(e.Class, "$") {
		return types.Object
	}
	return types.NewClass(e.Class)
}

func (f *frame) assign(ctx context.Context, e *syntax.Assign) types.Type {
	value := f.expr(ctx, e.Value)

	t := value
	switch e.Op {
	case "=":
	case ".=":
		t = types.String
	case "??=":
		t = types.Union(withoutNull(f.expr(ctx, e.Target)), value)
	default:
		t = arithmetic(strings.TrimSuffix(e.Op, "="), f.expr(ctx, e.Target), value)
	}

	if v, ok := e.Target.(*syntax.Variable); ok {
		f.vars[v.Name] = t
		if closure, ok := e.Value.(*syntax.Closure); ok && e.Op == "=" {
			f.closures[v.Name] = closure
		} else {
			delete(f.closures, v.Name)
		}
	}
	return t
}

func (f *frame) binary(ctx context.Context, e *syntax.Binary) types.Type {
	left := f.expr(ctx, e.Left)
	right := f.expr(ctx, e.Right)

	switch e.Op {
	case "??":
		return types.Union(withoutNull(left), right)
	case ".":
		return types.String
	case "==", "===", "!=", "!==", "<>", "<", ">", "<=", ">=",
		"&&", "||", "and", "or", "xor", "instanceof":
		return types.Bool
	case "<=>", "&", "|", "^", "<<", ">>":
		return types.Int
	}
	return arithmetic(e.Op, left, right)
}

func arithmetic(op string, left, right types.Type) types.Type {
	isInt := func(t types.Type) bool { return types.Equal(t, types.Int) }
	isNum := func(t types.Type) bool { return isInt(t) || types.Equal(t, types.Float) }

	switch op {
	case "+", "-", "*", "**", "%":
		if op == "%" {
			return types.Int
		}
		if isInt(left) && isInt(right) {
			return types.Int
		}
		if isNum(left) && isNum(right) {
			return types.Float
		}
	case "/":
		if isNum(left) && isNum(right) {
			return types.Union(types.Int, types.Float)
		}
	}
	return types.Mixed
}

func castType(kind string) types.Type {
	switch kind {
	case "int", "integer":
		return types.Int
	case "float", "double", "real":
		return types.Float
	case "string", "binary":
		return types.String
	case "bool", "boolean":
		return types.Bool
	case "array":
		return types.NewArray(types.Mixed, types.Mixed)
	case "object":
		return types.Object
	case "unset":
		return types.Null
	}
	return types.Mixed
}

// call types a function call: builtins, functions of the document and invoked closures.
func (f *frame) call(ctx context.Context, e *syntax.Call) types.Type {
	if e.Name == "" {
		switch callee := e.Callee.(type) {
		case *syntax.Closure:
			return f.closure(ctx, callee, f.args(ctx, e.Args)...)
		case *syntax.Variable:
			if closure, ok := f.closures[callee.Name]; ok {
				return f.closure(ctx, closure, f.args(ctx, e.Args)...)
			}
		}
		f.args(ctx, e.Args)
		return types.Mixed
	}

	name := strings.ToLower(strings.TrimPrefix(e.Name, `\`))
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	if fn, ok := f.s.function(name); ok {
		f.args(ctx, e.Args)
		return f.s.functionReturnType(ctx, fn)
	}
	if builtin, ok := builtins[name]; ok {
		return builtin(ctx, f, e.Args)
	}
	f.args(ctx, e.Args)
	log.Debugf("unknown function %s", e.Name)
	return types.Mixed
}

// args evaluates call arguments in order. Arguments may assign variables.
func (f *frame) args(ctx context.Context, args []syntax.Expr) []types.Type {
	out := make([]types.Type, 0, len(args))
	for _, a := range args {
		out = append(out, f.expr(ctx, a))
	}
	return out
}

// receiver resolves the class of an object expression.
func (f *frame) receiver(ctx context.Context, object syntax.Expr) (*Class, bool) {
	if v, ok := object.(*syntax.Variable); ok && v.Name == "$this" {
		return f.self, f.self != nil
	}
	return f.classOf(ctx, f.expr(ctx, object))
}

// scope resolves the class named before "::".
func (f *frame) scope(ctx context.Context, name string) (*Class, bool) {
	switch strings.ToLower(name) {
	case "self", "static":
		return f.self, f.self != nil
	case "parent":
		if f.self == nil {
			return nil, false
		}
		return f.self.Parent(ctx)
	}
	if strings.HasPrefix(name, "$") {
		return f.classOf(ctx, f.vars[name])
	}
	return f.s.class(ctx, name, f.namespace)
}

// classOf resolves the class of an instance type. Nullable instances resolve to their class.
func (f *frame) classOf(ctx context.Context, t types.Type) (*Class, bool) {
	t = withoutNull(t)
	class, ok := t.(types.ClassType)
	if !ok {
		return nil, false
	}
	if f.self != nil && strings.EqualFold(class.Name, f.self.Name()) {
		return f.self, true
	}
	return f.s.class(ctx, class.Name, f.namespace)
}

func (f *frame) callMethod(ctx context.Context, class *Class, name string) types.Type {
	m, ok := class.Method(ctx, name)
	if !ok {
		log.Debugf("unresolved method %s::%s", class.Name(), name)
		return types.Mixed
	}
	return m.ReturnType(ctx)
}

// withoutNull removes null from a union.
func withoutNull(t types.Type) types.Type {
	if t == nil {
		return types.Mixed
	}
	members := types.Members(t)
	kept := make([]types.Type, 0, len(members))
	for _, m := range members {
		if _, isNull := m.(types.NullType); !isNull {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(members) {
		return t
	}
	if len(kept) == 0 {
		return types.Null
	}
	return types.Union(kept...)
}

// containerOf returns the key and value types of an iterable.
func containerOf(t types.Type) (key, value types.Type) {
	switch t := t.(type) {
	case types.ArrayType:
		return t.Key, t.Value
	case types.ListType:
		return types.Int, t.Elem
	case types.ClassType:
		switch len(t.Generics) {
		case 1:
			return types.Mixed, t.Generics[0]
		case 2:
			return t.Generics[0], t.Generics[1]
		}
	}
	return types.Mixed, types.Mixed
}
