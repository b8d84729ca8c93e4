package reflection

import (
	"context"
	"maps"

	"docsync/internal/docblock"
	"docsync/internal/syntax"
	"docsync/internal/types"
)

const noStop = -1

// frame is the variable scope of one function body. Statements are evaluated in order so
// assignments and @var annotations apply from the point they appear.
type frame struct {
	s         *session
	self      *Class
	namespace string

	vars     map[string]types.Type
	closures map[string]*syntax.Closure
	// pending holds an unnamed @var type waiting for the variable of the next statement.
	pending types.Type
	// named holds named @var types, re-applied when the next statement assigns that variable.
	named   map[string]types.Type
	returns []types.Type

	// stop is the offset at which evaluation halts, noStop to run the whole body.
	stop    int
	stopped bool
}

func newFrame(s *session, self *Class) *frame {
	f := &frame{
		s:        s,
		self:     self,
		vars:     make(map[string]types.Type),
		closures: make(map[string]*syntax.Closure),
		stop:     noStop,
	}
	if self != nil {
		f.namespace = self.node.Namespace
	}
	return f
}

// child opens the scope of a closure. Arrow functions capture the whole parent scope,
// anonymous functions only their use() list.
func (f *frame) child(closure *syntax.Closure) *frame {
	c := newFrame(f.s, f.self)
	c.namespace = f.namespace
	if closure.Arrow {
		maps.Copy(c.vars, f.vars)
		maps.Copy(c.closures, f.closures)
	} else {
		for _, name := range closure.Uses {
			if t, ok := f.vars[name]; ok {
				c.vars[name] = t
			}
			if fn, ok := f.closures[name]; ok {
				c.closures[name] = fn
			}
		}
	}
	return c
}

func (f *frame) seedParams(params []*syntax.Param, doc docblock.Docblock) {
	documented := make(map[string]types.Type)
	for _, tag := range doc.Params() {
		name, ok := tag.Variable()
		if !ok {
			continue
		}
		if t, err := tag.ParsedType(); err == nil {
			documented[name] = t
		}
	}

	for _, p := range params {
		t := types.Mixed
		if p.Type != nil {
			if hint, err := types.Parse(p.Type.Text); err == nil {
				t = hint
			}
		}
		if doc, ok := documented[p.Name]; ok {
			t = doc
		}
		if p.Variadic {
			t = types.NewList(t)
		}
		f.vars[p.Name] = f.resolveSelf(t)
	}
}

func (f *frame) resolveSelf(t types.Type) types.Type {
	if f.self == nil || f.self.Kind() == syntax.KindAnonymous {
		return t
	}
	return types.ResolveSelf(t, f.self.Name())
}

// result unions every collected return. A body without return statements returns void.
func (f *frame) result() types.Type {
	if len(f.returns) == 0 {
		return types.Void
	}
	return types.Union(f.returns...)
}

func (f *frame) block(ctx context.Context, stmts []syntax.Stmt) {
	for _, st := range stmts {
		if f.stopped || ctx.Err() != nil {
			return
		}
		if f.stop != noStop && st.Span().Start > f.stop {
			f.stopped = true
			return
		}
		f.stmt(ctx, st)
	}
}

// halts reports whether evaluation must stop at n because it holds the stop offset.
func (f *frame) halts(n syntax.Node) bool {
	if f.stop == noStop {
		return false
	}
	if span := n.Span(); f.stop < span.Start || f.stop >= span.End {
		return false
	}
	f.stopped = true
	return true
}

func (f *frame) stmt(ctx context.Context, st syntax.Stmt) {
	switch st := st.(type) {
	case *syntax.Block:
		f.block(ctx, st.Stmts)

	case *syntax.Compound:
		f.block(ctx, st.Body)

	case *syntax.If:
		if st.Cond != nil {
			if f.halts(st.Cond) {
				return
			}
			f.expr(ctx, st.Cond)
		}
		branches := append([]syntax.Stmt{st.Body}, st.Alternatives...)
		for _, branch := range branches {
			if branch == nil || f.stopped {
				continue
			}
			f.stmt(ctx, branch)
		}

	case *syntax.Comment:
		f.comment(st)

	case *syntax.ExprStmt:
		if f.halts(st) {
			return
		}
		pending, named := f.pending, f.named
		f.pending, f.named = nil, nil
		f.expr(ctx, st.X)
		if name, ok := assignedVariable(st.X); ok {
			if t, ok := named[name]; ok {
				f.vars[name] = t
			} else if pending != nil {
				f.vars[name] = pending
			}
		}

	case *syntax.Return:
		if f.halts(st) {
			return
		}
		f.pending, f.named = nil, nil
		if st.Value == nil {
			f.returns = append(f.returns, types.Void)
			return
		}
		f.returns = append(f.returns, f.expr(ctx, st.Value))

	case *syntax.ClassDecl, *syntax.FunctionDecl:
		// Declarations open their own scope.
	}
}

// comment applies the @var tags of a doc comment. Named tags type their variable at once and
// survive an assignment to it in the next statement; an unnamed tag types the variable of the
// next statement.
func (f *frame) comment(c *syntax.Comment) {
	if !c.IsDoc() {
		return
	}
	for _, tag := range docblock.Parse(c.Text, c.Span().Start).Vars() {
		t, err := tag.ParsedType()
		if err != nil {
			log.Debugf("ignoring malformed @var %q", tag.Type)
			continue
		}
		t = f.resolveSelf(t)
		if name, ok := tag.Variable(); ok {
			f.vars[name] = t
			if f.named == nil {
				f.named = make(map[string]types.Type)
			}
			f.named[name] = t
			continue
		}
		f.pending = t
	}
}

// assignedVariable returns the variable a statement assigns or names.
func assignedVariable(e syntax.Expr) (string, bool) {
	switch e := e.(type) {
	case *syntax.Variable:
		return e.Name, true
	case *syntax.Assign:
		if v, ok := e.Target.(*syntax.Variable); ok {
			return v.Name, true
		}
	}
	return "", false
}
