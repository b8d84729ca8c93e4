package reflection

import (
	"context"
	"fmt"
	"strings"

	"docsync/internal/docblock"
	"docsync/internal/document"
	"docsync/internal/syntax"
	"docsync/internal/types"
)

// Class is a lazily resolved class-like declaration.
type Class struct {
	s    *session
	uri  document.URI
	node *syntax.Class

	methods []*Method
	parent  *Class
	// parentResolved is set once the parent lookup ran, whatever its outcome.
	parentResolved bool
}

// Name returns the class name as declared. Anonymous classes return "class@anonymous".
func (c *Class) Name() string {
	if c.node.Kind == syntax.KindAnonymous {
		return "class@anonymous"
	}
	return c.node.Name
}

// FQN returns the namespaced name.
func (c *Class) FQN() string {
	return qualified(c.node.Namespace, c.Name())
}

func (c *Class) Kind() syntax.ClassKind {
	return c.node.Kind
}

func (c *Class) Node() *syntax.Class {
	return c.node
}

// URI returns the document declaring the class.
func (c *Class) URI() document.URI {
	return c.uri
}

func (c *Class) Docblock() docblock.Docblock {
	if c.node.Doc == nil {
		return docblock.Empty()
	}
	return docblock.Parse(c.node.Doc.Text, c.node.Doc.Span().Start)
}

// Type returns the instance type of the class.
func (c *Class) Type() types.Type {
	if c.node.Kind == syntax.KindAnonymous {
		return types.Object
	}
	return types.NewClass(c.node.Name)
}

// id distinguishes anonymous classes of one document.
func (c *Class) id() string {
	if c.node.Kind == syntax.KindAnonymous {
		return fmt.Sprintf("class@anonymous:%d", c.node.Span().Start)
	}
	return c.FQN()
}

// Methods returns the methods declared by the class itself, in source order.
func (c *Class) Methods() []*Method {
	if c.methods == nil {
		c.methods = make([]*Method, 0, len(c.node.Methods))
		for _, m := range c.node.Methods {
			c.methods = append(c.methods, &Method{class: c, node: m})
		}
	}
	return c.methods
}

// Parent resolves the extended class.
func (c *Class) Parent(ctx context.Context) (*Class, bool) {
	if !c.parentResolved {
		c.parentResolved = true
		if c.node.Extends != "" {
			c.parent, _ = c.s.class(ctx, c.node.Extends, c.node.Namespace)
		}
	}
	return c.parent, c.parent != nil
}

// Method finds a method by name on the class, its parents or its interfaces.
func (c *Class) Method(ctx context.Context, name string) (*Method, bool) {
	return c.method(ctx, name, map[*Class]bool{})
}

func (c *Class) method(ctx context.Context, name string, seen map[*Class]bool) (*Method, bool) {
	if seen[c] {
		return nil, false
	}
	seen[c] = true

	for _, m := range c.Methods() {
		if strings.EqualFold(m.Name(), name) {
			return m, true
		}
	}
	if parent, ok := c.Parent(ctx); ok {
		if m, ok := parent.method(ctx, name, seen); ok {
			return m, true
		}
	}
	for _, iface := range c.node.Implements {
		if ic, ok := c.s.class(ctx, iface, c.node.Namespace); ok {
			if m, ok := ic.method(ctx, name, seen); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// PropertyType returns the type of a property, looked up on parents as well. The @var tag of
// the property wins over its declared type.
func (c *Class) PropertyType(ctx context.Context, name string) (types.Type, bool) {
	seen := map[*Class]bool{}
	for current := c; current != nil && !seen[current]; {
		seen[current] = true
		for _, p := range current.node.Properties {
			if !strings.EqualFold(strings.TrimPrefix(p.Name, "$"), strings.TrimPrefix(name, "$")) {
				continue
			}
			if p.Doc != nil {
				for _, tag := range docblock.Parse(p.Doc.Text, p.Doc.Span().Start).Vars() {
					if t, err := tag.ParsedType(); err == nil {
						return types.ResolveSelf(t, current.Name()), true
					}
				}
			}
			if p.Type != nil {
				if t, err := types.Parse(p.Type.Text); err == nil {
					return types.ResolveSelf(t, current.Name()), true
				}
			}
			return types.Mixed, true
		}
		parent, ok := current.Parent(ctx)
		if !ok {
			break
		}
		current = parent
	}
	return nil, false
}

func (c *Class) String() string {
	return c.FQN()
}
