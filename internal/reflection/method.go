package reflection

import (
	"context"
	"strings"

	"docsync/internal/docblock"
	"docsync/internal/document"
	"docsync/internal/syntax"
	"docsync/internal/types"
)

var magicMethods = map[string]bool{
	"__construct": true,
	"__destruct":  true,
	"__clone":     true,
}

// Method is a lazily resolved method of a Class.
type Method struct {
	class *Class
	node  *syntax.Method
}

func (m *Method) Name() string {
	return m.node.Name
}

func (m *Method) Class() *Class {
	return m.class
}

func (m *Method) Node() *syntax.Method {
	return m.node
}

// Span covers the method declaration, docblock excluded.
func (m *Method) Span() document.Span {
	return m.node.Span()
}

// HasBody is false for abstract and interface methods.
func (m *Method) HasBody() bool {
	return m.node.Body != nil
}

// IsGenerator reports whether the body yields.
func (m *Method) IsGenerator() bool {
	return syntax.ContainsYield(m.node.Body)
}

// IsMagic reports lifecycle methods (__construct, __destruct, __clone).
func (m *Method) IsMagic() bool {
	return magicMethods[strings.ToLower(m.node.Name)]
}

func (m *Method) Docblock() docblock.Docblock {
	if m.node.Doc == nil {
		return docblock.Empty()
	}
	return docblock.Parse(m.node.Doc.Text, m.node.Doc.Span().Start)
}

// ReturnHint returns the declared return type of the signature.
func (m *Method) ReturnHint() (types.Type, bool) {
	if m.node.ReturnType == nil {
		return nil, false
	}
	t, err := types.Parse(m.node.ReturnType.Text)
	if err != nil {
		log.Debugf("unparseable return type %q on %s::%s", m.node.ReturnType.Text, m.class.Name(), m.Name())
		return nil, false
	}
	return m.resolveSelf(t), true
}

// ReturnTag returns the @return tag of the docblock.
func (m *Method) ReturnTag() (docblock.Tag, bool) {
	return m.Docblock().Return()
}

// DocReturnType returns the well-formed @return type.
func (m *Method) DocReturnType() (types.Type, bool) {
	tag, ok := m.ReturnTag()
	if !ok {
		return nil, false
	}
	t, err := tag.ParsedType()
	if err != nil {
		return nil, false
	}
	return m.resolveSelf(t), true
}

// resolveSelf binds self references to the declaring class. Anonymous classes have no name
// to bind, so their references stay as written.
func (m *Method) resolveSelf(t types.Type) types.Type {
	if m.class.Kind() == syntax.KindAnonymous {
		return t
	}
	return types.ResolveSelf(t, m.class.Name())
}

// InferredReturnType infers the type of the value returned by the body. ok is false when
// nothing can be inferred: the method has no body or it is a generator.
func (m *Method) InferredReturnType(ctx context.Context) (types.Type, bool) {
	if !m.HasBody() || m.IsGenerator() {
		return nil, false
	}
	return m.class.s.inferMethod(ctx, m), true
}

// ReturnType is the best known return type for callers: the documented type, then the
// fully resolved inferred type, then the signature, then whatever was inferred.
func (m *Method) ReturnType(ctx context.Context) types.Type {
	if t, ok := m.DocReturnType(); ok {
		return t
	}
	inferred, inferredOK := m.InferredReturnType(ctx)
	if inferredOK && !types.HasMixed(inferred) {
		return inferred
	}
	if t, ok := m.ReturnHint(); ok {
		return t
	}
	if inferredOK {
		return inferred
	}
	return types.Mixed
}

func (m *Method) key() methodKey {
	return methodKey{uri: m.class.uri, class: m.class.id(), method: strings.ToLower(m.node.Name)}
}

func (m *Method) String() string {
	return m.class.Name() + "::" + m.Name()
}
