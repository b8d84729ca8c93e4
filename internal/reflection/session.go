package reflection

import (
	"context"
	"fmt"
	"strings"

	"docsync/internal/document"
	"docsync/internal/syntax"
	"docsync/internal/types"
)

// methodKey identifies a method for the recursion guard.
type methodKey struct {
	uri    document.URI
	class  string
	method string
}

// session is the per-call view of one document.
type session struct {
	r    *Reflector
	doc  document.Document
	file *syntax.File

	files      map[document.URI]*syntax.File
	lookups    map[string]*Class
	views      map[*syntax.Class]*Class
	inferred   map[methodKey]types.Type
	inProgress map[methodKey]bool
}

func newSession(r *Reflector, doc document.Document, file *syntax.File) *session {
	return &session{
		r:          r,
		doc:        doc,
		file:       file,
		files:      map[document.URI]*syntax.File{doc.URI(): file},
		lookups:    make(map[string]*Class),
		views:      make(map[*syntax.Class]*Class),
		inferred:   make(map[methodKey]types.Type),
		inProgress: make(map[methodKey]bool),
	}
}

func (s *session) classesIn(uri document.URI, file *syntax.File) []*Class {
	out := make([]*Class, 0, len(file.Classes))
	for _, node := range file.Classes {
		out = append(out, s.view(uri, node))
	}
	return out
}

func (s *session) view(uri document.URI, node *syntax.Class) *Class {
	if c, ok := s.views[node]; ok {
		return c
	}
	c := &Class{s: s, uri: uri, node: node}
	s.views[node] = c
	return c
}

// parse returns the syntax tree of uri, loading it through the locator when it is not the
// reflected document.
func (s *session) parse(ctx context.Context, uri document.URI) (*syntax.File, bool) {
	if file, ok := s.files[uri]; ok {
		return file, file != nil
	}
	s.files[uri] = nil
	if s.r.locator == nil {
		return nil, false
	}
	doc, err := s.r.locator.Get(ctx, uri)
	if err != nil {
		log.Debugf("cannot load %s: %s", uri, err)
		return nil, false
	}
	file, err := s.r.parser.Parse(ctx, doc)
	if err != nil {
		log.Debugf("cannot parse %s: %s", uri, err)
		return nil, false
	}
	s.files[uri] = file
	return file, true
}

// class resolves a class name as written in namespace. Misses are memoized too.
func (s *session) class(ctx context.Context, name, namespace string) (*Class, bool) {
	name = strings.TrimPrefix(name, `\`)
	if name == "" {
		return nil, false
	}
	memo := strings.ToLower(namespace + "|" + name)
	if c, ok := s.lookups[memo]; ok {
		return c, c != nil
	}

	c := s.findClass(ctx, name, namespace)
	s.lookups[memo] = c
	if c == nil {
		log.Debugf("unresolved class %s", name)
	}
	return c, c != nil
}

func (s *session) findClass(ctx context.Context, name, namespace string) *Class {
	candidates := []string{name}
	if namespace != "" && !strings.Contains(name, `\`) {
		candidates = []string{namespace + `\` + name, name}
	}

	for _, candidate := range candidates {
		if c := s.declaredIn(s.doc.URI(), s.file, candidate); c != nil {
			return c
		}
	}
	// Short names still match declarations of the reflected document in other namespaces.
	if !strings.Contains(name, `\`) {
		for _, node := range s.file.Classes {
			if strings.EqualFold(node.Name, name) {
				return s.view(s.doc.URI(), node)
			}
		}
	}

	if s.r.classes == nil {
		return nil
	}
	for _, candidate := range candidates {
		uri, ok := s.r.classes.LocateClass(ctx, candidate)
		if !ok {
			continue
		}
		file, ok := s.parse(ctx, uri)
		if !ok {
			continue
		}
		if c := s.declaredIn(uri, file, candidate); c != nil {
			return c
		}
	}
	return nil
}

func (s *session) declaredIn(uri document.URI, file *syntax.File, fqn string) *Class {
	for _, node := range file.Classes {
		if node.Kind == syntax.KindAnonymous {
			continue
		}
		if strings.EqualFold(qualified(node.Namespace, node.Name), fqn) {
			return s.view(uri, node)
		}
	}
	return nil
}

func (s *session) function(name string) (*syntax.Function, bool) {
	name = strings.TrimPrefix(name, `\`)
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	for _, fn := range s.file.Functions {
		if strings.EqualFold(fn.Name, name) {
			return fn, true
		}
	}
	return nil, false
}

func qualified(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

func (k methodKey) String() string {
	return fmt.Sprintf("%s#%s::%s", k.uri, k.class, k.method)
}
