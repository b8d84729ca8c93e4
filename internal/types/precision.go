package types

import "strings"

// Covers reports whether declared already describes inferred with equal or more
// information. Mixed parts of inferred never add information. A plain class instance is
// covered by any declared class: documenting a subtype is not required, generic arguments
// are, and only a class of the same name carries them.
func Covers(declared, inferred Type) bool {
	if IsMixed(inferred) {
		return true
	}
	if declared == nil {
		return false
	}
	if Equal(declared, inferred) {
		return true
	}
	if IsMixed(declared) {
		return false
	}

	if u, ok := inferred.(UnionType); ok {
		for _, m := range u.members {
			if !Covers(declared, m) {
				return false
			}
		}
		return true
	}
	if u, ok := declared.(UnionType); ok {
		for _, m := range u.members {
			if Covers(m, inferred) {
				return true
			}
		}
		return false
	}

	switch i := inferred.(type) {
	case ClassType:
		switch d := declared.(type) {
		case ClassType:
			if len(i.Generics) == 0 {
				return true
			}
			if len(d.Generics) == 0 {
				return false
			}
			if !strings.EqualFold(d.Name, i.Name) {
				return false
			}
			if len(d.Generics) != len(i.Generics) {
				return true
			}
			for n := range i.Generics {
				if !Covers(d.Generics[n], i.Generics[n]) {
					return false
				}
			}
			return true
		case ScalarType:
			return len(i.Generics) == 0 && (d.Kind == ScalarObject || d.Kind == ScalarCallable)
		}
	case ArrayType:
		return coversContainer(declared, i.Key, i.Value)
	case ListType:
		return coversContainer(declared, Int, i.Elem)
	}
	return false
}

func coversContainer(declared Type, key, value Type) bool {
	switch d := declared.(type) {
	case ArrayType:
		return (IsMixed(d.Key) || Covers(d.Key, key)) && Covers(d.Value, value)
	case ListType:
		return Covers(Int, key) && Covers(d.Elem, value)
	case ClassType:
		if isIterableClass(d.Name) && len(d.Generics) > 0 {
			return Covers(d.Generics[len(d.Generics)-1], value)
		}
	}
	return false
}

// Refines reports whether inferred adds information to a bare declared hint while staying
// compatible with it: array key/value shape, generic arguments, a narrower union, or any
// information at all when hint is nil.
func Refines(hint, inferred Type) bool {
	if IsMixed(inferred) {
		return false
	}
	if hint == nil {
		return true
	}
	if Covers(hint, inferred) {
		u, ok := hint.(UnionType)
		return ok && len(Members(inferred)) < len(u.members)
	}
	return compatible(hint, inferred)
}

func compatible(hint, inferred Type) bool {
	if Equal(hint, inferred) || IsMixed(hint) {
		return true
	}
	if u, ok := inferred.(UnionType); ok {
		for _, m := range u.members {
			if !compatible(hint, m) {
				return false
			}
		}
		return true
	}
	if u, ok := hint.(UnionType); ok {
		for _, m := range u.members {
			if compatible(m, inferred) {
				return true
			}
		}
		return false
	}

	switch inferred.(type) {
	case ClassType:
		switch h := hint.(type) {
		case ClassType:
			return true
		case ScalarType:
			return h.Kind == ScalarObject || h.Kind == ScalarIterable || h.Kind == ScalarCallable
		}
	case ArrayType, ListType:
		switch h := hint.(type) {
		case ArrayType, ListType:
			return true
		case ScalarType:
			return h.Kind == ScalarIterable
		case ClassType:
			return isIterableClass(h.Name)
		}
	}
	return false
}

func isIterableClass(name string) bool {
	switch strings.ToLower(strings.TrimPrefix(name, `\`)) {
	case "iterable", "traversable", "iterator", "iteratoraggregate", "generator":
		return true
	}
	return false
}
