package types

// Union merges branch types into one simplified type:
//   - nested unions are flattened and nil members ignored;
//   - void next to other members degrades to null;
//   - structural duplicates are dropped, keeping first-seen order;
//   - arrays and lists sharing one key/value shape collapse into the first of them;
//   - a single remaining member is returned unwrapped.
//
// Union of nothing is mixed.
func Union(ts ...Type) Type {
	var flat []Type
	for _, t := range ts {
		switch v := t.(type) {
		case nil:
			continue
		case UnionType:
			flat = append(flat, v.members...)
		default:
			flat = append(flat, t)
		}
	}
	if len(flat) == 0 {
		return Mixed
	}

	hasNonVoid := false
	for _, t := range flat {
		if !IsVoid(t) {
			hasNonVoid = true
			break
		}
	}

	seen := make(map[string]bool, len(flat))
	members := make([]Type, 0, len(flat))
	for _, t := range flat {
		if hasNonVoid && IsVoid(t) {
			t = Null
		}
		key := t.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		members = append(members, t)
	}

	if len(members) > 1 && sameContainerShape(members) {
		return members[0]
	}
	if len(members) == 1 {
		return members[0]
	}
	return UnionType{members: members}
}

// sameContainerShape reports whether every member is an array or list with one key/value shape.
func sameContainerShape(members []Type) bool {
	var key, value string
	for i, m := range members {
		k, v, ok := containerShape(m)
		if !ok {
			return false
		}
		if i == 0 {
			key, value = k, v
			continue
		}
		if k != key || v != value {
			return false
		}
	}
	return true
}

func containerShape(t Type) (key, value string, ok bool) {
	switch v := t.(type) {
	case ArrayType:
		return v.Key.String(), v.Value.String(), true
	case ListType:
		return Int.String(), v.Elem.String(), true
	}
	return "", "", false
}
