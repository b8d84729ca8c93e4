package reflection

import (
	"context"

	"docsync/internal/syntax"
	"docsync/internal/types"
)

// builtin types a call to a function of the PHP standard library.
type builtin func(ctx context.Context, f *frame, args []syntax.Expr) types.Type

// builtins is filled by init: its entries recurse into the inference engine.
var builtins = map[string]builtin{}

func init() {
	builtins["array_map"] = arrayMap
	builtins["array_values"] = arrayValues
	builtins["array_keys"] = arrayKeys
	builtins["array_merge"] = arrayMerge
	for _, name := range []string{"array_filter", "array_reverse", "array_slice", "array_unique"} {
		builtins[name] = sameAsArg(0)
	}
	for _, name := range []string{"explode", "str_split"} {
		builtins[name] = returns(types.NewList(types.String))
	}
	builtins["range"] = returns(types.NewList(types.Int))
	for _, name := range []string{
		"count", "strlen", "mb_strlen", "intval", "strpos", "abs", "time", "crc32",
		"array_sum", "array_product", "random_int", "mt_rand", "ord",
	} {
		builtins[name] = returns(types.Int)
	}
	for _, name := range []string{
		"sprintf", "implode", "join", "trim", "ltrim", "rtrim", "strtolower", "strtoupper",
		"ucfirst", "lcfirst", "ucwords", "str_replace", "str_repeat", "str_pad", "substr",
		"mb_substr", "mb_strtolower", "mb_strtoupper", "nl2br", "htmlspecialchars", "md5",
		"sha1", "uniqid", "number_format", "strval", "chr", "dirname", "basename",
		"get_class", "gettype", "spl_object_hash", "vsprintf", "strrev", "wordwrap",
	} {
		builtins[name] = returns(types.String)
	}
	for _, name := range []string{
		"in_array", "array_key_exists", "is_array", "is_string", "is_int", "is_bool",
		"is_float", "is_numeric", "is_null", "is_object", "is_callable", "is_iterable",
		"isset", "empty", "str_contains", "str_starts_with", "str_ends_with",
		"method_exists", "property_exists", "class_exists", "interface_exists",
		"file_exists", "is_file", "is_dir", "boolval", "ctype_digit", "ctype_alpha",
	} {
		builtins[name] = returns(types.Bool)
	}
	for _, name := range []string{"floatval", "round", "floor", "ceil", "microtime", "fmod", "sqrt"} {
		builtins[name] = returns(types.Float)
	}
}

func returns(t types.Type) builtin {
	return func(ctx context.Context, f *frame, args []syntax.Expr) types.Type {
		f.args(ctx, args)
		return t
	}
}

func sameAsArg(i int) builtin {
	return func(ctx context.Context, f *frame, args []syntax.Expr) types.Type {
		typed := f.args(ctx, args)
		if i >= len(typed) {
			return types.Mixed
		}
		return typed[i]
	}
}

// arrayMap maps the values of its input through the callback. String keys of a single input
// survive, every other form produces a list.
func arrayMap(ctx context.Context, f *frame, args []syntax.Expr) types.Type {
	if len(args) < 2 {
		f.args(ctx, args)
		return types.Mixed
	}
	inputs := f.args(ctx, args[1:])
	key, elem := containerOf(inputs[0])

	value := types.Mixed
	switch callback := args[0].(type) {
	case *syntax.Closure:
		elems := make([]types.Type, 0, len(inputs))
		for _, in := range inputs {
			_, e := containerOf(in)
			elems = append(elems, e)
		}
		value = f.closure(ctx, callback, elems...)
	case *syntax.Variable:
		if closure, ok := f.closures[callback.Name]; ok {
			value = f.closure(ctx, closure, elem)
		}
	case *syntax.Literal:
		if callback.Kind == syntax.LitNull {
			value = elem
		}
	}

	if len(inputs) == 1 && !types.IsMixed(key) && !types.Equal(key, types.Int) {
		return types.NewArray(key, value)
	}
	return types.NewList(value)
}

func arrayValues(ctx context.Context, f *frame, args []syntax.Expr) types.Type {
	typed := f.args(ctx, args)
	if len(typed) == 0 {
		return types.Mixed
	}
	_, value := containerOf(typed[0])
	return types.NewList(value)
}

func arrayKeys(ctx context.Context, f *frame, args []syntax.Expr) types.Type {
	typed := f.args(ctx, args)
	if len(typed) == 0 {
		return types.Mixed
	}
	key, _ := containerOf(typed[0])
	if types.IsMixed(key) {
		key = types.Union(types.Int, types.String)
	}
	return types.NewList(key)
}

// arrayMerge unions the inputs. Lists stay lists, anything keyed becomes a map.
func arrayMerge(ctx context.Context, f *frame, args []syntax.Expr) types.Type {
	typed := f.args(ctx, args)
	if len(typed) == 0 {
		return types.NewArray(types.Mixed, types.Mixed)
	}
	var keys, values []types.Type
	lists := true
	for _, t := range typed {
		if _, ok := t.(types.ListType); !ok {
			lists = false
		}
		key, value := containerOf(t)
		keys = append(keys, key)
		values = append(values, value)
	}
	if lists {
		return types.NewList(types.Union(values...))
	}
	return types.NewArray(types.Union(keys...), types.Union(values...))
}
