package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/types"
)

func parse(t *testing.T, expr string) types.Type {
	t.Helper()
	if expr == "" {
		return nil
	}
	typ, err := types.Parse(expr)
	require.NoError(t, err)
	return typ
}

func TestDecide_NoAnnotation(t *testing.T) {
	tests := []struct {
		name     string
		hint     string
		inferred types.Type
		action   Action
	}{
		{"array shape refines array", "array", types.NewArray(types.String, types.String), Insert},
		{"list refines array", "array", types.NewList(types.Null), Insert},
		{"bare array adds nothing", "array", types.NewArray(types.Mixed, types.Mixed), NoOp},
		{"scalar matching the hint", "string", types.String, NoOp},
		{"subclass of the hint", "Foo", types.NewClass("ConcreteFoo"), NoOp},
		{"generics the hint cannot express", "Foo", types.NewClass("ConcreteFoo", types.NewClass("Baz")), Insert},
		{"narrower union", "string|int|null", types.Union(types.String, types.Null), Insert},
		{"same union", "string|null", types.Union(types.String, types.Null), NoOp},
		{"no hint", "", types.String, Insert},
		{"mixed inference", "", types.Mixed, NoOp},
		{"void inference", "", types.Void, NoOp},
		{"incompatible inference", "string", types.Int, NoOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(Input{Hint: parse(t, tt.hint), Inferred: tt.inferred})
			assert.Equal(t, tt.action, d.Action)
			if tt.action != NoOp {
				assert.True(t, types.Equal(tt.inferred, d.Type))
			}
		})
	}
}

func TestDecide_Annotation(t *testing.T) {
	tests := []struct {
		name       string
		annotation string
		inferred   types.Type
		action     Action
	}{
		{"equal", "array<string,Baz>", types.NewArray(types.String, types.NewClass("Baz")), NoOp},
		{"more precise than the inference", "ConcreteFoo<Baz>", types.NewClass("ConcreteFoo"), NoOp},
		{"less precise", "array", types.NewArray(types.String, types.String), Replace},
		{"stale", "string", types.Int, Replace},
		{"missing union member", "string", types.Union(types.String, types.Null), Replace},
		{"generic arguments of another class", "Set<Bar>", types.NewClass("Collection", types.NewClass("Foo")), Replace},
		{"mixed inference keeps anything", "Foo", types.Mixed, NoOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(Input{
				Hint:       types.NewArray(types.Mixed, types.Mixed),
				Annotation: &Annotation{Type: parse(t, tt.annotation)},
				Inferred:   tt.inferred,
			})
			assert.Equal(t, tt.action, d.Action)
		})
	}

	t.Run("malformed annotation is replaced", func(t *testing.T) {
		d := Decide(Input{Annotation: &Annotation{Malformed: true}, Inferred: types.String})
		assert.Equal(t, Replace, d.Action)
		assert.Equal(t, "string", d.Type.String())
	})

	t.Run("malformed annotation with nothing inferred", func(t *testing.T) {
		d := Decide(Input{Annotation: &Annotation{Malformed: true}, Inferred: types.Mixed})
		assert.Equal(t, NoOp, d.Action)
	})
}

func TestDecide_UnresolvedBranches(t *testing.T) {
	inferred := types.Union(types.Mixed, types.NewArray(types.String, types.String))

	t.Run("hint bounds the unresolved branch", func(t *testing.T) {
		d := Decide(Input{Hint: parse(t, "array"), Inferred: inferred})
		assert.Equal(t, Insert, d.Action)
		assert.Equal(t, "array<string,string>", d.Type.String())
	})

	t.Run("annotation of the resolved branches is kept", func(t *testing.T) {
		d := Decide(Input{
			Hint:       parse(t, "array"),
			Annotation: &Annotation{Type: parse(t, "array<string,string>")},
			Inferred:   inferred,
		})
		assert.Equal(t, NoOp, d.Action)
	})

	t.Run("stale annotation is replaced by the resolved branches", func(t *testing.T) {
		d := Decide(Input{
			Hint:       parse(t, "array"),
			Annotation: &Annotation{Type: parse(t, "int[]")},
			Inferred:   inferred,
		})
		assert.Equal(t, Replace, d.Action)
		assert.Equal(t, "array<string,string>", d.Type.String())
	})

	t.Run("without a hint the return type stays unknown", func(t *testing.T) {
		d := Decide(Input{Inferred: inferred})
		assert.Equal(t, NoOp, d.Action)
		d = Decide(Input{Hint: types.Mixed, Inferred: inferred})
		assert.Equal(t, NoOp, d.Action)
	})
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "noop", NoOp.String())
	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "replace", Replace.String())
}
