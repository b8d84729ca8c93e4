// Package reconcile decides how the @return annotation of a method must change so that it
// documents what the body actually returns.
package reconcile

import (
	"docsync/internal/types"
)

// Action is the outcome of a reconciliation.
type Action int

const (
	// NoOp leaves the method untouched.
	NoOp Action = iota
	// Insert adds a @return annotation to a method that has none.
	Insert
	// Replace rewrites the existing @return annotation.
	Replace
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	default:
		return "noop"
	}
}

// Annotation is the @return tag found on a method.
type Annotation struct {
	// Type is the parsed annotation, nil when Malformed.
	Type types.Type
	// Malformed is set when the tag exists but its type expression does not parse.
	Malformed bool
}

// Input gathers what is known about one method.
type Input struct {
	// Hint is the declared return type of the signature, nil when absent.
	Hint types.Type
	// Annotation is the existing @return tag, nil when absent.
	Annotation *Annotation
	// Inferred is the type inferred from the body.
	Inferred types.Type
}

// Decision is an Action plus the type to write for Insert and Replace.
type Decision struct {
	Action Action
	Type   types.Type
}

// Decide reconciles the declared hint and the existing annotation of a method with its
// inferred return type:
//   - nothing inferred, mixed or void never produces an edit;
//   - unresolved (mixed) branches are bounded by the declared hint, so only the resolved
//     branches are documented; without a hint they leave the return type unknown;
//   - a malformed annotation is replaced;
//   - an annotation describing the inference with equal or more precision is kept, any other
//     annotation is replaced;
//   - without annotation, one is inserted when the inference refines the hint.
func Decide(in Input) Decision {
	inferred := in.Inferred
	if inferred == nil || types.IsMixed(inferred) || types.IsVoid(inferred) {
		return Decision{Action: NoOp}
	}
	if types.HasMixed(inferred) {
		if in.Hint == nil || types.IsMixed(in.Hint) {
			return Decision{Action: NoOp}
		}
		inferred = types.WithoutMixed(inferred)
	}

	if in.Annotation != nil {
		if in.Annotation.Malformed || in.Annotation.Type == nil {
			return Decision{Action: Replace, Type: inferred}
		}
		if types.Covers(in.Annotation.Type, inferred) {
			return Decision{Action: NoOp}
		}
		return Decision{Action: Replace, Type: inferred}
	}

	if types.Refines(in.Hint, inferred) {
		return Decision{Action: Insert, Type: inferred}
	}
	return Decision{Action: NoOp}
}
