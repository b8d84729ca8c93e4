package syntax

import "docsync/internal/document"

// Expr is implemented by expression variants.
type Expr interface {
	Node
	exprNode()
}

type LiteralKind int

const (
	LitString LiteralKind = iota
	LitInt
	LitFloat
	LitBool
	LitNull
)

type Literal struct {
	Base
	Kind  LiteralKind
	Value string
}

// ArrayLit is "[...]" or "array(...)".
type ArrayLit struct {
	Base
	Elements []*ArrayElement
}

// ArrayElement has a nil Key when the element has no explicit key.
type ArrayElement struct {
	Base
	Key    Expr
	Value  Expr
	Spread bool
}

// New is an object construction. Anonymous is set for "new class {...}".
type New struct {
	Base
	Class     string
	Anonymous *Class
	Args      []Expr
}

// Call is a function call. Name is set when the callee is a plain name, Callee otherwise.
type Call struct {
	Base
	Name   string
	Callee Expr
	Args   []Expr
}

type MethodCall struct {
	Base
	Object    Expr
	Name      string
	NameRange document.Span
	Args      []Expr
	NullSafe  bool
}

// StaticCall is "Scope::name()", including self::, static:: and parent::.
type StaticCall struct {
	Base
	Scope     string
	Name      string
	NameRange document.Span
	Args      []Expr
}

type PropertyFetch struct {
	Base
	Object Expr
	Name   string
}

// ClassConst is "Scope::NAME", including "Scope::class".
type ClassConst struct {
	Base
	Scope string
	Name  string
}

// Variable keeps the leading "$".
type Variable struct {
	Base
	Name string
}

// Name is a bare constant reference.
type Name struct {
	Base
	Value string
}

// Closure is an anonymous function or an arrow function. Arrow functions carry Result,
// anonymous functions carry Body.
type Closure struct {
	Base
	Arrow      bool
	Static     bool
	Params     []*Param
	Uses       []string
	ReturnType *TypeHint
	Body       *Block
	Result     Expr
}

type Assign struct {
	Base
	Target Expr
	Op     string
	Value  Expr
}

// Ternary has a nil Then for the short "a ?: b" form.
type Ternary struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

type Binary struct {
	Base
	Op    string
	Left  Expr
	Right Expr
}

type Unary struct {
	Base
	Op      string
	Operand Expr
}

type Cast struct {
	Base
	Type    string
	Operand Expr
}

type Yield struct {
	Base
	Value Expr
}

// Invalid is the placeholder for a fragment the parser could not recover.
type Invalid struct {
	Base
	Text string
}

// Unknown is a well-formed expression kind the engine does not model.
type Unknown struct {
	Base
	Kind     string
	Children []Expr
}

func (*Literal) exprNode()       {}
func (*ArrayLit) exprNode()      {}
func (*New) exprNode()           {}
func (*Call) exprNode()          {}
func (*MethodCall) exprNode()    {}
func (*StaticCall) exprNode()    {}
func (*PropertyFetch) exprNode() {}
func (*ClassConst) exprNode()    {}
func (*Variable) exprNode()      {}
func (*Name) exprNode()          {}
func (*Closure) exprNode()       {}
func (*Assign) exprNode()        {}
func (*Ternary) exprNode()       {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*Cast) exprNode()          {}
func (*Yield) exprNode()         {}
func (*Invalid) exprNode()       {}
func (*Unknown) exprNode()       {}
