package syntax

// Stmt is implemented by statement variants.
type Stmt interface {
	Node
	stmtNode()
}

type Block struct {
	Base
	Stmts []Stmt
}

// Return has a nil Value for a bare "return;".
type Return struct {
	Base
	Value Expr
}

type ExprStmt struct {
	Base
	X Expr
}

// If holds the condition, the main body and every elseif/else body in source order.
type If struct {
	Base
	Cond         Expr
	Body         Stmt
	Alternatives []Stmt
}

// ClassDecl is a class-like declared in statement position.
type ClassDecl struct {
	Base
	Class *Class
}

// FunctionDecl is a named function declared in statement position.
type FunctionDecl struct {
	Base
	Function *Function
}

// Compound is any other statement. Body keeps the nested statements that were recognised
// (loop bodies, try/catch/finally blocks, switch cases).
type Compound struct {
	Base
	Kind string
	Body []Stmt
}

func (*Block) stmtNode()        {}
func (*Return) stmtNode()       {}
func (*ExprStmt) stmtNode()     {}
func (*If) stmtNode()           {}
func (*ClassDecl) stmtNode()    {}
func (*FunctionDecl) stmtNode() {}
func (*Compound) stmtNode()     {}
func (*Comment) stmtNode()      {}
