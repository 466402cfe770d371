// Package syntax defines the procedure-level syntax tree consumed by the graph analyses.
// It is a closed set of statement and expression node types; every node carries the
// source range it was parsed from so that labels can be sliced from the original text.
package syntax

// Pos is a position in source text. Line and Column are 1-based, Offset is a byte offset.
type Pos struct {
	Line   int `json:"line" msgpack:"line"`
	Column int `json:"column" msgpack:"column"`
	Offset int `json:"offset" msgpack:"offset"`
}

// Range is a half-open byte range [Start.Offset, End.Offset) with line/column bounds.
type Range struct {
	Start Pos `json:"start" msgpack:"start"`
	End   Pos `json:"end" msgpack:"end"`
}

// Span returns the range itself so that embedding Range satisfies Node.Span.
func (r Range) Span() Range { return r }

// Node is any element of the syntax tree.
type Node interface {
	Span() Range
	node()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Method is a procedure declaration: the root handed to the analyses.
type Method struct {
	Range
	Name   *Ident
	Params []*Param
	Body   *Block
}

// Param is a formal parameter.
type Param struct {
	Range
	Type string
	Name *Ident
}

// Declarator is one `name = init` part of a variable declaration. Init may be nil.
type Declarator struct {
	Range
	Name *Ident
	Init Expr
}

// Statements.
type (
	Block struct {
		Range
		Stmts []Stmt
	}

	ExprStmt struct {
		Range
		X Expr
	}

	If struct {
		Range
		Cond Expr
		Then Stmt
		Else Stmt // nil when absent
	}

	While struct {
		Range
		Cond Expr
		Body Stmt
	}

	For struct {
		Range
		Init   []Stmt
		Cond   Expr // nil means "true"
		Update []Stmt
		Body   Stmt
	}

	Return struct {
		Range
		Result Expr // nil for a bare return
	}

	Break struct {
		Range
		Label string
	}

	Continue struct {
		Range
		Label string
	}

	VarDecl struct {
		Range
		Type  string
		Decls []*Declarator
	}

	Labeled struct {
		Range
		Label string
		Body  Stmt
	}

	// OtherStmt is any statement without a dedicated node type (switch, try, do...).
	OtherStmt struct {
		Range
		Kind string
	}
)

// Expressions.
type (
	Assign struct {
		Range
		Target Expr
		Op     string // "=", "+=", "-=", ...
		Value  Expr
	}

	Binary struct {
		Range
		X  Expr
		Op string
		Y  Expr
	}

	// Unary covers prefix operators and ++/-- in both positions.
	Unary struct {
		Range
		Op      string
		X       Expr
		Postfix bool
	}

	Call struct {
		Range
		Recv Expr // nil for an unqualified call
		Name *Ident
		Args []Expr
	}

	FieldAccess struct {
		Range
		X     Expr
		Field *Ident
	}

	// Index is an array access X[Index].
	Index struct {
		Range
		X     Expr
		Index Expr
	}

	// NewArray is an array creation expression; Dims holds the sized dimensions.
	NewArray struct {
		Range
		Type string
		Dims []Expr
	}

	NewObject struct {
		Range
		Type string
		Args []Expr
	}

	Paren struct {
		Range
		X Expr
	}

	Conditional struct {
		Range
		Cond Expr
		Then Expr
		Else Expr
	}

	Cast struct {
		Range
		Type string
		X    Expr
	}

	// Ident is a simple identifier; used both as a name reference and as a declared name.
	Ident struct {
		Range
		Name string
	}

	Literal struct {
		Range
		Value string
	}

	// OtherExpr is an opaque expression (lambda, this, instanceof...).
	OtherExpr struct {
		Range
		Kind string
	}
)

func (*Method) node()     {}
func (*Param) node()      {}
func (*Declarator) node() {}

func (*Block) node()     {}
func (*ExprStmt) node()  {}
func (*If) node()        {}
func (*While) node()     {}
func (*For) node()       {}
func (*Return) node()    {}
func (*Break) node()     {}
func (*Continue) node()  {}
func (*VarDecl) node()   {}
func (*Labeled) node()   {}
func (*OtherStmt) node() {}

func (*Block) stmt()     {}
func (*ExprStmt) stmt()  {}
func (*If) stmt()        {}
func (*While) stmt()     {}
func (*For) stmt()       {}
func (*Return) stmt()    {}
func (*Break) stmt()     {}
func (*Continue) stmt()  {}
func (*VarDecl) stmt()   {}
func (*Labeled) stmt()   {}
func (*OtherStmt) stmt() {}

func (*Assign) node()      {}
func (*Binary) node()      {}
func (*Unary) node()       {}
func (*Call) node()        {}
func (*FieldAccess) node() {}
func (*Index) node()       {}
func (*NewArray) node()    {}
func (*NewObject) node()   {}
func (*Paren) node()       {}
func (*Conditional) node() {}
func (*Cast) node()        {}
func (*Ident) node()       {}
func (*Literal) node()     {}
func (*OtherExpr) node()   {}

func (*Assign) expr()      {}
func (*Binary) expr()      {}
func (*Unary) expr()       {}
func (*Call) expr()        {}
func (*FieldAccess) expr() {}
func (*Index) expr()       {}
func (*NewArray) expr()    {}
func (*NewObject) expr()   {}
func (*Paren) expr()       {}
func (*Conditional) expr() {}
func (*Cast) expr()        {}
func (*Ident) expr()       {}
func (*Literal) expr()     {}
func (*OtherExpr) expr()   {}

// IsCompound reports whether the assignment operator also reads its target (`+=` etc).
func (a *Assign) IsCompound() bool {
	return a.Op != "" && a.Op != "="
}

// BinaryOp returns the arithmetic operator of a compound assignment ("+" for "+=").
func (a *Assign) BinaryOp() string {
	if !a.IsCompound() {
		return ""
	}
	return a.Op[:len(a.Op)-1]
}

// IsIncDec reports whether the operator is an increment or decrement.
func (u *Unary) IsIncDec() bool {
	return u.Op == "++" || u.Op == "--"
}

// Unparen strips any number of enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}

// BaseIdent returns the variable an access path is rooted at: `a` for `a[i][j]`,
// `p` for `p.x.y`. It returns nil when the root is not a plain identifier.
func BaseIdent(e Expr) *Ident {
	for {
		switch x := e.(type) {
		case *Ident:
			return x
		case *Index:
			e = x.X
		case *FieldAccess:
			e = x.X
		case *Paren:
			e = x.X
		default:
			return nil
		}
	}
}
