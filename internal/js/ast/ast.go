package ast

import "github.com/GriffinCanCode/cipherjs/internal/js/lexer"

type Position = lexer.Position

// Node is any syntax node
type Node interface {
	Pos() Position
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node
type Expr interface {
	Node
	exprNode()
}

// Scope holds the declarations hoisted to the top of a function body or of
// the program.
type Scope struct {
	Vars  []string
	Funcs []*FunctionDecl
}

// Program is a parsed source
type Program struct {
	Position
	Body []Stmt
	Scope
	Source string
}

// Statements

type Block struct {
	Position
	Body []Stmt
}

type Empty struct {
	Position
}

// VarDecl is a var, let or const statement with one or more declarators.
type VarDecl struct {
	Position
	Kind  string
	Decls []*Declarator
}

type Declarator struct {
	Position
	Name string
	Init Expr
}

type ExprStmt struct {
	Position
	X Expr
}

type If struct {
	Position
	Cond Expr
	Then Stmt
	Else Stmt
}

type For struct {
	Position
	Init   Stmt
	Cond   Expr
	Update Expr
	Body   Stmt
}

// ForIn covers for (x in obj) and for (x of list). Kind is the declaration
// keyword, empty when Target is an existing reference.
type ForIn struct {
	Position
	Kind   string
	Target Expr
	Object Expr
	Of     bool
	Body   Stmt
}

type While struct {
	Position
	Cond Expr
	Body Stmt
}

type DoWhile struct {
	Position
	Body Stmt
	Cond Expr
}

type Switch struct {
	Position
	Disc  Expr
	Cases []*Case
}

// Case is a switch clause. Test is nil for default.
type Case struct {
	Position
	Test Expr
	Body []Stmt
}

// Try has at least one of Catch and Finally. Param is empty for a bare
// catch block.
type Try struct {
	Position
	Block   *Block
	Param   string
	Catch   *Block
	Finally *Block
}

type Return struct {
	Position
	Value Expr
}

type Break struct {
	Position
	Label string
}

type Continue struct {
	Position
	Label string
}

type Throw struct {
	Position
	Value Expr
}

type Labeled struct {
	Position
	Label string
	Body  Stmt
}

type FunctionDecl struct {
	Position
	Func *FunctionLit
}

// Expressions

type LiteralKind int

const (
	NullLit LiteralKind = iota
	BoolLit
	NumberLit
	StringLit
)

// Literal holds a primitive constant by value.
type Literal struct {
	Position
	Kind LiteralKind
	Bool bool
	Num  float64
	Str  string
}

type Identifier struct {
	Position
	Name string
}

type This struct {
	Position
}

// ArrayLit elements are nil for holes.
type ArrayLit struct {
	Position
	Elems []Expr
}

type ObjectLit struct {
	Position
	Props []*Property
}

// Property is a key: value pair. Computed is set for [expr]: value.
type Property struct {
	Position
	Key      string
	Computed Expr
	Value    Expr
}

type RegexLit struct {
	Position
	Pattern string
	Flags   string
}

// FunctionLit is a function expression, declaration body or arrow function.
// Arrow functions with an expression body have Expr set and no Body.
type FunctionLit struct {
	Position
	Name   string
	Params []string
	Body   []Stmt
	Expr   Expr
	Arrow  bool
	Source string
	Scope
}

type Unary struct {
	Position
	Op string
	X  Expr
}

type Update struct {
	Position
	Op     string
	Prefix bool
	X      Expr
}

type Binary struct {
	Position
	Op    string
	Left  Expr
	Right Expr
}

type Logical struct {
	Position
	Op    string
	Left  Expr
	Right Expr
}

type Ternary struct {
	Position
	Cond Expr
	Then Expr
	Else Expr
}

// Assign is a plain or compound assignment. Target is an Identifier or a
// Member.
type Assign struct {
	Position
	Op     string
	Target Expr
	Value  Expr
}

// Sequence is the comma operator.
type Sequence struct {
	Position
	List []Expr
}

type Call struct {
	Position
	Callee Expr
	Args   []Expr
	New    bool
}

// Member is obj.name or obj[expr]. For dot access Property is an
// Identifier and Computed is false.
type Member struct {
	Position
	Object   Expr
	Property Expr
	Computed bool
	Optional bool
}

func (*Block) stmtNode()        {}
func (*Empty) stmtNode()        {}
func (*VarDecl) stmtNode()      {}
func (*ExprStmt) stmtNode()     {}
func (*If) stmtNode()           {}
func (*For) stmtNode()          {}
func (*ForIn) stmtNode()        {}
func (*While) stmtNode()        {}
func (*DoWhile) stmtNode()      {}
func (*Switch) stmtNode()       {}
func (*Try) stmtNode()          {}
func (*Return) stmtNode()       {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Throw) stmtNode()        {}
func (*Labeled) stmtNode()      {}
func (*FunctionDecl) stmtNode() {}

func (*Literal) exprNode()     {}
func (*Identifier) exprNode()  {}
func (*This) exprNode()        {}
func (*ArrayLit) exprNode()    {}
func (*ObjectLit) exprNode()   {}
func (*RegexLit) exprNode()    {}
func (*FunctionLit) exprNode() {}
func (*Unary) exprNode()       {}
func (*Update) exprNode()      {}
func (*Binary) exprNode()      {}
func (*Logical) exprNode()     {}
func (*Ternary) exprNode()     {}
func (*Assign) exprNode()      {}
func (*Sequence) exprNode()    {}
func (*Call) exprNode()        {}
func (*Member) exprNode()      {}

// IsAssignable reports whether e may appear on the left of an assignment
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *Identifier, *Member:
		return true
	default:
		return false
	}
}
