package jast

// Pos locates a node in the unit's source text. Start and End are byte
// offsets (End exclusive); Line is 1-based and 0 when unknown.
type Pos struct {
	Line  int
	Start int
	End   int
}

// Position returns p; embedding Pos gives every node its position.
func (p Pos) Position() Pos { return p }

// Node is the base interface for all tree nodes
type Node interface {
	Position() Pos
}

// Expr is the interface for expressions
type Expr interface {
	Node
	implExpr()
	ExprType() *TypeBinding
}

// Stmt is the interface for statements
type Stmt interface {
	Node
	implStmt()
}

// Operator is a source-language operator token such as "+" or ">>>=".
type Operator string

const (
	OpAdd    Operator = "+"
	OpSub    Operator = "-"
	OpMul    Operator = "*"
	OpDiv    Operator = "/"
	OpRem    Operator = "%"
	OpShl    Operator = "<<"
	OpShr    Operator = ">>"
	OpUshr   Operator = ">>>"
	OpAnd    Operator = "&"
	OpOr     Operator = "|"
	OpXor    Operator = "^"
	OpLAnd   Operator = "&&"
	OpLOr    Operator = "||"
	OpEq     Operator = "=="
	OpNe     Operator = "!="
	OpLt     Operator = "<"
	OpGt     Operator = ">"
	OpLe     Operator = "<="
	OpGe     Operator = ">="
	OpNot    Operator = "!"
	OpCompl  Operator = "~"
	OpInc    Operator = "++"
	OpDec    Operator = "--"
	OpAssign Operator = "="
)

// Compound returns the binary operator of a compound assignment ("+=" -> "+").
// ok is false for plain assignment.
func (op Operator) Compound() (Operator, bool) {
	if op == OpAssign || len(op) < 2 || op[len(op)-1] != '=' {
		return "", false
	}
	switch bin := op[:len(op)-1]; bin {
	case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpShl, OpShr, OpUshr, OpAnd, OpOr, OpXor:
		return bin, true
	}
	return "", false
}

// IsComparison reports whether op yields a boolean from its operands.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe, OpLAnd, OpLOr:
		return true
	}
	return false
}

// --- Expressions ---

// NullLit is the null literal
type NullLit struct {
	Pos
}

// BoolLit is true or false
type BoolLit struct {
	Pos
	Value bool
}

// CharLit is a character literal
type CharLit struct {
	Pos
	Value rune
}

// NumberLit is a numeric literal kept as written, e.g. "10L" or "0x1F"
type NumberLit struct {
	Pos
	Token string
	Typ   *TypeBinding
}

// StringLit is a string literal holding its decoded value
type StringLit struct {
	Pos
	Value string
}

// SimpleName refers to a variable by its bare identifier
type SimpleName struct {
	Pos
	Var *VariableBinding
}

// QualifiedName is a dotted name whose last segment is a variable,
// e.g. "other.count" or "Config.DEFAULT"
type QualifiedName struct {
	Pos
	Qualifier Expr
	Var       *VariableBinding
}

// FieldAccess reads a field through an arbitrary expression, e.g. "f().x"
type FieldAccess struct {
	Pos
	X     Expr
	Var   *VariableBinding
	Super bool // super.x
}

// TypeName names a type in expression position (static member qualifier)
type TypeName struct {
	Pos
	Type *TypeBinding
}

// ThisExpr is "this" or "Outer.this"
type ThisExpr struct {
	Pos
	Qualifier *TypeBinding // nil for the unqualified form
	Typ       *TypeBinding
}

// ArrayAccess is arr[index]
type ArrayAccess struct {
	Pos
	Array Expr
	Index Expr
}

// ArrayLength is arr.length
type ArrayLength struct {
	Pos
	Array Expr
}

// ArrayCreation is new T[n]... or new T[] {...}
type ArrayCreation struct {
	Pos
	Typ  *TypeBinding // the created array type
	Dims []Expr
	Init *ArrayInit
}

// ArrayInit is a brace-enclosed array initializer
type ArrayInit struct {
	Pos
	Typ   *TypeBinding
	Elems []Expr
}

// MethodCall invokes a method. Receiver is nil for unqualified calls; a
// TypeName receiver denotes a static call.
type MethodCall struct {
	Pos
	Receiver Expr
	Method   *MethodBinding
	Args     []Expr
	Super    bool
}

// New constructs an instance. Body is set for anonymous classes.
type New struct {
	Pos
	Typ   *TypeBinding
	Ctor  *MethodBinding
	Args  []Expr
	Outer Expr // explicit outer instance, outer.new Inner()
	Body  *TypeDecl
}

// Binary is an infix expression; Extended holds further operands of a
// left-associative chain of the same operator.
type Binary struct {
	Pos
	Op       Operator
	Left     Expr
	Right    Expr
	Extended []Expr
	Typ      *TypeBinding
}

// Operands returns the full operand chain of b.
func (b *Binary) Operands() []Expr {
	ops := make([]Expr, 0, 2+len(b.Extended))
	ops = append(ops, b.Left, b.Right)
	return append(ops, b.Extended...)
}

// Unary is a prefix expression (-x, !x, ~x, ++x, --x)
type Unary struct {
	Pos
	Op      Operator
	Operand Expr
	Typ     *TypeBinding
}

// Postfix is x++ or x--
type Postfix struct {
	Pos
	Op      Operator
	Operand Expr
	Typ     *TypeBinding
}

// Conditional is cond ? then : else
type Conditional struct {
	Pos
	Cond Expr
	Then Expr
	Else Expr
	Typ  *TypeBinding
}

// Assign is a simple or compound assignment
type Assign struct {
	Pos
	Op  Operator
	LHS Expr
	RHS Expr
}

// Cast is (T) x
type Cast struct {
	Pos
	Typ *TypeBinding
	X   Expr
}

// InstanceOf is x instanceof T
type InstanceOf struct {
	Pos
	X      Expr
	Target *TypeBinding
}

// ClassLit is T.class
type ClassLit struct {
	Pos
	Target *TypeBinding
}

// Paren is a parenthesized expression
type Paren struct {
	Pos
	X Expr
}

// VarDeclExpr declares variables in expression position (for-loop init)
type VarDeclExpr struct {
	Pos
	Fragments []*VarFragment
}

func (*NullLit) implExpr()       {}
func (*BoolLit) implExpr()       {}
func (*CharLit) implExpr()       {}
func (*NumberLit) implExpr()     {}
func (*StringLit) implExpr()     {}
func (*SimpleName) implExpr()    {}
func (*QualifiedName) implExpr() {}
func (*FieldAccess) implExpr()   {}
func (*TypeName) implExpr()      {}
func (*ThisExpr) implExpr()      {}
func (*ArrayAccess) implExpr()   {}
func (*ArrayLength) implExpr()   {}
func (*ArrayCreation) implExpr() {}
func (*ArrayInit) implExpr()     {}
func (*MethodCall) implExpr()    {}
func (*New) implExpr()           {}
func (*Binary) implExpr()        {}
func (*Unary) implExpr()         {}
func (*Postfix) implExpr()       {}
func (*Conditional) implExpr()   {}
func (*Assign) implExpr()        {}
func (*Cast) implExpr()          {}
func (*InstanceOf) implExpr()    {}
func (*ClassLit) implExpr()      {}
func (*Paren) implExpr()         {}
func (*VarDeclExpr) implExpr()   {}

func (*NullLit) ExprType() *TypeBinding     { return NullType }
func (*BoolLit) ExprType() *TypeBinding     { return PrimitiveType(Boolean) }
func (*CharLit) ExprType() *TypeBinding     { return PrimitiveType(Char) }
func (e *NumberLit) ExprType() *TypeBinding { return e.Typ }
func (*StringLit) ExprType() *TypeBinding   { return String }
func (e *SimpleName) ExprType() *TypeBinding {
	return e.Var.Type
}
func (e *QualifiedName) ExprType() *TypeBinding { return e.Var.Type }
func (e *FieldAccess) ExprType() *TypeBinding   { return e.Var.Type }
func (e *TypeName) ExprType() *TypeBinding      { return e.Type }
func (e *ThisExpr) ExprType() *TypeBinding      { return e.Typ }
func (e *ArrayAccess) ExprType() *TypeBinding   { return e.Array.ExprType().Elem }
func (*ArrayLength) ExprType() *TypeBinding     { return PrimitiveType(Int) }
func (e *ArrayCreation) ExprType() *TypeBinding { return e.Typ }
func (e *ArrayInit) ExprType() *TypeBinding     { return e.Typ }
func (e *MethodCall) ExprType() *TypeBinding    { return e.Method.Return }
func (e *New) ExprType() *TypeBinding           { return e.Typ }
func (e *Binary) ExprType() *TypeBinding        { return e.Typ }
func (e *Unary) ExprType() *TypeBinding         { return e.Typ }
func (e *Postfix) ExprType() *TypeBinding       { return e.Typ }
func (e *Conditional) ExprType() *TypeBinding   { return e.Typ }
func (e *Assign) ExprType() *TypeBinding        { return e.LHS.ExprType() }
func (e *Cast) ExprType() *TypeBinding          { return e.Typ }
func (*InstanceOf) ExprType() *TypeBinding      { return PrimitiveType(Boolean) }
func (*ClassLit) ExprType() *TypeBinding        { return Class }
func (e *Paren) ExprType() *TypeBinding         { return e.X.ExprType() }
func (*VarDeclExpr) ExprType() *TypeBinding     { return PrimitiveType(Void) }

// --- Statements ---

// Block is a braced statement list
type Block struct {
	Pos
	Stmts []Stmt
}

// ExprStmt evaluates an expression for its side effects
type ExprStmt struct {
	Pos
	X Expr
}

// VarFragment declares one variable with an optional initializer
type VarFragment struct {
	Var  *VariableBinding
	Init Expr
}

// VarDecl declares local variables
type VarDecl struct {
	Pos
	Fragments []*VarFragment
}

// If is if/else
type If struct {
	Pos
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// While is a while loop
type While struct {
	Pos
	Cond Expr
	Body Stmt
}

// DoWhile is a do/while loop
type DoWhile struct {
	Pos
	Body Stmt
	Cond Expr
}

// For is a classic three-part for loop
type For struct {
	Pos
	Init   []Expr
	Cond   Expr // nil for an infinite loop
	Update []Expr
	Body   Stmt
}

// ForEach is the enhanced for loop
type ForEach struct {
	Pos
	Var  *VariableBinding
	X    Expr
	Body Stmt
}

// Switch holds case labels and statements as one flat list
type Switch struct {
	Pos
	Tag  Expr
	Body []Stmt
}

// Case is a case label; Value is nil for default
type Case struct {
	Pos
	Value Expr
}

// Break exits a loop or switch
type Break struct {
	Pos
	Label string
}

// Continue starts the next loop iteration
type Continue struct {
	Pos
	Label string
}

// Return leaves the method
type Return struct {
	Pos
	Value Expr
}

// Throw raises an exception
type Throw struct {
	Pos
	X Expr
}

// CatchClause handles one exception type
type CatchClause struct {
	Pos
	Param *VariableBinding
	Body  *Block
}

// Try is try/catch/finally
type Try struct {
	Pos
	Body    *Block
	Catches []*CatchClause
	Finally *Block
}

// Synchronized runs Body holding Lock's monitor
type Synchronized struct {
	Pos
	Lock Expr
	Body *Block
}

// Labeled attaches a label to a statement
type Labeled struct {
	Pos
	Label string
	Body  Stmt
}

// Empty is a lone semicolon
type Empty struct {
	Pos
}

// LocalTypeDecl declares a local class
type LocalTypeDecl struct {
	Pos
	Decl *TypeDecl
}

// Assert is an assert statement
type Assert struct {
	Pos
	Cond    Expr
	Message Expr
}

// SuperCtorCall is super(...) in a constructor
type SuperCtorCall struct {
	Pos
	Ctor  *MethodBinding
	Args  []Expr
	Outer Expr
}

// ThisCtorCall is this(...) in a constructor
type ThisCtorCall struct {
	Pos
	Ctor *MethodBinding
	Args []Expr
}

func (*Block) implStmt()         {}
func (*ExprStmt) implStmt()      {}
func (*VarDecl) implStmt()       {}
func (*If) implStmt()            {}
func (*While) implStmt()         {}
func (*DoWhile) implStmt()       {}
func (*For) implStmt()           {}
func (*ForEach) implStmt()       {}
func (*Switch) implStmt()        {}
func (*Case) implStmt()          {}
func (*Break) implStmt()         {}
func (*Continue) implStmt()      {}
func (*Return) implStmt()        {}
func (*Throw) implStmt()         {}
func (*Try) implStmt()           {}
func (*Synchronized) implStmt()  {}
func (*Labeled) implStmt()       {}
func (*Empty) implStmt()         {}
func (*LocalTypeDecl) implStmt() {}
func (*Assert) implStmt()        {}
func (*SuperCtorCall) implStmt() {}
func (*ThisCtorCall) implStmt()  {}

// --- Declarations ---

// Comment records a comment's byte range in the unit source
type Comment struct {
	Start int
	End   int
	Block bool
}

// CompilationUnit is one resolved source file
type CompilationUnit struct {
	Package  string
	File     string // source path, e.g. "com/example/Shapes.java"
	Source   string // raw text; needed for native fragments
	Types    []*TypeDecl
	Comments []Comment
}

// CommentText returns the source text of c, or "" when out of range.
func (u *CompilationUnit) CommentText(c Comment) string {
	if c.Start < 0 || c.End > len(u.Source) || c.Start >= c.End {
		return ""
	}
	return u.Source[c.Start:c.End]
}

// TypeDecl declares a class, interface or enum
type TypeDecl struct {
	Pos
	Binding      *TypeBinding
	Fields       []*FieldDecl
	Methods      []*MethodDecl
	Types        []*TypeDecl
	Constants    []*EnumConstant
	Initializers []*Initializer
}

// FieldDecl declares one field
type FieldDecl struct {
	Pos
	Var  *VariableBinding
	Init Expr
}

// MethodDecl declares a method or constructor; Body is nil when abstract or native
type MethodDecl struct {
	Pos
	Binding *MethodBinding
	Params  []*VariableBinding
	Body    *Block
}

// EnumConstant declares one enum constant
type EnumConstant struct {
	Pos
	Var  *VariableBinding
	Ctor *MethodBinding
	Args []Expr
	Body *TypeDecl
}

// Initializer is a static or instance initializer block
type Initializer struct {
	Pos
	Static bool
	Body   *Block
}
