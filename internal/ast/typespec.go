package ast

// TypeSpec is the type-spec grammar: what the parser hands the core
// before it becomes a types.Type. Each constructor below names the grammar
// production it realizes.
type TypeSpec interface {
	Node
	typeSpecNode()
}

// NameSpec is a predeclared or nominal name: Int, Nat, Bool, MyClass, ...
// Args is non-empty for an applied constructor, e.g. Array(Int, 3).
type NameSpec struct {
	Name *Identifier
	Args []TypeSpec
	P    Pos
}

func (n *NameSpec) Position() Pos { return n.P }
func (n *NameSpec) typeSpecNode() {}

// BoolOp names the connective for AndSpec/OrSpec.
type LogicalKind int

const (
	LogAnd LogicalKind = iota
	LogOr
	LogNot
)

// LogicalSpec is And/Or/Not over type specs (intersection/union/difference).
type LogicalSpec struct {
	Op    LogicalKind
	Specs []TypeSpec // exactly one element when Op == LogNot
	P     Pos
}

func (l *LogicalSpec) Position() Pos { return l.P }
func (l *LogicalSpec) typeSpecNode() {}

// TupleSpec is Tuple(specs).
type TupleSpec struct {
	Elems []TypeSpec
	P     Pos
}

func (t *TupleSpec) Position() Pos { return t.P }
func (t *TupleSpec) typeSpecNode() {}

// EnumSpec is Enum(lit-set): a refinement of a base literal type restricted
// to a finite set of values, e.g. Enum(1, 2, 3).
type EnumSpec struct {
	Values []*Literal
	P      Pos
}

func (e *EnumSpec) Position() Pos { return e.P }
func (e *EnumSpec) typeSpecNode() {}

// IntervalOp selects the boundary openness of an Interval spec.
type IntervalOp int

const (
	Closed    IntervalOp = iota // [lhs, rhs]
	LeftOpen                    // (lhs, rhs]
	RightOpen                   // [lhs, rhs)
	Open                        // (lhs, rhs)
)

// IntervalSpec is Interval(op, lhs, rhs): a numeric interval refinement.
type IntervalSpec struct {
	Op  IntervalOp
	Lhs TyParamExpr
	Rhs TyParamExpr
	P   Pos
}

func (iv *IntervalSpec) Position() Pos { return iv.P }
func (iv *IntervalSpec) typeSpecNode() {}

// SubrSpec is Subr(non_defaults, defaults, return): a function/procedure
// arrow type spec.
type SubrSpec struct {
	Kind        SubrKind
	NonDefaults []TypeSpec
	Defaults    []TypeSpec
	IsVarArgs   bool
	Return      TypeSpec
	P           Pos
}

func (s *SubrSpec) Position() Pos { return s.P }
func (s *SubrSpec) typeSpecNode() {}

// ArraySpec is Array(elem, len): a length-indexed array type spec. Len may
// be any dependent type-parameter expression (a literal, a bound name, or
// an arithmetic combination of both).
type ArraySpec struct {
	Elem TypeSpec
	Len  TyParamExpr
	P    Pos
}

func (a *ArraySpec) Position() Pos { return a.P }
func (a *ArraySpec) typeSpecNode() {}

// RefinementSpec is {v: base | preds}.
type RefinementSpec struct {
	Var   *Identifier
	Base  TypeSpec
	Preds []PredSpec
	P     Pos
}

func (r *RefinementSpec) Position() Pos { return r.P }
func (r *RefinementSpec) typeSpecNode() {}

// DependentParamSpec is a named, possibly-predicated type-constructor
// parameter in a declaration head, e.g. the "?M:Nat" in
// Subr(?M:Nat, ?N:Nat) -> Array(Int, ?M+?N).
type DependentParamSpec struct {
	Name  *Identifier
	Bound TypeSpec // the declared kind/bound of the parameter, e.g. Nat
	P     Pos
}

func (d *DependentParamSpec) Position() Pos { return d.P }
func (d *DependentParamSpec) typeSpecNode() {}

// --- TyParam expression grammar (value-level terms in type specs) ---

// TyParamExpr is an expression appearing in a dependent type-parameter
// position: a literal, a reference to a bound parameter, or an arithmetic
// combination thereof (mirrors types.TyParam at the AST level).
type TyParamExpr interface {
	Node
	tyParamExprNode()
}

type LitParamExpr struct {
	Lit *Literal
	P   Pos
}

func (l *LitParamExpr) Position() Pos    { return l.P }
func (l *LitParamExpr) tyParamExprNode() {}

type NameParamExpr struct {
	Name *Identifier
	P    Pos
}

func (n *NameParamExpr) Position() Pos    { return n.P }
func (n *NameParamExpr) tyParamExprNode() {}

type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpNeg // unary
)

type BinOpParamExpr struct {
	Op    ArithOp
	Left  TyParamExpr
	Right TyParamExpr
	P     Pos
}

func (b *BinOpParamExpr) Position() Pos    { return b.P }
func (b *BinOpParamExpr) tyParamExprNode() {}

type UnaryOpParamExpr struct {
	Op      ArithOp
	Operand TyParamExpr
	P       Pos
}

func (u *UnaryOpParamExpr) Position() Pos    { return u.P }
func (u *UnaryOpParamExpr) tyParamExprNode() {}

// --- Predicate grammar ---

type PredKind int

const (
	PredValue PredKind = iota
	PredConst
	PredEqual
	PredGreaterEqual
	PredLessEqual
	PredNotEqual
	PredAnd
	PredOr
	PredNot
)

// PredSpec mirrors types.Predicate at the AST level so the parser can hand
// the core a predicate tree without knowing about TyParam internals.
type PredSpec struct {
	Kind  PredKind
	Value bool        // PredValue
	Const *Identifier // PredConst
	Lhs   *Identifier // comparison subject name (normalized to the left)
	Rhs   TyParamExpr // comparison rhs
	Subs  []PredSpec  // And/Or (len >= 2) / Not (len == 1)
	P     Pos
}

func (p *PredSpec) Position() Pos { return p.P }
