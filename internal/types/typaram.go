package types

import (
	"fmt"
	"strings"
)

// TyParam is the closed sum of dependent type-parameter terms:
// the things that can fill a Poly/Array/Dict slot besides a bare Type —
// literal values, arithmetic over them, and erased or projected forms.
type TyParam interface {
	String() string
}

// ParamLitKind tags the literal forms a TyParam can carry.
type ParamLitKind int

const (
	ParamLitInt ParamLitKind = iota
	ParamLitStr
	ParamLitBool
	// ParamLitInf is a signed infinity, the absorbing bound divergent
	// interval unification widens to. Int holds the sign (+1 or -1).
	ParamLitInf
)

// ParamLit is a literal value used as a dependent type parameter, e.g. the
// 3 in Array(Int, 3).
type ParamLit struct {
	Kind ParamLitKind
	Int  int64
	Str  string
	Bool bool
}

func (p ParamLit) String() string {
	switch p.Kind {
	case ParamLitStr:
		return fmt.Sprintf("%q", p.Str)
	case ParamLitBool:
		return fmt.Sprintf("%t", p.Bool)
	case ParamLitInf:
		if p.Int < 0 {
			return "-Inf"
		}
		return "Inf"
	default:
		return fmt.Sprintf("%d", p.Int)
	}
}

func IntParam(v int64) TyParam { return ParamLit{Kind: ParamLitInt, Int: v} }

// PosInf and NegInf are the divergent interval bounds (the only bounds
// allow_divergence unification may widen to).
func PosInf() TyParam { return ParamLit{Kind: ParamLitInf, Int: 1} }
func NegInf() TyParam { return ParamLit{Kind: ParamLitInf, Int: -1} }

// IsInf reports whether p is a signed-infinity literal, and its sign.
func IsInf(p TyParam) (positive bool, ok bool) {
	lit, isLit := derefParam(p).(ParamLit)
	if !isLit || lit.Kind != ParamLitInf {
		return false, false
	}
	return lit.Int > 0, true
}

// ParamType lets an ordinary Type fill a TyParam slot (types-as-params,
// e.g. the Int in Array(Int, 3)).
type ParamType struct{ T Type }

func (p ParamType) String() string { return p.T.String() }

// MonoQVarP is a bound dependent-parameter variable inside a quantifier.
type MonoQVarP struct{ Name string }

func (m MonoQVarP) String() string { return m.Name }

// PolyQVarP is a bound constructor applied to further params inside a
// quantifier, mirroring PolyQVar at the TyParam level.
type PolyQVarP struct {
	Name string
	Args []TyParam
}

func (p PolyQVarP) String() string { return formatAppliedParams(p.Name, p.Args) }

// AppliedParam is a concrete dependent-parameter constructor application,
// e.g. a user-defined const function applied to operands.
type AppliedParam struct {
	Name string
	Args []TyParam
}

func (a AppliedParam) String() string { return formatAppliedParams(a.Name, a.Args) }

func formatAppliedParams(name string, args []TyParam) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// ArithOp is the arithmetic connective for BinOpParam/UnaryOpParam
// (dependent-parameter arithmetic, e.g. N + 1 in Array(T, N + 1)).
type ArithOp int

const (
	ParamAdd ArithOp = iota
	ParamSub
	ParamMul
	ParamDiv
	ParamNeg
)

func (o ArithOp) String() string {
	switch o {
	case ParamAdd:
		return "+"
	case ParamSub:
		return "-"
	case ParamMul:
		return "*"
	case ParamDiv:
		return "/"
	case ParamNeg:
		return "-"
	default:
		return "?"
	}
}

// BinOpParam is a binary arithmetic combination of two dependent parameters.
type BinOpParam struct {
	Op    ArithOp
	Left  TyParam
	Right TyParam
}

func (b BinOpParam) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryOpParam is a unary arithmetic operation over a dependent parameter.
type UnaryOpParam struct {
	Op      ArithOp
	Operand TyParam
}

func (u UnaryOpParam) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

// FreeTyParam is an inference variable at the dependent-parameter level,
// sharing the Free-Variable Store implementation with FreeVar via Cell[T].
type FreeTyParam struct{ C *Cell[TyParam] }

func (f FreeTyParam) String() string { return f.C.String() }

// Erased marks a dependent-parameter slot as present but untracked: the
// constructor still has the arity, but nothing in the core constrains what
// fills it (used when a caller intentionally forgets a length, etc.).
type Erased struct{ T Type }

func (e Erased) String() string { return fmt.Sprintf("_: %s", e.T) }

// MonoProjParam projects an associated dependent parameter off a base
// parameter, e.g. proj::Len.
type MonoProjParam struct {
	Base TyParam
	Name string
}

func (m MonoProjParam) String() string { return fmt.Sprintf("%s::%s", m.Base, m.Name) }

// TupleParam is a fixed-arity tuple of dependent parameters.
type TupleParam struct{ Elems []TyParam }

func (t TupleParam) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ArrayParam is an array of dependent parameters, itself possibly of
// dependent length — kept distinct from Array (a Type) since a TyParam
// position sometimes needs to carry a whole array of further params.
type ArrayParam struct {
	Elem TyParam
	Len  TyParam
}

func (a ArrayParam) String() string { return fmt.Sprintf("[%s; %s]", a.Elem, a.Len) }

// FailureParam is the TyParam-level counterpart of Failure.
type FailureParam struct{}

func (FailureParam) String() string { return "<failure>" }
