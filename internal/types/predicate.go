package types

import "fmt"

// PredKind tags the predicate forms a Refinement can carry.
type PredKind int

const (
	PredValue        PredKind = iota // bare reference to the bound variable
	PredConst                        // a named constant/dependent parameter
	PredEqual                        // Lhs == Rhs
	PredGreaterEqual                 // Lhs >= Rhs
	PredLessEqual                    // Lhs <= Rhs
	PredNotEqual                     // Lhs != Rhs
	PredAnd
	PredOr
	PredNot
)

// Predicate is a single refinement constraint over the bound variable of a
// Refinement type. Lhs/Rhs/Value/Const are TyParam so a predicate can
// reference dependent parameters and arithmetic over them (e.g. v <= N - 1).
type Predicate struct {
	Kind  PredKind
	Value TyParam
	Const TyParam
	Lhs   TyParam
	Rhs   TyParam
	Subs  []Predicate
}

func ValuePred(v TyParam) Predicate { return Predicate{Kind: PredValue, Value: v} }

func GePred(lhs, rhs TyParam) Predicate { return Predicate{Kind: PredGreaterEqual, Lhs: lhs, Rhs: rhs} }
func LePred(lhs, rhs TyParam) Predicate { return Predicate{Kind: PredLessEqual, Lhs: lhs, Rhs: rhs} }
func EqPred(lhs, rhs TyParam) Predicate { return Predicate{Kind: PredEqual, Lhs: lhs, Rhs: rhs} }

func AndPred(ps ...Predicate) Predicate { return Predicate{Kind: PredAnd, Subs: ps} }
func OrPred(ps ...Predicate) Predicate  { return Predicate{Kind: PredOr, Subs: ps} }
func NotPred(p Predicate) Predicate     { return Predicate{Kind: PredNot, Subs: []Predicate{p}} }

func (p Predicate) String() string {
	switch p.Kind {
	case PredValue:
		return p.Value.String()
	case PredConst:
		return p.Const.String()
	case PredEqual:
		return fmt.Sprintf("%s == %s", p.Lhs, p.Rhs)
	case PredGreaterEqual:
		return fmt.Sprintf("%s >= %s", p.Lhs, p.Rhs)
	case PredLessEqual:
		return fmt.Sprintf("%s <= %s", p.Lhs, p.Rhs)
	case PredNotEqual:
		return fmt.Sprintf("%s != %s", p.Lhs, p.Rhs)
	case PredAnd:
		return joinPreds(p.Subs, " and ")
	case PredOr:
		return joinPreds(p.Subs, " or ")
	case PredNot:
		return fmt.Sprintf("not (%s)", p.Subs[0])
	default:
		return "<bad-pred>"
	}
}

func joinPreds(ps []Predicate, sep string) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += sep
		}
		s += p.String()
	}
	return s
}

// Equal is structural equality of two predicates, following TyParam links.
func (p Predicate) Equal(other Predicate) bool {
	if p.Kind != other.Kind {
		return false
	}
	switch p.Kind {
	case PredValue:
		return rec_eqTyParams(p.Value, other.Value)
	case PredConst:
		return rec_eqTyParams(p.Const, other.Const)
	case PredEqual, PredGreaterEqual, PredLessEqual, PredNotEqual:
		return rec_eqTyParams(p.Lhs, other.Lhs) && rec_eqTyParams(p.Rhs, other.Rhs)
	case PredAnd, PredOr, PredNot:
		if len(p.Subs) != len(other.Subs) {
			return false
		}
		for i := range p.Subs {
			if !p.Subs[i].Equal(other.Subs[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IntoRefinement lifts a bare type into the trivial refinement {v: t | true}
// (represented as an empty predicate set) so that refinement-vs-plain-type
// comparisons can share one code path in the Subtype Oracle. Nat
// canonicalizes to {v: Int | v >= 0} on demand.
func IntoRefinement(t Type) Refinement {
	switch v := deref(t).(type) {
	case Refinement:
		return v
	case Primitive:
		if v.Tag == NatTag {
			return Refinement{Var: "v", Base: Int(), Preds: []Predicate{GePred(ParamType{T: Int()}, IntParam(0))}}
		}
	}
	return Refinement{Var: "v", Base: t, Preds: nil}
}

// IsSuperPredOf reports whether sup is implied by sub: whenever sub holds of
// a value, sup does too.
func IsSuperPredOf(sup, sub Predicate) bool {
	if sup.Equal(sub) {
		return true
	}
	// A bound that has diverged to infinity constrains nothing: v <= +Inf
	// and v >= -Inf are trivially top.
	if pos, ok := IsInf(sup.Rhs); ok {
		if (sup.Kind == PredLessEqual && pos) || (sup.Kind == PredGreaterEqual && !pos) {
			return true
		}
	}
	switch sup.Kind {
	case PredAnd:
		for _, s := range sup.Subs {
			if !IsSuperPredOf(s, sub) {
				return false
			}
		}
		return true
	case PredOr:
		for _, s := range sup.Subs {
			if IsSuperPredOf(s, sub) {
				return true
			}
		}
		return false
	}
	if sub.Kind == PredAnd {
		for _, s := range sub.Subs {
			if IsSuperPredOf(sup, s) {
				return true
			}
		}
	}
	if sub.Kind == PredOr {
		for _, s := range sub.Subs {
			if !IsSuperPredOf(sup, s) {
				return false
			}
		}
		return true
	}
	return implyBound(sup, sub)
}

// implyBound decides the common numeric-bound implications directly:
// v >= a implies v >= b when a >= b (literally, not symbolically), the
// symmetric case for <=, and an exact value v == a implies either bound
// it sits inside. Anything it cannot reduce to a literal comparison is
// left to the conservative false above.
func implyBound(sup, sub Predicate) bool {
	if !rec_eqTyParams(sup.Lhs, sub.Lhs) {
		return false
	}
	supN, supOK := literalInt(sup.Rhs)
	subN, subOK := literalInt(sub.Rhs)
	if !supOK || !subOK {
		return false
	}
	switch sup.Kind {
	case PredGreaterEqual:
		return (sub.Kind == PredGreaterEqual || sub.Kind == PredEqual) && subN >= supN
	case PredLessEqual:
		return (sub.Kind == PredLessEqual || sub.Kind == PredEqual) && subN <= supN
	case PredEqual:
		return sub.Kind == PredEqual && subN == supN
	case PredNotEqual:
		// v == a with a != b decides v != b; same-bound inequality is
		// already caught by the Equal fast path in IsSuperPredOf.
		return sub.Kind == PredEqual && subN != supN
	default:
		return false
	}
}

func literalInt(p TyParam) (int64, bool) {
	if lit, ok := derefParam(p).(ParamLit); ok && lit.Kind == ParamLitInt {
		return lit.Int, true
	}
	return 0, false
}

// UnionRefinement combines two refinements sharing the same base and bound
// variable into one {v: Base | a or b} refinement, used when normalizing a
// union of refinement types over the same underlying base.
func UnionRefinement(a, b Refinement) Refinement {
	predOf := func(r Refinement) Predicate {
		if len(r.Preds) == 0 {
			return Predicate{Kind: PredValue, Value: ParamType{T: Obj()}}
		}
		if len(r.Preds) == 1 {
			return r.Preds[0]
		}
		return AndPred(r.Preds...)
	}
	return Refinement{
		Var:   a.Var,
		Base:  a.Base,
		Preds: []Predicate{OrPred(predOf(a), predOf(b))},
	}
}

// CanonicalizeNat rewrites {v: Int | v >= 0} to the Nat primitive, keeping
// the numeric tower's nominal tags canonical after refinement arithmetic.
func CanonicalizeNat(t Type) Type {
	r, ok := deref(t).(Refinement)
	if !ok || len(r.Preds) != 1 {
		return t
	}
	base, ok := deref(r.Base).(Primitive)
	if !ok || base.Tag != IntTag {
		return t
	}
	p := r.Preds[0]
	if p.Kind != PredGreaterEqual {
		return t
	}
	if _, isValue := derefParam(p.Lhs).(ParamType); !isValue {
		return t
	}
	if n, ok := literalInt(p.Rhs); ok && n == 0 {
		return NatP()
	}
	return t
}
