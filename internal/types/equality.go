package types

// deref follows a FreeVar chain to its linked target, or returns t itself
// if it is unbound or not a FreeVar at all. Every structural traversal in
// this package goes through deref first so that link transparency holds everywhere, not just in the Unifier.
func deref(t Type) Type {
	for {
		fv, ok := t.(FreeVar)
		if !ok || !fv.C.IsLinked() {
			return t
		}
		t = fv.C.Crack()
	}
}

func derefParam(p TyParam) TyParam {
	for {
		fp, ok := p.(FreeTyParam)
		if !ok || !fp.C.IsLinked() {
			return p
		}
		p = fp.C.Crack()
	}
}

// rec_eqTypes is structural equality up to link transparency: two terms are
// equal if, after following every FreeVar link, their shapes and leaves
// match. Two distinct unbound FreeVar cells are equal only if they are the
// same cell (identity), since nothing else relates them.
func rec_eqTypes(a, b Type) bool {
	a, b = deref(a), deref(b)

	switch av := a.(type) {
	case Primitive:
		bv, ok := b.(Primitive)
		return ok && av.Tag == bv.Tag
	case FreeVar:
		bv, ok := b.(FreeVar)
		return ok && av.C.ID() == bv.C.ID()
	case MonoQVar:
		bv, ok := b.(MonoQVar)
		return ok && av.Name == bv.Name
	case PolyQVar:
		bv, ok := b.(PolyQVar)
		return ok && av.Name == bv.Name && eqTyParamSlice(av.Params, bv.Params)
	case Poly:
		bv, ok := b.(Poly)
		return ok && av.Name == bv.Name && eqTyParamSlice(av.Params, bv.Params)
	case Subr:
		bv, ok := b.(Subr)
		return ok && eqSubrType(av.T, bv.T)
	case Callable:
		bv, ok := b.(Callable)
		if !ok || len(av.Params) != len(bv.Params) || !rec_eqTypes(av.Return, bv.Return) {
			return false
		}
		for i := range av.Params {
			if !rec_eqTypes(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return true
	case Refinement:
		bv, ok := b.(Refinement)
		if !ok || av.Var != bv.Var || !rec_eqTypes(av.Base, bv.Base) || len(av.Preds) != len(bv.Preds) {
			return false
		}
		for i := range av.Preds {
			if !av.Preds[i].Equal(bv.Preds[i]) {
				return false
			}
		}
		return true
	case Quantified:
		bv, ok := b.(Quantified)
		if !ok || len(av.Bounds) != len(bv.Bounds) || !rec_eqTypes(av.Body, bv.Body) {
			return false
		}
		for i := range av.Bounds {
			if av.Bounds[i] != bv.Bounds[i] {
				return false
			}
		}
		return true
	case Logical:
		bv, ok := b.(Logical)
		if !ok || av.Kind != bv.Kind || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !rec_eqTypes(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case RefForm:
		bv, ok := b.(RefForm)
		return ok && av.Kind == bv.Kind && rec_eqTypes(av.Elem, bv.Elem)
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !rec_eqTypes(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case Array:
		bv, ok := b.(Array)
		return ok && rec_eqTypes(av.Elem, bv.Elem) && rec_eqTyParams(av.Len, bv.Len)
	case Dict:
		bv, ok := b.(Dict)
		return ok && rec_eqTypes(av.Key, bv.Key) && rec_eqTypes(av.Value, bv.Value)
	case Record:
		bv, ok := b.(Record)
		if !ok || av.IsOpen != bv.IsOpen || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, v := range av.Fields {
			ov, ok := bv.Fields[k]
			if !ok || !rec_eqTypes(v, ov) {
				return false
			}
		}
		if (av.Row == nil) != (bv.Row == nil) {
			return false
		}
		if av.Row != nil && !rec_eqTypes(av.Row, bv.Row) {
			return false
		}
		return true
	case MonoProj:
		bv, ok := b.(MonoProj)
		return ok && av.Name == bv.Name && rec_eqTypes(av.Base, bv.Base)
	case Failure:
		_, ok := b.(Failure)
		return ok
	default:
		return false
	}
}

func eqSubrType(a, b SubrType) bool {
	if a.Kind != b.Kind || a.IsVariadic != b.IsVariadic || a.DefaultCount != b.DefaultCount {
		return false
	}
	if !rec_eqTypes(a.Return, b.Return) || len(a.Params) != len(b.Params) {
		return false
	}
	if (a.SelfT == nil) != (b.SelfT == nil) {
		return false
	}
	if a.SelfT != nil && !rec_eqTypes(a.SelfT, b.SelfT) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Name != b.Params[i].Name || !rec_eqTypes(a.Params[i].T, b.Params[i].T) {
			return false
		}
	}
	return true
}

func eqTyParamSlice(a, b []TyParam) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !rec_eqTyParams(a[i], b[i]) {
			return false
		}
	}
	return true
}

// rec_eqTyParams is rec_eqTypes' counterpart over the TyParam sum.
func rec_eqTyParams(a, b TyParam) bool {
	a, b = derefParam(a), derefParam(b)

	switch av := a.(type) {
	case ParamLit:
		bv, ok := b.(ParamLit)
		return ok && av == bv
	case ParamType:
		bv, ok := b.(ParamType)
		return ok && rec_eqTypes(av.T, bv.T)
	case MonoQVarP:
		bv, ok := b.(MonoQVarP)
		return ok && av.Name == bv.Name
	case PolyQVarP:
		bv, ok := b.(PolyQVarP)
		return ok && av.Name == bv.Name && eqTyParamSlice(av.Args, bv.Args)
	case AppliedParam:
		bv, ok := b.(AppliedParam)
		return ok && av.Name == bv.Name && eqTyParamSlice(av.Args, bv.Args)
	case BinOpParam:
		bv, ok := b.(BinOpParam)
		return ok && av.Op == bv.Op && rec_eqTyParams(av.Left, bv.Left) && rec_eqTyParams(av.Right, bv.Right)
	case UnaryOpParam:
		bv, ok := b.(UnaryOpParam)
		return ok && av.Op == bv.Op && rec_eqTyParams(av.Operand, bv.Operand)
	case FreeTyParam:
		bv, ok := b.(FreeTyParam)
		return ok && av.C.ID() == bv.C.ID()
	case Erased:
		bv, ok := b.(Erased)
		return ok && rec_eqTypes(av.T, bv.T)
	case MonoProjParam:
		bv, ok := b.(MonoProjParam)
		return ok && av.Name == bv.Name && rec_eqTyParams(av.Base, bv.Base)
	case TupleParam:
		bv, ok := b.(TupleParam)
		return ok && eqTyParamSlice(av.Elems, bv.Elems)
	case ArrayParam:
		bv, ok := b.(ArrayParam)
		return ok && rec_eqTyParams(av.Elem, bv.Elem) && rec_eqTyParams(av.Len, bv.Len)
	case FailureParam:
		_, ok := b.(FailureParam)
		return ok
	default:
		return false
	}
}

// HasUnboundVar reports whether t contains any free variable that is still
// unbound after following all links — used to decide whether a type is
// fully resolved before generalization or final reporting.
func HasUnboundVar(t Type) bool {
	t = deref(t)
	switch v := t.(type) {
	case FreeVar:
		return !v.C.IsLinked()
	case PolyQVar:
		return anyParamUnbound(v.Params)
	case Poly:
		return anyParamUnbound(v.Params)
	case Subr:
		if anyUnbound(subrTypes(v.T)) {
			return true
		}
		return false
	case Callable:
		for _, p := range v.Params {
			if HasUnboundVar(p) {
				return true
			}
		}
		return HasUnboundVar(v.Return)
	case Refinement:
		return HasUnboundVar(v.Base)
	case Quantified:
		return HasUnboundVar(v.Body)
	case Logical:
		return anyUnbound(v.Elems)
	case RefForm:
		return HasUnboundVar(v.Elem)
	case Tuple:
		return anyUnbound(v.Elems)
	case Array:
		return HasUnboundVar(v.Elem) || paramHasUnboundVar(v.Len)
	case Dict:
		return HasUnboundVar(v.Key) || HasUnboundVar(v.Value)
	case Record:
		for _, f := range v.Fields {
			if HasUnboundVar(f) {
				return true
			}
		}
		return v.Row != nil && HasUnboundVar(v.Row)
	case MonoProj:
		return HasUnboundVar(v.Base)
	default:
		return false
	}
}

func subrTypes(t SubrType) []Type {
	out := make([]Type, 0, len(t.Params)+2)
	if t.SelfT != nil {
		out = append(out, t.SelfT)
	}
	for _, p := range t.Params {
		out = append(out, p.T)
	}
	out = append(out, t.Return)
	return out
}

func anyUnbound(ts []Type) bool {
	for _, t := range ts {
		if HasUnboundVar(t) {
			return true
		}
	}
	return false
}

func anyParamUnbound(ps []TyParam) bool {
	for _, p := range ps {
		if paramHasUnboundVar(p) {
			return true
		}
	}
	return false
}

func paramHasUnboundVar(p TyParam) bool {
	p = derefParam(p)
	switch v := p.(type) {
	case FreeTyParam:
		return !v.C.IsLinked()
	case ParamType:
		return HasUnboundVar(v.T)
	case PolyQVarP:
		return anyParamUnbound(v.Args)
	case AppliedParam:
		return anyParamUnbound(v.Args)
	case BinOpParam:
		return paramHasUnboundVar(v.Left) || paramHasUnboundVar(v.Right)
	case UnaryOpParam:
		return paramHasUnboundVar(v.Operand)
	case Erased:
		return HasUnboundVar(v.T)
	case MonoProjParam:
		return paramHasUnboundVar(v.Base)
	case TupleParam:
		return anyParamUnbound(v.Elems)
	case ArrayParam:
		return paramHasUnboundVar(v.Elem) || paramHasUnboundVar(v.Len)
	default:
		return false
	}
}

// Equal is the exported structural-equality judgment (up to link
// transparency), for callers outside this package — the Subtype Oracle in
// particular — that need term equality without reimplementing link
// following themselves.
func Equal(a, b Type) bool { return rec_eqTypes(a, b) }

// EqualParams is Equal's TyParam counterpart.
func EqualParams(a, b TyParam) bool { return rec_eqTyParams(a, b) }

// Deref is the exported form of this package's internal link-following
// deref, for callers that need to strip a resolved FreeVar before doing
// their own type switch.
func Deref(t Type) Type { return deref(t) }

// DerefParam is Deref's TyParam counterpart.
func DerefParam(p TyParam) TyParam { return derefParam(p) }

// TypeName returns the canonical nominal name used to key Context lookups
// (trait-impl search, glue-patch search): the constructor name for Poly and
// primitive tags, "" for structural-only terms that have no nominal
// identity of their own.
func TypeName(t Type) string {
	switch v := deref(t).(type) {
	case Primitive:
		return string(v.Tag)
	case Poly:
		return v.Name
	case PolyQVar:
		return v.Name
	case Subr:
		return "Subr"
	case Tuple:
		return "Tuple"
	case Array:
		return "Array"
	case Dict:
		return "Dict"
	case Record:
		return "Record"
	default:
		return ""
	}
}

// TyParams returns the dependent/type parameter list of a nominal type, or
// nil for types with none.
func TyParams(t Type) []TyParam {
	switch v := deref(t).(type) {
	case Poly:
		return v.Params
	case PolyQVar:
		return v.Params
	case Array:
		return []TyParam{ParamType{T: v.Elem}, v.Len}
	default:
		return nil
	}
}

// Ownership classifies whether a type describes owned, borrowed, or
// mutably-borrowed data — used by the Call Typer's move/borrow checks at
// argument sites.
type Ownership int

const (
	OwnOwned Ownership = iota
	OwnBorrowed
	OwnMutBorrowed
)

func TypeOwnership(t Type) Ownership {
	switch rf := deref(t).(type) {
	case RefForm:
		if rf.Kind == RKRefMut {
			return OwnMutBorrowed
		}
		if rf.Kind == RKVarArgs {
			return TypeOwnership(rf.Elem)
		}
		return OwnBorrowed
	default:
		return OwnOwned
	}
}

// ArgsOwnership produces the per-parameter ownerships of a subroutine
// type, one entry per declared parameter; a variadic tail reports the
// ownership of its element type.
func ArgsOwnership(s SubrType) []Ownership {
	out := make([]Ownership, len(s.Params))
	for i, p := range s.Params {
		out[i] = TypeOwnership(p.T)
	}
	return out
}
