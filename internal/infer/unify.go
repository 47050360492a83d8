package infer

import (
	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// Unifier owns unify/sub_unify/reunify. It is adapted from
// typesystem.Unify's big type-switch in the teacher, generalized from plain
// equality to the three distinct judgments this richer algebra
// needs, and backed by an Oracle instead of the teacher's inline union
// membership checks.
type Unifier struct {
	Oracle *Oracle
	Log    *corelog.Logger
}

func NewUnifier(oracle *Oracle, log *corelog.Logger) *Unifier {
	if log == nil {
		log = corelog.Discard()
	}
	return &Unifier{Oracle: oracle, Log: log}
}

// Unify makes a and b structurally identical, binding free variables as
// needed (the symmetric/equality case).
func (u *Unifier) Unify(ctx *symbols.Context, a, b types.Type) error {
	u.Log.Tracef(corelog.PointUnify, "%s =:= %s", a, b)
	a, b = types.Deref(a), types.Deref(b)

	if types.Equal(a, b) {
		return nil
	}

	afv, aIsFV := a.(types.FreeVar)
	bfv, bIsFV := b.(types.FreeVar)

	switch {
	case aIsFV && bIsFV:
		return u.unifyTwoVars(ctx, afv, bfv)
	case aIsFV:
		return u.bindVar(ctx, afv, b)
	case bIsFV:
		return u.bindVar(ctx, bfv, a)
	}

	return u.unifyStructural(ctx, a, b)
}

func (u *Unifier) unifyTwoVars(ctx *symbols.Context, a, b types.FreeVar) error {
	if a.C.ID() == b.C.ID() {
		return nil
	}
	// The cell created at the deeper (newer) level links to the shallower
	// one, so the surviving cell is never more specific than the scope
	// that will eventually generalize over it.
	survivor, dying := a, b
	if b.C.Level() < a.C.Level() {
		survivor, dying = b, a
	}
	merged, err := u.mergeConstraints(ctx, survivor.C.Constraint(), dying.C.Constraint())
	if err != nil {
		return err
	}
	survivor.C.UpdateConstraint(merged)
	survivor.C.UpdateLevel(dying.C.Level())
	u.Log.Tracef(corelog.PointLink, "%s -> %s", dying.C, survivor)
	dying.C.Link(types.Type(survivor))
	return nil
}

func (u *Unifier) mergeConstraints(ctx *symbols.Context, a, b types.Constraint) (types.Constraint, error) {
	if a.Kind != b.Kind {
		return a, errUnification(a, b)
	}
	switch a.Kind {
	case types.Sandwiched:
		sub := u.join(ctx, a.Sub, b.Sub)
		sup := u.meet(ctx, a.Sup, b.Sup)
		if !u.Oracle.RecSupertypeOf(ctx, sup, sub) {
			return a, errUnification(sub, sup)
		}
		return types.SandwichedC(sub, sup), nil
	case types.TypeOf:
		if !types.Equal(a.Of, b.Of) {
			return a, errUnification(a.Of, b.Of)
		}
		return a, nil
	default:
		return a, nil
	}
}

// join picks the tightest common floor for two Sub bounds: whichever
// already dominates the other, or their union when neither does.
func (u *Unifier) join(ctx *symbols.Context, x, y types.Type) types.Type {
	if u.Oracle.RecSupertypeOf(ctx, x, y) {
		return x
	}
	if u.Oracle.RecSupertypeOf(ctx, y, x) {
		return y
	}
	return types.Logical{Kind: types.LOr, Elems: []types.Type{x, y}}
}

// meet picks the tightest common ceiling for two Sup bounds.
func (u *Unifier) meet(ctx *symbols.Context, x, y types.Type) types.Type {
	if u.Oracle.RecSupertypeOf(ctx, x, y) {
		return y
	}
	if u.Oracle.RecSupertypeOf(ctx, y, x) {
		return x
	}
	return types.Logical{Kind: types.LAnd, Elems: []types.Type{x, y}}
}

// bindVar links an unbound FreeVar to a concrete term, after an occurs
// check and a constraint-satisfaction check against the var's Sandwiched
// window. A variable created by an enclosing scope is not
// linked but has its constraint weakened — raising the floor toward t
// while the ceiling stays put — provided the weakened window is a
// sub-constraint of the old one; the enclosing scope keeps the final say
// on what the variable becomes. An occurs-check violation is a
// programmer-error panic, not a collected CoreError.
func (u *Unifier) bindVar(ctx *symbols.Context, v types.FreeVar, t types.Type) error {
	if occursInType(v.C.ID(), t) {
		panic(&OccursCheckError{Cell: v.C.ID()})
	}
	c := v.C.Constraint()
	if c.Kind == types.Sandwiched && v.C.Level() < ctx.Level {
		weakened := types.SandwichedC(u.join(ctx, c.Sub, t), c.Sup)
		if weakened.IsSubConstraintOf(c, u.Oracle.AsSupertypeOfFunc(ctx)) {
			u.Log.Tracef(corelog.PointUnify, "%s weakens to %s", v.C, weakened)
			v.C.UpdateConstraint(weakened)
			return nil
		}
	}
	if c.Kind == types.Sandwiched {
		if !u.Oracle.RecSupertypeOf(ctx, c.Sup, t) || !u.Oracle.RecSupertypeOf(ctx, t, c.Sub) {
			return errUnification(c, t)
		}
	}
	u.Log.Tracef(corelog.PointLink, "%s -> %s", v.C, t)
	v.C.Link(t)
	return nil
}

// forceBind is Reunify's destructive bind: mutation propagation must
// overwrite even a variable owned by an enclosing scope, since the
// receiver's dependent parameters really did change.
func (u *Unifier) forceBind(v types.FreeVar, t types.Type) error {
	if occursInType(v.C.ID(), t) {
		panic(&OccursCheckError{Cell: v.C.ID()})
	}
	u.Log.Tracef(corelog.PointLink, "%s -> %s", v.C, t)
	v.C.Link(t)
	return nil
}

// unifyStructural decomposes two concrete (non-FreeVar) terms of matching
// shape, recursively unifying their children. A shape or arity mismatch is
// a collected Unification error, never a panic.
func (u *Unifier) unifyStructural(ctx *symbols.Context, a, b types.Type) error {
	switch av := a.(type) {
	case types.Primitive:
		// Nat canonicalizes to its refinement form when the other side is
		// already a refinement.
		if av.Tag == types.NatTag {
			if _, ok := b.(types.Refinement); ok {
				nat := types.IntoRefinement(a)
				if err := u.Unify(ctx, nat.Base, types.IntoRefinement(b).Base); err != nil {
					return err
				}
				return u.unifyPreds(ctx, nat.Preds, types.IntoRefinement(b).Preds)
			}
		}
		return errUnification(a, b)

	case types.Subr:
		bv, ok := b.(types.Subr)
		if !ok || av.T.Kind != bv.T.Kind || len(av.T.Params) != len(bv.T.Params) {
			return errUnification(a, b)
		}
		if (av.T.SelfT == nil) != (bv.T.SelfT == nil) {
			return errUnification(a, b)
		}
		if av.T.SelfT != nil {
			if err := u.Unify(ctx, av.T.SelfT, bv.T.SelfT); err != nil {
				return err
			}
		}
		for i := range av.T.Params {
			if err := u.Unify(ctx, av.T.Params[i].T, bv.T.Params[i].T); err != nil {
				return err
			}
		}
		return u.Unify(ctx, av.T.Return, bv.T.Return)

	case types.Poly:
		bv, ok := b.(types.Poly)
		if !ok || av.Name != bv.Name || len(av.Params) != len(bv.Params) {
			return errUnification(a, b)
		}
		for i := range av.Params {
			if err := u.UnifyParams(ctx, av.Params[i], bv.Params[i]); err != nil {
				return err
			}
		}
		return nil

	case types.Refinement:
		bv := types.IntoRefinement(b)
		if err := u.Unify(ctx, av.Base, bv.Base); err != nil {
			return err
		}
		return u.unifyPreds(ctx, av.Preds, bv.Preds)

	case types.Quantified:
		bv, ok := b.(types.Quantified)
		if !ok {
			return errUnification(a, b)
		}
		return u.Unify(ctx, av.Body, bv.Body)

	case types.Logical:
		bv, ok := b.(types.Logical)
		if !ok || av.Kind != bv.Kind || len(av.Elems) != len(bv.Elems) {
			return errUnification(a, b)
		}
		for i := range av.Elems {
			if err := u.Unify(ctx, av.Elems[i], bv.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case types.RefForm:
		bv, ok := b.(types.RefForm)
		if !ok || av.Kind != bv.Kind {
			return errUnification(a, b)
		}
		return u.Unify(ctx, av.Elem, bv.Elem)

	case types.Tuple:
		bv, ok := b.(types.Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return errUnification(a, b)
		}
		for i := range av.Elems {
			if err := u.Unify(ctx, av.Elems[i], bv.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case types.Array:
		bv, ok := b.(types.Array)
		if !ok {
			return errUnification(a, b)
		}
		if err := u.Unify(ctx, av.Elem, bv.Elem); err != nil {
			return err
		}
		return u.UnifyParams(ctx, av.Len, bv.Len)

	case types.Dict:
		bv, ok := b.(types.Dict)
		if !ok {
			return errUnification(a, b)
		}
		if err := u.Unify(ctx, av.Key, bv.Key); err != nil {
			return err
		}
		return u.Unify(ctx, av.Value, bv.Value)

	case types.Record:
		bv, ok := b.(types.Record)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return errUnification(a, b)
		}
		for k, ft := range av.Fields {
			bft, ok := bv.Fields[k]
			if !ok {
				return errUnification(a, b)
			}
			if err := u.Unify(ctx, ft, bft); err != nil {
				return err
			}
		}
		return nil

	case types.MonoProj:
		bv, ok := b.(types.MonoProj)
		if !ok || av.Name != bv.Name {
			return errUnification(a, b)
		}
		return u.Unify(ctx, av.Base, bv.Base)

	case types.Failure:
		return nil // the failure sentinel unifies with anything without masking the caller's own error

	default:
		return errUnification(a, b)
	}
}

// unifyPred unifies the TyParam leaves of two predicate trees of matching
// shape, falling back to the canonical window rewrite when one side is a
// single bound and the other a (>= a and <= b) window (unify_pred).
func (u *Unifier) unifyPred(ctx *symbols.Context, a, b types.Predicate) error {
	if a.Kind != b.Kind {
		if ok, err := u.unifyBoundWindow(ctx, a, b); ok {
			return err
		}
		if ok, err := u.unifyBoundWindow(ctx, b, a); ok {
			return err
		}
		return errPredUnify(a, b)
	}
	switch a.Kind {
	case types.PredValue:
		return u.UnifyParams(ctx, a.Value, b.Value)
	case types.PredConst:
		return u.UnifyParams(ctx, a.Const, b.Const)
	case types.PredEqual, types.PredGreaterEqual, types.PredLessEqual, types.PredNotEqual:
		if err := u.UnifyParams(ctx, a.Lhs, b.Lhs); err != nil {
			return err
		}
		return u.UnifyParams(ctx, a.Rhs, b.Rhs)
	case types.PredAnd, types.PredOr, types.PredNot:
		return u.unifyPreds(ctx, a.Subs, b.Subs)
	default:
		return errPredUnify(a, b)
	}
}

func (u *Unifier) unifyPreds(ctx *symbols.Context, a, b []types.Predicate) error {
	if len(a) != len(b) {
		return errPredUnify(types.AndPred(a...), types.AndPred(b...))
	}
	for i := range a {
		if err := u.unifyPred(ctx, a[i], b[i]); err != nil {
			return err
		}
	}
	return nil
}

// UnifyParams is Unify's TyParam-level counterpart.
func (u *Unifier) UnifyParams(ctx *symbols.Context, a, b types.TyParam) error {
	a, b = types.DerefParam(a), types.DerefParam(b)
	if types.EqualParams(a, b) {
		return nil
	}

	// An erased slot tracks nothing; anything unifies against it without
	// being bound.
	if _, ok := a.(types.Erased); ok {
		return nil
	}
	if _, ok := b.(types.Erased); ok {
		return nil
	}

	afp, aIsFP := a.(types.FreeTyParam)
	bfp, bIsFP := b.(types.FreeTyParam)

	switch {
	case aIsFP && bIsFP:
		if afp.C.ID() == bfp.C.ID() {
			return nil
		}
		survivor, dying := afp, bfp
		if bfp.C.Level() < afp.C.Level() {
			survivor, dying = bfp, afp
		}
		survivor.C.UpdateLevel(dying.C.Level())
		dying.C.Link(types.TyParam(survivor))
		return nil
	case aIsFP:
		return u.bindParamVar(afp, b)
	case bIsFP:
		return u.bindParamVar(bfp, a)
	}

	switch av := a.(type) {
	case types.ParamType:
		bv, ok := b.(types.ParamType)
		if !ok {
			return errUnification(a, b)
		}
		return u.Unify(ctx, av.T, bv.T)
	case types.BinOpParam:
		bv, ok := b.(types.BinOpParam)
		if !ok || av.Op != bv.Op {
			return errUnification(a, b)
		}
		if err := u.UnifyParams(ctx, av.Left, bv.Left); err != nil {
			return err
		}
		return u.UnifyParams(ctx, av.Right, bv.Right)
	case types.UnaryOpParam:
		bv, ok := b.(types.UnaryOpParam)
		if !ok || av.Op != bv.Op {
			return errUnification(a, b)
		}
		return u.UnifyParams(ctx, av.Operand, bv.Operand)
	case types.AppliedParam:
		bv, ok := b.(types.AppliedParam)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return errUnification(a, b)
		}
		for i := range av.Args {
			if err := u.UnifyParams(ctx, av.Args[i], bv.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case types.TupleParam:
		bv, ok := b.(types.TupleParam)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return errUnification(a, b)
		}
		for i := range av.Elems {
			if err := u.UnifyParams(ctx, av.Elems[i], bv.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case types.ArrayParam:
		bv, ok := b.(types.ArrayParam)
		if !ok {
			return errUnification(a, b)
		}
		if err := u.UnifyParams(ctx, av.Elem, bv.Elem); err != nil {
			return err
		}
		return u.UnifyParams(ctx, av.Len, bv.Len)
	case types.MonoProjParam:
		bv, ok := b.(types.MonoProjParam)
		if !ok || av.Name != bv.Name {
			return errUnification(a, b)
		}
		return u.UnifyParams(ctx, av.Base, bv.Base)
	case types.FailureParam:
		return nil
	default:
		return errUnification(a, b)
	}
}

// unifyBoundWindow matches a single bound predicate (>= r) against a
// two-sided window (>= a and <= b), assigning a := r and letting b diverge
// to +Inf; symmetric for (<= r). This is the one place an infinity may
// enter a bound (allow_divergence).
func (u *Unifier) unifyBoundWindow(ctx *symbols.Context, single, window types.Predicate) (bool, error) {
	if window.Kind != types.PredAnd || len(window.Subs) != 2 {
		return false, nil
	}
	var ge, le *types.Predicate
	for i := range window.Subs {
		switch window.Subs[i].Kind {
		case types.PredGreaterEqual:
			ge = &window.Subs[i]
		case types.PredLessEqual:
			le = &window.Subs[i]
		}
	}
	if ge == nil || le == nil {
		return false, nil
	}
	switch single.Kind {
	case types.PredGreaterEqual:
		if err := u.UnifyParams(ctx, single.Rhs, ge.Rhs); err != nil {
			return true, err
		}
		return true, u.divergeParam(le.Rhs, types.PosInf())
	case types.PredLessEqual:
		if err := u.UnifyParams(ctx, single.Rhs, le.Rhs); err != nil {
			return true, err
		}
		return true, u.divergeParam(ge.Rhs, types.NegInf())
	default:
		return false, nil
	}
}

// divergeParam links a still-open bound variable to a signed infinity. A
// bound already carrying a value must already be that same infinity.
func (u *Unifier) divergeParam(p, inf types.TyParam) error {
	p = types.DerefParam(p)
	if fp, ok := p.(types.FreeTyParam); ok {
		fp.C.Link(inf)
		return nil
	}
	if types.EqualParams(p, inf) {
		return nil
	}
	return errUnification(p, inf)
}

func (u *Unifier) bindParamVar(v types.FreeTyParam, t types.TyParam) error {
	if occursInParamCell(v.C.ID(), t) {
		panic(&OccursCheckError{Cell: v.C.ID()})
	}
	v.C.Link(t)
	return nil
}

// SubUnify ensures sub <: sup, weakening either side's free-variable bound
// as needed rather than forcing equality (the directional judgment).
func (u *Unifier) SubUnify(ctx *symbols.Context, sub, sup types.Type) error {
	u.Log.Tracef(corelog.PointSubUnify, "%s <: %s", sub, sup)
	sub, sup = types.Deref(sub), types.Deref(sup)

	if types.Equal(sub, sup) {
		return nil
	}

	subFV, subIsFV := sub.(types.FreeVar)
	supFV, supIsFV := sup.(types.FreeVar)

	switch {
	case subIsFV && supIsFV:
		return u.unifyTwoVars(ctx, subFV, supFV)
	case subIsFV:
		return u.raiseCeiling(ctx, subFV, sup)
	case supIsFV:
		return u.lowerFloor(ctx, supFV, sub)
	}

	if u.Oracle.StructuralSupertypeOf(ctx, sup, sub, nil) {
		return u.decomposeSub(ctx, sub, sup)
	}
	if u.Oracle.NominalSupertypeOf(ctx, sup, sub) {
		return nil
	}
	return errSubType(sub, sup)
}

// raiseCeiling tightens an unbound var's Sup bound (its ceiling) to sup,
// used when the var appears on sub_unify's sub side.
func (u *Unifier) raiseCeiling(ctx *symbols.Context, v types.FreeVar, sup types.Type) error {
	if occursInType(v.C.ID(), sup) {
		panic(&OccursCheckError{Cell: v.C.ID()})
	}
	c := v.C.Constraint()
	if c.Kind != types.Sandwiched {
		return nil
	}
	newSup := u.meet(ctx, c.Sup, sup)
	if !u.Oracle.RecSupertypeOf(ctx, newSup, c.Sub) {
		return errSubType(c.Sub, newSup)
	}
	v.C.UpdateConstraint(types.SandwichedC(c.Sub, newSup))
	return nil
}

// lowerFloor widens an unbound var's Sub bound (its floor) to sub, used
// when the var appears on sub_unify's sup side.
func (u *Unifier) lowerFloor(ctx *symbols.Context, v types.FreeVar, sub types.Type) error {
	if occursInType(v.C.ID(), sub) {
		panic(&OccursCheckError{Cell: v.C.ID()})
	}
	c := v.C.Constraint()
	if c.Kind != types.Sandwiched {
		return nil
	}
	newSub := u.join(ctx, c.Sub, sub)
	if !u.Oracle.RecSupertypeOf(ctx, c.Sup, newSub) {
		return errSubType(newSub, c.Sup)
	}
	v.C.UpdateConstraint(types.SandwichedC(newSub, c.Sup))
	return nil
}

// decomposeSub recurses into sub_unify's variance-respecting children once
// the oracle has confirmed sup structurally dominates sub's shape, so that
// any free variables nested inside (e.g. a callback parameter, an array
// element) still get properly weakened rather than silently ignored.
func (u *Unifier) decomposeSub(ctx *symbols.Context, sub, sup types.Type) error {
	switch supV := sup.(type) {
	case types.Subr:
		subV, ok := sub.(types.Subr)
		if !ok || len(supV.T.Params) != len(subV.T.Params) {
			return nil
		}
		for i := range supV.T.Params {
			if err := u.SubUnify(ctx, supV.T.Params[i].T, subV.T.Params[i].T); err != nil {
				return err
			}
		}
		return u.SubUnify(ctx, subV.T.Return, supV.T.Return)

	case types.Poly:
		subV, ok := sub.(types.Poly)
		if !ok || supV.Name != subV.Name || len(supV.Params) != len(subV.Params) {
			return nil
		}
		variance, _ := ctx.RecGetTypeParamVariance(supV.Name)
		for i := range supV.Params {
			v := symbols.Invariant
			if i < len(variance) {
				v = variance[i]
			}
			supPT, supIsT := supV.Params[i].(types.ParamType)
			subPT, subIsT := subV.Params[i].(types.ParamType)
			if !supIsT || !subIsT {
				if err := u.UnifyParams(ctx, supV.Params[i], subV.Params[i]); err != nil {
					return err
				}
				continue
			}
			switch v {
			case symbols.Covariant:
				if err := u.SubUnify(ctx, subPT.T, supPT.T); err != nil {
					return err
				}
			case symbols.Contravariant:
				if err := u.SubUnify(ctx, supPT.T, subPT.T); err != nil {
					return err
				}
			default:
				if err := u.Unify(ctx, supPT.T, subPT.T); err != nil {
					return err
				}
			}
		}
		return nil

	case types.Tuple:
		subV, ok := sub.(types.Tuple)
		if !ok || len(supV.Elems) != len(subV.Elems) {
			return nil
		}
		for i := range supV.Elems {
			if err := u.SubUnify(ctx, subV.Elems[i], supV.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case types.Array:
		subV, ok := sub.(types.Array)
		if !ok {
			return nil
		}
		if err := u.SubUnify(ctx, subV.Elem, supV.Elem); err != nil {
			return err
		}
		return u.UnifyParams(ctx, subV.Len, supV.Len)

	case types.Dict:
		subV, ok := sub.(types.Dict)
		if !ok {
			return nil
		}
		if err := u.SubUnify(ctx, subV.Key, supV.Key); err != nil {
			return err
		}
		return u.SubUnify(ctx, subV.Value, supV.Value)

	case types.Record:
		subV, ok := sub.(types.Record)
		if !ok {
			return nil
		}
		for k, ft := range supV.Fields {
			if sft, ok := subV.Fields[k]; ok {
				if err := u.SubUnify(ctx, sft, ft); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return nil
	}
}

// Reunify propagates a mutation observed on a mutable receiver (e.g. an
// Array's dependent length after push!) from after back into the cells
// still referenced by before, so every alias of the receiver's prior type
// observes the update (reunify; the Call Typer's propagate step).
func (u *Unifier) Reunify(ctx *symbols.Context, before, after types.Type) error {
	u.Log.Tracef(corelog.PointReunify, "%s ~> %s", before, after)
	before, after = types.Deref(before), types.Deref(after)

	if fv, ok := before.(types.FreeVar); ok {
		return u.forceBind(fv, after)
	}

	switch bv := before.(type) {
	case types.Array:
		av, ok := after.(types.Array)
		if !ok {
			return errReUnify(before, after)
		}
		if err := u.Reunify(ctx, bv.Elem, av.Elem); err != nil {
			return err
		}
		return u.reunifyParam(ctx, bv.Len, av.Len)
	case types.Poly:
		av, ok := after.(types.Poly)
		if !ok || bv.Name != av.Name || len(bv.Params) != len(av.Params) {
			return errReUnify(before, after)
		}
		for i := range bv.Params {
			if err := u.reunifyParam(ctx, bv.Params[i], av.Params[i]); err != nil {
				return err
			}
		}
		return nil
	case types.Record:
		av, ok := after.(types.Record)
		if !ok {
			return errReUnify(before, after)
		}
		for k, bft := range bv.Fields {
			if aft, ok := av.Fields[k]; ok {
				if err := u.Reunify(ctx, bft, aft); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		if types.Equal(before, after) {
			return nil
		}
		return errReUnify(before, after)
	}
}

func (u *Unifier) reunifyParam(ctx *symbols.Context, before, after types.TyParam) error {
	before, after = types.DerefParam(before), types.DerefParam(after)
	if fp, ok := before.(types.FreeTyParam); ok {
		return u.bindParamVar(fp, after)
	}
	if types.EqualParams(before, after) {
		return nil
	}
	if bpt, ok := before.(types.ParamType); ok {
		if apt, ok := after.(types.ParamType); ok {
			return u.Reunify(ctx, bpt.T, apt.T)
		}
	}
	return errReUnify(before, after)
}
