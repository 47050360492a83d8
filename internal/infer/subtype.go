package infer

import (
	"github.com/glyphlang/typecore/internal/coreconfig"
	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// genericCallableNames are the structural supertype names a Subr of the
// matching kind is automatically an instance of.
var genericCallableNames = map[string]types.SubrKind{
	"GenericFunc":       types.SubrFunc,
	"GenericProc":       types.SubrProc,
	"GenericFuncMethod": types.SubrFuncMethod,
	"GenericProcMethod": types.SubrProcMethod,
	"GenericCallable":   types.SubrFunc, // matches any Subr kind, see below
}

// Oracle is the Subtype Oracle (SO): structural and nominal supertype-of
// judgments, variance-aware polymorphic comparison, and refinement
// implication. It is adapted from funxy's ad hoc union-membership/
// record-width checks inlined into typesystem.Unify; the richer subtyping
// this core needs (numeric tower, refinements, variance, glue patches)
// gets its own standalone component instead.
type Oracle struct {
	Tower *coreconfig.Tower
	Log   *corelog.Logger
}

// NewOracle builds an Oracle over the fixed ambient numeric tower.
func NewOracle(log *corelog.Logger) *Oracle {
	if log == nil {
		log = corelog.Discard()
	}
	return &Oracle{Tower: coreconfig.Load(), Log: log}
}

// StructuralSupertypeOf decides sup :> sub purely structurally,
// given the quantifier bounds active on the left (e.g. while checking
// inside a Quantified body). ctx is consulted only for variance lookups on
// Poly type constructors — never for nominal ancestor search, which is
// nominal_supertype_of's job.
func (o *Oracle) StructuralSupertypeOf(ctx *symbols.Context, sup, sub types.Type, bounds []types.TyBound) bool {
	sup, sub = types.Deref(sup), types.Deref(sub)

	if types.Equal(sup, sub) {
		return true
	}

	// An open variable on either side is optimistically related, as in
	// paramRelatedEq: SubUnify pins it down when it decomposes the
	// enclosing terms.
	if _, ok := sup.(types.FreeVar); ok {
		return true
	}
	if _, ok := sub.(types.FreeVar); ok {
		return true
	}

	if _, ok := sup.(types.Primitive); ok {
		if sup.(types.Primitive).Tag == types.Obj_ {
			return true
		}
	}
	if _, ok := sub.(types.Primitive); ok {
		if sub.(types.Primitive).Tag == types.NeverTag {
			return true
		}
	}

	if supP, ok := sup.(types.Primitive); ok {
		if subP, ok := sub.(types.Primitive); ok {
			if o.Tower.Rank(string(supP.Tag)) >= 0 && o.Tower.Rank(string(subP.Tag)) >= 0 {
				return o.Tower.NumericSupertypeOf(string(supP.Tag), string(subP.Tag))
			}
		}
	}

	// Generic callable names are supertypes of the matching Subr kinds.
	if supP, ok := sup.(types.Primitive); ok {
		if wantKind, generic := genericCallableNames[string(supP.Tag)]; generic {
			if subSubr, ok := sub.(types.Subr); ok {
				if string(supP.Tag) == "GenericCallable" {
					return true
				}
				return subSubr.T.Kind == wantKind
			}
		}
	}

	switch supV := sup.(type) {
	case types.Subr:
		subV, ok := sub.(types.Subr)
		if !ok || supV.T.Kind != subV.T.Kind {
			return false
		}
		if supV.T.Kind != types.SubrFunc && supV.T.Kind != types.SubrProc {
			// method kinds compare with self-t too
			if (supV.T.SelfT == nil) != (subV.T.SelfT == nil) {
				return false
			}
			if supV.T.SelfT != nil && !o.StructuralSupertypeOf(ctx, supV.T.SelfT, subV.T.SelfT, bounds) {
				return false
			}
		}
		if len(supV.T.Params) != len(subV.T.Params) {
			return false
		}
		for i := range supV.T.Params {
			// parameters are contravariant: sub's param must be a
			// supertype of sup's param.
			if !o.StructuralSupertypeOf(ctx, subV.T.Params[i].T, supV.T.Params[i].T, bounds) {
				return false
			}
		}
		return o.StructuralSupertypeOf(ctx, supV.T.Return, subV.T.Return, bounds)

	case types.Poly:
		subV, ok := sub.(types.Poly)
		if !ok || supV.Name != subV.Name || len(supV.Params) != len(subV.Params) {
			return false
		}
		variance, _ := ctx.RecGetTypeParamVariance(supV.Name)
		for i := range supV.Params {
			v := symbols.Invariant
			if i < len(variance) {
				v = variance[i]
			}
			if !o.paramRelated(ctx, supV.Params[i], subV.Params[i], v, bounds) {
				return false
			}
		}
		return true

	case types.Refinement:
		subR := types.IntoRefinement(sub)
		if !o.StructuralSupertypeOf(ctx, supV.Base, subR.Base, bounds) {
			return false
		}
		for _, p := range supV.Preds {
			if !o.impliedByAll(p, subR.Preds) {
				return false
			}
		}
		return true

	case types.Quantified:
		subV, ok := sub.(types.Quantified)
		if !ok {
			return false
		}
		return o.StructuralSupertypeOf(ctx, supV.Body, subV.Body, append(append([]types.TyBound{}, bounds...), supV.Bounds...))

	case types.Logical:
		if supV.Kind == types.LAnd {
			for _, t := range supV.Elems {
				if !o.StructuralSupertypeOf(ctx, t, sub, bounds) {
					return false
				}
			}
			return true
		}

	case types.RefForm:
		subV, ok := sub.(types.RefForm)
		inner := sub
		if ok {
			inner = subV.Elem
		}
		return o.StructuralSupertypeOf(ctx, supV.Elem, inner, bounds)

	case types.Tuple:
		subV, ok := sub.(types.Tuple)
		if !ok || len(supV.Elems) != len(subV.Elems) {
			return false
		}
		for i := range supV.Elems {
			if !o.StructuralSupertypeOf(ctx, supV.Elems[i], subV.Elems[i], bounds) {
				return false
			}
		}
		return true

	case types.Array:
		subV, ok := sub.(types.Array)
		if !ok || !o.StructuralSupertypeOf(ctx, supV.Elem, subV.Elem, bounds) {
			return false
		}
		return paramRelatedEq(supV.Len, subV.Len)

	case types.Dict:
		subV, ok := sub.(types.Dict)
		return ok && o.StructuralSupertypeOf(ctx, supV.Key, subV.Key, bounds) && o.StructuralSupertypeOf(ctx, supV.Value, subV.Value, bounds)

	case types.Record:
		subV, ok := sub.(types.Record)
		if !ok {
			return false
		}
		for k, ft := range supV.Fields {
			sft, ok := subV.Fields[k]
			if !ok || !o.StructuralSupertypeOf(ctx, ft, sft, bounds) {
				return false
			}
		}
		return true

	case types.MonoQVar:
		for _, b := range bounds {
			if b.Kind == types.BoundSubtype && b.Name == supV.Name {
				return o.StructuralSupertypeOf(ctx, b.Sup, sub, bounds)
			}
		}
	}

	if subLog, ok := sub.(types.Logical); ok && subLog.Kind == types.LOr {
		for _, t := range subLog.Elems {
			if !o.StructuralSupertypeOf(ctx, sup, t, bounds) {
				return false
			}
		}
		return true
	}
	if subR, ok := sub.(types.Refinement); ok {
		// Nat canonicalizes to {v: Int | v >= 0} on demand, so its
		// refinement subtypes compare predicate-wise instead of falling
		// through to the (false) Nat :> Int base comparison.
		if supP, ok := sup.(types.Primitive); ok && supP.Tag == types.NatTag {
			supR := types.IntoRefinement(sup)
			if o.StructuralSupertypeOf(ctx, supR.Base, subR.Base, bounds) {
				implied := true
				for _, p := range supR.Preds {
					if !o.impliedByAll(p, subR.Preds) {
						implied = false
						break
					}
				}
				if implied {
					return true
				}
			}
		}
		return o.StructuralSupertypeOf(ctx, sup, subR.Base, bounds)
	}
	if supV, ok := sup.(types.RefForm); ok {
		return o.StructuralSupertypeOf(ctx, supV.Elem, sub, bounds)
	}

	return false
}

func (o *Oracle) paramRelated(ctx *symbols.Context, sup, sub types.TyParam, v symbols.Variance, bounds []types.TyBound) bool {
	supT, supIsT := sup.(types.ParamType)
	subT, subIsT := sub.(types.ParamType)
	if supIsT && subIsT {
		switch v {
		case symbols.Covariant:
			return o.StructuralSupertypeOf(ctx, supT.T, subT.T, bounds)
		case symbols.Contravariant:
			return o.StructuralSupertypeOf(ctx, subT.T, supT.T, bounds)
		default:
			return types.Equal(supT.T, subT.T)
		}
	}
	return paramRelatedEq(sup, sub)
}

// paramRelatedEq is the fallback for dependent (non-type) parameters,
// which carry no variance: they must agree up to evaluation. A side that
// still holds an open variable is optimistically related — the Unifier
// pins it down (or fails) when it decomposes the enclosing terms.
func paramRelatedEq(a, b types.TyParam) bool {
	if paramHas(a) || paramHas(b) {
		return true
	}
	ea, erra := types.EvalTP(a)
	eb, errb := types.EvalTP(b)
	if erra != nil || errb != nil {
		return types.EqualParams(a, b)
	}
	return types.ShallowEqTP(ea, eb)
}

// impliedByAll reports whether predicate p is implied by the conjunction of
// subPreds (false if subPreds is empty: the unconstrained refinement
// implies no predicate).
func (o *Oracle) impliedByAll(p types.Predicate, subPreds []types.Predicate) bool {
	if len(subPreds) == 0 {
		// The predicate sum has no tautological constant, so an
		// unconstrained base type can never satisfy a non-trivial predicate.
		return false
	}
	conj := subPreds[0]
	if len(subPreds) > 1 {
		conj = types.AndPred(subPreds...)
	}
	return types.IsSuperPredOf(p, conj)
}

// NominalSupertypeOf scans the context graph for a declared ancestor of sub
// (by name) of which sup is a structural supertype, including glue-patch
// assertions (nominal_supertype_of).
func (o *Oracle) NominalSupertypeOf(ctx *symbols.Context, sup, sub types.Type) bool {
	subName := types.TypeName(sub)
	if subName == "" {
		return false
	}
	// The glue clause is general over the whole ancestry, not just the
	// queried name: a patch asserting "Animal implements Show" also makes
	// Show a supertype of every Dog <: Animal. Collect ancestor names while
	// walking the declared supertype edges so the patch lookup below covers
	// them all.
	names := []string{subName}
	seenName := map[string]bool{subName: true}
	for _, ancestorCtx := range ctx.RecSortedSuperTypeCtxs(subName) {
		for _, superT := range ancestorCtx.SuperClasses {
			if o.StructuralSupertypeOf(ctx, sup, superT, nil) {
				return true
			}
			if n := types.TypeName(superT); n != "" && !seenName[n] {
				seenName[n] = true
				names = append(names, n)
			}
		}
	}
	for _, name := range names {
		for _, patch := range ctx.RecGetGluePatchAndTypes(name) {
			if patch.Impl == nil {
				continue
			}
			if o.StructuralSupertypeOf(ctx, sup, patch.Impl.TargetType, nil) {
				return true
			}
		}
	}
	return false
}

// RecSupertypeOf is the top-level entry point: sup :> sub iff either the
// structural or the nominal judgment holds — structural first,
// which matches the observed behavior of the system this was modeled on
// (DESIGN.md records the decision).
func (o *Oracle) RecSupertypeOf(ctx *symbols.Context, sup, sub types.Type) bool {
	if o.StructuralSupertypeOf(ctx, sup, sub, nil) {
		return true
	}
	return o.NominalSupertypeOf(ctx, sup, sub)
}

// AsSupertypeOfFunc adapts RecSupertypeOf to the types.SupertypeOf hook
// Constraint.IsSubConstraintOf needs, closing over a fixed ctx.
func (o *Oracle) AsSupertypeOfFunc(ctx *symbols.Context) types.SupertypeOf {
	return func(sup, sub types.Type) bool { return o.RecSupertypeOf(ctx, sup, sub) }
}
