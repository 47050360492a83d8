package infer

import (
	"fmt"

	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// CallTyper is the CT component: the pipeline that types a single call
// site. SearchCalleeT (search.go) resolves the callee's type from a bare
// name or a receiver's member contexts; everything from instantiate
// onward lives here.
type CallTyper struct {
	Inst   *Instantiator
	Gen    *Generalizer
	Unify  *Unifier
	Oracle *Oracle
	Deref  *Derefiner
	Log    *corelog.Logger
}

func NewCallTyper(inst *Instantiator, gen *Generalizer, unify *Unifier, oracle *Oracle, log *corelog.Logger) *CallTyper {
	if log == nil {
		log = corelog.Discard()
	}
	return &CallTyper{Inst: inst, Gen: gen, Unify: unify, Oracle: oracle, Deref: NewDerefiner(log), Log: log}
}

// Arg is a single call-site argument already typed by the caller (the core
// never evaluates expressions itself): Name is non-empty for a keyword
// argument, empty for a positional one.
type Arg struct {
	Name string
	T    types.Type
}

// GetCallT types one call site: calleeT (the callee's own, possibly
// Quantified, Subr type), selfT (nil for a bare call), and the call's
// arguments. It returns the call's result type.
func (ct *CallTyper) GetCallT(ctx *symbols.Context, calleeT, selfT types.Type, args []Arg) (types.Type, error) {
	level := ctx.Level + 1

	instantiated, reqs, err := ct.Inst.Instantiate(ctx, level, calleeT)
	if err != nil {
		return nil, err
	}
	subr, ok := types.Deref(instantiated).(types.Subr)
	if !ok {
		return nil, errFeature("call target is not a Subr")
	}

	if subr.T.SelfT != nil {
		if selfT == nil {
			return nil, newErr(KindTypeMismatch, subr.T.SelfT, "<no receiver>")
		}
		if err := ct.Unify.SubUnify(ctx, selfT, subr.T.SelfT); err != nil {
			return nil, err
		}
	} else if selfT != nil && types.TypeName(selfT) == "" {
		// A self-less subroutine reached through a receiver is only legal
		// when the receiver is a named object (a module or class) serving
		// as a namespace, not a structural value.
		return nil, newErr(KindTypeMismatch, "<no self>", selfT)
	}

	if err := ct.substituteCall(ctx, subr.T, args); err != nil {
		return nil, err
	}

	if err := ct.instantiateTrait(ctx, reqs); err != nil {
		return nil, err
	}

	retT, err := ct.evalReturnParams(subr.T.Return)
	if err != nil {
		return nil, err
	}

	if subr.T.Kind == types.SubrProcMethod && subr.T.AfterSelfT != nil && selfT != nil {
		ct.Log.Tracef(corelog.PointReunify, "propagating mutation of receiver %s", selfT)
		if err := ct.Unify.Reunify(ctx, selfT, subr.T.AfterSelfT); err != nil {
			return nil, err
		}
	}

	// Collapse the call's own residual variables toward their bounds; a
	// variable that still has no value after that (a dependent parameter
	// nothing constrained) is uninferable here and now. Variables owned by
	// enclosing scopes stay open for their own deref.
	retT, err = ct.Deref.DerefTyVar(retT, ctx.Level)
	if err != nil {
		return nil, err
	}
	retT = types.Deref(retT)
	if types.HasLocalUnbound(retT, ctx.Level) {
		ct.Log.Tracef(corelog.PointDerefTop, "residual free variable in %s", retT)
		return nil, errUninferable(retT)
	}

	return retT, nil
}

// substituteCall matches call-site arguments against the subr's declared
// parameters by position then by keyword, sub_unifying each matched pair
// (substitute_call).
func (ct *CallTyper) substituteCall(ctx *symbols.Context, sig types.SubrType, args []Arg) error {
	matched := make([]bool, len(sig.Params))
	posIdx := 0

	for _, a := range args {
		if a.Name == "" {
			if posIdx >= len(sig.Params) {
				if sig.IsVariadic && len(sig.Params) > 0 {
					last := sig.Params[len(sig.Params)-1]
					if err := ct.Unify.SubUnify(ctx, a.T, last.T); err != nil {
						return err
					}
					continue
				}
				return newErr(KindTooManyArgs, fmt.Sprint(len(sig.Params)), fmt.Sprint(posIdx+1))
			}
			if err := ct.Unify.SubUnify(ctx, a.T, sig.Params[posIdx].T); err != nil {
				return err
			}
			matched[posIdx] = true
			posIdx++
			continue
		}

		idx := -1
		for i, p := range sig.Params {
			if p.Name == a.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return newErr(KindUnexpectedKwArg, a.Name)
		}
		if matched[idx] {
			return newErr(KindMultipleArgs, a.Name)
		}
		if err := ct.Unify.SubUnify(ctx, a.T, sig.Params[idx].T); err != nil {
			return err
		}
		matched[idx] = true
	}

	minRequired := len(sig.Params) - sig.DefaultCount
	for i := 0; i < minRequired; i++ {
		if !matched[i] {
			// No dedicated kind exists for a missing required argument;
			// it's a mismatch between the declared parameter and the
			// absence of a corresponding call-site value.
			return newErr(KindTypeMismatch, sig.Params[i].T, "<missing argument "+sig.Params[i].Name+">")
		}
	}
	return nil
}

// instantiateTrait resolves each BoundInstance requirement discovered by
// Instantiate against the registered trait implementations visible in ctx,
// preferring the most specific (subtype-minimum) match when more than one
// applies (the tie-break DESIGN.md records).
func (ct *CallTyper) instantiateTrait(ctx *symbols.Context, reqs InstanceRequirements) error {
	for varName, req := range reqs {
		if req.Cell.IsLinked() {
			continue // already pinned down by substitute_call
		}
		traitName := types.TypeName(req.Inst)
		impls := ctx.RecGetPolyTraitImpls(traitName)
		window := req.Cell.Constraint()
		candidates := make([]*symbols.PolyTraitImpl, 0, len(impls))
		for _, impl := range impls {
			if window.Kind == types.Sandwiched {
				if !ct.Oracle.RecSupertypeOf(ctx, impl.TargetType, window.Sub) || !ct.Oracle.RecSupertypeOf(ctx, window.Sup, impl.TargetType) {
					continue
				}
			}
			candidates = append(candidates, impl)
		}
		if len(candidates) == 0 {
			return newErr(KindFeature, "no implementation of "+traitName+" in scope for "+varName)
		}
		best := ct.pickMostSpecific(ctx, candidates)
		if best == nil {
			return newErr(KindFeature, "no most specific implementation of "+traitName+" for "+varName)
		}
		req.Cell.Link(best.TargetType)
	}
	return nil
}

// pickMostSpecific returns the impl whose TargetType is a subtype of every
// other candidate's TargetType, or nil if no single candidate dominates
// (an ambiguous/incoherent set of overlapping impls).
func (ct *CallTyper) pickMostSpecific(ctx *symbols.Context, impls []*symbols.PolyTraitImpl) *symbols.PolyTraitImpl {
	var best *symbols.PolyTraitImpl
	for _, cand := range impls {
		dominatesAll := true
		for _, other := range impls {
			if cand == other {
				continue
			}
			if !ct.Oracle.RecSupertypeOf(ctx, other.TargetType, cand.TargetType) {
				dominatesAll = false
				break
			}
		}
		if dominatesAll {
			best = cand
			break
		}
	}
	return best
}

// evalReturnParams folds every dependent parameter reachable from a return
// type via EvalTP (eval_t_params), leaving anything that still
// can't reduce (a genuine residual, not yet an error at this stage) as-is.
func (ct *CallTyper) evalReturnParams(t types.Type) (types.Type, error) {
	switch v := types.Deref(t).(type) {
	case types.Array:
		length, err := types.EvalTP(v.Len)
		if err != nil {
			if ee, ok := err.(*types.EvalError); ok && ee.Uninferable {
				return nil, errUninferable(v.Len)
			}
			length = v.Len
		}
		elem, err := ct.evalReturnParams(v.Elem)
		if err != nil {
			return nil, err
		}
		return types.Array{Elem: elem, Len: length}, nil
	case types.Poly:
		params := make([]types.TyParam, len(v.Params))
		for i, p := range v.Params {
			ep, err := types.EvalTP(p)
			if err != nil {
				params[i] = p
				continue
			}
			params[i] = ep
		}
		return types.Poly{Name: v.Name, Params: params}, nil
	case types.Tuple:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			ee, err := ct.evalReturnParams(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ee
		}
		return types.Tuple{Elems: elems}, nil
	default:
		return t, nil
	}
}
