package infer

import (
	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/types"
)

// Derefiner collapses still-open free variables: deref_tyvar at the end of
// each call and deref_toplevel once a whole tree is checked.
// A Sandwiched variable collapses to its upper bound when the lower bound
// is still Never, otherwise to the lower bound; the cell is linked to the
// chosen side so every alias observes the collapse.
type Derefiner struct {
	Log *corelog.Logger
}

func NewDerefiner(log *corelog.Logger) *Derefiner {
	if log == nil {
		log = corelog.Discard()
	}
	return &Derefiner{Log: log}
}

// DerefTyVar collapses every variable created at a level deeper than
// scopeLevel — the variables that belong to the scope being left — and
// leaves variables owned by enclosing scopes open for their own deref.
func (d *Derefiner) DerefTyVar(t types.Type, scopeLevel types.Level) (types.Type, error) {
	return d.derefType(t, scopeLevel, false)
}

// DerefToplevel is the final deref_toplevel walk: the whole tree is
// dereferenced at level 0, and any variable that still cannot become
// concrete is an Uninferable error.
func (d *Derefiner) DerefToplevel(t types.Type) (types.Type, error) {
	d.Log.Tracef(corelog.PointDerefTop, "deref %s", t)
	return d.derefType(t, types.LevelTop, true)
}

func (d *Derefiner) derefType(t types.Type, level types.Level, toplevel bool) (types.Type, error) {
	switch v := t.(type) {
	case types.FreeVar:
		if v.C.IsLinked() {
			return d.derefType(v.C.Crack(), level, toplevel)
		}
		if !v.C.Level().GeneralizableAt(level) && !toplevel {
			return t, nil // owned by an enclosing scope; not ours to collapse
		}
		c := v.C.Constraint()
		switch c.Kind {
		case types.Sandwiched:
			target := c.Sub
			if types.Equal(c.Sub, types.Never()) {
				target = c.Sup
			}
			d.Log.Tracef(corelog.PointLink, "%s collapses to %s", v.C, target)
			v.C.Link(target)
			return d.derefType(target, level, toplevel)
		default:
			if toplevel {
				return nil, errUninferable(t)
			}
			return t, nil
		}

	case types.Poly:
		params, err := d.derefParams(v.Params, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.Poly{Name: v.Name, Params: params}, nil

	case types.Subr:
		nt := v.T
		var err error
		if nt.SelfT != nil {
			if nt.SelfT, err = d.derefType(nt.SelfT, level, toplevel); err != nil {
				return nil, err
			}
		}
		if nt.AfterSelfT != nil {
			if nt.AfterSelfT, err = d.derefType(nt.AfterSelfT, level, toplevel); err != nil {
				return nil, err
			}
		}
		params := make([]types.Param, len(nt.Params))
		for i, p := range nt.Params {
			pt, err := d.derefType(p.T, level, toplevel)
			if err != nil {
				return nil, err
			}
			params[i] = types.Param{Name: p.Name, T: pt}
		}
		nt.Params = params
		if nt.Return, err = d.derefType(nt.Return, level, toplevel); err != nil {
			return nil, err
		}
		return types.Subr{T: nt}, nil

	case types.Callable:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			pt, err := d.derefType(p, level, toplevel)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		ret, err := d.derefType(v.Return, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.Callable{Params: params, Return: ret}, nil

	case types.Refinement:
		base, err := d.derefType(v.Base, level, toplevel)
		if err != nil {
			return nil, err
		}
		preds := make([]types.Predicate, len(v.Preds))
		for i, p := range v.Preds {
			dp, err := d.derefPred(p, level, toplevel)
			if err != nil {
				return nil, err
			}
			preds[i] = dp
		}
		return types.CanonicalizeNat(types.Refinement{Var: v.Var, Base: base, Preds: preds}), nil

	case types.Quantified:
		// A quantified type is closed over its own bound names; only its
		// residual free cells (from the enclosing inference) collapse.
		body, err := d.derefType(v.Body, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.Quantified{Body: body, Bounds: v.Bounds}, nil

	case types.Logical:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			de, err := d.derefType(e, level, toplevel)
			if err != nil {
				return nil, err
			}
			elems[i] = de
		}
		return types.Logical{Kind: v.Kind, Elems: elems}, nil

	case types.RefForm:
		elem, err := d.derefType(v.Elem, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.RefForm{Kind: v.Kind, Elem: elem}, nil

	case types.Tuple:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			de, err := d.derefType(e, level, toplevel)
			if err != nil {
				return nil, err
			}
			elems[i] = de
		}
		return types.Tuple{Elems: elems}, nil

	case types.Array:
		elem, err := d.derefType(v.Elem, level, toplevel)
		if err != nil {
			return nil, err
		}
		length, err := d.derefParamOne(v.Len, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.Array{Elem: elem, Len: length}, nil

	case types.Dict:
		key, err := d.derefType(v.Key, level, toplevel)
		if err != nil {
			return nil, err
		}
		val, err := d.derefType(v.Value, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.Dict{Key: key, Value: val}, nil

	case types.Record:
		fields := make(map[string]types.Type, len(v.Fields))
		for k, f := range v.Fields {
			df, err := d.derefType(f, level, toplevel)
			if err != nil {
				return nil, err
			}
			fields[k] = df
		}
		var row types.Type
		if v.Row != nil {
			var err error
			if row, err = d.derefType(v.Row, level, toplevel); err != nil {
				return nil, err
			}
		}
		return types.Record{Fields: fields, Row: row, IsOpen: v.IsOpen}, nil

	case types.MonoProj:
		base, err := d.derefType(v.Base, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.MonoProj{Base: base, Name: v.Name}, nil

	default:
		return t, nil
	}
}

func (d *Derefiner) derefParams(ps []types.TyParam, level types.Level, toplevel bool) ([]types.TyParam, error) {
	out := make([]types.TyParam, len(ps))
	for i, p := range ps {
		dp, err := d.derefParamOne(p, level, toplevel)
		if err != nil {
			return nil, err
		}
		out[i] = dp
	}
	return out, nil
}

func (d *Derefiner) derefParamOne(p types.TyParam, level types.Level, toplevel bool) (types.TyParam, error) {
	switch v := p.(type) {
	case types.FreeTyParam:
		if v.C.IsLinked() {
			return d.derefParamOne(v.C.Crack(), level, toplevel)
		}
		// A dependent-parameter variable has no bound window to collapse
		// toward; it either got a value during unification or it is still
		// genuinely open.
		if toplevel {
			return nil, errUninferable(p)
		}
		return p, nil
	case types.ParamType:
		t, err := d.derefType(v.T, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.ParamType{T: t}, nil
	case types.BinOpParam:
		left, err := d.derefParamOne(v.Left, level, toplevel)
		if err != nil {
			return nil, err
		}
		right, err := d.derefParamOne(v.Right, level, toplevel)
		if err != nil {
			return nil, err
		}
		folded, ferr := types.EvalTP(types.BinOpParam{Op: v.Op, Left: left, Right: right})
		if ferr != nil {
			return types.BinOpParam{Op: v.Op, Left: left, Right: right}, nil
		}
		return folded, nil
	case types.UnaryOpParam:
		operand, err := d.derefParamOne(v.Operand, level, toplevel)
		if err != nil {
			return nil, err
		}
		folded, ferr := types.EvalTP(types.UnaryOpParam{Op: v.Op, Operand: operand})
		if ferr != nil {
			return types.UnaryOpParam{Op: v.Op, Operand: operand}, nil
		}
		return folded, nil
	case types.AppliedParam:
		args, err := d.derefParams(v.Args, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.AppliedParam{Name: v.Name, Args: args}, nil
	case types.Erased:
		t, err := d.derefType(v.T, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.Erased{T: t}, nil
	case types.MonoProjParam:
		base, err := d.derefParamOne(v.Base, level, toplevel)
		if err != nil {
			return nil, err
		}
		return types.MonoProjParam{Base: base, Name: v.Name}, nil
	case types.TupleParam, types.ArrayParam:
		// The original leaves tuple/array type-parameter dereference
		// unimplemented; recognized but unsupported rather than guessed at.
		if paramHas(p) {
			return nil, errFeature("tuple/array type parameter dereference")
		}
		return p, nil
	default:
		return p, nil
	}
}

func (d *Derefiner) derefPred(p types.Predicate, level types.Level, toplevel bool) (types.Predicate, error) {
	switch p.Kind {
	case types.PredValue:
		v, err := d.derefParamOne(p.Value, level, toplevel)
		if err != nil {
			return p, err
		}
		return types.ValuePred(v), nil
	case types.PredConst:
		c, err := d.derefParamOne(p.Const, level, toplevel)
		if err != nil {
			return p, err
		}
		return types.Predicate{Kind: types.PredConst, Const: c}, nil
	case types.PredEqual, types.PredGreaterEqual, types.PredLessEqual, types.PredNotEqual:
		lhs, err := d.derefParamOne(p.Lhs, level, toplevel)
		if err != nil {
			return p, err
		}
		rhs, err := d.derefParamOne(p.Rhs, level, toplevel)
		if err != nil {
			return p, err
		}
		return types.Predicate{Kind: p.Kind, Lhs: lhs, Rhs: rhs}, nil
	default:
		subs := make([]types.Predicate, len(p.Subs))
		for i, s := range p.Subs {
			ds, err := d.derefPred(s, level, toplevel)
			if err != nil {
				return p, err
			}
			subs[i] = ds
		}
		return types.Predicate{Kind: p.Kind, Subs: subs}, nil
	}
}

// paramHas reports whether a dependent-parameter tree still holds an
// unbound cell anywhere.
func paramHas(p types.TyParam) bool {
	switch v := types.DerefParam(p).(type) {
	case types.FreeTyParam:
		return !v.C.IsLinked()
	case types.ParamType:
		return types.HasUnboundVar(v.T)
	case types.BinOpParam:
		return paramHas(v.Left) || paramHas(v.Right)
	case types.UnaryOpParam:
		return paramHas(v.Operand)
	case types.AppliedParam:
		for _, a := range v.Args {
			if paramHas(a) {
				return true
			}
		}
		return false
	case types.TupleParam:
		for _, e := range v.Elems {
			if paramHas(e) {
				return true
			}
		}
		return false
	case types.ArrayParam:
		return paramHas(v.Elem) || paramHas(v.Len)
	case types.MonoProjParam:
		return paramHas(v.Base)
	default:
		return false
	}
}
