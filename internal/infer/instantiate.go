package infer

import (
	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// tyVarCache maps each bound name encountered during one instantiation to
// the single fresh cell that stands in for it everywhere it recurs in the
// body — the cell-store counterpart of the per-call substitution map the
// teacher's InstantiateForall family builds, one fresh variable per bound
// name.
type tyVarCache struct {
	level  types.Level
	vars   map[string]*types.Cell[types.Type]
	params map[string]*types.Cell[types.TyParam]
	// instanceReqs collects the BoundInstance requirements discovered while
	// building this cache's vars, keyed by bound name (the same key as vars)
	// so the Call Typer's instantiate_trait phase can look each one up after
	// the fact.
	instanceReqs map[string]types.Type
}

func newTyVarCache(level types.Level) *tyVarCache {
	return &tyVarCache{
		level:        level,
		vars:         make(map[string]*types.Cell[types.Type]),
		params:       make(map[string]*types.Cell[types.TyParam]),
		instanceReqs: make(map[string]types.Type),
	}
}

// Instantiator is the IN component: it replaces a Quantified type's bound
// MonoQVar/PolyQVar occurrences with fresh FreeVar/FreeTyParam cells at the
// current level, enforcing rank-1 quantification.
type Instantiator struct {
	Log *corelog.Logger
}

func NewInstantiator(log *corelog.Logger) *Instantiator {
	if log == nil {
		log = corelog.Discard()
	}
	return &Instantiator{Log: log}
}

// InstanceRequirement pairs a BoundInstance's required trait type with the
// fresh cell standing in for the quantified variable, so the Call Typer can
// both search for a satisfying impl and bind the cell to it once found.
type InstanceRequirement struct {
	Cell *types.Cell[types.Type]
	Inst types.Type
}

// InstanceRequirements is returned alongside the instantiated type so the
// Call Typer can resolve each fresh variable's required trait instance
// (BoundInstance; the Call Typer's instantiate_trait step).
type InstanceRequirements map[string]InstanceRequirement

// Instantiate opens a Quantified type's top-level quantifier into fresh
// variables at level, returning the instantiated body. A type that is not
// Quantified instantiates to itself unchanged.
func (in *Instantiator) Instantiate(ctx *symbols.Context, level types.Level, t types.Type) (types.Type, InstanceRequirements, error) {
	q, ok := types.Deref(t).(types.Quantified)
	if !ok {
		return t, nil, nil
	}
	cache := newTyVarCache(level)
	for _, b := range q.Bounds {
		switch b.Kind {
		case types.BoundSubtype:
			cache.vars[b.Name] = types.NewUnbound[types.Type](level, types.SandwichedC(b.Sub, b.Sup))
		case types.BoundInstance:
			// An Instance bound classifies either a type variable (its
			// instance is a trait, or the Type meta-type) or a dependent
			// parameter (its instance is a value-classifying type such as
			// Nat). The former opens a type-level cell the Call Typer later
			// resolves against registered trait impls; the latter opens a
			// param-level cell carrying a TypeOf constraint.
			if valueClassifying(b.Inst) {
				cache.params[b.Name] = types.NewUnbound[types.TyParam](level, types.TypeOfC(b.Inst))
				continue
			}
			cell := types.NewUnbound[types.Type](level, types.TopConstraint())
			cache.vars[b.Name] = cell
			if !isTypeMeta(b.Inst) {
				cache.instanceReqs[b.Name] = b.Inst
			}
		}
	}
	in.Log.Tracef(corelog.PointInstantiate, "opening %d bound(s) of %s", len(q.Bounds), t)
	body := in.substType(cache, q.Body)
	if hasNestedQuantified(body) {
		return nil, nil, errFeature("higher-rank polymorphism (nested quantifier)")
	}

	reqs := make(InstanceRequirements, len(cache.instanceReqs))
	for name, instT := range cache.instanceReqs {
		reqs[name] = InstanceRequirement{Cell: cache.vars[name], Inst: instT}
	}
	return body, reqs, nil
}

// valueClassifying reports whether a bound's instance type classifies a
// dependent-parameter value rather than a type variable: the numeric tower
// primitives and Str, whose instances are compile-time values.
func valueClassifying(t types.Type) bool {
	p, ok := types.Deref(t).(types.Primitive)
	if !ok {
		return false
	}
	switch p.Tag {
	case types.IntTag, types.NatTag, types.RatioTag, types.FloatTag, types.BoolTag, types.StrTag:
		return true
	default:
		return false
	}
}

func isTypeMeta(t types.Type) bool {
	p, ok := types.Deref(t).(types.Primitive)
	return ok && p.Tag == types.TypeTag
}

// paramBase is the base type a dependent-parameter cell's values inhabit,
// read off its TypeOf constraint.
func paramBase(cell *types.Cell[types.TyParam]) types.Type {
	if cell.IsLinked() {
		return types.GetTPType(cell.Crack())
	}
	c := cell.Constraint()
	if c.Kind == types.TypeOf {
		return c.Of
	}
	return types.Obj()
}

// freshFor lazily allocates (and memoizes) the fresh cell standing in for
// name, used for bound names that appear in the body but were never listed
// among q.Bounds (e.g. a dependent parameter name with no declared window).
func (c *tyVarCache) freshFor(name string) *types.Cell[types.Type] {
	if cell, ok := c.vars[name]; ok {
		return cell
	}
	cell := types.NewUnbound[types.Type](c.level, types.TopConstraint())
	c.vars[name] = cell
	return cell
}

func (c *tyVarCache) freshParamFor(name string) *types.Cell[types.TyParam] {
	if cell, ok := c.params[name]; ok {
		return cell
	}
	cell := types.NewUnbound[types.TyParam](c.level, types.TypeOfC(types.Obj()))
	c.params[name] = cell
	return cell
}

func (in *Instantiator) substType(c *tyVarCache, t types.Type) types.Type {
	switch v := t.(type) {
	case types.FreeVar:
		// A generalized cell is linked to its bound name; read through the
		// link so that name is replaced like any other occurrence.
		if v.C.IsLinked() {
			return in.substType(c, v.C.Crack())
		}
		return t
	case types.MonoQVar:
		// A bound name classified as a dependent parameter can still show
		// up in a Type position (e.g. a singleton return {M}); it reads
		// back through its param cell there.
		if cell, ok := c.params[v.Name]; ok {
			return types.Refinement{Var: "v", Base: paramBase(cell), Preds: []types.Predicate{
				types.EqPred(types.ParamType{T: paramBase(cell)}, types.FreeTyParam{C: cell}),
			}}
		}
		return types.FreeVar{C: c.freshFor(v.Name)}
	case types.PolyQVar:
		return types.Poly{Name: v.Name, Params: in.substParams(c, v.Params)}
	case types.Subr:
		nt := v.T
		if nt.SelfT != nil {
			nt.SelfT = in.substType(c, nt.SelfT)
		}
		params := make([]types.Param, len(nt.Params))
		for i, p := range nt.Params {
			params[i] = types.Param{Name: p.Name, T: in.substType(c, p.T)}
		}
		nt.Params = params
		nt.Return = in.substType(c, nt.Return)
		return types.Subr{T: nt}
	case types.Callable:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = in.substType(c, p)
		}
		return types.Callable{Params: params, Return: in.substType(c, v.Return)}
	case types.Poly:
		return types.Poly{Name: v.Name, Params: in.substParams(c, v.Params)}
	case types.Refinement:
		return types.Refinement{Var: v.Var, Base: in.substType(c, v.Base), Preds: in.substPreds(c, v.Preds)}
	case types.Quantified:
		return v // rank-1: never descend into a nested quantifier's own bound names
	case types.Logical:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = in.substType(c, e)
		}
		return types.Logical{Kind: v.Kind, Elems: elems}
	case types.RefForm:
		return types.RefForm{Kind: v.Kind, Elem: in.substType(c, v.Elem)}
	case types.Tuple:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = in.substType(c, e)
		}
		return types.Tuple{Elems: elems}
	case types.Array:
		return types.Array{Elem: in.substType(c, v.Elem), Len: in.substParam(c, v.Len)}
	case types.Dict:
		return types.Dict{Key: in.substType(c, v.Key), Value: in.substType(c, v.Value)}
	case types.Record:
		fields := make(map[string]types.Type, len(v.Fields))
		for k, f := range v.Fields {
			fields[k] = in.substType(c, f)
		}
		var row types.Type
		if v.Row != nil {
			row = in.substType(c, v.Row)
		}
		return types.Record{Fields: fields, Row: row, IsOpen: v.IsOpen}
	case types.MonoProj:
		return types.MonoProj{Base: in.substType(c, v.Base), Name: v.Name}
	default:
		return t
	}
}

func (in *Instantiator) substParams(c *tyVarCache, ps []types.TyParam) []types.TyParam {
	out := make([]types.TyParam, len(ps))
	for i, p := range ps {
		out[i] = in.substParam(c, p)
	}
	return out
}

func (in *Instantiator) substParam(c *tyVarCache, p types.TyParam) types.TyParam {
	switch v := p.(type) {
	case types.FreeTyParam:
		if v.C.IsLinked() {
			return in.substParam(c, v.C.Crack())
		}
		return p
	case types.MonoQVarP:
		return types.FreeTyParam{C: c.freshParamFor(v.Name)}
	case types.PolyQVarP:
		return types.PolyQVarP{Name: v.Name, Args: in.substParams(c, v.Args)}
	case types.ParamType:
		return types.ParamType{T: in.substType(c, v.T)}
	case types.AppliedParam:
		return types.AppliedParam{Name: v.Name, Args: in.substParams(c, v.Args)}
	case types.BinOpParam:
		return types.BinOpParam{Op: v.Op, Left: in.substParam(c, v.Left), Right: in.substParam(c, v.Right)}
	case types.UnaryOpParam:
		return types.UnaryOpParam{Op: v.Op, Operand: in.substParam(c, v.Operand)}
	case types.Erased:
		return types.Erased{T: in.substType(c, v.T)}
	case types.MonoProjParam:
		return types.MonoProjParam{Base: in.substParam(c, v.Base), Name: v.Name}
	case types.TupleParam:
		return types.TupleParam{Elems: in.substParams(c, v.Elems)}
	case types.ArrayParam:
		return types.ArrayParam{Elem: in.substParam(c, v.Elem), Len: in.substParam(c, v.Len)}
	default:
		return p
	}
}

func (in *Instantiator) substPreds(c *tyVarCache, ps []types.Predicate) []types.Predicate {
	out := make([]types.Predicate, len(ps))
	for i, p := range ps {
		out[i] = in.substPred(c, p)
	}
	return out
}

func (in *Instantiator) substPred(c *tyVarCache, p types.Predicate) types.Predicate {
	switch p.Kind {
	case types.PredValue:
		return types.ValuePred(in.substParam(c, p.Value))
	case types.PredConst:
		return types.Predicate{Kind: types.PredConst, Const: in.substParam(c, p.Const)}
	case types.PredEqual:
		return types.EqPred(in.substParam(c, p.Lhs), in.substParam(c, p.Rhs))
	case types.PredGreaterEqual:
		return types.GePred(in.substParam(c, p.Lhs), in.substParam(c, p.Rhs))
	case types.PredLessEqual:
		return types.LePred(in.substParam(c, p.Lhs), in.substParam(c, p.Rhs))
	case types.PredNotEqual:
		return types.Predicate{Kind: types.PredNotEqual, Lhs: in.substParam(c, p.Lhs), Rhs: in.substParam(c, p.Rhs)}
	case types.PredAnd:
		return types.AndPred(in.substPreds(c, p.Subs)...)
	case types.PredOr:
		return types.OrPred(in.substPreds(c, p.Subs)...)
	case types.PredNot:
		return types.NotPred(in.substPred(c, p.Subs[0]))
	default:
		return p
	}
}

// hasNestedQuantified rejects higher-rank types: a Quantified body must
// never itself contain another Quantified (the rank-1 restriction,
// resolved as a recognized-but-unimplemented Feature error per the design
// notes, not a silent flattening).
func hasNestedQuantified(t types.Type) bool {
	switch v := types.Deref(t).(type) {
	case types.Quantified:
		return true
	case types.Subr:
		if v.T.SelfT != nil && hasNestedQuantified(v.T.SelfT) {
			return true
		}
		for _, p := range v.T.Params {
			if hasNestedQuantified(p.T) {
				return true
			}
		}
		return hasNestedQuantified(v.T.Return)
	case types.Callable:
		for _, p := range v.Params {
			if hasNestedQuantified(p) {
				return true
			}
		}
		return hasNestedQuantified(v.Return)
	case types.Refinement:
		return hasNestedQuantified(v.Base)
	case types.Logical:
		for _, e := range v.Elems {
			if hasNestedQuantified(e) {
				return true
			}
		}
		return false
	case types.RefForm:
		return hasNestedQuantified(v.Elem)
	case types.Tuple:
		for _, e := range v.Elems {
			if hasNestedQuantified(e) {
				return true
			}
		}
		return false
	case types.Array:
		return hasNestedQuantified(v.Elem)
	case types.Dict:
		return hasNestedQuantified(v.Key) || hasNestedQuantified(v.Value)
	case types.Record:
		for _, f := range v.Fields {
			if hasNestedQuantified(f) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
