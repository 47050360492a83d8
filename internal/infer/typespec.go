package infer

import (
	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// predeclaredTags maps the type-spec grammar's predeclared names to their
// primitive tags, mutable counterparts included.
var predeclaredTags = map[string]types.PrimitiveTag{
	"Obj": types.Obj_, "Never": types.NeverTag,
	"Int": types.IntTag, "Nat": types.NatTag, "Ratio": types.RatioTag,
	"Float": types.FloatTag, "Bool": types.BoolTag, "Str": types.StrTag,
	"NoneType": types.NoneTag, "Type": types.TypeTag, "Class": types.ClassTag,
	"Int!": types.IntMutTag, "Nat!": types.NatMutTag, "Ratio!": types.RatioMutTag,
	"Float!": types.FloatMutTag, "Bool!": types.BoolMutTag, "Str!": types.StrMutTag,
}

// SpecInstantiator converts one signature's type specs into types.Type
// terms. It is created per signature so the dependent-parameter names the
// signature declares (?M: Nat and friends) share one cell across every
// spec position that mentions them, the same way a tyVarCache shares fresh
// cells during Instantiate.
type SpecInstantiator struct {
	ctx    *symbols.Context
	level  types.Level
	params map[string]*types.Cell[types.TyParam]
}

func NewSpecInstantiator(ctx *symbols.Context, level types.Level) *SpecInstantiator {
	return &SpecInstantiator{ctx: ctx, level: level, params: make(map[string]*types.Cell[types.TyParam])}
}

// DependentParams exposes the cells minted for the signature's declared
// dependent parameters, keyed by name, so the caller can generalize over
// them once the whole signature is built.
func (si *SpecInstantiator) DependentParams() map[string]*types.Cell[types.TyParam] {
	return si.params
}

// Type converts a parsed type spec into a Type term.
func (si *SpecInstantiator) Type(spec ast.TypeSpec) (types.Type, error) {
	switch v := spec.(type) {
	case *ast.NameSpec:
		return si.nameSpec(v)

	case *ast.LogicalSpec:
		elems := make([]types.Type, len(v.Specs))
		for i, s := range v.Specs {
			t, err := si.Type(s)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		kind := map[ast.LogicalKind]types.LogicalKind{
			ast.LogAnd: types.LAnd, ast.LogOr: types.LOr, ast.LogNot: types.LNot,
		}[v.Op]
		return types.Logical{Kind: kind, Elems: elems}, nil

	case *ast.TupleSpec:
		elems := make([]types.Type, len(v.Elems))
		for i, s := range v.Elems {
			t, err := si.Type(s)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return types.Tuple{Elems: elems}, nil

	case *ast.EnumSpec:
		return si.enumSpec(v)

	case *ast.IntervalSpec:
		return si.intervalSpec(v)

	case *ast.SubrSpec:
		return si.subrSpec(v)

	case *ast.ArraySpec:
		elem, err := si.Type(v.Elem)
		if err != nil {
			return nil, err
		}
		length, err := si.param(v.Len)
		if err != nil {
			return nil, err
		}
		return types.Array{Elem: elem, Len: length}, nil

	case *ast.RefinementSpec:
		base, err := si.Type(v.Base)
		if err != nil {
			return nil, err
		}
		subject := types.ParamType{T: base}
		preds := make([]types.Predicate, len(v.Preds))
		for i, p := range v.Preds {
			pred, err := si.pred(subject, p)
			if err != nil {
				return nil, err
			}
			preds[i] = pred
		}
		return types.Refinement{Var: v.Var.Name, Base: base, Preds: preds}, nil

	case *ast.DependentParamSpec:
		// ?M: Nat in a parameter position: the value inhabits the bound and
		// names the dependent parameter everywhere else in the signature.
		bound, err := si.Type(v.Bound)
		if err != nil {
			return nil, err
		}
		cell := si.dependentCell(v.Name.Name, bound)
		subject := types.ParamType{T: bound}
		return types.Refinement{Var: v.Name.Name, Base: bound, Preds: []types.Predicate{
			types.EqPred(subject, types.FreeTyParam{C: cell}),
		}}, nil

	default:
		return nil, errFeature("unrecognized type-spec form")
	}
}

func (si *SpecInstantiator) nameSpec(v *ast.NameSpec) (types.Type, error) {
	name := v.Name.Name
	if tag, ok := predeclaredTags[name]; ok {
		if len(v.Args) != 0 {
			return nil, errFeature("type arguments on a primitive name")
		}
		return types.Primitive{Tag: tag}, nil
	}

	params := make([]types.TyParam, 0, len(v.Args))
	for _, a := range v.Args {
		t, err := si.Type(a)
		if err != nil {
			return nil, err
		}
		params = append(params, types.ParamType{T: t})
	}

	if sym, _, ok := si.ctx.GetType(name); ok {
		if len(params) == 0 {
			return sym.GetTypeForUnification(), nil
		}
		return types.Poly{Name: name, Params: params}, nil
	}
	if sym, ok := si.ctx.GetParam(name); ok && sym.IsTypeAlias() {
		return sym.UnderlyingType, nil
	}
	if len(params) > 0 {
		// An applied constructor whose declaration lives elsewhere: a
		// trailing omitted dependent argument takes the registered default.
		variance, known := si.ctx.RecGetTypeParamVariance(name)
		if known && len(params) < len(variance) {
			if def, ok := si.ctx.RecGetConstParamDefaults(name); ok {
				params = append(params, def)
			}
		}
		return types.Poly{Name: name, Params: params}, nil
	}
	return nil, newErr(KindNoVar, name)
}

func (si *SpecInstantiator) enumSpec(v *ast.EnumSpec) (types.Type, error) {
	if len(v.Values) == 0 {
		return types.Never(), nil
	}
	base := litType(v.Values[0])
	subject := types.ParamType{T: base}
	alts := make([]types.Predicate, len(v.Values))
	for i, lit := range v.Values {
		if !types.Equal(litType(lit), base) {
			return nil, errFeature("heterogeneous enum literal set")
		}
		alts[i] = types.EqPred(subject, litParam(lit))
	}
	if len(alts) == 1 {
		return types.Refinement{Var: "v", Base: base, Preds: alts}, nil
	}
	return types.Refinement{Var: "v", Base: base, Preds: []types.Predicate{types.OrPred(alts...)}}, nil
}

func (si *SpecInstantiator) intervalSpec(v *ast.IntervalSpec) (types.Type, error) {
	lo, err := si.param(v.Lhs)
	if err != nil {
		return nil, err
	}
	hi, err := si.param(v.Rhs)
	if err != nil {
		return nil, err
	}
	// Open ends shift by one: the interval grammar is integer-valued.
	if v.Op == ast.LeftOpen || v.Op == ast.Open {
		lo = foldOr(types.BinOpParam{Op: types.ParamAdd, Left: lo, Right: types.IntParam(1)})
	}
	if v.Op == ast.RightOpen || v.Op == ast.Open {
		hi = foldOr(types.BinOpParam{Op: types.ParamSub, Left: hi, Right: types.IntParam(1)})
	}
	subject := types.ParamType{T: types.Int()}
	preds := make([]types.Predicate, 0, 2)
	if _, isInf := types.IsInf(lo); !isInf {
		preds = append(preds, types.GePred(subject, lo))
	}
	if _, isInf := types.IsInf(hi); !isInf {
		preds = append(preds, types.LePred(subject, hi))
	}
	return types.CanonicalizeNat(types.Refinement{Var: "v", Base: types.Int(), Preds: preds}), nil
}

func (si *SpecInstantiator) subrSpec(v *ast.SubrSpec) (types.Type, error) {
	kind := map[ast.SubrKind]types.SubrKind{
		ast.KindFunc: types.SubrFunc, ast.KindProc: types.SubrProc,
		ast.KindFuncMethod: types.SubrFuncMethod, ast.KindProcMethod: types.SubrProcMethod,
	}[v.Kind]
	params := make([]types.Param, 0, len(v.NonDefaults)+len(v.Defaults))
	for _, s := range append(append([]ast.TypeSpec{}, v.NonDefaults...), v.Defaults...) {
		t, err := si.Type(s)
		if err != nil {
			return nil, err
		}
		params = append(params, types.Param{T: t})
	}
	var ret types.Type = types.NoneType()
	if v.Return != nil {
		var err error
		if ret, err = si.Type(v.Return); err != nil {
			return nil, err
		}
	}
	return types.Subr{T: types.SubrType{
		Kind:         kind,
		Params:       params,
		Return:       ret,
		IsVariadic:   v.IsVarArgs,
		DefaultCount: len(v.Defaults),
	}}, nil
}

func (si *SpecInstantiator) param(e ast.TyParamExpr) (types.TyParam, error) {
	switch v := e.(type) {
	case *ast.LitParamExpr:
		return litParam(v.Lit), nil
	case *ast.NameParamExpr:
		name := v.Name.Name
		if cell, ok := si.params[name]; ok {
			return types.FreeTyParam{C: cell}, nil
		}
		if val, ok := si.ctx.RecGetConstObj(name); ok {
			return val, nil
		}
		// A dependent-parameter reference ahead of (or without) its ?M: T
		// declaration opens an Obj-classified cell; a later declaration
		// tightens the same cell's constraint.
		return types.FreeTyParam{C: si.dependentCell(name, types.Obj())}, nil
	case *ast.BinOpParamExpr:
		left, err := si.param(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := si.param(v.Right)
		if err != nil {
			return nil, err
		}
		return foldOr(types.BinOpParam{Op: arithOp(v.Op), Left: left, Right: right}), nil
	case *ast.UnaryOpParamExpr:
		operand, err := si.param(v.Operand)
		if err != nil {
			return nil, err
		}
		return foldOr(types.UnaryOpParam{Op: arithOp(v.Op), Operand: operand}), nil
	default:
		return nil, errFeature("unrecognized dependent-parameter expression")
	}
}

func (si *SpecInstantiator) pred(subject types.TyParam, p ast.PredSpec) (types.Predicate, error) {
	switch p.Kind {
	case ast.PredValue:
		return types.ValuePred(types.ParamLit{Kind: types.ParamLitBool, Bool: p.Value}), nil
	case ast.PredConst:
		if val, ok := si.ctx.RecGetConstObj(p.Const.Name); ok {
			return types.Predicate{Kind: types.PredConst, Const: val}, nil
		}
		return types.Predicate{Kind: types.PredConst, Const: types.AppliedParam{Name: p.Const.Name}}, nil
	case ast.PredEqual, ast.PredGreaterEqual, ast.PredLessEqual, ast.PredNotEqual:
		rhs, err := si.param(p.Rhs)
		if err != nil {
			return types.Predicate{}, err
		}
		kind := map[ast.PredKind]types.PredKind{
			ast.PredEqual: types.PredEqual, ast.PredGreaterEqual: types.PredGreaterEqual,
			ast.PredLessEqual: types.PredLessEqual, ast.PredNotEqual: types.PredNotEqual,
		}[p.Kind]
		return types.Predicate{Kind: kind, Lhs: subject, Rhs: rhs}, nil
	case ast.PredAnd, ast.PredOr, ast.PredNot:
		subs := make([]types.Predicate, len(p.Subs))
		for i, s := range p.Subs {
			sub, err := si.pred(subject, s)
			if err != nil {
				return types.Predicate{}, err
			}
			subs[i] = sub
		}
		kind := map[ast.PredKind]types.PredKind{
			ast.PredAnd: types.PredAnd, ast.PredOr: types.PredOr, ast.PredNot: types.PredNot,
		}[p.Kind]
		return types.Predicate{Kind: kind, Subs: subs}, nil
	default:
		return types.Predicate{}, errFeature("unrecognized predicate form")
	}
}

// dependentCell memoizes one cell per dependent-parameter name; a
// declaration carrying a real bound tightens a cell that was first opened
// by a forward reference.
func (si *SpecInstantiator) dependentCell(name string, bound types.Type) *types.Cell[types.TyParam] {
	if cell, ok := si.params[name]; ok {
		if !types.Equal(bound, types.Obj()) {
			cell.UpdateConstraint(types.TypeOfC(bound))
		}
		return cell
	}
	cell := types.NewNamedUnbound[types.TyParam](name, si.level, types.TypeOfC(bound))
	si.params[name] = cell
	return cell
}

func litType(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.LitInt:
		return types.Int()
	case ast.LitNat:
		return types.NatP()
	case ast.LitRatio:
		return types.Ratio()
	case ast.LitFloat:
		return types.Float()
	case ast.LitBool:
		return types.BoolT()
	case ast.LitStr:
		return types.Str()
	default:
		return types.NoneType()
	}
}

func litParam(l *ast.Literal) types.TyParam {
	switch l.Kind {
	case ast.LitInt, ast.LitNat:
		return types.IntParam(l.Int)
	case ast.LitBool:
		return types.ParamLit{Kind: types.ParamLitBool, Bool: l.Bool}
	case ast.LitStr:
		return types.ParamLit{Kind: types.ParamLitStr, Str: l.Str}
	default:
		return types.FailureParam{}
	}
}

func arithOp(op ast.ArithOp) types.ArithOp {
	switch op {
	case ast.OpAdd:
		return types.ParamAdd
	case ast.OpSub:
		return types.ParamSub
	case ast.OpMul:
		return types.ParamMul
	case ast.OpDiv:
		return types.ParamDiv
	default:
		return types.ParamNeg
	}
}

// foldOr reduces an arithmetic combination right away when its operands
// are already literal, keeping specs like Interval(LeftOpen, 0, 10) in
// canonical literal form.
func foldOr(p types.TyParam) types.TyParam {
	folded, err := types.EvalTP(p)
	if err != nil {
		return p
	}
	return folded
}
