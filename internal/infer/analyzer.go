package infer

import (
	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// TypedExpr is one node of the typed IR: the source expression plus its
// inferred type. After InferModule's final dereference every type in the
// tree is concrete (or a Failure sentinel next to a collected error).
type TypedExpr struct {
	Expr     ast.Expr
	T        types.Type
	Children []*TypedExpr
}

// Analyzer drives symbol registration and inference over an already-parsed
// module: one recursive descent per top-level expression, errors collected
// rather than thrown, Failure sentinels in place of the types that could
// not be inferred so dependents keep checking.
type Analyzer struct {
	CT   *CallTyper
	Log  *corelog.Logger
	errs []*CoreError
}

func NewAnalyzer(ct *CallTyper, log *corelog.Logger) *Analyzer {
	if log == nil {
		log = corelog.Discard()
	}
	return &Analyzer{CT: ct, Log: log}
}

// Errors returns every error collected so far, in source order.
func (a *Analyzer) Errors() []*CoreError { return a.errs }

func (a *Analyzer) report(err error, pos ast.Pos) types.Type {
	if ce, ok := err.(*CoreError); ok {
		a.errs = append(a.errs, ce.At(pos))
	} else {
		a.errs = append(a.errs, newErr(KindFeature, err.Error()).At(pos))
	}
	return types.Failure{}
}

// InferModule registers and infers every top-level expression, reports any
// declaration never assigned before the module scope closes, and finally
// dereferences the whole tree at level 0 so every surviving type is
// concrete.
func (a *Analyzer) InferModule(ctx *symbols.Context, exprs []ast.Expr) ([]*TypedExpr, []*CoreError) {
	out := make([]*TypedExpr, len(exprs))
	for i, e := range exprs {
		out[i] = a.InferExpr(ctx, e)
	}

	for _, sym := range ctx.UnassignedDecls() {
		a.errs = append(a.errs, newErr(KindUninitialized, sym.Name).At(sym.DefPos))
	}

	for _, te := range out {
		a.derefTree(te)
	}
	return out, a.errs
}

func (a *Analyzer) derefTree(te *TypedExpr) {
	if _, isFailure := te.T.(types.Failure); !isFailure {
		t, err := a.CT.Deref.DerefToplevel(te.T)
		if err != nil {
			te.T = a.report(err, te.Expr.Position())
		} else {
			te.T = t
		}
	}
	for _, c := range te.Children {
		a.derefTree(c)
	}
}

// InferExpr types one expression. It always returns a node; on error the
// node's type is the Failure sentinel and the error is collected.
func (a *Analyzer) InferExpr(ctx *symbols.Context, e ast.Expr) *TypedExpr {
	switch v := e.(type) {
	case *ast.LiteralExpr:
		return &TypedExpr{Expr: e, T: litType(v.Lit)}

	case *ast.IdentExpr:
		t, err := a.CT.SearchCalleeT(ctx, nil, v.Name.Name)
		if err != nil {
			return &TypedExpr{Expr: e, T: a.report(err, v.P)}
		}
		return &TypedExpr{Expr: e, T: t}

	case *ast.AccessorExpr:
		obj := a.InferExpr(ctx, v.Obj)
		if _, isFailure := obj.T.(types.Failure); isFailure {
			return &TypedExpr{Expr: e, T: types.Failure{}, Children: []*TypedExpr{obj}}
		}
		t, err := a.CT.SearchCalleeT(ctx, obj.T, v.Name.Name)
		if err != nil {
			return &TypedExpr{Expr: e, T: a.report(err, v.P), Children: []*TypedExpr{obj}}
		}
		return &TypedExpr{Expr: e, T: t, Children: []*TypedExpr{obj}}

	case *ast.CallExpr:
		return a.inferCall(ctx, v)

	case *ast.BinOpExpr:
		return a.inferOp(ctx, v.Op, []ast.Expr{v.Left, v.Right}, e, v.P)

	case *ast.UnOpExpr:
		return a.inferOp(ctx, v.Op, []ast.Expr{v.Operand}, e, v.P)

	case *ast.LambdaExpr:
		return a.inferLambda(ctx, v)

	case *ast.DefExpr:
		return a.inferDef(ctx, v)

	case *ast.ArrayExpr:
		return a.inferArray(ctx, v)

	case *ast.RecordExpr:
		children := make([]*TypedExpr, len(v.Fields))
		fields := make(map[string]types.Type, len(v.Fields))
		for i, f := range v.Fields {
			children[i] = a.InferExpr(ctx, f.Value)
			fields[f.Name.Name] = children[i].T
		}
		return &TypedExpr{Expr: e, T: types.Record{Fields: fields}, Children: children}

	case *ast.DictExpr:
		return a.inferDict(ctx, v)

	default:
		return &TypedExpr{Expr: e, T: a.report(errFeature("unrecognized expression form"), e.Position())}
	}
}

func (a *Analyzer) inferCall(ctx *symbols.Context, v *ast.CallExpr) *TypedExpr {
	var children []*TypedExpr
	var calleeT, selfT types.Type

	if v.MethodName != nil {
		recv := a.InferExpr(ctx, v.Obj)
		children = append(children, recv)
		if _, isFailure := recv.T.(types.Failure); isFailure {
			return &TypedExpr{Expr: v, T: types.Failure{}, Children: children}
		}
		t, err := a.CT.SearchCalleeT(ctx, recv.T, v.MethodName.Name)
		if err != nil {
			return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
		}
		calleeT, selfT = t, recv.T
	} else {
		callee := a.InferExpr(ctx, v.Obj)
		children = append(children, callee)
		if _, isFailure := callee.T.(types.Failure); isFailure {
			return &TypedExpr{Expr: v, T: types.Failure{}, Children: children}
		}
		calleeT = callee.T
	}

	args := make([]Arg, 0, len(v.PosArgs)+len(v.KwArgs))
	argFailed := false
	for _, pe := range v.PosArgs {
		te := a.InferExpr(ctx, pe)
		children = append(children, te)
		if _, isFailure := te.T.(types.Failure); isFailure {
			argFailed = true
		}
		args = append(args, Arg{T: te.T})
	}
	for _, kw := range v.KwArgs {
		te := a.InferExpr(ctx, kw.Value)
		children = append(children, te)
		if _, isFailure := te.T.(types.Failure); isFailure {
			argFailed = true
		}
		args = append(args, Arg{Name: kw.Name.Name, T: te.T})
	}
	if argFailed {
		return &TypedExpr{Expr: v, T: types.Failure{}, Children: children}
	}

	retT, err := a.CT.GetCallT(ctx, calleeT, selfT, args)
	if err != nil {
		return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
	}
	return &TypedExpr{Expr: v, T: retT, Children: children}
}

// inferOp types an operator application as a call on the operator's
// registered subroutine type; operator names are ordinary scope entries
// resolved like any other callee.
func (a *Analyzer) inferOp(ctx *symbols.Context, op string, operands []ast.Expr, e ast.Expr, pos ast.Pos) *TypedExpr {
	opT, err := a.CT.SearchCalleeT(ctx, nil, op)
	if err != nil {
		return &TypedExpr{Expr: e, T: a.report(err, pos)}
	}
	children := make([]*TypedExpr, len(operands))
	args := make([]Arg, len(operands))
	for i, operand := range operands {
		children[i] = a.InferExpr(ctx, operand)
		if _, isFailure := children[i].T.(types.Failure); isFailure {
			return &TypedExpr{Expr: e, T: types.Failure{}, Children: children[:i+1]}
		}
		args[i] = Arg{T: children[i].T}
	}
	retT, err := a.CT.GetCallT(ctx, opT, nil, args)
	if err != nil {
		return &TypedExpr{Expr: e, T: a.report(err, pos), Children: children}
	}
	return &TypedExpr{Expr: e, T: retT, Children: children}
}

func (a *Analyzer) inferLambda(ctx *symbols.Context, v *ast.LambdaExpr) *TypedExpr {
	subrT, bodyTE, err := a.inferSubrBody(ctx, v.Sig, v.Body)
	if err != nil {
		return &TypedExpr{Expr: v, T: a.report(err, v.P)}
	}
	gen := a.CT.Gen.Generalize(ctx, subrT)
	node := &TypedExpr{Expr: v, T: gen}
	if bodyTE != nil {
		node.Children = []*TypedExpr{bodyTE}
	}
	return node
}

// inferSubrBody builds a subroutine type for sig, checks body against it
// inside a grown scope, and returns the (not yet generalized) arrow.
func (a *Analyzer) inferSubrBody(ctx *symbols.Context, sig *ast.SubrSignature, body ast.Expr) (types.Type, *TypedExpr, error) {
	scopeName := "<lambda>"
	if sig.Name != nil {
		scopeName = sig.Name.Name
	}
	inner := ctx.Grow(scopeName, symbols.ScopeSubr)
	defer inner.Pop()

	si := NewSpecInstantiator(inner, inner.Level)
	params := make([]types.Param, 0, len(sig.NonDefaults)+len(sig.Defaults))
	paramSyms := make([]symbols.Symbol, 0, cap(params))
	for _, p := range sig.AllParams() {
		var pt types.Type
		if p.TypeSpec != nil {
			var err error
			if pt, err = si.Type(p.TypeSpec); err != nil {
				return nil, nil, err
			}
		} else {
			pt = types.FreeVar{C: types.NewUnbound[types.Type](inner.Level, types.TopConstraint())}
		}
		params = append(params, types.Param{Name: p.Name.Name, T: pt})
		paramSyms = append(paramSyms, symbols.Symbol{Name: p.Name.Name, T: pt, Kind: symbols.VarSymbol})
	}
	if err := inner.AssignParams(paramSyms); err != nil {
		return nil, nil, newErr(KindDuplicateDecl, err.Error())
	}

	var declaredRet types.Type
	if sig.ReturnSpec != nil {
		var err error
		if declaredRet, err = si.Type(sig.ReturnSpec); err != nil {
			return nil, nil, err
		}
	}

	var bodyTE *TypedExpr
	retT := declaredRet
	if body != nil {
		bodyTE = a.InferExpr(inner, body)
		if _, isFailure := bodyTE.T.(types.Failure); isFailure {
			// keep going with the declared return, or Failure if none
			if retT == nil {
				retT = types.Failure{}
			}
		} else if declaredRet != nil {
			if err := a.CT.Unify.SubUnify(inner, bodyTE.T, declaredRet); err != nil {
				return nil, bodyTE, newErr(KindReturnType, bodyTE.T, declaredRet)
			}
		} else {
			retT = bodyTE.T
		}
	} else if retT == nil {
		retT = types.NoneType()
	}

	kind := map[ast.SubrKind]types.SubrKind{
		ast.KindFunc: types.SubrFunc, ast.KindProc: types.SubrProc,
		ast.KindFuncMethod: types.SubrFuncMethod, ast.KindProcMethod: types.SubrProcMethod,
	}[sig.Kind]

	var selfT, afterSelfT types.Type
	if kind == types.SubrFuncMethod || kind == types.SubrProcMethod {
		selfT = types.FreeVar{C: types.NewUnbound[types.Type](inner.Level, types.TopConstraint())}
		if sig.AfterSelfSpec != nil {
			var err error
			if afterSelfT, err = si.Type(sig.AfterSelfSpec); err != nil {
				return nil, bodyTE, err
			}
		}
	}

	subrT := types.Subr{T: types.SubrType{
		Kind:         kind,
		SelfT:        selfT,
		AfterSelfT:   afterSelfT,
		Params:       params,
		Return:       retT,
		IsVariadic:   sig.VarArgsName != nil,
		DefaultCount: len(sig.Defaults),
	}}
	return subrT, bodyTE, nil
}

func (a *Analyzer) inferDef(ctx *symbols.Context, v *ast.DefExpr) *TypedExpr {
	switch {
	case v.SubrSig != nil:
		return a.inferSubrDef(ctx, v)
	case v.VarSig != nil:
		return a.inferVarDef(ctx, v)
	default:
		return &TypedExpr{Expr: v, T: a.report(errFeature("def with neither var nor subr signature"), v.P)}
	}
}

func (a *Analyzer) inferVarDef(ctx *symbols.Context, v *ast.DefExpr) *TypedExpr {
	sig := v.VarSig
	name := sig.Name.Name

	var declaredT types.Type
	if sig.TypeSpec != nil {
		si := NewSpecInstantiator(ctx, ctx.Level+1)
		var err error
		if declaredT, err = si.Type(sig.TypeSpec); err != nil {
			return &TypedExpr{Expr: v, T: a.report(err, sig.P)}
		}
	}

	if v.Body == nil {
		// A declaration without a body: legal only with a type spec; the
		// entry waits in the pending table for its assignment.
		if declaredT == nil {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindNoTypeSpec, name), sig.P)}
		}
		if err := ctx.DeclareVarPending(name, declaredT, sig.Vis, sig.P); err != nil {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindDuplicateDecl, name), sig.P)}
		}
		return &TypedExpr{Expr: v, T: declaredT}
	}

	bodyTE := a.InferExpr(ctx, v.Body)
	bodyT := bodyTE.T
	if _, isFailure := bodyT.(types.Failure); isFailure {
		return &TypedExpr{Expr: v, T: types.Failure{}, Children: []*TypedExpr{bodyTE}}
	}

	// A pending forward declaration for this name supplies the declared
	// type when the def itself has no spec.
	if pend, ok := ctx.TakeDecl(name); ok {
		if declaredT == nil {
			declaredT = pend.T
		}
	} else if existing, owner, ok := ctx.GetVar(name); ok && owner == ctx {
		if existing.IsConstant {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindReassign, name), sig.P), Children: []*TypedExpr{bodyTE}}
		}
		if sig.TypeSpec != nil || sig.IsConstant {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindDuplicateDecl, name), sig.P), Children: []*TypedExpr{bodyTE}}
		}
		if err := a.CT.Unify.SubUnify(ctx, bodyT, existing.T); err != nil {
			return &TypedExpr{Expr: v, T: a.report(err, sig.P), Children: []*TypedExpr{bodyTE}}
		}
		if err := ctx.AssignVar(name, existing.T); err != nil {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindReassign, name), sig.P), Children: []*TypedExpr{bodyTE}}
		}
		return &TypedExpr{Expr: v, T: existing.T, Children: []*TypedExpr{bodyTE}}
	}

	finalT := bodyT
	if declaredT != nil {
		if !a.CT.Oracle.RecSupertypeOf(ctx, declaredT, bodyT) {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindViolateDecl, bodyT, declaredT), sig.P), Children: []*TypedExpr{bodyTE}}
		}
		finalT = declaredT
	}
	finalT = a.CT.Gen.Generalize(ctx, finalT)

	if err := ctx.AssignVar(name, finalT); err != nil {
		// no pending decl consumed it, so this is a fresh binding
		if derr := ctx.DeclareVar(name, finalT, sig.Vis, sig.IsConstant, sig.P); derr != nil {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindDuplicateDecl, name), sig.P), Children: []*TypedExpr{bodyTE}}
		}
	}
	return &TypedExpr{Expr: v, T: finalT, Children: []*TypedExpr{bodyTE}}
}

func (a *Analyzer) inferSubrDef(ctx *symbols.Context, v *ast.DefExpr) *TypedExpr {
	sig := v.SubrSig
	name := sig.Name.Name

	// Register a placeholder arrow first so the body can call itself.
	placeholder := types.FreeVar{C: types.NewUnbound[types.Type](ctx.Level+1, types.TopConstraint())}
	declaredEarlier, hadDecl := ctx.TakeDecl(name)
	if err := ctx.AssignSubr(name, placeholder, sig.Vis, sig.P); err != nil {
		return &TypedExpr{Expr: v, T: a.report(newErr(KindDuplicateDecl, name), sig.P)}
	}

	subrT, bodyTE, err := a.inferSubrBody(ctx, sig, v.Body)
	if err != nil {
		var children []*TypedExpr
		if bodyTE != nil {
			children = []*TypedExpr{bodyTE}
		}
		return &TypedExpr{Expr: v, T: a.report(err, sig.P), Children: children}
	}

	gen := a.CT.Gen.Generalize(ctx, subrT)
	if hadDecl && declaredEarlier.T != nil {
		// assign_subr compares the finished definition against the earlier
		// declaration: the definition must be usable wherever the
		// declaration promised.
		if !a.CT.Oracle.RecSupertypeOf(ctx, declaredEarlier.T, gen) && !a.CT.Oracle.RecSupertypeOf(ctx, gen, declaredEarlier.T) {
			return &TypedExpr{Expr: v, T: a.report(newErr(KindViolateDecl, gen, declaredEarlier.T), sig.P)}
		}
	}
	if !placeholder.C.IsLinked() {
		placeholder.C.Link(gen)
	}
	if err := ctx.AssignVar(name, gen); err != nil {
		return &TypedExpr{Expr: v, T: a.report(newErr(KindReassign, name), sig.P)}
	}

	node := &TypedExpr{Expr: v, T: gen}
	if bodyTE != nil {
		node.Children = []*TypedExpr{bodyTE}
	}
	return node
}

func (a *Analyzer) inferArray(ctx *symbols.Context, v *ast.ArrayExpr) *TypedExpr {
	children := make([]*TypedExpr, len(v.Elems))
	elemT := types.Type(types.FreeVar{C: types.NewUnbound[types.Type](ctx.Level+1, types.TopConstraint())})
	for i, e := range v.Elems {
		children[i] = a.InferExpr(ctx, e)
		if _, isFailure := children[i].T.(types.Failure); isFailure {
			return &TypedExpr{Expr: v, T: types.Failure{}, Children: children[:i+1]}
		}
		if err := a.CT.Unify.SubUnify(ctx, children[i].T, elemT); err != nil {
			return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children[:i+1]}
		}
	}
	resolved, err := a.CT.Deref.DerefTyVar(elemT, ctx.Level)
	if err != nil {
		return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
	}
	return &TypedExpr{Expr: v, T: types.Array{Elem: resolved, Len: types.IntParam(int64(len(v.Elems)))}, Children: children}
}

func (a *Analyzer) inferDict(ctx *symbols.Context, v *ast.DictExpr) *TypedExpr {
	children := make([]*TypedExpr, 0, len(v.Entries)*2)
	keyT := types.Type(types.FreeVar{C: types.NewUnbound[types.Type](ctx.Level+1, types.TopConstraint())})
	valT := types.Type(types.FreeVar{C: types.NewUnbound[types.Type](ctx.Level+1, types.TopConstraint())})
	for _, entry := range v.Entries {
		kTE := a.InferExpr(ctx, entry.Key)
		vTE := a.InferExpr(ctx, entry.Value)
		children = append(children, kTE, vTE)
		if _, isFailure := kTE.T.(types.Failure); isFailure {
			return &TypedExpr{Expr: v, T: types.Failure{}, Children: children}
		}
		if _, isFailure := vTE.T.(types.Failure); isFailure {
			return &TypedExpr{Expr: v, T: types.Failure{}, Children: children}
		}
		if err := a.CT.Unify.SubUnify(ctx, kTE.T, keyT); err != nil {
			return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
		}
		if err := a.CT.Unify.SubUnify(ctx, vTE.T, valT); err != nil {
			return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
		}
	}
	rk, err := a.CT.Deref.DerefTyVar(keyT, ctx.Level)
	if err != nil {
		return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
	}
	rv, err := a.CT.Deref.DerefTyVar(valT, ctx.Level)
	if err != nil {
		return &TypedExpr{Expr: v, T: a.report(err, v.P), Children: children}
	}
	return &TypedExpr{Expr: v, T: types.Dict{Key: rk, Value: rv}, Children: children}
}
