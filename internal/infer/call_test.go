package infer

import (
	"testing"

	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

func newCallTyper() *CallTyper {
	oracle := NewOracle(nil)
	return NewCallTyper(NewInstantiator(nil), NewGeneralizer(nil), NewUnifier(oracle, nil), oracle, nil)
}

func TestGetCallTMonomorphicArgMatch(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	callee := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Int()}}, Return: types.Str()}}

	got, err := ct.GetCallT(ctx, callee, nil, []Arg{{T: types.Int()}})
	if err != nil {
		t.Fatalf("GetCallT returned error: %v", err)
	}
	if !types.Equal(got, types.Str()) {
		t.Errorf("GetCallT = %s, want Str", got)
	}
}

func TestGetCallTWideningArg(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	callee := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Float()}}, Return: types.BoolT()}}

	if _, err := ct.GetCallT(ctx, callee, nil, []Arg{{T: types.Int()}}); err != nil {
		t.Errorf("passing an Int where a Float is expected should succeed: %v", err)
	}
}

func TestGetCallTRejectsNarrowingArg(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	callee := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Int()}}, Return: types.BoolT()}}

	if _, err := ct.GetCallT(ctx, callee, nil, []Arg{{T: types.Float()}}); err == nil {
		t.Error("passing a Float where an Int is expected should fail")
	}
}

func TestGetCallTGenericIdentity(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	// |T0| (T0) -> T0
	identity := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}}, Return: types.MonoQVar{Name: "T0"}}},
		Bounds: []types.TyBound{{Kind: types.BoundSubtype, Name: "T0", Sub: types.Never(), Sup: types.Obj()}},
	}

	got, err := ct.GetCallT(ctx, identity, nil, []Arg{{T: types.Int()}})
	if err != nil {
		t.Fatalf("GetCallT(identity, Int) returned error: %v", err)
	}
	if !types.Equal(got, types.Int()) {
		t.Errorf("GetCallT(identity, Int) = %s, want Int", got)
	}
}

func TestGetCallTTwoIndependentTypeVars(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	// |T0, U0| (T0, U0) -> T0 applied to (Int, Str) yields Int.
	callee := types.Quantified{
		Body: types.Subr{T: types.SubrType{
			Kind:   types.SubrFunc,
			Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}, {Name: "y", T: types.MonoQVar{Name: "U0"}}},
			Return: types.MonoQVar{Name: "T0"},
		}},
		Bounds: []types.TyBound{
			{Kind: types.BoundSubtype, Name: "T0", Sub: types.Never(), Sup: types.Obj()},
			{Kind: types.BoundSubtype, Name: "U0", Sub: types.Never(), Sup: types.Obj()},
		},
	}

	got, err := ct.GetCallT(ctx, callee, nil, []Arg{{T: types.Int()}, {T: types.Str()}})
	if err != nil {
		t.Fatalf("GetCallT returned error: %v", err)
	}
	if !types.Equal(got, types.Int()) {
		t.Errorf("GetCallT((T,U)->T, [Int, Str]) = %s, want Int", got)
	}
}

func TestGetCallTDependentLengthArithmetic(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	// |M: Nat| (Array(Int, M)) -> Array(Int, M + 1) applied to Array(Int, 2).
	callee := types.Quantified{
		Body: types.Subr{T: types.SubrType{
			Kind:   types.SubrFunc,
			Params: []types.Param{{Name: "xs", T: types.Array{Elem: types.Int(), Len: types.MonoQVarP{Name: "M"}}}},
			Return: types.Array{Elem: types.Int(), Len: types.BinOpParam{Op: types.ParamAdd, Left: types.MonoQVarP{Name: "M"}, Right: types.IntParam(1)}},
		}},
		Bounds: []types.TyBound{{Kind: types.BoundInstance, Name: "M", Inst: types.NatP()}},
	}

	got, err := ct.GetCallT(ctx, callee, nil, []Arg{{T: types.Array{Elem: types.Int(), Len: types.IntParam(2)}}})
	if err != nil {
		t.Fatalf("GetCallT returned error: %v", err)
	}
	arr, ok := got.(types.Array)
	if !ok {
		t.Fatalf("GetCallT = %T, want Array", got)
	}
	if !types.EqualParams(arr.Len, types.IntParam(3)) {
		t.Errorf("result length = %s, want 3 after folding M + 1", arr.Len)
	}
}

func TestGetCallTProcMethodPropagatesMutation(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	lenCell := types.NewUnbound[types.TyParam](ctx.Level, types.TypeOfC(types.NatP()))
	receiver := types.Array{Elem: types.Int(), Len: types.FreeTyParam{C: lenCell}}

	// push! : (self: Array(Int, _)) -> NoneType, self after: Array(Int, 1)
	push := types.Subr{T: types.SubrType{
		Kind:       types.SubrProcMethod,
		SelfT:      types.Array{Elem: types.Int(), Len: types.Erased{T: types.NatP()}},
		AfterSelfT: types.Array{Elem: types.Int(), Len: types.IntParam(1)},
		Return:     types.NoneType(),
	}}

	if _, err := ct.GetCallT(ctx, push, receiver, nil); err != nil {
		t.Fatalf("GetCallT returned error: %v", err)
	}
	if !lenCell.IsLinked() || !types.EqualParams(lenCell.Crack(), types.IntParam(1)) {
		t.Errorf("the receiver's length should be reunified to 1, got %v", lenCell)
	}
}

func TestGetCallTKeywordAndMissingRequiredArg(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	callee := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Int()}, {Name: "y", T: types.Str()}}, Return: types.BoolT()}}

	if _, err := ct.GetCallT(ctx, callee, nil, []Arg{{Name: "y", T: types.Str()}, {Name: "x", T: types.Int()}}); err != nil {
		t.Errorf("keyword args in any order should match: %v", err)
	}

	if _, err := ct.GetCallT(ctx, callee, nil, []Arg{{Name: "x", T: types.Int()}}); err == nil {
		t.Error("a missing required argument should fail")
	}
}

func TestGetCallTTooManyArgs(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	callee := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Int()}}, Return: types.BoolT()}}

	if _, err := ct.GetCallT(ctx, callee, nil, []Arg{{T: types.Int()}, {T: types.Int()}}); err == nil {
		t.Error("passing an extra positional argument should fail")
	}
}

func TestGetCallTUnexpectedKeywordArg(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	callee := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Int()}}, Return: types.BoolT()}}

	if _, err := ct.GetCallT(ctx, callee, nil, []Arg{{Name: "z", T: types.Int()}}); err == nil {
		t.Error("an unknown keyword argument should fail")
	}
}

func TestGetCallTSelfReceiverMismatch(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	method := types.Subr{T: types.SubrType{Kind: types.SubrFuncMethod, SelfT: types.Poly{Name: "Stack"}, Return: types.Int()}}

	if _, err := ct.GetCallT(ctx, method, types.Int(), nil); err == nil {
		t.Error("calling a Stack method with an Int receiver should fail")
	}
	if _, err := ct.GetCallT(ctx, method, nil, nil); err == nil {
		t.Error("calling a method with no receiver at all should fail")
	}
}

func TestGetCallTInstanceRequirementResolvesTraitImpl(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	ctx.RegisterPolyTraitImpl(&symbols.PolyTraitImpl{TraitName: "Show", TargetType: types.Int()})

	// |T0: Show| (T0) -> Str
	showable := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}}, Return: types.Str()}},
		Bounds: []types.TyBound{{Kind: types.BoundInstance, Name: "T0", Inst: types.Poly{Name: "Show"}}},
	}

	got, err := ct.GetCallT(ctx, showable, nil, []Arg{{T: types.Int()}})
	if err != nil {
		t.Fatalf("GetCallT(showable, Int) returned error: %v", err)
	}
	if !types.Equal(got, types.Str()) {
		t.Errorf("GetCallT(showable, Int) = %s, want Str", got)
	}
}

func TestGetCallTInstanceRequirementNoImplFound(t *testing.T) {
	ct := newCallTyper()
	ctx := rootCtx()
	showable := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}}, Return: types.Str()}},
		Bounds: []types.TyBound{{Kind: types.BoundInstance, Name: "T0", Inst: types.Poly{Name: "Show"}}},
	}

	if _, err := ct.GetCallT(ctx, showable, nil, []Arg{{T: types.Int()}}); err == nil {
		t.Error("calling a trait-bound function with no registered impl in scope should fail")
	}
}
