package infer

import (
	"testing"

	"github.com/glyphlang/typecore/internal/types"
)

func TestInstantiateNonQuantifiedIsUnchanged(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()
	got, reqs, err := in.Instantiate(ctx, ctx.Level+1, types.Int())
	if err != nil {
		t.Fatalf("Instantiate(Int) returned error: %v", err)
	}
	if !types.Equal(got, types.Int()) {
		t.Errorf("Instantiate(Int) = %s, want Int", got)
	}
	if len(reqs) != 0 {
		t.Errorf("Instantiate(Int) produced %d instance requirements, want 0", len(reqs))
	}
}

func TestInstantiateOpensBoundSubtypeIntoFreshVar(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()

	// |T0: Never <: T0 <: Obj| (T0) -> T0, the identity function.
	quantified := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}}, Return: types.MonoQVar{Name: "T0"}}},
		Bounds: []types.TyBound{{Kind: types.BoundSubtype, Name: "T0", Sub: types.Never(), Sup: types.Obj()}},
	}

	got, _, err := in.Instantiate(ctx, ctx.Level+1, quantified)
	if err != nil {
		t.Fatalf("Instantiate returned error: %v", err)
	}
	subr, ok := got.(types.Subr)
	if !ok {
		t.Fatalf("Instantiate result is %T, want Subr", got)
	}
	paramFV, ok := subr.T.Params[0].T.(types.FreeVar)
	if !ok {
		t.Fatalf("param type is %T, want FreeVar", subr.T.Params[0].T)
	}
	returnFV, ok := subr.T.Return.(types.FreeVar)
	if !ok {
		t.Fatalf("return type is %T, want FreeVar", subr.T.Return)
	}
	if paramFV.C.ID() != returnFV.C.ID() {
		t.Error("every occurrence of the same bound name should open to the same fresh cell")
	}
}

func TestInstantiateCachesOneFreshCellPerBoundName(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()
	quantified := types.Quantified{
		Body:   types.Tuple{Elems: []types.Type{types.MonoQVar{Name: "T0"}, types.MonoQVar{Name: "T0"}}},
		Bounds: []types.TyBound{{Kind: types.BoundSubtype, Name: "T0", Sub: types.Never(), Sup: types.Obj()}},
	}
	got, _, err := in.Instantiate(ctx, ctx.Level+1, quantified)
	if err != nil {
		t.Fatalf("Instantiate returned error: %v", err)
	}
	tup := got.(types.Tuple)
	a := tup.Elems[0].(types.FreeVar)
	b := tup.Elems[1].(types.FreeVar)
	if a.C.ID() != b.C.ID() {
		t.Error("two occurrences of the same bound name must share one fresh cell")
	}
}

func TestInstantiateSurfacesBoundInstanceRequirement(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()
	showTrait := types.Poly{Name: "Show"}
	quantified := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}}, Return: types.Str()}},
		Bounds: []types.TyBound{{Kind: types.BoundInstance, Name: "T0", Inst: showTrait}},
	}

	_, reqs, err := in.Instantiate(ctx, ctx.Level+1, quantified)
	if err != nil {
		t.Fatalf("Instantiate returned error: %v", err)
	}
	req, ok := reqs["T0"]
	if !ok {
		t.Fatal("expected an instance requirement keyed by T0")
	}
	if !types.Equal(req.Inst, showTrait) {
		t.Errorf("requirement's Inst = %s, want Show", req.Inst)
	}
	if req.Cell == nil || req.Cell.IsLinked() {
		t.Error("the requirement's cell should be fresh and still unbound")
	}
}

func TestInstantiateOpensDependentParamBoundAsParamCell(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()
	// |M: Nat| Array(Int, M) -> Array(Int, M + 1)
	quantified := types.Quantified{
		Body: types.Subr{T: types.SubrType{
			Kind:   types.SubrFunc,
			Params: []types.Param{{Name: "xs", T: types.Array{Elem: types.Int(), Len: types.MonoQVarP{Name: "M"}}}},
			Return: types.Array{Elem: types.Int(), Len: types.BinOpParam{Op: types.ParamAdd, Left: types.MonoQVarP{Name: "M"}, Right: types.IntParam(1)}},
		}},
		Bounds: []types.TyBound{{Kind: types.BoundInstance, Name: "M", Inst: types.NatP()}},
	}

	got, reqs, err := in.Instantiate(ctx, ctx.Level+1, quantified)
	if err != nil {
		t.Fatalf("Instantiate returned error: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("a value-classifying bound should not surface a trait requirement, got %v", reqs)
	}
	subr := got.(types.Subr)
	arr := subr.T.Params[0].T.(types.Array)
	fp, ok := arr.Len.(types.FreeTyParam)
	if !ok {
		t.Fatalf("opened array length is %T, want FreeTyParam", arr.Len)
	}
	c := fp.C.Constraint()
	if c.Kind != types.TypeOf || !types.Equal(c.Of, types.NatP()) {
		t.Errorf("opened parameter constraint = %s, want : Nat", c)
	}
	if fp.C.Level() != ctx.Level+1 {
		t.Errorf("opened parameter level = %d, want %d", fp.C.Level(), ctx.Level+1)
	}
}

func TestInstantiateLazyCellGetsCallSiteLevel(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()
	// The body mentions a name the bounds never declared; its lazily-created
	// cell must still live at the call-site level, not at LevelTop.
	quantified := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "U"}}}, Return: types.Obj()}},
		Bounds: []types.TyBound{},
	}
	got, _, err := in.Instantiate(ctx, ctx.Level+1, quantified)
	if err != nil {
		t.Fatalf("Instantiate returned error: %v", err)
	}
	fv := got.(types.Subr).T.Params[0].T.(types.FreeVar)
	if fv.C.Level() != ctx.Level+1 {
		t.Errorf("lazily-created cell level = %d, want %d", fv.C.Level(), ctx.Level+1)
	}
}

func TestInstantiateRejectsNestedQuantifier(t *testing.T) {
	in := NewInstantiator(nil)
	ctx := rootCtx()
	inner := types.Quantified{Body: types.MonoQVar{Name: "T1"}, Bounds: []types.TyBound{{Kind: types.BoundSubtype, Name: "T1", Sub: types.Never(), Sup: types.Obj()}}}
	outer := types.Quantified{
		Body:   types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "f", T: inner}}, Return: types.Obj()}},
		Bounds: nil,
	}
	_, _, err := in.Instantiate(ctx, ctx.Level+1, outer)
	if err == nil {
		t.Error("Instantiate should reject higher-rank (nested Quantified) types")
	}
}
