package infer

import (
	"testing"

	"github.com/glyphlang/typecore/internal/types"
)

func TestDerefTyVarCollapsesLowerBound(t *testing.T) {
	d := NewDerefiner(nil)
	cell := types.NewUnbound[types.Type](2, types.SandwichedC(types.Int(), types.Obj()))

	got, err := d.DerefTyVar(types.FreeVar{C: cell}, 1)
	if err != nil {
		t.Fatalf("DerefTyVar returned error: %v", err)
	}
	if !types.Equal(got, types.Int()) {
		t.Errorf("DerefTyVar = %s, want Int (the lower bound)", got)
	}
	if !cell.IsLinked() {
		t.Error("the collapsed cell should be linked so every alias observes it")
	}
}

func TestDerefTyVarCollapsesUpperBoundWhenFloorIsNever(t *testing.T) {
	d := NewDerefiner(nil)
	cell := types.NewUnbound[types.Type](2, types.SandwichedC(types.Never(), types.Float()))

	got, err := d.DerefTyVar(types.FreeVar{C: cell}, 1)
	if err != nil {
		t.Fatalf("DerefTyVar returned error: %v", err)
	}
	if !types.Equal(got, types.Float()) {
		t.Errorf("DerefTyVar = %s, want Float (the upper bound)", got)
	}
}

func TestDerefTyVarLeavesOuterScopeVariablesOpen(t *testing.T) {
	d := NewDerefiner(nil)
	cell := types.NewUnbound[types.Type](1, types.SandwichedC(types.Never(), types.Obj()))

	got, err := d.DerefTyVar(types.FreeVar{C: cell}, 1)
	if err != nil {
		t.Fatalf("DerefTyVar returned error: %v", err)
	}
	if cell.IsLinked() {
		t.Error("a variable owned by the enclosing scope must stay open")
	}
	if _, ok := got.(types.FreeVar); !ok {
		t.Errorf("DerefTyVar = %T, want the open FreeVar back", got)
	}
}

func TestDerefToplevelCollapsesEverything(t *testing.T) {
	d := NewDerefiner(nil)
	cell := types.NewUnbound[types.Type](1, types.SandwichedC(types.Never(), types.Obj()))
	arrow := types.Subr{T: types.SubrType{
		Kind:   types.SubrFunc,
		Params: []types.Param{{Name: "x", T: types.FreeVar{C: cell}}},
		Return: types.FreeVar{C: cell},
	}}

	got, err := d.DerefToplevel(arrow)
	if err != nil {
		t.Fatalf("DerefToplevel returned error: %v", err)
	}
	subr := got.(types.Subr)
	if !types.Equal(subr.T.Return, types.Obj()) {
		t.Errorf("unconstrained variable should collapse to Obj, got %s", subr.T.Return)
	}
}

func TestDerefToplevelUninferableParam(t *testing.T) {
	d := NewDerefiner(nil)
	cell := types.NewUnbound[types.TyParam](1, types.TypeOfC(types.NatP()))
	arr := types.Array{Elem: types.Int(), Len: types.FreeTyParam{C: cell}}

	_, err := d.DerefToplevel(arr)
	ce, ok := err.(*CoreError)
	if !ok || ce.Kind() != KindUninferable {
		t.Errorf("DerefToplevel(open dependent length) = %v, want Uninferable", err)
	}
}

func TestDerefToplevelIsIdempotent(t *testing.T) {
	d := NewDerefiner(nil)
	cell := types.NewUnbound[types.Type](1, types.SandwichedC(types.Int(), types.Obj()))
	t0 := types.Tuple{Elems: []types.Type{types.FreeVar{C: cell}, types.Str()}}

	first, err := d.DerefToplevel(t0)
	if err != nil {
		t.Fatalf("first DerefToplevel returned error: %v", err)
	}
	second, err := d.DerefToplevel(first)
	if err != nil {
		t.Fatalf("second DerefToplevel returned error: %v", err)
	}
	if !types.Equal(first, second) {
		t.Errorf("deref should be idempotent: %s vs %s", first, second)
	}
}

func TestDerefTupleParamWithOpenCellIsFeature(t *testing.T) {
	d := NewDerefiner(nil)
	open := types.NewUnbound[types.TyParam](1, types.TypeOfC(types.NatP()))
	poly := types.Poly{Name: "Matrix", Params: []types.TyParam{
		types.TupleParam{Elems: []types.TyParam{types.FreeTyParam{C: open}}},
	}}

	_, err := d.DerefToplevel(poly)
	ce, ok := err.(*CoreError)
	if !ok || ce.Kind() != KindFeature {
		t.Errorf("deref of an open tuple type parameter = %v, want Feature", err)
	}
}
