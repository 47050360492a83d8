package types

import "testing"

func TestEqualReflexive(t *testing.T) {
	cases := []Type{
		Int(),
		Obj(),
		Poly{Name: "Stack", Params: []TyParam{ParamType{T: Int()}}},
		Tuple{Elems: []Type{Int(), Str()}},
		Array{Elem: Int(), Len: IntParam(3)},
		Refinement{Var: "v", Base: Int(), Preds: []Predicate{GePred(ValuePred(ParamType{T: Int()}).Value, IntParam(0))}},
	}
	for _, c := range cases {
		if !Equal(c, c) {
			t.Errorf("Equal(%s, %s) = false, want true", c, c)
		}
	}
}

func TestEqualDistinguishesShape(t *testing.T) {
	if Equal(Int(), Str()) {
		t.Error("Int should not equal Str")
	}
	a := Poly{Name: "Stack", Params: []TyParam{ParamType{T: Int()}}}
	b := Poly{Name: "Stack", Params: []TyParam{ParamType{T: Str()}}}
	if Equal(a, b) {
		t.Error("Stack(Int) should not equal Stack(Str)")
	}
}

func TestEqualFollowsLinks(t *testing.T) {
	cell := NewUnbound[Type](LevelTop, TopConstraint())
	fv := FreeVar{C: cell}
	cell.Link(Int())

	if !Equal(fv, Int()) {
		t.Error("a FreeVar linked to Int should equal Int")
	}
	if Deref(fv) != Int() {
		t.Errorf("Deref(linked FreeVar) = %v, want Int", Deref(fv))
	}
}

func TestEqualUnboundCellsAreIdentityOnly(t *testing.T) {
	a := FreeVar{C: NewUnbound[Type](LevelTop, TopConstraint())}
	b := FreeVar{C: NewUnbound[Type](LevelTop, TopConstraint())}
	if Equal(a, b) {
		t.Error("two distinct unbound cells should never be equal")
	}
	if !Equal(a, a) {
		t.Error("a cell should equal itself")
	}
}

func TestEqualParamsFollowsLinks(t *testing.T) {
	cell := NewUnbound[TyParam](LevelTop, TypeOfC(Int()))
	fp := FreeTyParam{C: cell}
	cell.Link(IntParam(5))

	if !EqualParams(fp, IntParam(5)) {
		t.Error("a FreeTyParam linked to 5 should equal the literal 5")
	}
	if DerefParam(fp) != IntParam(5) {
		t.Errorf("DerefParam(linked FreeTyParam) = %v, want 5", DerefParam(fp))
	}
}
