package types

import "testing"

func TestEvalTPFoldsArithmetic(t *testing.T) {
	expr := BinOpParam{Op: ParamAdd, Left: IntParam(2), Right: BinOpParam{Op: ParamMul, Left: IntParam(3), Right: IntParam(4)}}
	got, err := EvalTP(expr)
	if err != nil {
		t.Fatalf("EvalTP returned error: %v", err)
	}
	lit, ok := got.(ParamLit)
	if !ok || lit.Int != 14 {
		t.Errorf("EvalTP(2 + 3*4) = %v, want 14", got)
	}
}

func TestEvalTPDivisionByZero(t *testing.T) {
	_, err := EvalTP(BinOpParam{Op: ParamDiv, Left: IntParam(1), Right: IntParam(0)})
	if err == nil {
		t.Fatal("expected an error dividing by zero")
	}
}

func TestEvalTPUninferableAtTopLevel(t *testing.T) {
	cell := NewUnbound[TyParam](LevelTop, TypeOfC(Int()))
	_, err := EvalTP(FreeTyParam{C: cell})
	if err == nil {
		t.Fatal("expected an Uninferable error for a residual top-level variable")
	}
	ee, ok := err.(*EvalError)
	if !ok || !ee.Uninferable {
		t.Errorf("EvalTP error = %v, want Uninferable", err)
	}
}

func TestEvalTPLeavesDeeperVariableUnresolved(t *testing.T) {
	cell := NewUnbound[TyParam](LevelTop+1, TypeOfC(Int()))
	got, err := EvalTP(FreeTyParam{C: cell})
	if err != nil {
		t.Fatalf("EvalTP returned error for a non-top-level variable: %v", err)
	}
	if _, ok := got.(FreeTyParam); !ok {
		t.Errorf("EvalTP(deeper free var) = %v, want it returned unresolved", got)
	}
}

func TestTryCmpLiteralInts(t *testing.T) {
	tests := []struct {
		a, b TyParam
		want Ordering
	}{
		{IntParam(1), IntParam(2), OrdLess},
		{IntParam(2), IntParam(2), OrdEqual},
		{IntParam(3), IntParam(2), OrdGreater},
	}
	for _, tt := range tests {
		if got := TryCmp(tt.a, tt.b); got != tt.want {
			t.Errorf("TryCmp(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func intervalRefinement(lo, hi int64) TyParam {
	subject := ParamType{T: Int()}
	return ParamType{T: Refinement{Var: "v", Base: Int(), Preds: []Predicate{
		GePred(subject, IntParam(lo)),
		LePred(subject, IntParam(hi)),
	}}}
}

func TestTryCmpIntervals(t *testing.T) {
	tests := []struct {
		name string
		a, b TyParam
		want Ordering
	}{
		{"disjoint below", intervalRefinement(0, 3), intervalRefinement(5, 9), OrdLess},
		{"touching below", intervalRefinement(0, 5), intervalRefinement(5, 9), OrdLessEqual},
		{"disjoint above", intervalRefinement(7, 9), intervalRefinement(1, 4), OrdGreater},
		{"touching above", intervalRefinement(4, 9), intervalRefinement(1, 4), OrdGreaterEqual},
		{"overlapping", intervalRefinement(0, 5), intervalRefinement(3, 9), OrdAny},
		{"literal below interval", IntParam(2), intervalRefinement(5, 9), OrdLess},
		{"nat overlaps interval", ParamType{T: NatP()}, intervalRefinement(3, 9), OrdAny},
	}
	for _, tt := range tests {
		if got := TryCmp(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: TryCmp = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTryCmpLiteralStringsAndBools(t *testing.T) {
	if got := TryCmp(ParamLit{Kind: ParamLitStr, Str: "a"}, ParamLit{Kind: ParamLitStr, Str: "a"}); got != OrdEqual {
		t.Errorf(`TryCmp("a", "a") = %v, want Equal`, got)
	}
	if got := TryCmp(ParamLit{Kind: ParamLitStr, Str: "a"}, ParamLit{Kind: ParamLitStr, Str: "b"}); got != OrdNotEqual {
		t.Errorf(`TryCmp("a", "b") = %v, want NotEqual`, got)
	}
}

func TestTryCmpInfinities(t *testing.T) {
	if got := TryCmp(PosInf(), IntParam(1000)); got != OrdGreater {
		t.Errorf("TryCmp(+Inf, 1000) = %v, want Greater", got)
	}
	if got := TryCmp(NegInf(), intervalRefinement(0, 9)); got != OrdLess {
		t.Errorf("TryCmp(-Inf, [0,9]) = %v, want Less", got)
	}
	if got := TryCmp(PosInf(), NegInf()); got != OrdGreater {
		t.Errorf("TryCmp(+Inf, -Inf) = %v, want Greater", got)
	}
}

func TestTryCmpIncomparable(t *testing.T) {
	if got := TryCmp(IntParam(1), ParamType{T: Str()}); got != OrdNoRelation {
		t.Errorf("TryCmp(int literal, Str) = %v, want NoRelation", got)
	}
}
