package symbols

import (
	"testing"

	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/types"
)

func TestDeclareAndGetVar(t *testing.T) {
	ctx := NewRootContext("test")
	if err := ctx.DeclareVar("x", types.Int(), ast.Public, false, ast.Pos{}); err != nil {
		t.Fatalf("DeclareVar returned error: %v", err)
	}
	sym, owner, ok := ctx.GetVar("x")
	if !ok {
		t.Fatal("GetVar should find x")
	}
	if owner != ctx {
		t.Error("GetVar should report the declaring scope as owner")
	}
	if !types.Equal(sym.T, types.Int()) {
		t.Errorf("sym.T = %s, want Int", sym.T)
	}
}

func TestDeclareVarRejectsDuplicate(t *testing.T) {
	ctx := NewRootContext("test")
	if err := ctx.DeclareVar("x", types.Int(), ast.Public, false, ast.Pos{}); err != nil {
		t.Fatalf("first DeclareVar returned error: %v", err)
	}
	if err := ctx.DeclareVar("x", types.Str(), ast.Public, false, ast.Pos{}); err == nil {
		t.Error("redeclaring x in the same scope should fail")
	}
}

func TestGetVarWalksOuterScopes(t *testing.T) {
	outer := NewRootContext("outer")
	if err := outer.DeclareVar("x", types.Int(), ast.Public, false, ast.Pos{}); err != nil {
		t.Fatalf("DeclareVar returned error: %v", err)
	}
	inner := outer.Grow("inner", ScopeBlock)
	sym, owner, ok := inner.GetVar("x")
	if !ok {
		t.Fatal("GetVar from an inner scope should find an outer-declared variable")
	}
	if owner != outer {
		t.Error("owner should be the outer scope that actually declared x")
	}
	if !types.Equal(sym.T, types.Int()) {
		t.Error("unexpected symbol type")
	}
}

func TestAssignVarRejectsConstant(t *testing.T) {
	ctx := NewRootContext("test")
	if err := ctx.DeclareVar("x", types.Int(), ast.Public, true, ast.Pos{}); err != nil {
		t.Fatalf("DeclareVar returned error: %v", err)
	}
	if err := ctx.AssignVar("x", types.Str()); err == nil {
		t.Error("assigning to a constant binding should fail")
	}
}

func TestGrowIncrementsLevel(t *testing.T) {
	ctx := NewRootContext("test")
	inner := ctx.Grow("inner", ScopeBlock)
	if inner.Level != ctx.Level+1 {
		t.Errorf("inner.Level = %d, want %d", inner.Level, ctx.Level+1)
	}
	if inner.Pop() != ctx {
		t.Error("Pop should return the exact outer context")
	}
}

func TestScopePhaseLifecycle(t *testing.T) {
	ctx := NewRootContext("test")
	inner := ctx.Grow("inner", ScopeBlock)
	if inner.ScopePhase() != Open {
		t.Errorf("a fresh scope should be Open, got %v", inner.ScopePhase())
	}
	if err := inner.DeclareVar("x", types.Int(), ast.Public, false, ast.Pos{}); err != nil {
		t.Fatalf("DeclareVar returned error: %v", err)
	}
	if inner.ScopePhase() != Growing {
		t.Errorf("declaring should move the scope to Growing, got %v", inner.ScopePhase())
	}
	inner.Pop()
	if inner.ScopePhase() != Closing {
		t.Errorf("Pop should move the scope to Closing, got %v", inner.ScopePhase())
	}
}

func TestPendingDeclarationLifecycle(t *testing.T) {
	ctx := NewRootContext("test")
	if err := ctx.DeclareVarPending("x", types.Int(), ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareVarPending returned error: %v", err)
	}
	if err := ctx.DeclareVarPending("y", types.Str(), ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareVarPending returned error: %v", err)
	}

	// x's declaration should already be visible for recursive references.
	if _, _, ok := ctx.GetVar("x"); !ok {
		t.Error("a pending declaration should resolve via GetVar")
	}

	if err := ctx.AssignVar("x", types.Int()); err != nil {
		t.Fatalf("AssignVar returned error: %v", err)
	}

	unassigned := ctx.UnassignedDecls()
	if len(unassigned) != 1 || unassigned[0].Name != "y" {
		t.Errorf("UnassignedDecls = %v, want just y", unassigned)
	}
}

func TestRecGetPolyTraitImplsWalksOuterScopes(t *testing.T) {
	outer := NewRootContext("outer")
	impl := &PolyTraitImpl{TraitName: "Show", TargetType: types.Int()}
	outer.RegisterPolyTraitImpl(impl)
	inner := outer.Grow("inner", ScopeBlock)

	impls := inner.RecGetPolyTraitImpls("Show")
	if len(impls) != 1 || impls[0] != impl {
		t.Errorf("RecGetPolyTraitImpls = %v, want [%v]", impls, impl)
	}
}

func TestRecGetGluePatchAndTypesInnermostFirst(t *testing.T) {
	outer := NewRootContext("outer")
	outerPatch := &GluePatch{TypeName: "Widget", TraitName: "Show"}
	outer.RegisterGluePatch(outerPatch)
	inner := outer.Grow("inner", ScopeBlock)
	innerPatch := &GluePatch{TypeName: "Widget", TraitName: "Eq"}
	inner.RegisterGluePatch(innerPatch)

	patches := inner.RecGetGluePatchAndTypes("Widget")
	if len(patches) != 2 || patches[0] != innerPatch || patches[1] != outerPatch {
		t.Errorf("RecGetGluePatchAndTypes = %v, want innermost-first [%v %v]", patches, innerPatch, outerPatch)
	}
}

func TestRecGetTypeParamVarianceWalksOuterScopes(t *testing.T) {
	outer := NewRootContext("outer")
	outer.RegisterTypeParamVariance("Producer", []Variance{Covariant})
	inner := outer.Grow("inner", ScopeBlock)

	v, ok := inner.RecGetTypeParamVariance("Producer")
	if !ok || len(v) != 1 || v[0] != Covariant {
		t.Errorf("RecGetTypeParamVariance = %v, %v, want [Covariant], true", v, ok)
	}

	if _, ok := inner.RecGetTypeParamVariance("Nowhere"); ok {
		t.Error("RecGetTypeParamVariance should report false for an unregistered constructor")
	}
}

func TestRecSortedSuperTypeCtxsFollowsChain(t *testing.T) {
	root := NewRootContext("root")
	if err := root.DeclareType("Animal", types.Poly{Name: "Animal"}, TypeSymbol, ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareType(Animal) returned error: %v", err)
	}

	dogScope := NewRootContext("dog-decl")
	dogScope.SuperClasses = []types.Type{types.Poly{Name: "Animal"}}
	// Simulate Dog being declared in a scope that also sees Animal (its own
	// decls plus the outer root where Animal lives).
	dogScope.Outer = root
	if err := dogScope.DeclareType("Dog", types.Poly{Name: "Dog"}, TypeSymbol, ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareType(Dog) returned error: %v", err)
	}

	order := dogScope.RecSortedSuperTypeCtxs("Dog")
	if len(order) != 2 {
		t.Fatalf("RecSortedSuperTypeCtxs = %d contexts, want 2 (Dog then Animal)", len(order))
	}
	if order[0] != dogScope {
		t.Error("Dog's own declaring context should come first")
	}
	if order[1] != root {
		t.Error("Animal's declaring context should follow")
	}
}
