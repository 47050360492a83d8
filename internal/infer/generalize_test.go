package infer

import (
	"testing"

	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

func TestGeneralizeWrapsEscapingVar(t *testing.T) {
	g := NewGeneralizer(nil)
	ctx := rootCtx() // Level == LevelTop
	inner := ctx.Grow("body", symbols.ScopeSubr)
	cell := types.NewUnbound[types.Type](inner.Level, types.SandwichedC(types.Never(), types.Int()))
	fv := types.FreeVar{C: cell}

	t2 := inner.Pop() // pretend we're back at the enclosing (ctx) scope
	got := g.Generalize(t2, fv)

	q, ok := got.(types.Quantified)
	if !ok {
		t.Fatalf("Generalize result is %T, want Quantified", got)
	}
	if len(q.Bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d", len(q.Bounds))
	}
	if !cell.IsLinked() {
		t.Fatal("the escaping cell should be linked to its new bound name")
	}
	if _, ok := cell.Crack().(types.MonoQVar); !ok {
		t.Errorf("escaping cell should be linked to a MonoQVar, got %T", cell.Crack())
	}
}

func TestGeneralizeLeavesNonEscapingVarAlone(t *testing.T) {
	g := NewGeneralizer(nil)
	ctx := rootCtx()
	cell := types.NewUnbound[types.Type](ctx.Level, types.TopConstraint())
	fv := types.FreeVar{C: cell}

	got := g.Generalize(ctx, fv)
	if _, ok := got.(types.Quantified); ok {
		t.Error("a variable at or above the current scope's level should not be generalized")
	}
	if cell.IsLinked() {
		t.Error("a non-escaping variable should not be linked")
	}
}

func TestGeneralizeThenInstantiateRoundTrip(t *testing.T) {
	g := NewGeneralizer(nil)
	in := NewInstantiator(nil)
	ctx := rootCtx()
	inner := ctx.Grow("body", symbols.ScopeSubr)

	cell := types.NewUnbound[types.Type](inner.Level, types.SandwichedC(types.Never(), types.Obj()))
	fv := types.FreeVar{C: cell}
	identity := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: fv}}, Return: fv}}

	t2 := inner.Pop()
	generalized := g.Generalize(t2, identity)
	if _, ok := generalized.(types.Quantified); !ok {
		t.Fatalf("expected Generalize to produce a Quantified, got %T", generalized)
	}

	instantiated, _, err := in.Instantiate(t2, t2.Level+1, generalized)
	if err != nil {
		t.Fatalf("Instantiate(generalized) returned error: %v", err)
	}
	subr := instantiated.(types.Subr)
	paramFV := subr.T.Params[0].T.(types.FreeVar)
	returnFV := subr.T.Return.(types.FreeVar)
	if paramFV.C.ID() != returnFV.C.ID() {
		t.Error("the round trip should preserve the identity function's single shared type variable")
	}
	if paramFV.C.ID() == cell.ID() {
		t.Error("instantiation should mint a brand new cell, not reuse the original escaped one")
	}
}
