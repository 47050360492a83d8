package infer

import (
	"testing"

	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

func rootCtx() *symbols.Context { return symbols.NewRootContext("test") }

func TestStructuralSupertypeOfReflexive(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()
	if !o.StructuralSupertypeOf(ctx, types.Int(), types.Int(), nil) {
		t.Error("Int should be a supertype of itself")
	}
}

func TestStructuralSupertypeOfObjIsTop(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()
	if !o.StructuralSupertypeOf(ctx, types.Obj(), types.Int(), nil) {
		t.Error("Obj should be a supertype of everything")
	}
}

func TestStructuralSupertypeOfNeverIsBottom(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()
	if !o.StructuralSupertypeOf(ctx, types.Int(), types.Never(), nil) {
		t.Error("Never should be a subtype of everything")
	}
}

func TestStructuralSupertypeOfNumericTower(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()
	if !o.StructuralSupertypeOf(ctx, types.Float(), types.Int(), nil) {
		t.Error("Float should be a supertype of Int")
	}
	if o.StructuralSupertypeOf(ctx, types.Int(), types.Float(), nil) {
		t.Error("Int should not be a supertype of Float")
	}
	if !o.StructuralSupertypeOf(ctx, types.Int(), types.NatP(), nil) {
		t.Error("Int should be a supertype of Nat")
	}
}

func TestStructuralSupertypeOfSubrContravariantParams(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()

	// (Int) -> Obj should be a supertype of (Float) -> Int: params are
	// contravariant (Float :> Int, so wider-accepting wins) and returns
	// covariant (Int <: Obj).
	sup := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Int()}}, Return: types.Obj()}}
	sub := types.Subr{T: types.SubrType{Kind: types.SubrFunc, Params: []types.Param{{Name: "x", T: types.Float()}}, Return: types.Int()}}

	if !o.StructuralSupertypeOf(ctx, sup, sub, nil) {
		t.Error("(Int) -> Obj should be a supertype of (Float) -> Int by contravariance")
	}
	if o.StructuralSupertypeOf(ctx, sub, sup, nil) {
		t.Error("(Float) -> Int should not be a supertype of (Int) -> Obj")
	}
}

func TestStructuralSupertypeOfRefinement(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()
	val := types.ValuePred(types.ParamType{T: types.Int()}).Value

	loose := types.Refinement{Var: "v", Base: types.Int(), Preds: []types.Predicate{types.GePred(val, types.IntParam(0))}}
	tight := types.Refinement{Var: "v", Base: types.Int(), Preds: []types.Predicate{types.GePred(val, types.IntParam(5))}}

	if !o.StructuralSupertypeOf(ctx, loose, tight, nil) {
		t.Error("{v: Int | v >= 0} should be a supertype of {v: Int | v >= 5}")
	}
	if o.StructuralSupertypeOf(ctx, tight, loose, nil) {
		t.Error("{v: Int | v >= 5} should not be a supertype of {v: Int | v >= 0}")
	}
}

func TestStructuralSupertypeOfPolyVariance(t *testing.T) {
	o := NewOracle(nil)
	ctx := rootCtx()
	ctx.RegisterTypeParamVariance("Producer", []symbols.Variance{symbols.Covariant})

	sup := types.Poly{Name: "Producer", Params: []types.TyParam{types.ParamType{T: types.Float()}}}
	sub := types.Poly{Name: "Producer", Params: []types.TyParam{types.ParamType{T: types.Int()}}}

	if !o.StructuralSupertypeOf(ctx, sup, sub, nil) {
		t.Error("Producer(Float) should be a supertype of Producer(Int) when covariant")
	}
	if o.StructuralSupertypeOf(ctx, sub, sup, nil) {
		t.Error("Producer(Int) should not be a supertype of Producer(Float)")
	}
}

func TestNominalSupertypeOfWalksSuperClasses(t *testing.T) {
	o := NewOracle(nil)
	root := rootCtx()
	animal := types.Poly{Name: "Animal"}
	dog := types.Poly{Name: "Dog"}
	root.SuperClasses = []types.Type{animal}
	if err := root.DeclareType("Dog", dog, symbols.TypeSymbol, ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareType: %v", err)
	}

	if !o.RecSupertypeOf(root, animal, dog) {
		t.Error("Animal should be a nominal supertype of Dog via SuperClasses")
	}
}

func TestNominalSupertypeOfGluePatch(t *testing.T) {
	o := NewOracle(nil)
	root := rootCtx()
	root.RegisterGluePatch(&symbols.GluePatch{
		TypeName:  "Widget",
		TraitName: "Show",
		Impl:      &symbols.PolyTraitImpl{TraitName: "Show", TargetType: types.Poly{Name: "Show"}},
	})

	if !o.RecSupertypeOf(root, types.Poly{Name: "Show"}, types.Poly{Name: "Widget"}) {
		t.Error("a glue patch asserting Widget implements Show should make Show a supertype of Widget")
	}
}

func TestNominalSupertypeOfInheritedGluePatch(t *testing.T) {
	o := NewOracle(nil)
	root := rootCtx()

	// Dog <: Animal, with the glue patch registered against Animal only.
	animalScope := root.Grow("animal-decl", symbols.ScopeClass)
	if err := animalScope.DeclareType("Animal", types.Poly{Name: "Animal"}, symbols.TypeSymbol, ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareType(Animal): %v", err)
	}
	dogScope := animalScope.Grow("dog-decl", symbols.ScopeClass)
	dogScope.SuperClasses = []types.Type{types.Poly{Name: "Animal"}}
	if err := dogScope.DeclareType("Dog", types.Poly{Name: "Dog"}, symbols.TypeSymbol, ast.Public, ast.Pos{}); err != nil {
		t.Fatalf("DeclareType(Dog): %v", err)
	}
	dogScope.RegisterGluePatch(&symbols.GluePatch{
		TypeName:  "Animal",
		TraitName: "Show",
		Impl:      &symbols.PolyTraitImpl{TraitName: "Show", TargetType: types.Poly{Name: "Show"}},
	})

	if !o.RecSupertypeOf(dogScope, types.Poly{Name: "Show"}, types.Poly{Name: "Dog"}) {
		t.Error("a glue patch on Animal should make Show a supertype of Dog when Dog <: Animal")
	}
}
