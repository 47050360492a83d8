package infer

import (
	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

// SearchCalleeT finds the type of a call's callee (search_callee_t): a bare name resolves through the lexical scope chain,
// a method name through the receiver type's member contexts, walking its
// sorted supertype contexts so an inherited method is found on an
// ancestor.
func (ct *CallTyper) SearchCalleeT(ctx *symbols.Context, recvT types.Type, name string) (types.Type, error) {
	if recvT == nil {
		return ct.searchVarT(ctx, name)
	}
	return ct.searchAttrT(ctx, recvT, name)
}

func (ct *CallTyper) searchVarT(ctx *symbols.Context, name string) (types.Type, error) {
	sym, owner, ok := ctx.GetVar(name)
	if !ok {
		return nil, newErr(KindNoVar, name)
	}
	if err := checkVisible(ctx, owner, sym); err != nil {
		return nil, err
	}
	return sym.GetTypeForUnification(), nil
}

func (ct *CallTyper) searchAttrT(ctx *symbols.Context, recvT types.Type, name string) (types.Type, error) {
	recvT = types.Deref(recvT)
	typeName := types.TypeName(recvT)
	if typeName == "" {
		return nil, newErr(KindNoAttr, recvT, name)
	}

	// The receiver's own member context first, then its declared ancestors
	// in supertype order, so an override shadows the inherited declaration.
	candidates := []string{typeName}
	for _, ancestorCtx := range ctx.RecSortedSuperTypeCtxs(typeName) {
		for _, superT := range ancestorCtx.SuperClasses {
			if n := types.TypeName(superT); n != "" {
				candidates = append(candidates, n)
			}
		}
	}
	for _, patch := range ctx.RecGetGluePatchAndTypes(typeName) {
		candidates = append(candidates, patch.TraitName)
	}

	for _, cand := range candidates {
		members, ok := ctx.RecGetTypeMembers(cand)
		if !ok {
			continue
		}
		sym, owner, ok := members.GetVar(name)
		if !ok {
			continue
		}
		if err := checkVisible(ctx, owner, sym); err != nil {
			return nil, err
		}
		return sym.GetTypeForUnification(), nil
	}
	return nil, newErr(KindNoAttr, recvT, name)
}

// checkVisible enforces declaration visibility: a Private symbol is only
// reachable from inside the scope chain that declared it.
func checkVisible(from, owner *symbols.Context, sym *symbols.Symbol) error {
	if sym.Visibility == ast.Public {
		return nil
	}
	for c := from; c != nil; c = c.Outer {
		if c == owner {
			return nil
		}
	}
	return newErr(KindVisibility, sym.Name)
}
