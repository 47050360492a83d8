package symbols

import (
	"github.com/glyphlang/typecore/internal/types"
	"github.com/m-mizutani/goerr"
)

// RegisterTrait records a trait's super-trait prerequisites in this scope,
// mirroring the teacher's traitSuperTraits registry.
func (c *Context) RegisterTrait(name string, superTraits []string) {
	c.SuperTraits[name] = superTraits
}

// RegisterPolyTraitImpl adds a (possibly generic) trait implementation to
// this scope's registry.
func (c *Context) RegisterPolyTraitImpl(impl *PolyTraitImpl) {
	c.PolyTraitImpls[impl.TraitName] = append(c.PolyTraitImpls[impl.TraitName], impl)
}

// RegisterGluePatch adds a glue patch asserting that TypeName implements
// TraitName, even though neither was declared alongside the other (glue patches are consulted only at subtype-check time, never
// treated as part of TypeName's or TraitName's own declaration).
func (c *Context) RegisterGluePatch(patch *GluePatch) {
	c.GluePatchAndTypes[patch.TypeName] = append(c.GluePatchAndTypes[patch.TypeName], patch)
}

// RecGetMod resolves a dotted module path by walking to the root scope and
// descending through registered submodules.
func (c *Context) RecGetMod(path string) (*Context, error) {
	root := c
	for root.Outer != nil {
		root = root.Outer
	}
	mod, ok := root.submodules[path]
	if !ok {
		return nil, goerr.New("module not found").With("path", path)
	}
	return mod, nil
}

// RecGetPatch searches this scope and every enclosing scope for a glue
// patch asserting typeName implements traitName, returning the first one
// found (innermost scope wins, matching ordinary lexical shadowing).
func (c *Context) RecGetPatch(typeName, traitName string) (*GluePatch, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		for _, p := range ctx.GluePatchAndTypes[typeName] {
			if p.TraitName == traitName {
				return p, true
			}
		}
	}
	return nil, false
}

// RecGetGluePatchAndTypes collects every glue patch registered against
// typeName across the whole scope chain, innermost first.
func (c *Context) RecGetGluePatchAndTypes(typeName string) []*GluePatch {
	var out []*GluePatch
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		out = append(out, ctx.GluePatchAndTypes[typeName]...)
	}
	return out
}

// RecGetPolyTraitImpls collects every implementation of traitName visible
// from this scope, innermost first — the Call Typer's instantiateTrait
// walks this list and picks the subtype-minimum candidate (resolved per
// the coherence tie-break in this module's accompanying design notes).
func (c *Context) RecGetPolyTraitImpls(traitName string) []*PolyTraitImpl {
	var out []*PolyTraitImpl
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		out = append(out, ctx.PolyTraitImpls[traitName]...)
	}
	return out
}

// RecSuperTraitsOf walks the scope chain for traitName's registered
// super-trait list.
func (c *Context) RecSuperTraitsOf(traitName string) []string {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if st, ok := ctx.SuperTraits[traitName]; ok {
			return st
		}
	}
	return nil
}

// RecTypeCtxByName finds the Context in which a nominal type was declared,
// used to resolve its fields/methods from the scope that owns them rather
// than the caller's own scope.
func (c *Context) RecTypeCtxByName(typeName string) (*Context, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if _, ok := ctx.decls[typeName]; ok {
			return ctx, true
		}
	}
	return nil, false
}

// RecGetConstParamDefaults walks the scope chain for a dependent
// parameter's default value.
func (c *Context) RecGetConstParamDefaults(name string) (types.TyParam, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if v, ok := ctx.ConstParamDefaults[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// RecGetConstObj resolves a named dependent-parameter constant (a const
// declared with `:-` whose value participates in type-level arithmetic) by
// walking the scope chain for its bound value.
func (c *Context) RecGetConstObj(name string) (types.TyParam, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if v, ok := ctx.ConstParamDefaults[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// RegisterTypeMembers attaches the member Context (fields/methods) to a
// declared nominal type name.
func (c *Context) RegisterTypeMembers(typeName string, members *Context) {
	c.TypeMembers[typeName] = members
}

// RecGetTypeMembers walks the scope chain for the member Context of a
// declared nominal type, used by the Call Typer's attribute lookup.
func (c *Context) RecGetTypeMembers(typeName string) (*Context, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if m, ok := ctx.TypeMembers[typeName]; ok {
			return m, true
		}
	}
	return nil, false
}

// RegisterTypeParamVariance records the declared per-parameter variance of
// a nominal type constructor, derived from where each parameter appears in
// Input/Output position of the constructor's own trait/method signatures.
func (c *Context) RegisterTypeParamVariance(typeName string, variance []Variance) {
	c.TypeParamVariance[typeName] = variance
}

// RecGetTypeParamVariance walks the scope chain for a type constructor's
// declared parameter variance, used by the Subtype Oracle when comparing
// two applications of the same constructor parameter-by-parameter.
func (c *Context) RecGetTypeParamVariance(typeName string) ([]Variance, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if v, ok := ctx.TypeParamVariance[typeName]; ok {
			return v, true
		}
	}
	return nil, false
}

// RecSortedSuperTypeCtxs returns, for a type named typeName, every ancestor
// type context reachable by following SuperClasses/SuperTraits edges,
// topologically ordered (typeName's own declared supertypes first, then
// their supertypes, ...). The Subtype Oracle's nominal_supertype_of walks
// this list looking for a structural supertype among the declared
// ancestors.
func (c *Context) RecSortedSuperTypeCtxs(typeName string) []*Context {
	seen := make(map[string]bool)
	var order []*Context
	var walk func(name string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		ctx, ok := c.RecTypeCtxByName(name)
		if !ok {
			return
		}
		order = append(order, ctx)
		for _, super := range ctx.SuperClasses {
			walk(types.TypeName(super))
		}
		for _, superTraitName := range c.RecSuperTraitsOf(name) {
			walk(superTraitName)
		}
	}
	walk(typeName)
	return order
}
