// Package symbols implements the Context component (CX): the lexical and
// nominal environment the inference engine consults to resolve names,
// trait implementations, and glue patches. It is adapted from the
// teacher's SymbolTable — same split-by-concern file layout, same
// scope-chain design — generalized to the richer type algebra in
// internal/types and to the glue-patch-driven coherence model the
// original symbol table never needed.
package symbols

import (
	"sort"

	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/types"
)

// ScopeKind tags what kind of lexical unit a Context represents.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeTrait
	ScopeInstance
	ScopeSubr
	ScopeBlock
)

// SymbolKind tags what a name in a Context's locals map denotes.
type SymbolKind int

const (
	VarSymbol SymbolKind = iota
	TypeSymbol
	TraitSymbol
	ModuleSymbol
	ConstructorSymbol
)

// Symbol is a single declared name: one locals/decls entry.
type Symbol struct {
	Name           string
	T              types.Type
	Kind           SymbolKind
	Visibility     ast.Visibility
	IsConstant     bool
	IsPending      bool
	UnderlyingType types.Type // non-nil for a type alias: its expansion
	DefPos         ast.Pos
}

// GetTypeForUnification returns UnderlyingType when this symbol aliases
// another type, else Type itself.
func (s Symbol) GetTypeForUnification() types.Type {
	if s.UnderlyingType != nil {
		return s.UnderlyingType
	}
	return s.T
}

func (s Symbol) IsTypeAlias() bool { return s.Kind == TypeSymbol && s.UnderlyingType != nil }

// Phase tracks a scope's lifecycle: a freshly grown scope is Open, the
// first declaration or assignment moves it to Growing, and Pop marks it
// Closing. Entries still pending in varDecls at Closing were declared but
// never assigned — the caller reports each as an Uninitialized error.
type Phase int

const (
	Open Phase = iota
	Growing
	Closing
)

// Context is one lexical scope, chained to its Outer. Every piece of
// environment the Generalizer, Unifier, and Subtype Oracle need about
// "what's in scope right now" lives here: local bindings, type/trait
// declarations, nominal supertype edges, registered trait implementations,
// glue patches, and the dependent-parameter constant table.
type Context struct {
	Name  string
	Kind  ScopeKind
	Outer *Context
	Level types.Level

	phase Phase

	locals   map[string]*Symbol // vars and subrs bound by name in this scope
	varDecls map[string]*Symbol // forward declarations awaiting assignment
	decls    map[string]*Symbol // types/traits declared in this scope
	params   map[string]*Symbol // type/subr parameters bound in this scope

	// SuperClasses: nominal supertypes this scope's own type inherits from,
	// when Kind == ScopeClass.
	SuperClasses []types.Type

	// SuperTraits: TraitName -> the trait names it requires as prerequisites.
	SuperTraits map[string][]string

	// PolyTraitImpls: TraitName -> every impl registered in this scope.
	PolyTraitImpls map[string][]*PolyTraitImpl

	// GluePatchAndTypes: TypeName -> third-party trait-impl assertions that
	// apply to that type but were declared elsewhere, consulted only at
	// subtype-check time (the glue-patch mechanism).
	GluePatchAndTypes map[string][]*GluePatch

	// ConstParamDefaults: dependent-parameter name -> its default value,
	// used when a Poly/Array constructor is applied with an omitted
	// trailing dependent argument.
	ConstParamDefaults map[string]types.TyParam

	// TypeMembers: nominal type/trait name -> the Context holding its
	// method and field declarations. Keyed by types.TypeName(t) rather than
	// the Type itself since Type is not a comparable map key in general
	// (a Poly's Params may contain a FreeTyParam).
	TypeMembers map[string]*Context

	// TypeParamVariance: nominal type-constructor name -> the declared
	// variance of each of its parameters, derived at registration time from
	// whether the parameter appears in Input(T)/Output(T) position of the
	// constructor's trait/method signatures.
	// Consulted by the Subtype Oracle when comparing two Poly applications
	// of the same constructor parameter-by-parameter.
	TypeParamVariance map[string][]Variance

	// Bounds/Preds: the quantifier bounds and narrowed refinement
	// predicates currently active while checking inside this scope (e.g.
	// the body of a Quantified type, or a branch where a refinement was
	// narrowed by a prior check).
	Bounds []types.TyBound
	Preds  []types.Predicate

	submodules map[string]*Context
}

// PolyTraitImpl is a single registered trait implementation, possibly
// generic (Requirements carries the constraints a generic instance needs
// on its own type parameters before it applies).
type PolyTraitImpl struct {
	TraitName       string
	TargetType      types.Type
	ConstructorName string
	Requirements    []types.Constraint
	Variance        map[string]Variance
}

// Variance classifies how a trait's type parameter behaves in its method
// signatures, derived from where it appears in Input vs Output position.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// GluePatch is a structural/nominal coherence assertion: "TypeName
// implements TraitName via Impl", recorded outside of TypeName's own
// declaration scope.
type GluePatch struct {
	TypeName  string
	TraitName string
	Impl      *PolyTraitImpl
	Module    string
}

// NewRootContext creates the top-level (prelude) Context.
func NewRootContext(name string) *Context {
	return &Context{
		Name:               name,
		Kind:               ScopeModule,
		Level:              types.LevelTop,
		locals:             make(map[string]*Symbol),
		varDecls:           make(map[string]*Symbol),
		decls:              make(map[string]*Symbol),
		params:             make(map[string]*Symbol),
		SuperTraits:        make(map[string][]string),
		PolyTraitImpls:     make(map[string][]*PolyTraitImpl),
		GluePatchAndTypes:  make(map[string][]*GluePatch),
		ConstParamDefaults: make(map[string]types.TyParam),
		TypeMembers:        make(map[string]*Context),
		TypeParamVariance:  make(map[string][]Variance),
		submodules:         make(map[string]*Context),
	}
}

// Grow pushes a fresh child scope one level deeper (grow). Every
// FreeVar cell created after this call and before the matching Pop is
// owned by the new level, so generalization on Pop can tell which
// variables escaped.
func (c *Context) Grow(name string, kind ScopeKind) *Context {
	child := &Context{
		Name:               name,
		Kind:               kind,
		Outer:              c,
		Level:              c.Level + 1,
		locals:             make(map[string]*Symbol),
		varDecls:           make(map[string]*Symbol),
		decls:              make(map[string]*Symbol),
		params:             make(map[string]*Symbol),
		SuperTraits:        make(map[string][]string),
		PolyTraitImpls:     make(map[string][]*PolyTraitImpl),
		GluePatchAndTypes:  make(map[string][]*GluePatch),
		ConstParamDefaults: make(map[string]types.TyParam),
		TypeMembers:        make(map[string]*Context),
		TypeParamVariance:  make(map[string][]Variance),
		submodules:         make(map[string]*Context),
	}
	if kind == ScopeModule {
		c.submodules[name] = child
	}
	return child
}

// Pop marks the scope Closing and returns to the enclosing scope (pop). The Context itself does not run generalization — that is the
// Generalizer's job once it has the popped scope's level in hand — nor does
// it report on never-assigned declarations; the caller reads
// UnassignedDecls before or after popping and turns each into an
// Uninitialized error.
func (c *Context) Pop() *Context {
	c.phase = Closing
	return c.Outer
}

// ScopePhase reports where the scope is in its Open -> Growing -> Closing
// lifecycle.
func (c *Context) ScopePhase() Phase { return c.phase }

// UnassignedDecls returns the forward declarations never matched by an
// assignment, in name order so error reporting is deterministic.
func (c *Context) UnassignedDecls() []*Symbol {
	names := make([]string, 0, len(c.varDecls))
	for name, sym := range c.varDecls {
		if sym.IsPending {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]*Symbol, len(names))
	for i, name := range names {
		out[i] = c.varDecls[name]
	}
	return out
}
