package types

import "fmt"

// ConstraintKind tags the variant held by Constraint.
type ConstraintKind int

const (
	// Sandwiched is a pair of bounds: Sub <: var <: Sup. Sub may be Never,
	// Sup may be Obj (the unconstrained case).
	Sandwiched ConstraintKind = iota
	// TypeOf marks a type-parameter variable whose *type* is Of.
	TypeOf
	// Uninited is a temporary placeholder used only while a scope is being
	// entered; no fully-registered cell should carry it.
	Uninited
)

// Constraint is the contents of a free variable's bound, shared by both
// Type-level FreeVar cells (normally Sandwiched) and TyParam-level
// FreeTyParam cells (normally TypeOf).
type Constraint struct {
	Kind ConstraintKind
	Sub  Type // Sandwiched
	Sup  Type // Sandwiched
	Of   Type // TypeOf
}

func SandwichedC(sub, sup Type) Constraint {
	return Constraint{Kind: Sandwiched, Sub: sub, Sup: sup}
}

func TypeOfC(of Type) Constraint {
	return Constraint{Kind: TypeOf, Of: of}
}

var UninitedC = Constraint{Kind: Uninited}

// TopConstraint is Sandwiched{Never, Obj}: the unconstrained variable.
func TopConstraint() Constraint {
	return SandwichedC(Never(), Obj())
}

func (c Constraint) String() string {
	switch c.Kind {
	case Sandwiched:
		return fmt.Sprintf("%s <: _ <: %s", c.Sub, c.Sup)
	case TypeOf:
		return fmt.Sprintf(": %s", c.Of)
	default:
		return "<uninited>"
	}
}

// IsSubConstraintOf implements the constraint-weakening rule: c is
// a sub-constraint of other iff it is no looser — a Sandwiched window
// inside other's (equal bounds included), or the same TypeOf type.
func (c Constraint) IsSubConstraintOf(other Constraint, sup SupertypeOf) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case Sandwiched:
		// c.Sup must be <= other.Sup (c no looser on top) and c.Sub >= other.Sub
		// (c no looser on bottom): other.Sup :> c.Sup and c.Sub :> other.Sub.
		return sup(other.Sup, c.Sup) && sup(c.Sub, other.Sub)
	case TypeOf:
		return rec_eqTypes(c.Of, other.Of)
	default:
		return true
	}
}

// SupertypeOf is the minimal hook Constraint needs from the Subtype Oracle
// to judge weakening without creating an import cycle between this package
// and internal/infer (which owns the full oracle).
type SupertypeOf func(sup, sub Type) bool

// TyBoundKind tags the two quantifier-declaration forms.
type TyBoundKind int

const (
	BoundSubtype TyBoundKind = iota
	BoundInstance
)

// TyBound is a single entry of a Quantified type's bound set.
type TyBound struct {
	Kind TyBoundKind
	Name string // the MonoQVar name this bound governs
	Sub  Type   // BoundSubtype
	Sup  Type   // BoundSubtype
	Inst Type   // BoundInstance: the required instance type
}

func (b TyBound) String() string {
	switch b.Kind {
	case BoundSubtype:
		return fmt.Sprintf("%s <: %s <: %s", b.Sub, b.Name, b.Sup)
	case BoundInstance:
		return fmt.Sprintf("%s: %s", b.Name, b.Inst)
	default:
		return "<bad-bound>"
	}
}
