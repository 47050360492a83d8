package types

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var unboundCounter uint64

func nextUnboundID() uint64 {
	return atomic.AddUint64(&unboundCounter, 1)
}

// cellState tags which FreeKind variant a Cell currently holds.
type cellState int

const (
	stateUnbound cellState = iota
	stateNamedUnbound
	stateLinked
)

// Cell is the Free-Variable Store's unit of shared, interior-mutable state.
// It is generic over the term type it can be linked to: Type for
// the type-level FreeVar variant, TyParam for the value-level FreeTyParam
// variant. All sharing happens through the pointer; Cell itself is never
// copied.
//
// The core is single-threaded cooperative: every mutation here takes
// the cell, performs exactly one replacement, and returns — there is no
// window where a caller could observe a half-written state, so no lock is
// needed. The uuid is purely for stable identity in trace logging and the
// occurs check; it carries no semantic weight.
type Cell[T any] struct {
	id         uuid.UUID
	state      cellState
	linked     T
	unboundID  uint64
	name       string
	level      Level
	constraint Constraint
}

// NewUnbound allocates a fresh anonymous cell.
func NewUnbound[T any](level Level, c Constraint) *Cell[T] {
	return &Cell[T]{
		id:         uuid.New(),
		state:      stateUnbound,
		unboundID:  nextUnboundID(),
		level:      level,
		constraint: c,
	}
}

// NewNamedUnbound allocates a fresh cell that also carries a display name
// (used for the named dependent parameters the type-spec instantiator opens).
func NewNamedUnbound[T any](name string, level Level, c Constraint) *Cell[T] {
	return &Cell[T]{
		id:         uuid.New(),
		state:      stateNamedUnbound,
		unboundID:  nextUnboundID(),
		name:       name,
		level:      level,
		constraint: c,
	}
}

// ID returns a stable identity for this cell, usable as an occurs-check key
// (identity, not structural) and as a trace-log label.
func (c *Cell[T]) ID() uuid.UUID { return c.id }

// IsLinked reports whether the cell has been unified with a concrete term.
func (c *Cell[T]) IsLinked() bool { return c.state == stateLinked }

// Crack observes the linked term. Precondition: IsLinked() — callers that
// violate this get a programmer-error panic.
func (c *Cell[T]) Crack() T {
	if c.state != stateLinked {
		panic("types: Crack on unbound cell")
	}
	return c.linked
}

// Constraint returns the cell's active constraint. Calling this on a linked
// cell is a programmer error — constraints only apply while unbound.
func (c *Cell[T]) Constraint() Constraint {
	if c.state == stateLinked {
		panic("types: Constraint on linked cell")
	}
	return c.constraint
}

// Name returns the display name for a NamedUnbound cell, or "" otherwise.
func (c *Cell[T]) Name() string { return c.name }

// IsNamed reports whether this cell is a NamedUnbound variant.
func (c *Cell[T]) IsNamed() bool { return c.state == stateNamedUnbound }

// Level returns the cell's own level. It is only meaningful while unbound;
// once linked, level is a property of what it links to (link transparency),
// which callers observe by following Crack() rather than asking the cell.
func (c *Cell[T]) Level() Level {
	if c.state == stateLinked {
		panic("types: Level on linked cell")
	}
	return c.level
}

// Link replaces the cell's variant with Linked(target).
// Precondition: target must not resolve back to this same cell — the
// occurs check lives in the Unifier, not here, because only the
// caller knows how to walk an arbitrary term looking for this cell.
func (c *Cell[T]) Link(target T) {
	c.state = stateLinked
	c.linked = target
	c.name = ""
}

// UpdateConstraint replaces the cell's constraint when unbound; a no-op
// when already linked.
func (c *Cell[T]) UpdateConstraint(next Constraint) {
	if c.state == stateLinked {
		return
	}
	c.constraint = next
}

// UpdateLevel lowers the cell's level to min(current, L); never raises it.
// Recursing into a linked cell's target is the caller's
// job (done uniformly for Type and TyParam trees in their own
// UpdateFreeVarLevels walk), since Cell has no way to walk T generically.
func (c *Cell[T]) UpdateLevel(l Level) {
	if c.state == stateLinked {
		return
	}
	if l < c.level {
		c.level = l
	}
}

// Lift raises the cell's level by one. A no-op once linked —
// the caller is expected to recurse into the linked target itself.
func (c *Cell[T]) Lift() {
	if c.state == stateLinked {
		return
	}
	c.level++
}

func (c *Cell[T]) String() string {
	switch c.state {
	case stateLinked:
		return fmt.Sprintf("%v", c.linked)
	case stateNamedUnbound:
		return c.name
	default:
		return fmt.Sprintf("?%d", c.unboundID)
	}
}
