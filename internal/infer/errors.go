// Package infer implements the Instantiator (IN), Generalizer (GE), Unifier
// (UN: unify/sub_unify/reunify), Subtype Oracle (SO), and Call Typer (CT) —
// the hard center of the type-system core. It is adapted from funxy's
// internal/analyzer (Instantiate/Generalize/InstantiateForall in
// inference.go, Unify/Bind in typesystem/unify.go) and extended with the
// machinery funxy's simpler HM core didn't need: directional sub_unify,
// reunify for mutable dependent parameters, and a standalone SubtypeOracle.
package infer

import (
	"fmt"

	"github.com/glyphlang/typecore/internal/ast"
	"github.com/m-mizutani/goerr"
)

// Kind is the stable, machine-readable error kind. A caller never needs
// to pattern-match on a raw variant — Kind is a stable errno with a
// fixed rendering template.
type Kind string

const (
	KindNoTypeSpec      Kind = "NoTypeSpec"
	KindDuplicateDecl   Kind = "DuplicateDecl"
	KindReassign        Kind = "Reassign"
	KindTypeMismatch    Kind = "TypeMismatch"
	KindSubTypeError    Kind = "SubTypeError"
	KindReUnify         Kind = "ReUnify"
	KindPredUnify       Kind = "PredUnify"
	KindUnification     Kind = "Unification"
	KindTooManyArgs     Kind = "TooManyArgs"
	KindMultipleArgs    Kind = "MultipleArgs"
	KindUnexpectedKwArg Kind = "UnexpectedKwArg"
	KindViolateDecl     Kind = "ViolateDecl"
	KindReturnType      Kind = "ReturnType"
	KindUninferable     Kind = "Uninferable"
	KindUninitialized   Kind = "Uninitialized"
	KindFeature         Kind = "Feature"
	KindNoVar           Kind = "NoVar"
	KindNoAttr          Kind = "NoAttr"
	KindVisibility      Kind = "Visibility"
)

// renderTemplate is the stable rendering template per kind.
var renderTemplate = map[Kind]string{
	KindNoTypeSpec:      "%s has no type spec and no inferrable body",
	KindDuplicateDecl:   "%s is already declared in this scope",
	KindReassign:        "cannot assign to immutable binding %s",
	KindTypeMismatch:    "type mismatch: expected %s, found %s",
	KindSubTypeError:    "%s is not a subtype of %s",
	KindReUnify:         "mutable counterparts disagree: %s vs %s",
	KindPredUnify:       "predicates cannot be related: %s vs %s",
	KindUnification:     "cannot unify %s with %s",
	KindTooManyArgs:     "too many arguments: expected at most %s, got %s",
	KindMultipleArgs:    "argument %s supplied more than once",
	KindUnexpectedKwArg: "unexpected keyword argument %s",
	KindViolateDecl:     "inferred type %s is not a subtype of declared type %s",
	KindReturnType:      "body type %s does not match declared return type %s",
	KindUninferable:     "free variable in %s survived top-level dereference",
	KindUninitialized:   "%s was declared but never assigned before scope exit",
	KindFeature:         "recognized but unimplemented: %s",
	KindNoVar:           "undefined variable %s",
	KindNoAttr:          "%s has no attribute %s",
	KindVisibility:      "%s is not visible here",
}

// CoreError is every error the core produces: a stable Kind plus
// goerr-carried keyed context (location/expected/found), per the collect-
// don't-throw policy — a CoreError is a value to append to an error list,
// not something any phase panics on.
type CoreError struct {
	kind  Kind
	pos   ast.Pos
	cause *goerr.Error
}

func (e *CoreError) Error() string { return e.cause.Error() }

// Unwrap exposes the underlying *goerr.Error so callers can still use
// errors.Is/As against it if they need goerr's own facilities.
func (e *CoreError) Unwrap() error { return e.cause }

// Kind extracts the error kind for callers who need to branch on errno
// without string matching.
func (e *CoreError) Kind() Kind { return e.kind }

// Pos is the source location the error is keyed by; the zero Pos when the
// error arose from a bare type term with no syntax behind it.
func (e *CoreError) Pos() ast.Pos { return e.pos }

// At stamps a source location onto the error, returning the same error for
// chaining at report sites.
func (e *CoreError) At(pos ast.Pos) *CoreError {
	if e.pos == (ast.Pos{}) {
		e.pos = pos
		e.cause = e.cause.With("loc", pos.String())
	}
	return e
}

// newErr builds a CoreError of kind k whose message is the kind's
// rendering template filled with args, with each arg also attached as
// goerr keyed context under a generic "arg%d" key so a caller with
// goerr's tooling can still extract the raw values.
func newErr(k Kind, args ...interface{}) *CoreError {
	tmpl, ok := renderTemplate[k]
	if !ok {
		tmpl = string(k)
	}
	msg := tmpl
	if ok {
		msg = fmt.Sprintf(tmpl, args...)
	}
	e := goerr.New(msg)
	for i, a := range args {
		e = e.With(fmt.Sprintf("arg%d", i), a)
	}
	return &CoreError{kind: k, cause: e}
}

func errTypeMismatch(expected, found fmt.Stringer) *CoreError {
	return newErr(KindTypeMismatch, expected, found)
}

func errSubType(sub, sup fmt.Stringer) *CoreError {
	return newErr(KindSubTypeError, sub, sup)
}

func errUnification(a, b fmt.Stringer) *CoreError {
	return newErr(KindUnification, a, b)
}

func errReUnify(a, b fmt.Stringer) *CoreError {
	return newErr(KindReUnify, a, b)
}

func errPredUnify(a, b fmt.Stringer) *CoreError {
	return newErr(KindPredUnify, a, b)
}

func errFeature(what string) *CoreError {
	return newErr(KindFeature, what)
}

func errUninferable(what fmt.Stringer) *CoreError {
	return newErr(KindUninferable, what)
}

// OccursCheckError is the internal invariant violation of the occurs
// check: linking a cell to a term that would reference itself. This is a
// programmer error — an abort, not a collected diagnostic — because it
// can only happen if a caller of Link skipped the occurs check.
type OccursCheckError struct {
	Cell interface{}
}

func (e *OccursCheckError) Error() string {
	return fmt.Sprintf("infer: occurs check failed linking cell %v", e.Cell)
}
