// Package types implements the Type Algebra (TA), the Free-Variable Store
// (FV), the Predicate & Refinement Logic (PL), and the constant-folding
// Evaluator (EV) of the type-system core.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the closed sum of type terms. It intentionally exposes
// only String(); every other operation (equality, free-variable
// collection, substitution) is a free function over the concrete variants
// below, the way funxy's typesystem.Type keeps structural operations
// outside the interface and dispatches with a type switch.
type Type interface {
	String() string
}

// PrimitiveTag enumerates the built-in atomic types, including the mutable
// counterparts the data model calls out as distinct tags.
type PrimitiveTag string

const (
	Obj_     PrimitiveTag = "Obj"
	NeverTag PrimitiveTag = "Never"
	IntTag   PrimitiveTag = "Int"
	NatTag   PrimitiveTag = "Nat"
	RatioTag PrimitiveTag = "Ratio"
	FloatTag PrimitiveTag = "Float"
	BoolTag  PrimitiveTag = "Bool"
	StrTag   PrimitiveTag = "Str"
	NoneTag  PrimitiveTag = "NoneType"
	TypeTag  PrimitiveTag = "Type"
	ClassTag PrimitiveTag = "Class"

	IntMutTag   PrimitiveTag = "Int!"
	NatMutTag   PrimitiveTag = "Nat!"
	RatioMutTag PrimitiveTag = "Ratio!"
	FloatMutTag PrimitiveTag = "Float!"
	BoolMutTag  PrimitiveTag = "Bool!"
	StrMutTag   PrimitiveTag = "Str!"
)

// mutableOf maps a primitive tag to its mutable counterpart, and the
// reverse: mutable counterparts are distinct tags from their immutable base.
var mutableOf = map[PrimitiveTag]PrimitiveTag{
	IntTag: IntMutTag, NatTag: NatMutTag, RatioTag: RatioMutTag,
	FloatTag: FloatMutTag, BoolTag: BoolMutTag, StrTag: StrMutTag,
}

var immutableOf = func() map[PrimitiveTag]PrimitiveTag {
	m := make(map[PrimitiveTag]PrimitiveTag, len(mutableOf))
	for k, v := range mutableOf {
		m[v] = k
	}
	return m
}()

// Primitive is a built-in atomic type.
type Primitive struct{ Tag PrimitiveTag }

func (p Primitive) String() string { return string(p.Tag) }

// IsMutable reports whether this primitive is a mutable counterpart (Int!,
// Nat!, ...).
func (p Primitive) IsMutable() bool { _, ok := immutableOf[p.Tag]; return ok }

// Mutable returns the mutable counterpart of p, or p itself if none exists.
func (p Primitive) Mutable() Primitive {
	if m, ok := mutableOf[p.Tag]; ok {
		return Primitive{Tag: m}
	}
	return p
}

// Immutable returns the immutable base of p, or p itself if it already is one.
func (p Primitive) Immutable() Primitive {
	if m, ok := immutableOf[p.Tag]; ok {
		return Primitive{Tag: m}
	}
	return p
}

func Obj() Type      { return Primitive{Tag: Obj_} }
func Never() Type    { return Primitive{Tag: NeverTag} }
func Int() Type      { return Primitive{Tag: IntTag} }
func NatP() Type     { return Primitive{Tag: NatTag} }
func Ratio() Type    { return Primitive{Tag: RatioTag} }
func Float() Type    { return Primitive{Tag: FloatTag} }
func BoolT() Type    { return Primitive{Tag: BoolTag} }
func Str() Type      { return Primitive{Tag: StrTag} }
func NoneType() Type { return Primitive{Tag: NoneTag} }

// FreeVar is an inference variable at the type level.
type FreeVar struct{ C *Cell[Type] }

func (f FreeVar) String() string { return f.C.String() }

// MonoQVar is a bound type variable inside a quantifier.
type MonoQVar struct{ Name string }

func (m MonoQVar) String() string { return m.Name }

// PolyQVar is a bound type-constructor application inside a quantifier:
// the constructor itself is still a bound name.
type PolyQVar struct {
	Name   string
	Params []TyParam
}

func (p PolyQVar) String() string { return formatApplied(p.Name, p.Params) }

// Poly is an applied, concrete type constructor, e.g. Array(Int, 3) or a
// user nominal type Stack(T).
type Poly struct {
	Name   string
	Params []TyParam
}

func (p Poly) String() string { return formatApplied(p.Name, p.Params) }

func formatApplied(name string, params []TyParam) string {
	if len(params) == 0 {
		return name
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// SubrKind selects call convention and self-receiver presence.
type SubrKind int

const (
	SubrFunc SubrKind = iota
	SubrProc
	SubrFuncMethod
	SubrProcMethod
)

// Param is a single parameter slot of a Subr type. Name identity controls
// keyword-argument passing.
type Param struct {
	Name string
	T    Type
}

// SubrType is the payload of the Subr variant.
type SubrType struct {
	Kind         SubrKind
	SelfT        Type // non-nil for method kinds
	AfterSelfT   Type // non-nil for SubrProcMethod: self's type after the call
	Params       []Param
	Return       Type
	IsVariadic   bool
	DefaultCount int
}

// Subr is a function/procedure/method arrow.
type Subr struct{ T SubrType }

func (s Subr) String() string {
	params := make([]string, len(s.T.Params))
	defaultStart := len(s.T.Params) - s.T.DefaultCount
	for i, p := range s.T.Params {
		str := p.Name + ": " + p.T.String()
		if i >= defaultStart {
			str += "?"
		}
		params[i] = str
	}
	recv := ""
	if s.T.SelfT != nil {
		recv = "(" + s.T.SelfT.String() + ") "
	}
	kind := "func"
	if s.T.Kind == SubrProc || s.T.Kind == SubrProcMethod {
		kind = "proc"
	}
	return fmt.Sprintf("%s%s(%s) -> %s [%s]", recv, kind, strings.Join(params, ", "), s.T.Return, kind)
}

// Callable is a structural callable type, used to compare against
// GenericFunc/GenericProc/... names in the Subtype Oracle.
type Callable struct {
	Params []Type
	Return Type
}

func (c Callable) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("Callable(%s) -> %s", strings.Join(parts, ", "), c.Return)
}

// Refinement is {v: T | preds}.
type Refinement struct {
	Var   string
	Base  Type
	Preds []Predicate
}

func (r Refinement) String() string {
	if len(r.Preds) == 0 {
		return fmt.Sprintf("{%s: %s}", r.Var, r.Base)
	}
	parts := make([]string, len(r.Preds))
	for i, p := range r.Preds {
		parts[i] = p.String()
	}
	return fmt.Sprintf("{%s: %s | %s}", r.Var, r.Base, strings.Join(parts, " and "))
}

// Quantified is |bounds| body: a rank-1 polymorphic type.
type Quantified struct {
	Body   Type
	Bounds []TyBound
}

func (q Quantified) String() string {
	parts := make([]string, len(q.Bounds))
	for i, b := range q.Bounds {
		parts[i] = b.String()
	}
	return fmt.Sprintf("|%s| %s", strings.Join(parts, ", "), q.Body)
}

// LogicalKind tags the And/Or/Not triple.
type LogicalKind int

const (
	LAnd LogicalKind = iota
	LOr
	LNot
)

// Logical is And/Or/Not over a vector of types.
type Logical struct {
	Kind  LogicalKind
	Elems []Type
}

func (l Logical) String() string {
	sep := map[LogicalKind]string{LAnd: " and ", LOr: " or "}[l.Kind]
	if l.Kind == LNot {
		return fmt.Sprintf("not %s", l.Elems[0])
	}
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// RefKind tags Ref/RefMut/VarArgs.
type RefKind int

const (
	RKRef RefKind = iota
	RKRefMut
	RKVarArgs
)

// RefForm wraps a single inner Type under a reference form.
type RefForm struct {
	Kind RefKind
	Elem Type
}

func (r RefForm) String() string {
	switch r.Kind {
	case RKRef:
		return "ref " + r.Elem.String()
	case RKRefMut:
		return "ref! " + r.Elem.String()
	default:
		return "..." + r.Elem.String()
	}
}

// Tuple is a fixed-arity product type.
type Tuple struct{ Elems []Type }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Array is a (possibly dependently) length-indexed homogeneous sequence.
// Len is a TyParam so the length can be a literal, a bound
// dependent parameter, or an arithmetic combination.
type Array struct {
	Elem Type
	Len  TyParam
}

func (a Array) String() string { return fmt.Sprintf("Array(%s, %s)", a.Elem, a.Len) }

// Dict is a homogeneous key/value mapping type.
type Dict struct {
	Key   Type
	Value Type
}

func (d Dict) String() string { return fmt.Sprintf("Dict(%s, %s)", d.Key, d.Value) }

// Record is a structural product with named fields, optionally open for row
// polymorphism.
type Record struct {
	Fields map[string]Type
	Row    Type // non-nil when open with a row variable
	IsOpen bool
}

func (r Record) String() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, r.Fields[k])
	}
	suffix := ""
	if r.Row != nil {
		suffix = " | " + r.Row.String()
	} else if r.IsOpen {
		suffix = ", ..."
	}
	return fmt.Sprintf("{%s%s}", strings.Join(parts, ", "), suffix)
}

// MonoProj is an associated-type projection T::Name.
type MonoProj struct {
	Base Type
	Name string
}

func (m MonoProj) String() string { return fmt.Sprintf("%s::%s", m.Base, m.Name) }

// Failure is the error sentinel type: it propagates through a tree without
// masking other errors.
type Failure struct{}

func (Failure) String() string { return "<failure>" }
