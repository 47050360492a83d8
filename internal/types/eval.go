package types

import "fmt"

// EvalError reports that a dependent-parameter expression could not be
// reduced to a literal — either it still contains an unresolved free
// variable at residual level 0 or it applies an
// operator to operands that the evaluator does not know how to combine.
type EvalError struct {
	Uninferable bool
	Param       TyParam
}

func (e *EvalError) Error() string {
	if e.Uninferable {
		return fmt.Sprintf("uninferable dependent parameter: %s", e.Param)
	}
	return fmt.Sprintf("cannot evaluate dependent parameter: %s", e.Param)
}

// EvalTP reduces a TyParam expression to a literal value where possible,
// folding BinOp/UnaryOp arithmetic over literal operands.
// A residual unbound FreeTyParam at level 0 (top level, nothing left to
// generalize) is reported as Uninferable rather than silently left
// unevaluated, matching the Evaluator's contract that every dependent
// parameter is either folded or explicitly flagged.
func EvalTP(p TyParam) (TyParam, error) {
	p = derefParam(p)
	switch v := p.(type) {
	case ParamLit, ParamType, MonoQVarP, Erased, FailureParam:
		return v, nil
	case FreeTyParam:
		if v.C.Level() == LevelTop {
			return nil, &EvalError{Uninferable: true, Param: p}
		}
		return v, nil
	case BinOpParam:
		left, err := EvalTP(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := EvalTP(v.Right)
		if err != nil {
			return nil, err
		}
		return evalBinOp(v.Op, left, right)
	case UnaryOpParam:
		operand, err := EvalTP(v.Operand)
		if err != nil {
			return nil, err
		}
		return evalUnaryOp(v.Op, operand)
	case AppliedParam:
		args := make([]TyParam, len(v.Args))
		for i, a := range v.Args {
			ea, err := EvalTP(a)
			if err != nil {
				return nil, err
			}
			args[i] = ea
		}
		return AppliedParam{Name: v.Name, Args: args}, nil
	case PolyQVarP:
		return v, nil
	case MonoProjParam:
		return v, nil
	case TupleParam:
		elems := make([]TyParam, len(v.Elems))
		for i, e := range v.Elems {
			ee, err := EvalTP(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ee
		}
		return TupleParam{Elems: elems}, nil
	case ArrayParam:
		elem, err := EvalTP(v.Elem)
		if err != nil {
			return nil, err
		}
		length, err := EvalTP(v.Len)
		if err != nil {
			return nil, err
		}
		return ArrayParam{Elem: elem, Len: length}, nil
	default:
		return nil, &EvalError{Param: p}
	}
}

func evalBinOp(op ArithOp, left, right TyParam) (TyParam, error) {
	l, lok := literalInt(left)
	r, rok := literalInt(right)
	if !lok || !rok {
		return BinOpParam{Op: op, Left: left, Right: right}, nil
	}
	switch op {
	case ParamAdd:
		return IntParam(l + r), nil
	case ParamSub:
		return IntParam(l - r), nil
	case ParamMul:
		return IntParam(l * r), nil
	case ParamDiv:
		if r == 0 {
			return nil, &EvalError{Param: BinOpParam{Op: op, Left: left, Right: right}}
		}
		return IntParam(l / r), nil
	default:
		return nil, &EvalError{Param: BinOpParam{Op: op, Left: left, Right: right}}
	}
}

func evalUnaryOp(op ArithOp, operand TyParam) (TyParam, error) {
	n, ok := literalInt(operand)
	if !ok {
		return UnaryOpParam{Op: op, Operand: operand}, nil
	}
	switch op {
	case ParamNeg:
		return IntParam(-n), nil
	default:
		return nil, &EvalError{Param: UnaryOpParam{Op: op, Operand: operand}}
	}
}

// ShallowEqTP compares two already-evaluated TyParam values without
// recursing into further evaluation — used once both sides have already
// been through EvalTP, so only a structural comparison remains.
func ShallowEqTP(a, b TyParam) bool { return rec_eqTyParams(a, b) }

// GetTPType returns the Type that classifies a TyParam value: a literal's intrinsic primitive, a ParamType's wrapped Type,
// or a free variable's TypeOf constraint.
func GetTPType(p TyParam) Type {
	switch v := derefParam(p).(type) {
	case ParamLit:
		switch v.Kind {
		case ParamLitInt:
			return Int()
		case ParamLitStr:
			return Str()
		case ParamLitBool:
			return BoolT()
		case ParamLitInf:
			return Ratio()
		}
		return Obj()
	case ParamType:
		return TypeTypeOf(v.T)
	case FreeTyParam:
		c := v.C.Constraint()
		if c.Kind == TypeOf {
			return c.Of
		}
		return Obj()
	case Erased:
		return v.T
	default:
		return Obj()
	}
}

// TypeTypeOf returns the meta-type classifying t when t itself fills a
// types-as-params slot (every Type is classified by the Type primitive tag).
func TypeTypeOf(Type) Type { return Primitive{Tag: TypeTag} }

// Ordering is the result tag of TryCmp: the relation known to hold between
// every value of the left operand and every value of the right one, ranging
// over the intervals a refinement denotes.
type Ordering int

const (
	OrdLess Ordering = iota
	OrdEqual
	OrdGreater
	OrdLessEqual
	OrdGreaterEqual
	OrdNotEqual
	OrdAny        // the operands overlap; any relation may hold
	OrdNoRelation // the operands are not comparable at all
)

func (o Ordering) String() string {
	switch o {
	case OrdLess:
		return "Less"
	case OrdEqual:
		return "Equal"
	case OrdGreater:
		return "Greater"
	case OrdLessEqual:
		return "LessEqual"
	case OrdGreaterEqual:
		return "GreaterEqual"
	case OrdNotEqual:
		return "NotEqual"
	case OrdAny:
		return "Any"
	default:
		return "NoRelation"
	}
}

// interval is a closed numeric range with optionally infinite ends. A point
// value has lo == hi with both ends finite.
type interval struct {
	lo, hi       int64
	loInf, hiInf bool // unbounded below / above
}

func (iv interval) isPoint() bool { return !iv.loInf && !iv.hiInf && iv.lo == iv.hi }

func pointInterval(n int64) interval { return interval{lo: n, hi: n} }

// intervalOf interprets a dependent parameter as a numeric interval: a
// literal integer is a point; a refinement of Int with lower/upper bound
// predicates spans the range they admit; Nat spans [0, +inf).
func intervalOf(p TyParam) (interval, bool) {
	switch v := derefParam(p).(type) {
	case ParamLit:
		switch v.Kind {
		case ParamLitInt:
			return pointInterval(v.Int), true
		}
		return interval{}, false
	case ParamType:
		return typeInterval(v.T)
	default:
		return interval{}, false
	}
}

func typeInterval(t Type) (interval, bool) {
	switch v := deref(t).(type) {
	case Primitive:
		switch v.Tag {
		case IntTag:
			return interval{loInf: true, hiInf: true}, true
		case NatTag:
			return interval{lo: 0, hiInf: true}, true
		}
		return interval{}, false
	case Refinement:
		base, ok := deref(v.Base).(Primitive)
		if !ok || (base.Tag != IntTag && base.Tag != NatTag) {
			return interval{}, false
		}
		iv := interval{loInf: true, hiInf: true}
		if base.Tag == NatTag {
			iv.loInf, iv.lo = false, 0
		}
		for _, p := range v.Preds {
			rhs, haveRhs := literalInt(p.Rhs)
			switch p.Kind {
			case PredGreaterEqual:
				if pos, isInf := IsInf(p.Rhs); isInf {
					if !pos {
						continue // v >= -Inf: trivially satisfied
					}
					return interval{}, false
				}
				if !haveRhs {
					return interval{}, false
				}
				if iv.loInf || rhs > iv.lo {
					iv.loInf, iv.lo = false, rhs
				}
			case PredLessEqual:
				if pos, isInf := IsInf(p.Rhs); isInf {
					if pos {
						continue // v <= +Inf: trivially satisfied
					}
					return interval{}, false
				}
				if !haveRhs {
					return interval{}, false
				}
				if iv.hiInf || rhs < iv.hi {
					iv.hiInf, iv.hi = false, rhs
				}
			case PredEqual:
				if !haveRhs {
					return interval{}, false
				}
				return pointInterval(rhs), true
			default:
				return interval{}, false
			}
		}
		return iv, true
	default:
		return interval{}, false
	}
}

// TryCmp orders two dependent-parameter values. Literal integers order
// three-ways; refinements of Int with lower/upper bound predicates compare
// as intervals, yielding the weaker LessEqual/GreaterEqual/Any tags when
// only a partial relation is known. Literal strings and bools compare for
// (in)equality only. Anything else is OrdNoRelation.
func TryCmp(a, b TyParam) Ordering {
	da, db := derefParam(a), derefParam(b)
	if la, ok := da.(ParamLit); ok {
		if lb, ok := db.(ParamLit); ok && la.Kind == lb.Kind {
			switch la.Kind {
			case ParamLitStr:
				if la.Str == lb.Str {
					return OrdEqual
				}
				return OrdNotEqual
			case ParamLitBool:
				if la.Bool == lb.Bool {
					return OrdEqual
				}
				return OrdNotEqual
			case ParamLitInf:
				switch {
				case la.Int == lb.Int:
					return OrdEqual
				case la.Int < lb.Int:
					return OrdLess
				default:
					return OrdGreater
				}
			}
		}
	}

	// A signed infinity strictly bounds every finite interval.
	if pos, ok := IsInf(da); ok {
		if _, bok := intervalOf(db); bok {
			if pos {
				return OrdGreater
			}
			return OrdLess
		}
		return OrdNoRelation
	}
	if pos, ok := IsInf(db); ok {
		if _, aok := intervalOf(da); aok {
			if pos {
				return OrdLess
			}
			return OrdGreater
		}
		return OrdNoRelation
	}

	ia, aok := intervalOf(da)
	ib, bok := intervalOf(db)
	if !aok || !bok {
		return OrdNoRelation
	}
	return cmpIntervals(ia, ib)
}

func cmpIntervals(a, b interval) Ordering {
	if a.isPoint() && b.isPoint() {
		switch {
		case a.lo < b.lo:
			return OrdLess
		case a.lo > b.lo:
			return OrdGreater
		default:
			return OrdEqual
		}
	}
	// a entirely below b
	if !a.hiInf && !b.loInf {
		if a.hi < b.lo {
			return OrdLess
		}
		if a.hi == b.lo {
			return OrdLessEqual
		}
	}
	// a entirely above b
	if !a.loInf && !b.hiInf {
		if a.lo > b.hi {
			return OrdGreater
		}
		if a.lo == b.hi {
			return OrdGreaterEqual
		}
	}
	return OrdAny
}
