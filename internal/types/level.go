package types

// Level is the scope depth at which a free variable was created.
// Variables with a level strictly greater than the current scope's level are
// generalizable when leaving that scope. LevelTop (0) means "top-level
// dereference required" — see the Call Typer's deref_toplevel.
type Level int

const LevelTop Level = 0

// GeneralizableAt reports whether a variable created at l should be
// generalized when the enclosing scope is at the given level.
func (l Level) GeneralizableAt(scopeLevel Level) bool {
	return l > scopeLevel
}

// UpdateLevels lowers every free-variable cell reachable from t to at most
// l, recursing through links so an alias bound deeper in the tree is lowered
// too. Levels are never raised here; that is LiftLevels' job.
func UpdateLevels(t Type, l Level) {
	walkCells(t, func(c *Cell[Type]) { c.UpdateLevel(l) }, func(c *Cell[TyParam]) { c.UpdateLevel(l) })
}

// LiftLevels raises every free-variable cell reachable from t by one,
// recursing through links.
func LiftLevels(t Type) {
	walkCells(t, func(c *Cell[Type]) { c.Lift() }, func(c *Cell[TyParam]) { c.Lift() })
}

// HasLocalUnbound reports whether t still holds an unbound cell created at
// a level deeper than scopeLevel — a variable the scope being left was
// responsible for resolving. Variables owned by enclosing scopes don't
// count; they are their own scope's business.
func HasLocalUnbound(t Type, scopeLevel Level) bool {
	found := false
	walkCells(t,
		func(c *Cell[Type]) {
			if !c.IsLinked() && c.Level().GeneralizableAt(scopeLevel) {
				found = true
			}
		},
		func(c *Cell[TyParam]) {
			if !c.IsLinked() && c.Level().GeneralizableAt(scopeLevel) {
				found = true
			}
		})
	return found
}

// UpdateParamLevels is UpdateLevels' TyParam-level counterpart.
func UpdateParamLevels(p TyParam, l Level) {
	walkParamCells(p, func(c *Cell[Type]) { c.UpdateLevel(l) }, func(c *Cell[TyParam]) { c.UpdateLevel(l) })
}

func walkCells(t Type, fv func(*Cell[Type]), fp func(*Cell[TyParam])) {
	switch v := t.(type) {
	case FreeVar:
		fv(v.C)
		if v.C.IsLinked() {
			walkCells(v.C.Crack(), fv, fp)
		}
	case PolyQVar:
		for _, p := range v.Params {
			walkParamCells(p, fv, fp)
		}
	case Poly:
		for _, p := range v.Params {
			walkParamCells(p, fv, fp)
		}
	case Subr:
		if v.T.SelfT != nil {
			walkCells(v.T.SelfT, fv, fp)
		}
		if v.T.AfterSelfT != nil {
			walkCells(v.T.AfterSelfT, fv, fp)
		}
		for _, p := range v.T.Params {
			walkCells(p.T, fv, fp)
		}
		walkCells(v.T.Return, fv, fp)
	case Callable:
		for _, p := range v.Params {
			walkCells(p, fv, fp)
		}
		walkCells(v.Return, fv, fp)
	case Refinement:
		walkCells(v.Base, fv, fp)
		for _, p := range v.Preds {
			walkPredCells(p, fv, fp)
		}
	case Quantified:
		walkCells(v.Body, fv, fp)
	case Logical:
		for _, e := range v.Elems {
			walkCells(e, fv, fp)
		}
	case RefForm:
		walkCells(v.Elem, fv, fp)
	case Tuple:
		for _, e := range v.Elems {
			walkCells(e, fv, fp)
		}
	case Array:
		walkCells(v.Elem, fv, fp)
		walkParamCells(v.Len, fv, fp)
	case Dict:
		walkCells(v.Key, fv, fp)
		walkCells(v.Value, fv, fp)
	case Record:
		for _, f := range v.Fields {
			walkCells(f, fv, fp)
		}
		if v.Row != nil {
			walkCells(v.Row, fv, fp)
		}
	case MonoProj:
		walkCells(v.Base, fv, fp)
	}
}

func walkParamCells(p TyParam, fv func(*Cell[Type]), fp func(*Cell[TyParam])) {
	switch v := p.(type) {
	case FreeTyParam:
		fp(v.C)
		if v.C.IsLinked() {
			walkParamCells(v.C.Crack(), fv, fp)
		}
	case ParamType:
		walkCells(v.T, fv, fp)
	case PolyQVarP:
		for _, a := range v.Args {
			walkParamCells(a, fv, fp)
		}
	case AppliedParam:
		for _, a := range v.Args {
			walkParamCells(a, fv, fp)
		}
	case BinOpParam:
		walkParamCells(v.Left, fv, fp)
		walkParamCells(v.Right, fv, fp)
	case UnaryOpParam:
		walkParamCells(v.Operand, fv, fp)
	case Erased:
		walkCells(v.T, fv, fp)
	case MonoProjParam:
		walkParamCells(v.Base, fv, fp)
	case TupleParam:
		for _, e := range v.Elems {
			walkParamCells(e, fv, fp)
		}
	case ArrayParam:
		walkParamCells(v.Elem, fv, fp)
		walkParamCells(v.Len, fv, fp)
	}
}

func walkPredCells(p Predicate, fv func(*Cell[Type]), fp func(*Cell[TyParam])) {
	switch p.Kind {
	case PredValue:
		walkParamCells(p.Value, fv, fp)
	case PredConst:
		walkParamCells(p.Const, fv, fp)
	case PredEqual, PredGreaterEqual, PredLessEqual, PredNotEqual:
		walkParamCells(p.Lhs, fv, fp)
		walkParamCells(p.Rhs, fv, fp)
	case PredAnd, PredOr, PredNot:
		for _, s := range p.Subs {
			walkPredCells(s, fv, fp)
		}
	}
}
