package infer

import (
	"github.com/glyphlang/typecore/internal/types"
	"github.com/google/uuid"
)

// occursInType reports whether the free-var cell identified by id appears
// anywhere inside t. The Free-Variable Store deliberately leaves this out
// of Cell.Link: only a caller that knows how to walk an arbitrary
// term can look for "does this cell appear in here", so it lives in the
// Unifier, the one component that calls Link.
func occursInType(id uuid.UUID, t types.Type) bool {
	switch v := t.(type) {
	case types.FreeVar:
		if v.C.IsLinked() {
			return occursInType(id, v.C.Crack())
		}
		return v.C.ID() == id
	case types.PolyQVar:
		return occursInParams(id, v.Params)
	case types.Poly:
		return occursInParams(id, v.Params)
	case types.Subr:
		if v.T.SelfT != nil && occursInType(id, v.T.SelfT) {
			return true
		}
		for _, p := range v.T.Params {
			if occursInType(id, p.T) {
				return true
			}
		}
		return occursInType(id, v.T.Return)
	case types.Callable:
		for _, p := range v.Params {
			if occursInType(id, p) {
				return true
			}
		}
		return occursInType(id, v.Return)
	case types.Refinement:
		return occursInType(id, v.Base)
	case types.Quantified:
		return occursInType(id, v.Body)
	case types.Logical:
		for _, e := range v.Elems {
			if occursInType(id, e) {
				return true
			}
		}
		return false
	case types.RefForm:
		return occursInType(id, v.Elem)
	case types.Tuple:
		for _, e := range v.Elems {
			if occursInType(id, e) {
				return true
			}
		}
		return false
	case types.Array:
		return occursInType(id, v.Elem) || occursInParam(id, v.Len)
	case types.Dict:
		return occursInType(id, v.Key) || occursInType(id, v.Value)
	case types.Record:
		for _, f := range v.Fields {
			if occursInType(id, f) {
				return true
			}
		}
		return v.Row != nil && occursInType(id, v.Row)
	case types.MonoProj:
		return occursInType(id, v.Base)
	default:
		return false
	}
}

func occursInParams(id uuid.UUID, ps []types.TyParam) bool {
	for _, p := range ps {
		if occursInParam(id, p) {
			return true
		}
	}
	return false
}

func occursInParam(id uuid.UUID, p types.TyParam) bool {
	switch v := p.(type) {
	case types.FreeTyParam:
		if v.C.IsLinked() {
			return occursInParam(id, v.C.Crack())
		}
		return false
	case types.ParamType:
		return occursInType(id, v.T)
	case types.PolyQVarP:
		return occursInParams(id, v.Args)
	case types.AppliedParam:
		return occursInParams(id, v.Args)
	case types.BinOpParam:
		return occursInParam(id, v.Left) || occursInParam(id, v.Right)
	case types.UnaryOpParam:
		return occursInParam(id, v.Operand)
	case types.Erased:
		return occursInType(id, v.T)
	case types.MonoProjParam:
		return occursInParam(id, v.Base)
	case types.TupleParam:
		return occursInParams(id, v.Elems)
	case types.ArrayParam:
		return occursInParam(id, v.Elem) || occursInParam(id, v.Len)
	default:
		return false
	}
}

// occursInParamCell is occursInParam's counterpart for a FreeTyParam cell
// identity check (the TyParam-level occurs check, used by unifyParams).
func occursInParamCell(id uuid.UUID, p types.TyParam) bool {
	if fp, ok := p.(types.FreeTyParam); ok {
		if fp.C.IsLinked() {
			return occursInParamCell(id, fp.C.Crack())
		}
		return fp.C.ID() == id
	}
	return occursInParam(id, p)
}
