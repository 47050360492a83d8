package infer

import (
	"fmt"

	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
	"github.com/google/uuid"
)

// Generalizer is the GE component: it closes a type over every free
// variable whose level is deeper than the current scope, producing
// a Quantified wrapper. Where the teacher's Generalize builds a
// substitution over the escaping variables and applies it to a copy of
// the term, this store is cell-based, so the same effect comes from
// linking each escaping cell directly to its new MonoQVar/MonoQVarP
// name — link transparency means every existing reference to that cell,
// anywhere else in the context, observes the bound name too.
type Generalizer struct {
	Log *corelog.Logger
}

func NewGeneralizer(log *corelog.Logger) *Generalizer {
	if log == nil {
		log = corelog.Discard()
	}
	return &Generalizer{Log: log}
}

// Generalize closes t over the free variables that escape ctx's level,
// returning a Quantified wrapper (or t unchanged if nothing escaped).
func (g *Generalizer) Generalize(ctx *symbols.Context, t types.Type) types.Type {
	vars, params := g.collect(t, ctx.Level)
	if len(vars) == 0 && len(params) == 0 {
		return t
	}

	bounds := make([]types.TyBound, 0, len(vars))
	for i, cell := range vars {
		name := fmt.Sprintf("T%d", i)
		c := cell.Constraint()
		bound := types.TyBound{Kind: types.BoundSubtype, Name: name, Sub: c.Sub, Sup: c.Sup}
		if c.Kind == types.TypeOf {
			bound = types.TyBound{Kind: types.BoundInstance, Name: name, Inst: c.Of}
		}
		bounds = append(bounds, bound)
		g.Log.Tracef(corelog.PointGeneralize, "%s -> %s", cell, name)
		cell.Link(types.MonoQVar{Name: name})
	}
	for i, cell := range params {
		name := fmt.Sprintf("N%d", i)
		g.Log.Tracef(corelog.PointGeneralize, "%s -> %s", cell, name)
		cell.Link(types.MonoQVarP{Name: name})
	}

	return types.Quantified{Body: t, Bounds: bounds}
}

// collect walks t once, gathering every still-unbound FreeVar/FreeTyParam
// cell whose level is strictly deeper than scopeLevel, in first-appearance
// order so generated names are stable across repeated calls on the same
// tree shape.
func (g *Generalizer) collect(t types.Type, scopeLevel types.Level) ([]*types.Cell[types.Type], []*types.Cell[types.TyParam]) {
	seenVars := make(map[uuid.UUID]bool)
	seenParams := make(map[uuid.UUID]bool)
	var vars []*types.Cell[types.Type]
	var params []*types.Cell[types.TyParam]

	var walkT func(types.Type)
	var walkP func(types.TyParam)

	walkT = func(t types.Type) {
		switch v := t.(type) {
		case types.FreeVar:
			if v.C.IsLinked() {
				walkT(v.C.Crack())
				return
			}
			if v.C.Level().GeneralizableAt(scopeLevel) && !seenVars[v.C.ID()] {
				seenVars[v.C.ID()] = true
				vars = append(vars, v.C)
			}
		case types.Poly:
			for _, p := range v.Params {
				walkP(p)
			}
		case types.PolyQVar:
			for _, p := range v.Params {
				walkP(p)
			}
		case types.Subr:
			if v.T.SelfT != nil {
				walkT(v.T.SelfT)
			}
			for _, p := range v.T.Params {
				walkT(p.T)
			}
			walkT(v.T.Return)
		case types.Callable:
			for _, p := range v.Params {
				walkT(p)
			}
			walkT(v.Return)
		case types.Refinement:
			walkT(v.Base)
		case types.Quantified:
			walkT(v.Body)
		case types.Logical:
			for _, e := range v.Elems {
				walkT(e)
			}
		case types.RefForm:
			walkT(v.Elem)
		case types.Tuple:
			for _, e := range v.Elems {
				walkT(e)
			}
		case types.Array:
			walkT(v.Elem)
			walkP(v.Len)
		case types.Dict:
			walkT(v.Key)
			walkT(v.Value)
		case types.Record:
			for _, f := range v.Fields {
				walkT(f)
			}
			if v.Row != nil {
				walkT(v.Row)
			}
		case types.MonoProj:
			walkT(v.Base)
		}
	}

	walkP = func(p types.TyParam) {
		switch v := p.(type) {
		case types.FreeTyParam:
			if v.C.IsLinked() {
				walkP(v.C.Crack())
				return
			}
			if v.C.Level().GeneralizableAt(scopeLevel) && !seenParams[v.C.ID()] {
				seenParams[v.C.ID()] = true
				params = append(params, v.C)
			}
		case types.ParamType:
			walkT(v.T)
		case types.PolyQVarP:
			for _, a := range v.Args {
				walkP(a)
			}
		case types.AppliedParam:
			for _, a := range v.Args {
				walkP(a)
			}
		case types.BinOpParam:
			walkP(v.Left)
			walkP(v.Right)
		case types.UnaryOpParam:
			walkP(v.Operand)
		case types.Erased:
			walkT(v.T)
		case types.MonoProjParam:
			walkP(v.Base)
		case types.TupleParam:
			for _, e := range v.Elems {
				walkP(e)
			}
		case types.ArrayParam:
			walkP(v.Elem)
			walkP(v.Len)
		}
	}

	walkT(t)
	return vars, params
}
