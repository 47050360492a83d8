// Command typecore is a small smoke harness for the inference engine: it
// wires the Subtype Oracle, Unifier, Instantiator, Generalizer and Call
// Typer together over a handful of built-in scenarios and reports the
// inferred type (or the surfaced error) for each.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/corelog"
	"github.com/glyphlang/typecore/internal/infer"
	"github.com/glyphlang/typecore/internal/symbols"
	"github.com/glyphlang/typecore/internal/types"
)

var traceMode = false

type scenario struct {
	name string
	run  func(ct *infer.CallTyper, ctx *symbols.Context) (types.Type, error)
}

var scenarios = []scenario{
	{
		name: "widen int arg to float param",
		run: func(ct *infer.CallTyper, ctx *symbols.Context) (types.Type, error) {
			callee := types.Subr{T: types.SubrType{
				Kind:   types.SubrFunc,
				Params: []types.Param{{Name: "x", T: types.Float()}},
				Return: types.BoolT(),
			}}
			return ct.GetCallT(ctx, callee, nil, []infer.Arg{{T: types.Int()}})
		},
	},
	{
		name: "generic identity applied to Int",
		run: func(ct *infer.CallTyper, ctx *symbols.Context) (types.Type, error) {
			identity := types.Quantified{
				Body: types.Subr{T: types.SubrType{
					Kind:   types.SubrFunc,
					Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}},
					Return: types.MonoQVar{Name: "T0"},
				}},
				Bounds: []types.TyBound{{Kind: types.BoundSubtype, Name: "T0", Sub: types.Never(), Sup: types.Obj()}},
			}
			return ct.GetCallT(ctx, identity, nil, []infer.Arg{{T: types.Int()}})
		},
	},
	{
		name: "trait-bound call resolved via registered impl",
		run: func(ct *infer.CallTyper, ctx *symbols.Context) (types.Type, error) {
			ctx.RegisterPolyTraitImpl(&symbols.PolyTraitImpl{TraitName: "Show", TargetType: types.Int()})
			showable := types.Quantified{
				Body: types.Subr{T: types.SubrType{
					Kind:   types.SubrFunc,
					Params: []types.Param{{Name: "x", T: types.MonoQVar{Name: "T0"}}},
					Return: types.Str(),
				}},
				Bounds: []types.TyBound{{Kind: types.BoundInstance, Name: "T0", Inst: types.Poly{Name: "Show"}}},
			}
			return ct.GetCallT(ctx, showable, nil, []infer.Arg{{T: types.Int()}})
		},
	},
	{
		name: "narrowing argument is rejected",
		run: func(ct *infer.CallTyper, ctx *symbols.Context) (types.Type, error) {
			callee := types.Subr{T: types.SubrType{
				Kind:   types.SubrFunc,
				Params: []types.Param{{Name: "x", T: types.Int()}},
				Return: types.BoolT(),
			}}
			return ct.GetCallT(ctx, callee, nil, []infer.Arg{{T: types.Float()}})
		},
	},
}

func run() (failures int) {
	logger := corelog.Discard()
	if traceMode {
		logger = corelog.New(os.Stdout, corelog.Trace)
	}
	oracle := infer.NewOracle(logger)
	ct := infer.NewCallTyper(
		infer.NewInstantiator(logger),
		infer.NewGeneralizer(logger),
		infer.NewUnifier(oracle, logger),
		oracle,
		logger,
	)

	for _, s := range scenarios {
		ctx := symbols.NewRootContext("typecore")
		result, err := s.run(ct, ctx)
		if err != nil {
			fmt.Printf("%-45s  error: %v\n", s.name, err)
			if s.name != "narrowing argument is rejected" {
				failures++
			}
			continue
		}
		fmt.Printf("%-45s  => %s\n", s.name, result)
		if s.name == "narrowing argument is rejected" {
			failures++
		}
	}

	failures += runModuleDemo(ct)
	return failures
}

// runModuleDemo drives the analyzer over a tiny hand-built module: a
// generic identity defined as a lambda, then applied at Str, with every
// expression's final type dereferenced at top level.
func runModuleDemo(ct *infer.CallTyper) (failures int) {
	ctx := symbols.NewRootContext("demo")
	a := infer.NewAnalyzer(ct, nil)

	name := func(s string) *ast.Identifier { return &ast.Identifier{Name: s} }
	module := []ast.Expr{
		&ast.DefExpr{
			VarSig: &ast.VarSignature{Name: name("id")},
			Body: &ast.LambdaExpr{
				Sig:  &ast.SubrSignature{Kind: ast.KindFunc, NonDefaults: []*ast.Param{{Name: name("x")}}},
				Body: &ast.IdentExpr{Name: name("x")},
			},
		},
		&ast.CallExpr{
			Obj:     &ast.IdentExpr{Name: name("id")},
			PosArgs: []ast.Expr{&ast.LiteralExpr{Lit: ast.StrLit("hello", ast.Pos{})}},
		},
	}

	typed, errs := a.InferModule(ctx, module)
	for _, e := range errs {
		fmt.Printf("%-45s  error: %v\n", "module inference", e)
		failures++
	}
	for i, te := range typed {
		fmt.Printf("module expr %-33d  => %s\n", i, te.T)
	}
	if len(typed) == 2 && !types.Equal(typed[1].T, types.Str()) {
		fmt.Printf("%-45s  => %s, want Str\n", "id(\"hello\")", typed[1].T)
		failures++
	}
	return failures
}

func main() {
	flag.BoolVar(&traceMode, "trace", false, "emit one corelog line per inference step")
	flag.Parse()

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if failures := run(); failures > 0 {
		fmt.Fprintf(os.Stderr, "%d scenario(s) did not type as expected\n", failures)
		os.Exit(1)
	}
}
