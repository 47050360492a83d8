package symbols

import (
	"github.com/glyphlang/typecore/internal/ast"
	"github.com/glyphlang/typecore/internal/types"
	"github.com/m-mizutani/goerr"
)

// DeclareVar introduces a new name in the current scope. Redeclaring an
// already-local name is a collected error, not a panic: the caller (the
// Call Typer or a future statement analyzer) decides whether to keep
// checking after reporting it.
func (c *Context) DeclareVar(name string, t types.Type, vis ast.Visibility, isConst bool, pos ast.Pos) error {
	if _, exists := c.locals[name]; exists {
		return goerr.New("variable already declared in this scope").With("name", name)
	}
	c.phase = Growing
	c.locals[name] = &Symbol{Name: name, T: t, Kind: VarSymbol, Visibility: vis, IsConstant: isConst, DefPos: pos}
	return nil
}

// DeclareVarPending records a forward declaration: a name with a declared
// type but no assigned body yet (declare_var). The entry stays in the
// pending table until AssignVar (or TakeDecl) matches it; anything still
// pending when the scope closes is an Uninitialized error at the caller.
func (c *Context) DeclareVarPending(name string, t types.Type, vis ast.Visibility, pos ast.Pos) error {
	if _, exists := c.locals[name]; exists {
		return goerr.New("variable already declared in this scope").With("name", name)
	}
	if _, exists := c.varDecls[name]; exists {
		return goerr.New("variable already declared in this scope").With("name", name)
	}
	c.phase = Growing
	c.varDecls[name] = &Symbol{Name: name, T: t, Kind: VarSymbol, Visibility: vis, IsPending: true, DefPos: pos}
	return nil
}

// TakeDecl claims the pending forward declaration for name, marking it
// assigned. The caller validates the inferred body type against the
// returned declared type before moving the symbol into locals.
func (c *Context) TakeDecl(name string) (*Symbol, bool) {
	sym, ok := c.varDecls[name]
	if !ok {
		return nil, false
	}
	sym.IsPending = false
	return sym, true
}

// AssignVar rebinds an existing variable's type, used when inference
// refines a previously-pending declaration, or when a mutable binding is
// reassigned. It walks outward so an inner scope can update an outer
// mutable binding.
func (c *Context) AssignVar(name string, t types.Type) error {
	c.phase = Growing
	if sym, ok := c.varDecls[name]; ok {
		sym.T = t
		sym.IsPending = false
		c.locals[name] = sym
		delete(c.varDecls, name)
		return nil
	}
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if sym, ok := ctx.locals[name]; ok {
			if sym.IsConstant {
				return goerr.New("cannot assign to a constant binding").With("name", name)
			}
			sym.T = t
			sym.IsPending = false
			return nil
		}
	}
	return goerr.New("assignment to undeclared variable").With("name", name)
}

// AssignParams binds a subroutine's parameter list into the current scope
// in one pass, used when entering a ScopeSubr Context (assign_params).
func (c *Context) AssignParams(params []Symbol) error {
	c.phase = Growing
	for _, p := range params {
		if _, exists := c.locals[p.Name]; exists {
			return goerr.New("duplicate parameter name").With("name", p.Name)
		}
		sym := p
		c.locals[p.Name] = &sym
	}
	return nil
}

// AssignSubr declares a subroutine name in the current scope — like
// DeclareVar without the constness flag; the symbol is recorded with Kind
// VarSymbol (assign_subr).
func (c *Context) AssignSubr(name string, t types.Type, vis ast.Visibility, pos ast.Pos) error {
	c.phase = Growing
	if _, exists := c.locals[name]; exists {
		return goerr.New("subroutine already declared in this scope").With("name", name)
	}
	c.locals[name] = &Symbol{Name: name, T: t, Kind: VarSymbol, Visibility: vis, DefPos: pos}
	return nil
}

// GetVar performs lexical lookup, walking outward through enclosing scopes.
// Forward declarations still awaiting assignment resolve too, so a
// recursive body can reference its own name before the definition
// completes.
func (c *Context) GetVar(name string) (*Symbol, *Context, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if sym, ok := ctx.locals[name]; ok {
			return sym, ctx, true
		}
		if sym, ok := ctx.varDecls[name]; ok {
			return sym, ctx, true
		}
	}
	return nil, nil, false
}

// DeclareType registers a type or trait name in the current scope's
// declaration table (as opposed to its value-binding table).
func (c *Context) DeclareType(name string, t types.Type, kind SymbolKind, vis ast.Visibility, pos ast.Pos) error {
	c.phase = Growing
	if _, exists := c.decls[name]; exists {
		return goerr.New("type already declared in this scope").With("name", name)
	}
	c.decls[name] = &Symbol{Name: name, T: t, Kind: kind, Visibility: vis, DefPos: pos}
	return nil
}

// GetType performs lexical lookup over the declaration table.
func (c *Context) GetType(name string) (*Symbol, *Context, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if sym, ok := ctx.decls[name]; ok {
			return sym, ctx, true
		}
	}
	return nil, nil, false
}

// DeclareParam binds a single type or dependent parameter in the current
// scope (used when entering a Quantified body or a generic class scope).
func (c *Context) DeclareParam(name string, t types.Type) {
	c.params[name] = &Symbol{Name: name, T: t, Kind: TypeSymbol}
}

func (c *Context) GetParam(name string) (*Symbol, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Outer {
		if sym, ok := ctx.params[name]; ok {
			return sym, true
		}
	}
	return nil, false
}
