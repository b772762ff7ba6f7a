package parser

import (
	"fmt"

	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
)

// Definition is a place in the program where a name receives a value:
// a function declaration, a var/let/const initializer or a plain assignment.
type Definition struct {
	Name  string
	Value ast.Expr
	Node  ast.Node
}

// TopLevel returns the definitions of name made directly in the program
// body, in source order.
func TopLevel(prog *ast.Program, name string) []Definition {
	var defs []Definition
	for _, stmt := range prog.Body {
		defs = append(defs, stmtDefinitions(stmt, name)...)
	}
	return defs
}

// Nested returns the definitions of name found anywhere in the program,
// including inside function bodies, in depth-first order.
func Nested(prog *ast.Program, name string) []Definition {
	var defs []Definition
	ast.Inspect(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FunctionDecl:
			if n.Func.Name == name {
				defs = append(defs, Definition{Name: name, Value: n.Func, Node: n})
			}
		case *ast.Declarator:
			if n.Name == name && n.Init != nil {
				defs = append(defs, Definition{Name: name, Value: n.Init, Node: n})
			}
		case *ast.Assign:
			if def, ok := assignDefinition(n, name); ok {
				defs = append(defs, def)
			}
		}
		return true
	})
	return defs
}

// ExtractFunction finds the function bound to name by a declaration
// function name(){}, a declarator var name = function(){} or an assignment
// name = function(){}. Top-level definitions win over nested ones.
func ExtractFunction(prog *ast.Program, name string) (*ast.FunctionLit, error) {
	for _, search := range []func(*ast.Program, string) []Definition{TopLevel, Nested} {
		for _, def := range search(prog, name) {
			if fn, ok := def.Value.(*ast.FunctionLit); ok {
				return fn, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
}

// ExtractObject finds the object literal bound to name, searching the same
// way as ExtractFunction.
func ExtractObject(prog *ast.Program, name string) (*ast.ObjectLit, error) {
	for _, search := range []func(*ast.Program, string) []Definition{TopLevel, Nested} {
		for _, def := range search(prog, name) {
			if obj, ok := def.Value.(*ast.ObjectLit); ok {
				return obj, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
}

func stmtDefinitions(stmt ast.Stmt, name string) []Definition {
	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		if s.Func.Name == name {
			return []Definition{{Name: name, Value: s.Func, Node: s}}
		}
	case *ast.VarDecl:
		var defs []Definition
		for _, d := range s.Decls {
			if d.Name == name && d.Init != nil {
				defs = append(defs, Definition{Name: name, Value: d.Init, Node: d})
			}
		}
		return defs
	case *ast.ExprStmt:
		return exprDefinitions(s.X, name)
	}
	return nil
}

// exprDefinitions handles a=function(){}, and chains a=b=... or
// a=...,b=... as produced by minifiers.
func exprDefinitions(x ast.Expr, name string) []Definition {
	switch x := x.(type) {
	case *ast.Assign:
		if def, ok := assignDefinition(x, name); ok {
			return []Definition{def}
		}
		return exprDefinitions(x.Value, name)
	case *ast.Sequence:
		var defs []Definition
		for _, e := range x.List {
			defs = append(defs, exprDefinitions(e, name)...)
		}
		return defs
	}
	return nil
}

func assignDefinition(x *ast.Assign, name string) (Definition, bool) {
	if x.Op != "=" {
		return Definition{}, false
	}
	id, ok := x.Target.(*ast.Identifier)
	if !ok || id.Name != name {
		return Definition{}, false
	}
	value := x.Value
	// a=b=function(){} binds both names to the innermost value
	for {
		inner, ok := value.(*ast.Assign)
		if !ok || inner.Op != "=" {
			break
		}
		value = inner.Value
	}
	return Definition{Name: name, Value: value, Node: x}, true
}
