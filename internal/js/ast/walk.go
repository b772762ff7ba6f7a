package ast

// Inspect traverses the tree rooted at n in depth-first order. It calls f for
// each node; when f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Program:
		inspectStmts(n.Body, f)
	case *Block:
		inspectStmts(n.Body, f)
	case *VarDecl:
		for _, d := range n.Decls {
			Inspect(d, f)
		}
	case *Declarator:
		inspectExpr(n.Init, f)
	case *ExprStmt:
		inspectExpr(n.X, f)
	case *If:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Then, f)
		inspectStmt(n.Else, f)
	case *For:
		inspectStmt(n.Init, f)
		inspectExpr(n.Cond, f)
		inspectExpr(n.Update, f)
		inspectStmt(n.Body, f)
	case *ForIn:
		inspectExpr(n.Target, f)
		inspectExpr(n.Object, f)
		inspectStmt(n.Body, f)
	case *While:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Body, f)
	case *DoWhile:
		inspectStmt(n.Body, f)
		inspectExpr(n.Cond, f)
	case *Switch:
		inspectExpr(n.Disc, f)
		for _, c := range n.Cases {
			Inspect(c, f)
		}
	case *Case:
		inspectExpr(n.Test, f)
		inspectStmts(n.Body, f)
	case *Try:
		Inspect(n.Block, f)
		if n.Catch != nil {
			Inspect(n.Catch, f)
		}
		if n.Finally != nil {
			Inspect(n.Finally, f)
		}
	case *Return:
		inspectExpr(n.Value, f)
	case *Throw:
		inspectExpr(n.Value, f)
	case *Labeled:
		inspectStmt(n.Body, f)
	case *FunctionDecl:
		Inspect(n.Func, f)
	case *ArrayLit:
		for _, e := range n.Elems {
			inspectExpr(e, f)
		}
	case *ObjectLit:
		for _, p := range n.Props {
			Inspect(p, f)
		}
	case *Property:
		inspectExpr(n.Computed, f)
		inspectExpr(n.Value, f)
	case *FunctionLit:
		inspectStmts(n.Body, f)
		inspectExpr(n.Expr, f)
	case *Unary:
		inspectExpr(n.X, f)
	case *Update:
		inspectExpr(n.X, f)
	case *Binary:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Logical:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Ternary:
		inspectExpr(n.Cond, f)
		inspectExpr(n.Then, f)
		inspectExpr(n.Else, f)
	case *Assign:
		inspectExpr(n.Target, f)
		inspectExpr(n.Value, f)
	case *Sequence:
		for _, e := range n.List {
			inspectExpr(e, f)
		}
	case *Call:
		inspectExpr(n.Callee, f)
		for _, e := range n.Args {
			inspectExpr(e, f)
		}
	case *Member:
		inspectExpr(n.Object, f)
		inspectExpr(n.Property, f)
	}
}

// typed nil interfaces must not reach Inspect
func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectStmt(s Stmt, f func(Node) bool) {
	if s != nil {
		Inspect(s, f)
	}
}

func inspectStmts(list []Stmt, f func(Node) bool) {
	for _, s := range list {
		inspectStmt(s, f)
	}
}
