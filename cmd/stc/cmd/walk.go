package cmd

import "github.com/plcforge/stc/pkg/ast"

// walkExpressions visits every expression reachable from stmt, depth-first,
// the minimal recursive descent inspect needs to enumerate reference nodes
// for its "resolved symbols" section — there is no general-purpose AST
// visitor in pkg/ast (every node already renders itself via String(), but
// nothing walks the tree), so this stays local to the CLI rather than
// growing into a reusable package.
func walkExpressions(stmt ast.Statement, visit func(ast.Expression)) {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, inner := range s.Statements {
			walkExpressions(inner, visit)
		}
	case *ast.ExpressionStatement:
		walkExpr(s.Expr, visit)
	case *ast.AssignmentStatement:
		walkExpr(s.Target, visit)
		walkExpr(s.Value, visit)
	case *ast.IfStatement:
		walkExpr(s.Condition, visit)
		walkExpressions(s.Then, visit)
		for _, ei := range s.ElseIfs {
			walkExpr(ei.Condition, visit)
			walkExpressions(ei.Body, visit)
		}
		if s.Else != nil {
			walkExpressions(s.Else, visit)
		}
	case *ast.CaseStatement:
		walkExpr(s.Selector, visit)
		for _, br := range s.Branches {
			for _, lbl := range br.Labels {
				walkExpr(lbl, visit)
			}
			walkExpressions(br.Body, visit)
		}
		if s.Else != nil {
			walkExpressions(s.Else, visit)
		}
	case *ast.ForStatement:
		walkExpr(s.Start, visit)
		walkExpr(s.Stop, visit)
		if s.Step != nil {
			walkExpr(s.Step, visit)
		}
		walkExpressions(s.Body, visit)
	case *ast.WhileStatement:
		walkExpr(s.Condition, visit)
		walkExpressions(s.Body, visit)
	case *ast.RepeatStatement:
		walkExpressions(s.Body, visit)
		walkExpr(s.Condition, visit)
	case *ast.ReturnStatement:
		if s.Value != nil {
			walkExpr(s.Value, visit)
		}
	}
}

func walkExpr(expr ast.Expression, visit func(ast.Expression)) {
	if expr == nil {
		return
	}
	visit(expr)
	switch e := expr.(type) {
	case *ast.BinaryExpression:
		walkExpr(e.Left, visit)
		walkExpr(e.Right, visit)
	case *ast.UnaryExpression:
		walkExpr(e.Operand, visit)
	case *ast.RefExpression:
		walkExpr(e.Operand, visit)
	case *ast.MemberAccessExpression:
		walkExpr(e.Target, visit)
	case *ast.IndexExpression:
		walkExpr(e.Target, visit)
		for _, idx := range e.Indices {
			walkExpr(idx, visit)
		}
	case *ast.CallExpression:
		walkExpr(e.Callee, visit)
		for _, a := range e.Args {
			walkExpr(a, visit)
		}
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			walkExpr(el, visit)
		}
	case *ast.StructLiteral:
		for _, f := range e.Fields {
			walkExpr(f.Value, visit)
		}
	}
}
