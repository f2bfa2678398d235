package lowering

import "github.com/plcforge/stc/pkg/ast"

// exprRewriter rewrites an Identifier read, returning (replacement, true) to
// substitute it.
type exprRewriter func(id *ast.Identifier) (ast.Expression, bool)

// assignRewriter rewrites a `target := value;` assignment whose target is a
// bare identifier, returning (replacement, true) to substitute the whole
// statement (used by PropertyLowerer to turn `x := v` into `SetX(v)`).
type assignRewriter func(target *ast.Identifier, value ast.Expression) (ast.Statement, bool)

// rewriteBlock rewrites every statement of a block in place. Grounded on the
// teacher's fold-over-the-AST pass style (internal/semantic/pass.go):
// mutation happens by walking and replacing slot values, not by building a
// parallel tree.
func rewriteBlock(b *ast.Block, er exprRewriter, ar assignRewriter) {
	if b == nil {
		return
	}
	for i, s := range b.Statements {
		b.Statements[i] = rewriteStmt(s, er, ar)
	}
}

func rewriteStmt(s ast.Statement, er exprRewriter, ar assignRewriter) ast.Statement {
	switch v := s.(type) {
	case *ast.AssignmentStatement:
		v.Value = rewriteExpr(v.Value, er, ar)
		if id, ok := v.Target.(*ast.Identifier); ok && ar != nil {
			if repl, ok := ar(id, v.Value); ok {
				return repl
			}
		}
		v.Target = rewriteExpr(v.Target, er, ar)
		return v
	case *ast.ExpressionStatement:
		v.Expr = rewriteExpr(v.Expr, er, ar)
		return v
	case *ast.IfStatement:
		v.Condition = rewriteExpr(v.Condition, er, ar)
		rewriteBlock(v.Then, er, ar)
		for _, ei := range v.ElseIfs {
			ei.Condition = rewriteExpr(ei.Condition, er, ar)
			rewriteBlock(ei.Body, er, ar)
		}
		rewriteBlock(v.Else, er, ar)
		return v
	case *ast.CaseStatement:
		v.Selector = rewriteExpr(v.Selector, er, ar)
		for _, br := range v.Branches {
			rewriteBlock(br.Body, er, ar)
		}
		rewriteBlock(v.Else, er, ar)
		return v
	case *ast.ForStatement:
		v.Start = rewriteExpr(v.Start, er, ar)
		v.Stop = rewriteExpr(v.Stop, er, ar)
		if v.Step != nil {
			v.Step = rewriteExpr(v.Step, er, ar)
		}
		rewriteBlock(v.Body, er, ar)
		return v
	case *ast.WhileStatement:
		v.Condition = rewriteExpr(v.Condition, er, ar)
		rewriteBlock(v.Body, er, ar)
		return v
	case *ast.RepeatStatement:
		rewriteBlock(v.Body, er, ar)
		v.Condition = rewriteExpr(v.Condition, er, ar)
		return v
	case *ast.ReturnStatement:
		if v.Value != nil {
			v.Value = rewriteExpr(v.Value, er, ar)
		}
		return v
	default:
		return s
	}
}

func rewriteExpr(e ast.Expression, er exprRewriter, ar assignRewriter) ast.Expression {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Identifier:
		if er != nil {
			if repl, ok := er(v); ok {
				return repl
			}
		}
		return v
	case *ast.BinaryExpression:
		v.Left = rewriteExpr(v.Left, er, ar)
		v.Right = rewriteExpr(v.Right, er, ar)
		return v
	case *ast.UnaryExpression:
		v.Operand = rewriteExpr(v.Operand, er, ar)
		return v
	case *ast.RefExpression:
		v.Operand = rewriteExpr(v.Operand, er, ar)
		return v
	case *ast.MemberAccessExpression:
		v.Target = rewriteExpr(v.Target, er, ar)
		return v
	case *ast.IndexExpression:
		v.Target = rewriteExpr(v.Target, er, ar)
		for i := range v.Indices {
			v.Indices[i] = rewriteExpr(v.Indices[i], er, ar)
		}
		return v
	case *ast.CallExpression:
		v.Callee = rewriteExpr(v.Callee, er, ar)
		for i := range v.Args {
			v.Args[i] = rewriteExpr(v.Args[i], er, ar)
		}
		return v
	case *ast.ArrayLiteral:
		for i := range v.Elements {
			v.Elements[i] = rewriteExpr(v.Elements[i], er, ar)
		}
		return v
	case *ast.StructLiteral:
		for i := range v.Fields {
			v.Fields[i].Value = rewriteExpr(v.Fields[i].Value, er, ar)
		}
		return v
	default:
		return e
	}
}

// everyImplementation runs fn over a POU's own implementation and every
// method/action implementation it declares.
func everyImplementation(pou *ast.POUDecl, fn func(*ast.Block)) {
	if pou.Implementation != nil {
		fn(pou.Implementation.Body)
	}
	for _, m := range pou.Methods {
		if m.Implementation != nil {
			fn(m.Implementation.Body)
		}
	}
	for _, a := range pou.Actions {
		if a.Implementation != nil {
			fn(a.Implementation.Body)
		}
	}
}
