package resolve

import (
	"github.com/plcforge/stc/internal/lowering"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
)

// typePreservingOps are binary operators whose result type hint applies
// unchanged to both operands (spec §4.5 phase 2: "a hint on a parent
// expression propagates to children where the operator is type-preserving
// (addition, bitwise ops)"); comparison operators are NOT type-preserving
// here since their own hint (BOOL) says nothing about their operands' type.
// AND/OR/XOR/& count as bitwise operators and do pass the hint on.
var typePreservingOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "MOD": true,
	"AND": true, "OR": true, "XOR": true, "&": true,
}

// propagateBlock walks a block pre-order, writing a TypeHint for every
// expression position the language fixes a type for (spec §4.5 phase 2).
func propagateBlock(ctx *lowering.Context, sc scope, b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		propagateStmt(ctx, sc, s)
	}
}

func propagateStmt(ctx *lowering.Context, sc scope, s ast.Statement) {
	switch v := s.(type) {
	case *ast.AssignmentStatement:
		if t, ok := ctx.Info.ResultingType(v.Target.ID()); ok {
			propagateExpr(ctx, v.Value, t)
		}
	case *ast.ExpressionStatement:
		if call, ok := v.Expr.(*ast.CallExpression); ok {
			propagateCallArgs(ctx, call)
		}
	case *ast.IfStatement:
		propagateExpr(ctx, v.Condition, types.Bool)
		propagateBlock(ctx, sc, v.Then)
		for _, ei := range v.ElseIfs {
			propagateExpr(ctx, ei.Condition, types.Bool)
			propagateBlock(ctx, sc, ei.Body)
		}
		propagateBlock(ctx, sc, v.Else)
	case *ast.CaseStatement:
		selType, _ := ctx.Info.ResultingType(v.Selector.ID())
		for _, br := range v.Branches {
			for _, lbl := range br.Labels {
				if selType != nil {
					propagateExpr(ctx, lbl, selType)
				}
			}
			propagateBlock(ctx, sc, br.Body)
		}
		propagateBlock(ctx, sc, v.Else)
	case *ast.ForStatement:
		if lv, ok := lookupVariable(ctx.Index, sc, v.Variable); ok {
			if t, ok := ctx.Types.Find(lv.TypeName); ok {
				propagateExpr(ctx, v.Start, t)
				propagateExpr(ctx, v.Stop, t)
				if v.Step != nil {
					propagateExpr(ctx, v.Step, t)
				}
			}
		}
		propagateBlock(ctx, sc, v.Body)
	case *ast.WhileStatement:
		propagateExpr(ctx, v.Condition, types.Bool)
		propagateBlock(ctx, sc, v.Body)
	case *ast.RepeatStatement:
		propagateBlock(ctx, sc, v.Body)
		propagateExpr(ctx, v.Condition, types.Bool)
	case *ast.ReturnStatement:
		if v.Value != nil && sc.returnType != nil {
			propagateExpr(ctx, v.Value, sc.returnType)
		}
	}
}

// propagateExpr records t as e's expected type and, for type-preserving
// operators/composite literals, pushes it further down into children.
func propagateExpr(ctx *lowering.Context, e ast.Expression, t types.Type) {
	if e == nil || t == nil {
		return
	}
	ctx.Info.SetHint(e.ID(), ast.TypeHint{Expected: t})

	switch v := e.(type) {
	case *ast.BinaryExpression:
		if typePreservingOps[v.Operator] {
			propagateExpr(ctx, v.Left, t)
			propagateExpr(ctx, v.Right, t)
		}
	case *ast.UnaryExpression:
		if v.Operator != "NOT" {
			propagateExpr(ctx, v.Operand, t)
		}
	case *ast.ArrayLiteral:
		if arr, ok := t.(*types.ArrayType); ok {
			for _, el := range v.Elements {
				propagateExpr(ctx, el, arr.Inner)
			}
		}
	case *ast.StructLiteral:
		if st, ok := t.(*types.StructType); ok {
			for _, f := range v.Fields {
				if member, ok := st.FindMember(f.Field); ok {
					propagateExpr(ctx, f.Value, member.Type)
				}
			}
		}
	case *ast.RefExpression:
		if pt, ok := t.(*types.PointerType); ok && pt.Inner != nil {
			propagateExpr(ctx, v.Operand, pt.Inner)
		}
	}
}

// propagateCallArgs hints each argument expression with its bound
// parameter's declared type, when the callee's full declaration (Decl) is
// known — true for direct function/program calls, not for method calls
// resolved only through the Index's lightweight method entries (spec §4.5
// scope: this is a best-effort hint, the Resolver's own annotation of the
// argument from phase 1 remains authoritative if no hint is written).
func propagateCallArgs(ctx *lowering.Context, call *ast.CallExpression) {
	id, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return
	}
	anno, ok := ctx.Info.Annotation(id.ID())
	if !ok {
		return
	}
	fn, ok := anno.(ast.FunctionAnnotation)
	if !ok {
		return
	}
	p, ok := ctx.Index.POU(fn.QualifiedName)
	if !ok || p.Decl == nil {
		return
	}

	var paramTypes []types.Type
	for _, blk := range p.Decl.VarBlocks {
		if blk.Kind != ast.VarInput && blk.Kind != ast.VarInOut {
			continue
		}
		for _, d := range blk.Decls {
			t, _ := ctx.Types.Find(d.Type.String())
			paramTypes = append(paramTypes, t)
		}
	}
	for i, arg := range call.Args {
		if i < len(paramTypes) {
			propagateExpr(ctx, arg, paramTypes[i])
		}
	}
}
