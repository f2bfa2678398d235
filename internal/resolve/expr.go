package resolve

import (
	"github.com/plcforge/stc/internal/index"
	"github.com/plcforge/stc/internal/lowering"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
)

// assignBlock walks a block post-order, assigning a resulting type and
// annotation to every expression it contains (spec §4.5 phase 1).
func assignBlock(ctx *lowering.Context, sc scope, b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		assignStmt(ctx, sc, s)
	}
}

func assignStmt(ctx *lowering.Context, sc scope, s ast.Statement) {
	switch v := s.(type) {
	case *ast.VarDecl:
		if v.Initializer != nil {
			assignExpr(ctx, sc, v.Initializer)
		}
	case *ast.AssignmentStatement:
		targetType := assignExpr(ctx, sc, v.Target)
		if targetType != nil {
			ctx.Info.SetHint(v.Value.ID(), ast.TypeHint{Expected: targetType})
		}
		assignExpr(ctx, sc, v.Value)
	case *ast.ExpressionStatement:
		assignExpr(ctx, sc, v.Expr)
	case *ast.IfStatement:
		assignExpr(ctx, sc, v.Condition)
		assignBlock(ctx, sc, v.Then)
		for _, ei := range v.ElseIfs {
			assignExpr(ctx, sc, ei.Condition)
			assignBlock(ctx, sc, ei.Body)
		}
		assignBlock(ctx, sc, v.Else)
	case *ast.CaseStatement:
		assignExpr(ctx, sc, v.Selector)
		for _, br := range v.Branches {
			for _, lbl := range br.Labels {
				assignExpr(ctx, sc, lbl)
			}
			assignBlock(ctx, sc, br.Body)
		}
		assignBlock(ctx, sc, v.Else)
	case *ast.ForStatement:
		assignExpr(ctx, sc, v.Start)
		assignExpr(ctx, sc, v.Stop)
		if v.Step != nil {
			assignExpr(ctx, sc, v.Step)
		}
		assignBlock(ctx, sc, v.Body)
	case *ast.WhileStatement:
		assignExpr(ctx, sc, v.Condition)
		assignBlock(ctx, sc, v.Body)
	case *ast.RepeatStatement:
		assignBlock(ctx, sc, v.Body)
		assignExpr(ctx, sc, v.Condition)
	case *ast.ReturnStatement:
		if v.Value != nil {
			assignExpr(ctx, sc, v.Value)
		}
	}
}

// comparisonOps and logicalOps always resolve to BOOL regardless of operand
// type; every other binary operator resolves via CommonType arithmetic
// promotion (spec §4.1 numeric promotion).
var comparisonOps = map[string]bool{"=": true, "<>": true, "<": true, ">": true, "<=": true, ">=": true}
var logicalOps = map[string]bool{"AND": true, "OR": true, "XOR": true, "&": true}

// assignExpr computes and annotates e's resulting type, recursing into
// children first (post-order).
func assignExpr(ctx *lowering.Context, sc scope, e ast.Expression) types.Type {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.IntegerLiteral:
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: types.DInt})
		return types.DInt
	case *ast.RealLiteral:
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: types.Real})
		return types.Real
	case *ast.BoolLiteral:
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: types.Bool})
		return types.Bool
	case *ast.StringLiteral:
		result := annotateStringLiteral(ctx, v)
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: result})
		return result
	case *ast.EnumLiteral:
		t := resolveEnumVariant(ctx, v.Name)
		if t == nil {
			unresolvedRef(ctx, v, v.Name)
			return nil
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: t})
		return t
	case *ast.Identifier:
		return assignIdentifier(ctx, sc, v)
	case *ast.QualifiedIdentifier:
		return assignQualifiedIdentifier(ctx, sc, v)
	case *ast.BinaryExpression:
		lt := assignExpr(ctx, sc, v.Left)
		rt := assignExpr(ctx, sc, v.Right)
		var result types.Type
		switch {
		case comparisonOps[v.Operator] || logicalOps[v.Operator]:
			result = types.Bool
		default:
			if ct, ok := ctx.Types.CommonType(lt, rt); ok {
				result = ct
			}
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: result})
		return result
	case *ast.UnaryExpression:
		ot := assignExpr(ctx, sc, v.Operand)
		result := ot
		if v.Operator == "NOT" {
			result = types.Bool
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: result})
		return result
	case *ast.RefExpression:
		ot := assignExpr(ctx, sc, v.Operand)
		var result types.Type
		if ot != nil {
			result = &types.PointerType{TypeBase: types.TypeBase{Name: "POINTER TO " + ot.CanonicalName()}, Inner: ot}
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: result})
		return result
	case *ast.MemberAccessExpression:
		return assignMemberAccess(ctx, sc, v)
	case *ast.IndexExpression:
		tt := assignExpr(ctx, sc, v.Target)
		for _, idx := range v.Indices {
			assignExpr(ctx, sc, idx)
		}
		var result types.Type
		if arr, ok := tt.(*types.ArrayType); ok {
			result = arr.Inner
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{ResultingType: result})
		return result
	case *ast.CallExpression:
		return assignCall(ctx, sc, v)
	case *ast.ArrayLiteral:
		for _, el := range v.Elements {
			assignExpr(ctx, sc, el)
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{})
		return nil
	case *ast.StructLiteral:
		for _, f := range v.Fields {
			assignExpr(ctx, sc, f.Value)
		}
		ctx.Info.SetAnnotation(v.ID(), ast.ValueAnnotation{})
		return nil
	case *ast.ThisExpression:
		ctx.Info.SetAnnotation(v.ID(), ast.ThisAnnotation{OwnerType: sc.ownerScope})
		return nil
	case *ast.SuperExpression:
		super := ""
		if p, ok := ctx.Index.POU(sc.ownerScope); ok {
			super = p.SuperClass
		}
		ctx.Info.SetAnnotation(v.ID(), ast.SuperAnnotation{OwnerType: super})
		return nil
	default:
		return nil
	}
}

func resolveEnumVariant(ctx *lowering.Context, name string) types.Type {
	for _, tn := range ctx.Types.AllNames() {
		t, ok := ctx.Types.Find(tn)
		if !ok {
			continue
		}
		if et, ok := t.(*types.EnumType); ok {
			if _, ok := et.VariantValue(name); ok {
				return et
			}
		}
	}
	return nil
}

func assignIdentifier(ctx *lowering.Context, sc scope, id *ast.Identifier) types.Type {
	if v, ok := lookupVariable(ctx.Index, sc, id.Value); ok {
		t, _ := ctx.Types.Find(v.TypeName)
		ctx.Info.SetAnnotation(id.ID(), ast.VariableAnnotation{
			QualifiedName: qualifiedVarName(v),
			ResultingType: t,
			Constant:      v.Kind == ast.VarConstant,
		})
		return t
	}
	if _, ok := ctx.Types.Find(id.Value); ok {
		ctx.Info.SetAnnotation(id.ID(), ast.TypeAnnotation{Name: id.Value})
		return nil
	}
	if t := resolveEnumVariant(ctx, id.Value); t != nil {
		ctx.Info.SetAnnotation(id.ID(), ast.ValueAnnotation{ResultingType: t})
		return t
	}
	unresolvedRef(ctx, id, id.Value)
	return nil
}

func qualifiedVarName(v *index.Variable) string {
	if v.Owner == "" {
		return v.Name
	}
	return v.Owner + "." + v.Name
}
