package lowering

import (
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
)

// InlineTypePromoter is LoweringPipeline participant 3 (spec §4.4): it takes
// an anonymous `VAR x : STRUCT ... END_STRUCT` declaration and promotes it
// to a named top-level type `__<owner>_<field>`, replacing the original
// inline declaration with a reference to that name.
type InlineTypePromoter struct{}

func (InlineTypePromoter) Name() string { return "InlineTypePromoter" }

func (p InlineTypePromoter) PreIndex(program *ast.Program, ctx *Context) {
	for _, unit := range program.Units {
		for _, blk := range unit.GlobalVarBlocks {
			promoteBlock(ctx, "global", blk)
		}
		for _, pou := range unit.POUs {
			for _, blk := range pou.VarBlocks {
				promoteBlock(ctx, pou.Name, blk)
			}
		}
	}
}

func promoteBlock(ctx *Context, owner string, blk *ast.VarBlock) {
	for _, decl := range blk.Decls {
		inline, ok := decl.Type.(*ast.StructTypeNode)
		if !ok {
			continue
		}
		name := "__" + owner + "_" + decl.Name
		st := &types.StructType{TypeBase: types.TypeBase{Name: name}}
		for _, f := range inline.Fields {
			fieldType, ok := ctx.Types.Find(f.Type.String())
			if !ok {
				ctx.Diags.Add(diagUnknownType(f.Type, f.Type.String()))
				continue
			}
			st.Members = append(st.Members, types.Member{Name: f.Name, Type: fieldType, Offset: len(st.Members)})
		}
		if _, err := ctx.Types.Register(st); err != nil {
			ctx.Diags.Add(diagRegisterError(decl, err))
			continue
		}
		decl.Type = &ast.NamedTypeRef{BaseNode: ast.BaseNode{NodeIDValue: inline.ID()}, Name: name}
	}
}
