package lowering

import "github.com/plcforge/stc/pkg/ast"

// InheritanceFlattener is LoweringPipeline participant 2 (spec §4.4): it
// gives every child POU a hidden __parent member of the parent's type as
// field 0, so a member inherited from an ancestor is reached by a chain of
// ordinary struct field accesses rather than a special inheritance-aware
// lookup at codegen time.
type InheritanceFlattener struct{}

func (InheritanceFlattener) Name() string { return "InheritanceFlattener" }

func (InheritanceFlattener) PreIndex(program *ast.Program, ctx *Context) {
	for _, unit := range program.Units {
		for _, pou := range unit.POUs {
			if pou.SuperClass == "" {
				continue
			}
			parentField := &ast.VarDecl{
				BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Name:     "__parent",
				Type: &ast.NamedTypeRef{
					BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
					Name:     pou.SuperClass,
				},
			}
			block := &ast.VarBlock{
				BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Kind:     ast.VarLocal,
				Decls:    []*ast.VarDecl{parentField},
			}
			pou.VarBlocks = append([]*ast.VarBlock{block}, pou.VarBlocks...)
		}
	}
}
