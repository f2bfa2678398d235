package resolve

import (
	"strings"

	"github.com/plcforge/stc/internal/index"
	"github.com/plcforge/stc/internal/lowering"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
)

// inferGenerics infers a concrete type for each of p's nature-constrained
// type parameters from the argument types bound to it (spec §4.5: "infers
// the concrete parameter type from the argument types using common_type
// across all argument slots that share the parameter"). Named arguments
// (`x := 1`) match by parameter name; positional arguments match by
// declaration order. Returns nil if p isn't generic.
func inferGenerics(ctx *lowering.Context, p *index.POU, call *ast.CallExpression, argTypes []types.Type) map[string]types.Type {
	if len(p.Generics) == 0 || p.Decl == nil {
		return nil
	}

	type param struct {
		name     string
		typeName string
	}
	var params []param
	for _, blk := range p.Decl.VarBlocks {
		if blk.Kind != ast.VarInput && blk.Kind != ast.VarInOut {
			continue
		}
		for _, d := range blk.Decls {
			params = append(params, param{name: d.Name, typeName: d.Type.String()})
		}
	}

	buckets := make(map[string][]types.Type)
	for i := range call.Args {
		if argTypes[i] == nil {
			continue
		}
		var paramName string
		if call.ArgNames != nil && i < len(call.ArgNames) && call.ArgNames[i] != "" {
			paramName = call.ArgNames[i]
		} else if i < len(params) {
			paramName = params[i].name
		}
		for _, prm := range params {
			if !strings.EqualFold(prm.name, paramName) {
				continue
			}
			for _, g := range p.Generics {
				if strings.EqualFold(prm.typeName, g.Name) {
					buckets[g.Name] = append(buckets[g.Name], argTypes[i])
				}
			}
		}
	}

	if len(buckets) == 0 {
		return nil
	}
	bindings := make(map[string]types.Type)
	for name, ts := range buckets {
		result := ts[0]
		for _, t := range ts[1:] {
			if ct, ok := ctx.Types.CommonType(result, t); ok {
				result = ct
			}
		}
		bindings[name] = result
	}
	return bindings
}
