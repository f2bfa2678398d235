package lowering

import (
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
)

// VTableSynthesizer is LoweringPipeline participant 4 (spec §4.4): for every
// FunctionBlock/Class with at least one virtual method (own or inherited) it
// registers a __vtable_<Name> struct type holding one pointer-sized slot per
// method, ordered inherited-first with an override replacing its parent's
// slot in place — the same rule internal/index.Index recomputes once the
// SymbolIndex exists; here it runs from a local POU map since the index
// isn't built yet at pre_index time.
type VTableSynthesizer struct{}

func (VTableSynthesizer) Name() string { return "VTableSynthesizer" }

func (VTableSynthesizer) PreIndex(program *ast.Program, ctx *Context) {
	byName := pousByName(program)
	for _, pou := range program.AllPOUs() {
		if pou.Kind != ast.POUFunctionBlock && pou.Kind != ast.POUClass {
			continue
		}
		slots := vtableSlots(pou, byName)
		if len(slots) == 0 {
			continue
		}
		name := "__vtable_" + pou.Name
		st := &types.StructType{TypeBase: types.TypeBase{Name: name}, IsVTable: true}
		for i, slot := range slots {
			st.Members = append(st.Members, types.Member{
				Name:   slot,
				Type:   &types.PointerType{TypeBase: types.TypeBase{Name: name + "." + slot}},
				Offset: i,
			})
		}
		if _, err := ctx.Types.Register(st); err != nil {
			ctx.Diags.Add(diagRegisterError(pou, err))
		}
	}
}

// vtableSlots returns the method names a POU's vtable carries, in slot
// order: the parent's slots first (recursively), then own methods — an
// override of an inherited name replaces that slot, a new method appends.
func vtableSlots(pou *ast.POUDecl, byName map[string]*ast.POUDecl) []string {
	var slots []string
	if pou.SuperClass != "" {
		if parent, ok := byName[normalize(pou.SuperClass)]; ok {
			slots = append(slots, vtableSlots(parent, byName)...)
		}
	}
	for _, m := range pou.Methods {
		replaced := false
		for i, s := range slots {
			if normalize(s) == normalize(m.Name) {
				slots[i] = m.Name
				replaced = true
				break
			}
		}
		if !replaced {
			slots = append(slots, m.Name)
		}
	}
	return slots
}
