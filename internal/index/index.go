// Package index implements the SymbolIndex (spec component C3): the
// authoritative cross-reference of types, POUs, globals, members,
// implementations, constants and vtables built from a lowered program.
package index

import (
	"strings"
	"sync"

	"github.com/plcforge/stc/internal/consteval"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
	"github.com/plcforge/stc/pkg/token"
)

// Variable is a named binding: a local, a parameter, a global, or a struct
// member (spec §3 Data Model, Variable entity). It is a self-contained
// snapshot — not a wrapper around ast.VarDecl — so the index stays decoupled
// from the AST's node-identity and survives lowering passes that rewrite
// declarations in place.
type Variable struct {
	Name            string
	Owner           string // qualified POU/struct name; "" for globals
	TypeName        string
	Kind            ast.VarKind
	DeclOrder       int
	ConstantID      ast.NodeID // 0 if no constant initializer
	HardwareAddress string
	Pos             token.Position
}

// POU is one Program/Function/FunctionBlock/Class/Method/Action entity.
type POU struct {
	QualifiedName  string
	Kind           ast.POUKind
	Parent         string // owning POU for methods/actions; "" otherwise
	SuperClass     string
	Interfaces     []string
	ReturnTypeName string
	Linkage        ast.Linkage
	Generics       []ast.GenericParam
	Decl           *ast.POUDecl
}

// VTableSlot is one virtual-dispatch slot: a method name and the
// most-derived POU that currently fills it.
type VTableSlot struct {
	MethodName  string
	DeclaredBy  string
}

// VTable is the ordered slot table for one Class/FunctionBlock.
type VTable struct {
	Owner string
	Slots []VTableSlot
}

// ConstantExpr pairs a constant-expression AST fragment with its folded
// value, keyed by the fragment's stable node id (spec §3: "the initializer
// on a Variable is a stable id that can be re-queried after folding
// succeeds").
type ConstantExpr struct {
	ID       ast.NodeID
	Expr     ast.Expression
	Value    consteval.Literal
	Resolved bool
}

type memberKey struct{ owner, name string }

// Index is the cross-indexed database described in spec §4.3. It owns no
// ASTs; POU/Variable entries are snapshots plus a back-pointer to the
// originating ast.POUDecl for implementations/body access.
type Index struct {
	mu sync.RWMutex

	types *types.TypeRegistry

	pous            map[string]*POU
	globals         map[string]*Variable
	members         map[memberKey]*Variable
	memberOrder     map[string][]string // owner (normalized) -> own member names, decl order
	implementations map[string]*ast.Implementation
	constants       map[ast.NodeID]*ConstantExpr
	vtables         map[string]*VTable
}

// NewIndex returns an empty index bound to a TypeRegistry (the registry is
// populated/owned independently — C1's lifecycle is a prerequisite to
// C3's, not nested inside it).
func NewIndex(reg *types.TypeRegistry) *Index {
	ix := &Index{types: reg}
	ix.reset()
	return ix
}

func (ix *Index) reset() {
	ix.pous = make(map[string]*POU)
	ix.globals = make(map[string]*Variable)
	ix.members = make(map[memberKey]*Variable)
	ix.memberOrder = make(map[string][]string)
	ix.implementations = make(map[string]*ast.Implementation)
	ix.constants = make(map[ast.NodeID]*ConstantExpr)
	ix.vtables = make(map[string]*VTable)
}

func normalize(s string) string { return strings.ToLower(s) }

// Rebuild clears and re-populates every table from program, satisfying the
// idempotent-indexing invariant (spec §8): building twice from the same AST
// yields structurally identical tables. Returns diagnostics for duplicate
// qualified names encountered along the way (continues past them so a
// single build surfaces every collision).
func (ix *Index) Rebuild(program *ast.Program) []diag.Diagnostic {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.reset()

	var diags []diag.Diagnostic
	for _, unit := range program.Units {
		for _, blk := range unit.GlobalVarBlocks {
			ix.indexGlobalBlock(blk)
		}
		for _, pou := range unit.POUs {
			if d := ix.indexPOU(pou); d != nil {
				diags = append(diags, *d)
			}
		}
	}
	ix.buildVTables()
	return diags
}

func (ix *Index) indexGlobalBlock(blk *ast.VarBlock) {
	for i, decl := range blk.Decls {
		ix.globals[normalize(decl.Name)] = &Variable{
			Name:            decl.Name,
			TypeName:        decl.Type.String(),
			Kind:            ast.VarGlobal,
			DeclOrder:       i,
			HardwareAddress: decl.HardwareAddress,
			Pos:             decl.Pos(),
			ConstantID:      constantIDOf(decl),
		}
	}
}

func constantIDOf(decl *ast.VarDecl) ast.NodeID {
	if decl.Initializer == nil {
		return 0
	}
	return decl.Initializer.ID()
}

// isMemberKind reports the VarKinds that occupy struct storage and therefore
// participate in pou_members/inheritance layout; Temp is stack-only, Return
// is a dedicated slot, Constant/External carry no instance storage.
func isMemberKind(k ast.VarKind) bool {
	switch k {
	case ast.VarLocal, ast.VarInput, ast.VarOutput, ast.VarInOut:
		return true
	default:
		return false
	}
}

func (ix *Index) indexPOU(pou *ast.POUDecl) *diag.Diagnostic {
	qn := qualifiedName(pou)
	key := normalize(qn)
	if _, exists := ix.pous[key]; exists {
		return &diag.Diagnostic{
			Severity: diag.Error,
			Kind:     diag.DuplicateDeclaration,
			Message:  "duplicate POU declaration: " + qn,
			Primary:  pou.Pos(),
		}
	}

	returnTypeName := ""
	if pou.ReturnType != nil {
		returnTypeName = pou.ReturnType.String()
	}

	ix.pous[key] = &POU{
		QualifiedName:  qn,
		Kind:           pou.Kind,
		Parent:         pou.Parent,
		SuperClass:     pou.SuperClass,
		Interfaces:     pou.Interfaces,
		ReturnTypeName: returnTypeName,
		Linkage:        pou.Linkage,
		Generics:       pou.Generics,
		Decl:           pou,
	}

	if pou.Implementation != nil {
		ix.implementations[key] = pou.Implementation
	}

	order := 0
	for _, blk := range pou.VarBlocks {
		for _, decl := range blk.Decls {
			if !isMemberKind(blk.Kind) {
				continue
			}
			mk := memberKey{owner: key, name: normalize(decl.Name)}
			ix.members[mk] = &Variable{
				Name:            decl.Name,
				Owner:           qn,
				TypeName:        decl.Type.String(),
				Kind:            blk.Kind,
				DeclOrder:       order,
				HardwareAddress: decl.HardwareAddress,
				Pos:             decl.Pos(),
				ConstantID:      constantIDOf(decl),
			}
			ix.memberOrder[key] = append(ix.memberOrder[key], normalize(decl.Name))
			order++
		}
	}

	for _, m := range pou.Methods {
		mqn := qn + "." + m.Name
		mkey := normalize(mqn)
		mret := ""
		if m.ReturnType != nil {
			mret = m.ReturnType.String()
		}
		ix.pous[mkey] = &POU{
			QualifiedName:  mqn,
			Kind:           ast.POUMethod,
			Parent:         qn,
			ReturnTypeName: mret,
		}
		if m.Implementation != nil {
			ix.implementations[mkey] = m.Implementation
		}
		mOrder := 0
		for _, blk := range m.Params {
			for _, decl := range blk.Decls {
				if !isMemberKind(blk.Kind) {
					continue
				}
				mk := memberKey{owner: mkey, name: normalize(decl.Name)}
				ix.members[mk] = &Variable{
					Name:            decl.Name,
					Owner:           mqn,
					TypeName:        decl.Type.String(),
					Kind:            blk.Kind,
					DeclOrder:       mOrder,
					HardwareAddress: decl.HardwareAddress,
					Pos:             decl.Pos(),
					ConstantID:      constantIDOf(decl),
				}
				ix.memberOrder[mkey] = append(ix.memberOrder[mkey], normalize(decl.Name))
				mOrder++
			}
		}
	}
	for _, a := range pou.Actions {
		aqn := qn + "." + a.Name
		akey := normalize(aqn)
		ix.pous[akey] = &POU{QualifiedName: aqn, Kind: ast.POUAction, Parent: qn}
		if a.Implementation != nil {
			ix.implementations[akey] = a.Implementation
		}
	}

	return nil
}

func qualifiedName(pou *ast.POUDecl) string {
	if pou.Parent == "" {
		return pou.Name
	}
	return pou.Parent + "." + pou.Name
}

// buildVTables computes, for every POU with a SuperClass or own methods, the
// vtable slot list: inherited slots first (in the parent's order), with an
// override replacing its parent's slot in place and a genuinely new method
// appended at the end (spec §4.3 Inheritance).
func (ix *Index) buildVTables() {
	for key, pou := range ix.pous {
		if pou.Kind != ast.POUFunctionBlock && pou.Kind != ast.POUClass {
			continue
		}
		ix.vtables[key] = ix.buildVTableFor(pou)
	}
}

func (ix *Index) buildVTableFor(pou *POU) *VTable {
	var slots []VTableSlot
	if pou.SuperClass != "" {
		if parent, ok := ix.pous[normalize(pou.SuperClass)]; ok {
			slots = append(slots, ix.buildVTableFor(parent).Slots...)
		}
	}
	if pou.Decl == nil {
		return &VTable{Owner: pou.QualifiedName, Slots: slots}
	}
	for _, m := range pou.Decl.Methods {
		replaced := false
		for i := range slots {
			if normalize(slots[i].MethodName) == normalize(m.Name) {
				slots[i].DeclaredBy = pou.QualifiedName
				replaced = true
				break
			}
		}
		if !replaced {
			slots = append(slots, VTableSlot{MethodName: m.Name, DeclaredBy: pou.QualifiedName})
		}
	}
	return &VTable{Owner: pou.QualifiedName, Slots: slots}
}

// FindVariable resolves a possibly-dotted name starting in scope, walking
// outward to globals (spec §4.3 find_variable). Each intermediate segment
// must be a struct/POU member of the prior segment's type.
func (ix *Index) FindVariable(scope string, path []string) (*Variable, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(path) == 0 {
		return nil, false
	}

	first := path[0]
	var v *Variable
	if scope != "" {
		if found, ok := ix.members[memberKey{owner: normalize(scope), name: normalize(first)}]; ok {
			v = found
		}
	}
	if v == nil {
		if found, ok := ix.globals[normalize(first)]; ok {
			v = found
		}
	}
	if v == nil {
		return nil, false
	}

	for _, seg := range path[1:] {
		owner := normalize(v.TypeName)
		next, ok := ix.members[memberKey{owner: owner, name: normalize(seg)}]
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

// FindCallable returns the POU bound to name in scope (spec §4.3
// find_callable): either a top-level POU, or a Program/FunctionBlock
// instance variable whose type resolves to one.
func (ix *Index) FindCallable(scope, name string) (*POU, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if v, ok := ix.resolveLocalUnlocked(scope, name); ok {
		if p, ok := ix.pous[normalize(v.TypeName)]; ok {
			return p, true
		}
	}
	if p, ok := ix.pous[normalize(name)]; ok {
		return p, true
	}
	return nil, false
}

func (ix *Index) resolveLocalUnlocked(scope, name string) (*Variable, bool) {
	if scope != "" {
		if v, ok := ix.members[memberKey{owner: normalize(scope), name: normalize(name)}]; ok {
			return v, true
		}
	}
	v, ok := ix.globals[normalize(name)]
	return v, ok
}

// POUMembers returns every declared member including inherited ones, parent
// members first (spec §4.3 pou_members / §8 Inheritance layout invariant).
func (ix *Index) POUMembers(qn string) []*Variable {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.pouMembersUnlocked(qn)
}

func (ix *Index) pouMembersUnlocked(qn string) []*Variable {
	key := normalize(qn)
	pou, ok := ix.pous[key]
	if !ok {
		return nil
	}

	var out []*Variable
	if pou.SuperClass != "" {
		out = append(out, ix.pouMembersUnlocked(pou.SuperClass)...)
	}
	for _, name := range ix.memberOrder[key] {
		if v, ok := ix.members[memberKey{owner: key, name: name}]; ok {
			out = append(out, v)
		}
	}
	return out
}

// MethodResolution returns the most-derived method of methodName reachable
// from ownerType's vtable (spec §4.3 method_resolution), used by dynamic
// dispatch.
func (ix *Index) MethodResolution(ownerType, methodName string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	vt, ok := ix.vtables[normalize(ownerType)]
	if !ok {
		return "", false
	}
	for _, slot := range vt.Slots {
		if normalize(slot.MethodName) == normalize(methodName) {
			return slot.DeclaredBy, true
		}
	}
	return "", false
}

// POU looks up a POU (or method/action) by qualified name.
func (ix *Index) POU(qn string) (*POU, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.pous[normalize(qn)]
	return p, ok
}

// Global looks up a global variable by name.
func (ix *Index) Global(name string) (*Variable, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	v, ok := ix.globals[normalize(name)]
	return v, ok
}

// Implementation looks up an executable body by its owner's qualified name.
func (ix *Index) Implementation(qn string) (*ast.Implementation, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	impl, ok := ix.implementations[normalize(qn)]
	return impl, ok
}

// VTable returns the computed vtable for a Class/FunctionBlock.
func (ix *Index) VTable(qn string) (*VTable, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	vt, ok := ix.vtables[normalize(qn)]
	return vt, ok
}

// DefineConstant registers (or overwrites) a constant-expression entry,
// called by the ConstantFolder participant as it drives the evaluator to a
// fixed point.
func (ix *Index) DefineConstant(id ast.NodeID, expr ast.Expression, value consteval.Literal, resolved bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.constants[id] = &ConstantExpr{ID: id, Expr: expr, Value: value, Resolved: resolved}
}

// Constant looks up a folded constant expression by its stable node id.
func (ix *Index) Constant(id ast.NodeID) (*ConstantExpr, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.constants[id]
	return c, ok
}

// AllPOUNames returns every indexed POU's qualified name, used by diagnostic
// reporting and by idempotent-rebuild property tests.
func (ix *Index) AllPOUNames() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.pous))
	for _, p := range ix.pous {
		names = append(names, p.QualifiedName)
	}
	return names
}

// Snapshot is a serializable view of the index's POU, Variable and VTable
// tables, used by internal/cache to persist and restore a prelude index
// across compiler invocations without re-walking its AST every run.
// Implementations and folded constants are deliberately excluded: they
// anchor back to live ast.Expression/ast.Implementation nodes that don't
// survive a process boundary, and a cached prelude is re-annotated from its
// own (re-parsed, cheap) AST rather than carrying that across the cache.
type Snapshot struct {
	POUs      []*POU
	Variables []*Variable
	VTables   []*VTable
}

// ExportSnapshot captures every POU, member/global Variable and VTable
// currently indexed. POU.Decl is dropped from the export: it is a pointer
// into this process's AST and is meaningless once restored in another run
// (mirrors the Decl-availability limitation already noted for C5's
// propagateCallArgs).
func (ix *Index) ExportSnapshot() Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var snap Snapshot
	for _, p := range ix.pous {
		cp := *p
		cp.Decl = nil
		snap.POUs = append(snap.POUs, &cp)
	}
	for _, v := range ix.globals {
		snap.Variables = append(snap.Variables, v)
	}
	for _, v := range ix.members {
		snap.Variables = append(snap.Variables, v)
	}
	for _, vt := range ix.vtables {
		snap.VTables = append(snap.VTables, vt)
	}
	return snap
}

// ImportSnapshot merges a previously exported Snapshot into the index. It is
// additive and does not call reset. Rebuild does reset, so callers
// (internal/driver) import a prelude snapshot after each Rebuild of the
// program's own units.
func (ix *Index) ImportSnapshot(snap Snapshot) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, p := range snap.POUs {
		key := normalize(p.QualifiedName)
		ix.pous[key] = p
	}
	for _, v := range snap.Variables {
		if v.Owner == "" {
			ix.globals[normalize(v.Name)] = v
			continue
		}
		owner := normalize(v.Owner)
		mk := memberKey{owner: owner, name: normalize(v.Name)}
		if _, exists := ix.members[mk]; !exists {
			ix.memberOrder[owner] = append(ix.memberOrder[owner], normalize(v.Name))
		}
		ix.members[mk] = v
	}
	for _, vt := range snap.VTables {
		ix.vtables[normalize(vt.Owner)] = vt
	}
}
