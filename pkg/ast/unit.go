package ast

import "github.com/google/uuid"

// ParsedUnit is one syntax-tree root: the parse result of a single source
// file, containing POUs, global variable blocks, user-type declarations,
// interfaces and (separately declared) actions/methods — the input contract
// to the semantic frontend (spec §6 External Interfaces).
type ParsedUnit struct {
	// ID is a stable identity for this unit, independent of file path, used
	// to key the per-unit TypeRegistry/SymbolIndex pair when units are
	// compiled on separate worker tasks (spec §5 Concurrency model).
	ID uuid.UUID

	FileName        string
	POUs            []*POUDecl
	Interfaces      []*InterfaceDecl
	GlobalVarBlocks []*VarBlock
	TypeDecls       []*TypeDecl

	ids *IDAllocator
}

// NewParsedUnit creates an empty unit with a fresh identity and node-id
// allocator.
func NewParsedUnit(fileName string) *ParsedUnit {
	return &ParsedUnit{
		ID:       uuid.New(),
		FileName: fileName,
		ids:      NewIDAllocator(),
	}
}

// IDs returns the unit's node-id allocator, so lowering participants that
// synthesize nodes for this unit keep allocating from the same sequence.
func (u *ParsedUnit) IDs() *IDAllocator { return u.ids }

// Program aggregates every ParsedUnit handed to one compilation (spec §6:
// "Inputs to the core: ParsedUnits — a list of syntax-tree roots").
type Program struct {
	Units []*ParsedUnit
}

// AllPOUs returns every POU declared across every unit in declaration order,
// units first-to-last.
func (p *Program) AllPOUs() []*POUDecl {
	var out []*POUDecl
	for _, u := range p.Units {
		out = append(out, u.POUs...)
	}
	return out
}
