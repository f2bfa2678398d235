package resolve

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/plcforge/stc/internal/lowering"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

// wstringCodeUnits measures a string literal's payload the way a WSTRING
// variable actually stores it: as UTF-16 code units, not UTF-8 bytes or
// runes. A literal containing characters outside the basic multilingual
// plane costs two code units per character once encoded, which a plain
// len()/utf8.RuneCountInString would under-report.
func wstringCodeUnits(s string) (int, error) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(s)
	if err != nil {
		return 0, err
	}
	return len(encoded) / 2, nil
}

// annotateStringLiteral resolves a StringLiteral's type, honoring the type
// hint already stored against its node (in phase 1 only an enclosing
// AssignmentStatement sets it, from its target's type — see assignStmt's
// AssignmentStatement case). When the hint calls for WSTRING, the literal's
// payload is measured in UTF-16 code units against the declared Size and an
// OutOfRange diagnostic is raised if it overflows.
func annotateStringLiteral(ctx *lowering.Context, lit *ast.StringLiteral) types.Type {
	hint, ok := ctx.Info.Hint(lit.ID())
	st, wantsWide := hint.Expected.(*types.StringType)
	if !ok || !wantsWide || st.Encoding != types.EncodingUTF16 {
		return types.DefaultString
	}

	units, err := wstringCodeUnits(lit.Value)
	if err != nil {
		ctx.Diags.Add(diag.Diagnostic{
			Severity: diag.Error,
			Kind:     diag.InvalidCast,
			Message:  fmt.Sprintf("string literal is not valid for WSTRING: %v", err),
			Primary:  lit.Pos(),
			NodeID:   uint64(lit.ID()),
		})
		return st
	}
	if st.Size > 0 && units > st.Size {
		ctx.Diags.Add(diag.Diagnostic{
			Severity: diag.Error,
			Kind:     diag.OutOfRange,
			Message:  fmt.Sprintf("WSTRING literal needs %d code units, declared size is %d", units, st.Size),
			Primary:  lit.Pos(),
			NodeID:   uint64(lit.ID()),
		})
	}
	return st
}
