package lowering

import (
	"fmt"

	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

func diagUnknownType(node ast.Node, name string) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.Error,
		Kind:     diag.UnknownType,
		Message:  fmt.Sprintf("unknown type %q", name),
		Primary:  node.Pos(),
		NodeID:   uint64(node.ID()),
	}
}

func diagRegisterError(node ast.Node, err error) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.Error,
		Kind:     diag.DuplicateDeclaration,
		Message:  err.Error(),
		Primary:  node.Pos(),
		NodeID:   uint64(node.ID()),
	}
}
