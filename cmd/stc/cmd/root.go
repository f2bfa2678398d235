package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configPath string
	envPath    string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "stc",
	Short: "A semantic frontend for IEC 61131-3 Structured Text",
	Long: `stc lexes, parses and resolves IEC 61131-3 Structured Text programs
into an annotated AST plus a cross-reference SymbolIndex: POUs, VAR blocks,
inheritance, properties, generics and dynamic dispatch are all fully typed
and name-resolved, ready to hand to an external backend.

stc stops at the frontend boundary: it does not itself emit LLVM IR.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "stc.yaml", "project configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "environment override file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI color in diagnostic output")
}
