package main

import (
	"fmt"
	"os"

	"github.com/plcforge/stc/cmd/stc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
