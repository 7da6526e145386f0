package main

import (
	"fmt"
	"os"

	"github.com/mamadbah2/inventario/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdin, os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
