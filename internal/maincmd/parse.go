package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/parser"
	"github.com/mna/rnr/lang/token"
)

// Parse runs the parser over a single source file and prints the
// resulting AST in its round-trippable source form (ast.Print), grounded
// on the teacher's own parse command (internal/maincmd/parse.go) but
// trimmed to this module's single-file parser.ParseFile.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fset := token.NewFileSet()
	file, perr := parser.ParseFile(fset, path, string(src))
	if file != nil {
		for _, it := range file.Items {
			fmt.Fprintln(stdio.Stdout, ast.Print(it))
		}
	}
	if perr != nil {
		printDiag(stdio.Stderr, perr)
		return perr
	}
	return nil
}
