package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/rnr/lang/lexer"
	"github.com/mna/rnr/lang/token"
)

// Tokenize runs the lexer over a single source file and prints its token
// stream, one token per line: grounded on the teacher's own tokenize
// command (internal/maincmd/tokenize.go), trimmed to this module's
// single-file lexer.Scan rather than the teacher's multi-file
// scanner.ScanFiles.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fset := token.NewFileSet()
	f := fset.AddFile(path, string(src))
	toks, lerr := lexer.Scan(f, string(src))
	for _, t := range toks {
		pos := f.Position(t.Pos)
		fmt.Fprintf(stdio.Stdout, "%s: %s", pos, t.Tok)
		switch t.Tok {
		case token.IDENT:
			fmt.Fprintf(stdio.Stdout, " %s", t.Ident)
		case token.INT:
			fmt.Fprintf(stdio.Stdout, " %d", t.Int)
		case token.STRING:
			fmt.Fprintf(stdio.Stdout, " %q", t.Str)
		}
		fmt.Fprintln(stdio.Stdout)
	}
	if lerr != nil {
		printDiag(stdio.Stderr, lerr)
		return lerr
	}
	return nil
}
