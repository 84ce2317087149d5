package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/rnr/lang/interp"
)

// Run type-checks path and then evaluates it with the tree-walking
// interpreter, printing the result, matching spec.md §6's "-v/--vm" mode
// now promoted to its own subcommand. --max-iter (default 100, spec.md
// §5's "statement-count ceiling") bounds the interpreter's execution
// budget.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	pf, err := checkFile(stdio, args[0])
	if err != nil {
		return err
	}

	maxIter := c.MaxIter
	if maxIter == 0 {
		maxIter = 100
	}

	th := &interp.Thread{Stdout: stdio.Stdout, MaxSteps: maxIter}
	v, err := interp.Run(th, pf.file)
	if err != nil {
		printDiag(stdio.Stderr, err)
		return err
	}
	fmt.Fprintln(stdio.Stdout, v)
	return nil
}
