package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/rnr/lang/codegen"
	"github.com/mna/rnr/lang/mips"
)

// Build type-checks path and lowers it to a mips assembly listing,
// matching spec.md §6's code-generation mode, now its own subcommand.
// --output-file writes the listing to a file instead of standard output
// (colour escapes are stripped from that path — fatih/color already
// disables itself when its destination isn't a terminal, so no extra
// stripping step is needed); --asm-sim then runs the emitted program
// through the bundled simulator and prints the primary temporary
// register, T0, which holds main's result once the program halts (frame
// exit pops the function's result into T0 before pushing it back).
func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
	pf, err := checkFile(stdio, args[0])
	if err != nil {
		return err
	}

	out, err := codegen.Run(pf.file)
	if err != nil {
		printDiag(stdio.Stderr, err)
		return err
	}

	listing := out.Program.String()
	if c.OutputFile != "" {
		if err := os.WriteFile(c.OutputFile, []byte(listing), 0o644); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
	} else {
		fmt.Fprintln(stdio.Stdout, listing)
	}

	if c.AsmSim {
		maxIter := c.MaxIter
		if maxIter == 0 {
			maxIter = 100
		}
		vm := mips.NewVM()
		if err := vm.Run(out.Program, maxIter); err != nil {
			printDiag(stdio.Stderr, err)
			return err
		}
		fmt.Fprintf(stdio.Stdout, "t0 = %d\n", vm.Regs[mips.T0])
	}
	return nil
}
