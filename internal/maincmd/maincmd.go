// Package maincmd wires the CLI surface to the compiler passes: the
// mainer.Cmd struct-tag flag binding and reflection-based subcommand
// dispatch table are kept from the teacher's own internal/maincmd, and
// the command set is generalised from its parse/resolve/tokenize trio to
// this module's check/run/build/tokenize/parse commands (spec.md §6).
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
)

const binName = "rnr"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler front end and reference interpreter/code generator for the
%[1]s expression language.

The <command> can be one of:
       check                     Run pre-declaration, linearisation/borrow
                                  checking and type checking, and report
                                  "passed" or the first diagnostic.
       run                       Type-check and then evaluate with the
                                  tree-walking interpreter, printing the
                                  result.
       build                     Type-check and lower to a mips assembly
                                  listing.
       parse                     Run the parser and print the resulting
                                  abstract syntax tree.
       tokenize                  Run the lexer and print the resulting
                                  token stream.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -m --max-iter N           Statement-count ceiling for evaluation
                                  or simulation (default 100).

Valid flag options for the <run> command are:
       (none beyond --max-iter)

Valid flag options for the <build> command are:
       -t --target T             Code-generation target (only "mips").
       -o --output-file PATH     Write the assembly listing to PATH
                                  instead of standard output.
       -a --asm-sim              After emission, run the listing through
                                  the bundled simulator and print the
                                  primary temporary register.

More information on the %[1]s repository:
       https://github.com/mna/rnr
`, binName)
)

// Cmd is the flag-bound root command, dispatched by mainer to one of the
// methods below by lowercased name (buildCmds).
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	MaxIter int `flag:"m,max-iter" env:"RNR_MAX_ITER"`

	Target     string `flag:"t,target"`
	OutputFile string `flag:"o,output-file"`
	AsmSim     bool   `flag:"a,asm-sim"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: a source file path is required", cmdName)
	}

	if c.flags["target"] && cmdName != "build" {
		return fmt.Errorf("%s: invalid flag 'target'", cmdName)
	}
	if c.flags["output-file"] && cmdName != "build" {
		return fmt.Errorf("%s: invalid flag 'output-file'", cmdName)
	}
	if c.flags["asm-sim"] && cmdName != "build" {
		return fmt.Errorf("%s: invalid flag 'asm-sim'", cmdName)
	}
	if c.Target != "" && c.Target != "mips" {
		return fmt.Errorf("build: unsupported target %q", c.Target)
	}
	if c.MaxIter < 0 {
		return fmt.Errorf("%s: --max-iter must not be negative", cmdName)
	}

	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	// env var defaults (RNR_MAX_ITER, ...) are applied before flag
	// parsing, so an explicit flag on the command line always wins.
	if err := env.Parse(c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment: %s\n", err)
		return mainer.InvalidArgs
	}

	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its own diagnostics
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings
// as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
