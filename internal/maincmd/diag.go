package maincmd

import (
	"io"

	"github.com/fatih/color"
)

// printDiag renders a pass error in bold red to w, matching the original
// crate's own span colourisation; every command routes its diagnostics
// through this one helper so colour handling stays in one place. Colour
// is only ever applied to stdio.Stderr, never to a build --output-file
// destination — build.go writes the assembly listing through a
// separate, uncoloured path.
func printDiag(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintln(w, err.Error())
}
