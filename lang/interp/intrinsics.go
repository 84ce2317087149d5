package interp

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// placeholder matches the "{}" and "{:?}" substitution markers the
// print!/println!/format! intrinsics recognise in their leading format
// string argument, grounded on original_source/src/intrinsics.rs's
// vm_println (`Regex::new(r"\{(:\?)?\}")`).
var placeholder = regexp.MustCompile(`\{(:\?)?\}`)

// formatTemplate substitutes each placeholder in tmpl, in order, with
// the String() or debugString() rendering of the matching value in
// args, per whether the placeholder was "{}" or "{:?}".
func formatTemplate(tmpl string, args []Value) (string, error) {
	matches := placeholder.FindAllStringIndex(tmpl, -1)
	if len(matches) != len(args) {
		return "", fmt.Errorf("format string has %d placeholders but %d arguments were given", len(matches), len(args))
	}
	var b strings.Builder
	last := 0
	for i, m := range matches {
		b.WriteString(tmpl[last:m[0]])
		if strings.Contains(tmpl[m[0]:m[1]], ":?") {
			b.WriteString(debugString(args[i]))
		} else {
			b.WriteString(args[i].String())
		}
		last = m[1]
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

// callIntrinsic dispatches the three macro-style intrinsics of spec.md
// §4.4/§6: print! and println! write to th's Stdout and return unit;
// format! returns the substituted string instead of writing it.
func callIntrinsic(th *Thread, name string, args []Value) (Value, error) {
	tmplStr, ok := args[0].(Str)
	if !ok {
		return nil, fmt.Errorf("%s! requires a string as its first argument", name)
	}
	out, err := formatTemplate(string(tmplStr), args[1:])
	if err != nil {
		return nil, err
	}
	switch name {
	case "print":
		fmt.Fprint(th.stdout(), out)
		return UnitVal{}, nil
	case "println":
		fmt.Fprintln(th.stdout(), out)
		return UnitVal{}, nil
	case "format":
		return Str(out), nil
	}
	return nil, fmt.Errorf("unknown intrinsic %s!", name)
}

func (th *Thread) stdout() io.Writer {
	if th.Stdout != nil {
		return th.Stdout
	}
	return os.Stdout
}
