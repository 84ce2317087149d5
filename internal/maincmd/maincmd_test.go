package maincmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mna/rnr/internal/maincmd"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.rnr")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func newStdio() (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return mainer.Stdio{Stdout: &out, Stderr: &errOut}, &out, &errOut
}

func TestCheckReportsPassed(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 { 1 + 1 }`)
	c := &maincmd.Cmd{}
	stdio, out, errOut := newStdio()
	err := c.Check(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "passed")
	require.Empty(t, errOut.String())
}

func TestCheckReportsDiagnosticOnBorrowViolation(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 {
		let mut x: i32 = 1;
		let r = &mut x;
		let s = &mut x;
		1
	}`)
	c := &maincmd.Cmd{}
	stdio, _, errOut := newStdio()
	err := c.Check(context.Background(), stdio, []string{path})
	require.Error(t, err)
	require.NotEmpty(t, errOut.String())
}

func TestRunPrintsInterpreterResult(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 { 2 + 3 * 4 }`)
	c := &maincmd.Cmd{}
	stdio, out, _ := newStdio()
	err := c.Run(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	require.Equal(t, "14\n", out.String())
}

func TestRunHonoursMaxIter(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 {
		let mut i: i32 = 0;
		while true {
			i = i + 1;
		}
		i
	}`)
	c := &maincmd.Cmd{MaxIter: 20}
	stdio, _, errOut := newStdio()
	err := c.Run(context.Background(), stdio, []string{path})
	require.Error(t, err)
	require.Contains(t, errOut.String(), "execution-limit-exceeded")
}

func TestBuildEmitsListingAndRunsSimulator(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 { 5 * 2 }`)
	c := &maincmd.Cmd{AsmSim: true}
	stdio, out, _ := newStdio()
	err := c.Build(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "jal")
	require.Contains(t, out.String(), "t0 = 10")
}

func TestBuildWritesOutputFile(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 { 1 }`)
	outPath := filepath.Join(t.TempDir(), "out.asm")
	c := &maincmd.Cmd{OutputFile: outPath}
	stdio, out, _ := newStdio()
	err := c.Build(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	require.Empty(t, out.String())
	contents, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "halt")
}

func TestBuildRejectsUnsupportedTarget(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 { 1 }`)
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"build", path})
	c.SetFlags(map[string]bool{"target": true})
	c.Target = "risc-v"
	require.Error(t, c.Validate())
}

func TestParsePrintsRoundTrippableSource(t *testing.T) {
	path := writeSource(t, `fn main() -> i32 { 1 + 2 }`)
	c := &maincmd.Cmd{}
	stdio, out, _ := newStdio()
	err := c.Parse(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "fn main")
}

func TestTokenizePrintsOneTokenPerLine(t *testing.T) {
	path := writeSource(t, `fn main`)
	c := &maincmd.Cmd{}
	stdio, out, _ := newStdio()
	err := c.Tokenize(context.Background(), stdio, []string{path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "fn")
	require.Contains(t, out.String(), "main")
}

func TestValidateRejectsUnknownCommand(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"frobnicate", "x.rnr"})
	require.Error(t, c.Validate())
}

func TestValidateRequiresSourcePath(t *testing.T) {
	c := &maincmd.Cmd{}
	c.SetArgs([]string{"check"})
	require.Error(t, c.Validate())
}
