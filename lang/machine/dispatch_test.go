package machine_test

// TestExecAsm loads lang/machine/testdata/asm/*.asm, assembles and runs
// each program, and checks the comment-driven expectations embedded in the
// file. This is adapted from the teacher repo's own (disabled) TestExecAsm,
// simplified for a flat, global-less bytecode: instead of asserting on a
// named predeclared global map, assertions are made against the top of the
// operand stack after the program halts, or against the fatal error's
// category.
//
// Directive grammar, one per line, anywhere in the file:
//
//	### top: 42       -- after a successful run, the top of stack equals 42
//	### fail: <text>  -- Run must return an error whose message contains text

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/plume-lang/plume/lang/image"
	"github.com/plume-lang/plume/lang/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rxDirective = regexp.MustCompile(`(?m)^\s*###\s*([a-zA-Z][a-zA-Z0-9_]*):\s*(.+)$`)

func TestExecAsm(t *testing.T) {
	dir := filepath.Join("testdata", "asm")
	des, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != ".asm" {
			continue
		}
		t.Run(de.Name(), func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(dir, de.Name()))
			require.NoError(t, err)

			prog, err := image.Asm(b)
			require.NoError(t, err)

			m := machine.NewModule(prog.Code, prog.Constants, nil, prog.LibFuncCounts(), nil)
			runErr := machine.Run(m)

			ms := rxDirective.FindAllStringSubmatch(string(b), -1)
			require.NotEmpty(t, ms, "no assertion directive found")
			var asserted bool
			for _, dm := range ms {
				want := strings.TrimSpace(dm[2])
				switch directive := dm[1]; directive {
				case "fail":
					asserted = true
					assert.ErrorContains(t, runErr, want)
				case "top":
					asserted = true
					if assert.NoError(t, runErr) {
						assertTop(t, m, want)
					}
				default:
					t.Fatalf("unknown directive %q", directive)
				}
			}
			require.True(t, asserted, "no directive handled")
		})
	}
}

func assertTop(t *testing.T, m *machine.Module, want string) {
	t.Helper()
	n, err := strconv.ParseInt(want, 10, 64)
	require.NoError(t, err, "only integer top-of-stack assertions are supported")
	top, err := machine.TopOfStack(m)
	require.NoError(t, err)
	i, ok := top.(machine.Int)
	require.True(t, ok, "top of stack is not an int: %s", top.Type())
	assert.Equal(t, int32(n), int32(i))
}
