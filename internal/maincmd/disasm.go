package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/plume-lang/plume/lang/image"
)

// Disasm prints the image's disassembled textual form without executing it
// (a supplement to spec.md §6's minimal CLI surface: useful for inspecting
// what LoadNative/Call a library manifest actually wires up).
func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, args []string) error {
	prog, err := loadImage(args[0], c.Text)
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprint(stdio.Stdout, string(image.Dasm(prog)))
	return nil
}
