package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/plume-lang/plume/internal/hostenv"
	"github.com/plume-lang/plume/internal/hostloader"
	"github.com/plume-lang/plume/lang/image"
	"github.com/plume-lang/plume/lang/machine"
)

// Run loads the image at args[0] and executes it to completion (spec.md §6
// "CLI surface (host wrapper, minimal)"): exit code 0 on normal
// completion, non-zero on fatal error. Anything after args[0] becomes the
// program's argv, reflected into the Module as string Values.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	prog, err := loadImage(args[0], c.Text)
	if err != nil {
		return printError(stdio, err)
	}

	env, err := hostenv.Load()
	if err != nil {
		return printError(stdio, err)
	}
	loader := &hostloader.Loader{Root: env.PlumePath}

	argv := make([]machine.Value, len(args[1:]))
	for i, a := range args[1:] {
		argv[i] = machine.NewStringFromString(a)
	}

	m := machine.NewModule(prog.Code, prog.Constants, loader, prog.LibFuncCounts(), argv)
	for i, lib := range prog.Libraries {
		path := lib.Name
		if lib.IsStandard {
			h, err := loader.LoadStandard(lib.Name)
			if err != nil {
				return printError(stdio, fmt.Errorf("loading standard library %s: %w", lib.Name, err))
			}
			if err := m.LoadLibrary(int32(i), h); err != nil {
				return printError(stdio, err)
			}
			continue
		}
		h, err := loader.Load(path)
		if err != nil {
			return printError(stdio, fmt.Errorf("loading library %s: %w", lib.Name, err))
		}
		if err := m.LoadLibrary(int32(i), h); err != nil {
			return printError(stdio, err)
		}
	}

	if err := machine.Run(m); err != nil {
		return printError(stdio, err)
	}
	return nil
}

func loadImage(path string, text bool) (*image.Program, error) {
	if text {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		return image.Asm(b)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	defer f.Close()
	return image.ReadImage(f)
}
