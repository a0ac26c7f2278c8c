package dispatch

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// ExecHandler runs an external command as the action handler.
// The command inherits the process environment, including the variables populated for the run.
type ExecHandler struct {
	Name   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecHandler returns an ExecHandler for argv, wired to the standard streams.
func NewExecHandler(argv []string) (*ExecHandler, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("missing handler command")
	}
	return &ExecHandler{
		Name:   argv[0],
		Args:   argv[1:],
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// Run starts the command and waits for it to exit.
func (h *ExecHandler) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, h.Name, h.Args...)
	cmd.Dir = h.Dir
	cmd.Env = os.Environ()
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "action handler %q failed", h.Name)
	}
	return nil
}
