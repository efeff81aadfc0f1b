// Package command provides the `recompute "command"` driver: the artifact
// body is piped through a local program whose stdout becomes the output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/registry"
	"github.com/specialistvlad/cascade/internal/source"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the `recompute "command"` block.
type Input struct {
	Command []string `hcl:"command"`
	Dir     string   `hcl:"dir,optional"`
	Timeout string   `hcl:"timeout,optional"`
}

// Register registers the driver with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRecomputer("command", &registry.RecomputeDriver{
		NewInput: func() any { return new(Input) },
		New: func(ctx context.Context, input any) (executor.Recomputer, error) {
			in, ok := input.(*Input)
			if !ok {
				return nil, fmt.Errorf("unexpected input type %T", input)
			}
			rc, err := New(in)
			if err != nil {
				return nil, err
			}
			return rc, nil
		},
	})
}

// waitDelay bounds how long output pipes are drained after the process is
// killed, in case it left children holding them open.
const waitDelay = time.Second

// Recomputer runs the configured command once per artifact.
type Recomputer struct {
	argv    []string
	dir     string
	timeout time.Duration
}

// New validates the input and creates the driver.
func New(in *Input) (*Recomputer, error) {
	if len(in.Command) == 0 || in.Command[0] == "" {
		return nil, errors.New("command must not be empty")
	}
	rc := &Recomputer{argv: in.Command, dir: in.Dir}
	if in.Timeout != "" {
		d, err := time.ParseDuration(in.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", in.Timeout, err)
		}
		rc.timeout = d
	}
	return rc, nil
}

func (r *Recomputer) Recompute(ctx context.Context, req *executor.Request) (*executor.Result, error) {
	logger := ctxlog.FromContext(ctx)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdin []byte
	kind := ""
	if pl, ok := req.Artifact.Payload.(*source.Payload); ok {
		stdin = pl.Body
		kind = pl.Kind.String()
	}

	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Dir = r.dir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Env = append(os.Environ(),
		"CASCADE_PATH="+req.Artifact.Path,
		"CASCADE_KIND="+kind,
		"CASCADE_RUN_ID="+req.RunID,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running recompute command.", "argv", r.argv)
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", r.argv[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", r.argv[0], err)
	}
	logger.Debug("Recompute command finished.", "bytes", stdout.Len())

	return &executor.Result{
		Output: stdout.Bytes(),
		Detail: fmt.Sprintf("%d bytes", stdout.Len()),
	}, nil
}
