// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"os/exec"
)

// executor abstracts command execution for testing. Both backends run
// external processes exclusively through this seam so tests never spawn
// anything.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec. Commands run
// under the caller's context, so an expired deadline or a cancellation
// kills the child process.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

var defaultExec executor = osExecutor{}
