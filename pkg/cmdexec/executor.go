// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result carries everything a caller may need from a finished diagnostic
// command. A non-zero ExitCode is not an error at this layer: smartmontools
// encodes warning bits in its exit status while still producing usable JSON.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Executor runs a diagnostic binary. Discovery and probing depend only on
// this interface, never on the invocation mechanics behind it. Retries, if
// ever wanted, belong in an Executor implementation and nowhere else.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Shell is the default Executor backed by os/exec. The context bounds the
// command lifetime; on expiry the process is killed and ctx.Err is returned.
type Shell struct{}

func (Shell) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// LookPath reports whether a binary is resolvable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
