// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/circulardrives/cdi-grading-tool/pkg/cmdexec"
)

const binary = "smartctl"

// Client wraps the smartctl binary behind an injectable Executor so probing
// logic never touches invocation mechanics directly.
type Client struct {
	exec cmdexec.Executor
}

func NewClient(exec cmdexec.Executor) *Client {
	return &Client{exec: exec}
}

// Installed reports whether smartctl is resolvable on PATH.
func Installed() bool {
	return cmdexec.LookPath(binary)
}

// Scan enumerates devices via `smartctl --scan-open --json`. Devices that
// could not be opened are included with OpenError set.
func (c *Client) Scan(ctx context.Context) (*ScanOutput, error) {
	res, err := c.exec.Run(ctx, binary, "--scan-open", "--json")
	if err != nil {
		return nil, fmt.Errorf("running smartctl --scan-open: %w", err)
	}

	var out ScanOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return nil, fmt.Errorf("parsing smartctl scan output: %w", err)
	}
	return &out, nil
}

// Probe runs a cheap identity-only query, used for protocol detection when
// the scan output leaves a device unclassified.
func (c *Client) Probe(ctx context.Context, path string) (*Output, error) {
	return c.collect(ctx, path, "--json", "--info", path)
}

// Collect gathers the full telemetry for one device: identity, health,
// attributes and the error/self-test logs. Tolerance flags follow the
// smartmontools recommendation for drained or standby drives.
func (c *Client) Collect(ctx context.Context, path string) (*Output, error) {
	return c.collect(ctx, path,
		"--json", "--info", "--health", "--attributes",
		"--log=error", "--log=selftest",
		"--tolerance=verypermissive", "--nocheck=standby",
		path,
	)
}

func (c *Client) collect(ctx context.Context, path string, args ...string) (*Output, error) {
	res, err := c.exec.Run(ctx, binary, args...)
	if err != nil {
		return nil, fmt.Errorf("running smartctl for %s: %w", path, err)
	}
	if res.ExitCode != 0 {
		// smartctl sets warning bits while still emitting valid JSON;
		// only treat the exit status as fatal when there is no output.
		log.Debug().Str("device", path).Int("exit_code", res.ExitCode).
			Dur("duration", res.Duration).Msg("smartctl returned non-zero exit status")
		if len(res.Stdout) == 0 {
			return nil, fmt.Errorf("smartctl exited %d for %s: %s", res.ExitCode, path, res.Stderr)
		}
	}

	var out Output
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return nil, fmt.Errorf("parsing smartctl output for %s: %w", path, err)
	}
	return &out, nil
}
