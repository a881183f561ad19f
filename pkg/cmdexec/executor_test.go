// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmdexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellCapturesStdout(t *testing.T) {
	res, err := Shell{}.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestShellNonZeroExitIsNotAnError(t *testing.T) {
	res, err := Shell{}.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestShellContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Shell{}.Run(ctx, "sleep", "5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLookPath(t *testing.T) {
	assert.True(t, LookPath("sh"))
	assert.False(t, LookPath("definitely-not-a-real-binary"))
}
