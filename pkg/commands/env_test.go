// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	key := "TEST_KEY"
	fallback := "default_value"

	value := getEnv(key, fallback)
	assert.Equal(t, fallback, value)

	t.Setenv(key, "expected_value")
	value = getEnv(key, fallback)
	assert.Equal(t, "expected_value", value)
}

func TestGetEnvInt(t *testing.T) {
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))

	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 7))

	t.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
}

func TestGetEnvBool(t *testing.T) {
	assert.False(t, getEnvBool("TEST_BOOL", false))

	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvBool("TEST_BOOL", false))

	t.Setenv("TEST_BOOL", "nope")
	assert.False(t, getEnvBool("TEST_BOOL", false))
}

func TestGetEnvDuration(t *testing.T) {
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DUR", time.Minute))

	t.Setenv("TEST_DUR", "30s")
	assert.Equal(t, 30*time.Second, getEnvDuration("TEST_DUR", time.Minute))
}

func TestSetUpLogs(t *testing.T) {
	assert.NoError(t, setUpLogs("debug"))
	assert.Error(t, setUpLogs("not-a-level"))
}
