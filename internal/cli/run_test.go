package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_BoundedSession(t *testing.T) {
	path := writeConfig(t, validConfigYAML+"interval: 1ms\n")

	stdout, _, err := executeCommand("run", path, "--ticks", "5", "--seed", "42")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Monitor started")
	assert.Contains(t, stdout, "ticks=5")
}

func TestRun_ContextCancellation(t *testing.T) {
	path := writeConfig(t, validConfigYAML+"interval: 1ms\n")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", path, "--seed", "42"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a graceful stop, not a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestRun_MissingConfig(t *testing.T) {
	_, _, err := executeCommand("run", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_InvalidConfig(t *testing.T) {
	path := writeConfig(t, invalidConfigYAML)

	_, _, err := executeCommand("run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
