package helpers

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSCommandRunner(t *testing.T) {
	runner := NewOSCommandRunner()

	t.Run("CommandExists", func(t *testing.T) {
		assert.True(t, runner.CommandExists("sh"))
		assert.False(t, runner.CommandExists("xpkg-nonexistent-command"))
		// cached answer
		assert.False(t, runner.CommandExists("xpkg-nonexistent-command"))
	})

	t.Run("RequireCommand", func(t *testing.T) {
		assert.NoError(t, runner.RequireCommand("sh"))
		assert.Error(t, runner.RequireCommand("xpkg-nonexistent-command"))
	})

	t.Run("RunCommand", func(t *testing.T) {
		output, err := runner.RunCommand(context.Background(), "echo", "test")
		require.NoError(t, err)
		assert.Equal(t, "test\n", output)
	})

	t.Run("RunCommand keeps stderr in error", func(t *testing.T) {
		_, err := runner.RunCommand(context.Background(), "sh", "-c", "echo boom >&2; exit 2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, 2, runner.GetExitCode(err))
		assert.False(t, errors.Is(err, ErrCommandStart))
	})

	t.Run("RunCommand missing binary", func(t *testing.T) {
		_, err := runner.RunCommand(context.Background(), "xpkg-nonexistent-command")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCommandStart)
		assert.Equal(t, -1, runner.GetExitCode(err))
	})

	t.Run("RunCommandWithOutput", func(t *testing.T) {
		stdout, stderr, err := runner.RunCommandWithOutput(context.Background(), "sh", "-c", "echo out; echo err >&2")
		require.NoError(t, err)
		assert.Equal(t, "out\n", stdout)
		assert.Equal(t, "err\n", stderr)
	})

	t.Run("RunCommand timeout exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := runner.RunCommand(ctx, "sleep", "5")
		assert.Error(t, err)
	})

	t.Run("PrepareCommand", func(t *testing.T) {
		cmd := runner.PrepareCommand(context.Background(), "echo", "test")
		require.NotNil(t, cmd)
		assert.Equal(t, []string{"echo", "test"}, cmd.Args)
	})
}

func TestOSCommandRunner_RunCommandLines(t *testing.T) {
	runner := NewOSCommandRunner()

	t.Run("merges stdout and stderr", func(t *testing.T) {
		var lines []string
		err := runner.RunCommandLines(context.Background(), func(line string) bool {
			lines = append(lines, line)
			return true
		}, "sh", "-c", "echo one; echo two >&2; echo three")

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"one", "two", "three"}, lines)
	})

	t.Run("last line without newline", func(t *testing.T) {
		var lines []string
		err := runner.RunCommandLines(context.Background(), func(line string) bool {
			lines = append(lines, line)
			return true
		}, "printf", "a\nb")

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, lines)
	})

	t.Run("early stop kills process", func(t *testing.T) {
		start := time.Now()
		var lines []string
		err := runner.RunCommandLines(context.Background(), func(line string) bool {
			lines = append(lines, line)
			return false
		}, "sh", "-c", "echo first; exec sleep 10")

		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, lines)
		assert.Less(t, time.Since(start), 8*time.Second)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		err := runner.RunCommandLines(context.Background(), func(string) bool { return true }, "sh", "-c", "echo x; exit 3")
		require.Error(t, err)
		assert.Equal(t, 3, runner.GetExitCode(err))
	})

	t.Run("missing binary", func(t *testing.T) {
		err := runner.RunCommandLines(context.Background(), func(string) bool { return true }, "xpkg-nonexistent-command")
		assert.ErrorIs(t, err, ErrCommandStart)
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, -1, ExitCode(errors.New("plain")))
}

func TestWithPrivilege(t *testing.T) {
	name, args := WithPrivilege("", "xbps-install", "-y", "vim")
	assert.Equal(t, "xbps-install", name)
	assert.Equal(t, []string{"-y", "vim"}, args)

	name, args = WithPrivilege("sudo", "xbps-install", "-y", "vim")
	if os.Geteuid() == 0 {
		assert.Equal(t, "xbps-install", name)
		assert.Equal(t, []string{"-y", "vim"}, args)
		return
	}
	assert.Equal(t, "sudo", name)
	assert.Equal(t, []string{"xbps-install", "-y", "vim"}, args)
}

func TestCommandRunnerInterface(_ *testing.T) {
	var _ CommandRunner = &OSCommandRunner{}
	var _ CommandRunner = &MockCommandRunner{}
}
