package xbps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/quantmind-br/xpkg/internal/helpers"
	"github.com/quantmind-br/xpkg/internal/syspkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unprivileged returns the commands with no privilege helper so argument
// lists do not depend on the euid of the test process
func unprivileged() Commands {
	cmds := DefaultCommands()
	cmds.Privilege = ""
	return cmds
}

func startErr(name string) error {
	return fmt.Errorf("%w: %q: exec: not found", helpers.ErrCommandStart, name)
}

func TestProvider_Search(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	t.Run("passes term", func(t *testing.T) {
		mockRunner.RunCommandWithOutputFunc = func(_ context.Context, name string, args ...string) (string, string, error) {
			assert.Equal(t, "xbps-query", name)
			assert.Equal(t, []string{"-Rs", "blender"}, args)
			return "[-] blender-4.1.1_1  3D suite\n", "", nil
		}

		out, err := provider.Search(context.Background(), "blender")
		require.NoError(t, err)
		assert.Contains(t, out, "blender-4.1.1_1")
	})

	t.Run("empty result on quiet non-zero exit", func(t *testing.T) {
		mockRunner.RunCommandWithOutputFunc = func(_ context.Context, _ string, _ ...string) (string, string, error) {
			return "", "", errors.New("exit status 2")
		}

		out, err := provider.Search(context.Background(), "zzz")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("backend failure with diagnostics", func(t *testing.T) {
		mockRunner.RunCommandWithOutputFunc = func(_ context.Context, _ string, _ ...string) (string, string, error) {
			return "", "ERROR: failed to open repodata\n", errors.New("exit status 1")
		}

		_, err := provider.Search(context.Background(), "vim")
		assert.ErrorIs(t, err, syspkg.ErrBackendUnavailable)
	})

	t.Run("missing executable", func(t *testing.T) {
		mockRunner.RunCommandWithOutputFunc = func(_ context.Context, name string, _ ...string) (string, string, error) {
			return "", "", startErr(name)
		}

		_, err := provider.Search(context.Background(), "vim")
		assert.ErrorIs(t, err, syspkg.ErrBackendUnavailable)
	})
}

func TestProvider_Info(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	mockRunner.RunCommandFunc = func(_ context.Context, name string, args ...string) (string, error) {
		assert.Equal(t, "xbps-query", name)
		assert.Equal(t, []string{"-R", "vim"}, args)
		return "pkgver: vim-9.1_1\n", nil
	}
	out, err := provider.Info(context.Background(), "vim")
	require.NoError(t, err)
	assert.Equal(t, "pkgver: vim-9.1_1\n", out)

	mockRunner.RunCommandFunc = func(_ context.Context, _ string, _ ...string) (string, error) {
		return "", errors.New("exit status 2")
	}
	_, err = provider.Info(context.Background(), "nope")
	require.Error(t, err)
	assert.NotErrorIs(t, err, syspkg.ErrBackendUnavailable)
}

func TestProvider_ProbeInstall(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	tests := []struct {
		name     string
		stdout   string
		stderr   string
		err      error
		wantCat  syspkg.Category
		wantLine string
		wantCode int
	}{
		{
			name:   "clean",
			stdout: "vim-9.1_1 install x86_64 https://repo-default.voidlinux.org/current\n",
		},
		{
			name:     "not found on stderr",
			stderr:   "Package 'bledner' not found in repository pool.\n",
			err:      errors.New("exit status 2"),
			wantCat:  syspkg.NotFound,
			wantLine: "Package 'bledner' not found in repository pool.",
			wantCode: -1,
		},
		{
			name:     "shlib",
			stdout:   "libx: broken, unresolvable shlib `liby.so.3'\n",
			err:      errors.New("exit status 1"),
			wantCat:  syspkg.BrokenDependencyGraph,
			wantLine: "libx: broken, unresolvable shlib `liby.so.3'",
			wantCode: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRunner.RunCommandWithOutputFunc = func(_ context.Context, name string, args ...string) (string, string, error) {
				assert.Equal(t, "xbps-install", name)
				assert.Equal(t, []string{"-n", "pkg"}, args)
				return tt.stdout, tt.stderr, tt.err
			}

			out, err := provider.ProbeInstall(context.Background(), "pkg")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, out.Category)
			assert.Equal(t, tt.wantLine, out.Line)
			assert.Equal(t, tt.wantCode, out.ExitCode)
			assert.Equal(t, "xbps-install -n pkg", out.Command)
		})
	}

	t.Run("missing executable", func(t *testing.T) {
		mockRunner.RunCommandWithOutputFunc = func(_ context.Context, name string, _ ...string) (string, string, error) {
			return "", "", startErr(name)
		}
		_, err := provider.ProbeInstall(context.Background(), "vim")
		assert.ErrorIs(t, err, syspkg.ErrBackendUnavailable)
	})
}

func TestProvider_ProbeRemove(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			assert.Equal(t, "xbps-remove", name)
			assert.Equal(t, []string{"-n", "vim"}, args)
			return "", "Package 'vim' is not currently installed.\n", errors.New("exit status 2")
		},
	}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	out, err := provider.ProbeRemove(context.Background(), "vim")
	require.NoError(t, err)
	assert.Equal(t, syspkg.NotInstalled, out.Category)
}

func TestProvider_Install(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	tests := []struct {
		name     string
		opts     syspkg.InstallOptions
		wantArgs []string
	}{
		{"sync", syspkg.InstallOptions{Sync: true}, []string{"-Sy", "firefox", "blender"}},
		{"no sync", syspkg.InstallOptions{}, []string{"-y", "firefox", "blender"}},
		{"dry run drops sync", syspkg.InstallOptions{Sync: true, DryRun: true}, []string{"-n", "firefox", "blender"}},
		{"flags before packages", syspkg.InstallOptions{Sync: true, Flags: []string{"-f"}}, []string{"-Sy", "-f", "firefox", "blender"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRunner.RunCommandLinesFunc = func(_ context.Context, handle func(string) bool, name string, args ...string) error {
				assert.Equal(t, "xbps-install", name)
				assert.Equal(t, tt.wantArgs, args)
				helpers.FeedLines("2 downloaded, 2 installed\n", handle)
				return nil
			}

			var lines []string
			out, err := provider.Install(context.Background(), []string{"firefox", "blender"}, tt.opts, func(line string) {
				lines = append(lines, line)
			})
			require.NoError(t, err)
			assert.False(t, out.Failed())
			assert.Equal(t, []string{"2 downloaded, 2 installed"}, lines)
		})
	}

	t.Run("stops on shlib signature", func(t *testing.T) {
		mockRunner.RunCommandLinesFunc = func(_ context.Context, handle func(string) bool, _ string, _ ...string) error {
			helpers.FeedLines("resolving\nfoo: broken, unresolvable shlib `a.so'\nnever seen\n", handle)
			return nil
		}

		var lines []string
		out, err := provider.Install(context.Background(), []string{"foo"}, syspkg.InstallOptions{}, func(line string) {
			lines = append(lines, line)
		})
		require.NoError(t, err)
		assert.Equal(t, syspkg.BrokenDependencyGraph, out.Category)
		assert.Len(t, lines, 2)
	})

	t.Run("plain failure", func(t *testing.T) {
		mockRunner.RunCommandLinesFunc = func(_ context.Context, _ func(string) bool, _ string, _ ...string) error {
			return errors.New("exit status 1")
		}
		mockRunner.GetExitCodeFunc = func(error) int { return 1 }
		defer func() { mockRunner.GetExitCodeFunc = nil }()

		out, err := provider.Install(context.Background(), []string{"foo"}, syspkg.InstallOptions{}, nil)
		require.NoError(t, err)
		assert.Equal(t, syspkg.CategoryNone, out.Category)
		assert.Equal(t, 1, out.ExitCode)
		assert.True(t, out.Failed())
	})

	t.Run("missing executable", func(t *testing.T) {
		mockRunner.RunCommandLinesFunc = func(_ context.Context, _ func(string) bool, name string, _ ...string) error {
			return startErr(name)
		}
		_, err := provider.Install(context.Background(), []string{"foo"}, syspkg.InstallOptions{}, nil)
		assert.ErrorIs(t, err, syspkg.ErrBackendUnavailable)
	})
}

func TestProvider_Privilege(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("privilege helper is skipped for root")
	}

	var gotName string
	var gotArgs []string
	mockRunner := &helpers.MockCommandRunner{
		RunCommandLinesFunc: func(_ context.Context, _ func(string) bool, name string, args ...string) error {
			gotName, gotArgs = name, args
			return nil
		},
	}
	provider := NewProviderWithRunner(mockRunner, DefaultCommands())

	_, err := provider.UpdateSystem(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sudo", gotName)
	assert.Equal(t, []string{"xbps-install", "-Syu"}, gotArgs)

	_, err = provider.Install(context.Background(), []string{"vim"}, syspkg.InstallOptions{DryRun: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "xbps-install", gotName)
}

func TestProvider_Updates(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	t.Run("tooling", func(t *testing.T) {
		mockRunner.RunCommandLinesFunc = func(_ context.Context, _ func(string) bool, name string, args ...string) error {
			assert.Equal(t, "xbps-install", name)
			assert.Equal(t, []string{"-Syu", "xbps"}, args)
			return nil
		}
		out, err := provider.UpdateTooling(context.Background(), nil)
		require.NoError(t, err)
		assert.False(t, out.Failed())
	})

	t.Run("system stops on tooling signature", func(t *testing.T) {
		mockRunner.RunCommandLinesFunc = func(_ context.Context, handle func(string) bool, _ string, args ...string) error {
			assert.Equal(t, []string{"-Syu"}, args)
			helpers.FeedLines("The 'xbps' package must be updated, please run `xbps-install -u xbps`\n", handle)
			return nil
		}
		out, err := provider.UpdateSystem(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, syspkg.ToolingOutdated, out.Category)
	})

	t.Run("system ignores shlib lines", func(t *testing.T) {
		mockRunner.RunCommandLinesFunc = func(_ context.Context, handle func(string) bool, _ string, _ ...string) error {
			helpers.FeedLines("foo: broken, unresolvable shlib `a.so'\n", handle)
			return nil
		}
		out, err := provider.UpdateSystem(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, syspkg.CategoryNone, out.Category)
	})
}

func TestProvider_Remove(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	tests := []struct {
		name     string
		opts     syspkg.RemoveOptions
		wantArgs []string
	}{
		{"plain", syspkg.RemoveOptions{}, []string{"-y", "vim"}},
		{"recursive orphans", syspkg.RemoveOptions{Recursive: true, Orphans: true}, []string{"-y", "-R", "-o", "vim"}},
		{"dry run", syspkg.RemoveOptions{Orphans: true, DryRun: true}, []string{"-y", "-o", "-n", "vim"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRunner.RunCommandLinesFunc = func(_ context.Context, _ func(string) bool, name string, args ...string) error {
				assert.Equal(t, "xbps-remove", name)
				assert.Equal(t, tt.wantArgs, args)
				return nil
			}
			out, err := provider.Remove(context.Background(), []string{"vim"}, tt.opts, nil)
			require.NoError(t, err)
			assert.False(t, out.Failed())
		})
	}
}

func TestProvider_Passthrough(t *testing.T) {
	mockRunner := &helpers.MockCommandRunner{}
	provider := NewProviderWithRunner(mockRunner, unprivileged())

	t.Run("unknown op", func(t *testing.T) {
		err := provider.Passthrough(context.Background(), syspkg.Op("upgrade"), nil)
		assert.Error(t, err)
	})

	t.Run("prepare failure", func(t *testing.T) {
		err := provider.Passthrough(context.Background(), syspkg.OpQuery, []string{"-Rs", "vim"})
		assert.ErrorIs(t, err, syspkg.ErrBackendUnavailable)
	})

	t.Run("runs prepared command", func(t *testing.T) {
		runner := helpers.NewOSCommandRunner()
		mockRunner.PrepareCommandFunc = func(ctx context.Context, name string, args ...string) *exec.Cmd {
			assert.Equal(t, "xbps-query", name)
			assert.Equal(t, []string{"-Rs", "vim"}, args)
			return runner.PrepareCommand(ctx, "true")
		}
		err := provider.Passthrough(context.Background(), syspkg.OpQuery, []string{"-Rs", "vim"})
		assert.NoError(t, err)
	})
}

func TestProviderInterface(_ *testing.T) {
	var _ syspkg.Provider = &Provider{}
}
