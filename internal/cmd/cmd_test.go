package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/helpers"
	"github.com/quantmind-br/xpkg/internal/syspkg/xbps"
	"github.com/quantmind-br/xpkg/internal/ui"
)

const catalog = `[-] bleachbit-4.6.0_1     Clean unnecessary files
[-] blender-4.1.1_1       3D graphics creation suite
[-] blendervr-0.1_1       VR for blender
[*] firefox-125.0_1       Mozilla Firefox web browser
[*] vlc-3.0.20_1          Multimedia player
`

// backendScript fakes xbps through helpers.MockCommandRunner
type backendScript struct {
	mu       sync.Mutex
	search   map[string]string // search term -> xbps-query -Rs output
	probes   map[string]string // "xbps-install -n pkg" -> merged output
	info     map[string]string
	failRuns bool

	searches []string
	streams  []string
}

func (b *backendScript) runner() *helpers.MockCommandRunner {
	return &helpers.MockCommandRunner{
		CommandExistsFunc: func(string) bool { return true },
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			b.mu.Lock()
			defer b.mu.Unlock()
			if name == "xbps-query" && len(args) == 2 && args[0] == "-Rs" {
				b.searches = append(b.searches, args[1])
				return b.search[args[1]], "", nil
			}
			return b.probes[helpers.FormatCommand(name, args...)], "", nil
		},
		RunCommandFunc: func(_ context.Context, _ string, args ...string) (string, error) {
			out, ok := b.info[args[len(args)-1]]
			if !ok {
				return "", errors.New("exit status 2")
			}
			return out, nil
		},
		RunCommandLinesFunc: func(_ context.Context, handle func(string) bool, name string, args ...string) error {
			b.mu.Lock()
			b.streams = append(b.streams, helpers.FormatCommand(name, args...))
			b.mu.Unlock()
			helpers.FeedLines("working", handle)
			if b.failRuns {
				return errors.New("exit status 1")
			}
			return nil
		},
		GetExitCodeFunc: func(err error) int {
			if err != nil {
				return 1
			}
			return 0
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.DataDir = dir
	cfg.Paths.DBFile = filepath.Join(dir, "history.db")
	cfg.Paths.LogFile = filepath.Join(dir, "xpkg.log")
	cfg.Paths.IndexFile = filepath.Join(dir, "index.toml")
	cfg.Backend.PrivilegeCmd = ""
	return cfg
}

func scriptedActions(picks ...int) ActionFunc {
	return func(_ string, items []string) (int, string, error) {
		if len(picks) == 0 {
			return actionExit, items[actionExit], nil
		}
		p := picks[0]
		picks = picks[1:]
		return p, items[p], nil
	}
}

func providerFor(runner helpers.CommandRunner) *xbps.Provider {
	return xbps.NewProviderWithRunner(runner, xbps.Commands{
		Install: "xbps-install",
		Remove:  "xbps-remove",
		Query:   "xbps-query",
	})
}

func testDeps(script *backendScript, input string, actions ActionFunc) (*Deps, *bytes.Buffer) {
	var out bytes.Buffer
	runner := script.runner()
	return &Deps{
		Runner:   runner,
		Provider: providerFor(runner),
		In:       strings.NewReader(input),
		Out:      &out,
		Terminal: ui.FixedTerminal{Width: 80, Height: 24},
		Screen:   func() (tcell.Screen, error) { return nil, errors.New("no screen in tests") },
		Fs:       afero.NewMemMapFs(),
		Action:   actions,
	}, &out
}

func testLogger() *zerolog.Logger {
	log := zerolog.New(io.Discard)
	return &log
}

func execute(t *testing.T, cfg *config.Config, deps *Deps, args ...string) error {
	t.Helper()
	root := NewRootCmdWithDeps(cfg, testLogger(), "test", deps)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}
