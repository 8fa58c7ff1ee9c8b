package commands

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/tui"
)

const testAPIKey = "test-key-1234"

// fakeEnv records what the commands asked of their dependencies
type fakeEnv struct {
	deps        *Dependencies
	gateway     api.Gateway
	gatewayErr  error
	terminal    bool
	tuiCalls    int
	tuiOpts     tui.AppOptions
	gatewayCfgs []config.Config
}

func newFakeEnv(t *testing.T, gw api.Gateway) *fakeEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	env := &fakeEnv{gateway: gw}
	env.deps = &Dependencies{
		LoadConfig: func() (config.Config, error) {
			cfg := config.DefaultConfig()
			cfg.APIKey = testAPIKey
			return cfg, nil
		},
		LoadCourses: func() ([]models.Course, error) {
			return config.DefaultCourses(), nil
		},
		NewGateway: func(ctx context.Context, cfg config.Config, logger *slog.Logger) (api.Gateway, error) {
			env.gatewayCfgs = append(env.gatewayCfgs, cfg)
			if env.gatewayErr != nil {
				return nil, env.gatewayErr
			}
			return env.gateway, nil
		},
		RunTUI: func(opts tui.AppOptions) error {
			env.tuiCalls++
			env.tuiOpts = opts
			return nil
		},
		IsTerminal: func() bool { return env.terminal },
		LogPath: func() (string, error) {
			return filepath.Join(t.TempDir(), "debug.log"), nil
		},
	}
	return env
}

// run executes the command tree with args and returns stdout and stderr
func (env *fakeEnv) run(stdin string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(env.deps)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func helloGateway() *api.ScriptedGateway {
	return api.NewScriptedGateway(api.Script{Turns: []api.ScriptedTurn{
		{Fragments: []string{"Hello", " there!"}},
	}})
}
