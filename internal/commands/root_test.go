package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	apierrors "github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/transcript"
)

func TestRootCommand_Help(t *testing.T) {
	cmd := NewRootCmd(nil)
	if cmd.Use != "geminitutor" {
		t.Errorf("Expected use 'geminitutor', got %s", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}

	for _, name := range []string{"courses", "prompt", "config", "ask"} {
		if c, _, err := cmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"course", "model", "provider", "demo", "demo-script", "debug", "version"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s not registered", flag)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	env := newFakeEnv(t, helloGateway())

	out, _, err := env.run("", "-v")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "geminitutor "+Version) {
		t.Errorf("version output = %q", out)
	}
	if env.tuiCalls != 0 {
		t.Error("--version must not start the interface")
	}
}

func TestRootCommand_RequiresTerminal(t *testing.T) {
	env := newFakeEnv(t, helloGateway())

	_, _, err := env.run("")
	if !errors.Is(err, errNoTerminal) {
		t.Fatalf("err = %v, want errNoTerminal", err)
	}
	if env.tuiCalls != 0 {
		t.Error("the interface must not start without a terminal")
	}
}

func TestRootCommand_LaunchesTUI(t *testing.T) {
	gw := helloGateway()
	env := newFakeEnv(t, gw)
	env.terminal = true

	if _, _, err := env.run(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.tuiCalls != 1 {
		t.Fatalf("RunTUI called %d times", env.tuiCalls)
	}

	opts := env.tuiOpts
	if opts.Gateway != gw {
		t.Error("the configured gateway should be passed to the interface")
	}
	if opts.ConfigErr != nil {
		t.Errorf("unexpected config error %v", opts.ConfigErr)
	}
	if len(opts.Courses) != 3 {
		t.Errorf("expected 3 courses, got %d", len(opts.Courses))
	}
	if opts.CredentialEnv != config.EnvAPIKey {
		t.Errorf("credential env = %q", opts.CredentialEnv)
	}
	if opts.Chat.RevealInterval != transcript.DefaultRevealInterval {
		t.Errorf("reveal interval = %v", opts.Chat.RevealInterval)
	}
	if opts.Chat.IdleTimeout != transcript.DefaultIdleTimeout {
		t.Errorf("idle timeout = %v", opts.Chat.IdleTimeout)
	}
}

func TestRootCommand_InitialCourse(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true

	if _, _, err := env.run("", "-c", "world_hist_basics"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.tuiOpts.InitialCourse != "world_hist_basics" {
		t.Errorf("initial course = %q", env.tuiOpts.InitialCourse)
	}

	_, _, err := env.run("", "--course", "underwater_basket_weaving")
	if err == nil || !strings.Contains(err.Error(), "unknown course") {
		t.Errorf("err = %v, want unknown course", err)
	}
}

func TestRootCommand_ConfigErrorOpensNotice(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true
	env.gatewayErr = apierrors.NewConfigError(config.EnvAPIKey, apierrors.ErrMissingAPIKey)

	if _, _, err := env.run(""); err != nil {
		t.Fatalf("a configuration error should be shown in the interface, got %v", err)
	}
	if env.tuiOpts.ConfigErr == nil || env.tuiOpts.Gateway != nil {
		t.Error("the interface should receive the configuration error and no gateway")
	}
}

func TestRootCommand_GatewayErrorFails(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true
	env.gatewayErr = errors.New("tls setup failed")

	_, _, err := env.run("")
	if err == nil || !strings.Contains(err.Error(), "tls setup failed") {
		t.Fatalf("err = %v", err)
	}
	if env.tuiCalls != 0 {
		t.Error("the interface must not start")
	}
}

func TestRootCommand_DemoMode(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true

	if _, _, err := env.run("", "--demo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.gatewayCfgs) != 0 {
		t.Error("demo mode must not build a real gateway")
	}
	if _, ok := env.tuiOpts.Gateway.(*api.ScriptedGateway); !ok {
		t.Errorf("gateway = %T, want *api.ScriptedGateway", env.tuiOpts.Gateway)
	}
}

func TestRootCommand_DemoScript(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true

	path := filepath.Join(t.TempDir(), "script.json")
	script := "```json\n{\"turns\":[{\"fragments\":[\"Hi\"]}]}\n```"
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := env.run("", "--demo-script", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.tuiOpts.Gateway == nil || env.tuiOpts.Gateway.Name() != "scripted" {
		t.Error("demo script should drive a scripted gateway")
	}

	if _, _, err := env.run("", "--demo-script", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("a missing script should fail")
	}
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true

	if _, _, err := env.run("", "-m", "gemini-2.5-pro"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := env.gatewayCfgs[0].Model; got != "gemini-2.5-pro" {
		t.Errorf("model = %q", got)
	}
}

func TestRootCommand_DebugWritesLog(t *testing.T) {
	env := newFakeEnv(t, helloGateway())
	env.terminal = true
	logPath := filepath.Join(t.TempDir(), "logs", "debug.log")
	env.deps.LogPath = func() (string, error) { return logPath, nil }

	if _, _, err := env.run("", "--debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("debug log not written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"starting"`) {
		t.Errorf("debug log = %q", data)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name         string
		opts         rootOptions
		wantProvider string
		wantModel    string
		wantArkModel string
	}{
		{"no flags", rootOptions{}, models.ProviderGemini, "gemini-2.5-flash", ""},
		{"gemini model", rootOptions{model: "gemini-2.5-pro"}, models.ProviderGemini, "gemini-2.5-pro", ""},
		{"ark model", rootOptions{provider: "ARK", model: "ep-123"}, models.ProviderArk, "gemini-2.5-flash", "ep-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			applyFlags(&cfg, &tt.opts)
			if cfg.Provider != tt.wantProvider || cfg.Model != tt.wantModel || cfg.Ark.Model != tt.wantArkModel {
				t.Errorf("got provider=%q model=%q ark=%q", cfg.Provider, cfg.Model, cfg.Ark.Model)
			}
		})
	}
}
