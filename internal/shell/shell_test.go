package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stinson122/csopesy-os-emulator/internal/config"
	"github.com/stinson122/csopesy-os-emulator/internal/logging"
)

func TestShell_RejectsCommandsBeforeInitialize(t *testing.T) {
	var out bytes.Buffer
	sh := New(strings.NewReader("scheduler-start\nexit\n"), &out, logging.Noop(), func() (config.Config, error) {
		return config.Default(), nil
	})
	sh.Run()

	if !strings.Contains(out.String(), ErrNotInitialized.Error()) {
		t.Errorf("expected NotInitialized diagnostic, got:\n%s", out.String())
	}
}

func TestShell_InitializeThenLifecycle(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()
	cfg.NumCPU = 1
	cfg.DelayPerExec = 0
	cfg.MaxOverallMem = 4096
	cfg.MemPerProc = 64

	input := "initialize\nscreen -s alpha\nscreen -ls\nscheduler-start\nscheduler-stop\nexit\n"
	sh := New(strings.NewReader(input), &out, logging.Noop(), func() (config.Config, error) {
		return cfg, nil
	})
	code := sh.Run()
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	got := out.String()
	for _, want := range []string{"initialized with", "attached to alpha", "scheduler started", "scheduler stopped"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestShell_DuplicateProcessNameRejected(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()
	cfg.NumCPU = 1

	input := "initialize\nscreen -s alpha\nscreen -s alpha\nexit\n"
	sh := New(strings.NewReader(input), &out, logging.Noop(), func() (config.Config, error) {
		return cfg, nil
	})
	sh.Run()

	if !strings.Contains(out.String(), "error:") {
		t.Errorf("expected duplicate-process error, got:\n%s", out.String())
	}
}
