package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func noEnv(string) (string, bool) { return "", false }

func TestLoad_File(t *testing.T) {
	p := writeFile(t, "red.yaml", `preferences:
  pause_on_error: true
model_dir: models
breakpoints: bp.yaml
log:
  level: debug
  format: json
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Preferences.PauseOnError || cfg.Preferences.GoIntoLibraryKeywords {
		t.Errorf("preferences = %+v", cfg.Preferences)
	}
	if cfg.ModelDir != "models" || cfg.Breakpoints != "bp.yaml" {
		t.Errorf("paths = %q, %q", cfg.ModelDir, cfg.Breakpoints)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	p := writeFile(t, "red.yaml", "preferences:\n  pause_on_eror: true\n")
	_, err := Load(p)
	if err == nil || !strings.Contains(err.Error(), "decode config") {
		t.Fatalf("err = %v", err)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	env := map[string]string{
		EnvPauseOnError:      "true",
		EnvStepIntoLibraries: "1",
		EnvModelDir:          "/models",
		EnvBreakpoints:       "",
		EnvLogFormat:         "json",
	}
	cfg := Default()
	cfg.Breakpoints = "kept.yaml"
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Preferences.PauseOnError || !cfg.Preferences.GoIntoLibraryKeywords {
		t.Errorf("preferences = %+v", cfg.Preferences)
	}
	if cfg.ModelDir != "/models" || cfg.Breakpoints != "kept.yaml" || cfg.Log.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == EnvPauseOnError {
			return "maybe", true
		}
		return noEnv(k)
	})
	if err == nil || !strings.Contains(err.Error(), EnvPauseOnError) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadDotEnv_KeepsSetVariables(t *testing.T) {
	t.Setenv("RED_TEST_SET", "original")
	p := writeFile(t, ".env", "# comment\nRED_TEST_SET=changed\nRED_TEST_NEW=\"quoted\"\nnot a pair\n")
	t.Cleanup(func() { os.Unsetenv("RED_TEST_NEW") })

	if err := LoadDotEnv(p); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("RED_TEST_SET"); got != "original" {
		t.Errorf("RED_TEST_SET = %q", got)
	}
	if got := os.Getenv("RED_TEST_NEW"); got != "quoted" {
		t.Errorf("RED_TEST_NEW = %q", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatal(err)
	}
}

func TestPreferences_SwitchIsSeenByController(t *testing.T) {
	p := NewPreferences(PreferencesConfig{GoIntoLibraryKeywords: true})
	d := p.Debugger()
	if d.ShouldPauseOnError() || !d.ShouldGoIntoLibKeywords() {
		t.Fatal("initial preferences wrong")
	}
	p.SetPauseOnError(true)
	if !d.ShouldPauseOnError() {
		t.Error("switch not visible through the controller preferences")
	}
}
