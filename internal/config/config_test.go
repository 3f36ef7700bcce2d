package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RepoURL != "https://github.com/nix-community/acpi_call.git" {
		t.Errorf("RepoURL = %q", cfg.RepoURL)
	}
	if cfg.Module != "acpi_call" || cfg.Clean != "always" || cfg.BinDir != "/usr/bin" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.SyncOnApply {
		t.Error("SyncOnApply should default to true")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, "clean: auto\nuser: alice\nsync_on_apply: false\n")
	t.Setenv("ACPISETUP_MODULE", "acpi_call_test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Clean != "auto" || cfg.User != "alice" || cfg.SyncOnApply {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Module != "acpi_call_test" {
		t.Errorf("Module = %q, want env override", cfg.Module)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, "clean: sometimes\nbogus: 1\n")
	_, err := Load(path)

	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidError", err)
	}
	if len(invalid.Issues) == 0 {
		t.Error("expected validation issues")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		valid bool
	}{
		{"empty", "", true},
		{"full", "repo_url: https://example.com/acpi_call.git\nhome_root: /home\nmodule: acpi_call\nclean: never\nsync_on_apply: true\n", true},
		{"bad clean", "clean: sometimes\n", false},
		{"unknown key", "colour: blue\n", false},
		{"relative bin dir", "bin_dir: usr/bin\n", false},
		{"module with slash", "module: ../acpi_call\n", false},
		{"string bool", "sync_on_apply: maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if result.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (issues: %v)", result.Valid, tt.valid, result.Issues)
			}
			if !result.Valid && len(result.Issues) == 0 {
				t.Error("invalid result without issues")
			}
		})
	}
}

func TestValidate_MalformedYAML(t *testing.T) {
	if _, err := Validate([]byte("clean: [unterminated\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestSet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	if err := Set(path, KeyClean, "auto"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := Set(path, KeySyncOnApply, "false"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Clean != "auto" || cfg.SyncOnApply {
		t.Errorf("values not persisted: %+v", cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "repo_url") {
		t.Errorf("defaults were written to the file:\n%s", data)
	}
}

func TestSet_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := Set(path, "colour", "blue"); err == nil {
		t.Error("expected error for unknown key")
	}

	var invalid *InvalidError
	if err := Set(path, KeyClean, "sometimes"); !errors.As(err, &invalid) {
		t.Errorf("error = %v, want *InvalidError", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid value was written")
	}
}
