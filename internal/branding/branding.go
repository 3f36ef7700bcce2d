// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed, so the program name used for
// /usr/bin/<name> and the reboot entry is fixed when the binary is built.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

// name overrides cli_name when set at link time:
//
//	go build -ldflags "-X github.com/tpacpi-labs/acpisetup/internal/branding.name=tpacpi-setup"
var name string

type brand struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	EnvPrefix     string `yaml:"env_prefix"`
	ConfigDir     string `yaml:"config_dir"`
	ModuleRepoURL string `yaml:"module_repo_url"`
	ModuleName    string `yaml:"module_name"`
	HelperScript  string `yaml:"helper_script"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:       "acpisetup",
			DisplayName:   "acpisetup",
			Description:   "Installs tpacpi-bat and keeps the acpi_call kernel module built and loaded",
			EnvPrefix:     "ACPISETUP",
			ConfigDir:     "/etc/acpisetup",
			ModuleRepoURL: "https://github.com/nix-community/acpi_call.git",
			ModuleName:    "acpi_call",
			HelperScript:  "tpacpi-bat",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
		defaults = defaults.withName(name)
	})
}

func (b brand) withName(n string) brand {
	if n = strings.TrimSpace(n); n != "" {
		b.CLIName = n
	}
	return b
}

// CLIName returns the root command name, which is also the installed
// binary name (e.g., "acpisetup").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "ACPISETUP").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigDir returns the system-wide configuration directory.
func ConfigDir() string { load(); return defaults.ConfigDir }

// ModuleRepoURL returns the default git URL of the kernel module source.
func ModuleRepoURL() string { load(); return defaults.ModuleRepoURL }

// ModuleName returns the kernel module loaded with modprobe.
func ModuleName() string { load(); return defaults.ModuleName }

// HelperScript returns the helper script installed next to the binary.
func HelperScript() string { load(); return defaults.HelperScript }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("user") → "ACPISETUP_USER".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
