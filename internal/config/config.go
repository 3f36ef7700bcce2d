package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/tpacpi-labs/acpisetup/internal/branding"
	"github.com/tpacpi-labs/acpisetup/internal/installer"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys.
const (
	KeyRepoURL     = "repo_url"
	KeyHomeRoot    = "home_root"
	KeyRepoDirName = "repo_dir_name"
	KeyModule      = "module"
	KeyBinDir      = "bin_dir"
	KeyHelper      = "helper_script"
	KeyServiceUnit = "service_unit"
	KeyUnitDir     = "unit_dir"
	KeyClean       = "clean"
	KeyUser        = "user"
	KeySudo        = "sudo"
	KeySyncOnApply = "sync_on_apply"
)

// Config is the resolved configuration of a run.
type Config struct {
	RepoURL     string `mapstructure:"repo_url"`
	HomeRoot    string `mapstructure:"home_root"`
	RepoDirName string `mapstructure:"repo_dir_name"`
	Module      string `mapstructure:"module"`
	BinDir      string `mapstructure:"bin_dir"`
	Helper      string `mapstructure:"helper_script"`
	ServiceUnit string `mapstructure:"service_unit"`
	UnitDir     string `mapstructure:"unit_dir"`
	Clean       string `mapstructure:"clean"`
	User        string `mapstructure:"user"`
	Sudo        string `mapstructure:"sudo"`
	SyncOnApply bool   `mapstructure:"sync_on_apply"`
}

// Defaults returns the value of every key when neither file nor environment
// sets it.
func Defaults() map[string]any {
	return map[string]any{
		KeyRepoURL:     branding.ModuleRepoURL(),
		KeyHomeRoot:    "/home",
		KeyRepoDirName: "acpi_call",
		KeyModule:      branding.ModuleName(),
		KeyBinDir:      installer.DefaultBinDir,
		KeyHelper:      branding.HelperScript(),
		KeyServiceUnit: "",
		KeyUnitDir:     installer.DefaultUnitDir,
		KeyClean:       "always",
		KeyUser:        "",
		KeySudo:        "sudo",
		KeySyncOnApply: true,
	}
}

// Dir returns the system-wide config directory (/etc/acpisetup/).
func Dir() string {
	return branding.ConfigDir()
}

// FilePath returns the full path to the config file (/etc/acpisetup/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the directory holding path if it does not exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper from the config file at path (FilePath when empty)
// and the environment, and returns the resolved Config. A missing file is
// not an error; an invalid one is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FilePath()
	}

	for key, value := range Defaults() {
		viper.SetDefault(key, value)
	}
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		result, err := ValidateFile(path)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, &InvalidError{Path: path, Issues: result.Issues}
		}
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking config file %s: %w", path, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file at path
// (FilePath when empty). The resulting file must pass validation.
func Set(path, key, value string) error {
	if path == "" {
		path = FilePath()
	}
	if _, ok := Defaults()[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	settings, err := fileSettings(path)
	if err != nil {
		return err
	}
	settings[key] = typed(key, value)

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	result, err := Validate(data)
	if err != nil {
		return err
	}
	if !result.Valid {
		return &InvalidError{Path: path, Issues: result.Issues}
	}

	if err := EnsureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	viper.Set(key, settings[key])
	return nil
}

// fileSettings returns only what the file itself sets, so that Set does not
// persist defaults or environment overrides.
func fileSettings(path string) (map[string]any, error) {
	settings := make(map[string]any)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if settings == nil {
		settings = make(map[string]any)
	}
	return settings, nil
}

// typed converts value to the type of the key's default.
func typed(key, value string) any {
	if _, ok := Defaults()[key].(bool); ok {
		switch strings.ToLower(value) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return value
}

// InvalidError reports a config file that failed schema validation.
type InvalidError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	var b strings.Builder
	b.WriteString(printer.Sprintf("invalid config %s: %d issue(s)", e.Path, len(e.Issues)))
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "\n  %s", issue)
	}
	return b.String()
}
