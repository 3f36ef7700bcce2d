//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/tpacpi-labs/acpisetup/internal/crontab"
	"github.com/tpacpi-labs/acpisetup/internal/installer"
	"github.com/tpacpi-labs/acpisetup/internal/kmod"
	"github.com/tpacpi-labs/acpisetup/internal/repo"
	"github.com/tpacpi-labs/acpisetup/internal/setup"
)

func newSetup(env *testEnv) *setup.Setup {
	r := quietRunner(env.Sudo)
	fs := afero.NewOsFs()
	return &setup.Setup{
		Installer: &installer.Installer{
			Runner:     r,
			BinDir:     "/usr/bin",
			Executable: func() (string, error) { return "/tmp/build/acpisetup", nil },
		},
		Scheduler: crontab.New(r),
		Source:    repo.New(env.Remote, r, fs),
		Builder: &kmod.Builder{
			Runner:        r,
			Fs:            fs,
			Module:        "acpi_call",
			Clean:         kmod.CleanAuto,
			KernelRelease: func() (string, error) { return "6.1.0-test", nil },
		},
	}
}

// TestBootstrapThenApply runs a first-time setup followed by the run the
// reboot entry performs, with real git and make and a fake sudo.
func TestBootstrapThenApply(t *testing.T) {
	env := setupTestEnv(t)
	requireTool(t, "make")
	ctx := context.Background()

	path := filepath.Join(env.HomeDir, "alice", "acpi_call")
	entry := crontab.Entry("/usr/bin/acpisetup", "alice")
	opts := setup.Options{
		Mode:     setup.Bootstrap,
		RepoPath: path,
		Artifacts: installer.Artifacts{
			Name:         "acpisetup",
			HelperScript: "tpacpi-bat",
		},
		CronEntry:   entry,
		SyncOnApply: true,
	}

	if err := newSetup(env).Run(ctx, opts); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	assertFileExists(t, filepath.Join(path, "built"))
	if got, err := kmod.ReadStamp(afero.NewOsFs(), path); err != nil || got != "6.1.0-test" {
		t.Errorf("stamp = %q, %v", got, err)
	}
	if got := readFile(t, env.Crontab); got != entry+"\n" {
		t.Errorf("crontab = %q", got)
	}

	helper, _ := filepath.Abs("tpacpi-bat")
	wantLog := []string{
		"cp " + helper + " /usr/bin/tpacpi-bat",
		"cp /tmp/build/acpisetup /usr/bin/acpisetup",
		"crontab -l",
		"crontab -",
		"make install",
		"depmod",
		"modprobe acpi_call",
	}
	if got := logLines(t, env.Log); strings.Join(got, "\n") != strings.Join(wantLog, "\n") {
		t.Errorf("elevated commands:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(wantLog, "\n"))
	}

	// Apply run: only sync, build, and load. The crontab is left alone.
	if err := os.Remove(env.Log); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(path, "stray.txt"), "x\n")

	opts.Mode = setup.Apply
	if err := newSetup(env).Run(ctx, opts); err != nil {
		t.Fatalf("apply: %v", err)
	}

	assertFileNotExists(t, filepath.Join(path, "stray.txt"))
	assertFileExists(t, filepath.Join(path, "built"))
	wantLog = []string{"make install", "depmod", "modprobe acpi_call"}
	if got := logLines(t, env.Log); strings.Join(got, "\n") != strings.Join(wantLog, "\n") {
		t.Errorf("elevated commands on apply:\n%s", strings.Join(got, "\n"))
	}
}

// TestBootstrapTwiceRegistersOnce checks that a repeated bootstrap does not
// duplicate the reboot entry or disturb other crontab lines.
func TestBootstrapTwiceRegistersOnce(t *testing.T) {
	env := setupTestEnv(t)
	requireTool(t, "make")
	ctx := context.Background()

	writeFile(t, env.Crontab, "0 3 * * * /usr/local/bin/backup\n")
	entry := crontab.Entry("/usr/bin/acpisetup", "bob")
	opts := setup.Options{
		Mode:      setup.Bootstrap,
		RepoPath:  filepath.Join(env.HomeDir, "bob", "acpi_call"),
		Artifacts: installer.Artifacts{Name: "acpisetup", HelperScript: "tpacpi-bat"},
		CronEntry: entry,
	}

	for i := 0; i < 2; i++ {
		if err := newSetup(env).Run(ctx, opts); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	want := "0 3 * * * /usr/local/bin/backup\n" + entry + "\n"
	if got := readFile(t, env.Crontab); got != want {
		t.Errorf("crontab = %q, want %q", got, want)
	}
}

func logLines(t *testing.T, path string) []string {
	t.Helper()
	return strings.Split(strings.TrimSpace(readFile(t, path)), "\n")
}
