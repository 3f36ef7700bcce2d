//go:build integration

package integration_test

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tpacpi-labs/acpisetup/internal/runner"
)

const makefile = "all:\n\ttouch built\n\nclean:\n\trm -f built\n\ninstall:\n\ttest -f built\n"

// fakeSudo records every elevated command in $FAKESUDO_LOG instead of running
// it. crontab reads and writes the table in $FAKESUDO_CRONTAB.
const fakeSudo = `#!/bin/sh
echo "$*" >> "$FAKESUDO_LOG"
if [ "$1" = crontab ]; then
	if [ "$2" = - ]; then
		cat > "$FAKESUDO_CRONTAB"
	elif [ -f "$FAKESUDO_CRONTAB" ]; then
		cat "$FAKESUDO_CRONTAB"
	fi
fi
exit 0
`

// testEnv holds paths to isolated test directories.
type testEnv struct {
	WorkDir string // upstream working copy, commits are made here
	Remote  string // bare repository cloned by the code under test
	HomeDir string // stands in for /home
	Sudo    string // path of the fake elevation program
	Log     string // elevated commands, one per line
	Crontab string // root's crontab as written by the fake
}

// setupTestEnv creates an upstream repository with one commit, a bare remote
// cloned from it, and a fake sudo. The environment is restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	requireTool(t, "git")

	root := t.TempDir()
	env := &testEnv{
		WorkDir: filepath.Join(root, "work"),
		Remote:  filepath.Join(root, "remote.git"),
		HomeDir: filepath.Join(root, "home"),
		Sudo:    filepath.Join(root, "bin", "fakesudo"),
		Log:     filepath.Join(root, "sudo.log"),
		Crontab: filepath.Join(root, "crontab"),
	}

	writeFile(t, env.Sudo, fakeSudo)
	if err := os.Chmod(env.Sudo, 0755); err != nil {
		t.Fatalf("chmod fakesudo: %v", err)
	}
	t.Setenv("FAKESUDO_LOG", env.Log)
	t.Setenv("FAKESUDO_CRONTAB", env.Crontab)

	if err := os.MkdirAll(env.WorkDir, 0755); err != nil {
		t.Fatalf("creating work dir: %v", err)
	}
	git(t, env.WorkDir, "init", "-q")
	git(t, env.WorkDir, "symbolic-ref", "HEAD", "refs/heads/main")
	writeFile(t, filepath.Join(env.WorkDir, "Makefile"), makefile)
	writeFile(t, filepath.Join(env.WorkDir, "acpi_call.c"), "int x;\n")
	commit(t, env.WorkDir, "initial")

	git(t, filepath.Dir(env.Remote), "clone", "-q", "--bare", env.WorkDir, env.Remote)
	git(t, env.WorkDir, "remote", "add", "origin", env.Remote)

	return env
}

// requireTool skips the test when name is not on PATH.
func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found on PATH", name)
	}
}

// git runs git in dir with a fixed identity and returns its trimmed output.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	argv := append([]string{"-c", "user.name=Test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", argv...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// commit stages everything in dir and commits it.
func commit(t *testing.T, dir, message string) string {
	t.Helper()
	git(t, dir, "add", "-A")
	git(t, dir, "commit", "-q", "-m", message)
	return git(t, dir, "rev-parse", "HEAD")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to not exist", path)
	}
}

// quietRunner executes commands for real, discarding their output.
func quietRunner(sudo string) *runner.Exec {
	return &runner.Exec{Sudo: sudo, Stdout: io.Discard, Stderr: io.Discard}
}
