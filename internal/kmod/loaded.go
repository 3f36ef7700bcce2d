package kmod

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ProcModules lists the currently loaded modules.
const ProcModules = "/proc/modules"

// Loaded reports whether module appears in /proc/modules. Dashes and
// underscores are interchangeable in module names.
func Loaded(fs afero.Fs, module string) (bool, error) {
	f, err := fs.Open(ProcModules)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", ProcModules, err)
	}
	defer f.Close()

	want := normalize(module)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && normalize(fields[0]) == want {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("reading %s: %w", ProcModules, err)
	}
	return false, nil
}

func normalize(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
