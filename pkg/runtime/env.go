package runtime

import (
	"os"
	"path/filepath"
	"strings"
)

// Env returns the environment entries that put the managed runtime's
// libraries on the loader path. The runtime dir holds lib/ and lib64/
// subdirectories; missing ones are skipped, and an existing
// LD_LIBRARY_PATH stays ahead of the runtime so user overrides win.
func Env(runtimeDir string) []string {
	if runtimeDir == "" {
		return nil
	}
	var libs []string
	for _, sub := range []string{"lib", "lib64"} {
		p := filepath.Join(runtimeDir, sub)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			libs = append(libs, p)
		}
	}
	if len(libs) == 0 {
		return nil
	}
	if existing := os.Getenv("LD_LIBRARY_PATH"); existing != "" {
		libs = append([]string{existing}, libs...)
	}
	return []string{"LD_LIBRARY_PATH=" + strings.Join(libs, ":")}
}
