// Package steam discovers Steam libraries on disk and reads their app
// manifests. It only looks at files; nothing here talks to Steam itself.
package steam

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/andygrunwald/vdf"
)

// Dir is one steamapps directory and the platform its games run on.
type Dir struct {
	Path     string
	Platform string // "linux" or "windows"
}

// DefaultRoots returns the candidate Steam install roots for the current
// user: the XDG data dir, the two classic ~/.steam aliases, and the flatpak
// app data dir. Roots that do not exist are filtered out by Discover.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".local/share/Steam"),
		filepath.Join(home, ".steam/steam"),
		filepath.Join(home, ".steam/root"),
		filepath.Join(home, ".var/app/com.valvesoftware.Steam/data/Steam"),
	}
}

// Discover returns every steamapps directory reachable from the given Steam
// roots, expanded through each root's libraryfolders.vdf, plus any
// wineDirs (steamapps paths inside Wine prefixes, tagged "windows").
// Duplicates are collapsed; symlinked aliases like ~/.steam/root resolve to
// one entry.
func Discover(roots []string, wineDirs []string) []Dir {
	seen := make(map[string]bool)
	var dirs []Dir

	add := func(path, platform string) {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			path = resolved
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return
		}
		if seen[path] {
			return
		}
		seen[path] = true
		dirs = append(dirs, Dir{Path: path, Platform: platform})
	}

	for _, root := range roots {
		base := steamappsIn(root)
		if base == "" {
			continue
		}
		add(base, "linux")
		for _, extra := range libraryFolders(base) {
			add(extra, "linux")
		}
	}
	for _, d := range wineDirs {
		add(d, "windows")
	}
	return dirs
}

// steamappsIn finds the steamapps directory under a Steam root, tolerating
// the legacy SteamApps casing.
func steamappsIn(root string) string {
	for _, name := range []string{"steamapps", "SteamApps"} {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

// libraryFolders reads steamapps/libraryfolders.vdf and returns the
// steamapps dirs of the extra library roots it names. Handles both the
// current format (numbered blocks with a "path" key) and the old flat
// format (numbered keys mapping straight to a path).
func libraryFolders(steamappsDir string) []string {
	f, err := os.Open(filepath.Join(steamappsDir, "libraryfolders.vdf"))
	if err != nil {
		return nil
	}
	defer f.Close()

	data, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil
	}

	var folders map[string]interface{}
	for _, key := range []string{"libraryfolders", "LibraryFolders"} {
		if m, ok := data[key].(map[string]interface{}); ok {
			folders = m
			break
		}
	}
	if folders == nil {
		return nil
	}

	var paths []string
	for key, value := range folders {
		if _, err := strconv.Atoi(key); err != nil {
			continue
		}
		switch v := value.(type) {
		case string:
			paths = append(paths, filepath.Join(v, "steamapps"))
		case map[string]interface{}:
			if p, ok := v["path"].(string); ok {
				paths = append(paths, filepath.Join(p, "steamapps"))
			}
		}
	}
	return paths
}
